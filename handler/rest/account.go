package rest

import (
	"net/http"

	"lending/core"
	"lending/handler/param"
	"lending/handler/render"
	"lending/handler/views"

	"github.com/go-chi/chi"
)

func accountHandler(ledger core.LedgerService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := param.Address("address", chi.URLParam(r, "address"))
		if err != nil {
			render.Error(w, err)
			return
		}

		details, err := ledger.GetAccount(r.Context(), user)
		if err != nil {
			render.Error(w, err)
			return
		}

		render.JSON(w, views.AccountView(details))
	}
}

func riskHandler(ledger core.LedgerService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := param.Address("address", chi.URLParam(r, "address"))
		if err != nil {
			render.Error(w, err)
			return
		}

		risk, err := ledger.GetLiquidationRisk(r.Context(), user)
		if err != nil {
			render.Error(w, err)
			return
		}

		render.JSON(w, views.RiskView(risk))
	}
}

func interestHandler(ledger core.LedgerService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := param.Address("address", chi.URLParam(r, "address"))
		if err != nil {
			render.Error(w, err)
			return
		}

		info, err := ledger.GetInterestRateInfo(r.Context(), user)
		if err != nil {
			render.Error(w, err)
			return
		}

		render.JSON(w, views.InterestView(info))
	}
}

func healthHandler(ledger core.LedgerService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := param.Address("address", chi.URLParam(r, "address"))
		if err != nil {
			render.Error(w, err)
			return
		}

		health, err := ledger.GetPositionHealth(r.Context(), user)
		if err != nil {
			render.Error(w, err)
			return
		}

		render.JSON(w, views.HealthView(health))
	}
}
