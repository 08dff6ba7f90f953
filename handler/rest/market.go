package rest

import (
	"net/http"

	"lending/core"
	"lending/handler/param"
	"lending/handler/render"
	"lending/handler/views"
)

const maxEventsLimit = 500

func marketHandler(ledger core.LedgerService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		market, err := ledger.GetMarket(r.Context())
		if err != nil {
			render.Error(w, err)
			return
		}

		render.JSON(w, views.MarketView(market))
	}
}

func eventsHandler(ledger core.LedgerService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params struct {
			From  int64 `json:"from"`
			Limit int   `json:"limit"`
		}

		if err := param.Binding(r, &params); err != nil {
			render.Error(w, err)
			return
		}

		if params.Limit <= 0 || params.Limit > maxEventsLimit {
			params.Limit = maxEventsLimit
		}

		events, err := ledger.Events(r.Context(), params.From, params.Limit)
		if err != nil {
			render.Error(w, err)
			return
		}

		render.JSON(w, views.EventViews(events))
	}
}
