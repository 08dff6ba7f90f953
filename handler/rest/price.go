package rest

import (
	"net/http"

	"lending/core"
	"lending/handler/param"
	"lending/handler/render"
	"lending/handler/views"

	"github.com/go-chi/chi"
)

func pricesHandler(oracle core.OracleService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		prices, err := oracle.Prices(r.Context())
		if err != nil {
			render.Error(w, err)
			return
		}

		items := make([]views.Price, len(prices))
		for i, p := range prices {
			items[i] = views.PriceView(p)
		}

		render.JSON(w, items)
	}
}

func priceHandler(oracle core.OracleService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		asset, err := param.Address("asset", chi.URLParam(r, "asset"))
		if err != nil {
			render.Error(w, err)
			return
		}

		price, err := oracle.Price(r.Context(), asset)
		if err != nil {
			render.Error(w, err)
			return
		}

		render.JSON(w, views.PriceView(&core.Price{Asset: asset, Price: price}))
	}
}

func setPriceHandler(oracle core.OracleService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Asset string `json:"asset" valid:"required"`
			Price string `json:"price" valid:"required"`
		}

		if err := param.Binding(r, &body); err != nil {
			render.Error(w, err)
			return
		}

		asset, err := param.Address("asset", body.Asset)
		if err != nil {
			render.Error(w, err)
			return
		}

		price, err := param.Amount("price", body.Price)
		if err != nil {
			render.Error(w, err)
			return
		}

		if err := oracle.SetPrice(r.Context(), callerOf(r), asset, price); err != nil {
			render.Error(w, err)
			return
		}

		render.JSON(w, views.DefaultSuccess)
	}
}
