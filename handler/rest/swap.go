package rest

import (
	"net/http"

	"lending/core"
	"lending/handler/param"
	"lending/handler/render"
	"lending/pkg/number"
)

func quoteHandler(swap core.SwapService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params struct {
			TokenIn  string `json:"token_in" valid:"required"`
			TokenOut string `json:"token_out" valid:"required"`
			AmountIn string `json:"amount_in" valid:"required"`
		}

		if err := param.Binding(r, &params); err != nil {
			render.Error(w, err)
			return
		}

		tokenIn, err := param.Address("token_in", params.TokenIn)
		if err != nil {
			render.Error(w, err)
			return
		}

		tokenOut, err := param.Address("token_out", params.TokenOut)
		if err != nil {
			render.Error(w, err)
			return
		}

		amountIn, err := param.Amount("amount_in", params.AmountIn)
		if err != nil {
			render.Error(w, err)
			return
		}

		out, err := swap.Quote(r.Context(), tokenIn, tokenOut, amountIn)
		if err != nil {
			render.Error(w, err)
			return
		}

		render.JSON(w, render.H{
			"amount_out": number.FormatUnits(out),
			"fee_rate":   swap.FeeRate(),
		})
	}
}

func swapHandler(swap core.SwapService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			TokenIn      string `json:"token_in" valid:"required"`
			TokenOut     string `json:"token_out" valid:"required"`
			AmountIn     string `json:"amount_in" valid:"required"`
			MinAmountOut string `json:"min_amount_out"`
		}

		if err := param.Binding(r, &body); err != nil {
			render.Error(w, err)
			return
		}

		tokenIn, err := param.Address("token_in", body.TokenIn)
		if err != nil {
			render.Error(w, err)
			return
		}

		tokenOut, err := param.Address("token_out", body.TokenOut)
		if err != nil {
			render.Error(w, err)
			return
		}

		amountIn, err := param.Amount("amount_in", body.AmountIn)
		if err != nil {
			render.Error(w, err)
			return
		}

		minOut := "0"
		if body.MinAmountOut != "" {
			minOut = body.MinAmountOut
		}

		minAmountOut, err := param.Amount("min_amount_out", minOut)
		if err != nil {
			render.Error(w, err)
			return
		}

		out, err := swap.Swap(r.Context(), callerOf(r), tokenIn, tokenOut, amountIn, minAmountOut)
		if err != nil {
			render.Error(w, err)
			return
		}

		render.JSON(w, render.H{"amount_out": number.FormatUnits(out)})
	}
}
