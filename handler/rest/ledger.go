package rest

import (
	"context"
	"net/http"

	"lending/core"
	"lending/handler/param"
	"lending/handler/render"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

type amountFunc func(ctx context.Context, caller common.Address, amount *uint256.Int) ([]*core.Event, error)

// amountHandler serves the single amount operations: deposit, withdraw, borrow and repay
func amountHandler(fn amountFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Amount string `json:"amount" valid:"required"`
		}

		if err := param.Binding(r, &body); err != nil {
			render.Error(w, err)
			return
		}

		amount, err := param.Amount("amount", body.Amount)
		if err != nil {
			render.Error(w, err)
			return
		}

		events, err := fn(r.Context(), callerOf(r), amount)
		if err != nil {
			render.Error(w, err)
			return
		}

		renderEvents(w, events)
	}
}

func liquidateHandler(ledger core.LedgerService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Borrower    string `json:"borrower" valid:"required"`
			DebtToCover string `json:"debt_to_cover" valid:"required"`
		}

		if err := param.Binding(r, &body); err != nil {
			render.Error(w, err)
			return
		}

		borrower, err := param.Address("borrower", body.Borrower)
		if err != nil {
			render.Error(w, err)
			return
		}

		amount, err := param.Amount("debt_to_cover", body.DebtToCover)
		if err != nil {
			render.Error(w, err)
			return
		}

		events, err := ledger.Liquidate(r.Context(), callerOf(r), borrower, amount)
		if err != nil {
			render.Error(w, err)
			return
		}

		renderEvents(w, events)
	}
}

func collectFeesHandler(ledger core.LedgerService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		events, err := ledger.CollectFees(r.Context(), callerOf(r))
		if err != nil {
			render.Error(w, err)
			return
		}

		renderEvents(w, events)
	}
}

func pauseHandler(ledger core.LedgerService, paused bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		events, err := ledger.SetPaused(r.Context(), callerOf(r), paused)
		if err != nil {
			render.Error(w, err)
			return
		}

		renderEvents(w, events)
	}
}
