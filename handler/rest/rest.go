package rest

import (
	"errors"
	"net/http"

	"lending/core"
	"lending/handler/auth"
	"lending/handler/render"
	"lending/handler/request"
	"lending/handler/views"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi"
)

// Handle handle rest api request
func Handle(
	ledger core.LedgerService,
	governor core.TimelockService,
	oracle core.OracleService,
	swap core.SwapService,
	authn *auth.Authenticator,
) http.Handler {
	router := chi.NewRouter()
	router.Use(authn.HandleAuthentication())

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		render.NotFoundRequest(w, errors.New("not found"))
	})

	router.Get("/market", marketHandler(ledger))
	router.Get("/events", eventsHandler(ledger))
	router.Route("/accounts/{address}", func(r chi.Router) {
		r.Get("/", accountHandler(ledger))
		r.Get("/risk", riskHandler(ledger))
		r.Get("/interest", interestHandler(ledger))
		r.Get("/health", healthHandler(ledger))
	})

	router.Get("/timelock/calls", pendingCallsHandler(governor))
	router.Get("/prices", pricesHandler(oracle))
	router.Get("/prices/{asset}", priceHandler(oracle))
	router.Get("/swap/quote", quoteHandler(swap))

	router.Group(func(r chi.Router) {
		r.Use(auth.LoginRequired)

		r.Post("/deposit", amountHandler(ledger.Deposit))
		r.Post("/withdraw", amountHandler(ledger.Withdraw))
		r.Post("/borrow", amountHandler(ledger.Borrow))
		r.Post("/repay", amountHandler(ledger.Repay))
		r.Post("/liquidate", liquidateHandler(ledger))
		r.Post("/collect-fees", collectFeesHandler(ledger))
		r.Post("/pause", pauseHandler(ledger, true))
		r.Post("/unpause", pauseHandler(ledger, false))

		r.Post("/timelock/queue", queueHandler(governor))
		r.Post("/timelock/execute", executeHandler(governor))
		r.Post("/timelock/cancel", cancelHandler(governor))

		r.Post("/prices", setPriceHandler(oracle))
		r.Post("/swap", swapHandler(swap))
	})

	return router
}

func callerOf(r *http.Request) common.Address {
	caller, _ := request.NewContext(r.Context()).GetCaller()
	return caller
}

func renderEvents(w http.ResponseWriter, events []*core.Event) {
	render.JSON(w, render.H{"events": views.EventViews(events)})
}
