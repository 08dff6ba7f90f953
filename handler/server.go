package handler

import (
	"net/http"

	"lending/core"
	"lending/handler/auth"
	"lending/handler/hc"
	"lending/handler/ratelimit"
	"lending/handler/render"
	"lending/handler/rest"

	"github.com/fox-one/pkg/logger"
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/twitchtv/twirp"
)

// Config server config
type Config struct {
	Version string
	// RequestsPerMinute per client ip on /api, 0 disables limiting
	RequestsPerMinute float64
	Burst             int
}

// Server server
type Server struct {
	cfg      Config
	ledger   core.LedgerService
	governor core.TimelockService
	oracle   core.OracleService
	swap     core.SwapService
	authn    *auth.Authenticator
	checks   []hc.Check
}

// New new server function
func New(
	cfg Config,
	ledger core.LedgerService,
	governor core.TimelockService,
	oracle core.OracleService,
	swap core.SwapService,
	authn *auth.Authenticator,
	checks ...hc.Check,
) Server {
	return Server{
		cfg:      cfg,
		ledger:   ledger,
		governor: governor,
		oracle:   oracle,
		swap:     swap,
		authn:    authn,
		checks:   checks,
	}
}

// Handler root mux with health check, metrics and the rest api
func (s Server) Handler() http.Handler {
	mux := chi.NewMux()
	mux.Use(middleware.Recoverer)
	mux.Use(middleware.StripSlashes)
	mux.Use(cors.AllowAll().Handler)
	mux.Use(logger.WithRequestID)
	mux.Use(middleware.Logger)
	mux.Use(middleware.NewCompressor(5).Handler)

	mux.Mount("/hc", hc.Handle(s.cfg.Version, s.checks...))
	mux.Mount("/metrics", promhttp.Handler())
	mux.Mount("/api", s.HandleRestAPI())

	return mux
}

// HandleRestAPI handle restful apis
func (s Server) HandleRestAPI() http.Handler {
	r := chi.NewRouter()
	if s.cfg.RequestsPerMinute > 0 {
		r.Use(ratelimit.New(s.cfg.RequestsPerMinute, s.cfg.Burst).Handle)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		render.Error(w, twirp.NotFoundError("not found"))
	})

	r.Mount("/", rest.Handle(s.ledger, s.governor, s.oracle, s.swap, s.authn))
	return r
}
