package webhook

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/nhle/inboundkit/internal/domain"
	"github.com/nhle/inboundkit/internal/logging"
)

// defaultMaxBodyBytes bounds a webhook payload when none is configured.
const defaultMaxBodyBytes = 10 << 20

// RouterOptions configures NewRouter.
type RouterOptions struct {
	// Variant handles POST /api/inbound.
	Variant Variant

	// Domains backs the domain proxy routes. They are not mounted when nil.
	Domains domain.API

	AllowedOrigins []string
	MaxBodyBytes   int64
	Logger         *slog.Logger
}

// NewRouter builds the server's routes.
func NewRouter(opts RouterOptions) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	maxBody := opts.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBodyBytes
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(recoverer(logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		if opts.Variant != nil {
			h := &inboundHandler{variant: opts.Variant, maxBody: maxBody, logger: logger}
			r.Post("/inbound", h.ServeHTTP)
		}

		if opts.Domains != nil {
			d := &domainProxy{api: opts.Domains, logger: logger}
			r.Group(func(r chi.Router) {
				r.Use(cors.Handler(cors.Options{
					AllowedOrigins: opts.AllowedOrigins,
					AllowedMethods: []string{"GET", "POST", "OPTIONS"},
					AllowedHeaders: []string{"Accept", "Content-Type"},
					MaxAge:         300,
				}))
				r.Post("/domains", d.create)
				r.Get("/domains/{id}", d.check)
				r.Options("/domains", func(w http.ResponseWriter, _ *http.Request) {})
				r.Options("/domains/{id}", func(w http.ResponseWriter, _ *http.Request) {})
			})
		}
	})

	return r
}
