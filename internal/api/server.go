// Package api exposes the recommendation service over HTTP.
package api

import (
	"io"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"crypto-recommendation/internal/observability"
)

// BasePath prefixes the recommendation routes.
const BasePath = "/api/crypto-recommend"

// Stream is the websocket endpoint mounted on /ws.
type Stream interface {
	http.Handler
	ClientCount() int
}

// AppInfo identifies the service on /status.
type AppInfo struct {
	Name    string
	Version string
}

// Server routes HTTP requests to the recommendation service.
type Server struct {
	service   Recommender
	stream    Stream
	app       AppInfo
	validate  *validator.Validate
	logger    *log.Logger
	startedAt time.Time
	router    chi.Router
}

// Options contains configuration for creating a Server.
type Options struct {
	Service Recommender // required
	Stream  Stream      // nil disables /ws
	App     AppInfo
	Logger  *log.Logger // nil discards logs
}

// NewServer creates a new Server with all routes registered.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	s := &Server{
		service:   opts.Service,
		stream:    opts.Stream,
		app:       opts.App,
		validate:  newValidator(),
		logger:    logger,
		startedAt: time.Now(),
	}
	s.router = s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)

	// Websocket before the wrapping middleware; it needs the raw ResponseWriter.
	if s.stream != nil {
		r.Handle("/ws", s.stream)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: s.logger, NoColor: true}))
		r.Use(middleware.Recoverer)
		r.Use(metricsMiddleware)

		r.Get("/health", s.handleHealth)
		r.Get("/status", s.handleStatus)
		r.Handle("/metrics", observability.Handler())

		r.Route(BasePath, func(r chi.Router) {
			r.Use(render.SetContentType(render.ContentTypeJSON))

			r.Get("/cryptoStats/{crypto}", s.handleCryptoStats)
			r.Get("/normalizedPricesDescending", s.handleRanking)
			r.Get("/highestCryptoNormalizedRange/byDay/{date}", s.handleHighestByDay)
			r.Get("/cryptos", s.handleSymbols)
			r.Post("/cryptos/{crypto}/prices", s.handleSavePrices)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		render.Render(w, r, newError(http.StatusNotFound, ErrorTypeNotFound, msgNoRoute))
	})

	return r
}

// metricsMiddleware records request counts and latency by route pattern.
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		observability.RecordHTTPRequest(route, status, time.Since(start).Seconds())
	})
}
