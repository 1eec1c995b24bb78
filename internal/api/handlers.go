package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"crypto-recommendation/internal/domain"
	"crypto-recommendation/internal/recommendation"
)

// Recommender is the service surface used by the HTTP handlers.
type Recommender interface {
	SaveSeries(ctx context.Context, symbol string, points []domain.PricePoint) error
	GetStats(ctx context.Context, symbol string, r domain.DateRange) (*domain.StatsSummary, error)
	GetSpecificStats(ctx context.Context, symbol string, fromDay, toDay *time.Time) (*domain.StatsSummary, error)
	RankAllSymbolsDescending(ctx context.Context, fromDay, toDay *time.Time) ([]domain.NormalizedScore, error)
	HighestScoringSymbolForDay(ctx context.Context, day time.Time) (domain.NormalizedScore, error)
	Symbols(ctx context.Context) ([]string, error)
	Status(ctx context.Context) (recommendation.Status, error)
}

// Compile-time interface check.
var _ Recommender = (*recommendation.Service)(nil)

// RankingResponse is the body of GET /normalizedPricesDescending.
type RankingResponse struct {
	CryptoList []domain.NormalizedScore `json:"cryptoList"`
}

// SymbolsResponse is the body of GET /cryptos.
type SymbolsResponse struct {
	Symbols []string `json:"symbols"`
}

// StatusResponse is the body of GET /status.
type StatusResponse struct {
	App           string `json:"app"`
	Version       string `json:"version"`
	Uptime        string `json:"uptime"`
	Symbols       int    `json:"symbols"`
	CacheEntries  int    `json:"cacheEntries"`
	StreamClients int    `json:"streamClients"`
}

// handleCryptoStats handles GET /cryptoStats/{crypto}.
func (s *Server) handleCryptoStats(w http.ResponseWriter, r *http.Request) {
	from, to, errResp := dayRangeParams(r)
	if errResp != nil {
		s.renderError(w, r, errResp)
		return
	}

	summary, err := s.service.GetSpecificStats(r.Context(), chi.URLParam(r, "crypto"), from, to)
	if err != nil {
		s.renderError(w, r, errorFor(err))
		return
	}
	render.JSON(w, r, summary)
}

// handleRanking handles GET /normalizedPricesDescending.
func (s *Server) handleRanking(w http.ResponseWriter, r *http.Request) {
	from, to, errResp := dayRangeParams(r)
	if errResp != nil {
		s.renderError(w, r, errResp)
		return
	}

	scores, err := s.service.RankAllSymbolsDescending(r.Context(), from, to)
	if err != nil {
		s.renderError(w, r, errorFor(err))
		return
	}
	if scores == nil {
		scores = []domain.NormalizedScore{}
	}
	render.JSON(w, r, RankingResponse{CryptoList: scores})
}

// handleHighestByDay handles GET /highestCryptoNormalizedRange/byDay/{date}.
func (s *Server) handleHighestByDay(w http.ResponseWriter, r *http.Request) {
	day, err := domain.ParseDay(chi.URLParam(r, "date"))
	if err != nil {
		s.renderError(w, r, invalidParam("date"))
		return
	}

	best, err := s.service.HighestScoringSymbolForDay(r.Context(), day)
	if err != nil {
		s.renderError(w, r, errorFor(err))
		return
	}
	render.JSON(w, r, best)
}

// handleSymbols handles GET /cryptos.
func (s *Server) handleSymbols(w http.ResponseWriter, r *http.Request) {
	symbols, err := s.service.Symbols(r.Context())
	if err != nil {
		s.renderError(w, r, errorFor(err))
		return
	}
	if symbols == nil {
		symbols = []string{}
	}
	render.JSON(w, r, SymbolsResponse{Symbols: symbols})
}

// handleSavePrices handles POST /cryptos/{crypto}/prices.
// It replaces the series and responds with its all-time stats.
func (s *Server) handleSavePrices(w http.ResponseWriter, r *http.Request) {
	var req SavePricesRequest
	if err := render.Bind(r, &req); err != nil {
		s.renderError(w, r, newError(http.StatusBadRequest, ErrorTypeValidation, msgBadBody))
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		s.renderError(w, r, validationFailed(fieldErrors(err)))
		return
	}

	symbol := chi.URLParam(r, "crypto")
	if err := s.service.SaveSeries(r.Context(), symbol, req.Points()); err != nil {
		s.renderError(w, r, errorFor(err))
		return
	}

	summary, err := s.service.GetStats(r.Context(), symbol, domain.AllTime())
	if err != nil {
		s.renderError(w, r, errorFor(err))
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, summary)
}

// handleHealth handles GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "ok"})
}

// handleStatus handles GET /status.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.service.Status(r.Context())
	if err != nil {
		s.renderError(w, r, errorFor(err))
		return
	}

	resp := StatusResponse{
		App:          s.app.Name,
		Version:      s.app.Version,
		Uptime:       time.Since(s.startedAt).Round(time.Second).String(),
		Symbols:      st.Symbols,
		CacheEntries: st.CacheEntries,
	}
	if s.stream != nil {
		resp.StreamClients = s.stream.ClientCount()
	}
	render.JSON(w, r, resp)
}

// dayRangeParams parses the optional dateFrom and dateTo query parameters.
func dayRangeParams(r *http.Request) (from, to *time.Time, errResp *ErrorResponse) {
	q := r.URL.Query()
	for _, p := range []struct {
		name string
		dst  **time.Time
	}{
		{"dateFrom", &from},
		{"dateTo", &to},
	} {
		raw := q.Get(p.name)
		if raw == "" {
			continue
		}
		day, err := domain.ParseDay(raw)
		if err != nil {
			return nil, nil, invalidParam(p.name)
		}
		*p.dst = &day
	}
	return from, to, nil
}

// renderError writes e and logs server-side failures.
func (s *Server) renderError(w http.ResponseWriter, r *http.Request, e *ErrorResponse) {
	if e.HTTPCode >= http.StatusInternalServerError {
		s.logger.Printf("%s %s: %s", r.Method, r.URL.Path, e.Message)
	}
	render.Render(w, r, e)
}
