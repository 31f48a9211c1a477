// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	service "github.com/okian/ladder/internal/app"
	"github.com/okian/ladder/internal/domain/forms"
	"github.com/okian/ladder/internal/domain/types"
	"github.com/okian/ladder/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	RankingDependencies
	HistoryDependencies
	WriteDependencies
	StatsProvider
}

// RankingDependencies exposes replay-backed read operations.
type RankingDependencies interface {
	Ranking(ctx context.Context) (types.Ranking, error)
	Players(ctx context.Context) ([]string, error)
}

// HistoryDependencies exposes the raw log.
type HistoryDependencies interface {
	History(ctx context.Context) ([]types.HistoryEntry, error)
	DeleteRecord(ctx context.Context, position int) error
}

// WriteDependencies appends validated forms.
type WriteDependencies interface {
	RecordMatch(ctx context.Context, requestID string, in forms.MatchInput) (service.WriteResult, error)
	RecordAdjustment(ctx context.Context, requestID string, in forms.AdjustmentInput) (service.WriteResult, error)
	RegisterPlayer(ctx context.Context, requestID string, in forms.NewPlayerInput) (service.WriteResult, error)
}

// Notifier is told after every change to the event log.
type Notifier interface {
	Notify(ctx context.Context)
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context) {}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	rankingHandler   *RankingHandler
	historyHandler   *HistoryHandler
	writeHandler     *WriteHandler
	dashboardHandler *dashboardHandler
}

// ServerOption configures the Server.
type ServerOption func(*serverConfig)

type serverConfig struct {
	logger   logger.Logger
	notifier Notifier
}

// WithLogger sets the logger used for server-side failures.
func WithLogger(l logger.Logger) ServerOption {
	return func(c *serverConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithNotifier registers n to hear about appended and deleted records.
func WithNotifier(n Notifier) ServerOption {
	return func(c *serverConfig) {
		if n != nil {
			c.notifier = n
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...ServerOption) *Server {
	cfg := serverConfig{notifier: nopNotifier{}}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = logger.Get().Named("api")
	}
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(deps),
		rankingHandler:   NewRankingHandler(deps, cfg.logger),
		historyHandler:   NewHistoryHandler(deps, cfg.logger, cfg.notifier),
		writeHandler:     NewWriteHandler(deps, cfg.logger, cfg.notifier),
		dashboardHandler: newDashboardHandler(deps, cfg.logger),
	}
}

// Register attaches all HTTP routes to r inside a group carrying the
// request id and metrics middleware, so r may already have routes.
func (s *Server) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(RequestIDMiddleware, MetricsMiddleware)

		r.Get("/healthz", s.healthHandler.HandleHealth)
		r.Get("/stats", s.statsHandler.HandleStats)
		r.Get("/dashboard", s.dashboardHandler.HandleDashboard)

		r.Get("/ranking", s.rankingHandler.HandleGetRanking)
		r.Get("/players", s.rankingHandler.HandleGetPlayers)

		r.Get("/history", s.historyHandler.HandleGetHistory)
		r.Delete("/history/{position}", s.historyHandler.HandleDeleteRecord)

		r.Post("/matches", s.writeHandler.HandlePostMatch)
		r.Post("/adjustments", s.writeHandler.HandlePostAdjustment)
		r.Post("/players", s.writeHandler.HandlePostPlayer)
	})
}

// Routes returns a fresh router with every route registered.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	s.Register(r)
	return r
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// classify maps service errors to a status and error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest), errors.Is(err, forms.ErrValidation):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, ErrNotFound), errors.Is(err, service.ErrRecordNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrLogUnavailable):
		return http.StatusServiceUnavailable, "log_unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// fail writes err with the status classify picks, logging server-side failures.
func fail(ctx context.Context, w http.ResponseWriter, l logger.Logger, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		l.Error(ctx, "request failed",
			logger.String("requestID", RequestIDFromContext(ctx)),
			logger.String("code", code),
			logger.Error(err),
		)
	}
	writeError(w, status, code, err)
}
