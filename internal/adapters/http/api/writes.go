package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	service "github.com/okian/ladder/internal/app"
	"github.com/okian/ladder/internal/domain/forms"
	"github.com/okian/ladder/internal/domain/model"
	"github.com/okian/ladder/pkg/logger"
)

// IdempotencyKeyHeader can carry the request id instead of the body field.
const IdempotencyKeyHeader = "Idempotency-Key"

// matchRequest mirrors the OpenAPI schema for POST /matches.
type matchRequest struct {
	RequestID string   `json:"request_id"`
	Date      string   `json:"date"`
	Kind      string   `json:"kind"`
	TeamA     []string `json:"team_a"`
	TeamB     []string `json:"team_b"`
	Winner    string   `json:"winner"`
	Score     string   `json:"score"`
	Sets      string   `json:"sets"`
}

// adjustmentRequest mirrors the OpenAPI schema for POST /adjustments.
type adjustmentRequest struct {
	RequestID string `json:"request_id"`
	Date      string `json:"date"`
	Player    string `json:"player"`
	Delta     int    `json:"delta"`
	Reason    string `json:"reason"`
}

// playerRequest mirrors the OpenAPI schema for POST /players.
type playerRequest struct {
	RequestID      string `json:"request_id"`
	Date           string `json:"date"`
	Name           string `json:"name"`
	StartingRating int    `json:"starting_rating"`
}

type writeResponse struct {
	Status    string        `json:"status"`
	Duplicate bool          `json:"duplicate"`
	Record    *model.Record `json:"record,omitempty"`
}

// WriteHandler handles the three entry forms.
type WriteHandler struct {
	deps     WriteDependencies
	logger   logger.Logger
	notifier Notifier
}

// NewWriteHandler creates a new write handler.
func NewWriteHandler(deps WriteDependencies, l logger.Logger, n Notifier) *WriteHandler {
	if n == nil {
		n = nopNotifier{}
	}
	return &WriteHandler{deps: deps, logger: l, notifier: n}
}

// HandlePostMatch handles POST /matches.
func (h *WriteHandler) HandlePostMatch(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_match"
	var req matchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	kind, err := forms.ParseKind(req.Kind)
	if err != nil {
		fail(r.Context(), w, h.logger, Wrap(op, err))
		return
	}
	res, err := h.deps.RecordMatch(r.Context(), requestID(r, req.RequestID), forms.MatchInput{
		Date:   date,
		Kind:   kind,
		TeamA:  req.TeamA,
		TeamB:  req.TeamB,
		Winner: req.Winner,
		Score:  req.Score,
		Sets:   req.Sets,
	})
	h.respond(w, r, op, res, err)
}

// HandlePostAdjustment handles POST /adjustments.
func (h *WriteHandler) HandlePostAdjustment(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_adjustment"
	var req adjustmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	res, err := h.deps.RecordAdjustment(r.Context(), requestID(r, req.RequestID), forms.AdjustmentInput{
		Date:   date,
		Player: req.Player,
		Delta:  req.Delta,
		Reason: req.Reason,
	})
	h.respond(w, r, op, res, err)
}

// HandlePostPlayer handles POST /players.
func (h *WriteHandler) HandlePostPlayer(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_player"
	var req playerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	res, err := h.deps.RegisterPlayer(r.Context(), requestID(r, req.RequestID), forms.NewPlayerInput{
		Date:           date,
		Name:           req.Name,
		StartingRating: req.StartingRating,
	})
	h.respond(w, r, op, res, err)
}

func (h *WriteHandler) respond(w http.ResponseWriter, r *http.Request, op string, res service.WriteResult, err error) {
	if err != nil {
		fail(r.Context(), w, h.logger, Wrap(op, err))
		return
	}
	if res.Duplicate {
		writeJSON(w, http.StatusOK, writeResponse{Status: "duplicate", Duplicate: true})
		return
	}
	rec := res.Record
	writeJSON(w, http.StatusCreated, writeResponse{Status: "created", Record: &rec})
	h.notifier.Notify(r.Context())
}

// requestID prefers the body field and falls back to the Idempotency-Key header.
func requestID(r *http.Request, body string) string {
	if id := strings.TrimSpace(body); id != "" {
		return id
	}
	return strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))
}

// parseDate accepts an empty string (meaning today) or a dd.mm.yyyy date.
func parseDate(text string) (time.Time, error) {
	if strings.TrimSpace(text) == "" {
		return time.Time{}, nil
	}
	d, ok := model.ParseDate(text)
	if !ok {
		return time.Time{}, fmt.Errorf("invalid date %q; expected %s", text, model.DateLayout)
	}
	return d, nil
}
