package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/okian/ladder/pkg/logger"
)

// HistoryHandler lists and deletes log records.
type HistoryHandler struct {
	deps     HistoryDependencies
	logger   logger.Logger
	notifier Notifier
}

// NewHistoryHandler creates a new history handler.
func NewHistoryHandler(deps HistoryDependencies, l logger.Logger, n Notifier) *HistoryHandler {
	if n == nil {
		n = nopNotifier{}
	}
	return &HistoryHandler{deps: deps, logger: l, notifier: n}
}

// HandleGetHistory handles GET /history. Records are newest-first.
func (h *HistoryHandler) HandleGetHistory(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_history"
	entries, err := h.deps.History(r.Context())
	if err != nil {
		fail(r.Context(), w, h.logger, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// HandleDeleteRecord handles DELETE /history/{position}.
func (h *HistoryHandler) HandleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	const op = "api.delete_record"
	position, err := strconv.Atoi(chi.URLParam(r, "position"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := h.deps.DeleteRecord(r.Context(), position); err != nil {
		fail(r.Context(), w, h.logger, Wrap(op, err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
	h.notifier.Notify(r.Context())
}
