package api

import (
	"net/http"

	"github.com/okian/ladder/pkg/logger"
)

// RankingHandler serves replay-backed reads.
type RankingHandler struct {
	deps   RankingDependencies
	logger logger.Logger
}

// NewRankingHandler creates a new ranking handler.
func NewRankingHandler(deps RankingDependencies, l logger.Logger) *RankingHandler {
	return &RankingHandler{deps: deps, logger: l}
}

// HandleGetRanking handles GET /ranking.
func (h *RankingHandler) HandleGetRanking(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_ranking"
	ranking, err := h.deps.Ranking(r.Context())
	if err != nil {
		fail(r.Context(), w, h.logger, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, ranking)
}

// HandleGetPlayers handles GET /players.
func (h *RankingHandler) HandleGetPlayers(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_players"
	players, err := h.deps.Players(r.Context())
	if err != nil {
		fail(r.Context(), w, h.logger, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, players)
}
