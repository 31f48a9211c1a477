package api

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/okian/ladder/pkg/logger"
)

//go:embed templates/dashboard.html
var templatesFS embed.FS

var dashboardTemplate = template.Must(template.ParseFS(templatesFS, "templates/dashboard.html"))

// dashboardHandler renders the ranking as an HTML table.
type dashboardHandler struct {
	deps   RankingDependencies
	logger logger.Logger
}

func newDashboardHandler(deps RankingDependencies, l logger.Logger) *dashboardHandler {
	return &dashboardHandler{deps: deps, logger: l}
}

// HandleDashboard handles GET /dashboard.
func (h *dashboardHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_dashboard"
	ranking, err := h.deps.Ranking(r.Context())
	if err != nil {
		fail(r.Context(), w, h.logger, Wrap(op, err))
		return
	}
	var buf bytes.Buffer
	if err := dashboardTemplate.Execute(&buf, ranking); err != nil {
		fail(r.Context(), w, h.logger, WrapKind(op, ErrInternal, err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
