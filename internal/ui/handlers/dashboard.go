package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/bigkaa/sharebot-console/internal/botapi"
	"github.com/bigkaa/sharebot-console/internal/ui/pages/partials"
)

// DashboardHandler — загрузчик страницы обзора.
type DashboardHandler struct {
	bot    *botapi.Client
	gw     *Gateway
	logger *slog.Logger
}

// NewDashboardHandler создаёт новый DashboardHandler.
func NewDashboardHandler(bot *botapi.Client, gw *Gateway, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{
		bot:    bot,
		gw:     gw,
		logger: logger.With(slog.String("component", "ui.dashboard")),
	}
}

// HandleDashboard — GET /admin/partials/dashboard.
func (h *DashboardHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	var d *botapi.Dashboard
	if !h.gw.Load(w, r, func(ctx context.Context, token string) (err error) {
		d, err = h.bot.Dashboard(ctx, token)
		return err
	}) {
		return
	}
	h.gw.Render(w, r, partials.Dashboard(d))
}
