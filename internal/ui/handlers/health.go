package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/bigkaa/sharebot-console/internal/botapi"
	"github.com/bigkaa/sharebot-console/internal/service"
	"github.com/bigkaa/sharebot-console/internal/ui/pages/partials"
)

// journalLimit — сколько последних событий журнала показывать.
const journalLimit = 20

// HealthHandler — загрузчик страницы состояния.
type HealthHandler struct {
	bot    *botapi.Client
	deps   *service.DephealthService // может быть nil
	audit  *service.AuditService    // может быть nil
	gw     *Gateway
	logger *slog.Logger
}

// NewHealthHandler создаёт новый HealthHandler.
func NewHealthHandler(
	bot *botapi.Client,
	deps *service.DephealthService,
	audit *service.AuditService,
	gw *Gateway,
	logger *slog.Logger,
) *HealthHandler {
	return &HealthHandler{
		bot:    bot,
		deps:   deps,
		audit:  audit,
		gw:     gw,
		logger: logger.With(slog.String("component", "ui.health")),
	}
}

// HandleHealth — GET /admin/partials/health.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	var bh *botapi.Health
	if !h.gw.Load(w, r, func(ctx context.Context, token string) (err error) {
		bh, err = h.bot.Health(ctx, token)
		return err
	}) {
		return
	}

	d := partials.HealthData{Bot: bh, JournalEnabled: h.audit.Enabled()}
	for _, st := range h.deps.Statuses() {
		d.Deps = append(d.Deps, partials.DependencyView{Name: st.Name, Healthy: st.Healthy})
	}
	if d.JournalEnabled {
		events, err := h.audit.Recent(r.Context(), journalLimit)
		if err != nil {
			// Журнал вспомогательный: страница выводится без него.
			h.logger.Warn("Журнал действий недоступен", slog.String("error", err.Error()))
		}
		for _, e := range events {
			d.Journal = append(d.Journal, partials.JournalEntry{
				At:     e.OccurredAt,
				Action: e.Action,
				Target: e.Target,
				Actor:  e.Actor,
			})
		}
	}
	h.gw.Render(w, r, partials.Health(d))
}
