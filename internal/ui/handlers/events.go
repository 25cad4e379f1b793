// events.go — SSE-поток состояния бота для страницы Health.
// Каждый клиент обслуживается своей горутиной запроса.
package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/bigkaa/sharebot-console/internal/botapi"
	"github.com/bigkaa/sharebot-console/internal/service"
	uimiddleware "github.com/bigkaa/sharebot-console/internal/ui/middleware"
	"github.com/bigkaa/sharebot-console/internal/ui/pages/partials"
)

// SSE-события потока состояния.
const (
	EventHealth         = "health"
	EventSessionExpired = "session-expired"
)

// ExpiredQuery — признак страницы входа, что сессия истекла (toast.session_expired).
const ExpiredQuery = "?expired=1"

// EventsHandler — SSE endpoints.
type EventsHandler struct {
	bot         *botapi.Client
	sessions    SessionExpirer
	gw          *Gateway
	sseInterval time.Duration
	logger      *slog.Logger
}

// NewEventsHandler создаёт новый EventsHandler.
// sseInterval — интервал отправки обновлений (SC_SSE_INTERVAL).
func NewEventsHandler(
	bot *botapi.Client,
	sessions SessionExpirer,
	gw *Gateway,
	sseInterval time.Duration,
	logger *slog.Logger,
) *EventsHandler {
	return &EventsHandler{
		bot:         bot,
		sessions:    sessions,
		gw:          gw,
		sseInterval: sseInterval,
		logger:      logger.With(slog.String("component", "ui.events")),
	}
}

// HandleHealth — GET /admin/events/health.
// Сразу и затем каждые sseInterval отправляет event: health с HTML блока
// показателей. 401 от бота завершает сессию и поток событием session-expired;
// прочие ошибки пропускают очередную отправку.
func (h *EventsHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	s := uimiddleware.SessionFromContext(r.Context())

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	// ResponseController находит http.Flusher через Unwrap() обёрток middleware.
	rc := http.NewResponseController(w)
	if err := rc.Flush(); err != nil {
		h.logger.Error("SSE не поддерживается", slog.String("error", err.Error()))
		return
	}

	ctx := r.Context()
	h.logger.Debug("SSE клиент подключён", slog.String("remote_addr", r.RemoteAddr))

	ticker := time.NewTicker(h.sseInterval)
	defer ticker.Stop()

	for {
		health, err := h.bot.Health(ctx, s.Token())
		switch {
		case err == nil:
			var buf bytes.Buffer
			if err := partials.HealthStats(health).Render(ctx, &buf); err != nil {
				h.logger.Error("Ошибка рендеринга показателей", slog.String("error", err.Error()))
				break
			}
			writeEvent(w, EventHealth, buf.String())
			_ = rc.Flush()
		case errors.Is(err, botapi.ErrUnauthorized):
			// Заголовки уже отправлены: cookie не очистить, но токен отзывается.
			// Уведомление об истечении показывает только первая вкладка.
			target := uimiddleware.LoginPath
			if h.sessions.Expire(ctx, w, s) {
				h.gw.Record(r, service.ActionExpire, "", map[string]any{"source": "sse"})
				target += ExpiredQuery
			}
			writeEvent(w, EventSessionExpired, target)
			_ = rc.Flush()
			return
		case ctx.Err() != nil:
			return
		default:
			h.logger.Warn("Ошибка получения состояния бота для SSE", slog.String("error", err.Error()))
		}

		select {
		case <-ctx.Done():
			h.logger.Debug("SSE клиент отключён")
			return
		case <-ticker.C:
		}
	}
}

// writeEvent пишет событие SSE; многострочные данные — несколькими строками data:.
func writeEvent(w http.ResponseWriter, event, data string) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "event: %s\n", event)
	for _, line := range strings.Split(data, "\n") {
		fmt.Fprintf(&sb, "data: %s\n", line)
	}
	sb.WriteString("\n")
	_, _ = w.Write([]byte(sb.String()))
}
