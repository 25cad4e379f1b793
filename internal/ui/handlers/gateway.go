// Пакет handlers — HTTP-обработчики консоли: загрузчики страниц и действия.
// gateway.go — единая точка вызова API бота из обработчиков.
package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/a-h/templ"

	apimiddleware "github.com/bigkaa/sharebot-console/internal/api/middleware"
	"github.com/bigkaa/sharebot-console/internal/botapi"
	"github.com/bigkaa/sharebot-console/internal/repository"
	"github.com/bigkaa/sharebot-console/internal/service"
	"github.com/bigkaa/sharebot-console/internal/ui/auth"
	"github.com/bigkaa/sharebot-console/internal/ui/i18n"
	uimiddleware "github.com/bigkaa/sharebot-console/internal/ui/middleware"
	"github.com/bigkaa/sharebot-console/internal/ui/notify"
	"github.com/bigkaa/sharebot-console/internal/ui/pages"
	"github.com/bigkaa/sharebot-console/internal/ui/pages/partials"
)

// actorLen — длина префикса отпечатка сессии в журнале.
const actorLen = 12

// SessionExpirer завершает сессию, отклонённую ботом (auth.Manager).
type SessionExpirer interface {
	Expire(ctx context.Context, w http.ResponseWriter, s auth.Session) bool
}

// Gateway вызывает API бота от имени сессии запроса и обрабатывает отказы:
//   - 401: сессия завершается, ровно одно уведомление, переход на вход;
//   - сбой связи: запись в лог и общее уведомление;
//   - ошибка бота: уведомление с его сообщением.
//
// Вызывающий получает только признак успеха.
type Gateway struct {
	sessions SessionExpirer
	audit    *service.AuditService
	logger   *slog.Logger
}

// NewGateway создаёт Gateway. audit может быть nil.
func NewGateway(sessions SessionExpirer, audit *service.AuditService, logger *slog.Logger) *Gateway {
	return &Gateway{
		sessions: sessions,
		audit:    audit,
		logger:   logger.With(slog.String("component", "ui.gateway")),
	}
}

// Call выполняет действие. При ошибке (кроме истечения сессии) текущий
// фрагмент страницы не заменяется (HX-Reswap: none).
func (g *Gateway) Call(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, token string) error) bool {
	s := uimiddleware.SessionFromContext(r.Context())
	err := fn(r.Context(), s.Token())
	if err == nil {
		return true
	}
	if !g.fail(w, r, s, err) {
		w.Header().Set("HX-Reswap", "none")
	}
	return false
}

// Load получает данные для самой страницы. При ошибке (кроме истечения
// сессии) на месте содержимого остаётся кнопка повтора запроса.
func (g *Gateway) Load(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, token string) error) bool {
	s := uimiddleware.SessionFromContext(r.Context())
	err := fn(r.Context(), s.Token())
	if err == nil {
		return true
	}
	if !g.fail(w, r, s, err) {
		g.Render(w, r, partials.LoadFailed(r.URL.RequestURI()))
	}
	return false
}

// fail обрабатывает ошибку вызова. true — сессия завершена и ответ записан.
func (g *Gateway) fail(w http.ResponseWriter, r *http.Request, s auth.Session, err error) bool {
	ctx := r.Context()
	q := notify.FromContext(ctx)

	var apiErr *botapi.APIError
	switch {
	case errors.Is(err, botapi.ErrUnauthorized):
		if g.sessions.Expire(ctx, w, s) {
			q.Error(i18n.T(ctx, "toast.session_expired"))
			g.Record(r, service.ActionExpire, "", nil)
		}
		uimiddleware.Redirect(w, r, uimiddleware.LoginPath)
		return true
	case errors.As(err, &apiErr):
		g.logger.Warn("API бота отклонил запрос",
			slog.String("op", apiErr.Op),
			slog.Int("status", apiErr.Status),
			slog.String("message", apiErr.Message),
		)
		msg := apiErr.Message
		if msg == "" {
			msg = i18n.T(ctx, "toast.request_failed")
		}
		q.Error(msg)
	default:
		g.logger.Error("Ошибка обращения к API бота",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		q.Error(i18n.T(ctx, "toast.network_error"))
	}
	return false
}

// Reject отклоняет действие без обращения к боту (ошибка ввода).
func (g *Gateway) Reject(w http.ResponseWriter, r *http.Request, msgKey string) {
	notify.FromContext(r.Context()).Error(i18n.T(r.Context(), msgKey))
	w.Header().Set("HX-Reswap", "none")
}

// Record пишет событие в журнал действий от имени сессии запроса.
func (g *Gateway) Record(r *http.Request, action, target string, details map[string]any) {
	g.RecordFor(r, uimiddleware.SessionFromContext(r.Context()), action, target, details)
}

// RecordFor пишет событие от имени сессии s (вход, выход).
func (g *Gateway) RecordFor(r *http.Request, s auth.Session, action, target string, details map[string]any) {
	if !g.audit.Enabled() {
		return
	}
	ctx := r.Context()
	g.audit.Record(ctx, repository.AuditEvent{
		Action:    action,
		Target:    target,
		Details:   details,
		Actor:     actor(s),
		RequestID: apimiddleware.RequestIDFromContext(ctx),
	})
}

// Render отдаёт HTML-фрагмент.
func (g *Gateway) Render(w http.ResponseWriter, r *http.Request, c templ.Component) {
	if err := pages.Render(w, r, http.StatusOK, c); err != nil {
		g.logger.Error("Ошибка рендеринга фрагмента",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
	}
}

// actor — префикс отпечатка токена сессии для журнала.
func actor(s auth.Session) string {
	if !s.Authenticated() {
		return ""
	}
	fp := s.Fingerprint()
	if len(fp) > actorLen {
		fp = fp[:actorLen]
	}
	return fp
}

// checkResult превращает ответ 2xx с success == false в ошибку бота.
func checkResult(op string, success bool, msg string) error {
	if success {
		return nil
	}
	return &botapi.APIError{Op: op, Status: http.StatusOK, Message: msg}
}
