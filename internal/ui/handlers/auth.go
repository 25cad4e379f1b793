// auth.go — вход по паролю бота и выход из консоли.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/bigkaa/sharebot-console/internal/service"
	"github.com/bigkaa/sharebot-console/internal/ui/auth"
	"github.com/bigkaa/sharebot-console/internal/ui/i18n"
	uimiddleware "github.com/bigkaa/sharebot-console/internal/ui/middleware"
	"github.com/bigkaa/sharebot-console/internal/ui/notify"
	"github.com/bigkaa/sharebot-console/internal/ui/pages"
)

// HomePath — страница после входа.
const HomePath = "/admin/dashboard"

// AuthHandler — обработчики входа и выхода.
type AuthHandler struct {
	sessions *auth.Manager
	gw       *Gateway
	logger   *slog.Logger
	now      func() time.Time
}

// NewAuthHandler создаёт новый AuthHandler.
func NewAuthHandler(sessions *auth.Manager, gw *Gateway, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		sessions: sessions,
		gw:       gw,
		logger:   logger.With(slog.String("component", "ui.auth")),
		now:      time.Now,
	}
}

// HandleLoginPage — GET /admin/login.
// С действующей сессией — сразу на обзор. ?expired=1 — сессия завершена
// из SSE-потока, где уведомление не доставить.
func (h *AuthHandler) HandleLoginPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, err := h.sessions.Current(ctx, r); err == nil {
		http.Redirect(w, r, HomePath, http.StatusFound)
		return
	}
	if r.URL.Query().Get("expired") == "1" {
		notify.FromContext(ctx).Error(i18n.T(ctx, "toast.session_expired"))
	}
	h.renderLogin(w, r, "")
}

// HandleLogin — POST /admin/login.
// Отказ показывается в форме, сохранённая сессия при этом не меняется.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseForm(); err != nil {
		h.loginFailed(w, r, i18n.T(ctx, "toast.request_failed"))
		return
	}

	s, err := h.sessions.Login(ctx, w, r.PostFormValue("password"))
	if err != nil {
		var rejected *auth.LoginRejectedError
		switch {
		case errors.Is(err, auth.ErrPasswordRequired):
			h.loginFailed(w, r, i18n.T(ctx, "toast.password_required"))
		case errors.As(err, &rejected):
			msg := rejected.Message
			if msg == "" {
				msg = i18n.T(ctx, "login.wrong_password")
			}
			h.loginFailed(w, r, msg)
		case errors.Is(err, auth.ErrConnectivity):
			h.loginFailed(w, r, i18n.T(ctx, "toast.network_error"))
		default:
			h.logger.Error("Ошибка входа", slog.String("error", err.Error()))
			h.loginFailed(w, r, i18n.T(ctx, "toast.request_failed"))
		}
		return
	}

	notify.FromContext(ctx).Success(i18n.T(ctx, "toast.login_success"))
	h.gw.RecordFor(r, s, service.ActionLogin, "", nil)
	uimiddleware.Redirect(w, r, HomePath)
}

// HandleLogout — POST /admin/logout. Никогда не завершается ошибкой.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s := uimiddleware.SessionFromContext(ctx)
	h.sessions.Logout(ctx, w, s)
	if s.Authenticated() {
		h.gw.RecordFor(r, s, service.ActionLogout, "", nil)
	}
	notify.FromContext(ctx).Info(i18n.T(ctx, "toast.logged_out"))
	uimiddleware.Redirect(w, r, uimiddleware.LoginPath)
}

// loginFailed: HTMX получает только блок ошибки, обычная отправка формы —
// страницу входа целиком.
func (h *AuthHandler) loginFailed(w http.ResponseWriter, r *http.Request, msg string) {
	if uimiddleware.IsHTMX(r) {
		h.gw.Render(w, r, pages.LoginError(msg))
		return
	}
	h.renderLogin(w, r, msg)
}

func (h *AuthHandler) renderLogin(w http.ResponseWriter, r *http.Request, msg string) {
	now := h.now()
	doc := pages.DocumentData{Toasts: notify.FromContext(r.Context()).Drain(now), Now: now}
	if err := pages.Render(w, r, http.StatusOK, pages.Login(msg, doc)); err != nil {
		h.logger.Error("Ошибка рендеринга страницы входа", slog.String("error", err.Error()))
	}
}
