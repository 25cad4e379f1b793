// Пакет middleware — HTTP middleware консоли.
// auth.go — проверка сессии администратора (cookie), отказ для отозванных токенов.
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/bigkaa/sharebot-console/internal/ui/auth"
)

// LoginPath — страница входа.
const LoginPath = "/admin/login"

// contextKey — тип для ключей контекста UI (избегаем коллизий).
type contextKey string

const (
	// ContextKeyUISession — сессия администратора в контексте запроса.
	ContextKeyUISession contextKey = "ui_session"
)

// SessionSource читает сессию запроса (auth.Manager).
type SessionSource interface {
	Current(ctx context.Context, r *http.Request) (auth.Session, error)
}

// UIAuth — middleware для проверки аутентификации администратора.
// Без действующей сессии — redirect на /admin/login (HX-Redirect для HTMX).
type UIAuth struct {
	sessions SessionSource
	codec    *auth.Codec
	logger   *slog.Logger
}

// NewUIAuth создаёт новый UIAuth middleware.
func NewUIAuth(sessions SessionSource, codec *auth.Codec, logger *slog.Logger) *UIAuth {
	return &UIAuth{
		sessions: sessions,
		codec:    codec,
		logger:   logger.With(slog.String("component", "ui_auth_middleware")),
	}
}

// Middleware возвращает HTTP middleware для проверки сессии.
// Применяется к маршрутам /admin/*, кроме входа и статики.
func (ua *UIAuth) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, err := ua.sessions.Current(r.Context(), r)
			if err != nil {
				if !errors.Is(err, auth.ErrNoSession) {
					ua.logger.Warn("Ошибка проверки сессии",
						slog.String("error", err.Error()),
						slog.String("remote_addr", r.RemoteAddr),
					)
				}
				if _, cookieErr := r.Cookie(auth.SessionCookieName); cookieErr == nil {
					ua.codec.Clear(w)
				}
				Redirect(w, r, LoginPath)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
		})
	}
}

// WithSession помещает сессию в контекст.
func WithSession(ctx context.Context, s auth.Session) context.Context {
	return context.WithValue(ctx, ContextKeyUISession, s)
}

// SessionFromContext извлекает сессию из контекста запроса.
// Вне UIAuth возвращает неаутентифицированную сессию.
func SessionFromContext(ctx context.Context) auth.Session {
	s, _ := ctx.Value(ContextKeyUISession).(auth.Session)
	return s
}

// IsHTMX сообщает, выполнен ли запрос HTMX.
func IsHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// Redirect перенаправляет браузер: HX-Redirect для HTMX, 302 иначе.
func Redirect(w http.ResponseWriter, r *http.Request, url string) {
	if IsHTMX(r) {
		w.Header().Set("HX-Redirect", url)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, url, http.StatusFound)
}
