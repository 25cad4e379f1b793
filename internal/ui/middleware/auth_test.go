package middleware

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bigkaa/sharebot-console/internal/ui/auth"
)

// fakeSessions — источник сессий с фиксированным результатом.
type fakeSessions struct {
	session auth.Session
	err     error
}

func (f fakeSessions) Current(context.Context, *http.Request) (auth.Session, error) {
	return f.session, f.err
}

func newUIAuth(t *testing.T, src SessionSource) *UIAuth {
	t.Helper()
	codec, err := auth.NewCodec("secret", time.Hour, false)
	if err != nil {
		t.Fatal(err)
	}
	return NewUIAuth(src, codec, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// TestUIAuth_NoSession проверяет redirect без сессии.
func TestUIAuth_NoSession(t *testing.T) {
	ua := newUIAuth(t, fakeSessions{err: auth.ErrNoSession})
	called := false
	h := ua.Middleware()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))

	tests := []struct {
		name       string
		htmx       bool
		wantStatus int
	}{
		{"полная страница", false, http.StatusFound},
		{"HTMX-фрагмент", true, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin/partials/shares", nil)
			req.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: "revoked"})
			if tt.htmx {
				req.Header.Set("HX-Request", "true")
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("ожидался статус %d, получено %d", tt.wantStatus, rec.Code)
			}
			if tt.htmx && rec.Header().Get("HX-Redirect") != LoginPath {
				t.Errorf("ожидался HX-Redirect на %s", LoginPath)
			}
			if !tt.htmx && rec.Header().Get("Location") != LoginPath {
				t.Errorf("ожидался Location %s", LoginPath)
			}
			if cookies := rec.Result().Cookies(); len(cookies) != 1 || cookies[0].MaxAge >= 0 {
				t.Errorf("ожидалось удаление cookie сессии, получено %v", cookies)
			}
		})
	}
	if called {
		t.Error("обработчик не должен вызываться без сессии")
	}
}

// TestUIAuth_SessionInContext проверяет передачу сессии обработчику.
func TestUIAuth_SessionInContext(t *testing.T) {
	ua := newUIAuth(t, fakeSessions{session: auth.NewSession("tok", time.Now())})
	var got auth.Session
	h := ua.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = SessionFromContext(r.Context())
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil))
	if got.Token() != "tok" {
		t.Errorf("ожидалась сессия tok в контексте, получено %q", got.Token())
	}
	if SessionFromContext(context.Background()).Authenticated() {
		t.Error("вне middleware сессия должна быть неаутентифицированной")
	}
}
