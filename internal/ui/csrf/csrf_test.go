package csrf

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// TestProtector_IssueVerify проверяет выпуск и проверку токена.
func TestProtector_IssueVerify(t *testing.T) {
	p := New([]byte("secret"), time.Hour)

	token, err := p.Issue("fp-1")
	if err != nil {
		t.Fatalf("Issue вернул ошибку: %v", err)
	}
	if err := p.Verify(token, "fp-1"); err != nil {
		t.Errorf("Verify вернул ошибку: %v", err)
	}

	tests := []struct {
		name  string
		p     *Protector
		token string
		fp    string
	}{
		{"пустой токен", p, "", "fp-1"},
		{"другая сессия", p, token, "fp-2"},
		{"другой ключ", New([]byte("other"), time.Hour), token, "fp-1"},
		{"мусор", p, "not.a.jwt", "fp-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.p.Verify(tt.token, tt.fp); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("ожидалась ErrInvalidToken, получено %v", err)
			}
		})
	}
}

// TestProtector_Expired проверяет истечение токена.
func TestProtector_Expired(t *testing.T) {
	p := New([]byte("secret"), time.Minute)
	base := time.Now()
	p.now = func() time.Time { return base }
	token, _ := p.Issue("fp")

	p.now = func() time.Time { return base.Add(2 * time.Minute) }
	if err := p.Verify(token, "fp"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("ожидалась ошибка истёкшего токена, получено %v", err)
	}
}

// TestMiddleware проверяет отказ 403 без токена и пропуск с токеном.
func TestMiddleware(t *testing.T) {
	p := New([]byte("secret"), time.Hour)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	var seen string
	h := p.Middleware(func(r *http.Request) string { return r.Header.Get("X-Test-Session") }, logger)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = TokenFromContext(r.Context())
		}),
	)

	// GET с сессией — токен выпускается.
	req := httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
	req.Header.Set("X-Test-Session", "fp")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || seen == "" {
		t.Fatalf("GET: код %d, токен %q", rec.Code, seen)
	}
	issued := seen

	// POST без токена — 403.
	req = httptest.NewRequest(http.MethodPost, "/admin/partials/broadcast", nil)
	req.Header.Set("X-Test-Session", "fp")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("POST без токена: ожидался 403, получено %d", rec.Code)
	}

	// POST с токеном — пропускается.
	req = httptest.NewRequest(http.MethodPost, "/admin/partials/broadcast", nil)
	req.Header.Set("X-Test-Session", "fp")
	req.Header.Set(HeaderName, issued)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("POST с токеном: ожидался 200, получено %d", rec.Code)
	}

	// Без сессии проверка не выполняется (страница входа).
	req = httptest.NewRequest(http.MethodPost, "/admin/login", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("POST без сессии: ожидался 200, получено %d", rec.Code)
	}
}
