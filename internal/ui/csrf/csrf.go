// Пакет csrf — защита изменяющих запросов консоли.
// Токен — HS256 JWT, привязанный к отпечатку токена сессии; HTMX передаёт его
// в заголовке X-CSRF-Token (hx-headers на <body>).
package csrf

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// HeaderName — заголовок с CSRF-токеном.
const HeaderName = "X-CSRF-Token"

// FormField — поле формы с CSRF-токеном (для запросов без HTMX).
const FormField = "_csrf"

// DefaultLifetime — срок действия токена.
const DefaultLifetime = 12 * time.Hour

const issuer = "sharebot-console"

// ErrInvalidToken — токен отсутствует, подделан, истёк или выдан другой сессии.
var ErrInvalidToken = errors.New("недействительный CSRF-токен")

type claims struct {
	// Session — отпечаток токена сессии.
	Session string `json:"sid"`
	jwt.RegisteredClaims
}

// Protector выпускает и проверяет CSRF-токены.
type Protector struct {
	key      []byte
	lifetime time.Duration
	now      func() time.Time
}

// New создаёт Protector. secret — ключ сессий; CSRF-ключ выводится из него.
func New(secret []byte, lifetime time.Duration) *Protector {
	if lifetime <= 0 {
		lifetime = DefaultLifetime
	}
	sum := sha256.Sum256(append([]byte("csrf:"), secret...))
	return &Protector{key: sum[:], lifetime: lifetime, now: time.Now}
}

// Issue выпускает токен для сессии с отпечатком fingerprint.
func (p *Protector) Issue(fingerprint string) (string, error) {
	now := p.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Session: fingerprint,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.lifetime)),
		},
	})
	signed, err := token.SignedString(p.key)
	if err != nil {
		return "", fmt.Errorf("подпись CSRF-токена: %w", err)
	}
	return signed, nil
}

// Verify проверяет токен для сессии с отпечатком fingerprint.
func (p *Protector) Verify(raw, fingerprint string) error {
	if raw == "" {
		return ErrInvalidToken
	}
	var c claims
	_, err := jwt.ParseWithClaims(raw, &c, func(*jwt.Token) (any, error) {
		return p.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if c.Session != fingerprint {
		return fmt.Errorf("%w: токен выдан другой сессии", ErrInvalidToken)
	}
	return nil
}

type contextKey struct{}

// WithToken сохраняет CSRF-токен в контексте для рендеринга layout.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, contextKey{}, token)
}

// TokenFromContext возвращает CSRF-токен из контекста.
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(contextKey{}).(string)
	return token
}

// FingerprintFunc возвращает отпечаток сессии запроса ("" — нет сессии).
type FingerprintFunc func(r *http.Request) string

// Middleware выпускает токен для каждого запроса с сессией и требует
// корректный токен для методов, изменяющих состояние. Нарушение — 403.
func (p *Protector) Middleware(fingerprint FingerprintFunc, logger *slog.Logger) func(http.Handler) http.Handler {
	log := logger.With(slog.String("component", "ui.csrf"))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fp := fingerprint(r)
			if fp == "" {
				next.ServeHTTP(w, r)
				return
			}

			if !safeMethod(r.Method) {
				raw := r.Header.Get(HeaderName)
				if raw == "" {
					raw = r.PostFormValue(FormField)
				}
				if err := p.Verify(raw, fp); err != nil {
					log.Warn("Запрос отклонён: CSRF-проверка не пройдена",
						slog.String("method", r.Method),
						slog.String("path", r.URL.Path),
						slog.String("error", err.Error()),
					)
					http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
					return
				}
			}

			token, err := p.Issue(fp)
			if err != nil {
				log.Error("Ошибка выпуска CSRF-токена", slog.String("error", err.Error()))
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithToken(r.Context(), token)))
		})
	}
}

func safeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}
