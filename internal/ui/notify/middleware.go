// middleware.go — доставка очереди уведомлений в ответ.
package notify

import (
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// FlashCookieName — имя cookie для уведомлений, переживающих редирект.
const FlashCookieName = "sc_flash"

// flashCookieMaxAge — время жизни flash-cookie в секундах.
const flashCookieMaxAge = 60

// ToastEvent — имя HTMX-события, которое получает клиентский скрипт.
const ToastEvent = "sc:toast"

// DurationFunc возвращает время показа уведомлений для запроса
// (настройка консоли может меняться во время работы).
type DurationFunc func(r *http.Request) time.Duration

// Middleware создаёт очередь уведомлений для каждого запроса и доставляет её.
func Middleware(duration DurationFunc, secure bool, logger *slog.Logger) func(http.Handler) http.Handler {
	log := logger.With(slog.String("component", "ui.notify"))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			q := NewQueue(duration(r))
			hadFlash := false
			if flash, ok := readFlash(r); ok {
				hadFlash = true
				q.Restore(flash)
			}

			dw := &deliveryWriter{
				ResponseWriter: w,
				queue:          q,
				htmx:           r.Header.Get("HX-Request") == "true",
				hadFlash:       hadFlash,
				secure:         secure,
				logger:         log,
			}
			next.ServeHTTP(dw, r.WithContext(WithQueue(r.Context(), q)))

			// Обработчик ничего не записал — заголовки ещё можно выставить.
			if !dw.delivered {
				dw.deliver(http.StatusOK)
			}
		})
	}
}

// deliveryWriter выставляет заголовки доставки перед первой записью ответа.
type deliveryWriter struct {
	http.ResponseWriter
	queue     *Queue
	htmx      bool
	hadFlash  bool
	secure    bool
	delivered bool
	logger    *slog.Logger
}

func (dw *deliveryWriter) WriteHeader(code int) {
	if !dw.delivered {
		dw.deliver(code)
	}
	dw.ResponseWriter.WriteHeader(code)
}

func (dw *deliveryWriter) Write(b []byte) (int, error) {
	if !dw.delivered {
		dw.WriteHeader(http.StatusOK)
	}
	return dw.ResponseWriter.Write(b)
}

// Unwrap позволяет http.ResponseController получить доступ к оригинальному ResponseWriter.
func (dw *deliveryWriter) Unwrap() http.ResponseWriter {
	return dw.ResponseWriter
}

// deliver выбирает способ доставки по статусу и типу запроса.
func (dw *deliveryWriter) deliver(code int) {
	dw.delivered = true
	now := time.Now()
	toasts := dw.queue.Drain(now)
	events := dw.queue.drainEvents()
	h := dw.Header()

	redirect := (code >= 300 && code < 400) ||
		h.Get("HX-Redirect") != "" || h.Get("HX-Location") != ""

	switch {
	case len(toasts) > 0 && (redirect || !dw.htmx):
		if err := writeFlash(dw.ResponseWriter, toasts, dw.secure); err != nil {
			dw.logger.Warn("Не удалось сохранить уведомления во flash-cookie",
				slog.String("error", err.Error()),
			)
		}
		return
	case dw.hadFlash:
		clearFlash(dw.ResponseWriter, dw.secure)
	}

	if !dw.htmx || (len(toasts) == 0 && len(events) == 0) {
		return
	}

	trigger := make(map[string]any, len(events)+1)
	for _, e := range events {
		trigger[e] = true
	}
	if len(toasts) > 0 {
		items := make([]toastPayload, 0, len(toasts))
		for _, t := range toasts {
			items = append(items, toastPayload{
				ID:           t.ID.String(),
				Kind:         string(t.Kind),
				Message:      t.Message,
				DismissAfter: t.DismissAfter(now),
			})
		}
		trigger[ToastEvent] = map[string]any{"items": items}
	}
	data, err := json.Marshal(trigger)
	if err != nil {
		dw.logger.Error("Ошибка сериализации HX-Trigger", slog.String("error", err.Error()))
		return
	}
	h.Set("HX-Trigger", string(data))
}

// toastPayload — уведомление в заголовке HX-Trigger.
type toastPayload struct {
	ID           string `json:"id"`
	Kind         string `json:"kind"`
	Message      string `json:"message"`
	DismissAfter int64  `json:"dismiss_after"`
}

// readFlash читает уведомления из flash-cookie. Истёкшие отбрасываются позже, в Drain.
func readFlash(r *http.Request) ([]Toast, bool) {
	c, err := r.Cookie(FlashCookieName)
	if err != nil || c.Value == "" {
		return nil, false
	}
	raw, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return nil, true
	}
	var toasts []Toast
	if err := json.Unmarshal(raw, &toasts); err != nil {
		return nil, true
	}
	return toasts, true
}

// writeFlash сохраняет уведомления во flash-cookie.
func writeFlash(w http.ResponseWriter, toasts []Toast, secure bool) error {
	raw, err := json.Marshal(toasts)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     FlashCookieName,
		Value:    base64.RawURLEncoding.EncodeToString(raw),
		Path:     "/admin",
		MaxAge:   flashCookieMaxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// clearFlash удаляет flash-cookie.
func clearFlash(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     FlashCookieName,
		Value:    "",
		Path:     "/admin",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
