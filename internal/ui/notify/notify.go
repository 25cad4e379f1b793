// Пакет notify — всплывающие уведомления (toasts) и модальные окна консоли.
//
// Очередь уведомлений живёт в контексте запроса. Middleware доставляет её
// одним из способов: заголовком HX-Trigger для HTMX-фрагментов, flash-cookie
// для редиректов (уведомление переживает переход), либо шаблон страницы
// забирает очередь сам через Drain и рендерит уведомления в разметку.
// Уведомления с истёкшим ExpiresAt не доставляются.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultDuration — время показа уведомления по умолчанию.
const DefaultDuration = 4 * time.Second

// Kind — вид уведомления.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindWarning Kind = "warning"
	KindInfo    Kind = "info"
)

// Toast — одно уведомление.
type Toast struct {
	ID        uuid.UUID `json:"id"`
	Kind      Kind      `json:"kind"`
	Message   string    `json:"message"`
	ExpiresAt time.Time `json:"expires_at"`
}

// DismissAfter возвращает оставшееся время показа в миллисекундах.
func (t Toast) DismissAfter(now time.Time) int64 {
	left := t.ExpiresAt.Sub(now).Milliseconds()
	if left < 0 {
		return 0
	}
	return left
}

// Queue — очередь уведомлений одного запроса.
type Queue struct {
	mu       sync.Mutex
	items    []Toast
	events   []string
	duration time.Duration
	now      func() time.Time
}

// NewQueue создаёт очередь с временем показа duration (≤0 — DefaultDuration).
func NewQueue(duration time.Duration) *Queue {
	if duration <= 0 {
		duration = DefaultDuration
	}
	return &Queue{duration: duration, now: time.Now}
}

// Push добавляет уведомление и возвращает его.
func (q *Queue) Push(kind Kind, message string) Toast {
	q.mu.Lock()
	defer q.mu.Unlock()
	t := Toast{
		ID:        uuid.New(),
		Kind:      kind,
		Message:   message,
		ExpiresAt: q.now().Add(q.duration),
	}
	q.items = append(q.items, t)
	return t
}

// Success добавляет уведомление об успехе.
func (q *Queue) Success(message string) { q.Push(KindSuccess, message) }

// Error добавляет уведомление об ошибке.
func (q *Queue) Error(message string) { q.Push(KindError, message) }

// Warning добавляет предупреждение.
func (q *Queue) Warning(message string) { q.Push(KindWarning, message) }

// Info добавляет информационное уведомление.
func (q *Queue) Info(message string) { q.Push(KindInfo, message) }

// Restore возвращает в очередь уведомления из flash-cookie.
func (q *Queue) Restore(toasts []Toast) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, toasts...)
}

// Trigger добавляет клиентское HTMX-событие к ответу (например, закрытие модального окна).
func (q *Queue) Trigger(event string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, e := range q.events {
		if e == event {
			return
		}
	}
	q.events = append(q.events, event)
}

// Drain забирает все неистёкшие уведомления и очищает очередь.
func (q *Queue) Drain(now time.Time) []Toast {
	q.mu.Lock()
	defer q.mu.Unlock()
	live := make([]Toast, 0, len(q.items))
	for _, t := range q.items {
		if t.ExpiresAt.After(now) {
			live = append(live, t)
		}
	}
	q.items = nil
	return live
}

// Len возвращает количество уведомлений в очереди.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// drainEvents забирает клиентские события.
func (q *Queue) drainEvents() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	events := q.events
	q.events = nil
	return events
}

// contextKey — тип ключа контекста.
type contextKey string

const contextKeyQueue contextKey = "notify_queue"

// WithQueue помещает очередь в контекст.
func WithQueue(ctx context.Context, q *Queue) context.Context {
	return context.WithValue(ctx, contextKeyQueue, q)
}

// FromContext возвращает очередь запроса.
// Вне Middleware возвращается отдельная очередь, уведомления из которой никуда не доставляются.
func FromContext(ctx context.Context) *Queue {
	if q, ok := ctx.Value(contextKeyQueue).(*Queue); ok {
		return q
	}
	return NewQueue(DefaultDuration)
}
