package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// AuditEvent — запись журнала действий администратора.
type AuditEvent struct {
	ID         uuid.UUID
	OccurredAt time.Time
	// Действие: share.update, broadcast, user.ban, settings.update и т.д.
	Action string
	// Объект действия: код раздачи, id пользователя, ключ настройки
	Target string
	// Параметры действия (jsonb)
	Details map[string]any
	// Префикс отпечатка сессии
	Actor     string
	RequestID string
}

// AuditRepository — интерфейс для таблицы audit_events.
type AuditRepository interface {
	// Insert сохраняет событие. Пустой ID генерируется (UUIDv7).
	Insert(ctx context.Context, e *AuditEvent) error
	// ListRecent возвращает последние limit событий, новые первыми.
	ListRecent(ctx context.Context, limit int) ([]AuditEvent, error)
}

type auditRepo struct {
	db DBTX
}

// NewAuditRepository создаёт репозиторий журнала действий.
func NewAuditRepository(db DBTX) AuditRepository {
	return &auditRepo{db: db}
}

func (r *auditRepo) Insert(ctx context.Context, e *AuditEvent) error {
	if e.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("ошибка генерации id события: %w", err)
		}
		e.ID = id
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	details := e.Details
	if details == nil {
		details = map[string]any{}
	}
	raw, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("ошибка сериализации details события %s: %w", e.Action, err)
	}

	query := `
		INSERT INTO audit_events (id, occurred_at, action, target, details, actor, request_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	if _, err := r.db.Exec(ctx, query,
		e.ID, e.OccurredAt, e.Action, e.Target, raw, e.Actor, e.RequestID,
	); err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("ошибка сохранения события %s: %w", e.Action, err)
	}
	return nil
}

func (r *auditRepo) ListRecent(ctx context.Context, limit int) ([]AuditEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, occurred_at, action, target, details, actor, request_id
		FROM audit_events
		ORDER BY occurred_at DESC
		LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения журнала действий: %w", err)
	}
	events, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (AuditEvent, error) {
		var (
			e   AuditEvent
			raw []byte
		)
		if err := row.Scan(&e.ID, &e.OccurredAt, &e.Action, &e.Target, &raw, &e.Actor, &e.RequestID); err != nil {
			return e, err
		}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &e.Details); err != nil {
				return e, fmt.Errorf("details события %s: %w", e.ID, err)
			}
		}
		return e, nil
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования журнала действий: %w", err)
	}
	return events, nil
}
