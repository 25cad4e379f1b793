package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UISetting — запись таблицы ui_settings.
type UISetting struct {
	// Ключ настройки (dot-notation, например "ui.shares_per_page")
	Key string
	// Значение (строковое представление)
	Value string
	// Время последнего обновления
	UpdatedAt time.Time
	// Кто обновил: префикс отпечатка сессии администратора
	UpdatedBy string
}

// UISettingsRepository — интерфейс для таблицы ui_settings.
type UISettingsRepository interface {
	// Get возвращает настройку по ключу. Если не найдена — ErrNotFound.
	Get(ctx context.Context, key string) (*UISetting, error)
	// Set создаёт или обновляет настройку (upsert).
	Set(ctx context.Context, key, value, updatedBy string) error
	// ListByPrefix возвращает настройки с ключами, начинающимися на prefix.
	ListByPrefix(ctx context.Context, prefix string) ([]UISetting, error)
	// Delete удаляет настройку по ключу.
	Delete(ctx context.Context, key string) error
}

type uiSettingsRepo struct {
	db DBTX
}

// NewUISettingsRepository создаёт репозиторий настроек. db — пул или транзакция.
func NewUISettingsRepository(db DBTX) UISettingsRepository {
	return &uiSettingsRepo{db: db}
}

func (r *uiSettingsRepo) Get(ctx context.Context, key string) (*UISetting, error) {
	query := `
		SELECT key, value, updated_at, updated_by
		FROM ui_settings
		WHERE key = $1`

	s := &UISetting{}
	err := r.db.QueryRow(ctx, query, key).Scan(&s.Key, &s.Value, &s.UpdatedAt, &s.UpdatedBy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения ui_settings[%s]: %w", key, err)
	}
	return s, nil
}

// Set — INSERT ... ON CONFLICT DO UPDATE.
func (r *uiSettingsRepo) Set(ctx context.Context, key, value, updatedBy string) error {
	query := `
		INSERT INTO ui_settings (key, value, updated_by)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value,
			updated_by = EXCLUDED.updated_by,
			updated_at = NOW()`

	if _, err := r.db.Exec(ctx, query, key, value, updatedBy); err != nil {
		return fmt.Errorf("ошибка сохранения ui_settings[%s]: %w", key, err)
	}
	return nil
}

// ListByPrefix: prefix="ui." вернёт все настройки консоли.
func (r *uiSettingsRepo) ListByPrefix(ctx context.Context, prefix string) ([]UISetting, error) {
	query := `
		SELECT key, value, updated_at, updated_by
		FROM ui_settings
		WHERE key LIKE $1
		ORDER BY key`

	rows, err := r.db.Query(ctx, query, prefix+"%")
	if err != nil {
		return nil, fmt.Errorf("ошибка получения ui_settings по префиксу %q: %w", prefix, err)
	}
	settings, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (UISetting, error) {
		var s UISetting
		err := row.Scan(&s.Key, &s.Value, &s.UpdatedAt, &s.UpdatedBy)
		return s, err
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования ui_settings: %w", err)
	}
	return settings, nil
}

func (r *uiSettingsRepo) Delete(ctx context.Context, key string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM ui_settings WHERE key = $1`, key)
	if err != nil {
		return fmt.Errorf("ошибка удаления ui_settings[%s]: %w", key, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UISettingsStore — ui_settings с пакетной записью в одной транзакции.
type UISettingsStore struct {
	UISettingsRepository
	tx *TxRunner
}

// NewUISettingsStore создаёт хранилище настроек поверх пула.
func NewUISettingsStore(pool *pgxpool.Pool) *UISettingsStore {
	return &UISettingsStore{
		UISettingsRepository: NewUISettingsRepository(pool),
		tx:                   NewTxRunner(pool),
	}
}

// SetMany сохраняет все значения атомарно (в порядке ключей).
func (s *UISettingsStore) SetMany(ctx context.Context, values map[string]string, updatedBy string) error {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return s.tx.RunInTx(ctx, func(tx pgx.Tx) error {
		repo := NewUISettingsRepository(tx)
		for _, k := range keys {
			if err := repo.Set(ctx, k, values[k], updatedBy); err != nil {
				return err
			}
		}
		return nil
	})
}
