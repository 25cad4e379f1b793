// ui_settings.go — настройки консоли (размеры страниц, длительность уведомлений).
// Хранятся в ui_settings (PostgreSQL); без БД действуют значения из конфигурации.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/bigkaa/sharebot-console/internal/repository"
)

// Ключи настроек консоли.
const (
	PrefUsersPerPage  = "ui.users_per_page"
	PrefSharesPerPage = "ui.shares_per_page"
	PrefToastDuration = "ui.toast_duration"

	prefPrefix = "ui."
	prefsTTL   = 30 * time.Second
)

// Preferences — действующие настройки консоли.
type Preferences struct {
	UsersPerPage  int
	SharesPerPage int
	ToastDuration time.Duration
}

// SettingsStore — хранилище ui_settings (repository.UISettingsStore).
type SettingsStore interface {
	ListByPrefix(ctx context.Context, prefix string) ([]repository.UISetting, error)
	SetMany(ctx context.Context, values map[string]string, updatedBy string) error
	Delete(ctx context.Context, key string) error
}

// UISettingsService — чтение и сохранение настроек консоли.
type UISettingsService struct {
	store    SettingsStore
	defaults Preferences
	cache    *expirable.LRU[string, Preferences]
	logger   *slog.Logger
}

// NewUISettingsService создаёт сервис настроек. store == nil — БД не настроена.
func NewUISettingsService(store SettingsStore, defaults Preferences, logger *slog.Logger) *UISettingsService {
	return &UISettingsService{
		store:    store,
		defaults: defaults,
		cache:    expirable.NewLRU[string, Preferences](1, nil, prefsTTL),
		logger:   logger.With(slog.String("service", "ui_settings")),
	}
}

// Enabled сообщает, можно ли сохранять настройки.
func (s *UISettingsService) Enabled() bool {
	return s != nil && s.store != nil
}

// Defaults возвращает значения из конфигурации.
func (s *UISettingsService) Defaults() Preferences {
	return s.defaults
}

// Get возвращает действующие настройки. Никогда не падает:
// ошибка БД или некорректное значение — значение по умолчанию.
func (s *UISettingsService) Get(ctx context.Context) Preferences {
	if !s.Enabled() {
		return s.defaults
	}
	if p, ok := s.cache.Get(prefPrefix); ok {
		return p
	}

	p := s.defaults
	rows, err := s.store.ListByPrefix(ctx, prefPrefix)
	if err != nil {
		s.logger.Warn("Ошибка чтения настроек консоли, используются значения по умолчанию",
			slog.String("error", err.Error()),
		)
		return p
	}
	for _, row := range rows {
		if err := p.apply(row.Key, row.Value); err != nil {
			s.logger.Warn("Некорректное значение настройки проигнорировано",
				slog.String("key", row.Key),
				slog.String("error", err.Error()),
			)
		}
	}
	s.cache.Add(prefPrefix, p)
	return p
}

// Save валидирует и сохраняет все настройки одной транзакцией.
// actor — префикс отпечатка сессии администратора.
func (s *UISettingsService) Save(ctx context.Context, values map[string]string, actor string) (Preferences, error) {
	if !s.Enabled() {
		return s.defaults, ErrStorageDisabled
	}

	p := s.defaults
	for key, value := range values {
		if err := p.apply(key, value); err != nil {
			return s.defaults, err
		}
	}

	if err := s.store.SetMany(ctx, values, actor); err != nil {
		return s.defaults, fmt.Errorf("ошибка сохранения настроек консоли: %w", err)
	}
	s.cache.Purge()

	s.logger.Info("Настройки консоли обновлены",
		slog.Int("keys", len(values)),
		slog.String("updated_by", actor),
	)
	return s.Get(ctx), nil
}

// Reset удаляет сохранённое значение: действует значение по умолчанию.
func (s *UISettingsService) Reset(ctx context.Context, key string) error {
	if !s.Enabled() {
		return ErrStorageDisabled
	}
	if !IsPreferenceKey(key) {
		return fmt.Errorf("%w: недопустимый ключ настройки %q", ErrValidation, key)
	}
	if err := s.store.Delete(ctx, key); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("ошибка удаления настройки %q: %w", key, err)
	}
	s.cache.Purge()
	return nil
}

// IsPreferenceKey сообщает, известен ли ключ.
func IsPreferenceKey(key string) bool {
	switch key {
	case PrefUsersPerPage, PrefSharesPerPage, PrefToastDuration:
		return true
	}
	return false
}

// apply валидирует значение и записывает его в p.
func (p *Preferences) apply(key, value string) error {
	switch key {
	case PrefUsersPerPage, PrefSharesPerPage:
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 || n > 100 {
			return fmt.Errorf("%w: %s должен быть целым числом 1-100", ErrValidation, key)
		}
		if key == PrefUsersPerPage {
			p.UsersPerPage = n
		} else {
			p.SharesPerPage = n
		}
	case PrefToastDuration:
		d, err := time.ParseDuration(value)
		if err != nil || d < time.Second || d > time.Minute {
			return fmt.Errorf("%w: %s должна быть длительностью 1s-1m", ErrValidation, key)
		}
		p.ToastDuration = d
	default:
		return fmt.Errorf("%w: недопустимый ключ настройки %q", ErrValidation, key)
	}
	return nil
}
