package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/bigkaa/sharebot-console/internal/botapi"
)

// Ошибки входа.
var (
	// ErrPasswordRequired — пустой пароль, запрос к боту не выполнялся.
	ErrPasswordRequired = errors.New("пароль не указан")
	// ErrConnectivity — API бота недоступен.
	ErrConnectivity = errors.New("нет связи с API бота")
)

// LoginRejectedError — бот отклонил пароль.
type LoginRejectedError struct {
	// Message — сообщение бота (может быть пустым).
	Message string
}

func (e *LoginRejectedError) Error() string {
	if e.Message == "" {
		return "бот отклонил вход"
	}
	return "бот отклонил вход: " + e.Message
}

// BotAPI — операции API бота, нужные менеджеру сессий.
type BotAPI interface {
	Login(ctx context.Context, password string) (*botapi.LoginResponse, error)
	Logout(ctx context.Context, token string) error
	Dashboard(ctx context.Context, token string) (*botapi.Dashboard, error)
}

// minRevocationTTL — минимальный срок хранения записи об отзыве.
const minRevocationTTL = time.Minute

// Manager управляет жизненным циклом сессии:
// LoggedOut → LoggedIn (вход или восстановление), LoggedIn → LoggedOut (выход или отказ бота).
type Manager struct {
	codec         *Codec
	bot           BotAPI
	revocations   RevocationStore
	logger        *slog.Logger
	logoutTimeout time.Duration
	now           func() time.Time
	wg            sync.WaitGroup
}

// NewManager создаёт менеджер сессий.
func NewManager(codec *Codec, bot BotAPI, revocations RevocationStore, logger *slog.Logger) *Manager {
	return &Manager{
		codec:         codec,
		bot:           bot,
		revocations:   revocations,
		logger:        logger.With(slog.String("component", "ui.auth")),
		logoutTimeout: 5 * time.Second,
		now:           time.Now,
	}
}

// Current возвращает сессию из cookie без обращения к боту.
// Отозванный токен — ErrNoSession.
func (m *Manager) Current(ctx context.Context, r *http.Request) (Session, error) {
	s, err := m.codec.Load(r)
	if err != nil {
		return Session{}, ErrNoSession
	}
	revoked, err := m.revocations.Revoked(ctx, s.token)
	if err != nil {
		return Session{}, fmt.Errorf("проверка отзыва токена: %w", err)
	}
	if revoked {
		return Session{}, ErrNoSession
	}
	return s, nil
}

// Restore восстанавливает сессию из cookie и однократно проверяет токен
// запросом к защищённому API. Любая ошибка проверки отзывает токен.
func (m *Manager) Restore(ctx context.Context, w http.ResponseWriter, r *http.Request) (Session, error) {
	s, err := m.Current(ctx, r)
	if err != nil {
		return Session{}, err
	}
	if _, err := m.bot.Dashboard(ctx, s.token); err != nil {
		m.Expire(ctx, w, s)
		m.logger.Info("Сохранённая сессия отклонена",
			slog.String("error", err.Error()),
		)
		return Session{}, fmt.Errorf("проверка сессии: %w", err)
	}
	return s, nil
}

// Login выполняет вход по паролю. При отказе cookie не изменяется.
func (m *Manager) Login(ctx context.Context, w http.ResponseWriter, password string) (Session, error) {
	if strings.TrimSpace(password) == "" {
		return Session{}, ErrPasswordRequired
	}

	resp, err := m.bot.Login(ctx, password)
	if err != nil {
		var apiErr *botapi.APIError
		if errors.As(err, &apiErr) {
			return Session{}, &LoginRejectedError{Message: apiErr.Message}
		}
		m.logger.Error("Ошибка входа: API бота недоступен",
			slog.String("error", err.Error()),
		)
		return Session{}, fmt.Errorf("%w: %w", ErrConnectivity, err)
	}
	if !resp.Success || resp.Token == "" {
		msg := resp.Message
		if msg == "" {
			msg = resp.Error
		}
		return Session{}, &LoginRejectedError{Message: msg}
	}

	s := NewSession(resp.Token, m.now())
	if err := m.codec.Save(w, s); err != nil {
		return Session{}, fmt.Errorf("сохранение сессии: %w", err)
	}
	m.logger.Info("Администратор вошёл в консоль")
	return s, nil
}

// Logout завершает сессию: удаляет cookie, отзывает токен и в фоне
// уведомляет бота. Ошибка уведомления игнорируется. Идемпотентен.
func (m *Manager) Logout(ctx context.Context, w http.ResponseWriter, s Session) {
	m.codec.Clear(w)
	if !s.Authenticated() {
		return
	}
	first, err := m.revocations.Revoke(ctx, s.token, m.revocationTTL(s))
	if err != nil {
		m.logger.Warn("Не удалось отозвать токен при выходе",
			slog.String("error", err.Error()),
		)
	}
	if err == nil && !first {
		return
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.logoutTimeout)
		defer cancel()
		if err := m.bot.Logout(nctx, s.token); err != nil {
			m.logger.Debug("Уведомление бота о выходе не доставлено",
				slog.String("error", err.Error()),
			)
		}
	}()
	m.logger.Info("Администратор вышел из консоли")
}

// Expire обрабатывает отказ бота в токене: удаляет cookie (если w != nil)
// и отзывает токен. true возвращается только первому вызову для токена,
// который и показывает уведомление об истечении сессии.
func (m *Manager) Expire(ctx context.Context, w http.ResponseWriter, s Session) bool {
	if w != nil {
		m.codec.Clear(w)
	}
	if !s.Authenticated() {
		return false
	}
	first, err := m.revocations.Revoke(ctx, s.token, m.revocationTTL(s))
	if err != nil {
		m.logger.Warn("Не удалось отозвать истёкший токен",
			slog.String("error", err.Error()),
		)
		return true
	}
	if first {
		m.logger.Info("Сессия истекла")
	}
	return first
}

// Wait дожидается фоновых уведомлений о выходе.
func (m *Manager) Wait() {
	m.wg.Wait()
}

// revocationTTL — оставшийся срок жизни токена.
func (m *Manager) revocationTTL(s Session) time.Duration {
	ttl := s.issuedAt.Add(m.codec.MaxAge()).Sub(m.now())
	return max(ttl, minRevocationTTL)
}
