// audit.go — журнал действий администратора (audit_events).
// Запись не влияет на результат действия: ошибка только логируется.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/sharebot-console/internal/repository"
)

// Действия журнала.
const (
	ActionLogin          = "session.login"
	ActionLogout         = "session.logout"
	ActionExpire         = "session.expire"
	ActionShareUpdate    = "share.update"
	ActionShareDelete    = "share.delete"
	ActionShareForward   = "share.forward"
	ActionBroadcast      = "broadcast"
	ActionBan            = "user.ban"
	ActionUnban          = "user.unban"
	ActionSettingsUpdate = "settings.update"
	ActionSettingsReset  = "settings.reset"
	ActionPrefsUpdate    = "preferences.update"
)

const auditWriteTimeout = 3 * time.Second

var auditEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "sc_audit_events_total",
	Help: "Записи журнала действий консоли",
}, []string{"action", "outcome"})

// AuditService записывает и читает журнал действий.
type AuditService struct {
	repo   repository.AuditRepository
	logger *slog.Logger
	now    func() time.Time
}

// NewAuditService создаёт сервис журнала. repo == nil — журнал выключен.
func NewAuditService(repo repository.AuditRepository, logger *slog.Logger) *AuditService {
	return &AuditService{
		repo:   repo,
		logger: logger.With(slog.String("service", "audit")),
		now:    time.Now,
	}
}

// Enabled сообщает, ведётся ли журнал. Безопасен для nil.
func (s *AuditService) Enabled() bool {
	return s != nil && s.repo != nil
}

// Record сохраняет событие. Отмена запроса не прерывает запись.
func (s *AuditService) Record(ctx context.Context, e repository.AuditEvent) {
	if !s.Enabled() {
		return
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = s.now().UTC()
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditWriteTimeout)
	defer cancel()

	if err := s.repo.Insert(ctx, &e); err != nil {
		auditEventsTotal.WithLabelValues(e.Action, "error").Inc()
		s.logger.Warn("Ошибка записи журнала действий",
			slog.String("action", e.Action),
			slog.String("target", e.Target),
			slog.String("error", err.Error()),
		)
		return
	}
	auditEventsTotal.WithLabelValues(e.Action, "ok").Inc()
}

// Recent возвращает последние limit событий.
func (s *AuditService) Recent(ctx context.Context, limit int) ([]repository.AuditEvent, error) {
	if !s.Enabled() {
		return nil, ErrStorageDisabled
	}
	events, err := s.repo.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения журнала действий: %w", err)
	}
	return events, nil
}
