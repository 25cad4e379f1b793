// dephealth.go — интеграция с topologymetrics SDK для мониторинга зависимостей.
//
// Консоль мониторит:
//   - API бота — HTTP checker к публичному пути (critical)
//   - PostgreSQL — SQL checker через существующий pgxpool (pool mode), если БД настроена
//
// Метрики доступны на /metrics вместе с остальными Prometheus-метриками:
//   - app_dependency_health — состояние зависимости (1 = ok, 0 = fail)
//   - app_dependency_latency_seconds — задержка проверки
package service

import (
	"context"
	"database/sql"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/BigKAA/topologymetrics/sdk-go/dephealth"
	_ "github.com/BigKAA/topologymetrics/sdk-go/dephealth/checks/httpcheck" // HTTP checker для API бота
	"github.com/BigKAA/topologymetrics/sdk-go/dephealth/checks/pgcheck"     // PostgreSQL checker (pool mode)
	"github.com/prometheus/client_golang/prometheus"
)

// Имена зависимостей в метриках и на странице состояния.
const (
	DepBotAPI   = "sharebot-api"
	DepPostgres = "postgresql"
)

// DephealthOptions — параметры мониторинга.
type DephealthOptions struct {
	// Имя вершины графа текущего приложения
	ServiceID string
	// Группа в метриках (SC_DEPHEALTH_GROUP)
	Group string
	// Адрес API бота
	BotURL string
	// Публичный путь бота для проверки (SC_BOT_HEALTH_PATH)
	BotHealthPath string
	// *sql.DB из pgxpool (stdlib.OpenDBFromPool); nil — без PostgreSQL
	DB *sql.DB
	// URL PostgreSQL для лейблов метрик
	PostgresURL   string
	CheckInterval time.Duration
	// Registerer — nil означает глобальный registry
	Registerer prometheus.Registerer
}

// DephealthService — сервис мониторинга зависимостей через topologymetrics.
type DephealthService struct {
	dh     *dephealth.DepHealth
	logger *slog.Logger
}

// DependencyStatus — состояние одной зависимости для страницы Health.
type DependencyStatus struct {
	Name    string
	Healthy bool
}

// NewDephealthService создаёт сервис мониторинга зависимостей.
func NewDephealthService(opts DephealthOptions, logger *slog.Logger) (*DephealthService, error) {
	dhOpts := []dephealth.Option{
		dephealth.WithLogger(logger),
		dephealth.HTTP(DepBotAPI,
			dephealth.FromURL(opts.BotURL),
			dephealth.WithHTTPHealthPath(opts.BotHealthPath),
			dephealth.CheckInterval(opts.CheckInterval),
			dephealth.Critical(true),
		),
	}
	if opts.DB != nil {
		// Проверка через *sql.DB поверх pgxpool отражает состояние пула соединений.
		dhOpts = append(dhOpts, dephealth.AddDependency(DepPostgres, dephealth.TypePostgres,
			pgcheck.New(pgcheck.WithDB(opts.DB)),
			dephealth.FromURL(opts.PostgresURL),
			dephealth.CheckInterval(opts.CheckInterval),
			dephealth.Critical(false),
		))
	}
	if opts.Registerer != nil {
		dhOpts = append(dhOpts, dephealth.WithRegisterer(opts.Registerer))
	}

	dh, err := dephealth.New(opts.ServiceID, opts.Group, dhOpts...)
	if err != nil {
		return nil, err
	}

	return &DephealthService{
		dh:     dh,
		logger: logger.With(slog.String("component", "dephealth")),
	}, nil
}

// Start запускает периодическую проверку зависимостей.
func (ds *DephealthService) Start(ctx context.Context) error {
	ds.logger.Info("Мониторинг зависимостей запущен")
	return ds.dh.Start(ctx)
}

// Stop останавливает мониторинг зависимостей.
func (ds *DephealthService) Stop() {
	ds.dh.Stop()
	ds.logger.Info("Мониторинг зависимостей остановлен")
}

// Health возвращает текущее состояние зависимостей (true — ok).
func (ds *DephealthService) Health() map[string]bool {
	return ds.dh.Health()
}

// Statuses возвращает состояние зависимостей, отсортированное по имени.
// Безопасен для nil (мониторинг не запущен).
func (ds *DephealthService) Statuses() []DependencyStatus {
	if ds == nil {
		return nil
	}
	return sortedStatuses(ds.Health())
}

// sortedStatuses: ключи Health() имеют формат "dependency:host:port",
// на страницу выводится только имя зависимости.
func sortedStatuses(health map[string]bool) []DependencyStatus {
	out := make([]DependencyStatus, 0, len(health))
	for key, ok := range health {
		name, _, _ := strings.Cut(key, ":")
		out = append(out, DependencyStatus{Name: name, Healthy: ok})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
