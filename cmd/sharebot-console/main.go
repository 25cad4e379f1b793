// Точка входа консоли администратора бота раздач.
// Загружает конфигурацию, подключает API бота и (опционально) PostgreSQL и Redis,
// создаёт сервисный слой и обработчики консоли, запускает topologymetrics,
// HTTP-сервер и graceful shutdown.
package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	"github.com/bigkaa/sharebot-console/internal/api/handlers"
	"github.com/bigkaa/sharebot-console/internal/botapi"
	"github.com/bigkaa/sharebot-console/internal/config"
	"github.com/bigkaa/sharebot-console/internal/database"
	"github.com/bigkaa/sharebot-console/internal/repository"
	"github.com/bigkaa/sharebot-console/internal/server"
	"github.com/bigkaa/sharebot-console/internal/service"
	"github.com/bigkaa/sharebot-console/internal/ui/auth"
	"github.com/bigkaa/sharebot-console/internal/ui/csrf"
	uihandlers "github.com/bigkaa/sharebot-console/internal/ui/handlers"
	"github.com/bigkaa/sharebot-console/internal/ui/i18n"
	uimiddleware "github.com/bigkaa/sharebot-console/internal/ui/middleware"
	"github.com/bigkaa/sharebot-console/internal/ui/router"
)

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("Консоль бота раздач запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.String("bot_api", cfg.BotAPIURL),
	)

	// 3. Переводы интерфейса
	bundle := i18n.Init(logger)
	if err := i18n.LoadFromEmbedFS(bundle, logger); err != nil {
		logger.Error("Ошибка загрузки переводов", slog.String("error", err.Error()))
		os.Exit(1)
	}
	i18n.SetDefaultLang(cfg.DefaultLang)

	// 4. Клиент API бота
	bot, err := botapi.New(botapi.Options{
		BaseURL:       cfg.BotAPIURL,
		Timeout:       cfg.BotAPITimeout,
		CACertPath:    cfg.BotAPICACertPath,
		ContractCheck: cfg.BotAPIContractCheck,
	}, logger)
	if err != nil {
		logger.Error("Ошибка создания клиента API бота", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx := context.Background()
	checkers := []handlers.ReadinessChecker{
		handlers.NewPingChecker(service.DepBotAPI, func(ctx context.Context) error {
			return bot.Ping(ctx, cfg.BotHealthPath)
		}),
	}

	// 5. PostgreSQL (опционально): настройки консоли и журнал действий
	var (
		settingsStore service.SettingsStore
		auditRepo     repository.AuditRepository
		dephealthOpts = service.DephealthOptions{
			ServiceID:     "sharebot-console",
			Group:         cfg.DephealthGroup,
			BotURL:        cfg.BotAPIURL,
			BotHealthPath: cfg.BotHealthPath,
			CheckInterval: cfg.DephealthCheckInterval,
		}
	)
	if cfg.DatabaseEnabled() {
		logger.Info("Применение миграций БД...")
		if err := database.Migrate(cfg, logger); err != nil {
			logger.Error("Ошибка миграций БД", slog.String("error", err.Error()))
			os.Exit(1)
		}

		pool, err := database.Connect(ctx, cfg, logger)
		if err != nil {
			logger.Error("Ошибка подключения к PostgreSQL", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer pool.Close()

		// Адаптер pgxpool → *sql.DB: topologymetrics проверяет тот же пул.
		pgDB := stdlib.OpenDBFromPool(pool)
		defer pgDB.Close()
		dephealthOpts.DB = pgDB
		dephealthOpts.PostgresURL = cfg.DatabaseURL()

		settingsStore = repository.NewUISettingsStore(pool)
		auditRepo = repository.NewAuditRepository(pool)
		checkers = append(checkers, database.NewReadinessChecker(pool))
	} else {
		logger.Info("PostgreSQL не настроен: настройки консоли по умолчанию, журнал действий выключен")
	}

	// 6. Отзыв токенов: Redis или память процесса
	var revocations auth.RevocationStore
	if cfg.RedisEnabled() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("Redis недоступен при старте", slog.String("error", err.Error()))
		}
		revocations = auth.NewRedisRevocations(rdb)
		checkers = append(checkers, handlers.NewPingChecker("redis", func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}))
		logger.Info("Отзыв токенов хранится в Redis", slog.String("addr", cfg.RedisAddr))
	} else {
		revocations = auth.NewMemoryRevocations(cfg.RevocationCacheSize, cfg.SessionMaxAge)
	}

	// 7. Сессии и CSRF
	secret := cfg.SessionSecret
	if secret == "" {
		secret, err = randomSecret()
		if err != nil {
			logger.Error("Ошибка генерации секрета сессий", slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Warn("SC_SESSION_SECRET не задан, сессии не сохраняются между рестартами")
	}
	codec, err := auth.NewCodec(secret, cfg.SessionMaxAge, cfg.CookieSecure)
	if err != nil {
		logger.Error("Ошибка создания кодека сессий", slog.String("error", err.Error()))
		os.Exit(1)
	}
	csrfKey, err := auth.DeriveKey(secret)
	if err != nil {
		logger.Error("Ошибка создания ключа CSRF", slog.String("error", err.Error()))
		os.Exit(1)
	}
	sessions := auth.NewManager(codec, bot, revocations, logger)

	// 8. Сервисы
	prefs := service.NewUISettingsService(settingsStore, service.Preferences{
		UsersPerPage:  cfg.UsersPerPage,
		SharesPerPage: cfg.SharesPerPage,
		ToastDuration: cfg.ToastDuration,
	}, logger)
	audit := service.NewAuditService(auditRepo, logger)

	// 8.1 topologymetrics — мониторинг зависимостей (API бота + PostgreSQL)
	dephealthSvc, err := service.NewDephealthService(dephealthOpts, logger)
	if err != nil {
		logger.Error("Ошибка создания мониторинга зависимостей", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := dephealthSvc.Start(ctx); err != nil {
		logger.Warn("Ошибка запуска topologymetrics", slog.String("error", err.Error()))
	} else {
		logger.Info("topologymetrics запущен",
			slog.String("group", cfg.DephealthGroup),
			slog.String("check_interval", cfg.DephealthCheckInterval.String()),
		)
	}

	// 9. Обработчики консоли
	gw := uihandlers.NewGateway(sessions, audit, logger)
	ui := &server.UIComponents{
		AuthMiddleware: uimiddleware.NewUIAuth(sessions, codec, logger),
		CSRF:           csrf.New(csrfKey, csrf.DefaultLifetime),
		Prefs:          prefs,
		Router:         router.New(sessions, logger),

		AuthHandler:      uihandlers.NewAuthHandler(sessions, gw, logger),
		DashboardHandler: uihandlers.NewDashboardHandler(bot, gw, logger),
		UsersHandler:     uihandlers.NewUsersHandler(bot, prefs, gw, logger),
		SharesHandler:    uihandlers.NewSharesHandler(bot, prefs, gw, logger),
		BroadcastHandler: uihandlers.NewBroadcastHandler(bot, gw, logger),
		BannedHandler:    uihandlers.NewBannedHandler(bot, gw, logger),
		SettingsHandler:  uihandlers.NewSettingsHandler(bot, prefs, gw, logger),
		HealthHandler:    uihandlers.NewHealthHandler(bot, dephealthSvc, audit, gw, logger),
		EventsHandler:    uihandlers.NewEventsHandler(bot, sessions, gw, cfg.SSEInterval, logger),
	}
	server.RegisterPages(ui)

	// 10. Создание и запуск HTTP-сервера
	healthHandler := handlers.NewHealthHandler(checkers...)
	srv := server.New(cfg, logger, healthHandler, ui)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 11. Graceful shutdown фоновых задач
	logger.Info("Останавливаем фоновые задачи...")
	dephealthSvc.Stop()
	// Дожидаемся отзыва токенов при выходе администраторов.
	sessions.Wait()

	logger.Info("Консоль бота раздач остановлена")
}

// randomSecret генерирует секрет сессий на время жизни процесса.
func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}
