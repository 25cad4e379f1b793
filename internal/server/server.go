// Пакет server — HTTP-сервер консоли с graceful shutdown.
// Без TLS — HTTPS завершается на ingress.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/bigkaa/sharebot-console/internal/api/errors"
	apihandlers "github.com/bigkaa/sharebot-console/internal/api/handlers"
	"github.com/bigkaa/sharebot-console/internal/api/middleware"
	"github.com/bigkaa/sharebot-console/internal/config"
	"github.com/bigkaa/sharebot-console/internal/service"
	"github.com/bigkaa/sharebot-console/internal/ui/csrf"
	uihandlers "github.com/bigkaa/sharebot-console/internal/ui/handlers"
	"github.com/bigkaa/sharebot-console/internal/ui/i18n"
	uimiddleware "github.com/bigkaa/sharebot-console/internal/ui/middleware"
	"github.com/bigkaa/sharebot-console/internal/ui/notify"
	"github.com/bigkaa/sharebot-console/internal/ui/router"
	"github.com/bigkaa/sharebot-console/internal/ui/static"
)

// UIComponents — компоненты консоли для регистрации маршрутов /admin/*.
type UIComponents struct {
	AuthMiddleware *uimiddleware.UIAuth
	CSRF           *csrf.Protector
	Prefs          *service.UISettingsService
	Router         *router.Router

	AuthHandler      *uihandlers.AuthHandler
	DashboardHandler *uihandlers.DashboardHandler
	UsersHandler     *uihandlers.UsersHandler
	SharesHandler    *uihandlers.SharesHandler
	BroadcastHandler *uihandlers.BroadcastHandler
	BannedHandler    *uihandlers.BannedHandler
	SettingsHandler  *uihandlers.SettingsHandler
	HealthHandler    *uihandlers.HealthHandler
	EventsHandler    *uihandlers.EventsHandler
}

// Server — HTTP-сервер консоли.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// New создаёт HTTP-сервер с настроенными маршрутами и middleware.
func New(cfg *config.Config, logger *slog.Logger, health *apihandlers.HealthHandler, ui *UIComponents) *Server {
	srv := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Port),
		Handler:     NewHandler(cfg, logger, health, ui),
		ReadTimeout: 30 * time.Second,
		// WriteTimeout не задан: SSE-поток состояния живёт дольше любого лимита.
		IdleTimeout: 120 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
		cfg:        cfg,
	}
}

// NewHandler собирает маршрутизатор: служебные endpoints, статика и консоль.
func NewHandler(cfg *config.Config, logger *slog.Logger, health *apihandlers.HealthHandler, ui *UIComponents) http.Handler {
	r := chi.NewRouter()

	// Глобальные middleware (применяются ко ВСЕМ маршрутам)
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.MetricsMiddleware())

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		if strings.HasPrefix(req.URL.Path, "/admin/") {
			ui.Router.NotFound(w, req)
			return
		}
		apierrors.NotFound(w, "маршрут не найден")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		apierrors.MethodNotAllowed(w, "метод не поддерживается")
	})

	// Пробы и метрики — без сессии.
	r.Get("/health/live", health.HealthLive)
	r.Get("/health/ready", health.HealthReady)
	r.Get("/metrics", health.GetMetrics)

	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(static.FileSystem())))

	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, "/admin/", http.StatusFound)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(i18n.Middleware())
		r.Use(notify.Middleware(toastDuration(ui.Prefs), cfg.CookieSecure, logger))

		r.Get("/login", ui.AuthHandler.HandleLoginPage)
		r.Post("/login", ui.AuthHandler.HandleLogin)
		// Выбор языка хранится только в cookie и не требует сессии.
		r.Post("/set-language", uihandlers.HandleSetLanguage)
		r.Get("/", ui.Router.Home)

		r.Group(func(r chi.Router) {
			r.Use(ui.AuthMiddleware.Middleware())
			r.Use(ui.CSRF.Middleware(sessionFingerprint, logger))

			r.Post("/logout", ui.AuthHandler.HandleLogout)
			r.Get("/events/health", ui.EventsHandler.HandleHealth)

			r.Route("/partials", func(r chi.Router) {
				r.Get("/{page}", ui.Router.Partial)

				r.Post("/shares/{code}/selection", ui.SharesHandler.HandleSelection)
				r.Post("/shares/{code}/forward", ui.SharesHandler.HandleForward)
				r.Post("/shares/{code}/save", ui.SharesHandler.HandleSave)
				r.Post("/shares/{code}/protect", ui.SharesHandler.HandleProtect)
				r.Get("/shares/{code}/details", ui.SharesHandler.HandleDetails)
				r.Get("/shares/{code}/delete", ui.SharesHandler.HandleDeleteConfirm)
				r.Delete("/shares/{code}", ui.SharesHandler.HandleDelete)

				r.Post("/broadcast/send", ui.BroadcastHandler.HandleSend)

				r.Get("/banned/ban-modal", ui.BannedHandler.HandleBanModal)
				r.Post("/banned/ban", ui.BannedHandler.HandleBan)
				r.Post("/banned/unban", ui.BannedHandler.HandleUnban)

				r.Post("/settings/save", ui.SettingsHandler.HandleSave)
				r.Post("/settings/reset", ui.SettingsHandler.HandleReset)
				r.Post("/settings/channels/{key}/{op}", ui.SettingsHandler.HandleChannel)
				r.Post("/settings/preferences", ui.SettingsHandler.HandlePreferences)
				r.Post("/settings/preferences/reset", ui.SettingsHandler.HandlePreferencesReset)
			})

			r.Get("/{page}", ui.Router.Shell)
		})
	})

	return r
}

// RegisterPages назначает загрузчики страниц маршрутизатору консоли.
func RegisterPages(ui *UIComponents) {
	ui.Router.Register(router.Dashboard, ui.DashboardHandler.HandleDashboard)
	ui.Router.Register(router.Users, ui.UsersHandler.HandleUsers)
	ui.Router.Register(router.Shares, ui.SharesHandler.HandleShares)
	ui.Router.Register(router.Broadcast, ui.BroadcastHandler.HandleBroadcast)
	ui.Router.Register(router.Banned, ui.BannedHandler.HandleBanned)
	ui.Router.Register(router.Settings, ui.SettingsHandler.HandleSettings)
	ui.Router.Register(router.Health, ui.HealthHandler.HandleHealth)
}

// sessionFingerprint — отпечаток сессии для CSRF ("" — сессии нет).
func sessionFingerprint(r *http.Request) string {
	s := uimiddleware.SessionFromContext(r.Context())
	if !s.Authenticated() {
		return ""
	}
	return s.Fingerprint()
}

// toastDuration читает длительность уведомлений из настроек консоли.
func toastDuration(prefs *service.UISettingsService) notify.DurationFunc {
	return func(r *http.Request) time.Duration {
		return prefs.Get(r.Context()).ToastDuration
	}
}

// Run запускает сервер и ожидает сигнала завершения (SIGINT, SIGTERM).
// При получении сигнала выполняется graceful shutdown.
func (s *Server) Run() error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP-сервер запущен",
			slog.String("addr", s.httpServer.Addr),
		)

		err := s.httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		s.logger.Info("Получен сигнал завершения", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка HTTP-сервера: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Выполняется graceful shutdown...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("ошибка при graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}
