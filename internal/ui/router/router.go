// Пакет router — страницы консоли и их загрузчики.
//
// GET /admin/{page} отдаёт оболочку с заглушкой загрузки и сразу возвращается;
// содержимое приходит следующим запросом GET /admin/partials/{page},
// который выполняет зарегистрированный загрузчик.
package router

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/sharebot-console/internal/botapi"
	"github.com/bigkaa/sharebot-console/internal/ui/auth"
	"github.com/bigkaa/sharebot-console/internal/ui/i18n"
	uimiddleware "github.com/bigkaa/sharebot-console/internal/ui/middleware"
	"github.com/bigkaa/sharebot-console/internal/ui/notify"
	"github.com/bigkaa/sharebot-console/internal/ui/pages"
)

// Page — идентификатор страницы.
type Page string

// Страницы консоли.
const (
	Dashboard Page = "dashboard"
	Users     Page = "users"
	Shares    Page = "shares"
	Broadcast Page = "broadcast"
	Banned    Page = "banned"
	Settings  Page = "settings"
	Health    Page = "health"
)

// Pages — страницы в порядке навигации.
var Pages = []Page{Dashboard, Users, Shares, Broadcast, Banned, Settings, Health}

// Meta — заголовок, подзаголовок и иконка страницы.
type Meta struct {
	TitleKey    string
	SubtitleKey string
	Icon        string
}

var meta = map[Page]Meta{
	Dashboard: {TitleKey: "page.dashboard.title", SubtitleKey: "page.dashboard.subtitle", Icon: "gauge"},
	Users:     {TitleKey: "page.users.title", SubtitleKey: "page.users.subtitle", Icon: "users"},
	Shares:    {TitleKey: "page.shares.title", SubtitleKey: "page.shares.subtitle", Icon: "share"},
	Broadcast: {TitleKey: "page.broadcast.title", SubtitleKey: "page.broadcast.subtitle", Icon: "broadcast"},
	Banned:    {TitleKey: "page.banned.title", SubtitleKey: "page.banned.subtitle", Icon: "ban"},
	Settings:  {TitleKey: "page.settings.title", SubtitleKey: "page.settings.subtitle", Icon: "sliders"},
	Health:    {TitleKey: "page.health.title", SubtitleKey: "page.health.subtitle", Icon: "heart"},
}

// Parse возвращает страницу по идентификатору.
func Parse(id string) (Page, bool) {
	p := Page(id)
	_, ok := meta[p]
	return p, ok
}

// Meta возвращает описание страницы.
func (p Page) Meta() Meta { return meta[p] }

// Path возвращает адрес оболочки страницы.
func (p Page) Path() string { return "/admin/" + string(p) }

// PartialPath возвращает адрес фрагмента страницы.
func (p Page) PartialPath() string { return "/admin/partials/" + string(p) }

// SessionRestorer — однократная проверка сохранённой сессии (auth.Manager).
type SessionRestorer interface {
	Restore(ctx context.Context, w http.ResponseWriter, r *http.Request) (auth.Session, error)
}

// Router сопоставляет страницы загрузчикам.
type Router struct {
	loaders  map[Page]http.HandlerFunc
	sessions SessionRestorer
	logger   *slog.Logger
	now      func() time.Time
}

// New создаёт Router.
func New(sessions SessionRestorer, logger *slog.Logger) *Router {
	return &Router{
		loaders:  make(map[Page]http.HandlerFunc, len(Pages)),
		sessions: sessions,
		logger:   logger.With(slog.String("component", "ui.router")),
		now:      time.Now,
	}
}

// Register назначает загрузчик страницы.
func (rt *Router) Register(p Page, loader http.HandlerFunc) {
	rt.loaders[p] = loader
}

// Shell обрабатывает GET /admin/{page}.
// Полная загрузка документа однократно проверяет сессию запросом к боту;
// HTMX-навигация получает только содержимое #main и новую подсветку меню.
func (rt *Router) Shell(w http.ResponseWriter, r *http.Request) {
	p, ok := Parse(chi.URLParam(r, "page"))
	if !ok || rt.loaders[p] == nil {
		rt.NotFound(w, r)
		return
	}

	data := rt.shellData(p)
	ctx := r.Context()

	if uimiddleware.IsHTMX(r) && r.Header.Get("HX-History-Restore-Request") != "true" {
		notify.FromContext(ctx).Trigger(pages.NavCloseEvent)
		if err := pages.Render(w, r, http.StatusOK, pages.ShellSwap(data)); err != nil {
			rt.logger.Error("Ошибка рендеринга навигации",
				slog.String("page", string(p)),
				slog.String("error", err.Error()),
			)
		}
		return
	}

	if _, err := rt.sessions.Restore(ctx, w, r); err != nil {
		q := notify.FromContext(ctx)
		switch {
		case errors.Is(err, auth.ErrNoSession):
		case errors.Is(err, botapi.ErrUnauthorized):
			q.Error(i18n.T(ctx, "toast.session_expired"))
		default:
			q.Error(i18n.T(ctx, "toast.network_error"))
		}
		uimiddleware.Redirect(w, r, uimiddleware.LoginPath)
		return
	}

	now := rt.now()
	doc := pages.DocumentData{Toasts: notify.FromContext(ctx).Drain(now), Now: now}
	if err := pages.Render(w, r, http.StatusOK, pages.Shell(data, doc)); err != nil {
		rt.logger.Error("Ошибка рендеринга страницы",
			slog.String("page", string(p)),
			slog.String("error", err.Error()),
		)
	}
}

// Partial обрабатывает GET /admin/partials/{page}: вызывает загрузчик.
// ?refresh=1 — ручное обновление из заголовка страницы.
func (rt *Router) Partial(w http.ResponseWriter, r *http.Request) {
	p, ok := Parse(chi.URLParam(r, "page"))
	loader := rt.loaders[p]
	if !ok || loader == nil {
		http.NotFound(w, r)
		return
	}
	if r.URL.Query().Get("refresh") == "1" {
		notify.FromContext(r.Context()).Info(i18n.T(r.Context(), "toast.refreshed"))
	}
	loader(w, r)
}

// NotFound рендерит страницу 404.
func (rt *Router) NotFound(w http.ResponseWriter, r *http.Request) {
	now := rt.now()
	doc := pages.DocumentData{Toasts: notify.FromContext(r.Context()).Drain(now), Now: now}
	if err := pages.Render(w, r, http.StatusNotFound, pages.NotFound(doc)); err != nil {
		rt.logger.Error("Ошибка рендеринга 404", slog.String("error", err.Error()))
	}
}

// Home перенаправляет /admin/ на обзор.
func (rt *Router) Home(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, Dashboard.Path(), http.StatusFound)
}

func (rt *Router) shellData(active Page) pages.ShellData {
	nav := make([]pages.NavItem, 0, len(Pages))
	for _, p := range Pages {
		if rt.loaders[p] == nil {
			continue
		}
		m := p.Meta()
		nav = append(nav, pages.NavItem{
			Href:     p.Path(),
			TitleKey: m.TitleKey,
			Icon:     m.Icon,
			Active:   p == active,
		})
	}
	m := active.Meta()
	return pages.ShellData{
		TitleKey:    m.TitleKey,
		SubtitleKey: m.SubtitleKey,
		Nav:         nav,
		ContentURL:  active.PartialPath(),
	}
}
