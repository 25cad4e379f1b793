// Пакет pages — полные страницы консоли (layout, оболочка, вход, 404).
// Фрагменты страниц живут в подпакете partials.
package pages

import (
	"net/http"
	"time"

	"github.com/a-h/templ"

	"github.com/bigkaa/sharebot-console/internal/ui/csrf"
	"github.com/bigkaa/sharebot-console/internal/ui/i18n"
	"github.com/bigkaa/sharebot-console/internal/ui/markup"
	"github.com/bigkaa/sharebot-console/internal/ui/notify"
)

// HTMXScriptURL — закреплённая версия HTMX.
const HTMXScriptURL = "https://unpkg.com/htmx.org@2.0.4/dist/htmx.min.js"

// NavCloseEvent — клиентское событие закрытия мобильной панели навигации.
const NavCloseEvent = "sc:nav-close"

// Render пишет компонент в ответ как HTML.
func Render(w http.ResponseWriter, r *http.Request, status int, c templ.Component) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	return c.Render(r.Context(), w)
}

// DocumentData — общий каркас HTML-документа.
type DocumentData struct {
	// TitleKey — ключ перевода для <title>.
	TitleKey string
	// BodyClass — класс <body> (login-body, app-body).
	BodyClass string
	Body      templ.Component
	// Toasts — уведомления, забранные из очереди до начала записи ответа.
	Toasts []notify.Toast
	Now    time.Time
}

// Document рендерит <html> с подключением стилей, HTMX и скрипта консоли.
// CSRF-токен из контекста попадает в hx-headers тела документа.
func Document(d DocumentData) templ.Component {
	return markup.Func(func(m *markup.Writer) {
		ctx := m.Ctx()
		m.Raw("<!DOCTYPE html>")
		m.Open("html", "lang", i18n.LangFromContext(ctx))
		m.Raw("<head>", `<meta charset="utf-8">`,
			`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		m.Raw("<title>").T(d.TitleKey).Text(" · ").T("app.name").Raw("</title>")
		m.Raw(`<link rel="stylesheet" href="/static/css/console.css">`)
		m.Raw(`<script src="`, HTMXScriptURL, `"></script>`)
		m.Raw(`<script src="/static/js/console.js" defer></script>`)
		m.Raw("</head>")

		m.Raw("<body").Attr("class", d.BodyClass)
		if token := csrf.TokenFromContext(ctx); token != "" {
			m.Attr("hx-headers", `{"`+csrf.HeaderName+`":"`+token+`"}`)
		}
		m.Raw(">")
		m.Component(d.Body)
		m.Open("div", "id", notify.ModalRootID, "class", "modal-root").Close("div")
		m.Component(notify.ToastStack(d.Toasts, d.Now))
		m.Raw("</body></html>")
	})
}
