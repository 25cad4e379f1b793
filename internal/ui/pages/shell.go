package pages

import (
	"github.com/a-h/templ"

	"github.com/bigkaa/sharebot-console/internal/ui/csrf"
	"github.com/bigkaa/sharebot-console/internal/ui/i18n"
	"github.com/bigkaa/sharebot-console/internal/ui/markup"
)

// Идентификаторы областей оболочки.
const (
	MainID    = "main"
	ContentID = "content"
	NavID     = "nav-links"
	BotNameID = "bot-name"
)

// NavItem — пункт навигации.
type NavItem struct {
	Href     string
	TitleKey string
	Icon     string
	Active   bool
}

// ShellData — данные оболочки страницы.
type ShellData struct {
	TitleKey    string
	SubtitleKey string
	Nav         []NavItem
	// ContentURL — фрагмент страницы, загружаемый в #content после отрисовки.
	ContentURL string
}

// Shell рендерит полную страницу консоли: боковая панель, заголовок и
// заглушка загрузки в #content.
func Shell(d ShellData, doc DocumentData) templ.Component {
	doc.TitleKey = d.TitleKey
	doc.BodyClass = "app-body"
	doc.Body = markup.Func(func(m *markup.Writer) {
		m.Open("div", "class", "app")
		m.Component(sidebar(d.Nav))
		m.Open("main", "id", MainID, "class", "main")
		m.Component(Main(d))
		m.Close("main")
		m.Close("div")
	})
	return Document(doc)
}

// ShellSwap — ответ на HTMX-навигацию: содержимое #main и
// навигация out-of-band (подсветка активной страницы).
func ShellSwap(d ShellData) templ.Component {
	return markup.Func(func(m *markup.Writer) {
		m.Component(Main(d))
		m.Component(navLinks(d.Nav, true))
	})
}

// Main рендерит содержимое #main.
func Main(d ShellData) templ.Component {
	return markup.Func(func(m *markup.Writer) {
		m.Open("header", "class", "topbar")
		m.Raw(`<button type="button" class="btn btn-ghost sidebar-toggle" data-sidebar-toggle aria-label="menu">&#9776;</button>`)
		m.Open("div", "class", "topbar-titles")
		m.Open("h1", "id", "page-title", "class", "page-title").T(d.TitleKey).Close("h1")
		m.Open("p", "id", "page-subtitle", "class", "page-subtitle").T(d.SubtitleKey).Close("p")
		m.Close("div")
		m.Open("button",
			"type", "button",
			"class", "btn btn-ghost btn-refresh",
			"hx-get", d.ContentURL+"?refresh=1",
			"hx-target", "#"+ContentID,
			"hx-sync", "#"+ContentID+":replace",
		).T("action.refresh").Close("button")
		m.Close("header")

		m.Open("section",
			"id", ContentID,
			"class", "content",
			"hx-get", d.ContentURL,
			"hx-trigger", "load",
			"hx-sync", "this:replace",
		)
		m.Component(Loading())
		m.Close("section")
	})
}

// Loading — заглушка загрузки.
func Loading() templ.Component {
	return markup.Func(func(m *markup.Writer) {
		m.Open("div", "class", "loading-container").
			Raw(`<div class="spinner"></div>`).
			Elem("span", i18n.T(m.Ctx(), "common.loading"), "class", "sr-only").
			Close("div")
	})
}

func sidebar(nav []NavItem) templ.Component {
	return markup.Func(func(m *markup.Writer) {
		ctx := m.Ctx()
		m.Open("aside", "id", "sidebar", "class", "sidebar")
		m.Open("div", "class", "sidebar-brand")
		m.Open("span", "id", BotNameID, "class", "brand-name").T("nav.brand").Close("span")
		m.Close("div")

		m.Component(navLinks(nav, false))

		m.Open("div", "class", "sidebar-footer")
		m.Open("form", "method", "post", "action", "/admin/set-language", "class", "lang-switch")
		current := i18n.LangFromContext(ctx)
		for _, lang := range i18n.Languages {
			m.Raw(`<button type="submit" name="lang"`).
				Attr("value", lang).
				Attr("class", langClass(lang == current)).
				Raw(">").T("lang." + lang).Close("button")
		}
		m.Close("form")

		m.Open("form",
			"method", "post",
			"action", "/admin/logout",
			"hx-post", "/admin/logout",
			"class", "logout-form",
		)
		m.Raw(`<input type="hidden"`).Attr("name", csrf.FormField).Attr("value", csrf.TokenFromContext(ctx)).Raw(">")
		m.Open("button", "type", "submit", "class", "btn btn-ghost btn-block").T("action.logout").Close("button")
		m.Close("form")
		m.Close("div")
		m.Close("aside")
	})
}

func langClass(active bool) string {
	if active {
		return "lang-btn active"
	}
	return "lang-btn"
}

// navLinks рендерит список навигации. oob — для out-of-band замены.
func navLinks(nav []NavItem, oob bool) templ.Component {
	return markup.Func(func(m *markup.Writer) {
		m.Raw("<nav").Attr("id", NavID).Attr("class", "nav")
		if oob {
			m.Attr("hx-swap-oob", "true")
		}
		m.Raw(">")
		for _, item := range nav {
			class := "nav-link"
			if item.Active {
				class += " active"
			}
			m.Open("a",
				"href", item.Href,
				"class", class,
				"hx-get", item.Href,
				"hx-target", "#"+MainID,
				"hx-push-url", "true",
				"hx-sync", "#"+MainID+":replace",
			)
			m.Raw(`<i`).Attr("class", "icon icon-"+item.Icon).Raw(` aria-hidden="true"></i>`)
			m.Open("span").T(item.TitleKey).Close("span")
			m.Close("a")
		}
		m.Close("nav")
	})
}

// BotName рендерит имя бота в боковой панели out-of-band.
func BotName(username string) templ.Component {
	return markup.Func(func(m *markup.Writer) {
		m.Open("span", "id", BotNameID, "class", "brand-name", "hx-swap-oob", "true")
		if username != "" {
			m.Text("@" + username)
		} else {
			m.T("nav.brand")
		}
		m.Close("span")
	})
}
