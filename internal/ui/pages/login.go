package pages

import (
	"github.com/a-h/templ"

	"github.com/bigkaa/sharebot-console/internal/ui/i18n"
	"github.com/bigkaa/sharebot-console/internal/ui/markup"
)

// LoginErrorID — id блока ошибки на странице входа.
const LoginErrorID = "login-error"

// Login рендерит страницу входа. errMsg — уже переведённое сообщение
// (пусто — блок скрыт).
func Login(errMsg string, doc DocumentData) templ.Component {
	doc.TitleKey = "login.title"
	doc.BodyClass = "login-body"
	doc.Body = markup.Func(func(m *markup.Writer) {
		ctx := m.Ctx()
		m.Open("div", "id", "login-screen", "class", "login-screen")
		m.Open("div", "class", "login-card")
		m.Elem("h1", i18n.T(ctx, "app.name"), "class", "login-title")
		m.Elem("p", i18n.T(ctx, "login.subtitle"), "class", "login-subtitle")

		// hx-sync="this:drop" отбрасывает повторную отправку, пока запрос в полёте;
		// кнопка выключена на время запроса (hx-disabled-elt).
		m.Open("form",
			"method", "post",
			"action", "/admin/login",
			"hx-post", "/admin/login",
			"hx-target", "#"+LoginErrorID,
			"hx-swap", "outerHTML",
			"hx-sync", "this:drop",
			"hx-disabled-elt", "find button[type=submit]",
			"class", "login-form",
		)
		m.Open("label", "for", "login-password", "class", "form-label").T("login.password").Close("label")
		m.Open("div", "class", "password-field")
		m.Raw(`<input type="password" id="login-password" name="password" class="form-input" autocomplete="current-password" autofocus`).
			Attr("placeholder", i18n.T(ctx, "login.password_placeholder")).Raw(">")
		m.Raw(`<button type="button" class="eye-btn" data-toggle-password="login-password" aria-label="show">&#128065;</button>`)
		m.Close("div")
		m.Component(LoginError(errMsg))
		m.Open("button", "type", "submit", "id", "login-btn", "class", "btn btn-accent btn-block")
		m.Open("span", "class", "btn-text").T("login.submit").Close("span")
		m.Raw(`<span class="btn-loader"><span class="spinner spinner-sm"></span></span>`)
		m.Close("button")
		m.Close("form")
		m.Close("div")
		m.Close("div")
	})
	return Document(doc)
}

// LoginError рендерит блок ошибки входа (фрагмент для HTMX).
func LoginError(msg string) templ.Component {
	return markup.Func(func(m *markup.Writer) {
		class := "login-error"
		if msg == "" {
			class += " hidden"
		}
		m.Open("div", "id", LoginErrorID, "class", class, "role", "alert").Text(msg).Close("div")
	})
}

// NotFound рендерит страницу 404.
func NotFound(doc DocumentData) templ.Component {
	doc.TitleKey = "notfound.title"
	doc.BodyClass = "login-body"
	doc.Body = markup.Func(func(m *markup.Writer) {
		m.Open("div", "class", "login-screen")
		m.Open("div", "class", "login-card")
		m.Open("h1", "class", "login-title").T("notfound.title").Close("h1")
		m.Open("p", "class", "login-subtitle").T("notfound.text").Close("p")
		m.Open("a", "href", "/admin/dashboard", "class", "btn btn-accent btn-block").T("notfound.back").Close("a")
		m.Close("div")
		m.Close("div")
	})
	return Document(doc)
}
