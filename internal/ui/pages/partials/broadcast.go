package partials

import (
	"strconv"

	"github.com/a-h/templ"

	"github.com/bigkaa/sharebot-console/internal/botapi"
	"github.com/bigkaa/sharebot-console/internal/ui/i18n"
	"github.com/bigkaa/sharebot-console/internal/ui/markup"
)

// Адреса рассылки.
const (
	BroadcastURL     = "/admin/partials/broadcast"
	BroadcastSendURL = BroadcastURL + "/send"
)

// BroadcastResultID — id контейнера результата рассылки.
const BroadcastResultID = "broadcast-result"

// FieldMessage — поле текста рассылки.
const FieldMessage = "message"

// Broadcast рендерит форму рассылки.
func Broadcast() templ.Component {
	return markup.Func(func(m *markup.Writer) {
		ctx := m.Ctx()
		cardHeader(m, "broadcast", i18n.T(ctx, "broadcast.title"))
		m.Open("form",
			"class", "broadcast-form",
			"hx-post", BroadcastSendURL,
			"hx-target", "#"+BroadcastResultID,
			"hx-disabled-elt", "find button[type=submit]",
			"hx-sync", "this:drop",
		)
		m.Open("div", "class", "form-group")
		m.Open("label", "class", "form-label", "for", "broadcast-msg").T("broadcast.message").Close("label")
		m.Raw(`<textarea class="form-textarea" id="broadcast-msg" rows="6" data-autogrow`).
			Attr("name", FieldMessage).
			Attr("placeholder", i18n.T(ctx, "broadcast.placeholder")).
			Raw("></textarea>")
		m.Close("div")
		m.Open("button", "type", "submit", "class", "btn btn-accent")
		m.Open("span", "class", "btn-text").T("broadcast.send").Close("span")
		m.Open("span", "class", "btn-loader").T("broadcast.sending").Close("span")
		m.Close("button")
		m.Open("div", "id", BroadcastResultID, "class", "broadcast-result").Close("div")
		m.Close("form")
		m.Close("div")
	})
}

// BroadcastResult рендерит итог рассылки.
func BroadcastResult(res *botapi.BroadcastResult) templ.Component {
	return markup.Func(func(m *markup.Writer) {
		m.Open("div", "class", "card result-card")
		m.Open("h3", "class", "text-success").T("broadcast.done").Close("h3")
		settingRow(m, "broadcast.total", text(strconv.Itoa(res.Total)))
		settingRow(m, "broadcast.successful", markup.Func(func(m *markup.Writer) {
			m.Elem("span", strconv.Itoa(res.Successful), "class", "text-success")
		}))
		settingRow(m, "broadcast.failed", markup.Func(func(m *markup.Writer) {
			m.Elem("span", strconv.Itoa(res.Failed), "class", "text-danger")
		}))
		m.Close("div")
	})
}
