package partials

import (
	"strconv"
	"time"

	"github.com/a-h/templ"

	"github.com/bigkaa/sharebot-console/internal/botapi"
	"github.com/bigkaa/sharebot-console/internal/ui/format"
	"github.com/bigkaa/sharebot-console/internal/ui/i18n"
	"github.com/bigkaa/sharebot-console/internal/ui/markup"
	"github.com/bigkaa/sharebot-console/internal/ui/notify"
)

// Адреса чёрного списка.
const (
	BannedURL = "/admin/partials/banned"
	BanURL    = BannedURL + "/ban"
	UnbanURL  = BannedURL + "/unban"
)

// BannedChangedEvent — клиентское событие: чёрный список изменился.
const BannedChangedEvent = "sc:banned-changed"

// Поля формы блокировки.
const (
	FieldUserID = "user_id"
	FieldReason = "reason"
)

// Banned рендерит чёрный список. Список перечитывается сам
// по событию BannedChangedEvent.
func Banned(list *botapi.BannedList) templ.Component {
	return markup.Func(func(m *markup.Writer) {
		ctx := m.Ctx()
		m.Open("div",
			"class", "card",
			"hx-get", BannedURL,
			"hx-trigger", BannedChangedEvent+" from:body",
			"hx-target", contentTarget,
			"hx-sync", contentTarget+":replace",
		)
		m.Open("div", "class", "card-header")
		m.Open("div", "class", "card-title").
			Raw(`<i class="icon icon-ban" aria-hidden="true"></i> `).
			Text(i18n.Tf(ctx, "banned.title", strconv.Itoa(list.Total))).
			Close("div")
		m.Open("button",
			"type", "button",
			"class", "btn btn-danger",
			"hx-get", BanModalURL,
			"hx-target", "#"+notify.ModalRootID,
		).T("banned.ban_user").Close("button")
		m.Close("div")

		if len(list.BannedUsers) == 0 {
			emptyState(m, "user-check", "banned.empty")
			m.Close("div")
			return
		}

		m.Open("table", "class", "data-table")
		m.Raw("<thead><tr><th>#</th>")
		m.Open("th").T("users.id").Close("th")
		m.Open("th").T("banned.reason").Close("th")
		m.Open("th").T("banned.banned_at").Close("th")
		m.Open("th").T("common.actions").Close("th")
		m.Raw("</tr></thead><tbody>")
		for i, u := range list.BannedUsers {
			id := strconv.FormatInt(u.UserID, 10)
			reason := u.Reason
			if reason == "" {
				reason = i18n.T(ctx, "banned.no_reason")
			}
			m.Raw("<tr><td>").Int(int64(i + 1)).Raw("</td>")
			m.Raw("<td>").Elem("span", id, "class", "code-text").Raw("</td>")
			m.Raw("<td>").Text(reason).Raw("</td>")
			m.Raw("<td>").Text(format.UnixTime(u.BannedAt, time.Local)).Raw("</td>")
			m.Raw("<td>")
			m.Open("button",
				"type", "button",
				"class", "btn btn-success btn-sm",
				"hx-post", UnbanURL,
				"hx-vals", `{"`+FieldUserID+`":"`+id+`"}`,
				"hx-swap", "none",
				"hx-disabled-elt", "this",
			).T("banned.unban").Close("button")
			m.Raw("</td></tr>")
		}
		m.Raw("</tbody></table>")
		m.Close("div")
	})
}

// BanModal — модальное окно блокировки. prefill — предзаполненный ID.
func BanModal(prefill string) templ.Component {
	return markup.Func(func(m *markup.Writer) {
		ctx := m.Ctx()
		body := markup.Func(func(m *markup.Writer) {
			m.Open("form", "id", "ban-form", "class", "modal-form")
			m.Open("div", "class", "form-group")
			m.Open("label", "class", "form-label", "for", "ban-uid").T("users.id").Close("label")
			m.Raw(`<input class="form-input" type="number" id="ban-uid"`).
				Attr("name", FieldUserID).
				Attr("value", prefill).
				Attr("placeholder", i18n.T(ctx, "banned.user_id_placeholder")).
				Raw(">")
			m.Close("div")
			m.Open("div", "class", "form-group")
			m.Open("label", "class", "form-label", "for", "ban-reason").T("banned.reason").Close("label")
			m.Raw(`<input class="form-input" type="text" id="ban-reason"`).
				Attr("name", FieldReason).
				Attr("placeholder", i18n.T(ctx, "banned.reason_placeholder")).
				Raw(">")
			m.Close("div")
			m.Close("form")
		})
		m.Component(notify.Modal{
			Title: i18n.T(ctx, "banned.ban_user"),
			Body:  body,
			Actions: []notify.ModalAction{
				{Label: i18n.T(ctx, "action.cancel"), Variant: "ghost", Close: true},
				{
					Label:   i18n.T(ctx, "banned.confirm_ban"),
					Variant: "danger",
					Attrs: []string{
						"hx-post", BanURL,
						"hx-include", "#ban-form",
						"hx-swap", "none",
						"hx-disabled-elt", "this",
					},
				},
			},
		}.Component())
	})
}
