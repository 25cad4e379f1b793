package partials

import (
	"net/url"
	"strconv"

	"github.com/a-h/templ"

	"github.com/bigkaa/sharebot-console/internal/botapi"
	"github.com/bigkaa/sharebot-console/internal/ui/format"
	"github.com/bigkaa/sharebot-console/internal/ui/i18n"
	"github.com/bigkaa/sharebot-console/internal/ui/markup"
	"github.com/bigkaa/sharebot-console/internal/ui/notify"
)

// UsersURL — адрес фрагмента списка пользователей.
const UsersURL = "/admin/partials/users"

// BanModalURL — адрес модального окна блокировки.
const BanModalURL = "/admin/partials/banned/ban-modal"

// Users рендерит страницу пользователей.
func Users(p *botapi.UserPage, perPage int) templ.Component {
	return markup.Func(func(m *markup.Writer) {
		ctx := m.Ctx()
		cardHeader(m, "users", i18n.Tf(ctx, "users.title", format.Num(int64(p.Total))))

		if len(p.Users) == 0 {
			emptyState(m, "users", "users.empty")
		} else {
			m.Open("table", "class", "data-table")
			m.Raw("<thead><tr><th>#</th>")
			m.Open("th").T("users.id").Close("th")
			m.Open("th").T("common.actions").Close("th")
			m.Raw("</tr></thead><tbody>")
			offset := (max(p.Page, 1) - 1) * perPage
			for i, uid := range p.Users {
				id := strconv.FormatInt(uid, 10)
				m.Raw("<tr><td>").Int(int64(offset+i+1)).Raw("</td>")
				m.Raw("<td>").Elem("span", id, "class", "code-text").Raw("</td>")
				m.Raw("<td>")
				m.Open("button",
					"type", "button",
					"class", "btn btn-danger btn-sm",
					"hx-get", BanModalURL+"?user_id="+url.QueryEscape(id),
					"hx-target", "#"+notify.ModalRootID,
				).T("action.ban").Close("button")
				m.Raw("</td></tr>")
			}
			m.Raw("</tbody></table>")
		}

		m.Component(Pagination(p.Page, p.TotalPages, func(n int) string {
			return UsersURL + "?page=" + strconv.Itoa(n)
		}))
		m.Close("div")
	})
}
