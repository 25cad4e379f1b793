package partials

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/a-h/templ"

	"github.com/bigkaa/sharebot-console/internal/botapi"
	"github.com/bigkaa/sharebot-console/internal/ui/format"
	"github.com/bigkaa/sharebot-console/internal/ui/i18n"
	"github.com/bigkaa/sharebot-console/internal/ui/markup"
	"github.com/bigkaa/sharebot-console/internal/ui/notify"
	"github.com/bigkaa/sharebot-console/internal/ui/selection"
)

// SharesURL — адрес фрагмента списка раздач.
const SharesURL = "/admin/partials/shares"

// SharesChangedEvent — клиентское событие: список раздач нужно перечитать.
const SharesChangedEvent = "sc:shares-changed"

// Поля формы карточки раздачи.
const (
	FieldTotal     = "total"
	FieldItem      = "item"
	FieldSelectAll = "select_all"
	FieldKeywords  = "keywords"
	FieldGroupText = "group_text"
	FieldProtect   = "protect"
)

// ShareActionURL возвращает адрес действия над раздачей
// (/admin/partials/shares/{code}/{action}).
func ShareActionURL(code, action string) string {
	u := SharesURL + "/" + url.PathEscape(code)
	if action != "" {
		u += "/" + action
	}
	return u
}

// SharesPageURL строит адрес страницы списка с поиском.
func SharesPageURL(page int, search string) string {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	if search != "" {
		q.Set("search", search)
	}
	return SharesURL + "?" + q.Encode()
}

// SharesData — данные страницы раздач.
type SharesData struct {
	Page   *botapi.SharePage
	Search string
	// Board — выбор файлов для пересылки по карточкам страницы.
	Board *selection.Board
}

// Shares рендерит поиск, карточки раздач и пагинатор.
func Shares(d SharesData) templ.Component {
	return markup.Func(func(m *markup.Writer) {
		ctx := m.Ctx()

		m.Open("div", "class", "card card-compact")
		m.Open("div", "class", "card-header")
		m.Open("div", "class", "card-title").
			Text(i18n.Tf(ctx, "shares.title", format.Num(int64(d.Page.Total)))).
			Close("div")
		m.Open("form",
			"class", "card-actions search-box",
			"hx-get", SharesURL,
			"hx-target", contentTarget,
			"hx-sync", contentTarget+":replace",
		)
		m.Raw(`<input type="search" class="form-input" name="search"`).
			Attr("value", d.Search).
			Attr("placeholder", i18n.T(ctx, "shares.search_placeholder")).
			Raw(">")
		m.Open("button", "type", "submit", "class", "btn btn-ghost btn-sm").T("action.search").Close("button")
		m.Close("form")
		m.Close("div")
		m.Close("div")

		m.Open("div",
			"id", "shares-list",
			"hx-get", SharesPageURL(max(d.Page.Page, 1), d.Search),
			"hx-trigger", SharesChangedEvent+" from:body",
			"hx-target", contentTarget,
			"hx-sync", contentTarget+":replace",
		)
		if len(d.Page.Shares) == 0 {
			emptyState(m, "share", "shares.empty")
		}
		for _, sh := range d.Page.Shares {
			sel := d.Board.Init(sh.Code, sh.FilesCount)
			m.Component(ShareCard(sh, sel))
		}
		m.Close("div")

		m.Component(Pagination(d.Page.Page, d.Page.TotalPages, func(n int) string {
			return SharesPageURL(n, d.Search)
		}))
	})
}

// ShareCard рендерит карточку раздачи с встроенным редактированием.
// Вся карточка — форма: действия отправляют её целиком (hx-include).
func ShareCard(sh botapi.Share, sel *selection.Selection) templ.Component {
	return markup.Func(func(m *markup.Writer) {
		ctx := m.Ctx()
		m.Open("form", "class", "card share-card", "data-share-code", sh.Code)
		m.Raw(`<input type="hidden"`).Attr("name", FieldTotal).Attr("value", strconv.Itoa(sel.Total())).Raw(">")

		m.Open("div", "class", "card-header share-header")
		m.Open("div", "class", "share-actions")
		m.Component(SelectionGroup(sel))
		m.Open("button",
			"type", "button",
			"class", "btn btn-success btn-sm",
			"hx-post", ShareActionURL(sh.Code, "forward"),
			"hx-include", "closest form",
			"hx-swap", "none",
			"hx-disabled-elt", "this",
		).T("shares.forward").Close("button")
		m.Open("button",
			"type", "button",
			"class", "btn btn-accent btn-sm",
			"hx-post", ShareActionURL(sh.Code, "save"),
			"hx-include", "closest form",
			"hx-swap", "none",
			"hx-disabled-elt", "this",
		).T("action.save").Close("button")
		m.Close("div")

		m.Open("div", "class", "share-meta")
		m.Component(ProtectButton(sh.Code, sh.ProtectContent))
		m.Elem("span", "📁"+strconv.Itoa(sh.FilesCount), "class", "share-stat", "title", i18n.T(ctx, "shares.files"))
		m.Elem("span", "👁"+format.Num(sh.AccessCount), "class", "share-stat", "title", i18n.T(ctx, "shares.views"))
		m.Open("button",
			"type", "button",
			"class", "btn btn-ghost btn-sm",
			"title", i18n.T(ctx, "shares.details"),
			"hx-get", ShareActionURL(sh.Code, "details"),
			"hx-target", "#"+notify.ModalRootID,
		).Raw(`<i class="icon icon-eye" aria-hidden="true"></i>`).Close("button")
		m.Open("button",
			"type", "button",
			"class", "btn btn-danger btn-sm",
			"title", i18n.T(ctx, "action.delete"),
			"hx-get", ShareActionURL(sh.Code, "delete"),
			"hx-target", "#"+notify.ModalRootID,
		).Raw(`<i class="icon icon-trash" aria-hidden="true"></i>`).Close("button")
		m.Close("div")
		m.Close("div")

		m.Open("div", "class", "share-body")
		m.Open("div", "class", "share-title")
		m.Elem("span", sh.Code, "class", "code-text")
		m.Text(" ")
		m.Text(format.Truncate(shareTitle(ctx, sh), 80))
		if sh.Link != "" {
			m.Raw(" ").Open("a", "class", "share-link", "target", "_blank", "rel", "noopener").
				URL("href", sh.Link).Raw(">").T("shares.link").Close("a")
		}
		m.Close("div")
		m.Open("div", "class", "share-fields")
		m.Open("label", "class", "form-label field-keywords").T("shares.keywords")
		m.Raw(`<input type="text" class="form-input"`).
			Attr("name", FieldKeywords).
			Attr("value", strings.Join(sh.Keywords, ",")).
			Attr("placeholder", i18n.T(ctx, "shares.keywords_placeholder")).
			Raw(">")
		m.Close("label")
		m.Open("label", "class", "form-label field-group-text").T("shares.group_text")
		m.Raw(`<textarea class="form-textarea" rows="1" data-autogrow`).
			Attr("name", FieldGroupText).
			Attr("placeholder", i18n.T(ctx, "shares.group_text_placeholder")).
			Raw(">").Text(sh.GroupText).Close("textarea")
		m.Close("label")
		m.Close("div")
		m.Elem("div", i18n.Tf(ctx, "shares.meta_line", sh.OwnerID, format.UnixTime(sh.CreatedAt, time.Local)), "class", "share-footnote")
		m.Close("div")

		m.Close("form")
	})
}

// SelectionGroup рендерит чекбоксы выбора файлов карточки — проекцию Selection.
// Любое изменение отправляет форму карточки; сервер применяет операцию
// и возвращает группу заново.
func SelectionGroup(sel *selection.Selection) templ.Component {
	return markup.Func(func(m *markup.Writer) {
		m.Open("div", "class", "fwd-group")
		base := ShareActionURL(sel.Code(), "selection")

		m.Open("label", "class", "fwd-all")
		m.Raw(`<input type="checkbox" value="1"`).
			Attr("name", FieldSelectAll).
			Flag("checked", sel.SelectAll()).
			Attr("hx-post", base+"?op=all").
			Attr("hx-include", "closest form").
			Attr("hx-target", "closest .fwd-group").
			Attr("hx-swap", "outerHTML").
			Attr("hx-sync", "closest form:queue last").
			Raw("> ").T("shares.select_all")
		m.Close("label")

		for _, i := range sel.Items() {
			n := strconv.Itoa(i)
			m.Open("label", "class", "fwd-item")
			m.Raw(`<input type="checkbox"`).
				Attr("name", FieldItem).
				Attr("value", n).
				Flag("checked", sel.Checked(i)).
				Attr("hx-post", base+"?op=item").
				Attr("hx-include", "closest form").
				Attr("hx-target", "closest .fwd-group").
				Attr("hx-swap", "outerHTML").
				Attr("hx-sync", "closest form:queue last").
				Raw(">").Text(n)
			m.Close("label")
		}
		m.Close("div")
	})
}

// ProtectButton рендерит переключатель запрета пересылки (замок).
func ProtectButton(code string, protected bool) templ.Component {
	return markup.Func(func(m *markup.Writer) {
		icon, next := "🔓", "true"
		if protected {
			icon, next = "🔒", "false"
		}
		m.Open("button",
			"type", "button",
			"class", "btn btn-ghost btn-sm lock-btn",
			"title", i18n.T(m.Ctx(), "shares.protect_hint"),
			"hx-post", ShareActionURL(code, "protect"),
			"hx-vals", `{"`+FieldProtect+`":"`+next+`"}`,
			"hx-target", "this",
			"hx-swap", "outerHTML",
			"hx-disabled-elt", "this",
		).Text(icon).Close("button")
	})
}

// ShareDetails — модальное окно с подробностями раздачи.
func ShareDetails(sh *botapi.Share) templ.Component {
	return markup.Func(func(m *markup.Writer) {
		ctx := m.Ctx()
		body := markup.Func(func(m *markup.Writer) {
			settingRow(m, "shares.code", markup.Func(func(m *markup.Writer) {
				m.Elem("span", sh.Code, "class", "code-text")
			}))
			settingRow(m, "shares.title_label", text(shareTitle(ctx, *sh)))
			settingRow(m, "shares.link", markup.Func(func(m *markup.Writer) {
				if sh.Link == "" {
					m.Text("N/A")
					return
				}
				m.Open("a", "target", "_blank", "rel", "noopener", "class", "break-all").
					URL("href", sh.Link).Raw(">").Text(sh.Link).Close("a")
			}))
			settingRow(m, "shares.group_text", text(orNone(ctx, sh.GroupText)))
			settingRow(m, "shares.keywords", text(orNone(ctx, strings.Join(sh.Keywords, ", "))))
			settingRow(m, "shares.files", text(strconv.Itoa(sh.FilesCount)))
			settingRow(m, "shares.views", text(format.Num(sh.AccessCount)))
			settingRow(m, "shares.protected", yesNo(sh.ProtectContent))
			settingRow(m, "shares.owner", text(strconv.FormatInt(sh.OwnerID, 10)))
			settingRow(m, "shares.created", text(format.UnixTime(sh.CreatedAt, time.Local)))
			settingRow(m, "shares.updated", text(format.UnixTime(sh.UpdatedAt, time.Local)))
			ids := make([]string, 0, len(sh.MessageIDs))
			for _, id := range sh.MessageIDs {
				ids = append(ids, strconv.FormatInt(id, 10))
			}
			settingRow(m, "shares.message_ids", text(orNone(ctx, strings.Join(ids, ", "))))
		})
		m.Component(notify.Modal{
			Title:   i18n.T(ctx, "shares.details_title"),
			Body:    body,
			Actions: []notify.ModalAction{{Label: i18n.T(ctx, "action.close"), Variant: "ghost", Close: true}},
		}.Component())
	})
}

// ShareDeleteConfirm — модальное окно подтверждения удаления.
func ShareDeleteConfirm(code string) templ.Component {
	return markup.Func(func(m *markup.Writer) {
		ctx := m.Ctx()
		body := markup.Func(func(m *markup.Writer) {
			m.Open("p").Text(i18n.Tf(ctx, "shares.delete_question", code)).Close("p")
			m.Open("p", "class", "text-danger").T("shares.delete_warning").Close("p")
		})
		m.Component(notify.Modal{
			Title: i18n.T(ctx, "shares.delete_title"),
			Body:  body,
			Actions: []notify.ModalAction{
				{Label: i18n.T(ctx, "action.cancel"), Variant: "ghost", Close: true},
				{
					Label:   i18n.T(ctx, "action.delete"),
					Variant: "danger",
					Attrs: []string{
						"hx-delete", ShareActionURL(code, ""),
						"hx-swap", "none",
						"hx-disabled-elt", "this",
					},
				},
			},
		}.Component())
	})
}

func shareTitle(ctx context.Context, sh botapi.Share) string {
	if sh.Title != "" {
		return sh.Title
	}
	return i18n.T(ctx, "shares.untitled")
}
