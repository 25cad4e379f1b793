// Пакет partials — HTML-фрагменты страниц консоли для HTMX.
package partials

import (
	"context"
	"strconv"

	"github.com/a-h/templ"

	"github.com/bigkaa/sharebot-console/internal/ui/format"
	"github.com/bigkaa/sharebot-console/internal/ui/i18n"
	"github.com/bigkaa/sharebot-console/internal/ui/markup"
)

// contentTarget — селектор области содержимого страницы.
const contentTarget = "#content"

// LoadFailed — фрагмент на месте страницы, данные для которой не получены:
// кнопка повторяет тот же запрос.
func LoadFailed(retryURL string) templ.Component {
	return markup.Func(func(m *markup.Writer) {
		m.Open("div", "class", "card load-failed")
		m.Open("div", "class", "empty-state")
		m.Raw(`<i class="icon icon-warning" aria-hidden="true"></i>`)
		m.Open("h3").T("common.load_failed").Close("h3")
		m.Open("button",
			"type", "button",
			"class", "btn btn-accent",
			"hx-get", retryURL,
			"hx-target", contentTarget,
			"hx-sync", contentTarget+":replace",
		).T("action.retry").Close("button")
		m.Close("div")
		m.Close("div")
	})
}

// Pagination рендерит пагинатор. pageURL строит адрес фрагмента страницы n.
func Pagination(cur, total int, pageURL func(n int) string) templ.Component {
	return markup.Func(func(m *markup.Writer) {
		window := format.PageWindow(cur, total)
		if window == nil {
			return
		}
		m.Open("div", "class", "pagination")
		pageButton(m, cur-1, "‹", cur <= 1, false, pageURL)
		for _, n := range window {
			if n == 0 {
				m.Raw(`<button type="button" disabled>…</button>`)
				continue
			}
			pageButton(m, n, strconv.Itoa(n), false, n == cur, pageURL)
		}
		pageButton(m, cur+1, "›", cur >= total, false, pageURL)
		m.Close("div")
	})
}

func pageButton(m *markup.Writer, n int, label string, disabled, active bool, pageURL func(int) string) {
	m.Raw(`<button type="button"`)
	m.AttrIf(active, "class", "active")
	if disabled {
		m.Raw(" disabled>").Text(label).Close("button")
		return
	}
	m.Attr("hx-get", pageURL(n)).
		Attr("hx-target", contentTarget).
		Attr("hx-sync", contentTarget+":replace").
		Raw(">").Text(label).Close("button")
}

// emptyState рендерит заглушку пустого списка.
func emptyState(m *markup.Writer, icon, titleKey string) {
	m.Open("div", "class", "empty-state")
	m.Raw(`<i`).Attr("class", "icon icon-"+icon).Raw(` aria-hidden="true"></i>`)
	m.Open("h3").T(titleKey).Close("h3")
	m.Close("div")
}

// cardHeader открывает карточку с заголовком. Вызывающий закрывает div карточки.
func cardHeader(m *markup.Writer, icon, title string) {
	m.Open("div", "class", "card")
	m.Open("div", "class", "card-header")
	m.Open("div", "class", "card-title")
	m.Raw(`<i`).Attr("class", "icon icon-"+icon).Raw(` aria-hidden="true"></i> `)
	m.Text(title)
	m.Close("div")
	m.Close("div")
}

// settingRow рендерит строку "название — значение".
func settingRow(m *markup.Writer, nameKey string, value templ.Component) {
	m.Open("div", "class", "setting-item")
	m.Open("div", "class", "setting-info")
	m.Open("div", "class", "setting-name").T(nameKey).Close("div")
	m.Close("div")
	m.Open("div", "class", "setting-value").Component(value).Close("div")
	m.Close("div")
}

// text — компонент с экранированным текстом.
func text(s string) templ.Component {
	return markup.Func(func(m *markup.Writer) { m.Text(s) })
}

// tr — компонент с переводом ключа.
func tr(key string) templ.Component {
	return markup.Func(func(m *markup.Writer) { m.T(key) })
}

// orNone возвращает s или перевод "нет" для пустой строки.
func orNone(ctx context.Context, s string) string {
	if s == "" {
		return i18n.T(ctx, "common.none")
	}
	return s
}

// yesNo — перевод булева значения.
func yesNo(v bool) templ.Component {
	if v {
		return tr("common.yes")
	}
	return tr("common.no")
}

// statCard рендерит карточку показателя с необязательной плашкой.
func statCard(m *markup.Writer, icon, color, value, labelKey, badge string) {
	m.Open("div", "class", "stat-card")
	m.Open("div", "class", "stat-header")
	m.Open("div", "class", "stat-icon "+color)
	m.Raw(`<i`).Attr("class", "icon icon-"+icon).Raw(` aria-hidden="true"></i>`)
	m.Close("div")
	if badge != "" {
		m.Elem("span", badge, "class", "stat-badge up")
	}
	m.Close("div")
	m.Elem("div", value, "class", "stat-value")
	m.Elem("div", i18n.T(m.Ctx(), labelKey), "class", "stat-label")
	m.Close("div")
}
