// view.go — компоненты уведомлений и модального окна.
package notify

import (
	"strconv"
	"time"

	"github.com/a-h/templ"

	"github.com/bigkaa/sharebot-console/internal/ui/markup"
)

// ModalCloseEvent — клиентское событие закрытия модального окна.
const ModalCloseEvent = "sc:modal-close"

// ModalRootID — id контейнера модальных окон в layout.
const ModalRootID = "modal-root"

// ToastStack рендерит контейнер уведомлений с уже накопленными toasts.
// Клиентский скрипт удаляет каждое уведомление через data-dismiss-after мс.
func ToastStack(toasts []Toast, now time.Time) templ.Component {
	return markup.Func(func(m *markup.Writer) {
		m.Open("div", "id", "toast-stack", "class", "toast-stack", "aria-live", "polite")
		for _, t := range toasts {
			m.Component(toastItem(t, now))
		}
		m.Close("div")
	})
}

func toastItem(t Toast, now time.Time) templ.Component {
	return markup.Func(func(m *markup.Writer) {
		m.Open("div",
			"class", "toast toast-"+string(t.Kind),
			"role", "status",
			"data-toast-id", t.ID.String(),
			"data-dismiss-after", strconv.FormatInt(t.DismissAfter(now), 10),
		)
		m.Elem("span", t.Message, "class", "toast-message")
		m.Raw(`<button type="button" class="toast-close" aria-label="close">&times;</button>`)
		m.Close("div")
	})
}

// ModalAction — кнопка в подвале модального окна.
type ModalAction struct {
	// Label — текст кнопки (уже переведённый).
	Label string
	// Variant — стиль: primary, danger, secondary.
	Variant string
	// Attrs — дополнительные атрибуты (hx-post, hx-include и т.п.), пары name, value.
	Attrs []string
	// Close — кнопка только закрывает окно.
	Close bool
}

// Modal — модальное окно, рендерится в #modal-root.
type Modal struct {
	Title   string
	Body    templ.Component
	Actions []ModalAction
}

// Component рендерит модальное окно.
func (md Modal) Component() templ.Component {
	return markup.Func(func(m *markup.Writer) {
		m.Open("div", "class", "modal-backdrop", "data-modal-close", "")
		m.Raw("</div>")
		m.Open("div", "class", "modal", "role", "dialog", "aria-modal", "true")
		m.Open("div", "class", "modal-header")
		m.Elem("h3", md.Title, "class", "modal-title")
		m.Raw(`<button type="button" class="modal-x" data-modal-close aria-label="close">&times;</button>`)
		m.Close("div")
		m.Open("div", "class", "modal-body").Component(md.Body).Close("div")
		if len(md.Actions) > 0 {
			m.Open("div", "class", "modal-footer")
			for _, a := range md.Actions {
				variant := a.Variant
				if variant == "" {
					variant = "secondary"
				}
				m.Raw(`<button type="button"`).Attr("class", "btn btn-"+variant)
				if a.Close {
					m.Raw(" data-modal-close")
				}
				for i := 0; i+1 < len(a.Attrs); i += 2 {
					m.Attr(a.Attrs[i], a.Attrs[i+1])
				}
				m.Raw(">").Text(a.Label).Close("button")
			}
			m.Close("div")
		}
		m.Close("div")
	})
}

// CloseModal просит клиента закрыть модальное окно после ответа.
func (q *Queue) CloseModal() {
	q.Trigger(ModalCloseEvent)
}
