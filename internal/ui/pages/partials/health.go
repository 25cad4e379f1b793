package partials

import (
	"strconv"
	"time"

	"github.com/a-h/templ"

	"github.com/bigkaa/sharebot-console/internal/botapi"
	"github.com/bigkaa/sharebot-console/internal/ui/format"
	"github.com/bigkaa/sharebot-console/internal/ui/i18n"
	"github.com/bigkaa/sharebot-console/internal/ui/markup"
)

// HealthURL — адрес фрагмента страницы состояния.
const HealthURL = "/admin/partials/health"

// HealthEventsURL — SSE-поток состояния бота.
const HealthEventsURL = "/admin/events/health"

// HealthStatsID — id блока показателей, обновляемого SSE.
const HealthStatsID = "health-stats"

// DependencyView — состояние зависимости консоли.
type DependencyView struct {
	Name    string
	Healthy bool
}

// JournalEntry — строка журнала действий.
type JournalEntry struct {
	At     time.Time
	Action string
	Target string
	Actor  string
}

// HealthData — данные страницы состояния.
type HealthData struct {
	Bot  *botapi.Health
	Deps []DependencyView
	// JournalEnabled — журнал ведётся (PostgreSQL подключён).
	JournalEnabled bool
	Journal        []JournalEntry
}

// Health рендерит состояние бота, зависимостей консоли и журнал действий.
func Health(d HealthData) templ.Component {
	return markup.Func(func(m *markup.Writer) {
		ctx := m.Ctx()

		m.Open("div", "id", HealthStatsID, "data-sse-url", HealthEventsURL)
		m.Component(HealthStats(d.Bot))
		m.Close("div")

		cardHeader(m, "terminal", i18n.T(ctx, "health.actions"))
		m.Open("div", "class", "card-body")
		m.Open("button",
			"type", "button",
			"class", "btn btn-accent",
			"hx-get", HealthURL,
			"hx-target", contentTarget,
			"hx-sync", contentTarget+":replace",
		).T("action.refresh").Close("button")
		m.Close("div")
		m.Close("div")

		cardHeader(m, "plug", i18n.T(ctx, "health.dependencies"))
		if len(d.Deps) == 0 {
			emptyState(m, "plug", "health.no_dependencies")
		}
		for _, dep := range d.Deps {
			settingRow(m, "health.dep."+dep.Name, markup.Func(func(m *markup.Writer) {
				m.Open("span", "class", badgeClass(dep.Healthy))
				if dep.Healthy {
					m.T("health.dep_ok")
				} else {
					m.T("health.dep_down")
				}
				m.Close("span")
			}))
		}
		m.Close("div")

		cardHeader(m, "list", i18n.T(ctx, "health.journal"))
		switch {
		case !d.JournalEnabled:
			m.Elem("p", i18n.T(ctx, "health.journal_disabled"), "class", "card-note")
		case len(d.Journal) == 0:
			emptyState(m, "list", "health.journal_empty")
		default:
			m.Open("table", "class", "data-table")
			m.Raw("<thead><tr>")
			m.Open("th").T("health.journal_time").Close("th")
			m.Open("th").T("health.journal_action").Close("th")
			m.Open("th").T("health.journal_target").Close("th")
			m.Open("th").T("health.journal_actor").Close("th")
			m.Raw("</tr></thead><tbody>")
			for _, e := range d.Journal {
				m.Raw("<tr><td>").Text(e.At.Local().Format("2006-01-02 15:04:05")).Raw("</td>")
				m.Raw("<td>").T("audit." + e.Action).Raw("</td>")
				m.Raw("<td>").Elem("span", e.Target, "class", "code-text").Raw("</td>")
				m.Raw("<td>").Text(e.Actor).Raw("</td></tr>")
			}
			m.Raw("</tbody></table>")
		}
		m.Close("div")
	})
}

// HealthStats рендерит показатели бота. Отдаётся и страницей, и SSE-потоком.
func HealthStats(h *botapi.Health) templ.Component {
	return markup.Func(func(m *markup.Writer) {
		connected := h.Database == botapi.DatabaseConnected
		dbColor := "red"
		if connected {
			dbColor = "green"
		}
		m.Open("div", "class", "health-grid")
		healthItem(m, "database", dbColor, "health.database", markup.Func(func(m *markup.Writer) {
			if connected {
				m.T("common.connected")
			} else {
				m.T("common.disconnected")
			}
		}))
		healthItem(m, "memory", "blue", "health.memory", text(format.Megabytes(h.MemoryMB)))
		healthItem(m, "cpu", "orange", "health.cpu", text(format.Percent(h.CPUPercent)))
		healthItem(m, "layers", "purple", "health.threads", text(strconv.Itoa(h.Threads)))
		m.Close("div")
		if h.Timestamp > 0 {
			m.Elem("p",
				i18n.Tf(m.Ctx(), "health.updated_at", format.UnixTime(h.Timestamp, time.Local)),
				"class", "health-updated",
			)
		}
	})
}

func healthItem(m *markup.Writer, icon, color, labelKey string, value templ.Component) {
	m.Open("div", "class", "health-item")
	m.Open("div", "class", "health-icon "+color)
	m.Raw(`<i`).Attr("class", "icon icon-"+icon).Raw(` aria-hidden="true"></i>`)
	m.Close("div")
	m.Open("div", "class", "health-label").T(labelKey).Close("div")
	m.Open("div", "class", "health-value "+color).Component(value).Close("div")
	m.Close("div")
}
