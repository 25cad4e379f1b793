package partials

import (
	"github.com/a-h/templ"

	"github.com/bigkaa/sharebot-console/internal/botapi"
	"github.com/bigkaa/sharebot-console/internal/ui/format"
	"github.com/bigkaa/sharebot-console/internal/ui/i18n"
	"github.com/bigkaa/sharebot-console/internal/ui/markup"
	"github.com/bigkaa/sharebot-console/internal/ui/pages"
)

// Dashboard рендерит сводную статистику и обновляет имя бота в боковой панели.
func Dashboard(d *botapi.Dashboard) templ.Component {
	return markup.Func(func(m *markup.Writer) {
		ctx := m.Ctx()

		m.Open("div", "class", "stats-grid")
		statCard(m, "users", "purple", format.Num(d.Users.Total), "dashboard.users_total",
			i18n.Tf(ctx, "dashboard.today_badge", format.Num(d.Users.Today)))
		statCard(m, "share", "blue", format.Num(d.Shares.Total), "dashboard.shares_total",
			i18n.Tf(ctx, "dashboard.accessed_badge", format.Num(d.Shares.ShareAccessed)))
		statCard(m, "file", "green", format.Num(d.Shares.FilesShared), "dashboard.files_shared", "")
		statCard(m, "link", "orange", format.Num(d.Shares.LinksGenerated), "dashboard.links_generated", "")
		m.Close("div")

		m.Open("div", "class", "stats-grid")
		statCard(m, "user-plus", "cyan", format.Num(d.Users.Week), "dashboard.users_week", "")
		statCard(m, "ban", "red", format.Num(d.Users.Banned), "dashboard.users_banned", "")
		statCard(m, "broadcast", "blue", format.Num(d.Activity.Broadcasts), "dashboard.broadcasts", "")
		statCard(m, "clock", "purple", format.Uptime(d.System.Uptime), "dashboard.uptime", "")
		m.Close("div")

		connected := d.System.Database == botapi.DatabaseConnected
		m.Open("div", "class", "card")
		m.Open("div", "class", "card-header")
		m.Open("div", "class", "card-title").T("dashboard.system").Close("div")
		m.Open("span", "class", badgeClass(connected))
		if connected {
			m.T("common.connected")
		} else {
			m.T("common.disconnected")
		}
		m.Close("span")
		m.Close("div")

		botName := "N/A"
		if d.System.BotUsername != "" {
			botName = "@" + d.System.BotUsername
		}
		settingRow(m, "dashboard.bot_username", text(botName))
		settingRow(m, "dashboard.tokens_verified", text(format.Num(d.Activity.TokensVerified)))
		m.Close("div")

		m.Component(pages.BotName(d.System.BotUsername))
	})
}

func badgeClass(ok bool) string {
	if ok {
		return "badge badge-success"
	}
	return "badge badge-danger"
}
