package partials

import (
	"slices"
	"strconv"

	"github.com/a-h/templ"

	"github.com/bigkaa/sharebot-console/internal/botapi"
	"github.com/bigkaa/sharebot-console/internal/ui/i18n"
	"github.com/bigkaa/sharebot-console/internal/ui/markup"
)

// Адреса страницы настроек.
const (
	SettingsURL         = "/admin/partials/settings"
	SettingsSaveURL     = SettingsURL + "/save"
	SettingsResetURL    = SettingsURL + "/reset"
	PreferencesURL      = SettingsURL + "/preferences"
	PreferencesResetURL = PreferencesURL + "/reset"
)

// Поля форм настроек.
const (
	FieldKey       = "key"
	FieldChannelID = "channel_id"
)

// ChannelURL возвращает адрес операции над списком каналов (add, remove).
func ChannelURL(key, op string) string {
	return SettingsURL + "/channels/" + key + "/" + op
}

// SaveStatus — отметка поля после сохранения.
type SaveStatus int

const (
	// StatusNone — поле не отправлялось.
	StatusNone SaveStatus = iota
	// StatusSaved — бот подтвердил сохранение ключа.
	StatusSaved
	// StatusNotSaved — ключ отправлен, но не вошёл в ответ updated.
	StatusNotSaved
)

// PreferenceField — поле настроек консоли.
type PreferenceField struct {
	Key      string
	LabelKey string
	Value    string
	// Type — тип input (number, text).
	Type string
}

// PreferencesView — карточка настроек консоли.
type PreferencesView struct {
	// Enabled — настройки можно сохранять (PostgreSQL подключён).
	Enabled bool
	Fields  []PreferenceField
}

// SettingsData — данные страницы настроек.
type SettingsData struct {
	Settings *botapi.Settings
	// Status — отметки полей после последнего сохранения.
	Status map[string]SaveStatus
	Prefs  PreferencesView
}

// settingsGroup — карточка формы с набором ключей.
type settingsGroup struct {
	titleKey string
	icon     string
	keys     []string
}

var settingsGroups = []settingsGroup{
	{titleKey: "settings.group.security", icon: "shield", keys: []string{"is_verify", "verify_expire", "protect_content"}},
	{titleKey: "settings.group.features", icon: "sliders", keys: []string{"auto_delete_time", "share_code_length", "show_promo", "disable_channel_button"}},
	{titleKey: "settings.group.rate_limit", icon: "gauge", keys: []string{"rate_limit_max", "rate_limit_window"}},
}

// Многострочные шаблоны; остальные текстовые ключи — однострочные поля.
var textareaRows = map[string]int{
	"start_message":     3,
	"force_sub_message": 3,
	"user_reply_text":   2,
	"promo_text":        2,
	"about_text":        3,
	"help_text":         4,
	"admin_help_text":   6,
}

// Settings рендерит страницу настроек бота и консоли.
func Settings(d SettingsData) templ.Component {
	return markup.Func(func(m *markup.Writer) {
		ctx := m.Ctx()
		s := d.Settings

		m.Open("form",
			"id", "settings-form",
			"hx-post", SettingsSaveURL,
			"hx-target", contentTarget,
			"hx-sync", contentTarget+":replace",
			"hx-disabled-elt", "find button[type=submit]",
		)
		m.Open("div", "class", "settings-grid")
		for _, g := range settingsGroups {
			cardHeader(m, g.icon, i18n.T(ctx, g.titleKey))
			for _, key := range g.keys {
				st := d.Status[key]
				if isBoolKey(key) {
					settingField(m, key, st, markup.Func(func(m *markup.Writer) {
						m.Open("label", "class", "toggle")
						m.Raw(`<input type="checkbox" value="true"`).
							Attr("name", key).
							Flag("checked", s.Bool(key)).
							Raw(`><span class="toggle-slider"></span>`)
						m.Close("label")
					}))
					continue
				}
				settingField(m, key, st, markup.Func(func(m *markup.Writer) {
					m.Raw(`<input type="number" class="form-input"`).
						Attr("name", key).
						Attr("value", strconv.FormatInt(s.Int(key), 10)).
						Raw(">")
				}))
			}
			m.Close("div")
		}
		m.Close("div")

		cardHeader(m, "message", i18n.T(ctx, "settings.group.templates"))
		m.Open("div", "class", "card-body")
		for _, key := range botapi.TextSettingKeys {
			m.Open("div", "class", "form-group")
			m.Open("div", "class", "form-label-row")
			m.Open("label", "class", "form-label", "for", "s-"+key).T("setting." + key + ".name").Close("label")
			statusBadge(m, d.Status[key])
			resetButton(m, key)
			m.Close("div")
			if rows, ok := textareaRows[key]; ok {
				m.Raw(`<textarea class="form-textarea" data-autogrow`).
					Attr("id", "s-"+key).
					Attr("name", key).
					Attr("rows", strconv.Itoa(rows)).
					Raw(">").Text(s.Text(key)).Close("textarea")
			} else {
				m.Raw(`<input type="text" class="form-input"`).
					Attr("id", "s-"+key).
					Attr("name", key).
					Attr("value", s.Text(key)).
					Attr("placeholder", i18n.T(ctx, "setting."+key+".desc")).
					Raw(">")
			}
			m.Close("div")
		}
		m.Close("div")
		m.Close("div")

		m.Open("div", "class", "form-actions")
		m.Open("button", "type", "submit", "class", "btn btn-accent").T("settings.save_all").Close("button")
		m.Open("button",
			"type", "button",
			"class", "btn btn-ghost",
			"hx-get", SettingsURL,
			"hx-target", contentTarget,
			"hx-sync", contentTarget+":replace",
		).T("settings.reload").Close("button")
		m.Close("div")
		m.Close("form")

		m.Open("div", "class", "settings-grid")
		for _, key := range botapi.ChannelSettingKeys {
			m.Component(channelCard(key, s.Channels(key)))
		}
		m.Close("div")

		m.Component(preferencesCard(d.Prefs))
	})
}

func channelCard(key string, ids []int64) templ.Component {
	return markup.Func(func(m *markup.Writer) {
		ctx := m.Ctx()
		cardHeader(m, "list", i18n.T(ctx, "setting."+key+".name"))
		if len(ids) == 0 {
			m.Open("div", "class", "setting-item")
			m.Open("div", "class", "setting-info")
			m.Open("div", "class", "setting-name").T("settings.no_channels").Close("div")
			m.Open("div", "class", "setting-desc").T("setting." + key + ".desc").Close("div")
			m.Close("div")
			m.Close("div")
		}
		for _, id := range ids {
			sid := strconv.FormatInt(id, 10)
			m.Open("div", "class", "setting-item")
			m.Open("div", "class", "setting-info")
			m.Open("div", "class", "setting-name").T("settings.channel_id").Close("div")
			m.Close("div")
			m.Elem("div", sid, "class", "setting-value code-text")
			m.Open("button",
				"type", "button",
				"class", "btn btn-danger btn-sm",
				"hx-post", ChannelURL(key, "remove"),
				"hx-vals", `{"`+FieldChannelID+`":"`+sid+`"}`,
				"hx-target", contentTarget,
				"hx-sync", contentTarget+":replace",
			).T("action.remove").Close("button")
			m.Close("div")
		}
		m.Open("form",
			"class", "setting-item channel-form",
			"hx-post", ChannelURL(key, "add"),
			"hx-target", contentTarget,
			"hx-sync", contentTarget+":replace",
		)
		m.Open("div", "class", "setting-info")
		m.Open("div", "class", "setting-name").T("settings.add_channel").Close("div")
		m.Open("div", "class", "setting-desc").T("settings.channel_hint").Close("div")
		m.Close("div")
		m.Raw(`<input type="number" class="form-input" placeholder="-1001234567890"`).
			Attr("name", FieldChannelID).
			Raw(">")
		m.Open("button", "type", "submit", "class", "btn btn-accent btn-sm").T("action.add").Close("button")
		m.Close("form")
		m.Close("div")
	})
}

func preferencesCard(p PreferencesView) templ.Component {
	return markup.Func(func(m *markup.Writer) {
		ctx := m.Ctx()
		cardHeader(m, "sliders", i18n.T(ctx, "prefs.title"))
		if !p.Enabled {
			m.Elem("p", i18n.T(ctx, "prefs.disabled"), "class", "card-note")
		}
		m.Open("form",
			"class", "card-body",
			"hx-post", PreferencesURL,
			"hx-target", contentTarget,
			"hx-sync", contentTarget+":replace",
		)
		for _, f := range p.Fields {
			m.Open("div", "class", "setting-item")
			m.Open("div", "class", "setting-info")
			m.Open("div", "class", "setting-name").T(f.LabelKey).Close("div")
			m.Close("div")
			m.Raw(`<input class="form-input"`).
				Attr("type", f.Type).
				Attr("name", f.Key).
				Attr("value", f.Value).
				Flag("disabled", !p.Enabled).
				Raw(">")
			if p.Enabled {
				m.Open("button",
					"type", "button",
					"class", "btn btn-ghost btn-sm",
					"title", i18n.T(ctx, "action.reset"),
					"hx-post", PreferencesResetURL,
					"hx-vals", `{"`+FieldKey+`":"`+f.Key+`"}`,
					"hx-target", contentTarget,
					"hx-sync", contentTarget+":replace",
				).Raw(`<i class="icon icon-undo" aria-hidden="true"></i>`).Close("button")
			}
			m.Close("div")
		}
		if p.Enabled {
			m.Open("div", "class", "form-actions")
			m.Open("button", "type", "submit", "class", "btn btn-accent").T("action.save").Close("button")
			m.Close("div")
		}
		m.Close("form")
		m.Close("div")
	})
}

// settingField рендерит строку настройки с отметкой сохранения и сбросом.
func settingField(m *markup.Writer, key string, st SaveStatus, control templ.Component) {
	m.Open("div", "class", "setting-item")
	m.Open("div", "class", "setting-info")
	m.Open("div", "class", "setting-name").T("setting." + key + ".name")
	statusBadge(m, st)
	m.Close("div")
	m.Open("div", "class", "setting-desc").T("setting." + key + ".desc").Close("div")
	m.Close("div")
	m.Component(control)
	resetButton(m, key)
	m.Close("div")
}

func statusBadge(m *markup.Writer, st SaveStatus) {
	switch st {
	case StatusSaved:
		m.Open("span", "class", "badge badge-success").T("settings.saved").Close("span")
	case StatusNotSaved:
		m.Open("span", "class", "badge badge-warning").T("settings.not_saved").Close("span")
	}
}

func resetButton(m *markup.Writer, key string) {
	ctx := m.Ctx()
	m.Open("button",
		"type", "button",
		"class", "btn btn-ghost btn-sm reset-btn",
		"title", i18n.T(ctx, "action.reset"),
		"hx-post", SettingsResetURL,
		"hx-vals", `{"`+FieldKey+`":"`+key+`"}`,
		"hx-confirm", i18n.T(ctx, "settings.reset_confirm"),
		"hx-target", contentTarget,
		"hx-sync", contentTarget+":replace",
	).Raw(`<i class="icon icon-undo" aria-hidden="true"></i>`).Close("button")
}

func isBoolKey(key string) bool {
	return slices.Contains(botapi.BoolSettingKeys, key)
}
