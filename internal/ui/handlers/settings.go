package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/sharebot-console/internal/botapi"
	"github.com/bigkaa/sharebot-console/internal/service"
	"github.com/bigkaa/sharebot-console/internal/ui/i18n"
	uimiddleware "github.com/bigkaa/sharebot-console/internal/ui/middleware"
	"github.com/bigkaa/sharebot-console/internal/ui/notify"
	"github.com/bigkaa/sharebot-console/internal/ui/pages/partials"
)

// SettingsHandler — настройки бота и настройки консоли.
type SettingsHandler struct {
	bot    *botapi.Client
	prefs  *service.UISettingsService
	gw     *Gateway
	logger *slog.Logger
}

// NewSettingsHandler создаёт новый SettingsHandler.
func NewSettingsHandler(bot *botapi.Client, prefs *service.UISettingsService, gw *Gateway, logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{
		bot:    bot,
		prefs:  prefs,
		gw:     gw,
		logger: logger.With(slog.String("component", "ui.settings")),
	}
}

// HandleSettings — GET /admin/partials/settings.
func (h *SettingsHandler) HandleSettings(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, nil)
}

// HandleSave — POST /admin/partials/settings/save.
// Отправляются все булевы, целочисленные и текстовые ключи. Сохранёнными
// отмечаются только ключи из ответа updated, остальные — "не сохранено".
func (h *SettingsHandler) HandleSave(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseForm(); err != nil {
		h.gw.Reject(w, r, "toast.request_failed")
		return
	}

	var patch botapi.SettingsPatch
	for _, key := range botapi.BoolSettingKeys {
		_ = patch.SetBool(key, r.PostFormValue(key) == "true")
	}
	for _, key := range botapi.IntSettingKeys {
		raw := strings.TrimSpace(r.PostFormValue(key))
		var v int64
		if raw != "" {
			n, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || n < 0 {
				notify.FromContext(ctx).Error(i18n.Tf(ctx, "toast.invalid_number", i18n.T(ctx, "setting."+key+".name")))
				w.Header().Set("HX-Reswap", "none")
				return
			}
			v = n
		}
		_ = patch.SetInt(key, v)
	}
	for _, key := range botapi.TextSettingKeys {
		_ = patch.SetText(key, r.PostFormValue(key))
	}

	var res *botapi.SettingsUpdateResult
	if !h.gw.Call(w, r, func(ctx context.Context, token string) (err error) {
		res, err = h.bot.UpdateSettings(ctx, token, patch)
		if err != nil {
			return err
		}
		return checkResult("settings_update", res.Success, res.Error)
	}) {
		return
	}

	sent := patch.Keys()
	status := saveStatus(sent, res.Updated)
	h.gw.Record(r, service.ActionSettingsUpdate, "", map[string]any{
		"sent":    len(sent),
		"updated": res.Updated,
	})

	q := notify.FromContext(ctx)
	q.Success(i18n.Tf(ctx, "toast.settings_saved", len(res.Updated)))
	if missed := len(sent) - countSaved(status); missed > 0 {
		q.Warning(i18n.Tf(ctx, "toast.settings_not_saved", missed))
	}
	h.render(w, r, status)
}

// HandleReset — POST /admin/partials/settings/reset: ключ к значению по умолчанию.
func (h *SettingsHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key := r.PostFormValue(partials.FieldKey)
	if !botapi.IsSettingKey(key) {
		h.gw.Reject(w, r, "toast.unknown_setting")
		return
	}

	if !h.gw.Call(w, r, func(ctx context.Context, token string) error {
		res, err := h.bot.ResetSetting(ctx, token, key)
		if err != nil {
			return err
		}
		return checkResult("settings_reset", res.Success, res.Error)
	}) {
		return
	}

	h.gw.Record(r, service.ActionSettingsReset, key, nil)
	notify.FromContext(ctx).Success(i18n.Tf(ctx, "toast.setting_reset", i18n.T(ctx, "setting."+key+".name")))
	h.render(w, r, nil)
}

// HandleChannel — POST /admin/partials/settings/channels/{key}/{op}.
// Добавление или удаление одного канала; отправляется только этот список.
func (h *SettingsHandler) HandleChannel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key, op := chi.URLParam(r, "key"), chi.URLParam(r, "op")
	if !slices.Contains(botapi.ChannelSettingKeys, key) || (op != "add" && op != "remove") {
		h.gw.Reject(w, r, "toast.unknown_setting")
		return
	}
	id, ok := parseTelegramID(r.PostFormValue(partials.FieldChannelID))
	if !ok {
		h.gw.Reject(w, r, "toast.channel_id_invalid")
		return
	}

	var (
		unchanged bool
		res       *botapi.SettingsUpdateResult
	)
	if !h.gw.Call(w, r, func(ctx context.Context, token string) error {
		current, err := h.bot.Settings(ctx, token)
		if err != nil {
			return err
		}
		ids := current.Channels(key)
		switch op {
		case "add":
			if slices.Contains(ids, id) {
				unchanged = true
				return nil
			}
			ids = append(slices.Clone(ids), id)
		case "remove":
			if !slices.Contains(ids, id) {
				unchanged = true
				return nil
			}
			ids = slices.DeleteFunc(slices.Clone(ids), func(v int64) bool { return v == id })
		}
		var patch botapi.SettingsPatch
		if err := patch.SetChannels(key, ids); err != nil {
			return err
		}
		res, err = h.bot.UpdateSettings(ctx, token, patch)
		if err != nil {
			return err
		}
		return checkResult("settings_update", res.Success, res.Error)
	}) {
		return
	}

	q := notify.FromContext(ctx)
	sid := strconv.FormatInt(id, 10)
	switch {
	case unchanged:
		q.Info(i18n.Tf(ctx, "toast.channel_unchanged", sid))
	case !slices.Contains(res.Updated, key):
		q.Warning(i18n.Tf(ctx, "toast.settings_not_saved", 1))
	default:
		h.gw.Record(r, service.ActionSettingsUpdate, key, map[string]any{"op": op, "channel_id": id})
		q.Success(i18n.Tf(ctx, "toast.channel_"+op, sid))
	}
	h.render(w, r, nil)
}

// HandlePreferences — POST /admin/partials/settings/preferences.
func (h *SettingsHandler) HandlePreferences(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseForm(); err != nil {
		h.gw.Reject(w, r, "toast.request_failed")
		return
	}
	values := make(map[string]string, len(preferenceFields))
	for _, f := range preferenceFields {
		if v := strings.TrimSpace(r.PostFormValue(f.key)); v != "" {
			values[f.key] = v
		}
	}

	s := uimiddleware.SessionFromContext(ctx)
	if _, err := h.prefs.Save(ctx, values, actor(s)); err != nil {
		h.prefsFailed(w, r, err)
		return
	}

	h.gw.Record(r, service.ActionPrefsUpdate, "", map[string]any{"values": values})
	notify.FromContext(ctx).Success(i18n.T(ctx, "toast.prefs_saved"))
	h.render(w, r, nil)
}

// HandlePreferencesReset — POST /admin/partials/settings/preferences/reset.
func (h *SettingsHandler) HandlePreferencesReset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key := r.PostFormValue(partials.FieldKey)
	if err := h.prefs.Reset(ctx, key); err != nil {
		h.prefsFailed(w, r, err)
		return
	}
	h.gw.Record(r, service.ActionPrefsUpdate, key, map[string]any{"reset": true})
	notify.FromContext(ctx).Success(i18n.T(ctx, "toast.prefs_saved"))
	h.render(w, r, nil)
}

func (h *SettingsHandler) prefsFailed(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrStorageDisabled):
		h.gw.Reject(w, r, "prefs.disabled")
	case errors.Is(err, service.ErrValidation):
		h.logger.Debug("Некорректные настройки консоли", slog.String("error", err.Error()))
		h.gw.Reject(w, r, "toast.prefs_invalid")
	default:
		h.logger.Error("Ошибка сохранения настроек консоли", slog.String("error", err.Error()))
		h.gw.Reject(w, r, "toast.request_failed")
	}
}

// render перечитывает настройки бота и рендерит страницу.
func (h *SettingsHandler) render(w http.ResponseWriter, r *http.Request, status map[string]partials.SaveStatus) {
	var s *botapi.Settings
	if !h.gw.Load(w, r, func(ctx context.Context, token string) (err error) {
		s, err = h.bot.Settings(ctx, token)
		return err
	}) {
		return
	}
	h.gw.Render(w, r, partials.Settings(partials.SettingsData{
		Settings: s,
		Status:   status,
		Prefs:    h.preferencesView(r.Context()),
	}))
}

// preferenceField — поле карточки настроек консоли.
type preferenceField struct {
	key      string
	labelKey string
	typ      string
	value    func(p service.Preferences) string
}

var preferenceFields = []preferenceField{
	{
		key: service.PrefUsersPerPage, labelKey: "prefs.users_per_page", typ: "number",
		value: func(p service.Preferences) string { return strconv.Itoa(p.UsersPerPage) },
	},
	{
		key: service.PrefSharesPerPage, labelKey: "prefs.shares_per_page", typ: "number",
		value: func(p service.Preferences) string { return strconv.Itoa(p.SharesPerPage) },
	},
	{
		key: service.PrefToastDuration, labelKey: "prefs.toast_duration", typ: "text",
		value: func(p service.Preferences) string { return p.ToastDuration.String() },
	},
}

func (h *SettingsHandler) preferencesView(ctx context.Context) partials.PreferencesView {
	p := h.prefs.Get(ctx)
	view := partials.PreferencesView{
		Enabled: h.prefs.Enabled(),
		Fields:  make([]partials.PreferenceField, 0, len(preferenceFields)),
	}
	for _, f := range preferenceFields {
		view.Fields = append(view.Fields, partials.PreferenceField{
			Key:      f.key,
			LabelKey: f.labelKey,
			Value:    f.value(p),
			Type:     f.typ,
		})
	}
	return view
}

// saveStatus отмечает отправленные ключи: из updated — сохранено, прочие — нет.
func saveStatus(sent, updated []string) map[string]partials.SaveStatus {
	status := make(map[string]partials.SaveStatus, len(sent))
	for _, key := range sent {
		status[key] = partials.StatusNotSaved
	}
	for _, key := range updated {
		if _, ok := status[key]; ok {
			status[key] = partials.StatusSaved
		}
	}
	return status
}

func countSaved(status map[string]partials.SaveStatus) int {
	n := 0
	for _, st := range status {
		if st == partials.StatusSaved {
			n++
		}
	}
	return n
}
