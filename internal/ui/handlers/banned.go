package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/bigkaa/sharebot-console/internal/botapi"
	"github.com/bigkaa/sharebot-console/internal/service"
	"github.com/bigkaa/sharebot-console/internal/ui/i18n"
	"github.com/bigkaa/sharebot-console/internal/ui/notify"
	"github.com/bigkaa/sharebot-console/internal/ui/pages/partials"
)

// BannedHandler — чёрный список: просмотр, блокировка и разблокировка.
type BannedHandler struct {
	bot    *botapi.Client
	gw     *Gateway
	logger *slog.Logger
}

// NewBannedHandler создаёт новый BannedHandler.
func NewBannedHandler(bot *botapi.Client, gw *Gateway, logger *slog.Logger) *BannedHandler {
	return &BannedHandler{
		bot:    bot,
		gw:     gw,
		logger: logger.With(slog.String("component", "ui.banned")),
	}
}

// HandleBanned — GET /admin/partials/banned.
func (h *BannedHandler) HandleBanned(w http.ResponseWriter, r *http.Request) {
	var list *botapi.BannedList
	if !h.gw.Load(w, r, func(ctx context.Context, token string) (err error) {
		list, err = h.bot.Banned(ctx, token)
		return err
	}) {
		return
	}
	h.gw.Render(w, r, partials.Banned(list))
}

// HandleBanModal — GET /admin/partials/banned/ban-modal?user_id=N.
func (h *BannedHandler) HandleBanModal(w http.ResponseWriter, r *http.Request) {
	prefill := ""
	if id, ok := parseTelegramID(r.URL.Query().Get(partials.FieldUserID)); ok {
		prefill = strconv.FormatInt(id, 10)
	}
	h.gw.Render(w, r, partials.BanModal(prefill))
}

// HandleBan — POST /admin/partials/banned/ban.
// Без корректного ID пользователя бот не вызывается.
func (h *BannedHandler) HandleBan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := parseTelegramID(r.PostFormValue(partials.FieldUserID))
	if !ok {
		h.gw.Reject(w, r, "toast.user_id_required")
		return
	}
	reason := strings.TrimSpace(r.PostFormValue(partials.FieldReason))
	if reason == "" {
		reason = i18n.T(ctx, "banned.default_reason")
	}

	if !h.gw.Call(w, r, func(ctx context.Context, token string) error {
		res, err := h.bot.Ban(ctx, token, botapi.BanRequest{UserID: id, Reason: reason})
		if err != nil {
			return err
		}
		return checkResult("ban", res.Success, res.Error)
	}) {
		return
	}

	target := strconv.FormatInt(id, 10)
	h.gw.Record(r, service.ActionBan, target, map[string]any{"reason": reason})
	q := notify.FromContext(ctx)
	q.CloseModal()
	q.Trigger(partials.BannedChangedEvent)
	q.Success(i18n.Tf(ctx, "toast.banned", target))
	w.WriteHeader(http.StatusNoContent)
}

// HandleUnban — POST /admin/partials/banned/unban.
func (h *BannedHandler) HandleUnban(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := parseTelegramID(r.PostFormValue(partials.FieldUserID))
	if !ok {
		h.gw.Reject(w, r, "toast.user_id_required")
		return
	}

	if !h.gw.Call(w, r, func(ctx context.Context, token string) error {
		res, err := h.bot.Unban(ctx, token, id)
		if err != nil {
			return err
		}
		return checkResult("unban", res.Success, res.Error)
	}) {
		return
	}

	target := strconv.FormatInt(id, 10)
	h.gw.Record(r, service.ActionUnban, target, nil)
	q := notify.FromContext(ctx)
	q.Trigger(partials.BannedChangedEvent)
	q.Success(i18n.Tf(ctx, "toast.unbanned", target))
	w.WriteHeader(http.StatusNoContent)
}

// parseTelegramID разбирает ID пользователя или канала Telegram (ненулевое целое).
func parseTelegramID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}
