package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/bigkaa/sharebot-console/internal/botapi"
	"github.com/bigkaa/sharebot-console/internal/service"
	"github.com/bigkaa/sharebot-console/internal/ui/i18n"
	"github.com/bigkaa/sharebot-console/internal/ui/notify"
	"github.com/bigkaa/sharebot-console/internal/ui/pages/partials"
)

// BroadcastHandler — рассылка сообщения всем пользователям бота.
type BroadcastHandler struct {
	bot    *botapi.Client
	gw     *Gateway
	logger *slog.Logger
}

// NewBroadcastHandler создаёт новый BroadcastHandler.
func NewBroadcastHandler(bot *botapi.Client, gw *Gateway, logger *slog.Logger) *BroadcastHandler {
	return &BroadcastHandler{
		bot:    bot,
		gw:     gw,
		logger: logger.With(slog.String("component", "ui.broadcast")),
	}
}

// HandleBroadcast — GET /admin/partials/broadcast. Данных бота не требует.
func (h *BroadcastHandler) HandleBroadcast(w http.ResponseWriter, r *http.Request) {
	h.gw.Render(w, r, partials.Broadcast())
}

// HandleSend — POST /admin/partials/broadcast/send.
// Пустое сообщение отклоняется без обращения к боту.
func (h *BroadcastHandler) HandleSend(w http.ResponseWriter, r *http.Request) {
	msg := strings.TrimSpace(r.PostFormValue(partials.FieldMessage))
	if msg == "" {
		h.gw.Reject(w, r, "toast.message_required")
		return
	}

	var res *botapi.BroadcastResult
	if !h.gw.Call(w, r, func(ctx context.Context, token string) (err error) {
		res, err = h.bot.Broadcast(ctx, token, msg)
		if err != nil {
			return err
		}
		return checkResult("broadcast", res.Success, res.Error)
	}) {
		return
	}

	h.gw.Record(r, service.ActionBroadcast, "", map[string]any{
		"length":     utf8.RuneCountInString(msg),
		"total":      res.Total,
		"successful": res.Successful,
		"failed":     res.Failed,
	})
	ctx := r.Context()
	notify.FromContext(ctx).Success(i18n.Tf(ctx, "toast.broadcast_done", res.Successful, res.Total))
	h.gw.Render(w, r, partials.BroadcastResult(res))
}
