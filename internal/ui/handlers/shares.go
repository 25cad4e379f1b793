package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/sharebot-console/internal/botapi"
	"github.com/bigkaa/sharebot-console/internal/service"
	"github.com/bigkaa/sharebot-console/internal/ui/i18n"
	"github.com/bigkaa/sharebot-console/internal/ui/notify"
	"github.com/bigkaa/sharebot-console/internal/ui/pages/partials"
	"github.com/bigkaa/sharebot-console/internal/ui/selection"
)

// SharesHandler — список раздач и действия над карточками.
type SharesHandler struct {
	bot    *botapi.Client
	prefs  *service.UISettingsService
	gw     *Gateway
	logger *slog.Logger
}

// NewSharesHandler создаёт новый SharesHandler.
func NewSharesHandler(bot *botapi.Client, prefs *service.UISettingsService, gw *Gateway, logger *slog.Logger) *SharesHandler {
	return &SharesHandler{
		bot:    bot,
		prefs:  prefs,
		gw:     gw,
		logger: logger.With(slog.String("component", "ui.shares")),
	}
}

// HandleShares — GET /admin/partials/shares?page=N&search=q.
func (h *SharesHandler) HandleShares(w http.ResponseWriter, r *http.Request) {
	q := botapi.ShareQuery{
		Page:    pageParam(r),
		PerPage: h.prefs.Get(r.Context()).SharesPerPage,
		Search:  strings.TrimSpace(r.URL.Query().Get("search")),
	}

	var p *botapi.SharePage
	if !h.gw.Load(w, r, func(ctx context.Context, token string) (err error) {
		p, err = h.bot.Shares(ctx, token, q)
		return err
	}) {
		return
	}
	h.gw.Render(w, r, partials.Shares(partials.SharesData{
		Page:   p,
		Search: q.Search,
		Board:  selection.NewBoard(),
	}))
}

// HandleSelection — POST /admin/partials/shares/{code}/selection?op=all|item.
// Форма карточки уже содержит новое состояние нажатого чекбокса; сервер
// восстанавливает согласованность и возвращает группу заново.
func (h *SharesHandler) HandleSelection(w http.ResponseWriter, r *http.Request) {
	board, sel := h.boardFromForm(r)
	switch r.URL.Query().Get("op") {
	case "all":
		sel = board.ToggleSelectAll(sel.Code(), sel.Total())
	default:
		sel = board.OnItemToggled(sel.Code(), sel.Total())
	}
	h.gw.Render(w, r, partials.SelectionGroup(sel))
}

// HandleForward — POST /admin/partials/shares/{code}/forward.
func (h *SharesHandler) HandleForward(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	board, _ := h.boardFromForm(r)
	fs, _ := board.GetSelection(code)
	if !fs.ForwardAll && len(fs.ForwardIndices) == 0 {
		h.gw.Reject(w, r, "toast.select_files")
		return
	}
	fr := botapi.ForwardRequest{
		Keywords:       botapi.ParseKeywords(r.PostFormValue(partials.FieldKeywords)),
		GroupText:      r.PostFormValue(partials.FieldGroupText),
		ForwardAll:     fs.ForwardAll,
		ForwardIndices: fs.ForwardIndices,
	}

	var res *botapi.ForwardResult
	if !h.gw.Call(w, r, func(ctx context.Context, token string) (err error) {
		res, err = h.bot.ForwardShare(ctx, token, code, fr)
		if err != nil {
			return err
		}
		return checkResult("share_forward", res.Success, res.Error)
	}) {
		return
	}

	h.gw.Record(r, service.ActionShareForward, code, map[string]any{
		"forward_all": fs.ForwardAll,
		"indices":     fs.ForwardIndices,
		"successful":  res.Successful,
		"failed":      res.Failed,
	})
	ctx := r.Context()
	notify.FromContext(ctx).Success(i18n.Tf(ctx, "toast.forwarded", res.Successful))
	w.WriteHeader(http.StatusNoContent)
}

// HandleSave — POST /admin/partials/shares/{code}/save: ключевые слова и текст группы.
func (h *SharesHandler) HandleSave(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	keywords := botapi.ParseKeywords(r.PostFormValue(partials.FieldKeywords))
	groupText := r.PostFormValue(partials.FieldGroupText)

	if !h.gw.Call(w, r, func(ctx context.Context, token string) error {
		res, err := h.bot.UpdateShare(ctx, token, code, botapi.ShareUpdate{
			Keywords:  &keywords,
			GroupText: &groupText,
		})
		if err != nil {
			return err
		}
		return checkResult("share_update", res.Success, res.Error)
	}) {
		return
	}

	h.gw.Record(r, service.ActionShareUpdate, code, map[string]any{"keywords": keywords})
	ctx := r.Context()
	notify.FromContext(ctx).Success(i18n.T(ctx, "toast.share_saved"))
	w.WriteHeader(http.StatusNoContent)
}

// HandleProtect — POST /admin/partials/shares/{code}/protect.
// Возвращает переключатель в новом состоянии.
func (h *SharesHandler) HandleProtect(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	protect, err := strconv.ParseBool(r.PostFormValue(partials.FieldProtect))
	if err != nil {
		h.gw.Reject(w, r, "toast.request_failed")
		return
	}

	if !h.gw.Call(w, r, func(ctx context.Context, token string) error {
		res, err := h.bot.UpdateShare(ctx, token, code, botapi.ShareUpdate{ProtectContent: &protect})
		if err != nil {
			return err
		}
		return checkResult("share_update", res.Success, res.Error)
	}) {
		return
	}

	h.gw.Record(r, service.ActionShareUpdate, code, map[string]any{"protect_content": protect})
	ctx := r.Context()
	key := "toast.protect_off"
	if protect {
		key = "toast.protect_on"
	}
	notify.FromContext(ctx).Success(i18n.T(ctx, key))
	h.gw.Render(w, r, partials.ProtectButton(code, protect))
}

// HandleDetails — GET /admin/partials/shares/{code}/details: модальное окно.
func (h *SharesHandler) HandleDetails(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	var sh *botapi.Share
	if !h.gw.Call(w, r, func(ctx context.Context, token string) (err error) {
		sh, err = h.bot.Share(ctx, token, code)
		return err
	}) {
		return
	}
	h.gw.Render(w, r, partials.ShareDetails(sh))
}

// HandleDeleteConfirm — GET /admin/partials/shares/{code}/delete: подтверждение.
func (h *SharesHandler) HandleDeleteConfirm(w http.ResponseWriter, r *http.Request) {
	h.gw.Render(w, r, partials.ShareDeleteConfirm(chi.URLParam(r, "code")))
}

// HandleDelete — DELETE /admin/partials/shares/{code}.
// Модальное окно закрывается в любом случае; список перечитывается
// по событию только после успешного удаления.
func (h *SharesHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	q := notify.FromContext(r.Context())
	q.CloseModal()

	if !h.gw.Call(w, r, func(ctx context.Context, token string) error {
		res, err := h.bot.DeleteShare(ctx, token, code)
		if err != nil {
			return err
		}
		return checkResult("share_delete", res.Success, res.Error)
	}) {
		return
	}

	h.gw.Record(r, service.ActionShareDelete, code, nil)
	q.Trigger(partials.SharesChangedEvent)
	q.Success(i18n.Tf(r.Context(), "toast.share_deleted", code))
	w.WriteHeader(http.StatusNoContent)
}

// boardFromForm восстанавливает выбор файлов из формы карточки
// и регистрирует его в Board запроса.
func (h *SharesHandler) boardFromForm(r *http.Request) (*selection.Board, *selection.Selection) {
	_ = r.ParseForm()
	total, _ := strconv.Atoi(r.PostFormValue(partials.FieldTotal))
	sel := selection.FromForm(
		chi.URLParam(r, "code"),
		total,
		r.PostForm[partials.FieldItem],
		r.PostFormValue(partials.FieldSelectAll) != "",
	)
	board := selection.NewBoard()
	board.Put(sel)
	return board, sel
}
