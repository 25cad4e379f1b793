package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/bigkaa/sharebot-console/internal/botapi"
	"github.com/bigkaa/sharebot-console/internal/service"
	"github.com/bigkaa/sharebot-console/internal/ui/pages/partials"
)

// UsersHandler — загрузчик страницы пользователей.
type UsersHandler struct {
	bot    *botapi.Client
	prefs  *service.UISettingsService
	gw     *Gateway
	logger *slog.Logger
}

// NewUsersHandler создаёт новый UsersHandler.
func NewUsersHandler(bot *botapi.Client, prefs *service.UISettingsService, gw *Gateway, logger *slog.Logger) *UsersHandler {
	return &UsersHandler{
		bot:    bot,
		prefs:  prefs,
		gw:     gw,
		logger: logger.With(slog.String("component", "ui.users")),
	}
}

// HandleUsers — GET /admin/partials/users?page=N.
func (h *UsersHandler) HandleUsers(w http.ResponseWriter, r *http.Request) {
	page := pageParam(r)
	perPage := h.prefs.Get(r.Context()).UsersPerPage

	var p *botapi.UserPage
	if !h.gw.Load(w, r, func(ctx context.Context, token string) (err error) {
		p, err = h.bot.Users(ctx, token, page, perPage)
		return err
	}) {
		return
	}
	h.gw.Render(w, r, partials.Users(p, perPage))
}

// pageParam возвращает номер страницы из ?page (по умолчанию 1).
func pageParam(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || n < 1 {
		return 1
	}
	return n
}
