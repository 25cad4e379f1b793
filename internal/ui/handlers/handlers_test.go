package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/sharebot-console/internal/botapi/botapitest"
	"github.com/bigkaa/sharebot-console/internal/service"
	"github.com/bigkaa/sharebot-console/internal/ui/auth"
	uimiddleware "github.com/bigkaa/sharebot-console/internal/ui/middleware"
	"github.com/bigkaa/sharebot-console/internal/ui/notify"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// harness — обработчики консоли поверх имитации бота с активной сессией.
type harness struct {
	bot     *botapitest.Server
	manager *auth.Manager
	handler http.Handler
	cookies []*http.Cookie
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := testLogger()
	bot := botapitest.New(t)
	api := bot.API(t)

	codec, err := auth.NewCodec("secret", time.Hour, false)
	if err != nil {
		t.Fatal(err)
	}
	mgr := auth.NewManager(codec, api, auth.NewMemoryRevocations(100, time.Hour), logger)
	gw := NewGateway(mgr, nil, logger)
	prefs := service.NewUISettingsService(nil, service.Preferences{
		UsersPerPage:  20,
		SharesPerPage: 15,
		ToastDuration: 4 * time.Second,
	}, logger)

	authH := NewAuthHandler(mgr, gw, logger)
	dashboardH := NewDashboardHandler(api, gw, logger)
	usersH := NewUsersHandler(api, prefs, gw, logger)
	sharesH := NewSharesHandler(api, prefs, gw, logger)
	broadcastH := NewBroadcastHandler(api, gw, logger)
	bannedH := NewBannedHandler(api, gw, logger)
	settingsH := NewSettingsHandler(api, prefs, gw, logger)
	healthH := NewHealthHandler(api, nil, nil, gw, logger)
	eventsH := NewEventsHandler(api, mgr, gw, 10*time.Millisecond, logger)

	r := chi.NewRouter()
	r.Use(notify.Middleware(func(*http.Request) time.Duration { return 4 * time.Second }, false, logger))
	r.Get("/admin/login", authH.HandleLoginPage)
	r.Post("/admin/login", authH.HandleLogin)
	r.Post("/admin/set-language", HandleSetLanguage)
	r.Group(func(r chi.Router) {
		r.Use(uimiddleware.NewUIAuth(mgr, codec, logger).Middleware())
		r.Post("/admin/logout", authH.HandleLogout)
		r.Get("/admin/events/health", eventsH.HandleHealth)
		r.Route("/admin/partials", func(r chi.Router) {
			r.Get("/dashboard", dashboardH.HandleDashboard)
			r.Get("/users", usersH.HandleUsers)
			r.Get("/shares", sharesH.HandleShares)
			r.Post("/shares/{code}/selection", sharesH.HandleSelection)
			r.Post("/shares/{code}/forward", sharesH.HandleForward)
			r.Post("/shares/{code}/save", sharesH.HandleSave)
			r.Post("/shares/{code}/protect", sharesH.HandleProtect)
			r.Get("/shares/{code}/details", sharesH.HandleDetails)
			r.Get("/shares/{code}/delete", sharesH.HandleDeleteConfirm)
			r.Delete("/shares/{code}", sharesH.HandleDelete)
			r.Get("/broadcast", broadcastH.HandleBroadcast)
			r.Post("/broadcast/send", broadcastH.HandleSend)
			r.Get("/banned", bannedH.HandleBanned)
			r.Get("/banned/ban-modal", bannedH.HandleBanModal)
			r.Post("/banned/ban", bannedH.HandleBan)
			r.Post("/banned/unban", bannedH.HandleUnban)
			r.Get("/settings", settingsH.HandleSettings)
			r.Post("/settings/save", settingsH.HandleSave)
			r.Post("/settings/reset", settingsH.HandleReset)
			r.Post("/settings/channels/{key}/{op}", settingsH.HandleChannel)
			r.Post("/settings/preferences", settingsH.HandlePreferences)
			r.Post("/settings/preferences/reset", settingsH.HandlePreferencesReset)
			r.Get("/health", healthH.HandleHealth)
		})
	})

	rec := httptest.NewRecorder()
	if _, err := mgr.Login(context.Background(), rec, botapitest.DefaultPassword); err != nil {
		t.Fatalf("вход не выполнен: %v", err)
	}
	t.Cleanup(mgr.Wait)
	return &harness{bot: bot, manager: mgr, handler: r, cookies: rec.Result().Cookies()}
}

// do выполняет HTMX-запрос с cookie сессии. form != nil — тело формы.
func (h *harness) do(method, target string, form url.Values) *httptest.ResponseRecorder {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.Header.Set("HX-Request", "true")
	for _, c := range h.cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

// triggers разбирает заголовок HX-Trigger.
func triggers(t *testing.T, rec *httptest.ResponseRecorder) map[string]json.RawMessage {
	t.Helper()
	raw := rec.Header().Get("HX-Trigger")
	if raw == "" {
		return map[string]json.RawMessage{}
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		t.Fatalf("некорректный HX-Trigger %q: %v", raw, err)
	}
	return m
}

// toastText возвращает текст уведомлений из HX-Trigger.
func toastText(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	raw, ok := triggers(t, rec)[notify.ToastEvent]
	if !ok {
		return ""
	}
	var payload struct {
		Items []struct {
			Kind    string `json:"kind"`
			Message string `json:"message"`
		} `json:"items"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("некорректные уведомления: %v", err)
	}
	var sb strings.Builder
	for _, it := range payload.Items {
		sb.WriteString(it.Kind + ":" + it.Message + "\n")
	}
	return sb.String()
}

func hasCookie(rec *httptest.ResponseRecorder, name string) bool {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name && c.MaxAge >= 0 && c.Value != "" {
			return true
		}
	}
	return false
}

// TestAuth_LoginSuccess проверяет вход и переход на обзор.
func TestAuth_LoginSuccess(t *testing.T) {
	h := newHarness(t)
	req := httptest.NewRequest(http.MethodPost, "/admin/login",
		strings.NewReader(url.Values{"password": {botapitest.DefaultPassword}}.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("HX-Redirect"); got != HomePath {
		t.Errorf("ожидался HX-Redirect %s, получено %q", HomePath, got)
	}
	if !hasCookie(rec, auth.SessionCookieName) {
		t.Error("ожидался cookie сессии")
	}
	if !hasCookie(rec, notify.FlashCookieName) {
		t.Error("уведомление о входе должно пережить редирект (flash-cookie)")
	}
}

// TestAuth_LoginFailures проверяет отказы входа: ошибка в форме, cookie не ставится.
func TestAuth_LoginFailures(t *testing.T) {
	tests := []struct {
		name      string
		password  string
		down      bool
		wantText  string
		wantCalls int
	}{
		{"пустой пароль", "  ", false, "toast.password_required", 0},
		{"неверный пароль", "wrong", false, "Invalid password", 1},
		{"бот недоступен", "secret", true, "toast.network_error", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			before := h.bot.TotalCalls()
			h.bot.Update(func(s *botapitest.Server) { s.Down = tt.down })

			req := httptest.NewRequest(http.MethodPost, "/admin/login",
				strings.NewReader(url.Values{"password": {tt.password}}.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			req.Header.Set("HX-Request", "true")
			rec := httptest.NewRecorder()
			h.handler.ServeHTTP(rec, req)

			if !strings.Contains(rec.Body.String(), tt.wantText) {
				t.Errorf("ожидался текст %q в ответе, получено %q", tt.wantText, rec.Body.String())
			}
			if hasCookie(rec, auth.SessionCookieName) {
				t.Error("при отказе cookie сессии не должен устанавливаться")
			}
			if rec.Header().Get("HX-Redirect") != "" {
				t.Error("при отказе перехода быть не должно")
			}
			if n := h.bot.TotalCalls() - before; n != tt.wantCalls {
				t.Errorf("ожидалось %d запросов к боту, выполнено %d", tt.wantCalls, n)
			}
		})
	}
}

// TestAuth_LoginPageWithSession проверяет, что вошедший администратор
// не видит форму входа.
func TestAuth_LoginPageWithSession(t *testing.T) {
	h := newHarness(t)
	req := httptest.NewRequest(http.MethodGet, "/admin/login", nil)
	for _, c := range h.cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusFound || rec.Header().Get("Location") != HomePath {
		t.Errorf("ожидался redirect на %s, получено %d %q", HomePath, rec.Code, rec.Header().Get("Location"))
	}
}

// TestAuth_Logout проверяет выход: токен отзывается, следующий запрос отклоняется.
func TestAuth_Logout(t *testing.T) {
	h := newHarness(t)
	rec := h.do(http.MethodPost, "/admin/logout", url.Values{})
	if got := rec.Header().Get("HX-Redirect"); got != uimiddleware.LoginPath {
		t.Errorf("ожидался HX-Redirect %s, получено %q", uimiddleware.LoginPath, got)
	}
	h.manager.Wait()
	if n := h.bot.Calls("POST /api/logout"); n != 1 {
		t.Errorf("ожидалось уведомление бота о выходе, вызовов %d", n)
	}

	before := h.bot.TotalCalls()
	rec = h.do(http.MethodGet, "/admin/partials/dashboard", nil)
	if got := rec.Header().Get("HX-Redirect"); got != uimiddleware.LoginPath {
		t.Errorf("после выхода ожидался переход на вход, получено %q", got)
	}
	if n := h.bot.TotalCalls() - before; n != 0 {
		t.Errorf("после выхода бот не должен вызываться, вызовов %d", n)
	}
}

// TestGateway_SessionExpired проверяет истечение сессии: переход на вход,
// уведомление через flash-cookie, повторный запрос без обращения к боту.
func TestGateway_SessionExpired(t *testing.T) {
	h := newHarness(t)
	h.bot.Update(func(s *botapitest.Server) { s.Expired = true })

	rec := h.do(http.MethodGet, "/admin/partials/dashboard", nil)
	if got := rec.Header().Get("HX-Redirect"); got != uimiddleware.LoginPath {
		t.Errorf("ожидался HX-Redirect %s, получено %q", uimiddleware.LoginPath, got)
	}
	if !hasCookie(rec, notify.FlashCookieName) {
		t.Error("уведомление об истечении должно уйти во flash-cookie")
	}

	before := h.bot.TotalCalls()
	rec = h.do(http.MethodGet, "/admin/partials/users", nil)
	if got := rec.Header().Get("HX-Redirect"); got != uimiddleware.LoginPath {
		t.Errorf("ожидался переход на вход, получено %q", got)
	}
	if hasCookie(rec, notify.FlashCookieName) {
		t.Error("повторное уведомление об истечении не ожидалось")
	}
	if n := h.bot.TotalCalls() - before; n != 0 {
		t.Errorf("отозванная сессия не должна обращаться к боту, вызовов %d", n)
	}
}

// TestGateway_LoadFailure проверяет кнопку повтора вместо содержимого страницы.
func TestGateway_LoadFailure(t *testing.T) {
	h := newHarness(t)
	h.bot.Update(func(s *botapitest.Server) { s.Down = true })

	rec := h.do(http.MethodGet, "/admin/partials/users?page=2", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("ожидался статус 200, получено %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "/admin/partials/users?page=2") {
		t.Errorf("ожидалась кнопка повтора с адресом страницы, получено %q", rec.Body.String())
	}
	if !strings.Contains(toastText(t, rec), "toast.network_error") {
		t.Error("ожидалось уведомление о сбое связи")
	}
}

// TestGateway_ActionFailureKeepsView проверяет, что ошибка действия
// не заменяет текущий фрагмент.
func TestGateway_ActionFailureKeepsView(t *testing.T) {
	h := newHarness(t)
	rec := h.do(http.MethodPost, "/admin/partials/shares/missing/save", url.Values{"keywords": {"a"}})
	if got := rec.Header().Get("HX-Reswap"); got != "none" {
		t.Errorf("ожидался HX-Reswap none, получено %q", got)
	}
	if !strings.Contains(toastText(t, rec), "Share not found") {
		t.Errorf("ожидалось сообщение бота, получено %q", toastText(t, rec))
	}
}

// TestUsers_PerPage проверяет размер страницы из настроек консоли.
func TestUsers_PerPage(t *testing.T) {
	h := newHarness(t)
	h.bot.Update(func(s *botapitest.Server) { s.Users = []int64{11, 22, 33} })

	rec := h.do(http.MethodGet, "/admin/partials/users?page=1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("ожидался статус 200, получено %d", rec.Code)
	}
	if h.bot.LastQuery["per_page"] != "20" || h.bot.LastQuery["page"] != "1" {
		t.Errorf("некорректные параметры запроса: %v", h.bot.LastQuery)
	}
	if !strings.Contains(rec.Body.String(), "user_id=22") {
		t.Error("ожидалась кнопка блокировки пользователя 22")
	}
}

// TestShares_ListSearch проверяет поиск и размер страницы раздач.
func TestShares_ListSearch(t *testing.T) {
	h := newHarness(t)
	h.bot.SeedShares(3)

	rec := h.do(http.MethodGet, "/admin/partials/shares?search=+kw2+&page=1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("ожидался статус 200, получено %d", rec.Code)
	}
	if h.bot.LastQuery["search"] != "kw2" {
		t.Errorf("ожидался поиск kw2, получено %q", h.bot.LastQuery["search"])
	}
	if h.bot.LastQuery["per_page"] != "15" {
		t.Errorf("ожидалось per_page=15, получено %q", h.bot.LastQuery["per_page"])
	}
}

// TestShares_Selection проверяет согласованность "выбрать все" и элементов.
func TestShares_Selection(t *testing.T) {
	tests := []struct {
		name        string
		op          string
		form        url.Values
		wantChecked int
	}{
		{
			name:        "выбрать все отмечает все элементы",
			op:          "all",
			form:        url.Values{"total": {"3"}, "select_all": {"1"}, "item": {"1"}},
			wantChecked: 4,
		},
		{
			name:        "снятие выбрать все снимает все элементы",
			op:          "all",
			form:        url.Values{"total": {"3"}, "item": {"1", "2", "3"}},
			wantChecked: 0,
		},
		{
			name:        "последний элемент включает выбрать все",
			op:          "item",
			form:        url.Values{"total": {"2"}, "item": {"1", "2"}},
			wantChecked: 3,
		},
		{
			name:        "снятие элемента выключает выбрать все",
			op:          "item",
			form:        url.Values{"total": {"3"}, "select_all": {"1"}, "item": {"1", "3"}},
			wantChecked: 2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			rec := h.do(http.MethodPost, "/admin/partials/shares/c1/selection?op="+tt.op, tt.form)
			if got := strings.Count(rec.Body.String(), " checked"); got != tt.wantChecked {
				t.Errorf("ожидалось %d отмеченных чекбоксов, получено %d: %s", tt.wantChecked, got, rec.Body.String())
			}
			if h.bot.TotalCalls() != 1 {
				t.Error("выбор файлов не должен обращаться к боту")
			}
		})
	}
}

// TestShares_Forward проверяет тело запроса пересылки.
func TestShares_Forward(t *testing.T) {
	h := newHarness(t)
	h.bot.SeedShares(3)

	rec := h.do(http.MethodPost, "/admin/partials/shares/c3/forward", url.Values{
		"total":      {"3"},
		"item":       {"3", "1"},
		"keywords":   {"a, b, a"},
		"group_text": {"hello"},
	})
	fr := h.bot.LastForward
	if fr == nil {
		t.Fatal("пересылка не выполнена")
	}
	if fr.ForwardAll || len(fr.ForwardIndices) != 2 || fr.ForwardIndices[0] != 1 || fr.ForwardIndices[1] != 3 {
		t.Errorf("ожидались номера [1 3] без forward_all, получено %+v", fr)
	}
	if len(fr.Keywords) != 2 || fr.GroupText != "hello" {
		t.Errorf("некорректные ключевые слова или текст: %+v", fr)
	}
	if !strings.Contains(toastText(t, rec), "success:toast.forwarded") {
		t.Errorf("ожидалось уведомление об успехе, получено %q", toastText(t, rec))
	}

	h.do(http.MethodPost, "/admin/partials/shares/c3/forward", url.Values{
		"total": {"3"}, "select_all": {"1"}, "item": {"1"},
	})
	if fr := h.bot.LastForward; !fr.ForwardAll || len(fr.ForwardIndices) != 0 {
		t.Errorf("при выбрать все ожидался forward_all без номеров, получено %+v", fr)
	}
}

// TestShares_ForwardEmptySelection проверяет отказ без выбранных файлов.
func TestShares_ForwardEmptySelection(t *testing.T) {
	h := newHarness(t)
	h.bot.SeedShares(2)
	rec := h.do(http.MethodPost, "/admin/partials/shares/c2/forward", url.Values{"total": {"2"}})
	if n := h.bot.Calls("POST /api/shares/c2/forward"); n != 0 {
		t.Errorf("бот не должен вызываться, вызовов %d", n)
	}
	if !strings.Contains(toastText(t, rec), "toast.select_files") {
		t.Error("ожидалось уведомление о пустом выборе")
	}
}

// TestShares_Protect проверяет переключатель запрета пересылки.
func TestShares_Protect(t *testing.T) {
	h := newHarness(t)
	h.bot.SeedShares(1)
	rec := h.do(http.MethodPost, "/admin/partials/shares/c1/protect", url.Values{"protect": {"true"}})
	if !strings.Contains(rec.Body.String(), "🔒") {
		t.Errorf("ожидался закрытый замок, получено %q", rec.Body.String())
	}
	if !h.bot.Shares[0].ProtectContent {
		t.Error("запрет пересылки не сохранён")
	}
	if _, ok := h.bot.LastUpdate["keywords"]; ok {
		t.Error("переключатель не должен отправлять ключевые слова")
	}
}

// TestShares_Delete проверяет удаление и события клиента.
func TestShares_Delete(t *testing.T) {
	h := newHarness(t)
	h.bot.SeedShares(2)

	rec := h.do(http.MethodDelete, "/admin/partials/shares/c1", nil)
	tr := triggers(t, rec)
	if _, ok := tr["sc:shares-changed"]; !ok {
		t.Error("ожидалось событие перечитывания списка")
	}
	if _, ok := tr[notify.ModalCloseEvent]; !ok {
		t.Error("ожидалось закрытие модального окна")
	}
	if len(h.bot.Shares) != 1 {
		t.Errorf("ожидалась одна раздача, осталось %d", len(h.bot.Shares))
	}

	rec = h.do(http.MethodDelete, "/admin/partials/shares/c1", nil)
	tr = triggers(t, rec)
	if _, ok := tr["sc:shares-changed"]; ok {
		t.Error("после ошибки список перечитываться не должен")
	}
	if _, ok := tr[notify.ModalCloseEvent]; !ok {
		t.Error("модальное окно закрывается и при ошибке")
	}
}

// TestBroadcast проверяет рассылку и проверку пустого сообщения.
func TestBroadcast(t *testing.T) {
	h := newHarness(t)
	h.bot.Update(func(s *botapitest.Server) { s.Users = []int64{1, 2} })

	rec := h.do(http.MethodPost, "/admin/partials/broadcast/send", url.Values{"message": {"   "}})
	if n := h.bot.Calls("POST /api/broadcast"); n != 0 {
		t.Errorf("пустое сообщение не должно отправляться, вызовов %d", n)
	}
	if !strings.Contains(toastText(t, rec), "toast.message_required") {
		t.Error("ожидалось уведомление о пустом сообщении")
	}

	rec = h.do(http.MethodPost, "/admin/partials/broadcast/send", url.Values{"message": {" hello "}})
	if h.bot.LastBroadcast != "hello" {
		t.Errorf("ожидалось сообщение hello, получено %q", h.bot.LastBroadcast)
	}
	if !strings.Contains(rec.Body.String(), "broadcast.done") {
		t.Error("ожидалась карточка результата")
	}
}

// TestBanned_Ban проверяет блокировку: ID обязателен до обращения к боту.
func TestBanned_Ban(t *testing.T) {
	h := newHarness(t)

	for _, id := range []string{"", "abc", "0"} {
		h.do(http.MethodPost, "/admin/partials/banned/ban", url.Values{"user_id": {id}})
	}
	if n := h.bot.Calls("POST /api/ban"); n != 0 {
		t.Errorf("без корректного ID бот не должен вызываться, вызовов %d", n)
	}

	rec := h.do(http.MethodPost, "/admin/partials/banned/ban", url.Values{"user_id": {" 42 "}})
	if len(h.bot.Banned) != 1 || h.bot.Banned[0].UserID != 42 {
		t.Fatalf("пользователь 42 не заблокирован: %+v", h.bot.Banned)
	}
	if h.bot.Banned[0].Reason != "banned.default_reason" {
		t.Errorf("ожидалась причина по умолчанию, получено %q", h.bot.Banned[0].Reason)
	}
	tr := triggers(t, rec)
	if _, ok := tr["sc:banned-changed"]; !ok {
		t.Error("ожидалось событие перечитывания чёрного списка")
	}
	if _, ok := tr[notify.ModalCloseEvent]; !ok {
		t.Error("ожидалось закрытие модального окна")
	}

	h.do(http.MethodPost, "/admin/partials/banned/unban", url.Values{"user_id": {"42"}})
	if len(h.bot.Banned) != 0 {
		t.Error("пользователь 42 не разблокирован")
	}
}

// TestSettings_Save проверяет отметки сохранения по ответу updated.
func TestSettings_Save(t *testing.T) {
	h := newHarness(t)
	h.bot.Update(func(s *botapitest.Server) { s.Ignored["show_promo"] = true })

	rec := h.do(http.MethodPost, "/admin/partials/settings/save", url.Values{
		"is_verify":     {"true"},
		"verify_expire": {"3600"},
		"start_message": {"welcome"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("ожидался статус 200, получено %d", rec.Code)
	}
	if n := len(h.bot.LastUpdate); n != 19 {
		t.Errorf("ожидалась отправка 19 ключей, отправлено %d", n)
	}
	if _, ok := h.bot.LastUpdate["force_sub_channels"]; ok {
		t.Error("списки каналов сохраняются отдельно")
	}
	if string(h.bot.LastUpdate["protect_content"]) != "false" {
		t.Errorf("неотмеченный чекбокс должен отправляться как false, получено %s", h.bot.LastUpdate["protect_content"])
	}
	body := rec.Body.String()
	if !strings.Contains(body, "settings.saved") || !strings.Contains(body, "settings.not_saved") {
		t.Error("ожидались отметки сохранено и не сохранено")
	}
	if !strings.Contains(toastText(t, rec), "warning:toast.settings_not_saved") {
		t.Errorf("ожидалось предупреждение о несохранённых ключах, получено %q", toastText(t, rec))
	}
}

// TestSettings_SaveInvalidNumber проверяет отказ до обращения к боту.
func TestSettings_SaveInvalidNumber(t *testing.T) {
	h := newHarness(t)
	rec := h.do(http.MethodPost, "/admin/partials/settings/save", url.Values{"verify_expire": {"soon"}})
	if n := h.bot.Calls("PUT /api/settings"); n != 0 {
		t.Errorf("бот не должен вызываться, вызовов %d", n)
	}
	if rec.Header().Get("HX-Reswap") != "none" {
		t.Error("форма должна остаться на месте")
	}
}

// TestSettings_Channels проверяет добавление и удаление одного канала.
func TestSettings_Channels(t *testing.T) {
	h := newHarness(t)

	h.do(http.MethodPost, "/admin/partials/settings/channels/force_sub_channels/add", url.Values{"channel_id": {"-1003"}})
	if len(h.bot.LastUpdate) != 1 {
		t.Errorf("ожидалась отправка только списка каналов, получено %v", h.bot.LastUpdate)
	}
	var ids []int64
	if err := json.Unmarshal(h.bot.LastUpdate["force_sub_channels"], &ids); err != nil {
		t.Fatal(err)
	}
	if len(ids) != 3 || ids[2] != -1003 {
		t.Errorf("ожидалось добавление -1003 в конец, получено %v", ids)
	}

	h.do(http.MethodPost, "/admin/partials/settings/channels/force_sub_channels/remove", url.Values{"channel_id": {"-1001"}})
	if err := json.Unmarshal(h.bot.LastUpdate["force_sub_channels"], &ids); err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 || ids[0] != -1002 {
		t.Errorf("ожидалось удаление -1001, получено %v", ids)
	}

	puts := h.bot.Calls("PUT /api/settings")
	for _, id := range []string{"", "abc", "0"} {
		h.do(http.MethodPost, "/admin/partials/settings/channels/bound_channels/add", url.Values{"channel_id": {id}})
	}
	h.do(http.MethodPost, "/admin/partials/settings/channels/is_verify/add", url.Values{"channel_id": {"-1"}})
	if n := h.bot.Calls("PUT /api/settings"); n != puts {
		t.Errorf("некорректный ввод не должен сохраняться, лишних вызовов %d", n-puts)
	}
}

// TestSettings_PreferencesWithoutDB проверяет отказ без PostgreSQL.
func TestSettings_PreferencesWithoutDB(t *testing.T) {
	h := newHarness(t)
	rec := h.do(http.MethodPost, "/admin/partials/settings/preferences", url.Values{
		service.PrefUsersPerPage: {"50"},
	})
	if rec.Header().Get("HX-Reswap") != "none" {
		t.Error("страница должна остаться на месте")
	}
	if !strings.Contains(toastText(t, rec), "prefs.disabled") {
		t.Errorf("ожидалось уведомление prefs.disabled, получено %q", toastText(t, rec))
	}
}

// TestSaveStatus проверяет отметки полей.
func TestSaveStatus(t *testing.T) {
	st := saveStatus([]string{"a", "b", "c"}, []string{"a", "c", "x"})
	if len(st) != 3 {
		t.Fatalf("ожидалось 3 отметки, получено %d", len(st))
	}
	if countSaved(st) != 2 {
		t.Errorf("ожидалось 2 сохранённых ключа, получено %d", countSaved(st))
	}
	if _, ok := st["x"]; ok {
		t.Error("неотправленный ключ не отмечается")
	}
}

// TestHealth_Page проверяет страницу состояния без БД.
func TestHealth_Page(t *testing.T) {
	h := newHarness(t)
	rec := h.do(http.MethodGet, "/admin/partials/health", nil)
	body := rec.Body.String()
	if !strings.Contains(body, "data-sse-url") {
		t.Error("ожидался адрес SSE-потока")
	}
	if !strings.Contains(body, "health.journal_disabled") {
		t.Error("без БД журнал должен быть отключён")
	}
}

// TestEvents_Health проверяет SSE-поток показателей и его завершение при 401.
func TestEvents_Health(t *testing.T) {
	h := newHarness(t)
	srv := httptest.NewServer(h.handler)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/admin/events/health", nil)
	for _, c := range h.cookies {
		req.AddCookie(c)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("ожидался text/event-stream, получено %q", ct)
	}

	buf := make([]byte, 4096)
	n, err := resp.Body.Read(buf)
	if err != nil {
		t.Fatal(err)
	}
	if first := string(buf[:n]); !strings.HasPrefix(first, "event: health\ndata: ") {
		t.Errorf("ожидалось событие health, получено %q", first)
	}

	h.bot.Update(func(s *botapitest.Server) { s.Expired = true })
	rest, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("поток должен завершиться сам: %v", err)
	}
	if !strings.Contains(string(rest), "event: session-expired\ndata: "+uimiddleware.LoginPath+ExpiredQuery+"\n") {
		t.Errorf("ожидалось событие session-expired, получено %q", string(rest))
	}
}

// expirerFunc — SessionExpirer с заданным ответом.
type expirerFunc func() bool

func (f expirerFunc) Expire(context.Context, http.ResponseWriter, auth.Session) bool { return f() }

// TestEvents_SessionExpiredTarget проверяет, что признак истечения получает
// только поток, который сам завершил сессию.
func TestEvents_SessionExpiredTarget(t *testing.T) {
	tests := []struct {
		name  string
		first bool
		want  string
	}{
		{"первое истечение", true, uimiddleware.LoginPath + ExpiredQuery},
		{"сессия уже завершена", false, uimiddleware.LoginPath},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bot := botapitest.New(t)
			expirer := expirerFunc(func() bool { return tt.first })
			h := NewEventsHandler(bot.API(t), expirer, NewGateway(expirer, nil, testLogger()), time.Hour, testLogger())

			// Без сессии бот отвечает 401 на первый же запрос.
			rec := httptest.NewRecorder()
			h.HandleHealth(rec, httptest.NewRequest(http.MethodGet, "/admin/events/health", nil))

			want := "event: session-expired\ndata: " + tt.want + "\n\n"
			if rec.Body.String() != want {
				t.Errorf("ожидалось %q, получено %q", want, rec.Body.String())
			}
		})
	}
}

// TestSetLanguage проверяет cookie языка и возврат на страницу.
func TestSetLanguage(t *testing.T) {
	tests := []struct {
		name     string
		lang     string
		referer  string
		wantLang string
		wantLoc  string
	}{
		{"поддерживаемый язык", "ru", "http://example.com/admin/users?page=2", "ru", "/admin/users?page=2"},
		{"неподдерживаемый язык", "xx", "", "zh", HomePath},
		{"чужой хост", "en", "http://evil.test/admin/users", "en", HomePath},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/admin/set-language",
				strings.NewReader(url.Values{"lang": {tt.lang}}.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			if tt.referer != "" {
				req.Header.Set("Referer", tt.referer)
			}
			rec := httptest.NewRecorder()
			HandleSetLanguage(rec, req)

			if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != tt.wantLoc {
				t.Errorf("ожидался redirect на %s, получено %d %q", tt.wantLoc, rec.Code, rec.Header().Get("Location"))
			}
			cookies := rec.Result().Cookies()
			if len(cookies) != 1 || cookies[0].Value != tt.wantLang {
				t.Errorf("ожидался cookie языка %s, получено %v", tt.wantLang, cookies)
			}
		})
	}
}
