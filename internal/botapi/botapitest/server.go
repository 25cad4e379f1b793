// Пакет botapitest — имитация REST API бота раздач для тестов.
package botapitest

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/bigkaa/sharebot-console/internal/botapi"
)

// Значения по умолчанию.
const (
	DefaultPassword = "secret"
	DefaultToken    = "tok-1"
)

// Server — in-memory бот с API администратора.
type Server struct {
	*httptest.Server

	mu sync.Mutex
	// Password — пароль администратора.
	Password string
	// Token — токен, выдаваемый при входе и принимаемый API.
	Token string
	// Expired — все авторизованные запросы получают 401.
	Expired bool
	// Down — все запросы получают не-JSON 502.
	Down bool

	Dashboard botapi.Dashboard
	Users     []int64
	Shares    []botapi.Share
	Banned    []botapi.BannedUser
	Settings  map[string]any
	Health    botapi.Health
	// Ignored — ключи настроек, которые бот принимает, но не сохраняет.
	Ignored map[string]bool

	LastForward   *botapi.ForwardRequest
	LastBroadcast string
	LastUpdate    map[string]json.RawMessage
	LastQuery     map[string]string

	calls map[string]int
}

// New запускает имитацию бота и закрывает её по окончании теста.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		Password: DefaultPassword,
		Token:    DefaultToken,
		Settings: map[string]any{
			"is_verify":          false,
			"protect_content":    true,
			"verify_expire":      86400,
			"start_message":      "hi",
			"force_sub_channels": []any{-1001, "-1002"},
			"bound_channels":     []any{},
		},
		Ignored: map[string]bool{},
		calls:   map[string]int{},
	}
	s.Dashboard.System.BotUsername = "share_bot"
	s.Dashboard.System.Uptime = 90061
	s.Dashboard.System.Database = "connected"
	s.Dashboard.Users.Total = 1500
	s.Health = botapi.Health{Database: "connected", MemoryMB: 64.5, CPUPercent: 3.2, Threads: 7, Timestamp: 1760000000}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/login", s.login)
	mux.HandleFunc("POST /api/logout", s.authed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, botapi.Result{Success: true})
	}))
	mux.HandleFunc("GET /api/dashboard", s.authed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.Dashboard)
	}))
	mux.HandleFunc("GET /api/users", s.authed(s.users))
	mux.HandleFunc("GET /api/shares", s.authed(s.listShares))
	mux.HandleFunc("GET /api/shares/{code}", s.authed(s.getShare))
	mux.HandleFunc("PUT /api/shares/{code}", s.authed(s.updateShare))
	mux.HandleFunc("DELETE /api/shares/{code}", s.authed(s.deleteShare))
	mux.HandleFunc("POST /api/shares/{code}/forward", s.authed(s.forwardShare))
	mux.HandleFunc("POST /api/broadcast", s.authed(s.broadcast))
	mux.HandleFunc("GET /api/banned", s.authed(func(w http.ResponseWriter, r *http.Request) {
		list := botapi.BannedList{BannedUsers: s.Banned, Total: len(s.Banned)}
		if list.BannedUsers == nil {
			list.BannedUsers = []botapi.BannedUser{}
		}
		writeJSON(w, http.StatusOK, list)
	}))
	mux.HandleFunc("POST /api/ban", s.authed(s.ban))
	mux.HandleFunc("POST /api/unban", s.authed(s.unban))
	mux.HandleFunc("GET /api/settings", s.authed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.Settings)
	}))
	mux.HandleFunc("PUT /api/settings", s.authed(s.updateSettings))
	mux.HandleFunc("POST /api/settings/reset", s.authed(s.resetSetting))
	mux.HandleFunc("GET /api/health", s.authed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.Health)
	}))
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "<html>share bot</html>")
	})

	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.calls[r.Method+" "+r.URL.Path]++
		if s.Down {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = io.WriteString(w, "<html>bad gateway</html>")
			return
		}
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(s.Server.Close)
	return s
}

// API создаёт botapi.Client, направленный на имитацию.
func (s *Server) API(t testing.TB) *botapi.Client {
	t.Helper()
	c, err := botapi.New(botapi.Options{BaseURL: s.URL, ContractCheck: true}, discardLogger())
	if err != nil {
		t.Fatalf("botapi.New вернул ошибку: %v", err)
	}
	return c
}

// Calls возвращает число запросов "METHOD /path".
func (s *Server) Calls(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[key]
}

// TotalCalls возвращает общее число запросов к боту.
func (s *Server) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		n += c
	}
	return n
}

// Update изменяет состояние имитации под блокировкой.
func (s *Server) Update(fn func(s *Server)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s)
}

// SeedShares добавляет n раздач с кодами c1..cn; у i-й раздачи i файлов.
func (s *Server) SeedShares(n int) {
	s.Update(func(s *Server) {
		for i := 1; i <= n; i++ {
			code := "c" + strconv.Itoa(i)
			s.Shares = append(s.Shares, botapi.Share{
				Code:       code,
				OwnerID:    100 + int64(i),
				Title:      "Share " + code,
				FilesCount: i,
				Link:       "https://t.me/share_bot?start=" + code,
				Keywords:   []string{"kw" + strconv.Itoa(i)},
				CreatedAt:  1760000000,
				MessageIDs: []int64{int64(i * 10)},
			})
		}
	})
}

func (s *Server) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.Expired || r.Header.Get("Authorization") != "Bearer "+s.Token {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
			return
		}
		next(w, r)
	}
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Password string `json:"password"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	if body.Password != s.Password {
		writeJSON(w, http.StatusUnauthorized, botapi.LoginResponse{Success: false, Message: "Invalid password"})
		return
	}
	writeJSON(w, http.StatusOK, botapi.LoginResponse{Success: true, Token: s.Token})
}

func (s *Server) users(w http.ResponseWriter, r *http.Request) {
	page, perPage := paging(r, 20)
	s.LastQuery = flatQuery(r)
	start, end := window(len(s.Users), page, perPage)
	out := s.Users[start:end]
	if out == nil {
		out = []int64{}
	}
	writeJSON(w, http.StatusOK, botapi.UserPage{
		Users:      out,
		Pagination: pageOf(len(s.Users), page, perPage),
	})
}

func (s *Server) listShares(w http.ResponseWriter, r *http.Request) {
	page, perPage := paging(r, 15)
	s.LastQuery = flatQuery(r)
	search := strings.ToLower(r.URL.Query().Get("search"))
	var found []botapi.Share
	for _, sh := range s.Shares {
		if search == "" || strings.Contains(strings.ToLower(sh.Code+" "+sh.Title+" "+strings.Join(sh.Keywords, " ")), search) {
			found = append(found, sh)
		}
	}
	start, end := window(len(found), page, perPage)
	out := found[start:end]
	if out == nil {
		out = []botapi.Share{}
	}
	writeJSON(w, http.StatusOK, botapi.SharePage{Shares: out, Pagination: pageOf(len(found), page, perPage)})
}

func (s *Server) findShare(code string) int {
	return slices.IndexFunc(s.Shares, func(sh botapi.Share) bool { return sh.Code == code })
}

func (s *Server) getShare(w http.ResponseWriter, r *http.Request) {
	i := s.findShare(r.PathValue("code"))
	if i < 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Share not found"})
		return
	}
	sh := s.Shares[i]
	sh.UpdatedAt = sh.CreatedAt + 60
	writeJSON(w, http.StatusOK, sh)
}

func (s *Server) updateShare(w http.ResponseWriter, r *http.Request) {
	i := s.findShare(r.PathValue("code"))
	if i < 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Share not found"})
		return
	}
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid JSON"})
		return
	}
	s.LastUpdate = raw
	var upd botapi.ShareUpdate
	b, _ := json.Marshal(raw)
	_ = json.Unmarshal(b, &upd)
	if upd.Keywords != nil {
		s.Shares[i].Keywords = *upd.Keywords
	}
	if upd.GroupText != nil {
		s.Shares[i].GroupText = *upd.GroupText
	}
	if upd.ProtectContent != nil {
		s.Shares[i].ProtectContent = *upd.ProtectContent
	}
	writeJSON(w, http.StatusOK, botapi.Result{Success: true})
}

func (s *Server) deleteShare(w http.ResponseWriter, r *http.Request) {
	i := s.findShare(r.PathValue("code"))
	if i < 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Share not found"})
		return
	}
	s.Shares = slices.Delete(s.Shares, i, i+1)
	writeJSON(w, http.StatusOK, botapi.Result{Success: true})
}

func (s *Server) forwardShare(w http.ResponseWriter, r *http.Request) {
	var fr botapi.ForwardRequest
	if err := json.NewDecoder(r.Body).Decode(&fr); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid JSON"})
		return
	}
	s.LastForward = &fr
	if s.findShare(r.PathValue("code")) < 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Share not found"})
		return
	}
	n := len(fr.ForwardIndices)
	if fr.ForwardAll {
		n = 1
	}
	writeJSON(w, http.StatusOK, botapi.ForwardResult{Success: true, Successful: n})
}

func (s *Server) broadcast(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Message string `json:"message"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	if strings.TrimSpace(body.Message) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Message is required"})
		return
	}
	s.LastBroadcast = body.Message
	writeJSON(w, http.StatusOK, botapi.BroadcastResult{Success: true, Total: len(s.Users), Successful: len(s.Users)})
}

func (s *Server) ban(w http.ResponseWriter, r *http.Request) {
	var br botapi.BanRequest
	if err := json.NewDecoder(r.Body).Decode(&br); err != nil || br.UserID == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "user_id is required"})
		return
	}
	s.Banned = append(s.Banned, botapi.BannedUser{UserID: br.UserID, Reason: br.Reason, BannedAt: 1760000000})
	writeJSON(w, http.StatusOK, botapi.Result{Success: true})
}

func (s *Server) unban(w http.ResponseWriter, r *http.Request) {
	var br botapi.BanRequest
	_ = json.NewDecoder(r.Body).Decode(&br)
	s.Banned = slices.DeleteFunc(s.Banned, func(b botapi.BannedUser) bool { return b.UserID == br.UserID })
	writeJSON(w, http.StatusOK, botapi.Result{Success: true})
}

func (s *Server) updateSettings(w http.ResponseWriter, r *http.Request) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid JSON"})
		return
	}
	s.LastUpdate = raw
	updated := []string{}
	for k, v := range raw {
		if s.Ignored[k] || !botapi.IsSettingKey(k) {
			continue
		}
		var val any
		_ = json.Unmarshal(v, &val)
		s.Settings[k] = val
		updated = append(updated, k)
	}
	slices.Sort(updated)
	writeJSON(w, http.StatusOK, botapi.SettingsUpdateResult{Success: true, Updated: updated, Message: "Updated"})
}

func (s *Server) resetSetting(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Key string `json:"key"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	if !botapi.IsSettingKey(body.Key) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Unknown key"})
		return
	}
	delete(s.Settings, body.Key)
	writeJSON(w, http.StatusOK, botapi.Result{Success: true, Message: "Reset"})
}

func paging(r *http.Request, defPerPage int) (int, int) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = defPerPage
	}
	return page, perPage
}

func window(n, page, perPage int) (int, int) {
	start := min((page-1)*perPage, n)
	return start, min(start+perPage, n)
}

func pageOf(total, page, perPage int) botapi.Pagination {
	return botapi.Pagination{
		Total:      total,
		Page:       page,
		PerPage:    perPage,
		TotalPages: max(1, (total+perPage-1)/perPage),
	}
}

func flatQuery(r *http.Request) map[string]string {
	out := map[string]string{}
	for k, v := range r.URL.Query() {
		out[k] = strings.Join(v, ",")
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
