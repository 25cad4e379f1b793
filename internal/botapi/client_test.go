package botapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"slices"
	"testing"
	"time"

	"github.com/bigkaa/sharebot-console/internal/botapi"
	"github.com/bigkaa/sharebot-console/internal/botapi/botapitest"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// TestClient_Login проверяет вход: успех, отказ без ошибки, токен не передаётся.
func TestClient_Login(t *testing.T) {
	bot := botapitest.New(t)
	client := bot.API(t)
	ctx := context.Background()

	resp, err := client.Login(ctx, botapitest.DefaultPassword)
	if err != nil {
		t.Fatalf("Login вернул ошибку: %v", err)
	}
	if !resp.Success || resp.Token != botapitest.DefaultToken {
		t.Errorf("ожидался успешный вход с токеном, получено %+v", resp)
	}

	resp, err = client.Login(ctx, "wrong")
	if err != nil {
		t.Fatalf("отказ во входе не должен быть ошибкой: %v", err)
	}
	if resp.Success || resp.Message != "Invalid password" {
		t.Errorf("ожидался отказ с сообщением бота, получено %+v", resp)
	}
}

// TestClient_Unauthorized проверяет, что 401 даёт ErrUnauthorized.
func TestClient_Unauthorized(t *testing.T) {
	bot := botapitest.New(t)
	client := bot.API(t)

	_, err := client.Dashboard(context.Background(), "stale-token")
	if !errors.Is(err, botapi.ErrUnauthorized) {
		t.Fatalf("ожидалась ErrUnauthorized, получено %v", err)
	}
	if errors.Is(err, botapi.ErrTransport) {
		t.Error("401 не должен классифицироваться как ошибка транспорта")
	}
}

// TestClient_TransportErrors проверяет классификацию сетевых сбоев и не-JSON ответов.
func TestClient_TransportErrors(t *testing.T) {
	t.Run("не-JSON ответ", func(t *testing.T) {
		bot := botapitest.New(t)
		bot.Update(func(s *botapitest.Server) { s.Down = true })
		_, err := bot.API(t).Dashboard(context.Background(), botapitest.DefaultToken)
		var te *botapi.TransportError
		if !errors.As(err, &te) || !errors.Is(err, botapi.ErrTransport) {
			t.Fatalf("ожидалась TransportError, получено %v", err)
		}
		if te.Op != "dashboard" {
			t.Errorf("ожидалась операция dashboard, получено %q", te.Op)
		}
	})

	t.Run("сервер недоступен", func(t *testing.T) {
		bot := botapitest.New(t)
		client, err := botapi.New(botapi.Options{BaseURL: bot.URL, Timeout: time.Second}, testLogger())
		if err != nil {
			t.Fatal(err)
		}
		bot.Close()
		if _, err := client.Health(context.Background(), botapitest.DefaultToken); !errors.Is(err, botapi.ErrTransport) {
			t.Fatalf("ожидалась ErrTransport, получено %v", err)
		}
	})
}

// TestClient_APIError проверяет, что не-2xx ответ с JSON несёт сообщение бота.
func TestClient_APIError(t *testing.T) {
	bot := botapitest.New(t)
	_, err := bot.API(t).Share(context.Background(), botapitest.DefaultToken, "missing")

	var apiErr *botapi.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("ожидалась APIError, получено %v", err)
	}
	if apiErr.Status != 404 || apiErr.Message != "Share not found" {
		t.Errorf("неожиданная APIError: %+v", apiErr)
	}
}

// TestClient_SharesQuery проверяет кодирование параметров списка раздач.
func TestClient_SharesQuery(t *testing.T) {
	bot := botapitest.New(t)
	bot.SeedShares(20)

	page, err := bot.API(t).Shares(context.Background(), botapitest.DefaultToken, botapi.ShareQuery{Page: 2, PerPage: 15, Search: "share c"})
	if err != nil {
		t.Fatalf("Shares вернул ошибку: %v", err)
	}

	var query map[string]string
	bot.Update(func(s *botapitest.Server) { query = s.LastQuery })
	want := map[string]string{"page": "2", "per_page": "15", "search": "share c"}
	for k, v := range want {
		if query[k] != v {
			t.Errorf("параметр %s: ожидалось %q, получено %q", k, v, query[k])
		}
	}
	if page.Total != 20 || page.TotalPages != 2 || len(page.Shares) != 5 {
		t.Errorf("неожиданная страница: total=%d pages=%d len=%d", page.Total, page.TotalPages, len(page.Shares))
	}
}

// TestClient_UsersOmitsEmptyParams проверяет, что нулевые параметры не отправляются.
func TestClient_UsersOmitsEmptyParams(t *testing.T) {
	bot := botapitest.New(t)
	if _, err := bot.API(t).Users(context.Background(), botapitest.DefaultToken, 0, 0); err != nil {
		t.Fatal(err)
	}
	var query map[string]string
	bot.Update(func(s *botapitest.Server) { query = s.LastQuery })
	if len(query) != 0 {
		t.Errorf("ожидался запрос без параметров, получено %v", query)
	}
}

// TestClient_SettingsChannels проверяет нормализацию списков каналов.
func TestClient_SettingsChannels(t *testing.T) {
	bot := botapitest.New(t)
	bot.Update(func(s *botapitest.Server) {
		s.Settings["bound_channels"] = []any{"-1003", -1003, " -1004 "}
	})

	st, err := bot.API(t).Settings(context.Background(), botapitest.DefaultToken)
	if err != nil {
		t.Fatalf("Settings вернул ошибку: %v", err)
	}
	if !slices.Equal(st.ForceSubChannels, []int64{-1001, -1002}) {
		t.Errorf("force_sub_channels: получено %v", st.ForceSubChannels)
	}
	if !slices.Equal(st.BoundChannels, []int64{-1003, -1004}) {
		t.Errorf("bound_channels: получено %v", st.BoundChannels)
	}
	if !st.ProtectContent || st.VerifyExpire != 86400 {
		t.Errorf("неожиданные настройки: %+v", st)
	}
}

// TestClient_UpdateSettingsPartial проверяет частичное обновление и список updated.
func TestClient_UpdateSettingsPartial(t *testing.T) {
	bot := botapitest.New(t)
	bot.Update(func(s *botapitest.Server) { s.Ignored["promo_text"] = true })

	var patch botapi.SettingsPatch
	if err := patch.SetBool("is_verify", false); err != nil {
		t.Fatal(err)
	}
	if err := patch.SetText("promo_text", "sale"); err != nil {
		t.Fatal(err)
	}
	if err := patch.SetChannels("bound_channels", nil); err != nil {
		t.Fatal(err)
	}
	if err := patch.SetInt("is_verify", 1); !errors.Is(err, botapi.ErrUnknownSetting) {
		t.Errorf("ожидалась ErrUnknownSetting для неверного типа, получено %v", err)
	}

	if keys := patch.Keys(); !slices.Equal(keys, []string{"bound_channels", "is_verify", "promo_text"}) {
		t.Fatalf("неожиданные ключи патча: %v", keys)
	}

	res, err := bot.API(t).UpdateSettings(context.Background(), botapitest.DefaultToken, patch)
	if err != nil {
		t.Fatalf("UpdateSettings вернул ошибку: %v", err)
	}
	if !slices.Equal(res.Updated, []string{"bound_channels", "is_verify"}) {
		t.Errorf("ожидались updated=[bound_channels is_verify], получено %v", res.Updated)
	}

	var sent map[string]json.RawMessage
	bot.Update(func(s *botapitest.Server) { sent = s.LastUpdate })
	if len(sent) != 3 {
		t.Errorf("отправлены лишние ключи: %v", sent)
	}
	if string(sent["bound_channels"]) != "[]" || string(sent["is_verify"]) != "false" {
		t.Errorf("неожиданное тело запроса: %v", sent)
	}
}

// TestClient_ForwardShare проверяет тело запроса пересылки.
func TestClient_ForwardShare(t *testing.T) {
	bot := botapitest.New(t)
	bot.SeedShares(3)

	res, err := bot.API(t).ForwardShare(context.Background(), botapitest.DefaultToken, "c3", botapi.ForwardRequest{ForwardAll: true})
	if err != nil {
		t.Fatalf("ForwardShare вернул ошибку: %v", err)
	}
	if !res.Success {
		t.Errorf("ожидался успех, получено %+v", res)
	}

	var fr *botapi.ForwardRequest
	bot.Update(func(s *botapitest.Server) { fr = s.LastForward })
	if fr == nil || !fr.ForwardAll || fr.ForwardIndices == nil || len(fr.ForwardIndices) != 0 {
		t.Errorf("ожидались forward_all=true и пустой forward_indices, получено %+v", fr)
	}
}

// TestClient_ResetSettingUnknownKey проверяет отказ без запроса для неизвестного ключа.
func TestClient_ResetSettingUnknownKey(t *testing.T) {
	bot := botapitest.New(t)
	_, err := bot.API(t).ResetSetting(context.Background(), botapitest.DefaultToken, "nope")
	if !errors.Is(err, botapi.ErrUnknownSetting) {
		t.Fatalf("ожидалась ErrUnknownSetting, получено %v", err)
	}
	if n := bot.TotalCalls(); n != 0 {
		t.Errorf("ожидалось 0 запросов к боту, выполнено %d", n)
	}
}

// TestNew_InvalidBaseURL проверяет валидацию адреса.
// TestClient_Ping проверяет пробу доступности по публичному пути.
func TestClient_Ping(t *testing.T) {
	bot := botapitest.New(t)
	client := bot.API(t)
	ctx := context.Background()

	if err := client.Ping(ctx, "/"); err != nil {
		t.Fatalf("Ping живого бота вернул ошибку: %v", err)
	}
	if err := client.Ping(ctx, "/missing"); err != nil {
		t.Errorf("404 означает, что бот отвечает; получено %v", err)
	}

	bot.Update(func(s *botapitest.Server) { s.Down = true })
	if err := client.Ping(ctx, "/"); !errors.Is(err, botapi.ErrTransport) {
		t.Errorf("ожидалась ошибка транспорта при 502, получено %v", err)
	}
}

func TestNew_InvalidBaseURL(t *testing.T) {
	for _, raw := range []string{"", "bot:8080", "ftp://bot", "http://"} {
		if _, err := botapi.New(botapi.Options{BaseURL: raw}, testLogger()); err == nil {
			t.Errorf("ожидалась ошибка для %q", raw)
		}
	}
}

// TestParseKeywords проверяет разбор ключевых слов.
func TestParseKeywords(t *testing.T) {
	tests := []struct {
		raw  string
		want []string
	}{
		{"", []string{}},
		{" a , b,,a ", []string{"a", "b"}},
		{"один,два", []string{"один", "два"}},
		{"abcdefghijklmnopqrstuvwxyz0123456789", []string{"abcdefghijklmnopqrstuvwxyz012345"}},
	}
	for _, tt := range tests {
		if got := botapi.ParseKeywords(tt.raw); !slices.Equal(got, tt.want) {
			t.Errorf("ParseKeywords(%q) = %q, ожидалось %q", tt.raw, got, tt.want)
		}
	}
}

// TestSettings_KeyAccessors проверяет, что каждый ключ настроек читается
// по имени из декодированного ответа и принимается патчем.
func TestSettings_KeyAccessors(t *testing.T) {
	raw := map[string]any{}
	for _, k := range botapi.BoolSettingKeys {
		raw[k] = true
	}
	for i, k := range botapi.IntSettingKeys {
		raw[k] = i + 1
	}
	for _, k := range botapi.TextSettingKeys {
		raw[k] = "text:" + k
	}
	data, err := json.Marshal(raw)
	if err != nil {
		t.Fatal(err)
	}
	var s botapi.Settings
	if err := json.Unmarshal(data, &s); err != nil {
		t.Fatalf("ошибка декодирования настроек: %v", err)
	}

	var patch botapi.SettingsPatch
	for _, k := range botapi.BoolSettingKeys {
		if !s.Bool(k) {
			t.Errorf("Bool(%q) = false, ожидалось true", k)
		}
		if err := patch.SetBool(k, true); err != nil {
			t.Errorf("SetBool(%q): %v", k, err)
		}
	}
	for i, k := range botapi.IntSettingKeys {
		if got := s.Int(k); got != int64(i+1) {
			t.Errorf("Int(%q) = %d, ожидалось %d", k, got, i+1)
		}
		if err := patch.SetInt(k, 1); err != nil {
			t.Errorf("SetInt(%q): %v", k, err)
		}
	}
	for _, k := range botapi.TextSettingKeys {
		if got := s.Text(k); got != "text:"+k {
			t.Errorf("Text(%q) = %q", k, got)
		}
		if err := patch.SetText(k, "x"); err != nil {
			t.Errorf("SetText(%q): %v", k, err)
		}
	}
	want := slices.Concat(botapi.BoolSettingKeys, botapi.IntSettingKeys, botapi.TextSettingKeys)
	slices.Sort(want)
	if got := patch.Keys(); !slices.Equal(got, want) {
		t.Errorf("Keys() = %v, ожидалось %v", got, want)
	}
}
