package i18n

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
)

func loadCatalog(t *testing.T, lang string) map[string]string {
	t.Helper()
	data, err := LocaleFS.ReadFile(fmt.Sprintf("locales/%s.json", lang))
	if err != nil {
		t.Fatalf("каталог %s не встроен: %v", lang, err)
	}
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("каталог %s не разбирается: %v", lang, err)
	}
	return m
}

// Все каталоги содержат один и тот же набор ключей.
func TestCatalogs_SameKeys(t *testing.T) {
	base := loadCatalog(t, "en")
	for _, lang := range Languages {
		cat := loadCatalog(t, lang)
		for key := range base {
			if v, ok := cat[key]; !ok || strings.TrimSpace(v) == "" {
				t.Errorf("%s: нет перевода для %q", lang, key)
			}
		}
		for key := range cat {
			if _, ok := base[key]; !ok {
				t.Errorf("%s: лишний ключ %q", lang, key)
			}
		}
	}
}

// Число подстановок совпадает во всех языках.
func TestCatalogs_PlaceholdersMatch(t *testing.T) {
	base := loadCatalog(t, "en")
	for _, lang := range Languages {
		cat := loadCatalog(t, lang)
		for key, en := range base {
			if got, want := strings.Count(cat[key], "%v"), strings.Count(en, "%v"); got != want {
				t.Errorf("%s: %q содержит %d подстановок, ожидалось %d", lang, key, got, want)
			}
		}
	}
}

func TestLoadFromEmbedFS(t *testing.T) {
	b := NewBundle(nil)
	if err := LoadFromEmbedFS(b, discardLogger()); err != nil {
		t.Fatalf("LoadFromEmbedFS: %v", err)
	}
	for _, lang := range Languages {
		if got := b.Translate(lang, "app.name"); got == "app.name" {
			t.Errorf("%s: app.name не переведён", lang)
		}
	}
}

func TestBundle_Translate(t *testing.T) {
	b := NewBundle(nil)
	if err := b.LoadMessages("en", []byte(`{"greet":"Hello","only_en":"English"}`)); err != nil {
		t.Fatal(err)
	}
	if err := b.LoadMessages("ru", []byte(`{"greet":"Привет"}`)); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		lang, key, want string
	}{
		{"ru", "greet", "Привет"},
		{"ru", "only_en", "English"},
		{"zh", "greet", "Hello"},
		{"en", "missing", "missing"},
	}
	for _, tt := range tests {
		if got := b.Translate(tt.lang, tt.key); got != tt.want {
			t.Errorf("Translate(%s, %s) = %q, ожидалось %q", tt.lang, tt.key, got, tt.want)
		}
	}

	if got := b.Translatef("en", "greet"); got != "Hello" {
		t.Errorf("Translatef без аргументов = %q", got)
	}
}

func TestBundle_Translatef(t *testing.T) {
	b := NewBundle(nil)
	if err := b.LoadMessages("zh", []byte(`{"sent":"已发送给 %v / %v 位用户"}`)); err != nil {
		t.Fatal(err)
	}
	if got := b.Translatef("zh", "sent", 3, 5); got != "已发送给 3 / 5 位用户" {
		t.Errorf("Translatef = %q", got)
	}
}

func TestLoadMessages_InvalidJSON(t *testing.T) {
	b := NewBundle(nil)
	if err := b.LoadMessages("en", []byte(`{broken`)); err == nil {
		t.Fatal("ожидалась ошибка разбора")
	}
}

func TestLangFromContext_Default(t *testing.T) {
	if got := LangFromContext(context.Background()); got != DefaultLang() {
		t.Errorf("LangFromContext = %q, ожидался язык по умолчанию %q", got, DefaultLang())
	}
	if got := LangFromContext(WithLang(context.Background(), "ru")); got != "ru" {
		t.Errorf("LangFromContext = %q, ожидался ru", got)
	}
}

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		name   string
		cookie string
		accept string
		want   string
	}{
		{"cookie", "ru", "en-US", "ru"},
		{"неизвестный cookie", "de", "en-US,en;q=0.9", "en"},
		{"accept-language", "", "ru-RU,ru;q=0.9", "ru"},
		{"китайский вариант", "", "zh-CN", "zh"},
		{"ничего", "", "", DefaultLang()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/admin/dashboard", nil)
			if tt.cookie != "" {
				r.Header.Set("Cookie", LangCookieName+"="+tt.cookie)
			}
			if tt.accept != "" {
				r.Header.Set("Accept-Language", tt.accept)
			}
			if got := detectLanguage(r); got != tt.want {
				t.Errorf("detectLanguage = %q, ожидалось %q", got, tt.want)
			}
		})
	}
}

func TestIsSupported(t *testing.T) {
	for _, lang := range []string{"zh", "en", "ru"} {
		if !IsSupported(lang) {
			t.Errorf("%s должен поддерживаться", lang)
		}
	}
	if IsSupported("de") {
		t.Error("de не должен поддерживаться")
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
