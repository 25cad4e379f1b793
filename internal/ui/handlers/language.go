// language.go — обработчик переключения языка консоли.
package handlers

import (
	"net/http"
	"net/url"
	"time"

	"github.com/bigkaa/sharebot-console/internal/ui/i18n"
)

// langCookieMaxAge — срок хранения выбранного языка.
const langCookieMaxAge = 365 * 24 * time.Hour

// HandleSetLanguage обрабатывает POST /admin/set-language.
// Неподдерживаемый язык заменяется языком по умолчанию.
func HandleSetLanguage(w http.ResponseWriter, r *http.Request) {
	lang := r.FormValue("lang")
	if !i18n.IsSupported(lang) {
		lang = i18n.DefaultLang()
	}

	http.SetCookie(w, &http.Cookie{
		Name:     i18n.LangCookieName,
		Value:    lang,
		Path:     "/",
		MaxAge:   int(langCookieMaxAge.Seconds()),
		HttpOnly: false, // читается клиентским скриптом
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(langCookieMaxAge),
	})

	http.Redirect(w, r, backURL(r), http.StatusSeeOther)
}

// backURL — адрес возврата: путь из Referer того же хоста, иначе обзор.
func backURL(r *http.Request) string {
	ref, err := url.Parse(r.Header.Get("Referer"))
	if err != nil || ref.Path == "" || (ref.Host != "" && ref.Host != r.Host) {
		return HomePath
	}
	if ref.RawQuery != "" {
		return ref.Path + "?" + ref.RawQuery
	}
	return ref.Path
}
