// Пакет format — чистые функции форматирования значений для шаблонов консоли:
// числа, uptime, время, проценты, окно пагинации, экранирование текста.
package format

import (
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// Num форматирует счётчик компактно: 1.5M, 2.3K, 999.
func Num(n int64) string {
	switch {
	case n >= 1_000_000:
		return strconv.FormatFloat(float64(n)/1_000_000, 'f', 1, 64) + "M"
	case n >= 1_000:
		return strconv.FormatFloat(float64(n)/1_000, 'f', 1, 64) + "K"
	default:
		return strconv.FormatInt(n, 10)
	}
}

// Uptime форматирует длительность в секундах как "Nd Nh Nm".
// Нулевые старшие единицы опускаются, 0 секунд → "0m".
func Uptime(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	days := seconds / 86400
	hours := (seconds % 86400) / 3600
	minutes := (seconds % 3600) / 60

	parts := make([]string, 0, 3)
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	parts = append(parts, fmt.Sprintf("%dm", minutes))
	return strings.Join(parts, " ")
}

// Escape экранирует HTML-спецсимволы (& < > " ').
// Через неё проходит весь текст и значения атрибутов markup.Writer.
func Escape(s string) string {
	return html.EscapeString(s)
}

// UnixTime форматирует Unix timestamp (секунды, допускается дробная часть).
// Нулевое значение → "-".
func UnixTime(ts float64, loc *time.Location) string {
	if ts <= 0 {
		return "-"
	}
	if loc == nil {
		loc = time.Local
	}
	sec := int64(ts)
	nsec := int64((ts - float64(sec)) * float64(time.Second))
	return time.Unix(sec, nsec).In(loc).Format("2006-01-02 15:04")
}

// Percent форматирует процент с одним знаком после запятой.
func Percent(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64) + "%"
}

// Megabytes форматирует объём памяти в мегабайтах.
func Megabytes(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64) + " MB"
}

// Truncate обрезает строку до n рун, добавляя многоточие.
func Truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "…"
}

// PageWindow возвращает номера страниц для пагинатора: первая, последняя
// и окно cur±2. Значение 0 обозначает многоточие.
// При total ≤ 1 возвращает nil (пагинатор не нужен).
func PageWindow(cur, total int) []int {
	if total <= 1 {
		return nil
	}
	if cur < 1 {
		cur = 1
	}
	if cur > total {
		cur = total
	}

	var pages []int
	last := 0
	for p := 1; p <= total; p++ {
		if p == 1 || p == total || (p >= cur-2 && p <= cur+2) {
			if last != 0 && p-last > 1 {
				pages = append(pages, 0)
			}
			pages = append(pages, p)
			last = p
		}
	}
	return pages
}
