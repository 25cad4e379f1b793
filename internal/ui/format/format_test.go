package format

import (
	"reflect"
	"testing"
	"time"
)

func TestNum(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1.0K"},
		{2345, "2.3K"},
		{999_999, "1000.0K"},
		{1_000_000, "1.0M"},
		{1_550_000, "1.6M"},
	}
	for _, tt := range tests {
		if got := Num(tt.in); got != tt.want {
			t.Errorf("Num(%d) = %q, ожидалось %q", tt.in, got, tt.want)
		}
	}
}

func TestUptime(t *testing.T) {
	tests := []struct {
		name string
		in   int64
		want string
	}{
		{"ноль", 0, "0m"},
		{"отрицательное значение", -5, "0m"},
		{"только минуты", 125, "2m"},
		{"часы и минуты", 3*3600 + 4*60, "3h 4m"},
		{"дни без часов и минут", 2 * 86400, "2d 0m"},
		{"нулевые часы опускаются", 86400 + 5*60, "1d 5m"},
		{"полная форма", 86400 + 3600 + 60, "1d 1h 1m"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Uptime(tt.in); got != tt.want {
				t.Errorf("Uptime(%d) = %q, ожидалось %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestEscape(t *testing.T) {
	got := Escape(`<script>alert("x")</script> & 'y'`)
	want := "&lt;script&gt;alert(&#34;x&#34;)&lt;/script&gt; &amp; &#39;y&#39;"
	if got != want {
		t.Errorf("Escape() = %q, ожидалось %q", got, want)
	}
}

func TestUnixTime(t *testing.T) {
	if got := UnixTime(0, time.UTC); got != "-" {
		t.Errorf("UnixTime(0) = %q, ожидалось -", got)
	}
	if got := UnixTime(1700000000.5, time.UTC); got != "2023-11-14 22:13" {
		t.Errorf("UnixTime() = %q, ожидалось 2023-11-14 22:13", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("привет мир", 6); got != "привет…" {
		t.Errorf("Truncate() = %q", got)
	}
	if got := Truncate("abc", 10); got != "abc" {
		t.Errorf("Truncate() не должен менять короткую строку, получено %q", got)
	}
}

func TestPageWindow(t *testing.T) {
	tests := []struct {
		name       string
		cur, total int
		want       []int
	}{
		{"одна страница", 1, 1, nil},
		{"мало страниц", 2, 4, []int{1, 2, 3, 4}},
		{"начало", 1, 10, []int{1, 2, 3, 0, 10}},
		{"середина", 5, 10, []int{1, 0, 3, 4, 5, 6, 7, 0, 10}},
		{"конец", 10, 10, []int{1, 0, 8, 9, 10}},
		{"cur вне диапазона", 42, 6, []int{1, 0, 4, 5, 6}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PageWindow(tt.cur, tt.total); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("PageWindow(%d, %d) = %v, ожидалось %v", tt.cur, tt.total, got, tt.want)
			}
		})
	}
}
