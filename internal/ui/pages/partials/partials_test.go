package partials

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/a-h/templ"

	"github.com/bigkaa/sharebot-console/internal/botapi"
	"github.com/bigkaa/sharebot-console/internal/ui/selection"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	if err := c.Render(context.Background(), &buf); err != nil {
		t.Fatalf("ошибка рендеринга: %v", err)
	}
	return buf.String()
}

// TestUsers_Pagination проверяет нумерацию строк и пагинатор по полям страницы ответа.
func TestUsers_Pagination(t *testing.T) {
	page := &botapi.UserPage{
		Users:      []int64{7},
		Pagination: botapi.Pagination{Total: 41, Page: 3, PerPage: 20, TotalPages: 3},
	}
	html := render(t, Users(page, 20))

	tests := []struct {
		name string
		want string
	}{
		{"номер строки со смещением страницы", "<td>41</td>"},
		{"ссылка на предыдущую страницу", `hx-get="` + UsersURL + `?page=2"`},
		{"текущая страница активна", `class="active" hx-get="` + UsersURL + `?page=3"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !strings.Contains(html, tt.want) {
				t.Errorf("ожидалось %q в разметке:\n%s", tt.want, html)
			}
		})
	}
}

// TestShares_Pagination проверяет адрес обновления списка и пагинатор раздач.
func TestShares_Pagination(t *testing.T) {
	html := render(t, Shares(SharesData{
		Page:  &botapi.SharePage{Pagination: botapi.Pagination{Total: 30, Page: 2, PerPage: 15, TotalPages: 2}},
		Board: selection.NewBoard(),
	}))

	if want := `hx-get="` + SharesPageURL(2, "") + `"`; !strings.Contains(html, want) {
		t.Errorf("список должен обновляться с текущей страницы %q:\n%s", want, html)
	}
	if want := `hx-get="` + SharesPageURL(1, "") + `"`; !strings.Contains(html, want) {
		t.Errorf("ожидалась ссылка на первую страницу %q", want)
	}
}
