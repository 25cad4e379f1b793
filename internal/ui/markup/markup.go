// Пакет markup — построитель HTML для templ-компонентов консоли.
// Компоненты объявляются через markup.Func и пишут разметку в templ-поток;
// весь текст и значения атрибутов проходят через format.Escape,
// URL в атрибутах — через templ.URL (санитизация схемы).
package markup

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"github.com/bigkaa/sharebot-console/internal/ui/format"
	"github.com/bigkaa/sharebot-console/internal/ui/i18n"
)

// Writer пишет HTML в поток, запоминая первую ошибку записи.
// После первой ошибки дальнейшие вызовы ничего не делают.
type Writer struct {
	ctx context.Context
	w   io.Writer
	err error
}

// New создаёт Writer поверх w.
func New(ctx context.Context, w io.Writer) *Writer {
	return &Writer{ctx: ctx, w: w}
}

// Func превращает функцию построения разметки в templ.Component.
func Func(fn func(m *Writer)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		m := New(ctx, w)
		fn(m)
		return m.err
	})
}

// Ctx возвращает контекст рендеринга (язык, сессия, CSRF).
func (m *Writer) Ctx() context.Context { return m.ctx }

// Err возвращает первую ошибку записи.
func (m *Writer) Err() error { return m.err }

// Raw пишет доверенную разметку без экранирования.
func (m *Writer) Raw(parts ...string) *Writer {
	for _, p := range parts {
		if m.err != nil {
			return m
		}
		_, m.err = io.WriteString(m.w, p)
	}
	return m
}

// Text пишет экранированный текст.
func (m *Writer) Text(s string) *Writer {
	return m.Raw(format.Escape(s))
}

// Textf пишет экранированный результат fmt.Sprintf.
func (m *Writer) Textf(format string, args ...any) *Writer {
	return m.Text(fmt.Sprintf(format, args...))
}

// Int пишет целое число.
func (m *Writer) Int(n int64) *Writer {
	return m.Raw(strconv.FormatInt(n, 10))
}

// T пишет экранированный перевод ключа для языка из контекста.
func (m *Writer) T(key string) *Writer {
	return m.Text(i18n.T(m.ctx, key))
}

// Tf пишет экранированный перевод с подстановкой аргументов.
func (m *Writer) Tf(key string, args ...any) *Writer {
	return m.Text(i18n.Tf(m.ctx, key, args...))
}

// Attr пишет атрибут ` name="value"` с экранированным значением.
func (m *Writer) Attr(name, value string) *Writer {
	return m.Raw(" ", name, `="`, format.Escape(value), `"`)
}

// AttrIf пишет атрибут только при cond == true.
func (m *Writer) AttrIf(cond bool, name, value string) *Writer {
	if !cond {
		return m
	}
	return m.Attr(name, value)
}

// Flag пишет булев атрибут (checked, disabled) при on == true.
func (m *Writer) Flag(name string, on bool) *Writer {
	if !on {
		return m
	}
	return m.Raw(" ", name)
}

// URL пишет атрибут со ссылкой, санитизированной через templ.URL.
func (m *Writer) URL(name, u string) *Writer {
	return m.Attr(name, string(templ.URL(u)))
}

// Component рендерит вложенный компонент (nil пропускается).
func (m *Writer) Component(c templ.Component) *Writer {
	if m.err != nil || c == nil {
		return m
	}
	m.err = c.Render(m.ctx, m.w)
	return m
}

// Open пишет открывающий тег с атрибутами-парами name, value.
// Нечётный хвост игнорируется.
func (m *Writer) Open(tag string, attrs ...string) *Writer {
	m.Raw("<", tag)
	for i := 0; i+1 < len(attrs); i += 2 {
		m.Attr(attrs[i], attrs[i+1])
	}
	return m.Raw(">")
}

// Close пишет закрывающий тег.
func (m *Writer) Close(tag string) *Writer {
	return m.Raw("</", tag, ">")
}

// Elem пишет элемент с экранированным текстом внутри.
func (m *Writer) Elem(tag, text string, attrs ...string) *Writer {
	return m.Open(tag, attrs...).Text(text).Close(tag)
}
