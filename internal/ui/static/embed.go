// Пакет static — встроенные статические ресурсы консоли.
// Стили и клиентский скрипт встраиваются в бинарник через //go:embed
// и раздаются по /static/*. HTMX подключается с CDN.
package static

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed css/*.css js/*.js
var content embed.FS

// FileSystem возвращает http.FileSystem для обработки запросов к /static/*.
// Файлы доступны по путям вида /static/css/console.css.
func FileSystem() http.FileSystem {
	return http.FS(content)
}

// FS возвращает fs.FS для прямого доступа к встроенным файлам.
func FS() fs.FS {
	return content
}
