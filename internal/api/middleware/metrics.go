// metrics.go — Prometheus HTTP метрики консоли.
// Регистрирует метрики: sc_http_requests_total, sc_http_request_duration_seconds.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP метрики
var (
	// httpRequestsTotal — общее количество HTTP-запросов.
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sc_http_requests_total",
			Help: "Общее количество HTTP-запросов к консоли",
		},
		[]string{"method", "path", "status"},
	)

	// httpRequestDuration — гистограмма длительности HTTP-запросов.
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sc_http_request_duration_seconds",
			Help:    "Длительность HTTP-запросов к консоли в секундах",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// MetricsMiddleware возвращает HTTP middleware для сбора Prometheus метрик.
// Записывает количество запросов и длительность для каждого endpoint.
func MetricsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Нормализуем путь для лейблов метрик
			// (заменяем коды раздач на {code} для предотвращения кардинальности)
			normalizedPath := normalizePath(r.URL.Path)

			wrapped := newMetricsResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(wrapped.statusCode)

			httpRequestsTotal.WithLabelValues(r.Method, normalizedPath, status).Inc()
			httpRequestDuration.WithLabelValues(r.Method, normalizedPath).Observe(duration)
		})
	}
}

// metricsResponseWriter — обёртка для перехвата статус-кода.
type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newMetricsResponseWriter(w http.ResponseWriter) *metricsResponseWriter {
	return &metricsResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *metricsResponseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Unwrap позволяет http.ResponseController получить доступ к оригинальному ResponseWriter.
func (rw *metricsResponseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

const sharesPartialPrefix = "/admin/partials/shares/"

// knownPaths — статические пути консоли, попадающие в метрики как есть.
var knownPaths = map[string]bool{}

func init() {
	for _, p := range []string{
		"/",
		"/health/live",
		"/health/ready",
		"/metrics",
		"/admin",
		"/admin/",
		"/admin/login",
		"/admin/logout",
		"/admin/set-language",
		"/admin/events/health",
		"/admin/dashboard",
		"/admin/users",
		"/admin/shares",
		"/admin/broadcast",
		"/admin/banned",
		"/admin/settings",
		"/admin/health",
		"/admin/partials/dashboard",
		"/admin/partials/users",
		"/admin/partials/shares",
		"/admin/partials/broadcast",
		"/admin/partials/banned",
		"/admin/partials/settings",
		"/admin/partials/health",
		"/admin/partials/broadcast/send",
		"/admin/partials/banned/ban",
		"/admin/partials/banned/unban",
		"/admin/partials/banned/ban-modal",
		"/admin/partials/settings/save",
		"/admin/partials/settings/reset",
		"/admin/partials/settings/preferences",
		"/admin/partials/settings/preferences/reset",
		"/admin/partials/settings/channels/force_sub_channels/add",
		"/admin/partials/settings/channels/force_sub_channels/remove",
		"/admin/partials/settings/channels/bound_channels/add",
		"/admin/partials/settings/channels/bound_channels/remove",
	} {
		knownPaths[p] = true
	}
}

// shareActions — действия над раздачей.
var shareActions = map[string]bool{
	"selection": true,
	"forward":   true,
	"save":      true,
	"protect":   true,
	"details":   true,
	"delete":    true,
}

// normalizePath заменяет код раздачи на {code} и сводит неизвестные пути
// к "other" для предотвращения взрывного роста кардинальности метрик.
// /admin/partials/shares/AbC123/forward → /admin/partials/shares/{code}/forward
func normalizePath(path string) string {
	if knownPaths[path] {
		return path
	}
	if strings.HasPrefix(path, "/static/") {
		return "/static/*"
	}
	if rest, ok := strings.CutPrefix(path, sharesPartialPrefix); ok && rest != "" {
		code, action, hasAction := strings.Cut(rest, "/")
		switch {
		case code == "":
		case !hasAction:
			return sharesPartialPrefix + "{code}"
		case shareActions[action]:
			return sharesPartialPrefix + "{code}/" + action
		}
	}
	return "other"
}
