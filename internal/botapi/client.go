// Пакет botapi — HTTP-клиент REST API бота раздач.
// Единая точка для всех запросов консоли к боту: bearer-токен в заголовке
// Authorization, JSON в обе стороны, классификация ошибок:
//   - 401 → ErrUnauthorized (истёкшая или отозванная сессия);
//   - сеть, таймаут, не-JSON ответ → *TransportError (errors.Is(err, ErrTransport));
//   - прочие не-2xx с JSON-телом → *APIError с сообщением бота.
//
// Тело успешного ответа декодируется в переданную структуру без проверки формы.
// Опциональная проверка контракта (kin-openapi) только логирует расхождения.
package botapi

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Ошибки клиента.
var (
	// ErrUnauthorized — бот отклонил токен (HTTP 401).
	ErrUnauthorized = errors.New("бот отклонил токен сессии")
	// ErrTransport — запрос не выполнен или ответ не разобран.
	ErrTransport = errors.New("ошибка связи с API бота")
	// ErrUnknownSetting — неизвестный ключ настройки.
	ErrUnknownSetting = errors.New("неизвестный ключ настройки")
)

// maxResponseBytes — ограничение размера читаемого ответа.
const maxResponseBytes = 8 << 20

// Prometheus-метрики клиента.
var (
	botAPIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sc_botapi_requests_total",
			Help: "Количество запросов консоли к API бота по операциям и исходам.",
		},
		[]string{"endpoint", "outcome"},
	)
	botAPIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sc_botapi_request_duration_seconds",
			Help:    "Длительность запросов к API бота в секундах.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)
)

// TransportError — сбой транспорта или разбора ответа.
type TransportError struct {
	// Op — операция клиента (например, "GET /api/shares").
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, ErrTransport.Error(), e.Err)
}

// Unwrap возвращает причину и ErrTransport для errors.Is.
func (e *TransportError) Unwrap() []error {
	return []error{ErrTransport, e.Err}
}

// APIError — бот ответил не-2xx статусом с JSON-телом.
type APIError struct {
	Op      string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: API бота вернул статус %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: API бота вернул статус %d: %s", e.Op, e.Status, e.Message)
}

// Options — параметры клиента.
type Options struct {
	// BaseURL — адрес бота (например, http://bot:8080), без завершающего слэша.
	BaseURL string
	// Timeout — таймаут одного запроса (0 — 15s).
	Timeout time.Duration
	// CACertPath — путь к CA-сертификату для TLS (пусто — системный пул).
	CACertPath string
	// ContractCheck — проверять ответы по встроенной OpenAPI-спецификации.
	ContractCheck bool
	// HTTPClient — готовый HTTP-клиент (для тестов), перекрывает Timeout и CACertPath.
	HTTPClient *http.Client
}

// Client — HTTP-клиент API бота. Безопасен для конкурентного использования.
type Client struct {
	baseURL    string
	httpClient *http.Client
	contract   *contractChecker
	logger     *slog.Logger
}

// New создаёт клиент API бота.
func New(opts Options, logger *slog.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil || base.Host == "" || (base.Scheme != "http" && base.Scheme != "https") {
		return nil, fmt.Errorf("некорректный адрес API бота %q", opts.BaseURL)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
		if opts.CACertPath != "" {
			tlsConfig, err := buildTLSConfig(opts.CACertPath)
			if err != nil {
				return nil, fmt.Errorf("загрузка CA-сертификата API бота: %w", err)
			}
			httpClient.Transport = &http.Transport{TLSClientConfig: tlsConfig}
			logger.Info("CA-сертификат API бота добавлен в пул доверия",
				slog.String("ca_cert", opts.CACertPath),
			)
		}
	}

	c := &Client{
		baseURL:    base.String(),
		httpClient: httpClient,
		logger:     logger.With(slog.String("component", "botapi")),
	}

	if opts.ContractCheck {
		c.contract, err = newContractChecker(c.logger)
		if err != nil {
			return nil, fmt.Errorf("загрузка OpenAPI-контракта бота: %w", err)
		}
	}
	return c, nil
}

// BaseURL возвращает адрес API бота.
func (c *Client) BaseURL() string { return c.baseURL }

// Ping проверяет доступность бота запросом GET к публичному пути path.
// Любой ответ ниже 500 считается признаком живого бота.
func (c *Client) Ping(ctx context.Context, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("ping: создание запроса: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Op: "ping", Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
	if resp.StatusCode >= http.StatusInternalServerError {
		return &TransportError{Op: "ping", Err: fmt.Errorf("статус %d", resp.StatusCode)}
	}
	return nil
}

// buildTLSConfig создаёт TLS-конфигурацию с кастомным CA.
func buildTLSConfig(caCertPath string) (*tls.Config, error) {
	caCert, err := os.ReadFile(caCertPath)
	if err != nil {
		return nil, fmt.Errorf("чтение CA-сертификата: %w", err)
	}

	caCertPool, err := x509.SystemCertPool()
	if err != nil {
		caCertPool = x509.NewCertPool()
	}
	if !caCertPool.AppendCertsFromPEM(caCert) {
		return nil, fmt.Errorf("в %s нет PEM-сертификатов", caCertPath)
	}

	return &tls.Config{
		RootCAs:    caCertPool,
		MinVersion: tls.VersionTLS12,
	}, nil
}

// request — описание одного вызова API.
type request struct {
	// op — метка операции для метрик и логов.
	op string
	// pattern — шаблон пути из OpenAPI-спецификации (для проверки контракта).
	pattern string
	method  string
	path    string
	query   url.Values
	token   string
	body    any
	// loginFlow — 401 означает неверный пароль, тело ответа декодируется.
	loginFlow bool
}

// do выполняет запрос и классифицирует результат.
func (c *Client) do(ctx context.Context, rq request, out any) (err error) {
	start := time.Now()
	outcome := "ok"
	defer func() {
		switch {
		case err == nil:
		case errors.Is(err, ErrUnauthorized):
			outcome = "unauthorized"
		case errors.Is(err, ErrTransport):
			outcome = "transport_error"
		default:
			outcome = "api_error"
		}
		botAPIRequestsTotal.WithLabelValues(rq.op, outcome).Inc()
		botAPIRequestDuration.WithLabelValues(rq.op).Observe(time.Since(start).Seconds())
	}()

	reqURL := c.baseURL + rq.path
	if len(rq.query) > 0 {
		reqURL += "?" + rq.query.Encode()
	}

	var bodyReader io.Reader
	if rq.body != nil {
		data, marshalErr := json.Marshal(rq.body)
		if marshalErr != nil {
			return fmt.Errorf("%s: сериализация тела запроса: %w", rq.op, marshalErr)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, rq.method, reqURL, bodyReader)
	if err != nil {
		return fmt.Errorf("%s: создание запроса: %w", rq.op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if rq.token != "" {
		req.Header.Set("Authorization", "Bearer "+rq.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Op: rq.op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &TransportError{Op: rq.op, Err: fmt.Errorf("чтение ответа: %w", err)}
	}

	if resp.StatusCode == http.StatusUnauthorized && !rq.loginFlow {
		return ErrUnauthorized
	}

	if c.contract != nil && rq.pattern != "" {
		c.contract.check(ctx, req, rq.pattern, resp.StatusCode, resp.Header, data)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 || (rq.loginFlow && resp.StatusCode == http.StatusUnauthorized) {
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(data, out); err != nil {
			return &TransportError{Op: rq.op, Err: fmt.Errorf("некорректный JSON (статус %d): %w", resp.StatusCode, err)}
		}
		return nil
	}

	var eb struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(data, &eb); err != nil {
		return &TransportError{Op: rq.op, Err: fmt.Errorf("статус %d без JSON-тела", resp.StatusCode)}
	}
	if out != nil {
		_ = json.Unmarshal(data, out)
	}
	return &APIError{Op: rq.op, Status: resp.StatusCode, Message: errorMessage(eb.Error, eb.Message)}
}

// errorMessage извлекает текст ошибки: поле error (строка или {message})
// либо поле message.
func errorMessage(rawErr json.RawMessage, message string) string {
	if len(rawErr) > 0 {
		var s string
		if json.Unmarshal(rawErr, &s) == nil && s != "" {
			return s
		}
		var obj struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(rawErr, &obj) == nil && obj.Message != "" {
			return obj.Message
		}
	}
	return message
}
