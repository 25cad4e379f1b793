// Пакет config — загрузка и валидация конфигурации консоли бота раздач
// из переменных окружения (префикс SC_).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Config содержит все параметры конфигурации консоли.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string

	// --- API бота ---

	// Адрес REST API бота (без завершающего слэша)
	BotAPIURL string
	// Таймаут одного запроса к API бота
	BotAPITimeout time.Duration
	// Путь к CA-сертификату для TLS-соединений с ботом (опционально)
	BotAPICACertPath string
	// Проверять ответы бота по OpenAPI-контракту
	BotAPIContractCheck bool
	// Публичный путь бота для проверки доступности (dephealth)
	BotHealthPath string

	// --- Сессии ---

	// Секрет шифрования cookie и подписи CSRF (пусто — случайный)
	SessionSecret string
	// Время жизни сессии
	SessionMaxAge time.Duration
	// Secure-флаг cookie (true за HTTPS)
	CookieSecure bool
	// Размер in-memory хранилища отозванных токенов
	RevocationCacheSize int

	// --- Интерфейс ---

	// Время показа уведомления
	ToastDuration time.Duration
	// Размер страницы пользователей по умолчанию
	UsersPerPage int
	// Размер страницы раздач по умолчанию
	SharesPerPage int
	// Язык по умолчанию (zh, en, ru)
	DefaultLang string
	// Интервал SSE-обновления состояния бота
	SSEInterval time.Duration

	// --- Redis (опционально) ---

	// Адрес Redis (пусто — отзыв токенов в памяти)
	RedisAddr string
	// Пароль Redis
	RedisPassword string
	// Номер базы Redis
	RedisDB int

	// --- PostgreSQL (опционально) ---

	// Хост PostgreSQL (пусто — без БД: настройки по умолчанию, журнал выключен)
	DBHost string
	// Порт PostgreSQL
	DBPort int
	// Имя базы данных
	DBName string
	// Имя пользователя PostgreSQL
	DBUser string
	// Пароль пользователя PostgreSQL
	DBPassword string
	// Режим SSL: disable, require, verify-ca, verify-full
	DBSSLMode string

	// --- Мониторинг зависимостей ---

	// Группа сервиса в topologymetrics
	DephealthGroup string
	// Интервал проверки зависимостей
	DephealthCheckInterval time.Duration

	// --- Graceful shutdown ---

	// Таймаут graceful shutdown HTTP-сервера
	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения, валидирует
// обязательные поля и возвращает Config или ошибку.
// Перед чтением загружается .env (SC_ENV_FILE, по умолчанию .env), если он есть;
// уже заданные переменные окружения не перезаписываются.
func Load() (*Config, error) {
	if err := loadEnvFile(getEnvDefault("SC_ENV_FILE", ".env")); err != nil {
		return nil, err
	}

	cfg := &Config{}
	var err error

	// --- Сервер ---

	// SC_PORT — порт HTTP-сервера (по умолчанию 8080)
	cfg.Port, err = getEnvInt("SC_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("SC_PORT: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("SC_PORT: значение %d вне допустимого диапазона 1-65535", cfg.Port)
	}

	// SC_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("SC_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("SC_LOG_LEVEL: %w", err)
	}

	// SC_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("SC_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("SC_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// --- API бота ---

	// SC_BOT_API_URL — обязательный
	cfg.BotAPIURL, err = getEnvRequired("SC_BOT_API_URL")
	if err != nil {
		return nil, err
	}
	cfg.BotAPIURL = strings.TrimRight(cfg.BotAPIURL, "/")
	if u, perr := url.Parse(cfg.BotAPIURL); perr != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("SC_BOT_API_URL: ожидается http(s)-адрес, получено %q", cfg.BotAPIURL)
	}

	cfg.BotAPITimeout, err = getEnvDuration("SC_BOT_API_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("SC_BOT_API_TIMEOUT: %w", err)
	}

	cfg.BotAPICACertPath = getEnvDefault("SC_BOT_API_CA_CERT_PATH", "")

	cfg.BotAPIContractCheck, err = getEnvBool("SC_BOT_API_CONTRACT_CHECK", false)
	if err != nil {
		return nil, fmt.Errorf("SC_BOT_API_CONTRACT_CHECK: %w", err)
	}

	cfg.BotHealthPath = getEnvDefault("SC_BOT_HEALTH_PATH", "/")
	if !strings.HasPrefix(cfg.BotHealthPath, "/") {
		return nil, fmt.Errorf("SC_BOT_HEALTH_PATH: путь должен начинаться с /, получено %q", cfg.BotHealthPath)
	}

	// --- Сессии ---

	cfg.SessionSecret = getEnvDefault("SC_SESSION_SECRET", "")

	cfg.SessionMaxAge, err = getEnvDuration("SC_SESSION_MAX_AGE", 24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("SC_SESSION_MAX_AGE: %w", err)
	}
	if cfg.SessionMaxAge < time.Minute {
		return nil, fmt.Errorf("SC_SESSION_MAX_AGE: значение %s меньше 1m", cfg.SessionMaxAge)
	}

	cfg.CookieSecure, err = getEnvBool("SC_COOKIE_SECURE", false)
	if err != nil {
		return nil, fmt.Errorf("SC_COOKIE_SECURE: %w", err)
	}

	cfg.RevocationCacheSize, err = getEnvInt("SC_REVOCATION_CACHE_SIZE", 10000)
	if err != nil {
		return nil, fmt.Errorf("SC_REVOCATION_CACHE_SIZE: %w", err)
	}
	if cfg.RevocationCacheSize < 1 {
		return nil, fmt.Errorf("SC_REVOCATION_CACHE_SIZE: значение %d должно быть положительным", cfg.RevocationCacheSize)
	}

	// --- Интерфейс ---

	cfg.ToastDuration, err = getEnvDuration("SC_TOAST_DURATION", 4*time.Second)
	if err != nil {
		return nil, fmt.Errorf("SC_TOAST_DURATION: %w", err)
	}

	cfg.UsersPerPage, err = getEnvInt("SC_USERS_PER_PAGE", 20)
	if err != nil {
		return nil, fmt.Errorf("SC_USERS_PER_PAGE: %w", err)
	}
	cfg.SharesPerPage, err = getEnvInt("SC_SHARES_PER_PAGE", 15)
	if err != nil {
		return nil, fmt.Errorf("SC_SHARES_PER_PAGE: %w", err)
	}
	for name, v := range map[string]int{"SC_USERS_PER_PAGE": cfg.UsersPerPage, "SC_SHARES_PER_PAGE": cfg.SharesPerPage} {
		if v < 1 || v > 100 {
			return nil, fmt.Errorf("%s: значение %d вне допустимого диапазона 1-100", name, v)
		}
	}

	cfg.DefaultLang = getEnvDefault("SC_DEFAULT_LANG", "zh")
	switch cfg.DefaultLang {
	case "zh", "en", "ru":
	default:
		return nil, fmt.Errorf("SC_DEFAULT_LANG: недопустимое значение %q, допустимые: zh, en, ru", cfg.DefaultLang)
	}

	cfg.SSEInterval, err = getEnvDuration("SC_SSE_INTERVAL", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("SC_SSE_INTERVAL: %w", err)
	}

	// --- Redis ---

	cfg.RedisAddr = getEnvDefault("SC_REDIS_ADDR", "")
	cfg.RedisPassword = getEnvDefault("SC_REDIS_PASSWORD", "")
	cfg.RedisDB, err = getEnvInt("SC_REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("SC_REDIS_DB: %w", err)
	}

	// --- PostgreSQL ---

	cfg.DBHost = getEnvDefault("SC_DB_HOST", "")
	cfg.DBPort, err = getEnvInt("SC_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("SC_DB_PORT: %w", err)
	}
	cfg.DBName = getEnvDefault("SC_DB_NAME", "sharebot_console")
	cfg.DBUser = getEnvDefault("SC_DB_USER", "")
	cfg.DBPassword = getEnvDefault("SC_DB_PASSWORD", "")
	cfg.DBSSLMode = getEnvDefault("SC_DB_SSL_MODE", "disable")
	validSSLModes := map[string]bool{
		"disable": true, "require": true, "verify-ca": true, "verify-full": true,
	}
	if !validSSLModes[cfg.DBSSLMode] {
		return nil, fmt.Errorf("SC_DB_SSL_MODE: недопустимое значение %q, допустимые: disable, require, verify-ca, verify-full", cfg.DBSSLMode)
	}
	if cfg.DatabaseEnabled() && cfg.DBUser == "" {
		return nil, errors.New("SC_DB_USER: обязателен при заданном SC_DB_HOST")
	}

	// --- Мониторинг зависимостей ---

	cfg.DephealthGroup = getEnvDefault("SC_DEPHEALTH_GROUP", "sharebot")
	cfg.DephealthCheckInterval, err = getEnvDuration("SC_DEPHEALTH_CHECK_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("SC_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	// --- Graceful shutdown ---

	cfg.ShutdownTimeout, err = getEnvDuration("SC_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("SC_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// DatabaseEnabled сообщает, настроен ли PostgreSQL.
func (c *Config) DatabaseEnabled() bool {
	return c.DBHost != ""
}

// RedisEnabled сообщает, настроен ли Redis.
func (c *Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}

// DatabaseDSN возвращает строку подключения к PostgreSQL.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBName, c.DBUser, c.DBPassword, c.DBSSLMode,
	)
}

// DatabaseURL возвращает URL подключения в формате postgres://.
func (c *Config) DatabaseURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     fmt.Sprintf("%s:%d", c.DBHost, c.DBPort),
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=" + c.DBSSLMode,
	}
	return u.String()
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// loadEnvFile загружает переменные из .env-файла. Отсутствующий файл — не ошибка.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("SC_ENV_FILE: ошибка чтения %s: %w", path, err)
	}
	return nil
}

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvBool возвращает булево значение переменной окружения или значение по умолчанию.
func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("некорректное булево значение: %q", val)
	}
	return b, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	if d <= 0 {
		return 0, fmt.Errorf("длительность должна быть положительной: %q", val)
	}
	return d, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}
