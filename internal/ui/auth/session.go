// Пакет auth — сессия администратора консоли.
// Токен API бота хранится в зашифрованном cookie (AES-256-GCM);
// отозванные токены учитываются в RevocationStore.
package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// SessionCookieName — имя cookie с зашифрованной сессией.
const SessionCookieName = "sc_session"

// DefaultMaxAge — время жизни сессии (совпадает со сроком токена бота).
const DefaultMaxAge = 24 * time.Hour

// ErrNoSession — в запросе нет действующей сессии.
var ErrNoSession = errors.New("сессия отсутствует")

// Session — сессия администратора. Нулевое значение — неаутентифицированная сессия.
type Session struct {
	token    string
	issuedAt time.Time
}

// NewSession создаёт сессию для токена, выданного ботом.
func NewSession(token string, issuedAt time.Time) Session {
	return Session{token: token, issuedAt: issuedAt}
}

// Token возвращает bearer-токен API бота.
func (s Session) Token() string { return s.token }

// IssuedAt возвращает время входа.
func (s Session) IssuedAt() time.Time { return s.issuedAt }

// Authenticated сообщает, есть ли в сессии токен.
func (s Session) Authenticated() bool { return s.token != "" }

// Fingerprint возвращает SHA-256 отпечаток токена (hex).
// Сам токен нигде, кроме cookie, не хранится.
func (s Session) Fingerprint() string { return Fingerprint(s.token) }

// Fingerprint возвращает SHA-256 отпечаток токена (hex).
func Fingerprint(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// sessionData — содержимое cookie.
type sessionData struct {
	Token    string `json:"token"`
	IssuedAt int64  `json:"issued_at"`
}

// Codec шифрует сессию в cookie и обратно через AES-256-GCM.
type Codec struct {
	gcm    cipher.AEAD
	maxAge time.Duration
	secure bool
	now    func() time.Time
}

// NewCodec создаёт кодек сессий.
// key — base64 32-байтового ключа или произвольная строка (хешируется SHA-256).
// Пустой key — случайный ключ, сессии не переживают рестарт.
func NewCodec(key string, maxAge time.Duration, secure bool) (*Codec, error) {
	keyBytes, err := DeriveKey(key)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания AES cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания GCM: %w", err)
	}

	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &Codec{gcm: gcm, maxAge: maxAge, secure: secure, now: time.Now}, nil
}

// DeriveKey превращает секрет конфигурации в 32-байтовый ключ.
func DeriveKey(key string) ([]byte, error) {
	if key == "" {
		keyBytes := make([]byte, 32)
		if _, err := io.ReadFull(rand.Reader, keyBytes); err != nil {
			return nil, fmt.Errorf("ошибка генерации ключа сессии: %w", err)
		}
		return keyBytes, nil
	}
	keyBytes, err := base64.StdEncoding.DecodeString(key)
	if err != nil || len(keyBytes) != 32 {
		sum := sha256.Sum256([]byte(key))
		return sum[:], nil
	}
	return keyBytes, nil
}

// MaxAge возвращает время жизни сессии.
func (c *Codec) MaxAge() time.Duration { return c.maxAge }

// Encrypt шифрует сессию в base64-строку.
func (c *Codec) Encrypt(s Session) (string, error) {
	plaintext, err := json.Marshal(sessionData{Token: s.token, IssuedAt: s.issuedAt.Unix()})
	if err != nil {
		return "", fmt.Errorf("ошибка сериализации сессии: %w", err)
	}

	nonce := make([]byte, c.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("ошибка генерации nonce: %w", err)
	}

	// nonce в начале шифротекста
	ciphertext := c.gcm.Seal(nonce, nonce, plaintext, nil)
	return base64.URLEncoding.EncodeToString(ciphertext), nil
}

// Decrypt расшифровывает сессию из base64-строки.
func (c *Codec) Decrypt(encrypted string) (Session, error) {
	ciphertext, err := base64.URLEncoding.DecodeString(encrypted)
	if err != nil {
		return Session{}, fmt.Errorf("ошибка декодирования base64: %w", err)
	}

	nonceSize := c.gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return Session{}, errors.New("зашифрованные данные слишком короткие")
	}

	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := c.gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return Session{}, fmt.Errorf("ошибка дешифрования сессии: %w", err)
	}

	var data sessionData
	if err := json.Unmarshal(plaintext, &data); err != nil {
		return Session{}, fmt.Errorf("ошибка десериализации сессии: %w", err)
	}
	return Session{token: data.Token, issuedAt: time.Unix(data.IssuedAt, 0)}, nil
}

// Save записывает сессию в cookie ответа.
func (c *Codec) Save(w http.ResponseWriter, s Session) error {
	encrypted, err := c.Encrypt(s)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    encrypted,
		Path:     "/admin",
		MaxAge:   int(c.maxAge / time.Second),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Load читает сессию из cookie запроса.
// Отсутствующий cookie, пустой токен и истёкший срок — ErrNoSession.
func (c *Codec) Load(r *http.Request) (Session, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return Session{}, ErrNoSession
	}
	s, err := c.Decrypt(cookie.Value)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %w", ErrNoSession, err)
	}
	if !s.Authenticated() || c.now().After(s.issuedAt.Add(c.maxAge)) {
		return Session{}, ErrNoSession
	}
	return s, nil
}

// Clear удаляет cookie сессии.
func (c *Codec) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/admin",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
