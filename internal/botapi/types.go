package botapi

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// LoginResponse — ответ POST /api/login.
type LoginResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// DatabaseConnected — значение поля database при доступной БД бота.
const DatabaseConnected = "connected"

// Dashboard — ответ GET /api/dashboard.
type Dashboard struct {
	System struct {
		BotUsername string `json:"bot_username"`
		Uptime      int64  `json:"uptime"`
		Database    string `json:"database"`
	} `json:"system"`
	Users struct {
		Total  int64 `json:"total"`
		Today  int64 `json:"today"`
		Week   int64 `json:"week"`
		Banned int64 `json:"banned"`
	} `json:"users"`
	Shares struct {
		Total          int64 `json:"total"`
		ShareAccessed  int64 `json:"share_accessed"`
		FilesShared    int64 `json:"files_shared"`
		LinksGenerated int64 `json:"links_generated"`
	} `json:"shares"`
	Activity struct {
		Broadcasts     int64 `json:"broadcasts"`
		TokensVerified int64 `json:"tokens_verified"`
	} `json:"activity"`
}

// Pagination — общие поля постраничных ответов.
type Pagination struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalPages int `json:"total_pages"`
}

// UserPage — ответ GET /api/users (список Telegram ID пользователей).
type UserPage struct {
	Users []int64 `json:"users"`
	Pagination
}

// Share — раздача.
type Share struct {
	Code           string   `json:"code"`
	OwnerID        int64    `json:"owner_id"`
	Title          string   `json:"title"`
	FilesCount     int      `json:"files_count"`
	AccessCount    int64    `json:"access_count"`
	ProtectContent bool     `json:"protect_content"`
	Link           string   `json:"link"`
	GroupText      string   `json:"group_text"`
	Keywords       []string `json:"keywords"`
	CreatedAt      float64  `json:"created_at"`
	UpdatedAt      float64  `json:"updated_at,omitempty"`
	MessageIDs     []int64  `json:"message_ids,omitempty"`
}

// SharePage — ответ GET /api/shares.
type SharePage struct {
	Shares []Share `json:"shares"`
	Pagination
}

// ShareQuery — параметры GET /api/shares.
type ShareQuery struct {
	Page    int
	PerPage int
	Search  string
}

// ShareUpdate — частичное обновление раздачи (PUT /api/shares/{code}).
// Nil-поля не отправляются.
type ShareUpdate struct {
	Keywords       *[]string `json:"keywords,omitempty"`
	GroupText      *string   `json:"group_text,omitempty"`
	ProtectContent *bool     `json:"protect_content,omitempty"`
}

// ForwardRequest — тело POST /api/shares/{code}/forward.
type ForwardRequest struct {
	Keywords       []string `json:"keywords"`
	GroupText      string   `json:"group_text"`
	ForwardAll     bool     `json:"forward_all"`
	ForwardIndices []int    `json:"forward_indices"`
}

// ForwardResult — ответ пересылки.
type ForwardResult struct {
	Success    bool   `json:"success"`
	Successful int    `json:"successful"`
	Failed     int    `json:"failed"`
	Error      string `json:"error,omitempty"`
}

// BroadcastResult — ответ POST /api/broadcast.
type BroadcastResult struct {
	Success    bool   `json:"success"`
	Total      int    `json:"total"`
	Successful int    `json:"successful"`
	Failed     int    `json:"failed"`
	Error      string `json:"error,omitempty"`
}

// BannedUser — запись чёрного списка.
type BannedUser struct {
	UserID   int64   `json:"user_id"`
	Reason   string  `json:"reason"`
	BannedAt float64 `json:"banned_at"`
}

// BannedList — ответ GET /api/banned.
type BannedList struct {
	BannedUsers []BannedUser `json:"banned_users"`
	Total       int          `json:"total"`
}

// BanRequest — тело POST /api/ban и /api/unban.
type BanRequest struct {
	UserID int64  `json:"user_id"`
	Reason string `json:"reason,omitempty"`
}

// Result — типовой ответ операций изменения.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Health — ответ GET /api/health.
type Health struct {
	Database   string  `json:"database"`
	MemoryMB   float64 `json:"memory_mb"`
	CPUPercent float64 `json:"cpu_percent"`
	Threads    int     `json:"threads"`
	Timestamp  float64 `json:"timestamp"`
}

// ChannelList — список ID каналов. При декодировании принимает как числа,
// так и числовые строки; дубликаты отбрасываются с сохранением порядка.
type ChannelList []int64

// UnmarshalJSON реализует json.Unmarshaler.
func (cl *ChannelList) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		if string(data) == "null" {
			*cl = nil
			return nil
		}
		return fmt.Errorf("список каналов: %w", err)
	}
	out := make(ChannelList, 0, len(raw))
	for _, item := range raw {
		var id int64
		if err := json.Unmarshal(item, &id); err != nil {
			var s string
			if err := json.Unmarshal(item, &s); err != nil {
				continue
			}
			if id, err = strconv.ParseInt(strings.TrimSpace(s), 10, 64); err != nil {
				continue
			}
		}
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	*cl = out
	return nil
}

// Settings — ответ GET /api/settings.
type Settings struct {
	IsVerify             bool `json:"is_verify"`
	ProtectContent       bool `json:"protect_content"`
	ShowPromo            bool `json:"show_promo"`
	DisableChannelButton bool `json:"disable_channel_button"`

	VerifyExpire    int64 `json:"verify_expire"`
	AutoDeleteTime  int64 `json:"auto_delete_time"`
	ShareCodeLength int64 `json:"share_code_length"`
	RateLimitMax    int64 `json:"rate_limit_max"`
	RateLimitWindow int64 `json:"rate_limit_window"`

	StartMessage      string `json:"start_message"`
	ForceSubMessage   string `json:"force_sub_message"`
	UserReplyText     string `json:"user_reply_text"`
	PromoText         string `json:"promo_text"`
	AboutText         string `json:"about_text"`
	HelpText          string `json:"help_text"`
	AdminHelpText     string `json:"admin_help_text"`
	KeywordButtonText string `json:"keyword_button_text"`
	CustomCaption     string `json:"custom_caption"`
	CustomButtons     string `json:"custom_buttons"`

	ForceSubChannels ChannelList `json:"force_sub_channels"`
	BoundChannels    ChannelList `json:"bound_channels"`
}

// SettingsPatch — частичное обновление настроек (PUT /api/settings).
// Отправляются только заданные (не nil) ключи.
type SettingsPatch struct {
	IsVerify             *bool `json:"is_verify,omitempty"`
	ProtectContent       *bool `json:"protect_content,omitempty"`
	ShowPromo            *bool `json:"show_promo,omitempty"`
	DisableChannelButton *bool `json:"disable_channel_button,omitempty"`

	VerifyExpire    *int64 `json:"verify_expire,omitempty"`
	AutoDeleteTime  *int64 `json:"auto_delete_time,omitempty"`
	ShareCodeLength *int64 `json:"share_code_length,omitempty"`
	RateLimitMax    *int64 `json:"rate_limit_max,omitempty"`
	RateLimitWindow *int64 `json:"rate_limit_window,omitempty"`

	StartMessage      *string `json:"start_message,omitempty"`
	ForceSubMessage   *string `json:"force_sub_message,omitempty"`
	UserReplyText     *string `json:"user_reply_text,omitempty"`
	PromoText         *string `json:"promo_text,omitempty"`
	AboutText         *string `json:"about_text,omitempty"`
	HelpText          *string `json:"help_text,omitempty"`
	AdminHelpText     *string `json:"admin_help_text,omitempty"`
	KeywordButtonText *string `json:"keyword_button_text,omitempty"`
	CustomCaption     *string `json:"custom_caption,omitempty"`
	CustomButtons     *string `json:"custom_buttons,omitempty"`

	ForceSubChannels *[]int64 `json:"force_sub_channels,omitempty"`
	BoundChannels    *[]int64 `json:"bound_channels,omitempty"`
}

// Keys возвращает отсортированные ключи, которые будут отправлены.
func (p SettingsPatch) Keys() []string {
	data, err := json.Marshal(p)
	if err != nil {
		return nil
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// SettingsUpdateResult — ответ PUT /api/settings.
// Updated — ключи, которые бот действительно сохранил.
type SettingsUpdateResult struct {
	Success bool     `json:"success"`
	Updated []string `json:"updated"`
	Message string   `json:"message,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// Перечень ключей настроек бота по типам значений.
var (
	BoolSettingKeys    = []string{"is_verify", "protect_content", "show_promo", "disable_channel_button"}
	IntSettingKeys     = []string{"verify_expire", "auto_delete_time", "share_code_length", "rate_limit_max", "rate_limit_window"}
	TextSettingKeys    = []string{"start_message", "force_sub_message", "user_reply_text", "promo_text", "about_text", "help_text", "admin_help_text", "keyword_button_text", "custom_caption", "custom_buttons"}
	ChannelSettingKeys = []string{"force_sub_channels", "bound_channels"}
)

// IsSettingKey сообщает, является ли key известным ключом настроек.
func IsSettingKey(key string) bool {
	for _, group := range [][]string{BoolSettingKeys, IntSettingKeys, TextSettingKeys, ChannelSettingKeys} {
		if slices.Contains(group, key) {
			return true
		}
	}
	return false
}

// maxKeywordRunes — ограничение длины ключевого слова, как у бота.
const maxKeywordRunes = 32

// ParseKeywords разбирает ключевые слова через запятую: пробелы обрезаются,
// пустые и повторные отбрасываются, длинные усекаются до 32 символов.
func ParseKeywords(raw string) []string {
	out := []string{}
	for _, item := range strings.Split(raw, ",") {
		kw := strings.TrimSpace(item)
		if kw == "" || slices.Contains(out, kw) {
			continue
		}
		if r := []rune(kw); len(r) > maxKeywordRunes {
			kw = string(r[:maxKeywordRunes])
		}
		out = append(out, kw)
	}
	return out
}
