package botapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/oapi-codegen/runtime"
)

// encodeQuery кодирует параметры запроса в стиле form/explode,
// как это делают сгенерированные oapi-codegen клиенты.
func encodeQuery(params ...queryParam) (url.Values, error) {
	values := url.Values{}
	for _, p := range params {
		if p.skip {
			continue
		}
		frag, err := runtime.StyleParamWithLocation("form", true, p.name, runtime.ParamLocationQuery, p.value)
		if err != nil {
			return nil, fmt.Errorf("кодирование параметра %s: %w", p.name, err)
		}
		parsed, err := url.ParseQuery(frag)
		if err != nil {
			return nil, fmt.Errorf("разбор параметра %s: %w", p.name, err)
		}
		for k, vs := range parsed {
			values[k] = append(values[k], vs...)
		}
	}
	return values, nil
}

type queryParam struct {
	name  string
	value any
	skip  bool
}

// sharePath строит путь /api/shares/{code}[suffix] с экранированием кода.
func sharePath(code, suffix string) (string, error) {
	p, err := runtime.StyleParamWithLocation("simple", false, "code", runtime.ParamLocationPath, code)
	if err != nil {
		return "", fmt.Errorf("кодирование кода раздачи: %w", err)
	}
	return "/api/shares/" + p + suffix, nil
}

// Login отправляет пароль администратора. Отказ (401 или success=false)
// не является ошибкой: результат возвращается в LoginResponse.
func (c *Client) Login(ctx context.Context, password string) (*LoginResponse, error) {
	var out LoginResponse
	err := c.do(ctx, request{
		op:        "login",
		pattern:   "/api/login",
		method:    http.MethodPost,
		path:      "/api/login",
		body:      map[string]string{"password": password},
		loginFlow: true,
	}, &out)
	return &out, err
}

// Logout сообщает боту о завершении сессии.
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.do(ctx, request{
		op: "logout", pattern: "/api/logout",
		method: http.MethodPost, path: "/api/logout", token: token,
	}, nil)
}

// Dashboard возвращает сводную статистику.
func (c *Client) Dashboard(ctx context.Context, token string) (*Dashboard, error) {
	var out Dashboard
	if err := c.do(ctx, request{
		op: "dashboard", pattern: "/api/dashboard",
		method: http.MethodGet, path: "/api/dashboard", token: token,
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Users возвращает страницу пользователей.
func (c *Client) Users(ctx context.Context, token string, page, perPage int) (*UserPage, error) {
	q, err := encodeQuery(
		queryParam{name: "page", value: page, skip: page <= 0},
		queryParam{name: "per_page", value: perPage, skip: perPage <= 0},
	)
	if err != nil {
		return nil, err
	}
	var out UserPage
	if err := c.do(ctx, request{
		op: "users", pattern: "/api/users",
		method: http.MethodGet, path: "/api/users", query: q, token: token,
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Shares возвращает страницу раздач с необязательным поиском.
func (c *Client) Shares(ctx context.Context, token string, sq ShareQuery) (*SharePage, error) {
	q, err := encodeQuery(
		queryParam{name: "page", value: sq.Page, skip: sq.Page <= 0},
		queryParam{name: "per_page", value: sq.PerPage, skip: sq.PerPage <= 0},
		queryParam{name: "search", value: sq.Search, skip: sq.Search == ""},
	)
	if err != nil {
		return nil, err
	}
	var out SharePage
	if err := c.do(ctx, request{
		op: "shares", pattern: "/api/shares",
		method: http.MethodGet, path: "/api/shares", query: q, token: token,
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Share возвращает подробности раздачи.
func (c *Client) Share(ctx context.Context, token, code string) (*Share, error) {
	path, err := sharePath(code, "")
	if err != nil {
		return nil, err
	}
	var out Share
	if err := c.do(ctx, request{
		op: "share_get", pattern: "/api/shares/{code}",
		method: http.MethodGet, path: path, token: token,
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateShare частично обновляет раздачу.
func (c *Client) UpdateShare(ctx context.Context, token, code string, upd ShareUpdate) (*Result, error) {
	path, err := sharePath(code, "")
	if err != nil {
		return nil, err
	}
	var out Result
	if err := c.do(ctx, request{
		op: "share_update", pattern: "/api/shares/{code}",
		method: http.MethodPut, path: path, body: upd, token: token,
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteShare удаляет раздачу.
func (c *Client) DeleteShare(ctx context.Context, token, code string) (*Result, error) {
	path, err := sharePath(code, "")
	if err != nil {
		return nil, err
	}
	var out Result
	if err := c.do(ctx, request{
		op: "share_delete", pattern: "/api/shares/{code}",
		method: http.MethodDelete, path: path, token: token,
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ForwardShare пересылает выбранные файлы раздачи в привязанные каналы.
func (c *Client) ForwardShare(ctx context.Context, token, code string, fr ForwardRequest) (*ForwardResult, error) {
	path, err := sharePath(code, "/forward")
	if err != nil {
		return nil, err
	}
	if fr.Keywords == nil {
		fr.Keywords = []string{}
	}
	if fr.ForwardIndices == nil {
		fr.ForwardIndices = []int{}
	}
	var out ForwardResult
	if err := c.do(ctx, request{
		op: "share_forward", pattern: "/api/shares/{code}/forward",
		method: http.MethodPost, path: path, body: fr, token: token,
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Broadcast рассылает сообщение всем пользователям.
func (c *Client) Broadcast(ctx context.Context, token, message string) (*BroadcastResult, error) {
	var out BroadcastResult
	if err := c.do(ctx, request{
		op: "broadcast", pattern: "/api/broadcast",
		method: http.MethodPost, path: "/api/broadcast",
		body: map[string]string{"message": message}, token: token,
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Banned возвращает чёрный список.
func (c *Client) Banned(ctx context.Context, token string) (*BannedList, error) {
	var out BannedList
	if err := c.do(ctx, request{
		op: "banned", pattern: "/api/banned",
		method: http.MethodGet, path: "/api/banned", token: token,
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Ban блокирует пользователя.
func (c *Client) Ban(ctx context.Context, token string, br BanRequest) (*Result, error) {
	var out Result
	if err := c.do(ctx, request{
		op: "ban", pattern: "/api/ban",
		method: http.MethodPost, path: "/api/ban", body: br, token: token,
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Unban снимает блокировку.
func (c *Client) Unban(ctx context.Context, token string, userID int64) (*Result, error) {
	var out Result
	if err := c.do(ctx, request{
		op: "unban", pattern: "/api/unban",
		method: http.MethodPost, path: "/api/unban",
		body: BanRequest{UserID: userID}, token: token,
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Settings возвращает текущие настройки бота.
func (c *Client) Settings(ctx context.Context, token string) (*Settings, error) {
	var out Settings
	if err := c.do(ctx, request{
		op: "settings_get", pattern: "/api/settings",
		method: http.MethodGet, path: "/api/settings", token: token,
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateSettings отправляет только заданные в patch ключи.
// Сохранёнными считаются лишь ключи из Updated ответа.
func (c *Client) UpdateSettings(ctx context.Context, token string, patch SettingsPatch) (*SettingsUpdateResult, error) {
	var out SettingsUpdateResult
	if err := c.do(ctx, request{
		op: "settings_update", pattern: "/api/settings",
		method: http.MethodPut, path: "/api/settings", body: patch, token: token,
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ResetSetting сбрасывает ключ настроек к значению по умолчанию.
func (c *Client) ResetSetting(ctx context.Context, token, key string) (*Result, error) {
	if !IsSettingKey(key) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSetting, key)
	}
	var out Result
	if err := c.do(ctx, request{
		op: "settings_reset", pattern: "/api/settings/reset",
		method: http.MethodPost, path: "/api/settings/reset",
		body: map[string]string{"key": key}, token: token,
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Health возвращает состояние процесса бота.
func (c *Client) Health(ctx context.Context, token string) (*Health, error) {
	var out Health
	if err := c.do(ctx, request{
		op: "health", pattern: "/api/health",
		method: http.MethodGet, path: "/api/health", token: token,
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
