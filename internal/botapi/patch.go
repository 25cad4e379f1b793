package botapi

import "fmt"

// SetBool задаёт булеву настройку по ключу.
func (p *SettingsPatch) SetBool(key string, v bool) error {
	var f **bool
	switch key {
	case "is_verify":
		f = &p.IsVerify
	case "protect_content":
		f = &p.ProtectContent
	case "show_promo":
		f = &p.ShowPromo
	case "disable_channel_button":
		f = &p.DisableChannelButton
	default:
		return fmt.Errorf("%w: %q не булева настройка", ErrUnknownSetting, key)
	}
	*f = &v
	return nil
}

// SetInt задаёт целочисленную настройку по ключу.
func (p *SettingsPatch) SetInt(key string, v int64) error {
	var f **int64
	switch key {
	case "verify_expire":
		f = &p.VerifyExpire
	case "auto_delete_time":
		f = &p.AutoDeleteTime
	case "share_code_length":
		f = &p.ShareCodeLength
	case "rate_limit_max":
		f = &p.RateLimitMax
	case "rate_limit_window":
		f = &p.RateLimitWindow
	default:
		return fmt.Errorf("%w: %q не целочисленная настройка", ErrUnknownSetting, key)
	}
	*f = &v
	return nil
}

// SetText задаёт текстовую настройку по ключу.
func (p *SettingsPatch) SetText(key, v string) error {
	var f **string
	switch key {
	case "start_message":
		f = &p.StartMessage
	case "force_sub_message":
		f = &p.ForceSubMessage
	case "user_reply_text":
		f = &p.UserReplyText
	case "promo_text":
		f = &p.PromoText
	case "about_text":
		f = &p.AboutText
	case "help_text":
		f = &p.HelpText
	case "admin_help_text":
		f = &p.AdminHelpText
	case "keyword_button_text":
		f = &p.KeywordButtonText
	case "custom_caption":
		f = &p.CustomCaption
	case "custom_buttons":
		f = &p.CustomButtons
	default:
		return fmt.Errorf("%w: %q не текстовая настройка", ErrUnknownSetting, key)
	}
	*f = &v
	return nil
}

// SetChannels задаёт список каналов по ключу. Пустой список отправляется как [].
func (p *SettingsPatch) SetChannels(key string, ids []int64) error {
	if ids == nil {
		ids = []int64{}
	}
	switch key {
	case "force_sub_channels":
		p.ForceSubChannels = &ids
	case "bound_channels":
		p.BoundChannels = &ids
	default:
		return fmt.Errorf("%w: %q не список каналов", ErrUnknownSetting, key)
	}
	return nil
}

// Channels возвращает список каналов настроек по ключу.
func (s *Settings) Channels(key string) []int64 {
	switch key {
	case "force_sub_channels":
		return s.ForceSubChannels
	case "bound_channels":
		return s.BoundChannels
	}
	return nil
}

// Bool возвращает булеву настройку по ключу.
func (s *Settings) Bool(key string) bool {
	switch key {
	case "is_verify":
		return s.IsVerify
	case "protect_content":
		return s.ProtectContent
	case "show_promo":
		return s.ShowPromo
	case "disable_channel_button":
		return s.DisableChannelButton
	}
	return false
}

// Int возвращает целочисленную настройку по ключу.
func (s *Settings) Int(key string) int64 {
	switch key {
	case "verify_expire":
		return s.VerifyExpire
	case "auto_delete_time":
		return s.AutoDeleteTime
	case "share_code_length":
		return s.ShareCodeLength
	case "rate_limit_max":
		return s.RateLimitMax
	case "rate_limit_window":
		return s.RateLimitWindow
	}
	return 0
}

// Text возвращает текстовую настройку по ключу.
func (s *Settings) Text(key string) string {
	switch key {
	case "start_message":
		return s.StartMessage
	case "force_sub_message":
		return s.ForceSubMessage
	case "user_reply_text":
		return s.UserReplyText
	case "promo_text":
		return s.PromoText
	case "about_text":
		return s.AboutText
	case "help_text":
		return s.HelpText
	case "admin_help_text":
		return s.AdminHelpText
	case "keyword_button_text":
		return s.KeywordButtonText
	case "custom_caption":
		return s.CustomCaption
	case "custom_buttons":
		return s.CustomButtons
	}
	return ""
}
