package models

import "time"

// Ключи глобальных настроек (fallback, когда страна не найдена).
const (
	SettingDefaultWaitMinutes    = "default_wait_time_minutes"
	SettingDefaultMasterPassword = "default_master_password"
)

type Setting struct {
	ID        int64     `json:"id"`
	Key       string    `json:"setting_key"`
	Value     string    `json:"setting_value"`
	UpdatedAt time.Time `json:"updated_at"`
}
