package services

import (
	"log"
	"strconv"

	"tgmarket/internal/models"
	"tgmarket/internal/repositories"
)

// SettingsSnapshot - неизменяемый срез глобальных настроек. Загружается
// один раз на запрос/тик и передаётся вниз, чтобы не было скрытых мутаций
// между запросами.
type SettingsSnapshot struct {
	DefaultWaitMinutes    int
	DefaultMasterPassword string
}

type SettingsService struct {
	Repo *repositories.SettingsRepository

	// конфиг-фоллбек, если ключа нет в БД
	FallbackWaitMinutes    int
	FallbackMasterPassword string
}

func NewSettingsService(repo *repositories.SettingsRepository, fallbackWaitMinutes int, fallbackMasterPassword string) *SettingsService {
	if fallbackWaitMinutes <= 0 {
		fallbackWaitMinutes = 1440
	}
	return &SettingsService{
		Repo:                   repo,
		FallbackWaitMinutes:    fallbackWaitMinutes,
		FallbackMasterPassword: fallbackMasterPassword,
	}
}

func (s *SettingsService) LoadSnapshot() SettingsSnapshot {
	snap := SettingsSnapshot{
		DefaultWaitMinutes:    s.FallbackWaitMinutes,
		DefaultMasterPassword: s.FallbackMasterPassword,
	}
	if s.Repo == nil {
		return snap
	}

	if v, err := s.Repo.Get(models.SettingDefaultWaitMinutes); err != nil {
		log.Printf("[settings] read %s failed: %v", models.SettingDefaultWaitMinutes, err)
	} else if v != nil {
		if n, err := strconv.Atoi(v.Value); err == nil && n > 0 {
			snap.DefaultWaitMinutes = n
		}
	}

	if v, err := s.Repo.Get(models.SettingDefaultMasterPassword); err != nil {
		log.Printf("[settings] read %s failed: %v", models.SettingDefaultMasterPassword, err)
	} else if v != nil && v.Value != "" {
		snap.DefaultMasterPassword = v.Value
	}

	return snap
}

func (s *SettingsService) List() ([]*models.Setting, error) {
	return s.Repo.List()
}

func (s *SettingsService) Set(key, value string) error {
	return s.Repo.Upsert(key, value)
}
