package services

import "tgmarket/internal/models"

// Допустимые переходы статусов аккаунта.
// NB: rejected достижим из любого нетерминального статуса - это добавляет
// canTransition, таблица хранит только «прямые» рёбра графа.
var AccountTransitions = map[string]map[string]bool{
	models.StatusCheckingCapacity: {models.StatusSendingOTP: true},
	models.StatusSendingOTP:       {models.StatusVerifyingOTP: true},
	models.StatusVerifyingOTP: {
		models.StatusVerifying2FA:    true, // внешний OTP подтверждён, нужен второй фактор
		models.StatusSettingPassword: true, // второй фактор не требуется
	},
	models.StatusVerifying2FA:     {models.StatusSettingPassword: true},
	models.StatusSettingPassword:  {models.StatusCheckingSessions: true},
	models.StatusCheckingSessions: {models.StatusPending: true},
	models.StatusPending:          {models.StatusFinalValidation: true},
	models.StatusFinalValidation:  {models.StatusAccepted: true},
	models.StatusAccepted:         {}, // финалка
	models.StatusRejected:         {}, // финалка, one-way
}

func canTransition(current, to string) bool {
	if current == models.StatusAccepted || current == models.StatusRejected {
		return false
	}
	if to == models.StatusRejected {
		return true
	}
	nexts, ok := AccountTransitions[current]
	if !ok {
		return false
	}
	return nexts[to]
}

// CanTransition - проверка ребра графа; недопустимое ребро это no-op у
// вызывающего, не порча статуса.
func CanTransition(current, to string) bool {
	return canTransition(current, to)
}
