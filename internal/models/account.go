package models

import "time"

// Статусы аккаунта. Граф переходов - в services/status_transitions_service.go.
const (
	StatusCheckingCapacity = "checking_capacity"
	StatusSendingOTP       = "sending_otp"
	StatusVerifyingOTP     = "verifying_otp"
	StatusVerifying2FA     = "verifying_2fa"
	StatusSettingPassword  = "setting_password"
	StatusCheckingSessions = "checking_sessions"
	StatusPending          = "pending"
	StatusFinalValidation  = "final_validation"
	StatusAccepted         = "accepted"
	StatusRejected         = "rejected"
)

// Account - одна запись на номер телефона. Никогда не удаляется физически:
// история нужна для аудита и проверки повторных попыток.
type Account struct {
	ID          int64  `json:"id"`
	UserID      int64  `json:"user_id"`
	PhoneNumber string `json:"phone_number"`
	CountryCode string `json:"country_code"`
	CountryName string `json:"country_name"`

	Status string `json:"status"`

	// артефакты OTP - нужны для возобновления шага
	OTPPhoneCodeHash string     `json:"-"`
	OTPSessionString string     `json:"-"`
	OTPVerifiedAt    *time.Time `json:"otp_verified_at,omitempty"`

	Requires2FA   bool       `json:"requires_2fa"`
	TwoFAVerified *time.Time `json:"two_fa_verified_at,omitempty"`

	HadExistingPassword bool       `json:"had_existing_password"`
	MasterPasswordSet   bool       `json:"master_password_set"`
	MasterPasswordSetAt *time.Time `json:"master_password_set_at,omitempty"`

	InitialSessionCount     *int       `json:"initial_session_count,omitempty"`
	FinalSessionCount       *int       `json:"final_session_count,omitempty"`
	MultipleDevicesDetected bool       `json:"multiple_devices_detected"`
	FirstLogoutAttempted    bool       `json:"first_logout_attempted"`
	FirstLogoutSuccessful   bool       `json:"first_logout_successful"`
	FirstLogoutCount        int        `json:"first_logout_count"`
	FinalLogoutAttempted    bool       `json:"final_logout_attempted"`
	FinalLogoutSuccessful   bool       `json:"final_logout_successful"`
	FinalLogoutCount        int        `json:"final_logout_count"`
	LastSessionCheck        *time.Time `json:"last_session_check,omitempty"`

	// очередь ожидания: дедлайн фиксируется при входе в pending
	PendingSince       *time.Time `json:"pending_since,omitempty"`
	CountryWaitMinutes int        `json:"country_wait_minutes"`

	SessionString string `json:"-"` // рабочая сессия внешнего аккаунта

	Amount          float64    `json:"amount"`
	AcceptedAt      *time.Time `json:"accepted_at,omitempty"`
	RejectedAt      *time.Time `json:"rejected_at,omitempty"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
	AutoApproved    bool       `json:"auto_approved"`
	LimitStatus     string     `json:"limit_status,omitempty"` // "frozen" при отказе прямой валидации

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsTerminal - accepted/rejected неизменяемы (кроме админ-коррекции).
func (a *Account) IsTerminal() bool {
	return a.Status == StatusAccepted || a.Status == StatusRejected
}
