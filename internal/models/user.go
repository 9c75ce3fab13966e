package models

import "time"

// User - продавец либо администратор. Продавцы заводятся по telegram_id,
// пароль есть только у админов/операторов.
type User struct {
	ID           int64     `json:"id"`
	TelegramID   int64     `json:"telegram_id"`
	ChatID       int64     `json:"chat_id"` // куда слать уведомления бота
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // не отдаём наружу
	RoleID       int       `json:"role_id"`
	Balance      float64   `json:"balance"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
