package repositories

import (
	"database/sql"
	"fmt"

	"tgmarket/internal/models"
)

type UserRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{DB: db}
}

const userColumns = `id, telegram_id, chat_id, email, password_hash, role_id, balance, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	var u models.User
	var email, hash sql.NullString
	err := row.Scan(&u.ID, &u.TelegramID, &u.ChatID, &email, &hash, &u.RoleID, &u.Balance, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.Email = email.String
	u.PasswordHash = hash.String
	return &u, nil
}

func (r *UserRepository) GetByID(id int64) (*models.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(r.DB.QueryRow(q, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return u, nil
}

func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	u, err := scanUser(r.DB.QueryRow(q, email))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

func (r *UserRepository) GetByTelegramID(telegramID int64) (*models.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE telegram_id = $1`
	u, err := scanUser(r.DB.QueryRow(q, telegramID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by telegram id: %w", err)
	}
	return u, nil
}

func (r *UserRepository) Create(u *models.User) (int64, error) {
	const q = `
		INSERT INTO users (telegram_id, chat_id, email, password_hash, role_id, balance, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5, $6, now(), now())
		RETURNING id
	`
	if err := r.DB.QueryRow(q,
		u.TelegramID, u.ChatID, u.Email, u.PasswordHash, u.RoleID, u.Balance,
	).Scan(&u.ID); err != nil {
		return 0, fmt.Errorf("create user: %w", err)
	}
	return u.ID, nil
}

// IncrementBalance - начисление выплаты. Вызывается ровно один раз на
// принятый аккаунт: победителем условного перехода в accepted.
func (r *UserRepository) IncrementBalance(userID int64, amount float64) error {
	const q = `UPDATE users SET balance = balance + $1, updated_at = now() WHERE id = $2`
	res, err := r.DB.Exec(q, amount, userID)
	if err != nil {
		return fmt.Errorf("increment balance: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
