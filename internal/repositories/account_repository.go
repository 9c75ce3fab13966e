package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"tgmarket/internal/models"
)

type AccountRepository struct {
	DB *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{DB: db}
}

const accountColumns = `
	id, user_id, phone_number, country_code, country_name, status,
	otp_phone_code_hash, otp_session_string, otp_verified_at,
	requires_2fa, two_fa_verified_at,
	had_existing_password, master_password_set, master_password_set_at,
	initial_session_count, final_session_count, multiple_devices_detected,
	first_logout_attempted, first_logout_successful, first_logout_count,
	final_logout_attempted, final_logout_successful, final_logout_count,
	last_session_check, pending_since, country_wait_minutes, session_string,
	amount, accepted_at, rejected_at, rejection_reason, auto_approved,
	limit_status, created_at, updated_at`

func scanAccount(row interface{ Scan(...any) error }) (*models.Account, error) {
	var a models.Account
	var reason, limitStatus sql.NullString
	err := row.Scan(
		&a.ID, &a.UserID, &a.PhoneNumber, &a.CountryCode, &a.CountryName, &a.Status,
		&a.OTPPhoneCodeHash, &a.OTPSessionString, &a.OTPVerifiedAt,
		&a.Requires2FA, &a.TwoFAVerified,
		&a.HadExistingPassword, &a.MasterPasswordSet, &a.MasterPasswordSetAt,
		&a.InitialSessionCount, &a.FinalSessionCount, &a.MultipleDevicesDetected,
		&a.FirstLogoutAttempted, &a.FirstLogoutSuccessful, &a.FirstLogoutCount,
		&a.FinalLogoutAttempted, &a.FinalLogoutSuccessful, &a.FinalLogoutCount,
		&a.LastSessionCheck, &a.PendingSince, &a.CountryWaitMinutes, &a.SessionString,
		&a.Amount, &a.AcceptedAt, &a.RejectedAt, &reason, &a.AutoApproved,
		&limitStatus, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.RejectionReason = reason.String
	a.LimitStatus = limitStatus.String
	return &a, nil
}

func (r *AccountRepository) Create(a *models.Account) (int64, error) {
	const q = `
		INSERT INTO accounts (
			user_id, phone_number, country_code, country_name, status,
			otp_phone_code_hash, otp_session_string, requires_2fa,
			had_existing_password, master_password_set, country_wait_minutes,
			session_string, amount, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, now(), now())
		RETURNING id
	`
	if err := r.DB.QueryRow(q,
		a.UserID, a.PhoneNumber, a.CountryCode, a.CountryName, a.Status,
		a.OTPPhoneCodeHash, a.OTPSessionString, a.Requires2FA,
		a.HadExistingPassword, a.MasterPasswordSet, a.CountryWaitMinutes,
		a.SessionString, a.Amount,
	).Scan(&a.ID); err != nil {
		return 0, fmt.Errorf("create account: %w", err)
	}
	return a.ID, nil
}

func (r *AccountRepository) GetByPhone(phone string) (*models.Account, error) {
	q := `SELECT ` + accountColumns + ` FROM accounts WHERE phone_number = $1`
	a, err := scanAccount(r.DB.QueryRow(q, phone))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get account by phone: %w", err)
	}
	return a, nil
}

func (r *AccountRepository) GetByID(id int64) (*models.Account, error) {
	q := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	a, err := scanAccount(r.DB.QueryRow(q, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get account by id: %w", err)
	}
	return a, nil
}

func (r *AccountRepository) ListByStatus(status string) ([]*models.Account, error) {
	q := `SELECT ` + accountColumns + ` FROM accounts WHERE status = $1 ORDER BY created_at DESC`
	rows, err := r.DB.Query(q, status)
	if err != nil {
		return nil, fmt.Errorf("list accounts by status: %w", err)
	}
	defer rows.Close()

	var accounts []*models.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (r *AccountRepository) ListAccepted(since time.Time) ([]*models.Account, error) {
	q := `SELECT ` + accountColumns + `
		FROM accounts WHERE status = 'accepted' AND accepted_at >= $1
		ORDER BY accepted_at DESC`
	rows, err := r.DB.Query(q, since)
	if err != nil {
		return nil, fmt.Errorf("list accepted accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*models.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// Update - полная перезапись изменяемых полей. Для шагов верификации без
// гонок; терминальные переходы идут через условные методы ниже.
func (r *AccountRepository) Update(a *models.Account) error {
	const q = `
		UPDATE accounts SET
			user_id = $1, country_code = $2, country_name = $3, status = $4,
			otp_phone_code_hash = $5, otp_session_string = $6, otp_verified_at = $7,
			requires_2fa = $8, two_fa_verified_at = $9,
			had_existing_password = $10, master_password_set = $11, master_password_set_at = $12,
			initial_session_count = $13, final_session_count = $14, multiple_devices_detected = $15,
			first_logout_attempted = $16, first_logout_successful = $17, first_logout_count = $18,
			final_logout_attempted = $19, final_logout_successful = $20, final_logout_count = $21,
			last_session_check = $22, pending_since = $23, country_wait_minutes = $24,
			session_string = $25, amount = $26, updated_at = now()
		WHERE id = $27
	`
	if _, err := r.DB.Exec(q,
		a.UserID, a.CountryCode, a.CountryName, a.Status,
		a.OTPPhoneCodeHash, a.OTPSessionString, a.OTPVerifiedAt,
		a.Requires2FA, a.TwoFAVerified,
		a.HadExistingPassword, a.MasterPasswordSet, a.MasterPasswordSetAt,
		a.InitialSessionCount, a.FinalSessionCount, a.MultipleDevicesDetected,
		a.FirstLogoutAttempted, a.FirstLogoutSuccessful, a.FirstLogoutCount,
		a.FinalLogoutAttempted, a.FinalLogoutSuccessful, a.FinalLogoutCount,
		a.LastSessionCheck, a.PendingSince, a.CountryWaitMinutes,
		a.SessionString, a.Amount, a.ID,
	); err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	return nil
}

// ClaimForFinalValidation - условный захват pending → final_validation.
// Возвращает false, если запись уже забрал другой проход планировщика:
// это и есть защита от двойного начисления.
func (r *AccountRepository) ClaimForFinalValidation(id int64) (bool, error) {
	const q = `
		UPDATE accounts
		SET status = 'final_validation', updated_at = now()
		WHERE id = $1 AND status = 'pending'
	`
	res, err := r.DB.Exec(q, id)
	if err != nil {
		return false, fmt.Errorf("claim final validation: %w", err)
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}

// ReturnToPending - откат захвата final_validation -> pending (например,
// когда квота страны кончилась между захватом и принятием).
func (r *AccountRepository) ReturnToPending(id int64) (bool, error) {
	const q = `
		UPDATE accounts
		SET status = 'pending', updated_at = now()
		WHERE id = $1 AND status = 'final_validation'
	`
	res, err := r.DB.Exec(q, id)
	if err != nil {
		return false, fmt.Errorf("return account to pending: %w", err)
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}

// AcceptFrom - условный перевод в accepted из ожидаемого статуса.
func (r *AccountRepository) AcceptFrom(id int64, from string, amount float64, autoApproved bool) (bool, error) {
	const q = `
		UPDATE accounts
		SET status = 'accepted', amount = $3, accepted_at = now(),
		    auto_approved = $4, updated_at = now()
		WHERE id = $1 AND status = $2
	`
	res, err := r.DB.Exec(q, id, from, amount, autoApproved)
	if err != nil {
		return false, fmt.Errorf("accept account: %w", err)
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}

// AcceptDirect - принятие прямой валидацией из любого нетерминального
// статуса.
func (r *AccountRepository) AcceptDirect(id int64, amount float64) (bool, error) {
	const q = `
		UPDATE accounts
		SET status = 'accepted', amount = $2, accepted_at = now(),
		    auto_approved = false, updated_at = now()
		WHERE id = $1 AND status NOT IN ('accepted', 'rejected')
	`
	res, err := r.DB.Exec(q, id, amount)
	if err != nil {
		return false, fmt.Errorf("accept account (direct): %w", err)
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}

// Reject - в rejected можно уйти из любого нетерминального статуса.
func (r *AccountRepository) Reject(id int64, reason string) (bool, error) {
	const q = `
		UPDATE accounts
		SET status = 'rejected', rejection_reason = $2, rejected_at = now(), updated_at = now()
		WHERE id = $1 AND status NOT IN ('accepted', 'rejected')
	`
	res, err := r.DB.Exec(q, id, reason)
	if err != nil {
		return false, fmt.Errorf("reject account: %w", err)
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}

// RejectFrozen - отказ прямой валидации: дополнительно замораживаем лимиты.
func (r *AccountRepository) RejectFrozen(id int64, reason string) (bool, error) {
	const q = `
		UPDATE accounts
		SET status = 'rejected', rejection_reason = $2, rejected_at = now(),
		    limit_status = 'frozen', updated_at = now()
		WHERE id = $1 AND status NOT IN ('accepted', 'rejected')
	`
	res, err := r.DB.Exec(q, id, reason)
	if err != nil {
		return false, fmt.Errorf("reject account (frozen): %w", err)
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}
