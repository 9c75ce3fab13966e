package repositories

import (
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"tgmarket/internal/models"
)

type CountryRepository struct {
	DB *sql.DB
}

func NewCountryRepository(db *sql.DB) *CountryRepository {
	return &CountryRepository{DB: db}
}

const countryColumns = `
	id, country_code, country_name, max_capacity, used_capacity,
	auto_approve_minutes, prize_amount, is_active, created_at, updated_at`

func scanCountry(row interface{ Scan(...any) error }) (*models.CountryCapacity, error) {
	var c models.CountryCapacity
	err := row.Scan(
		&c.ID, &c.CountryCode, &c.CountryName, &c.MaxCapacity, &c.UsedCapacity,
		&c.AutoApproveMinutes, &c.PrizeAmount, &c.IsActive, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CountryRepository) GetByCode(code string) (*models.CountryCapacity, error) {
	q := `SELECT ` + countryColumns + ` FROM country_capacity WHERE country_code = $1`
	c, err := scanCountry(r.DB.QueryRow(q, code))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get country by code: %w", err)
	}
	return c, nil
}

// FindByCodes - все страны с кодом из списка кандидатов. Выбор по политике
// префиксов делает сервис, здесь только выборка.
func (r *CountryRepository) FindByCodes(codes []string) ([]*models.CountryCapacity, error) {
	q := `SELECT ` + countryColumns + ` FROM country_capacity WHERE country_code = ANY($1) AND is_active`
	rows, err := r.DB.Query(q, pq.Array(codes))
	if err != nil {
		return nil, fmt.Errorf("find countries by codes: %w", err)
	}
	defer rows.Close()

	var countries []*models.CountryCapacity
	for rows.Next() {
		c, err := scanCountry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan country: %w", err)
		}
		countries = append(countries, c)
	}
	return countries, rows.Err()
}

func (r *CountryRepository) List(activeOnly bool) ([]*models.CountryCapacity, error) {
	q := `SELECT ` + countryColumns + ` FROM country_capacity`
	if activeOnly {
		q += ` WHERE is_active`
	}
	q += ` ORDER BY country_name`
	rows, err := r.DB.Query(q)
	if err != nil {
		return nil, fmt.Errorf("list countries: %w", err)
	}
	defer rows.Close()

	var countries []*models.CountryCapacity
	for rows.Next() {
		c, err := scanCountry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan country: %w", err)
		}
		countries = append(countries, c)
	}
	return countries, rows.Err()
}

// ReserveSlot - условный инкремент: никогда не read-then-write.
// ok=false означает, что квота исчерпана (или страна неактивна).
func (r *CountryRepository) ReserveSlot(code string) (used int, ok bool, err error) {
	const q = `
		UPDATE country_capacity
		SET used_capacity = used_capacity + 1, updated_at = now()
		WHERE country_code = $1 AND is_active AND used_capacity < max_capacity
		RETURNING used_capacity
	`
	if err := r.DB.QueryRow(q, code).Scan(&used); err != nil {
		if err == sql.ErrNoRows {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("reserve country slot: %w", err)
	}
	return used, true, nil
}

// ReleaseSlot - компенсация резерва, если принятие не состоялось.
func (r *CountryRepository) ReleaseSlot(code string) error {
	const q = `
		UPDATE country_capacity
		SET used_capacity = used_capacity - 1, updated_at = now()
		WHERE country_code = $1 AND used_capacity > 0
	`
	if _, err := r.DB.Exec(q, code); err != nil {
		return fmt.Errorf("release country slot: %w", err)
	}
	return nil
}

func (r *CountryRepository) ResetUsed(code string) error {
	const q = `UPDATE country_capacity SET used_capacity = 0, updated_at = now() WHERE country_code = $1`
	res, err := r.DB.Exec(q, code)
	if err != nil {
		return fmt.Errorf("reset country capacity: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *CountryRepository) Create(c *models.CountryCapacity) (int64, error) {
	const q = `
		INSERT INTO country_capacity (
			country_code, country_name, max_capacity, used_capacity,
			auto_approve_minutes, prize_amount, is_active, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		RETURNING id
	`
	if err := r.DB.QueryRow(q,
		c.CountryCode, c.CountryName, c.MaxCapacity, c.UsedCapacity,
		c.AutoApproveMinutes, c.PrizeAmount, c.IsActive,
	).Scan(&c.ID); err != nil {
		return 0, fmt.Errorf("create country: %w", err)
	}
	return c.ID, nil
}

func (r *CountryRepository) Update(c *models.CountryCapacity) error {
	const q = `
		UPDATE country_capacity
		SET country_name = $1, max_capacity = $2, auto_approve_minutes = $3,
		    prize_amount = $4, is_active = $5, updated_at = now()
		WHERE country_code = $6
	`
	if _, err := r.DB.Exec(q,
		c.CountryName, c.MaxCapacity, c.AutoApproveMinutes,
		c.PrizeAmount, c.IsActive, c.CountryCode,
	); err != nil {
		return fmt.Errorf("update country: %w", err)
	}
	return nil
}

func (r *CountryRepository) Delete(code string) error {
	if _, err := r.DB.Exec(`DELETE FROM country_capacity WHERE country_code = $1`, code); err != nil {
		return fmt.Errorf("delete country: %w", err)
	}
	return nil
}
