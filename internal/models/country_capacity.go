package models

import "time"

// CountryCapacity - квота по стране. Код страны: 1-4 цифры, допускается
// вариант с префиксом "+".
type CountryCapacity struct {
	ID                 int64     `json:"id"`
	CountryCode        string    `json:"country_code"`
	CountryName        string    `json:"country_name"`
	MaxCapacity        int       `json:"max_capacity"`
	UsedCapacity       int       `json:"used_capacity"`
	AutoApproveMinutes int       `json:"auto_approve_minutes"`
	PrizeAmount        float64   `json:"prize_amount"`
	IsActive           bool      `json:"is_active"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func (c *CountryCapacity) AvailableCapacity() int {
	return c.MaxCapacity - c.UsedCapacity
}

func (c *CountryCapacity) HasCapacity() bool {
	return c.AvailableCapacity() > 0
}
