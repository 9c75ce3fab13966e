package services

import (
	"errors"
	"fmt"
	"strings"

	"tgmarket/internal/models"
)

var (
	ErrCapacityExceeded = errors.New("country capacity exceeded")
	ErrCountryNotFound  = errors.New("country not found")
)

// PrefixPolicy - явная политика выбора кода страны по префиксу номера.
// Исторически действует shortest-first: широкая запись из 1-2 цифр
// перекрывает более длинный код (998 проигрывает записи "9"). Поведение
// закреплено тестом, пока продукт не решит иначе.
type PrefixPolicy int

const (
	PrefixShortestFirst PrefixPolicy = iota
	PrefixLongestFirst
)

// CountryRegistryRepo - то, что сервису нужно от хранилища.
type CountryRegistryRepo interface {
	GetByCode(code string) (*models.CountryCapacity, error)
	FindByCodes(codes []string) ([]*models.CountryCapacity, error)
	List(activeOnly bool) ([]*models.CountryCapacity, error)
	ReserveSlot(code string) (used int, ok bool, err error)
	ReleaseSlot(code string) error
	ResetUsed(code string) error
	Create(c *models.CountryCapacity) (int64, error)
	Update(c *models.CountryCapacity) error
	Delete(code string) error
}

type CountryService struct {
	Repo   CountryRegistryRepo
	Policy PrefixPolicy
}

func NewCountryService(repo CountryRegistryRepo) *CountryService {
	return &CountryService{Repo: repo, Policy: PrefixShortestFirst}
}

// PhoneDigits - оставить только цифры номера.
func PhoneDigits(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Resolve - страна по префиксу номера (длины 1..4, каждый префикс
// пробуем как есть и с "+"). Возвращает nil, если совпадений нет.
func (s *CountryService) Resolve(phoneDigits string) (*models.CountryCapacity, error) {
	maxLen := len(phoneDigits)
	if maxLen > 4 {
		maxLen = 4
	}
	if maxLen == 0 {
		return nil, nil
	}

	candidates := make([]string, 0, maxLen*2)
	for i := 1; i <= maxLen; i++ {
		prefix := phoneDigits[:i]
		candidates = append(candidates, prefix, "+"+prefix)
	}

	found, err := s.Repo.FindByCodes(candidates)
	if err != nil {
		return nil, fmt.Errorf("resolve country: %w", err)
	}
	if len(found) == 0 {
		return nil, nil
	}

	byCode := make(map[string]*models.CountryCapacity, len(found))
	for _, c := range found {
		byCode[c.CountryCode] = c
	}

	lengths := make([]int, 0, maxLen)
	if s.Policy == PrefixLongestFirst {
		for i := maxLen; i >= 1; i-- {
			lengths = append(lengths, i)
		}
	} else {
		for i := 1; i <= maxLen; i++ {
			lengths = append(lengths, i)
		}
	}

	for _, i := range lengths {
		prefix := phoneDigits[:i]
		if c, ok := byCode[prefix]; ok {
			return c, nil
		}
		if c, ok := byCode["+"+prefix]; ok {
			return c, nil
		}
	}
	return nil, nil
}

// Reserve - атомарное резервирование слота квоты.
func (s *CountryService) Reserve(countryCode string) (int, error) {
	used, ok, err := s.Repo.ReserveSlot(countryCode)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrCapacityExceeded
	}
	return used, nil
}

// Release - возврат слота, когда принятие после резерва сорвалось.
func (s *CountryService) Release(countryCode string) error {
	return s.Repo.ReleaseSlot(countryCode)
}

// ResetUsed - админ-сброс used_capacity в 0.
func (s *CountryService) ResetUsed(countryCode string) error {
	if err := s.Repo.ResetUsed(countryCode); err != nil {
		return ErrCountryNotFound
	}
	return nil
}

func (s *CountryService) List(activeOnly bool) ([]*models.CountryCapacity, error) {
	return s.Repo.List(activeOnly)
}

func (s *CountryService) GetByCode(code string) (*models.CountryCapacity, error) {
	return s.Repo.GetByCode(code)
}

func (s *CountryService) Create(c *models.CountryCapacity) error {
	code := strings.TrimSpace(c.CountryCode)
	if err := validateCountryCode(code); err != nil {
		return err
	}
	c.CountryCode = code
	if c.MaxCapacity < 0 {
		return fmt.Errorf("max_capacity must be >= 0")
	}
	existing, err := s.Repo.GetByCode(code)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("country %s already exists", code)
	}
	_, err = s.Repo.Create(c)
	return err
}

func (s *CountryService) Update(c *models.CountryCapacity) error {
	existing, err := s.Repo.GetByCode(c.CountryCode)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrCountryNotFound
	}
	if c.MaxCapacity < 0 {
		return fmt.Errorf("max_capacity must be >= 0")
	}
	return s.Repo.Update(c)
}

func (s *CountryService) Delete(code string) error {
	existing, err := s.Repo.GetByCode(code)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrCountryNotFound
	}
	return s.Repo.Delete(code)
}

// validateCountryCode - 1-4 цифры, допускаем ведущий "+".
func validateCountryCode(code string) error {
	digits := strings.TrimPrefix(code, "+")
	if len(digits) < 1 || len(digits) > 4 {
		return fmt.Errorf("country code must be 1-4 digits")
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return fmt.Errorf("country code must be 1-4 digits")
		}
	}
	return nil
}
