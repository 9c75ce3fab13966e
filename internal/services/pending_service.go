package services

import (
	"math"
	"time"

	"tgmarket/internal/models"
)

// PendingAccounts - часть репозитория аккаунтов, нужная очереди ожидания.
type PendingAccounts interface {
	ListByStatus(status string) ([]*models.Account, error)
	GetByPhone(phone string) (*models.Account, error)
}

// WaitStatus - сколько прошло/осталось по окну ожидания страны.
type WaitStatus struct {
	WaitMinutes      int       `json:"wait_minutes"`
	MinutesPassed    int       `json:"minutes_passed"`
	MinutesRemaining int       `json:"minutes_remaining"`
	IsReady          bool      `json:"is_ready"`
	ReadyAt          time.Time `json:"ready_at"`
}

type PendingView struct {
	Account *models.Account `json:"account"`
	Wait    WaitStatus      `json:"wait"`
}

type PendingService struct {
	Accounts PendingAccounts

	// фоллбек, если по какой-то причине у записи не сохранены минуты
	DefaultWaitMinutes int
}

func NewPendingService(accounts PendingAccounts, defaultWaitMinutes int) *PendingService {
	if defaultWaitMinutes <= 0 {
		defaultWaitMinutes = 1440
	}
	return &PendingService{Accounts: accounts, DefaultWaitMinutes: defaultWaitMinutes}
}

// TimeRemaining - считаем от pending_since по зафиксированным минутам
// страны: дедлайн стабилен, даже если настройки страны поменяли позже.
func (s *PendingService) TimeRemaining(a *models.Account, now time.Time) WaitStatus {
	waitMinutes := a.CountryWaitMinutes
	if waitMinutes <= 0 {
		waitMinutes = s.DefaultWaitMinutes
	}

	since := a.CreatedAt
	if a.PendingSince != nil {
		since = *a.PendingSince
	}

	passed := now.Sub(since).Minutes()
	remaining := math.Max(0, float64(waitMinutes)-passed)

	return WaitStatus{
		WaitMinutes:      waitMinutes,
		MinutesPassed:    int(math.Floor(passed)),
		MinutesRemaining: int(math.Ceil(remaining)),
		IsReady:          passed >= float64(waitMinutes),
		ReadyAt:          since.Add(time.Duration(waitMinutes) * time.Minute),
	}
}

// List - все pending-аккаунты; readyOnly оставляет лишь те, у кого окно
// ожидания уже истекло.
func (s *PendingService) List(readyOnly bool, now time.Time) ([]*PendingView, error) {
	accounts, err := s.Accounts.ListByStatus(models.StatusPending)
	if err != nil {
		return nil, err
	}

	views := make([]*PendingView, 0, len(accounts))
	for _, a := range accounts {
		wait := s.TimeRemaining(a, now)
		if readyOnly && !wait.IsReady {
			continue
		}
		views = append(views, &PendingView{Account: a, Wait: wait})
	}
	return views, nil
}

// Status - готовность одного аккаунта по номеру.
func (s *PendingService) Status(phone string, now time.Time) (*PendingView, error) {
	a, err := s.Accounts.GetByPhone(phone)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrAccountNotFound
	}
	wait := s.TimeRemaining(a, now)
	return &PendingView{Account: a, Wait: wait}, nil
}
