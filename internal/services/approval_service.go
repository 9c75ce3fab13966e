package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"tgmarket/internal/models"
)

var ErrNotEligible = errors.New("account does not pass approval checks")

// ApprovalAccounts - часть репозитория аккаунтов для автоодобрения.
type ApprovalAccounts interface {
	ListByStatus(status string) ([]*models.Account, error)
	GetByPhone(phone string) (*models.Account, error)
	Update(a *models.Account) error
	ClaimForFinalValidation(id int64) (bool, error)
	ReturnToPending(id int64) (bool, error)
	AcceptFrom(id int64, from string, amount float64, autoApproved bool) (bool, error)
	AcceptDirect(id int64, amount float64) (bool, error)
	Reject(id int64, reason string) (bool, error)
}

// Notifier - уведомление продавца об итоге (nil-safe, см. telegram_bot).
type Notifier interface {
	NotifyAccepted(a *models.Account)
	NotifyRejected(a *models.Account, reason string)
}

// ProcessResult - счётчики одного прохода планировщика.
type ProcessResult struct {
	Processed int `json:"processed"`
	Approved  int `json:"approved"`
	Skipped   int `json:"skipped"`
	Rejected  int `json:"rejected"`
	Failed    int `json:"failed"`
}

type ApprovalService struct {
	Accounts  ApprovalAccounts
	Users     SellerUsers
	Countries *CountryService
	Pending   *PendingService
	Gateway   AuthGateway
	Notify    Notifier    // может быть nil
	Mailer    AlertMailer // может быть nil

	// MaxParallel ограничивает одновременные финальные проверки за проход.
	MaxParallel int
}

func NewApprovalService(
	accounts ApprovalAccounts,
	users SellerUsers,
	countries *CountryService,
	pending *PendingService,
	gateway AuthGateway,
	notify Notifier,
) *ApprovalService {
	return &ApprovalService{
		Accounts:    accounts,
		Users:       users,
		Countries:   countries,
		Pending:     pending,
		Gateway:     gateway,
		Notify:      notify,
		MaxParallel: 8,
	}
}

// ProcessPending - один проход: все pending-аккаунты с истёкшим окном
// прогоняются через финальную проверку. Ошибка одного аккаунта не рушит
// проход; повторный запуск безопасен, захват статуса условный.
func (s *ApprovalService) ProcessPending(ctx context.Context, now time.Time) (*ProcessResult, error) {
	pending, err := s.Accounts.ListByStatus(models.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("list pending: %w", err)
	}

	var ready []*models.Account
	for _, a := range pending {
		if s.Pending.TimeRemaining(a, now).IsReady {
			ready = append(ready, a)
		}
	}
	log.Printf("[approve][tick] pending=%d ready=%d", len(pending), len(ready))

	result := &ProcessResult{Processed: len(ready)}
	if len(ready) == 0 {
		return result, nil
	}

	limit := s.MaxParallel
	if limit <= 0 {
		limit = 1
	}
	sem := make(chan struct{}, limit)

	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, a := range ready {
		wg.Add(1)
		sem <- struct{}{}
		go func(a *models.Account) {
			defer wg.Done()
			defer func() { <-sem }()
			outcome := s.processOne(ctx, a)
			mu.Lock()
			switch outcome {
			case outcomeApproved:
				result.Approved++
			case outcomeSkipped:
				result.Skipped++
			case outcomeRejected:
				result.Rejected++
			default:
				result.Failed++
			}
			mu.Unlock()
		}(a)
	}
	wg.Wait()

	log.Printf("[approve][tick] итог: approved=%d skipped=%d rejected=%d failed=%d",
		result.Approved, result.Skipped, result.Rejected, result.Failed)
	return result, nil
}

type approvalOutcome int

const (
	outcomeFailed approvalOutcome = iota
	outcomeApproved
	outcomeSkipped
	outcomeRejected
)

func (s *ApprovalService) processOne(ctx context.Context, a *models.Account) (out approvalOutcome) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[approve][panic] phone=%s: %v", a.PhoneNumber, r)
			out = outcomeFailed
		}
	}()

	// отсутствие сигнала это skip, а не reject: аккаунт остаётся в pending
	// до следующего прохода
	if !a.MasterPasswordSet {
		log.Printf("[approve][skip] phone=%s: мастер-пароль не установлен", a.PhoneNumber)
		return outcomeSkipped
	}
	if a.FinalSessionCount == nil && a.InitialSessionCount == nil {
		log.Printf("[approve][skip] phone=%s: нет данных о сессиях", a.PhoneNumber)
		return outcomeSkipped
	}

	claimed, err := s.Accounts.ClaimForFinalValidation(a.ID)
	if err != nil {
		log.Printf("[approve][err] phone=%s claim: %v", a.PhoneNumber, err)
		return outcomeFailed
	}
	if !claimed {
		// запись уже забрал параллельный проход
		return outcomeSkipped
	}
	// захват уже перевёл строку в final_validation; выравниваем память,
	// иначе полный Update вернёт статус назад в pending
	a.Status = models.StatusFinalValidation

	// финальный замер сессий; при недоступности шлюза используем последний
	// сохранённый снимок
	count := s.sessionSignal(a)
	if fresh, err := s.Gateway.ListSessions(ctx, a.SessionString); err != nil {
		log.Printf("[approve][warn] phone=%s: замер сессий не удался (%v), используем снимок %d", a.PhoneNumber, err, count)
	} else {
		count = fresh
		a.FinalSessionCount = &fresh
		now := time.Now()
		a.LastSessionCheck = &now
		if fresh > 1 {
			a.FinalLogoutAttempted = true
			if terminated, termErr := s.Gateway.TerminateOtherSessions(ctx, a.SessionString); termErr == nil {
				a.FinalLogoutSuccessful = true
				a.FinalLogoutCount = terminated
			}
		}
		if err := s.Accounts.Update(a); err != nil {
			log.Printf("[approve][warn] phone=%s: снимок сессий не сохранён: %v", a.PhoneNumber, err)
		}
	}

	if count != 1 {
		reason := fmt.Sprintf("Auto-approve rejected: Multiple devices detected (%d)", count)
		ok, err := s.Accounts.Reject(a.ID, reason)
		if err != nil || !ok {
			log.Printf("[approve][err] phone=%s reject: ok=%v err=%v", a.PhoneNumber, ok, err)
			return outcomeFailed
		}
		a.Status = models.StatusRejected
		a.RejectionReason = reason
		s.notifyRejected(a, reason)
		if s.Mailer != nil {
			if mailErr := s.Mailer.SendFraudAlert(a.PhoneNumber, reason); mailErr != nil {
				log.Printf("[approve][alert][warn] mail failed phone=%s: %v", a.PhoneNumber, mailErr)
			}
		}
		log.Printf("[approve][reject] phone=%s: %s", a.PhoneNumber, reason)
		return outcomeRejected
	}

	// резерв слота страны строго до принятия; при исчерпании квоты
	// возвращаем запись в очередь
	if a.CountryCode != "" {
		if _, err := s.Countries.Reserve(a.CountryCode); err != nil {
			if errors.Is(err, ErrCapacityExceeded) {
				log.Printf("[approve][skip] phone=%s: квота %s исчерпана", a.PhoneNumber, a.CountryCode)
				if _, revErr := s.Accounts.ReturnToPending(a.ID); revErr != nil {
					log.Printf("[approve][err] phone=%s revert: %v", a.PhoneNumber, revErr)
					return outcomeFailed
				}
				return outcomeSkipped
			}
			log.Printf("[approve][err] phone=%s reserve: %v", a.PhoneNumber, err)
			return outcomeFailed
		}
	}

	amount := s.payoutAmount(a)
	ok, err := s.Accounts.AcceptFrom(a.ID, models.StatusFinalValidation, amount, true)
	if err != nil || !ok {
		log.Printf("[approve][err] phone=%s accept: ok=%v err=%v", a.PhoneNumber, ok, err)
		s.releaseSlot(a)
		if _, revErr := s.Accounts.ReturnToPending(a.ID); revErr != nil {
			log.Printf("[approve][err] phone=%s revert: %v", a.PhoneNumber, revErr)
		}
		return outcomeFailed
	}
	a.Status = models.StatusAccepted
	a.Amount = amount
	a.AutoApproved = true

	// начисление ровно один раз: сюда доходит только победитель захвата
	if amount > 0 {
		if err := s.Users.IncrementBalance(a.UserID, amount); err != nil {
			log.Printf("[approve][err] phone=%s credit: %v", a.PhoneNumber, err)
		}
	}
	s.notifyAccepted(a)
	log.Printf("[approve][ok] phone=%s принят, выплата %.2f", a.PhoneNumber, amount)
	return outcomeApproved
}

// payoutAmount - нулевая сумма в записи означает, что на входе страна была
// неизвестна; перед выплатой пробуем взять актуальный приз из реестра.
func (s *ApprovalService) payoutAmount(a *models.Account) float64 {
	if a.Amount > 0 || a.CountryCode == "" {
		return a.Amount
	}
	c, err := s.Countries.GetByCode(a.CountryCode)
	if err != nil || c == nil {
		return a.Amount
	}
	return c.PrizeAmount
}

func (s *ApprovalService) sessionSignal(a *models.Account) int {
	if a.FinalSessionCount != nil {
		return *a.FinalSessionCount
	}
	if a.InitialSessionCount != nil {
		return *a.InitialSessionCount
	}
	return 0
}

// ManualApprove - решение админа проходит те же проверки безопасности,
// что и автоодобрение, но без ожидания окна.
func (s *ApprovalService) ManualApprove(ctx context.Context, phone string) (*models.Account, error) {
	a, err := s.Accounts.GetByPhone(phone)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrAccountNotFound
	}
	if a.IsTerminal() {
		return nil, ErrAccountTerminal
	}

	if !a.MasterPasswordSet {
		return nil, fmt.Errorf("%w: master password not set", ErrNotEligible)
	}
	count := s.sessionSignal(a)
	if fresh, lErr := s.Gateway.ListSessions(ctx, a.SessionString); lErr == nil {
		count = fresh
		a.FinalSessionCount = &fresh
	}
	if count != 1 {
		return nil, fmt.Errorf("%w: multiple devices detected (%d)", ErrNotEligible, count)
	}

	if a.CountryCode != "" {
		if _, err := s.Countries.Reserve(a.CountryCode); err != nil {
			return nil, err
		}
	}
	amount := s.payoutAmount(a)
	ok, err := s.Accounts.AcceptDirect(a.ID, amount)
	if err != nil {
		s.releaseSlot(a)
		return nil, err
	}
	if !ok {
		s.releaseSlot(a)
		return nil, ErrAccountTerminal
	}
	a.Status = models.StatusAccepted
	a.Amount = amount
	if amount > 0 {
		if err := s.Users.IncrementBalance(a.UserID, amount); err != nil {
			log.Printf("[approve][err] phone=%s credit: %v", phone, err)
		}
	}
	s.notifyAccepted(a)
	log.Printf("[approve][manual] phone=%s принят админом", phone)
	return a, nil
}

// releaseSlot - возврат зарезервированного слота, если принятие сорвалось.
func (s *ApprovalService) releaseSlot(a *models.Account) {
	if a.CountryCode == "" {
		return
	}
	if err := s.Countries.Release(a.CountryCode); err != nil {
		log.Printf("[approve][err] phone=%s release slot %s: %v", a.PhoneNumber, a.CountryCode, err)
	}
}

// ManualReject - отказ админа допустим из любого нетерминального статуса.
func (s *ApprovalService) ManualReject(phone, reason string) (*models.Account, error) {
	a, err := s.Accounts.GetByPhone(phone)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrAccountNotFound
	}
	if reason == "" {
		reason = "Rejected by administrator"
	}
	ok, err := s.Accounts.Reject(a.ID, reason)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAccountTerminal
	}
	a.Status = models.StatusRejected
	a.RejectionReason = reason
	s.notifyRejected(a, reason)
	log.Printf("[approve][manual] phone=%s отклонён: %s", phone, reason)
	return a, nil
}

func (s *ApprovalService) notifyAccepted(a *models.Account) {
	if s.Notify != nil {
		s.Notify.NotifyAccepted(a)
	}
}

func (s *ApprovalService) notifyRejected(a *models.Account, reason string) {
	if s.Notify != nil {
		s.Notify.NotifyRejected(a, reason)
	}
}
