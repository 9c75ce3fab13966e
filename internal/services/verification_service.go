package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"tgmarket/internal/authz"
	"tgmarket/internal/models"
	"tgmarket/internal/utils"
)

var (
	ErrAccountNotFound   = errors.New("account not found")
	ErrAccountTerminal   = errors.New("account already finalized")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvalidPhone      = errors.New("phone number must include country code")
	ErrPhoneAlreadySold  = errors.New("phone number already submitted by another user")
)

const (
	// причины отказа (фрод-сигналы; не ретраятся)
	ReasonFakeAccount     = "Fake account - unable to set master password"
	ReasonInvalid2FA      = "Invalid password"
	Reason2FAUnverifiable = "The account's 2FA password cannot be verified"
)

// AuthGateway - внешняя аутентификация мессенджера (OTP/2FA/сессии).
type AuthGateway interface {
	SendCode(ctx context.Context, phone string) (*utils.SendCodeResult, error)
	VerifyCode(ctx context.Context, phone, phoneCodeHash, code, session string) (*utils.VerifyCodeResult, error)
	VerifySecondFactor(ctx context.Context, phone, session, password string) (*utils.SecondFactorResult, error)
	SetPassword(ctx context.Context, session, newPassword, oldPassword string) error
	ListSessions(ctx context.Context, session string) (int, error)
	TerminateOtherSessions(ctx context.Context, session string) (int, error)
}

// VerificationAccounts - часть репозитория аккаунтов для оркестратора.
type VerificationAccounts interface {
	Create(a *models.Account) (int64, error)
	GetByPhone(phone string) (*models.Account, error)
	Update(a *models.Account) error
	Reject(id int64, reason string) (bool, error)
	RejectFrozen(id int64, reason string) (bool, error)
	AcceptDirect(id int64, amount float64) (bool, error)
}

// SellerUsers - заведение продавца по telegram id.
type SellerUsers interface {
	GetByID(id int64) (*models.User, error)
	GetByTelegramID(telegramID int64) (*models.User, error)
	Create(u *models.User) (int64, error)
	IncrementBalance(userID int64, amount float64) error
}

// AlertMailer - алерты безопасности администратору.
type AlertMailer interface {
	SendFraudAlert(phone, reason string) error
}

type VerificationService struct {
	Accounts  VerificationAccounts
	Users     SellerUsers
	Countries *CountryService
	Settings  *SettingsService
	Gateway   AuthGateway
	Mailer    AlertMailer // может быть nil
}

func NewVerificationService(
	accounts VerificationAccounts,
	users SellerUsers,
	countries *CountryService,
	settings *SettingsService,
	gateway AuthGateway,
	mailer AlertMailer,
) *VerificationService {
	return &VerificationService{
		Accounts:  accounts,
		Users:     users,
		Countries: countries,
		Settings:  settings,
		Gateway:   gateway,
		Mailer:    mailer,
	}
}

// transition - переход только по ребру графа; чужое ребро - явная ошибка,
// статус не трогаем.
func (s *VerificationService) transition(a *models.Account, to string) error {
	if !CanTransition(a.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, a.Status, to)
	}
	a.Status = to
	return nil
}

func (s *VerificationService) reject(a *models.Account, reason string) error {
	ok, err := s.Accounts.Reject(a.ID, reason)
	if err != nil {
		return err
	}
	if !ok {
		return ErrAccountTerminal
	}
	a.Status = models.StatusRejected
	a.RejectionReason = reason
	return nil
}

// SendOTPResult - артефакты шага отправки кода.
type SendOTPResult struct {
	AccountID     int64   `json:"account_id"`
	PhoneCodeHash string  `json:"phone_code_hash"`
	CountryName   string  `json:"country_name"`
	WaitMinutes   int     `json:"wait_minutes"`
	PrizeAmount   float64 `json:"prize_amount"`
}

// SendOTP - вход в конвейер: проверка квоты страны + отправка кода.
func (s *VerificationService) SendOTP(ctx context.Context, phone string, telegramID, chatID int64) (*SendOTPResult, error) {
	phone = strings.TrimSpace(phone)
	if !strings.HasPrefix(phone, "+") || len(phone) < 10 {
		return nil, ErrInvalidPhone
	}
	digits := PhoneDigits(phone)

	existing, err := s.Accounts.GetByPhone(phone)
	if err != nil {
		return nil, err
	}

	user, err := s.ensureSeller(telegramID, chatID)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		if existing.IsTerminal() {
			return nil, ErrAccountTerminal
		}
		if existing.UserID != user.ID {
			return nil, ErrPhoneAlreadySold
		}
	}

	// checking_capacity: квота страны проверяется на входе, резерв слота
	// выполняет финальное принятие (см. approval_service)
	snap := s.Settings.LoadSnapshot()
	waitMinutes := snap.DefaultWaitMinutes
	prize := 0.0
	countryCode, countryName := "", ""

	country, err := s.Countries.Resolve(digits)
	if err != nil {
		return nil, err
	}
	if country != nil {
		if !country.HasCapacity() {
			log.Printf("[flow][capacity] квота исчерпана: %s (%d/%d)", country.CountryName, country.UsedCapacity, country.MaxCapacity)
			return nil, fmt.Errorf("%w: %s (%d/%d)", ErrCapacityExceeded, country.CountryName, country.UsedCapacity, country.MaxCapacity)
		}
		waitMinutes = country.AutoApproveMinutes
		if waitMinutes <= 0 {
			waitMinutes = snap.DefaultWaitMinutes
		}
		prize = country.PrizeAmount
		countryCode = country.CountryCode
		countryName = country.CountryName
	}

	// sending_otp
	sent, err := s.Gateway.SendCode(ctx, phone)
	if err != nil {
		log.Printf("[flow][otp][send][err] phone=%s: %v", phone, err)
		return nil, err
	}

	if existing == nil {
		a := &models.Account{
			UserID:             user.ID,
			PhoneNumber:        phone,
			CountryCode:        countryCode,
			CountryName:        countryName,
			Status:             models.StatusVerifyingOTP,
			OTPPhoneCodeHash:   sent.PhoneCodeHash,
			OTPSessionString:   sent.SessionString,
			CountryWaitMinutes: waitMinutes,
			Amount:             prize,
		}
		if _, err := s.Accounts.Create(a); err != nil {
			return nil, err
		}
		existing = a
	} else {
		existing.CountryCode = countryCode
		existing.CountryName = countryName
		existing.Status = models.StatusVerifyingOTP
		existing.OTPPhoneCodeHash = sent.PhoneCodeHash
		existing.OTPSessionString = sent.SessionString
		existing.CountryWaitMinutes = waitMinutes
		existing.Amount = prize
		if err := s.Accounts.Update(existing); err != nil {
			return nil, err
		}
	}

	log.Printf("[flow][otp][send] ok phone=%s country=%q wait=%dmin", phone, countryName, waitMinutes)
	return &SendOTPResult{
		AccountID:     existing.ID,
		PhoneCodeHash: sent.PhoneCodeHash,
		CountryName:   countryName,
		WaitMinutes:   waitMinutes,
		PrizeAmount:   prize,
	}, nil
}

// VerifyOTPResult - итог проверки кода.
type VerifyOTPResult struct {
	Requires2FA bool   `json:"requires_2fa"`
	NextStatus  string `json:"next_status"`
}

func (s *VerificationService) VerifyOTP(ctx context.Context, phone, code string) (*VerifyOTPResult, error) {
	a, err := s.loadActive(phone)
	if err != nil {
		return nil, err
	}
	if a.Status != models.StatusVerifyingOTP {
		return nil, fmt.Errorf("%w: account is %s", ErrInvalidTransition, a.Status)
	}

	res, err := s.Gateway.VerifyCode(ctx, phone, a.OTPPhoneCodeHash, code, a.OTPSessionString)
	if err != nil {
		log.Printf("[flow][otp][verify][err] phone=%s: %v", phone, err)
		return nil, err
	}

	now := time.Now()
	a.OTPVerifiedAt = &now

	if res.Requires2FA {
		// код верный, но включён второй фактор: сохраняем сессию, чтобы
		// шаг можно было возобновить
		if err := s.transition(a, models.StatusVerifying2FA); err != nil {
			return nil, err
		}
		a.Requires2FA = true
		a.OTPSessionString = res.SessionString
		if err := s.Accounts.Update(a); err != nil {
			return nil, err
		}
		log.Printf("[flow][otp][verify] phone=%s требуется второй фактор", phone)
		return &VerifyOTPResult{Requires2FA: true, NextStatus: a.Status}, nil
	}

	if err := s.transition(a, models.StatusSettingPassword); err != nil {
		return nil, err
	}
	a.Requires2FA = false
	a.SessionString = res.SessionString
	if err := s.Accounts.Update(a); err != nil {
		return nil, err
	}
	log.Printf("[flow][otp][verify] ok phone=%s", phone)
	return &VerifyOTPResult{Requires2FA: false, NextStatus: a.Status}, nil
}

func (s *VerificationService) Verify2FA(ctx context.Context, phone, password string) (*models.Account, error) {
	a, err := s.loadActive(phone)
	if err != nil {
		return nil, err
	}
	if a.Status != models.StatusVerifying2FA {
		return nil, fmt.Errorf("%w: account is %s", ErrInvalidTransition, a.Status)
	}

	res, err := s.Gateway.VerifySecondFactor(ctx, phone, a.OTPSessionString, password)
	if err != nil {
		log.Printf("[flow][2fa][err] phone=%s: %v", phone, err)
		return nil, err
	}
	if !res.Valid {
		log.Printf("[flow][2fa] неверный пароль phone=%s reason=%q", phone, res.Reason)
		if err := s.reject(a, ReasonInvalid2FA); err != nil {
			return nil, err
		}
		return a, nil
	}

	now := time.Now()
	if err := s.transition(a, models.StatusSettingPassword); err != nil {
		return nil, err
	}
	a.TwoFAVerified = &now
	a.HadExistingPassword = true
	a.SessionString = a.OTPSessionString
	if err := s.Accounts.Update(a); err != nil {
		return nil, err
	}
	log.Printf("[flow][2fa] ok phone=%s", phone)
	return a, nil
}

// SetupPassword - форсируем мастер-пароль на внешнем аккаунте. Отказ
// площадки сменить пароль - сильный фрод-сигнал, без ретраев.
func (s *VerificationService) SetupPassword(ctx context.Context, phone, currentPassword string) (*models.Account, error) {
	a, err := s.loadActive(phone)
	if err != nil {
		return nil, err
	}
	if a.Status != models.StatusSettingPassword {
		return nil, fmt.Errorf("%w: account is %s", ErrInvalidTransition, a.Status)
	}

	snap := s.Settings.LoadSnapshot()
	master := snap.DefaultMasterPassword
	if master == "" {
		master = utils.NewMasterPassword()
	}

	if err := s.Gateway.SetPassword(ctx, a.SessionString, master, currentPassword); err != nil {
		log.Printf("[flow][password][err] phone=%s: %v, фейковый аккаунт", phone, err)
		if rejErr := s.reject(a, ReasonFakeAccount); rejErr != nil {
			return nil, rejErr
		}
		s.fraudAlert(phone, ReasonFakeAccount)
		return a, nil
	}

	now := time.Now()
	if err := s.transition(a, models.StatusCheckingSessions); err != nil {
		return nil, err
	}
	a.MasterPasswordSet = true
	a.MasterPasswordSetAt = &now
	if err := s.Accounts.Update(a); err != nil {
		return nil, err
	}
	log.Printf("[flow][password] ok phone=%s", phone)
	return a, nil
}

// SessionCheckResult - первый (рекомендательный) проход проверки сессий.
type SessionCheckResult struct {
	SessionCount    int  `json:"session_count"`
	MultipleDevices bool `json:"multiple_devices"`
	LogoutAttempted bool `json:"logout_attempted"`
	LoggedOutCount  int  `json:"logged_out_count"`
	WaitMinutes     int  `json:"wait_minutes"`
}

// CheckSessions - первый проход никогда сам не отклоняет: фиксирует
// сигналы для финальной проверки и всегда ведёт в pending.
func (s *VerificationService) CheckSessions(ctx context.Context, phone string) (*SessionCheckResult, error) {
	a, err := s.loadActive(phone)
	if err != nil {
		return nil, err
	}
	if a.Status != models.StatusCheckingSessions {
		return nil, fmt.Errorf("%w: account is %s", ErrInvalidTransition, a.Status)
	}

	now := time.Now()
	result := &SessionCheckResult{}

	count, err := s.Gateway.ListSessions(ctx, a.SessionString)
	if err != nil {
		// не смогли посчитать - идём в pending без снимка, финальная
		// проверка разберётся
		log.Printf("[flow][sessions][warn] phone=%s: %v, продолжаем в pending", phone, err)
	} else {
		a.InitialSessionCount = &count
		result.SessionCount = count
		if count > 1 {
			a.MultipleDevicesDetected = true
			result.MultipleDevices = true
			terminated, termErr := s.Gateway.TerminateOtherSessions(ctx, a.SessionString)
			a.FirstLogoutAttempted = true
			result.LogoutAttempted = true
			if termErr != nil {
				log.Printf("[flow][sessions][warn] phone=%s logout failed: %v", phone, termErr)
			} else {
				a.FirstLogoutSuccessful = true
				a.FirstLogoutCount = terminated
				result.LoggedOutCount = terminated
			}
		}
	}
	a.LastSessionCheck = &now

	// окно ожидания фиксируем на входе в pending: дедлайн не плывёт при
	// смене настроек страны
	snap := s.Settings.LoadSnapshot()
	waitMinutes := snap.DefaultWaitMinutes
	if country, cErr := s.Countries.Resolve(PhoneDigits(phone)); cErr == nil && country != nil && country.AutoApproveMinutes > 0 {
		waitMinutes = country.AutoApproveMinutes
	}

	if err := s.transition(a, models.StatusPending); err != nil {
		return nil, err
	}
	a.PendingSince = &now
	a.CountryWaitMinutes = waitMinutes
	if err := s.Accounts.Update(a); err != nil {
		return nil, err
	}

	result.WaitMinutes = waitMinutes
	log.Printf("[flow][sessions] phone=%s count=%d -> pending (wait=%dmin)", phone, result.SessionCount, waitMinutes)
	return result, nil
}

// DirectValidate - параллельный вход: повторная проверка второго фактора
// с мгновенным вердиктом. Терминальные записи не трогаем.
func (s *VerificationService) DirectValidate(ctx context.Context, phone, password string) (*models.Account, error) {
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

	session := a.SessionString
	if session == "" {
		session = a.OTPSessionString
	}

	res, err := s.Gateway.VerifySecondFactor(ctx, phone, session, password)
	if err != nil {
		log.Printf("[flow][direct][err] phone=%s: %v", phone, err)
		return nil, err
	}

	if !res.Valid {
		ok, rejErr := s.Accounts.RejectFrozen(a.ID, Reason2FAUnverifiable)
		if rejErr != nil {
			return nil, rejErr
		}
		if !ok {
			return nil, ErrAccountTerminal
		}
		a.Status = models.StatusRejected
		a.RejectionReason = Reason2FAUnverifiable
		a.LimitStatus = "frozen"
		log.Printf("[flow][direct] отказ phone=%s (frozen)", phone)
		return a, nil
	}

	ok, err := s.Accounts.AcceptDirect(a.ID, a.Amount)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAccountTerminal
	}
	a.Status = models.StatusAccepted
	if a.Amount > 0 {
		if err := s.Users.IncrementBalance(a.UserID, a.Amount); err != nil {
			log.Printf("[flow][direct][err] credit failed phone=%s: %v", phone, err)
		}
	}
	log.Printf("[flow][direct] ok phone=%s принят", phone)
	return a, nil
}

func (s *VerificationService) loadActive(phone string) (*models.Account, error) {
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
	return a, nil
}

func (s *VerificationService) ensureSeller(telegramID, chatID int64) (*models.User, error) {
	u, err := s.Users.GetByTelegramID(telegramID)
	if err != nil {
		return nil, err
	}
	if u != nil {
		return u, nil
	}
	u = &models.User{TelegramID: telegramID, ChatID: chatID, RoleID: authz.RoleSeller}
	if _, err := s.Users.Create(u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *VerificationService) fraudAlert(phone, reason string) {
	if s.Mailer == nil {
		return
	}
	if err := s.Mailer.SendFraudAlert(phone, reason); err != nil {
		log.Printf("[flow][alert][warn] mail failed phone=%s: %v", phone, err)
	}
}
