package services_test

import (
	"context"
	"sync"

	"tgmarket/internal/models"
	"tgmarket/internal/utils"
)

// fakeAccountStore - потокобезопасное in-memory хранилище аккаунтов с той же
// семантикой условных апдейтов, что и у SQL-репозитория.
type fakeAccountStore struct {
	mu        sync.Mutex
	nextID    int64
	byID      map[int64]*models.Account
	acceptErr error // подставная ошибка принятия
}

func newFakeAccountStore() *fakeAccountStore {
	return &fakeAccountStore{byID: map[int64]*models.Account{}}
}

func (s *fakeAccountStore) add(a *models.Account) *models.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	a.ID = s.nextID
	cp := *a
	s.byID[a.ID] = &cp
	return a
}

func (s *fakeAccountStore) get(id int64) *models.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.byID[id]; ok {
		cp := *a
		return &cp
	}
	return nil
}

func (s *fakeAccountStore) Create(a *models.Account) (int64, error) {
	s.add(a)
	return a.ID, nil
}

func (s *fakeAccountStore) GetByPhone(phone string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.byID {
		if a.PhoneNumber == phone {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *fakeAccountStore) GetByID(id int64) (*models.Account, error) {
	return s.get(id), nil
}

func (s *fakeAccountStore) ListByStatus(status string) ([]*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Account
	for _, a := range s.byID {
		if a.Status == status {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *fakeAccountStore) Update(a *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *a
	s.byID[a.ID] = &cp
	return nil
}

func (s *fakeAccountStore) ClaimForFinalValidation(id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byID[id]
	if !ok || a.Status != models.StatusPending {
		return false, nil
	}
	a.Status = models.StatusFinalValidation
	return true, nil
}

func (s *fakeAccountStore) ReturnToPending(id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byID[id]
	if !ok || a.Status != models.StatusFinalValidation {
		return false, nil
	}
	a.Status = models.StatusPending
	return true, nil
}

func (s *fakeAccountStore) AcceptFrom(id int64, from string, amount float64, autoApproved bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.acceptErr != nil {
		return false, s.acceptErr
	}
	a, ok := s.byID[id]
	if !ok || a.Status != from {
		return false, nil
	}
	a.Status = models.StatusAccepted
	a.Amount = amount
	a.AutoApproved = autoApproved
	return true, nil
}

func (s *fakeAccountStore) AcceptDirect(id int64, amount float64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.acceptErr != nil {
		return false, s.acceptErr
	}
	a, ok := s.byID[id]
	if !ok || a.Status == models.StatusAccepted || a.Status == models.StatusRejected {
		return false, nil
	}
	a.Status = models.StatusAccepted
	a.Amount = amount
	return true, nil
}

func (s *fakeAccountStore) Reject(id int64, reason string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byID[id]
	if !ok || a.Status == models.StatusAccepted || a.Status == models.StatusRejected {
		return false, nil
	}
	a.Status = models.StatusRejected
	a.RejectionReason = reason
	return true, nil
}

func (s *fakeAccountStore) RejectFrozen(id int64, reason string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byID[id]
	if !ok || a.Status == models.StatusAccepted || a.Status == models.StatusRejected {
		return false, nil
	}
	a.Status = models.StatusRejected
	a.RejectionReason = reason
	a.LimitStatus = "frozen"
	return true, nil
}

// fakeUserStore - пользователи с подсчётом начислений.
type fakeUserStore struct {
	mu      sync.Mutex
	nextID  int64
	byID    map[int64]*models.User
	credits map[int64]int // сколько раз начисляли каждому
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{byID: map[int64]*models.User{}, credits: map[int64]int{}}
}

func (s *fakeUserStore) addUser(u *models.User) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	u.ID = s.nextID
	cp := *u
	s.byID[u.ID] = &cp
	return u
}

func (s *fakeUserStore) GetByID(id int64) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.byID[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (s *fakeUserStore) GetByTelegramID(telegramID int64) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.byID {
		if u.TelegramID == telegramID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *fakeUserStore) Create(u *models.User) (int64, error) {
	s.addUser(u)
	return u.ID, nil
}

func (s *fakeUserStore) IncrementBalance(userID int64, amount float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.byID[userID]; ok {
		u.Balance += amount
	}
	s.credits[userID]++
	return nil
}

func (s *fakeUserStore) creditCount(userID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.credits[userID]
}

// fakeCountryRepo - реестр стран с атомарным резервом под мьютексом.
type fakeCountryRepo struct {
	mu     sync.Mutex
	byCode map[string]*models.CountryCapacity
}

func newFakeCountryRepo(countries ...*models.CountryCapacity) *fakeCountryRepo {
	r := &fakeCountryRepo{byCode: map[string]*models.CountryCapacity{}}
	for _, c := range countries {
		cp := *c
		r.byCode[c.CountryCode] = &cp
	}
	return r
}

func (r *fakeCountryRepo) GetByCode(code string) (*models.CountryCapacity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.byCode[code]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeCountryRepo) FindByCodes(codes []string) ([]*models.CountryCapacity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.CountryCapacity
	for _, code := range codes {
		if c, ok := r.byCode[code]; ok && c.IsActive {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeCountryRepo) List(activeOnly bool) ([]*models.CountryCapacity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.CountryCapacity
	for _, c := range r.byCode {
		if activeOnly && !c.IsActive {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeCountryRepo) ReserveSlot(code string) (int, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byCode[code]
	if !ok || c.UsedCapacity >= c.MaxCapacity {
		return 0, false, nil
	}
	c.UsedCapacity++
	return c.UsedCapacity, true, nil
}

func (r *fakeCountryRepo) ReleaseSlot(code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.byCode[code]; ok && c.UsedCapacity > 0 {
		c.UsedCapacity--
	}
	return nil
}

func (r *fakeCountryRepo) ResetUsed(code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.byCode[code]; ok {
		c.UsedCapacity = 0
		return nil
	}
	return errNoCountry
}

func (r *fakeCountryRepo) Create(c *models.CountryCapacity) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *c
	r.byCode[c.CountryCode] = &cp
	return 1, nil
}

func (r *fakeCountryRepo) Update(c *models.CountryCapacity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *c
	r.byCode[c.CountryCode] = &cp
	return nil
}

func (r *fakeCountryRepo) Delete(code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byCode, code)
	return nil
}

// fakeGateway - шлюз с настраиваемым поведением шагов.
type fakeGateway struct {
	mu sync.Mutex

	sendCodeErr     error
	requires2FA     bool
	secondFactorOK  bool
	setPasswordErr  error
	sessionCount    int
	listSessionsErr error
	terminatedCount int

	listSessionsCalls int
}

func (g *fakeGateway) SendCode(ctx context.Context, phone string) (*utils.SendCodeResult, error) {
	if g.sendCodeErr != nil {
		return nil, g.sendCodeErr
	}
	return &utils.SendCodeResult{PhoneCodeHash: "hash-" + phone, SessionString: "otp-session"}, nil
}

func (g *fakeGateway) VerifyCode(ctx context.Context, phone, phoneCodeHash, code, session string) (*utils.VerifyCodeResult, error) {
	return &utils.VerifyCodeResult{Requires2FA: g.requires2FA, SessionString: "work-session", UserID: "42"}, nil
}

func (g *fakeGateway) VerifySecondFactor(ctx context.Context, phone, session, password string) (*utils.SecondFactorResult, error) {
	if g.secondFactorOK {
		return &utils.SecondFactorResult{Valid: true, UserID: "42"}, nil
	}
	return &utils.SecondFactorResult{Valid: false, Reason: "PASSWORD_HASH_INVALID"}, nil
}

func (g *fakeGateway) SetPassword(ctx context.Context, session, newPassword, oldPassword string) error {
	return g.setPasswordErr
}

func (g *fakeGateway) ListSessions(ctx context.Context, session string) (int, error) {
	g.mu.Lock()
	g.listSessionsCalls++
	g.mu.Unlock()
	if g.listSessionsErr != nil {
		return 0, g.listSessionsErr
	}
	return g.sessionCount, nil
}

func (g *fakeGateway) TerminateOtherSessions(ctx context.Context, session string) (int, error) {
	return g.terminatedCount, nil
}

// fakeMailer - запоминает фрод-алерты.
type fakeMailer struct {
	mu     sync.Mutex
	alerts []string
}

func (m *fakeMailer) SendFraudAlert(phone, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alerts = append(m.alerts, phone+": "+reason)
	return nil
}

func (m *fakeMailer) SendPayoutSummary(email string, accepted int, total float64) error {
	return nil
}

type errString string

func (e errString) Error() string { return string(e) }

const errNoCountry = errString("no such country")
