package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tgmarket/internal/models"
	"tgmarket/internal/services"
)

type flowFixture struct {
	store   *fakeAccountStore
	users   *fakeUserStore
	gateway *fakeGateway
	mailer  *fakeMailer
	svc     *services.VerificationService
}

func newFlowFixture(t *testing.T, gateway *fakeGateway, countries ...*models.CountryCapacity) *flowFixture {
	t.Helper()
	store := newFakeAccountStore()
	users := newFakeUserStore()
	countrySvc := services.NewCountryService(newFakeCountryRepo(countries...))
	settingsSvc := services.NewSettingsService(nil, 1440, "default-master")
	mailer := &fakeMailer{}

	svc := services.NewVerificationService(store, users, countrySvc, settingsSvc, gateway, mailer)
	return &flowFixture{store: store, users: users, gateway: gateway, mailer: mailer, svc: svc}
}

// прогоняет аккаунт до нужного шага
func (f *flowFixture) accountAt(status string, mutate ...func(*models.Account)) *models.Account {
	a := &models.Account{
		UserID:           1,
		PhoneNumber:      "+998901234567",
		CountryCode:      "998",
		Status:           status,
		OTPPhoneCodeHash: "hash",
		OTPSessionString: "otp-session",
		SessionString:    "work-session",
	}
	for _, m := range mutate {
		m(a)
	}
	f.store.Create(a)
	return a
}

func TestSendOTP_CreatesAccountAndSeller(t *testing.T) {
	f := newFlowFixture(t, &fakeGateway{}, uzbekistan(10, 0))

	res, err := f.svc.SendOTP(context.Background(), "+998901234567", 500100, 600100)
	require.NoError(t, err)
	assert.NotEmpty(t, res.PhoneCodeHash)
	assert.Equal(t, "Uzbekistan", res.CountryName)
	assert.Equal(t, 60, res.WaitMinutes)
	assert.Equal(t, 15.0, res.PrizeAmount)

	a, _ := f.store.GetByPhone("+998901234567")
	require.NotNil(t, a)
	assert.Equal(t, models.StatusVerifyingOTP, a.Status)
	assert.Equal(t, "998", a.CountryCode)
	assert.Equal(t, 60, a.CountryWaitMinutes)

	seller, _ := f.users.GetByTelegramID(500100)
	require.NotNil(t, seller)
	assert.Equal(t, int64(600100), seller.ChatID)
	assert.Equal(t, a.UserID, seller.ID)
}

func TestSendOTP_RejectsBadPhone(t *testing.T) {
	f := newFlowFixture(t, &fakeGateway{})

	_, err := f.svc.SendOTP(context.Background(), "998901234567", 1, 1)
	assert.ErrorIs(t, err, services.ErrInvalidPhone)
}

func TestSendOTP_CapacityExceeded(t *testing.T) {
	f := newFlowFixture(t, &fakeGateway{}, uzbekistan(1, 1))

	_, err := f.svc.SendOTP(context.Background(), "+998901234567", 1, 1)
	assert.ErrorIs(t, err, services.ErrCapacityExceeded)
}

func TestSendOTP_UnknownCountryUsesDefaults(t *testing.T) {
	f := newFlowFixture(t, &fakeGateway{})

	res, err := f.svc.SendOTP(context.Background(), "+15551234567", 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 1440, res.WaitMinutes)
	assert.Equal(t, 0.0, res.PrizeAmount)
}

func TestSendOTP_PhoneOwnedByAnotherSeller(t *testing.T) {
	f := newFlowFixture(t, &fakeGateway{}, uzbekistan(10, 0))

	_, err := f.svc.SendOTP(context.Background(), "+998901234567", 111, 111)
	require.NoError(t, err)

	_, err = f.svc.SendOTP(context.Background(), "+998901234567", 222, 222)
	assert.ErrorIs(t, err, services.ErrPhoneAlreadySold)
}

func TestSendOTP_TerminalAccountRefused(t *testing.T) {
	f := newFlowFixture(t, &fakeGateway{}, uzbekistan(10, 0))
	f.accountAt(models.StatusRejected)

	_, err := f.svc.SendOTP(context.Background(), "+998901234567", 1, 1)
	assert.ErrorIs(t, err, services.ErrAccountTerminal)
}

func TestVerifyOTP_NoSecondFactor(t *testing.T) {
	f := newFlowFixture(t, &fakeGateway{requires2FA: false})
	a := f.accountAt(models.StatusVerifyingOTP)

	res, err := f.svc.VerifyOTP(context.Background(), a.PhoneNumber, "12345")
	require.NoError(t, err)
	assert.False(t, res.Requires2FA)
	assert.Equal(t, models.StatusSettingPassword, res.NextStatus)

	got := f.store.get(a.ID)
	assert.Equal(t, models.StatusSettingPassword, got.Status)
	assert.Equal(t, "work-session", got.SessionString)
	assert.NotNil(t, got.OTPVerifiedAt)
}

func TestVerifyOTP_SecondFactorRequired(t *testing.T) {
	f := newFlowFixture(t, &fakeGateway{requires2FA: true})
	a := f.accountAt(models.StatusVerifyingOTP)

	res, err := f.svc.VerifyOTP(context.Background(), a.PhoneNumber, "12345")
	require.NoError(t, err)
	assert.True(t, res.Requires2FA)

	got := f.store.get(a.ID)
	assert.Equal(t, models.StatusVerifying2FA, got.Status)
	assert.True(t, got.Requires2FA)
}

func TestVerifyOTP_WrongStep(t *testing.T) {
	f := newFlowFixture(t, &fakeGateway{})
	a := f.accountAt(models.StatusPending)

	_, err := f.svc.VerifyOTP(context.Background(), a.PhoneNumber, "12345")
	assert.ErrorIs(t, err, services.ErrInvalidTransition)
}

func TestVerify2FA_InvalidPasswordRejects(t *testing.T) {
	f := newFlowFixture(t, &fakeGateway{secondFactorOK: false})
	a := f.accountAt(models.StatusVerifying2FA)

	got, err := f.svc.Verify2FA(context.Background(), a.PhoneNumber, "wrong")
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, got.Status)
	assert.Equal(t, "Invalid password", got.RejectionReason)
}

func TestVerify2FA_ValidAdvances(t *testing.T) {
	f := newFlowFixture(t, &fakeGateway{secondFactorOK: true})
	a := f.accountAt(models.StatusVerifying2FA)

	got, err := f.svc.Verify2FA(context.Background(), a.PhoneNumber, "correct")
	require.NoError(t, err)
	assert.Equal(t, models.StatusSettingPassword, got.Status)
	assert.True(t, got.HadExistingPassword)
	assert.NotNil(t, got.TwoFAVerified)
}

func TestSetupPassword_Success(t *testing.T) {
	f := newFlowFixture(t, &fakeGateway{})
	a := f.accountAt(models.StatusSettingPassword)

	got, err := f.svc.SetupPassword(context.Background(), a.PhoneNumber, "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCheckingSessions, got.Status)
	assert.True(t, got.MasterPasswordSet)
	assert.NotNil(t, got.MasterPasswordSetAt)
}

func TestSetupPassword_GatewayRefusalMeansFake(t *testing.T) {
	f := newFlowFixture(t, &fakeGateway{setPasswordErr: errString("PASSWORD_CHANGE_FORBIDDEN")})
	a := f.accountAt(models.StatusSettingPassword)

	got, err := f.svc.SetupPassword(context.Background(), a.PhoneNumber, "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, got.Status)
	assert.Contains(t, got.RejectionReason, "Fake account")

	// фрод-алерт ушёл админу
	require.Len(t, f.mailer.alerts, 1)
	assert.Contains(t, f.mailer.alerts[0], a.PhoneNumber)
}

func TestCheckSessions_SingleDevice(t *testing.T) {
	f := newFlowFixture(t, &fakeGateway{sessionCount: 1}, uzbekistan(10, 0))
	a := f.accountAt(models.StatusCheckingSessions)

	res, err := f.svc.CheckSessions(context.Background(), a.PhoneNumber)
	require.NoError(t, err)
	assert.Equal(t, 1, res.SessionCount)
	assert.False(t, res.MultipleDevices)
	assert.Equal(t, 60, res.WaitMinutes)

	got := f.store.get(a.ID)
	assert.Equal(t, models.StatusPending, got.Status)
	require.NotNil(t, got.PendingSince)
	assert.Equal(t, 60, got.CountryWaitMinutes)
	require.NotNil(t, got.InitialSessionCount)
	assert.Equal(t, 1, *got.InitialSessionCount)
}

func TestCheckSessions_MultipleDevicesAdvisoryOnly(t *testing.T) {
	// первый проход фиксирует сигнал и пытается разлогинить, но не отклоняет
	f := newFlowFixture(t, &fakeGateway{sessionCount: 3, terminatedCount: 2}, uzbekistan(10, 0))
	a := f.accountAt(models.StatusCheckingSessions)

	res, err := f.svc.CheckSessions(context.Background(), a.PhoneNumber)
	require.NoError(t, err)
	assert.True(t, res.MultipleDevices)
	assert.True(t, res.LogoutAttempted)
	assert.Equal(t, 2, res.LoggedOutCount)

	got := f.store.get(a.ID)
	assert.Equal(t, models.StatusPending, got.Status)
	assert.True(t, got.MultipleDevicesDetected)
	assert.True(t, got.FirstLogoutSuccessful)
}

func TestCheckSessions_GatewayDownStillQueues(t *testing.T) {
	f := newFlowFixture(t, &fakeGateway{listSessionsErr: errString("gateway down")}, uzbekistan(10, 0))
	a := f.accountAt(models.StatusCheckingSessions)

	_, err := f.svc.CheckSessions(context.Background(), a.PhoneNumber)
	require.NoError(t, err)

	got := f.store.get(a.ID)
	assert.Equal(t, models.StatusPending, got.Status)
	assert.Nil(t, got.InitialSessionCount)
}

func TestDirectValidate_ValidAccepts(t *testing.T) {
	f := newFlowFixture(t, &fakeGateway{secondFactorOK: true})
	seller := &models.User{TelegramID: 1}
	f.users.addUser(seller)
	a := f.accountAt(models.StatusPending, func(a *models.Account) {
		a.UserID = seller.ID
		a.Amount = 20
	})

	got, err := f.svc.DirectValidate(context.Background(), a.PhoneNumber, "correct")
	require.NoError(t, err)
	assert.Equal(t, models.StatusAccepted, got.Status)
	assert.Equal(t, 1, f.users.creditCount(seller.ID))
}

func TestDirectValidate_InvalidFreezes(t *testing.T) {
	f := newFlowFixture(t, &fakeGateway{secondFactorOK: false})
	a := f.accountAt(models.StatusPending)

	got, err := f.svc.DirectValidate(context.Background(), a.PhoneNumber, "wrong")
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, got.Status)
	assert.Equal(t, "frozen", got.LimitStatus)
	assert.Contains(t, got.RejectionReason, "cannot be verified")
}

func TestDirectValidate_TerminalRefused(t *testing.T) {
	f := newFlowFixture(t, &fakeGateway{secondFactorOK: true})
	a := f.accountAt(models.StatusAccepted)

	_, err := f.svc.DirectValidate(context.Background(), a.PhoneNumber, "any")
	assert.ErrorIs(t, err, services.ErrAccountTerminal)

	assert.Equal(t, models.StatusAccepted, f.store.get(a.ID).Status)
}
