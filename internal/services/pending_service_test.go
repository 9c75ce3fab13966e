package services_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tgmarket/internal/models"
	"tgmarket/internal/services"
)

func pendingAccount(phone string, since time.Time, waitMinutes int) *models.Account {
	return &models.Account{
		PhoneNumber:        phone,
		Status:             models.StatusPending,
		PendingSince:       &since,
		CountryWaitMinutes: waitMinutes,
	}
}

func TestTimeRemaining_Math(t *testing.T) {
	svc := services.NewPendingService(newFakeAccountStore(), 1440)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	a := pendingAccount("+998901234567", now.Add(-90*time.Minute), 120)
	wait := svc.TimeRemaining(a, now)

	assert.Equal(t, 120, wait.WaitMinutes)
	assert.Equal(t, 90, wait.MinutesPassed)
	assert.Equal(t, 30, wait.MinutesRemaining)
	assert.False(t, wait.IsReady)
	assert.Equal(t, now.Add(30*time.Minute), wait.ReadyAt)
}

func TestTimeRemaining_Ready(t *testing.T) {
	svc := services.NewPendingService(newFakeAccountStore(), 1440)
	now := time.Now()

	a := pendingAccount("+998901234567", now.Add(-121*time.Minute), 120)
	wait := svc.TimeRemaining(a, now)

	assert.True(t, wait.IsReady)
	assert.Equal(t, 0, wait.MinutesRemaining)
}

func TestTimeRemaining_UsesStoredMinutesNotCurrentCountry(t *testing.T) {
	// окно зафиксировано при входе в pending: правка страны задним числом
	// не двигает дедлайн
	svc := services.NewPendingService(newFakeAccountStore(), 1440)
	now := time.Now()

	a := pendingAccount("+998901234567", now.Add(-60*time.Minute), 30)
	assert.True(t, svc.TimeRemaining(a, now).IsReady)
}

func TestTimeRemaining_FallbackDefault(t *testing.T) {
	svc := services.NewPendingService(newFakeAccountStore(), 1440)
	now := time.Now()

	a := pendingAccount("+998901234567", now.Add(-60*time.Minute), 0)
	wait := svc.TimeRemaining(a, now)

	assert.Equal(t, 1440, wait.WaitMinutes)
	assert.False(t, wait.IsReady)
}

func TestTimeRemaining_FallsBackToCreatedAt(t *testing.T) {
	svc := services.NewPendingService(newFakeAccountStore(), 1440)
	now := time.Now()

	a := &models.Account{
		Status:             models.StatusPending,
		CreatedAt:          now.Add(-50 * time.Minute),
		CountryWaitMinutes: 45,
	}
	assert.True(t, svc.TimeRemaining(a, now).IsReady)
}

func TestTimeRemaining_MonotonicReadiness(t *testing.T) {
	// готовность не может пропасть со временем
	svc := services.NewPendingService(newFakeAccountStore(), 1440)
	since := time.Now().Add(-3 * time.Hour)
	a := pendingAccount("+998901234567", since, 120)

	wasReady := false
	for m := 0; m <= 240; m += 10 {
		wait := svc.TimeRemaining(a, since.Add(time.Duration(m)*time.Minute))
		if wasReady {
			assert.True(t, wait.IsReady, "минута %d", m)
		}
		wasReady = wait.IsReady
	}
	assert.True(t, wasReady)
}

func TestPendingList_ReadyFilter(t *testing.T) {
	store := newFakeAccountStore()
	now := time.Now()

	ready := pendingAccount("+998900000001", now.Add(-3*time.Hour), 60)
	waiting := pendingAccount("+998900000002", now.Add(-10*time.Minute), 60)
	store.Create(ready)
	store.Create(waiting)
	// не-pending не попадает в выдачу вовсе
	store.Create(&models.Account{PhoneNumber: "+998900000003", Status: models.StatusAccepted})

	svc := services.NewPendingService(store, 1440)

	all, err := svc.List(false, now)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	readyOnly, err := svc.List(true, now)
	require.NoError(t, err)
	require.Len(t, readyOnly, 1)
	assert.Equal(t, "+998900000001", readyOnly[0].Account.PhoneNumber)
}

func TestPendingStatus_NotFound(t *testing.T) {
	svc := services.NewPendingService(newFakeAccountStore(), 1440)

	_, err := svc.Status("+10000000000", time.Now())
	assert.ErrorIs(t, err, services.ErrAccountNotFound)
}
