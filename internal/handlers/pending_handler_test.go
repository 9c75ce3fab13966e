package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tgmarket/internal/handlers"
	"tgmarket/internal/models"
	"tgmarket/internal/services"
)

type stubPendingAccounts struct {
	accounts []*models.Account
}

func (s *stubPendingAccounts) ListByStatus(status string) ([]*models.Account, error) {
	var out []*models.Account
	for _, a := range s.accounts {
		if a.Status == status {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *stubPendingAccounts) GetByPhone(phone string) (*models.Account, error) {
	for _, a := range s.accounts {
		if a.PhoneNumber == phone {
			return a, nil
		}
	}
	return nil, nil
}

func pendingRouter(store *stubPendingAccounts) *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := services.NewPendingService(store, 1440)
	h := handlers.NewPendingHandler(svc)

	r := gin.New()
	r.GET("/pending", h.List)
	r.GET("/pending/:phone", h.Status)
	return r
}

func TestPendingList_ReadyQueryParam(t *testing.T) {
	now := time.Now()
	readySince := now.Add(-3 * time.Hour)
	freshSince := now.Add(-5 * time.Minute)
	store := &stubPendingAccounts{accounts: []*models.Account{
		{PhoneNumber: "+998900000001", Status: models.StatusPending, PendingSince: &readySince, CountryWaitMinutes: 60},
		{PhoneNumber: "+998900000002", Status: models.StatusPending, PendingSince: &freshSince, CountryWaitMinutes: 60},
	}}
	router := pendingRouter(store)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/pending", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var all []services.PendingView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &all))
	assert.Len(t, all, 2)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/pending?ready=true", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var ready []services.PendingView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ready))
	require.Len(t, ready, 1)
	assert.Equal(t, "+998900000001", ready[0].Account.PhoneNumber)
	assert.True(t, ready[0].Wait.IsReady)
}

func TestPendingStatus_NotFoundIs404(t *testing.T) {
	router := pendingRouter(&stubPendingAccounts{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/pending/+10000000000", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPendingStatus_ReturnsTimers(t *testing.T) {
	now := time.Now()
	since := now.Add(-30 * time.Minute)
	store := &stubPendingAccounts{accounts: []*models.Account{
		{PhoneNumber: "+998901234567", Status: models.StatusPending, PendingSince: &since, CountryWaitMinutes: 120},
	}}
	router := pendingRouter(store)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/pending/+998901234567", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var view services.PendingView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, 120, view.Wait.WaitMinutes)
	assert.False(t, view.Wait.IsReady)
	assert.InDelta(t, 30, view.Wait.MinutesPassed, 1)
}
