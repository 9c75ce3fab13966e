package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"tgmarket/internal/services"
)

type FlowHandler struct {
	verification *services.VerificationService
}

func NewFlowHandler(verification *services.VerificationService) *FlowHandler {
	return &FlowHandler{verification: verification}
}

// flowError - единое преобразование ошибок конвейера в HTTP-коды
func flowError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidPhone):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrAccountNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
	case errors.Is(err, services.ErrAccountTerminal):
		c.JSON(http.StatusConflict, gin.H{"error": "Account already finalized"})
	case errors.Is(err, services.ErrPhoneAlreadySold):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrCapacityExceeded):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// @Summary      Отправить OTP на номер
// @Description  Проверяет квоту страны и отправляет код подтверждения на номер продавца
// @Tags         Flow
// @Accept       json
// @Produce      json
// @Success      200  {object}  services.SendOTPResult
// @Failure      400  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /flow/send-otp [post]
func (h *FlowHandler) SendOTP(c *gin.Context) {
	var input struct {
		Phone      string `json:"phone" binding:"required"`
		TelegramID int64  `json:"telegram_id"`
		ChatID     int64  `json:"chat_id"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	res, err := h.verification.SendOTP(c.Request.Context(), input.Phone, input.TelegramID, input.ChatID)
	if err != nil {
		flowError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// @Summary      Проверить OTP
// @Description  Проверяет код; при включённом втором факторе возвращает requires_2fa
// @Tags         Flow
// @Accept       json
// @Produce      json
// @Success      200  {object}  services.VerifyOTPResult
// @Failure      400  {object}  map[string]string
// @Router       /flow/verify-otp [post]
func (h *FlowHandler) VerifyOTP(c *gin.Context) {
	var input struct {
		Phone string `json:"phone" binding:"required"`
		Code  string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	res, err := h.verification.VerifyOTP(c.Request.Context(), input.Phone, input.Code)
	if err != nil {
		flowError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// @Summary      Проверить пароль второго фактора
// @Description  Шаг для аккаунтов, где включена 2FA. Неверный пароль отклоняет аккаунт
// @Tags         Flow
// @Accept       json
// @Produce      json
// @Success      200  {object}  models.Account
// @Failure      400  {object}  map[string]string
// @Router       /flow/verify-2fa [post]
func (h *FlowHandler) Verify2FA(c *gin.Context) {
	var input struct {
		Phone    string `json:"phone" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	a, err := h.verification.Verify2FA(c.Request.Context(), input.Phone, input.Password)
	if err != nil {
		flowError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// @Summary      Установить мастер-пароль
// @Description  Форсирует мастер-пароль на аккаунте; отказ площадки означает фейковый аккаунт
// @Tags         Flow
// @Accept       json
// @Produce      json
// @Success      200  {object}  models.Account
// @Failure      400  {object}  map[string]string
// @Router       /flow/setup-password [post]
func (h *FlowHandler) SetupPassword(c *gin.Context) {
	var input struct {
		Phone           string `json:"phone" binding:"required"`
		CurrentPassword string `json:"current_password"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	a, err := h.verification.SetupPassword(c.Request.Context(), input.Phone, input.CurrentPassword)
	if err != nil {
		flowError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// @Summary      Проверить сессии и поставить в очередь
// @Description  Первый замер устройств; аккаунт всегда уходит в pending до финальной проверки
// @Tags         Flow
// @Accept       json
// @Produce      json
// @Success      200  {object}  services.SessionCheckResult
// @Failure      400  {object}  map[string]string
// @Router       /flow/check-sessions [post]
func (h *FlowHandler) CheckSessions(c *gin.Context) {
	var input struct {
		Phone string `json:"phone" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	res, err := h.verification.CheckSessions(c.Request.Context(), input.Phone)
	if err != nil {
		flowError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// @Summary      Прямая валидация аккаунта
// @Description  Повторная проверка второго фактора с мгновенным вердиктом accept/reject
// @Tags         Flow
// @Accept       json
// @Produce      json
// @Success      200  {object}  models.Account
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /flow/validate [post]
func (h *FlowHandler) Validate(c *gin.Context) {
	var input struct {
		Phone    string `json:"phone" binding:"required"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	a, err := h.verification.DirectValidate(c.Request.Context(), input.Phone, input.Password)
	if err != nil {
		flowError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}
