package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tgmarket/internal/services"
)

type ApprovalHandler struct {
	approval *services.ApprovalService
}

func NewApprovalHandler(approval *services.ApprovalService) *ApprovalHandler {
	return &ApprovalHandler{approval: approval}
}

// @Summary      Запустить проход автоодобрения
// @Description  Прогоняет все готовые pending-аккаунты через финальную проверку
// @Tags         Approval
// @Produce      json
// @Success      200  {object}  services.ProcessResult
// @Failure      500  {object}  map[string]string
// @Router       /approval/process [post]
func (h *ApprovalHandler) Process(c *gin.Context) {
	result, err := h.approval.ProcessPending(c.Request.Context(), time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// @Summary      Принять аккаунт вручную
// @Description  Решение админа проходит те же проверки безопасности, что и автоодобрение
// @Tags         Approval
// @Produce      json
// @Param        phone  path  string  true  "номер телефона"
// @Success      200  {object}  models.Account
// @Failure      404  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /admin/accounts/{phone}/approve [post]
func (h *ApprovalHandler) Approve(c *gin.Context) {
	phone := c.Param("phone")
	adminID, roleID := getUserAndRole(c)
	log.Printf("[approve][manual] запрос approve phone=%s от userID=%d role=%d", phone, adminID, roleID)

	a, err := h.approval.ManualApprove(c.Request.Context(), phone)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrAccountNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
		case errors.Is(err, services.ErrAccountTerminal):
			c.JSON(http.StatusConflict, gin.H{"error": "Account already finalized"})
		case errors.Is(err, services.ErrNotEligible), errors.Is(err, services.ErrCapacityExceeded):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, a)
}

// @Summary      Отклонить аккаунт вручную
// @Tags         Approval
// @Accept       json
// @Produce      json
// @Param        phone  path  string  true  "номер телефона"
// @Success      200  {object}  models.Account
// @Failure      404  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /admin/accounts/{phone}/reject [post]
func (h *ApprovalHandler) Reject(c *gin.Context) {
	phone := c.Param("phone")

	var input struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&input) // причина опциональна

	adminID, roleID := getUserAndRole(c)
	log.Printf("[approve][manual] запрос reject phone=%s от userID=%d role=%d", phone, adminID, roleID)

	a, err := h.approval.ManualReject(phone, input.Reason)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrAccountNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
		case errors.Is(err, services.ErrAccountTerminal):
			c.JSON(http.StatusConflict, gin.H{"error": "Account already finalized"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, a)
}
