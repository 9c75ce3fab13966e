package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tgmarket/internal/models"
	"tgmarket/internal/repositories"
)

type AccountAdminHandler struct {
	accounts *repositories.AccountRepository
}

func NewAccountAdminHandler(accounts *repositories.AccountRepository) *AccountAdminHandler {
	return &AccountAdminHandler{accounts: accounts}
}

// @Summary      Аккаунты по статусу
// @Tags         Accounts
// @Produce      json
// @Param        status  query  string  true  "статус конвейера"
// @Success      200  {array}  models.Account
// @Failure      400  {object}  map[string]string
// @Router       /admin/accounts [get]
func (h *AccountAdminHandler) ListByStatus(c *gin.Context) {
	status := c.Query("status")
	if status == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status query param is required"})
		return
	}

	accounts, err := h.accounts.ListByStatus(status)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if accounts == nil {
		accounts = []*models.Account{}
	}
	c.JSON(http.StatusOK, accounts)
}

// @Summary      Карточка аккаунта
// @Tags         Accounts
// @Produce      json
// @Param        phone  path  string  true  "номер телефона"
// @Success      200  {object}  models.Account
// @Failure      404  {object}  map[string]string
// @Router       /admin/accounts/{phone} [get]
func (h *AccountAdminHandler) GetByPhone(c *gin.Context) {
	phone := c.Param("phone")

	a, err := h.accounts.GetByPhone(phone)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if a == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
		return
	}
	c.JSON(http.StatusOK, a)
}
