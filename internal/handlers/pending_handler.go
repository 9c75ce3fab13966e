package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tgmarket/internal/services"
)

type PendingHandler struct {
	pending *services.PendingService
}

func NewPendingHandler(pending *services.PendingService) *PendingHandler {
	return &PendingHandler{pending: pending}
}

// @Summary      Очередь ожидания
// @Description  Все аккаунты в pending с таймерами; ?ready=true оставляет только готовые
// @Tags         Pending
// @Produce      json
// @Param        ready  query  bool  false  "только готовые к финальной проверке"
// @Success      200  {array}  services.PendingView
// @Failure      500  {object}  map[string]string
// @Router       /pending [get]
func (h *PendingHandler) List(c *gin.Context) {
	readyOnly := c.Query("ready") == "true"

	views, err := h.pending.List(readyOnly, time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if views == nil {
		views = []*services.PendingView{}
	}
	c.JSON(http.StatusOK, views)
}

// @Summary      Статус ожидания по номеру
// @Tags         Pending
// @Produce      json
// @Param        phone  path  string  true  "номер телефона"
// @Success      200  {object}  services.PendingView
// @Failure      404  {object}  map[string]string
// @Router       /pending/{phone} [get]
func (h *PendingHandler) Status(c *gin.Context) {
	phone := c.Param("phone")

	view, err := h.pending.Status(phone, time.Now())
	if err != nil {
		if errors.Is(err, services.ErrAccountNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, view)
}
