package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tgmarket/internal/models"
	"tgmarket/internal/services"
)

type SettingsHandler struct {
	settings *services.SettingsService
}

func NewSettingsHandler(settings *services.SettingsService) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

// @Summary      Глобальные настройки
// @Tags         Settings
// @Produce      json
// @Success      200  {array}  models.Setting
// @Router       /admin/settings [get]
func (h *SettingsHandler) List(c *gin.Context) {
	list, err := h.settings.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if list == nil {
		list = []*models.Setting{}
	}
	c.JSON(http.StatusOK, list)
}

// @Summary      Изменить настройку
// @Tags         Settings
// @Accept       json
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      400  {object}  map[string]string
// @Router       /admin/settings [put]
func (h *SettingsHandler) Set(c *gin.Context) {
	var input struct {
		Key   string `json:"key" binding:"required"`
		Value string `json:"value" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	if err := h.settings.Set(input.Key, input.Value); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Setting updated"})
}
