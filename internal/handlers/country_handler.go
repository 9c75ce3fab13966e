package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"tgmarket/internal/models"
	"tgmarket/internal/services"
)

type CountryHandler struct {
	countries *services.CountryService
}

func NewCountryHandler(countries *services.CountryService) *CountryHandler {
	return &CountryHandler{countries: countries}
}

// @Summary      Список стран с квотами
// @Tags         Countries
// @Produce      json
// @Param        active  query  bool  false  "только активные"
// @Success      200  {array}  models.CountryCapacity
// @Router       /countries [get]
func (h *CountryHandler) List(c *gin.Context) {
	activeOnly := c.Query("active") == "true"

	list, err := h.countries.List(activeOnly)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if list == nil {
		list = []*models.CountryCapacity{}
	}
	c.JSON(http.StatusOK, list)
}

// @Summary      Страна по коду
// @Tags         Countries
// @Produce      json
// @Param        code  path  string  true  "код страны"
// @Success      200  {object}  models.CountryCapacity
// @Failure      404  {object}  map[string]string
// @Router       /countries/{code} [get]
func (h *CountryHandler) GetByCode(c *gin.Context) {
	code := c.Param("code")

	country, err := h.countries.GetByCode(code)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if country == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Country not found"})
		return
	}
	c.JSON(http.StatusOK, country)
}

// @Summary      Создать страну
// @Tags         Countries
// @Accept       json
// @Produce      json
// @Success      201  {object}  models.CountryCapacity
// @Failure      400  {object}  map[string]string
// @Router       /admin/countries [post]
func (h *CountryHandler) Create(c *gin.Context) {
	var input models.CountryCapacity
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	if err := h.countries.Create(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, input)
}

// @Summary      Обновить страну
// @Tags         Countries
// @Accept       json
// @Produce      json
// @Param        code  path  string  true  "код страны"
// @Success      200  {object}  models.CountryCapacity
// @Failure      404  {object}  map[string]string
// @Router       /admin/countries/{code} [put]
func (h *CountryHandler) Update(c *gin.Context) {
	var input models.CountryCapacity
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	input.CountryCode = c.Param("code")

	if err := h.countries.Update(&input); err != nil {
		if errors.Is(err, services.ErrCountryNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Country not found"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, input)
}

// @Summary      Удалить страну
// @Tags         Countries
// @Produce      json
// @Param        code  path  string  true  "код страны"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /admin/countries/{code} [delete]
func (h *CountryHandler) Delete(c *gin.Context) {
	code := c.Param("code")

	if err := h.countries.Delete(code); err != nil {
		if errors.Is(err, services.ErrCountryNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Country not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Country deleted"})
}

// @Summary      Сбросить счётчик использованной квоты
// @Tags         Countries
// @Produce      json
// @Param        code  path  string  true  "код страны"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /admin/countries/{code}/reset [post]
func (h *CountryHandler) ResetUsed(c *gin.Context) {
	code := c.Param("code")

	if err := h.countries.ResetUsed(code); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Country not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Capacity counter reset"})
}
