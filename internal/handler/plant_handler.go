package handler

import (
	"net/http"
	"time"

	"leaflens/backend/internal/auth"
	"leaflens/backend/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// region --- DTOs ---

// AddPlantInput defines the structure for adding a plant to monitoring.
type AddPlantInput struct {
	Name             string `json:"name" binding:"required" example:"Monstera"`
	Species          string `json:"species" example:"Monstera deliciosa"`
	ImageURL         string `json:"image_url"`
	WateringInterval int    `json:"watering_interval" example:"3"`
}

// endregion

// PlantHandler serves the per-user watering tracker.
type PlantHandler struct {
	db *gorm.DB
}

func NewPlantHandler(db *gorm.DB) *PlantHandler {
	return &PlantHandler{db: db}
}

// AddPlant godoc
// @Summary      Add a plant to monitoring
// @Tags         plants
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body AddPlantInput true "Plant"
// @Success      201  {object}  models.MonitoredPlant
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /plants [post]
func (h *PlantHandler) AddPlant(c *gin.Context) {
	var input AddPlantInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	interval := input.WateringInterval
	if interval <= 0 {
		interval = 3
	}

	now := time.Now()
	plant := models.MonitoredPlant{
		OwnerUID:         auth.CurrentUID(c),
		Name:             input.Name,
		Species:          input.Species,
		ImageURL:         input.ImageURL,
		WateringInterval: interval,
		LastWatered:      now,
		NextWatering:     models.NextWateringAfter(now, interval),
	}

	if err := h.db.WithContext(c.Request.Context()).Create(&plant).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add plant"})
		return
	}
	c.JSON(http.StatusCreated, plant)
}

// ListPlants godoc
// @Summary      List monitored plants
// @Description  Returns the caller's monitored plants, newest first.
// @Tags         plants
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   models.MonitoredPlant
// @Failure      401  {object}  ErrorResponse
// @Router       /plants [get]
func (h *PlantHandler) ListPlants(c *gin.Context) {
	var plants []models.MonitoredPlant
	err := h.db.WithContext(c.Request.Context()).
		Where("owner_uid = ?", auth.CurrentUID(c)).
		Order("created_at DESC").
		Find(&plants).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch plants"})
		return
	}
	c.JSON(http.StatusOK, plants)
}

// WaterPlant godoc
// @Summary      Record a watering
// @Description  Bumps last-watered to now and recomputes the next watering date.
// @Tags         plants
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Plant ID"
// @Success      200  {object}  map[string]string "{"message": "Watering recorded"}"
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /plants/{id}/water [post]
func (h *PlantHandler) WaterPlant(c *gin.Context) {
	id, ok := parseRequestID(c)
	if !ok {
		return
	}

	var plant models.MonitoredPlant
	err := h.db.WithContext(c.Request.Context()).
		First(&plant, "id = ? AND owner_uid = ?", id, auth.CurrentUID(c)).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Plant not found"})
		return
	}

	now := time.Now()
	updates := map[string]interface{}{
		"last_watered":  now,
		"next_watering": models.NextWateringAfter(now, plant.WateringInterval),
	}
	if err := h.db.WithContext(c.Request.Context()).Model(&plant).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record watering"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Watering recorded"})
}

// RemovePlant godoc
// @Summary      Remove a plant from monitoring
// @Tags         plants
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Plant ID"
// @Success      200  {object}  map[string]string "{"message": "Plant removed"}"
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /plants/{id} [delete]
func (h *PlantHandler) RemovePlant(c *gin.Context) {
	id, ok := parseRequestID(c)
	if !ok {
		return
	}

	result := h.db.WithContext(c.Request.Context()).
		Where("id = ? AND owner_uid = ?", id, auth.CurrentUID(c)).
		Delete(&models.MonitoredPlant{})
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove plant"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Plant not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Plant removed"})
}
