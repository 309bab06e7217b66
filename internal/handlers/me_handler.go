package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/bookora/booking-scheduler/internal/middleware"
	"github.com/bookora/booking-scheduler/internal/models"
	"github.com/bookora/booking-scheduler/internal/timezone"
)

type MeHandler struct {
	db *gorm.DB
}

func NewMeHandler(db *gorm.DB) *MeHandler {
	return &MeHandler{db: db}
}

func (h *MeHandler) GetMe(c *gin.Context) {
	providerIDVal, exists := c.Get(middleware.ContextProviderID)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "provider_not_in_context"})
		return
	}

	providerID, ok := providerIDVal.(uint)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_provider_id_type"})
		return
	}

	var provider models.Provider
	if err := h.db.First(&provider, providerID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "provider_not_found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"provider": gin.H{
			"id":                  provider.ID,
			"name":                provider.Name,
			"slug":                provider.Slug,
			"email":               provider.Email,
			"phone":               provider.Phone,
			"plan":                provider.Plan,
			"timezone":            provider.Timezone,
			"min_advance_minutes": provider.MinAdvanceMinutes,
			"deposit_amount":      provider.DepositAmount,
		},
	})
}

type UpdateSettingsRequest struct {
	Name              *string  `json:"name"`
	Phone             *string  `json:"phone"`
	Timezone          *string  `json:"timezone"`
	MinAdvanceMinutes *int     `json:"min_advance_minutes"`
	DepositAmount     *float64 `json:"deposit_amount"`
	PaymentAccount    *string  `json:"payment_account"`
}

// UpdateSettings applies partial updates to the provider's booking
// configuration. Only present fields change.
func (h *MeHandler) UpdateSettings(c *gin.Context) {
	providerID := c.MustGet(middleware.ContextProviderID).(uint)

	var req UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"details": err.Error(),
		})
		return
	}

	updates := map[string]any{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.Timezone != nil {
		if !timezone.IsValid(*req.Timezone) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_timezone"})
			return
		}
		updates["timezone"] = *req.Timezone
	}
	if req.MinAdvanceMinutes != nil {
		if *req.MinAdvanceMinutes < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_min_advance"})
			return
		}
		updates["min_advance_minutes"] = *req.MinAdvanceMinutes
	}
	if req.DepositAmount != nil {
		if *req.DepositAmount < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_deposit_amount"})
			return
		}
		updates["deposit_amount"] = *req.DepositAmount
	}
	if req.PaymentAccount != nil {
		updates["payment_account"] = *req.PaymentAccount
	}

	if len(updates) == 0 {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}

	if err := h.db.Model(&models.Provider{}).
		Where("id = ?", providerID).
		Updates(updates).Error; err != nil {

		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed_to_update_settings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
