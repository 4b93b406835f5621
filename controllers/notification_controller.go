package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pawpal/adoption_backend/models"
	"gorm.io/gorm"
)

type NotificationController struct {
	db *gorm.DB
}

func NewNotificationController(db *gorm.DB) *NotificationController {
	return &NotificationController{db: db}
}

type UpdateTokenInput struct {
	ExpoPushToken string `json:"expoPushToken" binding:"required"`
}

// UpdateNotificationToken godoc
// @Summary Register the device's push token
// @Description Stores the Expo push token used to reach this user while offline
// @Tags notifications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param token body UpdateTokenInput true "Expo push token"
// @Success 200 {object} map[string]string "Token updated"
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 500 {object} map[string]string "Server error"
// @Router /api/notifications/updateNotificationToken [patch]
func (nc *NotificationController) UpdateNotificationToken(c *gin.Context) {
	userID := c.MustGet("userID").(uint)

	var input UpdateTokenInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := nc.db.Model(&models.User{}).Where("id = ?", userID).
		Update("notification_token", input.ExpoPushToken).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update notification token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Notification token updated"})
}
