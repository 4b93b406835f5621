package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pawpal/adoption_backend/apperrors"
	"github.com/pawpal/adoption_backend/services"
)

type AdoptionController struct {
	adoption *services.AdoptionService
}

func NewAdoptionController(adoption *services.AdoptionService) *AdoptionController {
	return &AdoptionController{adoption: adoption}
}

// GetPendingRequests godoc
// @Summary Get pending adoption requests for a pet owner
// @Description Returns every pending request targeting pets owned by the user, with pet and requester details. This list is the source of truth for the pending feed.
// @Tags adoption-requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param userId path int true "Owner user ID"
// @Success 200 {array} models.AdoptionRequest
// @Failure 400 {object} map[string]string "Invalid user ID"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 500 {object} map[string]string "Server error"
// @Router /api/adoption-requests/pending/{userId} [get]
func (ac *AdoptionController) GetPendingRequests(c *gin.Context) {
	userID := c.MustGet("userID").(uint)

	id, err := strconv.ParseUint(c.Param("userId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}
	if uint(id) != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only view your own pending requests"})
		return
	}

	requests, err := ac.adoption.PendingForOwner(c.Request.Context(), userID)
	if err != nil {
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, requests)
}
