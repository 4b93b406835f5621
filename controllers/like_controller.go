package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pawpal/adoption_backend/apperrors"
	"github.com/pawpal/adoption_backend/models"
	"github.com/pawpal/adoption_backend/services"
)

type LikeController struct {
	likes *services.LikeService
}

func NewLikeController(likes *services.LikeService) *LikeController {
	return &LikeController{likes: likes}
}

// LikePet godoc
// @Summary Like a pet
// @Description Records the authenticated user's like; already-liked is a no-op. Returns the authoritative like count.
// @Tags likes
// @Produce json
// @Security BearerAuth
// @Param id path int true "Pet ID"
// @Success 200 {object} services.LikeResult
// @Failure 404 {object} map[string]string "Pet not found"
// @Router /api/pets/{id}/like [post]
func (lc *LikeController) LikePet(c *gin.Context) {
	lc.apply(c, models.LikeTargetPet, "id", true)
}

// UnlikePet godoc
// @Summary Remove a like from a pet
// @Tags likes
// @Produce json
// @Security BearerAuth
// @Param id path int true "Pet ID"
// @Success 200 {object} services.LikeResult
// @Failure 404 {object} map[string]string "Pet not found"
// @Router /api/pets/{id}/like [delete]
func (lc *LikeController) UnlikePet(c *gin.Context) {
	lc.apply(c, models.LikeTargetPet, "id", false)
}

// HasLikedPet godoc
// @Summary Check whether the user liked a pet
// @Tags likes
// @Produce json
// @Security BearerAuth
// @Param id path int true "Pet ID"
// @Success 200 {object} map[string]bool
// @Router /api/pets/{id}/liked [get]
func (lc *LikeController) HasLikedPet(c *gin.Context) {
	lc.hasLiked(c, models.LikeTargetPet, "id")
}

// LikeComment godoc
// @Summary Like a comment
// @Tags likes
// @Produce json
// @Security BearerAuth
// @Param id path int true "Comment ID"
// @Success 200 {object} services.LikeResult
// @Failure 404 {object} map[string]string "Comment not found"
// @Router /api/comments/{id}/like [post]
func (lc *LikeController) LikeComment(c *gin.Context) {
	lc.apply(c, models.LikeTargetComment, "id", true)
}

// UnlikeComment godoc
// @Summary Remove a like from a comment
// @Tags likes
// @Produce json
// @Security BearerAuth
// @Param id path int true "Comment ID"
// @Success 200 {object} services.LikeResult
// @Failure 404 {object} map[string]string "Comment not found"
// @Router /api/comments/{id}/like [delete]
func (lc *LikeController) UnlikeComment(c *gin.Context) {
	lc.apply(c, models.LikeTargetComment, "id", false)
}

// HasLikedComment godoc
// @Summary Check whether the user liked a comment
// @Tags likes
// @Produce json
// @Security BearerAuth
// @Param id path int true "Comment ID"
// @Success 200 {object} map[string]bool
// @Router /api/comments/{id}/liked [get]
func (lc *LikeController) HasLikedComment(c *gin.Context) {
	lc.hasLiked(c, models.LikeTargetComment, "id")
}

func (lc *LikeController) apply(c *gin.Context, kind, param string, liked bool) {
	userID := c.MustGet("userID").(uint)

	targetID, err := strconv.ParseUint(c.Param(param), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID"})
		return
	}

	var result *services.LikeResult
	if liked {
		result, err = lc.likes.Like(c.Request.Context(), userID, uint(targetID), kind)
	} else {
		result, err = lc.likes.Unlike(c.Request.Context(), userID, uint(targetID), kind)
	}
	if err != nil {
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (lc *LikeController) hasLiked(c *gin.Context, kind, param string) {
	userID := c.MustGet("userID").(uint)

	targetID, err := strconv.ParseUint(c.Param(param), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID"})
		return
	}

	liked, err := lc.likes.HasLiked(c.Request.Context(), userID, uint(targetID), kind)
	if err != nil {
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"liked": liked})
}
