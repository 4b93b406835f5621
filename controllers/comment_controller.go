package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pawpal/adoption_backend/apperrors"
	"github.com/pawpal/adoption_backend/services"
)

type CommentController struct {
	comments *services.CommentService
}

func NewCommentController(comments *services.CommentService) *CommentController {
	return &CommentController{comments: comments}
}

type CreateCommentInput struct {
	PetID   uint   `json:"petId" binding:"required"`
	Content string `json:"content" binding:"required"`
}

// GetCommentsByPet godoc
// @Summary Get comments on a pet post
// @Description Returns all comments for a pet, newest first
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param petId path int true "Pet ID"
// @Success 200 {array} models.Comment
// @Failure 400 {object} map[string]string "Invalid pet ID"
// @Failure 500 {object} map[string]string "Server error"
// @Router /api/comments/pet/{petId} [get]
func (cc *CommentController) GetCommentsByPet(c *gin.Context) {
	petID, err := strconv.ParseUint(c.Param("petId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid pet ID"})
		return
	}

	comments, err := cc.comments.ForPet(c.Request.Context(), uint(petID))
	if err != nil {
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, comments)
}

// CreateComment godoc
// @Summary Comment on a pet post
// @Description Creates a comment by the authenticated user
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param comment body CreateCommentInput true "Comment"
// @Success 201 {object} models.Comment
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 404 {object} map[string]string "Pet not found"
// @Router /api/comments [post]
func (cc *CommentController) CreateComment(c *gin.Context) {
	userID := c.MustGet("userID").(uint)

	var input CreateCommentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	comment, err := cc.comments.Create(c.Request.Context(), userID, input.PetID, input.Content)
	if err != nil {
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, comment)
}
