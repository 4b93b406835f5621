package services

import (
	"context"
	"errors"
	"strings"

	"github.com/pawpal/adoption_backend/apperrors"
	"github.com/pawpal/adoption_backend/models"
	"gorm.io/gorm"
)

// CommentService handles comments on pet posts. Creation is append-only.
type CommentService struct {
	db *gorm.DB
}

func NewCommentService(db *gorm.DB) *CommentService {
	return &CommentService{db: db}
}

func (s *CommentService) Create(ctx context.Context, userID, petID uint, content string) (*models.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, apperrors.InvalidArg("comment content is required")
	}

	var pet models.Pet
	if err := s.db.WithContext(ctx).First(&pet, petID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("pet not found")
		}
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to load pet", err)
	}

	comment := models.Comment{
		Content: content,
		PetID:   petID,
		UserID:  userID,
	}
	if err := s.db.WithContext(ctx).Create(&comment).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to create comment", err)
	}

	if err := s.db.WithContext(ctx).Preload("User").First(&comment, comment.ID).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to load comment", err)
	}
	return &comment, nil
}

func (s *CommentService) ForPet(ctx context.Context, petID uint) ([]models.Comment, error) {
	var comments []models.Comment
	err := s.db.WithContext(ctx).
		Where("pet_id = ?", petID).
		Order("created_at DESC").
		Preload("User").
		Find(&comments).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to fetch comments", err)
	}
	return comments, nil
}
