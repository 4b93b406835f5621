package services

import (
	"context"

	"github.com/pawpal/adoption_backend/apperrors"
	"github.com/pawpal/adoption_backend/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LikeResult carries the authoritative post-operation state so clients can
// reconcile their optimistic updates.
type LikeResult struct {
	Liked bool `json:"liked"`
	Likes int  `json:"likes"`
}

// LikeService maintains the (user, target) liked relation and the derived
// counts on pets and comments. Counts only move when inserting or deleting
// the relation row actually changed it, so concurrent duplicate requests
// cannot double-increment.
type LikeService struct {
	db *gorm.DB
}

func NewLikeService(db *gorm.DB) *LikeService {
	return &LikeService{db: db}
}

// Toggle flips the caller's liked state on the target: like if not liked,
// unlike if liked.
func (s *LikeService) Toggle(ctx context.Context, userID, targetID uint, kind string) (*LikeResult, error) {
	if err := s.checkTarget(ctx, targetID, kind); err != nil {
		return nil, err
	}

	var result LikeResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inserted, err := insertLike(tx, userID, targetID, kind)
		if err != nil {
			return err
		}
		if inserted {
			result.Liked = true
			return adjustCount(tx, targetID, kind, +1)
		}

		deleted, err := deleteLike(tx, userID, targetID, kind)
		if err != nil {
			return err
		}
		result.Liked = false
		if deleted {
			return adjustCount(tx, targetID, kind, -1)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.withCount(ctx, targetID, kind, result)
}

// Like sets the liked state. Already-liked is an idempotent no-op returning
// the current count.
func (s *LikeService) Like(ctx context.Context, userID, targetID uint, kind string) (*LikeResult, error) {
	if err := s.checkTarget(ctx, targetID, kind); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inserted, err := insertLike(tx, userID, targetID, kind)
		if err != nil {
			return err
		}
		if inserted {
			return adjustCount(tx, targetID, kind, +1)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.withCount(ctx, targetID, kind, LikeResult{Liked: true})
}

// Unlike clears the liked state. Not-liked is an idempotent no-op.
func (s *LikeService) Unlike(ctx context.Context, userID, targetID uint, kind string) (*LikeResult, error) {
	if err := s.checkTarget(ctx, targetID, kind); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		deleted, err := deleteLike(tx, userID, targetID, kind)
		if err != nil {
			return err
		}
		if deleted {
			return adjustCount(tx, targetID, kind, -1)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.withCount(ctx, targetID, kind, LikeResult{Liked: false})
}

// HasLiked reports whether the user currently likes the target.
func (s *LikeService) HasLiked(ctx context.Context, userID, targetID uint, kind string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Like{}).
		Where("user_id = ? AND target_id = ? AND target_kind = ?", userID, targetID, kind).
		Count(&count).Error
	if err != nil {
		return false, apperrors.Wrap(apperrors.CodeInternal, "failed to check liked state", err)
	}
	return count > 0, nil
}

// insertLike inserts the relation row, reporting whether a new row was
// created. The composite unique index absorbs concurrent duplicates.
func insertLike(tx *gorm.DB, userID, targetID uint, kind string) (bool, error) {
	like := models.Like{UserID: userID, TargetID: targetID, TargetKind: kind}
	res := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "target_id"}, {Name: "target_kind"}},
		DoNothing: true,
	}).Create(&like)
	if res.Error != nil {
		return false, apperrors.Wrap(apperrors.CodeInternal, "failed to record like", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func deleteLike(tx *gorm.DB, userID, targetID uint, kind string) (bool, error) {
	res := tx.Where("user_id = ? AND target_id = ? AND target_kind = ?", userID, targetID, kind).
		Delete(&models.Like{})
	if res.Error != nil {
		return false, apperrors.Wrap(apperrors.CodeInternal, "failed to remove like", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func adjustCount(tx *gorm.DB, targetID uint, kind string, delta int) error {
	var err error
	switch kind {
	case models.LikeTargetPet:
		err = tx.Model(&models.Pet{}).Where("id = ?", targetID).
			Update("likes", gorm.Expr("likes + ?", delta)).Error
	case models.LikeTargetComment:
		err = tx.Model(&models.Comment{}).Where("id = ?", targetID).
			Update("likes", gorm.Expr("likes + ?", delta)).Error
	}
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "failed to update like count", err)
	}
	return nil
}

func (s *LikeService) checkTarget(ctx context.Context, targetID uint, kind string) error {
	var (
		count int64
		err   error
	)
	switch kind {
	case models.LikeTargetPet:
		err = s.db.WithContext(ctx).Model(&models.Pet{}).Where("id = ?", targetID).Count(&count).Error
	case models.LikeTargetComment:
		err = s.db.WithContext(ctx).Model(&models.Comment{}).Where("id = ?", targetID).Count(&count).Error
	default:
		return apperrors.InvalidArg("unknown like target kind")
	}
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "failed to check like target", err)
	}
	if count == 0 {
		return apperrors.NotFound(kind + " not found")
	}
	return nil
}

func (s *LikeService) withCount(ctx context.Context, targetID uint, kind string, result LikeResult) (*LikeResult, error) {
	var likes int
	var err error
	switch kind {
	case models.LikeTargetPet:
		var pet models.Pet
		err = s.db.WithContext(ctx).Select("likes").First(&pet, targetID).Error
		likes = pet.Likes
	case models.LikeTargetComment:
		var comment models.Comment
		err = s.db.WithContext(ctx).Select("likes").First(&comment, targetID).Error
		likes = comment.Likes
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to read like count", err)
	}
	result.Likes = likes
	return &result, nil
}
