package services_test

import (
	"context"
	"sync"
	"testing"

	"github.com/pawpal/adoption_backend/apperrors"
	"github.com/pawpal/adoption_backend/models"
	"github.com/pawpal/adoption_backend/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToggleLike_RoundTrip(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := services.NewLikeService(db)

	owner := createUser(t, db, "owner", "")
	fan := createUser(t, db, "fan", "")
	pet := createPet(t, db, "Rex", owner.ID)

	result, err := svc.Toggle(ctx, fan.ID, pet.ID, models.LikeTargetPet)
	require.NoError(t, err)
	assert.True(t, result.Liked)
	assert.Equal(t, 1, result.Likes)

	// toggling twice returns to the original state and count
	result, err = svc.Toggle(ctx, fan.ID, pet.ID, models.LikeTargetPet)
	require.NoError(t, err)
	assert.False(t, result.Liked)
	assert.Equal(t, 0, result.Likes)

	liked, err := svc.HasLiked(ctx, fan.ID, pet.ID, models.LikeTargetPet)
	require.NoError(t, err)
	assert.False(t, liked)
}

func TestLikeUnlike_Idempotent(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := services.NewLikeService(db)

	owner := createUser(t, db, "owner", "")
	fan := createUser(t, db, "fan", "")
	pet := createPet(t, db, "Rex", owner.ID)

	result, err := svc.Like(ctx, fan.ID, pet.ID, models.LikeTargetPet)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Likes)

	// a repeated like does not double-increment
	result, err = svc.Like(ctx, fan.ID, pet.ID, models.LikeTargetPet)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Likes)

	result, err = svc.Unlike(ctx, fan.ID, pet.ID, models.LikeTargetPet)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Likes)

	result, err = svc.Unlike(ctx, fan.ID, pet.ID, models.LikeTargetPet)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Likes)
}

func TestToggleLike_Comment(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := services.NewLikeService(db)

	owner := createUser(t, db, "owner", "")
	fan := createUser(t, db, "fan", "")
	pet := createPet(t, db, "Rex", owner.ID)

	comment := models.Comment{Content: "what a cutie", PetID: pet.ID, UserID: owner.ID}
	require.NoError(t, db.Create(&comment).Error)

	result, err := svc.Toggle(ctx, fan.ID, comment.ID, models.LikeTargetComment)
	require.NoError(t, err)
	assert.True(t, result.Liked)
	assert.Equal(t, 1, result.Likes)

	var got models.Comment
	require.NoError(t, db.First(&got, comment.ID).Error)
	assert.Equal(t, 1, got.Likes)
}

func TestToggleLike_TargetErrors(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := services.NewLikeService(db)

	fan := createUser(t, db, "fan", "")

	_, err := svc.Toggle(ctx, fan.ID, 9999, models.LikeTargetPet)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.CodeOf(err))

	_, err = svc.Toggle(ctx, fan.ID, 1, "post")
	assert.Equal(t, apperrors.CodeInvalidArgument, apperrors.CodeOf(err))
}

func TestLike_ConcurrentDuplicatesSingleIncrement(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := services.NewLikeService(db)

	owner := createUser(t, db, "owner", "")
	fan := createUser(t, db, "fan", "")
	pet := createPet(t, db, "Rex", owner.ID)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.Like(ctx, fan.ID, pet.ID, models.LikeTargetPet)
		}()
	}
	wg.Wait()

	var got models.Pet
	require.NoError(t, db.First(&got, pet.ID).Error)
	assert.Equal(t, 1, got.Likes)

	var relations int64
	db.Model(&models.Like{}).Where("user_id = ? AND target_id = ? AND target_kind = ?",
		fan.ID, pet.ID, models.LikeTargetPet).Count(&relations)
	assert.EqualValues(t, 1, relations)
}
