package models

import (
	"time"
)

const (
	LikeTargetPet     = "pet"
	LikeTargetComment = "comment"
)

// Like records that a user liked a pet or a comment. The combination of
// UserID, TargetID and TargetKind must be unique; like counts are adjusted
// only when inserting or deleting one of these rows actually changes it.
type Like struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;uniqueIndex:idx_user_target" json:"user_id"`
	TargetID   uint      `gorm:"not null;uniqueIndex:idx_user_target" json:"target_id"`
	TargetKind string    `gorm:"size:20;not null;uniqueIndex:idx_user_target" json:"target_kind"`
	CreatedAt  time.Time `json:"created_at"`
}
