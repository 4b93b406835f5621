package models

import (
	"time"
)

const (
	RequestPending  = "pending"
	RequestAccepted = "accepted"
	RequestRejected = "rejected"
)

type AdoptionRequest struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	PetID       uint      `gorm:"index" json:"pet_id"`
	Pet         Pet       `gorm:"foreignKey:PetID" json:"pet,omitempty"`
	UserID      uint      `gorm:"index" json:"user_id"`
	User        User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Description string    `gorm:"type:text;not null" json:"description"`
	Status      string    `gorm:"size:20;default:'pending'" json:"status"` // pending, accepted, rejected
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
