package models

import (
	"time"
)

type Pet struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:255;not null" json:"name"`
	Breed        string    `gorm:"size:255" json:"breed"`
	Age          int       `json:"age"`
	Size         string    `gorm:"size:50" json:"size"`
	IsVaccinated bool      `json:"isVaccinated"`
	IsSterilized bool      `json:"isSterilized"`
	Description  string    `gorm:"type:text" json:"description"`
	ImageURL     string    `gorm:"size:1024" json:"imageUrl"`
	Location     string    `gorm:"size:255" json:"location"`
	IsAdopted    bool      `gorm:"default:false" json:"isAdopted"`
	Likes        int       `gorm:"default:0" json:"likes"`
	OwnerID      uint      `json:"ownerId"`
	Owner        User      `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
