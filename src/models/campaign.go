package models

import (
	"dcp/src/types"
	"time"
)

type Campaign struct {
	ID          string    `gorm:"primarykey;type:uuid;default:gen_random_uuid()" json:"id"`
	Title       string    `json:"title"`
	Slug        string    `gorm:"index" json:"slug,omitempty"`
	Description string    `json:"description,omitempty"`
	ImageSrc    string    `json:"image_src,omitempty"`
	Goal        int64     `json:"goal"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	IsActive    bool      `json:"is_active"`
	IsFeatured  bool      `json:"is_featured"`

	Donations []Donation `gorm:"foreignKey:campaign_id" json:"donations,omitempty"`

	types.Timestamps
}
