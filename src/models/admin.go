package models

import "dcp/src/types"

type AdminUser struct {
	ID           string `gorm:"primarykey;type:uuid;default:gen_random_uuid()" json:"id"`
	Name         string `json:"name"`
	Email        string `gorm:"uniqueIndex" json:"email"`
	PasswordHash string `json:"-"`

	types.Timestamps
}
