package models

import "dcp/src/types"

type Subscriber struct {
	ID    string `gorm:"primarykey;type:uuid;default:gen_random_uuid()" json:"id"`
	Email string `gorm:"uniqueIndex" json:"email"`
	Name  string `json:"name,omitempty"`

	types.Timestamps
}
