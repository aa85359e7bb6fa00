package models

import "dcp/src/types"

// Donation is a single payment attempt. Reference is the external-facing
// correlation key: generated before the gateway is ever contacted, returned
// by the gateway on callback, never reused.
type Donation struct {
	ID            string               `gorm:"primarykey;type:uuid;default:gen_random_uuid()" json:"id"`
	Reference     string               `gorm:"uniqueIndex" json:"reference"`
	Name          string               `json:"name"`
	Email         string               `json:"email"`
	Phone         *string              `json:"phone,omitempty"`
	Message       *string              `json:"message,omitempty"`
	Amount        int64                `json:"amount"`
	PaymentMethod types.PaymentMethod  `json:"payment_method"`
	Status        types.DonationStatus `gorm:"default:'pending'" json:"status"`
	IsAnonymous   bool                 `json:"is_anonymous"`
	IsSubscribed  bool                 `json:"is_subscribed"`
	CampaignID    *string              `gorm:"type:uuid" json:"campaign_id,omitempty"`

	Campaign *Campaign `gorm:"foreignKey:campaign_id" json:"campaign,omitempty"`

	types.Timestamps
}
