package types

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"
)

type Timestamps struct {
	CreatedAt time.Time      `gorm:"autoCreateTime:nano" json:"created_at,omitempty"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime:nano" json:"updated_at,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty,omitnil"`
}

type JSONB map[string]any

func (a JSONB) Value() (driver.Value, error) {
	valueString, err := json.Marshal(a)
	return string(valueString), err
}
func (a *JSONB) Scan(value any) error {
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	return nil
}

type Environment string

const (
	Local      Environment = "local"
	Test       Environment = "test"
	Production Environment = "production"
)

type DonationStatus string

const (
	DONATION_PENDING   DonationStatus = "pending"
	DONATION_COMPLETED DonationStatus = "completed"
	DONATION_FAILED    DonationStatus = "failed"
)

type PaymentMethod string

const (
	PAYMENT_PAYSTACK PaymentMethod = "paystack"
	PAYMENT_OPAY     PaymentMethod = "opay"
)

type CreateDonationRequestBody struct {
	Name          string  `json:"name" binding:"required"`
	Email         string  `json:"email" binding:"required,email"`
	Phone         *string `json:"phone,omitempty"`
	Amount        int64   `json:"amount" binding:"required,gt=0"`
	CampaignID    *string `json:"campaign_id,omitempty"`
	IsAnonymous   bool    `json:"is_anonymous,omitempty"`
	IsSubscribed  bool    `json:"is_subscribed,omitempty"`
	Message       *string `json:"message,omitempty"`
	PaymentMethod string  `json:"payment_method" binding:"required,paymethod"`
}

type CreateCampaignRequestBody struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description,omitempty"`
	ImageSrc    string `json:"image_src,omitempty"`
	Goal        int64  `json:"goal" binding:"required,gt=0"`
	StartDate   string `json:"start_date" binding:"required" time_format:"2006-01-02 15:04:05 -07:00"`
	EndDate     string `json:"end_date" binding:"required,gtdate=StartDate" time_format:"2006-01-02 15:04:05 -07:00"`
	IsActive    bool   `json:"is_active,omitempty"`
	IsFeatured  bool   `json:"is_featured,omitempty"`
}

type UpdateCampaignRequestBody struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	ImageSrc    *string `json:"image_src,omitempty"`
	Goal        *int64  `json:"goal,omitempty" binding:"omitempty,gt=0"`
	StartDate   *string `json:"start_date,omitempty"`
	EndDate     *string `json:"end_date,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
	IsFeatured  *bool   `json:"is_featured,omitempty"`
}

type AdminLoginRequestBody struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type CreateAdminRequestBody struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type CampaignURIParams struct {
	ID string `uri:"id" binding:"required"`
}

type PortfolioStats struct {
	TotalCampaigns                int64 `json:"total_campaigns"`
	ActiveCampaignsCount          int64 `json:"active_campaigns_count"`
	TotalDonationsCount           int64 `json:"total_donations_count"`
	ActiveCampaignsDonationsCount int64 `json:"active_campaigns_donations_count"`
	TotalAmountRaised             int64 `json:"total_amount_raised"`
	ActiveCampaignsAmountRaised   int64 `json:"active_campaigns_amount_raised"`
}

type CampaignStats struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Goal            int64  `json:"goal"`
	Raised          int64  `json:"raised"`
	IsActive        bool   `json:"is_active"`
	DonationsCount  int64  `json:"donations_count"`
	ProgressPercent int    `json:"progress"`
}

type RecentDonation struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Email       string         `json:"email"`
	Amount      int64          `json:"amount"`
	IsAnonymous bool           `json:"is_anonymous"`
	CreatedAt   time.Time      `json:"created_at"`
	Campaign    *CampaignBrief `json:"campaign,omitempty"`
}

type CampaignBrief struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// MonthlyBucket is one calendar-month point of the dashboard chart series.
// Empty months report a zero total, not an absent point.
type MonthlyBucket struct {
	Month string `json:"month"` // "2006-01"
	Total int64  `json:"total"`
	Count int64  `json:"count"`
}

type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}
