package utils

import (
	"context"
	"dcp/src/config"
	"dcp/src/db"
	"dcp/src/lib"
	"dcp/src/lib/mailer"
	"dcp/src/models"
	"dcp/src/types"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrCampaignNotFound     = errors.New("campaign not found")
	ErrAmountBelowMinimum   = fmt.Errorf("minimum donation amount is %d", config.MIN_DONATION_AMOUNT)
	ErrReferenceNotFound    = errors.New("donation reference not found")
	ErrCampaignHasDonations = errors.New("campaign has completed donations and cannot be deleted")
	ErrGatewayUnavailable   = errors.New("payment provider unavailable")
)

// NewPaymentReference mints the correlation key for a payment attempt. The
// provider prefix lets the verify callback route back to the right gateway
// without a lookup.
func NewPaymentReference(method types.PaymentMethod) string {
	return fmt.Sprintf("%s-%s", strings.ToUpper(string(method)), uuid.NewString())
}

func MethodFromReference(reference string) (types.PaymentMethod, error) {
	switch {
	case strings.HasPrefix(reference, "PAYSTACK-"):
		return types.PAYMENT_PAYSTACK, nil
	case strings.HasPrefix(reference, "OPAY-"):
		return types.PAYMENT_OPAY, nil
	}
	return "", fmt.Errorf("unrecognized reference [%s]", reference)
}

// CreateDonation records a pending donation and opens a hosted payment
// session for it. The pending row is written before the gateway is
// contacted, so a crashed or failed session still leaves a reconcilable
// record behind.
func CreateDonation(ctx context.Context, body *types.CreateDonationRequestBody) (redirectURL string, reference string, err error) {
	if body.Amount < config.MIN_DONATION_AMOUNT {
		return "", "", ErrAmountBelowMinimum
	}
	method := types.PaymentMethod(body.PaymentMethod)
	g := db.GetDb()

	if body.CampaignID != nil {
		var count int64
		if err := g.Model(&models.Campaign{}).Where("id = ?", *body.CampaignID).Count(&count).Error; err != nil {
			return "", "", err
		}
		if count < 1 {
			return "", "", ErrCampaignNotFound
		}
	}

	reference = NewPaymentReference(method)
	donation := models.Donation{
		Reference:     reference,
		Name:          body.Name,
		Email:         body.Email,
		Phone:         body.Phone,
		Message:       body.Message,
		Amount:        body.Amount,
		PaymentMethod: method,
		Status:        types.DONATION_PENDING,
		IsAnonymous:   body.IsAnonymous,
		IsSubscribed:  body.IsSubscribed,
		CampaignID:    body.CampaignID,
	}
	if err := g.Create(&donation).Error; err != nil {
		return "", "", err
	}

	if body.IsSubscribed {
		// best-effort; the opt-in is captured even when the session never opens
		if err := UpsertSubscriber(body.Email, body.Name); err != nil {
			log.Printf("[subscribers] upsert failed for [%s]: %s\n", body.Email, err.Error())
		}
	}

	gateway, err := lib.GatewayFor(method)
	if err != nil {
		return "", "", err
	}
	returnURL := fmt.Sprintf("%s/donation/success?reference=%s&payment_method=%s", config.AppHost(), reference, method)
	session, err := gateway.InitiateSession(ctx, &lib.SessionInput{
		Amount:      body.Amount,
		Reference:   reference,
		Name:        body.Name,
		Email:       body.Email,
		ReturnURL:   returnURL,
		CallbackURL: returnURL,
		Metadata: types.JSONB{
			"donor_name":   body.Name,
			"is_anonymous": body.IsAnonymous,
		},
	})
	if err != nil {
		log.Printf("[donations] session init failed for [%s]: %s\n", reference, err.Error())
		return "", "", fmt.Errorf("%w: %s", ErrGatewayUnavailable, err.Error())
	}
	return session.RedirectURL, reference, nil
}

// UpsertSubscriber is keyed on email so repeat donors never produce
// duplicate list entries.
func UpsertSubscriber(email, name string) error {
	g := db.GetDb()
	sub := models.Subscriber{Email: email, Name: name}
	return g.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{"name"}),
	}).Create(&sub).Error
}

// VerifyDonation settles a payment attempt against the provider's answer.
// Safe to call any number of times for the same reference: a donation that
// already reached completed is returned as-is and never downgraded, and the
// status writes are guarded so concurrent callers cannot regress a terminal
// outcome.
func VerifyDonation(ctx context.Context, reference string) (*models.Donation, bool, error) {
	g := db.GetDb()
	var donation models.Donation
	if err := g.
		Preload("Campaign").
		Where(&models.Donation{Reference: reference}).
		First(&donation).
		Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, ErrReferenceNotFound
		}
		return nil, false, err
	}
	if donation.Status == types.DONATION_COMPLETED {
		return &donation, true, nil
	}

	gateway, err := lib.GatewayForReference(reference)
	if err != nil {
		// reference carries no known prefix; the stored method decides
		gateway, err = lib.GatewayFor(donation.PaymentMethod)
		if err != nil {
			return nil, false, err
		}
	}
	result, err := gateway.QueryStatus(ctx, reference)
	if err != nil {
		log.Printf("[donations] status query failed for [%s]: %s\n", reference, err.Error())
		return nil, false, fmt.Errorf("%w: %s", ErrGatewayUnavailable, err.Error())
	}

	nextStatus := types.DONATION_FAILED
	if result.Succeeded {
		nextStatus = types.DONATION_COMPLETED
	}
	res := g.
		Model(&models.Donation{}).
		Where("reference = ? AND status <> ?", reference, types.DONATION_COMPLETED).
		Update("status", nextStatus)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected > 0 {
		donation.Status = nextStatus
		if result.Succeeded {
			settleCompletedDonation(&donation)
		}
	} else {
		// a concurrent verify settled the row between our read and the
		// guarded write; report the stored outcome, not the stale one
		if err := g.
			Preload("Campaign").
			Where(&models.Donation{Reference: reference}).
			First(&donation).
			Error; err != nil {
			return nil, false, err
		}
	}
	return &donation, donation.Status == types.DONATION_COMPLETED, nil
}

// settleCompletedDonation runs the first-completion side effects. Guarded by
// the caller's conditional update, so a re-verified donation never sends a
// second receipt.
func settleCompletedDonation(donation *models.Donation) {
	if donation.IsSubscribed {
		if err := UpsertSubscriber(donation.Email, donation.Name); err != nil {
			log.Printf("[subscribers] upsert failed for [%s]: %s\n", donation.Email, err.Error())
		}
	}
	campaignTitle := ""
	if donation.Campaign != nil {
		campaignTitle = donation.Campaign.Title
	}
	go func(d models.Donation, campaign string) {
		if err := mailer.SendDonationReceipt(&mailer.DonationReceiptInput{
			Email:     d.Email,
			Name:      d.Name,
			Amount:    d.Amount,
			Reference: d.Reference,
			Campaign:  campaign,
			Date:      time.Now(),
		}); err != nil {
			log.Printf("[mail] receipt failed for [%s]: %s\n", d.Reference, err.Error())
		}
	}(*donation, campaignTitle)
}

// FeatureCampaign makes the given campaign the featured one. Both writes run
// on the caller's transaction so at most one campaign is ever featured.
func FeatureCampaign(tx *gorm.DB, id string) error {
	if err := tx.
		Model(&models.Campaign{}).
		Where("id <> ?", id).
		Update("is_featured", false).
		Error; err != nil {
		return err
	}
	return tx.
		Model(&models.Campaign{}).
		Where("id = ?", id).
		Update("is_featured", true).
		Error
}

func ParseCampaignDate(value string) (time.Time, error) {
	t, err := time.Parse(config.TIME_PARSE_FORMAT, value)
	if err != nil {
		// fall back to bare dates so seed data and dashboard forms both work
		t, err = time.Parse("2006-01-02", value)
	}
	return t, err
}

func CreateCampaign(body *types.CreateCampaignRequestBody) (*models.Campaign, error) {
	startDate, err := ParseCampaignDate(body.StartDate)
	if err != nil {
		return nil, err
	}
	endDate, err := ParseCampaignDate(body.EndDate)
	if err != nil {
		return nil, err
	}
	campaign := models.Campaign{
		Title:       body.Title,
		Slug:        slug.Make(body.Title),
		Description: body.Description,
		ImageSrc:    body.ImageSrc,
		Goal:        body.Goal,
		StartDate:   startDate,
		EndDate:     endDate,
		IsActive:    body.IsActive,
		IsFeatured:  body.IsFeatured,
	}
	g := db.GetDb()
	err = g.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&campaign).Error; err != nil {
			return err
		}
		if campaign.IsFeatured {
			return FeatureCampaign(tx, campaign.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &campaign, nil
}

func UpdateCampaign(id string, body *types.UpdateCampaignRequestBody) (*models.Campaign, error) {
	g := db.GetDb()
	var campaign models.Campaign
	err := g.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&campaign).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCampaignNotFound
			}
			return err
		}
		if body.Title != nil {
			campaign.Title = *body.Title
			campaign.Slug = slug.Make(*body.Title)
		}
		if body.Description != nil {
			campaign.Description = *body.Description
		}
		if body.ImageSrc != nil {
			campaign.ImageSrc = *body.ImageSrc
		}
		if body.Goal != nil {
			campaign.Goal = *body.Goal
		}
		if body.StartDate != nil {
			startDate, err := ParseCampaignDate(*body.StartDate)
			if err != nil {
				return err
			}
			campaign.StartDate = startDate
		}
		if body.EndDate != nil {
			endDate, err := ParseCampaignDate(*body.EndDate)
			if err != nil {
				return err
			}
			campaign.EndDate = endDate
		}
		if body.IsActive != nil {
			campaign.IsActive = *body.IsActive
		}
		if body.IsFeatured != nil {
			campaign.IsFeatured = *body.IsFeatured
		}
		if campaign.EndDate.Before(campaign.StartDate) {
			return errors.New("end_date must be after start_date")
		}
		if err := tx.Save(&campaign).Error; err != nil {
			return err
		}
		if body.IsFeatured != nil && *body.IsFeatured {
			return FeatureCampaign(tx, campaign.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &campaign, nil
}

func DeleteCampaign(id string) error {
	g := db.GetDb()
	return g.Transaction(func(tx *gorm.DB) error {
		var campaign models.Campaign
		if err := tx.Where("id = ?", id).First(&campaign).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCampaignNotFound
			}
			return err
		}
		var count int64
		if err := tx.
			Model(&models.Donation{}).
			Where("campaign_id = ? AND status = ?", id, types.DONATION_COMPLETED).
			Count(&count).
			Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrCampaignHasDonations
		}
		return tx.Delete(&campaign).Error
	})
}

// GroupCampaigns splits campaigns into active, upcoming and completed by
// their date window relative to now. A campaign that has not started yet is
// upcoming even when its active flag is set; one inside its window but
// switched off counts as completed.
func GroupCampaigns(campaigns []models.Campaign, now time.Time) (active, upcoming, completed []models.Campaign) {
	active = []models.Campaign{}
	upcoming = []models.Campaign{}
	completed = []models.Campaign{}
	for _, c := range campaigns {
		switch {
		case c.StartDate.After(now):
			upcoming = append(upcoming, c)
		case c.EndDate.Before(now) || !c.IsActive:
			completed = append(completed, c)
		default:
			active = append(active, c)
		}
	}
	return active, upcoming, completed
}

func ComputeCampaignStats(campaign *models.Campaign, raised, donationsCount int64) types.CampaignStats {
	progress := 0
	if campaign.Goal > 0 {
		progress = int((raised*100 + campaign.Goal/2) / campaign.Goal)
	}
	return types.CampaignStats{
		ID:              campaign.ID,
		Title:           campaign.Title,
		Goal:            campaign.Goal,
		Raised:          raised,
		IsActive:        campaign.IsActive,
		DonationsCount:  donationsCount,
		ProgressPercent: progress,
	}
}

// ComputePortfolioStats derives the dashboard headline numbers. Only
// completed donations count toward sums and counts; pending and failed
// attempts are invisible here.
func ComputePortfolioStats(campaigns []models.Campaign, donations []models.Donation) types.PortfolioStats {
	activeIDs := map[string]bool{}
	var stats types.PortfolioStats
	stats.TotalCampaigns = int64(len(campaigns))
	for _, c := range campaigns {
		if c.IsActive {
			stats.ActiveCampaignsCount++
			activeIDs[c.ID] = true
		}
	}
	for _, d := range donations {
		if d.Status != types.DONATION_COMPLETED {
			continue
		}
		stats.TotalDonationsCount++
		stats.TotalAmountRaised += d.Amount
		if d.CampaignID != nil && activeIDs[*d.CampaignID] {
			stats.ActiveCampaignsDonationsCount++
			stats.ActiveCampaignsAmountRaised += d.Amount
		}
	}
	return stats
}

// MonthlySeries buckets completed donations into trailing calendar months
// ending at now. Months with no donations still appear with zero totals.
func MonthlySeries(donations []models.Donation, now time.Time, months int) []types.MonthlyBucket {
	buckets := make([]types.MonthlyBucket, 0, months)
	index := map[string]int{}
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	for i := months - 1; i >= 0; i-- {
		month := start.AddDate(0, -i, 0).Format("2006-01")
		index[month] = len(buckets)
		buckets = append(buckets, types.MonthlyBucket{Month: month})
	}
	for _, d := range donations {
		if d.Status != types.DONATION_COMPLETED {
			continue
		}
		if i, ok := index[d.CreatedAt.Format("2006-01")]; ok {
			buckets[i].Total += d.Amount
			buckets[i].Count++
		}
	}
	return buckets
}

// CampaignRaised reports the completed-donation sum and count for a
// campaign. Raised totals are always recomputed from donations rather than
// kept as a counter on the campaign row.
func CampaignRaised(g *gorm.DB, id string) (raised, count int64, err error) {
	var row struct {
		Total int64
		Count int64
	}
	if err := g.
		Model(&models.Donation{}).
		Select("COALESCE(SUM(amount), 0) as total, COUNT(*) as count").
		Where("campaign_id = ? AND status = ?", id, types.DONATION_COMPLETED).
		Scan(&row).
		Error; err != nil {
		return 0, 0, err
	}
	return row.Total, row.Count, nil
}

func GetCampaignStats(id string) (*types.CampaignStats, error) {
	g := db.GetDb()
	var campaign models.Campaign
	if err := g.Where("id = ?", id).First(&campaign).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCampaignNotFound
		}
		return nil, err
	}
	raised, count, err := CampaignRaised(g, id)
	if err != nil {
		return nil, err
	}
	stats := ComputeCampaignStats(&campaign, raised, count)
	return &stats, nil
}

func GetPortfolioStats() (*types.PortfolioStats, error) {
	g := db.GetDb()
	var campaigns []models.Campaign
	if err := g.Find(&campaigns).Error; err != nil {
		return nil, err
	}
	var donations []models.Donation
	if err := g.
		Where("status = ?", types.DONATION_COMPLETED).
		Find(&donations).
		Error; err != nil {
		return nil, err
	}
	stats := ComputePortfolioStats(campaigns, donations)
	return &stats, nil
}

// RecentDonationViews masks donor identity for anonymous donations before
// they reach the dashboard.
func RecentDonationViews(donations []models.Donation) []types.RecentDonation {
	views := make([]types.RecentDonation, 0, len(donations))
	for _, d := range donations {
		view := types.RecentDonation{
			ID:          d.ID,
			Name:        d.Name,
			Email:       d.Email,
			Amount:      d.Amount,
			IsAnonymous: d.IsAnonymous,
			CreatedAt:   d.CreatedAt,
		}
		if d.IsAnonymous {
			view.Name = "Anonymous"
			view.Email = ""
		}
		if d.Campaign != nil {
			view.Campaign = &types.CampaignBrief{ID: d.Campaign.ID, Title: d.Campaign.Title}
		}
		views = append(views, view)
	}
	return views
}

func GetRecentDonations(limit int) ([]types.RecentDonation, error) {
	g := db.GetDb()
	var donations []models.Donation
	if err := g.
		Preload("Campaign").
		Where("status = ?", types.DONATION_COMPLETED).
		Order("created_at desc").
		Limit(limit).
		Find(&donations).
		Error; err != nil {
		return nil, err
	}
	return RecentDonationViews(donations), nil
}

// ReconcilePendingDonations re-runs verification for stale pending attempts,
// picking up outcomes whose browser callback never arrived.
func ReconcilePendingDonations(olderThan time.Duration) {
	g := db.GetDb()
	cutoff := time.Now().Add(-olderThan)
	var refs []string
	if err := g.
		Model(&models.Donation{}).
		Where("status = ? AND created_at < ?", types.DONATION_PENDING, cutoff).
		Order("created_at asc").
		Limit(100).
		Pluck("reference", &refs).
		Error; err != nil {
		log.Printf("[reconcile] query failed: %s\n", err.Error())
		return
	}
	for _, ref := range refs {
		if _, _, err := VerifyDonation(context.Background(), ref); err != nil {
			log.Printf("[reconcile] verify failed for [%s]: %s\n", ref, err.Error())
		}
	}
	if len(refs) > 0 {
		log.Printf("[reconcile] swept %d pending donations\n", len(refs))
	}
}
