package utils

import (
	"context"
	"dcp/src/db"
	"dcp/src/lib"
	"dcp/src/models"
	"dcp/src/types"
	"errors"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		log.Fatalf("An error '%s' was not expected when opening a stub database connection", err)
	}
	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		log.Fatalf("An error '%s' was not expected when opening gorm database", err)
	}
	return gormDB, mock
}

type fakeGateway struct {
	method    types.PaymentMethod
	succeeded bool
	err       error
	calls     int
}

func (f *fakeGateway) Name() types.PaymentMethod { return f.method }
func (f *fakeGateway) InitiateSession(ctx context.Context, input *lib.SessionInput) (*lib.Session, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &lib.Session{RedirectURL: "https://checkout.test/session"}, nil
}
func (f *fakeGateway) QueryStatus(ctx context.Context, reference string) (*lib.StatusResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &lib.StatusResult{Succeeded: f.succeeded}, nil
}

func donationColumns() []string {
	return []string{
		"id", "reference", "name", "email", "phone", "message", "amount",
		"payment_method", "status", "is_anonymous", "is_subscribed",
		"campaign_id", "created_at", "updated_at", "deleted_at",
	}
}

func TestNewPaymentReference(t *testing.T) {
	ref := NewPaymentReference(types.PAYMENT_PAYSTACK)
	assert.True(t, strings.HasPrefix(ref, "PAYSTACK-"))
	method, err := MethodFromReference(ref)
	assert.NoError(t, err)
	assert.Equal(t, types.PAYMENT_PAYSTACK, method)

	other := NewPaymentReference(types.PAYMENT_OPAY)
	assert.True(t, strings.HasPrefix(other, "OPAY-"))
	assert.NotEqual(t, ref, other)
	assert.NotEqual(t, NewPaymentReference(types.PAYMENT_OPAY), other)
}

func TestMethodFromReferenceUnknown(t *testing.T) {
	_, err := MethodFromReference("FLUTTERWAVE-abc")
	assert.Error(t, err)
}

func TestCreateDonationBelowMinimum(t *testing.T) {
	_, _, err := CreateDonation(context.Background(), &types.CreateDonationRequestBody{
		Name:          "Ada",
		Email:         "ada@example.com",
		Amount:        50,
		PaymentMethod: "paystack",
	})
	assert.ErrorIs(t, err, ErrAmountBelowMinimum)
}

func TestGroupCampaigns(t *testing.T) {
	now := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	past := models.Campaign{ID: "a", IsActive: true, StartDate: now.AddDate(0, -3, 0), EndDate: now.AddDate(0, -1, 0)}
	running := models.Campaign{ID: "b", IsActive: true, StartDate: now.AddDate(0, -1, 0), EndDate: now.AddDate(0, 1, 0)}
	future := models.Campaign{ID: "c", IsActive: true, StartDate: now.AddDate(0, 1, 0), EndDate: now.AddDate(0, 2, 0)}
	switchedOff := models.Campaign{ID: "d", IsActive: false, StartDate: now.AddDate(0, -1, 0), EndDate: now.AddDate(0, 1, 0)}

	active, upcoming, completed := GroupCampaigns([]models.Campaign{past, running, future, switchedOff}, now)
	assert.Len(t, active, 1)
	assert.Equal(t, "b", active[0].ID)
	assert.Len(t, upcoming, 1)
	assert.Equal(t, "c", upcoming[0].ID)
	// ended and switched-off campaigns both read as completed
	assert.Len(t, completed, 2)
	assert.Equal(t, "a", completed[0].ID)
	assert.Equal(t, "d", completed[1].ID)

	active, upcoming, completed = GroupCampaigns(nil, now)
	assert.Empty(t, active)
	assert.Empty(t, upcoming)
	assert.Empty(t, completed)
}

func TestComputeCampaignStats(t *testing.T) {
	campaign := models.Campaign{ID: "a", Title: "Clean Water", Goal: 10000, IsActive: true}
	stats := ComputeCampaignStats(&campaign, 5000, 3)
	assert.Equal(t, int64(5000), stats.Raised)
	assert.Equal(t, int64(3), stats.DonationsCount)
	assert.Equal(t, 50, stats.ProgressPercent)

	noGoal := models.Campaign{ID: "b", Goal: 0}
	stats = ComputeCampaignStats(&noGoal, 5000, 1)
	assert.Equal(t, 0, stats.ProgressPercent)

	third := ComputeCampaignStats(&campaign, 3333, 1)
	assert.Equal(t, 33, third.ProgressPercent)
}

func TestComputePortfolioStats(t *testing.T) {
	activeID := "a"
	inactiveID := "b"
	campaigns := []models.Campaign{
		{ID: activeID, IsActive: true},
		{ID: inactiveID, IsActive: false},
	}
	donations := []models.Donation{
		{Amount: 5000, Status: types.DONATION_COMPLETED, CampaignID: &activeID},
		{Amount: 2000, Status: types.DONATION_COMPLETED, CampaignID: &inactiveID},
		{Amount: 1500, Status: types.DONATION_COMPLETED},
		{Amount: 9999, Status: types.DONATION_PENDING, CampaignID: &activeID},
		{Amount: 9999, Status: types.DONATION_FAILED, CampaignID: &activeID},
	}
	stats := ComputePortfolioStats(campaigns, donations)
	assert.Equal(t, int64(2), stats.TotalCampaigns)
	assert.Equal(t, int64(1), stats.ActiveCampaignsCount)
	assert.Equal(t, int64(3), stats.TotalDonationsCount)
	assert.Equal(t, int64(8500), stats.TotalAmountRaised)
	assert.Equal(t, int64(1), stats.ActiveCampaignsDonationsCount)
	assert.Equal(t, int64(5000), stats.ActiveCampaignsAmountRaised)
}

func TestMonthlySeries(t *testing.T) {
	now := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	donations := []models.Donation{
		{Amount: 5000, Status: types.DONATION_COMPLETED, Timestamps: types.Timestamps{CreatedAt: time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC)}},
		{Amount: 3000, Status: types.DONATION_COMPLETED, Timestamps: types.Timestamps{CreatedAt: time.Date(2026, 8, 9, 0, 0, 0, 0, time.UTC)}},
		{Amount: 1000, Status: types.DONATION_PENDING, Timestamps: types.Timestamps{CreatedAt: time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)}},
		{Amount: 7000, Status: types.DONATION_COMPLETED, Timestamps: types.Timestamps{CreatedAt: time.Date(2025, 12, 25, 0, 0, 0, 0, time.UTC)}},
	}
	series := MonthlySeries(donations, now, 6)
	assert.Len(t, series, 6)
	assert.Equal(t, "2026-03", series[0].Month)
	assert.Equal(t, "2026-08", series[5].Month)
	assert.Equal(t, int64(8000), series[5].Total)
	assert.Equal(t, int64(2), series[5].Count)
	// pending donation in July does not count
	assert.Equal(t, int64(0), series[4].Total)
	// December 2025 falls outside the window
	var total int64
	for _, b := range series {
		total += b.Total
	}
	assert.Equal(t, int64(8000), total)
}

func TestRecentDonationViews(t *testing.T) {
	donations := []models.Donation{
		{ID: "1", Name: "Ada", Email: "ada@example.com", Amount: 5000, IsAnonymous: false},
		{ID: "2", Name: "Chidi", Email: "chidi@example.com", Amount: 2000, IsAnonymous: true,
			Campaign: &models.Campaign{ID: "c1", Title: "Clean Water"}},
	}
	views := RecentDonationViews(donations)
	assert.Len(t, views, 2)
	assert.Equal(t, "Ada", views[0].Name)
	assert.Equal(t, "ada@example.com", views[0].Email)
	assert.Nil(t, views[0].Campaign)
	assert.Equal(t, "Anonymous", views[1].Name)
	assert.Empty(t, views[1].Email)
	assert.True(t, views[1].IsAnonymous)
	assert.Equal(t, "Clean Water", views[1].Campaign.Title)
}

func TestFeatureCampaignClearsOthersFirst(t *testing.T) {
	gormDB, mock := newMockDB(t)
	db.NewDB(gormDB)
	id := uuid.NewString()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "campaigns"`).WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(`UPDATE "campaigns"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := gormDB.Transaction(func(tx *gorm.DB) error {
		return FeatureCampaign(tx, id)
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteCampaignWithCompletedDonations(t *testing.T) {
	gormDB, mock := newMockDB(t)
	db.NewDB(gormDB)
	id := uuid.NewString()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "campaigns"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title"}).AddRow(id, "Clean Water"))
	mock.ExpectQuery(`SELECT count`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectRollback()

	err := DeleteCampaign(id)
	assert.ErrorIs(t, err, ErrCampaignHasDonations)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifyDonationUnknownReference(t *testing.T) {
	gormDB, mock := newMockDB(t)
	db.NewDB(gormDB)

	mock.ExpectQuery(`SELECT (.+) FROM "donations"`).
		WillReturnRows(sqlmock.NewRows(donationColumns()))

	_, _, err := VerifyDonation(context.Background(), "PAYSTACK-"+uuid.NewString())
	assert.ErrorIs(t, err, ErrReferenceNotFound)
}

func TestVerifyDonationSuccessOutcome(t *testing.T) {
	gormDB, mock := newMockDB(t)
	db.NewDB(gormDB)
	fake := &fakeGateway{method: types.PAYMENT_PAYSTACK, succeeded: true}
	lib.NewGateway(types.PAYMENT_PAYSTACK, fake)
	defer lib.NewGateway(types.PAYMENT_PAYSTACK, nil)

	reference := "PAYSTACK-" + uuid.NewString()
	now := time.Now()
	mock.ExpectQuery(`SELECT (.+) FROM "donations"`).
		WillReturnRows(sqlmock.NewRows(donationColumns()).
			AddRow(uuid.NewString(), reference, "Ada", "ada@example.com", nil, nil, 5000,
				"paystack", "pending", false, false, nil, now, now, nil))
	mock.ExpectExec(`UPDATE "donations"`).WillReturnResult(sqlmock.NewResult(0, 1))

	donation, succeeded, err := VerifyDonation(context.Background(), reference)
	assert.NoError(t, err)
	assert.True(t, succeeded)
	assert.Equal(t, types.DONATION_COMPLETED, donation.Status)
	assert.Equal(t, 1, fake.calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifyDonationCompletedShortCircuits(t *testing.T) {
	gormDB, mock := newMockDB(t)
	db.NewDB(gormDB)
	fake := &fakeGateway{method: types.PAYMENT_PAYSTACK, succeeded: false}
	lib.NewGateway(types.PAYMENT_PAYSTACK, fake)
	defer lib.NewGateway(types.PAYMENT_PAYSTACK, nil)

	reference := "PAYSTACK-" + uuid.NewString()
	now := time.Now()
	mock.ExpectQuery(`SELECT (.+) FROM "donations"`).
		WillReturnRows(sqlmock.NewRows(donationColumns()).
			AddRow(uuid.NewString(), reference, "Ada", "ada@example.com", nil, nil, 5000,
				"paystack", "completed", false, false, nil, now, now, nil))

	donation, succeeded, err := VerifyDonation(context.Background(), reference)
	assert.NoError(t, err)
	assert.True(t, succeeded)
	assert.Equal(t, types.DONATION_COMPLETED, donation.Status)
	// completed donations never reach the gateway again
	assert.Equal(t, 0, fake.calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifyDonationFailedOutcome(t *testing.T) {
	gormDB, mock := newMockDB(t)
	db.NewDB(gormDB)
	fake := &fakeGateway{method: types.PAYMENT_OPAY, succeeded: false}
	lib.NewGateway(types.PAYMENT_OPAY, fake)
	defer lib.NewGateway(types.PAYMENT_OPAY, nil)

	reference := "OPAY-" + uuid.NewString()
	now := time.Now()
	mock.ExpectQuery(`SELECT (.+) FROM "donations"`).
		WillReturnRows(sqlmock.NewRows(donationColumns()).
			AddRow(uuid.NewString(), reference, "Ada", "ada@example.com", nil, nil, 5000,
				"opay", "pending", false, false, nil, now, now, nil))
	mock.ExpectExec(`UPDATE "donations"`).WillReturnResult(sqlmock.NewResult(0, 1))

	donation, succeeded, err := VerifyDonation(context.Background(), reference)
	assert.NoError(t, err)
	assert.False(t, succeeded)
	assert.Equal(t, types.DONATION_FAILED, donation.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifyDonationGatewayErrorLeavesRow(t *testing.T) {
	gormDB, mock := newMockDB(t)
	db.NewDB(gormDB)
	fake := &fakeGateway{method: types.PAYMENT_PAYSTACK, err: errors.New("connection refused")}
	lib.NewGateway(types.PAYMENT_PAYSTACK, fake)
	defer lib.NewGateway(types.PAYMENT_PAYSTACK, nil)

	reference := "PAYSTACK-" + uuid.NewString()
	now := time.Now()
	mock.ExpectQuery(`SELECT (.+) FROM "donations"`).
		WillReturnRows(sqlmock.NewRows(donationColumns()).
			AddRow(uuid.NewString(), reference, "Ada", "ada@example.com", nil, nil, 5000,
				"paystack", "pending", false, false, nil, now, now, nil))

	_, _, err := VerifyDonation(context.Background(), reference)
	assert.ErrorIs(t, err, ErrGatewayUnavailable)
	// no status write happened
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifyDonationConcurrentCompletion(t *testing.T) {
	gormDB, mock := newMockDB(t)
	db.NewDB(gormDB)
	fake := &fakeGateway{method: types.PAYMENT_PAYSTACK, succeeded: true}
	lib.NewGateway(types.PAYMENT_PAYSTACK, fake)
	defer lib.NewGateway(types.PAYMENT_PAYSTACK, nil)

	reference := "PAYSTACK-" + uuid.NewString()
	id := uuid.NewString()
	now := time.Now()
	mock.ExpectQuery(`SELECT (.+) FROM "donations"`).
		WillReturnRows(sqlmock.NewRows(donationColumns()).
			AddRow(id, reference, "Ada", "ada@example.com", nil, nil, 5000,
				"paystack", "pending", false, false, nil, now, now, nil))
	// another caller won the guarded write in between
	mock.ExpectExec(`UPDATE "donations"`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT (.+) FROM "donations"`).
		WillReturnRows(sqlmock.NewRows(donationColumns()).
			AddRow(id, reference, "Ada", "ada@example.com", nil, nil, 5000,
				"paystack", "completed", false, false, nil, now, now, nil))

	donation, succeeded, err := VerifyDonation(context.Background(), reference)
	assert.NoError(t, err)
	assert.True(t, succeeded)
	assert.Equal(t, types.DONATION_COMPLETED, donation.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateDonationPendingRowSurvivesGatewayFailure(t *testing.T) {
	gormDB, mock := newMockDB(t)
	db.NewDB(gormDB)
	fake := &fakeGateway{method: types.PAYMENT_OPAY, err: errors.New("connection refused")}
	lib.NewGateway(types.PAYMENT_OPAY, fake)
	defer lib.NewGateway(types.PAYMENT_OPAY, nil)

	// the pending row goes in with the exact amount and method, before the
	// provider is ever contacted
	mock.ExpectQuery(`INSERT INTO "donations"`).
		WithArgs(sqlmock.AnyArg(), "Ada", "ada@example.com", nil, nil, int64(5000),
			"opay", "pending", false, true, nil,
			sqlmock.AnyArg(), sqlmock.AnyArg(), nil).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.NewString()))
	mock.ExpectQuery(`INSERT INTO "subscribers"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.NewString()))

	_, reference, err := CreateDonation(context.Background(), &types.CreateDonationRequestBody{
		Name:          "Ada",
		Email:         "ada@example.com",
		Amount:        5000,
		PaymentMethod: "opay",
		IsSubscribed:  true,
	})
	assert.ErrorIs(t, err, ErrGatewayUnavailable)
	assert.True(t, strings.HasPrefix(reference, "OPAY-"))
	assert.Equal(t, 1, fake.calls)
	// the row stays pending: no status mutation follows the failed init
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateDonationOpensSession(t *testing.T) {
	gormDB, mock := newMockDB(t)
	db.NewDB(gormDB)
	fake := &fakeGateway{method: types.PAYMENT_PAYSTACK}
	lib.NewGateway(types.PAYMENT_PAYSTACK, fake)
	defer lib.NewGateway(types.PAYMENT_PAYSTACK, nil)

	mock.ExpectQuery(`INSERT INTO "donations"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.NewString()))

	redirectURL, reference, err := CreateDonation(context.Background(), &types.CreateDonationRequestBody{
		Name:          "Ada",
		Email:         "ada@example.com",
		Amount:        5000,
		PaymentMethod: "paystack",
	})
	assert.NoError(t, err)
	assert.Equal(t, "https://checkout.test/session", redirectURL)
	assert.True(t, strings.HasPrefix(reference, "PAYSTACK-"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
