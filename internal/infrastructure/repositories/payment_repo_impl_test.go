package repositories

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"payorch.backend/internal/domain/entities"
	domainerrors "payorch.backend/internal/domain/errors"
	"payorch.backend/internal/infrastructure/models"
)

func TestPaymentRepository_CreateAndGetByID(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.AutoMigrate(&models.Payment{}))
	repo := NewPaymentRepository(db)
	ctx := context.Background()

	tenantID := uuid.New()
	p := &entities.Payment{
		TenantID:    tenantID,
		UETR:        entities.NewUETR(),
		Amount:      entities.MustMoney("150.00", "ZAR"),
		Debtor:      entities.Party{Account: "acc-debtor"},
		Creditor:    entities.Party{Account: "acc-creditor"},
		PaymentType: "RTP",
		Status:      entities.PaymentStatusInitiated,
	}
	require.NoError(t, repo.Create(ctx, p))
	assert.NotEqual(t, uuid.Nil, p.ID)

	fetched, err := repo.GetByID(ctx, tenantID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.UETR, fetched.UETR)
	assert.Equal(t, "150.0000", fetched.Amount.String())
}

func TestPaymentRepository_GetByID_NotFound(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.AutoMigrate(&models.Payment{}))
	repo := NewPaymentRepository(db)

	_, err := repo.GetByID(context.Background(), uuid.New(), uuid.New())
	require.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestPaymentRepository_GetByIdempotencyKey(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.AutoMigrate(&models.Payment{}))
	repo := NewPaymentRepository(db)
	ctx := context.Background()

	tenantID := uuid.New()
	p := &entities.Payment{
		TenantID:       tenantID,
		IdempotencyKey: "idem-key-1",
		Amount:         entities.MustMoney("10.00", "ZAR"),
		PaymentType:    "RTP",
		Status:         entities.PaymentStatusInitiated,
	}
	require.NoError(t, repo.Create(ctx, p))

	found, err := repo.GetByIdempotencyKey(ctx, tenantID, "idem-key-1")
	require.NoError(t, err)
	assert.Equal(t, p.ID, found.ID)
}

func TestPaymentRepository_UpdateStatus(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.AutoMigrate(&models.Payment{}))
	repo := NewPaymentRepository(db)
	ctx := context.Background()

	tenantID := uuid.New()
	p := &entities.Payment{TenantID: tenantID, Amount: entities.MustMoney("5.00", "ZAR"), PaymentType: "RTP", Status: entities.PaymentStatusInitiated}
	require.NoError(t, repo.Create(ctx, p))

	require.NoError(t, repo.UpdateStatus(ctx, tenantID, p.ID, entities.PaymentStatusFailed, entities.ReasonFraudRejected))

	fetched, err := repo.GetByID(ctx, tenantID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.PaymentStatusFailed, fetched.Status)
	assert.Equal(t, entities.ReasonFraudRejected, fetched.ReasonCode)
}

func TestPaymentRepository_SetRoutingCandidatesAndTrackingRef(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.AutoMigrate(&models.Payment{}))
	repo := NewPaymentRepository(db)
	ctx := context.Background()

	tenantID := uuid.New()
	p := &entities.Payment{TenantID: tenantID, Amount: entities.MustMoney("5.00", "ZAR"), PaymentType: "RTP", Status: entities.PaymentStatusInitiated}
	require.NoError(t, repo.Create(ctx, p))

	require.NoError(t, repo.SetRoutingCandidates(ctx, tenantID, p.ID, []entities.ClearingAdapterID{"bankserv-primary", "rtc-backup"}))
	require.NoError(t, repo.SetTrackingRef(ctx, tenantID, p.ID, "TRK-123"))
	require.NoError(t, repo.SetClearingRail(ctx, tenantID, p.ID, entities.ClearingRailBankserv))

	fetched, err := repo.GetByID(ctx, tenantID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []entities.ClearingAdapterID{"bankserv-primary", "rtc-backup"}, fetched.RoutingCandidates)
	assert.Equal(t, "TRK-123", fetched.TrackingRef)
	assert.Equal(t, entities.ClearingRailBankserv, fetched.ClearingRail)
}

func TestPaymentRepository_List(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.AutoMigrate(&models.Payment{}))
	repo := NewPaymentRepository(db)
	ctx := context.Background()

	tenantID := uuid.New()
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(ctx, &entities.Payment{TenantID: tenantID, Amount: entities.MustMoney("5.00", "ZAR"), PaymentType: "RTP", Status: entities.PaymentStatusInitiated}))
	}

	items, total, err := repo.List(ctx, tenantID, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, items, 2)
}
