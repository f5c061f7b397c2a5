package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/httplouis/TraveLink-sub009/internal/domain/entity"
	"github.com/httplouis/TraveLink-sub009/pkg/database"
)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.New(database.Config{
		Path:            filepath.Join(t.TempDir(), "test.db"),
		MaxOpenConns:    1,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Minute,
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	migrator := database.NewMigrator(db, zap.NewNop())
	require.NoError(t, migrator.RunMigrations("../../../../migrations"))

	return db
}

func newPendingVPRequest(code string) *entity.TravelRequest {
	now := time.Now().UTC().Truncate(time.Second)
	return &entity.TravelRequest{
		RequestCode:         code,
		RequesterID:         "alice",
		DepartmentID:        "eng",
		Destination:         "Cebu",
		Purpose:             "conference",
		TotalBudget:         30000,
		Status:              "pending_vp",
		CurrentApproverRole: "vp",
		TravelStart:         now.AddDate(0, 1, 0),
		TravelEnd:           now.AddDate(0, 1, 5),
		SubmissionTime:      now,
	}
}

func TestRequestRepository_UpdateCAS_FirstVPClaimIsExclusive(t *testing.T) {
	db := newTestDB(t)
	repo := NewRequestRepository(db.DB, zap.NewNop())
	ctx := context.Background()

	req := newPendingVPRequest("TR-CAS-1")
	require.NoError(t, repo.Create(ctx, req))

	// Two VPs read the request concurrently; both see an empty slot.
	seenByA, err := repo.GetByID(ctx, req.ID)
	require.NoError(t, err)
	seenByB, err := repo.GetByID(ctx, req.ID)
	require.NoError(t, err)

	at := time.Now().UTC()
	seenByA.FirstVPApprovedBy = "vp-a"
	seenByA.FirstVPApprovedAt = &at
	ok, err := repo.UpdateCAS(ctx, seenByA, "pending_vp")
	require.NoError(t, err)
	require.True(t, ok, "first claim of the slot should land")

	// The competing write was computed against the empty slot and must lose.
	seenByB.FirstVPApprovedBy = "vp-b"
	seenByB.FirstVPApprovedAt = &at
	ok, err = repo.UpdateCAS(ctx, seenByB, "pending_vp")
	require.NoError(t, err)
	require.False(t, ok, "competing claim must be rejected")

	stored, err := repo.GetByID(ctx, req.ID)
	require.NoError(t, err)
	require.Equal(t, "vp-a", stored.FirstVPApprovedBy)
	require.NotNil(t, stored.FirstVPApprovedAt)
}

func TestRequestRepository_UpdateCAS_SecondApprovalKeepsSlotHolder(t *testing.T) {
	db := newTestDB(t)
	repo := NewRequestRepository(db.DB, zap.NewNop())
	ctx := context.Background()

	req := newPendingVPRequest("TR-CAS-2")
	require.NoError(t, repo.Create(ctx, req))

	at := time.Now().UTC()
	req.FirstVPApprovedBy = "vp-a"
	req.FirstVPApprovedAt = &at
	ok, err := repo.UpdateCAS(ctx, req, "pending_vp")
	require.NoError(t, err)
	require.True(t, ok)

	// The second VP's approval carries the existing slot holder unchanged.
	second, err := repo.GetByID(ctx, req.ID)
	require.NoError(t, err)
	second.Status = "approved"
	second.BothVPsApproved = true
	second.ApprovalTime = &at
	ok, err = repo.UpdateCAS(ctx, second, "pending_vp")
	require.NoError(t, err)
	require.True(t, ok, "write matching the slot holder should land")

	stored, err := repo.GetByID(ctx, req.ID)
	require.NoError(t, err)
	require.Equal(t, "approved", stored.Status)
	require.True(t, stored.BothVPsApproved)
	require.Equal(t, "vp-a", stored.FirstVPApprovedBy)
}

func TestRequestRepository_UpdateCAS_ReturnClearsSlot(t *testing.T) {
	db := newTestDB(t)
	repo := NewRequestRepository(db.DB, zap.NewNop())
	ctx := context.Background()

	req := newPendingVPRequest("TR-CAS-3")
	require.NoError(t, repo.Create(ctx, req))

	at := time.Now().UTC()
	req.FirstVPApprovedBy = "vp-a"
	req.FirstVPApprovedAt = &at
	ok, err := repo.UpdateCAS(ctx, req, "pending_vp")
	require.NoError(t, err)
	require.True(t, ok)

	// A return-to-requester clears the claimed slot.
	returned, err := repo.GetByID(ctx, req.ID)
	require.NoError(t, err)
	returned.Status = "draft"
	returned.FirstVPApprovedBy = ""
	returned.FirstVPApprovedAt = nil
	returned.BothVPsApproved = false
	ok, err = repo.UpdateCAS(ctx, returned, "pending_vp")
	require.NoError(t, err)
	require.True(t, ok, "clearing the slot should land")

	stored, err := repo.GetByID(ctx, req.ID)
	require.NoError(t, err)
	require.Equal(t, "draft", stored.Status)
	require.Empty(t, stored.FirstVPApprovedBy)
	require.Nil(t, stored.FirstVPApprovedAt)
	require.False(t, stored.BothVPsApproved)
}

func TestRequestRepository_UpdateCAS_StaleStatusRejected(t *testing.T) {
	db := newTestDB(t)
	repo := NewRequestRepository(db.DB, zap.NewNop())
	ctx := context.Background()

	req := newPendingVPRequest("TR-CAS-4")
	require.NoError(t, repo.Create(ctx, req))

	req.Status = "approved"
	ok, err := repo.UpdateCAS(ctx, req, "pending_hr")
	require.NoError(t, err)
	require.False(t, ok, "swap against a stale status must be rejected")

	stored, err := repo.GetByID(ctx, req.ID)
	require.NoError(t, err)
	require.Equal(t, "pending_vp", stored.Status)
}

func TestTxManager_WithTransaction(t *testing.T) {
	db := newTestDB(t)
	repo := NewRequestRepository(db.DB, zap.NewNop())
	txManager := NewTxManager(db)
	ctx := context.Background()

	errBoom := errors.New("boom")
	err := txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := repo.Create(txCtx, newPendingVPRequest("TR-TX-1")); err != nil {
			return err
		}
		return errBoom
	})
	require.ErrorIs(t, err, errBoom)

	got, err := repo.GetByCode(ctx, "TR-TX-1")
	require.NoError(t, err)
	require.Nil(t, got, "rolled-back create must not be visible")

	require.NoError(t, txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		return repo.Create(txCtx, newPendingVPRequest("TR-TX-2"))
	}))

	got, err = repo.GetByCode(ctx, "TR-TX-2")
	require.NoError(t, err)
	require.NotNil(t, got, "committed create must be visible")
}
