package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/landsync/internal/dedupe"
	"github.com/stwalsh4118/landsync/internal/lock"
	"github.com/stwalsh4118/landsync/internal/logger"
	"github.com/stwalsh4118/landsync/internal/models"
	"github.com/stwalsh4118/landsync/internal/repository"
)

func square(offset float64) models.Boundary {
	return models.Boundary{
		Type: "Polygon",
		Polygons: [][][]models.Point{{{
			{offset, 0}, {offset + 1, 0}, {offset + 1, 1}, {offset, 1}, {offset, 0},
		}}},
	}
}

// seedBKR100 stores the legacy layout left by the first importer and returns the parcels
// in insertion order.
func seedBKR100(t *testing.T, store *repository.MemoryStore, withDigests bool) []models.Parcel {
	t.Helper()
	a := dedupe.BoundaryDigest(square(0))
	b := dedupe.BoundaryDigest(square(5))
	if !withDigests {
		a, b = "", ""
	}

	parcels := []models.Parcel{
		{Code: "BKR100", SiteCode: "BKR100", SubUnitCode: "10001", GeometryDigest: a},
		{Code: "BKR100_DUP2", SiteCode: "BKR100", SubUnitCode: "10001", GeometryDigest: a, DataIssues: "duplicate of BKR100"},
		{Code: "BKR100_DUP3", SiteCode: "BKR100", SubUnitCode: "10001", GeometryDigest: b, DataIssues: "duplicate of BKR100"},
		{Code: "BKR100_DUP4", SiteCode: "BKR100", SubUnitCode: "10002", DataIssues: "duplicate of BKR100"},
		{Code: "BKR200", SiteCode: "BKR200", SubUnitCode: "20001"},
	}
	for i := range parcels {
		require.NoError(t, store.Parcels().Insert(context.Background(), &parcels[i]))
	}
	return parcels
}

func bkr100Geometry() []models.GeometryRecord {
	key1 := models.CompositeKey{SiteCode: "BKR100", SubUnitCode: "10001"}
	key2 := models.CompositeKey{SiteCode: "BKR100", SubUnitCode: "10002"}
	return []models.GeometryRecord{
		{Index: 0, Key: key1, Boundary: square(0)},
		{Index: 1, Key: key1, Boundary: square(0)},
		{Index: 2, Key: key1, Boundary: square(5)},
		{Index: 3, Key: key2, Boundary: square(9)},
	}
}

func newDeduper(store repository.TxRunner, locker lock.Locker) DedupeService {
	return NewDedupeService(store, locker, logger.Nop())
}

func codes(t *testing.T, store repository.Store) map[string]models.Parcel {
	t.Helper()
	all, err := store.Parcels().List(context.Background())
	require.NoError(t, err)
	out := make(map[string]models.Parcel, len(all))
	for _, p := range all {
		out[p.Code] = p
	}
	return out
}

func TestRemediate_BKR100Scenario(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	seeded := seedBKR100(t, store, true)

	result, err := newDeduper(store, nil).Remediate(ctx, RemediationOptions{})
	require.NoError(t, err)

	assert.Equal(t, 5, result.Parcels)
	assert.Equal(t, 1, result.Deleted)
	assert.Equal(t, 2, result.Renamed)
	assert.Equal(t, map[dedupe.Class]int{
		dedupe.ClassExact:            1,
		dedupe.ClassGeometryConflict: 1,
		dedupe.ClassDistinct:         1,
	}, result.Counts)

	after := codes(t, store)
	assert.Len(t, after, 4)
	assert.NotContains(t, after, "BKR100_DUP2")
	assert.Contains(t, after, "BKR100")
	assert.Contains(t, after, "BKR200")

	conflict := after["BKR100_10001_B"]
	assert.Equal(t, seeded[2].ID, conflict.ID)
	assert.Empty(t, conflict.DataIssues)

	distinct := after["BKR100_10002"]
	assert.Equal(t, seeded[3].ID, distinct.ID)
	assert.Empty(t, distinct.DataIssues)
}

func TestRemediate_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	seedBKR100(t, store, true)
	deduper := newDeduper(store, nil)

	_, err := deduper.Remediate(ctx, RemediationOptions{})
	require.NoError(t, err)

	second, err := deduper.Remediate(ctx, RemediationOptions{})
	require.NoError(t, err)
	assert.True(t, second.Plan.Empty())
	assert.Zero(t, second.Deleted+second.Renamed)
}

func TestRemediate_WithGeometryStoresDigests(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	seeded := seedBKR100(t, store, false)

	result, err := newDeduper(store, nil).Remediate(ctx, RemediationOptions{Geometry: bkr100Geometry()})
	require.NoError(t, err)

	assert.Equal(t, 4, result.DigestsUpdated)
	assert.Equal(t, 1, result.Counts[dedupe.ClassGeometryConflict])

	after := codes(t, store)
	assert.Equal(t, seeded[2].ID, after["BKR100_10001_B"].ID)
	assert.Equal(t, dedupe.BoundaryDigest(square(5)), after["BKR100_10001_B"].GeometryDigest)
	assert.Empty(t, after["BKR200"].GeometryDigest)
}

func TestRemediate_UnknownGeometryIsExact(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	seedBKR100(t, store, false)

	result, err := newDeduper(store, nil).Remediate(ctx, RemediationOptions{})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Counts[dedupe.ClassExact])
	assert.Equal(t, 0, result.Counts[dedupe.ClassGeometryConflict])
	assert.Equal(t, 2, result.Deleted)
}

func TestRemediate_DryRun(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	seedBKR100(t, store, true)

	result, err := newDeduper(store, nil).Remediate(ctx, RemediationOptions{DryRun: true})
	require.NoError(t, err)

	assert.True(t, result.DryRun)
	assert.Equal(t, 3, len(result.Plan.Actions))
	assert.Equal(t, 1, result.Deleted)
	assert.Len(t, codes(t, store), 5)
	assert.Contains(t, codes(t, store), "BKR100_DUP2")
}

func TestRemediate_FailureRollsBackAndReportsProgress(t *testing.T) {
	ctx := context.Background()
	mem := repository.NewMemoryStore()
	seeded := seedBKR100(t, mem, true)
	store := &failingStore{MemoryStore: mem, failDelete: seeded[1].ID}

	result, err := newDeduper(store, nil).Remediate(ctx, RemediationOptions{})
	require.Error(t, err)
	assert.Nil(t, result)

	var remErr *RemediationError
	require.True(t, errors.As(err, &remErr))
	assert.Equal(t, 3, remErr.Intended)
	assert.Equal(t, 0, remErr.Applied)
	assert.Equal(t, "delete BKR100_DUP2", remErr.Action)
	assert.ErrorIs(t, err, errStorage)

	assert.Len(t, codes(t, mem), 5)
}

func TestRemediate_LockedRunIsRejected(t *testing.T) {
	locker := new(MockLocker)
	locker.On("Acquire", mock.Anything, BatchLockName).Return(lock.ErrLocked)
	store := repository.NewMemoryStore()
	seedBKR100(t, store, true)

	_, err := newDeduper(store, locker).Remediate(context.Background(), RemediationOptions{})
	assert.ErrorIs(t, err, lock.ErrLocked)
	assert.Len(t, codes(t, store), 5)
}

func TestPlan_DoesNotWrite(t *testing.T) {
	store := repository.NewMemoryStore()
	seedBKR100(t, store, true)

	plan, err := newDeduper(store, nil).Plan(context.Background(), nil)
	require.NoError(t, err)

	assert.Len(t, plan.Deletes(), 1)
	assert.Len(t, plan.Renames(), 2)
	assert.Len(t, codes(t, store), 5)
}

func TestPlan_ListError(t *testing.T) {
	parcels := new(MockParcelRepository)
	parcels.On("List", mock.Anything).Return(nil, errors.New("boom"))

	_, err := newDeduper(mockTxRunner{parcels: parcels}, nil).Plan(context.Background(), nil)
	assert.Error(t, err)
	parcels.AssertExpectations(t)
}

func TestAudit(t *testing.T) {
	report := newDeduper(repository.NewMemoryStore(), nil).Audit(bkr100Geometry())

	assert.Equal(t, 4, report.Records)
	assert.Equal(t, 1, report.Groups)
	assert.Equal(t, 1, report.Exact)
	assert.Equal(t, 1, report.Conflict)
}

// mockTxRunner serves mocked repositories for read-only paths.
type mockTxRunner struct {
	parcels     *MockParcelRepository
	landholders *MockLandholderRepository
}

func (m mockTxRunner) Parcels() repository.ParcelRepository         { return m.parcels }
func (m mockTxRunner) Landholders() repository.LandholderRepository { return m.landholders }
func (m mockTxRunner) WithinTx(ctx context.Context, fn func(tx repository.Store) error) error {
	return fn(m)
}
