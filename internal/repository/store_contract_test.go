package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/landsync/internal/models"
)

var errRollback = errors.New("rollback requested")

func ptr[T any](v T) *T { return &v }

// testStoreContract exercises behaviour every TxRunner implementation must share.
// prefix keeps codes unique when the store is a shared database.
func testStoreContract(t *testing.T, store TxRunner, prefix string) {
	ctx := context.Background()

	t.Run("landholder insert and lookup", func(t *testing.T) {
		l := &models.Landholder{
			Code:         prefix + "1101700203450",
			Honorific:    "Mr",
			GivenName:    "Somchai",
			FamilyName:   "Jaidee",
			HouseAddress: "12 หมู่ 3",
			Home:         models.Location{Village: "Ban Mai", VillageNo: "3", Province: "Tak"},
		}
		require.NoError(t, store.Landholders().Insert(ctx, l))
		assert.NotZero(t, l.ID)
		assert.False(t, l.CreatedAt.IsZero())

		found, err := store.Landholders().FindByCode(ctx, l.Code)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, l.ID, found.ID)
		assert.Equal(t, "Somchai", found.GivenName)
		assert.Equal(t, l.Home, found.Home)

		byID, err := store.Landholders().FindByID(ctx, l.ID)
		require.NoError(t, err)
		require.NotNil(t, byID)
		assert.Equal(t, l.Code, byID.Code)

		found.FamilyName = "Rakthai"
		require.NoError(t, store.Landholders().Update(ctx, found))

		updated, err := store.Landholders().FindByCode(ctx, l.Code)
		require.NoError(t, err)
		assert.Equal(t, "Rakthai", updated.FamilyName)
	})

	t.Run("missing landholder is nil without error", func(t *testing.T) {
		found, err := store.Landholders().FindByCode(ctx, prefix+"nobody")
		require.NoError(t, err)
		assert.Nil(t, found)
	})

	t.Run("repeated landholder codes resolve to the oldest", func(t *testing.T) {
		first := &models.Landholder{Code: prefix + "TEMP_00001", GivenName: "A", FamilyName: "B"}
		second := &models.Landholder{Code: prefix + "TEMP_00001", GivenName: "C", FamilyName: "D"}
		require.NoError(t, store.Landholders().Insert(ctx, first))
		require.NoError(t, store.Landholders().Insert(ctx, second))

		found, err := store.Landholders().FindByCode(ctx, first.Code)
		require.NoError(t, err)
		assert.Equal(t, first.ID, found.ID)
	})

	t.Run("parcel lifecycle", func(t *testing.T) {
		owner := &models.Landholder{Code: prefix + "3100600123450", GivenName: "Malee", FamilyName: "Sukjai"}
		require.NoError(t, store.Landholders().Insert(ctx, owner))

		p := &models.Parcel{
			Code:           prefix + "BKR100",
			LandholderID:   &owner.ID,
			SiteCode:       prefix + "BKR100",
			SubUnitCode:    "10001",
			Area:           models.Area{Rai: 5, Ngan: 1, SquareWa: 20},
			Latitude:       ptr(14.1234567),
			Longitude:      ptr(99.1234567),
			OccupationYear: ptr(1998),
			LandUse:        models.LandUseAgriculture,
			RiskRemark:     models.RiskRemarkNotRisky,
			Status:         models.StatusPendingReview,
			DataIssues:     "family name missing",
		}
		require.NoError(t, store.Parcels().Insert(ctx, p))
		assert.NotZero(t, p.ID)

		dup := &models.Parcel{Code: p.Code, LandUse: models.LandUseOther, RiskRemark: models.RiskRemarkNotRisky, Status: models.StatusSurveyed}
		err := store.Parcels().Insert(ctx, dup)
		assert.ErrorIs(t, err, ErrDuplicateKey)

		found, err := store.Parcels().FindByCode(ctx, p.Code)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, p.Area, found.Area)
		assert.Equal(t, 1998, *found.OccupationYear)
		assert.InDelta(t, 14.1234567, *found.Latitude, 1e-9)
		assert.Nil(t, found.Perimeter)
		assert.Equal(t, models.LandUseAgriculture, found.LandUse)

		found.Status = models.StatusSurveyed
		found.DataIssues = ""
		require.NoError(t, store.Parcels().Update(ctx, found))

		owned, err := store.Parcels().ListByLandholder(ctx, owner.ID)
		require.NoError(t, err)
		require.Len(t, owned, 1)
		assert.Equal(t, models.StatusSurveyed, owned[0].Status)
		assert.Empty(t, owned[0].DataIssues)
	})

	t.Run("rename and delete", func(t *testing.T) {
		a := &models.Parcel{Code: prefix + "SITE_DUP1", SiteCode: prefix + "SITE", DataIssues: "duplicate", LandUse: models.LandUseOther, RiskRemark: models.RiskRemarkNotRisky, Status: models.StatusPendingReview}
		b := &models.Parcel{Code: prefix + "SITE", SiteCode: prefix + "SITE", LandUse: models.LandUseOther, RiskRemark: models.RiskRemarkNotRisky, Status: models.StatusSurveyed}
		require.NoError(t, store.Parcels().Insert(ctx, a))
		require.NoError(t, store.Parcels().Insert(ctx, b))

		err := store.Parcels().Rename(ctx, a.ID, b.Code, true)
		assert.ErrorIs(t, err, ErrDuplicateKey)

		require.NoError(t, store.Parcels().Rename(ctx, a.ID, prefix+"SITE_10001", true))
		renamed, err := store.Parcels().FindByCode(ctx, prefix+"SITE_10001")
		require.NoError(t, err)
		require.NotNil(t, renamed)
		assert.Empty(t, renamed.DataIssues)
		assert.Equal(t, models.StatusSurveyed, renamed.Status)

		require.NoError(t, store.Parcels().Delete(ctx, b.ID))
		gone, err := store.Parcels().FindByCode(ctx, b.Code)
		require.NoError(t, err)
		assert.Nil(t, gone)
	})

	t.Run("rename keeping issues keeps status", func(t *testing.T) {
		p := &models.Parcel{Code: prefix + "KEEP_DUP1", SiteCode: prefix + "KEEP", DataIssues: "identity code missing", LandUse: models.LandUseOther, RiskRemark: models.RiskRemarkNotRisky, Status: models.StatusPendingReview}
		require.NoError(t, store.Parcels().Insert(ctx, p))

		require.NoError(t, store.Parcels().Rename(ctx, p.ID, prefix+"KEEP_10001", false))
		renamed, err := store.Parcels().FindByCode(ctx, prefix+"KEEP_10001")
		require.NoError(t, err)
		require.NotNil(t, renamed)
		assert.Equal(t, "identity code missing", renamed.DataIssues)
		assert.Equal(t, models.StatusPendingReview, renamed.Status)
	})

	t.Run("list is ordered by id", func(t *testing.T) {
		all, err := store.Parcels().List(ctx)
		require.NoError(t, err)
		for i := 1; i < len(all); i++ {
			assert.Less(t, all[i-1].ID, all[i].ID)
		}
	})

	t.Run("failed transaction leaves store unchanged", func(t *testing.T) {
		code := prefix + "ROLLBACK1"
		err := store.WithinTx(ctx, func(tx Store) error {
			p := &models.Parcel{Code: code, LandUse: models.LandUseOther, RiskRemark: models.RiskRemarkNotRisky, Status: models.StatusSurveyed}
			if err := tx.Parcels().Insert(ctx, p); err != nil {
				return err
			}
			inside, err := tx.Parcels().FindByCode(ctx, code)
			if err != nil {
				return err
			}
			assert.NotNil(t, inside)
			return errRollback
		})
		assert.ErrorIs(t, err, errRollback)

		found, err := store.Parcels().FindByCode(ctx, code)
		require.NoError(t, err)
		assert.Nil(t, found)
	})

	t.Run("successful transaction commits", func(t *testing.T) {
		code := prefix + "COMMIT1"
		err := store.WithinTx(ctx, func(tx Store) error {
			return tx.Parcels().Insert(ctx, &models.Parcel{Code: code, LandUse: models.LandUseOther, RiskRemark: models.RiskRemarkNotRisky, Status: models.StatusSurveyed})
		})
		require.NoError(t, err)

		found, err := store.Parcels().FindByCode(ctx, code)
		require.NoError(t, err)
		assert.NotNil(t, found)
	})
}
