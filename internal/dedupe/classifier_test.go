package dedupe

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/landsync/internal/models"
)

func member(id int64, code, site, sub, digest string) Member {
	return Member{ID: id, Code: code, Key: models.CompositeKey{SiteCode: site, SubUnitCode: sub}, Digest: digest}
}

func TestClassify_BKR100Scenario(t *testing.T) {
	tests := []struct {
		name      string
		dupDigest string
		want      Action
	}{
		{
			name:      "identical geometry is deleted",
			dupDigest: "aaaaaaaaaaaa",
			want: Action{
				Class: ClassExact, Op: OpDelete, ParcelID: 2, Code: "BKR100_DUP2",
				Key: models.CompositeKey{SiteCode: "BKR100", SubUnitCode: "10001"}, Reference: "BKR100",
			},
		},
		{
			name:      "different geometry is renamed with suffix",
			dupDigest: "bbbbbbbbbbbb",
			want: Action{
				Class: ClassGeometryConflict, Op: OpRename, ParcelID: 2, Code: "BKR100_DUP2",
				NewCode: "BKR100_10001_B", ClearIssues: true,
				Key: models.CompositeKey{SiteCode: "BKR100", SubUnitCode: "10001"}, Reference: "BKR100",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := Classify([]Member{
				member(1, "BKR100", "BKR100", "10001", "aaaaaaaaaaaa"),
				member(2, "BKR100_DUP2", "BKR100", "10001", tt.dupDigest),
				member(3, "BKR100_DUP3", "BKR100", "10002", ""),
			})

			require.Len(t, plan.Actions, 2)
			assert.Equal(t, tt.want, plan.Actions[0])
			assert.Equal(t, Action{
				Class: ClassDistinct, Op: OpRename, ParcelID: 3, Code: "BKR100_DUP3",
				NewCode: "BKR100_10002", ClearIssues: true,
				Key: models.CompositeKey{SiteCode: "BKR100", SubUnitCode: "10002"},
			}, plan.Actions[1])

			require.Len(t, plan.Groups, 1)
			assert.Equal(t, "BKR100/10001", plan.Groups[0].Key.String())
			assert.Empty(t, plan.Promoted)
		})
	}
}

func TestClassify_UnknownGeometryIsExact(t *testing.T) {
	plan := Classify([]Member{
		member(1, "BKR100", "BKR100", "10001", ""),
		member(2, "BKR100_DUP2", "BKR100", "10001", "bbbbbbbbbbbb"),
	})

	require.Len(t, plan.Actions, 1)
	assert.Equal(t, ClassExact, plan.Actions[0].Class)
}

func TestClassify_TieBreakPicksLowestID(t *testing.T) {
	plan := Classify([]Member{
		member(5, "BKR200", "BKR200", "10001", ""),
		member(3, "BKR200_10001", "BKR200", "10001", ""),
		member(9, "BKR200_DUP9", "BKR200", "10001", ""),
	})

	require.Len(t, plan.Actions, 1)
	assert.Equal(t, "BKR200_10001", plan.Actions[0].Reference)
	assert.Equal(t, OpDelete, plan.Actions[0].Op)
}

func TestClassify_LowestIDReferenceDecidesGeometry(t *testing.T) {
	plan := Classify([]Member{
		member(1, "BKR100", "BKR100", "10001", "aaaaaaaaaaaa"),
		member(2, "BKR100_10001", "BKR100", "10001", "bbbbbbbbbbbb"),
		member(3, "BKR100_DUP3", "BKR100", "10001", "bbbbbbbbbbbb"),
	})

	require.Len(t, plan.Actions, 1)
	assert.Equal(t, ClassGeometryConflict, plan.Actions[0].Class)
	assert.Equal(t, "BKR100", plan.Actions[0].Reference)
	assert.Equal(t, "BKR100_10001_B", plan.Actions[0].NewCode)
}

func TestClassify_RenamedMemberWithLowerIDBecomesReference(t *testing.T) {
	plan := Classify([]Member{
		member(2, "BKR100_DUP2", "BKR100", "10002", "aaaaaaaaaaaa"),
		member(5, "BKR100", "BKR100", "10001", ""),
		member(6, "BKR100_10002", "BKR100", "10002", "bbbbbbbbbbbb"),
		member(7, "BKR100_DUP7", "BKR100", "10002", "aaaaaaaaaaaa"),
	})

	require.Len(t, plan.Actions, 2)
	assert.Equal(t, ClassGeometryConflict, plan.Actions[0].Class)
	assert.Equal(t, "BKR100_10002_B", plan.Actions[0].NewCode)
	assert.Equal(t, ClassExact, plan.Actions[1].Class)
	assert.Equal(t, "BKR100_10002_B", plan.Actions[1].Reference)
}

func TestClassify_RenameAvoidsTakenCodes(t *testing.T) {
	plan := Classify([]Member{
		member(1, "BKR100", "BKR100", "10001", ""),
		member(2, "BKR100_10002", "BKR100", "10002", "aaaaaaaaaaaa"),
		member(3, "BKR100_DUP3", "BKR100", "10002", "bbbbbbbbbbbb"),
		member(4, "BKR100_DUP4", "BKR100", "10002", "cccccccccccc"),
		member(5, "BKR100_10003", "OTHER", "1", ""),
		member(6, "BKR100_DUP6", "BKR100", "10003", ""),
	})

	require.Len(t, plan.Actions, 3)
	assert.Equal(t, "BKR100_10002_B", plan.Actions[0].NewCode)
	assert.Equal(t, "BKR100_10002_C", plan.Actions[1].NewCode)
	assert.Equal(t, ClassDistinct, plan.Actions[2].Class)
	assert.Equal(t, "BKR100_10003_B", plan.Actions[2].NewCode)
}

func TestClassify_RenamedMembersCountAsOriginals(t *testing.T) {
	plan := Classify([]Member{
		member(1, "BKR100", "BKR100", "10001", ""),
		member(2, "BKR100_DUP2", "BKR100", "10002", "aaaaaaaaaaaa"),
		member(3, "BKR100_DUP3", "BKR100", "10002", "aaaaaaaaaaaa"),
	})

	require.Len(t, plan.Actions, 2)
	assert.Equal(t, ClassDistinct, plan.Actions[0].Class)
	assert.Equal(t, ClassExact, plan.Actions[1].Class)
	assert.Equal(t, "BKR100_10002", plan.Actions[1].Reference)
}

func TestClassify_PromotesLowestFlaggedWhenNoOriginal(t *testing.T) {
	plan := Classify([]Member{
		member(8, "BKR300_DUP8", "BKR300", "10001", ""),
		member(4, "BKR300_DUP4", "BKR300", "10001", ""),
	})

	require.Len(t, plan.Promoted, 1)
	assert.Equal(t, int64(4), plan.Promoted[0].ID)
	require.Len(t, plan.Actions, 1)
	assert.Equal(t, int64(8), plan.Actions[0].ParcelID)
	assert.Equal(t, "BKR300_DUP4", plan.Actions[0].Reference)
}

func TestClassify_IgnoresSingletonsAndMissingSiteCodes(t *testing.T) {
	plan := Classify([]Member{
		member(1, "BKR100_DUP1", "BKR100", "10001", ""),
		member(2, "IMP-00002", "", "", ""),
		member(3, "IMP-00003", "", "", ""),
	})

	assert.True(t, plan.Empty())
	assert.Empty(t, plan.Groups)
}

func TestClassify_ResolvedPlanIsStable(t *testing.T) {
	plan := Classify([]Member{
		member(1, "BKR100", "BKR100", "10001", "aaaaaaaaaaaa"),
		member(2, "BKR100_10001_B", "BKR100", "10001", "bbbbbbbbbbbb"),
		member(3, "BKR100_10002", "BKR100", "10002", ""),
	})

	assert.True(t, plan.Empty())
}

func TestClassify_Completeness(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	digests := []string{"", "aaaaaaaaaaaa", "bbbbbbbbbbbb"}

	for run := 0; run < 50; run++ {
		var members []Member
		var id int64
		for f := 0; f < 5; f++ {
			site := fmt.Sprintf("S%d", f)
			size := 1 + rng.Intn(6)
			for i := 0; i < size; i++ {
				id++
				code := fmt.Sprintf("%s_DUP%d", site, id)
				if i == 0 && rng.Intn(2) == 0 {
					code = site
				}
				sub := fmt.Sprintf("%d", rng.Intn(3))
				members = append(members, member(id, code, site, sub, digests[rng.Intn(len(digests))]))
			}
		}

		plan := Classify(members)

		perFamily := make(map[string]int)
		seen := make(map[int64]bool)
		for _, a := range plan.Actions {
			assert.False(t, seen[a.ParcelID], "member %d has more than one action", a.ParcelID)
			seen[a.ParcelID] = true
			perFamily[a.Key.SiteCode]++
		}

		sizes := make(map[string]int)
		for _, m := range members {
			sizes[m.Key.SiteCode]++
		}
		promoted := make(map[int64]bool)
		for _, m := range plan.Promoted {
			promoted[m.ID] = true
		}

		for _, m := range members {
			flagged := !IsOriginal(m) && !promoted[m.ID] && sizes[m.Key.SiteCode] > 1
			assert.Equal(t, flagged, seen[m.ID], "member %s", m.Code)
		}
		for site, n := range perFamily {
			assert.LessOrEqual(t, n, sizes[site]-1)
		}
	}
}

func TestIsOriginal(t *testing.T) {
	assert.True(t, IsOriginal(member(1, "BKR100", "BKR100", "10001", "")))
	assert.True(t, IsOriginal(member(1, "BKR100_10001", "BKR100", "10001", "")))
	assert.True(t, IsOriginal(member(1, "BKR100_10001_C", "BKR100", "10001", "")))
	assert.True(t, IsOriginal(member(1, "BKR100_10001_27", "BKR100", "10001", "")))
	assert.False(t, IsOriginal(member(1, "BKR100_DUP4", "BKR100", "10001", "")))
	assert.False(t, IsOriginal(member(1, "BKR100_10001_A", "BKR100", "10001", "")))
	assert.False(t, IsOriginal(member(1, "BKR100_10001_", "BKR100", "10001", "")))
}

func TestPlanCounts(t *testing.T) {
	plan := Plan{Actions: []Action{
		{Class: ClassExact, Op: OpDelete},
		{Class: ClassDistinct, Op: OpRename},
		{Class: ClassDistinct, Op: OpRename},
	}}

	counts := plan.Counts()
	assert.Equal(t, 1, counts[ClassExact])
	assert.Equal(t, 0, counts[ClassGeometryConflict])
	assert.Equal(t, 2, counts[ClassDistinct])
	assert.Len(t, plan.Deletes(), 1)
	assert.Len(t, plan.Renames(), 2)
}

func TestSuffix(t *testing.T) {
	assert.Equal(t, "B", suffix(1))
	assert.Equal(t, "Z", suffix(25))
	assert.Equal(t, "27", suffix(26))
}
