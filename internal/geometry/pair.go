package geometry

import (
	"sort"

	"github.com/stwalsh4118/landsync/internal/dedupe"
	"github.com/stwalsh4118/landsync/internal/models"
)

// Pair assigns boundary digests to parcels and returns them keyed by parcel id. A parcel
// first takes the feature whose id equals its target feature id. Remaining parcels of each
// composite key are then paired in ascending id order with that key's remaining features in
// file order. Unpaired parcels and empty boundaries are absent from the result.
func Pair(parcels []models.Parcel, records []models.GeometryRecord) map[int64]string {
	digests := make(map[int64]string)

	sorted := make([]models.Parcel, len(parcels))
	copy(sorted, parcels)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	byFeature := make(map[int64]int)
	for i, rec := range records {
		if rec.FeatureID == nil {
			continue
		}
		if _, ok := byFeature[*rec.FeatureID]; !ok {
			byFeature[*rec.FeatureID] = i
		}
	}

	used := make([]bool, len(records))
	paired := make(map[int64]bool)
	assign := func(p models.Parcel, i int) {
		used[i] = true
		paired[p.ID] = true
		if d := dedupe.BoundaryDigest(records[i].Boundary); d != "" {
			digests[p.ID] = d
		}
	}

	for _, p := range sorted {
		if p.TargetFID == nil {
			continue
		}
		if i, ok := byFeature[*p.TargetFID]; ok && !used[i] {
			assign(p, i)
		}
	}

	remaining := make(map[models.CompositeKey][]int)
	for i, rec := range records {
		if !used[i] {
			remaining[rec.Key] = append(remaining[rec.Key], i)
		}
	}

	for _, p := range sorted {
		if paired[p.ID] {
			continue
		}
		queue := remaining[p.Key()]
		if len(queue) == 0 {
			continue
		}
		assign(p, queue[0])
		remaining[p.Key()] = queue[1:]
	}

	return digests
}
