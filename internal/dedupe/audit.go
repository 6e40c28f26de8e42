package dedupe

import (
	"github.com/stwalsh4118/landsync/internal/models"
)

// Finding classifies one boundary record that repeats an earlier record's composite key.
type Finding struct {
	Key       models.CompositeKey `json:"key" yaml:"key"`
	Class     Class               `json:"class" yaml:"class"`
	Index     int                 `json:"index" yaml:"index"`
	FeatureID *int64              `json:"featureId,omitempty" yaml:"featureId,omitempty"`
	Digest    string              `json:"digest" yaml:"digest"`
	Reference int                 `json:"reference" yaml:"reference"` // index of the original record
}

// AuditReport summarizes a boundary-file audit.
type AuditReport struct {
	Records  int       `json:"records" yaml:"records"`
	Groups   int       `json:"groups" yaml:"groups"`
	Exact    int       `json:"exact" yaml:"exact"`
	Conflict int       `json:"geometryConflict" yaml:"geometryConflict"`
	Findings []Finding `json:"findings" yaml:"findings"`
}

// Audit classifies boundary records on their own. The first record of each composite key
// is the original; later records with the same digest are exact duplicates and the rest
// are geometry conflicts.
func Audit(records []models.GeometryRecord) AuditReport {
	report := AuditReport{Records: len(records), Findings: []Finding{}}

	type first struct {
		index  int
		digest string
		seen   bool
	}
	originals := make(map[models.CompositeKey]*first)

	for _, rec := range records {
		digest := BoundaryDigest(rec.Boundary)
		orig, ok := originals[rec.Key]
		if !ok {
			originals[rec.Key] = &first{index: rec.Index, digest: digest}
			continue
		}
		if !orig.seen {
			orig.seen = true
			report.Groups++
		}

		finding := Finding{
			Key:       rec.Key,
			Index:     rec.Index,
			FeatureID: rec.FeatureID,
			Digest:    digest,
			Reference: orig.index,
			Class:     ClassExact,
		}
		if digest != orig.digest {
			finding.Class = ClassGeometryConflict
			report.Conflict++
		} else {
			report.Exact++
		}
		report.Findings = append(report.Findings, finding)
	}

	return report
}
