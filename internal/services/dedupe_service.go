package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/stwalsh4118/landsync/internal/dedupe"
	"github.com/stwalsh4118/landsync/internal/geometry"
	"github.com/stwalsh4118/landsync/internal/lock"
	"github.com/stwalsh4118/landsync/internal/logger"
	"github.com/stwalsh4118/landsync/internal/metrics"
	"github.com/stwalsh4118/landsync/internal/models"
	"github.com/stwalsh4118/landsync/internal/repository"
)

// RemediationOptions controls one remediation batch.
type RemediationOptions struct {
	BatchID string
	// Geometry, when set, supplies boundary digests for the persisted parcels.
	Geometry []models.GeometryRecord
	DryRun   bool
}

// RemediationResult summarizes a finished remediation batch.
type RemediationResult struct {
	BatchID        string               `json:"batchId" yaml:"batchId"`
	Counts         map[dedupe.Class]int `json:"counts" yaml:"counts"`
	Plan           dedupe.Plan          `json:"plan" yaml:"plan"`
	Parcels        int                  `json:"parcels" yaml:"parcels"`
	DigestsUpdated int                  `json:"digestsUpdated" yaml:"digestsUpdated"`
	Deleted        int                  `json:"deleted" yaml:"deleted"`
	Renamed        int                  `json:"renamed" yaml:"renamed"`
	DryRun         bool                 `json:"dryRun" yaml:"dryRun"`
}

// DedupeService detects and resolves legacy duplicate parcels.
type DedupeService interface {
	// Plan classifies the persisted parcels without changing anything.
	Plan(ctx context.Context, records []models.GeometryRecord) (*dedupe.Plan, error)

	// Remediate plans and applies every action in one transaction, deletes before renames.
	// A failure rolls everything back and is returned as a *RemediationError. Returns
	// lock.ErrLocked when another batch is running.
	Remediate(ctx context.Context, opts RemediationOptions) (*RemediationResult, error)

	// Audit classifies a boundary file on its own.
	Audit(records []models.GeometryRecord) dedupe.AuditReport
}

type dedupeService struct {
	store  repository.TxRunner
	locker lock.Locker
	log    *logger.Logger
}

// NewDedupeService creates a DedupeService. A nil locker disables run locking.
func NewDedupeService(store repository.TxRunner, locker lock.Locker, log *logger.Logger) DedupeService {
	if locker == nil {
		locker = lock.NoopLock{}
	}
	return &dedupeService{
		store:  store,
		locker: locker,
		log:    log,
	}
}

func (s *dedupeService) Plan(ctx context.Context, records []models.GeometryRecord) (*dedupe.Plan, error) {
	parcels, err := s.store.Parcels().List(ctx)
	if err != nil {
		s.log.Error("Failed to list parcels", err, nil)
		return nil, fmt.Errorf("failed to list parcels: %w", err)
	}

	plan := dedupe.Classify(members(parcels, records))
	return &plan, nil
}

func (s *dedupeService) Remediate(ctx context.Context, opts RemediationOptions) (*RemediationResult, error) {
	batchID := opts.BatchID
	if batchID == "" {
		batchID = uuid.NewString()
	}
	log := s.log.WithBatch(batchID, metrics.KindDedupe).With(map[string]interface{}{
		"geometry_records": len(opts.Geometry),
	})

	var result *RemediationResult
	err := runBatch(ctx, s.locker, log, metrics.KindDedupe, opts.DryRun, func() error {
		result = &RemediationResult{BatchID: batchID, DryRun: opts.DryRun}

		err := s.store.WithinTx(ctx, func(tx repository.Store) error {
			repo := tx.Parcels()
			parcels, err := repo.List(ctx)
			if err != nil {
				return fmt.Errorf("failed to list parcels: %w", err)
			}
			result.Parcels = len(parcels)

			if len(opts.Geometry) > 0 {
				n, err := storeDigests(ctx, repo, parcels, opts.Geometry)
				if err != nil {
					return err
				}
				result.DigestsUpdated = n
			}

			plan := dedupe.Classify(members(parcels, opts.Geometry))
			result.Plan = plan
			result.Counts = plan.Counts()
			for _, m := range plan.Promoted {
				log.Warn("Family has no original, promoting lowest id", map[string]interface{}{
					"site_code": m.Key.SiteCode,
					"parcel_id": m.ID,
					"code":      m.Code,
				})
			}

			if err := s.apply(ctx, repo, plan, result, log); err != nil {
				return err
			}
			if opts.DryRun {
				return errDryRun
			}
			return nil
		})
		if err != nil && !errors.Is(err, errDryRun) {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !opts.DryRun {
		for class, n := range result.Counts {
			metrics.RemediationActionsTotal.WithLabelValues(string(class)).Add(float64(n))
		}
	}
	log.Info("Remediation summary", map[string]interface{}{
		"parcels":         result.Parcels,
		"digests_updated": result.DigestsUpdated,
		"deleted":         result.Deleted,
		"renamed":         result.Renamed,
	})
	return result, nil
}

// apply runs deletes before renames so a deleted member never blocks a rename target.
func (s *dedupeService) apply(ctx context.Context, repo repository.ParcelRepository, plan dedupe.Plan, result *RemediationResult, log *logger.Logger) error {
	intended := len(plan.Actions)
	applied := 0
	fail := func(a dedupe.Action, err error) error {
		return &RemediationError{
			Intended: intended,
			Applied:  applied,
			Action:   describeAction(a),
			Err:      err,
		}
	}

	for _, a := range plan.Deletes() {
		if err := repo.Delete(ctx, a.ParcelID); err != nil {
			return fail(a, err)
		}
		applied++
		result.Deleted++
		log.Info("Deleted duplicate parcel", map[string]interface{}{
			"class":     a.Class,
			"parcel_id": a.ParcelID,
			"code":      a.Code,
			"reference": a.Reference,
		})
	}

	for _, a := range plan.Renames() {
		if err := repo.Rename(ctx, a.ParcelID, a.NewCode, a.ClearIssues); err != nil {
			return fail(a, err)
		}
		applied++
		result.Renamed++
		log.Info("Renamed duplicate parcel", map[string]interface{}{
			"class":     a.Class,
			"parcel_id": a.ParcelID,
			"code":      a.Code,
			"new_code":  a.NewCode,
		})
	}

	return nil
}

func (s *dedupeService) Audit(records []models.GeometryRecord) dedupe.AuditReport {
	report := dedupe.Audit(records)
	s.log.Info("Boundary audit finished", map[string]interface{}{
		"records":           report.Records,
		"groups":            report.Groups,
		"exact":             report.Exact,
		"geometry_conflict": report.Conflict,
	})
	return report
}

// members builds classifier input. Digests paired from records take precedence over the
// digests already stored on the parcels.
func members(parcels []models.Parcel, records []models.GeometryRecord) []dedupe.Member {
	var digests map[int64]string
	if len(records) > 0 {
		digests = geometry.Pair(parcels, records)
	}

	out := make([]dedupe.Member, 0, len(parcels))
	for _, p := range parcels {
		m := dedupe.MemberFromParcel(p)
		if d, ok := digests[p.ID]; ok {
			m.Digest = d
		}
		out = append(out, m)
	}
	return out
}

// storeDigests saves newly paired digests on the parcels and returns how many changed.
func storeDigests(ctx context.Context, repo repository.ParcelRepository, parcels []models.Parcel, records []models.GeometryRecord) (int, error) {
	digests := geometry.Pair(parcels, records)
	updated := 0
	for _, p := range parcels {
		d, ok := digests[p.ID]
		if !ok || d == p.GeometryDigest {
			continue
		}
		p.GeometryDigest = d
		if err := repo.Update(ctx, &p); err != nil {
			return updated, fmt.Errorf("failed to store digest for parcel %s: %w", p.Code, err)
		}
		updated++
	}
	return updated, nil
}

func describeAction(a dedupe.Action) string {
	if a.Op == dedupe.OpRename {
		return fmt.Sprintf("%s %s -> %s", a.Op, a.Code, a.NewCode)
	}
	return fmt.Sprintf("%s %s", a.Op, a.Code)
}
