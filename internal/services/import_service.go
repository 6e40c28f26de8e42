package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/stwalsh4118/landsync/internal/lock"
	"github.com/stwalsh4118/landsync/internal/logger"
	"github.com/stwalsh4118/landsync/internal/metrics"
	"github.com/stwalsh4118/landsync/internal/models"
	"github.com/stwalsh4118/landsync/internal/reconcile"
	"github.com/stwalsh4118/landsync/internal/repository"
)

// ImportOptions controls one import batch.
type ImportOptions struct {
	BatchID string // generated when empty
	Source  string // file or sheet name, reported back unchanged
	DryRun  bool
	// FlagDuplicates stores rows repeating a parcel code of an earlier row as flagged
	// <code>_DUP<row> parcels for the remediation pass, as on a first load.
	FlagDuplicates bool
}

// ImportResult summarizes a finished import batch.
type ImportResult struct {
	BatchID             string              `json:"batchId" yaml:"batchId"`
	Source              string              `json:"source,omitempty" yaml:"source,omitempty"`
	Issues              []string            `json:"issues" yaml:"issues"`
	Outcomes            []reconcile.Outcome `json:"outcomes" yaml:"outcomes"`
	Rows                int                 `json:"rows" yaml:"rows"`
	Skipped             int                 `json:"skipped" yaml:"skipped"`
	LandholdersInserted int                 `json:"landholdersInserted" yaml:"landholdersInserted"`
	LandholdersUpdated  int                 `json:"landholdersUpdated" yaml:"landholdersUpdated"`
	ParcelsInserted     int                 `json:"parcelsInserted" yaml:"parcelsInserted"`
	ParcelsUpdated      int                 `json:"parcelsUpdated" yaml:"parcelsUpdated"`
	PendingReview       int                 `json:"pendingReview" yaml:"pendingReview"`
	Flagged             int                 `json:"flagged" yaml:"flagged"`
	DryRun              bool                `json:"dryRun" yaml:"dryRun"`
}

func (r *ImportResult) record(out reconcile.Outcome) {
	r.Rows++
	r.Outcomes = append(r.Outcomes, out)
	if out.Skipped {
		r.Skipped++
		return
	}

	switch out.LandholderAction {
	case reconcile.ActionInserted:
		r.LandholdersInserted++
	case reconcile.ActionUpdated:
		r.LandholdersUpdated++
	}
	switch out.ParcelAction {
	case reconcile.ActionInserted:
		r.ParcelsInserted++
	case reconcile.ActionUpdated:
		r.ParcelsUpdated++
	}
	if out.Status == models.StatusPendingReview {
		r.PendingReview++
	}
	if out.FlaggedFrom != "" {
		r.Flagged++
	}
	for _, issue := range out.Issues {
		r.Issues = append(r.Issues, fmt.Sprintf("row %d: %s", out.Seq, issue))
	}
}

// ImportService reconciles spreadsheet rows into the store.
type ImportService interface {
	// Import reconciles rows in order inside one transaction. A storage failure rolls the
	// whole batch back and is returned as a *BatchError. Returns lock.ErrLocked when
	// another batch is running. Dry runs do all the work and then roll back.
	Import(ctx context.Context, rows []reconcile.Row, opts ImportOptions) (*ImportResult, error)
}

type importService struct {
	store  repository.TxRunner
	engine *reconcile.Engine
	locker lock.Locker
	log    *logger.Logger
}

// NewImportService creates an ImportService. A nil locker disables run locking.
func NewImportService(store repository.TxRunner, engine *reconcile.Engine, locker lock.Locker, log *logger.Logger) ImportService {
	if locker == nil {
		locker = lock.NoopLock{}
	}
	return &importService{
		store:  store,
		engine: engine,
		locker: locker,
		log:    log,
	}
}

func (s *importService) Import(ctx context.Context, rows []reconcile.Row, opts ImportOptions) (*ImportResult, error) {
	batchID := opts.BatchID
	if batchID == "" {
		batchID = uuid.NewString()
	}
	log := s.log.WithBatch(batchID, metrics.KindImport).With(map[string]interface{}{
		"source": opts.Source,
		"rows":   len(rows),
	})

	var result *ImportResult
	err := runBatch(ctx, s.locker, log, metrics.KindImport, opts.DryRun, func() error {
		result = &ImportResult{
			BatchID:  batchID,
			Source:   opts.Source,
			DryRun:   opts.DryRun,
			Issues:   []string{},
			Outcomes: make([]reconcile.Outcome, 0, len(rows)),
		}

		batch := s.engine.NewBatch(opts.FlagDuplicates)
		err := s.store.WithinTx(ctx, func(tx repository.Store) error {
			for _, row := range rows {
				out, err := batch.Reconcile(ctx, tx, row)
				if err != nil {
					return &BatchError{Row: row.Seq, Code: rowCode(row), Err: err}
				}
				result.record(*out)
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

	s.recordMetrics(result)
	log.Info("Import summary", map[string]interface{}{
		"skipped":              result.Skipped,
		"landholders_inserted": result.LandholdersInserted,
		"landholders_updated":  result.LandholdersUpdated,
		"parcels_inserted":     result.ParcelsInserted,
		"parcels_updated":      result.ParcelsUpdated,
		"pending_review":       result.PendingReview,
		"flagged":              result.Flagged,
	})
	return result, nil
}

func (s *importService) recordMetrics(r *ImportResult) {
	metrics.RowsTotal.WithLabelValues("processed").Add(float64(r.Rows - r.Skipped))
	metrics.RowsTotal.WithLabelValues("skipped").Add(float64(r.Skipped))
	metrics.RowsTotal.WithLabelValues("pending_review").Add(float64(r.PendingReview))
	if r.DryRun {
		return
	}
	metrics.EntityWritesTotal.WithLabelValues("landholder", string(reconcile.ActionInserted)).Add(float64(r.LandholdersInserted))
	metrics.EntityWritesTotal.WithLabelValues("landholder", string(reconcile.ActionUpdated)).Add(float64(r.LandholdersUpdated))
	metrics.EntityWritesTotal.WithLabelValues("parcel", string(reconcile.ActionInserted)).Add(float64(r.ParcelsInserted))
	metrics.EntityWritesTotal.WithLabelValues("parcel", string(reconcile.ActionUpdated)).Add(float64(r.ParcelsUpdated))
}

// rowCode is the parcel code a row resolves to, used to point at the failing row.
func rowCode(row reconcile.Row) string {
	if code := strings.TrimSpace(row.SiteCode); code != "" {
		return code
	}
	return models.ImportedCode(row.Seq)
}
