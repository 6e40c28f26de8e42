package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/stwalsh4118/landsync/internal/dedupe"
	"github.com/stwalsh4118/landsync/internal/geometry"
	"github.com/stwalsh4118/landsync/internal/ingest"
	"github.com/stwalsh4118/landsync/internal/models"
	"github.com/stwalsh4118/landsync/internal/reconcile"
	"github.com/stwalsh4118/landsync/internal/services"
)

func (c *cli) newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the landholder and parcel tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if a.DB == nil {
				c.log.Warn("Database disabled, nothing to migrate", nil)
				return nil
			}
			if err := a.Migrate(cmd.Context()); err != nil {
				return err
			}
			c.log.Info("Schema applied", nil)
			return nil
		},
	}
}

type importFlags struct {
	file       string
	sheet      string
	reportPath string
	dryRun     bool
	flagDups   bool
}

func (c *cli) newImportCmd() *cobra.Command {
	var f importFlags

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Reconcile a survey workbook into the registry",
		Long: `Reads every data row of the workbook and merges it into the registry in one
transaction. Any storage failure rolls the whole batch back. With --dry-run the
batch runs to completion and is then rolled back, so the report shows what an
import would do.

With --flag-duplicates a row repeating the site code of an earlier row is stored
as a new parcel <code>_DUP<row> and left for "landsync dedupe" to resolve, instead
of being merged into the first parcel.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Migrate(cmd.Context()); err != nil {
				return err
			}

			opts := a.SheetOptions()
			opts.Sheet = f.sheet
			sheet, err := ingest.OpenFile(f.file, opts)
			if err != nil {
				return err
			}

			result, err := a.ImportService().Import(cmd.Context(), sheet.Rows(), services.ImportOptions{
				Source:         filepath.Base(f.file),
				DryRun:         f.dryRun,
				FlagDuplicates: f.flagDups,
			})
			if err != nil {
				return err
			}
			return c.emit(cmd, f.reportPath, result)
		},
	}

	cmd.Flags().StringVar(&f.file, "file", "", "survey workbook (.xlsx) to import (required)")
	cmd.Flags().StringVar(&f.sheet, "sheet", "", "sheet name (default: first sheet)")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "run the batch and roll it back")
	cmd.Flags().BoolVar(&f.flagDups, "flag-duplicates", false, "store repeated site codes as flagged _DUP parcels")
	cmd.Flags().StringVar(&f.reportPath, "report", "", "write the batch report to this file (.yaml or .json)")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

type dedupeFlags struct {
	geometry   string
	reportPath string
	dryRun     bool
}

func (c *cli) newDedupeCmd() *cobra.Command {
	var f dedupeFlags

	cmd := &cobra.Command{
		Use:   "dedupe",
		Short: "Resolve duplicate parcels left by earlier imports",
		Long: `Classifies every flagged parcel against the originals of its site code and
applies the plan in one transaction: exact duplicates are deleted, parcels whose
boundary differs are renamed to {site}_{sub}_B and distinct parcels are renamed
to {site}_{sub}. A GeoJSON boundary file supplies the digests used to tell
exact duplicates from boundary conflicts.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var records []models.GeometryRecord
			if f.geometry != "" {
				var err error
				if records, err = geometry.ReadFile(f.geometry); err != nil {
					return err
				}
			}

			a, err := c.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Migrate(cmd.Context()); err != nil {
				return err
			}

			result, err := a.DedupeService().Remediate(cmd.Context(), services.RemediationOptions{
				Geometry: records,
				DryRun:   f.dryRun,
			})
			if err != nil {
				return err
			}
			return c.emit(cmd, f.reportPath, result)
		},
	}

	cmd.Flags().StringVar(&f.geometry, "geometry", "", "GeoJSON boundary file used for geometry digests")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "plan and apply, then roll back")
	cmd.Flags().StringVar(&f.reportPath, "report", "", "write the remediation report to this file (.yaml or .json)")

	return cmd
}

type auditFlags struct {
	file       string
	sheet      string
	geometry   string
	reportPath string
	headerRows int
}

// auditReport is the store-free data-quality report.
type auditReport struct {
	Source   string                 `json:"source,omitempty" yaml:"source,omitempty"`
	Rows     int                    `json:"rows" yaml:"rows"`
	Findings []reconcile.Inspection `json:"findings" yaml:"findings"`
	Boundary *dedupe.AuditReport    `json:"boundary,omitempty" yaml:"boundary,omitempty"`
}

func (c *cli) newAuditCmd() *cobra.Command {
	var f auditFlags

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Report identity and name issues without touching the registry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sheet, err := ingest.OpenFile(f.file, ingest.Options{Sheet: f.sheet, HeaderScanRows: f.headerRows})
			if err != nil {
				return err
			}

			rows := sheet.Rows()
			out := auditReport{
				Source:   filepath.Base(f.file),
				Rows:     len(rows),
				Findings: reconcile.InspectAll(rows),
			}

			if f.geometry != "" {
				records, err := geometry.ReadFile(f.geometry)
				if err != nil {
					return err
				}
				boundary := dedupe.Audit(records)
				out.Boundary = &boundary
			}

			c.log.Info("Audit finished", map[string]interface{}{
				"rows":     out.Rows,
				"findings": len(out.Findings),
			})
			return c.emit(cmd, f.reportPath, out)
		},
	}

	cmd.Flags().StringVar(&f.file, "file", "", "survey workbook (.xlsx) to audit (required)")
	cmd.Flags().StringVar(&f.sheet, "sheet", "", "sheet name (default: first sheet)")
	cmd.Flags().IntVar(&f.headerRows, "header-rows", ingest.DefaultHeaderScanRows, "rows scanned for the header")
	cmd.Flags().StringVar(&f.geometry, "geometry", "", "also audit this GeoJSON boundary file for duplicate features")
	cmd.Flags().StringVar(&f.reportPath, "report", "", "write the audit report to this file (.yaml or .json)")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}
