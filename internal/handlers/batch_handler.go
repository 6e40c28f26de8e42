package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	apierrors "github.com/stwalsh4118/landsync/internal/errors"
	"github.com/stwalsh4118/landsync/internal/geometry"
	"github.com/stwalsh4118/landsync/internal/ingest"
	"github.com/stwalsh4118/landsync/internal/lock"
	"github.com/stwalsh4118/landsync/internal/middleware"
	"github.com/stwalsh4118/landsync/internal/models"
	"github.com/stwalsh4118/landsync/internal/services"
)

// BatchHandler handles imports, duplicate remediation and boundary audits.
type BatchHandler struct {
	imports services.ImportService
	dedupe  services.DedupeService
	sheet   ingest.Options
}

// NewBatchHandler creates a new BatchHandler. sheet holds the default header scan depth;
// a request may override the sheet name.
func NewBatchHandler(imports services.ImportService, dedupe services.DedupeService, sheet ingest.Options) *BatchHandler {
	return &BatchHandler{
		imports: imports,
		dedupe:  dedupe,
		sheet:   sheet,
	}
}

// ImportRequest represents the form fields of an import upload. The workbook itself is
// the multipart part named "file".
type ImportRequest struct {
	Sheet          string `form:"sheet" binding:"omitempty,max=31"`
	DryRun         bool   `form:"dry_run"`
	FlagDuplicates bool   `form:"flag_duplicates"`
}

// RemediationRequest represents the form fields of a remediation run. An optional GeoJSON
// boundary file may be sent as the multipart part named "geometry".
type RemediationRequest struct {
	DryRun bool `form:"dry_run"`
}

// Import handles POST /api/v1/imports.
func (h *BatchHandler) Import(c *gin.Context) {
	var req ImportRequest
	if !bindForm(c, &req) {
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		apierrors.BadRequest(c, "A workbook must be uploaded in the \"file\" field", nil)
		return
	}

	opts := h.sheet
	if req.Sheet != "" {
		opts.Sheet = req.Sheet
	}
	sheet, err := openSheet(header, opts)
	if err != nil {
		apierrors.BadRequest(c, err.Error(), map[string]interface{}{
			"file": header.Filename,
		})
		return
	}

	result, err := h.imports.Import(c.Request.Context(), sheet.Rows(), services.ImportOptions{
		BatchID:        middleware.GetRequestID(c),
		Source:         header.Filename,
		DryRun:         req.DryRun,
		FlagDuplicates: req.FlagDuplicates,
	})
	if err != nil {
		var batchErr *services.BatchError
		switch {
		case errors.Is(err, lock.ErrLocked):
			apierrors.Conflict(c, "Another batch is running, try again later")
		case errors.As(err, &batchErr):
			apierrors.BatchFailed(c, "Import rolled back", map[string]interface{}{
				"row":  batchErr.Row,
				"code": batchErr.Code,
			}, err)
		default:
			apierrors.InternalServerError(c, "Failed to import workbook", err)
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

// Remediate handles POST /api/v1/remediations.
func (h *BatchHandler) Remediate(c *gin.Context) {
	var req RemediationRequest
	if !bindForm(c, &req) {
		return
	}

	records, ok := optionalGeometry(c)
	if !ok {
		return
	}

	result, err := h.dedupe.Remediate(c.Request.Context(), services.RemediationOptions{
		BatchID:  middleware.GetRequestID(c),
		Geometry: records,
		DryRun:   req.DryRun,
	})
	if err != nil {
		var remErr *services.RemediationError
		switch {
		case errors.Is(err, lock.ErrLocked):
			apierrors.Conflict(c, "Another batch is running, try again later")
		case errors.As(err, &remErr):
			apierrors.BatchFailed(c, "Remediation rolled back", map[string]interface{}{
				"intended": remErr.Intended,
				"applied":  remErr.Applied,
				"action":   remErr.Action,
			}, err)
		default:
			apierrors.InternalServerError(c, "Failed to remediate duplicates", err)
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

// AuditGeometry handles POST /api/v1/geometry/audit.
func (h *BatchHandler) AuditGeometry(c *gin.Context) {
	records, ok := optionalGeometry(c)
	if !ok {
		return
	}
	if records == nil {
		apierrors.BadRequest(c, "A GeoJSON file must be uploaded in the \"geometry\" field", nil)
		return
	}

	c.JSON(http.StatusOK, h.dedupe.Audit(records))
}

// bindForm binds form and query fields into req, writing the error response on failure.
func bindForm(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBind(req); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			apierrors.ValidationError(c, validationErrors)
			return false
		}
		apierrors.BadRequest(c, "Invalid form parameters", nil)
		return false
	}
	return true
}

// optionalGeometry reads the "geometry" upload. It returns nil records when none was sent
// and false when the response has already been written.
func optionalGeometry(c *gin.Context) ([]models.GeometryRecord, bool) {
	header, err := c.FormFile("geometry")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, true
		}
		apierrors.BadRequest(c, "Invalid multipart upload", nil)
		return nil, false
	}

	f, err := header.Open()
	if err != nil {
		apierrors.InternalServerError(c, "Failed to read uploaded file", err)
		return nil, false
	}
	defer f.Close()

	records, err := geometry.Read(f)
	if err != nil {
		apierrors.BadRequest(c, err.Error(), map[string]interface{}{
			"file": header.Filename,
		})
		return nil, false
	}
	if records == nil {
		records = []models.GeometryRecord{}
	}
	return records, true
}

func openSheet(header *multipart.FileHeader, opts ingest.Options) (*ingest.Sheet, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ingest.Open(f, opts)
}
