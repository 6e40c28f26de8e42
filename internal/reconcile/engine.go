package reconcile

import (
	"context"
	"fmt"
	"strings"

	"github.com/stwalsh4118/landsync/internal/geodesy"
	"github.com/stwalsh4118/landsync/internal/identity"
	"github.com/stwalsh4118/landsync/internal/models"
	"github.com/stwalsh4118/landsync/internal/repository"
)

// villageNoLabel joins a house number and village number in the house address line.
const villageNoLabel = "หมู่"

// Action describes what the engine did with an entity.
type Action string

const (
	ActionInserted Action = "inserted"
	ActionUpdated  Action = "updated"
)

// Config holds the projection used for survey coordinates.
type Config struct {
	Zone       int
	Hemisphere geodesy.Hemisphere
}

// DefaultConfig is UTM zone 47 north.
func DefaultConfig() Config {
	return Config{Zone: 47, Hemisphere: geodesy.North}
}

// Outcome reports what happened to one row.
type Outcome struct {
	Seq              int                 `json:"row" yaml:"row"`
	Skipped          bool                `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	LandholderCode   string              `json:"landholderCode,omitempty" yaml:"landholderCode,omitempty"`
	LandholderAction Action              `json:"landholderAction,omitempty" yaml:"landholderAction,omitempty"`
	ParcelCode       string              `json:"parcelCode,omitempty" yaml:"parcelCode,omitempty"`
	ParcelAction     Action              `json:"parcelAction,omitempty" yaml:"parcelAction,omitempty"`
	FlaggedFrom      string              `json:"flaggedFrom,omitempty" yaml:"flaggedFrom,omitempty"`
	Status           models.ParcelStatus `json:"status,omitempty" yaml:"status,omitempty"`
	Issues           []string            `json:"issues,omitempty" yaml:"issues,omitempty"`
	Notes            []string            `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// Engine reconciles rows against a store.
type Engine struct {
	cfg Config
}

// NewEngine creates an engine for the given projection.
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Batch reconciles the rows of one import. With flagging on, a row whose parcel code an
// earlier row of the same batch already used is stored under models.DuplicateCode instead
// of merging into that parcel, leaving the collision for the duplicate classifier.
type Batch struct {
	engine *Engine
	flag   bool
	used   map[string]bool
}

// NewBatch starts a batch. Rows must be passed to Reconcile in spreadsheet order.
func (e *Engine) NewBatch(flagDuplicates bool) *Batch {
	return &Batch{engine: e, flag: flagDuplicates, used: make(map[string]bool)}
}

// Reconcile resolves one row of the batch.
func (b *Batch) Reconcile(ctx context.Context, store repository.Store, row Row) (*Outcome, error) {
	return b.engine.reconcile(ctx, store, row, b)
}

// Reconcile resolves the row's landholder and parcel in store, merging or inserting each.
// Malformed input never fails; only storage errors are returned.
func (e *Engine) Reconcile(ctx context.Context, store repository.Store, row Row) (*Outcome, error) {
	return e.reconcile(ctx, store, row, nil)
}

func (e *Engine) reconcile(ctx context.Context, store repository.Store, row Row, batch *Batch) (*Outcome, error) {
	out := &Outcome{Seq: row.Seq}
	if row.IsBlank() {
		out.Skipped = true
		return out, nil
	}

	insp := Inspect(row)
	code := insp.Code
	out.Issues = append(out.Issues, insp.Issues...)
	out.Notes = append(out.Notes, insp.Notes...)

	parcelCode := strings.TrimSpace(row.SiteCode)
	if parcelCode == "" {
		parcelCode = models.ImportedCode(row.Seq)
		out.Issues = append(out.Issues, fmt.Sprintf("site code missing, using %s", parcelCode))
	}
	if batch != nil && batch.flag {
		if batch.used[parcelCode] {
			flagged := models.DuplicateCode(parcelCode, row.Seq)
			out.Issues = append(out.Issues, fmt.Sprintf("site code %s repeated, stored as %s", parcelCode, flagged))
			out.FlaggedFrom = parcelCode
			parcelCode = flagged
		} else {
			batch.used[parcelCode] = true
		}
	}

	holder, action, err := e.resolveLandholder(ctx, store.Landholders(), row, code)
	if err != nil {
		return nil, err
	}
	out.LandholderCode = holder.Code
	out.LandholderAction = action

	incoming := e.buildParcel(row, parcelCode, holder.ID, out)
	if len(out.Issues) > 0 {
		incoming.Status = models.StatusPendingReview
		incoming.DataIssues = strings.Join(out.Issues, "; ")
	} else {
		incoming.Status = models.StatusSurveyed
	}
	out.Status = incoming.Status
	out.ParcelCode = parcelCode

	parcels := store.Parcels()
	existing, err := parcels.FindByCode(ctx, parcelCode)
	if err != nil {
		return nil, fmt.Errorf("failed to look up parcel %s: %w", parcelCode, err)
	}
	if existing != nil {
		merged := existing.Merge(incoming)
		if err := parcels.Update(ctx, &merged); err != nil {
			return nil, fmt.Errorf("failed to update parcel %s: %w", parcelCode, err)
		}
		out.ParcelAction = ActionUpdated
		return out, nil
	}

	if err := parcels.Insert(ctx, &incoming); err != nil {
		return nil, fmt.Errorf("failed to insert parcel %s: %w", parcelCode, err)
	}
	out.ParcelAction = ActionInserted
	return out, nil
}

// resolveLandholder finds or creates the row's landholder. Rows without a code always get
// a fresh placeholder landholder; all other rows merge into the record sharing their key.
func (e *Engine) resolveLandholder(ctx context.Context, repo repository.LandholderRepository, row Row, code identity.CodeResult) (*models.Landholder, Action, error) {
	incoming := models.Landholder{
		Honorific:    row.Honorific,
		GivenName:    row.GivenName,
		FamilyName:   row.FamilyName,
		HouseAddress: houseAddress(row.HouseNo, row.Home.VillageNo),
		Home:         row.Home,
	}

	if code.Blank() {
		incoming.Code = identity.Placeholder(row.Seq)
		return insertLandholder(ctx, repo, incoming)
	}

	incoming.Code = code.Normalized
	if !code.Valid() {
		incoming.Code = strings.TrimSpace(code.Raw)
	}

	existing, err := repo.FindByCode(ctx, incoming.Code)
	if err != nil {
		return nil, "", fmt.Errorf("failed to look up landholder %s: %w", incoming.Code, err)
	}
	if existing == nil {
		return insertLandholder(ctx, repo, incoming)
	}

	merged := existing.Merge(incoming)
	if err := repo.Update(ctx, &merged); err != nil {
		return nil, "", fmt.Errorf("failed to update landholder %s: %w", merged.Code, err)
	}
	return &merged, ActionUpdated, nil
}

func insertLandholder(ctx context.Context, repo repository.LandholderRepository, l models.Landholder) (*models.Landholder, Action, error) {
	if l.GivenName == "" {
		l.GivenName = identity.UnspecifiedName
	}
	if l.FamilyName == "" {
		l.FamilyName = identity.UnspecifiedName
	}
	if err := repo.Insert(ctx, &l); err != nil {
		return nil, "", fmt.Errorf("failed to insert landholder %s: %w", l.Code, err)
	}
	return &l, ActionInserted, nil
}

// buildParcel derives the incoming parcel from the row. Malformed numeric cells are
// appended to out.Notes.
func (e *Engine) buildParcel(row Row, code string, landholderID int64, out *Outcome) models.Parcel {
	note := func(n string) {
		if n != "" {
			out.Notes = append(out.Notes, n)
		}
	}

	p := models.Parcel{
		Code:         code,
		LandholderID: &landholderID,
		SiteCode:     strings.TrimSpace(row.SiteCode),
		SubUnitCode:  row.SubUnitCode,
		SiteNo:       zeroPad(row.SiteNo),
		SurveyNo:     zeroPad(row.SurveyNo),
		ParkName:     row.ParkName,
		ParkCode:     row.ParkCode,
		ZoneCode:     row.ZoneCode,
		ZoneNo:       row.ZoneNo,
		Location:     row.Location,
		UsageText:    row.UsageText,
		BoundaryType: row.BoundaryType,
		LandUse:      ClassifyLandUse(row.UsageText),
		RiskRemark:   ClassifyRemark(row.Remark),
	}

	rai, n := parseNumber("RAI", row.Rai)
	note(n)
	if rai == nil || *rai <= 0 {
		areaRai, n := parseNumber("AREA_RAI", row.AreaRai)
		note(n)
		if areaRai != nil {
			rai = areaRai
		}
	}
	ngan, n := parseNumber("NGAN", row.Ngan)
	note(n)
	sqwa, n := parseNumber("WA_SQ", row.SquareWa)
	note(n)
	p.Area = models.Area{Rai: valueOr(rai), Ngan: valueOr(ngan), SquareWa: valueOr(sqwa)}

	p.Perimeter, n = parseNumber("PERIMETER", row.Perimeter)
	note(n)

	easting, n := parseNumber("E", row.Easting)
	note(n)
	northing, n := parseNumber("N", row.Northing)
	note(n)
	if easting != nil && northing != nil && geodesy.HasCoordinate(*easting, *northing) {
		lat, lng := geodesy.ToLatLng(*easting, *northing, e.cfg.Zone, e.cfg.Hemisphere)
		p.Latitude, p.Longitude = &lat, &lng
	}

	p.OccupationYear, n = ParseYear(row.Year)
	note(n)
	p.TargetFID, n = parseInteger("TARGET_FID", row.TargetFID)
	note(n)

	return p
}

func houseAddress(houseNo, villageNo string) string {
	if houseNo == "" {
		return ""
	}
	if villageNo == "" {
		villageNo = "-"
	}
	return fmt.Sprintf("%s %s %s", houseNo, villageNoLabel, villageNo)
}

// zeroPad left-pads numeric codes to five digits, the width used on survey forms.
func zeroPad(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || len(s) >= 5 {
		return s
	}
	return strings.Repeat("0", 5-len(s)) + s
}

func valueOr(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
