// Package reconcile turns one normalized survey row into a persisted landholder and parcel,
// merging into existing records or inserting new ones.
package reconcile

import (
	"strings"

	"github.com/stwalsh4118/landsync/internal/models"
)

// Row is one normalized spreadsheet row. Text cells are trimmed; numeric cells are kept as
// text and parsed by the engine so malformed values can be reported instead of dropped.
type Row struct {
	Seq int // 1-based position among data rows, blank rows included

	IdentityCode string
	Honorific    string
	GivenName    string
	FamilyName   string
	HouseNo      string
	Home         models.Location

	SiteCode    string
	SubUnitCode string
	SiteNo      string
	SurveyNo    string
	ParkName    string
	ParkCode    string
	ZoneCode    string
	ZoneNo      string
	Location    models.Location

	UsageText    string
	Remark       string
	BoundaryType string

	Rai       string
	Ngan      string
	SquareWa  string
	AreaRai   string
	Perimeter string
	Easting   string
	Northing  string
	Year      string
	TargetFID string
}

// IsBlank reports whether the row carries none of identity code, site code or given name.
// Blank rows are skipped but still consume a sequence number.
func (r Row) IsBlank() bool {
	return strings.TrimSpace(r.IdentityCode) == "" &&
		strings.TrimSpace(r.SiteCode) == "" &&
		strings.TrimSpace(r.GivenName) == ""
}
