package models

import (
	"fmt"
	"time"
)

// LandUse categorizes how a parcel is used.
type LandUse string

const (
	LandUseResidential LandUse = "residential"
	LandUseAgriculture LandUse = "agriculture"
	LandUseGarden      LandUse = "garden"
	LandUseLivestock   LandUse = "livestock"
	LandUseMixed       LandUse = "mixed"
	LandUseOther       LandUse = "other"
)

// RiskRemark records whether a parcel lies in an ecologically sensitive area and
// whether it is the subject of a legal case.
type RiskRemark string

const (
	RiskRemarkRisky        RiskRemark = "risky"
	RiskRemarkNotRisky     RiskRemark = "not_risky"
	RiskRemarkRiskyCase    RiskRemark = "risky_case"
	RiskRemarkNotRiskyCase RiskRemark = "not_risky_case"
)

// ParcelStatus is surveyed unless the import recorded a data-quality issue.
type ParcelStatus string

const (
	StatusSurveyed      ParcelStatus = "surveyed"
	StatusPendingReview ParcelStatus = "pending_review"
)

// ImportedCodePrefix is used for parcels whose row carried no site code.
const ImportedCodePrefix = "IMP-"

// ImportedCode returns the fallback parcel code for a row without a site code.
func ImportedCode(seq int) string {
	return fmt.Sprintf("%s%05d", ImportedCodePrefix, seq)
}

// DuplicateCode returns the flagged code for a row that repeats an already used parcel code.
func DuplicateCode(code string, seq int) string {
	return fmt.Sprintf("%s_DUP%d", code, seq)
}

// Area is a parcel size in Thai units: rai, ngan (1/4 rai) and square wa (1/400 rai).
type Area struct {
	Rai      float64 `json:"rai"`
	Ngan     float64 `json:"ngan"`
	SquareWa float64 `json:"squareWa"`
}

// InRai returns the area expressed in rai.
func (a Area) InRai() float64 {
	return a.Rai + a.Ngan/4 + a.SquareWa/400
}

// CompositeKey identifies a parcel boundary: the site code plus its sub-unit code.
type CompositeKey struct {
	SiteCode    string `json:"siteCode" yaml:"siteCode"`
	SubUnitCode string `json:"subUnitCode" yaml:"subUnitCode"`
}

func (k CompositeKey) String() string {
	return k.SiteCode + "/" + k.SubUnitCode
}

// Parcel is a surveyed plot of land.
// All nullable numerics use pointers to distinguish between zero values and NULL.
type Parcel struct {
	CreatedAt      time.Time    `json:"createdAt"`
	UpdatedAt      time.Time    `json:"updatedAt"`
	LandholderID   *int64       `json:"landholderId,omitempty"`
	Perimeter      *float64     `json:"perimeter,omitempty"`
	Latitude       *float64     `json:"latitude,omitempty"`
	Longitude      *float64     `json:"longitude,omitempty"`
	TargetFID      *int64       `json:"targetFid,omitempty"`
	OccupationYear *int         `json:"occupationYear,omitempty"`
	Code           string       `json:"code"`
	SiteCode       string       `json:"siteCode,omitempty"`
	SubUnitCode    string       `json:"subUnitCode,omitempty"`
	SiteNo         string       `json:"siteNo,omitempty"`
	SurveyNo       string       `json:"surveyNo,omitempty"`
	ParkName       string       `json:"parkName,omitempty"`
	ParkCode       string       `json:"parkCode,omitempty"`
	ZoneCode       string       `json:"zoneCode,omitempty"`
	ZoneNo         string       `json:"zoneNo,omitempty"`
	UsageText      string       `json:"usageText,omitempty"`
	BoundaryType   string       `json:"boundaryType,omitempty"`
	DataIssues     string       `json:"dataIssues,omitempty"`
	GeometryDigest string       `json:"geometryDigest,omitempty"`
	LandUse        LandUse      `json:"landUse"`
	RiskRemark     RiskRemark   `json:"riskRemark"`
	Status         ParcelStatus `json:"status"`
	Location       Location     `json:"location"`
	Area           Area         `json:"area"`
	ID             int64        `json:"id"`
}

// Key returns the parcel's composite key.
func (p Parcel) Key() CompositeKey {
	return CompositeKey{SiteCode: p.SiteCode, SubUnitCode: p.SubUnitCode}
}

// Merge applies the coalesce rule to every field of an existing parcel except
// area and status, which always take the incoming values. Data issues are the
// text behind the status and travel with it.
func (p Parcel) Merge(incoming Parcel) Parcel {
	merged := p
	merged.LandholderID = CoalescePtr(incoming.LandholderID, p.LandholderID)
	merged.Perimeter = CoalescePtr(incoming.Perimeter, p.Perimeter)
	merged.Latitude = CoalescePtr(incoming.Latitude, p.Latitude)
	merged.Longitude = CoalescePtr(incoming.Longitude, p.Longitude)
	merged.TargetFID = CoalescePtr(incoming.TargetFID, p.TargetFID)
	merged.OccupationYear = CoalescePtr(incoming.OccupationYear, p.OccupationYear)
	merged.SiteCode = Coalesce(incoming.SiteCode, p.SiteCode)
	merged.SubUnitCode = Coalesce(incoming.SubUnitCode, p.SubUnitCode)
	merged.SiteNo = Coalesce(incoming.SiteNo, p.SiteNo)
	merged.SurveyNo = Coalesce(incoming.SurveyNo, p.SurveyNo)
	merged.ParkName = Coalesce(incoming.ParkName, p.ParkName)
	merged.ParkCode = Coalesce(incoming.ParkCode, p.ParkCode)
	merged.ZoneCode = Coalesce(incoming.ZoneCode, p.ZoneCode)
	merged.ZoneNo = Coalesce(incoming.ZoneNo, p.ZoneNo)
	merged.UsageText = Coalesce(incoming.UsageText, p.UsageText)
	merged.BoundaryType = Coalesce(incoming.BoundaryType, p.BoundaryType)
	merged.GeometryDigest = Coalesce(incoming.GeometryDigest, p.GeometryDigest)
	merged.LandUse = LandUse(Coalesce(string(incoming.LandUse), string(p.LandUse)))
	merged.RiskRemark = RiskRemark(Coalesce(string(incoming.RiskRemark), string(p.RiskRemark)))
	merged.Location = p.Location.Merge(incoming.Location)

	merged.Area = incoming.Area
	merged.Status = incoming.Status
	merged.DataIssues = incoming.DataIssues
	return merged
}
