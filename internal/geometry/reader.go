// Package geometry reads parcel boundary files and pairs boundary features with parcels.
package geometry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/stwalsh4118/landsync/internal/models"
)

// Property names carrying the composite key and feature id.
const (
	PropSiteCode    = "SPAR_CODE"
	PropSubUnitCode = "NUM_APAR"
	PropFeatureID   = "FID"
)

type featureCollection struct {
	Type     string    `json:"type"`
	Features []feature `json:"features"`
}

type feature struct {
	ID         json.RawMessage            `json:"id"`
	Properties map[string]json.RawMessage `json:"properties"`
	Geometry   json.RawMessage            `json:"geometry"`
}

// ReadFile reads a GeoJSON FeatureCollection from path.
func ReadFile(path string) ([]models.GeometryRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open boundary file: %w", err)
	}
	defer f.Close()

	return Read(f)
}

// Read parses a GeoJSON FeatureCollection. Features without geometry are kept with an empty
// boundary so they still take part in pairing.
func Read(r io.Reader) ([]models.GeometryRecord, error) {
	var fc featureCollection
	if err := json.NewDecoder(r).Decode(&fc); err != nil {
		return nil, fmt.Errorf("failed to decode boundary file: %w", err)
	}
	if fc.Type != "FeatureCollection" {
		return nil, fmt.Errorf("expected FeatureCollection, got %q", fc.Type)
	}

	records := make([]models.GeometryRecord, 0, len(fc.Features))
	for i, feat := range fc.Features {
		props := make(map[string]string, len(feat.Properties))
		for k, v := range feat.Properties {
			props[strings.ToUpper(k)] = scalar(v)
		}

		rec := models.GeometryRecord{
			Index: i,
			Key: models.CompositeKey{
				SiteCode:    props[PropSiteCode],
				SubUnitCode: props[PropSubUnitCode],
			},
		}

		fid := props[PropFeatureID]
		if fid == "" {
			fid = scalar(feat.ID)
		}
		if fid != "" {
			if n, err := strconv.ParseFloat(fid, 64); err == nil {
				id := int64(n)
				rec.FeatureID = &id
			}
		}

		if len(feat.Geometry) > 0 && !bytes.Equal(feat.Geometry, []byte("null")) {
			if err := json.Unmarshal(feat.Geometry, &rec.Boundary); err != nil {
				return nil, fmt.Errorf("feature %d: %w", i, err)
			}
		}

		records = append(records, rec)
	}

	return records, nil
}

// scalar renders a JSON string or number property as trimmed text. Whole numbers lose any
// fractional zero ("10001.0" becomes "10001"); other JSON values become empty.
func scalar(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return ""
	}
	if i, err := n.Int64(); err == nil {
		return strconv.FormatInt(i, 10)
	}
	if f, err := n.Float64(); err == nil && f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return n.String()
}
