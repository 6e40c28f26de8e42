package reconcile

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// buddhistEraThreshold separates Buddhist-era years from Gregorian ones.
const (
	buddhistEraThreshold = 2400
	buddhistEraOffset    = 543
)

// parseNumber reads an optional numeric cell. Blank cells yield nil with no note;
// malformed cells yield nil and a note naming the column.
func parseNumber(column, raw string) (*float64, string) {
	text := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if text == "" {
		return nil, ""
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, fmt.Sprintf("%s: malformed number %q", column, raw)
	}
	return &v, ""
}

// parseInteger reads an optional whole-number cell, truncating any fraction ("12.0" -> 12).
func parseInteger(column, raw string) (*int64, string) {
	v, note := parseNumber(column, raw)
	if v == nil {
		return nil, note
	}
	n := int64(*v)
	return &n, ""
}

// ParseYear reads an occupation-start year. Years above 2400 are Buddhist-era and are
// converted to the Gregorian calendar.
func ParseYear(raw string) (*int, string) {
	v, note := parseInteger("YEAR", raw)
	if v == nil {
		return nil, note
	}
	year := int(*v)
	if year > buddhistEraThreshold {
		year -= buddhistEraOffset
	}
	return &year, ""
}
