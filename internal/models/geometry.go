package models

import (
	"encoding/json"
	"fmt"
)

// Point is a boundary vertex as [x, y] (longitude/easting first, GeoJSON order).
type Point [2]float64

// Boundary is a Polygon or MultiPolygon parcel outline.
// Polygons are always stored as [polygons][rings][points] so both types share one shape.
type Boundary struct {
	Type     string      // "Polygon" or "MultiPolygon"
	Polygons [][][]Point // GeoJSON MultiPolygon coordinate structure
}

// Points returns every vertex of the boundary in file order.
func (b Boundary) Points() []Point {
	var out []Point
	for _, poly := range b.Polygons {
		for _, ring := range poly {
			out = append(out, ring...)
		}
	}
	return out
}

// Empty reports whether the boundary carries no vertices.
func (b Boundary) Empty() bool {
	return len(b.Points()) == 0
}

// MarshalJSON renders the boundary as a GeoJSON geometry object.
func (b Boundary) MarshalJSON() ([]byte, error) {
	if b.Type == "Polygon" && len(b.Polygons) == 1 {
		return json.Marshal(struct {
			Type        string    `json:"type"`
			Coordinates [][]Point `json:"coordinates"`
		}{Type: "Polygon", Coordinates: b.Polygons[0]})
	}
	return json.Marshal(struct {
		Type        string      `json:"type"`
		Coordinates [][][]Point `json:"coordinates"`
	}{Type: "MultiPolygon", Coordinates: b.Polygons})
}

// UnmarshalJSON parses a GeoJSON Polygon or MultiPolygon geometry object.
func (b *Boundary) UnmarshalJSON(data []byte) error {
	var geom struct {
		Type        string          `json:"type"`
		Coordinates json.RawMessage `json:"coordinates"`
	}

	if err := json.Unmarshal(data, &geom); err != nil {
		return fmt.Errorf("failed to unmarshal boundary: %w", err)
	}

	switch geom.Type {
	case "Polygon":
		var rings [][]Point
		if err := json.Unmarshal(geom.Coordinates, &rings); err != nil {
			return fmt.Errorf("failed to unmarshal polygon coordinates: %w", err)
		}
		b.Polygons = [][][]Point{rings}
	case "MultiPolygon":
		var polys [][][]Point
		if err := json.Unmarshal(geom.Coordinates, &polys); err != nil {
			return fmt.Errorf("failed to unmarshal multipolygon coordinates: %w", err)
		}
		b.Polygons = polys
	default:
		return fmt.Errorf("expected Polygon or MultiPolygon type, got %q", geom.Type)
	}

	b.Type = geom.Type
	return nil
}

// GeometryRecord is one boundary feature from an external boundary file.
type GeometryRecord struct {
	FeatureID *int64       `json:"featureId,omitempty"`
	Key       CompositeKey `json:"key"`
	Boundary  Boundary     `json:"boundary"`
	Index     int          `json:"index"` // position in the source file
}
