package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoundaryUnmarshalJSON(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		wantType     string
		wantPolygons int
		wantPoints   int
		wantError    bool
	}{
		{
			name:         "polygon",
			input:        `{"type":"Polygon","coordinates":[[[99.1,14.2],[99.2,14.2],[99.2,14.3],[99.1,14.2]]]}`,
			wantType:     "Polygon",
			wantPolygons: 1,
			wantPoints:   4,
		},
		{
			name:         "multipolygon",
			input:        `{"type":"MultiPolygon","coordinates":[[[[0,0],[1,0],[1,1],[0,0]]],[[[5,5],[6,5],[6,6],[5,5]]]]}`,
			wantType:     "MultiPolygon",
			wantPolygons: 2,
			wantPoints:   8,
		},
		{
			name:      "point is rejected",
			input:     `{"type":"Point","coordinates":[0,0]}`,
			wantError: true,
		},
		{
			name:      "invalid JSON",
			input:     `{invalid}`,
			wantError: true,
		},
		{
			name:      "mismatched coordinates",
			input:     `{"type":"Polygon","coordinates":[0,0]}`,
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b Boundary
			err := json.Unmarshal([]byte(tt.input), &b)

			if tt.wantError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, b.Type)
			assert.Len(t, b.Polygons, tt.wantPolygons)
			assert.Len(t, b.Points(), tt.wantPoints)
			assert.False(t, b.Empty())
		})
	}
}

func TestBoundaryPoints_KeepsFileOrder(t *testing.T) {
	var b Boundary
	require.NoError(t, json.Unmarshal([]byte(`{"type":"Polygon","coordinates":[[[3,3],[1,1],[2,2]],[[9,9]]]}`), &b))

	assert.Equal(t, []Point{{3, 3}, {1, 1}, {2, 2}, {9, 9}}, b.Points())
}

func TestBoundaryMarshalJSON(t *testing.T) {
	t.Run("polygon stays a polygon", func(t *testing.T) {
		b := Boundary{Type: "Polygon", Polygons: [][][]Point{{{{0, 0}, {1, 0}, {0, 0}}}}}

		data, err := json.Marshal(b)
		require.NoError(t, err)
		assert.JSONEq(t, `{"type":"Polygon","coordinates":[[[0,0],[1,0],[0,0]]]}`, string(data))
	})

	t.Run("multipolygon survives a round trip", func(t *testing.T) {
		original := Boundary{Type: "MultiPolygon", Polygons: [][][]Point{
			{{{0, 0}, {1, 0}, {0, 0}}},
			{{{2, 2}, {3, 2}, {2, 2}}},
		}}

		data, err := json.Marshal(original)
		require.NoError(t, err)

		var decoded Boundary
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, original, decoded)
	})
}

func TestBoundaryEmpty(t *testing.T) {
	assert.True(t, Boundary{}.Empty())
}
