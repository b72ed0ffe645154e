package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func polygonFeature(t *testing.T, props map[string]any, rings [][][2]float64) Feature {
	t.Helper()
	coords, err := json.Marshal(rings)
	require.NoError(t, err)
	return Feature{
		Type:       "Feature",
		Properties: props,
		Geometry:   Geometry{Type: "Polygon", Coordinates: coords},
	}
}

func TestFeature_RegionName(t *testing.T) {
	tests := []struct {
		name     string
		props    map[string]any
		expected string
	}{
		{"name key", map[string]any{"name": "서울특별시"}, "서울특별시"},
		{"kostat key", map[string]any{"CTP_KOR_NM": "부산광역시"}, "부산광역시"},
		{"priority order wins", map[string]any{"CTP_KOR_NM": "부산광역시", "name": "서울특별시"}, "서울특별시"},
		{"empty name falls through", map[string]any{"name": "", "adm_nm": "경기도"}, "경기도"},
		{"no candidate keys", map[string]any{"code": "11"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Feature{Properties: tt.props}
			assert.Equal(t, tt.expected, f.RegionName())
		})
	}
}

func TestFeatureCollection_Centroids_Polygon(t *testing.T) {
	fc := &FeatureCollection{
		Type: "FeatureCollection",
		Features: []Feature{
			polygonFeature(t, map[string]any{"name": "서울특별시"}, [][][2]float64{
				{{126, 37}, {128, 37}, {128, 39}, {126, 39}},
			}),
		},
	}

	cents := fc.Centroids()
	require.Len(t, cents, 1)
	assert.Equal(t, "서울특별시", cents[0].Region)
	assert.InDelta(t, 38.0, cents[0].Lat, 1e-9)
	assert.InDelta(t, 127.0, cents[0].Lon, 1e-9)
}

func TestFeatureCollection_Centroids_MultiPolygon(t *testing.T) {
	polys := [][][][2]float64{
		{{{126, 33}, {126, 34}}},
		{{{127, 33}, {127, 34}}},
	}
	coords, err := json.Marshal(polys)
	require.NoError(t, err)

	fc := &FeatureCollection{
		Features: []Feature{{
			Properties: map[string]any{"name": "제주도"},
			Geometry:   Geometry{Type: "MultiPolygon", Coordinates: coords},
		}},
	}

	cents := fc.Centroids()
	require.Len(t, cents, 1)
	// Region name is canonicalized during centroid extraction.
	assert.Equal(t, "제주특별자치도", cents[0].Region)
	assert.InDelta(t, 33.5, cents[0].Lat, 1e-9)
	assert.InDelta(t, 126.5, cents[0].Lon, 1e-9)
}

func TestFeatureCollection_Centroids_SkipsBadGeometry(t *testing.T) {
	fc := &FeatureCollection{
		Features: []Feature{
			{
				Properties: map[string]any{"name": "울산광역시"},
				Geometry:   Geometry{Type: "Point", Coordinates: json.RawMessage(`[129,35.5]`)},
			},
			polygonFeature(t, map[string]any{"name": "대전광역시"}, [][][2]float64{
				{{127.3, 36.3}, {127.5, 36.3}},
			}),
		},
	}

	cents := fc.Centroids()
	require.Len(t, cents, 1)
	assert.Equal(t, "대전광역시", cents[0].Region)
}

func TestFeatureCollection_NilSafe(t *testing.T) {
	var fc *FeatureCollection
	assert.Nil(t, fc.RegionNames())
	assert.Nil(t, fc.Centroids())
}
