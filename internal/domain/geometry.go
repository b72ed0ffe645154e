package domain

import (
	"encoding/json"
	"fmt"
)

// FeatureCollection is the boundary document fetched from the southkorea-maps
// GeoJSON mirror: one Polygon or MultiPolygon feature per sido, with the
// region name somewhere in the properties map.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Feature is a single named boundary. Properties values are left untyped:
// boundary files mix string names with numeric admin codes.
type Feature struct {
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
	Geometry   Geometry       `json:"geometry"`
}

// Geometry holds Polygon or MultiPolygon coordinates. Rings are
// [longitude, latitude] pairs per the GeoJSON convention.
type Geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// Centroid is an approximate label point for a region: the unweighted mean of
// every boundary-ring vertex. Not area-weighted and holes are not subtracted,
// so it is only suitable for placing markers, never for measurement.
type Centroid struct {
	Region string  `json:"region"`
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
}

// nameKeys are the property keys probed for a region name, in priority order.
// Different vintages of the boundary files use different keys; the first one
// present wins.
var nameKeys = []string{"name", "CTP_KOR_NM", "SIG_KOR_NM", "adm_nm", "NAME_1"}

// defaultNameKey is assumed when no candidate key is present.
const defaultNameKey = "name"

// RegionName extracts the feature's region name property. Returns the value
// under the first candidate key holding a non-empty string, else the value
// under the default key (possibly empty).
func (f Feature) RegionName() string {
	for _, k := range nameKeys {
		if v, ok := f.Properties[k].(string); ok && v != "" {
			return v
		}
	}
	v, _ := f.Properties[defaultNameKey].(string)
	return v
}

// RegionNames returns the raw region name of every feature in order.
func (fc *FeatureCollection) RegionNames() []string {
	if fc == nil {
		return nil
	}
	names := make([]string, 0, len(fc.Features))
	for _, f := range fc.Features {
		names = append(names, f.RegionName())
	}
	return names
}

// Centroids computes the vertex-mean centroid for every feature keyed by its
// canonical region name. Features whose geometry fails to decode are skipped.
func (fc *FeatureCollection) Centroids() []Centroid {
	if fc == nil {
		return nil
	}
	out := make([]Centroid, 0, len(fc.Features))
	for _, f := range fc.Features {
		lat, lon, n, err := f.Geometry.vertexSum()
		if err != nil || n == 0 {
			continue
		}
		out = append(out, Centroid{
			Region: CanonicalRegion(f.RegionName()),
			Lat:    lat / float64(n),
			Lon:    lon / float64(n),
		})
	}
	return out
}

// vertexSum accumulates latitude/longitude totals and the vertex count over
// all rings of the geometry.
func (g Geometry) vertexSum() (latSum, lonSum float64, n int, err error) {
	switch g.Type {
	case "Polygon":
		var rings [][][2]float64
		if err := json.Unmarshal(g.Coordinates, &rings); err != nil {
			return 0, 0, 0, fmt.Errorf("decode polygon: %w", err)
		}
		latSum, lonSum, n = sumRings(rings)
		return latSum, lonSum, n, nil
	case "MultiPolygon":
		var polys [][][][2]float64
		if err := json.Unmarshal(g.Coordinates, &polys); err != nil {
			return 0, 0, 0, fmt.Errorf("decode multipolygon: %w", err)
		}
		for _, rings := range polys {
			la, lo, c := sumRings(rings)
			latSum += la
			lonSum += lo
			n += c
		}
		return latSum, lonSum, n, nil
	default:
		return 0, 0, 0, fmt.Errorf("unsupported geometry type %q", g.Type)
	}
}

func sumRings(rings [][][2]float64) (latSum, lonSum float64, n int) {
	for _, ring := range rings {
		for _, pt := range ring {
			lonSum += pt[0]
			latSum += pt[1]
			n++
		}
	}
	return latSum, lonSum, n
}
