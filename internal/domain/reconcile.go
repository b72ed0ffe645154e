package domain

import "sort"

// Reconciliation reports region names present on only one side of the
// tabular-data / geometry join. Purely diagnostic: the presentation layer
// shows a banner, and regions missing from geometry are simply absent from
// the map while staying in every tabular output.
type Reconciliation struct {
	MissingInGeometry []string `json:"missing_in_geometry"`
	MissingInData     []string `json:"missing_in_data"`
}

// Clean reports whether both sides matched completely.
func (r Reconciliation) Clean() bool {
	return len(r.MissingInGeometry) == 0 && len(r.MissingInData) == 0
}

// Reconcile normalizes both name sets and returns the sorted set differences.
func Reconcile(dataNames, geometryNames []string) Reconciliation {
	data := canonicalSet(dataNames)
	geom := canonicalSet(geometryNames)

	var rec Reconciliation
	for name := range data {
		if _, ok := geom[name]; !ok {
			rec.MissingInGeometry = append(rec.MissingInGeometry, name)
		}
	}
	for name := range geom {
		if _, ok := data[name]; !ok {
			rec.MissingInData = append(rec.MissingInData, name)
		}
	}
	sort.Strings(rec.MissingInGeometry)
	sort.Strings(rec.MissingInData)
	return rec
}

func canonicalSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		if c := CanonicalRegion(n); c != "" {
			set[c] = struct{}{}
		}
	}
	return set
}
