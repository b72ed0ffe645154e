package domain

import "time"

// Metric names carried by canonical records.
const (
	MetricTotalPopulation = "total_pop"
	MetricYoungFemale     = "young_female"
	MetricElderly         = "old_65plus"
	MetricExtinctionIndex = "extinction_index"
	MetricEventCount      = "event_count"
)

// Record is the canonical long-format row that every source is normalized
// into. Date is always in KST. Metric is empty for single-measure datasets.
type Record struct {
	Date   time.Time `json:"date"`
	Group  string    `json:"group"`
	Value  float64   `json:"value"`
	Metric string    `json:"metric,omitempty"`
}

// Provenance identifies which fallback tier produced a dataset.
type Provenance string

const (
	ProvenancePrimary   Provenance = "primary-official"    // KOSIS OpenAPI
	ProvenanceSecondary Provenance = "secondary-official"  // SGIS
	ProvenanceFallback  Provenance = "fallback-unofficial" // static snapshot
	ProvenanceSynthetic Provenance = "synthetic-example"   // seeded generator
)

// Official reports whether the data came from a government source. The
// presentation layer shows a "using example data" notice when false.
func (p Provenance) Official() bool {
	return p == ProvenancePrimary || p == ProvenanceSecondary
}

// Table is a raw tabular payload as delivered by a source: named columns and
// rows of string cells. Values stay strings until the schema normalizer
// coerces them, so malformed cells degrade row-by-row instead of failing the
// whole payload.
type Table struct {
	Columns []string
	Rows    []map[string]string
}

// Empty reports whether the table has no usable rows.
func (t Table) Empty() bool {
	return len(t.Rows) == 0
}

// HasColumn reports whether the table carries the named column.
func (t Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}
