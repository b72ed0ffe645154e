// Package pipeline turns raw source tables into canonical record sets and
// orchestrates the full acquisition-to-snapshot flow.
package pipeline

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/Minseo10803/jibang-vanish/internal/domain"
	"github.com/Minseo10803/jibang-vanish/internal/observability"
	"github.com/Minseo10803/jibang-vanish/internal/source"
)

// columnRule locates the column for one semantic field: the first column
// whose name contains any keyword (case-insensitive) wins, else the fallback
// name is assumed. Rules never fail; a wrong guess just drops rows later
// during coercion.
type columnRule struct {
	keywords []string
	fallback string
}

// Column-discovery rules for the heterogeneous upstream schemas: Korean
// headers from official extracts (연도, 자치구, 여성20_39, 고령65_이상), KOSIS
// pivot columns (PRD_DE, C1_NM, T20F_39F, T65O_UP), and the english names
// used by snapshots and the synthetic generator.
var (
	yearRule   = columnRule{[]string{"연도", "year", "PRD_DE"}, "year"}
	regionRule = columnRule{[]string{"자치구", "시도", "지역", "region", "C1_NM"}, "region"}
	youngRule  = columnRule{[]string{"여성20", "young_female", "T20F"}, "young_female"}
	oldRule    = columnRule{[]string{"고령", "old_65plus", "65"}, "old_65plus"}
	totalRule  = columnRule{[]string{"총인구", "total"}, "total_pop"}
)

func (r columnRule) find(t domain.Table) string {
	for _, col := range t.Columns {
		for _, kw := range r.keywords {
			if strings.Contains(strings.ToLower(col), strings.ToLower(kw)) {
				return col
			}
		}
	}
	return r.fallback
}

// PopulationCheck is the shape plausibility check for the population chain:
// a payload must expose year, region, and both cohort columns or it cannot
// be normalized and the chain should fall through.
func PopulationCheck() source.CheckFunc {
	return source.RequireColumns(yearRule.keywords, regionRule.keywords, youngRule.keywords, oldRule.keywords)
}

// EventsCheck is the shape plausibility check for the point-event chain.
func EventsCheck() source.CheckFunc {
	return source.RequireColumns(yearRule.keywords, regionRule.keywords)
}

// Normalizer converts raw tables into canonical records.
type Normalizer struct {
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewNormalizer creates a Normalizer.
func NewNormalizer(logger *slog.Logger, metrics *observability.Metrics) *Normalizer {
	return &Normalizer{logger: logger, metrics: metrics}
}

// Population normalizes a population table into long-format records carrying
// the cohort counts, the total where present, and the derived extinction
// index scaled by indexScale. Rows with unparsable required numerics are
// dropped row-by-row; rows whose index is undefined keep their counts but
// contribute no index record.
func (n *Normalizer) Population(t domain.Table, indexScale float64) []domain.Record {
	yearCol := yearRule.find(t)
	regionCol := regionRule.find(t)
	youngCol := youngRule.find(t)
	oldCol := oldRule.find(t)
	totalCol := totalRule.find(t)

	records := make([]domain.Record, 0, len(t.Rows)*4)
	for _, row := range t.Rows {
		year, ok := parseYear(row[yearCol])
		if !ok {
			n.dropRow("missing_numeric", "unparsable year", row[yearCol])
			continue
		}
		region := domain.CanonicalRegion(row[regionCol])
		if region == "" {
			n.dropRow("missing_numeric", "empty region", row[regionCol])
			continue
		}

		young, okY := parseNumber(row[youngCol])
		old, okO := parseNumber(row[oldCol])
		if !okY || !okO {
			n.dropRow("missing_numeric", "unparsable cohort count", row[youngCol]+"/"+row[oldCol])
			continue
		}

		date := domain.YearDate(year)
		records = append(records,
			domain.Record{Date: date, Group: region, Value: young, Metric: domain.MetricYoungFemale},
			domain.Record{Date: date, Group: region, Value: old, Metric: domain.MetricElderly},
		)
		if total, ok := parseNumber(row[totalCol]); ok {
			records = append(records, domain.Record{Date: date, Group: region, Value: total, Metric: domain.MetricTotalPopulation})
		}
		if idx, ok := domain.ExtinctionIndex(young, old, indexScale); ok {
			records = append(records, domain.Record{Date: date, Group: region, Value: idx, Metric: domain.MetricExtinctionIndex})
		} else {
			n.metrics.RowsDropped.WithLabelValues("undefined_index").Inc()
		}
	}

	n.metrics.RecordsNormalized.Add(float64(len(records)))
	return records
}

// Events normalizes a point-event table (one row per event) into per-region
// yearly counts via groupby-sum.
func (n *Normalizer) Events(t domain.Table) []domain.Record {
	yearCol := yearRule.find(t)
	regionCol := regionRule.find(t)

	records := make([]domain.Record, 0, len(t.Rows))
	for _, row := range t.Rows {
		year, ok := parseYear(row[yearCol])
		if !ok {
			n.dropRow("missing_numeric", "unparsable event year", row[yearCol])
			continue
		}
		region := domain.CanonicalRegion(row[regionCol])
		if region == "" {
			n.dropRow("missing_numeric", "empty event region", row[regionCol])
			continue
		}
		records = append(records, domain.Record{
			Date:   domain.YearDate(year),
			Group:  region,
			Value:  1,
			Metric: domain.MetricEventCount,
		})
	}

	aggregated := domain.Aggregate(records)
	n.metrics.RecordsNormalized.Add(float64(len(aggregated)))
	return aggregated
}

func (n *Normalizer) dropRow(reason, detail, value string) {
	n.metrics.RowsDropped.WithLabelValues(reason).Inc()
	n.logger.Debug("dropping raw row", "reason", detail, "value", value)
}

// parseNumber coerces a cell permissively: surrounding whitespace and comma
// grouping are tolerated. Unparsable cells are "missing", not errors.
func parseNumber(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" || s == "-" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// parseYear accepts a bare year number ("2023") or a value with a leading
// year ("2023-01-01", KOSIS period codes).
func parseYear(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if len(s) > 4 {
		s = s[:4]
	}
	year, err := strconv.Atoi(s)
	if err != nil || year < 1900 || year > 2999 {
		return 0, false
	}
	return year, true
}
