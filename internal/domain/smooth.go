package domain

import (
	"sort"

	"github.com/montanaflynn/stats"
)

// Smooth applies a trailing moving average of the given window to each
// (group, metric) series independently, ordered by date. Partial windows at
// the start of a series still produce a value (min-periods 1), so no leading
// gap appears. window <= 1 is the identity and returns the input unchanged.
func Smooth(records []Record, window int) []Record {
	if window <= 1 {
		return records
	}

	type seriesKey struct {
		group  string
		metric string
	}
	series := make(map[seriesKey][]Record)
	order := make([]seriesKey, 0)
	for _, r := range records {
		k := seriesKey{r.Group, r.Metric}
		if _, ok := series[k]; !ok {
			order = append(order, k)
		}
		series[k] = append(series[k], r)
	}

	out := make([]Record, 0, len(records))
	for _, k := range order {
		rs := series[k]
		sort.SliceStable(rs, func(i, j int) bool { return rs[i].Date.Before(rs[j].Date) })

		values := make([]float64, len(rs))
		for i, r := range rs {
			values[i] = r.Value
		}
		for i := range rs {
			lo := i - window + 1
			if lo < 0 {
				lo = 0
			}
			mean, err := stats.Mean(values[lo : i+1])
			if err != nil {
				mean = rs[i].Value
			}
			smoothed := rs[i]
			smoothed.Value = mean
			out = append(out, smoothed)
		}
	}
	return out
}

// Aggregate collapses records sharing a (date, group, metric) key by summing
// their values. Point-event datasets pass through here to become per-region
// yearly counts, and it enforces the canonical-schema uniqueness invariant
// for every other dataset. Output is sorted by date, then group, then metric.
func Aggregate(records []Record) []Record {
	type key struct {
		date   int64
		group  string
		metric string
	}
	sums := make(map[key]Record)
	for _, r := range records {
		k := key{r.Date.UnixNano(), r.Group, r.Metric}
		agg, ok := sums[k]
		if !ok {
			sums[k] = r
			continue
		}
		agg.Value += r.Value
		sums[k] = agg
	}

	out := make([]Record, 0, len(sums))
	for _, r := range sums {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		if out[i].Group != out[j].Group {
			return out[i].Group < out[j].Group
		}
		return out[i].Metric < out[j].Metric
	})
	return out
}
