package pipeline

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Minseo10803/jibang-vanish/internal/domain"
	"github.com/Minseo10803/jibang-vanish/internal/observability"
)

func testNormalizer() *Normalizer {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewNormalizer(logger, observability.NewMetricsForTesting())
}

func indexOnly(records []domain.Record) []domain.Record {
	out := make([]domain.Record, 0)
	for _, r := range records {
		if r.Metric == domain.MetricExtinctionIndex {
			out = append(out, r)
		}
	}
	return out
}

func TestNormalizer_Population_KoreanHeaders(t *testing.T) {
	table := domain.Table{
		Columns: []string{"연도", "자치구", "여성20_39", "고령65_이상"},
		Rows: []map[string]string{
			{"연도": "2024", "자치구": "종로구", "여성20_39": "10000", "고령65_이상": "20000"},
		},
	}

	records := testNormalizer().Population(table, 100)

	idx := indexOnly(records)
	require.Len(t, idx, 1)
	assert.Equal(t, "종로구", idx[0].Group)
	assert.InDelta(t, 50.0, idx[0].Value, 1e-9)
	assert.Equal(t, domain.YearDate(2024), idx[0].Date)
}

func TestNormalizer_Population_KOSISPivotHeaders(t *testing.T) {
	table := domain.Table{
		Columns: []string{"PRD_DE", "C1_NM", "T20F_39F", "T65O_UP"},
		Rows: []map[string]string{
			{"PRD_DE": "2023", "C1_NM": "서울", "T20F_39F": "1100000", "T65O_UP": "1600000"},
		},
	}

	records := testNormalizer().Population(table, 1)

	require.NotEmpty(t, records)
	for _, r := range records {
		assert.Equal(t, "서울특별시", r.Group, "alias folded to canonical name")
		assert.Equal(t, domain.YearDate(2023), r.Date)
	}
	idx := indexOnly(records)
	require.Len(t, idx, 1)
	assert.InDelta(t, 1100000.0/1600000.0, idx[0].Value, 1e-9)
}

func TestNormalizer_Population_CommaGroupedDigits(t *testing.T) {
	table := domain.Table{
		Columns: []string{"year", "region", "young_female", "old_65plus", "total_pop"},
		Rows: []map[string]string{
			{"year": "2023", "region": "부산광역시", "young_female": "330,000", "old_65plus": "700,000", "total_pop": "3,280,000"},
		},
	}

	records := testNormalizer().Population(table, 1)

	byMetric := map[string]float64{}
	for _, r := range records {
		byMetric[r.Metric] = r.Value
	}
	assert.Equal(t, 330000.0, byMetric[domain.MetricYoungFemale])
	assert.Equal(t, 700000.0, byMetric[domain.MetricElderly])
	assert.Equal(t, 3280000.0, byMetric[domain.MetricTotalPopulation])
}

func TestNormalizer_Population_DropsUnparsableRows(t *testing.T) {
	table := domain.Table{
		Columns: []string{"year", "region", "young_female", "old_65plus"},
		Rows: []map[string]string{
			{"year": "2023", "region": "대구광역시", "young_female": "210000", "old_65plus": "480000"},
			{"year": "집계중", "region": "인천광역시", "young_female": "400000", "old_65plus": "500000"},
			{"year": "2023", "region": "광주광역시", "young_female": "-", "old_65plus": "230000"},
			{"year": "2023", "region": "", "young_female": "100000", "old_65plus": "200000"},
		},
	}

	records := testNormalizer().Population(table, 1)

	groups := map[string]bool{}
	for _, r := range records {
		groups[r.Group] = true
	}
	assert.Equal(t, map[string]bool{"대구광역시": true}, groups, "only the fully parsable row survives")
}

func TestNormalizer_Population_TotalColumnOptional(t *testing.T) {
	table := domain.Table{
		Columns: []string{"year", "region", "young_female", "old_65plus"},
		Rows: []map[string]string{
			{"year": "2023", "region": "울산광역시", "young_female": "150000", "old_65plus": "180000"},
		},
	}

	records := testNormalizer().Population(table, 1)

	for _, r := range records {
		assert.NotEqual(t, domain.MetricTotalPopulation, r.Metric)
	}
	assert.Len(t, records, 3, "two cohorts plus the index")
}

func TestNormalizer_Population_UndefinedIndexOmitted(t *testing.T) {
	table := domain.Table{
		Columns: []string{"year", "region", "young_female", "old_65plus"},
		Rows: []map[string]string{
			{"year": "2023", "region": "세종특별자치시", "young_female": "60000", "old_65plus": "0"},
		},
	}

	records := testNormalizer().Population(table, 1)

	assert.Empty(t, indexOnly(records), "zero denominator produces no index record")
	assert.Len(t, records, 2, "the cohort counts are still emitted")
}

func TestNormalizer_Events_CountsPerRegionYear(t *testing.T) {
	table := domain.Table{
		Columns: []string{"폐교연도", "시도", "학교명"},
		Rows: []map[string]string{
			{"폐교연도": "2022", "시도": "전라남도", "학교명": "가"},
			{"폐교연도": "2022", "시도": "전라남도", "학교명": "나"},
			{"폐교연도": "2022", "시도": "전라남도", "학교명": "다"},
			{"폐교연도": "2023", "시도": "전라남도", "학교명": "라"},
			{"폐교연도": "2022", "시도": "경상북도", "학교명": "마"},
			{"폐교연도": "미상", "시도": "경상북도", "학교명": "바"},
		},
	}

	records := testNormalizer().Events(table)

	require.Len(t, records, 3)
	counts := map[string]float64{}
	for _, r := range records {
		require.Equal(t, domain.MetricEventCount, r.Metric)
		counts[r.Group+"/"+r.Date.Format("2006")] = r.Value
	}
	assert.Equal(t, 3.0, counts["전라남도/2022"])
	assert.Equal(t, 1.0, counts["전라남도/2023"])
	assert.Equal(t, 1.0, counts["경상북도/2022"])
}

func TestColumnRule_FallbackWhenNoKeywordMatches(t *testing.T) {
	table := domain.Table{Columns: []string{"alpha", "beta"}}
	assert.Equal(t, "year", yearRule.find(table))
	assert.Equal(t, "region", regionRule.find(table))
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"1234", 1234, true},
		{" 12.5 ", 12.5, true},
		{"1,234,567", 1234567, true},
		{"", 0, false},
		{"-", 0, false},
		{"N/A", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseNumber(tt.in)
		assert.Equal(t, tt.ok, ok, "input %q", tt.in)
		if tt.ok {
			assert.Equal(t, tt.want, got, "input %q", tt.in)
		}
	}
}

func TestParseYear(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"2023", 2023, true},
		{"2023-01-01", 2023, true},
		{" 1999 ", 1999, true},
		{"3023", 0, false},
		{"abc", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseYear(tt.in)
		assert.Equal(t, tt.ok, ok, "input %q", tt.in)
		if tt.ok {
			assert.Equal(t, tt.want, got, "input %q", tt.in)
		}
	}
}
