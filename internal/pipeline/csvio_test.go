package pipeline

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Minseo10803/jibang-vanish/internal/domain"
)

func TestExportCSV(t *testing.T) {
	records := []domain.Record{
		{Date: domain.YearDate(2023), Group: "서울특별시", Value: 0.6875, Metric: domain.MetricExtinctionIndex},
		{Date: domain.YearDate(2023), Group: "부산광역시", Value: 330000, Metric: domain.MetricYoungFemale},
	}

	var buf bytes.Buffer
	require.NoError(t, ExportCSV(&buf, records))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "\ufeff"), "output starts with a BOM")
	lines := strings.Split(strings.TrimSuffix(strings.TrimPrefix(out, "\ufeff"), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "date,group,value,metric", lines[0])
	assert.Equal(t, "2023-01-01,서울특별시,0.6875,extinction_index", lines[1])
	assert.Equal(t, "2023-01-01,부산광역시,330000,young_female", lines[2])
}

func TestExportCSV_OmitsEmptyMetricColumn(t *testing.T) {
	records := []domain.Record{
		{Date: domain.YearDate(2022), Group: "강원특별자치도", Value: 152000},
		{Date: domain.YearDate(2023), Group: "강원특별자치도", Value: 149500},
	}

	var buf bytes.Buffer
	require.NoError(t, ExportCSV(&buf, records))

	lines := strings.Split(strings.TrimSuffix(strings.TrimPrefix(buf.String(), "\ufeff"), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "date,group,value", lines[0], "metric column dropped when no record carries one")
	assert.Equal(t, "2022-01-01,강원특별자치도,152000", lines[1])

	got, err := ImportCSV(strings.NewReader(buf.String()))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Empty(t, got[0].Metric)
	assert.Equal(t, 152000.0, got[0].Value)
}

func TestExportImportRoundTrip(t *testing.T) {
	records := []domain.Record{
		{Date: domain.YearDate(2022), Group: "전라남도", Value: 0.41, Metric: domain.MetricExtinctionIndex},
		{Date: domain.YearDate(2023), Group: "전라남도", Value: 0.39, Metric: domain.MetricExtinctionIndex},
		{Date: domain.YearDate(2023), Group: "경상북도", Value: 3, Metric: domain.MetricEventCount},
	}

	var buf bytes.Buffer
	require.NoError(t, ExportCSV(&buf, records))

	got, err := ImportCSV(&buf)
	require.NoError(t, err)
	require.Len(t, got, len(records))
	for i, want := range records {
		assert.True(t, want.Date.Equal(got[i].Date), "record %d date", i)
		assert.Equal(t, want.Group, got[i].Group)
		assert.Equal(t, want.Value, got[i].Value)
		assert.Equal(t, want.Metric, got[i].Metric)
	}
}

func TestImportCSV_BareYearDates(t *testing.T) {
	in := "date,group,value,metric\n2023,경기도,1.25,extinction_index\n"

	got, err := ImportCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, domain.YearDate(2023).Equal(got[0].Date))
}

func TestImportCSV_RejectsBadRows(t *testing.T) {
	_, err := ImportCSV(strings.NewReader("date,group,value,metric\nlast tuesday,경기도,1,extinction_index\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unparsable date")

	_, err = ImportCSV(strings.NewReader("date,group,value,metric\n2023-01-01,경기도,lots,extinction_index\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unparsable value")
}
