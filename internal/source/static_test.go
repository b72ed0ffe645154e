package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSVTable(t *testing.T) {
	csv := "year,region,young_female,old_65plus\n2023,서울특별시,1100000,1600000\n2023,부산광역시,330000,700000\n"

	table, err := ReadCSVTable(strings.NewReader(csv))
	require.NoError(t, err)

	assert.Equal(t, []string{"year", "region", "young_female", "old_65plus"}, table.Columns)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "서울특별시", table.Rows[0]["region"])
	assert.Equal(t, "700000", table.Rows[1]["old_65plus"])
}

func TestReadCSVTable_StripsByteOrderMark(t *testing.T) {
	csv := "\ufeffyear,region\n2023,경기도\n"

	table, err := ReadCSVTable(strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, "year", table.Columns[0], "BOM must not stick to the first header")
}

func TestReadCSVTable_RaggedRowsTolerated(t *testing.T) {
	csv := "year,region,count\n2023,전라남도\n2024,경상북도,3\n"

	table, err := ReadCSVTable(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "", table.Rows[0]["count"])
	assert.Equal(t, "3", table.Rows[1]["count"])
}

func TestReadCSVTable_EmptyInput(t *testing.T) {
	_, err := ReadCSVTable(strings.NewReader(""))
	require.Error(t, err)
}

func TestStaticClient_CSVAttempt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("\ufeffyear,region,young_female,old_65plus\n2023,대구광역시,210000,480000\n"))
	}))
	t.Cleanup(srv.Close)

	c := NewStaticClient(5*time.Second, discardLogger())
	attempt := c.CSVAttempt("population-snapshot", srv.URL)

	table, err := attempt.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "대구광역시", table.Rows[0]["region"])
}

func TestStaticClient_NotFoundFails(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)

	c := NewStaticClient(5*time.Second, discardLogger())
	_, err := c.CSVAttempt("population-snapshot", srv.URL).Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestStaticClient_EmptyURLFailsFast(t *testing.T) {
	c := NewStaticClient(time.Second, discardLogger())
	_, err := c.CSVAttempt("population-snapshot", "").Fetch(context.Background())
	require.Error(t, err)
}
