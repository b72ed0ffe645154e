package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kosisTestClient(t *testing.T, handler http.HandlerFunc) *KOSISClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewKOSISClient("test-key", "", 5*time.Second, discardLogger())
	c.baseURL = srv.URL
	return c
}

func TestKOSISClient_FetchPivotsItems(t *testing.T) {
	c := kosisTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "getList", r.URL.Query().Get("method"))
		assert.Equal(t, "test-key", r.URL.Query().Get("apiKey"))
		assert.Equal(t, "DT_1B040A3", r.URL.Query().Get("tblId"))
		assert.Equal(t, "2023", r.URL.Query().Get("startPrdDe"))
		assert.Equal(t, "2024", r.URL.Query().Get("endPrdDe"))

		w.Write([]byte(`[
			{"PRD_DE":"2023","C1_NM":"서울특별시","ITM_ID":"T20F_39F","DT":"1100000"},
			{"PRD_DE":"2023","C1_NM":"서울특별시","ITM_ID":"T65O_UP","DT":"1600000"},
			{"PRD_DE":"2024","C1_NM":"서울특별시","ITM_ID":"T20F_39F","DT":"1050000"},
			{"PRD_DE":"2024","C1_NM":"서울특별시","ITM_ID":"T65O_UP","DT":"1700000"}
		]`))
	})

	table, err := c.fetchPopulation(context.Background(), 2023, 2024)
	require.NoError(t, err)

	assert.Equal(t, []string{"PRD_DE", "C1_NM", "T20F_39F", "T65O_UP"}, table.Columns)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "1100000", table.Rows[0]["T20F_39F"])
	assert.Equal(t, "1600000", table.Rows[0]["T65O_UP"])
	assert.Equal(t, "2024", table.Rows[1]["PRD_DE"])
}

func TestKOSISClient_ErrorObjectRejected(t *testing.T) {
	c := kosisTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"err":"20","errMsg":"등록되지 않은 인증키 입니다."}`))
	})

	_, err := c.fetchPopulation(context.Background(), 2020, 2024)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kosis rejected request")
}

func TestKOSISClient_NonSuccessStatus(t *testing.T) {
	c := kosisTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := c.fetchPopulation(context.Background(), 2020, 2024)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")
}

func TestKOSISClient_NoKeyFailsFastWithoutNetwork(t *testing.T) {
	c := NewKOSISClient("", "", time.Second, discardLogger())
	c.baseURL = "http://127.0.0.1:1" // would refuse connections if dialed

	_, err := c.fetchPopulation(context.Background(), 2020, 2024)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no KOSIS API key")
}

func TestPivotKOSISItems_SkipsIncompleteRows(t *testing.T) {
	rows := []kosisRow{
		{Period: "2023", RegionNm: "경기도", ItemID: "T20F_39F", Value: "900000"},
		{Period: "", RegionNm: "경기도", ItemID: "T20F_39F", Value: "1"},
		{Period: "2023", RegionNm: "", ItemID: "T20F_39F", Value: "2"},
	}

	table := pivotKOSISItems(rows)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "경기도", table.Rows[0]["C1_NM"])
}
