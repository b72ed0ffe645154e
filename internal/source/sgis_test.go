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

func TestSGISClient_FetchPopulation(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/authentication.json", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ak", r.URL.Query().Get("consumer_key"))
		assert.Equal(t, "sk", r.URL.Query().Get("consumer_secret"))
		w.Write([]byte(`{"result":{"accessToken":"tok-1"},"errCd":0}`))
	})
	mux.HandleFunc("/stats/searchpopulation.json", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "tok-1", r.URL.Query().Get("accessToken"))
		if r.URL.Query().Get("gender") == "2" {
			w.Write([]byte(`{"result":[{"adm_nm":"서울특별시","population":"1100000"},{"adm_nm":"부산광역시","population":"330000"}],"errCd":0}`))
			return
		}
		w.Write([]byte(`{"result":[{"adm_nm":"서울특별시","population":"1600000"},{"adm_nm":"부산광역시","population":"700000"}],"errCd":0}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c := NewSGISClient("ak", "sk", 5*time.Second, discardLogger())
	c.baseURL = srv.URL

	table, err := c.fetchPopulation(context.Background(), 2023, 2023)
	require.NoError(t, err)

	assert.Equal(t, []string{"year", "region", "young_female", "old_65plus"}, table.Columns)
	require.Len(t, table.Rows, 2)

	byRegion := map[string]map[string]string{}
	for _, row := range table.Rows {
		byRegion[row["region"]] = row
	}
	assert.Equal(t, "1100000", byRegion["서울특별시"]["young_female"])
	assert.Equal(t, "1600000", byRegion["서울특별시"]["old_65plus"])
	assert.Equal(t, "2023", byRegion["부산광역시"]["year"])
}

func TestSGISClient_AuthRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"errCd":-401,"errMsg":"인증 정보가 존재하지 않습니다"}`))
	}))
	t.Cleanup(srv.Close)

	c := NewSGISClient("bad", "bad", time.Second, discardLogger())
	c.baseURL = srv.URL

	_, err := c.fetchPopulation(context.Background(), 2023, 2023)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sgis auth rejected")
}

func TestSGISClient_NoKeyPairFailsFast(t *testing.T) {
	c := NewSGISClient("", "", time.Second, discardLogger())
	_, err := c.fetchPopulation(context.Background(), 2023, 2023)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no SGIS key pair")
}
