package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/Minseo10803/jibang-vanish/internal/domain"
)

// KOSIS statisticsParameterData query constants for the resident-population
// table. T20F_39F is the female population aged 20-39 item; T65O_UP is the
// population aged 65 and over.
const (
	kosisOrgID       = "101"
	kosisTableID     = "DT_1B040A3"
	defaultKOSISItem = "T20F_39F+T65O_UP"
)

// KOSISClient fetches yearly per-sido population items from the Statistics
// Korea (KOSIS) OpenAPI.
type KOSISClient struct {
	apiKey     string
	itemID     string
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewKOSISClient creates a KOSIS client. An empty itemID selects the default
// population items. An empty apiKey is allowed; attempts then fail fast
// without touching the network.
func NewKOSISClient(apiKey, itemID string, timeout time.Duration, logger *slog.Logger) *KOSISClient {
	if itemID == "" {
		itemID = defaultKOSISItem
	}
	return &KOSISClient{
		apiKey:     apiKey,
		itemID:     itemID,
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    "https://kosis.kr/openapi/Param/statisticsParameterData.do",
		logger:     logger,
	}
}

// PopulationAttempt returns the primary-official chain tier for the given
// year range.
func (c *KOSISClient) PopulationAttempt(startYear, endYear int) Attempt {
	return Attempt{
		Name:       "kosis",
		Provenance: domain.ProvenancePrimary,
		Fetch: func(ctx context.Context) (domain.Table, error) {
			return c.fetchPopulation(ctx, startYear, endYear)
		},
	}
}

func (c *KOSISClient) fetchPopulation(ctx context.Context, startYear, endYear int) (domain.Table, error) {
	if c.apiKey == "" {
		return domain.Table{}, errors.New("no KOSIS API key configured")
	}

	params := url.Values{
		"method":     {"getList"},
		"apiKey":     {c.apiKey},
		"itmId":      {c.itemID},
		"objL1":      {"시도"},
		"orgId":      {kosisOrgID},
		"tblId":      {kosisTableID},
		"prdSe":      {"Y"},
		"startPrdDe": {strconv.Itoa(startYear)},
		"endPrdDe":   {strconv.Itoa(endYear)},
		"format":     {"json"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return domain.Table{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Table{}, fmt.Errorf("kosis request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return domain.Table{}, fmt.Errorf("kosis API error: status %d: %s", resp.StatusCode, body)
	}

	rows, err := decodeKOSISRows(resp.Body)
	if err != nil {
		return domain.Table{}, err
	}
	return pivotKOSISItems(rows), nil
}

// kosisRow is one cell of the KOSIS long-format response.
type kosisRow struct {
	Period   string `json:"PRD_DE"`
	RegionNm string `json:"C1_NM"`
	ItemID   string `json:"ITM_ID"`
	Value    string `json:"DT"`
}

// kosisError is the shape KOSIS returns instead of a list when the request
// is rejected (bad key, no data in range, quota exceeded).
type kosisError struct {
	Err    string `json:"err"`
	ErrMsg string `json:"errMsg"`
}

func decodeKOSISRows(r io.Reader) ([]kosisRow, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read kosis response: %w", err)
	}

	var rows []kosisRow
	if err := json.Unmarshal(body, &rows); err == nil {
		return rows, nil
	}

	var kerr kosisError
	if err := json.Unmarshal(body, &kerr); err == nil && kerr.ErrMsg != "" {
		return nil, fmt.Errorf("kosis rejected request: %s (err=%s)", kerr.ErrMsg, kerr.Err)
	}
	return nil, errors.New("kosis response is neither a row list nor an error object")
}

// pivotKOSISItems reshapes the long (period, region, item, value) rows into a
// wide table with one column per item ID, keyed by (PRD_DE, C1_NM). The
// item-ID column names are what the schema normalizer's keyword rules match
// against (e.g. "T20F" for the young-female cohort).
func pivotKOSISItems(rows []kosisRow) domain.Table {
	type key struct{ period, region string }

	items := make(map[string]struct{})
	wide := make(map[key]map[string]string)
	order := make([]key, 0)
	for _, r := range rows {
		if r.Period == "" || r.RegionNm == "" {
			continue
		}
		k := key{r.Period, r.RegionNm}
		if _, ok := wide[k]; !ok {
			wide[k] = make(map[string]string)
			order = append(order, k)
		}
		wide[k][r.ItemID] = r.Value
		items[r.ItemID] = struct{}{}
	}

	itemCols := make([]string, 0, len(items))
	for id := range items {
		itemCols = append(itemCols, id)
	}
	sort.Strings(itemCols)

	t := domain.Table{Columns: append([]string{"PRD_DE", "C1_NM"}, itemCols...)}
	for _, k := range order {
		row := map[string]string{"PRD_DE": k.period, "C1_NM": k.region}
		for _, col := range itemCols {
			row[col] = wide[k][col]
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}
