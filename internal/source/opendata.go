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
	"time"

	"github.com/Minseo10803/jibang-vanish/internal/domain"
)

// OpenDataClient fetches point-event records (one row per event, e.g. one
// closed school) from a data.go.kr-style open-data API: a service key query
// parameter and a JSON envelope with the rows under "data".
type OpenDataClient struct {
	serviceKey string
	endpoint   string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewOpenDataClient creates an open-data client for the given endpoint. An
// empty serviceKey is allowed; attempts then fail fast without touching the
// network.
func NewOpenDataClient(serviceKey, endpoint string, timeout time.Duration, logger *slog.Logger) *OpenDataClient {
	return &OpenDataClient{
		serviceKey: serviceKey,
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// EventsAttempt returns the primary-official chain tier for the point-event
// dataset.
func (c *OpenDataClient) EventsAttempt() Attempt {
	return Attempt{
		Name:       "opendata",
		Provenance: domain.ProvenancePrimary,
		Fetch:      c.fetchEvents,
	}
}

func (c *OpenDataClient) fetchEvents(ctx context.Context) (domain.Table, error) {
	if c.serviceKey == "" {
		return domain.Table{}, errors.New("no open-data service key configured")
	}
	if c.endpoint == "" {
		return domain.Table{}, errors.New("no open-data endpoint configured")
	}

	params := url.Values{
		"serviceKey": {c.serviceKey},
		"page":       {"1"},
		"perPage":    {"5000"},
		"returnType": {"JSON"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return domain.Table{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Table{}, fmt.Errorf("opendata request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return domain.Table{}, fmt.Errorf("opendata API error: status %d: %s", resp.StatusCode, body)
	}

	var payload struct {
		CurrentCount int              `json:"currentCount"`
		Data         []map[string]any `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return domain.Table{}, fmt.Errorf("decode response: %w", err)
	}

	return rowsToTable(payload.Data), nil
}

// rowsToTable flattens loosely-typed JSON rows into a string table. Columns
// are the sorted union of all keys seen, so ragged rows degrade to empty
// cells instead of failing.
func rowsToTable(rows []map[string]any) domain.Table {
	colSet := make(map[string]struct{})
	for _, r := range rows {
		for k := range r {
			colSet[k] = struct{}{}
		}
	}
	cols := make([]string, 0, len(colSet))
	for k := range colSet {
		cols = append(cols, k)
	}
	sort.Strings(cols)

	t := domain.Table{Columns: cols}
	for _, r := range rows {
		row := make(map[string]string, len(r))
		for k, v := range r {
			switch val := v.(type) {
			case string:
				row[k] = val
			case float64:
				row[k] = formatJSONNumber(val)
			case bool:
				row[k] = fmt.Sprintf("%t", val)
			case nil:
				row[k] = ""
			default:
				row[k] = fmt.Sprint(val)
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func formatJSONNumber(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%g", v)
}
