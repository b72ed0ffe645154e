package source

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Minseo10803/jibang-vanish/internal/domain"
)

// StaticClient downloads an unauthenticated CSV snapshot from a fixed URL.
// It is the fallback-unofficial tier: a committed copy of a past official
// extract, served from a static file host.
type StaticClient struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// NewStaticClient creates a static snapshot client.
func NewStaticClient(timeout time.Duration, logger *slog.Logger) *StaticClient {
	return &StaticClient{
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// CSVAttempt returns a fallback-unofficial chain tier fetching the CSV at
// rawURL. An empty rawURL fails fast, disabling the tier.
func (c *StaticClient) CSVAttempt(name, rawURL string) Attempt {
	return Attempt{
		Name:       name,
		Provenance: domain.ProvenanceFallback,
		Fetch: func(ctx context.Context) (domain.Table, error) {
			return c.fetchCSV(ctx, rawURL)
		},
	}
}

func (c *StaticClient) fetchCSV(ctx context.Context, rawURL string) (domain.Table, error) {
	if rawURL == "" {
		return domain.Table{}, fmt.Errorf("no static snapshot URL configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return domain.Table{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Table{}, fmt.Errorf("snapshot request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.Table{}, fmt.Errorf("snapshot fetch: status %d", resp.StatusCode)
	}

	return ReadCSVTable(resp.Body)
}

// ReadCSVTable parses CSV with a header row into a raw table, tolerating a
// UTF-8 byte-order mark (official Korean extracts usually carry one).
func ReadCSVTable(r io.Reader) (domain.Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return domain.Table{}, fmt.Errorf("read csv: %w", err)
	}
	text := strings.TrimPrefix(string(data), "\ufeff")

	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return domain.Table{}, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return domain.Table{}, fmt.Errorf("csv has no header row")
	}

	header := records[0]
	t := domain.Table{Columns: header}
	for _, rec := range records[1:] {
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(rec) {
				row[col] = rec[i]
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}
