package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/Minseo10803/jibang-vanish/internal/domain"
)

// DefaultBoundaryURL is the sido boundary document from the southkorea-maps
// project, the same source the original dashboard used.
const DefaultBoundaryURL = "https://raw.githubusercontent.com/southkorea/southkorea-maps/master/kostat/2013/json/skorea-provinces-2018-geo.json"

// GeoClient fetches the GeoJSON boundary document. Unlike the tabular
// chains, geometry has no synthetic fallback: a failed fetch disables
// spatial rendering and leaves tabular output untouched, so errors here are
// diagnostic rather than recoverable.
type GeoClient struct {
	url        string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewGeoClient creates a boundary fetcher. An empty url selects the default
// southkorea-maps document.
func NewGeoClient(url string, timeout time.Duration, logger *slog.Logger) *GeoClient {
	if url == "" {
		url = DefaultBoundaryURL
	}
	return &GeoClient{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// FetchBoundaries downloads and decodes the feature collection.
func (c *GeoClient) FetchBoundaries(ctx context.Context) (*domain.FeatureCollection, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("boundary request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("boundary fetch: status %d: %s", resp.StatusCode, body)
	}

	var fc domain.FeatureCollection
	if err := json.NewDecoder(resp.Body).Decode(&fc); err != nil {
		return nil, fmt.Errorf("decode boundary document: %w", err)
	}
	if len(fc.Features) == 0 {
		return nil, fmt.Errorf("boundary document has no features")
	}
	return &fc, nil
}
