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
	"strconv"
	"time"

	"github.com/Minseo10803/jibang-vanish/internal/domain"
)

// SGISClient fetches per-sido population cohorts from the SGIS statistical
// geography service. SGIS uses a two-step flow: exchange the consumer
// key/secret for a short-lived access token, then query population counts
// with cohort filters per year.
type SGISClient struct {
	accessKey  string
	secretKey  string
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewSGISClient creates an SGIS client. Empty credentials are allowed;
// attempts then fail fast without touching the network.
func NewSGISClient(accessKey, secretKey string, timeout time.Duration, logger *slog.Logger) *SGISClient {
	return &SGISClient{
		accessKey:  accessKey,
		secretKey:  secretKey,
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    "https://sgisapi.kostat.go.kr/OpenAPI3",
		logger:     logger,
	}
}

// PopulationAttempt returns the secondary-official chain tier for the given
// year range.
func (c *SGISClient) PopulationAttempt(startYear, endYear int) Attempt {
	return Attempt{
		Name:       "sgis",
		Provenance: domain.ProvenanceSecondary,
		Fetch: func(ctx context.Context) (domain.Table, error) {
			return c.fetchPopulation(ctx, startYear, endYear)
		},
	}
}

func (c *SGISClient) fetchPopulation(ctx context.Context, startYear, endYear int) (domain.Table, error) {
	if c.accessKey == "" || c.secretKey == "" {
		return domain.Table{}, errors.New("no SGIS key pair configured")
	}

	token, err := c.authenticate(ctx)
	if err != nil {
		return domain.Table{}, err
	}

	t := domain.Table{Columns: []string{"year", "region", "young_female", "old_65plus"}}
	for year := startYear; year <= endYear; year++ {
		young, err := c.cohort(ctx, token, year, "20", "39", "2")
		if err != nil {
			return domain.Table{}, fmt.Errorf("year %d young-female cohort: %w", year, err)
		}
		old, err := c.cohort(ctx, token, year, "65", "", "0")
		if err != nil {
			return domain.Table{}, fmt.Errorf("year %d elderly cohort: %w", year, err)
		}
		for region, y := range young {
			t.Rows = append(t.Rows, map[string]string{
				"year":         strconv.Itoa(year),
				"region":       region,
				"young_female": y,
				"old_65plus":   old[region],
			})
		}
	}
	return t, nil
}

// authenticate exchanges the key pair for an access token.
func (c *SGISClient) authenticate(ctx context.Context) (string, error) {
	params := url.Values{
		"consumer_key":    {c.accessKey},
		"consumer_secret": {c.secretKey},
	}
	var payload struct {
		Result struct {
			AccessToken string `json:"accessToken"`
		} `json:"result"`
		ErrCd  int    `json:"errCd"`
		ErrMsg string `json:"errMsg"`
	}
	if err := c.getJSON(ctx, "/auth/authentication.json", params, &payload); err != nil {
		return "", fmt.Errorf("sgis auth: %w", err)
	}
	if payload.ErrCd != 0 || payload.Result.AccessToken == "" {
		return "", fmt.Errorf("sgis auth rejected: %s (errCd=%d)", payload.ErrMsg, payload.ErrCd)
	}
	return payload.Result.AccessToken, nil
}

// cohort fetches a per-sido population count for one year and age/gender
// filter, keyed by region name. gender "0" means both, "2" female. An empty
// ageTo leaves the range open-ended (65+).
func (c *SGISClient) cohort(ctx context.Context, token string, year int, ageFrom, ageTo, gender string) (map[string]string, error) {
	params := url.Values{
		"accessToken": {token},
		"year":        {strconv.Itoa(year)},
		"low_search":  {"0"}, // sido level only
		"age_from":    {ageFrom},
		"gender":      {gender},
	}
	if ageTo != "" {
		params.Set("age_to", ageTo)
	}

	var payload struct {
		Result []struct {
			AdmNm      string `json:"adm_nm"`
			Population string `json:"population"`
		} `json:"result"`
		ErrCd  int    `json:"errCd"`
		ErrMsg string `json:"errMsg"`
	}
	if err := c.getJSON(ctx, "/stats/searchpopulation.json", params, &payload); err != nil {
		return nil, err
	}
	if payload.ErrCd != 0 {
		return nil, fmt.Errorf("sgis rejected request: %s (errCd=%d)", payload.ErrMsg, payload.ErrCd)
	}
	if len(payload.Result) == 0 {
		return nil, errors.New("sgis returned no rows")
	}

	counts := make(map[string]string, len(payload.Result))
	for _, row := range payload.Result {
		counts[row.AdmNm] = row.Population
	}
	return counts, nil
}

func (c *SGISClient) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sgis request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("sgis API error: status %d: %s", resp.StatusCode, body)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
