package source

import (
	"context"
	"math/rand"
	"strconv"

	"github.com/Minseo10803/jibang-vanish/internal/domain"
)

// DefaultSyntheticSeed reproduces the example dataset shipped with the
// original dashboard.
const DefaultSyntheticSeed = 42

// Synthetic generates plausible placeholder data when every real source has
// failed. It is the terminal tier of each chain and never fails: for any
// year range it emits one row per canonical sido per year, so the resolution
// chain stays total with no credentials and no network.
type Synthetic struct {
	seed int64
}

// NewSynthetic creates a generator. The seed makes output deterministic
// across runs, so "example data" looks stable to users and tests.
func NewSynthetic(seed int64) *Synthetic {
	if seed == 0 {
		seed = DefaultSyntheticSeed
	}
	return &Synthetic{seed: seed}
}

// PopulationAttempt returns the synthetic-example terminal tier for the
// population dataset.
func (s *Synthetic) PopulationAttempt(startYear, endYear int) Attempt {
	return Attempt{
		Name:       "synthetic-population",
		Provenance: domain.ProvenanceSynthetic,
		Fetch: func(_ context.Context) (domain.Table, error) {
			return s.Population(startYear, endYear), nil
		},
	}
}

// Population builds the example population table: totals between 300k and
// 13M, young-female 9-16% of total, elderly 12-25% of total, floored at 1 so
// the extinction index is always defined on synthetic data.
func (s *Synthetic) Population(startYear, endYear int) domain.Table {
	rng := rand.New(rand.NewSource(s.seed))

	t := domain.Table{Columns: []string{"year", "region", "total_pop", "young_female", "old_65plus"}}
	for year := startYear; year <= endYear; year++ {
		for _, region := range domain.Sido {
			total := 300_000 + rng.Int63n(13_000_000-300_000)
			young := max(int64(1), int64(float64(total)*uniform(rng, 0.09, 0.16)))
			old := max(int64(1), int64(float64(total)*uniform(rng, 0.12, 0.25)))
			t.Rows = append(t.Rows, map[string]string{
				"year":         strconv.Itoa(year),
				"region":       region,
				"total_pop":    strconv.FormatInt(total, 10),
				"young_female": strconv.FormatInt(young, 10),
				"old_65plus":   strconv.FormatInt(old, 10),
			})
		}
	}
	return t
}

// EventsAttempt returns the synthetic-example terminal tier for the
// point-event dataset.
func (s *Synthetic) EventsAttempt(startYear, endYear int) Attempt {
	return Attempt{
		Name:       "synthetic-events",
		Provenance: domain.ProvenanceSynthetic,
		Fetch: func(_ context.Context) (domain.Table, error) {
			return s.Events(startYear, endYear), nil
		},
	}
}

// Events builds example point-event rows: zero to five events per region per
// year, one row per event, pre-aggregation shape.
func (s *Synthetic) Events(startYear, endYear int) domain.Table {
	rng := rand.New(rand.NewSource(s.seed + 1))

	t := domain.Table{Columns: []string{"year", "region"}}
	for year := startYear; year <= endYear; year++ {
		for _, region := range domain.Sido {
			n := rng.Intn(6)
			for i := 0; i < n; i++ {
				t.Rows = append(t.Rows, map[string]string{
					"year":   strconv.Itoa(year),
					"region": region,
				})
			}
		}
	}
	return t
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}
