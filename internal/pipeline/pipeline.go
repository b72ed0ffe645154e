package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Minseo10803/jibang-vanish/internal/domain"
	"github.com/Minseo10803/jibang-vanish/internal/observability"
	"github.com/Minseo10803/jibang-vanish/internal/source"
)

// Clients bundles the upstream adapters a Pipeline resolves against. Any
// field may be nil; the corresponding tier is skipped.
type Clients struct {
	KOSIS     *source.KOSISClient
	SGIS      *source.SGISClient
	Static    *source.StaticClient
	OpenData  *source.OpenDataClient
	Synthetic *source.Synthetic
	Geo       *source.GeoClient
}

// Params selects and shapes one snapshot: the year range to acquire, the
// trailing smoothing window, the display unit for population counts, and the
// multiplier applied to the extinction index.
type Params struct {
	StartYear  int     `json:"start_year"`
	EndYear    int     `json:"end_year"`
	Window     int     `json:"window"`
	Unit       string  `json:"unit"`
	IndexScale float64 `json:"index_scale"`
}

// withDefaults clamps params into a servable shape instead of rejecting
// them. A reversed year range is swapped, not errored.
func (p Params) withDefaults() Params {
	if p.StartYear == 0 {
		p.StartYear = 2015
	}
	if p.EndYear == 0 {
		p.EndYear = domain.Now().Year()
	}
	if p.EndYear < p.StartYear {
		p.StartYear, p.EndYear = p.EndYear, p.StartYear
	}
	if p.Window < 1 {
		p.Window = 1
	}
	if p.Unit == "" {
		p.Unit = domain.UnitPerson
	}
	if p.IndexScale == 0 {
		p.IndexScale = 1
	}
	return p
}

// Meta describes where a snapshot's data actually came from.
type Meta struct {
	PopulationProvenance domain.Provenance `json:"population_provenance"`
	PopulationFetchedAt  time.Time         `json:"population_fetched_at"`
	EventsProvenance     domain.Provenance `json:"events_provenance"`
	EventsFetchedAt      time.Time         `json:"events_fetched_at"`
	BoundaryError        string            `json:"boundary_error,omitempty"`
	UsingExampleData     bool              `json:"using_example_data"`
	Params               Params            `json:"params"`
}

// Bundle is one fully processed snapshot: canonical population and event
// records, map support data, and provenance metadata.
type Bundle struct {
	Population     []domain.Record       `json:"population"`
	Events         []domain.Record       `json:"events"`
	Centroids      []domain.Centroid     `json:"centroids,omitempty"`
	Reconciliation domain.Reconciliation `json:"reconciliation"`
	Meta           Meta                  `json:"meta"`
}

// Pipeline wires resolution, normalization, and derivation into snapshots.
type Pipeline struct {
	resolver   *source.Resolver
	normalizer *Normalizer
	clients    Clients
	logger     *slog.Logger
	metrics    *observability.Metrics

	populationSnapshotURL string
	eventsSnapshotURL     string

	// Boundary documents change on the order of years, so they get their
	// own cache instead of flowing through the table cache.
	geoTTL     time.Duration
	geoMu      sync.Mutex
	geoCached  *domain.FeatureCollection
	geoFetched time.Time

	ready atomic.Bool
}

// Options carries the non-client knobs for NewPipeline.
type Options struct {
	PopulationSnapshotURL string
	EventsSnapshotURL     string
	BoundaryTTL           time.Duration
}

// NewPipeline creates a Pipeline.
func NewPipeline(resolver *source.Resolver, normalizer *Normalizer, clients Clients, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	if opts.BoundaryTTL <= 0 {
		opts.BoundaryTTL = 24 * time.Hour
	}
	return &Pipeline{
		resolver:              resolver,
		normalizer:            normalizer,
		clients:               clients,
		logger:                logger,
		metrics:               metrics,
		populationSnapshotURL: opts.PopulationSnapshotURL,
		eventsSnapshotURL:     opts.EventsSnapshotURL,
		geoTTL:                opts.BoundaryTTL,
	}
}

// Ready reports whether at least one snapshot has been served successfully.
func (p *Pipeline) Ready() bool {
	return p.ready.Load()
}

// Snapshot acquires, normalizes, and derives everything a dashboard needs
// for the given params. It fails only when a resolution chain has no
// synthetic terminal; boundary failures degrade to a Bundle without map
// support data.
func (p *Pipeline) Snapshot(ctx context.Context, params Params) (Bundle, error) {
	params = params.withDefaults()

	population, popMeta, err := p.population(ctx, params)
	if err != nil {
		return Bundle{}, fmt.Errorf("resolving population: %w", err)
	}
	events, evMeta, err := p.events(ctx, params)
	if err != nil {
		return Bundle{}, fmt.Errorf("resolving events: %w", err)
	}

	bundle := Bundle{
		Population: population,
		Events:     events,
		Meta: Meta{
			PopulationProvenance: popMeta.Provenance,
			PopulationFetchedAt:  popMeta.FetchedAt,
			EventsProvenance:     evMeta.Provenance,
			EventsFetchedAt:      evMeta.FetchedAt,
			UsingExampleData:     !popMeta.Provenance.Official() || !evMeta.Provenance.Official(),
			Params:               params,
		},
	}
	if bundle.Meta.UsingExampleData {
		p.metrics.UsingExample.Set(1)
	} else {
		p.metrics.UsingExample.Set(0)
	}

	if fc, err := p.boundaries(ctx); err != nil {
		// Map layers are optional; the tabular surface stays available.
		p.logger.Warn("boundary fetch failed, serving without map data", "error", err)
		bundle.Meta.BoundaryError = err.Error()
	} else {
		bundle.Centroids = fc.Centroids()
		bundle.Reconciliation = domain.Reconcile(recordGroups(population), fc.RegionNames())
	}

	p.metrics.SnapshotsServed.Inc()
	p.ready.Store(true)
	return bundle, nil
}

// population runs the population chain and post-processes its table into
// smoothed, unit-scaled canonical records.
func (p *Pipeline) population(ctx context.Context, params Params) ([]domain.Record, source.Result, error) {
	key := fmt.Sprintf("population|%d-%d", params.StartYear, params.EndYear)
	res, err := p.resolver.Resolve(ctx, key, PopulationCheck(), p.populationAttempts(params)...)
	if err != nil {
		return nil, source.Result{}, err
	}

	records := p.normalizer.Population(res.Table, params.IndexScale)
	records = p.dropFuture(records)
	records = domain.Aggregate(records)
	records = domain.Smooth(records, params.Window)
	records = scaleCounts(records, params.Unit)
	return records, res, nil
}

// events runs the point-event chain. Event counts are served raw: smoothing
// a count series would fabricate fractional events.
func (p *Pipeline) events(ctx context.Context, params Params) ([]domain.Record, source.Result, error) {
	key := fmt.Sprintf("events|%d-%d", params.StartYear, params.EndYear)
	res, err := p.resolver.Resolve(ctx, key, EventsCheck(), p.eventsAttempts(params)...)
	if err != nil {
		return nil, source.Result{}, err
	}

	records := p.normalizer.Events(res.Table)
	records = p.dropFuture(records)
	return records, res, nil
}

func (p *Pipeline) populationAttempts(params Params) []source.Attempt {
	var attempts []source.Attempt
	if p.clients.KOSIS != nil {
		attempts = append(attempts, p.clients.KOSIS.PopulationAttempt(params.StartYear, params.EndYear))
	}
	if p.clients.SGIS != nil {
		attempts = append(attempts, p.clients.SGIS.PopulationAttempt(params.StartYear, params.EndYear))
	}
	if p.clients.Static != nil && p.populationSnapshotURL != "" {
		attempts = append(attempts, p.clients.Static.CSVAttempt("population-snapshot", p.populationSnapshotURL))
	}
	if p.clients.Synthetic != nil {
		attempts = append(attempts, p.clients.Synthetic.PopulationAttempt(params.StartYear, params.EndYear))
	}
	return attempts
}

func (p *Pipeline) eventsAttempts(params Params) []source.Attempt {
	var attempts []source.Attempt
	if p.clients.OpenData != nil {
		attempts = append(attempts, p.clients.OpenData.EventsAttempt())
	}
	if p.clients.Static != nil && p.eventsSnapshotURL != "" {
		attempts = append(attempts, p.clients.Static.CSVAttempt("events-snapshot", p.eventsSnapshotURL))
	}
	if p.clients.Synthetic != nil {
		attempts = append(attempts, p.clients.Synthetic.EventsAttempt(params.StartYear, params.EndYear))
	}
	return attempts
}

// boundaries returns the cached boundary document, refetching after the TTL.
// A stale document is preferred over an error when the refetch fails.
func (p *Pipeline) boundaries(ctx context.Context) (*domain.FeatureCollection, error) {
	if p.clients.Geo == nil {
		return nil, fmt.Errorf("no boundary source configured")
	}

	p.geoMu.Lock()
	defer p.geoMu.Unlock()

	now := domain.Now()
	if p.geoCached != nil && now.Sub(p.geoFetched) < p.geoTTL {
		return p.geoCached, nil
	}

	fc, err := p.clients.Geo.FetchBoundaries(ctx)
	if err != nil {
		if p.geoCached != nil {
			p.logger.Warn("boundary refetch failed, keeping stale document", "error", err)
			return p.geoCached, nil
		}
		return nil, err
	}
	p.geoCached = fc
	p.geoFetched = now
	return fc, nil
}

// dropFuture applies the fresh wall-clock cutoff and counts what it removed.
func (p *Pipeline) dropFuture(records []domain.Record) []domain.Record {
	kept := domain.DropFuture(records)
	if n := len(records) - len(kept); n > 0 {
		p.metrics.RowsDropped.WithLabelValues("future_date").Add(float64(n))
		p.logger.Debug("dropped future-dated records", "count", n)
	}
	return kept
}

// scaleCounts applies the display-unit divisor to population count metrics.
// The extinction index is a ratio and never rescaled.
func scaleCounts(records []domain.Record, unit string) []domain.Record {
	if unit == "" || unit == domain.UnitPerson {
		return records
	}
	out := make([]domain.Record, len(records))
	for i, r := range records {
		if r.Metric != domain.MetricExtinctionIndex {
			r.Value = domain.ScaleUnit(r.Value, unit)
		}
		out[i] = r
	}
	return out
}

// recordGroups returns the distinct group names in first-seen order.
func recordGroups(records []domain.Record) []string {
	seen := make(map[string]struct{})
	groups := make([]string, 0)
	for _, r := range records {
		if _, ok := seen[r.Group]; ok {
			continue
		}
		seen[r.Group] = struct{}{}
		groups = append(groups, r.Group)
	}
	return groups
}
