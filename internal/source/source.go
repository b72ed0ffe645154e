// Package source implements the fallback chain that acquires raw tabular
// data: official APIs first, then a static snapshot, then a synthetic
// generator that never fails. No attempt's error propagates past Resolve;
// every failure is logged, counted, and treated as a fallthrough signal.
package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Minseo10803/jibang-vanish/internal/domain"
	"github.com/Minseo10803/jibang-vanish/internal/observability"
)

// FetchFunc produces a raw table or fails. Failures include network errors,
// non-success status codes, and malformed payloads; the caller treats them
// all identically.
type FetchFunc func(ctx context.Context) (domain.Table, error)

// Attempt is one tier of a resolution chain: a named source with a
// provenance label and a fetch capability. Attempts are plain values so
// tests can inject fakes without touching the network.
type Attempt struct {
	Name       string
	Provenance domain.Provenance
	Fetch      FetchFunc
}

// CheckFunc validates that a fetched table is schema-plausible for the
// dataset being resolved. A nil CheckFunc accepts any non-empty table.
type CheckFunc func(domain.Table) error

// Result is the outcome of a resolution chain: the winning table, which tier
// produced it, and when. Chains terminated by a synthetic attempt always
// produce a Result.
type Result struct {
	Table      domain.Table
	Provenance domain.Provenance
	FetchedAt  time.Time
}

// ErrExhausted is returned when every attempt in a chain fails. It cannot
// occur in a chain whose terminal attempt is a synthetic generator.
var ErrExhausted = errors.New("all source attempts failed")

// Resolver runs resolution chains with shared logging, metrics, and an
// optional process-wide TTL cache.
type Resolver struct {
	logger  *slog.Logger
	metrics *observability.Metrics
	cache   *Cache
}

// NewResolver creates a Resolver. cache may be nil to disable caching.
func NewResolver(logger *slog.Logger, metrics *observability.Metrics, cache *Cache) *Resolver {
	return &Resolver{logger: logger, metrics: metrics, cache: cache}
}

// Resolve iterates attempts in order and returns the first non-empty,
// plausible table tagged with that attempt's provenance. key identifies the
// (dataset, parameter set) pair for caching; an empty key bypasses the cache.
func (r *Resolver) Resolve(ctx context.Context, key string, check CheckFunc, attempts ...Attempt) (Result, error) {
	if r.cache != nil && key != "" {
		if cached, ok := r.cache.Get(key); ok {
			return cached, nil
		}
	}

	start := time.Now()
	for _, a := range attempts {
		res, ok := r.try(ctx, a, check)
		if !ok {
			continue
		}
		r.metrics.ResolveDuration.WithLabelValues(datasetLabel(key)).Observe(time.Since(start).Seconds())
		if r.cache != nil && key != "" {
			r.cache.Put(key, res)
		}
		return res, nil
	}

	return Result{}, fmt.Errorf("%w: %d attempts", ErrExhausted, len(attempts))
}

// datasetLabel strips the parameter suffix from a cache key so the duration
// histogram stays one series per dataset, not one per year range.
func datasetLabel(key string) string {
	if i := strings.Index(key, "|"); i >= 0 {
		return key[:i]
	}
	return key
}

// try runs a single attempt, classifying its outcome for metrics. The bool
// reports whether the attempt's table won the chain.
func (r *Resolver) try(ctx context.Context, a Attempt, check CheckFunc) (Result, bool) {
	if a.Fetch == nil {
		r.metrics.SourceAttempts.WithLabelValues(a.Name, "skipped").Inc()
		return Result{}, false
	}

	table, err := a.Fetch(ctx)
	switch {
	case err != nil:
		r.logger.Warn("source attempt failed, falling through",
			"source", a.Name, "provenance", a.Provenance, "error", err)
		r.metrics.SourceAttempts.WithLabelValues(a.Name, "error").Inc()
		return Result{}, false
	case table.Empty():
		r.logger.Warn("source returned empty payload, falling through", "source", a.Name)
		r.metrics.SourceAttempts.WithLabelValues(a.Name, "empty").Inc()
		return Result{}, false
	}

	if check != nil {
		if err := check(table); err != nil {
			r.logger.Warn("source payload failed shape check, falling through",
				"source", a.Name, "error", err)
			r.metrics.SourceAttempts.WithLabelValues(a.Name, "implausible").Inc()
			return Result{}, false
		}
	}

	r.metrics.SourceAttempts.WithLabelValues(a.Name, "success").Inc()
	r.logger.Info("source resolved", "source", a.Name, "provenance", a.Provenance, "rows", len(table.Rows))
	return Result{Table: table, Provenance: a.Provenance, FetchedAt: domain.Now()}, true
}

// RequireColumns returns a CheckFunc that fails unless the table carries a
// column matching each keyword group (substring match on any column name).
// It mirrors the schema normalizer's keyword rules so a payload that cannot
// be normalized is rejected at resolution time.
func RequireColumns(keywordGroups ...[]string) CheckFunc {
	return func(t domain.Table) error {
		for _, group := range keywordGroups {
			if !hasColumnMatching(t, group) {
				return fmt.Errorf("no column matching any of %v", group)
			}
		}
		return nil
	}
}

func hasColumnMatching(t domain.Table, keywords []string) bool {
	for _, col := range t.Columns {
		for _, kw := range keywords {
			if containsFold(col, kw) {
				return true
			}
		}
	}
	return false
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
