// Package domain models Korean regional population statistics and the
// population-extinction index derived from them.
//
// # Data Sources
//
// Population component counts (young-female 20-39 and elderly 65+) originate
// from the KOSIS OpenAPI (Statistics Korea), table DT_1B040A3, queried yearly
// per sido (first-level administrative division). When KOSIS is unreachable or
// no API key is configured, the SGIS statistical-geography service is tried,
// then a static CSV snapshot, and finally a seeded synthetic generator. The
// provenance label on every dataset records which tier produced it.
//
// # Data Conventions
//
// Region names:
//
//	Upstream sources disagree on naming: full official names ("서울특별시"),
//	shorthand ("서울"), and pre-rename names for re-designated divisions
//	("강원도" for today's "강원특별자치도"). CanonicalRegion maps all variants to
//	the seventeen canonical sido names via an ordered alias table: exact
//	match first, then a whitespace-insensitive substring match. Unmatched
//	input passes through trimmed, so normalization is best-effort.
//
// Dates:
//
//	Yearly statistics carry only a year number. A year is materialized as
//	January 1st, 00:00 KST. Every timestamp in the system lives in KST;
//	timestamps annotated with another zone are converted before comparison,
//	never compared cross-zone.
//
// Extinction index:
//
//	young-female population / elderly population, optionally scaled. An index
//	below 0.5 is the conventional "at risk of extinction" threshold. Zero or
//	non-finite denominators make the index undefined; undefined values are
//	dropped before aggregation rather than coerced to zero.
//
// # Canonical Schema
//
// Every source, official or synthetic, is normalized into the long-format
// Record shape (date, group, value, metric). No two records may share a
// (date, group, metric) key; Aggregate collapses duplicates by summation.
package domain
