// Command genexample writes deterministic example datasets to disk in the
// same CSV shape the static-snapshot tier serves. The output can be hosted
// anywhere and pointed at via POPULATION_SNAPSHOT_URL / EVENTS_SNAPSHOT_URL,
// or used as test fixtures.
//
// Usage:
//
//	go run ./cmd/genexample -out-dir data/example -start 2015 -end 2024
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/Minseo10803/jibang-vanish/internal/domain"
	"github.com/Minseo10803/jibang-vanish/internal/source"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	outDir := flag.String("out-dir", "data/example", "directory for the generated CSV files")
	start := flag.Int("start", 2015, "first year to generate")
	end := flag.Int("end", 2024, "last year to generate")
	seed := flag.Int64("seed", source.DefaultSyntheticSeed, "generator seed")
	flag.Parse()

	if *end < *start {
		return fmt.Errorf("end year %d precedes start year %d", *end, *start)
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	gen := source.NewSynthetic(*seed)

	population := gen.Population(*start, *end)
	if err := writeTable(filepath.Join(*outDir, "population.csv"), population); err != nil {
		return fmt.Errorf("writing population fixture: %w", err)
	}
	log.Printf("population.csv: %d rows", len(population.Rows))

	events := gen.Events(*start, *end)
	if err := writeTable(filepath.Join(*outDir, "events.csv"), events); err != nil {
		return fmt.Errorf("writing events fixture: %w", err)
	}
	log.Printf("events.csv: %d rows", len(events.Rows))

	return nil
}

// writeTable writes a raw table as UTF-8 CSV with a byte order mark, the
// exact shape the static-snapshot source expects to read back.
func writeTable(path string, t domain.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString("\ufeff"); err != nil {
		return fmt.Errorf("writing BOM: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(t.Columns); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, row := range t.Rows {
		record := make([]string, len(t.Columns))
		for i, col := range t.Columns {
			record[i] = row[col]
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("writing row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}
