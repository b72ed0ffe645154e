package pipeline

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/Minseo10803/jibang-vanish/internal/domain"
	"github.com/Minseo10803/jibang-vanish/internal/source"
)

// csvDateLayout is the on-disk date format. Dates are written in KST so a
// re-imported file lands on the same instants it was exported from.
const csvDateLayout = "2006-01-02"

// ExportCSV writes records as UTF-8 CSV with a byte order mark so Korean
// region names survive a double-click into Excel. The metric column is
// omitted entirely when no record carries one.
func ExportCSV(w io.Writer, records []domain.Record) error {
	if _, err := io.WriteString(w, "\ufeff"); err != nil {
		return fmt.Errorf("writing BOM: %w", err)
	}

	withMetric := false
	for _, r := range records {
		if r.Metric != "" {
			withMetric = true
			break
		}
	}

	header := []string{"date", "group", "value"}
	if withMetric {
		header = append(header, "metric")
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, r := range records {
		row := []string{
			r.Date.In(domain.KST).Format(csvDateLayout),
			r.Group,
			strconv.FormatFloat(r.Value, 'f', -1, 64),
		}
		if withMetric {
			row = append(row, r.Metric)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ImportCSV reads a canonical CSV export back into records. It reuses the
// raw-table reader, so BOMs and ragged rows are tolerated the same way
// upstream snapshots are.
func ImportCSV(r io.Reader) ([]domain.Record, error) {
	table, err := source.ReadCSVTable(r)
	if err != nil {
		return nil, err
	}

	records := make([]domain.Record, 0, len(table.Rows))
	for i, row := range table.Rows {
		date, err := parseCSVDate(row["date"])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		value, ok := parseNumber(row["value"])
		if !ok {
			return nil, fmt.Errorf("row %d: unparsable value %q", i+1, row["value"])
		}
		records = append(records, domain.Record{
			Date:   date,
			Group:  row["group"],
			Value:  value,
			Metric: row["metric"],
		})
	}
	return records, nil
}

// parseCSVDate accepts the export layout and, for hand-edited files, a bare
// year.
func parseCSVDate(s string) (time.Time, error) {
	if t, err := time.ParseInLocation(csvDateLayout, s, domain.KST); err == nil {
		return t, nil
	}
	if year, ok := parseYear(s); ok && len(s) == 4 {
		return domain.YearDate(year), nil
	}
	return time.Time{}, fmt.Errorf("unparsable date %q", s)
}
