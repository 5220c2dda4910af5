package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/FrenchMajesty/dns-sequence-classifier/knn"
	"github.com/FrenchMajesty/dns-sequence-classifier/label"
)

// Row describes one graded classification
type Row struct {
	K           int         `json:"k"`
	QueryID     string      `json:"id"`
	Domain      string      `json:"domain"`
	Expected    label.Label `json:"label"`
	Verdict     string      `json:"classification"`
	MinDistance uint64      `json:"min_dist"`
	MaxDistance uint64      `json:"max_dist"`
	Outcome     Outcome     `json:"outcome"`
	Quality     Quality     `json:"quality"`
	Reason      string      `json:"reason,omitempty"`
}

// NewRow grades r against the expected label
func NewRow(queryID, domain string, r knn.Result, expected label.Label) Row {
	row := Row{
		K:        r.K,
		QueryID:  queryID,
		Domain:   domain,
		Expected: expected,
		Verdict:  r.Verdict.String(),
		Outcome:  Judge(r.Verdict, expected),
		Quality:  Grade(r.Options, expected),
	}
	for i, n := range r.Neighbors {
		if i == 0 || n.Distance < row.MinDistance {
			row.MinDistance = n.Distance
		}
		if n.Distance > row.MaxDistance {
			row.MaxDistance = n.Distance
		}
	}
	return row
}

var header = []string{"k", "id", "domain", "label", "classification", "min_dist", "max_dist", "outcome", "quality", "reason"}

// Writer writes rows as CSV with a header line
type Writer struct {
	w           *csv.Writer
	wroteHeader bool
}

// NewWriter creates a Writer on w
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: csv.NewWriter(w)}
}

// Write writes one row, preceded by the header on first use
func (w *Writer) Write(row Row) error {
	if !w.wroteHeader {
		if err := w.w.Write(header); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
		w.wroteHeader = true
	}

	record := []string{
		strconv.Itoa(row.K),
		row.QueryID,
		row.Domain,
		row.Expected.String(),
		row.Verdict,
		strconv.FormatUint(row.MinDistance, 10),
		strconv.FormatUint(row.MaxDistance, 10),
		row.Outcome.String(),
		row.Quality.String(),
		row.Reason,
	}
	if err := w.w.Write(record); err != nil {
		return fmt.Errorf("failed to write row for %s: %w", row.QueryID, err)
	}
	return nil
}

// Flush writes buffered rows to the underlying writer
func (w *Writer) Flush() error {
	w.w.Flush()
	return w.w.Error()
}
