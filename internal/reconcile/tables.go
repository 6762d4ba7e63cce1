package reconcile

import "strconv"

// Column headers and cell values of the result tables.
const (
	SummaryValueColumn  = "Unique Value"
	PresenceValueColumn = "Value"
	OnlyInFileColumn    = "File"
	Yes                 = "Yes"
	No                  = "No"
)

// SummaryRow holds the per-file occurrence counts of one canonical value.
type SummaryRow struct {
	Value  string `json:"value" yaml:"value"`
	Counts []int  `json:"counts" yaml:"counts"`
}

// SummaryTable is the counts-by-file table, one row per canonical value.
type SummaryTable struct {
	Files   []string     `json:"files" yaml:"files"`
	Skipped []int        `json:"skipped" yaml:"skipped"`
	Rows    []SummaryRow `json:"rows" yaml:"rows"`
}

// Columns returns the table header: the value column, then one column per file.
func (t *SummaryTable) Columns() []string {
	return append([]string{SummaryValueColumn}, t.Files...)
}

// Records renders the table body as strings, in row order.
func (t *SummaryTable) Records() [][]string {
	records := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		rec := make([]string, 0, len(row.Counts)+1)
		rec = append(rec, row.Value)
		for _, c := range row.Counts {
			rec = append(rec, strconv.Itoa(c))
		}
		records[i] = rec
	}
	return records
}

// PresenceRow holds the per-file presence verdicts of one canonical value.
type PresenceRow struct {
	Value string     `json:"value" yaml:"value"`
	Cells []Presence `json:"cells" yaml:"cells"`
}

// PresenceMatrix is the presence-by-file table, one row per canonical value.
type PresenceMatrix struct {
	Files     []string      `json:"files" yaml:"files"`
	Threshold int           `json:"threshold" yaml:"threshold"`
	Scorer    Scorer        `json:"scorer" yaml:"scorer"`
	Rows      []PresenceRow `json:"rows" yaml:"rows"`
}

// Columns returns the matrix header: the value column, then one column per file.
func (m *PresenceMatrix) Columns() []string {
	return append([]string{PresenceValueColumn}, m.Files...)
}

// Records renders the matrix body as Yes/No strings, in row order.
func (m *PresenceMatrix) Records() [][]string {
	records := make([][]string, len(m.Rows))
	for i, row := range m.Rows {
		rec := make([]string, 0, len(row.Cells)+1)
		rec = append(rec, row.Value)
		for _, cell := range row.Cells {
			rec = append(rec, cell.String())
		}
		records[i] = rec
	}
	return records
}

// DetailRecords renders the matrix with the best match and score next to
// each verdict, e.g. "Yes (Banana, 100)".
func (m *PresenceMatrix) DetailRecords() [][]string {
	records := make([][]string, len(m.Rows))
	for i, row := range m.Rows {
		rec := make([]string, 0, len(row.Cells)+1)
		rec = append(rec, row.Value)
		for _, cell := range row.Cells {
			if cell.Match == "" {
				rec = append(rec, cell.String())
				continue
			}
			rec = append(rec, cell.String()+" ("+cell.Match+", "+strconv.Itoa(cell.Score)+")")
		}
		records[i] = rec
	}
	return records
}

// OnlyInReport lists, per file, the values that file holds verbatim and that
// no other file contains, not even approximately.
type OnlyInReport struct {
	Files  []string   `json:"files" yaml:"files"`
	Values [][]string `json:"values" yaml:"values"`
}

// NewOnlyInReport derives the one-sided differences from a summary table and
// a presence matrix built over the same run.
func NewOnlyInReport(summary *SummaryTable, presence *PresenceMatrix) *OnlyInReport {
	report := &OnlyInReport{
		Files:  append([]string(nil), summary.Files...),
		Values: make([][]string, len(summary.Files)),
	}
	for f := range report.Values {
		report.Values[f] = []string{}
	}

	for i, row := range summary.Rows {
		cells := presence.Rows[i].Cells
		for f, count := range row.Counts {
			if count == 0 || !onlyPresentIn(cells, f) {
				continue
			}
			report.Values[f] = append(report.Values[f], row.Value)
		}
	}
	return report
}

func onlyPresentIn(cells []Presence, f int) bool {
	for j, cell := range cells {
		if j != f && cell.Present {
			return false
		}
	}
	return true
}

// Columns returns the header of the (file, value) rendering.
func (r *OnlyInReport) Columns() []string {
	return []string{OnlyInFileColumn, PresenceValueColumn}
}

// Records renders the report as (file, value) pairs.
func (r *OnlyInReport) Records() [][]string {
	records := [][]string{}
	for f, values := range r.Values {
		for _, v := range values {
			records = append(records, []string{r.Files[f], v})
		}
	}
	return records
}
