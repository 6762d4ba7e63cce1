// Package reconcile implements the cross-file fuzzy reconciliation engine:
// keys are derived per row, counted per file, unioned into a sorted universe
// of canonical values, and every value is then resolved against every file's
// own key set with a token-sort similarity score.
//
// A Run is a pure function of its files, key columns and options. It never
// mutates its inputs and holds no state shared with other runs, so
// concurrent runs are safe as long as each gets its own input rows.
package reconcile

import (
	"github.com/rs/zerolog"

	apperrors "sheetmatch/internal/errors"
)

// DefaultThreshold is the similarity threshold used when none is given.
const DefaultThreshold = 80

// File is one input table: an identifier, its rows, and optionally its own
// key columns when they are named differently from the run's columns.
type File struct {
	ID      string
	Rows    []Row
	Columns []string
}

// Option configures a Run.
type Option func(*options)

type options struct {
	caseInsensitive bool
	scorer          Scorer
	logger          zerolog.Logger
}

// WithCaseInsensitive folds keys before indexing so values differing only
// in case collapse into one canonical value.
func WithCaseInsensitive(enabled bool) Option {
	return func(o *options) {
		o.caseInsensitive = enabled
	}
}

// WithScorer selects the similarity scorer.
func WithScorer(s Scorer) Option {
	return func(o *options) {
		o.scorer = s
	}
}

// WithLogger attaches a logger. Runs log nothing by default.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// Run is one comparison over a fixed set of files, key columns and threshold.
// All derived state is built by NewRun; the result tables are fresh values
// on every call.
type Run struct {
	files     []string
	columns   []string
	threshold int
	opts      options
	indexes   []*FrequencyIndex
	universe  []string
}

// NewRun validates the configuration and indexes every file. It fails with
// an error matching ErrInvalidConfiguration before doing any work when the
// column list is empty, fewer than two files are given, the threshold is
// outside [0,100], or a per-file column override has the wrong length.
func NewRun(files []File, columns []string, threshold int, opts ...Option) (*Run, error) {
	o := options{scorer: DefaultScorer, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	if err := validate(files, columns, threshold, o); err != nil {
		return nil, err
	}
	o.scorer, _ = ParseScorer(string(o.scorer))

	r := &Run{
		files:     make([]string, len(files)),
		columns:   append([]string(nil), columns...),
		threshold: threshold,
		opts:      o,
		indexes:   make([]*FrequencyIndex, len(files)),
	}

	for i, f := range files {
		cols := columns
		if len(f.Columns) > 0 {
			cols = f.Columns
		}
		kb, err := NewKeyBuilder(cols, o.caseInsensitive)
		if err != nil {
			return nil, err
		}

		ix := BuildIndex(f.ID, f.Rows, kb)
		r.files[i] = f.ID
		r.indexes[i] = ix

		o.logger.Debug().
			Str("file", f.ID).
			Int("rows", ix.Rows).
			Int("skipped", ix.Skipped).
			Int("distinct", ix.Len()).
			Msg("Indexed file")
	}

	r.universe = BuildUniverse(r.indexes)
	return r, nil
}

func validate(files []File, columns []string, threshold int, o options) error {
	if len(columns) == 0 {
		return apperrors.NewConfigError("columns", columns, "at least one key column is required")
	}
	if len(files) < 2 {
		return apperrors.NewConfigError("files", len(files), "at least two files are required")
	}
	if threshold < 0 || threshold > 100 {
		return apperrors.NewConfigError("threshold", threshold, "must be between 0 and 100")
	}
	if _, err := ParseScorer(string(o.scorer)); err != nil {
		return err
	}

	seen := make(map[string]bool, len(files))
	for _, f := range files {
		if f.ID == "" {
			return apperrors.NewConfigError("files", f.ID, "file identifier must not be empty")
		}
		if seen[f.ID] {
			return apperrors.NewConfigError("files", f.ID, "duplicate file identifier "+f.ID)
		}
		seen[f.ID] = true

		if len(f.Columns) > 0 && len(f.Columns) != len(columns) {
			return apperrors.NewConfigError("columns", f.Columns,
				"columns for "+f.ID+" must list as many columns as the comparison")
		}
	}
	return nil
}

// Files returns the file identifiers in input order.
func (r *Run) Files() []string {
	return append([]string(nil), r.files...)
}

// Threshold returns the similarity threshold of the run.
func (r *Run) Threshold() int {
	return r.threshold
}

// Universe returns the canonical values in ascending order.
func (r *Run) Universe() []string {
	return append([]string(nil), r.universe...)
}

// Index returns the frequency index of the i-th file.
func (r *Run) Index(i int) *FrequencyIndex {
	return r.indexes[i]
}

// Skipped returns the number of rows dropped per file.
func (r *Run) Skipped() []int {
	skipped := make([]int, len(r.indexes))
	for i, ix := range r.indexes {
		skipped[i] = ix.Skipped
	}
	return skipped
}

// Summary assembles the counts-by-file table.
func (r *Run) Summary() *SummaryTable {
	t := &SummaryTable{
		Files:   r.Files(),
		Skipped: r.Skipped(),
		Rows:    make([]SummaryRow, len(r.universe)),
	}
	for i, v := range r.universe {
		counts := make([]int, len(r.indexes))
		for f, ix := range r.indexes {
			counts[f] = ix.Count(v)
		}
		t.Rows[i] = SummaryRow{Value: v, Counts: counts}
	}
	return t
}

// Presence resolves every canonical value against every file and assembles
// the presence-by-file matrix.
func (r *Run) Presence() *PresenceMatrix {
	resolver := NewResolver(r.opts.scorer, r.threshold)

	m := &PresenceMatrix{
		Files:     r.Files(),
		Threshold: r.threshold,
		Scorer:    r.opts.scorer,
		Rows:      make([]PresenceRow, len(r.universe)),
	}
	for i, v := range r.universe {
		cells := make([]Presence, len(r.indexes))
		for f, ix := range r.indexes {
			cells[f] = resolver.Resolve(v, ix.Keys)
		}
		m.Rows[i] = PresenceRow{Value: v, Cells: cells}
	}

	r.opts.logger.Debug().
		Int("values", len(r.universe)).
		Int("files", len(r.indexes)).
		Int("threshold", r.threshold).
		Msg("Resolved presence matrix")
	return m
}

// OnlyIn reports, per file, the values no other file contains.
func (r *Run) OnlyIn() *OnlyInReport {
	return NewOnlyInReport(r.Summary(), r.Presence())
}

// BuildSummary builds the counts-by-file table for files keyed on columns.
func BuildSummary(files []File, columns []string, opts ...Option) (*SummaryTable, error) {
	r, err := NewRun(files, columns, DefaultThreshold, opts...)
	if err != nil {
		return nil, err
	}
	return r.Summary(), nil
}

// BuildPresenceMatrix builds the presence-by-file matrix for files keyed on
// columns at the given similarity threshold.
func BuildPresenceMatrix(files []File, columns []string, threshold int, opts ...Option) (*PresenceMatrix, error) {
	r, err := NewRun(files, columns, threshold, opts...)
	if err != nil {
		return nil, err
	}
	return r.Presence(), nil
}
