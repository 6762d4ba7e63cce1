package state

import (
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "sheetmatch/internal/errors"
	"sheetmatch/internal/reconcile"
)

// DataFrame represents one loaded table with its data. Cells are nil for
// blank values.
type DataFrame struct {
	ID        string
	FileName  string
	FilePath  string
	Sheet     string
	Sheets    []string
	Headers   []string
	Rows      [][]any
	Malformed int
	LoadedAt  time.Time
}

// HasColumn reports whether the frame has a column with the given header.
func (df *DataFrame) HasColumn(name string) bool {
	return df.ColumnIndex(name) >= 0
}

// ColumnIndex returns the position of a header, or -1.
func (df *DataFrame) ColumnIndex(name string) int {
	for i, h := range df.Headers {
		if h == name {
			return i
		}
	}
	return -1
}

// MissingColumns returns the names in columns that the frame lacks.
func (df *DataFrame) MissingColumns(columns []string) []string {
	var missing []string
	for _, c := range columns {
		if !df.HasColumn(c) {
			missing = append(missing, c)
		}
	}
	return missing
}

// Records converts the rows into reconcile rows. Short rows simply lack the
// trailing columns. Every call returns fresh maps.
func (df *DataFrame) Records() []reconcile.Row {
	rows := make([]reconcile.Row, len(df.Rows))
	for i, r := range df.Rows {
		row := make(reconcile.Row, len(df.Headers))
		for j, h := range df.Headers {
			if j < len(r) {
				row[h] = r[j]
			}
		}
		rows[i] = row
	}
	return rows
}

// File builds a reconcile input from the frame. The label identifies the
// file in result tables; columns override the run's key columns when set.
func (df *DataFrame) File(label string, columns []string) reconcile.File {
	return reconcile.File{
		ID:      label,
		Rows:    df.Records(),
		Columns: append([]string(nil), columns...),
	}
}

// Label returns a display name for the frame, including the sheet when set.
func (df *DataFrame) Label() string {
	if df.Sheet != "" && len(df.Sheets) > 1 {
		return df.FileName + " [" + df.Sheet + "]"
	}
	return df.FileName
}

// Store holds the loaded data frames of the HTTP shell in upload order.
type Store struct {
	mu     sync.RWMutex
	frames map[string]*DataFrame
	order  []string
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{frames: make(map[string]*DataFrame)}
}

// Add stores a frame under a fresh ID and returns the ID.
func (s *Store) Add(df *DataFrame) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	df.ID = uuid.NewString()
	if df.LoadedAt.IsZero() {
		df.LoadedAt = time.Now()
	}
	s.frames[df.ID] = df
	s.order = append(s.order, df.ID)
	return df.ID
}

// Get retrieves a frame by ID.
func (s *Store) Get(id string) (*DataFrame, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	df, ok := s.frames[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("file", id)
	}
	return df, nil
}

// Remove deletes a frame by ID.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.frames[id]; !ok {
		return apperrors.NewNotFoundError("file", id)
	}
	delete(s.frames, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// List returns all frames in upload order.
func (s *Store) List() []*DataFrame {
	s.mu.RLock()
	defer s.mu.RUnlock()

	frames := make([]*DataFrame, 0, len(s.order))
	for _, id := range s.order {
		frames = append(frames, s.frames[id])
	}
	return frames
}

// Select returns the frames for the given IDs in the given order, or every
// frame when ids is empty.
func (s *Store) Select(ids []string) ([]*DataFrame, error) {
	if len(ids) == 0 {
		return s.List(), nil
	}
	frames := make([]*DataFrame, 0, len(ids))
	for _, id := range ids {
		df, err := s.Get(id)
		if err != nil {
			return nil, err
		}
		frames = append(frames, df)
	}
	return frames, nil
}

// Clear removes every frame.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.frames = make(map[string]*DataFrame)
	s.order = nil
}

// Labels returns unique display labels for the frames, suffixing repeats
// with their position so result columns never collide.
func Labels(frames []*DataFrame) []string {
	counts := make(map[string]int)
	for _, df := range frames {
		counts[df.Label()]++
	}

	labels := make([]string, len(frames))
	seen := make(map[string]int)
	for i, df := range frames {
		label := df.Label()
		if counts[label] > 1 {
			seen[label]++
			label = label + " #" + strconv.Itoa(seen[label])
		}
		labels[i] = label
	}
	return labels
}
