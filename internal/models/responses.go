package models

import "time"

// UploadResponse is returned after successful file upload
type UploadResponse struct {
	ID          string   `json:"id"`
	Message     string   `json:"message"`
	Filename    string   `json:"filename"`
	Sheet       string   `json:"sheet,omitempty"`
	Sheets      []string `json:"sheets,omitempty"`
	Rows        int      `json:"rows"`
	Columns     int      `json:"columns"`
	ColumnNames []string `json:"column_names"`
	Malformed   int      `json:"malformed_rows,omitempty"`
}

// FileStatus represents status of a loaded file
type FileStatus struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	Label       string    `json:"label"`
	Sheet       string    `json:"sheet,omitempty"`
	Sheets      []string  `json:"sheets,omitempty"`
	Rows        int       `json:"rows"`
	Columns     int       `json:"columns"`
	ColumnNames []string  `json:"column_names"`
	LoadedAt    time.Time `json:"loaded_at"`
}

// FilesResponse is returned by GET /files
type FilesResponse struct {
	Files []FileStatus `json:"files"`
}

// PreviewResponse holds the first rows of a loaded file
type PreviewResponse struct {
	ID      string           `json:"id"`
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
	Total   int              `json:"total"`
}

// TableResponse is returned by the compare endpoints. Columns and Rows are
// the rendered table; Result carries the structured form.
type TableResponse struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
	Skipped []int      `json:"skipped,omitempty"`
	Result  any        `json:"result"`
}

// StatusResponse is a generic acknowledgement
type StatusResponse struct {
	Status string `json:"status"`
}

// TablesResponse lists database tables
type TablesResponse struct {
	Tables []string `json:"tables"`
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
}
