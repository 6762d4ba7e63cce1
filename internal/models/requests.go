package models

// CompareRequest is the body of the compare and export endpoints
type CompareRequest struct {
	// FileIDs selects and orders the inputs; empty means every loaded file
	FileIDs []string `json:"file_ids,omitempty"`
	Columns []string `json:"columns"`
	// FileColumns overrides the key columns of individual files, by file ID
	FileColumns     map[string][]string `json:"file_columns,omitempty"`
	CaseInsensitive bool                `json:"case_insensitive"`
	// Threshold defaults to the server's configured threshold when omitted
	Threshold *int   `json:"threshold,omitempty"`
	Scorer    string `json:"scorer,omitempty"`
	Details   bool   `json:"details"`
}

// LoadTableRequest is the body of POST /api/db/load
type LoadTableRequest struct {
	Table string `json:"table"`
	Limit int    `json:"limit"`
}
