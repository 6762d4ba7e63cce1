package api

import (
	"encoding/json"
	"net/http"

	"sheetmatch/internal/logging"
	"sheetmatch/internal/models"
	"sheetmatch/internal/source"
)

// ============================================================================
// Database
// ============================================================================

const defaultTableLimit = 100000

// ConnectDB establishes a database connection. Fields missing from the
// body fall back to the configured database settings.
func (h *Handler) ConnectDB(w http.ResponseWriter, r *http.Request) {
	cfg := h.Config.Database
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	ds := h.NewDataSource()
	if err := ds.Connect(r.Context(), cfg); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.dbMu.Lock()
	// Close previous if exists
	if h.currentDB != nil {
		h.currentDB.Close()
	}
	h.currentDB = ds
	h.dbMu.Unlock()

	logging.FromContext(r.Context()).Info().
		Str("host", cfg.Host).
		Str("dbname", cfg.DBName).
		Msg("Database connected")
	writeJSON(w, http.StatusOK, models.StatusResponse{Status: "connected"})
}

func (h *Handler) db() source.DataSource {
	h.dbMu.Lock()
	defer h.dbMu.Unlock()
	return h.currentDB
}

// ListTables returns tables from connected DB
func (h *Handler) ListTables(w http.ResponseWriter, r *http.Request) {
	db := h.db()
	if db == nil {
		writeJSONError(w, http.StatusBadRequest, "No database connection")
		return
	}

	tables, err := db.ListTables(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if tables == nil {
		tables = []string{}
	}
	writeJSON(w, http.StatusOK, models.TablesResponse{Tables: tables})
}

// LoadTable reads a table and stores it as another input file.
func (h *Handler) LoadTable(w http.ResponseWriter, r *http.Request) {
	db := h.db()
	if db == nil {
		writeJSONError(w, http.StatusBadRequest, "No database connection")
		return
	}

	var req models.LoadTableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Table == "" {
		writeJSONError(w, http.StatusBadRequest, "table is required")
		return
	}
	limit := req.Limit
	if limit <= 0 {
		limit = defaultTableLimit
	}

	df, err := db.LoadTable(r.Context(), req.Table, limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	id := h.Store.Add(df)
	writeJSON(w, http.StatusOK, models.UploadResponse{
		ID:          id,
		Message:     "Table '" + req.Table + "' loaded successfully",
		Filename:    df.FileName,
		Rows:        len(df.Rows),
		Columns:     len(df.Headers),
		ColumnNames: df.Headers,
	})
}

// Close releases the active database connection.
func (h *Handler) Close() error {
	h.dbMu.Lock()
	defer h.dbMu.Unlock()
	if h.currentDB == nil {
		return nil
	}
	err := h.currentDB.Close()
	h.currentDB = nil
	return err
}
