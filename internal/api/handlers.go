// Package api exposes the comparison engine over HTTP using chi.
package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"sheetmatch/internal/analysis"
	"sheetmatch/internal/config"
	apperrors "sheetmatch/internal/errors"
	"sheetmatch/internal/logging"
	"sheetmatch/internal/models"
	"sheetmatch/internal/source"
	"sheetmatch/internal/state"
)

const defaultPreviewRows = 20

type Handler struct {
	Store    *state.Store
	Analyzer *analysis.Analyzer
	Config   config.Config

	// NewDataSource creates the database source used by /api/db/connect
	NewDataSource func() source.DataSource

	results *gocache.Cache

	dbMu      sync.Mutex
	currentDB source.DataSource // Active DB connection
}

func NewHandler(store *state.Store, cfg config.Config) *Handler {
	ttl := cfg.Server.CacheTTL
	if ttl <= 0 {
		ttl = config.DefaultCacheTTL
	}
	return &Handler{
		Store:    store,
		Analyzer: analysis.NewAnalyzer(),
		Config:   cfg,
		NewDataSource: func() source.DataSource {
			return &source.PostgresDataSource{}
		},
		results: gocache.New(ttl, 2*ttl),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.HealthCheck)

	r.Post("/upload", h.Upload)
	r.Route("/files", func(r chi.Router) {
		r.Get("/", h.ListFiles)
		r.Get("/{id}", h.GetFile)
		r.Delete("/{id}", h.DeleteFile)
		r.Get("/{id}/preview", h.GetPreview)
	})
	r.Get("/columns", h.GetColumns)

	r.Route("/compare", func(r chi.Router) {
		r.Post("/summary", h.CompareSummary)
		r.Post("/presence", h.ComparePresence)
		r.Post("/only", h.CompareOnly)
	})
	r.Post("/export", h.Export)

	// DB Routes
	r.Post("/api/db/connect", h.ConnectDB)
	r.Get("/api/db/tables", h.ListTables)
	r.Post("/api/db/load", h.LoadTable)
}

// ============================================================================
// Health
// ============================================================================

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("OK"))
}

// ============================================================================
// Upload / Files
// ============================================================================

func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	maxBytes := h.Config.Server.MaxUploadBytes
	if maxBytes <= 0 {
		maxBytes = config.DefaultMaxUploadBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		writeJSONError(w, http.StatusBadRequest, "File too large or malformed upload")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	name := filepath.Base(header.Filename)
	if !source.Supported(name) {
		h.writeError(w, r, apperrors.NewFormatError(name, filepath.Ext(name)))
		return
	}

	uploadDir := h.Config.Server.UploadDir
	if uploadDir == "" {
		uploadDir = config.DefaultUploadDir
	}
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		h.writeError(w, r, fmt.Errorf("creating upload directory: %w", err))
		return
	}

	filePath := filepath.Join(uploadDir, uuid.NewString()+"_"+name)
	if err := saveUpload(filePath, file); err != nil {
		h.writeError(w, r, err)
		return
	}

	df, err := source.Load(filePath, r.FormValue("sheet"))
	if err != nil {
		os.Remove(filePath)
		h.writeError(w, r, err)
		return
	}
	df.FileName = name

	id := h.Store.Add(df)
	logging.FromContext(r.Context()).Info().
		Str("file_id", id).
		Str("filename", name).
		Int("rows", len(df.Rows)).
		Int("malformed", df.Malformed).
		Msg("File uploaded")

	writeJSON(w, http.StatusOK, models.UploadResponse{
		ID:          id,
		Message:     fmt.Sprintf("File '%s' uploaded successfully", name),
		Filename:    name,
		Sheet:       df.Sheet,
		Sheets:      df.Sheets,
		Rows:        len(df.Rows),
		Columns:     len(df.Headers),
		ColumnNames: df.Headers,
		Malformed:   df.Malformed,
	})
}

func saveUpload(path string, src io.Reader) (err error) {
	dst, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("saving upload: %w", err)
	}
	defer func() {
		if closeErr := dst.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("saving upload: %w", err)
	}
	return nil
}

func (h *Handler) ListFiles(w http.ResponseWriter, r *http.Request) {
	frames := h.Store.List()
	labels := state.Labels(frames)

	resp := models.FilesResponse{Files: make([]models.FileStatus, len(frames))}
	for i, df := range frames {
		resp.Files[i] = fileStatus(df, labels[i])
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) GetFile(w http.ResponseWriter, r *http.Request) {
	df, err := h.Store.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, fileStatus(df, df.Label()))
}

func (h *Handler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	df, err := h.Store.Get(id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.Store.Remove(id); err != nil {
		h.writeError(w, r, err)
		return
	}
	if df.FilePath != "" {
		os.Remove(df.FilePath)
	}
	writeJSON(w, http.StatusOK, models.StatusResponse{Status: "deleted"})
}

func fileStatus(df *state.DataFrame, label string) models.FileStatus {
	return models.FileStatus{
		ID:          df.ID,
		Filename:    df.FileName,
		Label:       label,
		Sheet:       df.Sheet,
		Sheets:      df.Sheets,
		Rows:        len(df.Rows),
		Columns:     len(df.Headers),
		ColumnNames: df.Headers,
		LoadedAt:    df.LoadedAt,
	}
}

func (h *Handler) GetPreview(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	df, err := h.Store.Get(id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	limit := getIntParam(r, "limit", defaultPreviewRows)
	if limit < 0 {
		limit = 0
	}
	if limit > len(df.Rows) {
		limit = len(df.Rows)
	}

	records := df.Records()[:limit]
	rows := make([]map[string]any, limit)
	for i, rec := range records {
		rows[i] = rec
	}

	writeJSON(w, http.StatusOK, models.PreviewResponse{
		ID:      id,
		Columns: df.Headers,
		Rows:    rows,
		Total:   len(df.Rows),
	})
}

// GetColumns returns the columns shared by every loaded file with the type
// inferred in each.
func (h *Handler) GetColumns(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"columns": h.Analyzer.CommonColumns(h.Store.List()),
	})
}

// ============================================================================
// Helpers
// ============================================================================

func getIntParam(r *http.Request, name string, defaultVal int) int {
	valStr := r.URL.Query().Get(name)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		return defaultVal
	}
	return val
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, models.ErrorResponse{Error: msg})
}

// statusFor maps an error category to an HTTP status.
func statusFor(err error) int {
	switch {
	case apperrors.Is(err, apperrors.ErrInvalidConfiguration), apperrors.Is(err, apperrors.ErrUnsupportedFormat):
		return http.StatusBadRequest
	case apperrors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound
	default:
		var parseErr *apperrors.ParseError
		if apperrors.As(err, &parseErr) {
			return http.StatusBadRequest
		}
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	event := logging.FromContext(r.Context()).Warn()
	if status >= http.StatusInternalServerError {
		event = logging.FromContext(r.Context()).Error()
	}
	event.Err(err).Int("status", status).Str("path", r.URL.Path).Msg("Request failed")
	writeJSONError(w, status, err.Error())
}
