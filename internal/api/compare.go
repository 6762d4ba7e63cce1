package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	gocache "github.com/patrickmn/go-cache"

	apperrors "sheetmatch/internal/errors"
	"sheetmatch/internal/export"
	"sheetmatch/internal/logging"
	"sheetmatch/internal/models"
	"sheetmatch/internal/reconcile"
	"sheetmatch/internal/state"
)

// ============================================================================
// Compare
// ============================================================================

func (h *Handler) CompareSummary(w http.ResponseWriter, r *http.Request) {
	report, ok := h.report(w, r, true)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, models.TableResponse{
		Columns: report.Summary.Columns(),
		Rows:    report.Summary.Records(),
		Skipped: report.Summary.Skipped,
		Result:  report.Summary,
	})
}

func (h *Handler) ComparePresence(w http.ResponseWriter, r *http.Request) {
	report, ok := h.report(w, r, false)
	if !ok {
		return
	}
	columns, rows, _ := report.Table(export.TablePresence)
	writeJSON(w, http.StatusOK, models.TableResponse{
		Columns: columns,
		Rows:    rows,
		Result:  report.Presence,
	})
}

func (h *Handler) CompareOnly(w http.ResponseWriter, r *http.Request) {
	report, ok := h.report(w, r, false)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, models.TableResponse{
		Columns: report.OnlyIn.Columns(),
		Rows:    report.OnlyIn.Records(),
		Result:  report.OnlyIn,
	})
}

// Export returns the comparison as an attachment. format is xlsx or csv;
// for csv, table selects summary, presence (default) or only.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	report, ok := h.report(w, r, false)
	if !ok {
		return
	}

	var buf bytes.Buffer
	filename := "comparison." + format
	switch format {
	case export.FormatXLSX:
		err = export.WriteXLSX(&buf, report)
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	default:
		table := r.URL.Query().Get("table")
		if table == "" {
			table = export.TablePresence
		}
		err = export.WriteCSV(&buf, report, table)
		filename = "comparison_" + table + ".csv"
		w.Header().Set("Content-Type", "text/csv")
	}
	if err != nil {
		w.Header().Del("Content-Type")
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// report decodes a compare request and returns the run's tables, served
// from the result cache when the same request was answered recently.
// Exact counts do not depend on fuzzy matching, so a summary-only request
// ignores threshold, scorer and details.
func (h *Handler) report(w http.ResponseWriter, r *http.Request, summaryOnly bool) (*export.Report, bool) {
	var req models.CompareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid JSON")
		return nil, false
	}
	if summaryOnly {
		req.Threshold = nil
		req.Scorer = ""
		req.Details = false
	}

	frames, err := h.Store.Select(req.FileIDs)
	if err != nil {
		h.writeError(w, r, err)
		return nil, false
	}

	key, err := cacheKey(req, frames)
	if err == nil {
		if cached, found := h.results.Get(key); found {
			return cached.(*export.Report), true
		}
	}

	report, err := h.runComparison(r, req, frames)
	if err != nil {
		h.writeError(w, r, err)
		return nil, false
	}
	if key != "" {
		h.results.Set(key, report, gocache.DefaultExpiration)
	}
	return report, true
}

func (h *Handler) runComparison(r *http.Request, req models.CompareRequest, frames []*state.DataFrame) (*export.Report, error) {
	threshold := h.Config.Match.Threshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}
	scorerName := req.Scorer
	if scorerName == "" {
		scorerName = h.Config.Match.Scorer
	}
	scorer, err := reconcile.ParseScorer(scorerName)
	if err != nil {
		return nil, err
	}
	columns := req.Columns
	if len(columns) == 0 {
		columns = h.Config.Match.Columns
	}

	labels := state.Labels(frames)
	files := make([]reconcile.File, len(frames))
	for i, df := range frames {
		keyColumns := columns
		override := req.FileColumns[df.ID]
		if len(override) > 0 {
			keyColumns = override
		}
		if missing := df.MissingColumns(keyColumns); len(missing) > 0 {
			return nil, apperrors.NewConfigError("columns", missing,
				fmt.Sprintf("%s has no column %s", labels[i], strings.Join(missing, ", ")))
		}
		files[i] = df.File(labels[i], override)
	}

	logger := *logging.FromContext(r.Context())
	run, err := reconcile.NewRun(files, columns, threshold,
		reconcile.WithCaseInsensitive(req.CaseInsensitive),
		reconcile.WithScorer(scorer),
		reconcile.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	logger.Info().
		Int("files", len(files)).
		Strs("columns", columns).
		Int("threshold", threshold).
		Int("values", len(run.Universe())).
		Msg("Comparison complete")

	return export.NewReport(run, req.Details), nil
}

// cacheKey fingerprints a request over the resolved frames. Frames are
// immutable once stored, so their IDs identify their content.
func cacheKey(req models.CompareRequest, frames []*state.DataFrame) (string, error) {
	ids := make([]string, len(frames))
	for i, df := range frames {
		ids[i] = df.ID
	}
	req.FileIDs = nil
	body, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	return strings.Join(ids, ",") + "|" + string(body), nil
}
