package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"sheetmatch/internal/config"
	apperrors "sheetmatch/internal/errors"
	"sheetmatch/internal/export"
	"sheetmatch/internal/output"
	"sheetmatch/internal/reconcile"
	"sheetmatch/internal/source"
	"sheetmatch/internal/state"
)

// Views selectable with --view
const (
	viewSummary  = "summary"
	viewPresence = "presence"
	viewOnly     = "only"
	viewAll      = "all"
)

type compareOptions struct {
	fileColumns []string
	view        string
	output      string
	export      string
	details     bool
}

// compareResult is the JSON/YAML rendering of a comparison.
type compareResult struct {
	Summary  *reconcile.SummaryTable   `json:"summary,omitempty" yaml:"summary,omitempty"`
	Presence *reconcile.PresenceMatrix `json:"presence,omitempty" yaml:"presence,omitempty"`
	OnlyIn   *reconcile.OnlyInReport   `json:"only_in,omitempty" yaml:"only_in,omitempty"`
}

func newCompareCmd(a *app) *cobra.Command {
	opts := &compareOptions{}

	cmd := &cobra.Command{
		Use:   "compare FILE[:SHEET] FILE[:SHEET]...",
		Short: "Compare spreadsheets on key columns",
		Long: `Compare builds a key from the selected columns of every row, counts each
distinct key per file, and decides for every key whether each file contains
it, exactly or within the similarity threshold.

Workbook arguments may name a sheet after a colon; the first sheet is used
otherwise.

Example:
  sheetmatch compare a.csv b.xlsx:Customers --columns "First Name,Last Name"
  sheetmatch compare a.csv b.csv --columns sku --threshold 90 --view all -o json
  sheetmatch compare a.csv b.csv --columns name --file-columns 2=full_name --export out.xlsx`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runCompare(cmd, args, opts)
		},
	}

	d := config.Default()
	flags := cmd.Flags()
	flags.StringSlice("columns", nil, "key columns, in order")
	flags.StringArrayVar(&opts.fileColumns, "file-columns", nil, "per-file key columns as N=col1,col2 (N is the 1-based file position)")
	flags.Int("threshold", d.Match.Threshold, "similarity threshold 0-100")
	flags.Bool("ignore-case", d.Match.CaseInsensitive, "fold case before comparing keys")
	flags.String("scorer", d.Match.Scorer, "similarity scorer (levenshtein, indel)")
	flags.StringVar(&opts.view, "view", viewAll, "tables to print (summary, presence, only, all)")
	flags.StringVarP(&opts.output, "output", "o", "", "output format (table, json, yaml; default: table on terminals, json otherwise)")
	flags.StringVar(&opts.export, "export", "", "also write results to an .xlsx or .csv file")
	flags.BoolVar(&opts.details, "details", false, "show best match and score in presence cells")

	// Bind flags to viper
	_ = a.v.BindPFlag("match.columns", flags.Lookup("columns"))
	_ = a.v.BindPFlag("match.threshold", flags.Lookup("threshold"))
	_ = a.v.BindPFlag("match.case_insensitive", flags.Lookup("ignore-case"))
	_ = a.v.BindPFlag("match.scorer", flags.Lookup("scorer"))

	return cmd
}

func (a *app) runCompare(cmd *cobra.Command, args []string, opts *compareOptions) error {
	format, err := output.ParseFormat(opts.output)
	if err != nil {
		return err
	}
	format = output.DetectFormat(string(format))

	switch opts.view {
	case viewSummary, viewPresence, viewOnly, viewAll:
	default:
		return apperrors.NewConfigError("view", opts.view, "must be one of: summary, presence, only, all")
	}

	overrides, err := parseFileColumns(opts.fileColumns, len(args))
	if err != nil {
		return err
	}

	frames := make([]*state.DataFrame, len(args))
	for i, arg := range args {
		path, sheet := source.SplitSheet(arg)
		df, err := source.Load(path, sheet)
		if err != nil {
			return fmt.Errorf("loading %s: %w", arg, err)
		}
		if df.Malformed > 0 {
			a.logger.Warn().Str("file", path).Int("rows", df.Malformed).Msg("Skipped malformed rows")
		}
		frames[i] = df
	}

	match := a.cfg.Match
	labels := state.Labels(frames)
	files := make([]reconcile.File, len(frames))
	for i, df := range frames {
		keyColumns := match.Columns
		if len(overrides[i]) > 0 {
			keyColumns = overrides[i]
		}
		if missing := df.MissingColumns(keyColumns); len(missing) > 0 {
			return apperrors.NewConfigError("columns", missing,
				fmt.Sprintf("%s has no column %s", labels[i], strings.Join(missing, ", ")))
		}
		files[i] = df.File(labels[i], overrides[i])
	}

	scorer, err := reconcile.ParseScorer(match.Scorer)
	if err != nil {
		return err
	}

	run, err := reconcile.NewRun(files, match.Columns, match.Threshold,
		reconcile.WithCaseInsensitive(match.CaseInsensitive),
		reconcile.WithScorer(scorer),
		reconcile.WithLogger(a.logger),
	)
	if err != nil {
		return err
	}
	a.logger.Info().
		Int("files", len(files)).
		Strs("columns", match.Columns).
		Int("threshold", match.Threshold).
		Int("values", len(run.Universe())).
		Msg("Comparison complete")

	report := export.NewReport(run, opts.details)
	if err := render(cmd.OutOrStdout(), format, opts.view, report); err != nil {
		return err
	}

	if opts.export != "" {
		written, err := export.WriteFiles(opts.export, report)
		if err != nil {
			return err
		}
		for _, path := range written {
			a.logger.Info().Str("path", path).Msg("Exported")
		}
	}
	return nil
}

// parseFileColumns parses N=col1,col2 overrides into a slice indexed by
// file position.
func parseFileColumns(specs []string, numFiles int) ([][]string, error) {
	overrides := make([][]string, numFiles)
	for _, spec := range specs {
		pos, cols, ok := strings.Cut(spec, "=")
		n, err := strconv.Atoi(strings.TrimSpace(pos))
		if !ok || err != nil || n < 1 || n > numFiles {
			return nil, apperrors.NewConfigError("file-columns", spec,
				fmt.Sprintf("expected N=col1,col2 with N between 1 and %d", numFiles))
		}
		var columns []string
		for _, c := range strings.Split(cols, ",") {
			if c = strings.TrimSpace(c); c != "" {
				columns = append(columns, c)
			}
		}
		overrides[n-1] = columns
	}
	return overrides, nil
}

func render(w io.Writer, format output.Format, view string, report *export.Report) error {
	if format != output.FormatTable {
		result := compareResult{}
		if view == viewSummary || view == viewAll {
			result.Summary = report.Summary
		}
		if view == viewPresence || view == viewAll {
			result.Presence = report.Presence
		}
		if view == viewOnly || view == viewAll {
			result.OnlyIn = report.OnlyIn
		}
		return output.NewFormatter(format).Format(w, result)
	}

	tables := []struct{ view, table, title string }{
		{viewSummary, export.TableSummary, "Summary"},
		{viewPresence, export.TablePresence, fmt.Sprintf("Presence (threshold %d, %s)", report.Presence.Threshold, report.Presence.Scorer)},
		{viewOnly, export.TableOnly, "Only in one file"},
	}
	formatter := output.NewFormatter(output.FormatTable)
	first := true
	for _, t := range tables {
		if view != viewAll && view != t.view {
			continue
		}
		header, records, err := report.Table(t.table)
		if err != nil {
			return err
		}
		if !first {
			fmt.Fprintln(w)
		}
		first = false
		fmt.Fprintln(w, t.title)
		if err := formatter.Format(w, output.Data{Headers: header, Rows: records}); err != nil {
			return err
		}
	}
	return nil
}
