package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/boq-resolver/internal/boq"
	"github.com/sells-group/boq-resolver/internal/catalog"
	"github.com/sells-group/boq-resolver/internal/config"
	"github.com/sells-group/boq-resolver/internal/model"
	"github.com/sells-group/boq-resolver/internal/pipeline"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve a BOQ file against a materials snapshot",
	Long: "Reads candidates from a CSV, XLSX or JSON file and resolves them against a snapshot " +
		"given by --materials, --materials-url, or the snapshot held in the store.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		candidatesPath, _ := cmd.Flags().GetString("candidates")
		materialsPath, _ := cmd.Flags().GetString("materials")
		materialsURL, _ := cmd.Flags().GetString("materials-url")
		jurisdiction, _ := cmd.Flags().GetString("jurisdiction")
		format, _ := cmd.Flags().GetString("format")
		out, _ := cmd.Flags().GetString("out")
		save, _ := cmd.Flags().GetBool("save")
		label, _ := cmd.Flags().GetString("label")

		if materialsPath != "" && materialsURL != "" {
			return eris.New("--materials and --materials-url are mutually exclusive")
		}
		format, err := outputFormat(format, out)
		if err != nil {
			return err
		}

		candidates, err := boq.ReadCandidates(ctx, candidatesPath)
		if err != nil {
			return eris.Wrap(err, "resolve")
		}

		materials, snapshotLabel, err := loadSnapshot(ctx, cfg, materialsPath, materialsURL)
		if err != nil {
			return eris.Wrap(err, "resolve")
		}
		if label != "" {
			snapshotLabel = label
		}

		withStore := materials == nil || save
		env, err := initPipeline(ctx, cfg, "resolve", withStore)
		if err != nil {
			return err
		}
		defer env.Close()

		res, err := env.Pipeline.Run(ctx, pipeline.Request{
			Jurisdiction:  jurisdiction,
			Candidates:    candidates,
			Materials:     materials,
			SnapshotLabel: snapshotLabel,
			Save:          save,
		})
		if err != nil {
			return eris.Wrap(err, "resolve")
		}

		if err := writeOutput(format, out, res.Resolved); err != nil {
			return err
		}
		printSummary(os.Stderr, res)
		return nil
	},
}

func init() {
	f := resolveCmd.Flags()
	f.String("candidates", "", "path to BOQ candidates (.csv, .xlsx or .json)")
	f.String("materials", "", "path to materials snapshot (.csv, .xlsx or .json); default is the stored snapshot")
	f.String("materials-url", "", "URL of a materials snapshot to download")
	f.String("jurisdiction", "", "jurisdiction code or name (default from config)")
	f.String("format", "", "output format: json, csv or xlsx (default from --out extension, else json)")
	f.String("out", "", "output path (default stdout; required for xlsx)")
	f.Bool("save", false, "record the run in the store")
	f.String("label", "", "snapshot label recorded with the run")
	_ = resolveCmd.MarkFlagRequired("candidates")
	rootCmd.AddCommand(resolveCmd)
}

// loadSnapshot reads the snapshot named by path or rawURL. Both empty means
// the stored snapshot, returned as nil. The label identifies the source.
func loadSnapshot(ctx context.Context, c *config.Config, path, rawURL string) ([]model.MaterialRecord, string, error) {
	switch {
	case path != "":
		records, err := catalog.Load(ctx, path)
		return nonNil(records), filepath.Base(path), err
	case rawURL != "":
		records, err := catalog.LoadURL(ctx, newFetcher(c), rawURL)
		return nonNil(records), rawURL, err
	default:
		return nil, "store", nil
	}
}

// nonNil keeps an empty file snapshot distinct from "use the store".
func nonNil(records []model.MaterialRecord) []model.MaterialRecord {
	if records == nil {
		return []model.MaterialRecord{}
	}
	return records
}

// outputFormat picks the output format from the flag, then the --out
// extension, then json.
func outputFormat(format, out string) (string, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		switch strings.ToLower(filepath.Ext(out)) {
		case ".csv":
			format = "csv"
		case ".xlsx":
			format = "xlsx"
		default:
			format = "json"
		}
	}

	switch format {
	case "json", "csv":
		return format, nil
	case "xlsx":
		if out == "" {
			return "", eris.New("--out is required for xlsx output")
		}
		return format, nil
	default:
		return "", eris.Errorf("unsupported output format %q (json, csv, xlsx)", format)
	}
}

// writeOutput writes resolved in format to out, or to stdout when out is empty.
func writeOutput(format, out string, resolved []model.ResolvedMaterial) error {
	if format == "xlsx" {
		return boq.WriteXLSX(out, resolved)
	}

	var w io.Writer = os.Stdout
	if out != "" {
		f, err := os.Create(out)
		if err != nil {
			return eris.Wrapf(err, "create %s", out)
		}
		defer f.Close() //nolint:errcheck
		w = f
	}

	if format == "csv" {
		return boq.WriteCSV(w, resolved)
	}
	return boq.WriteJSON(w, resolved)
}

// printSummary writes a one-line summary of res to w.
func printSummary(w io.Writer, res *pipeline.Result) {
	s := res.Summary
	_, _ = fmt.Fprintf(w, "Resolved %d candidates (%s): %d exact, %d category, %d keyword, %d structural risk, %d no match; %d require review",
		s.Total, res.Jurisdiction,
		s.ByOutcome[model.OutcomeExactHit],
		s.ByOutcome[model.OutcomeCategoryHit],
		s.ByOutcome[model.OutcomeKeywordHit],
		s.ByOutcome[model.OutcomeStructuralRisk],
		s.ByOutcome[model.OutcomeNoMatch],
		s.RequiresReview,
	)
	if res.RunID != "" {
		_, _ = fmt.Fprintf(w, " (run %s)", res.RunID)
	}
	_, _ = fmt.Fprintln(w)
}
