package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/boq-resolver/internal/model"
)

var materialsCmd = &cobra.Command{
	Use:   "materials",
	Short: "Manage the stored materials snapshot",
}

// -- materials import --

var materialsImportCmd = &cobra.Command{
	Use:   "import <file-or-url>",
	Short: "Replace the stored snapshot with a CSV, XLSX or JSON file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		src := args[0]
		path, rawURL := src, ""
		if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
			path, rawURL = "", src
		}

		records, _, err := loadSnapshot(ctx, cfg, path, rawURL)
		if err != nil {
			return eris.Wrap(err, "materials import")
		}

		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.ReplaceMaterials(ctx, records); err != nil {
			return eris.Wrap(err, "materials import")
		}

		zap.L().Info("materials imported",
			zap.String("source", src),
			zap.Int("records", len(records)),
		)
		return nil
	},
}

// -- materials list --

var materialsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the stored snapshot",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		records, err := st.ListMaterials(ctx)
		if err != nil {
			return eris.Wrap(err, "materials list")
		}

		category, _ := cmd.Flags().GetString("category")
		limit, _ := cmd.Flags().GetInt("limit")
		records = filterMaterials(records, category, limit)

		if len(records) == 0 {
			fmt.Fprintln(os.Stderr, "No materials found.")
			return nil
		}

		formatMaterialsList(os.Stdout, records)
		return nil
	},
}

func init() {
	materialsListCmd.Flags().String("category", "", "filter by material category (case-insensitive)")
	materialsListCmd.Flags().Int("limit", 50, "max number of records to display (0 for all)")

	materialsCmd.AddCommand(materialsImportCmd)
	materialsCmd.AddCommand(materialsListCmd)
	rootCmd.AddCommand(materialsCmd)
}

// filterMaterials keeps records in category, up to limit. Zero limit keeps all.
func filterMaterials(records []model.MaterialRecord, category string, limit int) []model.MaterialRecord {
	var out []model.MaterialRecord
	for _, r := range records {
		if category != "" && !strings.EqualFold(strings.TrimSpace(r.Category), strings.TrimSpace(category)) {
			continue
		}
		out = append(out, r)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// formatMaterialsList writes a tabular list of records to w.
func formatMaterialsList(out io.Writer, records []model.MaterialRecord) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tUNIT\tEF_TOTAL\tSOURCE\tLOCALITY")
	_, _ = fmt.Fprintln(w, "--\t----\t--------\t----\t--------\t------\t--------")

	for _, r := range records {
		locality := r.StateTag()
		if locality == "" {
			locality = r.RegionTag()
		}

		name := r.Name
		if len(name) > 40 {
			name = name[:37] + "..."
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%g\t%s\t%s\n",
			truncateID(r.ID),
			name,
			r.Category,
			r.Unit,
			r.EFTotal,
			r.DataSource,
			locality,
		)
	}
	_ = w.Flush()
}
