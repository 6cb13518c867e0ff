package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/australsoft/folio/domain"
	"github.com/australsoft/folio/sequence"
)

func newSequenceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sequence",
		Short: "Inspect document numbering",
	}
	cmd.AddCommand(newSequencePreviewCmd())
	return cmd
}

func newSequencePreviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Render the numbers a counter would emit",
		Long: `Render the numbers a sequence counter would emit, without touching a
database. Family codes and padding come from the configuration file, so
the preview shows exactly what documents will be numbered.

Families: quote, order, delivery, sii_invoice, export_invoice.`,
		Example: `  # One number per family for the current year
  folio sequence preview

  # The first three quote numbers of a prefixed counter
  folio sequence preview --family quote --prefix FRI --count 3

  # Where a counter stands after 125 documents
  folio sequence preview --family order --year 2025 --start 126`,
		Args: cobra.NoArgs,
		RunE: runSequencePreview,
	}
	cmd.Flags().String("family", "", "Document family (default all)")
	cmd.Flags().Int("year", time.Now().Year(), "Sequence year")
	cmd.Flags().String("prefix", "", "Optional counter prefix (company trigram)")
	cmd.Flags().Int64("start", 1, "First counter value to render")
	cmd.Flags().Int("count", 1, "How many consecutive numbers to render")
	return cmd
}

func runSequencePreview(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	opts, err := cfg.Sequences.Options()
	if err != nil {
		return err
	}
	g := sequence.New(opts...)

	families := []domain.DocumentFamily{
		domain.FamilyQuote, domain.FamilyOrder, domain.FamilyDelivery,
		domain.FamilySIIInvoice, domain.FamilyExportInvoice,
	}
	if name, _ := cmd.Flags().GetString("family"); name != "" {
		f, err := domain.ParseDocumentFamily(name)
		if err != nil {
			return err
		}
		families = []domain.DocumentFamily{f}
	}

	year, _ := cmd.Flags().GetInt("year")
	prefix, _ := cmd.Flags().GetString("prefix")
	start, _ := cmd.Flags().GetInt64("start")
	count, _ := cmd.Flags().GetInt("count")
	if count < 1 {
		count = 1
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FAMILY\tNUMBER")
	for _, f := range families {
		for i := 0; i < count; i++ {
			n, err := g.Format(f, year, prefix, start+int64(i))
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%s\t%s\n", f, n)
		}
	}
	return w.Flush()
}
