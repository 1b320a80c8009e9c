package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/eplancompare/eplancompare/internal/analysis"
	"github.com/eplancompare/eplancompare/internal/catalog"
	"github.com/eplancompare/eplancompare/internal/plans"
	"github.com/eplancompare/eplancompare/internal/readings"

	// Register the built-in catalog sources.
	_ "github.com/eplancompare/eplancompare/pkg/plansources/kamaze"
)

var (
	analyzeJSON    bool
	analyzeTopN    int
	analyzeCatalog string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <meter-export.csv>",
	Short: "Compare plans against a smart-meter CSV export",
	Long: `Reads a smart-meter consumption export, simulates every plan in the
catalog against it, and prints the ranked comparison report.

Examples:
  eplancompare analyze meter_export.csv
  eplancompare analyze --top 5 meter_export.csv
  eplancompare analyze --json meter_export.csv`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "emit the raw result as JSON")
	analyzeCmd.Flags().IntVar(&analyzeTopN, "top", 10, "number of plans to list in the report (0 for all)")
	analyzeCmd.Flags().StringVar(&analyzeCatalog, "catalog", "", "use a local catalog export instead of fetching")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open meter export: %w", err)
	}
	defer f.Close()

	loc, err := time.LoadLocation("Asia/Jerusalem")
	if err != nil {
		loc = time.Local
	}
	rs, err := readings.ParseCSV(f, loc)
	if err != nil {
		return fmt.Errorf("parse meter export: %w", err)
	}

	svc := catalog.NewService(catalog.DefaultConfig())

	var (
		ps       []plans.DiscountPlan
		warnings []plans.Warning
	)
	if analyzeCatalog != "" {
		raws, err := plans.LoadCatalogFile(analyzeCatalog)
		if err != nil {
			return err
		}
		ps, warnings = plans.ExtractAll(raws)
	} else {
		ps, warnings, err = svc.AllPlans(ctx)
		if err != nil {
			return fmt.Errorf("load plan catalogs: %w", err)
		}
	}
	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}

	t, source, err := svc.Tariff(ctx)
	if err != nil {
		return fmt.Errorf("load tariff: %w", err)
	}
	fmt.Fprintf(os.Stderr, "using %s tariff\n", source)

	batch, err := analysis.RunBatch(ctx, ps, rs, t, nil)
	if err != nil {
		return err
	}

	if analyzeJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(batch)
	}

	rep := analysis.Report{
		GeneratedAt: time.Now(),
		Stats:       readings.Summarize(rs),
		Tariff:      t,
		Batch:       batch,
		TopN:        analyzeTopN,
	}
	fmt.Print(rep.RenderMarkdown())
	return nil
}
