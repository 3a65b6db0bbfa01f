package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/crmimport/internal/backend"
	"github.com/ppiankov/crmimport/internal/cache"
	"github.com/ppiankov/crmimport/internal/importer"
	"github.com/ppiankov/crmimport/internal/model"
	"github.com/ppiankov/crmimport/internal/reference"
	"github.com/ppiankov/crmimport/internal/rules"
	"github.com/ppiankov/crmimport/internal/source"
)

var (
	ruleSetName   string
	groupID       int
	tagIDs        []int
	sheetName     string
	skipIDs       []string
	reportPath    string
	metricsPath   string
	importTimeout time.Duration
	noCache       bool
)

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import contacts from an .xlsx or .csv export",
	Long: `Import reads every row of the input file, classifies it (organization,
individual with employer, household pair or individual), builds the
entities the selected rule set describes and creates them in CiviCRM.

Rows are imported one at a time in file order. A failing row is reported
and the import continues with the next one.

Example:
  crmimport import presse.xlsx --ruleset press --group 12 --tag 4 --tag 5
  crmimport import altruja.csv --ruleset altruja --report outcomes.jsonl
  crmimport import presse.xlsx --skip-id 2246 --metrics-file /var/lib/node_exporter/crmimport.prom`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringVar(&ruleSetName, "ruleset", "", "rule set to apply (see 'crmimport rulesets')")
	importCmd.Flags().IntVar(&groupID, "group", 0, "add every imported contact to this group id")
	importCmd.Flags().IntSliceVar(&tagIDs, "tag", nil, "tag every imported contact with this tag id (repeatable)")
	importCmd.Flags().StringVar(&sheetName, "sheet", "", "worksheet to read (default: first sheet)")
	importCmd.Flags().StringSliceVar(&skipIDs, "skip-id", nil, "source id to leave out (repeatable)")
	importCmd.Flags().StringVar(&reportPath, "report", "", "write one JSON outcome per row to this file")
	importCmd.Flags().StringVar(&metricsPath, "metrics-file", "", "write Prometheus metrics to this textfile after the run")
	importCmd.Flags().DurationVar(&importTimeout, "timeout", 2*time.Hour, "overall import timeout")
	importCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the reference data cache (force fresh fetch)")
}

// applyImportFlags overrides config values with explicitly set flags
func applyImportFlags(cmd *cobra.Command, cfg *model.Config) {
	flags := cmd.Flags()
	if flags.Changed("ruleset") {
		cfg.Import.RuleSet = ruleSetName
	}
	if flags.Changed("group") {
		cfg.Import.GroupID = groupID
	}
	if flags.Changed("tag") {
		cfg.Import.Tags = tagIDs
	}
	if flags.Changed("sheet") {
		cfg.Import.Sheet = sheetName
	}
	if flags.Changed("skip-id") {
		cfg.Import.SkipIDs = append(cfg.Import.SkipIDs, skipIDs...)
	}
	if flags.Changed("metrics-file") {
		cfg.Metrics.File = metricsPath
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	applyImportFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), importTimeout)
	defer cancel()

	var report io.Writer
	if reportPath != "" {
		f, err := os.Create(reportPath)
		if err != nil {
			return fmt.Errorf("create report: %w", err)
		}
		defer func() { _ = f.Close() }()
		report = f
	}

	_, err = importFile(ctx, cfg, args[0], report, os.Stderr)
	return err
}

// importFile runs one import end to end and prints the banners to out
func importFile(ctx context.Context, cfg *model.Config, path string, report, out io.Writer) (importer.Totals, error) {
	var totals importer.Totals

	rs, err := rules.Default().Get(cfg.Import.RuleSet)
	if err != nil {
		return totals, err
	}

	fmt.Fprintf(out, "\n")
	fmt.Fprintf(out, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(out, "  crmimport\n")
	fmt.Fprintf(out, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(out, "\n")
	fmt.Fprintf(out, "  Input file:   %s\n", path)
	fmt.Fprintf(out, "  Rule set:     %s\n", rs.Name)
	fmt.Fprintf(out, "  Backend:      %s\n", cfg.Backend.URL)
	if cfg.Import.GroupID > 0 {
		fmt.Fprintf(out, "  Group:        %d\n", cfg.Import.GroupID)
	}
	if len(cfg.Import.Tags) > 0 {
		fmt.Fprintf(out, "  Tags:         %v\n", cfg.Import.Tags)
	}
	if len(cfg.Import.SkipIDs) > 0 {
		fmt.Fprintf(out, "  Skipped ids:  %s\n", strings.Join(cfg.Import.SkipIDs, ", "))
	}
	fmt.Fprintf(out, "\n")

	src, err := source.Open(path, rs.Columns, cfg.Import.Sheet)
	if err != nil {
		return totals, err
	}
	rows, err := src.Rows(ctx)
	if err != nil {
		return totals, fmt.Errorf("read %s: %w", path, err)
	}

	limiter := backend.LimiterFor(cfg.RateLimiting)
	client := backend.NewCiviCRM(cfg.Backend, limiter)
	metrics := importer.NewMetrics()
	client.SetObserver(metrics.ObserveBackend)

	provider := reference.NewProvider(client, cache.New(cfg.Cache), cfg.Backend.URL, cfg.Cache.TTL)

	runner := importer.NewRunner(client, rs, provider, importer.Options{
		GroupID: cfg.Import.GroupID,
		Tags:    cfg.Import.Tags,
		SkipIDs: cfg.Import.SkipIDs,
	})
	runner.SetMetrics(metrics)
	if report != nil {
		runner.SetReport(report)
	}

	start := time.Now()
	totals, runErr := runner.Run(ctx, rows)

	if cfg.Metrics.File != "" {
		if err := metrics.WriteFile(cfg.Metrics.File); err != nil {
			logrus.WithError(err).Warn("could not write metrics file")
		}
	}

	fmt.Fprintf(out, "\n")
	fmt.Fprintf(out, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(out, "  Import Summary (run %s)\n", runner.RunID())
	fmt.Fprintf(out, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(out, "  Rows:         %d of %d\n", totals.Rows, len(rows))
	fmt.Fprintf(out, "  Created:      %d\n", totals.Created)
	fmt.Fprintf(out, "  Partial:      %d\n", totals.Partial)
	fmt.Fprintf(out, "  Skipped:      %d\n", totals.Skipped)
	fmt.Fprintf(out, "  Rejected:     %d\n", totals.Rejected)
	fmt.Fprintf(out, "  Excluded:     %d\n", totals.Excluded)
	fmt.Fprintf(out, "  Duration:     %v\n", time.Since(start).Round(time.Millisecond))
	fmt.Fprintf(out, "\n")

	if runErr != nil {
		return totals, fmt.Errorf("import: %w", runErr)
	}
	return totals, nil
}
