package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"resqgrid/internal/logging"
	"resqgrid/internal/types"
)

var (
	evalFile     string
	evalParallel int
)

// evalCmd evaluates reports independently against the baseline
var evalCmd = &cobra.Command{
	Use:   "eval -f FILE",
	Short: "What-if evaluation of many reports against the baseline grid",
	Long: `Reads one report per line and processes every report independently
against the baseline grid. Reports run concurrently (bounded by --parallel)
and results are printed in input order. Blank lines and lines starting with
# are skipped.`,
	Args: cobra.NoArgs,
	RunE: runEval,
}

// classifyCmd prints the classification only
var classifyCmd = &cobra.Command{
	Use:   "classify [report]",
	Short: "Classify a report and print the classifier wire JSON",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runClassify,
}

// catalogCmd lists the grid catalog
var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List the cells of the grid catalog",
	Args:  cobra.NoArgs,
	RunE:  runCatalog,
}

func runEval(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	reports, err := readReports(cmd.InOrStdin(), evalFile)
	if err != nil {
		return err
	}

	orch, err := newOrchestrator(ctx)
	if err != nil {
		return err
	}

	parallel := evalParallel
	if parallel <= 0 && cfg != nil {
		parallel = cfg.GetParallel()
	}

	baseline := orch.Catalog().Baseline()
	outcomes, err := orch.Evaluate(ctx, reports, baseline, parallel)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for i, o := range outcomes {
		if !jsonOutput {
			fmt.Fprintf(out, "#%d %s\n", i+1, o.Input)
		}
		if err := writeOutcome(out, o, baseline, ""); err != nil {
			return err
		}
	}
	logging.For(logger, logging.CategoryIncident).Debug("eval finished",
		zap.Int("reports", len(reports)),
		zap.Int("parallel", parallel))
	return nil
}

// readReports reads non-blank, non-comment lines from path, or from stdin
// when path is "-".
func readReports(stdin io.Reader, path string) ([]string, error) {
	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open reports: %w", err)
		}
		defer f.Close()
		r = f
	}

	var reports []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		reports = append(reports, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read reports: %w", err)
	}
	return reports, nil
}

func runClassify(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	gw, err := newGateway(ctx)
	if err != nil {
		return err
	}

	c := gw.Classify(ctx, joinArgs(args))
	data, err := types.Encode(c)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}

func runCatalog(cmd *cobra.Command, args []string) error {
	catalog, err := loadCatalog()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return writeJSONLine(out, catalog.All())
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATE\tDISTRICT\tX,Y\tPOPULATION\tRISK")
	for _, cell := range catalog.All() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d,%d\t%d\t%d\n",
			cell.ID, cell.Region, cell.SubRegion, cell.X, cell.Y, cell.Population, cell.RiskScore)
	}
	return tw.Flush()
}
