// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pdiddy/gapfinder/internal/report"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect recorded runs (list, show, coverage, export, delete)",
	Long: `History reads the local SQLite database in which extract, analyze, and
run record every invocation. Runs are addressed by ID or a unique ID prefix.`,
}

// --- list subcommand ---

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent runs, newest first",
	RunE:  runHistoryList,
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	store, err := report.OpenStore(cfg.Pipeline.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.List(cmd.Context(), limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tKIND\tWHEN\tFOUND\tARTICLES\tAVG COVERAGE\tQUERY")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%v\t%d\t%.2f%%\t%s\n",
			r.ID[:min(8, len(r.ID))], r.Kind, r.CreatedAt.Local().Format("2006-01-02 15:04"),
			r.Found, r.Articles, r.AverageCoverage, r.Query)
	}
	return tw.Flush()
}

// --- show subcommand ---

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one run with its overview and article reports",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	store, err := report.OpenStore(cfg.Pipeline.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	run, err := store.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(run)
	}

	fmt.Printf("Run %s (%s) at %s\n", run.ID, run.Kind, run.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	if run.Query != "" {
		fmt.Printf("Query: %s\n", run.Query)
	}
	printOverview(os.Stdout, run.Overview)
	if run.Batch != nil {
		printBatch(os.Stdout, *run.Batch)
	}
	return nil
}

// --- coverage subcommand ---

var historyCoverageCmd = &cobra.Command{
	Use:   "coverage <url>",
	Short: "Show how an article's coverage changed across runs",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryCoverage,
}

func runHistoryCoverage(cmd *cobra.Command, args []string) error {
	store, err := report.OpenStore(cfg.Pipeline.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	points, err := store.Coverage(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if len(points) == 0 {
		fmt.Printf("No successful analyses of %s recorded.\n", args[0])
		return nil
	}
	for _, p := range points {
		fmt.Printf("%s  %6.2f%%  %s  (missing %d)\n",
			p.CreatedAt.Local().Format("2006-01-02 15:04"), p.Coverage, p.Query, len(p.Missing))
	}
	return nil
}

// --- export subcommand ---

var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export every run as YAML or JSON",
	RunE:  runHistoryExport,
}

func runHistoryExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	outPath, _ := cmd.Flags().GetString("out")

	store, err := report.OpenStore(cfg.Pipeline.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	w := os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("creating %s: %w", outPath, err)
		}
		defer f.Close()
		w = f
	}
	return store.Export(cmd.Context(), w, report.Format(format))
}

// --- delete subcommand ---

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a run and its article reports",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := report.OpenStore(cfg.Pipeline.DBPath)
		if err != nil {
			return err
		}
		defer store.Close()
		return store.Delete(cmd.Context(), args[0])
	},
}

func init() {
	historyCmd.PersistentFlags().String("db", "", "run history database")

	historyListCmd.Flags().Int("limit", 20, "maximum number of runs (0 = all)")
	historyShowCmd.Flags().Bool("json", false, "print the run as JSON")
	historyExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	historyExportCmd.Flags().String("out", "", "write to a file instead of stdout")

	historyCmd.AddCommand(historyListCmd, historyShowCmd, historyCoverageCmd, historyExportCmd, historyDeleteCmd)
	rootCmd.AddCommand(historyCmd)
}
