// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/gapfinder/internal/pipeline"
	"github.com/pdiddy/gapfinder/internal/report"
	"github.com/pdiddy/gapfinder/pkg/types"
)

var extractCmd = &cobra.Command{
	Use:   "extract [query]",
	Short: "Extract the AI Overview for a search query",
	Long: `Extract opens a browser, searches the query, dismisses consent popups,
and extracts the AI Overview panel, expanding it when a "show more" control
is present. The result is saved as JSON under the output directory.

With --snapshot the saved HTML page is read instead of searching live.`,
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().String("query", "", "search query (or pass it as arguments)")
	addBrowserFlags(extractCmd)
	addOutputFlags(extractCmd)
	rootCmd.AddCommand(extractCmd)
}

func addBrowserFlags(cmd *cobra.Command) {
	cmd.Flags().String("driver", "", "browser driver: chromedp, playwright, snapshot")
	cmd.Flags().Bool("headless", true, "run the browser without a window")
	cmd.Flags().String("chrome-path", "", "browser executable (default: auto-detect)")
	cmd.Flags().String("snapshot", "", "read a saved results page instead of searching")
	cmd.Flags().String("home-url", "", "search engine home page")
	cmd.Flags().String("locators", "", "YAML file overriding the built-in locator tables")
}

func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().String("out", "", "output JSON file (default: <output-dir>/<kind>_<query>_<time>.json)")
	cmd.Flags().String("output-dir", "", "directory for JSON artifacts")
	cmd.Flags().String("db", "", "run history database")
	cmd.Flags().Bool("no-history", false, "do not record this run in the history database")
}

func queryArg(cmd *cobra.Command, args []string) (string, error) {
	q, _ := cmd.Flags().GetString("query")
	if q == "" {
		q = strings.Join(args, " ")
	}
	q = strings.TrimSpace(q)
	if q == "" {
		return "", fmt.Errorf("a search query is required")
	}
	return q, nil
}

// browserConfig switches to the snapshot driver when a snapshot is given
// and no driver was chosen explicitly.
func browserConfig(cmd *cobra.Command) {
	if cfg.Browser.SnapshotPath != "" && !cmd.Flags().Changed("driver") {
		cfg.Browser.Driver = types.DriverSnapshot
	}
}

func runExtract(cmd *cobra.Command, args []string) error {
	query, err := queryArg(cmd, args)
	if err != nil {
		return err
	}
	browserConfig(cmd)

	p, err := pipeline.New(cfg, logger)
	if err != nil {
		return err
	}
	res, err := p.ExtractOverview(cmd.Context(), query)
	if err != nil {
		return err
	}

	printOverview(os.Stdout, res)
	out, _ := cmd.Flags().GetString("out")
	path, err := saveArtifact(out, "overview", query, res)
	if err != nil {
		return err
	}
	fmt.Printf("Saved %s\n", path)

	if err := recordRun(cmd, &report.Run{Kind: report.KindExtract, Query: query, Overview: res}); err != nil {
		return err
	}
	if !res.Found {
		return fmt.Errorf("no AI Overview found for %q", query)
	}
	return nil
}

// saveArtifact writes v to path, or to a generated name under the output
// directory when path is empty.
func saveArtifact(path, kind, query string, v any) (string, error) {
	if path == "" {
		path = filepath.Join(cfg.Pipeline.OutputDir, report.Filename(kind, query, time.Now()))
	}
	if err := report.SaveJSON(path, v); err != nil {
		return "", err
	}
	return path, nil
}

func recordRun(cmd *cobra.Command, run *report.Run) error {
	if skip, _ := cmd.Flags().GetBool("no-history"); skip {
		return nil
	}
	store, err := report.OpenStore(cfg.Pipeline.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	id, err := store.Record(cmd.Context(), run)
	if err != nil {
		return err
	}
	logger.Info().Str("run", id).Str("kind", string(run.Kind)).Msg("run recorded")
	return nil
}
