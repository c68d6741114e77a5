// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/gapfinder/internal/pipeline"
	"github.com/pdiddy/gapfinder/internal/report"
	"github.com/pdiddy/gapfinder/pkg/types"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze --overview FILE [url...]",
	Short: "Compare articles against a saved AI Overview",
	Long: `Analyze loads an overview saved by extract (or by earlier tooling that
stored it under "ai_overview"), fetches every article, and classifies each
overview topic as covered, partially covered, or missing.

URLs come from the arguments and from --urls-file (one per line, # comments
allowed). The batch report is saved as JSON.`,
	RunE: runAnalyze,
}

var runCmd = &cobra.Command{
	Use:   "run [url...] --query Q",
	Short: "Extract the AI Overview and analyze articles against it",
	Long: `Run is extract followed by analyze in one step: it searches the query,
extracts the overview, then compares every article against it. Both the
overview and the batch report are saved as JSON.`,
	RunE: runRun,
}

func init() {
	analyzeCmd.Flags().String("overview", "", "overview JSON file (required)")
	addArticleFlags(analyzeCmd)
	addOutputFlags(analyzeCmd)
	analyzeCmd.MarkFlagRequired("overview")
	rootCmd.AddCommand(analyzeCmd)

	runCmd.Flags().String("query", "", "search query (required)")
	addArticleFlags(runCmd)
	addBrowserFlags(runCmd)
	addOutputFlags(runCmd)
	runCmd.MarkFlagRequired("query")
	rootCmd.AddCommand(runCmd)
}

func addArticleFlags(cmd *cobra.Command) {
	cmd.Flags().String("urls-file", "", "file with one article URL per line")
	cmd.Flags().String("mode", "", "article text extraction: selectors or readability")
	cmd.Flags().Bool("respect-robots", false, "skip articles disallowed by robots.txt")
	cmd.Flags().Int("concurrency", 0, "parallel article fetches")
	cmd.Flags().Float64("threshold", 0, "similarity a partial match must exceed")
	cmd.Flags().String("lang", "", "recommendation language: en or it")
}

func articleURLs(cmd *cobra.Command, args []string) ([]string, error) {
	urls := append([]string(nil), args...)
	if path, _ := cmd.Flags().GetString("urls-file"); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening urls file: %w", err)
		}
		defer f.Close()

		sc := bufio.NewScanner(f)
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			urls = append(urls, line)
		}
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("reading urls file: %w", err)
		}
	}
	if len(urls) == 0 {
		return nil, fmt.Errorf("at least one article URL is required")
	}
	return urls, nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	urls, err := articleURLs(cmd, args)
	if err != nil {
		return err
	}
	path, _ := cmd.Flags().GetString("overview")
	res, err := report.LoadExtraction(path)
	if err != nil {
		return err
	}
	if !res.Found {
		return fmt.Errorf("%s: %w", path, pipeline.ErrNoOverview)
	}

	p, err := pipeline.New(cfg, logger)
	if err != nil {
		return err
	}
	batch, err := p.AnalyzeArticles(cmd.Context(), res, urls, os.Stderr)
	if err != nil {
		return err
	}
	return finishBatch(cmd, report.KindAnalyze, res, batch)
}

func runRun(cmd *cobra.Command, args []string) error {
	urls, err := articleURLs(cmd, args)
	if err != nil {
		return err
	}
	query, err := queryArg(cmd, nil)
	if err != nil {
		return err
	}
	browserConfig(cmd)

	p, err := pipeline.New(cfg, logger)
	if err != nil {
		return err
	}
	res, batch, err := p.Run(cmd.Context(), query, urls, os.Stderr)
	if err != nil {
		if res.Query != "" {
			if recErr := recordRun(cmd, &report.Run{Kind: report.KindRun, Query: query, Overview: res}); recErr != nil {
				logger.Warn().Err(recErr).Msg("recording failed run")
			}
		}
		return err
	}
	printOverview(os.Stdout, res)
	path, err := saveArtifact("", "overview", query, res)
	if err != nil {
		return err
	}
	fmt.Printf("Saved %s\n", path)
	return finishBatch(cmd, report.KindRun, res, batch)
}

func finishBatch(cmd *cobra.Command, kind report.RunKind, res types.ExtractionResult, batch types.BatchReport) error {
	printBatch(os.Stdout, batch)

	out, _ := cmd.Flags().GetString("out")
	path, err := saveArtifact(out, "report", res.Query, batch)
	if err != nil {
		return err
	}
	fmt.Printf("Saved %s\n", path)

	if err := recordRun(cmd, &report.Run{Kind: kind, Query: res.Query, Overview: res, Batch: &batch}); err != nil {
		return err
	}
	if batch.Summary.Error != "" {
		return fmt.Errorf("%s", batch.Summary.Error)
	}
	return nil
}
