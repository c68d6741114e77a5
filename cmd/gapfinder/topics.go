package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/gapfinder/internal/report"
	"github.com/pdiddy/gapfinder/internal/topics"
)

var topicsCmd = &cobra.Command{
	Use:   "topics [file]",
	Short: "Print the topics extracted from a text",
	Long: `Topics runs the topic extractor over a plain text file (stdin when no
file is given) and prints one topic per line: frequent terms first, then
recognized key phrases. With --overview the file is read as a saved overview
JSON and its full content is used.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTopics,
}

func init() {
	topicsCmd.Flags().Bool("overview", false, "treat the file as a saved overview JSON")
	topicsCmd.Flags().Bool("json", false, "print the topics as a JSON array")
	rootCmd.AddCommand(topicsCmd)
}

func runTopics(cmd *cobra.Command, args []string) error {
	var (
		data []byte
		err  error
	)
	if len(args) == 1 {
		data, err = os.ReadFile(args[0])
	} else {
		data, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		return fmt.Errorf("reading text: %w", err)
	}

	text := string(data)
	if asOverview, _ := cmd.Flags().GetBool("overview"); asOverview {
		res, err := report.DecodeExtraction(data)
		if err != nil {
			return err
		}
		text = res.Content()
	}

	set := topics.New(cfg.Analysis).Extract(text)

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(set)
	}
	for _, t := range set {
		fmt.Println(t)
	}
	return nil
}
