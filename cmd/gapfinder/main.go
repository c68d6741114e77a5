// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the gapfinder CLI.
//
// gapfinder extracts the AI Overview for a search query and reports which of
// its topics a set of articles covers, partially covers, or misses.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/gapfinder/internal/logging"
	"github.com/pdiddy/gapfinder/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// cfg and logger are populated before any subcommand runs.
var (
	cfg    types.Config
	logger = zerolog.Nop()
)

// rootCmd is the base command for the gapfinder CLI.
var rootCmd = &cobra.Command{
	Use:   "gapfinder",
	Short: "Find the topics your articles miss compared to the AI Overview",
	Long: `gapfinder drives a browser to a search engine, extracts the AI Overview
panel for a query, and compares its topics against one or more articles.

Each step is a subcommand: extract saves the overview, analyze compares
articles against a saved overview, and run does both. Every run is recorded
in a local SQLite history.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := bindFlags(cmd); err != nil {
			return err
		}
		c, err := loadConfig()
		if err != nil {
			return err
		}
		cfg = c

		logger, err = logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
		if err != nil {
			return err
		}
		if ctx := cmd.Context(); ctx != nil {
			cmd.SetContext(logger.WithContext(ctx))
		}
		if used := viper.ConfigFileUsed(); used != "" {
			logger.Debug().Str("file", used).Msg("using config file")
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./gapfinder.yaml or ~/.config/gapfinder/gapfinder.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "", "log format: console or json")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("gapfinder")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "gapfinder"))
		}
	}

	viper.SetEnvPrefix("GAPFINDER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	registerDefaults(viper.GetViper(), types.DefaultConfig())

	if err := viper.ReadInConfig(); err != nil {
		if _, missing := err.(viper.ConfigFileNotFoundError); !missing {
			fmt.Fprintln(os.Stderr, "warning: reading config:", err)
		}
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
