package main

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pdiddy/gapfinder/pkg/types"
)

// flagKeys maps command-line flags onto configuration keys. Flags are bound
// for the executing command only, so subcommands may share flag names.
var flagKeys = map[string]string{
	"log-level":      "log.level",
	"log-format":     "log.format",
	"driver":         "browser.driver",
	"headless":       "browser.headless",
	"chrome-path":    "browser.chrome_path",
	"snapshot":       "browser.snapshot_path",
	"home-url":       "search.home_url",
	"locators":       "overview.locators_file",
	"threshold":      "analysis.partial_match_threshold",
	"lang":           "analysis.language",
	"mode":           "article.mode",
	"respect-robots": "article.respect_robots",
	"concurrency":    "article.concurrency",
	"output-dir":     "pipeline.output_dir",
	"db":             "pipeline.db_path",
}

func bindFlags(cmd *cobra.Command) error {
	var err error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok || err != nil {
			return
		}
		if bindErr := viper.BindPFlag(key, f); bindErr != nil {
			err = fmt.Errorf("binding --%s: %w", f.Name, bindErr)
		}
	})
	return err
}

// registerDefaults walks the mapstructure tags of def and registers every
// leaf as a viper default so that environment variables reach nested keys.
func registerDefaults(v *viper.Viper, def types.Config) {
	var walk func(prefix string, rv reflect.Value)
	walk = func(prefix string, rv reflect.Value) {
		rt := rv.Type()
		for i := 0; i < rt.NumField(); i++ {
			f := rt.Field(i)
			name, opts, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
			fv := rv.Field(i)
			if opts == "squash" {
				walk(prefix, fv)
				continue
			}
			if name == "" {
				continue
			}
			key := name
			if prefix != "" {
				key = prefix + "." + name
			}
			if fv.Kind() == reflect.Struct {
				walk(key, fv)
				continue
			}
			v.SetDefault(key, fv.Interface())
		}
	}
	walk("", reflect.ValueOf(def))
}

// loadConfig decodes the merged configuration (defaults, file, environment,
// flags) onto types.DefaultConfig.
func loadConfig() (types.Config, error) {
	c := types.DefaultConfig()
	if err := viper.Unmarshal(&c); err != nil {
		return types.Config{}, fmt.Errorf("decoding config: %w", err)
	}
	switch c.Browser.Driver {
	case types.DriverChromedp, types.DriverPlaywright, types.DriverSnapshot:
	default:
		return types.Config{}, fmt.Errorf("unknown browser driver %q", c.Browser.Driver)
	}
	switch c.Article.Mode {
	case types.ArticleSelectors, types.ArticleReadability:
	default:
		return types.Config{}, fmt.Errorf("unknown article mode %q", c.Article.Mode)
	}
	if t := c.Analysis.PartialMatchThreshold; t <= 0 || t >= 1 {
		return types.Config{}, fmt.Errorf("partial match threshold %v out of range (0, 1)", t)
	}
	return c, nil
}
