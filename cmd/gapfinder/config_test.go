package main

import (
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/gapfinder/pkg/types"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	registerDefaults(viper.GetViper(), types.DefaultConfig())
	t.Cleanup(viper.Reset)
}

func TestRegisterDefaultsNestedKeys(t *testing.T) {
	def := types.DefaultConfig()
	v := viper.New()
	registerDefaults(v, def)

	assert.Equal(t, def.Analysis.PartialMatchThreshold, v.GetFloat64("analysis.partial_match_threshold"))
	assert.Equal(t, string(def.Browser.Driver), v.GetString("browser.driver"))
	assert.Equal(t, def.Pipeline.DBPath, v.GetString("pipeline.db_path"))
	assert.Equal(t, def.Article.Timeout, v.GetDuration("article.timeout"))
}

func TestLoadConfigDefaults(t *testing.T) {
	resetViper(t)

	c, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, types.DefaultConfig(), c)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	resetViper(t)
	t.Setenv("GAPFINDER_ANALYSIS_LANGUAGE", "it")
	t.Setenv("GAPFINDER_ARTICLE_CONCURRENCY", "4")
	viper.SetEnvPrefix("GAPFINDER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	c, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "it", c.Analysis.Language)
	assert.Equal(t, 4, c.Article.Concurrency)
}

func TestLoadConfigRejects(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value any
	}{
		{"driver", "browser.driver", "lynx"},
		{"mode", "article.mode", "ocr"},
		{"threshold high", "analysis.partial_match_threshold", 1.0},
		{"threshold zero", "analysis.partial_match_threshold", 0.0},
		{"threshold negative", "analysis.partial_match_threshold", -0.1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetViper(t)
			viper.Set(tt.key, tt.value)
			_, err := loadConfig()
			assert.Error(t, err)
		})
	}
}
