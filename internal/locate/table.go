// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package locate

import (
	_ "embed"
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"
)

//go:embed locators.yaml
var defaultTable []byte

// Tables holds every locator list and word list the stages use.
type Tables struct {
	// Consent popup.
	Consent             List     `yaml:"consent"`
	ConsentFrames       List     `yaml:"consent_frames"`
	ConsentFrameButtons List     `yaml:"consent_frame_buttons"`
	Overlays            List     `yaml:"overlays"`
	AcceptWords         []string `yaml:"accept_words"`
	Captcha             List     `yaml:"captcha"`

	// Search.
	SearchInput   List   `yaml:"search_input"`
	ResultsMarker string `yaml:"results_marker"`

	// Overview panel.
	Overview       List     `yaml:"overview"`
	NavBlocklist   []string `yaml:"nav_blocklist"`
	OverviewFrames List     `yaml:"overview_frames"`
	Fallback       List     `yaml:"fallback"`

	// Expansion.
	ShowMore    List     `yaml:"show_more"`
	Clickables  List     `yaml:"clickables"`
	ExpandWords []string `yaml:"expand_words"`
}

// Default returns the built-in tables.
func Default() (*Tables, error) {
	var t Tables
	if err := yaml.Unmarshal(defaultTable, &t); err != nil {
		return nil, fmt.Errorf("parsing built-in locators: %w", err)
	}
	return &t, nil
}

// Load returns the built-in tables overlaid with the lists defined in path.
// Keys absent from the file keep their built-in value. An empty path
// returns the defaults.
func Load(path string) (*Tables, error) {
	t, err := Default()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return t, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading locators file: %w", err)
	}
	if err := yaml.Unmarshal(data, t); err != nil {
		return nil, fmt.Errorf("parsing locators file %s: %w", path, err)
	}
	return t, nil
}

// MustDefault returns the built-in tables and panics if they do not parse.
// The embedded file is covered by tests, so a panic means a broken build.
func MustDefault() *Tables {
	t, err := Default()
	if err != nil {
		panic(err)
	}
	return t
}
