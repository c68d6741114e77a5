// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package navigate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/gapfinder/internal/browser"
	"github.com/pdiddy/gapfinder/internal/browser/browsertest"
	"github.com/pdiddy/gapfinder/internal/locate"
	"github.com/pdiddy/gapfinder/pkg/types"
)

type popupStub struct{ calls int }

func (p *popupStub) Resolve(context.Context, browser.Page) bool {
	p.calls++
	return false
}

func testConfig() types.SearchConfig {
	return types.SearchConfig{
		HomeURL:     "https://www.google.com",
		Deadline:    2 * time.Second,
		ResultsWait: 20 * time.Millisecond,
	}
}

func newNavigator(t *testing.T, cfg types.SearchConfig, popups PopupResolver) *Navigator {
	t.Helper()
	tables, err := locate.Default()
	require.NoError(t, err)
	return New(cfg, tables, popups, zerolog.Nop())
}

func resultsPage() (*browsertest.Page, *browsertest.Element) {
	page := browsertest.NewPage()
	input := browsertest.NewElement("")
	page.Add("textarea[name='q']", input)
	page.Add("div[id='search']", browsertest.NewElement("results"))
	return page, input
}

func TestSearch_Success(t *testing.T) {
	page, input := resultsPage()
	popups := &popupStub{}

	ok := newNavigator(t, testConfig(), popups).Search(context.Background(), page, "intelligenza artificiale")

	assert.True(t, ok)
	assert.Equal(t, []string{"https://www.google.com"}, page.Navigated())
	assert.Equal(t, 1, popups.calls)
	assert.Equal(t, []string{"intelligenza artificiale"}, input.Filled())
	assert.Equal(t, []string{"Enter"}, input.Pressed())
}

func TestSearch_PrefersEarlierLocator(t *testing.T) {
	page, textarea := resultsPage()
	input := browsertest.NewElement("")
	page.Add("input[name='q']", input)

	require.True(t, newNavigator(t, testConfig(), nil).Search(context.Background(), page, "q"))
	assert.Equal(t, []string{"q"}, input.Filled())
	assert.Empty(t, textarea.Filled())
}

func TestSearch_Failures(t *testing.T) {
	tests := []struct {
		name  string
		setup func(p *browsertest.Page, input *browsertest.Element)
	}{
		{
			name:  "navigation fails",
			setup: func(p *browsertest.Page, _ *browsertest.Element) { p.NavigateErr = errors.New("net::ERR_NAME_NOT_RESOLVED") },
		},
		{
			name:  "input hidden",
			setup: func(_ *browsertest.Page, input *browsertest.Element) { input.Hidden = true },
		},
		{
			name:  "typing fails",
			setup: func(_ *browsertest.Page, input *browsertest.Element) { input.FillErr = errors.New("detached") },
		},
		{
			name:  "submit fails",
			setup: func(_ *browsertest.Page, input *browsertest.Element) { input.PressErr = errors.New("detached") },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, input := resultsPage()
			tt.setup(page, input)
			assert.False(t, newNavigator(t, testConfig(), nil).Search(context.Background(), page, "q"))
		})
	}
}

func TestSearch_ResultsNeverAppear(t *testing.T) {
	page := browsertest.NewPage()
	page.Add("input[name='q']", browsertest.NewElement(""))

	start := time.Now()
	ok := newNavigator(t, testConfig(), nil).Search(context.Background(), page, "q")
	assert.False(t, ok)
	assert.Less(t, time.Since(start), time.Second, "results wait is bounded")
}

func TestSearch_DeadlineBoundsEverything(t *testing.T) {
	page := browsertest.NewPage()
	page.Add("input[name='q']", browsertest.NewElement(""))

	cfg := testConfig()
	cfg.Deadline = 30 * time.Millisecond
	cfg.ResultsWait = time.Hour

	start := time.Now()
	assert.False(t, newNavigator(t, cfg, nil).Search(context.Background(), page, "q"))
	assert.Less(t, time.Since(start), time.Second)
}

func TestSearch_ExpiredContext(t *testing.T) {
	page, input := resultsPage()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.False(t, newNavigator(t, testConfig(), nil).Search(ctx, page, "q"))
	assert.Empty(t, input.Filled())
}
