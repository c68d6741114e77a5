// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package consent

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/gapfinder/internal/browser"
	"github.com/pdiddy/gapfinder/internal/browser/browsertest"
	"github.com/pdiddy/gapfinder/internal/locate"
	"github.com/pdiddy/gapfinder/pkg/types"
)

func newResolver(t *testing.T) *Resolver {
	t.Helper()
	tables, err := locate.Default()
	require.NoError(t, err)
	// Zero waits keep tests instant.
	return New(types.ConsentConfig{}, tables, zerolog.Nop())
}

func TestResolve_NoPopup(t *testing.T) {
	page := browsertest.NewPage()
	assert.False(t, newResolver(t).Resolve(context.Background(), page))
}

func TestResolve_TopLevelButton(t *testing.T) {
	page := browsertest.NewPage()
	hidden := browsertest.NewElement("Accetta tutto").Hide()
	btn := browsertest.NewElement("Accetta tutto")
	page.Add("#L2AGLb", hidden)
	page.Add("button[aria-label*='Accept all']", btn)

	assert.True(t, newResolver(t).Resolve(context.Background(), page))
	assert.Empty(t, hidden.Clicks())
	assert.Equal(t, []string{"click"}, btn.Clicks())
}

func TestResolve_SkipsFailingClick(t *testing.T) {
	page := browsertest.NewPage()
	stuck := browsertest.NewElement("Accept")
	stuck.ClickErr = browser.ErrNotInteractable
	page.Add("#L2AGLb", stuck)
	ok := browsertest.NewElement("Accept")
	page.Add("button[aria-label*='Accept']", ok)

	assert.True(t, newResolver(t).Resolve(context.Background(), page))
	assert.Len(t, stuck.Clicks(), 1)
	assert.Len(t, ok.Clicks(), 1)
}

func TestResolve_TextLocator(t *testing.T) {
	page := browsertest.NewPage()
	btn := browsertest.NewElement("I agree")
	page.Add("button", browsertest.NewElement("Settings"), btn)

	assert.True(t, newResolver(t).Resolve(context.Background(), page))
	assert.Len(t, btn.Clicks(), 1)
}

func TestResolve_ConsentFrame(t *testing.T) {
	page := browsertest.NewPage()
	doc := &browsertest.Scope{}
	btn := browsertest.NewElement("Accept")
	doc.Add("button", btn)
	frame := browsertest.NewElement("")
	frame.Doc = doc
	page.Add("iframe[src*='consent']", frame)

	assert.True(t, newResolver(t).Resolve(context.Background(), page))
	assert.Len(t, btn.Clicks(), 1)
}

func TestResolve_FrameWithoutDocument(t *testing.T) {
	page := browsertest.NewPage()
	page.Add("iframe[src*='consent']", browsertest.NewElement(""))

	assert.False(t, newResolver(t).Resolve(context.Background(), page))
}

func TestResolve_Overlay(t *testing.T) {
	page := browsertest.NewPage()
	cancel := browsertest.NewElement("Cancel")
	hidden := browsertest.NewElement("OK").Hide()
	agree := browsertest.NewElement("Agree and continue")
	page.Add("div[role='dialog'] button", cancel, hidden, agree)

	assert.True(t, newResolver(t).Resolve(context.Background(), page))
	assert.Empty(t, cancel.Clicks())
	assert.Empty(t, hidden.Clicks())
	assert.Len(t, agree.Clicks(), 1)
}

func TestResolve_QueryErrorsSwallowed(t *testing.T) {
	page := browsertest.NewPage()
	page.Fail("#L2AGLb", errors.New("boom"))
	page.Fail("iframe[src*='consent']", errors.New("boom"))
	page.Fail("div[role='dialog'] button", errors.New("boom"))

	assert.False(t, newResolver(t).Resolve(context.Background(), page))
}

func TestResolve_CaptchaDoesNotBlock(t *testing.T) {
	page := browsertest.NewPage()
	captcha := browsertest.NewElement("")
	page.Add("iframe[src*='recaptcha']", captcha)

	assert.False(t, newResolver(t).Resolve(context.Background(), page))
	assert.Empty(t, captcha.Clicks(), "captcha is never interacted with")
}

func TestResolve_CancelledContext(t *testing.T) {
	page := browsertest.NewPage()
	btn := browsertest.NewElement("Accept")
	page.Add("#L2AGLb", btn)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, newResolver(t).Resolve(ctx, page))
	assert.Empty(t, btn.Clicks())
}
