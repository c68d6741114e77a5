package types

import "time"

// BrowserDriver selects the browser automation backend.
type BrowserDriver string

const (
	DriverChromedp   BrowserDriver = "chromedp"
	DriverPlaywright BrowserDriver = "playwright"
	DriverSnapshot   BrowserDriver = "snapshot"
)

// DefaultUserAgent is a desktop Chrome user agent used for both the browser
// session and article fetches.
const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// BrowserConfig holds settings for the automated browser session.
type BrowserConfig struct {
	// Driver selects chromedp, playwright, or snapshot.
	Driver BrowserDriver `json:"driver" yaml:"driver" mapstructure:"driver"`

	// Headless runs the browser without a window.
	Headless bool `json:"headless" yaml:"headless" mapstructure:"headless"`

	// ChromePath overrides the browser binary (empty = auto-detect).
	ChromePath string `json:"chrome_path,omitempty" yaml:"chrome_path,omitempty" mapstructure:"chrome_path"`

	UserAgent      string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
	Locale         string `json:"locale" yaml:"locale" mapstructure:"locale"`
	Timezone       string `json:"timezone" yaml:"timezone" mapstructure:"timezone"`
	AcceptLanguage string `json:"accept_language" yaml:"accept_language" mapstructure:"accept_language"`
	ViewportWidth  int    `json:"viewport_width" yaml:"viewport_width" mapstructure:"viewport_width"`
	ViewportHeight int    `json:"viewport_height" yaml:"viewport_height" mapstructure:"viewport_height"`

	// Permissions are granted to every page (e.g. "geolocation").
	Permissions []string `json:"permissions" yaml:"permissions" mapstructure:"permissions"`

	// InitScript replaces the built-in automation-masking script when set.
	InitScript string `json:"init_script,omitempty" yaml:"init_script,omitempty" mapstructure:"init_script"`

	// SnapshotPath is the HTML file served by the snapshot driver.
	SnapshotPath string `json:"snapshot_path,omitempty" yaml:"snapshot_path,omitempty" mapstructure:"snapshot_path"`
}

// SearchConfig holds settings for the search navigator.
type SearchConfig struct {
	// HomeURL is the search engine home page.
	HomeURL string `json:"home_url" yaml:"home_url" mapstructure:"home_url"`

	// Deadline bounds the whole search step (default 20s).
	Deadline time.Duration `json:"deadline" yaml:"deadline" mapstructure:"deadline"`

	// NavigateTimeout bounds the initial page load (default 10s).
	NavigateTimeout time.Duration `json:"navigate_timeout" yaml:"navigate_timeout" mapstructure:"navigate_timeout"`

	// ResultsWait bounds the wait for the results container (default 10s).
	ResultsWait time.Duration `json:"results_wait" yaml:"results_wait" mapstructure:"results_wait"`

	// SettleDelay lets the overview panel render after results appear (default 2s).
	SettleDelay time.Duration `json:"settle_delay" yaml:"settle_delay" mapstructure:"settle_delay"`
}

// ConsentConfig holds the popup resolver wait budget.
type ConsentConfig struct {
	InitialSettle time.Duration `json:"initial_settle" yaml:"initial_settle" mapstructure:"initial_settle"`
	DismissWait   time.Duration `json:"dismiss_wait" yaml:"dismiss_wait" mapstructure:"dismiss_wait"`
	CaptchaGrace  time.Duration `json:"captcha_grace" yaml:"captcha_grace" mapstructure:"captcha_grace"`
}

// OverviewConfig holds the overview extractor limits and thresholds.
type OverviewConfig struct {
	// Deadline bounds the whole extraction (default 25s).
	Deadline time.Duration `json:"deadline" yaml:"deadline" mapstructure:"deadline"`

	MaxPerLocator    int `json:"max_per_locator" yaml:"max_per_locator" mapstructure:"max_per_locator"`
	MaxFragments     int `json:"max_fragments" yaml:"max_fragments" mapstructure:"max_fragments"`
	MinFragmentChars int `json:"min_fragment_chars" yaml:"min_fragment_chars" mapstructure:"min_fragment_chars"`

	// DedupOverlap is the word-overlap ratio above which two long fragments
	// are duplicates (default 0.9).
	DedupOverlap float64 `json:"dedup_overlap" yaml:"dedup_overlap" mapstructure:"dedup_overlap"`

	// LongFragmentChars is the length above which substring and overlap
	// checks apply (default 100).
	LongFragmentChars int `json:"long_fragment_chars" yaml:"long_fragment_chars" mapstructure:"long_fragment_chars"`

	// MinOverlapWords is the word-set size above which the overlap ratio
	// applies (default 20).
	MinOverlapWords int `json:"min_overlap_words" yaml:"min_overlap_words" mapstructure:"min_overlap_words"`

	MinFrameChars    int `json:"min_frame_chars" yaml:"min_frame_chars" mapstructure:"min_frame_chars"`
	MinFallbackChars int `json:"min_fallback_chars" yaml:"min_fallback_chars" mapstructure:"min_fallback_chars"`
	MaxFallbackScan  int `json:"max_fallback_scan" yaml:"max_fallback_scan" mapstructure:"max_fallback_scan"`
	MaxClickableScan int `json:"max_clickable_scan" yaml:"max_clickable_scan" mapstructure:"max_clickable_scan"`

	// ClickTimeout bounds each click attempt (default 5s).
	ClickTimeout time.Duration `json:"click_timeout" yaml:"click_timeout" mapstructure:"click_timeout"`

	// ExpandWait is the re-render wait after a successful expand click (default 3s).
	ExpandWait time.Duration `json:"expand_wait" yaml:"expand_wait" mapstructure:"expand_wait"`

	// LocatorsFile overrides the embedded locator table.
	LocatorsFile string `json:"locators_file,omitempty" yaml:"locators_file,omitempty" mapstructure:"locators_file"`
}

// AnalysisConfig holds topic extraction and gap analysis settings.
type AnalysisConfig struct {
	// PartialMatchThreshold is the similarity a pair must strictly exceed to
	// count as a partial match (default 0.7).
	PartialMatchThreshold float64 `json:"partial_match_threshold" yaml:"partial_match_threshold" mapstructure:"partial_match_threshold"`

	// MaxFrequentTopics caps the frequency-ranked terms (default 20).
	MaxFrequentTopics int `json:"max_frequent_topics" yaml:"max_frequent_topics" mapstructure:"max_frequent_topics"`

	// Language selects recommendation wording: "en" or "it".
	Language string `json:"language" yaml:"language" mapstructure:"language"`
}

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	Timeout   time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
	UserAgent string        `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// ArticleMode selects how article text is extracted.
type ArticleMode string

const (
	ArticleSelectors   ArticleMode = "selectors"
	ArticleReadability ArticleMode = "readability"
)

// ArticleConfig holds settings for fetching target articles.
type ArticleConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	Mode          ArticleMode `json:"mode" yaml:"mode" mapstructure:"mode"`
	RespectRobots bool        `json:"respect_robots" yaml:"respect_robots" mapstructure:"respect_robots"`

	// Concurrency bounds parallel fetches in a batch (default 1).
	Concurrency int `json:"concurrency" yaml:"concurrency" mapstructure:"concurrency"`

	// MaxRetries bounds retries on HTTP 429/503 (default 2).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// PipelineConfig holds the request-level settings.
type PipelineConfig struct {
	// RequestDeadline bounds search plus extraction (default 45s).
	RequestDeadline time.Duration `json:"request_deadline" yaml:"request_deadline" mapstructure:"request_deadline"`

	// OutputDir receives JSON artifacts.
	OutputDir string `json:"output_dir" yaml:"output_dir" mapstructure:"output_dir"`

	// DBPath is the run-history SQLite database.
	DBPath string `json:"db_path" yaml:"db_path" mapstructure:"db_path"`
}

// LogConfig selects log verbosity and format.
type LogConfig struct {
	Level  string `json:"level" yaml:"level" mapstructure:"level"`
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// Config groups all stage configurations.
type Config struct {
	Browser  BrowserConfig  `json:"browser" yaml:"browser" mapstructure:"browser"`
	Search   SearchConfig   `json:"search" yaml:"search" mapstructure:"search"`
	Consent  ConsentConfig  `json:"consent" yaml:"consent" mapstructure:"consent"`
	Overview OverviewConfig `json:"overview" yaml:"overview" mapstructure:"overview"`
	Analysis AnalysisConfig `json:"analysis" yaml:"analysis" mapstructure:"analysis"`
	Article  ArticleConfig  `json:"article" yaml:"article" mapstructure:"article"`
	Pipeline PipelineConfig `json:"pipeline" yaml:"pipeline" mapstructure:"pipeline"`
	Log      LogConfig      `json:"log" yaml:"log" mapstructure:"log"`
}

// DefaultConfig returns the tuned defaults for every stage.
func DefaultConfig() Config {
	return Config{
		Browser: BrowserConfig{
			Driver:         DriverChromedp,
			Headless:       true,
			UserAgent:      DefaultUserAgent,
			Locale:         "it-IT",
			Timezone:       "Europe/Rome",
			AcceptLanguage: "it-IT,it;q=0.9,en;q=0.8",
			ViewportWidth:  1920,
			ViewportHeight: 1080,
			Permissions:    []string{"geolocation"},
		},
		Search: SearchConfig{
			HomeURL:         "https://www.google.com",
			Deadline:        20 * time.Second,
			NavigateTimeout: 10 * time.Second,
			ResultsWait:     10 * time.Second,
			SettleDelay:     2 * time.Second,
		},
		Consent: ConsentConfig{
			InitialSettle: 3 * time.Second,
			DismissWait:   2 * time.Second,
			CaptchaGrace:  10 * time.Second,
		},
		Overview: OverviewConfig{
			Deadline:          25 * time.Second,
			MaxPerLocator:     10,
			MaxFragments:      20,
			MinFragmentChars:  15,
			DedupOverlap:      0.9,
			LongFragmentChars: 100,
			MinOverlapWords:   20,
			MinFrameChars:     50,
			MinFallbackChars:  100,
			MaxFallbackScan:   5,
			MaxClickableScan:  5,
			ClickTimeout:      5 * time.Second,
			ExpandWait:        3 * time.Second,
		},
		Analysis: AnalysisConfig{
			PartialMatchThreshold: 0.7,
			MaxFrequentTopics:     20,
			Language:              "en",
		},
		Article: ArticleConfig{
			HTTPConfig: HTTPConfig{
				Timeout:   10 * time.Second,
				UserAgent: DefaultUserAgent,
			},
			Mode:        ArticleSelectors,
			Concurrency: 1,
			MaxRetries:  2,
		},
		Pipeline: PipelineConfig{
			RequestDeadline: 45 * time.Second,
			OutputDir:       "output",
			DBPath:          "output/gapfinder.db",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
