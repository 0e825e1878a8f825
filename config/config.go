package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"
)

// Config holds crawler configuration.
type Config struct {
	BaseURL      string
	InputFile    string
	OutputFile   string
	OutputFormat string // xlsx, csv, json, or dual; empty means infer from OutputFile
	ChromePath   string
	Headless     bool
	Verbose      bool
	MetricsAddr  string
	UserAgent    string

	NavigationTimeout time.Duration
	WaitTimeout       time.Duration
	NetworkIdle       time.Duration

	// Settle delays are fallbacks applied before a condition poll, not a
	// substitute for one.
	AdvancedSearchSettle time.Duration
	DetailSettle         time.Duration
	ListingSettle        time.Duration

	FormKeyDelay   time.Duration
	TopicKeyDelay  time.Duration
	RecordInterval time.Duration

	PageSizeOption int
	MaxPages       int

	Workers            int
	PipelineBufferSize int
	BatchSize          int
	DedupeMaxSize      int
}

// DefaultConfig returns the timings the target site has been observed to tolerate.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:              "https://www.cnki.net/",
		InputFile:            "input.xlsx",
		OutputFile:           "output.xlsx",
		OutputFormat:         "",
		Headless:             false,
		Verbose:              false,
		NavigationTimeout:    60 * time.Second,
		WaitTimeout:          30 * time.Second,
		NetworkIdle:          500 * time.Millisecond,
		AdvancedSearchSettle: 500 * time.Millisecond,
		DetailSettle:         100 * time.Millisecond,
		ListingSettle:        500 * time.Millisecond,
		FormKeyDelay:         50 * time.Millisecond,
		TopicKeyDelay:        10 * time.Millisecond,
		RecordInterval:       0,
		PageSizeOption:       2,
		MaxPages:             0,
		Workers:              1,
		PipelineBufferSize:   256,
		BatchSize:            50,
		DedupeMaxSize:        10000,
	}
}

// ResolvedFormat returns OutputFormat, falling back to the output file extension.
func (c *Config) ResolvedFormat() string {
	if c.OutputFormat != "" {
		return strings.ToLower(c.OutputFormat)
	}
	switch strings.ToLower(filepath.Ext(c.OutputFile)) {
	case ".csv":
		return "csv"
	case ".json", ".jsonl":
		return "json"
	default:
		return "xlsx"
	}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}

	parsedURL, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("base URL must include a host")
	}

	if c.OutputFile == "" {
		return fmt.Errorf("output file cannot be empty")
	}
	switch c.ResolvedFormat() {
	case "xlsx", "csv", "json", "dual":
	default:
		return fmt.Errorf("output format must be xlsx, csv, json, or dual")
	}

	if c.NavigationTimeout <= 0 {
		return fmt.Errorf("navigation timeout must be positive")
	}
	if c.WaitTimeout <= 0 {
		return fmt.Errorf("wait timeout must be positive")
	}
	if c.NetworkIdle < 0 {
		return fmt.Errorf("network idle window cannot be negative")
	}
	for name, d := range map[string]time.Duration{
		"advanced search settle": c.AdvancedSearchSettle,
		"detail settle":          c.DetailSettle,
		"listing settle":         c.ListingSettle,
		"form key delay":         c.FormKeyDelay,
		"topic key delay":        c.TopicKeyDelay,
		"record interval":        c.RecordInterval,
	} {
		if d < 0 {
			return fmt.Errorf("%s cannot be negative", name)
		}
	}
	if c.PageSizeOption < 0 {
		return fmt.Errorf("page size option cannot be negative")
	}
	if c.MaxPages < 0 {
		return fmt.Errorf("max pages cannot be negative")
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive")
	}
	if c.PipelineBufferSize <= 0 {
		return fmt.Errorf("pipeline buffer size must be positive")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive")
	}
	if c.DedupeMaxSize <= 0 {
		return fmt.Errorf("dedupe max size must be positive")
	}

	return nil
}
