package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads variables from the given files into the process
// environment. Missing files are ignored; existing variables win.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", file, err)
		}
	}
	return nil
}

// EnvString returns the trimmed value of key and whether it was set.
func EnvString(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}
	return value, true
}

// EnvInt parses key as an integer.
func EnvInt(key string) (int, bool, error) {
	raw, ok := EnvString(key)
	if !ok {
		return 0, false, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", key, err)
	}
	return value, true, nil
}

// EnvBool parses key as a boolean.
func EnvBool(key string) (bool, bool, error) {
	raw, ok := EnvString(key)
	if !ok {
		return false, false, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false, fmt.Errorf("%s: %w", key, err)
	}
	return value, true, nil
}

// EnvDuration parses key as a time.Duration ("30s", "500ms").
func EnvDuration(key string) (time.Duration, bool, error) {
	raw, ok := EnvString(key)
	if !ok {
		return 0, false, nil
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", key, err)
	}
	return value, true, nil
}

// ApplyEnv overrides cfg with CNKI_* variables.
func ApplyEnv(cfg *Config) error {
	strs := map[string]*string{
		"CNKI_BASE_URL":     &cfg.BaseURL,
		"CNKI_INPUT":        &cfg.InputFile,
		"CNKI_OUTPUT":       &cfg.OutputFile,
		"CNKI_FORMAT":       &cfg.OutputFormat,
		"CNKI_CHROME_PATH":  &cfg.ChromePath,
		"CNKI_METRICS_ADDR": &cfg.MetricsAddr,
		"CNKI_USER_AGENT":   &cfg.UserAgent,
	}
	for key, dst := range strs {
		if value, ok := EnvString(key); ok {
			*dst = value
		}
	}

	if value, ok, err := EnvBool("CNKI_HEADLESS"); err != nil {
		return err
	} else if ok {
		cfg.Headless = value
	}

	durations := map[string]*time.Duration{
		"CNKI_NAVIGATION_TIMEOUT": &cfg.NavigationTimeout,
		"CNKI_WAIT_TIMEOUT":       &cfg.WaitTimeout,
		"CNKI_RECORD_INTERVAL":    &cfg.RecordInterval,
	}
	for key, dst := range durations {
		value, ok, err := EnvDuration(key)
		if err != nil {
			return err
		}
		if ok {
			*dst = value
		}
	}

	if value, ok, err := EnvInt("CNKI_MAX_PAGES"); err != nil {
		return err
	} else if ok {
		cfg.MaxPages = value
	}
	return nil
}
