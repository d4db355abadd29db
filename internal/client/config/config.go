package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/moodjournal/internal/timex"
)

// Config holds runtime settings for the client.
//
// Fields:
//   - ServerURL: base URL of the REST API.
//   - DBPath: SQLite file holding the persisted session.
//   - RequestTimeout: per-request HTTP timeout.
//   - LegacyECB: read and write entries with the old deterministic ECB
//     format. Only for data produced by the browser client.
//   - LogLevel: diagnostics written to stderr.
type Config struct {
	ServerURL      string
	DBPath         string
	RequestTimeout time.Duration
	LegacyECB      bool
	LogLevel       string
}

// userHomeDir is a seam for tests.
var userHomeDir = os.UserHomeDir

func (c *Config) LoadDefaults() {
	c.ServerURL = "http://localhost:4000"
	c.RequestTimeout = 15 * time.Second
	c.LegacyECB = false
	c.LogLevel = "warn"

	c.DBPath = "moodjournal.db"
	if home, err := userHomeDir(); err == nil && home != "" {
		c.DBPath = filepath.Join(home, ".moodjournal", "client.db")
	}
}

// JsonConfig is the on-disk shape. Absent fields leave values untouched.
type JsonConfig struct {
	ServerURL      *string         `json:"server_url"`
	DBPath         *string         `json:"db_path"`
	RequestTimeout *timex.Duration `json:"request_timeout"`
	LegacyECB      *bool           `json:"legacy_ecb"`
	LogLevel       *string         `json:"log_level"`
}

// ApplyFile overlays values from a JSON file. An empty path is a no-op.
func (c *Config) ApplyFile(path string) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	if jc.ServerURL != nil {
		c.ServerURL = *jc.ServerURL
	}
	if jc.DBPath != nil {
		c.DBPath = *jc.DBPath
	}
	if jc.RequestTimeout != nil {
		c.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.LegacyECB != nil {
		c.LegacyECB = *jc.LegacyECB
	}
	if jc.LogLevel != nil {
		c.LogLevel = *jc.LogLevel
	}
	return nil
}

func (c *Config) Validate() error {
	var errs []error
	u, err := url.Parse(c.ServerURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("server url %q must be an absolute http(s) URL", c.ServerURL))
	}
	if c.DBPath == "" {
		errs = append(errs, errors.New("db path is empty"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}
	return errors.Join(errs...)
}
