package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir  string `toml:"data_dir"`
	LogDir   string `toml:"log_dir"`
	APIBind  string `toml:"api_bind"`
	APIToken string `toml:"api_token"`
}

// Feed contains configuration for the authoritative act feed (the production
// planner export).
type Feed struct {
	URL            string `toml:"url"`
	Username       string `toml:"username"`
	Password       string `toml:"password"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Website contains configuration for the public festival website API.
type Website struct {
	APIURL         string `toml:"api_url"`
	Stage          string `toml:"stage"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Refresh contains configuration for the periodic background refresh jobs.
type Refresh struct {
	Enabled                     bool `toml:"enabled"`
	ActsIntervalMinutes         int  `toml:"acts_interval_minutes"`
	DescriptionsIntervalMinutes int  `toml:"descriptions_interval_minutes"`
}

// Matching contains configuration for act name matching against the website.
type Matching struct {
	Threshold float64 `toml:"threshold"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Errors         bool   `toml:"errors"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for the backstage backend.
//
// Configuration sections by subsystem:
//   - Paths: data/log directories, API bind address and write token
//   - Feed: authoritative act list source and credentials
//   - Website: public festival website API and target stage
//   - Refresh: background refresh intervals
//   - Matching: act name similarity threshold
//   - Notifications: ntfy error reporting
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Feed          Feed          `toml:"feed"`
	Website       Website       `toml:"website"`
	Refresh       Refresh       `toml:"refresh"`
	Matching      Matching      `toml:"matching"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/backstage/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The boolean reports
// whether a config file was actually found.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("backstage.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories required for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DocumentPath returns the absolute path of a persisted document inside the
// data directory.
func (c *Config) DocumentPath(name string) string {
	return filepath.Join(c.Paths.DataDir, name)
}

// ActsInterval returns the acts refresh interval as a duration.
func (c *Config) ActsInterval() time.Duration {
	return time.Duration(c.Refresh.ActsIntervalMinutes) * time.Minute
}

// DescriptionsInterval returns the descriptions refresh interval as a
// duration.
func (c *Config) DescriptionsInterval() time.Duration {
	return time.Duration(c.Refresh.DescriptionsIntervalMinutes) * time.Minute
}

// LogFormat implements logging.LogConfig.
func (c *Config) LogFormat() string { return c.Logging.Format }

// LogLevel implements logging.LogConfig.
func (c *Config) LogLevel() string { return c.Logging.Level }

// LogDir implements logging.LogConfig.
func (c *Config) LogDir() string { return c.Paths.LogDir }

func (c *Config) normalize() error {
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	c.Feed.URL = strings.TrimSpace(c.Feed.URL)
	c.Website.APIURL = strings.TrimRight(strings.TrimSpace(c.Website.APIURL), "/")
	c.Website.Stage = strings.TrimSpace(c.Website.Stage)
	if c.Website.Stage == "" {
		c.Website.Stage = defaultStage
	}

	for _, field := range []*string{&c.Paths.DataDir, &c.Paths.LogDir} {
		expanded, err := expandPath(*field)
		if err != nil {
			return err
		}
		*field = expanded
	}
	return nil
}

// Validate checks configuration constraints that would otherwise surface as
// confusing runtime failures.
func (c *Config) Validate() error {
	if c.Paths.APIBind == "" {
		return errors.New("config: api_bind must not be empty")
	}
	if c.Matching.Threshold <= 0 || c.Matching.Threshold > 1 {
		return fmt.Errorf("config: matching threshold %v outside (0, 1]", c.Matching.Threshold)
	}
	if c.Refresh.Enabled {
		if c.Feed.URL == "" {
			return errors.New("config: refresh enabled but feed url not set")
		}
		if c.Refresh.ActsIntervalMinutes <= 0 {
			return fmt.Errorf("config: acts refresh interval %d must be positive", c.Refresh.ActsIntervalMinutes)
		}
		if c.Refresh.DescriptionsIntervalMinutes <= 0 {
			return fmt.Errorf("config: descriptions refresh interval %d must be positive", c.Refresh.DescriptionsIntervalMinutes)
		}
	}
	return nil
}

// ExpandPath expands a leading ~ and returns the absolute form of a path.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
