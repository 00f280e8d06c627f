package config

import (
	"encoding/json"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vango-dev/querysync/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "querysync.json"

	// DefaultSearchDebounce is the quiet period before a search is sent.
	DefaultSearchDebounce = "500ms"

	// DefaultStartURL is the URL the demo router starts at.
	DefaultStartURL = "/libraries"

	// DefaultLogLevel is the default slog level.
	DefaultLogLevel = "info"

	// DefaultMetricsNamespace is the default Prometheus namespace.
	DefaultMetricsNamespace = "querysync"
)

// Config represents the complete querysync.json configuration.
type Config struct {
	// Search contains list view search configuration.
	Search SearchConfig `json:"search,omitempty"`

	// Router contains in-memory router configuration.
	Router RouterConfig `json:"router,omitempty"`

	// Dataset contains library dataset configuration.
	Dataset DatasetConfig `json:"dataset,omitempty"`

	// Log contains logging configuration.
	Log LogConfig `json:"log,omitempty"`

	// Metrics contains Prometheus metrics configuration.
	Metrics MetricsConfig `json:"metrics,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// SearchConfig contains list view search settings.
type SearchConfig struct {
	// Debounce is the quiet period before a search is sent (e.g., "500ms").
	Debounce string `json:"debounce,omitempty"`

	// Param is the query parameter the search term is bound to.
	Param string `json:"param,omitempty"`
}

// RouterConfig contains in-memory router settings.
type RouterConfig struct {
	// StartURL is the URL the router starts at.
	StartURL string `json:"startURL,omitempty"`
}

// DatasetConfig contains library dataset settings.
type DatasetConfig struct {
	// Fixture is the path to a JSON file of library rows, or an
	// s3://bucket/key location. Empty uses the built-in sample rows.
	Fixture string `json:"fixture,omitempty"`

	// Region is the S3 region of an s3:// fixture.
	Region string `json:"region,omitempty"`

	// Endpoint overrides the S3 endpoint of an s3:// fixture.
	Endpoint string `json:"endpoint,omitempty"`

	// Cells are the row cells kept when loading rows.
	Cells []string `json:"cells,omitempty"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level,omitempty"`
}

// MetricsConfig contains Prometheus metrics settings.
type MetricsConfig struct {
	// Enabled turns metrics collection on.
	Enabled bool `json:"enabled,omitempty"`

	// Namespace is the metrics namespace.
	Namespace string `json:"namespace,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Search: SearchConfig{
			Debounce: DefaultSearchDebounce,
			Param:    "search",
		},
		Router: RouterConfig{
			StartURL: DefaultStartURL,
		},
		Dataset: DatasetConfig{
			Cells: []string{"FullName", "ObjectAddress"},
		},
		Log: LogConfig{
			Level: DefaultLogLevel,
		},
		Metrics: MetricsConfig{
			Namespace: DefaultMetricsNamespace,
		},
	}
}

// Load reads configuration from the specified directory.
// It looks for querysync.json in the directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("Q021").
				WithDetail("No querysync.json found in " + filepath.Dir(path)).
				WithSuggestion("Run 'querysync config init' or create querysync.json manually")
		}
		return nil, errors.New("Q020").Wrap(err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("Q020").
			WithDetail("Failed to parse querysync.json: " + err.Error()).
			WithSuggestion("Check that querysync.json is valid JSON")
	}

	cfg.configPath = path
	cfg.applyDefaults()

	return cfg, nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("Q020").Wrap(err)
	}

	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("Q020").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Search.Debounce == "" {
		c.Search.Debounce = DefaultSearchDebounce
	}
	if c.Search.Param == "" {
		c.Search.Param = "search"
	}
	if c.Router.StartURL == "" {
		c.Router.StartURL = DefaultStartURL
	}
	if c.Dataset.Cells == nil {
		c.Dataset.Cells = []string{"FullName", "ObjectAddress"}
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultMetricsNamespace
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	d, err := time.ParseDuration(c.Search.Debounce)
	if err != nil || d < 0 {
		return errors.New("Q020").
			WithDetailf("search.debounce %q is not a non-negative duration", c.Search.Debounce)
	}
	if _, err := url.Parse(c.Router.StartURL); err != nil {
		return errors.New("Q020").
			WithDetailf("router.startURL %q is not a valid URL", c.Router.StartURL).
			Wrap(err)
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// SearchDebounce returns the parsed search debounce. Invalid values fall
// back to the default.
func (c *Config) SearchDebounce() time.Duration {
	if d, err := time.ParseDuration(c.Search.Debounce); err == nil && d >= 0 {
		return d
	}
	d, _ := time.ParseDuration(DefaultSearchDebounce)
	return d
}

// FixturePath returns the absolute path to the dataset fixture, or "" when
// none is configured. s3:// locations are returned unchanged.
func (c *Config) FixturePath() string {
	f := c.Dataset.Fixture
	if f == "" || filepath.IsAbs(f) || strings.HasPrefix(f, "s3://") {
		return c.Dataset.Fixture
	}
	return filepath.Join(c.Dir(), c.Dataset.Fixture)
}

// LogLevel returns the configured slog level, or info if it is invalid.
func (c *Config) LogLevel() slog.Level {
	level, err := ParseLevel(c.Log.Level)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

// ParseLevel parses a log level name.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, errors.New("Q020").
			WithDetailf("log level %q is not one of debug, info, warn, error", s)
	}
	return level, nil
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}

// FindProjectRoot walks up directories to find the project root.
// Returns the directory containing querysync.json, or an error if not found.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("Q021").
				WithDetail("No querysync.json found in " + startDir + " or any parent directory")
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads configuration from the current working
// directory or one of its parents. A missing file yields the defaults.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	root, err := FindProjectRoot(wd)
	if err != nil {
		if errors.IsCode(err, "Q021") {
			return New(), nil
		}
		return nil, err
	}

	return Load(root)
}
