package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
//
// A Config is loaded and validated once per run and never re-read mid-run;
// every component receives it by value through the engine.
type Config struct {
	Spotify    SpotifyConfig    `toml:"spotify"`
	Extraction ExtractionConfig `toml:"extraction"`
	Output     OutputConfig     `toml:"output"`
	Paths      PathsConfig      `toml:"paths"`
	Registry   RegistryConfig   `toml:"registry"`
	Transform  TransformConfig  `toml:"transform"`
}

// SpotifyConfig contains Spotify API credentials for the client-credentials grant.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
}

// ExtractionConfig bounds a single extraction call.
type ExtractionConfig struct {
	Limit          int     `toml:"limit"`
	Country        string  `toml:"country"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
	RateLimit      float64 `toml:"rate_limit"`
	FetchTracks    bool    `toml:"fetch_tracks"`
}

// OutputConfig controls the processed file format and naming.
type OutputConfig struct {
	Format string `toml:"format"`
	Prefix string `toml:"prefix"`
}

// PathsConfig contains the three data directories of the batch cycle.
type PathsConfig struct {
	Raw       string `toml:"raw"`
	Processed string `toml:"processed"`
	Final     string `toml:"final"`
}

// RegistryConfig contains batch registry database settings.
type RegistryConfig struct {
	Path string `toml:"path"`
}

// TransformConfig contains transformation guardrails.
type TransformConfig struct {
	MaxSkipRatio float64 `toml:"max_skip_ratio"`
}

// Output formats accepted by [Config.Validate].
const (
	FormatCSV     = "csv"
	FormatParquet = "parquet"
)

// LoadConfig reads and parses a TOML configuration file from the specified
// path. The file is decoded over [DefaultConfig], so keys the file omits keep
// their documented defaults. Credentials have no default: the example
// placeholders are cleared first so an omitted [spotify] table still fails
// validation.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read config file: %v", ErrMissingConfig, err)
	}

	config := DefaultConfig()
	config.Spotify = SpotifyConfig{}
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	// Check if file already exists
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	// Write the embedded example config to the file
	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks every constraint and reports all violations at once,
// joined into a single [ErrInvalidConfig] so the caller sees the full list
// rather than fixing one field per run.
func (c *Config) Validate() error {
	var violations []string

	if c.Spotify.ClientID == "" {
		violations = append(violations, "spotify.client_id is required")
	}
	if c.Spotify.ClientSecret == "" {
		violations = append(violations, "spotify.client_secret is required")
	}
	if c.Extraction.Limit <= 0 {
		violations = append(violations, fmt.Sprintf("extraction.limit must be positive, got %d", c.Extraction.Limit))
	}
	if c.Extraction.TimeoutSeconds <= 0 {
		violations = append(violations, fmt.Sprintf("extraction.timeout_seconds must be positive, got %d", c.Extraction.TimeoutSeconds))
	}
	if c.Extraction.RateLimit <= 0 {
		violations = append(violations, fmt.Sprintf("extraction.rate_limit must be positive, got %v", c.Extraction.RateLimit))
	}
	if c.Output.Format != FormatCSV && c.Output.Format != FormatParquet {
		violations = append(violations, fmt.Sprintf("output.format must be %q or %q, got %q", FormatCSV, FormatParquet, c.Output.Format))
	}
	if c.Output.Prefix == "" {
		violations = append(violations, "output.prefix is required")
	}
	if c.Paths.Raw == "" {
		violations = append(violations, "paths.raw is required")
	}
	if c.Paths.Processed == "" {
		violations = append(violations, "paths.processed is required")
	}
	if c.Paths.Final == "" {
		violations = append(violations, "paths.final is required")
	}
	if c.Transform.MaxSkipRatio < 0 || c.Transform.MaxSkipRatio > 1 {
		violations = append(violations, fmt.Sprintf("transform.max_skip_ratio must be between 0 and 1, got %v", c.Transform.MaxSkipRatio))
	}

	if len(violations) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(violations, "; "))
	}
	return nil
}
