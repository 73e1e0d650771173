package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	EnvZyteAPIKey = "ZYTE_API_KEY"
	EnvOutputDir  = "UNRELEASED_OUTPUT_DIR"
)

var (
	ErrMissingAPIKey = errors.New("zyte fetcher requires an api key")
	ErrMissingBucket = errors.New("gcs storage requires a bucket")
)

type Config struct {
	LogLevel int `yaml:"log_level"`
	Workers  int `yaml:"workers"`

	Fetcher   FetcherConfig   `yaml:"fetcher"`
	HTTP      HTTPConfig      `yaml:"http"`
	Output    OutputConfig    `yaml:"output"`
	Transcode TranscodeConfig `yaml:"transcode"`
	Cover     CoverConfig     `yaml:"cover"`
	Storage   StorageConfig   `yaml:"storage"`
}

type FetcherConfig struct {
	// Type of page fetcher: "zyte", "rod" or "direct"
	Type string `yaml:"type"`

	ZyteAPIKey   string        `yaml:"zyte_api_key"`
	ZyteEndpoint string        `yaml:"zyte_endpoint"`
	Timeout      time.Duration `yaml:"timeout"`

	// BrowserHTML fetches the tracker page as a rendered DOM. Host pages
	// that need scripts are always rendered.
	BrowserHTML bool `yaml:"browser_html"`

	// Rod options. An empty control URL launches a local browser.
	ChromeURL string `yaml:"chrome_url"`
	ChromeBin string `yaml:"chrome_bin"`
}

type HTTPConfig struct {
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
}

type OutputConfig struct {
	// Root directory. Empty means the user's music directory.
	Dir              string `yaml:"dir"`
	FilenameTemplate string `yaml:"filename_template"`
	PreferOGFilename bool   `yaml:"prefer_og_filename"`
}

type TranscodeConfig struct {
	Binary  string        `yaml:"binary"`
	Timeout time.Duration `yaml:"timeout"`
}

type CoverConfig struct {
	MaxSize int `yaml:"max_size"`
}

type StorageConfig struct {
	// Type of storage: "local" or "gcs"
	Type string `yaml:"type"`

	// GCS options
	Bucket          string `yaml:"bucket"`
	ObjectPrefix    string `yaml:"object_prefix"`
	CredentialsFile string `yaml:"credentials_file"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

// Load reads the YAML file at path, applies defaults and then environment
// overrides. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	config := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}

		// Unmarshal the YAML data into the struct
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	config.setDefaults()
	config.applyEnv()

	return config, nil
}

func (c *Config) setDefaults() {
	if c.Workers <= 0 {
		c.Workers = 1
	}

	if c.Fetcher.Type == "" {
		c.Fetcher.Type = "zyte"
	}
	if c.Fetcher.ZyteEndpoint == "" {
		c.Fetcher.ZyteEndpoint = "https://api.zyte.com/v1/extract"
	}
	if c.Fetcher.Timeout <= 0 {
		c.Fetcher.Timeout = 2 * time.Minute
	}

	if c.HTTP.Timeout <= 0 {
		c.HTTP.Timeout = 10 * time.Minute
	}

	if c.Transcode.Binary == "" {
		c.Transcode.Binary = "ffmpeg"
	}
	if c.Transcode.Timeout <= 0 {
		c.Transcode.Timeout = 5 * time.Minute
	}

	if c.Cover.MaxSize <= 0 {
		c.Cover.MaxSize = 1400
	}

	if c.Storage.Type == "" {
		c.Storage.Type = "local"
	}
	if c.Storage.ObjectPrefix == "" {
		c.Storage.ObjectPrefix = "unreleased"
	}
}

func (c *Config) applyEnv() {
	if key := os.Getenv(EnvZyteAPIKey); key != "" {
		c.Fetcher.ZyteAPIKey = key
	}
	if dir := os.Getenv(EnvOutputDir); dir != "" {
		c.Output.Dir = dir
	}
}

// Validate reports settings that make a run impossible.
func (c *Config) Validate() error {
	switch c.Fetcher.Type {
	case "zyte":
		if c.Fetcher.ZyteAPIKey == "" {
			return fmt.Errorf("%w: set %s or fetcher.zyte_api_key", ErrMissingAPIKey, EnvZyteAPIKey)
		}
	case "rod", "direct":
	default:
		return fmt.Errorf("unknown fetcher type: %q", c.Fetcher.Type)
	}

	switch c.Storage.Type {
	case "local":
	case "gcs":
		if c.Storage.Bucket == "" {
			return ErrMissingBucket
		}
	default:
		return fmt.Errorf("unknown storage type: %q", c.Storage.Type)
	}

	return nil
}
