package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultBaseURL is the Tumblr API root
	DefaultBaseURL = "https://api.tumblr.com"

	// MaxPageSize is the largest page the likes endpoint serves
	MaxPageSize = 20
)

// Config holds all configuration options for the likes archiver
type Config struct {
	// Tumblr API access
	Tumblr TumblrConfig `yaml:"tumblr" json:"tumblr"`

	// Output locations
	Output OutputConfig `yaml:"output" json:"output"`

	// Media transfer settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// API request pacing
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`

	// Run mode selected on the command line; never read from files
	Mode ModeConfig `yaml:"-" json:"-"`
}

// TumblrConfig holds API credentials and the target blog
type TumblrConfig struct {
	APIKey   string `yaml:"api_key" json:"api_key"`
	BlogName string `yaml:"blog_name" json:"blog_name"`
	BaseURL  string `yaml:"base_url" json:"base_url"`
	PageSize int    `yaml:"page_size" json:"page_size"`
}

// OutputConfig holds the download and export locations
type OutputConfig struct {
	BaseDirectory   string `yaml:"base_directory" json:"base_directory"`
	ExportDirectory string `yaml:"export_directory" json:"export_directory"`
	WriteManifest   bool   `yaml:"write_manifest" json:"write_manifest"`
}

// DownloadConfig holds media transfer settings
type DownloadConfig struct {
	Timeout   time.Duration `yaml:"timeout" json:"timeout"`
	UserAgent string        `yaml:"user_agent" json:"user_agent"`
}

// RateLimitConfig holds API request pacing
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// ModeConfig selects what the run does with the collected posts
type ModeConfig struct {
	DumpPath    string
	RestorePath string
	ExportPath  string
	Verbose     bool

	// flags given with an empty path
	emptyPaths []string
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Tumblr: TumblrConfig{
			BaseURL:  DefaultBaseURL,
			PageSize: MaxPageSize,
		},
		Output: OutputConfig{
			BaseDirectory:   "downloads",
			ExportDirectory: "export",
			WriteManifest:   true,
		},
		Download: DownloadConfig{
			Timeout:   60 * time.Second,
			UserAgent: "tumblrlikes/1.0",
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 60,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if apiKey := os.Getenv("TUMBLR_API_KEY"); apiKey != "" {
		c.Tumblr.APIKey = apiKey
	}
	if blog := os.Getenv("TUMBLRLIKES_BLOG"); blog != "" {
		c.Tumblr.BlogName = blog
	}
	if baseURL := os.Getenv("TUMBLRLIKES_BASE_URL"); baseURL != "" {
		c.Tumblr.BaseURL = baseURL
	}
	if outputDir := os.Getenv("TUMBLRLIKES_OUTPUT_DIR"); outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}
	if exportDir := os.Getenv("TUMBLRLIKES_EXPORT_DIR"); exportDir != "" {
		c.Output.ExportDirectory = exportDir
	}
	if rpm := os.Getenv("TUMBLRLIKES_REQUESTS_PER_MINUTE"); rpm != "" {
		val, err := strconv.Atoi(rpm)
		if err != nil {
			return fmt.Errorf("invalid TUMBLRLIKES_REQUESTS_PER_MINUTE: %w", err)
		}
		c.RateLimit.RequestsPerMinute = val
	}
	if timeout := os.Getenv("TUMBLRLIKES_DOWNLOAD_TIMEOUT"); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return fmt.Errorf("invalid TUMBLRLIKES_DOWNLOAD_TIMEOUT: %w", err)
		}
		c.Download.Timeout = d
	}
	if logLevel := os.Getenv("TUMBLRLIKES_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFile := os.Getenv("TUMBLRLIKES_LOG_FILE"); logFile != "" {
		c.Logging.File = logFile
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = findConfigFile()
		if path == "" {
			return nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".tumblrlikes.yaml",
		".tumblrlikes.yml",
		filepath.Join(home, ".config", "tumblrlikes", "config.yaml"),
		filepath.Join(home, ".config", "tumblrlikes", "config.yml"),
		filepath.Join(home, ".tumblrlikes.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if apiKey, ok := flags["api-key"].(string); ok && apiKey != "" {
		c.Tumblr.APIKey = apiKey
	}
	if blog, ok := flags["blog"].(string); ok && blog != "" {
		c.Tumblr.BlogName = blog
	}
	if dir, ok := flags["dir"].(string); ok && dir != "" {
		c.Output.BaseDirectory = dir
	}
	for name, target := range map[string]*string{
		"dump":   &c.Mode.DumpPath,
		"load":   &c.Mode.RestorePath,
		"export": &c.Mode.ExportPath,
	} {
		path, ok := flags[name].(string)
		if !ok {
			continue
		}
		if path == "" {
			c.Mode.emptyPaths = append(c.Mode.emptyPaths, name)
		}
		*target = path
	}
	sort.Strings(c.Mode.emptyPaths)
	if verbose, ok := flags["verbose"].(bool); ok && verbose {
		c.Mode.Verbose = true
		c.Logging.Level = "debug"
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Validate checks the structural validity of the configuration
func (c *Config) Validate() error {
	var errs []error

	if c.Tumblr.BaseURL == "" {
		errs = append(errs, errors.New("API base URL is required"))
	}
	if c.Tumblr.PageSize <= 0 || c.Tumblr.PageSize > MaxPageSize {
		errs = append(errs, fmt.Errorf("page size must be between 1 and %d", MaxPageSize))
	}
	if c.Output.BaseDirectory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	if c.Output.ExportDirectory == "" {
		errs = append(errs, errors.New("export directory is required"))
	}
	if c.Download.Timeout <= 0 {
		errs = append(errs, errors.New("download timeout must be positive"))
	}
	if c.RateLimit.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	for _, name := range c.Mode.emptyPaths {
		errs = append(errs, fmt.Errorf("--%s requires a file path", name))
	}
	if c.Mode.DumpPath != "" && c.Mode.RestorePath != "" {
		errs = append(errs, errors.New("--dump and --load cannot be used together"))
	}
	if c.Mode.DumpPath != "" && c.Mode.ExportPath != "" {
		errs = append(errs, errors.New("--dump and --export cannot be used together"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// NeedsAPI reports whether the run fetches likes from the API
func (c *Config) NeedsAPI() bool {
	return c.Mode.RestorePath == ""
}

// RequireCredentials checks that a live fetch has what it needs
func (c *Config) RequireCredentials() error {
	if !c.NeedsAPI() {
		return nil
	}

	var errs []error
	if c.Tumblr.APIKey == "" {
		errs = append(errs, errors.New("Tumblr API key is required"))
	}
	if c.Tumblr.BlogName == "" {
		errs = append(errs, errors.New("blog name is required"))
	}
	return errors.Join(errs...)
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".tumblrlikes.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
