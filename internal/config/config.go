package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrUnknownKey is returned by SetField for keys it does not recognize.
var ErrUnknownKey = errors.New("unknown config key")

// Formats lists the accepted output formats.
var Formats = []string{"diff", "text", "json"}

// LogLevels lists the accepted log levels.
var LogLevels = []string{"debug", "info", "warn", "error"}

// Config represents the diffbudget configuration.
type Config struct {
	Model         string        `json:"model" yaml:"model"`
	Encoding      string        `json:"encoding,omitempty" yaml:"encoding,omitempty"`
	MaxTokens     int           `json:"maxTokens" yaml:"maxTokens"`
	MaxChunkChars int           `json:"maxChunkChars" yaml:"maxChunkChars"`
	Format        string        `json:"format" yaml:"format"`
	ContextLines  int           `json:"contextLines" yaml:"contextLines"`
	Include       []string      `json:"include" yaml:"include"`
	Exclude       []string      `json:"exclude" yaml:"exclude"`
	MaxDiffBytes  int           `json:"maxDiffBytes" yaml:"maxDiffBytes"`
	RecountHunks  bool          `json:"recountHunks" yaml:"recountHunks"`
	LogLevel      string        `json:"logLevel" yaml:"logLevel"`
	Cache         CacheConfig   `json:"cache" yaml:"cache"`
	Privacy       PrivacyConfig `json:"privacy" yaml:"privacy"`
}

// CacheConfig controls caching of optimizer results.
type CacheConfig struct {
	Enabled    bool   `json:"enabled" yaml:"enabled"`
	Dir        string `json:"dir,omitempty" yaml:"dir,omitempty"`
	TTLSeconds int    `json:"ttlSeconds" yaml:"ttlSeconds"`
}

// PrivacyConfig controls privacy/redaction behavior.
type PrivacyConfig struct {
	RedactSecrets bool     `json:"redactSecrets" yaml:"redactSecrets"`
	RedactPaths   []string `json:"redactPaths,omitempty" yaml:"redactPaths,omitempty"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		Model:         "gpt-4",
		MaxTokens:     6000,
		MaxChunkChars: 8000,
		Format:        "diff",
		ContextLines:  3,
		Include:       []string{"**/*"},
		Exclude:       []string{"vendor/**", "**/*.gen.go", "**/dist/**"},
		MaxDiffBytes:  500000,
		LogLevel:      "warn",
		Cache: CacheConfig{
			Enabled:    true,
			TTLSeconds: 86400,
		},
		Privacy: PrivacyConfig{
			RedactSecrets: true,
			RedactPaths:   []string{"**/.env", "**/*secrets*"},
		},
	}
}

// ConfigDir returns the platform-appropriate config directory for diffbudget.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "diffbudget"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "diffbudget"), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "diffbudget"), nil
		}
		return filepath.Join(home, "AppData", "Roaming", "diffbudget"), nil
	default:
		return filepath.Join(home, ".config", "diffbudget"), nil
	}
}

// ConfigPath returns the config file in use. DIFFBUDGET_CONFIG wins;
// otherwise the first existing of config.yaml, config.yml and config.json in
// ConfigDir, defaulting to config.json.
func ConfigPath() (string, error) {
	if p := os.Getenv("DIFFBUDGET_CONFIG"); p != "" {
		return p, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	for _, name := range []string{"config.yaml", "config.yml"} {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return filepath.Join(dir, "config.json"), nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// LoadFile returns the defaults overlaid with the config file. Keys absent
// from the file keep their default values; a missing file yields Default().
func LoadFile() (Config, error) {
	cfg := Default()
	path, err := ConfigPath()
	if err != nil {
		return cfg, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config file: %w", err)
	}
	if err := decode(path, data, &cfg); err != nil {
		return Default(), fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	if isYAML(path) {
		return yaml.Unmarshal(data, cfg)
	}
	return json.Unmarshal(data, cfg)
}

// Save writes the config to the config file, as YAML or JSON by extension.
func Save(cfg Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	var data []byte
	if isYAML(path) {
		data, err = yaml.Marshal(cfg)
	} else {
		data, err = json.MarshalIndent(cfg, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Load builds the effective config by merging: defaults <- file <- env <- overrides.
// The overrides map comes from CLI flags (only non-zero values should be set).
func Load(overrides map[string]string) (Config, error) {
	cfg, err := LoadFile()
	if err != nil {
		return Config{}, err
	}
	if err := mergeEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := mergeOverrides(&cfg, overrides); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func mergeOverrides(cfg *Config, overrides map[string]string) error {
	for key, value := range overrides {
		if value == "" {
			continue
		}
		if err := SetField(cfg, key, value); err != nil {
			return fmt.Errorf("flag %s: %w", key, err)
		}
	}
	return nil
}

// envKeys maps environment variables to config keys understood by SetField.
var envKeys = []struct {
	env string
	key string
}{
	{"DIFFBUDGET_MODEL", "model"},
	{"DIFFBUDGET_ENCODING", "encoding"},
	{"DIFFBUDGET_MAX_TOKENS", "maxTokens"},
	{"DIFFBUDGET_MAX_CHUNK_CHARS", "maxChunkChars"},
	{"DIFFBUDGET_FORMAT", "format"},
	{"DIFFBUDGET_CONTEXT_LINES", "contextLines"},
	{"DIFFBUDGET_RECOUNT_HUNKS", "recountHunks"},
	{"DIFFBUDGET_LOG_LEVEL", "logLevel"},
}

func mergeEnv(cfg *Config) error {
	for _, e := range envKeys {
		v := os.Getenv(e.env)
		if v == "" {
			continue
		}
		if err := SetField(cfg, e.key, v); err != nil {
			return fmt.Errorf("%s: %w", e.env, err)
		}
	}
	return nil
}

// SetField sets a single config field by key name. Returns error if key is unknown.
func SetField(cfg *Config, key, value string) error {
	switch key {
	case "model":
		cfg.Model = value
	case "encoding":
		cfg.Encoding = value
	case "format":
		cfg.Format = value
	case "logLevel":
		cfg.LogLevel = strings.ToLower(value)
	case "cacheDir":
		cfg.Cache.Dir = value
	case "maxTokens", "maxChunkChars", "contextLines", "maxDiffBytes", "cacheTTLSeconds":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s must be an integer: %w", key, err)
		}
		switch key {
		case "maxTokens":
			cfg.MaxTokens = n
		case "maxChunkChars":
			cfg.MaxChunkChars = n
		case "contextLines":
			cfg.ContextLines = n
		case "maxDiffBytes":
			cfg.MaxDiffBytes = n
		case "cacheTTLSeconds":
			cfg.Cache.TTLSeconds = n
		}
	case "recountHunks", "cacheEnabled", "redactSecrets":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s must be a boolean: %w", key, err)
		}
		switch key {
		case "recountHunks":
			cfg.RecountHunks = b
		case "cacheEnabled":
			cfg.Cache.Enabled = b
		case "redactSecrets":
			cfg.Privacy.RedactSecrets = b
		}
	case "include", "exclude", "redactPaths":
		list := splitList(value)
		switch key {
		case "include":
			cfg.Include = list
		case "exclude":
			cfg.Exclude = list
		case "redactPaths":
			cfg.Privacy.RedactPaths = list
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate reports settings that cannot be used.
func (c Config) Validate() error {
	if c.MaxTokens < 0 {
		return fmt.Errorf("maxTokens must not be negative, got %d", c.MaxTokens)
	}
	if c.MaxChunkChars < 0 {
		return fmt.Errorf("maxChunkChars must not be negative, got %d", c.MaxChunkChars)
	}
	if c.ContextLines < 0 {
		return fmt.Errorf("contextLines must not be negative, got %d", c.ContextLines)
	}
	if !contains(Formats, c.Format) {
		return fmt.Errorf("unsupported format %q (want one of %s)", c.Format, strings.Join(Formats, ", "))
	}
	if !contains(LogLevels, c.LogLevel) {
		return fmt.Errorf("unsupported log level %q (want one of %s)", c.LogLevel, strings.Join(LogLevels, ", "))
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
