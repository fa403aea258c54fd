// Package config loads and validates timelane configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config represents the main configuration.
type Config struct {
	FilesRoot    string   `toml:"files_root" yaml:"files_root"` // Directory tree to index and serve
	DataDir      string   `toml:"data_dir" yaml:"data_dir"`     // Catalog database and thumbnails live here
	Host         string   `toml:"host" yaml:"host"`             // HTTP listen host
	Port         int      `toml:"port" yaml:"port"`             // HTTP listen port
	EnableUpload bool     `toml:"enable_upload" yaml:"enable_upload"`
	MaxUploadMB  int64    `toml:"max_upload_mb" yaml:"max_upload_mb"`
	AllowedExt   []string `toml:"allowed_ext" yaml:"allowed_ext"` // Upload extension allowlist; empty allows all
	PageSize     int      `toml:"page_size" yaml:"page_size"`     // Default API page size
	Theme        string   `toml:"theme" yaml:"theme"`             // TUI theme (dark, light)
	Watch        bool     `toml:"watch" yaml:"watch"`             // Re-index on filesystem changes
}

// Default returns the built-in defaults, used when no config file exists.
func Default() Config {
	home, _ := os.UserHomeDir()
	return Config{
		FilesRoot:    ".",
		DataDir:      filepath.Join(home, ".config", "timelane"),
		Host:         "127.0.0.1",
		Port:         8448,
		EnableUpload: false,
		MaxUploadMB:  100,
		PageSize:     100,
		Theme:        "dark",
		Watch:        true,
	}
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "timelane.toml"
	}
	return filepath.Join(home, ".config", "timelane", "timelane.toml")
}

// Load reads the config file at path (TOML, or YAML for .yaml/.yml paths),
// falling back to defaults when path is empty and no file exists at the
// default location. Environment variables prefixed TIMELANE_ override file
// values. The result is validated.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultPath()
		if _, err := os.Stat(path); os.IsNotExist(err) {
			path = ""
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		default:
			if err := toml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("TIMELANE_FILES_ROOT"); v != "" {
		cfg.FilesRoot = v
	}
	if v := os.Getenv("TIMELANE_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("TIMELANE_HOST"); v != "" {
		cfg.Host = v
	}
	if v := os.Getenv("TIMELANE_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Port = port
		}
	}
	if v := os.Getenv("TIMELANE_ENABLE_UPLOAD"); v != "" {
		cfg.EnableUpload = v == "1" || strings.EqualFold(v, "true")
	}
	if v := os.Getenv("TIMELANE_MAX_UPLOAD_MB"); v != "" {
		if mb, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.MaxUploadMB = mb
		}
	}
	if v := os.Getenv("TIMELANE_ALLOWED_EXT"); v != "" {
		cfg.AllowedExt = nil
		for _, ext := range strings.Split(v, ",") {
			if ext = strings.TrimSpace(ext); ext != "" {
				cfg.AllowedExt = append(cfg.AllowedExt, ext)
			}
		}
	}
	if v := os.Getenv("TIMELANE_PAGE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.PageSize = n
		}
	}
	if v := os.Getenv("TIMELANE_THEME"); v != "" {
		cfg.Theme = v
	}
	if v := os.Getenv("TIMELANE_WATCH"); v != "" {
		cfg.Watch = v == "1" || strings.EqualFold(v, "true")
	}
}

// Validate checks the configuration and normalizes derived values.
func (c *Config) Validate() error {
	if c.FilesRoot == "" {
		return fmt.Errorf("files_root must not be empty")
	}
	abs, err := filepath.Abs(c.FilesRoot)
	if err != nil {
		return fmt.Errorf("resolve files_root: %w", err)
	}
	c.FilesRoot = abs

	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.PageSize < 1 || c.PageSize > 1000 {
		return fmt.Errorf("page_size %d out of range (1-1000)", c.PageSize)
	}
	if c.MaxUploadMB < 1 {
		return fmt.Errorf("max_upload_mb must be positive")
	}
	for i, ext := range c.AllowedExt {
		if !strings.HasPrefix(ext, ".") {
			c.AllowedExt[i] = "." + ext
		}
		c.AllowedExt[i] = strings.ToLower(c.AllowedExt[i])
	}
	switch c.Theme {
	case "", "dark", "light":
	default:
		return fmt.Errorf("unknown theme %q", c.Theme)
	}
	return nil
}

// IsAllowedExtension reports whether ext passes the upload allowlist. An
// empty allowlist admits everything.
func (c *Config) IsAllowedExtension(ext string) bool {
	if len(c.AllowedExt) == 0 {
		return true
	}
	ext = strings.ToLower(ext)
	for _, allowed := range c.AllowedExt {
		if ext == allowed {
			return true
		}
	}
	return false
}

// DatabasePath returns the catalog database location under DataDir.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "catalog.db")
}

// ThumbsDir returns the thumbnail cache directory under DataDir.
func (c *Config) ThumbsDir() string {
	return filepath.Join(c.DataDir, "thumbs")
}

// Addr returns the host:port the server listens on.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
