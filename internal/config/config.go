// Package config loads and saves storylens configuration: a TOML file
// overlaid with STORYLENS_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Site      SiteConfig
	HTTP      HTTPConfig
	Cache     CacheConfig
	UI        UIConfig
	Analytics AnalyticsConfig
	Debug     DebugConfig
	// Options overrides seeded site options, for pinning values the REST
	// settings route does not expose or for offline use.
	Options map[string]any
}

// SiteConfig identifies the WordPress site and its credentials.
type SiteConfig struct {
	URL      string
	Username string
	// AppPassword is a WordPress application password; stored in plain
	// text, so prefer the STORYLENS_SITE_APP_PASSWORD env var.
	AppPassword string `mapstructure:"app_password"`
}

// HTTPConfig holds transport settings.
type HTTPConfig struct {
	Timeout time.Duration
}

// CacheConfig holds response-cache settings.
type CacheConfig struct {
	Dir string
	TTL time.Duration
}

// UIConfig holds presentation settings.
type UIConfig struct {
	Locale string
}

// AnalyticsConfig holds analytics settings.
type AnalyticsConfig struct {
	// TrackingID wins over the site's web_stories_ga_tracking_id setting
	// when non-empty.
	TrackingID string `mapstructure:"tracking_id"`
}

// DebugConfig holds debug logging settings.
type DebugConfig struct {
	Log string
}

// DefaultPath returns the default config file location.
func DefaultPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(base, "storylens", "config.toml"), nil
}

// Load reads configuration from file and env. An empty path falls back to
// STORYLENS_CONFIG, then the default location; a missing file yields the
// defaults. Env var overrides use prefix STORYLENS_.
func Load(path string) (Config, error) {
	v := viper.New()

	v.SetDefault("site.url", "")
	v.SetDefault("site.username", "")
	v.SetDefault("site.app_password", "")
	v.SetDefault("http.timeout", "15s")
	v.SetDefault("cache.dir", "")
	v.SetDefault("cache.ttl", "15m")
	v.SetDefault("ui.locale", "en")
	v.SetDefault("analytics.tracking_id", "")
	v.SetDefault("debug.log", "")

	v.SetConfigType("toml")

	if path == "" {
		path = os.Getenv("STORYLENS_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
	} else if def, err := DefaultPath(); err == nil {
		v.AddConfigPath(filepath.Dir(def))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("STORYLENS")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// read config file if present
	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}

// Save writes the provided config to disk, creating the config directory if
// needed. An empty path selects the default location.
func Save(cfg Config, path string) error {
	if path == "" {
		def, err := DefaultPath()
		if err != nil {
			return err
		}
		path = def
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("site.url", cfg.Site.URL)
	v.Set("site.username", cfg.Site.Username)
	v.Set("site.app_password", cfg.Site.AppPassword)
	v.Set("http.timeout", cfg.HTTP.Timeout.String())
	v.Set("cache.dir", cfg.Cache.Dir)
	v.Set("cache.ttl", cfg.Cache.TTL.String())
	v.Set("ui.locale", cfg.UI.Locale)
	v.Set("analytics.tracking_id", cfg.Analytics.TrackingID)
	v.Set("debug.log", cfg.Debug.Log)
	if len(cfg.Options) > 0 {
		v.Set("options", cfg.Options)
	}

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
