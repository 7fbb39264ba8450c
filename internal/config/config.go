// Package config loads and saves the wealthtax TOML configuration.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/theirongolddev/wealthtax/internal/cli"

	"github.com/BurntSushi/toml"
)

// Config holds all wealthtax configuration.
type Config struct {
	General    GeneralConfig    `toml:"general"`
	Engine     EngineConfig     `toml:"engine"`
	Appearance AppearanceConfig `toml:"appearance"`
	Server     ServerConfig     `toml:"server"`
	Update     UpdateConfig     `toml:"update"`
}

// GeneralConfig holds general preferences.
type GeneralConfig struct {
	// DataSource is a file path, a URL, a base URL ending in "/", or "builtin".
	DataSource  string  `toml:"data_source"`
	DefaultRate float64 `toml:"default_rate"`
}

// EngineConfig holds the wealth constant and the rate domain offered to users.
type EngineConfig struct {
	TotalWealth float64 `toml:"total_wealth"`
	// WealthLabel is derived from TotalWealth unless set explicitly.
	WealthLabel string  `toml:"wealth_label,omitempty"`
	MinRate     float64 `toml:"min_rate"`
	MaxRate     float64 `toml:"max_rate"`
	RateStep    float64 `toml:"rate_step"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// ServerConfig holds the HTTP widget host settings.
type ServerConfig struct {
	Addr     string `toml:"addr"`
	Title    string `toml:"title,omitempty"`
	Subtitle string `toml:"subtitle,omitempty"`
}

// UpdateConfig holds the self-update checker settings.
type UpdateConfig struct {
	Repo               string `toml:"repo"`
	AssetName          string `toml:"asset_name"`
	Slug               string `toml:"slug"`
	InstallDir         string `toml:"install_dir,omitempty"`
	Token              string `toml:"token,omitempty"`
	CacheTTLHours      int    `toml:"cache_ttl_hours"`
	NegativeTTLMinutes int    `toml:"negative_ttl_minutes"`
}

const defaultTotalWealth = 15.3e12

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			DataSource:  "builtin",
			DefaultRate: 2.0,
		},
		Engine: EngineConfig{
			TotalWealth: defaultTotalWealth,
			WealthLabel: cli.FormatWealthLabel(defaultTotalWealth),
			MinRate:     1.0,
			MaxRate:     8.0,
			RateStep:    0.1,
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8790",
		},
		Update: UpdateConfig{
			Repo:               "hexa-decim8/Molotools",
			AssetName:          "wealth-tax-calculator.zip",
			Slug:               "wealth-tax-calculator",
			CacheTTLHours:      12,
			NegativeTTLMinutes: 5,
		},
	}
}

// pathOverride is set by --config.
var pathOverride string

// SetPath points Load/Save at an explicit config file.
func SetPath(p string) {
	pathOverride = p
}

// Dir returns the XDG-compliant config directory.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "wealthtax")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "wealthtax")
}

// Path returns the full path to the config file.
func Path() string {
	if pathOverride != "" {
		return pathOverride
	}
	return filepath.Join(Dir(), "config.toml")
}

// Load reads the config file, returning defaults if it doesn't exist.
// Environment overrides are applied last.
func Load() (Config, error) {
	cfg, err := LoadFile()
	if err != nil {
		return cfg, err
	}
	applyEnv(&cfg)
	return cfg, nil
}

// LoadFile reads the config file without environment overrides. Use it when
// the result is written back with Save.
func LoadFile() (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(Path())
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	if !md.IsDefined("engine", "wealth_label") || strings.TrimSpace(cfg.Engine.WealthLabel) == "" {
		cfg.Engine.WealthLabel = cli.FormatWealthLabel(cfg.Engine.TotalWealth)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", Path(), err)
	}
	return cfg, nil
}

// LoadOrDefault loads config, returning defaults on any error.
func LoadOrDefault() Config {
	cfg, err := Load()
	if err != nil {
		cfg = DefaultConfig()
		applyEnv(&cfg)
	}
	return cfg
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("WEALTHTAX_DATA_SOURCE")); v != "" {
		cfg.General.DataSource = v
	}
	if v := strings.TrimSpace(os.Getenv("WEALTHTAX_GITHUB_TOKEN")); v != "" {
		cfg.Update.Token = v
	}
}

// Validate rejects settings the presentation layers cannot work with.
func (c Config) Validate() error {
	var errs []error
	e := c.Engine
	if !(e.TotalWealth > 0) {
		errs = append(errs, errors.New("engine.total_wealth must be positive"))
	}
	if !(e.RateStep > 0) {
		errs = append(errs, errors.New("engine.rate_step must be positive"))
	}
	if e.MinRate > e.MaxRate {
		errs = append(errs, fmt.Errorf("engine.min_rate %.2f is above engine.max_rate %.2f", e.MinRate, e.MaxRate))
	}
	if c.Update.CacheTTLHours < 0 || c.Update.NegativeTTLMinutes < 0 {
		errs = append(errs, errors.New("update cache TTLs must not be negative"))
	}
	return errors.Join(errs...)
}

// Save writes the config to disk.
func Save(cfg Config) error {
	p := Path()
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	// A label that matches its derivation is left out so it keeps
	// following total_wealth.
	if cfg.Engine.WealthLabel == cli.FormatWealthLabel(cfg.Engine.TotalWealth) {
		cfg.Engine.WealthLabel = ""
	}
	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(Path())
	return err == nil
}

// ClampRate restricts rate to the configured domain and snaps it to the step grid.
func (e EngineConfig) ClampRate(rate float64) float64 {
	if math.IsNaN(rate) {
		return e.MinRate
	}
	if rate < e.MinRate {
		rate = e.MinRate
	}
	if rate > e.MaxRate {
		rate = e.MaxRate
	}
	if e.RateStep > 0 {
		steps := (rate - e.MinRate) / e.RateStep
		rate = e.MinRate + math.Round(steps)*e.RateStep
		// Snap away float noise such as 2.0000000000000004.
		rate = math.Round(rate*1e6) / 1e6
		if rate > e.MaxRate {
			rate = e.MaxRate
		}
	}
	return rate
}
