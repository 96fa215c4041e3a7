package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/BurntSushi/toml"
)

// BrandingConfig holds the names and copy shown on the booking page and in emails.
type BrandingConfig struct {
	Company  string `toml:"company"`
	Product  string `toml:"product"`
	Tagline  string `toml:"tagline"`
	Footer   string `toml:"footer"`
	PageIcon string `toml:"page_icon"`
}

// FeatureConfig holds user-facing feature configurations.
// These are non-sensitive settings that customize the booking page.
// Users can modify these without redeployment.
// Source: TOML configuration file
type FeatureConfig struct {
	Branding BrandingConfig `toml:"branding"`
}

// DefaultFeatureConfig returns the built-in branding used when no file is present.
func DefaultFeatureConfig() *FeatureConfig {
	return &FeatureConfig{
		Branding: BrandingConfig{
			Company:  "Xactrix AI",
			Product:  "Xact Two",
			Tagline:  "Book an appointment with Xactrix AI officials to discuss how our advanced AI solutions can transform your business.",
			Footer:   "Version 0.1 | Xactrix AI Engine",
			PageIcon: "🚀",
		},
	}
}

// LoadFeatureConfig loads feature configuration from a TOML file. A missing
// file yields the defaults; keys absent from the file keep their default value.
func LoadFeatureConfig(path string) (*FeatureConfig, error) {
	cfg := DefaultFeatureConfig()
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to load feature config: %w", err)
	}
	if cfg.Branding.Company == "" {
		return nil, fmt.Errorf("branding.company must not be empty")
	}
	return cfg, nil
}
