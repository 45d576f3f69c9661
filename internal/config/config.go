// Package config loads the pipeline configuration from the viper-managed
// config file and environment.
package config

import (
	"github.com/spf13/viper"

	"github.com/MarkBruyneel/WorldCat/pkg/errors"
)

// Config holds everything a run needs to talk to the catalog API and lay
// out its files.
type Config struct {
	// Key and Secret are the WSKey client credentials.
	Key    string
	Secret string

	// TokenURL is the OAuth2 token endpoint.
	TokenURL string

	// APIURL is the Discovery API base URL.
	APIURL string

	// WorkDir is the raw-response working directory.
	WorkDir string

	// OutputDir is where reports are written.
	OutputDir string

	// PermalinkPrefix overrides the catalog permalink prefix when set.
	PermalinkPrefix string
}

// Load reads the configuration from viper. The credential and endpoint
// keys are required; directories default relative to the current
// directory.
func Load() (*Config, error) {
	cfg := &Config{
		Key:             viper.GetString("key"),
		Secret:          viper.GetString("secret"),
		TokenURL:        viper.GetString("token_url"),
		APIURL:          viper.GetString("worldcat_api_url"),
		WorkDir:         viper.GetString("workdir"),
		OutputDir:       viper.GetString("output_dir"),
		PermalinkPrefix: viper.GetString("permalink_prefix"),
	}

	if cfg.WorkDir == "" {
		cfg.WorkDir = "wc_data"
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "output"
	}

	for key, val := range map[string]string{
		"key":              cfg.Key,
		"secret":           cfg.Secret,
		"token_url":        cfg.TokenURL,
		"worldcat_api_url": cfg.APIURL,
	} {
		if val == "" {
			return nil, &errors.ConfigError{Key: key, Message: "required setting is missing"}
		}
	}

	return cfg, nil
}
