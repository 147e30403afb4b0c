package main

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
)

const (
	defaultRepo       = "steipete/bird"
	defaultOutDir     = "bundled/bird"
	defaultAPIBaseURL = "https://api.github.com"
)

// Config holds everything the vendoring pipeline needs. It is built once
// in the command layer and passed down; no component reads the
// environment itself.
type Config struct {
	// Repo is the upstream repository in "owner/name" form.
	Repo string `yaml:"repo"`
	// Version is the exact release tag to vendor; empty means latest.
	Version string `yaml:"version"`
	// BundleWindows makes the windows targets required instead of
	// best-effort.
	BundleWindows bool `yaml:"bundleWindows"`
	// OutDir is where staged binaries are written.
	OutDir string `yaml:"outDir"`
	// APIBaseURL is the root of the releases API.
	APIBaseURL string `yaml:"apiBaseUrl"`

	// Token is the optional bearer credential. Never read from a file.
	Token string `yaml:"-"`
}

func defaultConfig() Config {
	return Config{
		Repo:       defaultRepo,
		OutDir:     defaultOutDir,
		APIBaseURL: defaultAPIBaseURL,
	}
}

// LoadConfig reads configuration from a reader into `cfg`.
func LoadConfig(r io.Reader, cfg *Config) error {
	if r == nil {
		return nil
	}
	return yaml.NewDecoder(r).Decode(cfg)
}

// LoadConfigFile reads configuration from a file into `cfg`. A missing
// file is not an error; the config file is optional.
func LoadConfigFile(name string, cfg *Config) error {
	file, err := os.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	defer func() {
		_ = file.Close()
	}()
	return LoadConfig(file, cfg)
}

// applyEnv overlays the environment onto `cfg`. The environment always
// wins over file values; CI pipelines configure this tool through it.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) {
	if v, ok := lookup("BIRD_REPO"); ok && v != "" {
		cfg.Repo = v
	}
	if v, ok := lookup("BIRD_VERSION"); ok && v != "" {
		cfg.Version = strings.TrimSpace(v)
	}
	if v, ok := lookup("BIRDY_BUNDLE_WINDOWS"); ok {
		cfg.BundleWindows = strings.TrimSpace(v) == "1"
	}
	if v, ok := lookup("GITHUB_TOKEN"); ok && v != "" {
		cfg.Token = v
	} else if v, ok := lookup("GH_TOKEN"); ok && v != "" {
		cfg.Token = v
	}
}
