package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLoadConfig(t *testing.T) {
	cfg := defaultConfig()
	r := bytes.NewReader([]byte(`
repo: someone/bird-fork
version: v0.8.0
bundleWindows: true
outDir: out/bird
`))
	if err := LoadConfig(r, &cfg); err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}

	want := Config{
		Repo:          "someone/bird-fork",
		Version:       "v0.8.0",
		BundleWindows: true,
		OutDir:        "out/bird",
		APIBaseURL:    defaultAPIBaseURL,
	}
	if d := cmp.Diff(want, cfg); d != "" {
		t.Errorf("LoadConfig() mismatch (-want/+got): %v", d)
	}
}

func TestLoadConfigFile_missing(t *testing.T) {
	cfg := defaultConfig()
	if err := LoadConfigFile(filepath.Join(t.TempDir(), "nope.yaml"), &cfg); err != nil {
		t.Fatalf("LoadConfigFile() failed on missing optional file: %v", err)
	}
	if d := cmp.Diff(defaultConfig(), cfg); d != "" {
		t.Errorf("defaults changed by missing file (-want/+got): %v", d)
	}
}

func Test_applyEnv(t *testing.T) {
	tests := []struct {
		testName string // description of this test case
		cfg      Config
		env      map[string]string
		want     Config
	}{
		{
			testName: "defaults untouched without environment",
			cfg:      defaultConfig(),
			env:      map[string]string{},
			want:     defaultConfig(),
		},
		{
			testName: "environment overrides file values",
			cfg: Config{
				Repo:          "someone/bird-fork",
				Version:       "v0.1.0",
				BundleWindows: true,
				OutDir:        defaultOutDir,
				APIBaseURL:    defaultAPIBaseURL,
			},
			env: map[string]string{
				"BIRD_REPO":            "steipete/bird",
				"BIRD_VERSION":         "v0.8.0",
				"BIRDY_BUNDLE_WINDOWS": "0",
			},
			want: Config{
				Repo:          "steipete/bird",
				Version:       "v0.8.0",
				BundleWindows: false,
				OutDir:        defaultOutDir,
				APIBaseURL:    defaultAPIBaseURL,
			},
		},
		{
			testName: "bundle windows requires exactly 1",
			cfg:      defaultConfig(),
			env: map[string]string{
				"BIRDY_BUNDLE_WINDOWS": "yes",
			},
			want: defaultConfig(),
		},
		{
			testName: "github token preferred over gh token",
			cfg:      defaultConfig(),
			env: map[string]string{
				"GITHUB_TOKEN": "tok-a",
				"GH_TOKEN":     "tok-b",
			},
			want: func() Config {
				c := defaultConfig()
				c.Token = "tok-a"
				return c
			}(),
		},
		{
			testName: "gh token used when github token unset",
			cfg:      defaultConfig(),
			env: map[string]string{
				"GH_TOKEN": "tok-b",
			},
			want: func() Config {
				c := defaultConfig()
				c.Token = "tok-b"
				return c
			}(),
		},
		{
			testName: "version whitespace trimmed",
			cfg:      defaultConfig(),
			env: map[string]string{
				"BIRD_VERSION": " v0.8.0 ",
			},
			want: func() Config {
				c := defaultConfig()
				c.Version = "v0.8.0"
				return c
			}(),
		},
	}
	for _, tt := range tests {
		t.Run(tt.testName, func(t *testing.T) {
			cfg := tt.cfg
			applyEnv(&cfg, func(key string) (string, bool) {
				v, ok := tt.env[key]
				return v, ok
			})
			if d := cmp.Diff(tt.want, cfg); d != "" {
				t.Errorf("applyEnv() mismatch (-want/+got): %v", d)
			}
		})
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "vendorbird.yaml")
	if err := os.WriteFile(name, []byte("repo: someone/bird-fork\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := defaultConfig()
	if err := LoadConfigFile(name, &cfg); err != nil {
		t.Fatalf("LoadConfigFile() failed: %v", err)
	}
	if cfg.Repo != "someone/bird-fork" {
		t.Errorf("Repo = %v, want someone/bird-fork", cfg.Repo)
	}
	if cfg.OutDir != defaultOutDir {
		t.Errorf("OutDir = %v, want default preserved", cfg.OutDir)
	}
}
