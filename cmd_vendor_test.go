package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"testing"

	"github.com/steipete/vendorbird/internal/metaerr"
)

// setupReleaseServer serves a release whose assets point back at the same
// server. Declared sizes come from the asset list, not the payloads, so
// selection can be steered independently of the served bytes.
func setupReleaseServer(t *testing.T, assets []Asset, payloads map[string][]byte) string {
	t.Helper()

	mux, srv := setupServer(t)

	mux.HandleFunc(
		"GET /repos/steipete/bird/releases/latest",
		func(w http.ResponseWriter, r *http.Request) {
			for i := range assets {
				assets[i].DownloadURL = srv.URL + "/dl/" + assets[i].Name
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(Release{TagName: "v0.8.0", Assets: assets})
		},
	)
	mux.HandleFunc(
		"GET /dl/{name}",
		func(w http.ResponseWriter, r *http.Request) {
			payload, ok := payloads[r.PathValue("name")]
			if !ok {
				http.NotFound(w, r)
				return
			}
			_, _ = w.Write(payload)
		},
	)

	return srv.URL
}

func TestVendor_formatBeatsSize(t *testing.T) {
	tarPayload := buildTarGz(t, []tarEntry{{name: "bird", body: "from-tar", mode: 0o755}})
	zipPayload := buildZip(t, map[string]string{"bird": "from-zip"})

	assets := []Asset{
		{Name: "bird_darwin_amd64.tar.gz", Size: 9 << 20},
		{Name: "bird_darwin_amd64.zip", Size: 3 << 20},
		{Name: "bird_darwin_arm64.tar.gz", Size: 1 << 20},
		{Name: "bird_linux_amd64.tar.gz", Size: 1 << 20},
		{Name: "bird_linux_arm64.tar.gz", Size: 1 << 20},
	}
	payloads := map[string][]byte{
		"bird_darwin_amd64.tar.gz": tarPayload,
		"bird_darwin_amd64.zip":    zipPayload,
		"bird_darwin_arm64.tar.gz": tarPayload,
		"bird_linux_amd64.tar.gz":  tarPayload,
		"bird_linux_arm64.tar.gz":  tarPayload,
	}

	cfg := defaultConfig()
	cfg.APIBaseURL = setupReleaseServer(t, assets, payloads)
	cfg.OutDir = filepath.Join(t.TempDir(), "bundled", "bird")

	if err := Vendor(context.Background(), cfg); err != nil {
		t.Fatalf("Vendor() failed: %v", err)
	}

	staged := filepath.Join(cfg.OutDir, "bird_darwin_amd64")
	got, err := os.ReadFile(staged)
	if err != nil {
		t.Fatalf("read staged binary: %v", err)
	}
	if string(got) != "from-tar" {
		t.Errorf("staged content = %q, want the tar.gz asset despite its larger size", got)
	}

	if runtime.GOOS != "windows" {
		info, err := os.Stat(staged)
		if err != nil {
			t.Fatal(err)
		}
		if info.Mode().Perm()&0o111 != 0o111 {
			t.Errorf("staged binary mode = %v, want execute bits set", info.Mode())
		}
	}

	// No windows asset and windows not required: nothing staged for it.
	entries, err := os.ReadDir(cfg.OutDir)
	if err != nil {
		t.Fatal(err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	slices.Sort(names)
	want := []string{"bird_darwin_amd64", "bird_darwin_arm64", "bird_linux_amd64", "bird_linux_arm64"}
	if !slices.Equal(names, want) {
		t.Errorf("staged files = %v, want %v", names, want)
	}
}

func TestVendor_windowsOptionalSkipped(t *testing.T) {
	tarPayload := buildTarGz(t, []tarEntry{{name: "bird", body: "bird", mode: 0o755}})

	assets := []Asset{
		{Name: "bird_darwin_amd64.tar.gz", Size: 1},
		{Name: "bird_darwin_arm64.tar.gz", Size: 1},
		{Name: "bird_linux_amd64.tar.gz", Size: 1},
		{Name: "bird_linux_arm64.tar.gz", Size: 1},
	}
	payloads := map[string][]byte{
		"bird_darwin_amd64.tar.gz": tarPayload,
		"bird_darwin_arm64.tar.gz": tarPayload,
		"bird_linux_amd64.tar.gz":  tarPayload,
		"bird_linux_arm64.tar.gz":  tarPayload,
	}

	cfg := defaultConfig()
	cfg.APIBaseURL = setupReleaseServer(t, assets, payloads)
	cfg.OutDir = filepath.Join(t.TempDir(), "out")

	if err := Vendor(context.Background(), cfg); err != nil {
		t.Fatalf("Vendor() failed: %v", err)
	}

	entries, err := os.ReadDir(cfg.OutDir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".exe" {
			t.Errorf("unexpected windows binary staged: %v", e.Name())
		}
	}
}

func TestVendor_windowsRequiredFails(t *testing.T) {
	tarPayload := buildTarGz(t, []tarEntry{{name: "bird", body: "bird", mode: 0o755}})

	assets := []Asset{
		{Name: "bird_darwin_amd64.tar.gz", Size: 1},
		{Name: "bird_darwin_arm64.tar.gz", Size: 1},
		{Name: "bird_linux_amd64.tar.gz", Size: 1},
		{Name: "bird_linux_arm64.tar.gz", Size: 1},
	}
	payloads := map[string][]byte{
		"bird_darwin_amd64.tar.gz": tarPayload,
		"bird_darwin_arm64.tar.gz": tarPayload,
		"bird_linux_amd64.tar.gz":  tarPayload,
		"bird_linux_arm64.tar.gz":  tarPayload,
	}

	cfg := defaultConfig()
	cfg.APIBaseURL = setupReleaseServer(t, assets, payloads)
	cfg.OutDir = filepath.Join(t.TempDir(), "out")
	cfg.BundleWindows = true

	err := Vendor(context.Background(), cfg)
	if !errors.Is(err, errNoMatchingAsset) {
		t.Fatalf("Vendor() error = %v, want errNoMatchingAsset", err)
	}

	meta := metaerr.GetMetadata(err)
	if !slices.Contains(meta, any("windows/amd64")) {
		t.Errorf("error metadata %v does not name the windows/amd64 target", meta)
	}
}

func TestVendor_noAssets(t *testing.T) {
	cfg := defaultConfig()
	cfg.APIBaseURL = setupReleaseServer(t, nil, nil)
	cfg.OutDir = filepath.Join(t.TempDir(), "out")

	err := Vendor(context.Background(), cfg)
	if !errors.Is(err, errNoAssets) {
		t.Fatalf("Vendor() error = %v, want errNoAssets", err)
	}
}

func TestVendor_unsafeArchiveFatalEvenWhenOptional(t *testing.T) {
	evil := buildTarGz(t, []tarEntry{{name: "../../evil", body: "evil"}})
	good := buildTarGz(t, []tarEntry{{name: "bird", body: "bird", mode: 0o755}})

	assets := []Asset{
		{Name: "bird_darwin_amd64.tar.gz", Size: 1},
		{Name: "bird_darwin_arm64.tar.gz", Size: 1},
		{Name: "bird_linux_amd64.tar.gz", Size: 1},
		{Name: "bird_linux_arm64.tar.gz", Size: 1},
		{Name: "bird_windows_amd64.tar.gz", Size: 1},
	}
	payloads := map[string][]byte{
		"bird_darwin_amd64.tar.gz":  good,
		"bird_darwin_arm64.tar.gz":  good,
		"bird_linux_amd64.tar.gz":   good,
		"bird_linux_arm64.tar.gz":   good,
		"bird_windows_amd64.tar.gz": evil,
	}

	cfg := defaultConfig()
	cfg.APIBaseURL = setupReleaseServer(t, assets, payloads)
	cfg.OutDir = filepath.Join(t.TempDir(), "out")

	// The windows target is optional, but a traversal attempt is fatal
	// regardless.
	err := Vendor(context.Background(), cfg)
	if !errors.Is(err, errUnsafeArchiveMember) {
		t.Fatalf("Vendor() error = %v, want errUnsafeArchiveMember", err)
	}
}
