package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/cluttrdev/cli"
	"github.com/pterm/pterm"

	"github.com/steipete/vendorbird/internal/metaerr"
)

func newVendorCmd() *cli.Command {
	cfg := vendorCmd{}

	fs := flag.NewFlagSet("vendorbird vendor", flag.ExitOnError)

	cfg.RegisterFlags(fs)

	return &cli.Command{
		Name:       "vendor",
		ShortHelp:  "Download and stage the upstream bird binaries.",
		ShortUsage: "vendorbird vendor [OPTION]...",
		Flags:      fs,
		Exec:       cfg.Exec,
	}
}

type vendorCmd struct {
	rootCmd
}

func (c *vendorCmd) RegisterFlags(fs *flag.FlagSet) {
	c.rootCmd.RegisterFlags(fs)
}

func (c *vendorCmd) Exec(ctx context.Context, args []string) error {
	c.initLogging()

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}

	return Vendor(ctx, cfg)
}

var errNoMatchingAsset = errors.New("no matching asset")

// Vendor runs the whole staging pipeline: resolve the release once, then
// select, download, extract, locate and stage a binary for each of the
// fixed targets in order. The first fatal condition aborts the run.
func Vendor(ctx context.Context, cfg Config) error {
	rel, err := FetchRelease(ctx, metadataClient(cfg.Token), cfg.APIBaseURL, cfg.Repo, cfg.Version)
	if err != nil {
		return err
	}
	if len(rel.Assets) == 0 {
		return metaerr.WithMetadata(errNoAssets, "repo", cfg.Repo, "tag", rel.TagName)
	}

	if err := os.MkdirAll(cfg.OutDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	client := downloadClient(cfg.Token)

	multiPrinter := pterm.DefaultMultiPrinter
	_, _ = multiPrinter.Start()
	defer func() {
		_, _ = multiPrinter.Stop()
	}()

	for _, target := range targets(cfg.BundleWindows) {
		spinner, _ := pterm.DefaultSpinner.WithWriter(multiPrinter.NewWriter()).Start("Vendoring ", target.String())

		err := vendorTarget(ctx, client, cfg, rel, target)
		switch {
		case err == nil:
			spinner.Success("Staged ", target.String())
		case isSkippable(err) && !target.Required:
			slog.With("target", target.String(), "error", err).
				With(metaerr.GetMetadata(err)...).
				Warn("skipping optional target")
			spinner.Warning("Skipped ", target.String(), ": ", err)
		default:
			slog.With("target", target.String(), "error", err).
				With(metaerr.GetMetadata(err)...).
				Error("failed to vendor target")
			spinner.Fail("Failed ", target.String(), ": ", err)
			return metaerr.WithMetadata(fmt.Errorf("target %s: %w", target, err), "target", target.String())
		}
	}

	return nil
}

// isSkippable reports whether the error only means this target has
// nothing to stage. Everything else is fatal regardless of the target.
func isSkippable(err error) bool {
	return errors.Is(err, errNoMatchingAsset) || errors.Is(err, errBinaryNotFound)
}

// vendorTarget stages the binary for a single target. Its scratch
// directory is created fresh and removed again whatever happens.
func vendorTarget(ctx context.Context, client *http.Client, cfg Config, rel Release, target Target) error {
	asset := SelectAsset(rel.Assets, target)
	if asset == nil {
		return errNoMatchingAsset
	}
	if err := validateAsset(*asset); err != nil {
		return metaerr.WithMetadata(err, "asset", asset.Name)
	}

	slog.Info("downloading asset", "asset", asset.Name, "target", target.String(), "size", asset.Size)

	tmpDir, err := os.MkdirTemp("", "vendorbird-*")
	if err != nil {
		return fmt.Errorf("create scratch dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			slog.Error("failed to remove scratch directory", "dir", tmpDir, "error", err)
		}
	}()

	archive, err := Download(ctx, client, asset.DownloadURL, tmpDir, asset.Name)
	if err != nil {
		return metaerr.WithMetadata(fmt.Errorf("download asset: %w", err), "url", asset.DownloadURL)
	}

	scratch := filepath.Join(tmpDir, "extract")
	if err := os.MkdirAll(scratch, 0o755); err != nil {
		return err
	}
	if err := ExtractArchive(archive, asset.Name, scratch); err != nil {
		return metaerr.WithMetadata(fmt.Errorf("extract asset: %w", err), "asset", asset.Name)
	}

	src, err := LocateBinary(scratch, target.OS == "windows")
	if err != nil {
		return metaerr.WithMetadata(err, "asset", asset.Name)
	}

	dst := StagePath(cfg.OutDir, target)
	if err := StageBinary(src, dst); err != nil {
		return fmt.Errorf("stage binary: %w", err)
	}

	slog.Info("staged binary", "target", target.String(), "path", dst)
	return nil
}
