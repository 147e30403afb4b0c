package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/cluttrdev/cli"
)

func newVersionsCmd() *cli.Command {
	cfg := versionsCmd{}

	fs := flag.NewFlagSet("vendorbird versions", flag.ExitOnError)

	cfg.RegisterFlags(fs)

	return &cli.Command{
		Name:       "versions",
		ShortHelp:  "List upstream release tags.",
		ShortUsage: "vendorbird versions [OPTION]...",
		Flags:      fs,
		Exec:       cfg.Exec,
	}
}

type versionsCmd struct {
	rootCmd

	constraint string
	prefix     string
}

func (c *versionsCmd) RegisterFlags(fs *flag.FlagSet) {
	c.rootCmd.RegisterFlags(fs)

	fs.StringVar(&c.constraint, "constraint", "", "Resolve the latest tag matching a semver constraint instead of listing all tags.")
	fs.StringVar(&c.prefix, "prefix", "", "Tag prefix to strip before semver comparison (e.g. 'bird-').")
}

func (c *versionsCmd) Exec(ctx context.Context, args []string) error {
	c.initLogging()

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}

	versions, err := GetVersions(ctx, metadataClient(cfg.Token), cfg.APIBaseURL, cfg.Repo)
	if err != nil {
		return fmt.Errorf("list release tags: %w", err)
	}

	if c.constraint != "" {
		latest, err := FindLatestVersion(versions, c.constraint, c.prefix)
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, latest)
		return nil
	}

	for _, v := range versions {
		fmt.Fprintln(os.Stdout, v)
	}
	return nil
}
