// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/refrontier

// Command refrontier decodes and re-encodes game asset containers.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/urfave/cli/v2"
	"github.com/woozymasta/refrontier"
	"gopkg.in/yaml.v3"
)

func main() {
	app := &cli.App{
		Name:      "refrontier",
		Usage:     "Unpack, decompress, decrypt and rebuild game asset containers",
		ArgsUsage: "<file|dir>...",
		Flags:     runFlags,
		Action:    run,
		Commands: []*cli.Command{
			&cmdHandlers,
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

var runFlags = []cli.Flag{
	&cli.PathFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML config file"},
	&cli.IntFlag{Name: "parallelism", Aliases: []string{"j"}, Usage: "worker count, 0 for all CPUs"},
	&cli.BoolFlag{Name: "recursive", Aliases: []string{"r"}, Usage: "descend into subdirectories"},
	&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "debug logging"},
	&cli.BoolFlag{Name: "no-decryption", Usage: "skip encrypted files"},
	&cli.BoolFlag{Name: "stage-container", Usage: "unpack nested archives recursively"},
	&cli.BoolFlag{Name: "encrypt", Usage: "encrypt plain files"},
	&cli.BoolFlag{Name: "save-meta", Usage: "write encryption header sidecars"},
	&cli.BoolFlag{Name: "clean-up", Usage: "remove chained intermediate outputs"},
	&cli.BoolFlag{Name: "repack", Usage: "rebuild archives from manifests"},
	&cli.BoolFlag{Name: "chain", Usage: "route outputs again until nothing applies"},
	&cli.StringFlag{Name: "compress", Usage: "compress plain files with algorithm (rw, hfirw, lz, hfi, lzss, lz4)"},
	&cli.IntFlag{Name: "max-depth", Usage: "nesting and chain depth limit"},
	&cli.UintFlag{Name: "key-index", Usage: "encryption key slot when no meta sidecar exists"},
	&cli.StringSliceFlag{Name: "include", Usage: "keep matching files found in directories"},
	&cli.StringSliceFlag{Name: "exclude", Usage: "drop matching files found in directories"},
	&cli.PathFlag{Name: "report", Usage: "write the run report as YAML"},
}

var cmdHandlers = cli.Command{
	Name:  "handlers",
	Usage: "List built-in handlers by priority",
	Action: func(_ *cli.Context) error {
		for _, h := range refrontier.NewDefaultRouter().Handlers() {
			fmt.Printf("%4d  %s\n", h.Priority, h.Name)
		}
		return nil
	},
}

func run(c *cli.Context) error {
	paths := c.Args().Slice()
	if len(paths) == 0 {
		return cli.Exit("no input paths", 2)
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger := refrontier.NewLogger(os.Stderr, cfg.Verbose)
	report, err := refrontier.NewPipeline(nil, logger).Run(ctx, paths, cfg)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	if out := c.Path("report"); out != "" {
		data, err := yaml.Marshal(report)
		if err != nil {
			return err
		}
		if err := os.WriteFile(out, data, 0o600); err != nil {
			return err
		}
	}

	fmt.Printf("processed %d, skipped %d, failed %d in %s\n", report.Processed, report.Skipped, report.Failed, report.Duration)
	if !report.OK() {
		return cli.Exit("", 1)
	}

	return nil
}

// loadConfig merges the optional config file with explicitly set flags.
func loadConfig(c *cli.Context) (refrontier.Config, error) {
	cfg := refrontier.DefaultConfig()
	if path := c.Path("config"); path != "" {
		loaded, err := refrontier.LoadConfig(path)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	if c.IsSet("parallelism") {
		cfg.Parallelism = c.Int("parallelism")
	}
	if c.IsSet("max-depth") {
		cfg.MaxDepth = c.Int("max-depth")
	}
	if c.IsSet("key-index") {
		idx := c.Uint("key-index")
		if idx > 0xFFFF {
			return cfg, fmt.Errorf("%w: key index %d", refrontier.ErrInvalidConfig, idx)
		}
		cfg.KeyIndex = uint16(idx) //nolint:gosec // checked above
	}
	if c.IsSet("compress") {
		cfg.Compress = c.String("compress")
	}
	if c.IsSet("include") {
		cfg.Include = c.StringSlice("include")
	}
	if c.IsSet("exclude") {
		cfg.Exclude = c.StringSlice("exclude")
	}

	bools := []struct {
		dst  *bool
		name string
	}{
		{&cfg.Recursive, "recursive"},
		{&cfg.Verbose, "verbose"},
		{&cfg.NoDecryption, "no-decryption"},
		{&cfg.StageContainer, "stage-container"},
		{&cfg.Encrypt, "encrypt"},
		{&cfg.SaveMeta, "save-meta"},
		{&cfg.CleanUp, "clean-up"},
		{&cfg.Repack, "repack"},
		{&cfg.Chain, "chain"},
	}
	for _, b := range bools {
		if c.IsSet(b.name) {
			*b.dst = c.Bool(b.name)
		}
	}

	return cfg, cfg.Validate()
}
