package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"

	"github.com/lysyi3m/news-comb/app/catalog"
)

// Options controls an offline catalog build.
type Options struct {
	SourcesDir string        `long:"sources-dir" env:"SOURCES_DIR" default:"./sources" description:"Directory containing source YAML files"`
	Output     string        `long:"output" short:"o" env:"CATALOG_FILE" default:"./catalog.yml" description:"Where to write the catalog"`
	Version    string        `long:"version" description:"Catalog version label (defaults to today's date)"`
	Relative   bool          `long:"relative" description:"Store record ages instead of timestamps"`
	UserAgent  string        `long:"user-agent" env:"USER_AGENT" default:"News Comb/1.0" description:"User agent string for HTTP requests"`
	Timeout    time.Duration `long:"timeout" default:"5m" description:"Overall build timeout"`
	Debug      bool          `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

func main() {
	var opts Options

	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return
		}
		os.Exit(2)
	}

	level := slog.LevelInfo
	if opts.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if err := run(opts); err != nil {
		slog.Error("Catalog build failed", "error", err)
		os.Exit(1)
	}
}

func run(opts Options) error {
	sources, err := catalog.LoadSources(opts.SourcesDir)
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		return fmt.Errorf("no sources found in %s", opts.SourcesDir)
	}
	slog.Info("Loaded sources", "count", len(sources), "enabled", len(catalog.EnabledSources(sources)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	builder := catalog.NewBuilder(&http.Client{}, opts.UserAgent)
	file, err := builder.Build(ctx, sources, catalog.BuildOptions{
		Version:  opts.Version,
		Relative: opts.Relative,
	})
	if err != nil {
		return err
	}

	// Reject output the service would refuse to load.
	if _, err := catalog.New(file, time.Now()); err != nil {
		return err
	}

	if err := catalog.WriteFile(opts.Output, file); err != nil {
		return err
	}

	slog.Info("Catalog written", "path", opts.Output, "version", file.Version, "records", len(file.Records))
	return nil
}
