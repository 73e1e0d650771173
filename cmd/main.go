package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"

	"github.com/jaki95/unreleased-downloader/config"
	"github.com/jaki95/unreleased-downloader/internal/audio"
	"github.com/jaki95/unreleased-downloader/internal/downloader"
	"github.com/jaki95/unreleased-downloader/internal/fetch"
	"github.com/jaki95/unreleased-downloader/internal/output"
	"github.com/jaki95/unreleased-downloader/internal/pipeline"
	"github.com/jaki95/unreleased-downloader/internal/storage"
)

func main() {
	trackerURL := flag.String("url", "", "URL of the tracker page")
	trackerFile := flag.String("file", "", "Path to a saved tracker HTML page")
	configPath := flag.String("config", "", "Path to the YAML config file")
	outputDir := flag.String("out", "", "Output root directory (overrides config)")
	template := flag.String("template", "", "Filename template (overrides config)")
	workers := flag.Int("workers", 0, "Maximum concurrent downloads (overrides config)")
	dryRun := flag.Bool("dry-run", false, "List the scheduled songs without downloading")
	logFormat := flag.String("log-format", "json", "Log format: json or text")

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage of %s:\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if *trackerURL == "" && *trackerFile == "" {
		fmt.Fprintln(os.Stderr, "Missing required flag: -url or -file")
		flag.Usage()
		os.Exit(2)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *outputDir != "" {
		cfg.Output.Dir = *outputDir
	}
	if *template != "" {
		cfg.Output.FilenameTemplate = *template
	}
	if *workers > 0 {
		cfg.Workers = *workers
	}

	slog.SetDefault(slog.New(newHandler(*logFormat, os.Stdout, slog.Level(cfg.LogLevel))))

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, pipeline.Source{URL: *trackerURL, File: *trackerFile}, *dryRun); err != nil {
		slog.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func newHandler(format string, w io.Writer, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if format == "text" {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

func run(ctx context.Context, cfg *config.Config, src pipeline.Source, dryRun bool) error {
	fetchOpts := fetch.Options{
		Type:        cfg.Fetcher.Type,
		ZyteAPIKey:  cfg.Fetcher.ZyteAPIKey,
		ZyteURL:     cfg.Fetcher.ZyteEndpoint,
		BrowserHTML: cfg.Fetcher.BrowserHTML,
		ChromeURL:   cfg.Fetcher.ChromeURL,
		ChromeBin:   cfg.Fetcher.ChromeBin,
		UserAgent:   cfg.HTTP.UserAgent,
		Timeout:     cfg.Fetcher.Timeout,
	}

	pages, err := fetch.New(fetchOpts)
	if err != nil {
		return err
	}
	if c, ok := pages.(io.Closer); ok {
		defer c.Close()
	}

	renderer := pages
	if cfg.Fetcher.Type == fetch.TypeZyte && !cfg.Fetcher.BrowserHTML {
		if renderer, err = fetch.NewRenderer(fetchOpts); err != nil {
			return err
		}
	}
	if cfg.Fetcher.Type == fetch.TypeDirect {
		slog.Warn("direct fetcher does not run scripts, imgur links will fail")
	}

	outputRoot := cfg.Output.Dir
	if outputRoot == "" {
		outputRoot = filepath.Join(xdg.UserDirs.Music, "Unreleased")
	}

	store, err := storage.New(ctx, storage.Options{
		Type:            cfg.Storage.Type,
		OutputDir:       outputRoot,
		Bucket:          cfg.Storage.Bucket,
		ObjectPrefix:    cfg.Storage.ObjectPrefix,
		CredentialsFile: cfg.Storage.CredentialsFile,
	})
	if err != nil {
		return err
	}

	client := downloader.NewClient(cfg.HTTP.Timeout, cfg.HTTP.UserAgent)
	dispatcher := downloader.NewDispatcher(client, renderer, downloader.DefaultEndpoints())

	transcoder := audio.NewFFMPEGEngine(
		audio.WithBinary(cfg.Transcode.Binary),
		audio.WithTimeout(cfg.Transcode.Timeout),
	)

	processor := pipeline.NewProcessor(pages, dispatcher, client, transcoder, audio.NewID3Tagger(), store, pipeline.Options{
		Workers: cfg.Workers,
		Filename: output.Options{
			Template:         cfg.Output.FilenameTemplate,
			PreferOGFilename: cfg.Output.PreferOGFilename,
		},
		CoverSize: cfg.Cover.MaxSize,
		DryRun:    dryRun,
	})

	summary, err := processor.Process(ctx, src)
	if err != nil {
		return err
	}

	slog.Info("finished",
		"tracker", summary.Tracker,
		"scheduled", summary.Scheduled,
		"downloaded", len(summary.Downloaded),
		"failed", summary.Failed,
		"orphaned", summary.Orphaned,
		"parse_errors", summary.ParseErrors,
	)
	return nil
}
