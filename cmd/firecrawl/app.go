package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"firecrawl/pkg/auth"
	"firecrawl/pkg/config"
	"firecrawl/pkg/export"
	"firecrawl/pkg/firecrawl"
	"firecrawl/pkg/jobs"
	"firecrawl/pkg/logger"
	"firecrawl/pkg/scraper"
	"firecrawl/pkg/telemetry"
	"firecrawl/pkg/ui"
)

// app holds everything a command needs to talk to the API
type app struct {
	cfg     *config.Config
	client  *firecrawl.Client
	scraper *scraper.Scraper
	jobs    jobs.Store
	log     logger.Logger
	closers []func(context.Context) error
}

// loadConfig merges the global flags with extra command flags and sets up logging
func loadConfig(extra map[string]interface{}) (*config.Config, error) {
	flags := map[string]interface{}{
		"api-url":   apiURL,
		"api-key":   apiKey,
		"log-level": logLevel,
	}
	if quiet && logLevel == "" {
		flags["log-level"] = "error"
	}
	for k, v := range extra {
		flags[k] = v
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return nil, err
	}
	if noNotify {
		cfg.Notifications.Enabled = false
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, nil
}

// resolveAPIKey fills in a stored key when none was configured. Servers
// without authentication need no key, so a missing credential is only an
// error when a profile was asked for by name.
func resolveAPIKey(cfg *config.Config, log logger.Logger) error {
	if cfg.API.APIKey != "" {
		return nil
	}

	manager, err := auth.NewManager()
	if err != nil {
		log.WithError(err).Debug("Credential manager unavailable")
		if profile != "" {
			return err
		}
		return nil
	}

	var cred *auth.Credential
	if profile != "" {
		cred, err = manager.Retrieve(profile)
		if err != nil {
			return fmt.Errorf("no credentials for profile %q, run 'firecrawl auth login %s'", profile, profile)
		}
	} else if cred, err = manager.RetrieveDefault(); err != nil {
		log.Debug("No stored credentials, sending requests without an API key")
		return nil
	}

	cfg.API.APIKey = cred.APIKey
	if cred.APIURL != "" && apiURL == "" && cfg.API.URL == config.DefaultAPIURL {
		cfg.API.URL = cred.APIURL
	}
	log.WithField("profile", cred.Name).Debug("Using stored credentials")
	return nil
}

// newApp wires the client, telemetry, job store and export sinks for cfg
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	log := logger.GetLogger()
	a := &app{cfg: cfg, log: log}

	if err := resolveAPIKey(cfg, log); err != nil {
		return nil, err
	}

	metrics := telemetry.NewMetrics()
	if addr := cfg.Telemetry.MetricsAddress; addr != "" {
		go func() {
			if err := metrics.Serve(ctx, addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.WithError(err).WithField("address", addr).Warn("Metrics endpoint stopped")
			}
		}()
	}

	providers, err := telemetry.Init(ctx, telemetry.FromSettings(cfg.Telemetry))
	if err != nil {
		return nil, err
	}
	if providers != nil {
		a.closers = append(a.closers, providers.Shutdown)
	}

	httpClient := &http.Client{
		Timeout:   cfg.API.Timeout.Std(),
		Transport: telemetry.InstrumentTransport(http.DefaultTransport, providers),
	}
	a.client = firecrawl.NewClient(firecrawl.ConfigFromSettings(cfg.API),
		firecrawl.WithHTTPClient(httpClient),
		firecrawl.WithLogger(log),
		firecrawl.WithObserver(metrics),
		firecrawl.WithUserAgent("firecrawl-cli/"+version),
	)

	store, err := jobs.Open(cfg)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to open job store: %w", err)
	}
	a.jobs = store
	a.closers = append(a.closers, func(context.Context) error { return store.Close() })

	opts := []scraper.Option{
		scraper.WithJobStore(store),
		scraper.WithNotifier(ui.NewNotifier(cfg.Notifications)),
		scraper.WithLogger(log),
	}
	if len(cfg.Export.KafkaBrokers) > 0 {
		sink := export.NewKafkaSink(cfg.Export.KafkaBrokers, cfg.Export.KafkaTopic)
		opts = append(opts, scraper.WithSink(sink))
		a.closers = append(a.closers, func(context.Context) error { return sink.Close() })
		log.WithField("topic", cfg.Export.KafkaTopic).Debug("Exporting crawled pages to Kafka")
	}

	a.scraper, err = scraper.New(a.client, cfg, opts...)
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// Close releases resources in reverse order of creation
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](context.Background()); err != nil {
			a.log.WithError(err).Warn("Shutdown step failed")
		}
	}
	a.closers = nil
}

// printResult writes value as a labelled line, or bare in quiet mode so the
// output can be piped
func printResult(cmd *cobra.Command, label, value string) {
	if quiet {
		fmt.Fprintln(cmd.OutOrStdout(), value)
		return
	}
	ui.PrintInfo(label, value)
}
