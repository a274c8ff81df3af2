package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/glimte/mmate-intercept/catalog"
	"github.com/glimte/mmate-intercept/interceptors"
	"github.com/glimte/mmate-intercept/internal/config"
	"github.com/glimte/mmate-intercept/internal/journal"
	"github.com/glimte/mmate-intercept/internal/observability"
	"github.com/glimte/mmate-intercept/registry"
	"github.com/prometheus/client_golang/prometheus"
)

// Infrastructure interceptors wrap the catalog plugins
const (
	metricsSortOrder = -20
	loggingSortOrder = -10
)

type appOptions struct {
	configPath string
	around     bool
	disable    []string
	verbose    bool
}

type app struct {
	logger   *slog.Logger
	registry *registry.Registry
	metrics  *prometheus.Registry
	journal  *journal.InMemoryJournal
	deriver  *catalog.KeyDeriver
}

func newApp(opts *appOptions, stderr io.Writer) (*app, error) {
	level := slog.LevelWarn
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := observability.NewLoggerTo(stderr, "keygen", level)

	changes := journal.NewInMemoryJournal()
	reg := registry.New(registry.WithLogger(logger), registry.WithJournal(changes))
	style := catalog.StyleSplit
	if opts.around {
		style = catalog.StyleAround
	}
	if err := catalog.Install(reg, style); err != nil {
		return nil, fmt.Errorf("install catalog plugins: %w", err)
	}

	promReg := prometheus.NewRegistry()
	collector := observability.NewMetrics(promReg)
	infra := []interceptors.Registration{
		interceptors.Register(interceptors.NewMetricsInterceptor(collector), metricsSortOrder),
		{
			Interceptor: interceptors.NewLoggingInterceptor(logger),
			SortOrder:   loggingSortOrder,
			Enabled:     opts.verbose,
		},
	}
	for _, r := range infra {
		if err := reg.Attach(catalog.DeriveKeyID, r); err != nil {
			return nil, fmt.Errorf("attach %s: %w", r.Name(), err)
		}
	}

	if opts.configPath != "" {
		plugins, err := config.Load(opts.configPath)
		if err != nil {
			return nil, err
		}
		if err := reg.Apply(plugins); err != nil {
			return nil, fmt.Errorf("apply %s: %w", opts.configPath, err)
		}
	}

	for _, name := range opts.disable {
		if err := reg.SetEnabled(catalog.DeriveKeyID, name, false); err != nil {
			return nil, fmt.Errorf("disable %s: %w", name, err)
		}
	}

	return &app{
		logger:   logger,
		registry: reg,
		metrics:  promReg,
		journal:  changes,
		deriver:  catalog.NewKeyDeriver(reg),
	}, nil
}
