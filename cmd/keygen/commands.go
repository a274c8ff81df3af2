package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/glimte/mmate-intercept/catalog"
	"github.com/glimte/mmate-intercept/internal/config"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

func newDeriveCmd(opts *appOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "derive <sku>...",
		Short: "Derive the key for one or more SKUs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			for _, sku := range args {
				key, err := a.deriver.DeriveKey(cmd.Context(), sku)
				if err != nil {
					return err
				}
				if len(args) == 1 {
					fmt.Fprintln(cmd.OutOrStdout(), key)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", sku, key)
			}
			return nil
		},
	}
}

func newPluginsCmd(opts *appOptions) *cobra.Command {
	var history bool

	cmd := &cobra.Command{
		Use:   "plugins",
		Short: "List the plugin chain of the key derivation operation",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if history {
				return printHistory(cmd, a)
			}
			chain, err := a.registry.Chain(catalog.DeriveKeyID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-20s %-10s %-8s %-20s\n", "Name", "Order", "Enabled", "Capabilities")
			for _, d := range chain.Describe() {
				fmt.Fprintf(out, "%-20s %-10d %-8t %-20s\n", d.Name, d.SortOrder, d.Enabled, d.Capabilities)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&history, "history", false, "Show how the chain was assembled instead of its current state")
	return cmd
}

func printHistory(cmd *cobra.Command, a *app) error {
	entries, err := a.journal.GetByOperation(cmd.Context(), catalog.DeriveKeyID.String(), 0)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%-12s %-20s %s\n", "Change", "Interceptor", "Error")
	for _, e := range entries {
		fmt.Fprintf(out, "%-12s %-20s %s\n", e.Change, e.Interceptor, e.Error)
	}
	return nil
}

func newWatchCmd(opts *appOptions) *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Derive keys for SKUs read from stdin, reloading plugins on config change",
		Long: `watch reads one SKU per line from stdin and prints its key. The plugin
declaration file given with --config is watched and re-applied when it changes;
derivations already running keep the chain they started with.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.configPath == "" {
				return errors.New("watch requires --config")
			}
			a, err := newApp(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			watcher := config.NewWatcher(opts.configPath, a.logger)
			if _, err := watcher.Load(); err != nil {
				return err
			}
			watcher.OnChange(func(p *config.Plugins) {
				if err := a.registry.Apply(p); err != nil {
					a.logger.Error("failed to apply plugin config", "error", err)
				}
			})
			go func() {
				if err := watcher.Watch(ctx.Done()); err != nil {
					a.logger.Error("config watcher stopped", "error", err)
				}
			}()

			if metricsAddr != "" {
				mux := http.NewServeMux()
				mux.Handle("GET /metrics", promhttp.HandlerFor(a.metrics, promhttp.HandlerOpts{}))
				srv := &http.Server{Addr: metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
				go func() {
					a.logger.Info("metrics server started", "addr", metricsAddr)
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						a.logger.Error("metrics server error", "error", err)
					}
				}()
				defer func() {
					shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer shutdownCancel()
					_ = srv.Shutdown(shutdownCtx)
				}()
			}

			return deriveLines(ctx, a, cmd)
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (disabled when empty)")
	return cmd
}

func deriveLines(ctx context.Context, a *app, cmd *cobra.Command) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(cmd.InOrStdin())
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			sku := strings.TrimSpace(line)
			if sku == "" {
				continue
			}
			key, err := a.deriver.DeriveKey(ctx, sku)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", sku, err)
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", sku, key)
		}
	}
}
