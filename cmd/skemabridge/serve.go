package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/reoring/skemabridge/crud"
	"github.com/reoring/skemabridge/fnwrap"
	"github.com/reoring/skemabridge/httpapi"
	"github.com/reoring/skemabridge/metrics"
	"github.com/reoring/skemabridge/openapi"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the generated CRUD operations over HTTP",
	Long: `Serve every table's generated operations from the configured store.

Routes per table: POST /{table}, GET /{table}, GET|PATCH|DELETE /{table}/{id}.
GET /openapi.json describes the stored documents; /metrics is mounted when
server.metrics is enabled.

Examples:
  skemabridge serve -c skemabridge.yaml
  skemabridge serve -f tables.yaml --addr :9090`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.addr)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	b, err := openBackend(e)
	if err != nil {
		return err
	}
	defer b.close()

	opts := []fnwrap.Option{fnwrap.WithObserver(fnwrap.LogObserver(e.logger))}
	reg := prometheus.NewRegistry()
	if e.cfg.Server.Metrics {
		opts = append(opts, metrics.NewWithRegistry(reg).Option())
	}
	all := make([]*crud.Operations, len(e.tables))
	for i, d := range e.tables {
		all[i] = crud.Generate(d, b.query, b.mutation, opts...)
	}

	r := httpapi.Router(e.logger, all...)
	spec, err := json.Marshal(openapi.Document("skemabridge", "0.0.1", e.tables...))
	if err != nil {
		return err
	}
	r.Get("/openapi.json", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(spec)
	})
	if e.cfg.Server.Metrics {
		r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	}

	addr := e.cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 10 * time.Second}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	errCh := make(chan error, 1)
	go func() {
		e.logger.Info().Str("addr", addr).Int("tables", len(all)).Msg("serving")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	e.logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
