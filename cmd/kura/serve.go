package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/kura/internal/models"
	"github.com/hyperjump/kura/internal/server"
	"github.com/hyperjump/kura/internal/watcher"
)

const shutdownTimeout = 10 * time.Second

func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP query API",
		Long: `Load (or build) the index and serve search, answer, status and rebuild over HTTP.
With --watch, changes in the document directory trigger a rebuild.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
	cmd.Flags().String("host", "", "listen host (overrides server.host)")
	cmd.Flags().Int("port", 0, "listen port (overrides server.port)")
	cmd.Flags().Bool("watch", false, "rebuild when the document directory changes (overrides watch.enabled)")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.Close()

	if v, _ := cmd.Flags().GetString("host"); v != "" {
		a.cfg.Server.Host = v
	}
	if v, _ := cmd.Flags().GetInt("port"); v > 0 {
		a.cfg.Server.Port = v
	}
	if v, _ := cmd.Flags().GetBool("watch"); v {
		a.cfg.Watch.Enabled = true
	}

	ctx := cmd.Context()
	if _, err := a.store.LoadOrBuild(ctx, a.loadOrBuildOptions(false)); err != nil {
		if !errors.Is(err, models.ErrNoDocuments) {
			return err
		}
		a.logger.Warn("no documents to index yet; serving without an index", zap.Error(err))
	}

	srv := server.NewServer(a.store, a.cfg, a.logger)

	if a.cfg.Watch.Enabled {
		w := watcher.NewWatcher(a.cfg.Documents.Directory, a.cfg.Documents.Extensions,
			func(paths []string) {
				a.logger.Info("documents changed, rebuilding", zap.Strings("paths", paths))
				if _, err := srv.Rebuild(ctx); err != nil {
					a.logger.Warn("rebuild after change failed", zap.Error(err))
				}
			},
			watcher.WithLogger(a.logger),
			watcher.WithDebounce(a.cfg.Watch.Debounce),
		)
		if err := w.Start(ctx); err != nil {
			return err
		}
		defer w.Stop()
		a.logger.Info("watching documents", zap.String("dir", w.Dir()))
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Stop(shutdownCtx)
}
