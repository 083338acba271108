package cli

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"embedd/internal/backend"
	"embedd/internal/config"
	"embedd/internal/httpapi"
	"embedd/internal/manager"
	"embedd/internal/watch"
)

const shutdownTimeout = 10 * time.Second

func runServe(cmd *cobra.Command, o *options) error {
	cfg, err := loadConfig(cmd, o)
	if err != nil {
		return err
	}
	log := newLogger(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return err
	}
	return serve(cmd.Context(), ln, cfg, log)
}

// serve runs the HTTP server, the idle sweeper and the optional model file
// watcher until ctx is cancelled, then drains requests and releases the model.
func serve(ctx context.Context, ln net.Listener, cfg config.Config, log zerolog.Logger) error {
	loader, err := backend.New(cfg)
	if err != nil {
		_ = ln.Close()
		return err
	}
	if !backend.Compiled(cfg.Backend) {
		log.Warn().Str("backend", cfg.Backend).Msg("backend not compiled into this binary; embedding requests will fail with 503")
	}
	info := backend.Describe(cfg)

	mgr := manager.New(manager.Config{
		Loader:        loader,
		IdleTimeout:   cfg.IdleTimeout(),
		CheckInterval: cfg.CheckInterval(),
		Reclaim:       backend.Reclaim(),
		Publisher:     manager.MultiPublisher{manager.NewMetricsPublisher(nil)},
		Logger:        &log,
	})

	g, gctx := errgroup.WithContext(ctx)

	httpapi.SetLogger(log)
	httpapi.SetRequestLogLevel(requestLogLevel(cfg.LogLevel))
	httpapi.SetMaxBodyBytes(cfg.MaxBodyBytes)
	httpapi.SetCORSOptions(cfg.CORSEnabled, cfg.CORSAllowedOrigins, nil, nil)
	httpapi.SetBaseContext(gctx)

	srv := &http.Server{
		Handler: httpapi.NewMux(mgr, httpapi.Options{
			Version:          Version,
			Model:            info,
			APIKey:           cfg.APIKey,
			MaxBatchSize:     cfg.MaxBatchSize,
			DefaultBatchSize: cfg.DefaultBatchSize,
			IdleTimeout:      cfg.IdleTimeout(),
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		log.Info().
			Str("addr", ln.Addr().String()).
			Str("model", info.Name).
			Str("backend", info.Backend).
			Str("device", info.Device).
			Bool("auth", cfg.AuthRequired()).
			Msg("embedd listening")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			log.Warn().Err(err).Msg("graceful shutdown error")
		}
		return nil
	})
	g.Go(func() error { return mgr.Run(gctx) })
	g.Go(func() error {
		// A failed eager load is reported and retried by the next request.
		if err := mgr.Start(gctx); err != nil && gctx.Err() == nil {
			log.Error().Err(err).Msg("initial model load failed")
		}
		return nil
	})
	if cfg.WatchModelFile {
		w := watch.New(mgr, []string{cfg.ModelPath, cfg.TokenizerPath}, watch.WithLogger(log))
		g.Go(func() error {
			if err := w.Run(gctx); err != nil {
				log.Warn().Err(err).Msg("model file watch disabled")
			}
			return nil
		})
	}

	err = g.Wait()
	if cerr := mgr.Close(); cerr != nil {
		log.Warn().Err(cerr).Msg("release model")
	}
	log.Info().Msg("embedd stopped")
	return err
}
