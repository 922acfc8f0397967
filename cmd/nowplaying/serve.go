package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/micro-nova/nowplaying/internal/api"
	"github.com/micro-nova/nowplaying/internal/artwork"
	"github.com/micro-nova/nowplaying/internal/auth"
	"github.com/micro-nova/nowplaying/internal/config"
	"github.com/micro-nova/nowplaying/internal/controller"
	"github.com/micro-nova/nowplaying/internal/events"
	"github.com/micro-nova/nowplaying/internal/metrics"
	"github.com/micro-nova/nowplaying/internal/models"
	"github.com/micro-nova/nowplaying/internal/mpris"
	"github.com/micro-nova/nowplaying/internal/zeroconf"
)

// Serve flags
var (
	flagAddr     string
	flagZeroconf bool
	flagAPIKey   string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the now-playing daemon",
	Args:  cobra.NoArgs,
	RunE:  serveRun,
}

func init() {
	serveCmd.Flags().StringVar(&flagAddr, "addr", "", "HTTP listen address (default from settings: 127.0.0.1:7878)")
	serveCmd.Flags().BoolVar(&flagZeroconf, "zeroconf", false, "advertise the API over mDNS")
	serveCmd.Flags().StringVar(&flagAPIKey, "api-key", "", "require this key in X-API-Key (empty leaves the API open)")
}

func serveRun(cmd *cobra.Command, args []string) error {
	// Graceful shutdown context
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	store := openStore(settings.ConfigDir)
	cfgMgr := config.NewManager(store)

	src, closeSrc := openSource(settings)
	defer closeSrc()

	bus := events.NewBus()
	m := metrics.New()

	ctrl := controller.New(src, cfgMgr, controller.Options{
		PollInterval: settings.PollInterval.Duration,
		ArtTimeout:   settings.ArtTimeout.Duration,
		ArtMaxEdge:   settings.ArtMaxEdge,
		Fetcher:      artwork.NewHTTPFetcher(settings.ArtMaxBytes, settings.ArtTimeout.Duration),
		Bus:          bus,
		Metrics:      m,
	})
	ctrlDone := make(chan struct{})
	go func() {
		ctrl.Run(ctx)
		close(ctrlDone)
	}()

	// Bus signals and external config edits only nudge the loop.
	if !flagMock {
		go mpris.NewWatcher("", ctrl.RequestRefresh).Run(ctx)
	}
	if _, ok := store.(*config.JSONStore); ok {
		go func() {
			if err := config.Watch(ctx, store.Path(), models.ConfigKey, ctrl.RequestConfigReload); err != nil {
				slog.Warn("config watcher stopped", "err", err)
			}
		}()
	}

	guard := auth.NewGuard(settings.APIKey)
	if guard.IsOpenMode() {
		slog.Info("API key not set, API is open")
	}

	// Zeroconf mDNS registration
	if settings.Zeroconf {
		zc := zeroconf.New("", listenPort(settings.Addr), Version, !guard.IsOpenMode())
		go func() {
			if err := zc.Start(ctx); err != nil {
				slog.Warn("zeroconf failed", "err", err)
			}
		}()
	}

	// HTTP server
	router := api.NewRouter(ctrl, bus, api.Options{
		Guard:   guard,
		Metrics: m,
		OnScrape: func() {
			m.SetSSE(bus.SubscriberCount(), bus.Dropped())
		},
	})
	srv := &http.Server{
		Addr:         settings.Addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // 0 = no timeout (needed for SSE)
		IdleTimeout:  120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("nowplaying listening", "addr", settings.Addr, "mock", flagMock, "config", store.Path())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	// Wait for shutdown signal or a listener failure
	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-serveErr:
		slog.Error("server error", "err", runErr)
		cancel()
	}
	slog.Info("shutting down...")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutCancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		slog.Warn("server shutdown error", "err", err)
	}
	<-ctrlDone

	// Flush pending config writes
	if err := store.Flush(); err != nil {
		slog.Warn("failed to flush config", "err", err)
	}

	slog.Info("shutdown complete")
	if runErr != nil {
		return fmt.Errorf("http server: %w", runErr)
	}
	return nil
}

// openStore opens the JSON store under dir, or falls back to memory so the
// daemon still runs when the directory is unusable.
func openStore(dir string) config.Store {
	store, err := config.NewJSONStore(dir)
	if err != nil {
		slog.Warn("config store unavailable, settings will not persist", "dir", dir, "err", err)
		return config.NewMemStore()
	}
	return store
}

// openSource returns the player source and its cleanup.
func openSource(s *config.Settings) (mpris.Source, func()) {
	if flagMock {
		slog.Info("using mock players")
		return mpris.NewDemoMock(), func() {}
	}
	src := mpris.NewDBusSource(mpris.Options{
		CallTimeout: s.CallTimeout.Duration,
		CommandRate: s.CommandRate,
	})
	return src, func() {
		if err := src.Close(); err != nil {
			slog.Warn("closing session bus", "err", err)
		}
	}
}

// listenPort extracts the port from a listen address, 80 when absent.
func listenPort(addr string) int {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return 80
	}
	p, err := strconv.Atoi(port)
	if err != nil {
		return 80
	}
	return p
}
