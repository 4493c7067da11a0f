package main

import (
	"context"
	"embed"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/alvasen/sophamtning-ale/internal/agent"
	"github.com/alvasen/sophamtning-ale/internal/cache"
	"github.com/alvasen/sophamtning-ale/internal/clock"
	"github.com/alvasen/sophamtning-ale/internal/config"
	"github.com/alvasen/sophamtning-ale/internal/edp"
	"github.com/alvasen/sophamtning-ale/internal/notify"
	"github.com/alvasen/sophamtning-ale/internal/schedule"
	"github.com/alvasen/sophamtning-ale/internal/store"
	"github.com/alvasen/sophamtning-ale/internal/web"
)

//go:embed static
var staticFS embed.FS

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := config.MustLoad()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	kv, closeStore, err := newStore(ctx, cfg)
	if err != nil {
		slog.Error("connecting store", "backend", cfg.Store.Backend, "error", err)
		os.Exit(1)
	}
	defer closeStore()

	bucket := cache.New(kv, cfg.Cache.Version)
	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		slog.Error("embedded static assets missing", "error", err)
		os.Exit(1)
	}
	if err := primeCache(ctx, bucket, static); err != nil {
		slog.Error("priming offline cache", "error", err)
		os.Exit(1)
	}

	transport := &agent.Transport{Bucket: bucket}
	client := edp.NewClient(cfg.Upstream.BaseURL,
		&http.Client{Transport: transport, Timeout: cfg.Upstream.Timeout},
		cfg.Upstream.MinInterval)

	svc := schedule.NewService(client, kv, clock.Real{})

	reminder := agent.New(agent.Options{
		Bucket:            bucket,
		Registry:          agent.NewRegistry(cfg.Reminder.ClientTTL),
		Notifier:          newNotifier(cfg),
		Permissions:       notify.NewPermissions(kv),
		Clock:             clock.Real{},
		ScheduleKeyPrefix: "GET " + cfg.Upstream.BaseURL + edp.SchedulePath,
		CheckInterval:     cfg.Reminder.CheckInterval,
	})

	srv := web.NewServer(web.Options{
		Schedule:    svc,
		Searcher:    client,
		KV:          kv,
		Agent:       reminder,
		Static:      static,
		Debounce:    cfg.Search.Debounce,
		BaseContext: ctx,
	})

	httpServer := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      srv,
		ReadTimeout:  cfg.HTTPServer.ReadTimeout,
		WriteTimeout: cfg.HTTPServer.WriteTimeout,
	}

	go func() {
		slog.Info("server listening", "address", cfg.HTTPServer.Address)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("http server", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTPServer.ShutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("server exited")
}

func newStore(ctx context.Context, cfg *config.Config) (store.KV, func(), error) {
	if cfg.Store.Backend == "redis" {
		r, err := store.NewRedis(ctx, cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, nil, err
		}
		return r, func() {
			if err := r.Close(); err != nil {
				slog.Warn("closing redis", "error", err)
			}
		}, nil
	}
	slog.Info("using in-memory store, state is lost on restart")
	return store.NewMemory(), func() {}, nil
}

func newNotifier(cfg *config.Config) notify.Notifier {
	if cfg.Pushover.Token != "" && cfg.Pushover.User != "" {
		return notify.NewPushover(cfg.Pushover.Token, cfg.Pushover.User)
	}
	slog.Info("pushover not configured, reminders go to the log")
	return notify.Log{}
}

// primeCache installs the static asset list into the current cache
// version and drops entries left by older versions.
func primeCache(ctx context.Context, bucket *cache.Bucket, static fs.FS) error {
	assets := map[string]cache.Asset{}
	index, err := fs.ReadFile(static, "index.html")
	if err != nil {
		return err
	}
	assets["/"] = cache.Asset{ContentType: "text/html; charset=utf-8", Body: index}

	manifest, err := fs.ReadFile(static, "manifest.json")
	if err != nil {
		return err
	}
	assets["/manifest.json"] = cache.Asset{ContentType: "application/json", Body: manifest}

	if err := bucket.Install(ctx, assets); err != nil {
		return err
	}
	return bucket.Activate(ctx)
}
