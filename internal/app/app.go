package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/tabdeck/tabdeck/internal/bundle"
	"github.com/tabdeck/tabdeck/internal/config"
	"github.com/tabdeck/tabdeck/internal/httpserver"
	"github.com/tabdeck/tabdeck/internal/httpserver/deps"
	"github.com/tabdeck/tabdeck/internal/importer"
	"github.com/tabdeck/tabdeck/internal/logger"
	"github.com/tabdeck/tabdeck/internal/persist"
	"github.com/tabdeck/tabdeck/internal/redis"
	"github.com/tabdeck/tabdeck/internal/scheduler"
	"github.com/tabdeck/tabdeck/internal/schema"
	"github.com/tabdeck/tabdeck/internal/seed"
	"github.com/tabdeck/tabdeck/internal/state"
	redisstore "github.com/tabdeck/tabdeck/internal/store/redis"
	"github.com/tabdeck/tabdeck/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	adapter     *persist.Adapter
	live        *state.Live
	monitor     *scheduler.UsageMonitor
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	// Initialize Redis early - fail fast if unavailable
	loggerClient.Infof("Connecting to Redis at %s", cfg.RedisAddr)
	redisClient, err := redis.New(redis.ConnectOptions{
		Addr:           cfg.RedisAddr,
		User:           cfg.RedisUser,
		Password:       cfg.RedisPassword,
		DB:             cfg.RedisDB,
		DialTimeout:    cfg.RedisDT,
		ReadTimeout:    cfg.RedisRT,
		WriteTimeout:   cfg.RedisWT,
		PoolSize:       cfg.RedisPoolSize,
		ConnectTimeout: cfg.RedisConnectTimeout,
		RetryInterval:  cfg.RedisRetryInterval,
		MaxWait:        cfg.RedisMaxWait,
		PingTimeout:    cfg.RedisPingTimeout,
	}, loggerClient)
	if err != nil {
		loggerClient.Errorf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}
	loggerClient.Info("Redis initialized successfully")

	registry := schema.DefaultThemeRegistry
	if len(cfg.ThemeKeys) > 0 {
		registry = schema.ThemeRegistry(cfg.ThemeKeys)
	}

	store := redisstore.NewStore(redisClient, cfg.DocumentKey)

	adapter := persist.New(store, loggerClient, persist.Options{
		DebounceInterval: cfg.DebounceInterval,
		QuotaBytes:       cfg.QuotaBytes,
		WarnBytes:        cfg.WarnBytes,
		Registry:         registry,
		FirstRun:         firstRun(cfg, registry, loggerClient),
	})

	live := state.NewLive()
	live.Replace(adapter.Load(context.Background()))

	codec := bundle.NewCodec(loggerClient, registry, "tabdeck/"+version.Version)
	orchestrator := importer.New(codec, adapter, live, loggerClient, cfg.FaviconAllowList)

	monitor := scheduler.NewUsageMonitor(adapter, loggerClient, cfg.UsageCheckInterval)

	d := deps.Deps{
		Logger:       loggerClient,
		StartTime:    time.Now(),
		Version:      version.Version,
		Commit:       version.Commit,
		BuildDate:    version.BuildDate,
		GoVersion:    version.GoVersion,
		TimeNow:      time.Now,
		AllowedHosts: cfg.AllowedHosts,
		RedisClient:  redisClient,
		Registry:     registry,
		Live:         live,
		Adapter:      adapter,
		Codec:        codec,
		Importer:     orchestrator,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      server,
		redisClient: redisClient,
		adapter:     adapter,
		live:        live,
		monitor:     monitor,
	}
}

// firstRun builds the document written back when storage is empty. With a
// seed file configured it carries the seed columns; a broken seed file logs
// and falls back to bare defaults rather than blocking startup.
func firstRun(cfg *config.Config, registry schema.ThemeRegistry, log logger.Logger) func() *schema.Document {
	if cfg.SeedFile == "" {
		return nil
	}
	return func() *schema.Document {
		f, err := seed.NewLoader(cfg.SeedFile).Load()
		if err != nil {
			log.Warn("seed file unusable, starting with bare defaults",
				logger.String("file", cfg.SeedFile), logger.Error(err))
			return schema.DefaultDocument(registry)
		}
		doc, err := seed.NewMapper(registry).Map(f)
		if err != nil {
			log.Warn("seed mapping failed, starting with bare defaults",
				logger.String("file", cfg.SeedFile), logger.Error(err))
			return schema.DefaultDocument(registry)
		}
		log.Info("first run seeded from file",
			logger.String("file", cfg.SeedFile),
			logger.Int("columns", len(doc.Columns)))
		return doc
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting Tabdeck v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("Tabdeck %s", version.Human())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.monitor.Start(ctx); err != nil {
		return fmt.Errorf("failed to start usage monitor: %w", err)
	}
	a.logger.Info("usage monitor started",
		logger.Duration("interval", a.cfg.UsageCheckInterval))

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	a.monitor.Stop()

	// A pending debounced save must reach storage before the process dies.
	a.adapter.Flush()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		} else {
			a.logger.Info("✅ Redis closed cleanly")
		}
	}

	a.logger.Info("✅ Tabdeck stopped cleanly")
	return nil
}
