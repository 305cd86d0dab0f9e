package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"wagate/internal/buffer"
	"wagate/internal/cache"
	"wagate/internal/config"
	"wagate/internal/constants"
	"wagate/internal/database"
	"wagate/internal/service"
	"wagate/internal/tracing"
	"wagate/pkg/aiagent"
	"wagate/pkg/mediastore"
	"wagate/pkg/provider"
	"wagate/pkg/transcribe"
)

var (
	// Version information (set at build time)
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"

	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	configPath = flag.String("config", "config.json", "Path to configuration file")
	version    = flag.Bool("version", false, "Show version information")
)

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("wagate %s\nBuild Time: %s\nGit Commit: %s\n", Version, BuildTime, GitCommit)
		os.Exit(0)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		logrus.Fatalf("Application error: %v", err)
	}
}

func run(ctx context.Context) error {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	logger.WithFields(logrus.Fields{
		"version": Version,
		"build":   BuildTime,
		"commit":  GitCommit,
	}).Info("Starting wagate")

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	} else if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	} else {
		logger.Warnf("Invalid log level %q, defaulting to info", cfg.LogLevel)
		logger.SetLevel(logrus.InfoLevel)
	}

	tracingCfg := cfg.Tracing
	if tracingCfg.ServiceName == "" {
		tracingCfg = tracing.DefaultConfig()
		tracingCfg.Enabled = cfg.Tracing.Enabled
	}
	tracingManager := tracing.NewManager(tracingCfg, logger)
	if err := tracingManager.Initialize(ctx); err != nil {
		logger.Warnf("Failed to initialize tracing: %v", err)
	}
	defer func() {
		if err := tracingManager.Shutdown(context.Background()); err != nil {
			logger.Warnf("Failed to shutdown tracing: %v", err)
		}
	}()

	// Database init with exponential backoff; sqlite can briefly refuse the
	// lock while a previous instance is still shutting down.
	var db *database.Database
	delay := time.Duration(cfg.Retry.InitialBackoffMs) * time.Millisecond
	maxDelay := time.Duration(cfg.Retry.MaxBackoffMs) * time.Millisecond
	for attempt := 1; ; attempt++ {
		db, err = database.New(cfg.Database.Path)
		if err == nil {
			break
		}
		if attempt >= cfg.Retry.MaxAttempts {
			return fmt.Errorf("failed to initialize database after %d attempts: %w", attempt, err)
		}
		logger.WithError(err).Warnf("Database init failed, retrying in %s", delay)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		delay *= 2
		if delay > maxDelay {
			delay = maxDelay
		}
	}
	defer db.Close()

	mediaStore, err := mediastore.New(mediastore.StoreConfig{
		RootDir:       cfg.Media.StoreDir,
		PublicBaseURL: cfg.Media.PublicBaseURL,
		MaxSizeMB:     cfg.Media.MaxSizeMB,
		Timeout:       constants.DefaultMediaDownloadSec * time.Second,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize media store: %w", err)
	}

	transcriber := transcribe.NewClient(transcribe.ClientConfig{
		BaseURL: cfg.Provider.TranscribeURL,
		APIKey:  os.Getenv("WAGATE_TRANSCRIBE_API_KEY"),
		Timeout: constants.DefaultTranscribeTimeoutSec * time.Second,
	})

	aiClient := aiagent.NewClient(aiagent.ClientConfig{
		BaseURL: cfg.AI.BaseURL,
		Timeout: time.Duration(cfg.AI.TimeoutMs) * time.Millisecond,
	})

	providerClient := provider.NewClient(provider.ClientConfig{
		SendURL: cfg.Provider.SendURL,
		Channel: cfg.Provider.Channel,
		Timeout: time.Duration(cfg.Provider.TimeoutSec) * time.Second,
	})

	dedupCache := cache.NewDedupCache(
		time.Duration(cfg.Cache.DedupTTLSec)*time.Second,
		constants.DefaultCacheShards,
	)
	recentCache := cache.NewRecentMessageCache(
		cfg.Cache.RecentCacheMax,
		time.Duration(cfg.Cache.RecentCacheTTLSec)*time.Second,
		constants.DefaultCacheShards,
	)

	dispatcher := service.NewTurnDispatcher(recentCache, db, aiClient, providerClient, service.DispatcherConfig{
		AITimeout:   time.Duration(cfg.AI.TimeoutMs) * time.Millisecond,
		RecentLimit: cfg.Cache.RecentCacheMax,
	}, logger)

	conversationBuffer := buffer.NewConversationBuffer(
		time.Duration(cfg.Buffer.DebounceMs)*time.Millisecond,
		cfg.Buffer.MaxBatchSize,
		dispatcher.Dispatch,
		logger,
	)

	resolver := service.NewIdentityResolver(db, logger)
	normalizer := service.NewMediaNormalizer(mediaStore, transcriber, logger)
	gateway := service.NewGateway(dedupCache, resolver, normalizer, db, recentCache, conversationBuffer, logger)
	escalation := service.NewEscalationService(db, db, providerClient, logger)

	scheduler := service.NewScheduler(
		dedupCache, recentCache, db,
		time.Duration(cfg.Server.SweepIntervalSec)*time.Second,
		cfg.RetentionDays,
		logger,
	)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	srv := NewServer(cfg.Server, gateway, escalation, logger)

	errCh := make(chan error, constants.ServerErrorChannelSize)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.DefaultGracefulShutdownSec*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("HTTP server shutdown failed")
	}
	if err := conversationBuffer.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("Conversation buffer drain timed out")
	}

	logger.Info("Shutdown complete")
	return nil
}
