package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"chattala/internal/config"
	"chattala/internal/ratelimit"
	"chattala/internal/server"
	"chattala/internal/util"
	"chattala/pkg/app"
	"chattala/pkg/events"
	"chattala/pkg/queue"
	"chattala/pkg/storage"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	sessionTTL, err := config.ParseSessionTTL(cfg.SessionTTL)
	if err != nil {
		log.Fatalf("failed to parse session TTL: %v", err)
	}

	logger := util.InitLogger(cfg.LogLevel)

	var publisher events.Publisher
	if cfg.RabbitURL != "" {
		amqpPub, err := events.NewAMQPPublisher(cfg.RabbitURL, "")
		if err != nil {
			log.Fatalf("failed to init event publisher: %v", err)
		}
		defer amqpPub.Close()
		publisher = amqpPub
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var images *storage.MinioStore
	if cfg.MinioEndpoint != "" {
		images, err = storage.NewMinioStore(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioPublicURL, cfg.MinioUseSSL)
		if err != nil {
			log.Fatalf("failed to init object storage: %v", err)
		}
	}

	var cleaner queue.Cleaner
	if cfg.RedisAddr != "" && images != nil {
		cleanupQueue, err := queue.NewRedisCleanupQueue(queue.CleanupQueueConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err != nil {
			log.Fatalf("failed to init cleanup queue: %v", err)
		}
		cleanupQueue.Start(ctx, 1, func(ctx context.Context, url string) error {
			key, ok := images.KeyFromURL(url)
			if !ok {
				return nil
			}
			return images.Delete(ctx, key)
		})
		cleaner = cleanupQueue
	}

	appCore, err := app.New(app.Config{
		DatabaseURL:       cfg.DatabaseURL,
		RedisAddr:         cfg.RedisAddr,
		RedisPassword:     cfg.RedisPassword,
		SessionTTL:        sessionTTL,
		JWTSecret:         cfg.JWTSecret,
		ModerationEnabled: cfg.Moderation(),
		Events:            publisher,
		Cleanup:           cleaner,
	})
	if err != nil {
		log.Fatalf("failed to init app: %v", err)
	}

	if err := appCore.SeedCategories(ctx); err != nil {
		log.Fatalf("failed to seed categories: %v", err)
	}

	trusted, err := util.NewTrustedProxies(cfg.TrustedProxyCidrs)
	if err != nil {
		log.Fatalf("failed to parse trusted proxies: %v", err)
	}

	var imageStore storage.ImageStore
	if images != nil {
		imageStore = images
	}

	httpServer := server.New(server.Config{
		App:            appCore,
		Images:         imageStore,
		SignupLimiter:  limiter(cfg, "chattala:ratelimit:signup", cfg.SignupRateLimitPerMinute),
		LoginLimiter:   limiter(cfg, "chattala:ratelimit:login", cfg.LoginRateLimitPerMinute),
		MutateLimiter:  limiter(cfg, "chattala:ratelimit:mutate", cfg.MutateRateLimitPerMinute),
		TrustedProxies: trusted,
		MaxUploadBytes: cfg.MaxUploadBytes,
	})

	handler := util.WithRequestID(util.WithRequestLog(util.WithSecurityHeaders(util.WithCORS(httpServer.Router()))))

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		logger.Error("server error", "err", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// limiter builds a Redis-backed rate limiter, or nil when the limit is
// unset or Redis is not configured.
func limiter(cfg config.FileConfig, prefix string, perMinute int) *ratelimit.FixedWindowLimiter {
	if perMinute <= 0 || cfg.RedisAddr == "" {
		return nil
	}
	l, err := ratelimit.NewRedisFixedWindowLimiter(cfg.RedisAddr, cfg.RedisPassword, prefix, perMinute, time.Minute)
	if err != nil {
		log.Fatalf("failed to init rate limiter: %v", err)
	}
	return l
}
