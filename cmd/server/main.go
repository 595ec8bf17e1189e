package main // Entry point package

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/student-services-portal/internal/app"
	"github.com/iliyamo/student-services-portal/internal/config"
	"github.com/iliyamo/student-services-portal/internal/database"
	"github.com/iliyamo/student-services-portal/internal/logging"
	"github.com/iliyamo/student-services-portal/internal/queue"
	"github.com/iliyamo/student-services-portal/internal/service"
	"github.com/iliyamo/student-services-portal/internal/storage"
)

func main() {
	cfg, err := config.Load() // .env + environment
	if err != nil {
		log.Fatal(err)
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var rdb *redis.Client
	if cfg.UsesRedis() {
		rdb, err = config.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			if cfg.StorageBackend == config.BackendRedis {
				logger.WithError(err).Fatal("redis backend unavailable")
			}
			logger.WithError(err).Warn("redis unavailable; rate limiting disabled")
		}
	}

	backend, err := openBackend(ctx, cfg, rdb)
	if err != nil {
		logger.WithError(err).WithField("backend", cfg.StorageBackend).Fatal("open storage")
	}

	var pub service.Publisher
	if cfg.AMQPEnabled {
		pub = queue.NewPublisher(cfg.RabbitMQURL, logger)
		consumer := queue.NewConsumer(cfg.RabbitMQURL, filepath.Join(cfg.DataDir, "logs"), logger)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.WithError(err).Error("notification consumer stopped")
			}
		}()
	}

	a, err := app.New(ctx, app.Deps{
		Config:    cfg,
		Backend:   backend,
		Redis:     rdb,
		Publisher: pub,
		Log:       logger,
	})
	if err != nil {
		logger.WithError(err).Fatal("build app")
	}
	defer a.Engine.Close()
	if rdb != nil && cfg.StorageBackend != config.BackendRedis {
		defer rdb.Close()
	}
	go a.PurgeTokens(ctx, time.Hour)

	addr := ":" + cfg.Port
	go func() {
		logger.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env, "backend": cfg.StorageBackend}).Info("listening")
		if err := a.Echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.Echo.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("shutdown")
	}
}

// openBackend builds the key-value backend selected by STORAGE_BACKEND.
func openBackend(ctx context.Context, cfg config.Config, rdb *redis.Client) (storage.Backend, error) {
	switch cfg.StorageBackend {
	case config.BackendFile:
		return storage.NewFileBackend(filepath.Join(cfg.DataDir, "store"))
	case config.BackendRedis:
		return storage.NewRedisBackend(rdb, cfg.Redis.Prefix), nil
	case config.BackendMySQL:
		db, err := database.Open(ctx, cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			return nil, err
		}
		return migrated(ctx, storage.NewSQLBackend(db, storage.DialectMySQL))
	case config.BackendSQLite:
		db, err := database.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return migrated(ctx, storage.NewSQLBackend(db, storage.DialectSQLite))
	default:
		return storage.NewMemoryBackend(), nil
	}
}

func migrated(ctx context.Context, b *storage.SQLBackend) (storage.Backend, error) {
	if err := b.Migrate(ctx); err != nil {
		b.Close()
		return nil, err
	}
	return b, nil
}
