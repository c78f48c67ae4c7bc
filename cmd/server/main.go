package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"notes-api/internal/config"
	"notes-api/internal/db"
	"notes-api/internal/ratelimit"
	"notes-api/internal/repository/gormrepo"
	"notes-api/internal/server"
	notesService "notes-api/internal/service/notes"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func main() {
	configFile := flag.String("config", "config.yml", "path to config file")
	flag.Parse()

	// Загружаем конфигурацию из файла
	appConfig, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Error initializing config: %v", err)
	}
	setupLogger(appConfig.Logger)
	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// БД должна быть готова до того, как займем порт
	conn, err := db.Connect(ctx, appConfig.Database)
	if err != nil {
		log.Fatalf("Database is not reachable: %v", err)
	}
	log.Infof("Connected to %s database", db.DialectName(conn))

	// Инициализация компонентов (DI): Repository → Service → Handler
	events := notesService.NewEventService()
	noteSvc := notesService.NewNoteService(
		gormrepo.NewRepository(conn),
		notesService.WithEvents(events),
		notesService.WithOperationTimeout(appConfig.Database.OperationTimeout()),
	)

	rdb := connectRedis(ctx, appConfig)

	deps := server.Deps{
		NoteService: noteSvc,
		Events:      events,
		Health: func(ctx context.Context) error {
			return db.Ping(ctx, conn)
		},
	}

	if appConfig.RateLimit.Enabled {
		limiter, err := ratelimit.New(ctx, appConfig.RateLimit, appConfig.Redis, rdb)
		if err != nil {
			log.Fatalf("Error initializing rate limiter: %v", err)
		}
		deps.Limiter = limiter
		deps.KeyFn = ratelimit.KeyFuncFor(appConfig.RateLimit)
		log.WithFields(log.Fields{
			"algorithm": appConfig.RateLimit.Algorithm,
			"backend":   appConfig.RateLimit.Backend,
			"ceiling":   appConfig.RateLimit.Ceiling,
			"window":    appConfig.RateLimit.Window(),
			"key":       appConfig.RateLimit.KeyPolicy,
		}).Info("Rate limiter enabled")
	} else {
		log.Warn("Rate limiter disabled")
	}

	if rdb != nil && appConfig.Redis.StatsEnabled {
		deps.Stats = ratelimit.NewRedisStatsStore(rdb, appConfig.Redis.Prefix,
			time.Duration(appConfig.Redis.StatsTTL)*time.Second)
	}

	srv, err := server.NewServer(appConfig, deps)
	if err != nil {
		log.Fatalf("Error creating server: %v", err)
	}
	errChan := srv.Start()

	select {
	case <-ctx.Done():
		log.Info("Received shutdown signal")
	case err := <-errChan:
		log.WithError(err).Error("Server error")
	}

	if err := srv.Shutdown(); err != nil {
		log.WithError(err).Warn("Shutdown finished with error")
	}
	closeAll(conn, rdb)
	log.Info("Server stopped")
}

func setupLogger(cfg *config.ConfigLogger) {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetOutput(os.Stdout)

	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		log.Warnf("Unknown log level %q, using info", cfg.Level)
		level = log.InfoLevel
	}
	log.SetLevel(level)
}

// connectRedis нужен для общего лимитера и статистики, иначе возвращает nil
func connectRedis(ctx context.Context, cfg *config.Config) *redis.Client {
	useLimiter := cfg.RateLimit.Enabled && cfg.RateLimit.Backend == config.BackendRedis
	if !useLimiter && !cfg.Redis.StatsEnabled {
		return nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		// Без общего счетчика лимит не соблюдается между инстансами
		if useLimiter {
			log.Fatalf("Redis is not reachable at %s: %v", cfg.Redis.Addr, err)
		}
		log.WithError(err).Warn("Redis is not reachable, stats disabled")
		_ = rdb.Close()
		return nil
	}
	log.Infof("Connected to redis at %s", cfg.Redis.Addr)
	return rdb
}

func closeAll(conn *gorm.DB, rdb *redis.Client) {
	if err := db.Close(conn); err != nil {
		log.WithError(err).Warn("Error closing database")
	}
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			log.WithError(err).Warn("Error closing redis")
		}
	}
}
