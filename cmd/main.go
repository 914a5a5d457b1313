package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/fsnotify/fsnotify"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/omar-ramo/yawm/internal/cache"
	"github.com/omar-ramo/yawm/internal/config"
	"github.com/omar-ramo/yawm/internal/consumer"
	"github.com/omar-ramo/yawm/internal/content"
	"github.com/omar-ramo/yawm/internal/domain"
	"github.com/omar-ramo/yawm/internal/handler"
	"github.com/omar-ramo/yawm/internal/media"
	"github.com/omar-ramo/yawm/internal/notify"
	"github.com/omar-ramo/yawm/internal/reconciler"
	"github.com/omar-ramo/yawm/internal/repository"
	"github.com/omar-ramo/yawm/internal/search"
	"github.com/omar-ramo/yawm/internal/service"
	"github.com/omar-ramo/yawm/internal/store"
	pkgconfig "github.com/omar-ramo/yawm/pkg/config"
	"github.com/omar-ramo/yawm/pkg/database"
	"github.com/omar-ramo/yawm/pkg/jwt"
	pkglog "github.com/omar-ramo/yawm/pkg/log"
	"github.com/omar-ramo/yawm/pkg/middleware"
	"github.com/omar-ramo/yawm/pkg/pubsub"
	"github.com/omar-ramo/yawm/pkg/storage"
)

func main() {
	// 1. Load configuration
	cfg, v, err := config.Load()
	if err != nil {
		l := pkglog.L()
		l.Fatal().Err(err).Msg("failed to load config")
	}

	// 2. Initialize structured logger
	pkglog.Init(pkglog.Config{
		Level:       cfg.Log.Level,
		Pretty:      cfg.Log.Pretty,
		ServiceName: pkglog.DefaultServiceName,
	})
	logger := pkglog.L()

	if pkgconfig.Watch(v, func(e fsnotify.Event) {
		level := v.GetString("log.level")
		pkglog.SetLevel(level)
		logger.Info().Str("file", e.Name).Str("level", level).Msg("config reloaded")
	}) {
		logger.Info().Str("file", v.ConfigFileUsed()).Msg("watching config file")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Init DB
	db, err := database.New(&database.Config{
		Driver:          cfg.Database.Driver,
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		FilePath:        cfg.Database.FilePath,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		LogLevel:        cfg.Database.LogLevel,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to get underlying sql.DB")
	}
	defer sqlDB.Close()

	if cfg.Database.AutoMigrate {
		if err := database.AutoMigrate(db, domain.Models()...); err != nil {
			logger.Fatal().Err(err).Msg("failed to auto-migrate")
		}
		logger.Info().Msg("database migration completed")

		n, err := repository.BackfillSearchColumns(ctx, db)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to backfill search columns")
		}
		if n > 0 {
			logger.Info().Int64("rows", n).Msg("search columns backfilled")
		}
	}

	// 4. Init Redis; without it the feed cache and counter reconciliation are off
	var redisClient *redis.Client
	if cfg.Redis.Address != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Fatal().Err(err).Str("addr", cfg.Redis.Address).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
		logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	} else {
		logger.Warn().Msg("REDIS_ADDRESS not configured; feed cache and counter reconciler disabled")
	}

	var feedCache cache.FeedCache = cache.NoopFeedCache{}
	var counters store.CounterStore = store.NoopCounterStore{}
	if redisClient != nil {
		if cfg.Cache.Enabled {
			feedCache = cache.NewRedisFeedCache(redisClient, "yawm:feed", cfg.Cache.TTL)
		}
		counters = store.NewRedisCounterStore(redisClient)
	}

	// 5. Init media storage
	backend, err := storage.New(ctx, storage.Config{
		Driver: cfg.Storage.Driver,
		Local: storage.LocalConfig{
			BasePath:  cfg.Storage.BasePath,
			PublicURL: cfg.Storage.PublicURL,
		},
		S3: storage.S3Config{
			Endpoint:        cfg.Storage.S3.Endpoint,
			Region:          cfg.Storage.S3.Region,
			Bucket:          cfg.Storage.S3.Bucket,
			AccessKeyID:     cfg.Storage.S3.AccessKeyID,
			SecretAccessKey: cfg.Storage.S3.SecretAccessKey,
			UsePathStyle:    cfg.Storage.S3.UsePathStyle,
			PublicURL:       cfg.Storage.S3.PublicURL,
		},
	})
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.Storage.Driver).Msg("failed to init storage")
	}
	mediaStore := media.NewStore(backend, media.DefaultConfig())

	// 6. Init notification sinks
	publisher, err := newPublisher(cfg, redisClient)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.PubSub.Driver).Msg("failed to init publisher")
	}
	defer publisher.Close()

	notificationRepo := repository.NewGormNotificationRepository(db)
	emitter := notify.NewDispatcher(
		notify.NewStoreSink(notificationRepo),
		notify.NewBusSink(publisher, cfg.PubSub.Topic),
	)

	// 7. Create repos and services
	profileRepo := repository.NewGormProfileRepository(db)
	followRepo := repository.NewGormFollowRepository(db)
	diaryRepo := repository.NewGormDiaryRepository(db)
	engagementRepo := repository.NewGormEngagementRepository(db)
	sanitizer := content.NewSanitizer()

	searchRepo, indexer := newSearch(ctx, cfg, db, diaryRepo)

	identitySvc := service.NewIdentityService(profileRepo, followRepo, mediaStore, emitter)
	diarySvc := service.NewDiaryService(diaryRepo, engagementRepo, sanitizer, mediaStore, feedCache, nil)
	engagementSvc := service.NewEngagementService(diaryRepo, engagementRepo, sanitizer, emitter, counters, mediaStore)
	feedSvc := service.NewFeedService(diaryRepo, profileRepo, searchRepo, feedCache, mediaStore)
	notificationSvc := service.NewNotificationService(notificationRepo, mediaStore)

	// 8. Init Kafka CDC consumer feeding the search index
	var cdcConsumer *consumer.ConfluentConsumer
	if cfg.Kafka.Enabled && indexer != nil {
		kc, err := consumer.NewConfluentConsumer(
			cfg.Kafka.Brokers,
			cfg.Kafka.GroupID,
			[]string{cfg.Kafka.DiaryTopic, cfg.Kafka.ProfileTopic},
			consumer.NewIndexHandler(indexer),
		)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to create kafka consumer, search indexing disabled")
		} else if err := kc.Start(ctx); err != nil {
			logger.Warn().Err(err).Msg("failed to start kafka consumer")
		} else {
			cdcConsumer = kc
			logger.Info().Str("diary_topic", cfg.Kafka.DiaryTopic).Str("profile_topic", cfg.Kafka.ProfileTopic).Msg("kafka CDC consumer started")
		}
	} else if indexer != nil {
		logger.Warn().Msg("KAFKA_ENABLED is false; elasticsearch index will not follow writes")
	}

	// 9. Init counter reconciler
	var rec *reconciler.Reconciler
	if redisClient != nil {
		rec = reconciler.New(counters, engagementRepo, cfg.Reconciler)
		rec.Start(ctx)
		logger.Info().Dur("interval", cfg.Reconciler.Interval).Int("batch_size", cfg.Reconciler.BatchSize).Msg("reconciler started")
	}

	// 10. Setup Gin router + HTTP server
	verifier, err := newVerifier(cfg.Auth)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load jwt public key")
	}
	authMiddleware := middleware.NewAuthMiddleware(verifier)

	httpHandler := handler.NewHandler(
		identitySvc,
		diarySvc,
		engagementSvc,
		feedSvc,
		notificationSvc,
		authMiddleware,
		cfg.Server.MaxUploadBytes,
	)

	r := gin.New()
	r.MaxMultipartMemory = cfg.Server.MaxUploadBytes
	r.Use(gin.Recovery())
	r.Use(pkglog.GinMiddleware(logger))
	if cfg.Storage.Driver == "" || cfg.Storage.Driver == "local" {
		r.Static(cfg.Storage.PublicURL, cfg.Storage.BasePath)
	}
	httpHandler.RegisterRoutes(r)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logger.Info().Str("addr", addr).Msg("yawm starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	// 11. Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutdown signal received")

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)

		// Drain HTTP first so no request marks a counter after the final reconcile.
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("HTTP server forced to shutdown")
		}

		cancel()

		if cdcConsumer != nil {
			if err := cdcConsumer.Close(); err != nil {
				logger.Warn().Err(err).Msg("error closing kafka consumer")
			}
		}

		if rec != nil {
			rec.Stop()
			<-rec.Done()
		}
	}()

	select {
	case <-shutdownDone:
		logger.Info().Msg("yawm stopped")
	case <-time.After(cfg.Server.ShutdownTimeout + 20*time.Second):
		logger.Warn().Msg("shutdown timed out")
	}
}

// newPublisher shares the main redis client with the redis driver.
func newPublisher(cfg *config.Config, client *redis.Client) (pubsub.Publisher, error) {
	switch cfg.PubSub.Driver {
	case "redis":
		if client == nil {
			return nil, errors.New("redis pubsub driver requires REDIS_ADDRESS")
		}
		return pubsub.NewRedisPublisherFromClient(client), nil
	case "kafka":
		return pubsub.NewPublisher(pubsub.Config{
			Driver: "kafka",
			Kafka: pubsub.KafkaConfig{
				Brokers: cfg.PubSub.KafkaBrokers,
				Topics:  []string{cfg.PubSub.Topic},
			},
		})
	default:
		return pubsub.NewPublisher(pubsub.Config{Driver: cfg.PubSub.Driver})
	}
}

// newSearch returns the search backend and, for elasticsearch, the indexer the
// CDC consumer writes to.
func newSearch(ctx context.Context, cfg *config.Config, db *gorm.DB, diaries repository.DiaryRepository) (search.Repository, search.Indexer) {
	logger := pkglog.L()
	if cfg.Search.Backend != "elasticsearch" {
		logger.Info().Msg("using sql search backend")
		return search.NewSQLRepository(db, diaries), nil
	}

	esClient, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Search.Addresses,
		Username:  cfg.Search.Username,
		Password:  cfg.Search.Password,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create elasticsearch client")
	}

	res, err := esClient.Info()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to elasticsearch")
	}
	res.Body.Close()
	logger.Info().Strs("addresses", cfg.Search.Addresses).Msg("elasticsearch connected")

	es := search.NewESRepository(esClient, cfg.Search.DiaryIndex, cfg.Search.ProfileIndex)
	if err := es.EnsureIndices(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to ensure search indices")
	}
	return es, es
}

func newVerifier(cfg config.AuthConfig) (*jwt.Verifier, error) {
	pem := []byte(strings.ReplaceAll(cfg.PublicKeyPEM, `\n`, "\n"))
	if len(pem) == 0 {
		if cfg.PublicKeyPath == "" {
			return nil, errors.New("JWT_PUBLIC_KEY or JWT_PUBLIC_KEY_PATH is required")
		}
		raw, err := os.ReadFile(cfg.PublicKeyPath)
		if err != nil {
			return nil, err
		}
		pem = raw
	}
	return jwt.NewVerifierFromPEM(pem, cfg.Issuer)
}
