package runtime

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Nevi32/wofuo1/internal/app/router"
	"github.com/Nevi32/wofuo1/internal/pkg/artifact"
	"github.com/Nevi32/wofuo1/internal/pkg/auth"
	"github.com/Nevi32/wofuo1/internal/pkg/cleanup"
	"github.com/Nevi32/wofuo1/internal/pkg/common"
	"github.com/Nevi32/wofuo1/internal/pkg/config"
	"github.com/Nevi32/wofuo1/internal/pkg/consts"
	"github.com/Nevi32/wofuo1/internal/pkg/db/mongo"
	"github.com/Nevi32/wofuo1/internal/pkg/db/redis"
	"github.com/Nevi32/wofuo1/internal/pkg/kafka"
	"github.com/Nevi32/wofuo1/internal/pkg/log_messages"
	"github.com/Nevi32/wofuo1/internal/pkg/logger"
	"github.com/Nevi32/wofuo1/internal/pkg/otel"
	"github.com/Nevi32/wofuo1/internal/pkg/pubsub"
	"github.com/Nevi32/wofuo1/internal/pkg/store/local"
	"github.com/Nevi32/wofuo1/internal/pkg/store/repository"
	"github.com/Nevi32/wofuo1/internal/pkg/utils"
	"github.com/Nevi32/wofuo1/internal/service/events"
	"github.com/Nevi32/wofuo1/internal/service/interfaces"
	"github.com/Nevi32/wofuo1/internal/service/loans"
	"github.com/Nevi32/wofuo1/internal/service/members"
	"github.com/Nevi32/wofuo1/internal/service/savings"
	"github.com/Nevi32/wofuo1/internal/service/snapshot"
	"github.com/Nevi32/wofuo1/internal/service/syncengine"
	"github.com/Nevi32/wofuo1/internal/service/users"
	"github.com/Nevi32/wofuo1/internal/service/visits"

	"go.uber.org/zap"
)

var (
	loadConfig       = config.LoadFromConfig
	setupTracing     = otel.Setup
	connectMongoDB   = mongo.ConnectToMongoDB
	connectRedisDB   = redis.ConnectToRedis
	openSQLite       = repository.OpenSQLite
	newKafkaProducer = kafka.NewKafkaProducer
	newGCSStore      = func(ctx context.Context, cfg config.GCSConfig) (*artifact.GCSArtifactStore, error) {
		return artifact.NewGCSArtifactStore(ctx, cfg)
	}
)

// App encapsulates application resources and lifecycle.
type App struct {
	Cfg        *config.AppConfig
	Store      *local.Store
	Services   router.Services
	HTTPServer *http.Server

	resources cleanup.Resources
}

// New loads config and opens every backend the ledger needs. Pub/Sub and
// Kafka are optional: an empty project id or broker address leaves them off.
func New(ctx context.Context) (*App, error) {
	cfg, err := loadConfig()
	if err != nil {
		logger.CtxError(ctx, log_messages.FailedLoadingConfiguration, err)
		return nil, err
	}
	logger.Init(cfg.Logging.LogLevel)

	app := &App{Cfg: cfg}

	tracerShutdown, err := setupTracing(ctx, cfg.Otel)
	if err != nil {
		logger.CtxError(ctx, "Failed to set up tracing", err)
		return nil, err
	}
	app.resources.TracerShutdown = tracerShutdown

	if err := app.openStore(ctx); err != nil {
		app.Shutdown(ctx)
		return nil, err
	}

	mClient, err := connectMongoDB(ctx, cfg.Mongo)
	if err != nil {
		logger.CtxError(ctx, "Failed to connect to MongoDB", err)
		app.Shutdown(ctx)
		return nil, err
	}
	app.resources.MongoClient = mClient

	artifacts, err := app.openArtifactStore(ctx)
	if err != nil {
		app.Shutdown(ctx)
		return nil, err
	}

	var reports interfaces.SyncReportPublisher
	if cfg.PubSub.ProjectID != "" {
		publisher, err := pubsub.NewPubSubPublisher(ctx, cfg.PubSub.ProjectID)
		if err != nil {
			logger.CtxError(ctx, "Failure in PubSub publisher creation", err)
			app.Shutdown(ctx)
			return nil, err
		}
		app.resources.PubSubPublisher = publisher
		reports = pubsub.NewSyncReportPublisher(publisher, cfg.PubSub.SyncTopic)
	}

	var ledgerPublisher interfaces.LedgerEventPublisher
	if cfg.Kafka.Server != "" {
		producer, err := newKafkaProducer(cfg.Kafka)
		if err != nil {
			logger.CtxError(ctx, "Failure in Kafka producer creation", err)
			app.Shutdown(ctx)
			return nil, err
		}
		app.resources.KafkaProducer = producer
		ledgerPublisher = producer
	}

	var remote interfaces.RemoteCollectionStore = repository.NewMongoCollectionStore(mClient.Database)
	identity := common.ContextIdentityProvider{}
	ledgerEvents := events.NewLedgerEventService(ledgerPublisher)

	app.Services = router.Services{
		Users:    users.NewUserService(app.Store),
		Members:  members.NewMemberService(app.Store, ledgerEvents),
		Savings:  savings.NewSavingsService(app.Store, ledgerEvents, cfg.Ledger.AllowOverdraft),
		Loans:    loans.NewLoanService(app.Store, ledgerEvents, utils.NewIDGenerator()),
		Visits:   visits.NewVisitService(app.Store, ledgerEvents),
		Sync:     syncengine.NewEngine(app.Store, remote, identity, reports, cfg.Sync),
		Snapshot: snapshot.NewSnapshotService(app.Store, artifacts, identity, cfg.Artifact, cfg.Auth),
		Ledger:   app.Store,
		Tokens:   auth.NewTokenIssuer(cfg.Auth),

		ServiceName: cfg.Otel.ServiceName,
	}
	return app, nil
}

// openStore builds the local snapshot store on the configured backend and
// makes sure every collection exists in it.
func (a *App) openStore(ctx context.Context) error {
	var blobs interfaces.SnapshotBlobStore
	source := a.Cfg.Store.Backend + ":" + a.Cfg.Store.Key

	switch a.Cfg.Store.Backend {
	case consts.StoreBackendSQLite:
		db, err := openSQLite(a.Cfg.Store.SQLitePath)
		if err != nil {
			logger.CtxError(ctx, "Failed to open SQLite store", err, zap.String("path", a.Cfg.Store.SQLitePath))
			return err
		}
		repo, err := repository.NewSQLiteBlobRepository(db, a.Cfg.Store.Key)
		if err != nil {
			logger.CtxError(ctx, "Failed to prepare SQLite store", err)
			return err
		}
		a.resources.SQLite = repo
		blobs = repo
	default:
		rClient, err := connectRedisDB(ctx, a.Cfg.Redis)
		if err != nil {
			logger.CtxError(ctx, "Failed to connect to Redis", err)
			return err
		}
		a.resources.RedisClient = rClient
		blobs = repository.NewRedisBlobRepository(rClient.Client, a.Cfg.Store.Key)
	}

	store := local.NewStore(blobs,
		local.WithRecoverCorrupt(a.Cfg.Store.RecoverCorrupt),
		local.WithSource(source),
	)
	if err := store.Init(ctx); err != nil {
		logger.CtxError(ctx, "Failed to initialize local ledger", err, zap.String("source", source))
		return err
	}
	a.Store = store
	return nil
}

func (a *App) openArtifactStore(ctx context.Context) (interfaces.ArtifactStore, error) {
	if a.Cfg.Artifact.Backend == consts.ArtifactBackendSFTP {
		return artifact.NewSFTPArtifactStore(a.Cfg.SFTP), nil
	}
	store, err := newGCSStore(ctx, a.Cfg.GCS)
	if err != nil {
		logger.CtxError(ctx, "Failed to create GCS client", err)
		return nil, err
	}
	a.resources.ArtifactStore = store
	return store, nil
}

// Run starts the HTTP server, then blocks until SIGINT or SIGTERM.
func (a *App) Run(ctx context.Context) error {
	engine := router.SetupRouter(a.Services)
	a.HTTPServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", a.Cfg.Server.Port),
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
	}
	a.resources.HTTPServer = a.HTTPServer

	go func() {
		logger.CtxInfo(ctx, log_messages.ServerStarted, zap.String("addr", a.HTTPServer.Addr))
		if err := a.HTTPServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.CtxError(ctx, log_messages.ServerStartFailure, err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
	case <-ctx.Done():
	}

	logger.CtxInfo(ctx, log_messages.ServerShutdown)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout())
	defer cancel()
	a.Shutdown(shutdownCtx)
	logger.CtxInfo(ctx, log_messages.ServerExiting)
	return nil
}

func (a *App) shutdownTimeout() time.Duration {
	if a.Cfg == nil || a.Cfg.Server.ShutdownTimeout <= 0 {
		return 10 * time.Second
	}
	return a.Cfg.Server.ShutdownTimeout
}

// Shutdown gracefully closes all resources with bounded timeouts.
func (a *App) Shutdown(ctx context.Context) {
	cleanup.CleanupResources(ctx, a.resources)
}
