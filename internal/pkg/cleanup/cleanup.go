package cleanup

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/Nevi32/wofuo1/internal/pkg/db/mongo"
	"github.com/Nevi32/wofuo1/internal/pkg/db/redis"
	"github.com/Nevi32/wofuo1/internal/pkg/log_messages"
	"github.com/Nevi32/wofuo1/internal/pkg/logger"

	"go.uber.org/zap"
)

// Resources lists everything the runtime must release on shutdown. Nil
// fields are skipped.
type Resources struct {
	HTTPServer      *http.Server
	PubSubPublisher io.Closer
	KafkaProducer   io.Closer
	MongoClient     *mongo.MongoClient
	RedisClient     *redis.RedisClient
	SQLite          io.Closer
	ArtifactStore   interface{ Close(context.Context) }
	TracerShutdown  func(context.Context) error
}

// CleanupResources stops the HTTP server first so no request observes a
// half-closed backend, then releases the clients.
func CleanupResources(ctx context.Context, r Resources) {
	logger.CtxInfo(ctx, log_messages.CleanupStarted)

	cleanupHTTPServer(ctx, r.HTTPServer)
	cleanupCloser(ctx, r.PubSubPublisher, "PubSub publisher")
	cleanupCloser(ctx, r.KafkaProducer, "Kafka producer")
	cleanupMongoResource(ctx, r.MongoClient)
	cleanupRedisResource(ctx, r.RedisClient)
	cleanupCloser(ctx, r.SQLite, "SQLite store")
	cleanupArtifactStore(ctx, r.ArtifactStore)
	cleanupTracer(ctx, r.TracerShutdown)

	logger.CtxInfo(ctx, log_messages.CleanupCompleted)
}

func cleanupCloser(ctx context.Context, resource io.Closer, resourceName string) {
	if resource == nil {
		return
	}
	if err := resource.Close(); err != nil {
		logger.CtxError(ctx, log_messages.CleanupFailed, err, zap.String("resource", resourceName))
		return
	}
	logger.CtxInfo(ctx, resourceName+" closed successfully")
}

func cleanupMongoResource(ctx context.Context, mongoClient *mongo.MongoClient) {
	if mongoClient == nil || mongoClient.Client == nil {
		return
	}
	mongoCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongo.Disconnect(mongoCtx, mongoClient.Client); err != nil {
		logger.CtxError(mongoCtx, log_messages.CleanupFailed, err, zap.String("resource", "MongoDB client"))
	} else {
		logger.CtxInfo(mongoCtx, "MongoDB client disconnected successfully")
	}
}

func cleanupRedisResource(ctx context.Context, redisClient *redis.RedisClient) {
	if redisClient == nil || redisClient.Client == nil {
		return
	}
	if err := redis.Disconnect(redisClient.Client); err != nil {
		logger.CtxError(ctx, log_messages.CleanupFailed, err, zap.String("resource", "Redis client"))
	} else {
		logger.CtxInfo(ctx, "Redis client closed successfully")
	}
}

func cleanupHTTPServer(ctx context.Context, server *http.Server) {
	if server == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 8*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.CtxError(ctx, log_messages.ServerForcedShutdown, err)
		if err := server.Close(); err != nil {
			logger.CtxError(ctx, log_messages.CleanupFailed, err, zap.String("resource", "HTTP server"))
		}
	} else {
		logger.CtxInfo(ctx, "HTTP server shutdown successfully")
	}
}

func cleanupArtifactStore(ctx context.Context, store interface{ Close(context.Context) }) {
	if store == nil {
		return
	}
	store.Close(ctx)
	logger.CtxInfo(ctx, "Artifact store closed successfully")
}

func cleanupTracer(ctx context.Context, shutdown func(context.Context) error) {
	if shutdown == nil {
		return
	}
	if err := shutdown(ctx); err != nil {
		logger.CtxError(ctx, log_messages.CleanupFailed, err, zap.String("resource", "tracer provider"))
	}
}
