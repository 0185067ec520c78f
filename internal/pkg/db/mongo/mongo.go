package mongo

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Nevi32/wofuo1/internal/pkg/config"
	"github.com/Nevi32/wofuo1/internal/pkg/logger"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type MongoConnector interface {
	Connect(ctx context.Context, opts *options.ClientOptions) (*mongo.Client, error)
	Ping(ctx context.Context, client *mongo.Client) error
}

type DefaultMongoConnector struct{}

func (d *DefaultMongoConnector) Connect(ctx context.Context, opts *options.ClientOptions) (*mongo.Client, error) {
	return mongo.Connect(ctx, opts)
}

func (d *DefaultMongoConnector) Ping(ctx context.Context, client *mongo.Client) error {
	return client.Ping(ctx, nil)
}

type MongoClient struct {
	Client   *mongo.Client
	Database *mongo.Database
}

// ConnectToMongoDB opens the remote document store used by the sync engine.
func ConnectToMongoDB(ctx context.Context, cfg config.MongoConfig) (*MongoClient, error) {
	return connectWithConnector(ctx, cfg, &DefaultMongoConnector{})
}

func connectWithConnector(ctx context.Context, cfg config.MongoConfig, connector MongoConnector) (*MongoClient, error) {
	mongoURI := buildMongoURI(cfg)
	safeURI := redactMongoURI(mongoURI)

	logger.CtxInfo(ctx, "Connecting to MongoDB",
		zap.String("uri", safeURI),
		zap.String("database", cfg.DBName),
	)

	connectTimeout := cfg.ConnectTimeout
	clientOpts := options.Client().
		ApplyURI(mongoURI).
		SetHeartbeatInterval(10 * time.Second).
		SetMaxPoolSize(cfg.MaxPoolSize).
		SetMinPoolSize(cfg.MinPoolSize)
	if connectTimeout > 0 {
		clientOpts.SetConnectTimeout(connectTimeout).
			SetServerSelectionTimeout(connectTimeout * 2).
			SetSocketTimeout(connectTimeout * 3)
	}
	if cfg.MaxConnIdleTime > 0 {
		clientOpts.SetMaxConnIdleTime(cfg.MaxConnIdleTime)
	}

	client, err := connector.Connect(ctx, clientOpts)
	if err != nil {
		logger.CtxError(ctx, "Failed to connect to MongoDB", err,
			zap.String("uri", safeURI),
			zap.String("database", cfg.DBName),
		)
		return nil, err
	}

	if err := connector.Ping(ctx, client); err != nil {
		logger.CtxError(ctx, "MongoDB ping failed", err,
			zap.String("uri", safeURI),
			zap.String("database", cfg.DBName),
		)
		return nil, err
	}

	logger.CtxInfo(ctx, "Successfully connected to MongoDB",
		zap.String("uri", safeURI),
		zap.String("database", cfg.DBName),
	)

	return &MongoClient{
		Client:   client,
		Database: client.Database(cfg.DBName),
	}, nil
}

// buildMongoURI injects credentials into the configured URI. Both
// mongodb:// and mongodb+srv:// schemes are accepted; a bare host is
// treated as an SRV record.
func buildMongoURI(cfg config.MongoConfig) string {
	scheme := "mongodb+srv://"
	host := cfg.URI
	switch {
	case strings.HasPrefix(host, "mongodb+srv://"):
		host = strings.TrimPrefix(host, "mongodb+srv://")
	case strings.HasPrefix(host, "mongodb://"):
		scheme = "mongodb://"
		host = strings.TrimPrefix(host, "mongodb://")
	}
	if cfg.Username == "" {
		return scheme + host
	}
	return fmt.Sprintf("%s%s:%s@%s",
		scheme,
		url.QueryEscape(cfg.Username),
		url.QueryEscape(cfg.Password),
		host,
	)
}

func Disconnect(ctx context.Context, client *mongo.Client) error {
	return client.Disconnect(ctx)
}

// redactMongoURI hides username and password from a MongoDB URI
func redactMongoURI(uri string) string {
	parts := strings.SplitN(uri, "@", 2)
	if len(parts) != 2 {
		return uri
	}
	scheme := "mongodb+srv://"
	if strings.HasPrefix(parts[0], "mongodb://") {
		scheme = "mongodb://"
	}
	return scheme + "***:***@" + parts[1]
}
