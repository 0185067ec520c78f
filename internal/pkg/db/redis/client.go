package redis

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"

	"github.com/Nevi32/wofuo1/internal/pkg/config"
	"github.com/Nevi32/wofuo1/internal/pkg/logger"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type RedisConnector interface {
	Connect(ctx context.Context, opts *goredis.Options) (*goredis.Client, error)
	Ping(ctx context.Context, client *goredis.Client) error
}

type DefaultRedisConnector struct{}

func (d *DefaultRedisConnector) Connect(ctx context.Context, opts *goredis.Options) (*goredis.Client, error) {
	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

func (d *DefaultRedisConnector) Ping(ctx context.Context, client *goredis.Client) error {
	return client.Ping(ctx).Err()
}

type RedisClient struct {
	Client *goredis.Client
}

// ConnectToRedis opens the client holding the local ledger snapshot.
func ConnectToRedis(ctx context.Context, cfg config.RedisConfig) (*RedisClient, error) {
	return connectWithConnector(ctx, cfg, &DefaultRedisConnector{})
}

func connectWithConnector(ctx context.Context, cfg config.RedisConfig, connector RedisConnector) (*RedisClient, error) {
	logger.CtxInfo(ctx, "Connecting to Redis",
		zap.String("addr", cfg.Addr),
		zap.Int("db", cfg.DB),
		zap.Bool("enable_tls", cfg.EnableTLS),
	)

	opts := &goredis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.ConnectTimeout,
	}

	if cfg.EnableTLS {
		tlsConfig, err := buildTLSConfig(ctx, cfg)
		if err != nil {
			logger.CtxError(ctx, "Failed to build TLS config", err)
			return nil, fmt.Errorf("failed to build TLS config: %w", err)
		}
		opts.TLSConfig = tlsConfig
	}

	client, err := connector.Connect(ctx, opts)
	if err != nil {
		logger.CtxError(ctx, "Redis connection failed", err, zap.String("addr", cfg.Addr))
		return nil, err
	}

	logger.CtxInfo(ctx, "Successfully connected to Redis", zap.String("addr", cfg.Addr))
	return &RedisClient{Client: client}, nil
}

func buildTLSConfig(ctx context.Context, cfg config.RedisConfig) (*tls.Config, error) {
	tlsConfig := &tls.Config{
		MinVersion: tls.VersionTLS12,
	}

	if cfg.CertContent == "" {
		return tlsConfig, nil
	}

	certContentBytes := []byte(cfg.CertContent)
	var loadedAny bool

	// The same PEM may carry a client key pair, CA certificates, or both.
	if cert, err := tls.X509KeyPair(certContentBytes, certContentBytes); err == nil {
		tlsConfig.Certificates = []tls.Certificate{cert}
		logger.CtxInfo(ctx, "Loaded client certificate from PEM content")
		loadedAny = true
	}

	caCertPool := x509.NewCertPool()
	if caCertPool.AppendCertsFromPEM(certContentBytes) {
		tlsConfig.RootCAs = caCertPool
		logger.CtxInfo(ctx, "Loaded CA certificate(s) from PEM content")
		loadedAny = true
	}

	if !loadedAny {
		return nil, fmt.Errorf("failed to parse PEM content as a valid CA certificate or client key pair")
	}

	return tlsConfig, nil
}

func Disconnect(client *goredis.Client) error {
	return client.Close()
}
