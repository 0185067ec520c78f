package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Nevi32/wofuo1/internal/pkg/consts"
	"github.com/Nevi32/wofuo1/internal/pkg/logger"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// ServerConfig holds server-level config
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ShutdownTimeoutSeconds int           `yaml:"shutdown_timeout_seconds"`
	ShutdownTimeout        time.Duration `yaml:"-"`
}

type LogConfig struct {
	LogLevel string `yaml:"level"`
}

// StoreConfig selects the backend holding the local ledger snapshot.
type StoreConfig struct {
	Backend        string `yaml:"backend"`
	Key            string `yaml:"key"`
	SQLitePath     string `yaml:"sqlite_path"`
	RecoverCorrupt bool   `yaml:"recover_corrupt"`
}

// MongoDB connection config
type MongoConfig struct {
	Username        string        `yaml:"username"`
	Password        string        `yaml:"password"`
	URI             string        `yaml:"uri"`
	DBName          string        `yaml:"db_name"`
	MaxPoolSize     uint64        `yaml:"max_pool_size"`
	MinPoolSize     uint64        `yaml:"min_pool_size"`
	MaxConnIdleMinutes    int           `yaml:"max_conn_idle_minutes"`
	MaxConnIdleTime       time.Duration `yaml:"-"`
	ConnectTimeoutSeconds int           `yaml:"connect_timeout_seconds"`
	ConnectTimeout        time.Duration `yaml:"-"`
}

// Redis connection config
type RedisConfig struct {
	Addr           string        `yaml:"addr"`
	Password       string        `yaml:"password"`
	DB             int           `yaml:"db"`
	EnableTLS             bool          `yaml:"enable_tls"`
	ConnectTimeoutSeconds int           `yaml:"connect_timeout_seconds"`
	ConnectTimeout        time.Duration `yaml:"-"`
	CertContent    string        `yaml:"cert_content"`
}

// Kafka connection config
type KafkaConfig struct {
	Server           string `yaml:"server"`
	LedgerTopic      string `yaml:"ledger_topic"`
	SecurityProtocol string `yaml:"security_protocol"`
	SASLMechanism    string `yaml:"sasl_mechanism"`
	SASLUsername     string `yaml:"sasl_username"`
	SASLPassword     string `yaml:"sasl_password"`
	SessionTimeoutMs int    `yaml:"session_timeout_ms"`
	ClientID         string `yaml:"client_id"`
}

type PubSubConfig struct {
	ProjectID string `yaml:"project_id"`
	SyncTopic string `yaml:"sync_topic"`
}

type GCSConfig struct {
	BucketName string `yaml:"bucket_name"`
	Endpoint   string `yaml:"endpoint"`
}

type SFTPConfig struct {
	Host                  string        `yaml:"host"`
	Port                  int           `yaml:"port"`
	Username              string        `yaml:"username"`
	Password              string        `yaml:"password"`
	BaseDir               string        `yaml:"base_dir"`
	ConnectTimeoutSeconds int           `yaml:"connect_timeout_seconds"`
	ConnectTimeout        time.Duration `yaml:"-"`
}

// ArtifactConfig selects where whole-snapshot artifacts are pushed and pulled.
type ArtifactConfig struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
}

type AuthConfig struct {
	JWTSecret           string        `yaml:"jwt_secret"`
	TokenTTLMinutes     int           `yaml:"token_ttl_minutes"`
	TokenTTL            time.Duration `yaml:"-"`
	PrivilegedEmails    []string      `yaml:"privileged_emails"`
	PrivilegedUsernames []string      `yaml:"privileged_usernames"`
}

type SyncConfig struct {
	MaxAttempts      int           `yaml:"max_attempts"`
	InitialBackoffMs int           `yaml:"initial_backoff_ms"`
	MaxBackoffMs     int           `yaml:"max_backoff_ms"`
	Workers          int           `yaml:"workers"`
	InitialBackoff   time.Duration `yaml:"-"`
	MaxBackoff       time.Duration `yaml:"-"`
}

type LedgerConfig struct {
	AllowOverdraft bool `yaml:"allow_overdraft"`
}

type OtelConfig struct {
	ServiceName  string `yaml:"service_name"`
	CollectorURL string `yaml:"collector_url"`
	Insecure     bool   `yaml:"insecure"`
}

// AppConfig is the main config struct that holds all configs
type AppConfig struct {
	Server   ServerConfig   `yaml:"server"`
	Logging  LogConfig      `yaml:"logging"`
	Store    StoreConfig    `yaml:"store"`
	Mongo    MongoConfig    `yaml:"mongo"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	PubSub   PubSubConfig   `yaml:"pubsub"`
	GCS      GCSConfig      `yaml:"gcs"`
	SFTP     SFTPConfig     `yaml:"sftp"`
	Artifact ArtifactConfig `yaml:"artifact"`
	Auth     AuthConfig     `yaml:"auth"`
	Sync     SyncConfig     `yaml:"sync"`
	Ledger   LedgerConfig   `yaml:"ledger"`
	Otel     OtelConfig     `yaml:"otel"`
}

// rawBools captures booleans whose zero value differs from the default.
type rawBools struct {
	Store struct {
		RecoverCorrupt *bool `yaml:"recover_corrupt"`
	} `yaml:"store"`
	Ledger struct {
		AllowOverdraft *bool `yaml:"allow_overdraft"`
	} `yaml:"ledger"`
}

// nolint: funlen
func assignDefaultConfigValues(cfg *AppConfig, raw rawBools) *AppConfig {

	// server config defaults
	cfg.Server.Port = GetEnvOrDefaultAsInt("SERVER_PORT", orInt(cfg.Server.Port, 8080))
	cfg.Server.ShutdownTimeout = time.Duration(GetEnvOrDefaultAsInt("SERVER_SHUTDOWN_TIMEOUT_SECONDS",
		orInt(cfg.Server.ShutdownTimeoutSeconds, 10))) * time.Second

	// log config defaults
	cfg.Logging.LogLevel = GetEnvOrDefaultAsString("LOGGING_LEVEL", orString(cfg.Logging.LogLevel, "info"))

	// local store defaults
	cfg.Store.Backend = strings.ToLower(GetEnvOrDefaultAsString("STORE_BACKEND",
		orString(cfg.Store.Backend, consts.StoreBackendRedis)))
	cfg.Store.Key = GetEnvOrDefaultAsString("STORE_KEY", orString(cfg.Store.Key, consts.DefaultSnapshotKey))
	cfg.Store.SQLitePath = GetEnvOrDefaultAsString("STORE_SQLITE_PATH", orString(cfg.Store.SQLitePath, "wofuo.db"))
	recoverCorrupt := true
	if raw.Store.RecoverCorrupt != nil {
		recoverCorrupt = *raw.Store.RecoverCorrupt
	}
	cfg.Store.RecoverCorrupt = GetEnvOrDefaultAsBool("STORE_RECOVER_CORRUPT", recoverCorrupt)

	// MongoDB config defaults
	cfg.Mongo.URI = GetEnvOrDefaultAsString("MONGO_URI", cfg.Mongo.URI)
	cfg.Mongo.DBName = GetEnvOrDefaultAsString("MONGO_DB_NAME", orString(cfg.Mongo.DBName, "wofuo"))
	cfg.Mongo.Username = GetEnvOrDefaultAsString("MONGO_USERNAME", cfg.Mongo.Username)
	cfg.Mongo.Password = GetEnvOrDefaultAsString("MONGO_PASSWORD", cfg.Mongo.Password)
	cfg.Mongo.MaxPoolSize = GetEnvOrDefaultAsUint64("MONGO_MAX_POOL_SIZE", orUint64(cfg.Mongo.MaxPoolSize, 20))
	cfg.Mongo.MinPoolSize = GetEnvOrDefaultAsUint64("MONGO_MIN_POOL_SIZE", orUint64(cfg.Mongo.MinPoolSize, 5))
	cfg.Mongo.MaxConnIdleTime = time.Duration(GetEnvOrDefaultAsInt("MONGO_MAX_CONN_IDLE_MINUTES",
		orInt(cfg.Mongo.MaxConnIdleMinutes, 30))) * time.Minute
	cfg.Mongo.ConnectTimeout = time.Duration(GetEnvOrDefaultAsInt("MONGO_CONNECT_TIMEOUT_SECONDS",
		orInt(cfg.Mongo.ConnectTimeoutSeconds, 10))) * time.Second

	// Redis config defaults
	cfg.Redis.Addr = GetEnvOrDefaultAsString("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = GetEnvOrDefaultAsString("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = GetEnvOrDefaultAsInt("REDIS_DB", cfg.Redis.DB)
	cfg.Redis.EnableTLS = GetEnvOrDefaultAsBool("REDIS_ENABLE_TLS", cfg.Redis.EnableTLS)
	cfg.Redis.ConnectTimeout = time.Duration(GetEnvOrDefaultAsInt("REDIS_CONNECT_TIMEOUT_SECONDS",
		orInt(cfg.Redis.ConnectTimeoutSeconds, 10))) * time.Second
	cfg.Redis.CertContent = GetEnvOrDefaultAsString("REDIS_TLS_CERT", cfg.Redis.CertContent)

	// Kafka config defaults
	cfg.Kafka.Server = GetEnvOrDefaultAsString("KAFKA_SERVER", cfg.Kafka.Server)
	cfg.Kafka.LedgerTopic = GetEnvOrDefaultAsString("KAFKA_LEDGER_TOPIC", orString(cfg.Kafka.LedgerTopic, "wofuo-ledger-events"))
	cfg.Kafka.SecurityProtocol = GetEnvOrDefaultAsString("KAFKA_SECURITY_PROTOCOL", cfg.Kafka.SecurityProtocol)
	cfg.Kafka.SASLMechanism = GetEnvOrDefaultAsString("KAFKA_SASL_MECHANISM", cfg.Kafka.SASLMechanism)
	cfg.Kafka.SASLUsername = GetEnvOrDefaultAsString("KAFKA_SASL_USERNAME", cfg.Kafka.SASLUsername)
	cfg.Kafka.SASLPassword = GetEnvOrDefaultAsString("KAFKA_SASL_PASSWORD", cfg.Kafka.SASLPassword)
	cfg.Kafka.SessionTimeoutMs = GetEnvOrDefaultAsInt("KAFKA_SESSION_TIMEOUT_MS", orInt(cfg.Kafka.SessionTimeoutMs, 15000))
	cfg.Kafka.ClientID = GetEnvOrDefaultAsString("KAFKA_CLIENT_ID", orString(cfg.Kafka.ClientID, "wofuo-ledger"))

	// PubSub config defaults
	cfg.PubSub.ProjectID = GetEnvOrDefaultAsString("PROJECT_ID", cfg.PubSub.ProjectID)
	cfg.PubSub.SyncTopic = GetEnvOrDefaultAsString("PUBSUB_SYNC_TOPIC", orString(cfg.PubSub.SyncTopic, "wofuo-sync-reports"))

	cfg.GCS.BucketName = GetEnvOrDefaultAsString("GCS_BUCKET_NAME", cfg.GCS.BucketName)
	cfg.GCS.Endpoint = GetEnvOrDefaultAsString("GCS_ENDPOINT", cfg.GCS.Endpoint)

	cfg.SFTP.Host = GetEnvOrDefaultAsString("SFTP_HOST", cfg.SFTP.Host)
	cfg.SFTP.Port = GetEnvOrDefaultAsInt("SFTP_PORT", orInt(cfg.SFTP.Port, 22))
	cfg.SFTP.Username = GetEnvOrDefaultAsString("SFTP_USERNAME", cfg.SFTP.Username)
	cfg.SFTP.Password = GetEnvOrDefaultAsString("SFTP_PASSWORD", cfg.SFTP.Password)
	cfg.SFTP.BaseDir = GetEnvOrDefaultAsString("SFTP_BASE_DIR", orString(cfg.SFTP.BaseDir, "."))
	cfg.SFTP.ConnectTimeout = time.Duration(GetEnvOrDefaultAsInt("SFTP_CONNECT_TIMEOUT_SECONDS",
		orInt(cfg.SFTP.ConnectTimeoutSeconds, 10))) * time.Second

	cfg.Artifact.Backend = strings.ToLower(GetEnvOrDefaultAsString("ARTIFACT_BACKEND",
		orString(cfg.Artifact.Backend, consts.ArtifactBackendGCS)))
	cfg.Artifact.Path = GetEnvOrDefaultAsString("ARTIFACT_PATH", orString(cfg.Artifact.Path, consts.DefaultArtifactPath))

	// auth config defaults
	cfg.Auth.JWTSecret = GetEnvOrDefaultAsString("JWT_SECRET", cfg.Auth.JWTSecret)
	cfg.Auth.TokenTTL = time.Duration(GetEnvOrDefaultAsInt("JWT_TOKEN_TTL_MINUTES",
		orInt(cfg.Auth.TokenTTLMinutes, 720))) * time.Minute
	cfg.Auth.PrivilegedEmails = GetEnvOrDefaultAsList("AUTH_PRIVILEGED_EMAILS", cfg.Auth.PrivilegedEmails)
	cfg.Auth.PrivilegedUsernames = GetEnvOrDefaultAsList("AUTH_PRIVILEGED_USERNAMES", cfg.Auth.PrivilegedUsernames)

	// sync config defaults
	cfg.Sync.MaxAttempts = GetEnvOrDefaultAsInt("SYNC_MAX_ATTEMPTS", orInt(cfg.Sync.MaxAttempts, 3))
	cfg.Sync.InitialBackoff = time.Duration(GetEnvOrDefaultAsInt("SYNC_INITIAL_BACKOFF_MS",
		orInt(cfg.Sync.InitialBackoffMs, 200))) * time.Millisecond
	cfg.Sync.MaxBackoff = time.Duration(GetEnvOrDefaultAsInt("SYNC_MAX_BACKOFF_MS",
		orInt(cfg.Sync.MaxBackoffMs, 5000))) * time.Millisecond
	cfg.Sync.Workers = GetEnvOrDefaultAsInt("SYNC_WORKERS", orInt(cfg.Sync.Workers, 4))

	allowOverdraft := true
	if raw.Ledger.AllowOverdraft != nil {
		allowOverdraft = *raw.Ledger.AllowOverdraft
	}
	cfg.Ledger.AllowOverdraft = GetEnvOrDefaultAsBool("LEDGER_ALLOW_OVERDRAFT", allowOverdraft)

	cfg.Otel.ServiceName = GetEnvOrDefaultAsString("OTEL_SERVICE_NAME", orString(cfg.Otel.ServiceName, "wofuo-ledger"))
	cfg.Otel.CollectorURL = GetEnvOrDefaultAsString("OTEL_COLLECTOR_URL", cfg.Otel.CollectorURL)
	cfg.Otel.Insecure = GetEnvOrDefaultAsBool("OTEL_INSECURE", cfg.Otel.Insecure)
	return cfg
}

// LoadFromConfigFilePath loads and parses config file into AppConfig
func LoadFromConfigFilePath(configPath string) (*AppConfig, error) {

	// #nosec G304: configPath comes from the operator-controlled CONFIG_PATH
	data, err := os.ReadFile(configPath)
	if err != nil {
		logger.Error("Failed to read config file", err, zap.String("path", configPath))
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}

	logger.Info("Configuration loaded successfully", zap.String("path", configPath))
	return cfg, nil
}

// Parse unmarshals YAML config bytes, applies defaults and env overrides, and validates.
func Parse(data []byte) (*AppConfig, error) {
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		logger.Error("Failed to unmarshal config", err)
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	var raw rawBools
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	defaultCfg := assignDefaultConfigValues(&cfg, raw)

	if err := validateConfig(defaultCfg); err != nil {
		logger.Error("Config validation failed", err)
		return nil, err
	}
	return defaultCfg, nil
}

func validateConfig(cfg *AppConfig) error {
	if err := validateStoreConfig(cfg); err != nil {
		return err
	}
	if err := validateArtifactConfig(cfg.Artifact); err != nil {
		return err
	}
	if err := validateSyncConfig(cfg.Sync); err != nil {
		return err
	}
	if cfg.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required")
	}
	return nil
}

func validateStoreConfig(cfg *AppConfig) error {
	switch cfg.Store.Backend {
	case consts.StoreBackendRedis:
		if cfg.Redis.Addr == "" {
			return errors.New("redis.addr is required when store.backend is redis")
		}
	case consts.StoreBackendSQLite:
		if cfg.Store.SQLitePath == "" {
			return errors.New("store.sqlite_path is required when store.backend is sqlite")
		}
	default:
		return fmt.Errorf("store.backend must be %q or %q, got %q",
			consts.StoreBackendRedis, consts.StoreBackendSQLite, cfg.Store.Backend)
	}
	if cfg.Store.Key == "" {
		return errors.New("store.key must not be empty")
	}
	return nil
}

func validateArtifactConfig(artifact ArtifactConfig) error {
	switch artifact.Backend {
	case consts.ArtifactBackendGCS, consts.ArtifactBackendSFTP:
	default:
		return fmt.Errorf("artifact.backend must be %q or %q, got %q",
			consts.ArtifactBackendGCS, consts.ArtifactBackendSFTP, artifact.Backend)
	}
	if artifact.Path == "" {
		return errors.New("artifact.path must not be empty")
	}
	return nil
}

func validateSyncConfig(sync SyncConfig) error {
	if sync.MaxAttempts < 1 || sync.MaxAttempts > 10 {
		return fmt.Errorf("sync.max_attempts must be between 1 and 10, got %d", sync.MaxAttempts)
	}
	if sync.InitialBackoff <= 0 || sync.MaxBackoff < sync.InitialBackoff {
		return fmt.Errorf("sync backoff must satisfy 0 < initial_backoff_ms <= max_backoff_ms, got %v and %v",
			sync.InitialBackoff, sync.MaxBackoff)
	}
	if sync.Workers < 1 {
		return fmt.Errorf("sync.workers must be positive, got %d", sync.Workers)
	}
	return nil
}

func orString(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func orInt(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func orUint64(v, def uint64) uint64 {
	if v == 0 {
		return def
	}
	return v
}

// GetEnvOrDefaultAsInt returns the value of the given env variable
// as an int or the default value if not set or invalid.
func GetEnvOrDefaultAsInt(key string, defaultValue int) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}
	return int(value)
}

// GetEnvOrDefaultAsString returns the value of the given env variable or the default value if not set.
func GetEnvOrDefaultAsString(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		if val != "" {
			return val
		}
	}
	return defaultVal
}

func GetEnvOrDefaultAsUint64(key string, defaultValue uint64) uint64 {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	value, err := strconv.ParseUint(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func GetEnvOrDefaultAsBool(key string, defaultValue bool) bool {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	value, err := strconv.ParseBool(strings.TrimSpace(valueStr))
	if err != nil {
		return defaultValue
	}
	return value
}

// GetEnvOrDefaultAsList reads a comma separated env variable.
func GetEnvOrDefaultAsList(key string, defaultValue []string) []string {
	valueStr, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(valueStr) == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// LoadFromConfig loads a .env file when present, then the config file at CONFIG_PATH.
func LoadFromConfig() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("Failed to load .env file", zap.Error(err))
	}

	configPath := GetEnvOrDefaultAsString("CONFIG_PATH", "configs/config.yaml")

	cfg, err := LoadFromConfigFilePath(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
	}

	return cfg, nil
}
