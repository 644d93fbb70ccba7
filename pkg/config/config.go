package config

import (
	"busbook/pkg/client"
	"busbook/pkg/logger"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	Port     string
	LogLevel string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	SeatLockTTL        time.Duration
	SeatCASRetries     int
	MaxSeatsPerRequest int

	CleanupEnabled  bool
	CleanupInterval time.Duration
	CleanupLease    time.Duration

	JWTSecret string

	EventsBackend string
	EventsTopic   string
	EventsDLQ     string
	RabbitMQURL   string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	Log    *logger.Logger
	Client *client.Client
}

func Load(serviceName string) *Config {
	return LoadTo(serviceName, nil)
}

// LoadTo is Load with logs written to out. CLIs pass os.Stderr to keep
// stdout for command output.
func LoadTo(serviceName string, out io.Writer) *Config {
	// .env is optional; real deployments pass plain environment variables.
	_ = godotenv.Load()

	logLevel := getEnvStr(EnvLogLevel, DefaultLogLevel)
	cfg := &Config{
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		Port:     getEnvStr(EnvPort, DefaultPort),
		LogLevel: logLevel,

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		SeatLockTTL:        getEnvDuration(EnvSeatLockTTL, DefaultSeatLockTTL),
		SeatCASRetries:     getEnvNum(EnvSeatCASRetries, DefaultSeatCASRetries),
		MaxSeatsPerRequest: getEnvNum(EnvMaxSeatsPerRequest, DefaultMaxSeatsPerRequest),

		CleanupEnabled:  getEnvBool(EnvCleanupEnabled, DefaultCleanupEnabled),
		CleanupInterval: getEnvDuration(EnvCleanupInterval, DefaultCleanupInterval),
		CleanupLease:    getEnvDuration(EnvCleanupLease, DefaultCleanupLease),

		JWTSecret: getEnvStr(EnvJWTSecret, ""),

		EventsBackend: strings.ToLower(getEnvStr(EnvEventsBackend, DefaultEventsBackend)),
		EventsTopic:   getEnvStr(EnvEventsTopic, DefaultEventsTopic),
		EventsDLQ:     getEnvStr(EnvEventsDLQ, DefaultEventsDLQ),
		RabbitMQURL:   getEnvStr(EnvRabbitMQURL, DefaultRabbitMQURL),

		RedisAddr:     getEnvStr(EnvRedisAddr, ""),
		RedisPassword: getEnvStr(EnvRedisPassword, ""),
		RedisDB:       getEnvNum(EnvRedisDB, DefaultRedisDB),

		Log: logger.New(logger.Config{
			Level:     logLevel,
			Format:    logger.JSON,
			AddSource: true,
			Service:   serviceName,
			Output:    out,
		}),
		Client: client.NewClient(),
	}

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

// SetRedis connects to Redis when REDIS_ADDR is configured. It reports whether
// a usable client is available; callers fall back to in-process stores otherwise.
func (cfg *Config) SetRedis() bool {
	if cfg.RedisAddr == "" {
		return false
	}
	return cfg.Client.SetRedis(cfg.Log, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.MongoURI == "" {
		errors = append(errors, "MongoURI cannot be empty")
	} else if len(cfg.MongoURI) < 10 || !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
		errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactMongoURI(cfg.MongoURI)))
	}

	if cfg.MongoDatabaseName == "" {
		errors = append(errors, "MongoDatabaseName cannot be empty")
	}

	if cfg.MongoConnTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("MongoConnTimeout must be positive, got: %s", cfg.MongoConnTimeout))
	}
	if cfg.RateLimitWindow <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitWindow must be positive, got: %s", cfg.RateLimitWindow))
	}
	if cfg.RequestTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("RequestTimeout must be positive, got: %s", cfg.RequestTimeout))
	}
	if cfg.IdempotencyTTL <= 0 {
		errors = append(errors, fmt.Sprintf("IdempotencyTTL must be positive, got: %s", cfg.IdempotencyTTL))
	}
	if cfg.ReadTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ReadTimeout must be positive, got: %s", cfg.ReadTimeout))
	}
	if cfg.WriteTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("WriteTimeout must be positive, got: %s", cfg.WriteTimeout))
	}
	if cfg.IdleTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("IdleTimeout must be positive, got: %s", cfg.IdleTimeout))
	}
	if cfg.ShutdownTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ShutdownTimeout must be positive, got: %s", cfg.ShutdownTimeout))
	}

	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}

	if cfg.SeatLockTTL <= 0 {
		errors = append(errors, fmt.Sprintf("SeatLockTTL must be positive, got: %s", cfg.SeatLockTTL))
	}
	if cfg.SeatCASRetries < 1 {
		errors = append(errors, fmt.Sprintf("SeatCASRetries must be at least 1, got: %d", cfg.SeatCASRetries))
	}
	if cfg.MaxSeatsPerRequest < 1 || cfg.MaxSeatsPerRequest > DefaultMaxSeatsPerBus {
		errors = append(errors, fmt.Sprintf("MaxSeatsPerRequest must be between 1 and %d, got: %d", DefaultMaxSeatsPerBus, cfg.MaxSeatsPerRequest))
	}

	if cfg.CleanupInterval <= 0 {
		errors = append(errors, fmt.Sprintf("CleanupInterval must be positive, got: %s", cfg.CleanupInterval))
	}
	if cfg.CleanupLease <= 0 {
		errors = append(errors, fmt.Sprintf("CleanupLease must be positive, got: %s", cfg.CleanupLease))
	}

	switch cfg.EventsBackend {
	case EventsBackendLog, EventsBackendKafka, EventsBackendRabbitMQ:
	default:
		errors = append(errors, fmt.Sprintf("EventsBackend must be one of [log, kafka, rabbitmq], got: %s", cfg.EventsBackend))
	}
	if cfg.EventsTopic == "" {
		errors = append(errors, "EventsTopic cannot be empty")
	}

	if cfg.RedisDB < 0 {
		errors = append(errors, fmt.Sprintf("RedisDB cannot be negative, got: %d", cfg.RedisDB))
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"port", cfg.Port,
		"log_level", cfg.LogLevel,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"seat_lock_ttl", cfg.SeatLockTTL,
		"seat_cas_retries", cfg.SeatCASRetries,
		"max_seats_per_request", cfg.MaxSeatsPerRequest,
		"cleanup_enabled", cfg.CleanupEnabled,
		"cleanup_interval", cfg.CleanupInterval,
		"cleanup_lease", cfg.CleanupLease,
		"jwt_secret_set", cfg.JWTSecret != "",
		"events_backend", cfg.EventsBackend,
		"events_topic", cfg.EventsTopic,
		"rabbitmq_url", redactAMQPURL(cfg.RabbitMQURL),
		"redis_addr", cfg.RedisAddr,
		"redis_password_set", cfg.RedisPassword != "",
		"redis_db", cfg.RedisDB,
	)
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func redactAMQPURL(uri string) string {
	credentialRegex := regexp.MustCompile(`(amqps?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown(cfg.Log)
}

func NormalizePaginationLimit(limit int) int {
	if limit <= 0 {
		limit = 10
	} else if limit > DefaultPaginationLimit {
		limit = DefaultPaginationLimit
	}
	return limit
}

func NormalizeOffset(offset int64) int64 {
	return max(0, offset)
}
