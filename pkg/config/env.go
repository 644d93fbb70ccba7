package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvSeatLockTTL        = "SEAT_LOCK_TTL"
	EnvSeatCASRetries     = "SEAT_CAS_RETRIES"
	EnvMaxSeatsPerRequest = "MAX_SEATS_PER_REQUEST"

	EnvCleanupEnabled  = "CLEANUP_ENABLED"
	EnvCleanupInterval = "CLEANUP_INTERVAL"
	EnvCleanupLease    = "CLEANUP_LEASE"

	EnvJWTSecret = "JWT_SECRET"

	EnvEventsBackend = "EVENTS_BACKEND"
	EnvEventsTopic   = "EVENTS_TOPIC"
	EnvEventsDLQ     = "EVENTS_DLQ_TOPIC"
	EnvRabbitMQURL   = "RABBITMQ_URL"

	EnvRedisAddr     = "REDIS_ADDR"
	EnvRedisPassword = "REDIS_PASSWORD"
	EnvRedisDB       = "REDIS_DB"
)
