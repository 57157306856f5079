package common

// Heartbeat phases written by the monitor loop.
const (
	PhaseStarting    = "starting"
	PhaseFetching    = "fetching"
	PhaseFetched     = "fetched"
	PhaseClassifying = "classifying"
	PhaseClassified  = "classified"
	PhaseSleeping    = "sleeping"
	PhaseStopped     = "stopped"
)

// Storage drivers.
const (
	StorageFile     = "file"
	StorageRedis    = "redis"
	StorageDatabase = "database"
)

// Notification transports.
const (
	TransportExpo     = "expo"
	TransportTelegram = "telegram"
)

// Redis key suffixes, prefixed with the configured key prefix.
const (
	RedisKeySeen      = "%s:seen"
	RedisKeyHeartbeat = "%s:heartbeat"
)

const DefaultRedisKeyPrefix = "newsignal"
