package config

import "time"

// Worker intervals
const (
	// StatsWorkerInterval defines how often the stats worker logs catalog totals
	StatsWorkerInterval = 30 * time.Second

	// RedisBackupInterval defines how often to save changes to Redis
	RedisBackupInterval = 10 * time.Second

	// PostgresBackupInterval defines how often to save changes to PostgreSQL
	PostgresBackupInterval = 60 * time.Second
)
