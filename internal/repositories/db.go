// Package repositories provides the data access layer. It owns the
// database handle, the projection row locks, and the append-only
// event tables.
package repositories

import (
	"time"

	"schoolops/internal/config"
	"schoolops/internal/models"
	"schoolops/internal/repositories/cache"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB is the global database instance used across the application.
var DB *gorm.DB

// CacheService is the shared Redis-backed cache.
var CacheService *cache.CacheService

// DBConfig holds database connection pool configuration
type DBConfig struct {
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

var dbConfig = DBConfig{
	MaxIdleConns:    10,
	MaxOpenConns:    100,
	ConnMaxLifetime: time.Hour,
	ConnMaxIdleTime: time.Minute * 30,
}

// InitDB initializes the database connection and the Redis cache.
// It sets up the connection pool, performs migrations, and configures
// a short lock-wait timeout so a stuck projection lock surfaces as a
// retryable storage error instead of hanging the request.
func InitDB() error {
	if err := initPostgres(); err != nil {
		return err
	}

	redisCfg := &cache.RedisConfig{
		Host:     config.GetEnv("REDIS_HOST", "localhost"),
		Port:     config.GetEnv("REDIS_PORT", "6379"),
		Password: config.GetEnv("REDIS_PASSWORD", ""),
		DB:       config.GetIntEnv("REDIS_DB", 0),
	}
	redisClient := cache.NewRedisClient(redisCfg)
	CacheService = cache.NewCacheService(redisClient, config.GetDurationEnv("CACHE_TTL", 24*time.Hour))

	return DB.AutoMigrate(
		&models.Branch{},
		&models.Student{},
		&models.Account{},
		&models.AttendanceEvent{},
		&models.AttendanceDay{},
		&models.LedgerTransaction{},
		&models.AccountBalance{},
		&models.IncomeRecord{},
		&models.Alert{},
	)
}

func initPostgres() error {
	// Lock waits must fail fast; callers retry with their idempotency key.
	lockTimeout := config.GetEnv("DB_LOCK_TIMEOUT", "5s")

	dsn := "host=" + config.GetEnv("DB_HOST", "localhost") +
		" user=" + config.GetEnv("DB_USER", "postgres") +
		" password=" + config.GetEnv("DB_PASSWORD", "postgres") +
		" dbname=" + config.GetEnv("DB_NAME", "schoolops") +
		" port=" + config.GetEnv("DB_PORT", "5432") +
		" sslmode=disable" +
		" options='-c lock_timeout=" + lockTimeout + "'"

	logLevel := logger.Info
	if config.IsProduction() {
		logLevel = logger.Warn
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		// Maps unique-index violations to gorm.ErrDuplicatedKey, which
		// the ledger repositories rely on for idempotency detection.
		TranslateError: true,
		Logger:         logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return err
	}

	DB = db

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	sqlDB.SetMaxIdleConns(config.GetIntEnv("DB_MAX_IDLE_CONNS", dbConfig.MaxIdleConns))
	sqlDB.SetMaxOpenConns(config.GetIntEnv("DB_MAX_OPEN_CONNS", dbConfig.MaxOpenConns))
	sqlDB.SetConnMaxLifetime(dbConfig.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(dbConfig.ConnMaxIdleTime)

	return nil
}

// GetCacheStats exposes Redis pool statistics for the health endpoint.
func GetCacheStats() map[string]interface{} {
	if CacheService == nil {
		return nil
	}
	return CacheService.Stats()
}
