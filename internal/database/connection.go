package database

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const (
	defaultConnectRetries = 5
	defaultRetryDelay     = 2 * time.Second
)

// Connect открывает соединение с постгресом с ретраями: база в
// docker-compose иногда просыпается на пару секунд позже приложения.
// Число попыток и пауза настраиваются через DB_CONNECT_RETRIES и
// DB_CONNECT_RETRY_DELAY (формат time.ParseDuration).
func Connect(log *zap.SugaredLogger) (*gorm.DB, error) {
	// Берем строку подключения из .env через переменную окружения
	dsn := os.Getenv("DATABASE_URL")

	// Локальный дефолт на случай, если .env не проброшен
	if dsn == "" {
		dsn = "host=db user=postgres password=1234 dbname=courseportal port=5432 sslmode=disable"
	}

	retries := envInt("DB_CONNECT_RETRIES", defaultConnectRetries)
	delay := envDuration("DB_CONNECT_RETRY_DELAY", defaultRetryDelay)

	var db *gorm.DB
	var err error
	for i := 0; i < retries; i++ {
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
		if err == nil {
			log.Infow("database connected", "attempt", i+1)
			return db, nil
		}
		log.Warnw("database connection failed, waiting",
			"attempt", i+1, "delay", delay, "error", err)
		time.Sleep(delay)
	}

	return nil, fmt.Errorf("не удалось подключиться к БД после %d попыток: %w", retries, err)
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return def
}
