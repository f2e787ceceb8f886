package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEnvInt(t *testing.T) {
	assert.Equal(t, 5, envInt("DB_CONNECT_RETRIES", 5))

	t.Setenv("DB_CONNECT_RETRIES", "8")
	assert.Equal(t, 8, envInt("DB_CONNECT_RETRIES", 5))

	// Мусор и неположительные значения откатываются к дефолту
	t.Setenv("DB_CONNECT_RETRIES", "many")
	assert.Equal(t, 5, envInt("DB_CONNECT_RETRIES", 5))
	t.Setenv("DB_CONNECT_RETRIES", "0")
	assert.Equal(t, 5, envInt("DB_CONNECT_RETRIES", 5))
}

func TestEnvDuration(t *testing.T) {
	assert.Equal(t, 2*time.Second, envDuration("DB_CONNECT_RETRY_DELAY", 2*time.Second))

	t.Setenv("DB_CONNECT_RETRY_DELAY", "500ms")
	assert.Equal(t, 500*time.Millisecond, envDuration("DB_CONNECT_RETRY_DELAY", 2*time.Second))

	t.Setenv("DB_CONNECT_RETRY_DELAY", "скоро")
	assert.Equal(t, 2*time.Second, envDuration("DB_CONNECT_RETRY_DELAY", 2*time.Second))
}
