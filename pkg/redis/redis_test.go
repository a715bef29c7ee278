package redis

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatguard/fraud-monitor/pkg/config"
)

func TestRedisConfig_RedisAddr(t *testing.T) {
	cfg := config.RedisConfig{Host: "localhost", Port: "6379"}
	assert.Equal(t, "localhost:6379", cfg.RedisAddr())

	cfg = config.RedisConfig{Host: "redis.example.com", Port: "6380"}
	assert.Equal(t, "redis.example.com:6380", cfg.RedisAddr())
}

func TestSetWithExpiration(t *testing.T) {
	db, mock := redismock.NewClientMock()
	client := &Client{Client: db}

	mock.ExpectSet("fraud:score:abc", []byte("payload"), 10*time.Minute).SetVal("OK")

	err := client.SetWithExpiration(context.Background(), "fraud:score:abc", []byte("payload"), 10*time.Minute)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetString(t *testing.T) {
	db, mock := redismock.NewClientMock()
	client := &Client{Client: db}

	mock.ExpectGet("fraud:score:abc").SetVal("payload")

	value, err := client.GetString(context.Background(), "fraud:score:abc")
	require.NoError(t, err)
	assert.Equal(t, "payload", value)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetStringMiss(t *testing.T) {
	db, mock := redismock.NewClientMock()
	client := &Client{Client: db}

	mock.ExpectGet("missing").RedisNil()

	_, err := client.GetString(context.Background(), "missing")
	assert.Error(t, err)
}

func TestDelete(t *testing.T) {
	db, mock := redismock.NewClientMock()
	client := &Client{Client: db}

	mock.ExpectDel("a", "b").SetVal(2)

	err := client.Delete(context.Background(), "a", "b")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExists(t *testing.T) {
	db, mock := redismock.NewClientMock()
	client := &Client{Client: db}

	mock.ExpectExists("present").SetVal(1)
	mock.ExpectExists("absent").SetVal(0)

	present, err := client.Exists(context.Background(), "present")
	require.NoError(t, err)
	assert.True(t, present)

	absent, err := client.Exists(context.Background(), "absent")
	require.NoError(t, err)
	assert.False(t, absent)
}
