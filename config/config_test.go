package config

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookup(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(lookup(nil))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "mysql", cfg.DBDriver)
	assert.Equal(t, "3306", cfg.DBPort)
	assert.Equal(t, 2*time.Hour, cfg.DefaultSeatingDuration)
	assert.Equal(t, "5 0 * * *", cfg.ReconcileCron)
	assert.True(t, cfg.ReconcileEnabled)
	assert.Equal(t, LockBackendMemory, cfg.LockBackend)
	assert.Equal(t, 15*time.Second, cfg.LockTTL)
	assert.Equal(t, 5*time.Second, cfg.LockWait)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, time.Local, cfg.Location)
	assert.Equal(t, "root@tcp(localhost:3306)/restaurant?charset=utf8mb4&parseTime=true&loc=UTC", cfg.DSN())
}

func TestFromEnvOverrides(t *testing.T) {
	cfg, err := FromEnv(lookup(map[string]string{
		"DB_DRIVER":                "Postgres",
		"DB_USER":                  "app",
		"DB_PASSWORD":              "secret",
		"DEFAULT_SEATING_DURATION": "90m",
		"RESERVATION_TIMEZONE":     "UTC",
		"RECONCILE_ENABLED":        "false",
		"LOCK_BACKEND":             "redis",
		"REDIS_HOST":               "cache",
		"REDIS_PORT":               "6380",
		"REDIS_ADDR":               "ignored:1",
		"RATE_LIMIT_RPS":           "2.5",
	}))
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, "5432", cfg.DBPort)
	assert.Equal(t, 90*time.Minute, cfg.DefaultSeatingDuration)
	assert.Equal(t, time.UTC, cfg.Location)
	assert.False(t, cfg.ReconcileEnabled)
	assert.Equal(t, "cache:6380", cfg.RedisAddr)
	assert.Equal(t, 2.5, cfg.RateLimitRPS)
	assert.Contains(t, cfg.DSN(), "user=app password=secret")

	cfg.DBDSN = "postgres://x"
	assert.Equal(t, "postgres://x", cfg.DSN())
}

func TestFromEnvRejectsBadValues(t *testing.T) {
	cases := map[string]map[string]string{
		"duration":    {"LOCK_WAIT": "soon"},
		"bool":        {"RECONCILE_ENABLED": "maybe"},
		"int":         {"REDIS_DB": "one"},
		"driver":      {"DB_DRIVER": "oracle"},
		"lock":        {"LOCK_BACKEND": "etcd"},
		"timezone":    {"RESERVATION_TIMEZONE": "Mars/Olympus"},
		"seating":     {"DEFAULT_SEATING_DURATION": "-1h"},
		"prod_no_jwt": {"APP_ENV": "production"},
	}
	for name, vars := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := FromEnv(lookup(vars))
			assert.Error(t, err)
		})
	}
}

func TestInitDBSQLite(t *testing.T) {
	cfg, err := FromEnv(lookup(map[string]string{"DB_DRIVER": "sqlite", "DB_DSN": ":memory:", "APP_ENV": "test"}))
	require.NoError(t, err)

	db, err := InitDB(cfg)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", db.Dialector.Name())

	var one int
	require.NoError(t, db.Raw("SELECT 1").Scan(&one).Error)
	assert.Equal(t, 1, one)
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	client, err := NewRedisClient(Config{RedisAddr: addr})
	require.NoError(t, err)
	defer client.Close()

	mr.Close()
	_, err = NewRedisClient(Config{RedisAddr: addr})
	assert.Error(t, err)
}
