package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoadAppliesDefaults(t *testing.T) {
	p := writeConfig(t, `
environment: test
kafka:
  brokers: ["k1:9092"]
cascade:
  symbols: [BTCUSDT]
`)
	c, err := Load(p)
	require.NoError(t, err)

	assert.Equal(t, 8080, c.Server.Port)
	assert.Equal(t, SourceKafka, c.Source)
	assert.Equal(t, "cascade.ticks", c.Kafka.TicksTopic)
	assert.Equal(t, "cascade.status", c.Kafka.StatusTopic)
	assert.Equal(t, time.Second, c.Cascade.BroadcastInterval)
	assert.Equal(t, 10*time.Minute, c.Cascade.SnapshotTTL)
	assert.Equal(t, "cascade:transitions", c.Persist.QueueName)
	assert.Equal(t, 5*time.Second, c.Cache.HistoryTTL)
	assert.Equal(t, "info", c.Log.Level)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		body string
		err  string
	}{
		{"missing environment", "kafka: {brokers: [k]}\ncascade: {symbols: [A]}", "environment is required"},
		{"kafka without brokers", "environment: t\ncascade: {symbols: [A]}", "kafka.brokers is required"},
		{"websocket without url", "environment: t\nsource: websocket\ncascade: {symbols: [A]}", "feed.url is required"},
		{"unknown source", "environment: t\nsource: mqtt\ncascade: {symbols: [A]}", "source must be"},
		{"no symbols", "environment: t\nkafka: {brokers: [k]}", "cascade.symbols cannot be empty"},
		{"clickhouse without redis", "environment: t\nkafka: {brokers: [k]}\ncascade: {symbols: [A]}\nclickhouse: {enabled: true}", "requires redis.enabled"},
		{"auto watch without symbols", "environment: t\nkafka: {brokers: [k]}\ncascade: {auto_watch: true}", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if tt.err == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.err)
		})
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	p := writeConfig(t, "environment: t\nkafka: {brokers: [k]}\ncascade: {symbols: [A]}")
	t.Setenv("SYMBOLS", "btcusdt, ethusdt ,")
	t.Setenv("KAFKA_BROKERS", "b1:9092,b2:9092")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("LOG_LEVEL", "debug")

	c, err := LoadWithEnv(p)
	require.NoError(t, err)
	assert.Equal(t, []string{"btcusdt", "ethusdt"}, c.Cascade.Symbols)
	assert.Equal(t, []string{"b1:9092", "b2:9092"}, c.Kafka.Brokers)
	assert.True(t, c.Redis.Enabled)
	assert.Equal(t, "redis:6379", c.Redis.Addr)
	assert.Equal(t, "debug", c.Log.Level)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}
