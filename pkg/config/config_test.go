package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalYAML = `
environment: test
tokens:
  accounts: [A1, A2]
tradovate:
  renew_url: http://renew
  market_data_url: ws://md
storage:
  type: sqlite
  sqlite:
    path: /tmp/candles.db
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoadAppliesDefaults(t *testing.T) {
	c, err := Load(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, 8080, c.Server.Port)
	assert.Equal(t, time.Hour, c.Tokens.TTL)
	assert.Equal(t, 2400*time.Millisecond, c.Tradovate.HeartbeatInterval)
	assert.Equal(t, 30*time.Second, c.Tradovate.Timeout)
	assert.Equal(t, 120*time.Second, c.Tradovate.HistoricalTimeout)
	assert.Equal(t, "MNQZ5", c.Tradovate.DefaultSymbol)
	assert.Equal(t, 10, c.Tradovate.DefaultBars)
	require.Len(t, c.Scheduler.Schedules, 4)
	assert.Equal(t, 60, c.Scheduler.Schedules[3].Timeframe)
}

func TestLoadRejectsUnknownStorage(t *testing.T) {
	_, err := Load(writeConfig(t, `
environment: test
tokens:
  accounts: [A1]
tradovate:
  renew_url: http://renew
  market_data_url: ws://md
storage:
  type: postgres
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage.type")
}

func TestLoadRejectsEmptyAccounts(t *testing.T) {
	_, err := Load(writeConfig(t, `
environment: test
tradovate:
  renew_url: http://renew
  market_data_url: ws://md
storage:
  type: sqlite
  sqlite: {path: x.db}
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tokens.accounts")
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("REDIS_HOST", "cache.internal")
	t.Setenv("REDIS_PORT", "6390")
	t.Setenv("TOKEN_ACCOUNTS", "X1, X2 ,X3")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	c, err := LoadWithEnv(writeConfig(t, minimalYAML))
	require.NoError(t, err)
	assert.Equal(t, "cache.internal", c.Redis.Host)
	assert.Equal(t, 6390, c.Redis.Port)
	assert.Equal(t, []string{"X1", "X2", "X3"}, c.Tokens.Accounts)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, c.Kafka.Brokers)
}
