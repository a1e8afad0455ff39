package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
log_level: debug

producer:
  interval: 2h
  publishers_file: pubs.yaml
  sources:
    - id: yahoo-finance
      url: https://finance.yahoo.com
    - id: google-news-sitemap
      url: https://example.com/news-sitemap.xml
      kind: sitemap

consumer:
  idle_wait: 30m
  journal: /tmp/journal.db
  queue:
    url: https://sqs.us-east-1.amazonaws.com/123/raw-news
    region: us-east-1

notifier:
  interval: 6h
  document_window: 5

mongo:
  uri: mongodb://localhost:27017

vector:
  dsn: postgres://localhost/news

gemini:
  api_key: test-key
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 2*time.Hour, cfg.Producer.Interval)
	require.Len(t, cfg.Producer.Sources, 2)
	assert.Equal(t, "yahoo-finance", cfg.Producer.Sources[0].ID)
	assert.Equal(t, "sitemap", cfg.Producer.Sources[1].Kind)

	assert.Equal(t, 30*time.Minute, cfg.Consumer.IdleWait)
	assert.Equal(t, "us-east-1", cfg.Consumer.Queue.Region)
	assert.Equal(t, 6*time.Hour, cfg.Notifier.Interval)
	assert.Equal(t, 5, cfg.Notifier.DocumentWindow)
	assert.Equal(t, "informatica_ai", cfg.Mongo.Database)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "gemini:\n  api_key: k\n"))
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 6*time.Hour, cfg.Producer.Interval)
	assert.Equal(t, 4*time.Hour, cfg.Consumer.IdleWait)
	assert.Equal(t, 12*time.Hour, cfg.Notifier.Interval)
	assert.Equal(t, int32(10), cfg.Consumer.Queue.WaitTimeSeconds)
}

func TestLoadRejectsSourceWithoutURL(t *testing.T) {
	_, err := Load(writeConfig(t, `
producer:
  sources:
    - id: broken
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "url is required")
}

func TestLoadExpandsEnvReferences(t *testing.T) {
	t.Setenv("TEST_MONGO_URI", "mongodb://db.internal:27017")

	cfg, err := Load(writeConfig(t, "mongo:\n  uri: ${TEST_MONGO_URI}\n"))
	require.NoError(t, err)
	assert.Equal(t, "mongodb://db.internal:27017", cfg.Mongo.URI)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
