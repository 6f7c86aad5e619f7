package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "./wal_entry", cfg.WAL.Dir)
	assert.Equal(t, int64(2<<20), cfg.WAL.SegmentSize)
	assert.Equal(t, time.Minute, cfg.WAL.SegmentDuration)
	assert.Equal(t, ":50051", cfg.GRPC.Addr)
	assert.Equal(t, uint64(1<<18), cfg.Engine.RetireRingSize)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.False(t, cfg.Kafka.Enabled)
	assert.Equal(t, Default(), cfg)
}

func TestFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lltree.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
wal:
  dir: /var/lib/lltree/wal
  segment_duration: 5m
kafka:
  enabled: true
  client: kafka-go
  brokers: [k1:9092, k2:9092]
grpc:
  addr: 127.0.0.1:6000
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/lltree/wal", cfg.WAL.Dir)
	assert.Equal(t, 5*time.Minute, cfg.WAL.SegmentDuration)
	assert.Equal(t, int64(2<<20), cfg.WAL.SegmentSize, "unset keys keep defaults")
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "kafka-go", cfg.Kafka.Client)
	assert.Equal(t, "127.0.0.1:6000", cfg.GRPC.Addr)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lltree.yaml")
	require.NoError(t, os.WriteFile(path, []byte("grpc:\n  addr: :7000\n"), 0o644))

	t.Setenv("LLTREE_GRPC_ADDR", ":8000")
	t.Setenv("LLTREE_SNAPSHOT_INTERVAL", "10s")
	t.Setenv("LLTREE_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":8000", cfg.GRPC.Addr)
	assert.Equal(t, 10*time.Second, cfg.Snapshot.Interval)

	lvl, err := cfg.Log.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, lvl)
}

func TestValidation(t *testing.T) {
	t.Setenv("LLTREE_ENGINE_RETIRE_RING_SIZE", "1000")
	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "power of two")

	cfg := Default()
	cfg.Kafka.Enabled = true
	cfg.Kafka.Client = "librdkafka"
	cfg.Log.Level = "loud"
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kafka.client")
	assert.Contains(t, err.Error(), "log.level")

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestYAMLRoundTrip(t *testing.T) {
	cfg := Default()
	out, err := cfg.YAML()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "rendered.yaml")
	require.NoError(t, os.WriteFile(path, out, 0o644))
	back, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, back)

	var raw map[string]any
	require.NoError(t, yaml.Unmarshal(out, &raw))
	assert.Contains(t, raw, "wal")
	assert.Contains(t, raw, "kafka")
}
