package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"lltree/config"
)

func TestConfigCommandPrintsEffectiveYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lltree.yaml")
	require.NoError(t, os.WriteFile(path, []byte("grpc:\n  addr: :7001\n"), 0o644))
	t.Setenv("LLTREE_WAL_DIR", "/tmp/lltree-wal")

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"config", "--config", path})
	require.NoError(t, cmd.Execute())

	var cfg config.Config
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &cfg))
	assert.Equal(t, ":7001", cfg.GRPC.Addr)
	assert.Equal(t, "/tmp/lltree-wal", cfg.WAL.Dir)
}

func TestConfigCommandRejectsInvalid(t *testing.T) {
	t.Setenv("LLTREE_ENGINE_RETIRE_RING_SIZE", "3")
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"config"})
	assert.Error(t, cmd.Execute())
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log, err := newLogger(&buf, config.LogConfig{Level: "warn", Format: "json"})
	require.NoError(t, err)
	log.Info("hidden")
	log.Warn("shown", "seq", 7)
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"seq":7`)

	_, err = newLogger(&buf, config.LogConfig{Level: "chatty"})
	assert.Error(t, err)
}
