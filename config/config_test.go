package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STILBAR_CONFIG", filepath.Join(t.TempDir(), "absent.yml"))

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "compounds.csv", cfg.TablePath)
	assert.Equal(t, BackendCSV, cfg.Backend)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.True(t, cfg.Watch)
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stilbar.yml")
	data := []byte("table_path: /data/compounds.csv\n" +
		"backend: badger\n" +
		"badger_path: /data/stilbar.db\n" +
		"listen_addr: \":9090\"\n" +
		"log_level: debug\n" +
		"watch: false\n" +
		"pool_size: 8\n")
	require.NoError(t, os.WriteFile(path, data, 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/data/compounds.csv", cfg.TablePath)
	assert.Equal(t, BackendBadger, cfg.Backend)
	assert.Equal(t, "/data/stilbar.db", cfg.BadgerPath)
	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.False(t, cfg.Watch)
	assert.Equal(t, 8, cfg.PoolSize)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stilbar.yml")
	require.NoError(t, os.WriteFile(path, []byte("listen_addr: \":9090\"\n"), 0644))

	t.Setenv("STILBAR_LISTEN", ":7070")
	t.Setenv("STILBAR_WATCH", "false")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.ListenAddr)
	assert.False(t, cfg.Watch)
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stilbar.yml")
	require.NoError(t, os.WriteFile(path, []byte("backend: [unclosed\n"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_Validation(t *testing.T) {
	t.Run("unknown backend", func(t *testing.T) {
		t.Setenv("STILBAR_CONFIG", filepath.Join(t.TempDir(), "absent.yml"))
		t.Setenv("STILBAR_BACKEND", "postgres")
		_, err := Load("")
		assert.ErrorContains(t, err, "unknown backend")
	})

	t.Run("unknown log level", func(t *testing.T) {
		t.Setenv("STILBAR_CONFIG", filepath.Join(t.TempDir(), "absent.yml"))
		t.Setenv("STILBAR_LOG_LEVEL", "verbose")
		_, err := Load("")
		assert.ErrorContains(t, err, "unknown log level")
	})
}
