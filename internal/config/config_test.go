package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_WithValidConfigFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	cfg := `{
		"logLevel": "debug",
		"sessionTag": "pilot",
		"bindings": { "toggleKey": "F11", "recordButton": 5 },
		"output": { "csvDir": "/tmp/rec" }
	}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "svr_debug.cfg.json"), []byte(cfg), 0644))

	err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "debug", viper.GetString("logLevel"))
	assert.Equal(t, "pilot", viper.GetString("sessionTag"))

	b, err := Bindings()
	require.NoError(t, err)
	assert.Equal(t, "F11", b.ToggleKey)
	assert.Equal(t, 5, b.RecordButton)
	// unset keys keep defaults
	assert.Equal(t, 1, b.ExportButton)

	o, err := Output()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/rec", o.CSVDir)
}

func TestLoad_DefaultValues(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "svr_debug.cfg.json"), []byte(`{}`), 0644))

	err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "info", viper.GetString("logLevel"))
	assert.Equal(t, "debug", viper.GetString("sessionTag"))
	assert.Equal(t, "./svrlogs", viper.GetString("logsDir"))
	assert.Equal(t, 90, viper.GetInt("tickRate"))
	assert.Equal(t, "F12", viper.GetString("bindings.toggleKey"))
	assert.Equal(t, 33, viper.GetInt("bindings.recordButton"))
	assert.Equal(t, 1, viper.GetInt("bindings.exportButton"))
	assert.Equal(t, 0, viper.GetInt("bindings.screenshotButton"))
	assert.Equal(t, "./recordings", viper.GetString("output.csvDir"))
	assert.Equal(t, "./screenshots", viper.GetString("output.screenshotDir"))
	assert.Equal(t, true, viper.GetBool("storage.memory.compressOutput"))
	assert.Equal(t, "localhost", viper.GetString("db.host"))
	assert.Equal(t, "5432", viper.GetString("db.port"))
	assert.Equal(t, "svrdebug", viper.GetString("db.database"))
	assert.Equal(t, false, viper.GetBool("influx.enabled"))
	assert.Equal(t, false, viper.GetBool("otel.enabled"))
	assert.Equal(t, "svr-debug", viper.GetString("otel.serviceName"))
	assert.Equal(t, "5s", viper.GetString("otel.batchTimeout"))

	s, err := Storage()
	require.NoError(t, err)
	assert.Empty(t, s.Types)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	err := Load(t.TempDir())
	assert.Error(t, err)
}
