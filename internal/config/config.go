package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// BindingsConfig maps host input to overlay events. Buttons are controller
// button IDs as reported by the host; ToggleKey is a keyboard key name.
type BindingsConfig struct {
	ToggleKey        string `json:"toggleKey" mapstructure:"toggleKey"`
	RecordButton     int    `json:"recordButton" mapstructure:"recordButton"`
	ExportButton     int    `json:"exportButton" mapstructure:"exportButton"`
	ScreenshotButton int    `json:"screenshotButton" mapstructure:"screenshotButton"`
	SceneButton      int    `json:"sceneButton" mapstructure:"sceneButton"`
	ClearKey         string `json:"clearKey" mapstructure:"clearKey"`
}

// OutputConfig holds file export destinations.
type OutputConfig struct {
	CSVDir        string `json:"csvDir" mapstructure:"csvDir"`
	ScreenshotDir string `json:"screenshotDir" mapstructure:"screenshotDir"`
	SceneDir      string `json:"sceneDir" mapstructure:"sceneDir"`
}

// MemoryConfig holds session-archive sink settings.
type MemoryConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
}

// WebsocketConfig holds live-streaming sink settings.
type WebsocketConfig struct {
	URL    string `json:"url" mapstructure:"url"`
	Secret string `json:"secret" mapstructure:"secret"`
}

// SqliteConfig holds the file-backed SQLite mirror settings.
type SqliteConfig struct {
	Path string `json:"path" mapstructure:"path"`
}

// StorageConfig selects the optional mirror sinks for recorded samples.
// Types may name any of: sqlite, postgres, memory, websocket.
type StorageConfig struct {
	Types     []string        `json:"types" mapstructure:"types"`
	Sqlite    SqliteConfig    `json:"sqlite" mapstructure:"sqlite"`
	Memory    MemoryConfig    `json:"memory" mapstructure:"memory"`
	Websocket WebsocketConfig `json:"websocket" mapstructure:"websocket"`
}

// Load reads configuration from the JSON config file and sets default
// values. configDir is the directory containing svr_debug.cfg.json.
func Load(configDir string) error {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("sessionTag", "debug")
	viper.SetDefault("logsDir", "./svrlogs")
	viper.SetDefault("tickRate", 90)

	viper.SetDefault("bindings.toggleKey", "F12")
	viper.SetDefault("bindings.clearKey", "c")
	viper.SetDefault("bindings.recordButton", 33) // trigger
	viper.SetDefault("bindings.exportButton", 1)  // A
	viper.SetDefault("bindings.screenshotButton", 0)
	viper.SetDefault("bindings.sceneButton", 2)

	viper.SetDefault("output.csvDir", "./recordings")
	viper.SetDefault("output.screenshotDir", "./screenshots")
	viper.SetDefault("output.sceneDir", "./scenes")

	viper.SetDefault("storage.types", []string{})
	viper.SetDefault("storage.sqlite.path", "./recordings/svr_debug.db")
	viper.SetDefault("storage.memory.outputDir", "./recordings")
	viper.SetDefault("storage.memory.compressOutput", true)
	viper.SetDefault("storage.websocket.url", "ws://localhost:5001/stream")
	viper.SetDefault("storage.websocket.secret", "")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "svrdebug")

	viper.SetDefault("api.serverUrl", "")
	viper.SetDefault("api.apiKey", "")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "")
	viper.SetDefault("influx.org", "svr-metrics")

	viper.SetDefault("monitor.interval", "10s")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "svr-debug")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)

	viper.SetConfigName("svr_debug.cfg.json")
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	return nil
}

// Bindings returns the decoded input binding table.
func Bindings() (BindingsConfig, error) {
	var b BindingsConfig
	if err := viper.UnmarshalKey("bindings", &b); err != nil {
		return b, fmt.Errorf("error decoding bindings: %w", err)
	}
	return b, nil
}

// Output returns the decoded output directory settings.
func Output() (OutputConfig, error) {
	var o OutputConfig
	if err := viper.UnmarshalKey("output", &o); err != nil {
		return o, fmt.Errorf("error decoding output config: %w", err)
	}
	return o, nil
}

// Storage returns the decoded mirror sink settings.
func Storage() (StorageConfig, error) {
	var s StorageConfig
	if err := viper.UnmarshalKey("storage", &s); err != nil {
		return s, fmt.Errorf("error decoding storage config: %w", err)
	}
	return s, nil
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}
