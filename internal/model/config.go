package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// StorageConfig holds database and blob directory paths.
type StorageConfig struct {
	// DBPath is the SQLite database file path.
	DBPath string `mapstructure:"db_path" yaml:"db_path"`

	// BlobsDir is the root directory for content-addressed file storage.
	BlobsDir string `mapstructure:"blobs_dir" yaml:"blobs_dir"`
}

// WorkerConfig holds delivery worker tuning knobs.
type WorkerConfig struct {
	// PollIntervalSec is how often (in seconds) the worker polls the queue.
	PollIntervalSec int `mapstructure:"poll_interval_sec" yaml:"poll_interval_sec"`

	// BatchSize is the maximum number of pending rows per iteration.
	BatchSize int `mapstructure:"batch_size" yaml:"batch_size"`

	// MaxRetries is the number of delivery attempts before a
	// notification becomes terminally failed.
	MaxRetries int `mapstructure:"max_retries" yaml:"max_retries"`

	// PurgeAfterDays is the age threshold for garbage-collecting
	// sent/failed notifications.
	PurgeAfterDays int `mapstructure:"purge_after_days" yaml:"purge_after_days"`
}

// SMTPConfig holds outbound mail settings. An empty Host means email
// delivery is unconfigured and every email send fails until it is set.
type SMTPConfig struct {
	Host     string `mapstructure:"host" yaml:"host"`
	Port     int    `mapstructure:"port" yaml:"port"`
	Username string `mapstructure:"username" yaml:"username"`
	Password string `mapstructure:"password" yaml:"password"`
	UseTLS   bool   `mapstructure:"use_tls" yaml:"use_tls"`
	Sender   string `mapstructure:"sender" yaml:"sender"`
}

// PushConfig holds push (ntfy) settings.
type PushConfig struct {
	// Server is the push server base URL (e.g., https://ntfy.sh).
	Server string `mapstructure:"server" yaml:"server"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	// BaseURL is used to build deep links back to tasks in messages.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// CommentEditWindowSec governs how long a comment stays editable.
	CommentEditWindowSec int `mapstructure:"comment_edit_window_sec" yaml:"comment_edit_window_sec"`

	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
	Worker  WorkerConfig  `mapstructure:"worker" yaml:"worker"`
	SMTP    SMTPConfig    `mapstructure:"smtp" yaml:"smtp"`
	Push    PushConfig    `mapstructure:"push" yaml:"push"`
}

// DefaultConfigPath returns the default configuration file location,
// ~/.config/cadence/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "cadence", "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		BaseURL:              "http://localhost:8080",
		CommentEditWindowSec: 900,
		Storage: StorageConfig{
			DBPath:   "cadence.sqlite3",
			BlobsDir: "blobs",
		},
		Worker: WorkerConfig{
			PollIntervalSec: 5,
			BatchSize:       50,
			MaxRetries:      3,
			PurgeAfterDays:  30,
		},
		SMTP: SMTPConfig{
			Port:   587,
			UseTLS: true,
		},
		Push: PushConfig{
			Server: "https://ntfy.sh",
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using
// Viper. If the file does not exist, it returns the defaults.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("base_url", "http://localhost:8080")
	v.SetDefault("comment_edit_window_sec", 900)
	v.SetDefault("storage.db_path", "cadence.sqlite3")
	v.SetDefault("storage.blobs_dir", "blobs")
	v.SetDefault("worker.poll_interval_sec", 5)
	v.SetDefault("worker.batch_size", 50)
	v.SetDefault("worker.max_retries", 3)
	v.SetDefault("worker.purge_after_days", 30)
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.use_tls", true)
	v.SetDefault("push.server", "https://ntfy.sh")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaultAppConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaultAppConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}
