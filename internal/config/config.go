package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App     AppConfig     `mapstructure:"app"`
	Mongo   MongoConfig   `mapstructure:"mongo"`
	Storage StorageConfig `mapstructure:"storage"`
	Backup  BackupConfig  `mapstructure:"backup"`
	Notify  NotifyConfig  `mapstructure:"notify"`
}

type AppConfig struct {
	Name     string `mapstructure:"name"`
	LogLevel string `mapstructure:"log_level"`
	LogFile  string `mapstructure:"log_file"`
}

type MongoConfig struct {
	Scheme   string `mapstructure:"scheme"`
	Host     string `mapstructure:"host"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	// MaxSize is the storage quota of the cluster, e.g. "512MiB". Optional.
	MaxSize        string        `mapstructure:"max_size"`
	DumpTool       string        `mapstructure:"dump_tool"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	MaxAttempts    int           `mapstructure:"max_attempts"`
	RetryBaseDelay time.Duration `mapstructure:"retry_base_delay"`
}

type StorageConfig struct {
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

type BackupConfig struct {
	WorkDir       string `mapstructure:"work_dir"`
	Compression   string `mapstructure:"compression"`
	Nightly       bool   `mapstructure:"nightly"`
	Schedule      string `mapstructure:"schedule"`
	KeepLocal     int    `mapstructure:"keep_local"`
	RetentionDays int    `mapstructure:"retention_days"`
}

type NotifyConfig struct {
	Telegram TelegramConfig `mapstructure:"telegram"`
}

type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
}

// Load reads a YAML file; any key can be overridden with MONGOBAK_<SECTION>_<KEY>.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix("MONGOBAK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "mongobak")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("mongo.scheme", "mongodb+srv")
	v.SetDefault("mongo.dump_tool", "mongodump")
	v.SetDefault("mongo.connect_timeout", 30*time.Second)
	v.SetDefault("mongo.max_attempts", 3)
	v.SetDefault("mongo.retry_base_delay", 2*time.Second)

	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.prefix", "backups/")

	v.SetDefault("backup.work_dir", "backups")
	v.SetDefault("backup.compression", "gzip")
	v.SetDefault("backup.nightly", true)
	v.SetDefault("backup.schedule", "0 0 2 * * *")
	v.SetDefault("backup.keep_local", 5)
	v.SetDefault("backup.retention_days", 0)

	// Registered so that environment overrides reach keys absent from the file.
	for _, key := range []string{
		"mongo.host", "mongo.username", "mongo.password", "mongo.database", "mongo.max_size",
		"storage.bucket", "storage.access_key", "storage.secret_key",
		"notify.telegram.bot_token", "notify.telegram.chat_id",
	} {
		v.SetDefault(key, "")
	}
	v.SetDefault("notify.telegram.enabled", false)
}

func (c *Config) Validate() error {
	if c.Mongo.Host == "" {
		return fmt.Errorf("mongo.host is required")
	}
	if c.Mongo.Username == "" {
		return fmt.Errorf("mongo.username is required")
	}
	if c.Mongo.Database == "" {
		return fmt.Errorf("mongo.database is required")
	}
	if c.Mongo.MaxAttempts < 1 {
		return fmt.Errorf("mongo.max_attempts must be at least 1")
	}
	if c.Mongo.RetryBaseDelay < 0 {
		return fmt.Errorf("mongo.retry_base_delay must not be negative")
	}

	if c.Storage.Bucket == "" {
		return fmt.Errorf("storage.bucket is required")
	}
	if c.Storage.Region == "" {
		return fmt.Errorf("storage.region is required")
	}

	if c.Backup.WorkDir == "" {
		return fmt.Errorf("backup.work_dir is required")
	}
	switch strings.ToLower(c.Backup.Compression) {
	case "gzip", "brotli":
	default:
		return fmt.Errorf("backup.compression must be gzip or brotli, got %q", c.Backup.Compression)
	}
	if c.Backup.Nightly && c.Backup.Schedule == "" {
		return fmt.Errorf("backup.schedule is required when nightly backups are enabled")
	}
	// The newest archive may belong to a run that is still uploading.
	if c.Backup.KeepLocal < 1 {
		return fmt.Errorf("backup.keep_local must be at least 1")
	}

	if c.Notify.Telegram.Enabled && (c.Notify.Telegram.BotToken == "" || c.Notify.Telegram.ChatID == "") {
		return fmt.Errorf("notify.telegram requires bot_token and chat_id when enabled")
	}

	return nil
}

// ConnectionString builds the MongoDB URI with percent-encoded credentials.
func (m *MongoConfig) ConnectionString() string {
	scheme := m.Scheme
	if scheme == "" {
		scheme = "mongodb+srv"
	}
	u := url.URL{
		Scheme:   scheme,
		User:     url.UserPassword(m.Username, m.Password),
		Host:     m.Host,
		Path:     "/",
		RawQuery: "retryWrites=true&w=majority",
	}
	return u.String()
}
