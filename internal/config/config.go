package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	DB     DBConfig
	Log    LogConfig
	Parser ParserConfig
	Import ImportConfig
	Queue  QueueConfig
	Vector VectorConfig
	S3     S3Config
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// ParserConfig holds file parser settings.
type ParserConfig struct {
	MaxFileSizeMB  int64    `mapstructure:"max_file_size_mb"`
	TimeoutSecs    int      `mapstructure:"timeout_secs"`
	EnabledParsers []string `mapstructure:"enabled_parsers"`
	MaxRows        int      `mapstructure:"max_rows"`
}

// Timeout returns the per-parse timeout.
func (p *ParserConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutSecs) * time.Second
}

// ImportConfig holds import pipeline settings. The chunk defaults apply
// when a request leaves its chunking options unset; DefaultVectorScope
// overrides the per-entity scope fallback when non-empty.
type ImportConfig struct {
	MaxConcurrency      int    `mapstructure:"max_concurrency"`
	DefaultChunkSize    int    `mapstructure:"default_chunk_size"`
	DefaultChunkOverlap int    `mapstructure:"default_chunk_overlap"`
	DefaultVectorScope  string `mapstructure:"default_vector_scope"`
}

// QueueConfig holds import worker settings.
type QueueConfig struct {
	PollIntervalSecs int `mapstructure:"poll_interval_secs"`
	Concurrency      int `mapstructure:"concurrency"`
}

// PollInterval returns the worker poll interval.
func (q *QueueConfig) PollInterval() time.Duration {
	return time.Duration(q.PollIntervalSecs) * time.Second
}

// VectorConfig holds embedding backend settings.
type VectorConfig struct {
	Provider string `mapstructure:"provider"`
	BaseURL  string `mapstructure:"base_url"`
	APIKey   string `mapstructure:"api_key"`
	Model    string `mapstructure:"model"`
}

// S3Config holds object storage settings for upload archival.
type S3Config struct {
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
}

// Load reads configuration from environment variables with the SALESPIPE_
// prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SALESPIPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "salespipe")
	v.SetDefault("db.password", "salespipe_secret")
	v.SetDefault("db.name", "salespipe_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.file", "")

	// Parser defaults
	v.SetDefault("parser.max_file_size_mb", 50)
	v.SetDefault("parser.timeout_secs", 60)
	v.SetDefault("parser.enabled_parsers", "")
	v.SetDefault("parser.max_rows", 10000)

	// Import defaults
	v.SetDefault("import.max_concurrency", 3)
	v.SetDefault("import.default_chunk_size", 1000)
	v.SetDefault("import.default_chunk_overlap", 200)
	v.SetDefault("import.default_vector_scope", "")

	// Queue defaults
	v.SetDefault("queue.poll_interval_secs", 5)
	v.SetDefault("queue.concurrency", 2)

	// Vector defaults
	v.SetDefault("vector.provider", "noop")
	v.SetDefault("vector.base_url", "")
	v.SetDefault("vector.api_key", "")
	v.SetDefault("vector.model", "text-embedding-3-small")

	// S3 defaults
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "")
	v.SetDefault("s3.endpoint", "")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"db.host":                      "SALESPIPE_DB_HOST",
		"db.port":                      "SALESPIPE_DB_PORT",
		"db.user":                      "SALESPIPE_DB_USER",
		"db.password":                  "SALESPIPE_DB_PASSWORD",
		"db.name":                      "SALESPIPE_DB_NAME",
		"db.sslmode":                   "SALESPIPE_DB_SSLMODE",
		"db.max_open":                  "SALESPIPE_DB_MAX_OPEN",
		"db.max_idle":                  "SALESPIPE_DB_MAX_IDLE",
		"log.level":                    "SALESPIPE_LOG_LEVEL",
		"log.format":                   "SALESPIPE_LOG_FORMAT",
		"log.file":                     "SALESPIPE_LOG_FILE",
		"parser.max_file_size_mb":      "SALESPIPE_PARSER_MAX_FILE_SIZE_MB",
		"parser.timeout_secs":          "SALESPIPE_PARSER_TIMEOUT_SECS",
		"parser.enabled_parsers":       "SALESPIPE_PARSER_ENABLED_PARSERS",
		"parser.max_rows":              "SALESPIPE_PARSER_MAX_ROWS",
		"import.max_concurrency":       "SALESPIPE_IMPORT_MAX_CONCURRENCY",
		"import.default_chunk_size":    "SALESPIPE_IMPORT_DEFAULT_CHUNK_SIZE",
		"import.default_chunk_overlap": "SALESPIPE_IMPORT_DEFAULT_CHUNK_OVERLAP",
		"import.default_vector_scope":  "SALESPIPE_IMPORT_DEFAULT_VECTOR_SCOPE",
		"queue.poll_interval_secs":     "SALESPIPE_QUEUE_POLL_INTERVAL_SECS",
		"queue.concurrency":            "SALESPIPE_QUEUE_CONCURRENCY",
		"vector.provider":              "SALESPIPE_VECTOR_PROVIDER",
		"vector.base_url":              "SALESPIPE_VECTOR_BASE_URL",
		"vector.api_key":               "SALESPIPE_VECTOR_API_KEY",
		"vector.model":                 "SALESPIPE_VECTOR_MODEL",
		"s3.region":                    "SALESPIPE_S3_REGION",
		"s3.bucket":                    "SALESPIPE_S3_BUCKET",
		"s3.endpoint":                  "SALESPIPE_S3_ENDPOINT",
		"s3.access_key":                "SALESPIPE_S3_ACCESS_KEY",
		"s3.secret_key":                "SALESPIPE_S3_SECRET_KEY",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}
	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
		File:   v.GetString("log.file"),
	}
	cfg.Parser = ParserConfig{
		MaxFileSizeMB:  v.GetInt64("parser.max_file_size_mb"),
		TimeoutSecs:    v.GetInt("parser.timeout_secs"),
		EnabledParsers: splitList(v.GetString("parser.enabled_parsers")),
		MaxRows:        v.GetInt("parser.max_rows"),
	}
	cfg.Import = ImportConfig{
		MaxConcurrency:      v.GetInt("import.max_concurrency"),
		DefaultChunkSize:    v.GetInt("import.default_chunk_size"),
		DefaultChunkOverlap: v.GetInt("import.default_chunk_overlap"),
		DefaultVectorScope:  v.GetString("import.default_vector_scope"),
	}
	cfg.Queue = QueueConfig{
		PollIntervalSecs: v.GetInt("queue.poll_interval_secs"),
		Concurrency:      v.GetInt("queue.concurrency"),
	}
	cfg.Vector = VectorConfig{
		Provider: v.GetString("vector.provider"),
		BaseURL:  v.GetString("vector.base_url"),
		APIKey:   v.GetString("vector.api_key"),
		Model:    v.GetString("vector.model"),
	}
	cfg.S3 = S3Config{
		Region:    v.GetString("s3.region"),
		Bucket:    v.GetString("s3.bucket"),
		Endpoint:  v.GetString("s3.endpoint"),
		AccessKey: v.GetString("s3.access_key"),
		SecretKey: v.GetString("s3.secret_key"),
	}

	return cfg, nil
}

// splitList parses a comma-separated env value into trimmed entries.
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
