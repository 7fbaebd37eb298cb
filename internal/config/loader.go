package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/rpattn/munimport/internal/db"
)

// Config is the full service configuration.
type Config struct {
	Database  db.Config       `mapstructure:"database"`
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Ingestion IngestionConfig `mapstructure:"ingestion"`
	Logging   LoggingConfig   `mapstructure:"logging"`

	// File is the config file that was read, empty when only defaults and env applied.
	File string `mapstructure:"-"`
}

type ServerConfig struct {
	Addr           string        `mapstructure:"addr" validate:"required"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout" validate:"min=0"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout" validate:"min=0"`
	MaxUploadBytes int64         `mapstructure:"max_upload_bytes" validate:"min=1"`
}

type StorageConfig struct {
	Backend            string `mapstructure:"backend" validate:"oneof=local gcs"`
	LocalDir           string `mapstructure:"local_dir" validate:"required_if=Backend local"`
	GCSBucket          string `mapstructure:"gcs_bucket" validate:"required_if=Backend gcs"`
	GCSPrefix          string `mapstructure:"gcs_prefix"`
	GCSCredentialsFile string `mapstructure:"gcs_credentials_file"`
	// GCSEndpoint points the client at an emulator such as fake-gcs-server.
	GCSEndpoint string `mapstructure:"gcs_endpoint" validate:"omitempty,url"`
}

type IngestionConfig struct {
	// Repository selects where logs and records go: postgres, or memory for dry runs.
	Repository    string        `mapstructure:"repository" validate:"oneof=postgres memory"`
	BatchSize     int           `mapstructure:"batch_size" validate:"min=1,max=10000"`
	StrictReplace bool          `mapstructure:"strict_replace"`
	StageTTL      time.Duration `mapstructure:"stage_ttl" validate:"min=1s"`
	SampleSize    int           `mapstructure:"sample_size" validate:"min=0,max=100"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json text"`
}

// Default returns the configuration used when nothing else is set.
func Default() Config {
	return Config{
		Database: db.DefaultConfig(),
		Server: ServerConfig{
			Addr:           ":8080",
			AllowedOrigins: []string{"http://localhost:3000"},
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   2 * time.Minute,
			MaxUploadBytes: 32 << 20,
		},
		Storage: StorageConfig{
			Backend:  "local",
			LocalDir: filepath.Join(os.TempDir(), "munimport-uploads"),
		},
		Ingestion: IngestionConfig{
			Repository: "postgres",
			BatchSize:  100,
			StageTTL:   15 * time.Minute,
			SampleSize: 5,
		},
		Logging: LoggingConfig{Level: "info", Format: "json"},
	}
}

// Load reads config.yaml from configPath (a directory or a file path), then applies
// MUNI_* environment overrides such as MUNI_DATABASE_HOST or MUNI_INGESTION_BATCH_SIZE.
// A missing config file is not an error.
func Load(configPath string) (Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	if strings.HasSuffix(configPath, ".yaml") || strings.HasSuffix(configPath, ".yml") {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if configPath != "" {
			v.AddConfigPath(configPath)
		}
		v.AddConfigPath(".")
	}
	v.SetEnvPrefix("MUNI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and reports every violation at once.
func Validate(cfg Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("database.host", d.Database.Host)
	v.SetDefault("database.port", d.Database.Port)
	v.SetDefault("database.user", d.Database.User)
	v.SetDefault("database.password", d.Database.Password)
	v.SetDefault("database.name", d.Database.DBName)
	v.SetDefault("database.sslmode", d.Database.SSLMode)
	v.SetDefault("database.max_conns", d.Database.MaxConns)

	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.allowed_origins", d.Server.AllowedOrigins)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.max_upload_bytes", d.Server.MaxUploadBytes)

	v.SetDefault("storage.backend", d.Storage.Backend)
	v.SetDefault("storage.local_dir", d.Storage.LocalDir)
	v.SetDefault("storage.gcs_bucket", d.Storage.GCSBucket)
	v.SetDefault("storage.gcs_prefix", d.Storage.GCSPrefix)
	v.SetDefault("storage.gcs_credentials_file", d.Storage.GCSCredentialsFile)
	v.SetDefault("storage.gcs_endpoint", d.Storage.GCSEndpoint)

	v.SetDefault("ingestion.repository", d.Ingestion.Repository)
	v.SetDefault("ingestion.batch_size", d.Ingestion.BatchSize)
	v.SetDefault("ingestion.strict_replace", d.Ingestion.StrictReplace)
	v.SetDefault("ingestion.stage_ttl", d.Ingestion.StageTTL)
	v.SetDefault("ingestion.sample_size", d.Ingestion.SampleSize)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
}
