package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App        AppConfig
	Server     ServerConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	Log        LogConfig
	Tracing    TracingConfig
	Reference  ReferenceConfig
	Extraction ExtractionConfig
	Audit      AuditConfig
}

type AppConfig struct {
	Name        string
	Environment string
	Version     string
}

type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	Host               string
	Port               int
	Name               string
	User               string
	Password           string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetime    time.Duration
	ConnMaxIdleTime    time.Duration
	SlowQueryThreshold time.Duration
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=UTC",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode,
	)
}

type JWTConfig struct {
	// Enabled guards /api/v1 with bearer token validation.
	Enabled        bool
	Secret         string
	AccessTokenTTL time.Duration
	Issuer         string
}

type LogConfig struct {
	Level      string
	Format     string
	OutputPath string
}

type TracingConfig struct {
	Enabled     bool
	ServiceName string
	EndpointURL string
	SampleRate  float64
}

const (
	ReferenceSourceCSV      = "csv"
	ReferenceSourcePostgres = "postgres"
)

// ReferenceConfig selects where the demographic reference table is read from
// for every analysis.
type ReferenceConfig struct {
	Source  string
	CSVPath string
}

type ExtractionConfig struct {
	// Workers > 1 runs the per-test value search on a bounded pool.
	Workers        int
	MaxTextBytes   int
	MaxUploadBytes int64
}

type AuditConfig struct {
	Enabled      bool
	PseudonymKey string
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	setDefaults(v)

	// A missing .env file is fine; the environment still applies.
	_ = v.ReadInConfig()

	cfg := &Config{
		App: AppConfig{
			Name:        v.GetString("APP_NAME"),
			Environment: v.GetString("APP_ENV"),
			Version:     v.GetString("APP_VERSION"),
		},
		Server: ServerConfig{
			Host:            v.GetString("SERVER_HOST"),
			Port:            v.GetInt("SERVER_PORT"),
			ReadTimeout:     v.GetDuration("SERVER_READ_TIMEOUT"),
			WriteTimeout:    v.GetDuration("SERVER_WRITE_TIMEOUT"),
			IdleTimeout:     v.GetDuration("SERVER_IDLE_TIMEOUT"),
			ShutdownTimeout: v.GetDuration("SERVER_SHUTDOWN_TIMEOUT"),
		},
		Database: DatabaseConfig{
			Host:               v.GetString("DB_HOST"),
			Port:               v.GetInt("DB_PORT"),
			Name:               v.GetString("DB_NAME"),
			User:               v.GetString("DB_USER"),
			Password:           v.GetString("DB_PASSWORD"),
			SSLMode:            v.GetString("DB_SSLMODE"),
			MaxOpenConns:       v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:       v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime:    v.GetDuration("DB_CONN_MAX_LIFETIME"),
			ConnMaxIdleTime:    v.GetDuration("DB_CONN_MAX_IDLE_TIME"),
			SlowQueryThreshold: v.GetDuration("DB_SLOW_QUERY_THRESHOLD"),
		},
		JWT: JWTConfig{
			Enabled:        v.GetBool("AUTH_ENABLED"),
			Secret:         v.GetString("JWT_SECRET"),
			AccessTokenTTL: v.GetDuration("JWT_ACCESS_TTL"),
			Issuer:         v.GetString("JWT_ISSUER"),
		},
		Log: LogConfig{
			Level:      v.GetString("LOG_LEVEL"),
			Format:     v.GetString("LOG_FORMAT"),
			OutputPath: v.GetString("LOG_OUTPUT"),
		},
		Tracing: TracingConfig{
			Enabled:     v.GetBool("TRACING_ENABLED"),
			ServiceName: v.GetString("TRACING_SERVICE_NAME"),
			EndpointURL: v.GetString("TRACING_ENDPOINT_URL"),
			SampleRate:  v.GetFloat64("TRACING_SAMPLE_RATE"),
		},
		Reference: ReferenceConfig{
			Source:  strings.ToLower(strings.TrimSpace(v.GetString("REFERENCE_SOURCE"))),
			CSVPath: v.GetString("REFERENCE_CSV_PATH"),
		},
		Extraction: ExtractionConfig{
			Workers:        v.GetInt("EXTRACTION_WORKERS"),
			MaxTextBytes:   v.GetInt("EXTRACTION_MAX_TEXT_BYTES"),
			MaxUploadBytes: v.GetInt64("EXTRACTION_MAX_UPLOAD_BYTES"),
		},
		Audit: AuditConfig{
			Enabled:      v.GetBool("AUDIT_ENABLED"),
			PseudonymKey: v.GetString("AUDIT_PSEUDONYM_KEY"),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_NAME", "labinsight")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_VERSION", "0.0.0")

	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("SERVER_READ_TIMEOUT", 15*time.Second)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 30*time.Second)
	v.SetDefault("SERVER_IDLE_TIMEOUT", 60*time.Second)
	v.SetDefault("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_NAME", "labinsight")
	v.SetDefault("DB_USER", "labinsight")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("DB_SSLMODE", "require")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", 30*time.Minute)
	v.SetDefault("DB_CONN_MAX_IDLE_TIME", 5*time.Minute)
	v.SetDefault("DB_SLOW_QUERY_THRESHOLD", 200*time.Millisecond)

	v.SetDefault("AUTH_ENABLED", false)
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_ACCESS_TTL", 15*time.Minute)
	v.SetDefault("JWT_ISSUER", "labinsight")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("LOG_OUTPUT", "stdout")

	v.SetDefault("TRACING_ENABLED", false)
	v.SetDefault("TRACING_SERVICE_NAME", "labinsight")
	v.SetDefault("TRACING_ENDPOINT_URL", "http://localhost:4318/v1/traces")
	v.SetDefault("TRACING_SAMPLE_RATE", 0.1)

	v.SetDefault("REFERENCE_SOURCE", ReferenceSourceCSV)
	v.SetDefault("REFERENCE_CSV_PATH", "data/test_and_values.csv")

	v.SetDefault("EXTRACTION_WORKERS", 1)
	v.SetDefault("EXTRACTION_MAX_TEXT_BYTES", 2<<20)
	v.SetDefault("EXTRACTION_MAX_UPLOAD_BYTES", 20<<20)

	v.SetDefault("AUDIT_ENABLED", false)
	v.SetDefault("AUDIT_PSEUDONYM_KEY", "")
}

// validate collects every configuration problem before failing.
func validate(cfg *Config) error {
	var errs []string

	if cfg.Server.Port <= 0 {
		errs = append(errs, "SERVER_PORT must be positive")
	}

	usesDB := cfg.Reference.Source == ReferenceSourcePostgres || cfg.Audit.Enabled

	switch cfg.Reference.Source {
	case ReferenceSourceCSV:
		if strings.TrimSpace(cfg.Reference.CSVPath) == "" {
			errs = append(errs, "REFERENCE_CSV_PATH is required when REFERENCE_SOURCE=csv")
		}
	case ReferenceSourcePostgres:
	default:
		errs = append(errs, fmt.Sprintf("REFERENCE_SOURCE %q is not one of csv, postgres", cfg.Reference.Source))
	}

	if cfg.JWT.Enabled {
		if cfg.JWT.Secret == "" {
			errs = append(errs, "JWT_SECRET is required when AUTH_ENABLED=true")
		} else if len(cfg.JWT.Secret) < 32 && cfg.App.Environment == "production" {
			errs = append(errs, "JWT_SECRET must be at least 32 characters in production")
		}
	}

	if cfg.Audit.Enabled {
		if n := len(cfg.Audit.PseudonymKey); n < 16 || n > 64 {
			errs = append(errs, "AUDIT_PSEUDONYM_KEY must be 16 to 64 characters when AUDIT_ENABLED=true")
		}
	}

	if usesDB {
		if cfg.Database.Password == "" && cfg.App.Environment != "development" {
			errs = append(errs, "DB_PASSWORD is required in non-development environments")
		}
		if cfg.Database.SSLMode == "disable" && cfg.App.Environment == "production" {
			errs = append(errs, "DB_SSLMODE=disable is not allowed in production")
		}
	}

	if cfg.Extraction.Workers < 1 {
		errs = append(errs, "EXTRACTION_WORKERS must be at least 1")
	}
	if cfg.Extraction.MaxTextBytes <= 0 || cfg.Extraction.MaxUploadBytes <= 0 {
		errs = append(errs, "EXTRACTION_MAX_TEXT_BYTES and EXTRACTION_MAX_UPLOAD_BYTES must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}
