// Package config holds the platform configuration model and its loader.
//
// Values are resolved in this order: compiled defaults, the embedded
// application.yaml (with ${VAR:-default} placeholders expanded), then
// environment variables named after the yaml path of each field
// (postgres.host -> POSTGRES_HOST). A .env file is loaded into the
// environment first, so it behaves like exported variables.
package config

import (
	"fmt"
	"strings"
)

// EmbeddedConfig is the raw content of the application.yaml bundled in a binary.
type EmbeddedConfig []byte

// LogLevel enumerates the accepted logging levels. SILENT is only meaningful for GORM.
type LogLevel string

const (
	LogLevelDebug  LogLevel = "DEBUG"
	LogLevelInfo   LogLevel = "INFO"
	LogLevelWarn   LogLevel = "WARN"
	LogLevelError  LogLevel = "ERROR"
	LogLevelSilent LogLevel = "SILENT"
)

// Environment names.
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
	EnvTest        = "test"
)

// DefaultSecretKey is the placeholder shipped in .env.example. It is refused in production.
const DefaultSecretKey = "your-secret-key-here-change-in-production"

// DefaultDatabaseName is the key of the primary entry under `database:`.
const DefaultDatabaseName = "default"

// Config is the root configuration.
type Config struct {
	Project     ProjectConfig          `yaml:"project"`
	Security    SecurityConfig         `yaml:"security"`
	API         APIConfig              `yaml:"api"`
	Postgres    PostgresConfig         `yaml:"postgres"`
	Redis       RedisConfig            `yaml:"redis"`
	Weather     WeatherConfig          `yaml:"weather"`
	ML          MLConfig               `yaml:"ml"`
	SMTP        SMTPConfig             `yaml:"smtp"`
	PgAdmin     PgAdminConfig          `yaml:"pgadmin"`
	Storage     StorageConfig          `yaml:"storage"`
	Gateway     GatewayConfig          `yaml:"gateway"`
	System      SystemConfig           `yaml:"system"`
	FrontendURL string                 `yaml:"frontend_url" validate:"required,url"`
	SentryDSN   string                 `yaml:"sentry_dsn"`
	Database    map[string]interface{} `yaml:"database"`
}

// ProjectConfig carries metadata reported by the API root endpoint.
type ProjectConfig struct {
	Name        string `yaml:"name" validate:"required"`
	Version     string `yaml:"version" validate:"required"`
	Environment string `yaml:"environment" validate:"oneof=development staging production test"`
}

// SecurityConfig holds token signing settings.
type SecurityConfig struct {
	SecretKey                string `yaml:"secret_key" validate:"required"`
	Algorithm                string `yaml:"algorithm" validate:"oneof=HS256 HS384 HS512"`
	AccessTokenExpireMinutes int    `yaml:"access_token_expire_minutes" validate:"min=1"`
	RefreshTokenExpireDays   int    `yaml:"refresh_token_expire_days" validate:"min=1"`
}

// APIConfig configures the HTTP server process.
type APIConfig struct {
	Host    string `yaml:"host"`
	Port    int    `yaml:"port" validate:"min=1,max=65535"`
	Workers int    `yaml:"workers" validate:"min=1,max=256"`
	Prefix  string `yaml:"prefix" validate:"startswith=/"`
}

// PostgresConfig holds the database credentials shared by the API and the database container.
type PostgresConfig struct {
	User     string `yaml:"user" validate:"required"`
	Password string `yaml:"password"`
	Host     string `yaml:"host" validate:"required"`
	Port     int    `yaml:"port" validate:"min=1,max=65535"`
	DB       string `yaml:"db" validate:"required"`
	Sslmode  string `yaml:"sslmode" validate:"oneof=disable allow prefer require verify-ca verify-full"`
}

// RedisConfig configures the cache connection.
type RedisConfig struct {
	Host            string `yaml:"host" validate:"required"`
	Port            int    `yaml:"port" validate:"min=1,max=65535"`
	Password        string `yaml:"password"`
	DB              int    `yaml:"db" validate:"min=0,max=15"`
	CacheTTLSeconds int    `yaml:"cache_ttl_seconds" validate:"min=0"`
}

// WeatherConfig lists the external weather data endpoints.
type WeatherConfig struct {
	InmetBaseURL  string `yaml:"inmet_base_url" validate:"omitempty,url"`
	InmetAPIKey   string `yaml:"inmet_api_key"`
	NomadsBaseURL string `yaml:"nomads_base_url" validate:"omitempty,url"`
}

// MLConfig locates model artifacts and retraining parameters.
type MLConfig struct {
	ModelPath           string `yaml:"model_path" validate:"required"`
	UpdateIntervalHours int    `yaml:"update_interval_hours" validate:"min=1"`
	MinTrainingSamples  int    `yaml:"min_training_samples" validate:"min=1"`
}

// SMTPConfig holds outgoing email settings.
type SMTPConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port" validate:"min=0,max=65535"`
	User      string `yaml:"user"`
	Password  string `yaml:"password"`
	TLS       bool   `yaml:"tls"`
	FromEmail string `yaml:"from_email" validate:"omitempty,email"`
	FromName  string `yaml:"from_name"`
}

// PgAdminConfig holds the credentials of the optional admin panel.
type PgAdminConfig struct {
	DefaultEmail    string `yaml:"default_email" validate:"omitempty,email"`
	DefaultPassword string `yaml:"default_password"`
}

// StorageConfig selects where model artifacts are kept.
type StorageConfig struct {
	Type            string `yaml:"type" validate:"oneof=local gcs"`
	BucketName      string `yaml:"bucket_name"`
	CredentialsFile string `yaml:"credentials_file"`
}

// GatewayConfig configures the production reverse proxy.
type GatewayConfig struct {
	ListenAddr            string `yaml:"listen_addr" validate:"required"`
	Upstreams             string `yaml:"upstreams"`
	HealthPath            string `yaml:"health_path" validate:"startswith=/"`
	HealthIntervalSeconds int    `yaml:"health_interval_seconds" validate:"min=1"`
	HealthTimeoutSeconds  int    `yaml:"health_timeout_seconds" validate:"min=1"`
	FailureThreshold      int    `yaml:"failure_threshold" validate:"min=1"`
	// TLS is served on TLSListenAddr only when both files are set.
	TLSListenAddr string `yaml:"tls_listen_addr"`
	TLSCertFile   string `yaml:"tls_cert_file" validate:"required_with=TLSKeyFile"`
	TLSKeyFile    string `yaml:"tls_key_file" validate:"required_with=TLSCertFile"`
}

// TLSEnabled reports whether certificate and key are configured.
func (g GatewayConfig) TLSEnabled() bool {
	return g.TLSCertFile != "" && g.TLSKeyFile != ""
}

// UpstreamList splits the comma separated Upstreams value.
func (g GatewayConfig) UpstreamList() []string {
	var out []string
	for _, u := range strings.Split(g.Upstreams, ",") {
		if u = strings.TrimSpace(u); u != "" {
			out = append(out, u)
		}
	}
	return out
}

// SystemConfig holds process-level settings.
type SystemConfig struct {
	Timezone   string        `yaml:"timezone"`
	LogsDir    string        `yaml:"logs_dir" validate:"required"`
	UploadsDir string        `yaml:"uploads_dir" validate:"required"`
	Logging    LoggingConfig `yaml:"logging"`
	Tracing    TracingConfig `yaml:"tracing"`
}

// LoggingConfig selects log level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"oneof=DEBUG INFO WARN ERROR FATAL"`
	Format string `yaml:"format" validate:"oneof=json console"`
}

// TracingConfig enables OTLP export when Endpoint is set.
type TracingConfig struct {
	Endpoint    string `yaml:"endpoint"`
	ServiceName string `yaml:"service_name"`
}

// NewConfig returns a Config populated with defaults.
func NewConfig() *Config {
	return &Config{
		Project: ProjectConfig{
			Name:        "Clima & Negócios API",
			Version:     "1.0.0",
			Environment: EnvDevelopment,
		},
		Security: SecurityConfig{
			SecretKey:                DefaultSecretKey,
			Algorithm:                "HS256",
			AccessTokenExpireMinutes: 30,
			RefreshTokenExpireDays:   7,
		},
		API: APIConfig{
			Host:    "0.0.0.0",
			Port:    8000,
			Workers: 4,
			Prefix:  "/api/v1",
		},
		Postgres: PostgresConfig{
			User:     "climanegocios",
			Password: "password",
			Host:     "localhost",
			Port:     5432,
			DB:       "climanegocios_db",
			Sslmode:  "disable",
		},
		Redis: RedisConfig{
			Host:            "localhost",
			Port:            6379,
			CacheTTLSeconds: 3600,
		},
		Weather: WeatherConfig{
			InmetBaseURL:  "https://apitempo.inmet.gov.br",
			NomadsBaseURL: "https://nomads.ncep.noaa.gov",
		},
		ML: MLConfig{
			ModelPath:           "./models",
			UpdateIntervalHours: 24,
			MinTrainingSamples:  1000,
		},
		SMTP: SMTPConfig{
			Port:      587,
			TLS:       true,
			FromEmail: "noreply@climanegocios.com",
			FromName:  "Clima & Negócios",
		},
		Storage: StorageConfig{Type: "local"},
		Gateway: GatewayConfig{
			ListenAddr:            ":80",
			Upstreams:             "http://api:8000",
			HealthPath:            "/health",
			HealthIntervalSeconds: 30,
			HealthTimeoutSeconds:  10,
			FailureThreshold:      3,
			TLSListenAddr:         ":443",
		},
		System: SystemConfig{
			Timezone:   "America/Sao_Paulo",
			LogsDir:    "./logs",
			UploadsDir: "./uploads",
			Logging:    LoggingConfig{Level: string(LogLevelInfo), Format: "json"},
			Tracing:    TracingConfig{ServiceName: "climanegocios-api"},
		},
		FrontendURL: "http://localhost:3000",
		Database:    map[string]interface{}{},
	}
}

// IsProduction reports whether the configured environment is production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Project.Environment, EnvProduction)
}

// APIAddr is the listen address of the API server.
func (c *Config) APIAddr() string {
	return fmt.Sprintf("%s:%d", c.API.Host, c.API.Port)
}

// Addr is the host:port of the cache.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}
