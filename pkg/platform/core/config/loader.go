package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"go.uber.org/fx"
	"gopkg.in/yaml.v3"

	"github.com/climanegocios/platform/pkg/platform/support/util/exception"
	"github.com/climanegocios/platform/pkg/platform/support/util/logger"
)

const moduleName = "config"

// ConfigParams defines the dependencies for NewConfigProvider.
type ConfigParams struct {
	fx.In
	EmbeddedConfig EmbeddedConfig
	EnvFilePath    string `name:"envFilePath" optional:"true"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// LoadConfig loads configuration from the .env file, the embedded YAML and the environment.
// It is expected to be called once during startup.
func LoadConfig(envFilePath string, embeddedConfig EmbeddedConfig) (*Config, error) {
	return loadConfig(envFilePath, embeddedConfig, NewOsEnvironmentExpander())
}

func loadConfig(envFilePath string, embeddedConfig EmbeddedConfig, expander EnvironmentExpander) (*Config, error) {
	if envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil {
			logger.Warnf(".env file (%s) not found or could not be loaded: %v", envFilePath, err)
		}
	}

	cfg := NewConfig()

	if len(embeddedConfig) > 0 {
		expanded, err := expander.Expand(embeddedConfig)
		if err != nil {
			return nil, exception.NewPlatformError(moduleName, "failed to expand environment placeholders", err, false)
		}
		var yamlConfig Config
		if err := yaml.Unmarshal(expanded, &yamlConfig); err != nil {
			return nil, exception.NewPlatformError(moduleName, "failed to unmarshal embedded config", err, false)
		}
		mergeValues(reflect.ValueOf(cfg).Elem(), reflect.ValueOf(&yamlConfig).Elem())
	}

	if err := loadStructFromEnv(reflect.ValueOf(cfg).Elem(), ""); err != nil {
		return nil, exception.NewPlatformError(moduleName, "failed to load config from environment variables", err, false)
	}

	ensureDefaultDatabase(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// NewConfigProvider is an Fx provider that loads *Config and applies the
// logging settings.
func NewConfigProvider(params ConfigParams) (*Config, error) {
	cfg, err := loadConfig(params.EnvFilePath, params.EmbeddedConfig, NewOsEnvironmentExpander())
	if err != nil {
		return nil, err
	}
	ApplyLogging(cfg)
	return cfg, nil
}

// ApplyLogging configures the logger package from cfg.System.Logging.
func ApplyLogging(cfg *Config) {
	logger.Configure(os.Stderr, cfg.System.Logging.Format)
	logger.SetLogLevel(cfg.System.Logging.Level)
	logger.Debugf("Log level set to: %s", cfg.System.Logging.Level)
}

// Validate checks struct constraints and environment-specific rules.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
			}
			return exception.NewPlatformErrorf(moduleName, "invalid configuration: %s", strings.Join(fields, ", "), err)
		}
		return exception.NewPlatformError(moduleName, "invalid configuration", err, false)
	}
	if cfg.IsProduction() && cfg.Security.SecretKey == DefaultSecretKey {
		return exception.NewPlatformError(moduleName, "SECURITY_SECRET_KEY must be changed in production", nil, false)
	}
	if cfg.Storage.Type == "gcs" && cfg.Storage.BucketName == "" {
		return exception.NewPlatformError(moduleName, "STORAGE_BUCKET_NAME is required when STORAGE_TYPE is gcs", nil, false)
	}
	return nil
}

// ensureDefaultDatabase derives the primary connection from the postgres
// section when application.yaml does not declare one.
func ensureDefaultDatabase(cfg *Config) {
	if cfg.Database == nil {
		cfg.Database = map[string]interface{}{}
	}
	if _, ok := cfg.Database[DefaultDatabaseName]; ok {
		return
	}
	cfg.Database[DefaultDatabaseName] = map[string]interface{}{
		"type":     "postgres",
		"host":     cfg.Postgres.Host,
		"port":     cfg.Postgres.Port,
		"database": cfg.Postgres.DB,
		"user":     cfg.Postgres.User,
		"password": cfg.Postgres.Password,
		"sslmode":  cfg.Postgres.Sslmode,
		"pool": map[string]interface{}{
			"max_open_conns":            cfg.API.Workers * 5,
			"max_idle_conns":            cfg.API.Workers,
			"conn_max_lifetime_minutes": 30,
		},
	}
}

// mergeValues copies every non-zero leaf of src over dst. Maps are merged key by key.
func mergeValues(dst, src reflect.Value) {
	switch src.Kind() {
	case reflect.Struct:
		for i := 0; i < src.NumField(); i++ {
			if !dst.Field(i).CanSet() {
				continue
			}
			mergeValues(dst.Field(i), src.Field(i))
		}
	case reflect.Map:
		if src.IsNil() {
			return
		}
		if dst.IsNil() {
			dst.Set(reflect.MakeMap(src.Type()))
		}
		iter := src.MapRange()
		for iter.Next() {
			dst.SetMapIndex(iter.Key(), iter.Value())
		}
	default:
		if !src.IsZero() {
			dst.Set(src)
		}
	}
}

// loadStructFromEnv walks val and sets each tagged leaf from the environment
// variable UPPER(prefix + yaml tag). Nested structs extend the prefix with "_".
func loadStructFromEnv(val reflect.Value, prefix string) error {
	typ := val.Type()
	for i := 0; i < typ.NumField(); i++ {
		field := val.Field(i)
		fieldType := typ.Field(i)
		yamlTag := strings.Split(fieldType.Tag.Get("yaml"), ",")[0]
		if yamlTag == "" || yamlTag == "-" {
			continue
		}
		envVarName := strings.ToUpper(prefix + yamlTag)

		switch field.Kind() {
		case reflect.Struct:
			if err := loadStructFromEnv(field, envVarName+"_"); err != nil {
				return err
			}
			continue
		case reflect.Map:
			if err := loadMapEntriesFromEnv(field, envVarName+"_"); err != nil {
				return err
			}
			continue
		}

		envValue, exists := os.LookupEnv(envVarName)
		if !exists {
			continue
		}
		if err := setField(field, envValue); err != nil {
			return fmt.Errorf("failed to set field '%s' from env var '%s': %w", fieldType.Name, envVarName, err)
		}
	}
	return nil
}

// loadMapEntriesFromEnv overrides keys of named map entries, e.g.
// DATABASE_DEFAULT_HOST=db sets database.default.host. The entry name is the
// first segment after the prefix; the remainder, lower-cased, is the key.
func loadMapEntriesFromEnv(mapField reflect.Value, prefix string) error {
	if mapField.Type().Key().Kind() != reflect.String || mapField.Type().Elem().Kind() != reflect.Interface {
		return nil
	}
	for _, env := range os.Environ() {
		if !strings.HasPrefix(env, prefix) {
			continue
		}
		keyAndField, value, ok := strings.Cut(strings.TrimPrefix(env, prefix), "=")
		if !ok {
			continue
		}
		entryName, fieldName, ok := strings.Cut(keyAndField, "_")
		if !ok || entryName == "" || fieldName == "" {
			continue
		}
		if mapField.IsNil() {
			mapField.Set(reflect.MakeMap(mapField.Type()))
		}
		key := reflect.ValueOf(strings.ToLower(entryName))
		entry := map[string]interface{}{}
		if existing := mapField.MapIndex(key); existing.IsValid() {
			if m, ok := existing.Interface().(map[string]interface{}); ok {
				entry = m
			}
		}
		entry[strings.ToLower(fieldName)] = value
		mapField.SetMapIndex(key, reflect.ValueOf(entry))
	}
	return nil
}

// setField converts value to the kind of field. Unsupported kinds are ignored.
func setField(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(intValue)
	case reflect.Float64, reflect.Float32:
		floatValue, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return err
		}
		field.SetFloat(floatValue)
	case reflect.Bool:
		boolValue, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return err
		}
		field.SetBool(boolValue)
	}
	return nil
}
