package config

// PoolConfig holds database connection pool settings.
type PoolConfig struct {
	MaxOpenConns           int `yaml:"max_open_conns"`
	MaxIdleConns           int `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int `yaml:"conn_max_lifetime_minutes"`
}

// DatabaseConfig holds the settings of one named connection under `database:`.
type DatabaseConfig struct {
	Type     string     `yaml:"type"`             // "postgres" or "sqlite".
	Host     string     `yaml:"host"`             // Database host address.
	Port     int        `yaml:"port"`             // Database port number.
	Database string     `yaml:"database"`         // Database name, or file path for sqlite.
	User     string     `yaml:"user"`             // Database user.
	Password string     `yaml:"password"`         // Database password.
	Schema   string     `yaml:"schema,omitempty"` // Default search_path schema.
	Sslmode  string     `yaml:"sslmode"`          // SSL mode for the connection.
	Pool     PoolConfig `yaml:"pool"`             // Connection pool settings.
}
