package config

// DBConfig contains PostgreSQL database configuration.
type DBConfig struct {
	Host     string `env:"HOST"     envDefault:"localhost"`
	Port     int    `env:"PORT"     envDefault:"5432"`
	User     string `env:"USER"     envDefault:"nanolancers"`
	Password string `env:"PASSWORD" envDefault:"nanolancers"`
	Name     string `env:"NAME"     envDefault:"nanolancers"`
	SSLMode  string `env:"SSL_MODE" envDefault:"disable"` // Use 'disable' for local dev, 'require' for production
	// RunMigrationsOnStart controls whether the application automatically applies migrations during startup.
	RunMigrationsOnStart bool `env:"RUN_MIGRATIONS_ON_START" envDefault:"true"`
}

// SQLiteConfig contains the local SQLite session store configuration.
type SQLiteConfig struct {
	// Path is the database file. Empty means an on-disk default next to the
	// session token file.
	Path string `env:"PATH" envDefault:"admin-console.db"`
}

// RedisConfig contains Redis configuration for the session cache.
type RedisConfig struct {
	Addr     string `env:"ADDR"     envDefault:"localhost:6379"`
	Password string `env:"PASSWORD" envDefault:""`
	DB       int    `env:"DB"       envDefault:"0"`
}
