package cache

import "time"

// FileOption configures FileStore.
type FileOption func(*FileConfig)

// FileConfig holds file cache configuration.
type FileConfig struct {
	Dir string
}

// WithDir sets the cache directory.
func WithDir(dir string) FileOption {
	return func(c *FileConfig) {
		c.Dir = dir
	}
}

// RedisOption configures Redis cache.
type RedisOption func(*RedisConfig)

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Addr        string
	Password    string
	DB          int
	PoolSize    int
	PoolTimeout time.Duration
	Prefix      string
}

// WithRedisAddr sets the Redis host:port.
func WithRedisAddr(addr string) RedisOption {
	return func(c *RedisConfig) {
		c.Addr = addr
	}
}

// WithRedisPassword sets Redis password.
func WithRedisPassword(password string) RedisOption {
	return func(c *RedisConfig) {
		c.Password = password
	}
}

// WithRedisDB sets Redis database number.
func WithRedisDB(db int) RedisOption {
	return func(c *RedisConfig) {
		c.DB = db
	}
}

// WithRedisPool sets connection pool settings.
func WithRedisPool(poolSize int, timeout time.Duration) RedisOption {
	return func(c *RedisConfig) {
		c.PoolSize = poolSize
		c.PoolTimeout = timeout
	}
}

// WithRedisPrefix sets key prefix.
func WithRedisPrefix(prefix string) RedisOption {
	return func(c *RedisConfig) {
		c.Prefix = prefix
	}
}

// SQLiteOption configures SQLiteStore.
type SQLiteOption func(*SQLiteConfig)

// SQLiteConfig holds SQLite cache configuration.
type SQLiteConfig struct {
	Path  string
	Table string
}

// WithSQLitePath sets the database file.
func WithSQLitePath(path string) SQLiteOption {
	return func(c *SQLiteConfig) {
		c.Path = path
	}
}

// WithSQLiteTable sets the table holding entries.
func WithSQLiteTable(table string) SQLiteOption {
	return func(c *SQLiteConfig) {
		c.Table = table
	}
}
