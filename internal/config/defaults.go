package config

import (
	"errors"
	"fmt"
	"time"
)

// Значения алгоритмов, бэкендов и политик ключа
const (
	AlgorithmFixedWindow = "fixed_window"
	AlgorithmTokenBucket = "token_bucket"

	BackendMemory = "memory"
	BackendRedis  = "redis"

	KeyPolicyGlobal = "global"
	KeyPolicyIP     = "ip"
	KeyPolicyHeader = "header"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	ModeDevelopment = "development"
	ModeProduction  = "production"
)

// ApplyDefaults заполняет отсутствующие секции и нулевые значения
func (c *Config) ApplyDefaults() {
	if c.Logger == nil {
		c.Logger = &ConfigLogger{}
	}
	if c.Logger.Level == "" {
		c.Logger.Level = "info"
	}

	if c.Server == nil {
		c.Server = &ConfigServer{}
	}
	if c.Server.Port == 0 {
		c.Server.Port = 5001
	}
	if c.Server.APIPrefix == "" {
		c.Server.APIPrefix = "/api/notes"
	}
	if c.Server.GracefulShutdownTimeout == 0 {
		c.Server.GracefulShutdownTimeout = 10
	}
	if c.Server.HTTPReadHeaderTimeout == 0 {
		c.Server.HTTPReadHeaderTimeout = 5
	}

	if c.CORS == nil {
		c.CORS = &ConfigCORS{}
	}
	if c.CORS.Mode == "" {
		c.CORS.Mode = ModeDevelopment
	}
	if c.CORS.Mode == ModeDevelopment && c.CORS.AllowedOrigins == "" {
		c.CORS.AllowedOrigins = "http://localhost:5173"
	}
	if c.CORS.MaxAge == 0 {
		c.CORS.MaxAge = 86400 // 24 часа
	}

	if c.RateLimit == nil {
		c.RateLimit = &ConfigRateLimit{Enabled: true}
	}
	if c.RateLimit.Algorithm == "" {
		c.RateLimit.Algorithm = AlgorithmFixedWindow
	}
	if c.RateLimit.Backend == "" {
		c.RateLimit.Backend = BackendMemory
	}
	if c.RateLimit.Ceiling == 0 {
		c.RateLimit.Ceiling = 100
	}
	if c.RateLimit.WindowSeconds == 0 {
		c.RateLimit.WindowSeconds = 60
	}
	if c.RateLimit.KeyPolicy == "" {
		c.RateLimit.KeyPolicy = KeyPolicyGlobal
	}
	if c.RateLimit.KeyHeader == "" {
		c.RateLimit.KeyHeader = "X-Api-Key"
	}
	if c.RateLimit.CleanupSeconds == 0 {
		c.RateLimit.CleanupSeconds = 120
	}

	if c.Redis == nil {
		c.Redis = &ConfigRedis{}
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.Redis.Prefix == "" {
		c.Redis.Prefix = "notes:ratelimit"
	}
	if c.Redis.StatsTTL == 0 {
		c.Redis.StatsTTL = 86400
	}

	if c.Database == nil {
		c.Database = &ConfigDatabase{}
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverPostgres
	}
	if c.Database.ConnectTimeout == 0 {
		c.Database.ConnectTimeout = 10
	}
	if c.Database.OperationTimeoutSeconds == 0 {
		c.Database.OperationTimeoutSeconds = 5
	}

	if c.Static == nil {
		c.Static = &ConfigStatic{}
	}
}

// Validate проверяет значения, без которых сервис не должен стартовать
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port: invalid value %d", c.Server.Port))
	}
	if c.Server.APIPrefix[0] != '/' {
		errs = append(errs, fmt.Errorf("server.api_prefix: must start with /"))
	}

	switch c.CORS.Mode {
	case ModeDevelopment, ModeProduction:
	default:
		errs = append(errs, fmt.Errorf("cors.mode: unknown value %q", c.CORS.Mode))
	}

	rl := c.RateLimit
	if rl.Ceiling <= 0 {
		errs = append(errs, fmt.Errorf("rate_limit.ceiling: must be positive, got %d", rl.Ceiling))
	}
	if rl.WindowSeconds <= 0 {
		errs = append(errs, fmt.Errorf("rate_limit.window_seconds: must be positive, got %d", rl.WindowSeconds))
	}
	switch rl.Algorithm {
	case AlgorithmFixedWindow, AlgorithmTokenBucket:
	default:
		errs = append(errs, fmt.Errorf("rate_limit.algorithm: unknown value %q", rl.Algorithm))
	}
	switch rl.Backend {
	case BackendMemory:
	case BackendRedis:
		if rl.Algorithm != AlgorithmFixedWindow {
			errs = append(errs, errors.New("rate_limit.backend: redis supports only fixed_window"))
		}
	default:
		errs = append(errs, fmt.Errorf("rate_limit.backend: unknown value %q", rl.Backend))
	}
	switch rl.KeyPolicy {
	case KeyPolicyGlobal, KeyPolicyIP, KeyPolicyHeader:
	default:
		errs = append(errs, fmt.Errorf("rate_limit.key_policy: unknown value %q", rl.KeyPolicy))
	}

	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("database.driver: unknown value %q", c.Database.Driver))
	}
	if c.Database.DSN == "" {
		errs = append(errs, errors.New("database.dsn: required"))
	}

	return errors.Join(errs...)
}

// Window возвращает длительность окна rate limit
func (c *ConfigRateLimit) Window() time.Duration {
	return time.Duration(c.WindowSeconds) * time.Second
}

// OperationTimeout возвращает таймаут одной операции хранилища
func (c *ConfigDatabase) OperationTimeout() time.Duration {
	return time.Duration(c.OperationTimeoutSeconds) * time.Second
}

// Load читает файл конфигурации, применяет значения по умолчанию и валидирует результат
func Load(configFile string) (*Config, error) {
	cfg, err := InitConfig[Config](configFile)
	if err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}
