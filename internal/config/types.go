package config

// ConfigLogger настройки логирования
type ConfigLogger struct {
	Level string `mapstructure:"level"`
}

// ConfigServer настройки HTTP сервера
type ConfigServer struct {
	Port                    int    `mapstructure:"port"`
	APIPrefix               string `mapstructure:"api_prefix"`
	HTTPReadTimeout         int    `mapstructure:"http_read_timeout"`
	HTTPWriteTimeout        int    `mapstructure:"http_write_timeout"`
	HTTPIdleTimeout         int    `mapstructure:"http_idle_timeout"`
	HTTPReadHeaderTimeout   int    `mapstructure:"http_read_header_timeout"`
	GracefulShutdownTimeout int    `mapstructure:"graceful_shutdown_timeout"`
}

// ConfigCORS настройки cross-origin политики.
// Mode "development" разрешает только AllowedOrigins, "production" разрешает любой origin,
// если AllowedOrigins пуст.
type ConfigCORS struct {
	Mode             string `mapstructure:"mode"`
	AllowedOrigins   string `mapstructure:"allowed_origins"`
	AllowCredentials bool   `mapstructure:"allow_credentials"`
	MaxAge           int    `mapstructure:"max_age"`
}

// ConfigRateLimit настройки admission control
type ConfigRateLimit struct {
	Enabled        bool   `mapstructure:"enabled"`
	Algorithm      string `mapstructure:"algorithm"` // fixed_window | token_bucket
	Backend        string `mapstructure:"backend"`   // memory | redis
	Ceiling        int    `mapstructure:"ceiling"`
	WindowSeconds  int    `mapstructure:"window_seconds"`
	KeyPolicy      string `mapstructure:"key_policy"` // global | ip | header
	KeyHeader      string `mapstructure:"key_header"`
	TrustXFF       bool   `mapstructure:"trust_x_forwarded_for"`
	FailOpen       bool   `mapstructure:"fail_open"`
	CleanupSeconds int    `mapstructure:"cleanup_seconds"`
}

// ConfigRedis настройки общего хранилища счетчиков
type ConfigRedis struct {
	Addr         string `mapstructure:"addr"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	Prefix       string `mapstructure:"prefix"`
	StatsEnabled bool   `mapstructure:"stats_enabled"`
	StatsTTL     int    `mapstructure:"stats_ttl_seconds"`
}

// ConfigDatabase настройки подключения к БД
type ConfigDatabase struct {
	Driver                  string `mapstructure:"driver"` // postgres | sqlite
	DSN                     string `mapstructure:"dsn"`
	ConnectTimeout          int    `mapstructure:"connect_timeout"`
	OperationTimeoutSeconds int    `mapstructure:"operation_timeout"`
	MaxOpenConns            int    `mapstructure:"max_open_conns"`
}

// ConfigStatic настройки раздачи собранного фронтенда
type ConfigStatic struct {
	Dir string `mapstructure:"dir"`
}

// Config основная структура конфигурации
type Config struct {
	Logger    *ConfigLogger    `mapstructure:"logger"`
	Server    *ConfigServer    `mapstructure:"server"`
	CORS      *ConfigCORS      `mapstructure:"cors"`
	RateLimit *ConfigRateLimit `mapstructure:"rate_limit"`
	Redis     *ConfigRedis     `mapstructure:"redis"`
	Database  *ConfigDatabase  `mapstructure:"database"`
	Static    *ConfigStatic    `mapstructure:"static"`
}
