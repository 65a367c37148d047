package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"tinylink-go/pkg/logging"
)

const envPrefix = "TINYLINK"

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	Mode            string        `mapstructure:"mode"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	TrustedProxies  []string      `mapstructure:"trusted_proxies"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

type DBConfig struct {
	Driver          string        `mapstructure:"driver"` // mysql | postgres | sqlite
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type RedisConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Addr        string        `mapstructure:"addr"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	MaxIdle     int           `mapstructure:"max_idle"`
	MaxActive   int           `mapstructure:"max_active"`
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
}

type CacheConfig struct {
	LocalEnabled bool          `mapstructure:"local_enabled"`
	LocalMaxCost int64         `mapstructure:"local_max_cost"`
	LocalTTL     time.Duration `mapstructure:"local_ttl"`
	RedisTTL     time.Duration `mapstructure:"redis_ttl"`
	NegativeTTL  time.Duration `mapstructure:"negative_ttl"`
}

type PrivacyConfig struct {
	Salt string `mapstructure:"salt"`
}

type RateLimitConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	RefillRate    float64       `mapstructure:"refill_rate"` // 每秒补充的令牌数
	BurstCapacity int           `mapstructure:"burst_capacity"`
	StaleAfter    time.Duration `mapstructure:"stale_after"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	DB        DBConfig        `mapstructure:"db"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Log       logging.Options `mapstructure:"log"`
	Privacy   PrivacyConfig   `mapstructure:"privacy"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.trusted_proxies", []string{})
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.dsn", "tinylink.db")
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", time.Hour)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.max_idle", 10)
	v.SetDefault("redis.max_active", 50)
	v.SetDefault("redis.idle_timeout", 240*time.Second)

	v.SetDefault("cache.local_enabled", true)
	v.SetDefault("cache.local_max_cost", 10000) // 条目数
	v.SetDefault("cache.local_ttl", 30*time.Second)
	v.SetDefault("cache.redis_ttl", 5*time.Minute)
	v.SetDefault("cache.negative_ttl", 10*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.path", "logs/tinylink.log")
	v.SetDefault("log.max_size", 10)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age", 7)
	v.SetDefault("log.compress", false)

	v.SetDefault("privacy.salt", "")

	v.SetDefault("ratelimit.enabled", true)
	v.SetDefault("ratelimit.refill_rate", 1.0)
	v.SetDefault("ratelimit.burst_capacity", 1)
	v.SetDefault("ratelimit.stale_after", 60*time.Second)
	v.SetDefault("ratelimit.sweep_interval", 60*time.Second)
}

// Load 读取配置：默认值 < config.yaml < .env < TINYLINK_* 环境变量
// configPaths 为空时在当前目录查找 config.yaml
func Load(configPaths ...string) (*Config, error) {
	// .env 不存在是正常情况
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("Skipping .env: %v", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(configPaths) == 0 {
		configPaths = []string{"."}
	}
	for _, p := range configPaths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		log.Printf("No config.yaml found, using defaults and environment")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// MustLoad 加载失败直接退出
func MustLoad(configPaths ...string) *Config {
	cfg, err := Load(configPaths...)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	return cfg
}

// Validate 启动时检查必填项与取值范围
func (c *Config) Validate() error {
	var errs []error

	switch c.DB.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("db.driver must be one of mysql, postgres, sqlite, got %q", c.DB.Driver))
	}
	if c.DB.DSN == "" {
		errs = append(errs, errors.New("db.dsn is required"))
	}
	if c.Privacy.Salt == "" {
		errs = append(errs, fmt.Errorf("privacy.salt is required (set %s_PRIVACY_SALT)", envPrefix))
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		errs = append(errs, errors.New("redis.addr is required when redis is enabled"))
	}
	if c.RateLimit.Enabled {
		if c.RateLimit.RefillRate <= 0 {
			errs = append(errs, errors.New("ratelimit.refill_rate must be positive"))
		}
		if c.RateLimit.BurstCapacity < 1 {
			errs = append(errs, errors.New("ratelimit.burst_capacity must be at least 1"))
		}
		if c.RateLimit.StaleAfter <= 0 {
			errs = append(errs, errors.New("ratelimit.stale_after must be positive"))
		}
		if c.RateLimit.SweepInterval <= 0 {
			errs = append(errs, errors.New("ratelimit.sweep_interval must be positive"))
		}
	}

	return errors.Join(errs...)
}
