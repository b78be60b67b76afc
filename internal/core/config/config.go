package config

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
)

type HTTP struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	ReadTimeoutSec  int    `mapstructure:"read_timeout_sec"`
	WriteTimeoutSec int    `mapstructure:"write_timeout_sec"`
	IdleTimeoutSec  int    `mapstructure:"idle_timeout_sec"`
}

type App struct {
	Name        string   `mapstructure:"name"`
	Env         string   `mapstructure:"env"`
	HTTP        HTTP     `mapstructure:"http"`
	Admin       HTTP     `mapstructure:"admin"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

type Rotate struct {
	Enable     bool   `mapstructure:"enable"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	JSON   bool   `mapstructure:"json"`
	Rotate Rotate `mapstructure:"rotate"`
}

type JWT struct {
	Secret            string `mapstructure:"secret"`
	Issuer            string `mapstructure:"issuer"`
	AccessTokenTTLMin int    `mapstructure:"access_token_ttl_min"`
}

type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type DB struct {
	Driver             string `mapstructure:"driver"`
	DSN                string `mapstructure:"dsn"`
	Username           string `mapstructure:"username"`
	Password           string `mapstructure:"password"`
	MaxOpenConns       int    `mapstructure:"max_open_conns"`
	MaxIdleConns       int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeMin int    `mapstructure:"conn_max_lifetime_min"`
	AutoMigrate        bool   `mapstructure:"auto_migrate"`
	LogLevel           string `mapstructure:"log_level"`
}

// Session 会话存储：redis | memory
type Session struct {
	Backend string `mapstructure:"backend"`
}

type Seed struct {
	Enable          bool   `mapstructure:"enable"`
	DefaultPassword string `mapstructure:"default_password"`
}

// Auth 公共注册策略
type Auth struct {
	AllowAdminSignup bool `mapstructure:"allow_admin_signup"`
	MinPasswordLen   int  `mapstructure:"min_password_len"`
}

type Limits struct {
	RPS           float64 `mapstructure:"rps"`
	Burst         int     `mapstructure:"burst"`
	AuthRPS       float64 `mapstructure:"auth_rps"`
	AuthBurst     int     `mapstructure:"auth_burst"`
	MaxConcurrent int64   `mapstructure:"max_concurrent"`
	MaxBodyMB     int64   `mapstructure:"max_body_mb"`
	TimeoutSec    int     `mapstructure:"timeout_sec"`
}

type Cache struct {
	DashboardTTLSec int `mapstructure:"dashboard_ttl_sec"`
}

type Config struct {
	App     App     `mapstructure:"app"`
	Log     Log     `mapstructure:"log"`
	JWT     JWT     `mapstructure:"jwt"`
	DB      DB      `mapstructure:"db"`
	Redis   Redis   `mapstructure:"redis"`
	Session Session `mapstructure:"session"`
	Seed    Seed    `mapstructure:"seed"`
	Auth    Auth    `mapstructure:"auth"`
	Limits  Limits  `mapstructure:"limits"`
	Cache   Cache   `mapstructure:"cache"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "supplysphere")
	v.SetDefault("app.env", "local")
	v.SetDefault("app.http.host", "0.0.0.0")
	v.SetDefault("app.http.port", 8080)
	v.SetDefault("app.http.read_timeout_sec", 5)
	v.SetDefault("app.http.write_timeout_sec", 10)
	v.SetDefault("app.http.idle_timeout_sec", 60)
	v.SetDefault("app.admin.host", "0.0.0.0")
	v.SetDefault("app.admin.port", 8081)
	v.SetDefault("app.admin.read_timeout_sec", 5)
	v.SetDefault("app.admin.write_timeout_sec", 10)
	v.SetDefault("app.admin.idle_timeout_sec", 60)
	v.SetDefault("app.cors_origins", []string{"http://localhost:3000"})

	v.SetDefault("log.level", "info")

	v.SetDefault("jwt.issuer", "supplysphere")
	v.SetDefault("jwt.access_token_ttl_min", 720)

	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.dsn", "file:supplysphere.db?_foreign_keys=on")
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime_min", 30)
	v.SetDefault("db.auto_migrate", true)
	v.SetDefault("db.log_level", "warn")

	v.SetDefault("db.username", "")
	v.SetDefault("db.password", "")

	// 无默认值的键也要登记，APP_ 环境变量才能覆盖
	v.SetDefault("jwt.secret", "")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("session.backend", "redis")
	v.SetDefault("seed.enable", false)
	v.SetDefault("seed.default_password", "password")

	v.SetDefault("auth.allow_admin_signup", true)
	v.SetDefault("auth.min_password_len", 1)

	v.SetDefault("limits.rps", 200)
	v.SetDefault("limits.burst", 400)
	v.SetDefault("limits.auth_rps", 5)
	v.SetDefault("limits.auth_burst", 10)
	v.SetDefault("limits.max_concurrent", 300)
	v.SetDefault("limits.max_body_mb", 16)
	v.SetDefault("limits.timeout_sec", 10)

	v.SetDefault("cache.dashboard_ttl_sec", 30)
}

// LoadFile 读取 yaml + APP_ 环境变量覆盖
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) Validate() error {
	if len(c.JWT.Secret) < 16 {
		return fmt.Errorf("config: jwt.secret must be at least 16 bytes")
	}
	switch c.Session.Backend {
	case "redis":
		if c.Redis.Addr == "" {
			return fmt.Errorf("config: redis.addr required when session.backend=redis")
		}
	case "memory":
	default:
		return fmt.Errorf("config: unknown session.backend %q", c.Session.Backend)
	}
	return nil
}

func Load(path string) *Config {
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
		if path == "" {
			path = "./configs/config.local.yaml"
		}
	}
	c, err := LoadFile(path)
	if err != nil {
		log.Fatalf("%v", err)
	}
	return c
}
