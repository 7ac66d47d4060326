package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用全局配置结构体
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"db"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Authz    AuthzConfig    `mapstructure:"authz"`
	Export   ExportConfig   `mapstructure:"export"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Port               int        `mapstructure:"port"`
	BaseURL            string     `mapstructure:"base_url"`
	MaxBodyBytes       int64      `mapstructure:"max_body_bytes"`
	ExposeErrorDetails bool       `mapstructure:"expose_error_details"` // 500 响应是否附带底层错误信息
	CORS               CORSConfig `mapstructure:"cors"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// DatabaseConfig PostgreSQL 数据库配置
type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"sslmode"`
	Timezone        string `mapstructure:"timezone"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`  // 连接最大生命周期（分钟）
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"` // 空闲连接最大存活时间（分钟）
}

// DSN 生成 PostgreSQL 连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.Timezone,
	)
}

// RedisConfig Redis 缓存配置
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig 托管认证服务配置
//
// Mode:
//   - jwt:    本地使用共享密钥校验认证服务签发的 Access Token
//   - remote: 每次请求调用认证服务 /auth/v1/user 解析用户（结果缓存 CacheTTL）
type AuthConfig struct {
	Mode       string        `mapstructure:"mode"`
	URL        string        `mapstructure:"url"`
	AnonKey    string        `mapstructure:"anon_key"`
	ServiceKey string        `mapstructure:"service_key"` // 管理员特权操作（重置密码等）使用
	JWTSecret  string        `mapstructure:"jwt_secret"`
	CacheTTL   time.Duration `mapstructure:"cache_ttl"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// AuthzConfig 权限评估配置
type AuthzConfig struct {
	Mode string `mapstructure:"mode"` // enforce | shadow | disabled
}

// ExportConfig 导出配置
type ExportConfig struct {
	PDFFontPath string `mapstructure:"pdf_font_path"` // 中文 TTF 字体路径，为空时退回内置字体
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load 从配置文件与环境变量加载配置
// 优先级：环境变量 > 配置文件 > 默认值
func Load(path string) (*Config, error) {
	v := viper.New()

	// ── 默认值 ──
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("server.max_body_bytes", 10<<20)
	v.SetDefault("server.expose_error_details", false)
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:3000"})

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "pharmacy_ops")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.timezone", "Asia/Taipei")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.conn_max_lifetime", 60)
	v.SetDefault("db.conn_max_idle_time", 30)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("auth.mode", "jwt")
	v.SetDefault("auth.cache_ttl", "60s")
	v.SetDefault("auth.timeout", "10s")

	v.SetDefault("authz.mode", "enforce")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// ── 配置文件 ──
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// ── 环境变量 ──
	v.SetEnvPrefix("PHARMOPS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate 校验关键配置项
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("配置校验失败: server.port 必须在 1-65535 之间")
	}

	switch c.Auth.Mode {
	case "jwt":
		if len(c.Auth.JWTSecret) < 16 {
			return fmt.Errorf("配置校验失败: auth.mode=jwt 时 auth.jwt_secret 长度不能少于 16 字符")
		}
	case "remote":
		if c.Auth.URL == "" || c.Auth.AnonKey == "" {
			return fmt.Errorf("配置校验失败: auth.mode=remote 时 auth.url 与 auth.anon_key 不能为空")
		}
	default:
		return fmt.Errorf("配置校验失败: 未知的 auth.mode %q", c.Auth.Mode)
	}

	switch c.Authz.Mode {
	case "enforce", "shadow", "disabled":
	default:
		return fmt.Errorf("配置校验失败: 未知的 authz.mode %q", c.Authz.Mode)
	}

	return nil
}

// HasServiceKey 是否配置了特权服务密钥
func (c *AuthConfig) HasServiceKey() bool {
	return c.URL != "" && c.ServiceKey != ""
}
