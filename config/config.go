// =============================================================================
// 📦 Qianfan SDK 配置
// =============================================================================
// 统一配置加载，支持 YAML 文件 + 环境变量覆盖
//
// 使用方法:
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("qianfan.yaml").
//	    WithEnvPrefix("QIANFAN").
//	    Load()
//
// 配置优先级: 默认值 → YAML 文件 → 环境变量
// =============================================================================
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config 是 SDK 的完整配置结构
type Config struct {
	// Access Key（与 SecretKey 配对）
	AccessKey string `yaml:"access_key" env:"ACCESS_KEY"`

	// Secret Key
	SecretKey string `yaml:"secret_key" env:"SECRET_KEY"`

	// 模型服务基础 URL
	BaseURL string `yaml:"base_url" env:"BASE_URL"`

	// 控制台（管理面）基础 URL
	ConsoleBaseURL string `yaml:"console_base_url" env:"CONSOLE_BASE_URL"`

	// OAuth 鉴权服务基础 URL
	AuthBaseURL string `yaml:"auth_base_url" env:"AUTH_BASE_URL"`

	// 单次请求超时
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`

	// Retry 重试配置
	Retry RetryConfig `yaml:"retry" env:"RETRY"`

	// RateLimit 限流配置
	RateLimit LimitConfig `yaml:"rate_limit" env:"RATE_LIMIT"`

	// Log 日志配置
	Log LogConfig `yaml:"log" env:"LOG"`

	// Redis 共享 token 缓存配置（默认关闭，使用进程内缓存）
	Redis RedisConfig `yaml:"redis" env:"REDIS"`
}

// RetryConfig 重试配置
type RetryConfig struct {
	// 最大重试次数（0 表示不重试）
	Count int `yaml:"count" env:"COUNT"`
	// 初始退避时间
	InitialDelay time.Duration `yaml:"initial_delay" env:"INITIAL_DELAY"`
	// 最大退避时间
	MaxDelay time.Duration `yaml:"max_delay" env:"MAX_DELAY"`
	// 退避倍增因子
	Multiplier float64 `yaml:"multiplier" env:"MULTIPLIER"`
	// 是否添加随机抖动
	Jitter bool `yaml:"jitter" env:"JITTER"`
}

// LimitConfig 限流配置
type LimitConfig struct {
	// 每秒请求数上限（0 表示不限）
	QPS float64 `yaml:"qps" env:"QPS"`
	// 每分钟请求数上限（0 表示不限）
	RPM int `yaml:"rpm" env:"RPM"`
	// 保留比例
	BufferRatio float64 `yaml:"buffer_ratio" env:"BUFFER_RATIO"`
}

// LogConfig 日志配置
type LogConfig struct {
	// 日志级别: debug, info, warn, error
	Level string `yaml:"level" env:"LEVEL"`
	// 输出格式: json, console
	Format string `yaml:"format" env:"FORMAT"`
}

// RedisConfig Redis token 缓存配置
type RedisConfig struct {
	// 是否启用
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// 地址
	Addr string `yaml:"addr" env:"ADDR"`
	// 密码
	Password string `yaml:"password" env:"PASSWORD"`
	// 数据库编号
	DB int `yaml:"db" env:"DB"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		BaseURL:        "https://aip.baidubce.com",
		ConsoleBaseURL: "https://qianfan.baidubce.com",
		AuthBaseURL:    "https://aip.baidubce.com",
		Timeout:        60 * time.Second,
		Retry: RetryConfig{
			Count:        3,
			InitialDelay: time.Second,
			MaxDelay:     30 * time.Second,
			Multiplier:   2.0,
			Jitter:       true,
		},
		RateLimit: LimitConfig{
			BufferRatio: 0.1,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	var errs []string

	if c.BaseURL == "" {
		errs = append(errs, "base_url must not be empty")
	}
	if c.Retry.Count < 0 {
		errs = append(errs, "retry.count must not be negative")
	}
	if c.Retry.Multiplier != 0 && c.Retry.Multiplier < 1 {
		errs = append(errs, "retry.multiplier must be >= 1")
	}
	if c.RateLimit.BufferRatio < 0 || c.RateLimit.BufferRatio >= 1 {
		errs = append(errs, "rate_limit.buffer_ratio must be in [0, 1)")
	}
	if c.Timeout < 0 {
		errs = append(errs, "timeout must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// HasCredentials 返回是否配置了完整的 AK/SK。
func (c *Config) HasCredentials() bool {
	return c.AccessKey != "" && c.SecretKey != ""
}
