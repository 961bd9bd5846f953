package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Relay     RelayConfig     `mapstructure:"relay"`
	Gemini    GeminiConfig    `mapstructure:"gemini"`
	OpenAI    OpenAIConfig    `mapstructure:"openai"`
	Qwen      QwenConfig      `mapstructure:"qwen"`
	Doubao    DoubaoConfig    `mapstructure:"doubao"`
	CORS      CORSConfig      `mapstructure:"cors"`
	Log       LogConfig       `mapstructure:"log"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Client    ClientConfig    `mapstructure:"client"`
	Monitor   MonitorConfig   `mapstructure:"monitor"`
	Formatter FormatterConfig `mapstructure:"formatter"`
	Panel     PanelConfig     `mapstructure:"panel"`
}

type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	MaxHeaderBytes int           `mapstructure:"max_header_bytes"`
}

// RelayConfig 中继上游设置
type RelayConfig struct {
	Provider      string        `mapstructure:"provider"` // gemini | openai | qwen | doubao
	Timeout       time.Duration `mapstructure:"timeout"`
	DebugRequests bool          `mapstructure:"debug_requests"` // 记录上游请求（敏感头已脱敏）
	Breaker       BreakerConfig `mapstructure:"breaker"`
}

type BreakerConfig struct {
	MaxRequests  uint32        `mapstructure:"max_requests"`
	Interval     time.Duration `mapstructure:"interval"`
	OpenTimeout  time.Duration `mapstructure:"open_timeout"`
	MinRequests  uint32        `mapstructure:"min_requests"`
	FailureRatio float64       `mapstructure:"failure_ratio"`
}

type GeminiConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
}

type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
}

type QwenConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Temperature float32       `mapstructure:"temperature"`
	TopP        float32       `mapstructure:"top_p"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type DoubaoConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// StorageConfig 中继响应缓存
type StorageConfig struct {
	Type      string        `mapstructure:"type"` // memory | disk | none
	DataDir   string        `mapstructure:"data_dir"`
	CacheSize int           `mapstructure:"cache_size"`
	TTL       time.Duration `mapstructure:"ttl"`
}

// ClientConfig 面板侧摘要客户端
type ClientConfig struct {
	RelayURL    string        `mapstructure:"relay_url"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Mode        string        `mapstructure:"mode"` // relay | local
	Language    string        `mapstructure:"language"`
	NativeLabel string        `mapstructure:"native_label"`
}

type MonitorConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

type FormatterConfig struct {
	EscapeHTML bool `mapstructure:"escape_html"`
}

type PanelConfig struct {
	Port         int           `mapstructure:"port"`
	StartURL     string        `mapstructure:"start_url"`
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`
}

var cfg *Config

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 90*time.Second)
	v.SetDefault("server.max_header_bytes", 1<<20)

	v.SetDefault("relay.provider", "gemini")
	v.SetDefault("relay.timeout", 60*time.Second)
	v.SetDefault("relay.debug_requests", false)
	v.SetDefault("relay.breaker.max_requests", 3)
	v.SetDefault("relay.breaker.interval", 10*time.Second)
	v.SetDefault("relay.breaker.open_timeout", 30*time.Second)
	v.SetDefault("relay.breaker.min_requests", 5)
	v.SetDefault("relay.breaker.failure_ratio", 0.6)

	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.base_url", "https://generativelanguage.googleapis.com/v1")
	v.SetDefault("gemini.model", "gemini-2.5-flash")
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.base_url", "")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("qwen.api_key", "")
	v.SetDefault("qwen.base_url", "https://dashscope.aliyuncs.com/compatible-mode/v1")
	v.SetDefault("qwen.model", "qwen-plus")
	v.SetDefault("qwen.max_tokens", 2048)
	v.SetDefault("qwen.temperature", 0.7)
	v.SetDefault("qwen.top_p", 0.9)
	v.SetDefault("qwen.timeout", 60*time.Second)
	v.SetDefault("doubao.api_key", "")
	v.SetDefault("doubao.model", "")

	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Origin", "Content-Type", "Accept"})
	v.SetDefault("cors.exposed_headers", []string{"X-Request-ID"})
	v.SetDefault("cors.allow_credentials", false)
	v.SetDefault("cors.max_age", 600)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("storage.type", "none")
	v.SetDefault("storage.data_dir", "./data")
	v.SetDefault("storage.cache_size", 256)
	v.SetDefault("storage.ttl", 24*time.Hour)

	v.SetDefault("client.relay_url", "http://localhost:3000")
	v.SetDefault("client.timeout", 60*time.Second)
	v.SetDefault("client.mode", "relay")
	v.SetDefault("client.language", "Sinhala")
	v.SetDefault("client.native_label", "සිංහල")

	v.SetDefault("monitor.poll_interval", time.Second)
	v.SetDefault("formatter.escape_html", true)

	v.SetDefault("panel.port", 3100)
	v.SetDefault("panel.start_url", "")
	v.SetDefault("panel.fetch_timeout", 10*time.Second)
}

// Load 读取配置文件；configPath 为空时只使用默认值和环境变量
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("LUMINO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configPath, err)
		}
	}

	c := &Config{}
	if err := v.Unmarshal(c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	// 配置文件优先，未设置时回退到各厂商的标准环境变量
	fillKey(&c.Gemini.APIKey, "GEMINI_API_KEY")
	fillKey(&c.OpenAI.APIKey, "OPENAI_API_KEY")
	fillKey(&c.Qwen.APIKey, "DASHSCOPE_API_KEY")
	fillKey(&c.Doubao.APIKey, "ARK_API_KEY")

	if err := c.validate(); err != nil {
		return nil, err
	}

	cfg = c
	return c, nil
}

func fillKey(dst *string, env string) {
	if *dst != "" {
		return
	}
	if key := os.Getenv(env); key != "" {
		*dst = key
	}
}

func (c *Config) validate() error {
	switch c.Relay.Provider {
	case "gemini", "openai", "qwen", "doubao":
	default:
		return fmt.Errorf("unsupported relay provider %q", c.Relay.Provider)
	}
	switch c.Client.Mode {
	case "relay", "local":
	default:
		return fmt.Errorf("unsupported client mode %q", c.Client.Mode)
	}
	if c.Monitor.PollInterval <= 0 {
		return fmt.Errorf("monitor.poll_interval must be positive")
	}
	return nil
}

func Get() *Config {
	return cfg
}
