package config

import (
	"errors"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	App     AppConfig     `mapstructure:"app"`
	LLM     LLMConfig     `mapstructure:"llm"`
	Server  ServerConfig  `mapstructure:"server"`
	Store   StoreConfig   `mapstructure:"store"`
	Market  MarketConfig  `mapstructure:"market"`
	Reports ReportsConfig `mapstructure:"reports"`
	Log     LogConfig     `mapstructure:"log"`
}

// AppConfig holds naming and routing settings
type AppConfig struct {
	Name      string `mapstructure:"name"`
	APIPrefix string `mapstructure:"api_prefix"`
}

// LLMConfig holds the LLM configuration
type LLMConfig struct {
	BaseURL      string  `mapstructure:"base_url"`
	APIKey       string  `mapstructure:"api_key"`
	Model        string  `mapstructure:"model"`
	MaxTokens    int     `mapstructure:"max_tokens"`
	Temperature  float32 `mapstructure:"temperature"`
	SystemPrompt string  `mapstructure:"system_prompt"`
	// RetryAttempts bounds single-shot completions (Q&A); the tool loop never retries a round.
	RetryAttempts uint64 `mapstructure:"retry_attempts"`
}

// ServerConfig holds the server configuration
type ServerConfig struct {
	Host               string   `mapstructure:"host"`
	Port               string   `mapstructure:"port"`
	CORSOrigins        []string `mapstructure:"cors_origins"`
	RateLimitPerMinute int      `mapstructure:"rate_limit_per_minute"`
}

// StoreConfig holds the sqlite location for sessions and bookmarks
type StoreConfig struct {
	Path string `mapstructure:"path"`
}

// MarketConfig configures the optional real data providers consulted before mock data.
type MarketConfig struct {
	ECOSAPIKey  string `mapstructure:"ecos_api_key"`
	ECOSBaseURL string `mapstructure:"ecos_base_url"`
	// ECOSSeries maps a metric name to "STAT_CODE/CYCLE/ITEM_CODE".
	ECOSSeries   map[string]string `mapstructure:"ecos_series"`
	YahooEnabled bool              `mapstructure:"yahoo_enabled"`
}

// ReportsConfig holds where rendered reports are written
type ReportsConfig struct {
	Dir string `mapstructure:"dir"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "Noir Luxe Economy")
	v.SetDefault("app.api_prefix", "/api")

	v.SetDefault("llm.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.model", "gpt-4-turbo-preview")
	v.SetDefault("llm.max_tokens", 2000)
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.retry_attempts", 3)

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8000")
	v.SetDefault("server.cors_origins", []string{"http://localhost:5173"})
	v.SetDefault("server.rate_limit_per_minute", 30)

	v.SetDefault("store.path", "econlux.db")

	v.SetDefault("market.ecos_base_url", "https://ecos.bok.or.kr/api")
	v.SetDefault("market.ecos_series", map[string]string{
		"POLICY_RATE": "722Y001/M/0101000",
	})

	v.SetDefault("reports.dir", "reports")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Load loads the configuration. A .env file is read first (missing is fine),
// then config.yaml from the working directory or the file named by CONFIG_PATH.
// ECONLUX_* environment variables override file values, e.g. ECONLUX_LLM_API_KEY.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("econlux")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// OPENAI_API_KEY is what most deployments already export.
	_ = v.BindEnv("llm.api_key", "ECONLUX_LLM_API_KEY", "OPENAI_API_KEY")

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, err
			}
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// Addr is the listen address for the HTTP server.
func (c ServerConfig) Addr() string {
	return c.Host + ":" + c.Port
}
