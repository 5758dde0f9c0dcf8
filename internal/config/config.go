package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the configuration for the application.
type Config struct {
	Environment   string `mapstructure:"environment"`
	DevModeBypass bool   `mapstructure:"dev_mode_bypass"`
	Debug         bool   `mapstructure:"debug"`
	Server        struct {
		Addr      string `mapstructure:"addr"`
		EnableMCP bool   `mapstructure:"enable_mcp"`
		TLS       struct {
			Enable    bool     `mapstructure:"enable"`
			CertFile  string   `mapstructure:"cert_file"`
			KeyFile   string   `mapstructure:"key_file"`
			Hostnames []string `mapstructure:"hostnames"`
		} `mapstructure:"tls"`
	} `mapstructure:"server"`
	DB struct {
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		Name     string `mapstructure:"name"`
		SSLMode  string `mapstructure:"sslmode"`
	} `mapstructure:"db"`
	Auth struct {
		OktaDomain   string `mapstructure:"okta_domain"`
		ClientID     string `mapstructure:"client_id"`
		ClientSecret string `mapstructure:"client_secret"`
		RedirectURL  string `mapstructure:"redirect_url"`
	} `mapstructure:"auth"`
	Inference struct {
		BaseURL   string        `mapstructure:"base_url"`
		APIKey    string        `mapstructure:"api_key"`
		Model     string        `mapstructure:"model"`
		MaxTokens int           `mapstructure:"max_tokens"`
		Timeout   time.Duration `mapstructure:"timeout"`
	} `mapstructure:"inference"`
	Molit struct {
		BaseURL string `mapstructure:"base_url"`
		APIKey  string `mapstructure:"api_key"`
	} `mapstructure:"molit"`
	Naver struct {
		BaseURL      string `mapstructure:"base_url"`
		ClientID     string `mapstructure:"client_id"`
		ClientSecret string `mapstructure:"client_secret"`
	} `mapstructure:"naver"`
	Workflow struct {
		MaxAttempts           int           `mapstructure:"max_attempts"`
		InitialBackoff        time.Duration `mapstructure:"initial_backoff"`
		MaxBackoff            time.Duration `mapstructure:"max_backoff"`
		HoldingMonths         int           `mapstructure:"holding_months"`
		SmallDepositThreshold int64         `mapstructure:"small_deposit_threshold"`
		TradeMonths           int           `mapstructure:"trade_months"`
		RentMonths            int           `mapstructure:"rent_months"`
	} `mapstructure:"workflow"`
	Upload struct {
		Dir       string `mapstructure:"dir"`
		MaxFileMB int64  `mapstructure:"max_file_mb"`
	} `mapstructure:"upload"`
}

// DSN renders the Postgres connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name, c.DB.SSLMode)
}

// IsDev reports whether the service runs in the DEV environment.
func (c *Config) IsDev() bool {
	return strings.EqualFold(c.Environment, "dev")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "dev")
	v.SetDefault("dev_mode_bypass", true)
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.enable_mcp", true)
	v.SetDefault("server.tls.enable", false)
	v.SetDefault("server.tls.hostnames", []string{"localhost", "127.0.0.1"})
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.name", "auction")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("inference.base_url", "https://api.anthropic.com")
	v.SetDefault("inference.model", "claude-sonnet-4-20250514")
	v.SetDefault("inference.max_tokens", 4096)
	v.SetDefault("inference.timeout", 120*time.Second)
	v.SetDefault("molit.base_url", "https://apis.data.go.kr/1613000")
	v.SetDefault("naver.base_url", "https://openapi.naver.com")
	v.SetDefault("workflow.max_attempts", 3)
	v.SetDefault("workflow.initial_backoff", time.Second)
	v.SetDefault("workflow.max_backoff", 10*time.Second)
	v.SetDefault("workflow.holding_months", 12)
	v.SetDefault("workflow.small_deposit_threshold", int64(165_000_000))
	v.SetDefault("workflow.trade_months", 60)
	v.SetDefault("workflow.rent_months", 12)
	v.SetDefault("upload.dir", "./uploads")
	v.SetDefault("upload.max_file_mb", 50)
}

// LoadConfig loads the configuration from a file and the environment.
// When path is empty, config.yaml is searched in . and ./config; a missing
// file is not an error.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}
	v.SetEnvPrefix("AUCTION")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	// normalize OKTA issuer url (strip trailing slash if any)
	config.Auth.OktaDomain = normalizeOktaIssuer(config.Auth.OktaDomain)

	return &config, nil
}

// normalizeOktaIssuer removes any trailing slash and leaves the scheme and
// path intact.
func normalizeOktaIssuer(input string) string {
	return strings.TrimRight(strings.TrimSpace(input), "/")
}
