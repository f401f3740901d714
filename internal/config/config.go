package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
	} `yaml:"telegram"`
	LLM struct {
		Endpoint string `yaml:"endpoint"`
		APIKey   string `yaml:"api_key"`
		Model    string `yaml:"model"`
	} `yaml:"llm"`
	Exchange struct {
		BaseURL     string `yaml:"base_url"`
		Secret      string `yaml:"secret"`
		AffiliateID string `yaml:"affiliate_id"`
	} `yaml:"exchange"`
	PriceFeed struct {
		BaseURL string `yaml:"base_url"`
		APIKey  string `yaml:"api_key"`
	} `yaml:"price_feed"`
	Naming struct {
		BaseURL string `yaml:"base_url"`
		APIKey  string `yaml:"api_key"`
	} `yaml:"naming"`
	Wallet struct {
		BaseURL string `yaml:"base_url"`
		APIKey  string `yaml:"api_key"`
	} `yaml:"wallet"`
	Schedule struct {
		LimitOrderCron string `yaml:"limit_order_cron"`
		PlanCron       string `yaml:"plan_cron"`
		WatchCron      string `yaml:"watch_cron"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("LLM_ENDPOINT"); v != "" {
		cfg.LLM.Endpoint = v
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("SIDESHIFT_SECRET"); v != "" {
		cfg.Exchange.Secret = v
	}
	if v := os.Getenv("SIDESHIFT_AFFILIATE_ID"); v != "" {
		cfg.Exchange.AffiliateID = v
	}
	if v := os.Getenv("COINGECKO_API_KEY"); v != "" {
		cfg.PriceFeed.APIKey = v
	}
	if v := os.Getenv("WALLET_API_KEY"); v != "" {
		cfg.Wallet.APIKey = v
	}
	if v := os.Getenv("NAMING_API_KEY"); v != "" {
		cfg.Naming.APIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}

	// Defaults
	if cfg.LLM.Endpoint == "" {
		cfg.LLM.Endpoint = "https://api.openai.com/v1/chat/completions"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "gpt-4o-mini"
	}
	if cfg.Exchange.BaseURL == "" {
		cfg.Exchange.BaseURL = "https://sideshift.ai/api/v2"
	}
	if cfg.PriceFeed.BaseURL == "" {
		cfg.PriceFeed.BaseURL = "https://api.coingecko.com/api/v3"
	}
	if cfg.Naming.BaseURL == "" {
		cfg.Naming.BaseURL = "https://api.unstoppabledomains.com/resolve"
	}
	if cfg.Schedule.LimitOrderCron == "" {
		cfg.Schedule.LimitOrderCron = "0 * * * * *" // every minute
	}
	if cfg.Schedule.PlanCron == "" {
		cfg.Schedule.PlanCron = "0 */5 * * * *" // every 5 minutes
	}
	if cfg.Schedule.WatchCron == "" {
		cfg.Schedule.WatchCron = "*/30 * * * * *" // every 30 seconds
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/swap_sentinel.db"
	}

	return cfg, nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	if c.Exchange.BaseURL == "" {
		return fmt.Errorf("exchange.base_url is required")
	}
	if c.LLM.APIKey == "" {
		return fmt.Errorf("llm.api_key is required")
	}
	return nil
}
