// Package config loads daemon configuration from the environment.
package config

import (
	"log"

	"github.com/spf13/viper"
)

// Config is the flat daemon configuration.
type Config struct {
	LogLevel string
	HTTPAddr string

	DBPath    string
	RedisAddr string

	PriceAPIURL  string
	BaseCurrency string

	EvmNodeWSURL   string
	EvmExplorerURL string

	FeaturedPageSize int
	SearchPageSize   int
}

// Load reads configuration from a .env file if present, with environment
// variables taking precedence.
func Load() *Config {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("HTTP_ADDR", ":8080")
	viper.SetDefault("DB_PATH", "walletcore.db")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("PRICE_API_URL", "https://price.coinsuite.io")
	viper.SetDefault("BASE_CURRENCY", "USD")
	viper.SetDefault("EVM_NODE_WS_URL", "")
	viper.SetDefault("EVM_EXPLORER_URL", "https://etherscan.io")
	viper.SetDefault("FEATURED_PAGE_SIZE", 100)
	viper.SetDefault("SEARCH_PAGE_SIZE", 20)

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("No config file found: %v", err)
	}

	return &Config{
		LogLevel:         viper.GetString("LOG_LEVEL"),
		HTTPAddr:         viper.GetString("HTTP_ADDR"),
		DBPath:           viper.GetString("DB_PATH"),
		RedisAddr:        viper.GetString("REDIS_ADDR"),
		PriceAPIURL:      viper.GetString("PRICE_API_URL"),
		BaseCurrency:     viper.GetString("BASE_CURRENCY"),
		EvmNodeWSURL:     viper.GetString("EVM_NODE_WS_URL"),
		EvmExplorerURL:   viper.GetString("EVM_EXPLORER_URL"),
		FeaturedPageSize: viper.GetInt("FEATURED_PAGE_SIZE"),
		SearchPageSize:   viper.GetInt("SEARCH_PAGE_SIZE"),
	}
}
