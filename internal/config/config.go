package config

import (
	"log"

	"github.com/spf13/viper"
)

type Config struct {
	ServerPort   string  `mapstructure:"SERVER_PORT"`
	DatabaseURL  string  `mapstructure:"DATABASE_URL"`
	ClientOrigin string  `mapstructure:"CLIENT_ORIGIN"`
	CostPerMile  float64 `mapstructure:"COST_PER_MILE"`
}

func LoadConfig(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("CLIENT_ORIGIN", "*")
	// IRS-style per-mile operating cost used for net estimates.
	viper.SetDefault("COST_PER_MILE", 0.67)

	viper.AutomaticEnv()

	err := viper.ReadInConfig()
	if err != nil {
		// Missing .env is fine, everything can come from the environment.
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("No .env file found.")
		} else {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
