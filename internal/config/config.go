package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	SecurityCenter struct {
		URL       string
		AccessKey string
		SecretKey string
		Username  string
		Password  string
		Insecure  bool
	}
	Notify struct {
		Slack struct {
			Token   string
			Channel string
		}
		Email struct {
			SMTPHost    string
			SMTPPort    int
			From        string
			Password    string
			ToReceivers []string
		}
	}
}

// LoadConfig loads the configuration from config.yaml
func LoadConfig() *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.vulneye")

	var config Config

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Printf("Error reading config file: %v\n", err)
		}
	} else {
		if err := viper.Unmarshal(&config); err != nil {
			fmt.Printf("Error unmarshaling config: %v\n", err)
		}
	}

	return &config
}
