package config

import (
	"log"

	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	ServerAddr              string `mapstructure:"SERVER_ADDR"`
	DatabaseURL             string `mapstructure:"DATABASE_URL"`
	JWTSecret               string `mapstructure:"JWT_SECRET"`
	RedisURL                string `mapstructure:"REDIS_URL"`
	FirebaseCredentialsPath string `mapstructure:"FIREBASE_CREDENTIALS_PATH"`
	NotificationRetention   int    `mapstructure:"NOTIFICATION_RETENTION_DAYS"`
	AllowedOrigins          string `mapstructure:"ALLOWED_ORIGINS"`
}

var AppConfig *Config

// LoadConfig loads the configuration from a .env file and environment variables.
func LoadConfig() {
	viper.AddConfigPath(".")
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	viper.SetDefault("SERVER_ADDR", ":8080")
	viper.SetDefault("NOTIFICATION_RETENTION_DAYS", 30)

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Println("Warning: .env file not found, loading from environment variables")
	}

	err := viper.Unmarshal(&AppConfig)
	if err != nil {
		log.Fatalf("Unable to decode into struct, %v", err)
	}
}
