package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	Telematics TelematicsConfig
	Poller     PollerConfig
	Redis      RedisConfig
	MQTT       MQTTConfig
	RateLimit  RateLimitConfig
	CORS       CORSConfig
}

type ServerConfig struct {
	Port        string
	Host        string
	Environment string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type JWTConfig struct {
	Secret      string
	ExpiryHours int
}

// TelematicsConfig describes the external vehicle data provider.
type TelematicsConfig struct {
	BaseURL        string
	TokenURL       string
	ClientID       string
	ClientSecret   string
	RequestTimeout time.Duration
}

type PollerConfig struct {
	Interval    time.Duration // tick interval for the poll_all timer
	Concurrency int           // max connections polled in parallel
	Token       string        // shared secret required on POST /poll; empty disables the check
	History     bool          // append raw readings to vehicle_data_history
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

type MQTTConfig struct {
	Enabled  bool
	Broker   string
	ClientID string
	Username string
	Password string
}

type RateLimitConfig struct {
	GeneralRPS   float64 // Requests per second for general endpoints
	GeneralBurst int     // Burst size for general endpoints
}

type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AddConfigPath(".")
	if homeDir, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(homeDir)
	}
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		log.Printf("Warning: config file not found: %v. Falling back to environment variables only.", err)
	}

	viper.SetDefault("POLL_INTERVAL_SEC", 60)
	viper.SetDefault("POLL_CONCURRENCY", 8)
	viper.SetDefault("TELEMATICS_TIMEOUT_SEC", 10)
	viper.SetDefault("REDIS_TTL_SEC", 300)

	config := &Config{
		Server: ServerConfig{
			Port:        viper.GetString("SERVER_PORT"),
			Host:        viper.GetString("SERVER_HOST"),
			Environment: viper.GetString("ENVIRONMENT"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			DBName:   viper.GetString("DB_NAME"),
			SSLMode:  viper.GetString("DB_SSLMODE"),
		},
		JWT: JWTConfig{
			Secret:      viper.GetString("JWT_SECRET"),
			ExpiryHours: viper.GetInt("JWT_EXPIRY_HOURS"),
		},
		Telematics: TelematicsConfig{
			BaseURL:        viper.GetString("TELEMATICS_BASE_URL"),
			TokenURL:       viper.GetString("TELEMATICS_TOKEN_URL"),
			ClientID:       viper.GetString("TELEMATICS_CLIENT_ID"),
			ClientSecret:   viper.GetString("TELEMATICS_CLIENT_SECRET"),
			RequestTimeout: time.Duration(viper.GetInt("TELEMATICS_TIMEOUT_SEC")) * time.Second,
		},
		Poller: PollerConfig{
			Interval:    time.Duration(viper.GetInt("POLL_INTERVAL_SEC")) * time.Second,
			Concurrency: viper.GetInt("POLL_CONCURRENCY"),
			Token:       viper.GetString("POLL_TOKEN"),
			History:     viper.GetBool("POLL_HISTORY_ENABLED"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("REDIS_ADDR"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
			TTL:      time.Duration(viper.GetInt("REDIS_TTL_SEC")) * time.Second,
		},
		MQTT: MQTTConfig{
			Enabled:  viper.GetBool("MQTT_ENABLED"),
			Broker:   viper.GetString("MQTT_BROKER"),
			ClientID: viper.GetString("MQTT_CLIENT_ID"),
			Username: viper.GetString("MQTT_USERNAME"),
			Password: viper.GetString("MQTT_PASSWORD"),
		},
		RateLimit: RateLimitConfig{
			GeneralRPS:   viper.GetFloat64("RATE_LIMIT_GENERAL_RPS"),
			GeneralBurst: viper.GetInt("RATE_LIMIT_GENERAL_BURST"),
		},
		CORS: CORSConfig{
			AllowedOrigins:   viper.GetStringSlice("CORS_ALLOWED_ORIGINS"),
			AllowedMethods:   viper.GetStringSlice("CORS_ALLOWED_METHODS"),
			AllowedHeaders:   viper.GetStringSlice("CORS_ALLOWED_HEADERS"),
			ExposedHeaders:   viper.GetStringSlice("CORS_EXPOSED_HEADERS"),
			AllowCredentials: viper.GetBool("CORS_ALLOW_CREDENTIALS"),
			MaxAge:           viper.GetInt("CORS_MAX_AGE"),
		},
	}

	return config, nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}
