package config

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	API      APIConfig
	Session  SessionConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Pricing  PricingConfig
}

type ServerConfig struct {
	Port        string
	Env         string
	CORSOrigins []string
}

type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

type SessionConfig struct {
	Driver string // file, redis, postgres or memory
	File   string
	Key    string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	Schema   string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type PricingConfig struct {
	SavingsRate float64
	TaxRate     float64
}

// IsDevelopment reports whether the process runs outside production.
func (c *Config) IsDevelopment() bool {
	return c.Server.Env != "production"
}

func Load() *Config {
	// .env values become environment variables so child tools see them too
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: Could not load .env: %v", err)
	}

	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("Warning: Could not read config file: %v", err)
		}
	}

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_ENV", "development")
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("API_BASE_URL", "http://localhost:8001")
	v.SetDefault("API_TIMEOUT_SECONDS", 10)
	v.SetDefault("SESSION_DRIVER", "file")
	v.SetDefault("SESSION_FILE", defaultSessionFile())
	v.SetDefault("SESSION_KEY", "robohub:session:token")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_SCHEMA", "public")
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("PRICING_SAVINGS_RATE", 0.15)
	v.SetDefault("PRICING_TAX_RATE", 0.08)
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Server: ServerConfig{
			Port:        v.GetString("SERVER_PORT"),
			Env:         v.GetString("SERVER_ENV"),
			CORSOrigins: splitList(v.GetString("CORS_ORIGINS")),
		},
		API: APIConfig{
			BaseURL: strings.TrimRight(v.GetString("API_BASE_URL"), "/"),
			Timeout: time.Duration(v.GetInt("API_TIMEOUT_SECONDS")) * time.Second,
		},
		Session: SessionConfig{
			Driver: strings.ToLower(v.GetString("SESSION_DRIVER")),
			File:   v.GetString("SESSION_FILE"),
			Key:    v.GetString("SESSION_KEY"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			Database: v.GetString("DB_DATABASE"),
			Schema:   v.GetString("DB_SCHEMA"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Pricing: PricingConfig{
			SavingsRate: v.GetFloat64("PRICING_SAVINGS_RATE"),
			TaxRate:     v.GetFloat64("PRICING_TAX_RATE"),
		},
	}
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "robohub", "token")
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
