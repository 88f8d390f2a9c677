package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"github.com/yourusername/vat-einvoice/models"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type Config struct {
	Port             string
	Environment      string
	DatabaseURL      string
	JWTSecret        string
	JWTRefreshSecret string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	DraftTTL        time.Duration
	InFlightTTL     time.Duration
	CatalogCacheTTL time.Duration

	SignerSeed    string
	InvoiceSerial string

	TaxGatewayURL     string
	TaxGatewayTimeout time.Duration

	CorsAllowedOrigins []string
}

// LoadConfig reads .env and an optional config.yaml, then lets environment
// variables override both.
func LoadConfig() (*Config, error) {
	godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.AutomaticEnv()

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("DATABASE_URL", "sqlite://einvoice.db")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("DRAFT_TTL", "72h")
	v.SetDefault("INFLIGHT_TTL", "2m")
	v.SetDefault("CATALOG_CACHE_TTL", "10m")
	v.SetDefault("INVOICE_SERIAL", "1C26TAA")
	v.SetDefault("TAX_GATEWAY_TIMEOUT", "30s")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Port:               v.GetString("PORT"),
		Environment:        v.GetString("ENVIRONMENT"),
		DatabaseURL:        v.GetString("DATABASE_URL"),
		JWTSecret:          v.GetString("JWT_SECRET"),
		JWTRefreshSecret:   v.GetString("JWT_REFRESH_SECRET"),
		RedisAddr:          v.GetString("REDIS_ADDR"),
		RedisPassword:      v.GetString("REDIS_PASSWORD"),
		RedisDB:            v.GetInt("REDIS_DB"),
		DraftTTL:           v.GetDuration("DRAFT_TTL"),
		InFlightTTL:        v.GetDuration("INFLIGHT_TTL"),
		CatalogCacheTTL:    v.GetDuration("CATALOG_CACHE_TTL"),
		SignerSeed:         v.GetString("SIGNER_SEED"),
		InvoiceSerial:      v.GetString("INVOICE_SERIAL"),
		TaxGatewayURL:      v.GetString("TAX_GATEWAY_URL"),
		TaxGatewayTimeout:  v.GetDuration("TAX_GATEWAY_TIMEOUT"),
		CorsAllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
	}

	if cfg.JWTSecret == "" {
		if !cfg.IsDevelopment() {
			return nil, fmt.Errorf("JWT_SECRET is required outside development")
		}
		cfg.JWTSecret = "dev-access-secret"
	}
	if cfg.JWTRefreshSecret == "" {
		cfg.JWTRefreshSecret = cfg.JWTSecret + "-refresh"
	}

	return cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// InitDB opens postgres, or sqlite for sqlite:// and file: URLs, and migrates the schema.
func InitDB(cfg *Config) (*gorm.DB, error) {
	gormCfg := &gorm.Config{}
	if !cfg.IsDevelopment() {
		gormCfg.Logger = gormlogger.Default.LogMode(gormlogger.Warn)
	}

	db, err := gorm.Open(dialectorFor(cfg.DatabaseURL), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(models.All()...); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

func dialectorFor(url string) gorm.Dialector {
	switch {
	case strings.HasPrefix(url, "sqlite://"):
		return sqlite.Open(strings.TrimPrefix(url, "sqlite://"))
	case strings.HasPrefix(url, "file:"):
		return sqlite.Open(url)
	}
	return postgres.Open(url)
}

// InitRedis returns nil when no address is configured or the server does not answer.
// Callers fall back to in-process stores in that case.
func InitRedis(cfg *Config, logger *zap.Logger) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unavailable, using in-memory stores", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		client.Close()
		return nil
	}

	return client
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
