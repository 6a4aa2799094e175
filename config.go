package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	aws_pkg "github.com/yashrajoria/bistro-backend/pkg/aws"
)

// Config holds all environment variables for the bistro service.
type Config struct {
	Port             string
	Env              string
	MongoURL         string
	MongoDB          string
	StoreDriver      string // mongo | memory
	AccessSecret     string // signs identity tokens, never rotated at runtime
	PaymentSecret    string
	WebhookSecret    string
	PaymentCurrency  string
	RedisURL         string
	MenuCacheTTL     time.Duration
	PaymentTopicArn  string
	AllowedOrigins   string
	RequestTimeout   time.Duration
	MetricsEnabled   bool
	MetricsNamespace string
	LogsEnabled      bool
	LogGroup         string
	UseAWSSecrets    bool
}

type secretGetter interface {
	GetSecret(ctx context.Context, name string) (string, error)
}

// LoadConfig loads environment variables into Config struct and validates them.
// If AWS_USE_SECRETS=true it will attempt to read secrets from Secrets Manager
// and fall back to env vars on failure.
func LoadConfig() (*Config, error) {
	var secrets secretGetter
	if os.Getenv("AWS_USE_SECRETS") == "true" {
		if awsCfg, err := aws_pkg.LoadAWSConfig(context.Background()); err == nil {
			secrets = aws_pkg.NewSecretsClient(awsCfg)
		} else {
			zap.L().Warn("AWS config unavailable, using env secrets", zap.Error(err))
		}
	}
	return loadConfig(os.Getenv, secrets)
}

func loadConfig(getenv func(string) string, secrets secretGetter) (*Config, error) {
	cfg := &Config{
		Port:             getenvDefault(getenv, "PORT", "5000"),
		Env:              getenvDefault(getenv, "APP_ENV", "development"),
		MongoURL:         getenvDefault(getenv, "MONGO_URL", "mongodb://localhost:27017"),
		MongoDB:          getenvDefault(getenv, "MONGO_DB", "bistroDB"),
		StoreDriver:      strings.ToLower(getenvDefault(getenv, "STORE_DRIVER", "mongo")),
		AccessSecret:     getenv("ACCESS_TOKEN_SECRET"),
		PaymentSecret:    getenv("PAYMENT_SECRET_KEY"),
		WebhookSecret:    getenv("PAYMENT_WEBHOOK_SECRET"),
		PaymentCurrency:  strings.ToLower(getenvDefault(getenv, "PAYMENT_CURRENCY", "usd")),
		RedisURL:         getenv("REDIS_URL"),
		PaymentTopicArn:  getenv("PAYMENT_SNS_TOPIC_ARN"),
		AllowedOrigins:   getenvDefault(getenv, "ALLOWED_ORIGINS", "*"),
		MetricsEnabled:   getenv("CLOUDWATCH_METRICS_ENABLED") == "true",
		MetricsNamespace: getenvDefault(getenv, "CLOUDWATCH_NAMESPACE", "Bistro"),
		LogsEnabled:      getenv("CLOUDWATCH_LOGS_ENABLED") == "true",
		LogGroup:         getenvDefault(getenv, "CLOUDWATCH_LOG_GROUP", "/bistro/services"),
		UseAWSSecrets:    getenv("AWS_USE_SECRETS") == "true",
	}

	var err error
	if cfg.MenuCacheTTL, err = secondsEnv(getenv, "MENU_CACHE_TTL_SECONDS", 300); err != nil {
		return nil, err
	}
	if cfg.RequestTimeout, err = secondsEnv(getenv, "REQUEST_TIMEOUT_SECONDS", 30); err != nil {
		return nil, err
	}

	if secrets != nil {
		// one JSON secret holds every credential, keyed like the env vars
		secretID := getenvDefault(getenv, "AWS_SECRET_ID", "bistro/app")
		ctx := context.Background()
		for key, dst := range map[string]*string{
			"ACCESS_TOKEN_SECRET":    &cfg.AccessSecret,
			"PAYMENT_SECRET_KEY":     &cfg.PaymentSecret,
			"PAYMENT_WEBHOOK_SECRET": &cfg.WebhookSecret,
		} {
			v, err := secrets.GetSecret(ctx, secretID+"#"+key)
			if err != nil || v == "" {
				zap.L().Warn("Secret not found, using env value", zap.String("key", key), zap.Error(err))
				continue
			}
			*dst = v
		}
	}

	// Validate required fields
	if cfg.AccessSecret == "" {
		return nil, fmt.Errorf("ACCESS_TOKEN_SECRET is required")
	}
	if cfg.StoreDriver != "mongo" && cfg.StoreDriver != "memory" {
		return nil, fmt.Errorf("STORE_DRIVER must be mongo or memory, got %q", cfg.StoreDriver)
	}
	return cfg, nil
}

func getenvDefault(getenv func(string) string, key, def string) string {
	if v := strings.TrimSpace(getenv(key)); v != "" {
		return v
	}
	return def
}

func secondsEnv(getenv func(string) string, key string, def int) (time.Duration, error) {
	raw := strings.TrimSpace(getenv(key))
	if raw == "" {
		return time.Duration(def) * time.Second, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive number of seconds, got %q", key, raw)
	}
	return time.Duration(n) * time.Second, nil
}
