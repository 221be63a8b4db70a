package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/joao-fontenele/sokonova-analytics/internal/analytics"
)

const defaultPath = "config.yaml"

type Config struct {
	Port         string
	OTLPEndpoint string

	PostgresURL           string
	KafkaBrokers          []string
	CampaignTopic         string
	CampaignConsumerGroup string
	RedisURL              string
	AnalyticsServiceURL   string
	MigrationsPath        string

	RateLimit RateLimit
	Rules     analytics.Ratios
}

type RateLimit struct {
	Requests int
	Window   time.Duration
}

type configFile struct {
	Service struct {
		Port         string `yaml:"port"`
		OTLPEndpoint string `yaml:"otlp_endpoint"`
	} `yaml:"service"`
	Dependencies struct {
		PostgresURL           string   `yaml:"postgres_url"`
		KafkaBrokers          []string `yaml:"kafka_brokers"`
		CampaignTopic         string   `yaml:"campaign_topic"`
		CampaignConsumerGroup string   `yaml:"campaign_consumer_group"`
		RedisURL              string   `yaml:"redis_url"`
		AnalyticsServiceURL   string   `yaml:"analytics_service_url"`
		MigrationsPath        string   `yaml:"migrations_path"`
	} `yaml:"dependencies"`
	RateLimit struct {
		Requests      int `yaml:"requests"`
		WindowSeconds int `yaml:"window_seconds"`
	} `yaml:"rate_limit"`
	Rules analytics.Ratios `yaml:"rules"`
}

// Load reads .env, then the YAML file named by ANALYTICS_CONFIG (config.yaml
// by default), then environment overrides.
func Load() (Config, error) {
	_ = godotenv.Load()
	return LoadFile(envOrDefault("ANALYTICS_CONFIG", defaultPath))
}

// LoadFile is Load without .env handling. A missing file is not an error.
func LoadFile(path string) (Config, error) {
	cfg := Config{
		CampaignTopic:         "discount-campaigns",
		CampaignConsumerGroup: "campaign-ledger",
		MigrationsPath:        "migrations",
		RateLimit: RateLimit{
			Requests: 100,
			Window:   time.Minute,
		},
		Rules: analytics.DefaultRatios(),
	}

	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := cfg.applyFile(raw); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return Config{}, fmt.Errorf("read config file %s: %w", path, err)
	}

	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyFile(raw []byte) error {
	var f configFile
	f.Rules = c.Rules
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return err
	}

	if f.Service.Port != "" {
		c.Port = f.Service.Port
	}
	if f.Service.OTLPEndpoint != "" {
		c.OTLPEndpoint = f.Service.OTLPEndpoint
	}
	if f.Dependencies.PostgresURL != "" {
		c.PostgresURL = f.Dependencies.PostgresURL
	}
	if len(f.Dependencies.KafkaBrokers) > 0 {
		c.KafkaBrokers = trimNonEmpty(f.Dependencies.KafkaBrokers)
	}
	if f.Dependencies.CampaignTopic != "" {
		c.CampaignTopic = f.Dependencies.CampaignTopic
	}
	if f.Dependencies.CampaignConsumerGroup != "" {
		c.CampaignConsumerGroup = f.Dependencies.CampaignConsumerGroup
	}
	if f.Dependencies.RedisURL != "" {
		c.RedisURL = f.Dependencies.RedisURL
	}
	if f.Dependencies.AnalyticsServiceURL != "" {
		c.AnalyticsServiceURL = f.Dependencies.AnalyticsServiceURL
	}
	if f.Dependencies.MigrationsPath != "" {
		c.MigrationsPath = f.Dependencies.MigrationsPath
	}
	if f.RateLimit.Requests > 0 {
		c.RateLimit.Requests = f.RateLimit.Requests
	}
	if f.RateLimit.WindowSeconds > 0 {
		c.RateLimit.Window = time.Duration(f.RateLimit.WindowSeconds) * time.Second
	}
	c.Rules = f.Rules
	return nil
}

func (c *Config) applyEnv() {
	c.Port = envOrDefault("PORT", c.Port)
	c.OTLPEndpoint = envOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", c.OTLPEndpoint)
	c.PostgresURL = envOrDefault("POSTGRES_URL", c.PostgresURL)
	c.KafkaBrokers = envCSV("KAFKA_BROKERS", c.KafkaBrokers)
	c.CampaignTopic = envOrDefault("CAMPAIGN_TOPIC", c.CampaignTopic)
	c.CampaignConsumerGroup = envOrDefault("CAMPAIGN_CONSUMER_GROUP", c.CampaignConsumerGroup)
	c.RedisURL = envOrDefault("REDIS_URL", c.RedisURL)
	c.AnalyticsServiceURL = envOrDefault("ANALYTICS_SERVICE_URL", c.AnalyticsServiceURL)
	c.MigrationsPath = envOrDefault("MIGRATIONS_PATH", c.MigrationsPath)
	c.RateLimit.Requests = envInt("RATE_LIMIT_REQUESTS", c.RateLimit.Requests)
	c.RateLimit.Window = time.Duration(envInt("RATE_LIMIT_WINDOW_SECONDS", int(c.RateLimit.Window.Seconds()))) * time.Second

	r := &c.Rules
	r.CostRatio = envFloat("RULE_COST_RATIO", r.CostRatio)
	r.PlatformFeeRate = envFloat("RULE_PLATFORM_FEE_RATE", r.PlatformFeeRate)
	r.MarkdownDiscountPercent = envFloat("RULE_MARKDOWN_DISCOUNT_PERCENT", r.MarkdownDiscountPercent)
	r.PlaceholderRating = envFloat("RULE_PLACEHOLDER_RATING", r.PlaceholderRating)
	r.VelocityWindowDays = envInt("RULE_VELOCITY_WINDOW_DAYS", r.VelocityWindowDays)
	r.StockoutWindowDays = envInt("RULE_STOCKOUT_WINDOW_DAYS", r.StockoutWindowDays)
	r.RestockCoverDays = envInt("RULE_RESTOCK_COVER_DAYS", r.RestockCoverDays)
	r.AgingMinDays = envInt("RULE_AGING_MIN_DAYS", r.AgingMinDays)
	r.HighValueSpend = envFloat("RULE_HIGH_VALUE_SPEND", r.HighValueSpend)
	r.FrequentOrderCount = envInt("RULE_FREQUENT_ORDER_COUNT", r.FrequentOrderCount)
	r.AtRiskDays = envInt("RULE_AT_RISK_DAYS", r.AtRiskDays)
	r.DefaultCampaignMaxUses = envInt("RULE_DEFAULT_CAMPAIGN_MAX_USES", r.DefaultCampaignMaxUses)
}

func (c *Config) validate() error {
	if c.RateLimit.Requests <= 0 {
		return fmt.Errorf("rate limit requests must be positive, got %d", c.RateLimit.Requests)
	}
	if c.RateLimit.Window < time.Second {
		return fmt.Errorf("rate limit window must be at least one second, got %s", c.RateLimit.Window)
	}

	r := c.Rules
	for name, v := range map[string]float64{
		"cost_ratio":        r.CostRatio,
		"platform_fee_rate": r.PlatformFeeRate,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("rule %s must be between 0 and 1, got %v", name, v)
		}
	}
	if r.MarkdownDiscountPercent < 0 || r.MarkdownDiscountPercent > 100 {
		return fmt.Errorf("rule markdown_discount_percent must be between 0 and 100, got %v", r.MarkdownDiscountPercent)
	}
	if r.PlaceholderRating < 0 || r.PlaceholderRating > 5 {
		return fmt.Errorf("rule placeholder_rating must be between 0 and 5, got %v", r.PlaceholderRating)
	}
	for name, v := range map[string]int{
		"velocity_window_days": r.VelocityWindowDays,
		"stockout_window_days": r.StockoutWindowDays,
	} {
		if v <= 0 {
			return fmt.Errorf("rule %s must be positive, got %d", name, v)
		}
	}
	for name, v := range map[string]int{
		"restock_cover_days":        r.RestockCoverDays,
		"aging_min_days":            r.AgingMinDays,
		"frequent_order_count":      r.FrequentOrderCount,
		"at_risk_days":              r.AtRiskDays,
		"default_campaign_max_uses": r.DefaultCampaignMaxUses,
	} {
		if v < 0 {
			return fmt.Errorf("rule %s cannot be negative, got %d", name, v)
		}
	}
	return nil
}

func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

func envInt(name string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func envFloat(name string, fallback float64) float64 {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return v
}

func envCSV(name string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	return trimNonEmpty(strings.Split(raw, ","))
}

func trimNonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
