package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joao-fontenele/sokonova-analytics/internal/analytics"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFile_Defaults(t *testing.T) {
	t.Setenv("POSTGRES_URL", "")

	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "discount-campaigns", cfg.CampaignTopic)
	assert.Equal(t, "campaign-ledger", cfg.CampaignConsumerGroup)
	assert.Equal(t, "migrations", cfg.MigrationsPath)
	assert.Equal(t, RateLimit{Requests: 100, Window: time.Minute}, cfg.RateLimit)
	assert.Equal(t, analytics.DefaultRatios(), cfg.Rules)
	assert.Empty(t, cfg.PostgresURL)
}

func TestLoadFile_YAML(t *testing.T) {
	path := writeFile(t, `
service:
  port: "9000"
dependencies:
  postgres_url: postgres://file
  kafka_brokers: ["k1:9092", " k2:9092 ", ""]
  redis_url: redis://file:6379/0
rate_limit:
  requests: 10
  window_seconds: 30
rules:
  cost_ratio: 0.55
  at_risk_days: 45
`)

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "postgres://file", cfg.PostgresURL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "redis://file:6379/0", cfg.RedisURL)
	assert.Equal(t, RateLimit{Requests: 10, Window: 30 * time.Second}, cfg.RateLimit)

	assert.Equal(t, 0.55, cfg.Rules.CostRatio)
	assert.Equal(t, 45, cfg.Rules.AtRiskDays)
	assert.Equal(t, 0.10, cfg.Rules.PlatformFeeRate, "unset rules keep their defaults")
	assert.Equal(t, 90, cfg.Rules.VelocityWindowDays)
}

func TestLoadFile_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, `
dependencies:
  postgres_url: postgres://file
rules:
  platform_fee_rate: 0.2
`)
	t.Setenv("POSTGRES_URL", "postgres://env")
	t.Setenv("KAFKA_BROKERS", "a:1,b:2")
	t.Setenv("RATE_LIMIT_WINDOW_SECONDS", "5")
	t.Setenv("RULE_PLATFORM_FEE_RATE", "0.15")
	t.Setenv("RULE_HIGH_VALUE_SPEND", "500")
	t.Setenv("RULE_AT_RISK_DAYS", "not-a-number")

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres://env", cfg.PostgresURL)
	assert.Equal(t, []string{"a:1", "b:2"}, cfg.KafkaBrokers)
	assert.Equal(t, 5*time.Second, cfg.RateLimit.Window)
	assert.Equal(t, 0.15, cfg.Rules.PlatformFeeRate)
	assert.Equal(t, 500.0, cfg.Rules.HighValueSpend)
	assert.Equal(t, 60, cfg.Rules.AtRiskDays)
}

func TestLoadFile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"malformed yaml", "service: [port"},
		{"fee rate above one", "rules:\n  platform_fee_rate: 1.5\n"},
		{"negative window", "rules:\n  velocity_window_days: -3\n"},
		{"rating above five", "rules:\n  placeholder_rating: 6\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFile(writeFile(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoad_UsesConfigEnv(t *testing.T) {
	path := writeFile(t, "dependencies:\n  analytics_service_url: http://analytics:8081\n")
	t.Setenv("ANALYTICS_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://analytics:8081", cfg.AnalyticsServiceURL)
}

func TestLoadFile_ZeroRulesReachService(t *testing.T) {
	t.Setenv("RULE_PLATFORM_FEE_RATE", "0")
	path := writeFile(t, `
rules:
  cost_ratio: 0
`)

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Zero(t, cfg.Rules.PlatformFeeRate)
	assert.Zero(t, cfg.Rules.CostRatio)

	ratios := analytics.NewService(nil, cfg.Rules).Ratios()
	assert.Zero(t, ratios.PlatformFeeRate)
	assert.Zero(t, ratios.CostRatio)
	assert.Equal(t, analytics.DefaultRatios().VelocityWindowDays, ratios.VelocityWindowDays)
}
