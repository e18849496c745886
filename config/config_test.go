package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GST_RATE_PERCENT", "")
	t.Setenv("PINCODE_CACHE_TTL_SECONDS", "")
	t.Setenv("DB_AUTO_MIGRATE", "")

	cfg := Load()
	assert.Equal(t, int64(18), cfg.Business.GSTRatePercent)
	assert.Equal(t, time.Hour, cfg.Redis.PincodeCacheTTL)
	assert.False(t, cfg.Database.AutoMigrate)
	assert.Equal(t, "INR", cfg.Payment.Currency)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("SHIPPING_FEE_PAISE", "4900")
	t.Setenv("DB_AUTO_MIGRATE", "true")
	t.Setenv("REDIS_DB", "not-a-number")

	cfg := Load()
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, int64(4900), cfg.Business.ShippingFee)
	assert.True(t, cfg.Database.AutoMigrate)
	assert.Equal(t, 0, cfg.Redis.DB)
}

func TestTracingOffByDefault(t *testing.T) {
	t.Setenv("JAEGER_ENDPOINT", "")
	assert.Empty(t, Load().Observ.JaegerEndpoint)

	t.Setenv("JAEGER_ENDPOINT", "http://jaeger:14268/api/traces")
	assert.Equal(t, "http://jaeger:14268/api/traces", Load().Observ.JaegerEndpoint)
}

func TestValidateRequiresSecrets(t *testing.T) {
	t.Setenv("JWT_SECRET", "jwt")
	t.Setenv("RAZORPAY_KEY_ID", "rzp_test_key")
	t.Setenv("RAZORPAY_KEY_SECRET", "")

	err := Load().Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RAZORPAY_KEY_SECRET")
	assert.NotContains(t, err.Error(), "JWT_SECRET")

	t.Setenv("RAZORPAY_KEY_SECRET", "rzp_secret")
	assert.NoError(t, Load().Validate())

	t.Setenv("JWT_SECRET", "")
	assert.ErrorContains(t, Load().Validate(), "JWT_SECRET")
}
