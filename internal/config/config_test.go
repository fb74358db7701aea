package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("STORE_DRIVER", "memory")

	cfg, _, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, 3, cfg.TxMaxRetries)
	assert.Equal(t, 72*time.Hour, cfg.JWTTTL)
	assert.Equal(t, 5*time.Minute, cfg.DBConnMaxLifetime)
	assert.Equal(t, "10", cfg.ReferralBonusPercent.String())
	assert.Equal(t, "5", cfg.ReferralCommissionPercent.String())
	assert.Equal(t, "order-events", cfg.KafkaOrderTopic)
	assert.Empty(t, cfg.Brokers())
}

func TestLoad_MySQLNeedsDSN(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("STORE_DRIVER", "mysql")
	t.Setenv("DB_DSN_PRIMARY", "")

	_, _, err := Load()
	assert.Error(t, err)
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("STORE_DRIVER", "postgres")

	_, _, err := Load()
	assert.Error(t, err)
}

func TestBrokers(t *testing.T) {
	c := Config{KafkaBrokers: " kafka-1:9092, ,kafka-2:9092 "}
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, c.Brokers())
}
