package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("Load default config when no config file is present", func(t *testing.T) {
		cfg, err := LoadConfig(t.TempDir())
		require.NoError(t, err)
		require.NotNil(t, cfg)

		assert.Equal(t, 8080, cfg.Server.Port)
		assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
		assert.Equal(t, 15*time.Second, cfg.Server.WriteTimeout)
		assert.Equal(t, 60*time.Second, cfg.Server.IdleTimeout)

		assert.True(t, cfg.Server.RateLimit.Enabled)
		assert.Equal(t, float64(10), cfg.Server.RateLimit.RPS)
		assert.Equal(t, 20, cfg.Server.RateLimit.Burst)

		assert.True(t, cfg.Server.Auth.Enabled)
		assert.Equal(t, 24*time.Hour, cfg.Server.Auth.TokenTTL)
		assert.Equal(t, "admin@lending.local", cfg.Server.Auth.SeedAdminEmail)
		assert.Empty(t, cfg.Server.Auth.SeedAdminPassword, "no password is seeded by default")

		assert.Equal(t, "memory", cfg.Database.Driver)

		assert.Equal(t, "info", cfg.Logger.Level)
		assert.Equal(t, "json", cfg.Logger.Encoding)
		assert.Equal(t, "/metrics", cfg.Metrics.Path)

		assert.Equal(t, 4.345, cfg.Pricing.WeeksPerMonth)
		require.Len(t, cfg.Pricing.Products, 3)
		byCode := map[string]ProductConfig{}
		for _, p := range cfg.Pricing.Products {
			byCode[p.Code] = p
		}
		assert.Equal(t, 3.0, byCode["REGULAR"].Rate)
		assert.Equal(t, 300000.0, byCode["REGULAR"].Cap)
		assert.Equal(t, 2.0, byCode["HOUSING"].Rate)
		assert.Equal(t, 3000000.0, byCode["HOUSING"].Cap)
		assert.Equal(t, 0.0, byCode["MULTI"].Rate)
		assert.Equal(t, 15000.0, byCode["MULTI"].Cap)
		assert.Equal(t, 2.5, byCode["MULTI"].FeePercent)

		assert.Equal(t, "0 2 * * *", cfg.Batch.OverdueReviewSchedule)
		assert.Equal(t, 10*time.Minute, cfg.Batch.OverdueReviewTimeout)

		assert.False(t, cfg.Events.Enabled)
		assert.Equal(t, "lending-engine", cfg.Events.ExchangeName)
	})
}
