package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper(overrides map[string]interface{}) *viper.Viper {
	v := viper.New()
	setDefaults(v)
	for k, val := range overrides {
		v.Set(k, val)
	}
	return v
}

func TestDefaults(t *testing.T) {
	cfg, err := fromViper(newViper(nil))
	require.NoError(t, err)

	assert.Equal(t, "0.19", cfg.Billing.TaxRate.String())
	assert.Equal(t, "America/Bogota", cfg.Billing.Location.String())
	assert.Equal(t, 5*time.Second, cfg.Database.Timeout)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.False(t, cfg.Billing.RequireServed)
	assert.Empty(t, cfg.Redis.Addr)
	assert.NotEmpty(t, cfg.Auth.JWTSecret)
}

func TestOverrides(t *testing.T) {
	cfg, err := fromViper(newViper(map[string]interface{}{
		"TAX_RATE":               "0.08",
		"TIMEZONE":               "Europe/Madrid",
		"DB_DRIVER":              "Postgres",
		"BILLING_REQUIRE_SERVED": true,
	}))
	require.NoError(t, err)

	assert.Equal(t, "0.08", cfg.Billing.TaxRate.String())
	assert.Equal(t, "Europe/Madrid", cfg.Billing.Timezone)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.True(t, cfg.Billing.RequireServed)
}

func TestInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  interface{}
	}{
		{"tax rate not a number", "TAX_RATE", "abc"},
		{"negative tax rate", "TAX_RATE", "-0.1"},
		{"unknown timezone", "TIMEZONE", "Mars/Olympus"},
		{"unknown driver", "DB_DRIVER", "oracle"},
		{"zero timeout", "STORAGE_TIMEOUT", "0s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fromViper(newViper(map[string]interface{}{tt.key: tt.val}))
			assert.Error(t, err)
		})
	}
}

func TestReleaseModeRequiresSecret(t *testing.T) {
	_, err := fromViper(newViper(map[string]interface{}{"GIN_MODE": "release"}))
	assert.Error(t, err)
}
