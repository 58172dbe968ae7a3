package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KeithMadison/investment-portfolio/internal/domain"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORTFOLIO_DATA_DIR", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8001, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 0.0, cfg.RiskFreeRate)
	assert.Equal(t, 0.05, cfg.CVaRAlpha)
	assert.Equal(t, 10000.0, cfg.InitialInvestment)
	assert.Empty(t, cfg.S3Bucket)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORTFOLIO_DATA_DIR", t.TempDir())
	t.Setenv("PORT", "9100")
	t.Setenv("RISK_FREE_RATE", "0.03")
	t.Setenv("CVAR_ALPHA", "0.01")
	t.Setenv("INITIAL_INVESTMENT", "25000")
	t.Setenv("DEV_MODE", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, 0.03, cfg.RiskFreeRate)
	assert.Equal(t, 0.01, cfg.CVaRAlpha)
	assert.Equal(t, 25000.0, cfg.InitialInvestment)
	assert.True(t, cfg.DevMode)
}

func TestValidateRejectsBadDefaults(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "alpha at one", env: map[string]string{"CVAR_ALPHA": "1.0"}},
		{name: "alpha at zero", env: map[string]string{"CVAR_ALPHA": "0"}},
		{name: "alpha above one", env: map[string]string{"CVAR_ALPHA": "1.5"}},
		{name: "non-positive investment", env: map[string]string{"INITIAL_INVESTMENT": "-100"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("PORTFOLIO_DATA_DIR", t.TempDir())
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			require.Error(t, err)

			var cfgErr domain.InvalidConfigurationError
			assert.True(t, errors.As(err, &cfgErr))
		})
	}
}
