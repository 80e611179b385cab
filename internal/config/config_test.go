package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("API_BASE_URL", "")
	t.Setenv("SESSION_DRIVER", "")

	cfg := Load()

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "development", cfg.Server.Env)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 10*time.Second, cfg.API.Timeout)
	assert.Equal(t, "robohub:session:token", cfg.Session.Key)
	assert.InDelta(t, 0.15, cfg.Pricing.SavingsRate, 1e-9)
	assert.InDelta(t, 0.08, cfg.Pricing.TaxRate, 1e-9)
	assert.NotEmpty(t, cfg.Session.File)
}

func TestLoadFromEnvironment(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("API_BASE_URL", "https://shop.example.com/")
	t.Setenv("API_TIMEOUT_SECONDS", "3")
	t.Setenv("SESSION_DRIVER", "Redis")
	t.Setenv("SERVER_ENV", "production")
	t.Setenv("CORS_ORIGINS", "https://a.example.com, https://b.example.com")
	t.Setenv("PRICING_SAVINGS_RATE", "0")

	cfg := Load()

	assert.Equal(t, "https://shop.example.com", cfg.API.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.API.Timeout)
	assert.Equal(t, "redis", cfg.Session.Driver)
	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.Server.CORSOrigins)
	assert.Zero(t, cfg.Pricing.SavingsRate)
}

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
