package config

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every PATIENTS_ variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()

	for _, kv := range os.Environ() {
		key, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(key, EnvPrefix) {
			t.Setenv(key, "")
			os.Unsetenv(key)
		}
	}
}

func TestLoad_defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Primary.Env)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 30, cfg.Server.ReadTimeout)
	assert.Equal(t, 60, cfg.Server.IdleTimeout)
	assert.Equal(t, 20.0, cfg.Server.RateLimit)
	assert.Equal(t, 40, cfg.Server.RateBurst)
	assert.Equal(t, StorageDriverFile, cfg.Storage.Driver)
	assert.Equal(t, "./data.json", cfg.Storage.FilePath)

	assert.Nil(t, cfg.Database)
	assert.Nil(t, cfg.Redis)
	assert.False(t, cfg.AuthEnabled())
	assert.False(t, cfg.AlertsEnabled())

	require.NotNil(t, cfg.Observability)
	assert.Equal(t, ServiceName, cfg.Observability.ServiceName)
	assert.Equal(t, "development", cfg.Observability.Environment)
}

func TestLoad_nestedKeys(t *testing.T) {
	clearEnv(t)
	t.Setenv("PATIENTS_PRIMARY__ENV", "production")
	t.Setenv("PATIENTS_SERVER__PORT", "9090")
	t.Setenv("PATIENTS_SERVER__READ_TIMEOUT", "5")
	t.Setenv("PATIENTS_STORAGE__FILE_PATH", "/var/lib/patients.json")
	t.Setenv("PATIENTS_OBSERVABILITY__LOGGING__LEVEL", "warn")
	t.Setenv("PATIENTS_OBSERVABILITY__HEALTH_CHECKS__TIMEOUT", "2s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 5, cfg.Server.ReadTimeout)
	assert.Equal(t, 30, cfg.Server.WriteTimeout, "unset keys keep their default")
	assert.Equal(t, "/var/lib/patients.json", cfg.Storage.FilePath)

	assert.Equal(t, "warn", cfg.Observability.Logging.Level)
	assert.Equal(t, "json", cfg.Observability.Logging.Format)
	assert.Equal(t, 2*time.Second, cfg.Observability.HealthChecks.Timeout)
	assert.Equal(t, "production", cfg.Observability.Environment)
	assert.True(t, cfg.Observability.IsProduction())
}

func TestLoad_optionalBlocks(t *testing.T) {
	clearEnv(t)
	t.Setenv("PATIENTS_REDIS__ADDRESS", "localhost:6379")
	t.Setenv("PATIENTS_AUTH__SECRET_KEY", "sk_test_123")
	t.Setenv("PATIENTS_INTEGRATION__RESEND_API_KEY", "re_123")
	t.Setenv("PATIENTS_INTEGRATION__ALERT_RECIPIENT", "ops@example.com")

	cfg, err := Load()
	require.NoError(t, err)

	require.NotNil(t, cfg.Redis)
	assert.Equal(t, "localhost:6379", cfg.Redis.Address)
	assert.True(t, cfg.AuthEnabled())
	assert.True(t, cfg.AlertsEnabled())
}

func TestLoad_rejectsBadConfig(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown driver", map[string]string{"PATIENTS_STORAGE__DRIVER": "sqlite"}},
		{"postgres without database block", map[string]string{"PATIENTS_STORAGE__DRIVER": "postgres"}},
		{"redis without redis block", map[string]string{"PATIENTS_STORAGE__DRIVER": "redis"}},
		{"bad log level", map[string]string{"PATIENTS_OBSERVABILITY__LOGGING__LEVEL": "loud"}},
		{"bad log format", map[string]string{"PATIENTS_OBSERVABILITY__LOGGING__FORMAT": "xml"}},
		{"bad alert recipient", map[string]string{
			"PATIENTS_INTEGRATION__RESEND_API_KEY":  "re_123",
			"PATIENTS_INTEGRATION__ALERT_RECIPIENT": "not-an-email",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestObservabilityConfig_CheckEnabled(t *testing.T) {
	cfg := DefaultObservabilityConfig()
	assert.True(t, cfg.CheckEnabled("storage"))
	assert.False(t, cfg.CheckEnabled("queue"))

	cfg.HealthChecks.Enabled = false
	assert.False(t, cfg.CheckEnabled("storage"))
}
