package logger

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deppfellow/patient-api/internal/config"
)

func TestGetPgxTraceLogLevel(t *testing.T) {
	tests := map[zerolog.Level]int{
		zerolog.TraceLevel: 6,
		zerolog.DebugLevel: 5,
		zerolog.InfoLevel:  4,
		zerolog.WarnLevel:  3,
		zerolog.ErrorLevel: 2,
		zerolog.FatalLevel: 1,
		zerolog.Disabled:   1,
	}

	for level, want := range tests {
		assert.Equal(t, want, GetPgxTraceLogLevel(level), "level %s", level)
	}
}

func TestNewLoggerService_withoutLicenseIsDisabled(t *testing.T) {
	service, err := NewLoggerService(config.DefaultObservabilityConfig())
	require.NoError(t, err)
	assert.Nil(t, service.GetApplication())

	var nilService *LoggerService
	assert.Nil(t, nilService.GetApplication())
	nilService.Shutdown()
}

func TestNewLogger_levelFromConfig(t *testing.T) {
	cfg := config.DefaultObservabilityConfig()
	cfg.Logging.Level = "warn"

	log := NewLogger(cfg)
	assert.Equal(t, zerolog.WarnLevel, log.GetLevel())

	assert.Equal(t, log, WithTraceContext(log, nil))
}
