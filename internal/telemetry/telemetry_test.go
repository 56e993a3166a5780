package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voyantic/farecast/internal/config"
)

func TestInitDisabledReturnsNoop(t *testing.T) {
	shutdown, err := Init(context.Background(), config.TelemetryConfig{Enabled: false}, "production", "1.0.0")
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInitDevelopmentUsesStdout(t *testing.T) {
	shutdown, err := Init(context.Background(), config.TelemetryConfig{Enabled: true}, "development", "1.0.0")
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}
