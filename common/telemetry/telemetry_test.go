package telemetry

import (
	"context"
	"testing"

	"github.com/fnhub/ingest/common/config"
	"github.com/fnhub/ingest/common/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStart_NoEndpointNoPprof(t *testing.T) {
	cfg := &config.Config{Service: config.ServiceConfig{Name: "ingest"}}
	tel := New(cfg, logger.Discard())

	require.NoError(t, tel.Start(context.Background()))
	assert.Nil(t, tel.provider)
	assert.Nil(t, tel.pprof)
	assert.NoError(t, tel.Shutdown(context.Background()))
}

func TestTracer_StartsSpans(t *testing.T) {
	ctx, span := Tracer("test").Start(context.Background(), "op")
	defer span.End()
	assert.NotNil(t, ctx)
}
