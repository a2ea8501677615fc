package llm_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docintake/internal/llm"
	"docintake/internal/port"
)

func TestLimiter_ThrottlesPerProvider(t *testing.T) {
	l := llm.NewLimiter(5, 1)
	ctx := context.Background()

	start := time.Now()
	require.NoError(t, l.Wait(ctx, "claude"))
	require.NoError(t, l.Wait(ctx, "gemini"))
	assert.Less(t, time.Since(start), 100*time.Millisecond)

	require.NoError(t, l.Wait(ctx, "claude"))
	assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)
}

func TestLimiter_CanceledContext(t *testing.T) {
	l := llm.NewLimiter(0.01, 1)
	require.NoError(t, l.Wait(context.Background(), "openai"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, l.Wait(ctx, "openai"))
}

func TestThrottle_NilLimiterIsPassthrough(t *testing.T) {
	inner := &stubExtractor{model: "m"}
	assert.Same(t, port.FieldExtractor(inner), llm.Throttle(inner, nil, "x"))
}
