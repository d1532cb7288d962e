package stresstest

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studiowebux/webbench/internal/types"
)

func TestProgressObserver_DrawsBarPerRun(t *testing.T) {
	var buf bytes.Buffer
	progress := NewProgressObserver(&buf)
	driver := NewDriver(&fakeRequester{}, WithObserver(progress))

	for _, framework := range []string{"Axum", "ActixWeb"} {
		_, err := driver.Run(context.Background(), framework, testTarget, types.BenchmarkConfig{Concurrency: 2, TotalRequests: 20})
		require.NoError(t, err)
		assert.Nil(t, progress.bar, "bar is released when the run finishes")
	}

	out := buf.String()
	assert.Contains(t, out, "Axum Health Check")
	assert.Contains(t, out, "ActixWeb Health Check")
	assert.Contains(t, out, "20 / 20")
}
