package app

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunSensorConsole_mock(t *testing.T) {
	cfg := benchConfig(t)
	var out bytes.Buffer

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Millisecond)
	defer cancel()
	err := RunSensorConsole(ctx, cfg, 10*time.Millisecond, slog.New(slog.NewTextHandler(io.Discard, nil)), &out)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.NotEmpty(t, lines)
	assert.Contains(t, lines[0], "PROBE T=")
	assert.Contains(t, lines[0], "LIGHT=")
	assert.Contains(t, lines[0], "BARO T=")
}
