package utils

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMultiLogHandler_FansOutToAllHandlers(t *testing.T) {
	var bufA, bufB bytes.Buffer
	handler := NewMultiLogHandler(
		slog.NewTextHandler(&bufA, nil),
		slog.NewTextHandler(&bufB, nil),
	)

	logger := slog.New(handler)
	logger.Info("pass complete", "copied", 3)

	assert.Contains(t, bufA.String(), "pass complete")
	assert.Contains(t, bufB.String(), "pass complete")
	assert.Contains(t, bufA.String(), "copied=3")
}

func TestMultiLogHandler_RespectsLevels(t *testing.T) {
	var debugBuf, infoBuf bytes.Buffer
	handler := NewMultiLogHandler(
		slog.NewTextHandler(&debugBuf, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewTextHandler(&infoBuf, &slog.HandlerOptions{Level: slog.LevelInfo}),
	)

	logger := slog.New(handler)
	logger.Debug("noisy detail")

	assert.Contains(t, debugBuf.String(), "noisy detail")
	assert.Empty(t, infoBuf.String())
}
