package logger

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	SetOutput(buf)
	t.Cleanup(func() { SetOutput(os.Stderr) })
	return buf
}

func TestSetOutput(t *testing.T) {
	buf := captureOutput(t)

	log := Logger("test/output")
	log.Info("test message", "key", "value")

	out := buf.String()
	assert.Contains(t, out, "test message")
	assert.Contains(t, out, "key=value")
	assert.Contains(t, out, "subsystem=test/output")
	assert.Contains(t, out, "level=info")
}

func TestSetOutput_ExistingLogger(t *testing.T) {
	log := Logger("test/existing")

	buf := captureOutput(t)
	log.Info("after switch")

	assert.Contains(t, buf.String(), "after switch")
}

func TestLogger_Cached(t *testing.T) {
	assert.Same(t, Logger("test/cached"), Logger("test/cached"))
}

func TestParseConfig(t *testing.T) {
	cfg := ParseConfig("session=debug, acceptor=warn ,error,bogus=nope", "JSON")

	assert.Equal(t, slog.LevelError, cfg.DefaultLevel)
	assert.Equal(t, FormatJSON, cfg.Format)
	assert.Equal(t, slog.LevelDebug, cfg.SubsystemLevels["session"])
	assert.Equal(t, slog.LevelWarn, cfg.SubsystemLevels["acceptor"])
	assert.NotContains(t, cfg.SubsystemLevels, "bogus")
}

func TestLevelForSubsystem(t *testing.T) {
	cfg := ParseConfig("core=warn,session=debug,info", "")

	assert.Equal(t, slog.LevelDebug, cfg.LevelForSubsystem("core/session"))
	assert.Equal(t, slog.LevelWarn, cfg.LevelForSubsystem("core/acceptor"))
	assert.Equal(t, slog.LevelInfo, cfg.LevelForSubsystem("cmd"))
}

func TestSetLevel(t *testing.T) {
	buf := captureOutput(t)
	log := Logger("test/level")

	SetLevel("test/level", slog.LevelError)
	log.Info("hidden")
	assert.NotContains(t, buf.String(), "hidden")

	SetLevel("test/level", slog.LevelDebug)
	log.Debug("visible")
	assert.Contains(t, buf.String(), "visible")
}

func TestConfigure(t *testing.T) {
	t.Cleanup(ResetConfig)
	buf := captureOutput(t)
	log := Logger("test/configure")

	Configure(ParseConfig("configure=error,info", ""))
	log.Warn("suppressed")
	require.NotContains(t, buf.String(), "suppressed")

	Configure(ParseConfig("debug", ""))
	log.Debug("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestDiscard(t *testing.T) {
	log := Discard()
	assert.False(t, log.Enabled(context.Background(), slog.LevelError))
	log.Error("nothing happens")
}
