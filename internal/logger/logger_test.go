package logger

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestInitializeWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	InitializeWithWriter("info", "json", &buf)

	Debug("hidden")
	Info("shown", "k", 1)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Contains(t, out, `"k":1`)
}

func TestWithService(t *testing.T) {
	var buf bytes.Buffer
	InitializeWithWriter("debug", "text", &buf)

	WithService("cronjob").Info("tick")
	assert.Contains(t, buf.String(), "service=cronjob")
}

func TestMethodAndDatabaseHelpers(t *testing.T) {
	var buf bytes.Buffer
	InitializeWithWriter("debug", "text", &buf)
	ctx := context.Background()

	EnterMethod("svc.Do", "id", 7)
	ExitMethod("svc.Do")
	ExitMethodWithError("svc.Do", errors.New("boom"))
	DatabaseCall("get", "SELECT 1")
	DatabaseResult("get", 0, errors.New("conn reset"))
	WarnContext(ctx, "slow")

	out := buf.String()
	assert.Contains(t, out, "event=enter")
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "error=boom")
	assert.Contains(t, out, `"← Database call failed"`)
	assert.Contains(t, out, "msg=slow")
}
