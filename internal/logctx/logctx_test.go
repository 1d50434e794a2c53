package logctx

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestFromContext_NilContext(t *testing.T) {
	// FromContext(nil) should return default logger, not panic
	logger := FromContext(nil)

	var buf bytes.Buffer
	testLogger := logger.Output(&buf)
	testLogger.Info().Msg("test")

	if buf.Len() == 0 {
		t.Error("expected logger to produce output")
	}
}

func TestFromContext_ContextWithoutLogger(t *testing.T) {
	logger := FromContext(context.Background())

	var buf bytes.Buffer
	testLogger := logger.Output(&buf)
	testLogger.Info().Msg("test")

	if buf.Len() == 0 {
		t.Error("expected logger to produce output")
	}
}

func TestWithLogger_AndFromContext(t *testing.T) {
	var buf bytes.Buffer
	customLogger := zerolog.New(&buf).With().Str("custom", "field").Logger()

	ctx := WithLogger(context.Background(), customLogger)
	logger := FromContext(ctx)
	logger.Info().Msg("test")

	if !strings.Contains(buf.String(), `"custom":"field"`) {
		t.Errorf("expected custom field in output, got: %s", buf.String())
	}
}

func TestWithLogger_NilContext(t *testing.T) {
	var buf bytes.Buffer

	// Should not panic with nil context
	ctx := WithLogger(nil, zerolog.New(&buf))
	if ctx == nil {
		t.Fatal("expected non-nil context")
	}

	logger := FromContext(ctx)
	logger.Info().Msg("test")

	if buf.Len() == 0 {
		t.Error("expected logger to produce output")
	}
}

func TestWithStr(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithLogger(context.Background(), zerolog.New(&buf))

	ctx = WithStr(ctx, "file", "mm-ips.IE.v4")
	ctx = WithStr(ctx, "country", "IE")
	logger := FromContext(ctx)
	logger.Info().Msg("test")

	output := buf.String()
	if !strings.Contains(output, `"file":"mm-ips.IE.v4"`) {
		t.Errorf("expected file field in output, got: %s", output)
	}
	if !strings.Contains(output, `"country":"IE"`) {
		t.Errorf("expected country field in output, got: %s", output)
	}
}
