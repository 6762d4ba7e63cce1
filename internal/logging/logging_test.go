package logging

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "auto", cfg.Format)
	assert.Equal(t, "stderr", cfg.Output)
	assert.False(t, cfg.AddCaller)
}

func TestNewLoggerFromConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	logger := NewLoggerFromConfig(&Config{Level: "warn", Format: "json", Output: path})
	logger.Info().Msg("hidden message")
	logger.Warn().Str("file", "a.csv").Msg("visible message")

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(content), "hidden message")
	assert.Contains(t, string(content), "visible message")
	assert.Contains(t, string(content), `"file":"a.csv"`)
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"INFO":    zerolog.InfoLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"off":     zerolog.Disabled,
		"":        zerolog.InfoLevel,
		"bogus":   zerolog.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestResolveLevel(t *testing.T) {
	tests := []struct {
		name     string
		explicit string
		verbose  bool
		quiet    bool
		env      string
		want     string
	}{
		{name: "default", want: "info"},
		{name: "env", env: "error", want: "error"},
		{name: "invalid env", env: "loud", want: "info"},
		{name: "quiet beats env", quiet: true, env: "debug", want: "warn"},
		{name: "verbose", verbose: true, want: "debug"},
		{name: "verbose and quiet", verbose: true, quiet: true, want: "warn"},
		{name: "explicit wins", explicit: "trace", verbose: true, quiet: true, env: "error", want: "trace"},
		{name: "invalid explicit", explicit: "loud", want: "info"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvLogLevel, tt.env)
			assert.Equal(t, tt.want, ResolveLevel(tt.explicit, tt.verbose, tt.quiet))
		})
	}
}

func TestContext(t *testing.T) {
	assert.Equal(t, Default(), FromContext(context.Background()))

	var buf bytes.Buffer
	logger := New(&buf, zerolog.InfoLevel)
	ctx := WithLogger(context.Background(), &logger)
	ctx = WithField(ctx, "request_id", "abc")

	FromContext(ctx).Info().Msg("hello")
	assert.Contains(t, buf.String(), `"request_id":"abc"`)
	assert.Contains(t, buf.String(), `"message":"hello"`)
}
