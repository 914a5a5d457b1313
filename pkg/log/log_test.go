package log

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"debug":    zerolog.DebugLevel,
		" WARN ":   zerolog.WarnLevel,
		"warning":  zerolog.WarnLevel,
		"error":    zerolog.ErrorLevel,
		"off":      zerolog.Disabled,
		"":         zerolog.InfoLevel,
		"whatever": zerolog.InfoLevel,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestNew_StampsServiceAndFollowsSetLevel(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.GlobalLevel())

	var buf bytes.Buffer
	logger := New(Config{Level: "info", Output: &buf})

	logger.Debug().Msg("hidden")
	assert.Zero(t, buf.Len())

	logger.Info().Msg("shown")
	assert.Equal(t, DefaultServiceName, decode(t, &buf)[FieldService])

	buf.Reset()
	SetLevel("debug")
	logger.Debug().Msg("now shown")
	assert.Equal(t, "now shown", decode(t, &buf)["message"])
}

func TestCtx_FallsBackAndCarriesFields(t *testing.T) {
	assert.Equal(t, L(), Ctx(context.Background()))

	var buf bytes.Buffer
	ctx := WithLogger(context.Background(), zerolog.New(&buf))
	ctx = WithStr(ctx, FieldProfileID, "p-1")
	ctx = WithStr(ctx, FieldSlug, "hello")

	l := Ctx(ctx)
	l.Info().Msg("tagged")
	entry := decode(t, &buf)
	assert.Equal(t, "p-1", entry[FieldProfileID])
	assert.Equal(t, "hello", entry[FieldSlug])
}
