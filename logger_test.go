package quilt

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturingHandler struct {
	records *[]slog.Record
}

func (h capturingHandler) Enabled(context.Context, slog.Level) bool { return true }
func (h capturingHandler) Handle(_ context.Context, r slog.Record) error {
	*h.records = append(*h.records, r)
	return nil
}
func (h capturingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h capturingHandler) WithGroup(string) slog.Handler      { return h }

func TestLoggerDefaultSilent(t *testing.T) {
	assert.False(t, Logger().Enabled(context.Background(), slog.LevelError))
}

func TestCompileWarnsOnMask(t *testing.T) {
	var records []slog.Record
	SetLogger(slog.New(capturingHandler{records: &records}))
	defer SetLogger(nil)

	q := NewQuad(10, 10)
	q.Mask = NewQuad(5, 5)
	_, err := Compile(NewContainer(q), nil)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, slog.LevelWarn, records[0].Level)

	// Restoring the nil logger silences further compiles.
	SetLogger(nil)
	_, err = Compile(NewContainer(q), nil)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}
