package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestRejectedAndTenantScope(t *testing.T) {
	var buf bytes.Buffer
	InitializeWithWriter("info", "json", &buf)
	t.Cleanup(func() { Initialize("info", "text") })

	Rejected("readingService.SubmitReading", errors.New("duplicate reading"), "nozzleID", 10)
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "WARN", line["level"])
	assert.Equal(t, "rejected", line["event"])
	assert.Equal(t, "duplicate reading", line["reason"])
	assert.EqualValues(t, 10, line["nozzleID"])

	buf.Reset()
	WithTenant(1, 3).Info("Reconciliation computed")
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.EqualValues(t, 1, line["tenant_id"])
	assert.EqualValues(t, 3, line["station_id"])

	buf.Reset()
	EnterMethod("reconciliationRepository.Get")
	assert.Empty(t, buf.String(), "method tracing is debug only")
}
