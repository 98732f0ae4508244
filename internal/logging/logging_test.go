package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupJSONLevel(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)

	var buf bytes.Buffer
	logger := Setup("warn", FormatJSON, &buf)
	logger.Info().Msg("hidden")
	logger.Warn().Str("k", "v").Msg("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	require.Contains(t, out, `"message":"shown"`)
	assert.Contains(t, out, `"k":"v"`)
}

func TestSetupUnknownLevelFallsBackToInfo(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)

	var buf bytes.Buffer
	logger := Setup("chatty", FormatJSON, &buf)
	assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())
}

func TestComponentTag(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)

	var buf bytes.Buffer
	Setup("debug", FormatJSON, &buf)
	l := Component("ingest")
	l.Info().Msg("hello")
	assert.Contains(t, buf.String(), `"component":"ingest"`)
}
