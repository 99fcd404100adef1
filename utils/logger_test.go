package utils

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestConfigureLogger(t *testing.T) {
	t.Cleanup(func() {
		require.NoError(t, ConfigureLogger("info", "json"))
		SetLogOutput(os.Stdout)
	})

	require.NoError(t, ConfigureLogger("debug", "text"))
	require.Equal(t, log.DebugLevel, log.GetLevel())

	require.Error(t, ConfigureLogger("loud", "json"))
	require.Error(t, ConfigureLogger("info", "xml"))

	require.NoError(t, ConfigureLogger("warn", "json"))
	var buf bytes.Buffer
	SetLogOutput(&buf)

	Info("dropped", nil)
	require.Zero(t, buf.Len())

	Warn("kept", map[string]any{"proposal_id": "p1"})
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "kept", entry["msg"])
	require.Equal(t, "p1", entry["proposal_id"])
}

func TestGenerateID(t *testing.T) {
	id := GenerateID()
	require.True(t, IsID(id))
	require.NotEqual(t, id, GenerateID())
	require.False(t, IsID("not-an-id"))
}
