package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupWriter_JSON(t *testing.T) {
	t.Cleanup(func() { _ = Setup("info", "text") })

	var buf bytes.Buffer
	require.NoError(t, SetupWriter(&buf, "warn", "json"))

	logrus.Info("dropped")
	logrus.WithField("line", 4).Warn("kept")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "kept", entry["msg"])
	assert.Equal(t, float64(4), entry["line"])
}

func TestSetupWriter_Invalid(t *testing.T) {
	t.Cleanup(func() { _ = Setup("info", "text") })

	var buf bytes.Buffer
	assert.Error(t, SetupWriter(&buf, "loud", "text"))
	assert.Error(t, SetupWriter(&buf, "info", "xml"))
}
