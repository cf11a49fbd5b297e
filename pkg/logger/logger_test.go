package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONFormatCarriesComponent(t *testing.T) {
	var buf bytes.Buffer
	log := New(LoggingConfig{Level: "debug", Format: "json"}).Component("cart")
	log.SetOutput(&buf)

	log.WithField("product_id", "prod_42").Info("cart refreshed")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "cart", line["component"])
	assert.Equal(t, "prod_42", line["product_id"])
	assert.Equal(t, "cart refreshed", line["msg"])
}

func TestNew_UnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := New(LoggingConfig{Level: "chatty"})
	log.SetOutput(&buf)

	log.Debug("hidden")
	assert.Empty(t, buf.String())

	log.Info("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestComponent_NilReceiver(t *testing.T) {
	var log *Logger
	child := log.Component("auth")
	require.NotNil(t, child)
	assert.Equal(t, "auth", child.Data["component"])
}
