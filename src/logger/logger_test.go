package logger

import (
	"testing"

	"trend-pulse/src/models"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, logrus.WarnLevel, ParseLevel("WARNING"))
	assert.Equal(t, logrus.ErrorLevel, ParseLevel("ERROR"))
	assert.Equal(t, logrus.InfoLevel, ParseLevel(""))
	assert.Equal(t, logrus.InfoLevel, ParseLevel("verbose"))
}

func TestNewLoggerReadsConfig(t *testing.T) {
	cfg := &models.MConfig{LogLevel: "DEBUG", LogFormat: "json"}
	l := NewLogger(cfg, "pipeline")

	assert.Equal(t, logrus.DebugLevel, l.entry.Logger.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, l.entry.Logger.Formatter)
	assert.Equal(t, "pipeline", l.entry.Data["component"])
}

func TestNamedAndFields(t *testing.T) {
	l := NewLogger(nil, "server").Named("client").WithFields(Fields{"connection_id": "c1"})

	assert.Equal(t, "server.client", l.name)
	assert.Equal(t, "server.client", l.entry.Data["component"])
	assert.Equal(t, "c1", l.entry.Data["connection_id"])
}
