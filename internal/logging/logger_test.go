package logging

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestNewParsesLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, New("debug", "development").GetLevel())
	assert.Equal(t, logrus.WarnLevel, New("warn", "development").GetLevel())
	assert.Equal(t, logrus.InfoLevel, New("not-a-level", "development").GetLevel())
}

func TestNewFormatterByEnvironment(t *testing.T) {
	prod := New("info", "production")
	assert.IsType(t, &logrus.JSONFormatter{}, prod.Formatter)

	dev := New("info", "development")
	assert.IsType(t, &logrus.TextFormatter{}, dev.Formatter)
}
