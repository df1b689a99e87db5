package logger

import (
	"strings"
	"testing"

	"github.com/inkpost/blog/config"
	"github.com/op/go-logging"
	"github.com/stretchr/testify/assert"
)

func TestGetLogsFiltersBySeverity(t *testing.T) {
	Info("info-marker")
	Warning("warning-marker")
	Error("error-marker")

	errorsOnly := GetLogs(10, "ERROR")
	if assert.NotEmpty(t, errorsOnly) {
		assert.True(t, strings.HasSuffix(errorsOnly[0], "error-marker"))
	}
	for _, line := range errorsOnly {
		assert.NotContains(t, line, "warning-marker")
		assert.NotContains(t, line, "info-marker")
	}

	all := GetLogs(3, "DEBUG")
	assert.Len(t, all, 3)
	assert.Contains(t, all[2], "info-marker")
}

func TestLevelFor(t *testing.T) {
	lvl, err := LevelFor(config.Warn)
	assert.NoError(t, err)
	assert.Equal(t, logging.WARNING, lvl)

	_, err = LevelFor("verbose")
	assert.Error(t, err)
}
