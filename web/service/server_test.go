package service

import (
	"testing"

	"github.com/inkpost/blog/config"

	"github.com/stretchr/testify/assert"
)

func TestGetStatus(t *testing.T) {
	status := NewServerService().GetStatus()
	assert.Equal(t, config.GetVersion(), status.Version)
	assert.Positive(t, status.AppStats.Goroutines)
	assert.NotZero(t, status.AppStats.Mem)
	assert.GreaterOrEqual(t, status.Cpu, 0.0)
}
