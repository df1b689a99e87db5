package job

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeCleaner struct {
	days  []int
	err   error
	panic bool
}

func (f *fakeCleaner) CleanOldLogs(days int) (int64, error) {
	if f.panic {
		panic("boom")
	}
	f.days = append(f.days, days)
	return 3, f.err
}

func TestAuditCleanupJobUsesRetention(t *testing.T) {
	f := &fakeCleaner{}
	NewAuditCleanupJob(f, 30).Run()
	NewAuditCleanupJob(f, 0).Run()
	assert.Equal(t, []int{30, 90}, f.days)
}

func TestAuditCleanupJobSurvivesFailures(t *testing.T) {
	assert.NotPanics(t, func() {
		NewAuditCleanupJob(&fakeCleaner{err: errors.New("db locked")}, 7).Run()
		NewAuditCleanupJob(&fakeCleaner{panic: true}, 7).Run()
	})
}
