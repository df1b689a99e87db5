// Package job holds the cron jobs run by the web server.
package job

import (
	"github.com/inkpost/blog/logger"
	"github.com/inkpost/blog/util/common"
)

// AuditCleaner is the part of the audit service the job needs.
type AuditCleaner interface {
	CleanOldLogs(days int) (int64, error)
}

// AuditCleanupJob cleans up old audit logs
type AuditCleanupJob struct {
	auditService  AuditCleaner
	retentionDays int
}

// NewAuditCleanupJob creates a new audit cleanup job
func NewAuditCleanupJob(auditService AuditCleaner, retentionDays int) *AuditCleanupJob {
	if retentionDays <= 0 {
		retentionDays = 90 // Default 90 days
	}
	return &AuditCleanupJob{
		auditService:  auditService,
		retentionDays: retentionDays,
	}
}

// Run cleans up old audit logs
func (j *AuditCleanupJob) Run() {
	defer common.Recover("audit cleanup job")
	logger.Debug("Audit cleanup job started")

	removed, err := j.auditService.CleanOldLogs(j.retentionDays)
	if err != nil {
		logger.Warning("Failed to clean old audit logs:", err)
		return
	}
	logger.Debugf("Audit cleanup completed (retention: %d days, removed: %d)", j.retentionDays, removed)
}
