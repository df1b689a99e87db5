package service

import (
	"fmt"
	"time"

	"github.com/inkpost/blog/database/model"
	"github.com/inkpost/blog/logger"

	"github.com/goccy/go-json"
	"gorm.io/gorm"
)

// Audit actions.
const (
	ActionRegister     = "REGISTER"
	ActionLogin        = "LOGIN"
	ActionLoginFailed  = "LOGIN_FAILED"
	ActionLogout       = "LOGOUT"
	ActionCreate       = "CREATE"
	ActionUpdate       = "UPDATE"
	ActionDelete       = "DELETE"
	ActionForbidden    = "FORBIDDEN"
	ActionTwoFactorOn  = "TWO_FACTOR_ON"
	ActionTwoFactorOff = "TWO_FACTOR_OFF"
)

// AuditEntry describes one action to record.
type AuditEntry struct {
	UserID     int
	Email      string
	Action     string
	Resource   string
	ResourceID int
	IP         string
	UserAgent  string
	Details    map[string]any
}

// AuditLogService handles audit logging
type AuditLogService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewAuditLogService(db *gorm.DB) *AuditLogService {
	return &AuditLogService{db: db, now: time.Now}
}

// LogAction records e. Failures are logged and returned but callers treat the
// audit trail as best effort.
func (s *AuditLogService) LogAction(e AuditEntry) error {
	detailsJSON := ""
	if e.Details != nil {
		jsonData, err := json.Marshal(e.Details)
		if err != nil {
			logger.Warning("Failed to marshal audit log details:", err)
		} else {
			detailsJSON = string(jsonData)
		}
	}

	auditLog := model.AuditLog{
		UserID:     e.UserID,
		Email:      e.Email,
		Action:     e.Action,
		Resource:   e.Resource,
		ResourceID: e.ResourceID,
		IP:         e.IP,
		UserAgent:  e.UserAgent,
		Details:    detailsJSON,
		Timestamp:  s.now(),
	}

	if err := s.db.Create(&auditLog).Error; err != nil {
		logger.Warningf("Failed to create audit log: user=%d, action=%s, resource=%s, error=%v", e.UserID, e.Action, e.Resource, err)
		return err
	}
	return nil
}

// GetAuditLogs returns one page of entries, newest first, and the total
// number matching the filters.
func (s *AuditLogService) GetAuditLogs(userID, limit, offset int, action string) ([]model.AuditLog, int64, error) {
	query := s.db.Model(&model.AuditLog{})
	if userID > 0 {
		query = query.Where("user_id = ?", userID)
	}
	if action != "" {
		query = query.Where("action = ?", action)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	logs := make([]model.AuditLog, 0, limit)
	if err := query.Order("timestamp DESC").Order("id DESC").Limit(limit).Offset(offset).Find(&logs).Error; err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

// CleanOldLogs removes audit logs older than specified days
func (s *AuditLogService) CleanOldLogs(days int) (int64, error) {
	if days <= 0 {
		return 0, fmt.Errorf("days must be greater than 0")
	}

	cutoff := s.now().AddDate(0, 0, -days)
	result := s.db.Where("timestamp < ?", cutoff).Delete(&model.AuditLog{})
	if result.Error != nil {
		return 0, result.Error
	}

	logger.Infof("Cleaned %d old audit logs (older than %d days)", result.RowsAffected, days)
	return result.RowsAffected, nil
}
