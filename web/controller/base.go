// Package controller provides the HTTP handlers of the blog: authentication,
// posts and comments, account settings and the admin audit view.
package controller

import (
	"github.com/inkpost/blog/database/model"
	"github.com/inkpost/blog/logger"
	"github.com/inkpost/blog/web/middleware"
	"github.com/inkpost/blog/web/service"

	"github.com/gin-gonic/gin"
)

// BaseController carries what every controller shares.
type BaseController struct {
	audit middleware.AuditLogger
}

// record writes an audit entry for an auth event. email is used when there is
// no account, as for a failed login.
func (a *BaseController) record(c *gin.Context, action string, user *model.User, email string) {
	if a.audit == nil {
		return
	}
	entry := service.AuditEntry{
		Email:     email,
		Action:    action,
		Resource:  "session",
		IP:        getRemoteIp(c),
		UserAgent: c.GetHeader("User-Agent"),
		Details:   map[string]any{"request_id": c.GetString(middleware.RequestIDKey)},
	}
	if user != nil {
		entry.UserID = user.Id
		entry.Email = user.Email
		entry.ResourceID = user.Id
	}
	if err := a.audit.LogAction(entry); err != nil {
		logger.Warning("Failed to log audit action:", err)
	}
}
