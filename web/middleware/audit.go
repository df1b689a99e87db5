package middleware

import (
	"net/http"
	"strconv"

	"github.com/inkpost/blog/logger"
	"github.com/inkpost/blog/web/service"
	"github.com/inkpost/blog/web/session"

	"github.com/gin-gonic/gin"
)

// AuditLogger is the part of the audit service the middleware needs.
type AuditLogger interface {
	LogAction(e service.AuditEntry) error
}

type auditRoute struct {
	action   string
	resource string
}

// auditedRoutes maps "METHOD fullpath" to what gets recorded.
var auditedRoutes = map[string]auditRoute{
	"POST /posts":               {service.ActionCreate, "post"},
	"PUT /posts/:id":            {service.ActionUpdate, "post"},
	"POST /posts/:id/edit":      {service.ActionUpdate, "post"},
	"DELETE /posts/:id":         {service.ActionDelete, "post"},
	"POST /posts/:id/delete":    {service.ActionDelete, "post"},
	"POST /posts/:id/comments":  {service.ActionCreate, "comment"},
	"DELETE /comments/:id":      {service.ActionDelete, "comment"},
	"POST /comments/:id/delete": {service.ActionDelete, "comment"},
}

// AuditResourceIDKey lets a handler report the id of a record it created.
const AuditResourceIDKey = "audit_resource_id"

// AuditMiddleware records mutations of posts and comments after the handler
// ran, and every denied request as FORBIDDEN.
func AuditMiddleware(audit AuditLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		route, known := auditedRoutes[c.Request.Method+" "+c.FullPath()]
		status := c.Writer.Status()

		var action string
		switch {
		case status == http.StatusForbidden:
			action = service.ActionForbidden
		case known && status < http.StatusBadRequest:
			action = route.action
		default:
			return
		}
		resource := route.resource
		if resource == "" {
			resource = c.FullPath()
		}

		resourceID, _ := strconv.Atoi(c.Param("id"))
		if id := c.GetInt(AuditResourceIDKey); id > 0 {
			resourceID = id
		}

		entry := service.AuditEntry{
			Action:     action,
			Resource:   resource,
			ResourceID: resourceID,
			IP:         c.ClientIP(),
			UserAgent:  c.GetHeader("User-Agent"),
			Details: map[string]any{
				"method":     c.Request.Method,
				"path":       c.Request.URL.Path,
				"status":     status,
				"request_id": c.GetString(RequestIDKey),
			},
		}
		if user := session.GetLoginUser(c); user != nil {
			entry.UserID = user.Id
			entry.Email = user.Email
		}
		if err := audit.LogAction(entry); err != nil {
			logger.Warning("Failed to log audit action:", err)
		}
	}
}
