package controller

import (
	"net/http"
	"strconv"

	"github.com/inkpost/blog/logger"
	"github.com/inkpost/blog/web/locale"
	"github.com/inkpost/blog/web/middleware"
	"github.com/inkpost/blog/web/service"

	"github.com/gin-gonic/gin"
)

// AuditController exposes the audit trail, recent log lines and host status
// to admins.
type AuditController struct {
	auditService  *service.AuditLogService
	serverService *service.ServerService
}

// NewAuditController creates a new audit controller
func NewAuditController(g *gin.RouterGroup, auditService *service.AuditLogService, serverService *service.ServerService) *AuditController {
	a := &AuditController{
		auditService:  auditService,
		serverService: serverService,
	}
	a.initRouter(g)
	return a
}

func (a *AuditController) initRouter(g *gin.RouterGroup) {
	g = g.Group("/admin", middleware.Require(middleware.AdminOnly))
	g.GET("/audit", a.getAuditLogs)
	g.GET("/logs", a.getLogs)
	g.GET("/status", a.status)
}

// getAuditLogs retrieves audit logs with filters
func (a *AuditController) getAuditLogs(c *gin.Context) {
	type request struct {
		UserID int    `form:"user_id"`
		Action string `form:"action"`
		Limit  int    `form:"limit"`
		Offset int    `form:"offset"`
	}

	var req request
	if err := c.ShouldBindQuery(&req); err != nil {
		jsonMsgObj(c, http.StatusBadRequest, locale.T(c, "invalidForm"), nil, err)
		return
	}

	// Validate and set defaults
	if req.Limit <= 0 || req.Limit > 1000 {
		req.Limit = 50
	}
	if req.Offset < 0 {
		req.Offset = 0
	}

	logs, total, err := a.auditService.GetAuditLogs(req.UserID, req.Limit, req.Offset, req.Action)
	if err != nil {
		jsonMsgObj(c, http.StatusInternalServerError, locale.T(c, "internalError"), nil, err)
		return
	}

	jsonObj(c, gin.H{
		"logs":  logs,
		"total": total,
	})
}

// getLogs returns the newest buffered log lines at or above ?level=.
func (a *AuditController) getLogs(c *gin.Context) {
	count, err := strconv.Atoi(c.DefaultQuery("count", "100"))
	if err != nil || count <= 0 {
		count = 100
	}
	jsonObj(c, logger.GetLogs(count, c.DefaultQuery("level", "info")))
}

func (a *AuditController) status(c *gin.Context) {
	jsonObj(c, a.serverService.GetStatus())
}
