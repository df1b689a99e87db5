package controller

import (
	"errors"
	"net/http"

	"github.com/inkpost/blog/web/entity"
	"github.com/inkpost/blog/web/locale"
	"github.com/inkpost/blog/web/middleware"
	"github.com/inkpost/blog/web/service"
	"github.com/inkpost/blog/web/session"

	"github.com/gin-gonic/gin"
)

// AccountController lets a logged in user manage two-factor authentication.
type AccountController struct {
	BaseController

	authService *service.AuthService
}

func NewAccountController(g *gin.RouterGroup, authService *service.AuthService, audit middleware.AuditLogger) *AccountController {
	a := &AccountController{
		BaseController: BaseController{audit: audit},
		authService:    authService,
	}
	a.initRouter(g)
	return a
}

func (a *AccountController) initRouter(g *gin.RouterGroup) {
	g = g.Group("/account", middleware.Require(middleware.Authenticated))
	g.POST("/2fa", a.enableTwoFactor)
	g.DELETE("/2fa", a.disableTwoFactor)
}

// enableTwoFactor returns the new secret once; the client shows it as a QR
// code built from the provisioning URI.
func (a *AccountController) enableTwoFactor(c *gin.Context) {
	user := session.GetLoginUser(c)
	secret, uri, err := a.authService.EnableTwoFactor(user)
	if errors.Is(err, service.ErrTwoFactorActive) {
		jsonMsgObj(c, http.StatusConflict, locale.T(c, "auth.twoFactorAlreadyOn"), nil, err)
		return
	} else if err != nil {
		jsonMsgObj(c, http.StatusInternalServerError, locale.T(c, "internalError"), nil, err)
		return
	}
	a.record(c, service.ActionTwoFactorOn, user, "")
	jsonMsgObj(c, http.StatusOK, locale.T(c, "auth.twoFactorEnabled"), gin.H{"secret": secret, "uri": uri}, nil)
}

func (a *AccountController) disableTwoFactor(c *gin.Context) {
	var form entity.TwoFactorForm
	if err := c.ShouldBind(&form); err != nil {
		jsonMsgObj(c, http.StatusBadRequest, locale.T(c, "invalidForm"), nil, err)
		return
	}
	user := session.GetLoginUser(c)
	err := a.authService.DisableTwoFactor(user, form.Code)
	if errors.Is(err, service.ErrInvalidCredentials) {
		jsonMsgObj(c, http.StatusUnauthorized, locale.T(c, "auth.twoFactorInvalid"), nil, err)
		return
	} else if err != nil {
		jsonMsgObj(c, http.StatusInternalServerError, locale.T(c, "internalError"), nil, err)
		return
	}
	a.record(c, service.ActionTwoFactorOff, user, "")
	jsonMsgObj(c, http.StatusOK, locale.T(c, "auth.twoFactorDisabled"), nil, nil)
}
