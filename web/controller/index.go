package controller

import (
	"errors"
	"net/http"

	"github.com/inkpost/blog/logger"
	"github.com/inkpost/blog/web/entity"
	"github.com/inkpost/blog/web/locale"
	"github.com/inkpost/blog/web/middleware"
	"github.com/inkpost/blog/web/service"
	"github.com/inkpost/blog/web/session"

	"github.com/gin-gonic/gin"
)

// IndexController handles registration, login, logout and the identity probe.
type IndexController struct {
	BaseController

	authService *service.AuthService
	binder      *session.Binder
}

// NewIndexController creates a new IndexController and initializes its routes.
// throttle guards the credential endpoints.
func NewIndexController(g *gin.RouterGroup, authService *service.AuthService, binder *session.Binder, audit middleware.AuditLogger, throttle gin.HandlerFunc) *IndexController {
	a := &IndexController{
		BaseController: BaseController{audit: audit},
		authService:    authService,
		binder:         binder,
	}
	a.initRouter(g, throttle)
	return a
}

func (a *IndexController) initRouter(g *gin.RouterGroup, throttle gin.HandlerFunc) {
	g.GET("/me", a.me)

	g.POST("/register", throttle, a.register)
	g.POST("/login", throttle, a.login)

	g.GET("/logout", a.logout)
	g.POST("/logout", a.logout)
}

// me reports the caller's identity, the CSRF token to send with mutations and
// any pending flash messages.
func (a *IndexController) me(c *gin.Context) {
	token, err := session.CSRFToken(c)
	if err != nil {
		jsonMsgObj(c, http.StatusInternalServerError, locale.T(c, "internalError"), nil, err)
		return
	}
	identity := entity.Identity{
		CSRFToken: token,
		Flashes:   session.Flashes(c),
	}
	if user := session.GetLoginUser(c); user != nil {
		identity.Authenticated = true
		identity.Id = user.Id
		identity.Email = user.Email
		identity.Name = user.DisplayName
		identity.Role = string(user.Role)
		identity.TwoFactor = user.TwoFactorSecret != ""
	}
	jsonObj(c, identity)
}

func (a *IndexController) register(c *gin.Context) {
	var form entity.RegisterForm
	if err := c.ShouldBind(&form); err != nil {
		reply(c, http.StatusBadRequest, locale.T(c, "invalidForm"), nil, err, "/register")
		return
	}

	user, err := a.authService.Register(form.Email, form.Name, form.Password)
	switch {
	case errors.Is(err, service.ErrDuplicateEmail):
		reply(c, http.StatusConflict, locale.T(c, "auth.alreadySignedUp"), gin.H{"redirect": "/login"}, err, "/login")
		return
	case errors.Is(err, service.ErrEmptyField), errors.Is(err, service.ErrPasswordTooLong):
		reply(c, http.StatusBadRequest, locale.T(c, "invalidForm"), nil, err, "/register")
		return
	case err != nil:
		reply(c, http.StatusInternalServerError, locale.T(c, "internalError"), nil, err, "/register")
		return
	}

	a.record(c, service.ActionRegister, user, "")
	if err := a.binder.Login(c, user); err != nil {
		reply(c, http.StatusInternalServerError, locale.T(c, "internalError"), nil, err, "/login")
		return
	}
	reply(c, http.StatusOK, locale.T(c, "auth.registered", "Name=="+user.DisplayName), user, nil, "/")
}

func (a *IndexController) login(c *gin.Context) {
	var form entity.LoginForm
	if err := c.ShouldBind(&form); err != nil {
		reply(c, http.StatusBadRequest, locale.T(c, "invalidForm"), nil, err, "/login")
		return
	}

	user, err := a.authService.Login(form.Email, form.Password, form.TwoFactorCode)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			logger.Warningf("failed login for %q from %s", form.Email, getRemoteIp(c))
			a.record(c, service.ActionLoginFailed, nil, form.Email)
			reply(c, http.StatusUnauthorized, locale.T(c, "auth.invalidCredentials"), nil, err, "/login")
			return
		}
		reply(c, http.StatusInternalServerError, locale.T(c, "internalError"), nil, err, "/login")
		return
	}

	if err := a.binder.Login(c, user); err != nil {
		reply(c, http.StatusInternalServerError, locale.T(c, "internalError"), nil, err, "/login")
		return
	}
	logger.Infof("user %d logged in from %s", user.Id, getRemoteIp(c))
	a.record(c, service.ActionLogin, user, "")
	reply(c, http.StatusOK, locale.T(c, "auth.loggedIn"), user, nil, "/")
}

// logout is safe to call without a session; it always ends anonymous.
func (a *IndexController) logout(c *gin.Context) {
	user := session.GetLoginUser(c)
	if err := a.binder.Logout(c); err != nil {
		logger.Warning("Unable to destroy session:", err)
	}
	if user != nil {
		logger.Infof("user %d logged out", user.Id)
		a.record(c, service.ActionLogout, user, "")
	}
	reply(c, http.StatusOK, locale.T(c, "auth.loggedOut"), nil, nil, "/")
}
