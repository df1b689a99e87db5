package session

import (
	"errors"

	"github.com/inkpost/blog/database/model"
	"github.com/inkpost/blog/logger"
	"github.com/inkpost/blog/web/service"

	"github.com/gin-gonic/gin"
)

const (
	loginUser  = "LOGIN_USER"
	loginToken = "LOGIN_TOKEN"
)

// UserLoader fetches the account a session points at. It reports a deleted
// account as service.ErrUserNotFound.
type UserLoader interface {
	GetByID(id int) (*model.User, error)
}

// Binder ties the manager and cookie codec to gin requests.
type Binder struct {
	manager *Manager
	codec   *CookieCodec
	users   UserLoader
}

func NewBinder(manager *Manager, codec *CookieCodec, users UserLoader) *Binder {
	return &Binder{manager: manager, codec: codec, users: users}
}

// Middleware resolves the session cookie once per request and stores the
// logged in user, if any, in the gin context.
func (b *Binder) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		kept := false
		token := b.codec.Read(c.Request)
		if token != "" {
			c.Set(loginToken, token)
			identity := b.manager.Resolve(c.Request.Context(), token)
			if !identity.IsAnonymous() {
				user, err := b.users.GetByID(identity.UserID)
				switch {
				case err == nil:
					SetLoginUser(c, user)
					kept = true
				case errors.Is(err, service.ErrUserNotFound):
					logger.Warning("session points at missing user", identity.UserID)
					if err := b.manager.Destroy(c.Request.Context(), token); err != nil {
						logger.Warning("failed to destroy orphan session:", err)
					}
				default:
					// the session stays; this request is served anonymously
					logger.Warning("failed to load session user:", err)
					kept = true
				}
			}
		}
		if !kept && b.codec.Present(c.Request) {
			b.codec.Clear(c.Writer)
		}
		c.Next()
	}
}

// Login starts a fresh session for user. Any token the client already held is
// destroyed, so a pre-login identifier never becomes authenticated.
func (b *Binder) Login(c *gin.Context, user *model.User) error {
	prior := currentToken(c)
	token, err := b.manager.Create(c.Request.Context(), user.Id, prior)
	if err != nil {
		return err
	}
	if err := b.codec.Write(c.Writer, token); err != nil {
		if derr := b.manager.Destroy(c.Request.Context(), token); derr != nil {
			logger.Warning("failed to roll back session:", derr)
		}
		return err
	}
	c.Set(loginToken, token)
	SetLoginUser(c, user)
	return nil
}

// Logout destroys the current session, if any, and expires the cookie.
func (b *Binder) Logout(c *gin.Context) error {
	token := currentToken(c)
	if token == "" {
		token = b.codec.Read(c.Request)
	}
	b.codec.Clear(c.Writer)
	SetLoginUser(c, nil)
	c.Set(loginToken, Token(""))
	return b.manager.Destroy(c.Request.Context(), token)
}

func currentToken(c *gin.Context) Token {
	if v, ok := c.Get(loginToken); ok {
		if t, ok := v.(Token); ok {
			return t
		}
	}
	return ""
}

// SetLoginUser binds user to the request only; it does not touch the session.
func SetLoginUser(c *gin.Context, user *model.User) {
	c.Set(loginUser, user)
}

// GetLoginUser returns the user bound by Middleware or Login, or nil.
func GetLoginUser(c *gin.Context) *model.User {
	if v, ok := c.Get(loginUser); ok {
		if user, ok := v.(*model.User); ok {
			return user
		}
	}
	return nil
}

func IsLogin(c *gin.Context) bool {
	return GetLoginUser(c) != nil
}
