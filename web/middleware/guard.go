// Package middleware holds the gin middleware of the blog: the authorization
// guard, CSRF check, login throttle, audit trail and request plumbing.
package middleware

import (
	"errors"
	"net/http"

	"github.com/inkpost/blog/database/model"
	"github.com/inkpost/blog/logger"
	"github.com/inkpost/blog/web/entity"
	"github.com/inkpost/blog/web/locale"
	"github.com/inkpost/blog/web/session"

	"github.com/gin-gonic/gin"
)

// ErrForbidden is returned by Authorize when a capability is missing.
var ErrForbidden = errors.New("forbidden")

// Capability is a predicate a route can require of the caller.
type Capability int

const (
	// Authenticated holds for any logged in user.
	Authenticated Capability = iota + 1
	// AdminOnly holds only for users with the admin role.
	AdminOnly
)

func (c Capability) String() string {
	switch c {
	case Authenticated:
		return "authenticated"
	case AdminOnly:
		return "admin"
	default:
		return "unknown"
	}
}

// Authorize checks one capability against user, which may be nil.
func Authorize(user *model.User, required Capability) error {
	switch required {
	case Authenticated:
		if user != nil {
			return nil
		}
	case AdminOnly:
		if user.IsAdmin() {
			return nil
		}
	}
	return ErrForbidden
}

// Require aborts with 403 unless the logged in user has every capability.
func Require(caps ...Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := session.GetLoginUser(c)
		for _, required := range caps {
			if err := Authorize(user, required); err != nil {
				key := "forbidden"
				if user == nil {
					key = "loginRequired"
				}
				logger.Noticef("denied %s %s: requires %s", c.Request.Method, c.Request.URL.Path, required)
				abortMsg(c, http.StatusForbidden, key)
				return
			}
		}
		c.Next()
	}
}

func abortMsg(c *gin.Context, status int, key string) {
	c.AbortWithStatusJSON(status, entity.Msg{
		Success: false,
		Msg:     locale.T(c, key),
	})
}
