package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/inkpost/blog/web/session"

	"github.com/gin-gonic/gin"
)

const (
	CSRFHeader    = "X-CSRF-Token"
	CSRFFormField = "csrf_token"
)

// CSRF rejects state-changing requests whose token does not match the one
// bound to the client's flash session.
func CSRF() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		expected := session.StoredCSRFToken(c)
		got := c.GetHeader(CSRFHeader)
		if got == "" {
			got = c.PostForm(CSRFFormField)
		}
		if expected == "" || subtle.ConstantTimeCompare([]byte(expected), []byte(got)) != 1 {
			abortMsg(c, http.StatusForbidden, "csrfInvalid")
			return
		}
		c.Next()
	}
}
