package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/inkpost/blog/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	RequestIDHeader = "X-Request-Id"
	RequestIDKey    = "request_id"
)

// RequestID tags each request with an id, reusing a well-formed incoming one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set(RequestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// Recovery turns a handler panic into a 500 with the generic envelope.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if p := recover(); p != nil {
				logger.Errorf("%s %s [%s] panic: %v\n%s", c.Request.Method, c.Request.URL.Path, c.GetString(RequestIDKey), p, debug.Stack())
				if c.Writer.Written() {
					c.Abort()
					return
				}
				abortMsg(c, http.StatusInternalServerError, "internalError")
			}
		}()
		c.Next()
	}
}

// AccessLog logs one line per request at debug level.
func AccessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		logger.Debugf("%s %s %d [%s] %s", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), c.GetString(RequestIDKey), c.ClientIP())
	}
}
