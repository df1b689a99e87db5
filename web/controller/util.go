package controller

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/inkpost/blog/logger"
	"github.com/inkpost/blog/web/entity"
	"github.com/inkpost/blog/web/locale"
	"github.com/inkpost/blog/web/session"

	"github.com/gin-gonic/gin"
)

// getRemoteIp returns the client address as resolved by gin's trusted proxy
// settings.
func getRemoteIp(c *gin.Context) string {
	return c.ClientIP()
}

// jsonObj sends a successful JSON response with an object.
func jsonObj(c *gin.Context, obj any) {
	c.JSON(http.StatusOK, entity.Msg{Success: true, Obj: obj})
}

// jsonMsgObj sends a JSON response with a message, object, and error status.
func jsonMsgObj(c *gin.Context, statusCode int, msg string, obj any, err error) {
	m := entity.Msg{
		Obj: obj,
		Msg: msg,
	}
	if err == nil {
		m.Success = true
	} else {
		logger.Warning(msg+" "+locale.T(c, "fail")+": ", err)
	}
	c.JSON(statusCode, m)
}

// pureJsonMsg sends a pure JSON message response with custom status code.
func pureJsonMsg(c *gin.Context, statusCode int, success bool, msg string) {
	c.JSON(statusCode, entity.Msg{
		Success: success,
		Msg:     msg,
	})
}

// isAjax reports whether the caller wants the JSON envelope rather than a
// redirect.
func isAjax(c *gin.Context) bool {
	if c.GetHeader("X-Requested-With") == "XMLHttpRequest" {
		return true
	}
	if strings.HasPrefix(c.ContentType(), "application/json") {
		return true
	}
	return strings.Contains(c.GetHeader("Accept"), "application/json")
}

// reply answers ajax callers with the envelope and statusCode; everyone else
// gets msg as a flash and a 303 to location.
func reply(c *gin.Context, statusCode int, msg string, obj any, err error, location string) {
	if isAjax(c) || location == "" {
		jsonMsgObj(c, statusCode, msg, obj, err)
		return
	}
	if err != nil {
		logger.Warning(msg+" "+locale.T(c, "fail")+": ", err)
	}
	if msg != "" {
		if ferr := session.AddFlash(c, msg); ferr != nil {
			logger.Warning("Unable to save flash:", ferr)
		}
	}
	c.Redirect(http.StatusSeeOther, location)
}

// paramID parses the :id route parameter.
func paramID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func postLocation(id int) string {
	return "/posts/" + strconv.Itoa(id)
}
