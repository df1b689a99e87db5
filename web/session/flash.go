package session

import (
	"net/http"
	"time"

	"github.com/inkpost/blog/util/random"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

// FlashCookieName is the cookie holding flash messages and the CSRF token.
const FlashCookieName = "blog_flash"

const csrfKey = "csrf_token"

// FlashMiddleware installs the signed and encrypted cookie session used for
// flashes and the CSRF token. It carries no identity.
func FlashMiddleware(hashKey, blockKey []byte, secure bool, maxAge time.Duration) gin.HandlerFunc {
	store := cookie.NewStore(hashKey, blockKey)
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int(maxAge / time.Second),
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sessions.Sessions(FlashCookieName, store)
}

// AddFlash queues a message for the next response that drains flashes.
func AddFlash(c *gin.Context, msg string) error {
	s := sessions.Default(c)
	s.AddFlash(msg)
	return s.Save()
}

// Flashes drains and returns pending flash messages.
func Flashes(c *gin.Context) []string {
	s := sessions.Default(c)
	raw := s.Flashes()
	out := make([]string, 0, len(raw))
	for _, f := range raw {
		if msg, ok := f.(string); ok {
			out = append(out, msg)
		}
	}
	if len(raw) > 0 {
		_ = s.Save()
	}
	return out
}

// CSRFToken returns the token bound to the client, minting one on first use.
func CSRFToken(c *gin.Context) (string, error) {
	s := sessions.Default(c)
	if v, ok := s.Get(csrfKey).(string); ok && v != "" {
		return v, nil
	}
	token := random.Seq(43)
	s.Set(csrfKey, token)
	if err := s.Save(); err != nil {
		return "", err
	}
	return token, nil
}

// StoredCSRFToken returns the bound token without minting one.
func StoredCSRFToken(c *gin.Context) string {
	v, _ := sessions.Default(c).Get(csrfKey).(string)
	return v
}
