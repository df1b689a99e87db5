package session

import (
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
)

// CookieName is the name of the cookie carrying the session token.
const CookieName = "blog_session"

// CookieCodec writes and reads the session cookie. The value is HMAC-signed
// and AES-encrypted, so the client can neither read nor forge a token.
type CookieCodec struct {
	sc     *securecookie.SecureCookie
	secure bool
	maxAge time.Duration
}

// NewCookieCodec takes a 64-byte hash key and a 32-byte block key.
func NewCookieCodec(hashKey, blockKey []byte, secure bool, maxAge time.Duration) *CookieCodec {
	sc := securecookie.New(hashKey, blockKey)
	sc.MaxAge(int(maxAge / time.Second))
	return &CookieCodec{sc: sc, secure: secure, maxAge: maxAge}
}

func (c *CookieCodec) Write(w http.ResponseWriter, token Token) error {
	encoded, err := c.sc.Encode(CookieName, string(token))
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    encoded,
		Path:     "/",
		MaxAge:   int(c.maxAge / time.Second),
		Expires:  time.Now().Add(c.maxAge),
		Secure:   c.secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Read returns the token from the request, or "" when the cookie is missing,
// tampered with or older than the codec's max age.
func (c *CookieCodec) Read(r *http.Request) Token {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return ""
	}
	var token string
	if err := c.sc.Decode(CookieName, cookie.Value, &token); err != nil {
		return ""
	}
	return Token(token)
}

// Present reports whether the request carries a session cookie at all.
func (c *CookieCodec) Present(r *http.Request) bool {
	cookie, err := r.Cookie(CookieName)
	return err == nil && cookie.Value != ""
}

// Clear tells the client to drop the cookie.
func (c *CookieCodec) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		Secure:   c.secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
