package session

import (
	"encoding/base32"
	"errors"
	"strings"

	"github.com/gorilla/securecookie"
)

const (
	tokenBytes  = 32
	tokenLength = 52 // base32 of 32 bytes, padding stripped
)

// Token is the opaque session identifier handed to the client.
type Token string

// NewToken returns 256 bits from crypto/rand in unpadded base32.
func NewToken() (Token, error) {
	key := securecookie.GenerateRandomKey(tokenBytes)
	if key == nil {
		return "", errors.New("session: random source failed")
	}
	return Token(strings.TrimRight(base32.StdEncoding.EncodeToString(key), "=")), nil
}

// WellFormed reports whether t could have been produced by NewToken.
func (t Token) WellFormed() bool {
	if len(t) != tokenLength {
		return false
	}
	for i := 0; i < len(t); i++ {
		c := t[i]
		if !(c >= 'A' && c <= 'Z' || c >= '2' && c <= '7') {
			return false
		}
	}
	return true
}
