// Package random generates crypto-random strings.
package random

import (
	"crypto/rand"
	"math/big"
)

const alphanumeric = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

var alphabetSize = big.NewInt(int64(len(alphanumeric)))

// Seq returns n characters drawn uniformly from [0-9a-zA-Z].
func Seq(n int) string {
	out := make([]byte, n)
	for i := range out {
		idx, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			panic("crypto/rand failed: " + err.Error())
		}
		out[i] = alphanumeric[idx.Int64()]
	}
	return string(out)
}
