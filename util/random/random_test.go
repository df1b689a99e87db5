package random

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeq(t *testing.T) {
	s := Seq(43)
	assert.Len(t, s, 43)
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-zA-Z]+$`), s)
	assert.NotEqual(t, s, Seq(43))
}
