package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateKeyWithParams(t *testing.T) {
	assert.Equal(t, "search|a|1|true", GenerateKeyWithParams("search", "a", 1, true))
	assert.Equal(t, "search", GenerateKeyWithParams("search"))
}

func TestGenerateKeyWithParamsEscapesSeparator(t *testing.T) {
	a := GenerateKeyWithParams("p", "x|y", "z")
	b := GenerateKeyWithParams("p", "x", "y|z")
	assert.NotEqual(t, a, b)
}

func TestHashKeyStable(t *testing.T) {
	assert.Equal(t, HashKey("abc"), HashKey("abc"))
	assert.Len(t, HashKey("abc"), 32)
	assert.NotEqual(t, HashKey("abc"), HashKey("abd"))
}
