package cache

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
)

// KeySeparator joins key segments. Segments are escaped so a separator inside
// a value cannot make two different segment lists collide.
const KeySeparator = "|"

// GenerateKey creates a cache key with prefix and ID.
func GenerateKey(prefix string, id string) string {
	return prefix + ":" + id
}

// GenerateKeyWithParams joins every param after prefix in the given order.
func GenerateKeyWithParams(prefix string, params ...interface{}) string {
	var b strings.Builder
	b.WriteString(prefix)
	for _, param := range params {
		b.WriteString(KeySeparator)
		b.WriteString(escapeSegment(fmt.Sprintf("%v", param)))
	}
	return b.String()
}

// HashKey generates MD5 hash of a key.
func HashKey(key string) string {
	sum := md5.Sum([]byte(key))
	return hex.EncodeToString(sum[:])
}

func escapeSegment(s string) string {
	if !strings.ContainsAny(s, KeySeparator+`\`) {
		return s
	}
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, KeySeparator, `\`+KeySeparator)
}
