package share

import (
	"crypto/rand"
	"fmt"
)

// tokenLen is the number of characters in a share token. 16 characters from
// a 64-symbol alphabet is 96 bits of entropy, which makes a collision over
// any realistic grant volume negligible.
const tokenLen = 16

const tokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

// NewToken returns a cryptographically random URL-safe token.
func NewToken() (string, error) {
	buf := make([]byte, tokenLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	for i, b := range buf {
		buf[i] = tokenAlphabet[int(b)%len(tokenAlphabet)]
	}
	return string(buf), nil
}
