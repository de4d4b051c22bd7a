// Package token generates confirmation tokens. A token is the sole credential
// proving control of a confirmation link, so it must be unpredictable.
package token

import (
	"crypto/rand"
	"fmt"
)

// Length is the number of characters in a confirmation token. With a 62
// symbol alphabet this yields roughly 148 bits of entropy.
const Length = 25

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// maxUnbiased is the largest byte value usable for uniform rejection
// sampling over the 62-symbol alphabet (62 * 4 = 248).
const maxUnbiased = byte(len(alphabet) * (256 / len(alphabet)))

// Generate returns a fresh confirmation token: Length characters drawn
// uniformly from the alphanumeric alphabet using crypto/rand. No uniqueness
// check is performed; the entropy makes collisions a non-concern.
func Generate() (string, error) {
	out := make([]byte, 0, Length)
	buf := make([]byte, Length*2)
	for len(out) < Length {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("read random bytes: %w", err)
		}
		for _, b := range buf {
			if b >= maxUnbiased {
				continue
			}
			out = append(out, alphabet[int(b)%len(alphabet)])
			if len(out) == Length {
				break
			}
		}
	}
	return string(out), nil
}
