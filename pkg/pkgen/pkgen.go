package pkgen

import "math/rand"

// Game identifiers are short lowercase alphanumeric strings. Uniqueness is
// not guaranteed here; callers must existence-check and regenerate on
// collision (collision probability is tiny at this length, but nonzero).
const charset = "abcdefghijklmnopqrstuvwxyz0123456789"

const GameIDLength = 12

// GameID returns a random candidate game identifier.
func GameID() string {
	b := make([]byte, GameIDLength)
	for i := range b {
		b[i] = charset[rand.Intn(len(charset))]
	}
	return string(b)
}
