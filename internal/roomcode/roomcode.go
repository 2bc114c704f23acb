// Package roomcode generates and normalizes the 6-character codes that
// address sessions.
package roomcode

import (
	"math/rand"
	"strings"
)

// Alphabet omits 0, 1, O, and I so codes survive being read out loud.
const Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Length of every room code.
const Length = 6

// Generate returns a fresh candidate code. Uniqueness is the store's job;
// collisions are handled by the create retry loop.
func Generate() string {
	var b strings.Builder
	b.Grow(Length)
	for i := 0; i < Length; i++ {
		b.WriteByte(Alphabet[rand.Intn(len(Alphabet))])
	}
	return b.String()
}

// Normalize uppercases user input, strips anything outside A-Z0-9, and
// truncates to the code length. It does not validate against the alphabet;
// a normalized-but-nonexistent code simply fails the join lookup.
func Normalize(raw string) string {
	var b strings.Builder
	b.Grow(Length)
	for _, r := range strings.ToUpper(raw) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			if b.Len() == Length {
				break
			}
		}
	}
	return b.String()
}
