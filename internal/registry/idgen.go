package registry

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// roomIDAlphabet has exactly 32 symbols; l, o, 0 and 1 are excluded because
// they are visually ambiguous in shared links.
const roomIDAlphabet = "abcdefghijkmnpqrstuvwxyz23456789"

const roomIDLength = 12

// newRoomID draws uniformly from the restricted alphabet. 32 symbols means
// each random byte maps to one symbol without modulo bias.
func newRoomID() (string, error) {
	buf := make([]byte, roomIDLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate room id: %w", err)
	}
	out := make([]byte, roomIDLength)
	for i, b := range buf {
		out[i] = roomIDAlphabet[int(b)%len(roomIDAlphabet)]
	}
	return string(out), nil
}

// NewAdminToken returns the bearer secret proving admin authority over one
// room. 128 bits of entropy, hex-encoded.
func NewAdminToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate admin token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
