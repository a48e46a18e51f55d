// Package roomkey generates the public keys of game rooms: a UUIDv7 encoded
// as 26 characters of Crockford base32, so keys sort by creation time and
// are safe in URLs.
package roomkey

import (
	"crypto/rand"
	"fmt"
	"io"

	"github.com/google/uuid"
)

// Length is the number of characters in a key.
const Length = 26

const alphabet = "0123456789abcdefghjkmnpqrstvwxyz"

// Generator creates room keys from a configurable entropy source.
type Generator struct {
	entropy io.Reader
}

// NewGenerator returns a generator drawing from entropy, or from
// crypto/rand when entropy is nil.
func NewGenerator(entropy io.Reader) *Generator {
	if entropy == nil {
		entropy = rand.Reader
	}
	return &Generator{entropy: entropy}
}

// New returns a fresh key using crypto/rand.
func New() (string, error) {
	return NewGenerator(nil).New()
}

// New returns a fresh key.
func (g *Generator) New() (string, error) {
	id, err := uuid.NewV7FromReader(g.entropy)
	if err != nil {
		return "", fmt.Errorf("failed to generate room key: %w", err)
	}
	return Encode(id), nil
}

// Encode renders id as 26 base32 characters. The 128 bits are padded with
// two leading zero bits, so the first character is always 0-7.
func Encode(id uuid.UUID) string {
	out := make([]byte, Length)
	for i := range out {
		var v byte
		for b := 0; b < 5; b++ {
			v = v<<1 | bit(id, i*5+b-2)
		}
		out[i] = alphabet[v]
	}
	return string(out)
}

func bit(id uuid.UUID, k int) byte {
	if k < 0 {
		return 0
	}
	return (id[k/8] >> (7 - k%8)) & 1
}

// Parse decodes a key back into its UUID.
func Parse(key string) (uuid.UUID, error) {
	var id uuid.UUID
	if err := Validate(key); err != nil {
		return id, err
	}
	for i := 0; i < Length; i++ {
		v := byte(indexOf(key[i]))
		for b := 0; b < 5; b++ {
			k := i*5 + b - 2
			if k < 0 {
				continue
			}
			if v>>(4-b)&1 == 1 {
				id[k/8] |= 1 << (7 - k%8)
			}
		}
	}
	return id, nil
}

// Validate checks length and alphabet of key.
func Validate(key string) error {
	if len(key) != Length {
		return fmt.Errorf("room key must be exactly %d characters, got %d", Length, len(key))
	}
	if key[0] > '7' {
		return fmt.Errorf("room key first character must be 0-7, got %c", key[0])
	}
	for i := 0; i < len(key); i++ {
		if indexOf(key[i]) < 0 {
			return fmt.Errorf("invalid character %c at position %d", key[i], i)
		}
	}
	return nil
}

func indexOf(c byte) int {
	for i := 0; i < len(alphabet); i++ {
		if alphabet[i] == c {
			return i
		}
	}
	return -1
}
