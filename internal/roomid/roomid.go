// Package roomid generates time-sorted room identifiers. IDs are UUIDv7
// values rendered in Crockford base32, so lexical order follows creation
// order and the strings are safe to paste into URLs.
package roomid

import (
	crand "crypto/rand"
	"fmt"
	"io"
	"strings"
	"time"
)

// Crockford's base32 alphabet.
const alphabet = "0123456789abcdefghjkmnpqrstvwxyz"

// Length of an encoded room ID.
const Length = 26

// Generator produces room IDs from a random byte source.
type Generator struct {
	source io.Reader
	now    func() time.Time
}

// Option configures a Generator.
type Option func(*Generator)

// WithSource replaces the crypto/rand source, typically with a
// deterministic reader in tests.
func WithSource(r io.Reader) Option {
	return func(g *Generator) { g.source = r }
}

// WithNow replaces the wall clock used for the timestamp bits.
func WithNow(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// NewGenerator returns a Generator reading from crypto/rand.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{source: crand.Reader, now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// New generates a room ID with the default generator.
func New() string {
	id, err := NewGenerator().Generate()
	if err != nil {
		// crypto/rand failing means the platform is broken.
		panic("roomid: " + err.Error())
	}
	return id
}

// Generate produces one room ID.
func (g *Generator) Generate() (string, error) {
	var uuid [16]byte

	// 48-bit millisecond timestamp, then random bits with the UUIDv7
	// version and variant markers.
	ms := g.now().UnixMilli()
	for i := 0; i < 6; i++ {
		uuid[i] = byte(ms >> (40 - 8*i))
	}
	if _, err := io.ReadFull(g.source, uuid[6:]); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	uuid[6] = (uuid[6] & 0x0f) | 0x70
	uuid[8] = (uuid[8] & 0x3f) | 0x80

	return encode(uuid), nil
}

// encode renders 128 bits as 26 base32 characters, 5 bits per character,
// padding the tail with zero bits.
func encode(data [16]byte) string {
	var b strings.Builder
	b.Grow(Length)
	for i := 0; i < Length; i++ {
		offset := i * 5
		byteIdx, bitIdx := offset/8, offset%8

		var v byte
		if bitIdx <= 3 {
			v = (data[byteIdx] >> (3 - bitIdx)) & 0x1f
		} else {
			v = (data[byteIdx] << (bitIdx - 3)) & 0x1f
			if byteIdx+1 < len(data) {
				v |= data[byteIdx+1] >> (11 - bitIdx)
			}
		}
		b.WriteByte(alphabet[v])
	}
	return b.String()
}

// Validate checks that a string is a well-formed room ID.
func Validate(id string) error {
	if len(id) != Length {
		return fmt.Errorf("room ID must be %d characters, got %d", Length, len(id))
	}
	// The leading character holds the top 5 bits of the millisecond
	// timestamp, which stay at or below 7 for roughly the next two
	// millennia.
	if id[0] > '7' {
		return fmt.Errorf("room ID first character must be 0-7, got %c", id[0])
	}
	for i, c := range id {
		if !strings.ContainsRune(alphabet, c) {
			return fmt.Errorf("invalid character %c at position %d", c, i)
		}
	}
	return nil
}
