// Package handid generates sortable identifiers for dealt hands.
// IDs embed a millisecond timestamp so hand records order naturally by
// creation time in the review store.
package handid

import (
	"crypto/rand"
	"fmt"
	"time"
)

// Crockford's base32 alphabet, lowercase.
const alphabet = "0123456789abcdefghjkmnpqrstvwxyz"

// Generate returns a 26-character hand id: a UUIDv7 encoded as base32.
func Generate() string {
	var raw [16]byte

	now := time.Now().UnixMilli()
	raw[0] = byte(now >> 40)
	raw[1] = byte(now >> 32)
	raw[2] = byte(now >> 24)
	raw[3] = byte(now >> 16)
	raw[4] = byte(now >> 8)
	raw[5] = byte(now)

	if _, err := rand.Read(raw[6:]); err != nil {
		// crypto/rand never fails on supported platforms; fall back to
		// a time-derived filler rather than returning an error from an
		// id generator.
		for i := 6; i < 16; i++ {
			raw[i] = byte(now >> (i % 8))
		}
	}

	raw[6] = (raw[6] & 0x0f) | 0x70 // version 7
	raw[8] = (raw[8] & 0x3f) | 0x80 // variant 10

	return encodeBase32(raw)
}

// encodeBase32 packs 128 bits into 26 base32 characters, most
// significant bits first.
func encodeBase32(raw [16]byte) string {
	var out [26]byte
	var acc uint64
	bits := 0
	pos := 0
	for _, b := range raw {
		acc = acc<<8 | uint64(b)
		bits += 8
		for bits >= 5 {
			bits -= 5
			out[pos] = alphabet[(acc>>uint(bits))&0x1f]
			pos++
		}
	}
	if bits > 0 {
		out[pos] = alphabet[(acc<<uint(5-bits))&0x1f]
		pos++
	}
	return string(out[:pos])
}

// Valid reports whether s looks like an id produced by Generate.
func Valid(s string) bool {
	if len(s) != 26 {
		return false
	}
	for i := 0; i < len(s); i++ {
		ok := false
		for j := 0; j < len(alphabet); j++ {
			if s[i] == alphabet[j] {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

// Timestamp extracts the embedded creation time from an id.
func Timestamp(s string) (time.Time, error) {
	if !Valid(s) {
		return time.Time{}, fmt.Errorf("handid: malformed id %q", s)
	}
	var acc uint64
	bits := 0
	var raw []byte
	for i := 0; i < len(s) && len(raw) < 6; i++ {
		var v uint64
		for j := 0; j < len(alphabet); j++ {
			if s[i] == alphabet[j] {
				v = uint64(j)
				break
			}
		}
		acc = acc<<5 | v
		bits += 5
		for bits >= 8 && len(raw) < 6 {
			bits -= 8
			raw = append(raw, byte(acc>>uint(bits)))
		}
	}
	ms := int64(0)
	for _, b := range raw {
		ms = ms<<8 | int64(b)
	}
	return time.UnixMilli(ms), nil
}
