package utils

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
)

// NewVerificationCode returns a 6-digit numeric code (100000-999999)
// generated from cryptographically secure randomness.  The code is
// stored on guest records at creation time; no booking flow validates
// it yet.
func NewVerificationCode() (string, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", err
	}
	n := binary.BigEndian.Uint64(buf[:]) % 900000
	return fmt.Sprintf("%06d", 100000+n), nil
}
