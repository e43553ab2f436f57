package id

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
)

// NewID32 returns exactly 32 hex characters (no separators/prefixes).
func NewID32() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

var ErrInvalidLoanID = errors.New("loan id must be a positive decimal integer")

// ParseLoanID reads a loan id from a path segment or CLI argument.
func ParseLoanID(raw string) (uint64, error) {
	raw = strings.TrimSpace(raw)
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || n == 0 {
		return 0, ErrInvalidLoanID
	}
	return n, nil
}
