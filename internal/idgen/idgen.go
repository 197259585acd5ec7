// Package idgen generates run identifiers.
package idgen

import (
	"fmt"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// Prefix is prepended to every run ID.
const Prefix = "run-"

// alphabet avoids characters that are easy to confuse when read off a terminal.
const alphabet = "23456789abcdefghjkmnpqrstuvwxyz"

// Length is the number of random characters after the prefix.
const Length = 8

// NewRunID returns a short, URL-safe run identifier.
func NewRunID() (string, error) {
	id, err := nanoid.Generate(alphabet, Length)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	return Prefix + id, nil
}
