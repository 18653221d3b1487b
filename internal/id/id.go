// Package id generates prefixed, URL-safe record identifiers.
package id

import (
	"fmt"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Prefix names the kind of record an identifier belongs to.
type Prefix string

const (
	Attempt Prefix = "att"
	Client  Prefix = "cli"
	Session Prefix = "ses"
)

// size is the length of the random part. 21 characters of the NanoID
// alphabet carry about as much entropy as a UUIDv4.
const size = 21

// New returns prefix-<nanoid>, e.g. "att-V1StGXR8_Z5jdHi6B-myT". It fails only
// when the system has insufficient entropy.
func New(prefix Prefix) (string, error) {
	n, err := gonanoid.New(size)
	if err != nil {
		return "", fmt.Errorf("id: generate %s: %w", prefix, err)
	}
	return string(prefix) + "-" + n, nil
}

// Must is like [New] but panics on failure.
func Must(prefix Prefix) string {
	s, err := New(prefix)
	if err != nil {
		panic(err)
	}
	return s
}

// HasPrefix reports whether s was generated for prefix.
func HasPrefix(s string, prefix Prefix) bool {
	rest, ok := strings.CutPrefix(s, string(prefix)+"-")
	return ok && len(rest) == size
}
