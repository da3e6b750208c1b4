// Package ids generates and validates the opaque document identifiers used by
// both collections.
package ids

import (
	"errors"

	"github.com/segmentio/ksuid"
)

var ErrMalformed = errors.New("malformed id")

func New() string {
	return ksuid.New().String()
}

// Parse validates the string form of an id and returns it in canonical form.
func Parse(s string) (string, error) {
	id, err := ksuid.Parse(s)
	if err != nil {
		return "", ErrMalformed
	}
	return id.String(), nil
}

func Valid(s string) bool {
	_, err := Parse(s)
	return err == nil
}
