// Package guid generates the identifiers handed to hosts for containers and
// windows.
package guid

import (
	"regexp"

	"github.com/google/uuid"
)

var v4Pattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

// New returns a random UUID in canonical v4 text form.
func New() string {
	return uuid.New().String()
}

// IsValid reports whether s is a lowercase canonical v4 UUID.
func IsValid(s string) bool {
	return v4Pattern.MatchString(s)
}
