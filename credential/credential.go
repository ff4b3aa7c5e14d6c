// Package credential implements the gate that login and registration pass
// through before a session is written.
package credential

import (
	"fmt"
	"strings"

	"github.com/infodancer/basicfit/errors"
)

// String returns a pointer to s, marking the value as present.
func String(s string) *string {
	return &s
}

// Validate reports whether email and password are both present and email
// contains an "@". The password's content is never inspected.
func Validate(email, password *string) bool {
	return Check(email, password) == nil
}

// Check is Validate with the reason for rejection.
// Returns an error wrapping errors.ErrInvalidCredentials on failure.
func Check(email, password *string) error {
	switch {
	case email == nil:
		return fmt.Errorf("%w: email missing", errors.ErrInvalidCredentials)
	case password == nil:
		return fmt.Errorf("%w: password missing", errors.ErrInvalidCredentials)
	case !strings.Contains(*email, "@"):
		return fmt.Errorf("%w: email has no @", errors.ErrInvalidCredentials)
	}
	return nil
}
