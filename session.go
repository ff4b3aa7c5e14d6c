// Package basicfit holds the client-side session model and the key-value
// store contract used to persist it between runs.
package basicfit

import (
	"fmt"
	"strconv"

	"github.com/infodancer/basicfit/errors"
)

// DefaultNamespace is the key-value namespace holding the session.
const DefaultNamespace = "basicfit_auth"

// Persisted keys within the namespace.
const (
	KeyLoggedIn    = "is_logged_in"
	KeyEmail       = "user_email"
	KeyDisplayName = "user_name"
)

// Display names written by the two sign-in paths.
const (
	// DisplayNameMember is written by a successful login.
	DisplayNameMember = "Utilisateur BasicFit"

	// DisplayNameNewcomer is written by a successful registration.
	DisplayNameNewcomer = "Nouvel utilisateur"
)

// Session is the single per-installation login record.
type Session struct {
	// LoggedIn reports whether a login or registration succeeded since the
	// last logout.
	LoggedIn bool

	// Email is the address supplied at login. Empty when logged out.
	Email string

	// DisplayName is one of DisplayNameMember or DisplayNameNewcomer.
	// Empty when logged out.
	DisplayName string
}

// Greeting returns the two-line user summary shown to a logged-in user.
func (s *Session) Greeting() string {
	return "Bonjour " + s.DisplayName + "\nEmail: " + s.Email
}

// Validate checks that email and display name are set together and only
// while logged in.
func (s *Session) Validate() error {
	hasEmail := s.Email != ""
	hasName := s.DisplayName != ""
	if hasEmail != hasName {
		return fmt.Errorf("%w: email and display name must be set together", errors.ErrCorruptRecord)
	}
	if hasEmail != s.LoggedIn {
		return fmt.Errorf("%w: identity fields present=%t but logged_in=%t",
			errors.ErrCorruptRecord, hasEmail, s.LoggedIn)
	}
	return nil
}

// Edits returns the batch that persists s. A logged-out session removes the
// identity keys rather than writing empty strings.
func (s *Session) Edits() []Edit {
	if !s.LoggedIn {
		return []Edit{
			Put(KeyLoggedIn, strconv.FormatBool(false)),
			Remove(KeyEmail),
			Remove(KeyDisplayName),
		}
	}
	return []Edit{
		Put(KeyLoggedIn, strconv.FormatBool(true)),
		Put(KeyEmail, s.Email),
		Put(KeyDisplayName, s.DisplayName),
	}
}

// SessionFromValues decodes a namespace snapshot. Missing keys take their
// zero value, so an empty snapshot is a logged-out session.
func SessionFromValues(values map[string]string) (*Session, error) {
	s := &Session{
		Email:       values[KeyEmail],
		DisplayName: values[KeyDisplayName],
	}
	if raw, ok := values[KeyLoggedIn]; ok {
		loggedIn, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s=%q", errors.ErrCorruptRecord, KeyLoggedIn, raw)
		}
		s.LoggedIn = loggedIn
	}
	return s, nil
}
