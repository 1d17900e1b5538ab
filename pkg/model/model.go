// Package model defines the core domain types for the Itemtrack client.
package model

import (
	"errors"
	"fmt"
	"strings"
)

const MaxDisplayNameLength = 64

var ErrEmailEmpty = errors.New("email must not be empty")
var ErrEmailInvalid = errors.New("email must be a valid address (user@host)")
var ErrPasswordEmpty = errors.New("password must not be empty")
var ErrDisplayNameEmpty = errors.New("display name must not be empty")
var ErrDisplayNameTooLong = fmt.Errorf("display name must not exceed %d characters", MaxDisplayNameLength)

// IsValidationError reports whether err is one of this package's
// pre-submission validation failures, which are surfaced next to the
// offending field and never reach the network layer.
func IsValidationError(err error) bool {
	for _, v := range []error{
		ErrEmailEmpty, ErrEmailInvalid, ErrPasswordEmpty,
		ErrDisplayNameEmpty, ErrDisplayNameTooLong,
	} {
		if errors.Is(err, v) {
			return true
		}
	}
	return false
}

// UserInfo is the profile record returned by the server. It is treated as
// immutable once received; the client never edits it locally.
type UserInfo struct {
	ID          string   `json:"id" yaml:"id"`
	Email       string   `json:"email" yaml:"email"`
	DisplayName string   `json:"displayName" yaml:"display_name"`
	Roles       []string `json:"roles,omitempty" yaml:"roles,omitempty"`
}

// HasRole reports whether the user carries the named role. An absent Roles
// list means no elevated roles.
func (u *UserInfo) HasRole(role string) bool {
	if u == nil {
		return false
	}
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// ValidateEmail checks that an email is non-empty and minimally shaped like
// an address. The server remains the source of truth; this only catches
// obvious mistakes before a request is made.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ErrEmailEmpty
	}
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return ErrEmailInvalid
	}
	if strings.ContainsAny(email, " \t\n") {
		return ErrEmailInvalid
	}
	return nil
}

// ValidatePassword checks that a password is present. No strength policy is
// enforced client-side.
func ValidatePassword(password string) error {
	if password == "" {
		return ErrPasswordEmpty
	}
	return nil
}

// ValidateDisplayName checks that a display name is 1-64 characters after
// trimming surrounding whitespace.
func ValidateDisplayName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrDisplayNameEmpty
	}
	if len(name) > MaxDisplayNameLength {
		return ErrDisplayNameTooLong
	}
	return nil
}
