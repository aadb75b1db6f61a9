// Package domain contains entity without transport, just meta-data and invariants
package domain

import (
	"strings"
	"unicode/utf8"
)

const (
	MaxUserIDLen   = 64
	MaxUsernameLen = 36
	MaxRoomNameLen = 64
)

type UserID string

// NormalizeName trims the name and enforces the length limits shared by
// display names and room names.
func NormalizeName(name string, max int) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrUsernameEmpty
	}
	if utf8.RuneCountInString(name) > max {
		return "", ErrUsernameTooLong
	}
	return name, nil
}

// ValidateUserID checks a caller-supplied member id.
func ValidateUserID(id UserID) error {
	if id == "" {
		return ErrUserIDEmpty
	}
	if len(id) > MaxUserIDLen {
		return ErrUserIDTooLong
	}
	return nil
}
