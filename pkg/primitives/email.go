// Copyright 2026 The Phaser Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package primitives

import (
	"fmt"
	"regexp"
	"strings"
)

// Local part: starts and ends with [a-z0-9_+], dots allowed inside.
// Domain: dot or hyphen separated labels with a 2-6 letter TLD.
var emailPattern = regexp.MustCompile(
	`^[a-z0-9_+](?:[a-z0-9_+.]*[a-z0-9_+])?@[a-z0-9]+(?:[-.][a-z0-9]+)*\.[a-z]{2,6}$`)

// Email is a validated, lower-cased email address.
type Email string

// NewEmail normalizes s (trims surrounding space, lowers the case) and
// validates the result.
func NewEmail(s string) (Email, error) {
	e := Email(strings.ToLower(strings.TrimSpace(s)))
	if err := e.Validate(); err != nil {
		return "", err
	}
	return e, nil
}

// Validate checks the address against the email grammar.
func (e Email) Validate() error {
	if !emailPattern.MatchString(string(e)) {
		return fmt.Errorf("%w: %q", ErrInvalidEmail, string(e))
	}
	return nil
}

// IsZero reports whether the address is unset.
func (e Email) IsZero() bool {
	return e == ""
}

// String returns the address.
func (e Email) String() string {
	return string(e)
}

// MarshalText implements encoding.TextMarshaler.
func (e Email) MarshalText() ([]byte, error) {
	return []byte(e), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (e *Email) UnmarshalText(text []byte) error {
	parsed, err := NewEmail(string(text))
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}
