// Copyright 2026 The Phaser Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package primitives

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/phaser-svc/phaser/pkg/hash"
)

// DefaultSymbols is the symbol set accepted by the default policy.
const DefaultSymbols = "#$%/()=¿?*+-"

// Policy describes the rules a plaintext password must satisfy.
// The zero value of a field disables the corresponding rule: a
// MaxLength of 0 means no upper bound, an empty Symbols set skips the
// symbol requirement, a MaxRun of 0 allows arbitrary repetition.
type Policy struct {
	MinLength int
	MaxLength int
	// Symbols is the set of characters counted as symbols.
	Symbols string
	// MaxRun is the longest allowed run of identical characters.
	MaxRun int
	// Forbidden lists substrings rejected case-insensitively.
	Forbidden []string
}

// DefaultPolicy returns the standard policy: 8 to 20 characters, at
// least one lowercase letter, uppercase letter, digit and symbol, and
// no character repeated three times in a row.
func DefaultPolicy() Policy {
	return Policy{
		MinLength: 8,
		MaxLength: 20,
		Symbols:   DefaultSymbols,
		MaxRun:    2,
	}
}

// Validate checks plain against the policy and returns the first
// violated rule as a *PolicyViolation.
func (p Policy) Validate(plain string) error {
	n := utf8.RuneCountInString(plain)
	if n < p.MinLength || (p.MaxLength > 0 && n > p.MaxLength) {
		return &PolicyViolation{Rule: "length"}
	}

	if p.MaxRun > 0 {
		run := 0
		var prev rune
		for i, r := range plain {
			if i > 0 && r == prev {
				run++
			} else {
				run = 1
			}
			if run > p.MaxRun {
				return &PolicyViolation{Rule: "repeat"}
			}
			prev = r
		}
	}

	var hasLower, hasUpper, hasDigit, hasSymbol bool
	for _, r := range plain {
		switch {
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= '0' && r <= '9':
			hasDigit = true
		}
		if strings.ContainsRune(p.Symbols, r) {
			hasSymbol = true
		}
	}
	switch {
	case !hasLower:
		return &PolicyViolation{Rule: "lowercase"}
	case !hasUpper:
		return &PolicyViolation{Rule: "uppercase"}
	case !hasDigit:
		return &PolicyViolation{Rule: "digit"}
	case p.Symbols != "" && !hasSymbol:
		return &PolicyViolation{Rule: "symbol"}
	}

	lowered := strings.ToLower(plain)
	for _, word := range p.Forbidden {
		if word == "" {
			continue
		}
		if strings.Contains(lowered, strings.ToLower(word)) {
			return &PolicyViolation{Rule: "forbidden"}
		}
	}
	return nil
}

// Password stores only the hash of a validated password, never the
// plaintext.
type Password struct {
	hasher  hash.Hasher
	encoded string
}

// NewPassword validates plain against the default policy and hashes it
// with h.
func NewPassword(h hash.Hasher, plain string) (Password, error) {
	return NewPasswordWithPolicy(h, plain, DefaultPolicy())
}

// NewPasswordWithPolicy validates plain against policy and hashes it
// with h.
func NewPasswordWithPolicy(h hash.Hasher, plain string, policy Policy) (Password, error) {
	if err := policy.Validate(plain); err != nil {
		return Password{}, err
	}
	encoded, err := h.Hash(plain)
	if err != nil {
		return Password{}, fmt.Errorf("hashing password: %w", err)
	}
	return Password{hasher: h, encoded: encoded}, nil
}

// PasswordFromHash wraps an already encoded hash, as loaded from
// storage. The plaintext is never seen and the policy does not apply.
func PasswordFromHash(h hash.Hasher, encoded string) (Password, error) {
	if encoded == "" {
		return Password{}, fmt.Errorf("%w: empty", hash.ErrInvalidHash)
	}
	return Password{hasher: h, encoded: encoded}, nil
}

// Confirm checks plain against the stored hash. It returns
// ErrInvalidPassword when the password does not match.
func (p Password) Confirm(plain string) error {
	err := p.hasher.Verify(plain, p.encoded)
	if errors.Is(err, hash.ErrMismatch) {
		return ErrInvalidPassword
	}
	return err
}

// Hasher returns the hasher the password was created with.
func (p Password) Hasher() hash.Hasher {
	return p.hasher
}

// IsZero reports whether the password is unset.
func (p Password) IsZero() bool {
	return p.encoded == ""
}

// String returns the encoded hash, never the plaintext.
func (p Password) String() string {
	return p.encoded
}
