// Copyright 2026 The Phaser Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package hash provides password hashing. The only implementation is
// Argon2id; the Hasher interface keeps callers independent of it.
package hash

import "errors"

var (
	// ErrMismatch indicates the password does not match the hash.
	ErrMismatch = errors.New("password does not match hash")

	// ErrInvalidHash indicates an encoded hash that cannot be parsed.
	ErrInvalidHash = errors.New("invalid password hash encoding")

	// ErrIncompatibleVersion indicates a hash produced by an argon2
	// version this package cannot verify.
	ErrIncompatibleVersion = errors.New("incompatible argon2 version")
)

// Hasher hashes plaintext passwords and verifies them against encoded
// hashes.
type Hasher interface {
	// Hash returns the encoded hash of plain, including all parameters
	// needed for later verification.
	Hash(plain string) (string, error)

	// Verify checks plain against encoded. It returns ErrMismatch when
	// the password is wrong and ErrInvalidHash when encoded is
	// malformed.
	Verify(plain, encoded string) error
}
