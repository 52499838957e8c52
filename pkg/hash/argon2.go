// Copyright 2026 The Phaser Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package hash

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Params are the Argon2id cost parameters. Memory is in KiB.
type Params struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultParams returns the RFC 9106 recommended parameters for
// argon2id: 64 MiB of memory, one pass, four lanes.
func DefaultParams() Params {
	return Params{
		Memory:      64 * 1024,
		Iterations:  1,
		Parallelism: 4,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// Validate checks that the parameters are usable.
func (p Params) Validate() error {
	if p.Iterations < 1 {
		return fmt.Errorf("argon2: iterations must be at least 1")
	}
	if p.Parallelism < 1 {
		return fmt.Errorf("argon2: parallelism must be at least 1")
	}
	if p.Memory < 8*uint32(p.Parallelism) {
		return fmt.Errorf("argon2: memory must be at least 8 KiB per lane")
	}
	if p.SaltLength < 8 {
		return fmt.Errorf("argon2: salt must be at least 8 bytes")
	}
	if p.KeyLength < 16 {
		return fmt.Errorf("argon2: key must be at least 16 bytes")
	}
	return nil
}

// Argon2 hashes passwords with argon2id and encodes them in PHC string
// format: $argon2id$v=19$m=...,t=...,p=...$<salt>$<key>.
type Argon2 struct {
	params Params
}

// NewArgon2 returns a hasher with the default parameters.
func NewArgon2() *Argon2 {
	return &Argon2{params: DefaultParams()}
}

// NewArgon2WithParams returns a hasher with custom parameters.
func NewArgon2WithParams(p Params) (*Argon2, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Argon2{params: p}, nil
}

// Hash derives a key from plain under a fresh random salt.
func (a *Argon2) Hash(plain string) (string, error) {
	salt := make([]byte, a.params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}

	key := argon2.IDKey([]byte(plain), salt,
		a.params.Iterations, a.params.Memory, a.params.Parallelism, a.params.KeyLength)

	encoded := fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, a.params.Memory, a.params.Iterations, a.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key))
	return encoded, nil
}

// Verify recomputes the key from plain with the parameters stored in
// encoded and compares in constant time.
func (a *Argon2) Verify(plain, encoded string) error {
	params, salt, key, err := decodeHash(encoded)
	if err != nil {
		return err
	}

	computed := argon2.IDKey([]byte(plain), salt,
		params.Iterations, params.Memory, params.Parallelism, uint32(len(key)))

	if subtle.ConstantTimeCompare(key, computed) != 1 {
		return ErrMismatch
	}
	return nil
}

func decodeHash(encoded string) (Params, []byte, []byte, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return Params{}, nil, nil, fmt.Errorf("%w: expected 6 segments", ErrInvalidHash)
	}
	if parts[1] != "argon2id" {
		return Params{}, nil, nil, fmt.Errorf("%w: unsupported variant %q", ErrInvalidHash, parts[1])
	}

	var v int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &v); err != nil {
		return Params{}, nil, nil, fmt.Errorf("%w: bad version segment", ErrInvalidHash)
	}
	if v != argon2.Version {
		return Params{}, nil, nil, fmt.Errorf("%w: v=%d", ErrIncompatibleVersion, v)
	}

	var p Params
	n, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Iterations, &p.Parallelism)
	if err != nil || n != 3 {
		return Params{}, nil, nil, fmt.Errorf("%w: bad parameter segment", ErrInvalidHash)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return Params{}, nil, nil, fmt.Errorf("%w: bad salt encoding", ErrInvalidHash)
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return Params{}, nil, nil, fmt.Errorf("%w: bad key encoding", ErrInvalidHash)
	}

	p.SaltLength = uint32(len(salt))
	p.KeyLength = uint32(len(key))
	return p, salt, key, nil
}
