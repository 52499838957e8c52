// Copyright 2026 The Phaser Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package user

import (
	"errors"

	"github.com/phaser-svc/phaser/pkg/hash"
	"github.com/phaser-svc/phaser/pkg/primitives"
)

var (
	// ErrEmailRequired is returned by Build when no email was set.
	ErrEmailRequired = errors.New("user: email is required")

	// ErrPasswordRequired is returned by Build when no password was
	// set.
	ErrPasswordRequired = errors.New("user: password is required")
)

// Builder assembles a User. Setters validate their input; the first
// validation failure sticks and is reported by Build, later setters
// become no-ops. A fresh builder starts with a random id and the
// current time for both timestamps.
type Builder struct {
	hasher   hash.Hasher
	id       primitives.ID
	email    primitives.Email
	password primitives.Password
	created  primitives.Timestamp
	modified primitives.Timestamp
	err      error
}

// NewBuilder creates a builder that hashes passwords with h.
func NewBuilder(h hash.Hasher) *Builder {
	now := primitives.Now()
	return &Builder{
		hasher:   h,
		id:       primitives.NewID(),
		created:  now,
		modified: now,
	}
}

// ID replaces the generated id.
func (b *Builder) ID(id primitives.ID) *Builder {
	if b.err != nil {
		return b
	}
	if err := id.Validate(); err != nil {
		b.err = err
		return b
	}
	b.id = id
	return b
}

// IDFromString parses s as a UUID and uses it as the id.
func (b *Builder) IDFromString(s string) *Builder {
	if b.err != nil {
		return b
	}
	id, err := primitives.ParseID(s)
	if err != nil {
		b.err = err
		return b
	}
	b.id = id
	return b
}

// Email validates and sets the email address.
func (b *Builder) Email(address string) *Builder {
	if b.err != nil {
		return b
	}
	email, err := primitives.NewEmail(address)
	if err != nil {
		b.err = err
		return b
	}
	b.email = email
	return b
}

// Password validates plain against the default policy and stores its
// hash.
func (b *Builder) Password(plain string) *Builder {
	return b.PasswordWithPolicy(plain, primitives.DefaultPolicy())
}

// PasswordWithPolicy validates plain against policy and stores its
// hash.
func (b *Builder) PasswordWithPolicy(plain string, policy primitives.Policy) *Builder {
	if b.err != nil {
		return b
	}
	password, err := primitives.NewPasswordWithPolicy(b.hasher, plain, policy)
	if err != nil {
		b.err = err
		return b
	}
	b.password = password
	return b
}

// Created overrides the creation time.
func (b *Builder) Created(ts primitives.Timestamp) *Builder {
	if b.err != nil {
		return b
	}
	b.created = ts
	return b
}

// Modified overrides the modification time.
func (b *Builder) Modified(ts primitives.Timestamp) *Builder {
	if b.err != nil {
		return b
	}
	b.modified = ts
	return b
}

// Build returns the assembled user, or the first error recorded by a
// setter. Email and password must have been set.
func (b *Builder) Build() (*User, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.email.IsZero() {
		return nil, ErrEmailRequired
	}
	if b.password.IsZero() {
		return nil, ErrPasswordRequired
	}
	return &User{
		id:       b.id,
		email:    b.email,
		password: b.password,
		created:  b.created,
		modified: b.modified,
	}, nil
}
