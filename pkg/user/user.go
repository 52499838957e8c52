// Copyright 2026 The Phaser Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package user provides the user entity and its builder.
package user

import (
	"errors"
	"fmt"

	"github.com/phaser-svc/phaser/pkg/primitives"
)

// ErrAuthentication indicates a failed password check.
var ErrAuthentication = errors.New("authentication failed")

// Authenticatable is implemented by entities that can check a
// password.
type Authenticatable interface {
	// ConfirmPassword returns ErrAuthentication when password is wrong.
	ConfirmPassword(password string) error
}

// User is the user entity. All fields are validated on construction;
// use Builder to create one.
type User struct {
	id       primitives.ID
	email    primitives.Email
	password primitives.Password
	created  primitives.Timestamp
	modified primitives.Timestamp
}

// ID returns the user id.
func (u *User) ID() primitives.ID { return u.id }

// Email returns the user email address.
func (u *User) Email() primitives.Email { return u.email }

// Password returns the stored password hash wrapper.
func (u *User) Password() primitives.Password { return u.password }

// Created returns the creation time.
func (u *User) Created() primitives.Timestamp { return u.created }

// Modified returns the last modification time.
func (u *User) Modified() primitives.Timestamp { return u.modified }

// ConfirmPassword checks password against the stored hash.
func (u *User) ConfirmPassword(password string) error {
	err := u.password.Confirm(password)
	if errors.Is(err, primitives.ErrInvalidPassword) {
		return ErrAuthentication
	}
	return err
}

// SetEmail validates and replaces the email address, bumping the
// modification time.
func (u *User) SetEmail(address string) error {
	email, err := primitives.NewEmail(address)
	if err != nil {
		return err
	}
	u.email = email
	u.modified = primitives.Now()
	return nil
}

// SetPassword validates plain against the default policy, hashes it
// with the user's hasher and bumps the modification time.
func (u *User) SetPassword(plain string) error {
	password, err := primitives.NewPassword(u.password.Hasher(), plain)
	if err != nil {
		return err
	}
	u.password = password
	u.modified = primitives.Now()
	return nil
}

// Validate checks all fields of the entity.
func (u *User) Validate() error {
	if err := u.id.Validate(); err != nil {
		return err
	}
	if err := u.email.Validate(); err != nil {
		return err
	}
	if u.password.IsZero() {
		return fmt.Errorf("user %s: password not set", u.id)
	}
	if err := u.created.Validate(); err != nil {
		return err
	}
	if err := u.modified.Validate(); err != nil {
		return err
	}
	return nil
}
