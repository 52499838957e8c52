// Copyright 2026 The Phaser Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package primitives provides validated value types for building
// services: identifiers, email addresses, passwords and timestamps.
// A value constructed through the package constructors is known to be
// valid; values obtained elsewhere can be checked via Validatable.
package primitives

// Validatable is implemented by types that can check their own value.
type Validatable interface {
	// Validate returns nil when the value is well formed.
	Validate() error
}
