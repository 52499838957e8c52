// Copyright 2026 The Phaser Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package security provides secret handling for step execution:
// registered secret values are masked in captured output, env keys are
// classified so secrets can be picked up automatically, and output can
// be scanned for credential-shaped strings.
package security

import (
	"regexp"
	"sort"
	"strings"
	"sync"
)

const (
	// Mask replaces redacted secret values in output.
	Mask = "***"

	// minSecretLength keeps trivial values like "1" or "go" from being
	// registered and masking unrelated output.
	minSecretLength = 4
)

// secretKeyPattern matches env key names that conventionally hold
// credentials (GITHUB_TOKEN, NPM_AUTH_TOKEN, DB_PASSWORD, API_KEY, ...).
var secretKeyPattern = regexp.MustCompile(
	`(?i)(^|_)(TOKEN|SECRET|PASSWORD|PASSWD|API_?KEY|ACCESS_?KEY|PRIVATE_?KEY|CREDENTIALS?)($|_)`)

// LooksSecret reports whether an env key name conventionally holds a
// credential.
func LooksSecret(key string) bool {
	return secretKeyPattern.MatchString(key)
}

// Redactor masks registered secret values in text. It is safe for
// concurrent use; the runner registers values once per run and redacts
// from multiple job goroutines.
type Redactor struct {
	mu      sync.RWMutex
	secrets []string
}

// NewRedactor creates an empty redactor.
func NewRedactor() *Redactor {
	return &Redactor{}
}

// Add registers secret values for masking. Values shorter than the
// minimum length and duplicates are ignored.
func (r *Redactor) Add(values ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, v := range values {
		if len(v) < minSecretLength {
			continue
		}
		known := false
		for _, existing := range r.secrets {
			if existing == v {
				known = true
				break
			}
		}
		if !known {
			r.secrets = append(r.secrets, v)
		}
	}

	// Longest first, so a secret that contains another is masked whole
	sort.SliceStable(r.secrets, func(i, j int) bool {
		return len(r.secrets[i]) > len(r.secrets[j])
	})
}

// Redact returns text with every registered secret value replaced by
// the mask.
func (r *Redactor) Redact(text string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, secret := range r.secrets {
		text = strings.ReplaceAll(text, secret, Mask)
	}
	return text
}

// Len returns the number of registered secrets.
func (r *Redactor) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.secrets)
}
