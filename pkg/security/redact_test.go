// Copyright 2026 The Phaser Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package security_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/phaser-svc/phaser/pkg/security"
)

func TestLooksSecret(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"GITHUB_TOKEN", true},
		{"NPM_AUTH_TOKEN", true},
		{"DB_PASSWORD", true},
		{"password", true},
		{"API_KEY", true},
		{"MY_APIKEY", true},
		{"AWS_ACCESS_KEY_ID", true},
		{"DEPLOY_PRIVATE_KEY", true},
		{"SERVICE_CREDENTIALS", true},
		{"WEBHOOK_SECRET", true},
		{"PATH", false},
		{"HOME", false},
		{"CGO_ENABLED", false},
		{"TOKENIZER", false},
		{"GOFLAGS", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, security.LooksSecret(tt.key))
		})
	}
}

func TestRedactorMasksRegisteredValues(t *testing.T) {
	r := security.NewRedactor()
	r.Add("hunter2secret")

	out := r.Redact("export TOKEN=hunter2secret\ndone")
	assert.Equal(t, "export TOKEN=***\ndone", out)
}

func TestRedactorIgnoresShortValues(t *testing.T) {
	r := security.NewRedactor()
	r.Add("go", "1", "abc")

	assert.Equal(t, 0, r.Len())
	assert.Equal(t, "go build", r.Redact("go build"))
}

func TestRedactorDeduplicates(t *testing.T) {
	r := security.NewRedactor()
	r.Add("hunter2secret")
	r.Add("hunter2secret")

	assert.Equal(t, 1, r.Len())
}

func TestRedactorLongestFirst(t *testing.T) {
	r := security.NewRedactor()
	r.Add("hunter2")
	r.Add("hunter2-extended")

	// The longer secret must be masked whole, not broken by the shorter one
	assert.Equal(t, "value=***", r.Redact("value=hunter2-extended"))
	assert.Equal(t, "value=***", r.Redact("value=hunter2"))
}

func TestRedactorMultipleOccurrences(t *testing.T) {
	r := security.NewRedactor()
	r.Add("s3cr3tvalue")

	out := r.Redact("s3cr3tvalue and again s3cr3tvalue")
	assert.Equal(t, "*** and again ***", out)
	assert.False(t, strings.Contains(out, "s3cr3tvalue"))
}
