// Copyright 2026 The Phaser Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

var (
	// ErrMissingSignature means the delivery carried no signature while
	// the server expects one.
	ErrMissingSignature = errors.New("missing webhook signature")
	// ErrBadSignature means the signature did not match the payload.
	ErrBadSignature = errors.New("webhook signature mismatch")
)

// SignatureHeader is the header GitHub sends the payload HMAC in.
const SignatureHeader = "X-Hub-Signature-256"

// VerifySignature checks a "sha256=<hex>" signature over body. The
// comparison is constant time.
func VerifySignature(secret, body []byte, signature string) error {
	if signature == "" {
		return ErrMissingSignature
	}

	hexDigest, ok := strings.CutPrefix(signature, "sha256=")
	if !ok {
		return ErrBadSignature
	}
	got, err := hex.DecodeString(hexDigest)
	if err != nil {
		return ErrBadSignature
	}

	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	if !hmac.Equal(got, mac.Sum(nil)) {
		return ErrBadSignature
	}
	return nil
}

// Sign computes the signature header value for a payload. Used by
// tests and by clients replaying deliveries.
func Sign(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}
