// Copyright 2026 The Phaser Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Key derives a deterministic cache key from its parts. Each part is
// length-framed before hashing so distinct part lists never collide
// through concatenation.
func Key(parts ...string) string {
	h := sha256.New()
	for _, part := range parts {
		fmt.Fprintf(h, "%d:%s", len(part), part)
	}
	return hex.EncodeToString(h.Sum(nil))
}
