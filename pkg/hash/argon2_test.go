package hash_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phaser-svc/phaser/pkg/hash"
)

// fastParams keeps the KDF cheap enough for tests.
func fastParams(t *testing.T) *hash.Argon2 {
	t.Helper()
	h, err := hash.NewArgon2WithParams(hash.Params{
		Memory:      64,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  8,
		KeyLength:   16,
	})
	require.NoError(t, err)
	return h
}

func TestHashVerifyRoundtrip(t *testing.T) {
	h := fastParams(t)

	encoded, err := h.Hash("mmholAhsbC123*")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(encoded, "$argon2id$v=19$"), "unexpected encoding: %s", encoded)

	require.NoError(t, h.Verify("mmholAhsbC123*", encoded))
}

func TestVerifyWrongPassword(t *testing.T) {
	h := fastParams(t)

	encoded, err := h.Hash("mmholAhsbC123*")
	require.NoError(t, err)

	err = h.Verify("blabla", encoded)
	assert.ErrorIs(t, err, hash.ErrMismatch)
}

func TestHashSaltsDiffer(t *testing.T) {
	h := fastParams(t)

	first, err := h.Hash("mmholAhsbC123*")
	require.NoError(t, err)
	second, err := h.Hash("mmholAhsbC123*")
	require.NoError(t, err)

	assert.NotEqual(t, first, second, "two hashes of the same password must use different salts")
}

func TestVerifyCrossParams(t *testing.T) {
	// A hash carries its own parameters, so a hasher configured
	// differently must still verify it.
	h := fastParams(t)
	encoded, err := h.Hash("mmholAhsbC123*")
	require.NoError(t, err)

	other := hash.NewArgon2()
	require.NoError(t, other.Verify("mmholAhsbC123*", encoded))
}

func TestVerifyMalformedHash(t *testing.T) {
	h := fastParams(t)

	tests := []struct {
		name    string
		encoded string
	}{
		{"empty", ""},
		{"garbage", "not-a-hash"},
		{"missing segments", "$argon2id$v=19$m=64,t=1,p=1"},
		{"wrong variant", "$argon2i$v=19$m=64,t=1,p=1$c2FsdHNhbHQ$a2V5a2V5a2V5a2V5a2V5a2U"},
		{"bad params", "$argon2id$v=19$m=64,t=one,p=1$c2FsdHNhbHQ$a2V5a2V5a2V5a2V5a2V5a2U"},
		{"bad salt b64", "$argon2id$v=19$m=64,t=1,p=1$!!!$a2V5a2V5a2V5a2V5a2V5a2U"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := h.Verify("whatever", tt.encoded)
			assert.ErrorIs(t, err, hash.ErrInvalidHash)
		})
	}
}

func TestVerifyIncompatibleVersion(t *testing.T) {
	h := fastParams(t)

	encoded, err := h.Hash("mmholAhsbC123*")
	require.NoError(t, err)

	old := strings.Replace(encoded, "v=19", "v=18", 1)
	err = h.Verify("mmholAhsbC123*", old)
	assert.ErrorIs(t, err, hash.ErrIncompatibleVersion)
}

func TestNewArgon2WithParamsRejectsBadCosts(t *testing.T) {
	tests := []struct {
		name   string
		params hash.Params
	}{
		{"zero iterations", hash.Params{Memory: 64, Iterations: 0, Parallelism: 1, SaltLength: 16, KeyLength: 32}},
		{"zero parallelism", hash.Params{Memory: 64, Iterations: 1, Parallelism: 0, SaltLength: 16, KeyLength: 32}},
		{"memory too small", hash.Params{Memory: 16, Iterations: 1, Parallelism: 4, SaltLength: 16, KeyLength: 32}},
		{"short salt", hash.Params{Memory: 64, Iterations: 1, Parallelism: 1, SaltLength: 4, KeyLength: 32}},
		{"short key", hash.Params{Memory: 64, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 8}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := hash.NewArgon2WithParams(tt.params)
			assert.Error(t, err)
		})
	}
}

func TestDefaultParams(t *testing.T) {
	p := hash.DefaultParams()
	require.NoError(t, p.Validate())
	assert.Equal(t, uint32(64*1024), p.Memory)
	assert.Equal(t, uint32(1), p.Iterations)
	assert.Equal(t, uint8(4), p.Parallelism)
}
