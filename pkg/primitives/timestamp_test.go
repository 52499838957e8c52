package primitives_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phaser-svc/phaser/pkg/primitives"
)

func TestNow(t *testing.T) {
	ts := primitives.Now()

	assert.False(t, ts.IsZero())
	assert.NoError(t, ts.Validate())
	assert.Equal(t, time.UTC, ts.Time().Location())
}

func TestAtNormalizesToUTC(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	local := time.Date(2026, 3, 14, 15, 9, 26, 0, loc)

	ts := primitives.At(local)

	assert.Equal(t, time.UTC, ts.Time().Location())
	assert.True(t, ts.Time().Equal(local))
}

func TestParseTimestamp(t *testing.T) {
	ts, err := primitives.ParseTimestamp("2026-03-14T15:09:26Z")
	require.NoError(t, err)
	assert.Equal(t, "2026-03-14T15:09:26Z", ts.String())
}

func TestParseTimestampInvalid(t *testing.T) {
	for _, raw := range []string{"", "blabla", "2026-13-99T00:00:00Z"} {
		_, err := primitives.ParseTimestamp(raw)
		assert.ErrorIs(t, err, primitives.ErrInvalidTimestamp, "input %q", raw)
	}
}

func TestTimestampOrdering(t *testing.T) {
	early := primitives.At(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	late := primitives.At(time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC))

	assert.True(t, early.Before(late))
	assert.True(t, late.After(early))
	assert.False(t, early.Equal(late))
	assert.True(t, early.Equal(early))
}

func TestTimestampValidateZero(t *testing.T) {
	var ts primitives.Timestamp
	assert.True(t, ts.IsZero())
	assert.ErrorIs(t, ts.Validate(), primitives.ErrInvalidTimestamp)
}

func TestTimestampTextRoundtrip(t *testing.T) {
	ts := primitives.At(time.Date(2026, 3, 14, 15, 9, 26, 123456789, time.UTC))

	text, err := ts.MarshalText()
	require.NoError(t, err)

	var back primitives.Timestamp
	require.NoError(t, back.UnmarshalText(text))
	assert.True(t, ts.Equal(back))
}
