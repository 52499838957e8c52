package primitives

import (
	"fmt"
	"time"
)

// Timestamp is a UTC point in time rendered as RFC 3339 text.
type Timestamp struct {
	t time.Time
}

// Now returns the current time as a Timestamp.
func Now() Timestamp {
	return Timestamp{t: time.Now().UTC()}
}

// At converts t to a Timestamp, normalizing to UTC.
func At(t time.Time) Timestamp {
	return Timestamp{t: t.UTC()}
}

// ParseTimestamp parses an RFC 3339 string.
func ParseTimestamp(s string) (Timestamp, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return Timestamp{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, s)
	}
	return At(t), nil
}

// Validate reports an error for the zero timestamp.
func (ts Timestamp) Validate() error {
	if ts.t.IsZero() {
		return ErrInvalidTimestamp
	}
	return nil
}

// Time returns the underlying time.
func (ts Timestamp) Time() time.Time {
	return ts.t
}

// IsZero reports whether the timestamp is unset.
func (ts Timestamp) IsZero() bool {
	return ts.t.IsZero()
}

// Equal reports whether two timestamps denote the same instant.
func (ts Timestamp) Equal(other Timestamp) bool {
	return ts.t.Equal(other.t)
}

// Before reports whether ts is before other.
func (ts Timestamp) Before(other Timestamp) bool {
	return ts.t.Before(other.t)
}

// After reports whether ts is after other.
func (ts Timestamp) After(other Timestamp) bool {
	return ts.t.After(other.t)
}

// String returns the RFC 3339 representation.
func (ts Timestamp) String() string {
	return ts.t.Format(time.RFC3339Nano)
}

// MarshalText implements encoding.TextMarshaler.
func (ts Timestamp) MarshalText() ([]byte, error) {
	return []byte(ts.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (ts *Timestamp) UnmarshalText(text []byte) error {
	parsed, err := ParseTimestamp(string(text))
	if err != nil {
		return err
	}
	*ts = parsed
	return nil
}
