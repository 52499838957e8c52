package primitives

import "errors"

var (
	// ErrInvalidID indicates a value that is not a valid UUID.
	ErrInvalidID = errors.New("invalid id")

	// ErrInvalidEmail indicates a malformed email address.
	ErrInvalidEmail = errors.New("invalid email address")

	// ErrInvalidPassword indicates a password that does not match the
	// stored hash.
	ErrInvalidPassword = errors.New("invalid password")

	// ErrPasswordPolicy indicates a plaintext password rejected by the
	// password policy. Use errors.Is to test for it; the concrete error
	// is a *PolicyViolation naming the violated rule.
	ErrPasswordPolicy = errors.New("password does not meet policy")

	// ErrInvalidTimestamp indicates a zero or unparseable timestamp.
	ErrInvalidTimestamp = errors.New("invalid timestamp")
)

// PolicyViolation reports which password policy rule a value violated.
type PolicyViolation struct {
	// Rule is one of "length", "repeat", "lowercase", "uppercase",
	// "digit", "symbol" or "forbidden".
	Rule string
}

// Error returns the violation message.
func (v *PolicyViolation) Error() string {
	return "password policy violation: " + v.Rule
}

// Is reports true for ErrPasswordPolicy so callers can match the
// sentinel without knowing the concrete rule.
func (v *PolicyViolation) Is(target error) bool {
	return target == ErrPasswordPolicy
}
