package password

import (
	"errors"
	"strings"
)

// ErrPolicy is the sentinel wrapped by every [*PolicyError], enabling
// errors.Is checks without inspecting individual violations.
var ErrPolicy = errors.New("password policy violation")

// DefaultSpecialSet is the character set accepted by the special-character rule.
const DefaultSpecialSet = `!@#$%^&*()_+-=[]{};':"\|,.<>/?~` + "`"

// Violation is a single human-readable policy rule failure. Violations are
// surfaced to end users verbatim.
type Violation string

const (
	// ViolationTooShort reports a password below the minimum length.
	ViolationTooShort Violation = "password must be at least 8 characters long"
	// ViolationNoUppercase reports a missing uppercase letter.
	ViolationNoUppercase Violation = "password must contain at least one uppercase letter"
	// ViolationNoLowercase reports a missing lowercase letter.
	ViolationNoLowercase Violation = "password must contain at least one lowercase letter"
	// ViolationNoDigit reports a missing digit.
	ViolationNoDigit Violation = "password must contain at least one digit"
	// ViolationNoSpecial reports a missing special character.
	ViolationNoSpecial Violation = "password must contain at least one special character"
)

// PolicyError carries every violated rule in rule order. It unwraps to
// [ErrPolicy].
type PolicyError struct {
	Violations []Violation
}

// Error joins all violations into a single message.
func (e *PolicyError) Error() string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = string(v)
	}
	return "password policy violation: " + strings.Join(msgs, "; ")
}

// Unwrap returns [ErrPolicy] so callers can match with errors.Is.
func (e *PolicyError) Unwrap() error {
	return ErrPolicy
}

// Policy enforces password strength rules. The zero value is not usable;
// construct with [NewPolicy].
type Policy struct {
	minLength  int
	specialSet string
}

// NewPolicy returns a Policy with the given minimum length. Non-positive
// minLength falls back to 8; an empty specialSet falls back to
// [DefaultSpecialSet].
func NewPolicy(minLength int, specialSet string) *Policy {
	if minLength <= 0 {
		minLength = 8
	}
	if specialSet == "" {
		specialSet = DefaultSpecialSet
	}
	return &Policy{minLength: minLength, specialSet: specialSet}
}

// Validate checks candidate against every rule and returns a [*PolicyError]
// listing all violations in rule order, or nil when the candidate satisfies
// the policy. Rules are independent: a short password with no digit reports
// both failures.
func (p *Policy) Validate(candidate string) error {
	var violations []Violation

	if len(candidate) < p.minLength {
		violations = append(violations, ViolationTooShort)
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range candidate {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasDigit = true
		case strings.ContainsRune(p.specialSet, r):
			hasSpecial = true
		}
	}

	if !hasUpper {
		violations = append(violations, ViolationNoUppercase)
	}
	if !hasLower {
		violations = append(violations, ViolationNoLowercase)
	}
	if !hasDigit {
		violations = append(violations, ViolationNoDigit)
	}
	if !hasSpecial {
		violations = append(violations, ViolationNoSpecial)
	}

	if len(violations) > 0 {
		return &PolicyError{Violations: violations}
	}
	return nil
}
