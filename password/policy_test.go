package password

import (
	"errors"
	"testing"
)

func TestValidateAllRulesPass(t *testing.T) {
	policy := NewPolicy(8, "")

	// Exactly 8 characters, all four character classes present.
	if err := policy.Validate("Pass123!"); err != nil {
		t.Fatalf("expected valid password, got %v", err)
	}
}

func TestValidateReportsAllViolations(t *testing.T) {
	policy := NewPolicy(8, "")

	err := policy.Validate("weak")
	if err == nil {
		t.Fatal("expected policy violation")
	}
	if !errors.Is(err, ErrPolicy) {
		t.Fatalf("expected ErrPolicy, got %v", err)
	}

	var policyErr *PolicyError
	if !errors.As(err, &policyErr) {
		t.Fatalf("expected *PolicyError, got %T", err)
	}

	// "weak": too short, no uppercase, no digit, no special.
	want := []Violation{
		ViolationTooShort,
		ViolationNoUppercase,
		ViolationNoDigit,
		ViolationNoSpecial,
	}
	if len(policyErr.Violations) != len(want) {
		t.Fatalf("expected %d violations, got %d: %v", len(want), len(policyErr.Violations), policyErr.Violations)
	}
	for i, v := range want {
		if policyErr.Violations[i] != v {
			t.Fatalf("violation %d: expected %q, got %q", i, v, policyErr.Violations[i])
		}
	}
}

func TestValidateSingleRuleFailures(t *testing.T) {
	policy := NewPolicy(8, "")

	cases := []struct {
		name      string
		candidate string
		want      Violation
	}{
		{"missing uppercase", "longpass1!", ViolationNoUppercase},
		{"missing lowercase", "LONGPASS1!", ViolationNoLowercase},
		{"missing digit", "LongPass!!", ViolationNoDigit},
		{"missing special", "LongPass11", ViolationNoSpecial},
		{"too short", "Lp1!", ViolationTooShort},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := policy.Validate(tc.candidate)
			if err == nil {
				t.Fatal("expected policy violation")
			}
			var policyErr *PolicyError
			if !errors.As(err, &policyErr) {
				t.Fatalf("expected *PolicyError, got %T", err)
			}
			found := false
			for _, v := range policyErr.Violations {
				if v == tc.want {
					found = true
				}
			}
			if !found {
				t.Fatalf("expected violation %q in %v", tc.want, policyErr.Violations)
			}
		})
	}
}

func TestValidateEmpty(t *testing.T) {
	policy := NewPolicy(8, "")

	err := policy.Validate("")
	var policyErr *PolicyError
	if !errors.As(err, &policyErr) {
		t.Fatalf("expected *PolicyError, got %v", err)
	}
	if len(policyErr.Violations) != 5 {
		t.Fatalf("expected all five rules violated, got %v", policyErr.Violations)
	}
}

func TestValidateCustomSpecialSet(t *testing.T) {
	policy := NewPolicy(8, "#")

	if err := policy.Validate("Pass123#"); err != nil {
		t.Fatalf("expected valid password, got %v", err)
	}

	// '!' is not in the configured set.
	err := policy.Validate("Pass123!")
	var policyErr *PolicyError
	if !errors.As(err, &policyErr) {
		t.Fatalf("expected *PolicyError, got %v", err)
	}
	if len(policyErr.Violations) != 1 || policyErr.Violations[0] != ViolationNoSpecial {
		t.Fatalf("expected only the special-character rule to fail, got %v", policyErr.Violations)
	}
}
