package util

import "testing"

func TestValidateEmail(t *testing.T) {
	valid := []string{"a@b.co", "first.last+tag@example.com", "user_99@sub.domain.org"}
	for _, email := range valid {
		if !ValidateEmail(email) {
			t.Errorf("ValidateEmail(%q) = false, want true", email)
		}
	}
	invalid := []string{"", "plain", "missing@tld", "@example.com", "spaces in@example.com"}
	for _, email := range invalid {
		if ValidateEmail(email) {
			t.Errorf("ValidateEmail(%q) = true, want false", email)
		}
	}
}

func TestValidateUsername(t *testing.T) {
	if !ValidateUsername("abc") {
		t.Error("3-character username rejected")
	}
	if ValidateUsername("ab") {
		t.Error("2-character username accepted")
	}
	if ValidateUsername("this-username-is-far-too-long-to-accept") {
		t.Error("over-long username accepted")
	}
}

func TestValidatePassword(t *testing.T) {
	if !ValidatePassword("Str0ng!pass") {
		t.Error("strong password rejected")
	}
	weak := []string{"short1!", "alllowercase1!", "ALLUPPERCASE1!", "NoDigits!!", "NoSpecial99"}
	for _, pw := range weak {
		if ValidatePassword(pw) {
			t.Errorf("ValidatePassword(%q) = true, want false", pw)
		}
	}
}

func TestValidatePattern(t *testing.T) {
	valid := []string{"starbucks", "amazon|staples", `uber\s+eats`, "^sq \\*"}
	for _, p := range valid {
		if !ValidatePattern(p) {
			t.Errorf("ValidatePattern(%q) = false, want true", p)
		}
	}
	invalid := []string{"", "([unclosed", "a{2,1}"}
	for _, p := range invalid {
		if ValidatePattern(p) {
			t.Errorf("ValidatePattern(%q) = true, want false", p)
		}
	}
}

func TestValidateDate(t *testing.T) {
	if !ValidateDate("2026-01-31") {
		t.Error("valid date rejected")
	}
	bad := []string{"", "01-31-2026", "2026-13-01", "2026-01-32", "yesterday"}
	for _, d := range bad {
		if ValidateDate(d) {
			t.Errorf("ValidateDate(%q) = true, want false", d)
		}
	}
}
