package authn

import "strings"

const minPasswordLength = 8

// specialChars is the set counted as the "special" character class.
const specialChars = "!@#$%^&*()_+-=[]{}|;:,.<>?"

// ValidatePassword checks a candidate password against the local complexity
// rules: at least 8 characters and at least three of the four character
// classes (uppercase, lowercase, digit, special). The domain enforces its
// own policy on top; this check exists to reject obviously weak passwords
// before a directory round trip. Returns a human-readable reason when the
// password is rejected.
func ValidatePassword(password string) (bool, string) {
	if len(password) < minPasswordLength {
		return false, "password must be at least 8 characters long"
	}

	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(specialChars, r):
			special = true
		}
	}

	classes := 0
	for _, ok := range []bool{upper, lower, digit, special} {
		if ok {
			classes++
		}
	}
	if classes < 3 {
		return false, "password must contain at least 3 of: uppercase letters, lowercase letters, digits, special characters"
	}
	return true, ""
}
