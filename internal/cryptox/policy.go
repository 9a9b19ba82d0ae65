package cryptox

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/dmitrijs2005/gophtodo/internal/common"
)

const minPasswordLength = 8

// ValidatePassword checks password against the complexity policy: at least
// eight characters, no whitespace, and at least one lowercase letter, one
// uppercase letter, one digit and one special character. Underscore counts
// as a word character, not a special one.
//
// The returned error wraps common.ErrorWeakCredentials and never contains
// the password itself.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters long", common.ErrorWeakCredentials, minPasswordLength)
	}

	var lower, upper, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsSpace(r):
			return fmt.Errorf("%w: password must not contain whitespace", common.ErrorWeakCredentials)
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r):
		default:
			special = true
		}
	}

	if !(lower && upper && digit && special) {
		return fmt.Errorf("%w: password should contain at least 1 lowercase letter, 1 uppercase letter, 1 digit and 1 special character",
			common.ErrorWeakCredentials)
	}

	return nil
}
