// Package policy enforces the signup input rules for usernames and passwords.
package policy

import (
	"unicode"
	"unicode/utf8"

	"github.com/dmitrijs2005/strongholder/internal/common"
)

const (
	MinUsernameLength = 3
	MaxUsernameLength = 255
	MinPasswordLength = 12
	MaxPasswordLength = 255
)

// ValidateSignup checks username and password and returns the first rule
// that fails, in this order: username length, password upper bound, password
// minimum length, upper+lower case, digit, special character. Anything else
// unacceptable in the password is common.ErrInvalidPassword, and a username
// that is not valid UTF-8 is common.ErrInvalidUsername.
func ValidateSignup(username, password string) error {
	if !utf8.ValidString(username) {
		return common.ErrInvalidUsername
	}
	switch n := utf8.RuneCountInString(username); {
	case n < MinUsernameLength:
		return common.ErrUsernameTooShort
	case n > MaxUsernameLength:
		return common.ErrUsernameTooLong
	}

	if !utf8.ValidString(password) {
		return common.ErrInvalidPassword
	}
	n := utf8.RuneCountInString(password)
	if n > MaxPasswordLength {
		return common.ErrPasswordTooLong
	}
	if n < MinPasswordLength {
		return common.ErrPasswordTooShort
	}

	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsControl(r):
			return common.ErrInvalidPassword
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsLetter(r), unicode.IsSpace(r):
		default:
			special = true
		}
	}

	switch {
	case !upper || !lower:
		return common.ErrMajusculeMissing
	case !digit:
		return common.ErrNumberMissing
	case !special:
		return common.ErrSpecialCharMissing
	}
	return nil
}
