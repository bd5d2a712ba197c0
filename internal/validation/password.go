package validation

import (
	"errors"
)

const (
	PasswordMinLength = 8
	// bcrypt silently truncates anything longer
	PasswordMaxLength = 72
)

func ValidatePassword(password string) error {
	if len(password) < PasswordMinLength {
		return errors.New("password must be at least 8 characters")
	}

	if len(password) > PasswordMaxLength {
		return errors.New("password must not exceed 72 characters")
	}

	return nil
}
