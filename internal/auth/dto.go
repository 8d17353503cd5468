package auth

import (
	errors "github.com/frahmantamala/employee-directory/internal"
	"github.com/frahmantamala/employee-directory/internal/core/common/validation"
)

// MinPasswordLength applies to registration only; login just requires a value.
const MinPasswordLength = 6

// MaxPasswordBytes is the most bcrypt will hash.
const MaxPasswordBytes = 72

// RegisterDTO is the transport shape of POST /users/register.
type RegisterDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginDTO is the transport shape of POST /users/login.
type LoginDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (d RegisterDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("email", validation.NormalizeEmail(d.Email)).
		Email().WithMessage("Please enter a valid email")
	v.Field("password", d.Password).Custom(passwordLength)
	return v.Validate()
}

func passwordLength(value interface{}) *errors.AppError {
	password, _ := value.(string)
	switch {
	case len(password) < MinPasswordLength:
		return errors.NewValidationFieldError("password", "Password must be at least 6 characters", errors.ErrCodePasswordTooShort)
	case len(password) > MaxPasswordBytes:
		return errors.NewValidationFieldError("password", "Password must not exceed 72 bytes", errors.ErrCodePasswordTooLong)
	}
	return nil
}

func (d LoginDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("email", validation.NormalizeEmail(d.Email)).
		Email().WithMessage("Please enter a valid email")
	v.Field("password", d.Password).
		Required().WithMessage("Password is required")
	return v.Validate()
}
