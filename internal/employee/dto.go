package employee

import (
	"fmt"
	"strings"

	errors "github.com/frahmantamala/employee-directory/internal"
	"github.com/frahmantamala/employee-directory/internal/core/common/validation"
)

var departmentMessage = fmt.Sprintf("Department must be one of: %s", strings.Join(Departments, ", "))

// CreateEmployeeDTO carries the text fields of POST /employees.
type CreateEmployeeDTO struct {
	FullName   string `json:"fullName"`
	Position   string `json:"position"`
	Department string `json:"department"`
	Email      string `json:"email"`
}

// UpdateEmployeeDTO carries PUT /employees/{id}. A nil field is left unchanged.
type UpdateEmployeeDTO struct {
	FullName   *string `json:"fullName"`
	Position   *string `json:"position"`
	Department *string `json:"department"`
	Email      *string `json:"email"`
}

func (d CreateEmployeeDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("fullName", d.FullName).
		Required().WithMessage("Full name is required").
		MaxLength(255)
	v.Field("position", d.Position).
		Required().WithMessage("Position is required").
		MaxLength(255)
	v.Field("department", d.Department).
		Required().WithMessage("Department is required").
		OneOf(Departments, errors.ErrCodeInvalidDepartment).WithMessage(departmentMessage)
	v.Field("email", validation.NormalizeEmail(d.Email)).
		Required().WithMessage("Email is required").
		Email().WithMessage("Please enter a valid email")
	return v.Validate()
}

// Validate checks only the fields that are present.
func (d UpdateEmployeeDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	if d.FullName != nil {
		v.Field("fullName", d.FullName).
			Required().WithMessage("Full name is required").
			MaxLength(255)
	}
	if d.Position != nil {
		v.Field("position", d.Position).
			Required().WithMessage("Position is required").
			MaxLength(255)
	}
	if d.Department != nil {
		v.Field("department", d.Department).
			Required().WithMessage("Department is required").
			OneOf(Departments, errors.ErrCodeInvalidDepartment).WithMessage(departmentMessage)
	}
	if d.Email != nil {
		v.Field("email", validation.NormalizeEmail(*d.Email)).
			Required().WithMessage("Email is required").
			Email().WithMessage("Please enter a valid email")
	}
	return v.Validate()
}

// ToCreate treats absent fields as empty.
func (d UpdateEmployeeDTO) ToCreate() CreateEmployeeDTO {
	return CreateEmployeeDTO{
		FullName:   deref(d.FullName),
		Position:   deref(d.Position),
		Department: deref(d.Department),
		Email:      deref(d.Email),
	}
}

// apply copies the present fields onto e.
func (d UpdateEmployeeDTO) apply(e *Employee) {
	if d.FullName != nil {
		e.FullName = strings.TrimSpace(*d.FullName)
	}
	if d.Position != nil {
		e.Position = strings.TrimSpace(*d.Position)
	}
	if d.Department != nil {
		e.Department = *d.Department
	}
	if d.Email != nil {
		e.Email = validation.NormalizeEmail(*d.Email)
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
