package employee

import (
	"errors"
	"time"

	employeeDatamodel "github.com/frahmantamala/employee-directory/internal/core/datamodel/employee"
)

// Departments an employee may belong to.
var Departments = []string{"Engineering", "Marketing", "Sales", "HR", "Finance"}

var (
	ErrNotFound  = errors.New("employee not found")
	ErrDuplicate = errors.New("employee email already exists")
)

type Employee struct {
	ID         string    `json:"id"`
	FullName   string    `json:"fullName"`
	Position   string    `json:"position"`
	Department string    `json:"department"`
	Email      string    `json:"email"`
	Image      *string   `json:"image"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// IsValidDepartment is an exact, case-sensitive match.
func IsValidDepartment(name string) bool {
	for _, d := range Departments {
		if d == name {
			return true
		}
	}
	return false
}

func ToDataModel(e *Employee) *employeeDatamodel.Employee {
	return &employeeDatamodel.Employee{
		ID:         e.ID,
		FullName:   e.FullName,
		Position:   e.Position,
		Department: e.Department,
		Email:      e.Email,
		Image:      e.Image,
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  e.UpdatedAt,
	}
}

func FromDataModel(e *employeeDatamodel.Employee) *Employee {
	return &Employee{
		ID:         e.ID,
		FullName:   e.FullName,
		Position:   e.Position,
		Department: e.Department,
		Email:      e.Email,
		Image:      e.Image,
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  e.UpdatedAt,
	}
}
