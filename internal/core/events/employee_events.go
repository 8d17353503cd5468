package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EmployeeCreated = "employee.created"
	EmployeeUpdated = "employee.updated"
	EmployeeDeleted = "employee.deleted"
)

// EmployeeEvent records a change to a directory entry.
type EmployeeEvent struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	Timestamp  time.Time `json:"timestamp"`
	EmployeeID string    `json:"employee_id"`
	Department string    `json:"department,omitempty"`
}

func NewEmployeeEvent(eventType, employeeID, department string) *EmployeeEvent {
	return &EmployeeEvent{
		ID:         uuid.NewString(),
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		EmployeeID: employeeID,
		Department: department,
	}
}

func (e *EmployeeEvent) EventType() string     { return e.Type }
func (e *EmployeeEvent) EventID() string       { return e.ID }
func (e *EmployeeEvent) OccurredAt() time.Time { return e.Timestamp }
