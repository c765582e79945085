package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/eaglebank/personnel-service/shared/models"
	"github.com/google/uuid"
)

// ErrEmployeeNotFound is returned by every EmployeeStore lookup that misses.
var ErrEmployeeNotFound = errors.New("employee not found")

// ValidationError lists the required fields missing from a new record.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

// EmployeeStore persists the HR-owned attributes of employees.
type EmployeeStore interface {
	FindAll(ctx context.Context) ([]models.EmployeeRecord, error)
	FindByID(ctx context.Context, id string) (*models.EmployeeRecord, error)
	Create(ctx context.Context, details models.PersonalDetails) (*models.EmployeeRecord, error)
	UpdateByID(ctx context.Context, id string, changes models.EmployeeChanges) (*models.EmployeeRecord, error)
	DeleteByID(ctx context.Context, id string) (*models.EmployeeRecord, error)
}

// newRecord validates details and stamps a fresh id and timestamps.
func newRecord(details models.PersonalDetails) (*models.EmployeeRecord, error) {
	var missing []string
	if details.Firstname == "" {
		missing = append(missing, "firstname")
	}
	if details.Lastname == "" {
		missing = append(missing, "lastname")
	}
	if details.PhoneNumber == "" {
		missing = append(missing, "phoneNumber")
	}
	if len(missing) > 0 {
		return nil, &ValidationError{Fields: missing}
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	details.CreatedAt = now
	details.UpdatedAt = now
	return &models.EmployeeRecord{
		ID:              uuid.NewString(),
		PersonalDetails: details,
	}, nil
}
