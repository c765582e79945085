package cqrs

import "github.com/eaglebank/personnel-service/shared/models"

type CreateEmployeeCommand struct {
	Firstname   string
	Lastname    string
	Salary      float64
	Address     string
	PhoneNumber string
	Emails      []string
	Roles       []models.Role
	Password    string
	// Token is the caller's bearer credential, forwarded to the identity service.
	Token string
}

// UpdateEmployeeCommand carries a partial update. HR-owned changes go to the
// record store, Emails/Roles/Password to the identity service.
type UpdateEmployeeCommand struct {
	EmployeeID string
	Changes    models.EmployeeChanges
	Emails     []string
	Roles      []models.Role
	Password   *string
	Token      string
}

type DeleteEmployeeCommand struct {
	EmployeeID string
	Token      string
}
