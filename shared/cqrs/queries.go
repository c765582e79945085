package cqrs

// ListEmployeesQuery fetches every employee known to the identity service.
type ListEmployeesQuery struct {
	Token string
}

// GetEmployeeQuery fetches a single employee by ID.
type GetEmployeeQuery struct {
	EmployeeID string
	Token      string
}
