package events

import "github.com/eaglebank/personnel-service/shared/models"

// Topics
const (
	EmployeeCreatedTopic = "db.personnel.create-employee"
	EmployeeUpdatedTopic = "db.personnel.update-employee"
	EmployeeDeletedTopic = "db.personnel.delete-employee"
)

// Employee events

type EmployeeCreatedEvent struct {
	ID     string        `json:"id"`
	Emails []string      `json:"emails"`
	Roles  []models.Role `json:"roles"`
}

type EmployeeUpdatedEvent struct {
	ID     string        `json:"id"`
	Emails []string      `json:"emails"`
	Roles  []models.Role `json:"roles"`
}

type EmployeeDeletedEvent struct {
	ID string `json:"id"`
}
