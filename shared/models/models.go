package models

import "time"

// Role is an identity-owned permission tag.
type Role string

const (
	RoleUser      Role = "ROLE_USER"
	RoleDeveloper Role = "ROLE_DEVELOPER"
	RoleHR        Role = "ROLE_HR"
	RoleManager   Role = "ROLE_MANAGER"
)

// PersonalDetails holds the HR-owned attributes of an employee.
type PersonalDetails struct {
	Firstname   string    `json:"firstname" bson:"firstname"`
	Lastname    string    `json:"lastname" bson:"lastname"`
	Salary      float64   `json:"salary" bson:"salary"`
	Address     string    `json:"address" bson:"address"`
	PhoneNumber string    `json:"phoneNumber" bson:"phoneNumber"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updatedAt"`
}

// EmployeeRecord is the document persisted by the record store.
type EmployeeRecord struct {
	ID              string `json:"id" bson:"_id"`
	PersonalDetails `bson:",inline"`
}

// EmployeeChanges is a partial update of the HR-owned attributes.
// Nil fields are left untouched.
type EmployeeChanges struct {
	Firstname   *string
	Lastname    *string
	Salary      *float64
	Address     *string
	PhoneNumber *string
}

// Empty reports whether no field is set.
func (c EmployeeChanges) Empty() bool {
	return c.Firstname == nil && c.Lastname == nil && c.Salary == nil &&
		c.Address == nil && c.PhoneNumber == nil
}

// Apply merges the set fields into d.
func (c EmployeeChanges) Apply(d *PersonalDetails) {
	if c.Firstname != nil {
		d.Firstname = *c.Firstname
	}
	if c.Lastname != nil {
		d.Lastname = *c.Lastname
	}
	if c.Salary != nil {
		d.Salary = *c.Salary
	}
	if c.Address != nil {
		d.Address = *c.Address
	}
	if c.PhoneNumber != nil {
		d.PhoneNumber = *c.PhoneNumber
	}
}

// IdentityUser is the projection returned by the identity service.
type IdentityUser struct {
	ID     string   `json:"id"`
	Emails []string `json:"emails"`
	Roles  []Role   `json:"roles"`
}
