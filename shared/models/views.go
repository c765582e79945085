package models

// EmployeeView is the merged projection of an employee returned to callers.
// A nil PersonalDetails means no local record exists for the identity user;
// the HR-owned fields are then left out of the JSON entirely.
type EmployeeView struct {
	ID string `json:"id"`
	*PersonalDetails
	Emails []string `json:"emails"`
	Roles  []Role   `json:"roles"`
}

// ComposeEmployee overlays the HR-owned fields of record onto the identity
// projection. record may be nil; when present its id wins, since an identity
// response may leave the id out.
func ComposeEmployee(user *IdentityUser, record *EmployeeRecord) *EmployeeView {
	view := &EmployeeView{
		ID:     user.ID,
		Emails: user.Emails,
		Roles:  user.Roles,
	}
	if record != nil {
		view.ID = record.ID
		details := record.PersonalDetails
		view.PersonalDetails = &details
	}
	return view
}
