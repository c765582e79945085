// Package identitytest provides an in-memory stand-in for the identity
// service, for use in tests of its callers.
package identitytest

import (
	"context"
	"net/http"
	"sync"

	"github.com/eaglebank/personnel-service/internal/identity"
	"github.com/eaglebank/personnel-service/shared/models"
)

// Fake keeps identity users in memory and counts the calls it receives.
// Setting Err makes every call fail with it.
type Fake struct {
	mu    sync.Mutex
	order []string
	users map[string]models.IdentityUser

	Err   error
	Calls map[string]int
	// Token is the credential of the last call.
	Token string
}

func New() *Fake {
	return &Fake{
		users: make(map[string]models.IdentityUser),
		Calls: make(map[string]int),
	}
}

// Seed stores users as if they had been created upstream.
func (f *Fake) Seed(users ...models.IdentityUser) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range users {
		if _, ok := f.users[u.ID]; !ok {
			f.order = append(f.order, u.ID)
		}
		f.users[u.ID] = u
	}
}

func (f *Fake) CallCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Calls[method]
}

func (f *Fake) record(method, token string) error {
	f.Calls[method]++
	f.Token = token
	return f.Err
}

func (f *Fake) ListUsers(_ context.Context, token string) ([]models.IdentityUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("ListUsers", token); err != nil {
		return nil, err
	}
	users := make([]models.IdentityUser, 0, len(f.order))
	for _, id := range f.order {
		users = append(users, f.users[id])
	}
	return users, nil
}

func (f *Fake) GetUser(_ context.Context, id, token string) (*models.IdentityUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("GetUser", token); err != nil {
		return nil, err
	}
	u, ok := f.users[id]
	if !ok {
		return nil, identity.ErrUserNotFound
	}
	return &u, nil
}

func (f *Fake) CreateUser(_ context.Context, req identity.CreateUserRequest, token string) (*models.IdentityUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("CreateUser", token); err != nil {
		return nil, err
	}
	u := models.IdentityUser{ID: req.ID, Emails: req.Emails, Roles: req.Roles}
	if _, ok := f.users[u.ID]; !ok {
		f.order = append(f.order, u.ID)
	}
	f.users[u.ID] = u
	return &u, nil
}

func (f *Fake) UpdateUser(_ context.Context, id string, req identity.UpdateUserRequest, token string) (*models.IdentityUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("UpdateUser", token); err != nil {
		return nil, err
	}
	u, ok := f.users[id]
	if !ok {
		return nil, &identity.StatusError{StatusCode: http.StatusNotFound, Message: "User not found"}
	}
	if req.Emails != nil {
		u.Emails = req.Emails
	}
	if req.Roles != nil {
		u.Roles = req.Roles
	}
	f.users[id] = u
	return &u, nil
}

func (f *Fake) DeleteUser(_ context.Context, id, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("DeleteUser", token); err != nil {
		return err
	}
	if _, ok := f.users[id]; !ok {
		return &identity.StatusError{StatusCode: http.StatusNotFound, Message: "User not found"}
	}
	delete(f.users, id)
	for i, oid := range f.order {
		if oid == id {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	return nil
}
