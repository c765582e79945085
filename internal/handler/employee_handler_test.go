package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/eaglebank/personnel-service/internal/identity"
	"github.com/eaglebank/personnel-service/shared/apperror"
	"github.com/eaglebank/personnel-service/shared/cqrs"
	"github.com/eaglebank/personnel-service/shared/models"
	"github.com/gin-gonic/gin"
)

// ---- mock implementations ----

type mockEmployeeCommander struct {
	createFn func(cqrs.CreateEmployeeCommand) (*models.EmployeeView, error)
	updateFn func(cqrs.UpdateEmployeeCommand) (*models.EmployeeView, error)
	deleteFn func(cqrs.DeleteEmployeeCommand) (*models.EmployeeRecord, error)
}

func (m *mockEmployeeCommander) CreateEmployee(_ context.Context, cmd cqrs.CreateEmployeeCommand) (*models.EmployeeView, error) {
	if m.createFn != nil {
		return m.createFn(cmd)
	}
	return nil, fmt.Errorf("not configured")
}
func (m *mockEmployeeCommander) UpdateEmployee(_ context.Context, cmd cqrs.UpdateEmployeeCommand) (*models.EmployeeView, error) {
	if m.updateFn != nil {
		return m.updateFn(cmd)
	}
	return nil, fmt.Errorf("not configured")
}
func (m *mockEmployeeCommander) DeleteEmployee(_ context.Context, cmd cqrs.DeleteEmployeeCommand) (*models.EmployeeRecord, error) {
	if m.deleteFn != nil {
		return m.deleteFn(cmd)
	}
	return nil, fmt.Errorf("not configured")
}

type mockEmployeeQuerier struct {
	listFn func(cqrs.ListEmployeesQuery) ([]*models.EmployeeView, error)
	getFn  func(cqrs.GetEmployeeQuery) (*models.EmployeeView, error)
}

func (m *mockEmployeeQuerier) ListEmployees(_ context.Context, q cqrs.ListEmployeesQuery) ([]*models.EmployeeView, error) {
	if m.listFn != nil {
		return m.listFn(q)
	}
	return nil, fmt.Errorf("not configured")
}
func (m *mockEmployeeQuerier) GetEmployee(_ context.Context, q cqrs.GetEmployeeQuery) (*models.EmployeeView, error) {
	if m.getFn != nil {
		return m.getFn(q)
	}
	return nil, fmt.Errorf("not configured")
}

// ---- helpers ----

func fakeAuthToken(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("token", token)
		c.Next()
	}
}

func newEmployeeTestRouter(cmds EmployeeCommander, qrys EmployeeQuerier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(fakeAuthToken("tok"))
	h := NewEmployeeHandler(cmds, qrys)
	personnel := r.Group("/personnel")
	personnel.GET("", h.ListEmployees)
	personnel.GET("/:id", h.GetEmployee)
	personnel.POST("", h.CreateEmployee)
	personnel.PATCH("/:id", h.UpdateEmployee)
	personnel.DELETE("/:id", h.DeleteEmployee)
	return r
}

func employeeDoRequest(router *gin.Engine, method, url string, body interface{}) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, url, nil)
	if body != nil {
		b, _ := json.Marshal(body)
		req, _ = http.NewRequest(method, url, strings.NewReader(string(b)))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// ---- test data ----

const eTestID = "4f1c2d3e-5a6b-4c7d-8e9f-0a1b2c3d4e5f"

var eTestView = &models.EmployeeView{
	ID: eTestID,
	PersonalDetails: &models.PersonalDetails{
		Firstname: "John", Lastname: "Doe", Salary: 2000,
		Address: "Street 1 City", PhoneNumber: "0643724597",
		CreatedAt: time.Now(), UpdatedAt: time.Now(),
	},
	Emails: []string{"j@x.com"},
	Roles:  []models.Role{models.RoleUser},
}

func eValidCreateBody() map[string]interface{} {
	return map[string]interface{}{
		"firstname": "John", "lastname": "Doe", "salary": 2000,
		"address": "Street 1 City", "phoneNumber": "0643724597",
		"emails": []string{"j@x.com"}, "roles": []string{"ROLE_USER"},
		"password": "Secret123",
	}
}

func withField(body map[string]interface{}, key string, value interface{}) map[string]interface{} {
	body[key] = value
	return body
}

// ---- tests ----

func TestListEmployees(t *testing.T) {
	tests := []struct {
		name           string
		listFn         func(cqrs.ListEmployeesQuery) ([]*models.EmployeeView, error)
		expectedStatus int
	}{
		{
			name: "success - lists employees",
			listFn: func(q cqrs.ListEmployeesQuery) ([]*models.EmployeeView, error) {
				if q.Token != "tok" {
					return nil, fmt.Errorf("token not forwarded")
				}
				return []*models.EmployeeView{eTestView}, nil
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "service unavailable - identity unreachable",
			listFn: func(q cqrs.ListEmployeesQuery) ([]*models.EmployeeView, error) {
				return nil, fmt.Errorf("list: %w", identity.ErrUnavailable)
			},
			expectedStatus: http.StatusServiceUnavailable,
		},
		{
			name: "forbidden - identity rejects caller",
			listFn: func(q cqrs.ListEmployeesQuery) ([]*models.EmployeeView, error) {
				return nil, &identity.StatusError{StatusCode: http.StatusForbidden}
			},
			expectedStatus: http.StatusForbidden,
		},
		{
			name: "bad gateway - identity fails",
			listFn: func(q cqrs.ListEmployeesQuery) ([]*models.EmployeeView, error) {
				return nil, &identity.StatusError{StatusCode: http.StatusInternalServerError}
			},
			expectedStatus: http.StatusBadGateway,
		},
		{
			name: "internal error - store fails",
			listFn: func(q cqrs.ListEmployeesQuery) ([]*models.EmployeeView, error) {
				return nil, fmt.Errorf("db down")
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newEmployeeTestRouter(&mockEmployeeCommander{}, &mockEmployeeQuerier{listFn: tt.listFn})
			w := employeeDoRequest(router, http.MethodGet, "/personnel", nil)
			if w.Code != tt.expectedStatus {
				t.Errorf("[%s] expected status %d, got %d; body: %s", tt.name, tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestListEmployees_IdentityOnlyView(t *testing.T) {
	qrys := &mockEmployeeQuerier{listFn: func(q cqrs.ListEmployeesQuery) ([]*models.EmployeeView, error) {
		return []*models.EmployeeView{{ID: eTestID, Emails: []string{"g@x.com"}, Roles: []models.Role{models.RoleHR}}}, nil
	}}
	router := newEmployeeTestRouter(&mockEmployeeCommander{}, qrys)
	w := employeeDoRequest(router, http.MethodGet, "/personnel", nil)

	want := `[{"id":"` + eTestID + `","emails":["g@x.com"],"roles":["ROLE_HR"]}]`
	if w.Body.String() != want {
		t.Errorf("expected body %s, got %s", want, w.Body.String())
	}
}

func TestGetEmployee(t *testing.T) {
	tests := []struct {
		name           string
		urlID          string
		getFn          func(cqrs.GetEmployeeQuery) (*models.EmployeeView, error)
		expectedStatus int
	}{
		{
			name:           "success - fetch employee",
			urlID:          eTestID,
			getFn:          func(q cqrs.GetEmployeeQuery) (*models.EmployeeView, error) { return eTestView, nil },
			expectedStatus: http.StatusOK,
		},
		{
			name:           "bad request - id is not a uuid",
			urlID:          "emp-1",
			getFn:          nil,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:  "not found - employee does not exist",
			urlID: eTestID,
			getFn: func(q cqrs.GetEmployeeQuery) (*models.EmployeeView, error) {
				return nil, apperror.ErrEmployeeNotFound
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:  "unauthorized - identity rejects token",
			urlID: eTestID,
			getFn: func(q cqrs.GetEmployeeQuery) (*models.EmployeeView, error) {
				return nil, fmt.Errorf("get: %w", &identity.StatusError{StatusCode: http.StatusUnauthorized, Message: "Token expired"})
			},
			expectedStatus: http.StatusUnauthorized,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newEmployeeTestRouter(&mockEmployeeCommander{}, &mockEmployeeQuerier{getFn: tt.getFn})
			w := employeeDoRequest(router, http.MethodGet, "/personnel/"+tt.urlID, nil)
			if w.Code != tt.expectedStatus {
				t.Errorf("[%s] expected status %d, got %d; body: %s", tt.name, tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestCreateEmployee(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		createFn       func(cqrs.CreateEmployeeCommand) (*models.EmployeeView, error)
		expectedStatus int
	}{
		{
			name: "success - creates new employee",
			body: eValidCreateBody(),
			createFn: func(cmd cqrs.CreateEmployeeCommand) (*models.EmployeeView, error) {
				if cmd.Firstname != "John" || cmd.Password != "Secret123" || cmd.Token != "tok" {
					return nil, fmt.Errorf("unexpected command %+v", cmd)
				}
				return eTestView, nil
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "bad request - missing required fields",
			body:           map[string]interface{}{"firstname": "John"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "bad request - firstname too short",
			body:           withField(eValidCreateBody(), "firstname", "J"),
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "bad request - weak password",
			body:           withField(eValidCreateBody(), "password", "secret"),
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "bad request - invalid email",
			body:           withField(eValidCreateBody(), "emails", []string{"not-valid"}),
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "bad request - unknown role",
			body:           withField(eValidCreateBody(), "roles", []string{"ROLE_ADMIN"}),
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "bad request - malformed phone number",
			body:           withField(eValidCreateBody(), "phoneNumber", "call me"),
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "bad request - negative salary",
			body:           withField(eValidCreateBody(), "salary", -1),
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "bad gateway - identity rejects user",
			body: eValidCreateBody(),
			createFn: func(cmd cqrs.CreateEmployeeCommand) (*models.EmployeeView, error) {
				return nil, &identity.StatusError{StatusCode: http.StatusConflict, Message: "Email taken"}
			},
			expectedStatus: http.StatusBadGateway,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmds := &mockEmployeeCommander{createFn: tt.createFn}
			router := newEmployeeTestRouter(cmds, &mockEmployeeQuerier{})
			w := employeeDoRequest(router, http.MethodPost, "/personnel", tt.body)
			if w.Code != tt.expectedStatus {
				t.Errorf("[%s] expected status %d, got %d; body: %s", tt.name, tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestUpdateEmployee(t *testing.T) {
	tests := []struct {
		name           string
		urlID          string
		body           interface{}
		updateFn       func(cqrs.UpdateEmployeeCommand) (*models.EmployeeView, error)
		expectedStatus int
	}{
		{
			name:  "success - partial update",
			urlID: eTestID,
			body:  map[string]interface{}{"firstname": "Jo", "salary": 1500},
			updateFn: func(cmd cqrs.UpdateEmployeeCommand) (*models.EmployeeView, error) {
				if cmd.Changes.Firstname == nil || *cmd.Changes.Firstname != "Jo" ||
					cmd.Changes.Salary == nil || *cmd.Changes.Salary != 1500 ||
					cmd.Changes.Lastname != nil || cmd.Emails != nil {
					return nil, fmt.Errorf("unexpected command %+v", cmd)
				}
				return eTestView, nil
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:  "success - identity fields only",
			urlID: eTestID,
			body:  map[string]interface{}{"roles": []string{"ROLE_MANAGER"}},
			updateFn: func(cmd cqrs.UpdateEmployeeCommand) (*models.EmployeeView, error) {
				if !cmd.Changes.Empty() || len(cmd.Roles) != 1 {
					return nil, fmt.Errorf("unexpected command %+v", cmd)
				}
				return eTestView, nil
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "bad request - empty body",
			urlID:          eTestID,
			body:           map[string]interface{}{},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "bad request - no body",
			urlID:          eTestID,
			body:           nil,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "bad request - id is not a uuid",
			urlID:          "emp-1",
			body:           map[string]interface{}{"firstname": "Jo"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "bad request - invalid lastname",
			urlID:          eTestID,
			body:           map[string]interface{}{"lastname": "D"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "bad request - blank phone number",
			urlID:          eTestID,
			body:           map[string]interface{}{"phoneNumber": ""},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "bad request - blank firstname",
			urlID:          eTestID,
			body:           map[string]interface{}{"firstname": "  "},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "bad request - malformed phone number",
			urlID:          eTestID,
			body:           map[string]interface{}{"phoneNumber": "12ab"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:  "success - new phone number",
			urlID: eTestID,
			body:  map[string]interface{}{"phoneNumber": "+44 20 7946 0958"},
			updateFn: func(cmd cqrs.UpdateEmployeeCommand) (*models.EmployeeView, error) {
				if cmd.Changes.PhoneNumber == nil || *cmd.Changes.PhoneNumber != "+44 20 7946 0958" {
					return nil, fmt.Errorf("unexpected command %+v", cmd)
				}
				return eTestView, nil
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:  "not found - employee does not exist",
			urlID: eTestID,
			body:  map[string]interface{}{"firstname": "Jo"},
			updateFn: func(cmd cqrs.UpdateEmployeeCommand) (*models.EmployeeView, error) {
				return nil, apperror.ErrEmployeeNotFound
			},
			expectedStatus: http.StatusNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmds := &mockEmployeeCommander{updateFn: tt.updateFn}
			router := newEmployeeTestRouter(cmds, &mockEmployeeQuerier{})
			w := employeeDoRequest(router, http.MethodPatch, "/personnel/"+tt.urlID, tt.body)
			if w.Code != tt.expectedStatus {
				t.Errorf("[%s] expected status %d, got %d; body: %s", tt.name, tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestDeleteEmployee(t *testing.T) {
	tests := []struct {
		name           string
		urlID          string
		deleteFn       func(cqrs.DeleteEmployeeCommand) (*models.EmployeeRecord, error)
		expectedStatus int
	}{
		{
			name:  "success - delete employee",
			urlID: eTestID,
			deleteFn: func(cmd cqrs.DeleteEmployeeCommand) (*models.EmployeeRecord, error) {
				return &models.EmployeeRecord{ID: cmd.EmployeeID}, nil
			},
			expectedStatus: http.StatusNoContent,
		},
		{
			name:           "bad request - id is not a uuid",
			urlID:          "emp-1",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:  "not found - employee does not exist",
			urlID: eTestID,
			deleteFn: func(cmd cqrs.DeleteEmployeeCommand) (*models.EmployeeRecord, error) {
				return nil, apperror.ErrEmployeeNotFound
			},
			expectedStatus: http.StatusNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmds := &mockEmployeeCommander{deleteFn: tt.deleteFn}
			router := newEmployeeTestRouter(cmds, &mockEmployeeQuerier{})
			w := employeeDoRequest(router, http.MethodDelete, "/personnel/"+tt.urlID, nil)
			if w.Code != tt.expectedStatus {
				t.Errorf("[%s] expected status %d, got %d; body: %s", tt.name, tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}
