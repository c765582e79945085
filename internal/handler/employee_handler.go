package handler

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strings"

	"github.com/eaglebank/personnel-service/internal/identity"
	"github.com/eaglebank/personnel-service/shared/apperror"
	"github.com/eaglebank/personnel-service/shared/cqrs"
	"github.com/eaglebank/personnel-service/shared/middleware"
	"github.com/eaglebank/personnel-service/shared/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// EmployeeCommander defines the write-side operations used by EmployeeHandler.
type EmployeeCommander interface {
	CreateEmployee(context.Context, cqrs.CreateEmployeeCommand) (*models.EmployeeView, error)
	UpdateEmployee(context.Context, cqrs.UpdateEmployeeCommand) (*models.EmployeeView, error)
	DeleteEmployee(context.Context, cqrs.DeleteEmployeeCommand) (*models.EmployeeRecord, error)
}

// EmployeeQuerier defines the read-side operations used by EmployeeHandler.
type EmployeeQuerier interface {
	ListEmployees(context.Context, cqrs.ListEmployeesQuery) ([]*models.EmployeeView, error)
	GetEmployee(context.Context, cqrs.GetEmployeeQuery) (*models.EmployeeView, error)
}

// EmployeeHandler routes requests to the command or query service as appropriate.
type EmployeeHandler struct {
	commands EmployeeCommander
	queries  EmployeeQuerier
}

type CreateEmployeeRequest struct {
	Firstname   string        `json:"firstname" validate:"required,min=2,max=20"`
	Lastname    string        `json:"lastname" validate:"required,min=2,max=20"`
	Salary      float64       `json:"salary" validate:"gte=0"`
	Address     string        `json:"address"`
	PhoneNumber string        `json:"phoneNumber" validate:"required,phone"`
	Emails      []string      `json:"emails" validate:"required,min=1,dive,email"`
	Roles       []models.Role `json:"roles" validate:"required,min=1,dive,oneof=ROLE_USER ROLE_DEVELOPER ROLE_HR ROLE_MANAGER"`
	Password    string        `json:"password" validate:"required,min=6,max=40,password"`
}

// UpdateEmployeeRequest is a partial update; absent fields are left unchanged.
type UpdateEmployeeRequest struct {
	Firstname   *string       `json:"firstname" validate:"omitempty,min=2,max=20"`
	Lastname    *string       `json:"lastname" validate:"omitempty,min=2,max=20"`
	Salary      *float64      `json:"salary" validate:"omitempty,gte=0"`
	Address     *string       `json:"address"`
	PhoneNumber *string       `json:"phoneNumber" validate:"omitempty,phone"`
	Emails      []string      `json:"emails" validate:"omitempty,min=1,dive,email"`
	Roles       []models.Role `json:"roles" validate:"omitempty,min=1,dive,oneof=ROLE_USER ROLE_DEVELOPER ROLE_HR ROLE_MANAGER"`
	Password    *string       `json:"password" validate:"omitempty,min=6,max=40,password"`
}

func (r UpdateEmployeeRequest) changes() models.EmployeeChanges {
	return models.EmployeeChanges{
		Firstname:   r.Firstname,
		Lastname:    r.Lastname,
		Salary:      r.Salary,
		Address:     r.Address,
		PhoneNumber: r.PhoneNumber,
	}
}

// blankFields reports required fields that the request sets to an empty value.
func (r UpdateEmployeeRequest) blankFields() []middleware.ValidationError {
	var errs []middleware.ValidationError
	for field, value := range map[string]*string{
		"firstname":   r.Firstname,
		"lastname":    r.Lastname,
		"phoneNumber": r.PhoneNumber,
	} {
		if value != nil && strings.TrimSpace(*value) == "" {
			errs = append(errs, middleware.ValidationError{
				Field:   field,
				Message: "This field is required",
				Type:    "required",
			})
		}
	}
	sort.Slice(errs, func(i, j int) bool { return errs[i].Field < errs[j].Field })
	return errs
}

func (r UpdateEmployeeRequest) empty() bool {
	return r.changes().Empty() && r.Emails == nil && r.Roles == nil && r.Password == nil
}

func NewEmployeeHandler(commands EmployeeCommander, queries EmployeeQuerier) *EmployeeHandler {
	return &EmployeeHandler{commands: commands, queries: queries}
}

func (h *EmployeeHandler) ListEmployees(c *gin.Context) {
	views, err := h.queries.ListEmployees(c.Request.Context(), cqrs.ListEmployeesQuery{
		Token: middleware.GetToken(c),
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, views)
}

func (h *EmployeeHandler) GetEmployee(c *gin.Context) {
	employeeID, ok := employeeIDParam(c)
	if !ok {
		return
	}

	view, err := h.queries.GetEmployee(c.Request.Context(), cqrs.GetEmployeeQuery{
		EmployeeID: employeeID,
		Token:      middleware.GetToken(c),
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *EmployeeHandler) CreateEmployee(c *gin.Context) {
	var req CreateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	view, err := h.commands.CreateEmployee(c.Request.Context(), cqrs.CreateEmployeeCommand{
		Firstname:   req.Firstname,
		Lastname:    req.Lastname,
		Salary:      req.Salary,
		Address:     req.Address,
		PhoneNumber: req.PhoneNumber,
		Emails:      req.Emails,
		Roles:       req.Roles,
		Password:    req.Password,
		Token:       middleware.GetToken(c),
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, view)
}

func (h *EmployeeHandler) UpdateEmployee(c *gin.Context) {
	employeeID, ok := employeeIDParam(c)
	if !ok {
		return
	}

	var req UpdateEmployeeRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
			return
		}
	}
	if req.empty() {
		middleware.RespondWithAppError(c, apperror.ErrEmptyUpdate)
		return
	}
	if validationErrors := req.blankFields(); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	view, err := h.commands.UpdateEmployee(c.Request.Context(), cqrs.UpdateEmployeeCommand{
		EmployeeID: employeeID,
		Changes:    req.changes(),
		Emails:     req.Emails,
		Roles:      req.Roles,
		Password:   req.Password,
		Token:      middleware.GetToken(c),
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *EmployeeHandler) DeleteEmployee(c *gin.Context) {
	employeeID, ok := employeeIDParam(c)
	if !ok {
		return
	}

	_, err := h.commands.DeleteEmployee(c.Request.Context(), cqrs.DeleteEmployeeCommand{
		EmployeeID: employeeID,
		Token:      middleware.GetToken(c),
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func employeeIDParam(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		middleware.RespondWithAppError(c, apperror.ErrInvalidID)
		return "", false
	}
	return id, true
}

func respondWithError(c *gin.Context, err error) {
	appErr := toAppError(err)
	if appErr.HTTPStatus >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	middleware.RespondWithAppError(c, appErr)
}

// toAppError maps service and identity failures to their HTTP form.
func toAppError(err error) *apperror.AppError {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, identity.ErrUnavailable) {
		return apperror.Wrap(err, apperror.CodeServiceUnavailable, "Identity service unavailable", http.StatusServiceUnavailable)
	}
	var statusErr *identity.StatusError
	if errors.As(err, &statusErr) {
		message := statusErr.Message
		if message == "" {
			message = http.StatusText(statusErr.StatusCode)
		}
		switch statusErr.StatusCode {
		case http.StatusUnauthorized:
			return apperror.Wrap(err, apperror.CodeUnauthorized, message, http.StatusUnauthorized)
		case http.StatusForbidden:
			return apperror.Wrap(err, apperror.CodeForbidden, message, http.StatusForbidden)
		}
		return apperror.Wrap(err, apperror.CodeBadGateway, "Identity service error", http.StatusBadGateway)
	}
	return apperror.From(err)
}
