package command

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/eaglebank/personnel-service/internal/identity"
	"github.com/eaglebank/personnel-service/internal/repository"
	"github.com/eaglebank/personnel-service/shared/apperror"
	"github.com/eaglebank/personnel-service/shared/contextutil"
	"github.com/eaglebank/personnel-service/shared/cqrs"
	"github.com/eaglebank/personnel-service/shared/events"
	"github.com/eaglebank/personnel-service/shared/models"
	"go.uber.org/zap"
)

// IdentityWriter is the write side of the identity service.
type IdentityWriter interface {
	CreateUser(ctx context.Context, req identity.CreateUserRequest, token string) (*models.IdentityUser, error)
	UpdateUser(ctx context.Context, id string, req identity.UpdateUserRequest, token string) (*models.IdentityUser, error)
	DeleteUser(ctx context.Context, id, token string) error
}

// EventEmitter publishes domain events without reporting failures.
type EventEmitter interface {
	Emit(ctx context.Context, topic, key string, payload any)
}

// EmployeeCommandService writes HR-owned fields to the record store and
// identity-owned fields to the identity service, then emits an event.
// The two writes are not transactional: a failed identity call leaves the
// local write in place.
type EmployeeCommandService struct {
	store    repository.EmployeeStore
	identity IdentityWriter
	emitter  EventEmitter
	logger   *zap.Logger
}

func NewEmployeeCommandService(
	store repository.EmployeeStore,
	identity IdentityWriter,
	emitter EventEmitter,
	logger *zap.Logger,
) *EmployeeCommandService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmployeeCommandService{
		store:    store,
		identity: identity,
		emitter:  emitter,
		logger:   logger.Named("employee.command"),
	}
}

func (s *EmployeeCommandService) CreateEmployee(ctx context.Context, cmd cqrs.CreateEmployeeCommand) (*models.EmployeeView, error) {
	rid := contextutil.GetRequestID(ctx)

	record, err := s.store.Create(ctx, models.PersonalDetails{
		Firstname:   cmd.Firstname,
		Lastname:    cmd.Lastname,
		Salary:      cmd.Salary,
		Address:     cmd.Address,
		PhoneNumber: cmd.PhoneNumber,
	})
	if err != nil {
		var validationErr *repository.ValidationError
		if errors.As(err, &validationErr) {
			return nil, apperror.Wrap(err, apperror.CodeInvalidInput, "One or more values are invalid", http.StatusBadRequest)
		}
		s.logger.Error("create employee record failed", zap.String("request_id", rid), zap.Error(err))
		return nil, fmt.Errorf("failed to create employee record: %w", err)
	}

	s.emitter.Emit(ctx, events.EmployeeCreatedTopic, record.ID, events.EmployeeCreatedEvent{
		ID:     record.ID,
		Emails: cmd.Emails,
		Roles:  cmd.Roles,
	})

	user, err := s.identity.CreateUser(ctx, identity.CreateUserRequest{
		ID:       record.ID,
		Emails:   cmd.Emails,
		Roles:    cmd.Roles,
		Password: cmd.Password,
	}, cmd.Token)
	if err != nil {
		s.logger.Error("create identity user failed, employee record left without identity",
			zap.String("request_id", rid),
			zap.String("employee_id", record.ID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to create identity user: %w", err)
	}

	s.logger.Info("employee created", zap.String("request_id", rid), zap.String("employee_id", record.ID))
	return models.ComposeEmployee(user, record), nil
}

// UpdateEmployee short-circuits with apperror.ErrEmployeeNotFound before any
// identity call when the record store has no such employee.
func (s *EmployeeCommandService) UpdateEmployee(ctx context.Context, cmd cqrs.UpdateEmployeeCommand) (*models.EmployeeView, error) {
	rid := contextutil.GetRequestID(ctx)

	record, err := s.store.UpdateByID(ctx, cmd.EmployeeID, cmd.Changes)
	if errors.Is(err, repository.ErrEmployeeNotFound) {
		return nil, apperror.ErrEmployeeNotFound
	}
	if err != nil {
		s.logger.Error("update employee record failed",
			zap.String("request_id", rid),
			zap.String("employee_id", cmd.EmployeeID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to update employee record: %w", err)
	}

	user, err := s.identity.UpdateUser(ctx, cmd.EmployeeID, identity.UpdateUserRequest{
		Emails:   cmd.Emails,
		Roles:    cmd.Roles,
		Password: cmd.Password,
	}, cmd.Token)
	if err != nil {
		s.logger.Error("update identity user failed",
			zap.String("request_id", rid),
			zap.String("employee_id", cmd.EmployeeID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to update identity user: %w", err)
	}

	view := models.ComposeEmployee(user, record)
	s.emitter.Emit(ctx, events.EmployeeUpdatedTopic, view.ID, events.EmployeeUpdatedEvent{
		ID:     view.ID,
		Emails: view.Emails,
		Roles:  view.Roles,
	})
	s.logger.Info("employee updated", zap.String("request_id", rid), zap.String("employee_id", view.ID))
	return view, nil
}

// DeleteEmployee removes the local record first; the identity cleanup is
// best-effort and its outcome is only logged.
func (s *EmployeeCommandService) DeleteEmployee(ctx context.Context, cmd cqrs.DeleteEmployeeCommand) (*models.EmployeeRecord, error) {
	rid := contextutil.GetRequestID(ctx)

	record, err := s.store.DeleteByID(ctx, cmd.EmployeeID)
	if errors.Is(err, repository.ErrEmployeeNotFound) {
		return nil, apperror.ErrEmployeeNotFound
	}
	if err != nil {
		s.logger.Error("delete employee record failed",
			zap.String("request_id", rid),
			zap.String("employee_id", cmd.EmployeeID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to delete employee record: %w", err)
	}

	if err := s.identity.DeleteUser(ctx, cmd.EmployeeID, cmd.Token); err != nil {
		s.logger.Warn("delete identity user failed",
			zap.String("request_id", rid),
			zap.String("employee_id", cmd.EmployeeID),
			zap.Error(err),
		)
	}

	s.emitter.Emit(ctx, events.EmployeeDeletedTopic, record.ID, events.EmployeeDeletedEvent{ID: record.ID})
	s.logger.Info("employee deleted", zap.String("request_id", rid), zap.String("employee_id", record.ID))
	return record, nil
}
