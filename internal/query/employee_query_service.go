package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/eaglebank/personnel-service/internal/identity"
	"github.com/eaglebank/personnel-service/internal/repository"
	"github.com/eaglebank/personnel-service/shared/apperror"
	"github.com/eaglebank/personnel-service/shared/contextutil"
	"github.com/eaglebank/personnel-service/shared/cqrs"
	"github.com/eaglebank/personnel-service/shared/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// IdentityReader is the read side of the identity service. GetUser reports a
// missing user with identity.ErrUserNotFound.
type IdentityReader interface {
	ListUsers(ctx context.Context, token string) ([]models.IdentityUser, error)
	GetUser(ctx context.Context, id, token string) (*models.IdentityUser, error)
}

// EmployeeQueryService composes employee views from the identity service and
// the local record store. The identity service decides which employees exist.
type EmployeeQueryService struct {
	identity IdentityReader
	store    repository.EmployeeStore
	logger   *zap.Logger
}

func NewEmployeeQueryService(identity IdentityReader, store repository.EmployeeStore, logger *zap.Logger) *EmployeeQueryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmployeeQueryService{
		identity: identity,
		store:    store,
		logger:   logger.Named("employee.query"),
	}
}

// ListEmployees returns one view per identity user, in identity order. Users
// without a local record come back with identity-owned fields only.
func (s *EmployeeQueryService) ListEmployees(ctx context.Context, q cqrs.ListEmployeesQuery) ([]*models.EmployeeView, error) {
	var (
		users   []models.IdentityUser
		records []models.EmployeeRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		users, err = s.identity.ListUsers(gctx, q.Token)
		if err != nil {
			return fmt.Errorf("failed to list identity users: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		records, err = s.store.FindAll(gctx)
		if err != nil {
			return fmt.Errorf("failed to list employee records: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("list employees failed",
			zap.String("request_id", contextutil.GetRequestID(ctx)),
			zap.Error(err),
		)
		return nil, err
	}

	byID := make(map[string]*models.EmployeeRecord, len(records))
	for i := range records {
		byID[records[i].ID] = &records[i]
	}

	views := make([]*models.EmployeeView, 0, len(users))
	for i := range users {
		views = append(views, models.ComposeEmployee(&users[i], byID[users[i].ID]))
	}
	return views, nil
}

// GetEmployee returns apperror.ErrEmployeeNotFound when the identity service
// has no such user; the record store is not consulted in that case.
func (s *EmployeeQueryService) GetEmployee(ctx context.Context, q cqrs.GetEmployeeQuery) (*models.EmployeeView, error) {
	rid := contextutil.GetRequestID(ctx)

	user, err := s.identity.GetUser(ctx, q.EmployeeID, q.Token)
	if errors.Is(err, identity.ErrUserNotFound) {
		return nil, apperror.ErrEmployeeNotFound
	}
	if err != nil {
		s.logger.Error("get identity user failed",
			zap.String("request_id", rid),
			zap.String("employee_id", q.EmployeeID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to get identity user: %w", err)
	}

	record, err := s.store.FindByID(ctx, q.EmployeeID)
	if errors.Is(err, repository.ErrEmployeeNotFound) {
		s.logger.Warn("identity user has no employee record",
			zap.String("request_id", rid),
			zap.String("employee_id", q.EmployeeID),
		)
		return models.ComposeEmployee(user, nil), nil
	}
	if err != nil {
		s.logger.Error("get employee record failed",
			zap.String("request_id", rid),
			zap.String("employee_id", q.EmployeeID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to get employee record: %w", err)
	}
	return models.ComposeEmployee(user, record), nil
}
