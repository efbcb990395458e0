package service

import (
	"context"
	"fmt"
	"time"

	"github.com/boddenberg/wecom-agent-go/internal/domain"
	"github.com/boddenberg/wecom-agent-go/internal/infra/observability"
	"github.com/boddenberg/wecom-agent-go/internal/port"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// MaxBatchUsers caps GET /v1/users?ids=...
const MaxBatchUsers = 100

// DirectoryService exposes read-only directory lookups.
type DirectoryService struct {
	directory port.Directory
	workers   int
	metrics   *observability.Metrics
	logger    *zap.Logger
}

// NewDirectoryService creates the directory service. workers bounds the
// concurrent lookups of GetUsers.
func NewDirectoryService(directory port.Directory, workers int, metrics *observability.Metrics, logger *zap.Logger) *DirectoryService {
	if workers <= 0 {
		workers = 1
	}
	return &DirectoryService{
		directory: directory,
		workers:   workers,
		metrics:   metrics,
		logger:    logger,
	}
}

// GetAppInfo reads the agent configuration.
func (s *DirectoryService) GetAppInfo(ctx context.Context) (*domain.AppInfo, error) {
	return observe(s, "app_info", func() (*domain.AppInfo, error) {
		return s.directory.GetAppInfo(ctx)
	})
}

// ListDepartments lists a department subtree (0 = whole tree).
func (s *DirectoryService) ListDepartments(ctx context.Context, departmentID int) ([]domain.Department, error) {
	return observe(s, "department_list", func() ([]domain.Department, error) {
		return s.directory.ListDepartments(ctx, departmentID)
	})
}

// ListDepartmentUsers lists the members of a department.
func (s *DirectoryService) ListDepartmentUsers(ctx context.Context, departmentID int) ([]domain.DepartmentMember, error) {
	return observe(s, "department_users", func() ([]domain.DepartmentMember, error) {
		return s.directory.ListDepartmentUsers(ctx, departmentID)
	})
}

// GetTagUsers lists the members of a tag.
func (s *DirectoryService) GetTagUsers(ctx context.Context, tagID int) (*domain.TagMembers, error) {
	return observe(s, "tag_users", func() (*domain.TagMembers, error) {
		return s.directory.GetTagUsers(ctx, tagID)
	})
}

// GetUser reads one user.
func (s *DirectoryService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	return observe(s, "user_get", func() (*domain.User, error) {
		return s.directory.GetUser(ctx, userID)
	})
}

// GetUsers looks users up concurrently, preserving input order. The first
// failure cancels the remaining lookups.
func (s *DirectoryService) GetUsers(ctx context.Context, userIDs []string) ([]*domain.User, error) {
	ctx, span := tracer.Start(ctx, "DirectoryService.GetUsers")
	defer span.End()
	span.SetAttributes(attribute.Int("wecom.users", len(userIDs)))

	if len(userIDs) == 0 {
		return nil, &domain.ErrValidation{Field: "ids", Message: "at least one user id is required"}
	}
	if len(userIDs) > MaxBatchUsers {
		return nil, &domain.ErrValidation{Field: "ids", Message: fmt.Sprintf("at most %d user ids per request", MaxBatchUsers)}
	}

	users := make([]*domain.User, len(userIDs))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i, id := range userIDs {
		i, id := i, id
		g.Go(func() error {
			u, err := s.directory.GetUser(gCtx, id)
			if err != nil {
				s.logger.Error("failed to fetch user",
					zap.String("user_id", id),
					zap.Error(err),
				)
				return fmt.Errorf("user %s: %w", id, err)
			}
			users[i] = u
			return nil
		})
	}

	start := time.Now()
	err := g.Wait()
	s.metrics.RecordRequestDuration("user_batch", time.Since(start))
	if err != nil {
		s.metrics.IncrError(err)
		return nil, err
	}
	return users, nil
}

// observe times a lookup and counts its failure.
func observe[T any](s *DirectoryService, operation string, fn func() (T, error)) (T, error) {
	start := time.Now()
	v, err := fn()
	s.metrics.RecordRequestDuration(operation, time.Since(start))
	if err != nil {
		s.metrics.IncrError(err)
		s.logger.Debug("directory lookup failed",
			zap.String("operation", operation),
			zap.Error(err),
		)
	}
	return v, err
}
