package account

import (
	"context"

	"rentdesk-billing/pkg/errutil"
	"rentdesk-billing/pkg/repository"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("account.module",
	fx.Provide(NewService),
)

type Service struct {
	db   *gorm.DB
	repo repository.Repository[User]
}

type ServiceParams struct {
	fx.In
	DB *gorm.DB
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:   p.DB,
		repo: repository.ProvideStore[User](p.DB),
	}
}

// Admin returns the platform administrator. Billing entities (gateways,
// packages, banks) are owned by this single account.
func (s *Service) Admin(ctx context.Context) (*User, error) {
	admin, err := s.repo.FindOne(ctx, &User{Role: RoleAdmin})
	if err != nil {
		zap.L().Error("failed query admin user", zap.Error(err))
		return nil, errutil.Internal("failed to resolve admin user", err)
	}

	if admin == nil {
		return nil, errutil.NotFound("admin user not found", nil)
	}

	return admin, nil
}

func (s *Service) Get(ctx context.Context, userID string) (*User, error) {
	user, err := s.repo.FindOne(ctx, &User{ID: userID})
	if err != nil {
		zap.L().Error("failed query user", zap.Error(err))
		return nil, errutil.Internal("failed to get user", err)
	}

	if user == nil {
		return nil, errutil.NotFound("user not found", nil)
	}

	return user, nil
}
