package users

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fitplay-hq/fitplay-backend/internal/wallets"
	"github.com/fitplay-hq/fitplay-backend/pkg/config"
	"github.com/fitplay-hq/fitplay-backend/pkg/db"
	"github.com/fitplay-hq/fitplay-backend/pkg/db/models"
	"github.com/fitplay-hq/fitplay-backend/pkg/enums"
	apperrors "github.com/fitplay-hq/fitplay-backend/pkg/errors"
	"github.com/fitplay-hq/fitplay-backend/pkg/logger"
	"github.com/fitplay-hq/fitplay-backend/pkg/security"
)

// ProvisionInput carries the fields required to onboard a user.
type ProvisionInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     *string
	Role      enums.UserRole
	CompanyID uuid.UUID
}

// Service provisions and looks up users. Provisioning always creates the
// user's wallet in the same transaction so a user never exists without one.
type Service interface {
	Provision(ctx context.Context, input ProvisionInput) (*models.User, error)
	Get(ctx context.Context, userID uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	ListByCompany(ctx context.Context, companyID uuid.UUID) ([]models.User, error)
}

type service struct {
	repo        Repository
	client      *db.Client
	walletSvc   wallets.Service
	passwordCfg config.PasswordConfig
}

func NewService(repo Repository, client *db.Client, walletSvc wallets.Service, passwordCfg config.PasswordConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if client == nil {
		return nil, fmt.Errorf("db client is required")
	}
	if walletSvc == nil {
		return nil, fmt.Errorf("wallet service is required")
	}
	return &service{repo: repo, client: client, walletSvc: walletSvc, passwordCfg: passwordCfg}, nil
}

func (s *service) Provision(ctx context.Context, input ProvisionInput) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "email is required")
	}
	if input.Password == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "password is required")
	}
	if !input.Role.IsValid() {
		return nil, apperrors.New(apperrors.CodeValidation, "invalid role")
	}
	if input.CompanyID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "company id is required")
	}

	hash, err := security.HashPassword(input.Password, s.passwordCfg)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Phone:        input.Phone,
		Role:         input.Role,
		CompanyID:    input.CompanyID,
		IsActive:     true,
	}

	err = s.client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, user); err != nil {
			if db.IsUniqueViolation(err, "email", "users.email") {
				return apperrors.New(apperrors.CodeConflict, "email already registered")
			}
			return fmt.Errorf("creating user: %w", err)
		}
		if _, err := s.walletSvc.ProvisionTx(ctx, tx, user.ID); err != nil {
			return fmt.Errorf("provisioning wallet: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info().
		Str("user_id", user.ID.String()).
		Str("company_id", user.CompanyID.String()).
		Str("role", string(user.Role)).
		Msg("user provisioned")
	return user, nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	return s.repo.GetByID(ctx, userID)
}

func (s *service) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.repo.GetByEmail(ctx, email)
}

func (s *service) ListByCompany(ctx context.Context, companyID uuid.UUID) ([]models.User, error) {
	return s.repo.ListByCompany(ctx, companyID)
}
