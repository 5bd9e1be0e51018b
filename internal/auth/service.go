package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fitplay-hq/fitplay-backend/internal/users"
	pkgauth "github.com/fitplay-hq/fitplay-backend/pkg/auth"
	"github.com/fitplay-hq/fitplay-backend/pkg/config"
	"github.com/fitplay-hq/fitplay-backend/pkg/db"
	"github.com/fitplay-hq/fitplay-backend/pkg/db/models"
	apperrors "github.com/fitplay-hq/fitplay-backend/pkg/errors"
	"github.com/fitplay-hq/fitplay-backend/pkg/logger"
	"github.com/fitplay-hq/fitplay-backend/pkg/mailer"
	"github.com/fitplay-hq/fitplay-backend/pkg/security"
)

// Mailer sends transactional email. Satisfied by *mailer.Client.
type Mailer interface {
	Send(ctx context.Context, msg mailer.Message) (string, error)
}

// RateLimiter gates reset requests per caller IP. Satisfied by *redis.Client.
type RateLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// LoginResult is a successful authentication.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *models.User
}

// Service handles authentication and the password reset flow.
type Service interface {
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	RequestPasswordReset(ctx context.Context, email, clientIP string) error
	ConfirmPasswordReset(ctx context.Context, token, newPassword string) error
}

type service struct {
	userRepo    users.Repository
	resetRepo   Repository
	client      *db.Client
	limiter     RateLimiter
	mail        Mailer
	jwtCfg      config.JWTConfig
	passwordCfg config.PasswordConfig
	resetCfg    config.ResetRateLimitConfig
}

func NewService(
	userRepo users.Repository,
	resetRepo Repository,
	client *db.Client,
	limiter RateLimiter,
	mail Mailer,
	jwtCfg config.JWTConfig,
	passwordCfg config.PasswordConfig,
	resetCfg config.ResetRateLimitConfig,
) (Service, error) {
	if userRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if resetRepo == nil {
		return nil, fmt.Errorf("reset token repository is required")
	}
	if client == nil {
		return nil, fmt.Errorf("db client is required")
	}
	if limiter == nil {
		return nil, fmt.Errorf("rate limiter is required")
	}
	if mail == nil {
		return nil, fmt.Errorf("mailer is required")
	}
	return &service{
		userRepo:    userRepo,
		resetRepo:   resetRepo,
		client:      client,
		limiter:     limiter,
		mail:        mail,
		jwtCfg:      jwtCfg,
		passwordCfg: passwordCfg,
		resetCfg:    resetCfg,
	}, nil
}

func (s *service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if apperrors.IsCode(err, apperrors.CodeNotFound) {
			return nil, apperrors.New(apperrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, apperrors.New(apperrors.CodeUnauthorized, "account is deactivated")
	}

	ok, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verifying password: %w", err)
	}
	if !ok {
		return nil, apperrors.New(apperrors.CodeUnauthorized, "invalid credentials")
	}

	now := time.Now()
	token, err := pkgauth.MintAccessToken(s.jwtCfg, now, pkgauth.AccessTokenPayload{
		UserID:    user.ID,
		CompanyID: user.CompanyID,
		Role:      user.Role,
	})
	if err != nil {
		return nil, fmt.Errorf("minting token: %w", err)
	}

	if err := s.userRepo.SetLastLogin(ctx, user.ID, now); err != nil {
		logger.FromContext(ctx).Warn().Err(err).
			Str("user_id", user.ID.String()).
			Msg("recording last login failed")
	}

	logger.FromContext(ctx).Info().
		Str("user_id", user.ID.String()).
		Str("role", string(user.Role)).
		Msg("user logged in")
	return &LoginResult{
		Token:     token,
		ExpiresAt: now.Add(time.Duration(s.jwtCfg.ExpirationMinutes) * time.Minute),
		User:      user,
	}, nil
}

// RequestPasswordReset is rate limited per caller IP. An unknown email
// returns success without sending anything so addresses cannot be probed.
// A mailer failure is returned to the caller; the token row is rolled back
// with it.
func (s *service) RequestPasswordReset(ctx context.Context, email, clientIP string) error {
	allowed, _, err := s.limiter.FixedWindowAllow(ctx, "pwreset:"+clientIP, int64(s.resetCfg.IPLimit), s.resetCfg.Window)
	if err != nil {
		return fmt.Errorf("checking rate limit: %w", err)
	}
	if !allowed {
		return apperrors.New(apperrors.CodeRateLimit, "too many reset requests, try again later")
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if apperrors.IsCode(err, apperrors.CodeNotFound) {
			logger.FromContext(ctx).Info().Msg("reset requested for unknown email")
			return nil
		}
		return err
	}
	if !user.IsActive {
		return nil
	}

	rawToken, tokenHash, err := security.GenerateResetToken()
	if err != nil {
		return fmt.Errorf("generating reset token: %w", err)
	}

	return s.client.WithTx(ctx, func(tx *gorm.DB) error {
		row := &models.PasswordResetToken{
			ID:        uuid.New(),
			UserID:    user.ID,
			TokenHash: tokenHash,
			ExpiresAt: time.Now().Add(s.resetCfg.TokenTTL),
		}
		if txErr := s.resetRepo.WithTx(tx).Insert(ctx, row); txErr != nil {
			return fmt.Errorf("storing reset token: %w", txErr)
		}

		link := fmt.Sprintf("%s?token=%s", s.resetCfg.URLBase, rawToken)
		_, txErr := s.mail.Send(ctx, mailer.Message{
			To:      user.Email,
			Subject: "Reset your FitPlay password",
			HTMLBody: fmt.Sprintf(
				"<p>Hi %s,</p><p>Use the link below to reset your password. It expires in %d minutes.</p><p><a href=%q>Reset password</a></p>",
				user.FirstName, int(s.resetCfg.TokenTTL.Minutes()), link),
		})
		if txErr != nil {
			return apperrors.Wrap(apperrors.CodeDependency, txErr, "sending reset email")
		}

		logger.FromContext(ctx).Info().
			Str("user_id", user.ID.String()).
			Msg("password reset email sent")
		return nil
	})
}

func (s *service) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	if token == "" {
		return apperrors.New(apperrors.CodeValidation, "reset token is required")
	}
	if len(newPassword) < 8 {
		return apperrors.New(apperrors.CodeValidation, "password must be at least 8 characters")
	}

	row, err := s.resetRepo.GetByHash(ctx, security.HashResetToken(token))
	if err != nil {
		if apperrors.IsCode(err, apperrors.CodeNotFound) {
			return apperrors.New(apperrors.CodeUnauthorized, "invalid or expired reset token")
		}
		return err
	}
	if time.Now().After(row.ExpiresAt) {
		return apperrors.New(apperrors.CodeUnauthorized, "invalid or expired reset token")
	}

	hash, err := security.HashPassword(newPassword, s.passwordCfg)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	err = s.client.WithTx(ctx, func(tx *gorm.DB) error {
		used, txErr := s.resetRepo.WithTx(tx).MarkUsed(ctx, row.ID, time.Now())
		if txErr != nil {
			return txErr
		}
		if !used {
			return apperrors.New(apperrors.CodeUnauthorized, "reset token already used")
		}
		return s.userRepo.WithTx(tx).UpdatePasswordHash(ctx, row.UserID, hash)
	})
	if err != nil {
		return err
	}

	logger.FromContext(ctx).Info().
		Str("user_id", row.UserID.String()).
		Msg("password reset completed")
	return nil
}
