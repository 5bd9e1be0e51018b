package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/fitplay-hq/fitplay-backend/internal/users"
	"github.com/fitplay-hq/fitplay-backend/pkg/config"
	dbpkg "github.com/fitplay-hq/fitplay-backend/pkg/db"
	"github.com/fitplay-hq/fitplay-backend/pkg/db/models"
	"github.com/fitplay-hq/fitplay-backend/pkg/enums"
	apperrors "github.com/fitplay-hq/fitplay-backend/pkg/errors"
	"github.com/fitplay-hq/fitplay-backend/pkg/mailer"
	"github.com/fitplay-hq/fitplay-backend/pkg/security"
)

type stubLimiter struct {
	allowed bool
	calls   int
}

func (s *stubLimiter) FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error) {
	s.calls++
	return s.allowed, int64(s.calls), nil
}

type stubMailer struct {
	sent []mailer.Message
	err  error
}

func (s *stubMailer) Send(ctx context.Context, msg mailer.Message) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.sent = append(s.sent, msg)
	return "msg_" + uuid.NewString(), nil
}

func setupAuthTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	for _, stmt := range []string{
		`CREATE TABLE users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL DEFAULT '',
  first_name TEXT NOT NULL DEFAULT '',
  last_name TEXT NOT NULL DEFAULT '',
  phone TEXT,
  role TEXT NOT NULL DEFAULT 'EMPLOYEE',
  company_id TEXT NOT NULL,
  is_active INTEGER NOT NULL DEFAULT 1,
  last_login_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
)`,
		`CREATE TABLE password_reset_tokens (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  token_hash TEXT NOT NULL,
  expires_at DATETIME NOT NULL,
  used_at DATETIME,
  created_at DATETIME,
  CONSTRAINT ux_password_reset_tokens_hash UNIQUE (token_hash)
)`,
	} {
		require.NoError(t, conn.Exec(stmt).Error)
	}
	return conn
}

type authFixture struct {
	conn    *gorm.DB
	svc     Service
	limiter *stubLimiter
	mail    *stubMailer
	user    *models.User
}

var testPasswordCfg = config.PasswordConfig{
	ArgonMemoryKB: 1024, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32,
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	conn := setupAuthTestDB(t)
	limiter := &stubLimiter{allowed: true}
	mail := &stubMailer{}

	svc, err := NewService(
		users.NewRepository(conn),
		NewRepository(conn),
		dbpkg.NewFromConn(conn),
		limiter,
		mail,
		config.JWTConfig{Secret: "test-secret", Issuer: "fitplay-test", ExpirationMinutes: 60},
		testPasswordCfg,
		config.ResetRateLimitConfig{Window: time.Minute, IPLimit: 5, TokenTTL: 30 * time.Minute, URLBase: "https://app.example/reset"},
	)
	require.NoError(t, err)

	hash, err := security.HashPassword("correct horse", testPasswordCfg)
	require.NoError(t, err)
	user := &models.User{
		ID:           uuid.New(),
		Email:        "pat@acme.example",
		PasswordHash: hash,
		FirstName:    "Pat",
		Role:         enums.UserRoleEmployee,
		CompanyID:    uuid.New(),
		IsActive:     true,
	}
	require.NoError(t, conn.Create(user).Error)

	return &authFixture{conn: conn, svc: svc, limiter: limiter, mail: mail, user: user}
}

func TestLoginIssuesToken(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	result, err := f.svc.Login(ctx, "pat@acme.example", "correct horse")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, f.user.ID, result.User.ID)

	var stored models.User
	require.NoError(t, f.conn.First(&stored, "id = ?", f.user.ID).Error)
	assert.NotNil(t, stored.LastLoginAt)
}

func TestLoginRejectsBadPasswordAndUnknownEmail(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.svc.Login(ctx, "pat@acme.example", "wrong")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeUnauthorized))

	_, err = f.svc.Login(ctx, "nobody@acme.example", "correct horse")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeUnauthorized))
}

func TestLoginRejectsDeactivatedAccount(t *testing.T) {
	f := newAuthFixture(t)
	require.NoError(t, f.conn.Model(&models.User{}).Where("id = ?", f.user.ID).Update("is_active", false).Error)

	_, err := f.svc.Login(context.Background(), "pat@acme.example", "correct horse")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeUnauthorized))
}

func TestPasswordResetRoundTrip(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.RequestPasswordReset(ctx, "pat@acme.example", "203.0.113.9"))
	require.Len(t, f.mail.sent, 1)
	assert.Equal(t, "pat@acme.example", f.mail.sent[0].To)

	var row models.PasswordResetToken
	require.NoError(t, f.conn.First(&row, "user_id = ?", f.user.ID).Error)

	// The raw token only exists in the email link.
	token := extractToken(t, f.mail.sent[0].HTMLBody)
	assert.Equal(t, row.TokenHash, security.HashResetToken(token))

	require.NoError(t, f.svc.ConfirmPasswordReset(ctx, token, "brand new pass"))

	_, err := f.svc.Login(ctx, "pat@acme.example", "correct horse")
	require.Error(t, err)
	result, err := f.svc.Login(ctx, "pat@acme.example", "brand new pass")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)

	err = f.svc.ConfirmPasswordReset(ctx, token, "another new pass")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeUnauthorized))
}

func TestPasswordResetRateLimited(t *testing.T) {
	f := newAuthFixture(t)
	f.limiter.allowed = false

	err := f.svc.RequestPasswordReset(context.Background(), "pat@acme.example", "203.0.113.9")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeRateLimit))
	assert.Empty(t, f.mail.sent)
}

func TestPasswordResetUnknownEmailIsSilent(t *testing.T) {
	f := newAuthFixture(t)

	require.NoError(t, f.svc.RequestPasswordReset(context.Background(), "nobody@acme.example", "203.0.113.9"))
	assert.Empty(t, f.mail.sent)

	var count int64
	require.NoError(t, f.conn.Model(&models.PasswordResetToken{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestPasswordResetMailerFailureRollsBackToken(t *testing.T) {
	f := newAuthFixture(t)
	f.mail.err = assert.AnError

	err := f.svc.RequestPasswordReset(context.Background(), "pat@acme.example", "203.0.113.9")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeDependency))

	var count int64
	require.NoError(t, f.conn.Model(&models.PasswordResetToken{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestConfirmRejectsExpiredToken(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	raw, hash, err := security.GenerateResetToken()
	require.NoError(t, err)
	require.NoError(t, f.conn.Create(&models.PasswordResetToken{
		ID:        uuid.New(),
		UserID:    f.user.ID,
		TokenHash: hash,
		ExpiresAt: time.Now().Add(-time.Minute),
	}).Error)

	err = f.svc.ConfirmPasswordReset(ctx, raw, "brand new pass")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeUnauthorized))
}

// extractToken pulls the token query parameter out of the reset email body.
func extractToken(t *testing.T, htmlBody string) string {
	t.Helper()
	const marker = "?token="
	idx := -1
	for i := 0; i+len(marker) <= len(htmlBody); i++ {
		if htmlBody[i:i+len(marker)] == marker {
			idx = i + len(marker)
			break
		}
	}
	require.GreaterOrEqual(t, idx, 0, "reset link missing from email body")
	end := idx
	for end < len(htmlBody) && htmlBody[end] != '"' && htmlBody[end] != '<' && htmlBody[end] != '&' {
		end++
	}
	return htmlBody[idx:end]
}
