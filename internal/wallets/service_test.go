package wallets

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/fitplay-hq/fitplay-backend/pkg/config"
	dbpkg "github.com/fitplay-hq/fitplay-backend/pkg/db"
	"github.com/fitplay-hq/fitplay-backend/pkg/db/models"
	"github.com/fitplay-hq/fitplay-backend/pkg/enums"
	apperrors "github.com/fitplay-hq/fitplay-backend/pkg/errors"
	"github.com/fitplay-hq/fitplay-backend/pkg/outbox"
)

func setupWalletTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
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
		`CREATE TABLE wallets (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL UNIQUE,
  balance INTEGER NOT NULL DEFAULT 0,
  expires_at DATETIME NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
)`,
		`CREATE TABLE wallet_transactions (
  id TEXT PRIMARY KEY,
  wallet_id TEXT NOT NULL,
  user_id TEXT NOT NULL,
  amount INTEGER NOT NULL,
  direction TEXT NOT NULL,
  type TEXT NOT NULL,
  payment_mode TEXT NOT NULL DEFAULT 'Credits',
  balance_after INTEGER NOT NULL,
  order_id TEXT,
  remark TEXT,
  created_at DATETIME
)`,
		`CREATE TABLE outbox_events (
  id TEXT PRIMARY KEY,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload TEXT NOT NULL,
  created_at DATETIME,
  published_at DATETIME,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT
)`,
	} {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func newWalletService(t *testing.T, conn *gorm.DB) Service {
	t.Helper()
	client := dbpkg.NewFromConn(conn)
	outboxSvc := outbox.NewService(outbox.NewRepository(conn), nil)
	svc, err := NewService(NewRepository(conn), client, outboxSvc, config.WalletConfig{DefaultExpiryDays: 365})
	require.NoError(t, err)
	return svc
}

func seedUser(t *testing.T, conn *gorm.DB, companyID uuid.UUID) *models.User {
	t.Helper()
	user := &models.User{
		ID:        uuid.New(),
		Email:     uuid.NewString() + "@acme.example",
		Role:      enums.UserRoleEmployee,
		CompanyID: companyID,
		IsActive:  true,
	}
	require.NoError(t, conn.Create(user).Error)
	return user
}

func TestGetOrCreateIsIdempotent(t *testing.T) {
	conn := setupWalletTestDB(t)
	svc := newWalletService(t, conn)
	user := seedUser(t, conn, uuid.New())

	first, err := svc.GetOrCreate(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), first.Balance)
	assert.False(t, first.ExpiresAt.IsZero())

	second, err := svc.GetOrCreate(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, conn.Model(&models.Wallet{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestDebitGuardsBalance(t *testing.T) {
	conn := setupWalletTestDB(t)
	svc := newWalletService(t, conn)
	user := seedUser(t, conn, uuid.New())
	ctx := context.Background()

	wallet, err := svc.GetOrCreate(ctx, user.ID)
	require.NoError(t, err)
	require.NoError(t, conn.Model(&models.Wallet{}).Where("id = ?", wallet.ID).Update("balance", 500).Error)

	err = conn.Transaction(func(tx *gorm.DB) error {
		txn, err := svc.Debit(ctx, tx, DebitInput{UserID: user.ID, Amount: 270})
		if err != nil {
			return err
		}
		assert.Equal(t, int64(230), txn.BalanceAfter)
		assert.Equal(t, enums.TxnDirectionDebit, txn.Direction)
		assert.Equal(t, enums.TxnTypePurchase, txn.Type)
		return nil
	})
	require.NoError(t, err)

	// second debit over the remaining balance must fail and change nothing
	err = conn.Transaction(func(tx *gorm.DB) error {
		_, err := svc.Debit(ctx, tx, DebitInput{UserID: user.ID, Amount: 540})
		return err
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeInsufficientBalance))

	balance, err := svc.Balance(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(230), balance.Balance)

	var ledgerCount int64
	require.NoError(t, conn.Model(&models.WalletTransaction{}).Count(&ledgerCount).Error)
	assert.Equal(t, int64(1), ledgerCount)
}

func TestCashDebitLeavesBalanceUnchanged(t *testing.T) {
	conn := setupWalletTestDB(t)
	svc := newWalletService(t, conn)
	user := seedUser(t, conn, uuid.New())
	ctx := context.Background()

	wallet, err := svc.GetOrCreate(ctx, user.ID)
	require.NoError(t, err)
	require.NoError(t, conn.Model(&models.Wallet{}).Where("id = ?", wallet.ID).Update("balance", 100).Error)

	err = conn.Transaction(func(tx *gorm.DB) error {
		txn, err := svc.Debit(ctx, tx, DebitInput{
			UserID:      user.ID,
			Amount:      900,
			PaymentMode: enums.PaymentModeCash,
		})
		if err != nil {
			return err
		}
		assert.Equal(t, int64(100), txn.BalanceAfter)
		assert.Equal(t, enums.PaymentModeCash, txn.PaymentMode)
		return nil
	})
	require.NoError(t, err)

	balance, err := svc.Balance(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), balance.Balance)
}

func TestCreditEmitsOutboxEvent(t *testing.T) {
	conn := setupWalletTestDB(t)
	svc := newWalletService(t, conn)
	user := seedUser(t, conn, uuid.New())
	ctx := context.Background()

	_, err := svc.GetOrCreate(ctx, user.ID)
	require.NoError(t, err)

	err = conn.Transaction(func(tx *gorm.DB) error {
		txn, err := svc.Credit(ctx, tx, CreditInput{
			UserID: user.ID,
			Amount: 1000,
			Source: "allocation",
		})
		if err != nil {
			return err
		}
		assert.Equal(t, int64(1000), txn.BalanceAfter)
		return nil
	})
	require.NoError(t, err)

	var events []models.OutboxEvent
	require.NoError(t, conn.Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, enums.EventWalletCredited, events[0].EventType)
	assert.Equal(t, enums.AggregateWallet, events[0].AggregateType)
}

func TestAdjustNegativeGuarded(t *testing.T) {
	conn := setupWalletTestDB(t)
	svc := newWalletService(t, conn)
	user := seedUser(t, conn, uuid.New())
	ctx := context.Background()

	wallet, err := svc.GetOrCreate(ctx, user.ID)
	require.NoError(t, err)
	require.NoError(t, conn.Model(&models.Wallet{}).Where("id = ?", wallet.ID).Update("balance", 50).Error)

	_, err = svc.Adjust(ctx, AdjustInput{UserID: user.ID, Amount: -80})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeInsufficientBalance))

	txn, err := svc.Adjust(ctx, AdjustInput{UserID: user.ID, Amount: -30})
	require.NoError(t, err)
	assert.Equal(t, int64(20), txn.BalanceAfter)
}

func TestBulkAllocateCreditsCompanyWallets(t *testing.T) {
	conn := setupWalletTestDB(t)
	svc := newWalletService(t, conn)
	ctx := context.Background()

	companyID := uuid.New()
	otherCompanyID := uuid.New()
	userA := seedUser(t, conn, companyID)
	userB := seedUser(t, conn, companyID)
	outsider := seedUser(t, conn, otherCompanyID)

	for _, u := range []*models.User{userA, userB, outsider} {
		_, err := svc.GetOrCreate(ctx, u.ID)
		require.NoError(t, err)
	}

	count, err := svc.BulkAllocate(ctx, BulkAllocateInput{CompanyID: companyID, Amount: 500})
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	for _, u := range []*models.User{userA, userB} {
		wallet, err := svc.Balance(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(500), wallet.Balance)
	}
	outsiderWallet, err := svc.Balance(ctx, outsider.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), outsiderWallet.Balance)
}
