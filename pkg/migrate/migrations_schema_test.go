package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fitplay-hq/fitplay-backend/pkg/migrate"
)

func TestInitMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_init_schema.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no init schema migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE wallets",
		"CHECK (balance >= 0)",
		"CHECK (available_stock >= 0)",
		"CONSTRAINT ux_orders_code UNIQUE (code)",
		"CONSTRAINT ux_wallets_user_id UNIQUE (user_id)",
		"CHECK (quantity > 0)",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestVoucherMigrationEnforcesSingleRedemption(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_vouchers.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no vouchers migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	if !strings.Contains(content, "UNIQUE (voucher_id, user_id)") {
		t.Errorf("voucher redemptions must be unique per user")
	}
	if !strings.Contains(content, "CONSTRAINT ux_vouchers_code UNIQUE (code)") {
		t.Errorf("voucher codes must be unique")
	}
}

func TestMigrationsDirValidates(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("migrations dir failed validation: %v", err)
	}
}
