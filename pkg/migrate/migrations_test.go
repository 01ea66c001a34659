package migrate_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/angelmondragon/storefront-backend/pkg/migrate"
)

func readMigration(t *testing.T, suffix string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", "*_"+suffix+".sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no %s migration file found", suffix)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func TestMigrationsDirIsValid(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations: %v", err)
	}
}

func TestCatalogMigrationGuardsStock(t *testing.T) {
	content := readMigration(t, "create_catalog_tables")
	for _, sub := range []string{
		"CREATE TABLE IF NOT EXISTS products",
		"stock integer NOT NULL DEFAULT 0 CHECK (stock >= 0)",
		"CONSTRAINT products_sku_key UNIQUE (sku)",
	} {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestCartMigrationEnforcesVariantUniqueness(t *testing.T) {
	content := readMigration(t, "create_carts_and_wishlist")
	for _, sub := range []string{
		"CONSTRAINT cart_lines_variant_key UNIQUE (cart_id, product_id, size, color)",
		"quantity integer NOT NULL CHECK (quantity >= 1)",
		"CONSTRAINT carts_single_owner",
	} {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestOrdersAndTransactionsMigrations(t *testing.T) {
	orders := readMigration(t, "create_orders_tables")
	for _, sub := range []string{
		"CONSTRAINT orders_single_owner",
		"CONSTRAINT orders_total_matches CHECK (total_cents = subtotal_cents + shipping_cents)",
		"shipping_address jsonb NOT NULL",
	} {
		if !strings.Contains(orders, sub) {
			t.Errorf("orders: missing expected statement %q", sub)
		}
	}

	txs := readMigration(t, "create_transactions_table")
	for _, sub := range []string{
		"CONSTRAINT transactions_gateway_transaction_id_key UNIQUE (gateway_transaction_id)",
		"type text NOT NULL CHECK (type IN ('PAYMENT', 'REFUND'))",
		"parent_transaction_id uuid REFERENCES transactions(id)",
	} {
		if !strings.Contains(txs, sub) {
			t.Errorf("transactions: missing expected statement %q", sub)
		}
	}
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()
	path, err := migrate.CreateSQLMigration(dir, "Add Order Notes!")
	if err != nil {
		t.Fatalf("create migration: %v", err)
	}
	if !strings.HasSuffix(path, "_add_order_notes.sql") {
		t.Fatalf("unexpected filename %q", path)
	}
	if err := migrate.ValidateDir(dir); err != nil {
		t.Fatalf("generated migration should validate: %v", err)
	}
	if _, err := migrate.CreateSQLMigration(dir, "!!!"); err == nil {
		t.Fatal("expected empty sanitized name to fail")
	}
}

func TestValidateDirRejectsBrokenAnnotations(t *testing.T) {
	cases := map[string]string{
		"20260101000000_missing_down.sql": "-- +goose Up\nSELECT 1;\n",
		"20260101000000_reversed.sql":     "-- +goose Down\nSELECT 1;\n-- +goose Up\nSELECT 1;\n",
		"20260101000000_unbalanced.sql":   "-- +goose Up\n-- +goose StatementBegin\nSELECT 1;\n-- +goose Down\nSELECT 1;\n",
		"not_a_version_create_orders.sql": "-- +goose Up\n-- +goose Down\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
				t.Fatalf("write fixture: %v", err)
			}
			if err := migrate.ValidateDir(dir); err == nil {
				t.Fatalf("expected %s to be rejected", name)
			}
		})
	}
}

func TestParseVersion(t *testing.T) {
	got, err := migrate.ParseVersion("20260301090400")
	if err != nil {
		t.Fatalf("parse version: %v", err)
	}
	if got != 20260301090400 {
		t.Fatalf("expected 20260301090400, got %d", got)
	}

	for _, bad := range []string{"", "2026", "20261301090400", "2026030109040x", "-20260301090400"} {
		if _, err := migrate.ParseVersion(bad); err == nil {
			t.Errorf("expected %q to be rejected", bad)
		}
	}
}

func TestRunChecksCommandBeforeTouchingDB(t *testing.T) {
	ctx := context.Background()
	err := migrate.Run(ctx, nil, "migrations", "reset")
	if err == nil || !strings.Contains(err.Error(), "unsupported migration command") {
		t.Fatalf("expected unsupported command error, got %v", err)
	}
	if err := migrate.Run(ctx, nil, "migrations", "up"); err == nil {
		t.Fatal("expected missing database handle to fail")
	}
	if err := migrate.MigrateToVersion(ctx, nil, "migrations", "latest"); err == nil {
		t.Fatal("expected malformed target version to fail")
	}
}
