package repo

import (
	"context"
	"testing"

	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
)

type ctxKey struct{}

func TestBaseDBBindsContext(t *testing.T) {
	db := dbtest.Open(t)
	base := NewBase(db)

	ctx := context.WithValue(context.Background(), ctxKey{}, "value")
	withCtx := base.DB(ctx)
	if withCtx.Statement == nil || withCtx.Statement.Context != ctx {
		t.Fatalf("expected context to flow through")
	}

	//nolint:staticcheck // nil context selects the raw handle
	if base.DB(nil) != db {
		t.Fatalf("expected nil context to return raw connection")
	}
}

func TestBaseTxRebindsHandle(t *testing.T) {
	db := dbtest.Open(t)
	base := NewBase(db)

	tx := db.Begin()
	defer tx.Rollback()

	bound := base.Tx(tx)
	if bound.db != tx {
		t.Fatal("expected Tx to bind the transaction handle")
	}
	if base.Tx(nil).db != db {
		t.Fatal("expected nil tx to keep the original handle")
	}
}
