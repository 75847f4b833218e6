package sqlite

import (
	"context"
	"testing"

	"github.com/pkg/errors"

	"github.com/paperdesk/paperdesk/internal/model"
	"github.com/paperdesk/paperdesk/internal/store"
	"github.com/paperdesk/paperdesk/internal/store/storetest"
)

func makeSQLiteStore(t *testing.T) store.Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("sqlite open: %v", err)
	}
	return s
}

func TestSQLiteStore_Compliance(t *testing.T) {
	storetest.Run(t, makeSQLiteStore)
}

// Two :memory: stores opened in the same process must be independent
// databases, not views onto one shared database.
func TestMemoryStoresAreIsolated(t *testing.T) {
	ctx := context.Background()
	a := makeSQLiteStore(t)
	b := makeSQLiteStore(t)

	p := &model.Paper{PaperID: "iso-1", Title: "isolation check", Abstract: "a"}
	if err := a.Papers().Upsert(ctx, p); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	if _, err := a.Papers().GetByID(ctx, "iso-1"); err != nil {
		t.Fatalf("get from writing store: %v", err)
	}
	if _, err := b.Papers().GetByID(ctx, "iso-1"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound from second store, got %v", err)
	}
}
