package memory

import (
	"context"
	"testing"

	"burgerapi/pkg/burger"
	"burgerapi/pkg/burger/burgertest"
)

func TestRepository(t *testing.T) {
	ctx := context.Background()
	repo := New()
	b, err := repo.Insert(ctx, burger.Burger{ID: 42, Name: "Classic", Price: 5.99})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if b.ID != 1 {
		t.Fatalf("expected assigned id 1, got %d", b.ID)
	}
	got, err := repo.GetByID(ctx, 1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.MustGet().Name != "Classic" {
		t.Fatalf("expected Classic, got %s", got.MustGet().Name)
	}
	b.Name = "Double"
	if _, err := repo.Update(ctx, b); err != nil {
		t.Fatalf("update: %v", err)
	}
	list, err := repo.ListAll(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("list: %v len=%d", err, len(list))
	}
	removed, err := repo.Delete(ctx, 1)
	if err != nil || removed.IsAbsent() {
		t.Fatalf("delete: %v present=%v", err, removed.IsPresent())
	}
	if opt, _ := repo.GetByID(ctx, 1); opt.IsPresent() {
		t.Fatal("expected absence after delete")
	}
}

func TestConformance(t *testing.T) {
	burgertest.Run(t, func(t *testing.T) burger.Repository { return New() })
}
