package httpapi

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/samber/mo"

	"burgerapi/pkg/burger"
	"burgerapi/pkg/logger"
)

var errStoreDown = errors.New("connection refused")

// mockRepo implements burger.Repository with function fields.
// Calling a method whose field is nil fails the test.
type mockRepo struct {
	t *testing.T

	ListAllFn func(ctx context.Context) ([]burger.Burger, error)
	GetByIDFn func(ctx context.Context, id int64) (mo.Option[burger.Burger], error)
	InsertFn  func(ctx context.Context, b burger.Burger) (burger.Burger, error)
	UpdateFn  func(ctx context.Context, b burger.Burger) (burger.Burger, error)
	DeleteFn  func(ctx context.Context, id int64) (mo.Option[burger.Burger], error)
	PingFn    func(ctx context.Context) error
}

func (m *mockRepo) ListAll(ctx context.Context) ([]burger.Burger, error) {
	if m.ListAllFn == nil {
		m.t.Fatal("unexpected call to ListAll")
	}
	return m.ListAllFn(ctx)
}

func (m *mockRepo) GetByID(ctx context.Context, id int64) (mo.Option[burger.Burger], error) {
	if m.GetByIDFn == nil {
		m.t.Fatal("unexpected call to GetByID")
	}
	return m.GetByIDFn(ctx, id)
}

func (m *mockRepo) Insert(ctx context.Context, b burger.Burger) (burger.Burger, error) {
	if m.InsertFn == nil {
		m.t.Fatal("unexpected call to Insert")
	}
	return m.InsertFn(ctx, b)
}

func (m *mockRepo) Update(ctx context.Context, b burger.Burger) (burger.Burger, error) {
	if m.UpdateFn == nil {
		m.t.Fatal("unexpected call to Update")
	}
	return m.UpdateFn(ctx, b)
}

func (m *mockRepo) Delete(ctx context.Context, id int64) (mo.Option[burger.Burger], error) {
	if m.DeleteFn == nil {
		m.t.Fatal("unexpected call to Delete")
	}
	return m.DeleteFn(ctx, id)
}

func (m *mockRepo) Ping(ctx context.Context) error {
	if m.PingFn == nil {
		return nil
	}
	return m.PingFn(ctx)
}

func testLogger() *logger.Logger {
	return logger.New(io.Discard, logger.LevelError, "test", nil)
}

func testServer(repo burger.Repository) *Server {
	return New(repo, testLogger(), Options{MetricsEnabled: true})
}
