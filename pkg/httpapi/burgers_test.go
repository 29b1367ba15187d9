package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"burgerapi/pkg/burger"
	"burgerapi/pkg/burger/memory"
)

func do(t *testing.T, h http.Handler, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	msg := gjson.Get(rec.Body.String(), "error")
	require.True(t, msg.Exists(), "body %q has no error field", rec.Body.String())
	return msg.String()
}

// ---------------------------------------------------------------------------
// GET /api/burgers
// ---------------------------------------------------------------------------

func TestListBurgers_Empty(t *testing.T) {
	srv := testServer(memory.New())

	rec := do(t, srv, http.MethodGet, "/api/burgers", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestListBurgers_Success(t *testing.T) {
	mock := &mockRepo{t: t,
		ListAllFn: func(ctx context.Context) ([]burger.Burger, error) {
			return []burger.Burger{
				{ID: 1, Name: "Classic", Price: 5.99, Version: 3},
				{ID: 2, Name: "Veggie", Description: "beet patty", Price: 6.5},
			}, nil
		},
	}

	rec := do(t, testServer(mock), http.MethodGet, "/api/burgers", "")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Equal(t, int64(2), gjson.Get(body, "#").Int())
	assert.Equal(t, "Classic", gjson.Get(body, "0.name").String())
	assert.False(t, gjson.Get(body, "0.description").Exists())
	assert.False(t, gjson.Get(body, "0.version").Exists())
	assert.Equal(t, "beet patty", gjson.Get(body, "1.description").String())
}

func TestListBurgers_StoreError(t *testing.T) {
	mock := &mockRepo{t: t,
		ListAllFn: func(ctx context.Context) ([]burger.Burger, error) {
			return nil, fmt.Errorf("listing burgers: %w", errStoreDown)
		},
	}

	rec := do(t, testServer(mock), http.MethodGet, "/api/burgers", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal server error", errorMessage(t, rec))
}

// ---------------------------------------------------------------------------
// GET /api/burgers/{id}
// ---------------------------------------------------------------------------

func TestGetBurger_Success(t *testing.T) {
	mock := &mockRepo{t: t,
		GetByIDFn: func(ctx context.Context, id int64) (mo.Option[burger.Burger], error) {
			return mo.Some(burger.Burger{ID: id, Name: "Classic", Price: 5.99, Version: 4}), nil
		},
	}

	rec := do(t, testServer(mock), http.MethodGet, "/api/burgers/7", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `W/"7-4"`, rec.Header().Get("ETag"))
	assert.JSONEq(t, `{"id":7,"name":"Classic","price":5.99}`, rec.Body.String())
}

func TestGetBurger_NotFound(t *testing.T) {
	mock := &mockRepo{t: t,
		GetByIDFn: func(ctx context.Context, id int64) (mo.Option[burger.Burger], error) {
			return mo.None[burger.Burger](), nil
		},
	}

	rec := do(t, testServer(mock), http.MethodGet, "/api/burgers/42", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, errorMessage(t, rec), "42")
}

func TestGetBurger_InvalidID(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{"word", "/api/burgers/abc"},
		{"float", "/api/burgers/1.5"},
		{"overflow", "/api/burgers/99999999999999999999"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, testServer(&mockRepo{t: t}), http.MethodGet, tt.path, "")

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "invalid burger id", errorMessage(t, rec))
		})
	}
}

// ---------------------------------------------------------------------------
// POST /api/burgers
// ---------------------------------------------------------------------------

func TestCreateBurger_Success(t *testing.T) {
	srv := testServer(memory.New())

	rec := do(t, srv, http.MethodPost, "/api/burgers", `{"id":99,"name":"Classic","price":5.99}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "/api/burgers/1", rec.Header().Get("Location"))
	assert.Equal(t, `W/"1-1"`, rec.Header().Get("ETag"))
	assert.JSONEq(t, `{"id":1,"name":"Classic","price":5.99}`, rec.Body.String())

	get := do(t, srv, http.MethodGet, rec.Header().Get("Location"), "")
	require.Equal(t, http.StatusOK, get.Code)
	assert.JSONEq(t, rec.Body.String(), get.Body.String())
}

func TestCreateBurger_InvalidBody(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"truncated", `{"name":`},
		{"wrong type", `{"name":"Classic","price":"cheap"}`},
		{"empty", ``},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, testServer(&mockRepo{t: t}), http.MethodPost, "/api/burgers", tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, errorMessage(t, rec), "invalid request body")
		})
	}
}

func TestCreateBurger_StoreError(t *testing.T) {
	mock := &mockRepo{t: t,
		InsertFn: func(ctx context.Context, b burger.Burger) (burger.Burger, error) {
			return burger.Burger{}, errStoreDown
		},
	}

	rec := do(t, testServer(mock), http.MethodPost, "/api/burgers", `{"name":"Classic"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal server error", errorMessage(t, rec))
}

// ---------------------------------------------------------------------------
// PUT /api/burgers/{id}
// ---------------------------------------------------------------------------

func TestUpdateBurger_Success(t *testing.T) {
	var got burger.Burger
	mock := &mockRepo{t: t,
		UpdateFn: func(ctx context.Context, b burger.Burger) (burger.Burger, error) {
			got = b
			b.Version = 2
			return b, nil
		},
	}

	rec := do(t, testServer(mock), http.MethodPut, "/api/burgers/3", `{"id":3,"name":"Double","price":8}`)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.Equal(t, `W/"3-2"`, rec.Header().Get("ETag"))
	assert.Equal(t, burger.Burger{ID: 3, Name: "Double", Price: 8}, got)
}

func TestUpdateBurger_IfMatchCarriesVersion(t *testing.T) {
	var got burger.Burger
	mock := &mockRepo{t: t,
		UpdateFn: func(ctx context.Context, b burger.Burger) (burger.Burger, error) {
			got = b
			b.Version++
			return b, nil
		},
	}

	rec := do(t, testServer(mock), http.MethodPut, "/api/burgers/3", `{"id":3,"name":"Double"}`,
		"If-Match", `W/"3-5"`)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, int64(5), got.Version)
	assert.Equal(t, `W/"3-6"`, rec.Header().Get("ETag"))
}

// A mismatched id is rejected before the store is touched.
func TestUpdateBurger_IDMismatch(t *testing.T) {
	rec := do(t, testServer(&mockRepo{t: t}), http.MethodPut, "/api/burgers/1", `{"id":2,"name":"Other"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, errorMessage(t, rec), "does not match")
}

func TestUpdateBurger_IDMismatchLeavesStoreUnchanged(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()
	a, err := repo.Insert(ctx, burger.Burger{Name: "A", Price: 1})
	require.NoError(t, err)
	_, err = repo.Insert(ctx, burger.Burger{Name: "B", Price: 2})
	require.NoError(t, err)

	rec := do(t, testServer(repo), http.MethodPut, "/api/burgers/1", `{"id":2,"name":"Hijack","price":0}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	list, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, a, list[0])
	assert.Equal(t, "B", list[1].Name)
}

func TestUpdateBurger_Errors(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		body       string
		ifMatch    string
		updateErr  error
		wantStatus int
		wantError  string
	}{
		{
			name:       "invalid id",
			path:       "/api/burgers/x",
			body:       `{"id":1}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid burger id",
		},
		{
			name:       "invalid body",
			path:       "/api/burgers/1",
			body:       `{`,
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid request body",
		},
		{
			name:       "malformed if-match",
			path:       "/api/burgers/1",
			body:       `{"id":1}`,
			ifMatch:    "version-1",
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid If-Match",
		},
		{
			name:       "missing",
			path:       "/api/burgers/1",
			body:       `{"id":1}`,
			updateErr:  burger.ErrNotFound,
			wantStatus: http.StatusNotFound,
			wantError:  "burger 1 not found",
		},
		{
			name:       "conflict",
			path:       "/api/burgers/1",
			body:       `{"id":1}`,
			updateErr:  burger.ErrConflict,
			wantStatus: http.StatusConflict,
			wantError:  "modified concurrently",
		},
		{
			name:       "store down",
			path:       "/api/burgers/1",
			body:       `{"id":1}`,
			updateErr:  errStoreDown,
			wantStatus: http.StatusInternalServerError,
			wantError:  "internal server error",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockRepo{t: t}
			if tt.updateErr != nil {
				mock.UpdateFn = func(ctx context.Context, b burger.Burger) (burger.Burger, error) {
					return burger.Burger{}, tt.updateErr
				}
			}
			var headers []string
			if tt.ifMatch != "" {
				headers = []string{"If-Match", tt.ifMatch}
			}

			rec := do(t, testServer(mock), http.MethodPut, tt.path, tt.body, headers...)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, errorMessage(t, rec), tt.wantError)
		})
	}
}

func TestUpdateBurger_StaleETag(t *testing.T) {
	srv := testServer(memory.New())

	created := do(t, srv, http.MethodPost, "/api/burgers", `{"name":"Classic","price":5}`)
	require.Equal(t, http.StatusCreated, created.Code)
	stale := created.Header().Get("ETag")

	first := do(t, srv, http.MethodPut, "/api/burgers/1", `{"id":1,"name":"Classic","price":6}`, "If-Match", stale)
	require.Equal(t, http.StatusNoContent, first.Code)
	assert.Equal(t, `W/"1-2"`, first.Header().Get("ETag"))

	second := do(t, srv, http.MethodPut, "/api/burgers/1", `{"id":1,"name":"Classic","price":7}`, "If-Match", stale)
	assert.Equal(t, http.StatusConflict, second.Code)

	get := do(t, srv, http.MethodGet, "/api/burgers/1", "")
	assert.Equal(t, 6.0, gjson.Get(get.Body.String(), "price").Float())
}

// ---------------------------------------------------------------------------
// DELETE /api/burgers/{id}
// ---------------------------------------------------------------------------

func TestDeleteBurger_ReturnsRemovedThenNotFound(t *testing.T) {
	srv := testServer(memory.New())
	created := do(t, srv, http.MethodPost, "/api/burgers", `{"name":"Classic","price":5.99}`)
	require.Equal(t, http.StatusCreated, created.Code)

	first := do(t, srv, http.MethodDelete, "/api/burgers/1", "")
	require.Equal(t, http.StatusOK, first.Code)
	assert.JSONEq(t, created.Body.String(), first.Body.String())

	get := do(t, srv, http.MethodGet, "/api/burgers/1", "")
	assert.Equal(t, http.StatusNotFound, get.Code)

	for range 2 {
		again := do(t, srv, http.MethodDelete, "/api/burgers/1", "")
		assert.Equal(t, http.StatusNotFound, again.Code)
	}

	list := do(t, srv, http.MethodGet, "/api/burgers", "")
	assert.JSONEq(t, `[]`, list.Body.String())
}

func TestDeleteBurger_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"conflict", burger.ErrConflict, http.StatusConflict},
		{"store down", errStoreDown, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockRepo{t: t,
				DeleteFn: func(ctx context.Context, id int64) (mo.Option[burger.Burger], error) {
					return mo.None[burger.Burger](), tt.err
				},
			}

			rec := do(t, testServer(mock), http.MethodDelete, "/api/burgers/1", "")

			assert.Equal(t, tt.wantStatus, rec.Code)
			errorMessage(t, rec)
		})
	}
}

func TestDeleteBurger_InvalidID(t *testing.T) {
	rec := do(t, testServer(&mockRepo{t: t}), http.MethodDelete, "/api/burgers/one", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ---------------------------------------------------------------------------
// If-Match parsing
// ---------------------------------------------------------------------------

func TestParseIfMatch(t *testing.T) {
	tests := []struct {
		header  string
		want    int64
		wantErr bool
	}{
		{header: "", want: 0},
		{header: "*", want: 0},
		{header: `W/"5-3"`, want: 3},
		{header: `"5-3"`, want: 3},
		{header: ` W/"5-3" `, want: 3},
		{header: `W/"6-3"`, want: -1},
		{header: `W/5-3`, wantErr: true},
		{header: `W/"5"`, wantErr: true},
		{header: `W/"5-x"`, wantErr: true},
		{header: `W/"x-3"`, wantErr: true},
		{header: `W/"5-0"`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			got, err := parseIfMatch(tt.header, 5)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
