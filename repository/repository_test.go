package repository

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/goliatone/go-user-cache/local"
	"github.com/goliatone/go-user-cache/pkg/testsupport"
	"github.com/goliatone/go-user-cache/remote"
	"github.com/goliatone/go-user-cache/user"
)

// mockLocalStore is an in-memory LocalStore that records every call.
type mockLocalStore struct {
	mu        sync.Mutex
	rows      map[string]user.Entity
	calls     []string
	lookupErr error
	insertErr error
}

func newMockLocalStore(rows ...user.Entity) *mockLocalStore {
	m := &mockLocalStore{rows: make(map[string]user.Entity)}
	for _, row := range rows {
		m.rows[row.ID] = row
	}
	return m
}

func (m *mockLocalStore) recordCall(method string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, method)
}

func (m *mockLocalStore) count(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c == method {
			n++
		}
	}
	return n
}

func (m *mockLocalStore) Lookup(ctx context.Context, id string) (*user.Entity, error) {
	m.recordCall("Lookup")
	if m.lookupErr != nil {
		return nil, m.lookupErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id]
	if !ok {
		return nil, nil
	}
	return &row, nil
}

func (m *mockLocalStore) Insert(ctx context.Context, entity user.Entity) error {
	m.recordCall("Insert")
	if m.insertErr != nil {
		return m.insertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.rows[entity.ID]; !exists {
		m.rows[entity.ID] = entity
	}
	return nil
}

func (m *mockLocalStore) Upsert(ctx context.Context, entity user.Entity) error {
	m.recordCall("Upsert")
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[entity.ID] = entity
	return nil
}

// mockRemote serves fixed DTOs and counts fetches.
type mockRemote struct {
	mu    sync.Mutex
	users map[string]user.DTO
	err   error
	calls int
}

func (m *mockRemote) Fetch(ctx context.Context, id string) (user.DTO, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return user.DTO{}, m.err
	}
	dto, ok := m.users[id]
	if !ok {
		return user.DTO{}, user.ErrNotFound
	}
	return dto, nil
}

func (m *mockRemote) fetches() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func TestGetUser_MissFetchesOnceAndWritesOnce(t *testing.T) {
	store := newMockLocalStore()
	rem := &mockRemote{users: map[string]user.DTO{"42": {ID: "42", Name: "Ada"}}}
	repo := New(store, rem)

	got, err := repo.GetUser(context.Background(), "42")
	if err != nil {
		t.Fatalf("GetUser() unexpected error: %v", err)
	}

	if want := (user.User{ID: "42", Name: "Ada"}); got != want {
		t.Errorf("GetUser() = %+v, want %+v", got, want)
	}
	if rem.fetches() != 1 {
		t.Errorf("expected exactly 1 remote fetch, got %d", rem.fetches())
	}
	if store.count("Insert") != 1 {
		t.Errorf("expected exactly 1 cache write, got %d", store.count("Insert"))
	}
}

func TestGetUser_HitSkipsRemote(t *testing.T) {
	store := newMockLocalStore(user.Entity{ID: "42", Name: "Cached Ada"})
	rem := &mockRemote{users: map[string]user.DTO{"42": {ID: "42", Name: "Remote Ada"}}}
	repo := New(store, rem)

	got, err := repo.GetUser(context.Background(), "42")
	if err != nil {
		t.Fatalf("GetUser() unexpected error: %v", err)
	}

	if got.Name != "Cached Ada" {
		t.Errorf("expected cached value, got %+v", got)
	}
	if rem.fetches() != 0 {
		t.Errorf("expected 0 remote fetches on hit, got %d", rem.fetches())
	}
	if store.count("Insert") != 0 {
		t.Errorf("expected no cache write on hit, got %d", store.count("Insert"))
	}
}

func TestGetUser_SecondCallServedFromCache(t *testing.T) {
	store := newMockLocalStore()
	rem := &mockRemote{users: map[string]user.DTO{"7": {ID: "7", Name: "Linus"}}}
	repo := New(store, rem)
	ctx := context.Background()

	first, err := repo.GetUser(ctx, "7")
	if err != nil {
		t.Fatalf("first GetUser() failed: %v", err)
	}
	second, err := repo.GetUser(ctx, "7")
	if err != nil {
		t.Fatalf("second GetUser() failed: %v", err)
	}

	if first != second {
		t.Errorf("calls returned different values: %+v vs %+v", first, second)
	}
	if rem.fetches() != 1 {
		t.Errorf("second call should not fetch, total fetches %d", rem.fetches())
	}
}

func TestGetUser_RemoteFailureLeavesCacheUnchanged(t *testing.T) {
	store := newMockLocalStore()
	networkErr := errors.New("connection refused")
	rem := &mockRemote{err: networkErr}
	repo := New(store, rem)

	_, err := repo.GetUser(context.Background(), "42")
	if !errors.Is(err, networkErr) {
		t.Fatalf("expected network error, got %v", err)
	}
	if store.count("Insert") != 0 {
		t.Errorf("expected no cache write after remote failure")
	}
	if len(store.rows) != 0 {
		t.Errorf("cache should be empty, has %d rows", len(store.rows))
	}
}

func TestGetUser_LocalErrorsPropagate(t *testing.T) {
	lookupErr := errors.New("storage unavailable")
	rem := &mockRemote{users: map[string]user.DTO{"42": {ID: "42", Name: "Ada"}}}

	store := newMockLocalStore()
	store.lookupErr = lookupErr
	if _, err := New(store, rem).GetUser(context.Background(), "42"); !errors.Is(err, lookupErr) {
		t.Errorf("expected lookup error, got %v", err)
	}
	if rem.fetches() != 0 {
		t.Errorf("remote must not be called when lookup fails")
	}

	insertErr := errors.New("disk full")
	store = newMockLocalStore()
	store.insertErr = insertErr
	if _, err := New(store, rem).GetUser(context.Background(), "42"); !errors.Is(err, insertErr) {
		t.Errorf("expected insert error, got %v", err)
	}
}

func TestGetUser_InvalidIDTouchesNothing(t *testing.T) {
	store := newMockLocalStore()
	rem := &mockRemote{}

	_, err := New(store, rem).GetUser(context.Background(), "")
	if !errors.Is(err, user.ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
	if store.count("Lookup") != 0 || rem.fetches() != 0 {
		t.Errorf("no store should be touched for an invalid id")
	}
}

func TestRefresh_OverwritesCachedRow(t *testing.T) {
	store := newMockLocalStore(user.Entity{ID: "42", Name: "Ada"})
	rem := &mockRemote{users: map[string]user.DTO{"42": {ID: "42", Name: "Ada Lovelace"}}}
	repo := New(store, rem)
	ctx := context.Background()

	got, err := repo.Refresh(ctx, "42")
	if err != nil {
		t.Fatalf("Refresh() unexpected error: %v", err)
	}
	if got.Name != "Ada Lovelace" {
		t.Errorf("Refresh() = %+v", got)
	}

	after, err := repo.GetUser(ctx, "42")
	if err != nil {
		t.Fatalf("GetUser() unexpected error: %v", err)
	}
	if after.Name != "Ada Lovelace" {
		t.Errorf("GetUser() after refresh = %+v", after)
	}
	if rem.fetches() != 1 {
		t.Errorf("expected only the refresh to fetch, got %d", rem.fetches())
	}
}

func TestScenario_SqliteAndHTTP(t *testing.T) {
	srv := testsupport.NewUserServer(t, user.DTO{ID: "42", Name: "Ada"})

	store, err := local.Open(filepath.Join(t.TempDir(), "users.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	if err := store.ApplyMigrations(); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	repo := New(store, remote.NewClient(srv.URL))
	ctx := context.Background()

	got, err := repo.GetUser(ctx, "42")
	if err != nil {
		t.Fatalf("GetUser() unexpected error: %v", err)
	}
	if want := (user.User{ID: "42", Name: "Ada"}); got != want {
		t.Errorf("GetUser() = %+v, want %+v", got, want)
	}

	row, err := store.Lookup(ctx, "42")
	if err != nil || row == nil {
		t.Fatalf("expected row for 42 in cache, got %v, %v", row, err)
	}

	again, err := repo.GetUser(ctx, "42")
	if err != nil {
		t.Fatalf("second GetUser() unexpected error: %v", err)
	}
	if again != got {
		t.Errorf("second GetUser() = %+v, want %+v", again, got)
	}
	if srv.Calls("42") != 1 {
		t.Errorf("expected one network call, got %d", srv.Calls("42"))
	}

	// Network failure for an uncached id leaves the table as it was.
	srv.FailWith(503)
	if _, err := repo.GetUser(ctx, "43"); err == nil {
		t.Fatal("expected error when remote fails")
	}
	n, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 cached row after failed fetch, got %d", n)
	}
}

func TestScenario_ForeignIDIsNotCached(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"43","name":"Bob"}`))
	}))
	defer srv.Close()

	store, err := local.Open(filepath.Join(t.TempDir(), "users.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	if err := store.ApplyMigrations(); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	repo := New(store, remote.NewClient(srv.URL))
	ctx := context.Background()

	var respErr *remote.ResponseError
	if _, err := repo.GetUser(ctx, "42"); !errors.As(err, &respErr) {
		t.Fatalf("expected *remote.ResponseError, got %v", err)
	}
	if _, err := repo.Refresh(ctx, "42"); !errors.As(err, &respErr) {
		t.Fatalf("Refresh: expected *remote.ResponseError, got %v", err)
	}

	n, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Errorf("a mismatched response must not be written, got %d rows", n)
	}
}
