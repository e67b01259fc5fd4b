package cache

import (
	"context"
	"errors"
	"testing"
)

// mockCacheService returns a canned result and records the fetch function it was handed.
type mockCacheService struct {
	result  any
	err     error
	callFn  bool
	fetched int
}

func (m *mockCacheService) GetOrFetch(ctx context.Context, key string, fetchFn FetchFn[any]) (any, error) {
	if m.callFn {
		m.fetched++
		return fetchFn(ctx)
	}
	return m.result, m.err
}

func (m *mockCacheService) Delete(ctx context.Context, key string) error {
	return nil
}

func (m *mockCacheService) DeleteByPrefix(ctx context.Context, prefix string) error {
	return nil
}

type cachedUser struct {
	ID   string
	Name string
}

func TestGetOrFetch_ValidResult(t *testing.T) {
	mock := &mockCacheService{result: cachedUser{ID: "42", Name: "Ada"}}

	got, err := GetOrFetch(context.Background(), mock, "GetUser::42", func(ctx context.Context) (cachedUser, error) {
		t.Fatal("fetch should not run on a hit")
		return cachedUser{}, nil
	})
	if err != nil {
		t.Fatalf("expected no error but got: %v", err)
	}
	if got.Name != "Ada" {
		t.Errorf("unexpected result %+v", got)
	}
}

func TestGetOrFetch_MissRunsTypedFetch(t *testing.T) {
	mock := &mockCacheService{callFn: true}

	got, err := GetOrFetch(context.Background(), mock, "GetUser::7", func(ctx context.Context) (cachedUser, error) {
		return cachedUser{ID: "7", Name: "Linus"}, nil
	})
	if err != nil {
		t.Fatalf("expected no error but got: %v", err)
	}
	if got.ID != "7" || mock.fetched != 1 {
		t.Errorf("unexpected result %+v after %d fetches", got, mock.fetched)
	}
}

func TestGetOrFetch_ErrorReturnsZero(t *testing.T) {
	fetchErr := errors.New("remote down")
	mock := &mockCacheService{callFn: true}

	got, err := GetOrFetch(context.Background(), mock, "GetUser::1", func(ctx context.Context) (cachedUser, error) {
		return cachedUser{ID: "partial"}, fetchErr
	})
	if !errors.Is(err, fetchErr) {
		t.Fatalf("expected fetch error, got %v", err)
	}
	if got != (cachedUser{}) {
		t.Errorf("expected zero value, got %+v", got)
	}
}

func TestGetOrFetch_NilInterfaceResult(t *testing.T) {
	mock := &mockCacheService{result: nil}

	got, err := GetOrFetch[*cachedUser](context.Background(), mock, "k", func(ctx context.Context) (*cachedUser, error) {
		return nil, nil
	})
	if err != nil {
		t.Errorf("expected no error but got: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil result but got: %v", got)
	}
}

func TestGetOrFetch_TypeAssertionFailure(t *testing.T) {
	mock := &mockCacheService{result: "wrong-type"}

	got, err := GetOrFetch[int](context.Background(), mock, "k", func(ctx context.Context) (int, error) {
		return 42, nil
	})
	if !errors.Is(err, ErrInvalidResultType) {
		t.Errorf("expected ErrInvalidResultType but got: %v", err)
	}
	if got != 0 {
		t.Errorf("expected zero value but got: %v", got)
	}
}
