package testsupport

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/goliatone/go-user-cache/user"
)

// UserServer is a fake remote endpoint serving GET /users/{id}.
// It records how many requests it received per id.
type UserServer struct {
	*httptest.Server

	mu     sync.Mutex
	users  map[string]user.DTO
	calls  map[string]int
	status int
}

// NewUserServer starts a fake endpoint seeded with users and closes it when the test ends.
func NewUserServer(t testing.TB, users ...user.DTO) *UserServer {
	t.Helper()

	s := &UserServer{
		users: make(map[string]user.DTO, len(users)),
		calls: make(map[string]int),
	}
	for _, u := range users {
		s.users[u.ID] = u
	}

	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

// FailWith makes every following request answer with status; 0 restores normal behaviour.
func (s *UserServer) FailWith(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
}

// Put adds or replaces a user served by the endpoint.
func (s *UserServer) Put(u user.DTO) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

// Calls reports how many requests were made for id.
func (s *UserServer) Calls(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[id]
}

// TotalCalls reports how many requests were made for any id.
func (s *UserServer) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.calls {
		total += n
	}
	return total
}

func (s *UserServer) serve(w http.ResponseWriter, r *http.Request) {
	id, ok := strings.CutPrefix(r.URL.Path, "/users/")
	if r.Method != http.MethodGet || !ok || id == "" {
		http.NotFound(w, r)
		return
	}

	s.mu.Lock()
	s.calls[id]++
	status := s.status
	u, found := s.users[id]
	s.mu.Unlock()

	if status != 0 {
		http.Error(w, http.StatusText(status), status)
		return
	}
	if !found {
		http.Error(w, "user not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(u)
}
