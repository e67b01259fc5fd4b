// Package viewmodel holds the observable "current user" slot the screens render.
package viewmodel

import (
	"context"
	"io"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-user-cache/user"
)

// UserLoader is the use case a view-model triggers.
type UserLoader interface {
	Execute(ctx context.Context, id string) (user.User, error)
}

// State is a snapshot of the slot. User is nil until a load succeeds.
type State struct {
	User    *user.User
	Err     error
	Loading bool
}

// UserViewModel publishes the result of the most recent Load.
// Only the latest Load may write the slot; readers never block writers.
type UserViewModel struct {
	loader UserLoader
	logger logrus.FieldLogger

	mu          sync.Mutex
	state       State
	generation  uint64
	subscribers map[chan State]struct{}

	pending sync.WaitGroup
}

// Option configures a UserViewModel.
type Option func(*UserViewModel)

// WithLogger sets the logger used to report failed loads.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(vm *UserViewModel) {
		if logger != nil {
			vm.logger = logger
		}
	}
}

// New creates an empty view-model over loader.
func New(loader UserLoader, opts ...Option) *UserViewModel {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	vm := &UserViewModel{
		loader:      loader,
		logger:      discard,
		subscribers: make(map[chan State]struct{}),
	}
	for _, opt := range opts {
		opt(vm)
	}
	return vm
}

// Load starts fetching id in the background and returns immediately.
// ctx bounds the work: once it is done the result is dropped.
// A later Load supersedes any load still in flight.
func (vm *UserViewModel) Load(ctx context.Context, id string) {
	vm.mu.Lock()
	vm.generation++
	gen := vm.generation
	vm.state.Loading = true
	vm.publishLocked()
	vm.mu.Unlock()

	vm.pending.Add(1)
	go func() {
		defer vm.pending.Done()

		u, err := vm.loader.Execute(ctx, id)

		vm.mu.Lock()
		defer vm.mu.Unlock()

		if gen != vm.generation {
			return
		}
		vm.state.Loading = false

		switch {
		case ctx.Err() != nil:
			vm.logger.WithField("user_id", id).Debug("load abandoned")
		case err != nil:
			vm.logger.WithError(err).WithField("user_id", id).Warn("load user failed")
			vm.state.Err = err
		default:
			vm.state.User = &u
			vm.state.Err = nil
		}
		vm.publishLocked()
	}()
}

// Current returns the latest state.
func (vm *UserViewModel) Current() State {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.state
}

// Subscribe returns a channel that always holds the most recent state.
// Intermediate states may be skipped by slow readers. The channel is
// closed once ctx is done.
func (vm *UserViewModel) Subscribe(ctx context.Context) <-chan State {
	ch := make(chan State, 1)

	vm.mu.Lock()
	vm.subscribers[ch] = struct{}{}
	ch <- vm.state
	vm.mu.Unlock()

	go func() {
		<-ctx.Done()
		vm.mu.Lock()
		delete(vm.subscribers, ch)
		close(ch)
		vm.mu.Unlock()
	}()

	return ch
}

// Wait blocks until every started load has finished.
func (vm *UserViewModel) Wait() {
	vm.pending.Wait()
}

func (vm *UserViewModel) publishLocked() {
	for ch := range vm.subscribers {
		select {
		case ch <- vm.state:
			continue
		default:
		}
		// replace the unread value
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- vm.state:
		default:
		}
	}
}
