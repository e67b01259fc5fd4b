// Package usecase exposes the operations the presentation layer may trigger.
package usecase

import (
	"context"

	"github.com/goliatone/go-user-cache/user"
)

// UserGetter is the read side of the user repository.
type UserGetter interface {
	GetUser(ctx context.Context, id string) (user.User, error)
}

// UserRefresher is the explicit refresh side of the user repository.
type UserRefresher interface {
	Refresh(ctx context.Context, id string) (user.User, error)
}

// GetUser returns a user by id.
type GetUser struct {
	repo UserGetter
}

// NewGetUser creates the use case over repo.
func NewGetUser(repo UserGetter) *GetUser {
	return &GetUser{repo: repo}
}

// Execute delegates to the repository.
func (uc *GetUser) Execute(ctx context.Context, id string) (user.User, error) {
	return uc.repo.GetUser(ctx, id)
}

// RefreshUser re-fetches a user from the remote endpoint and overwrites the cached copy.
type RefreshUser struct {
	repo UserRefresher
}

// NewRefreshUser creates the use case over repo.
func NewRefreshUser(repo UserRefresher) *RefreshUser {
	return &RefreshUser{repo: repo}
}

// Execute delegates to the repository.
func (uc *RefreshUser) Execute(ctx context.Context, id string) (user.User, error) {
	return uc.repo.Refresh(ctx, id)
}
