package user

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/uptrace/bun"
)

// MaxIDLength caps identifiers accepted by the read path.
const MaxIDLength = 128

var (
	// ErrNotFound is returned when neither the local cache nor the remote endpoint know the id.
	ErrNotFound = errors.New("user not found")

	// ErrInvalidID is returned before any store is touched when an id fails validation.
	ErrInvalidID = errors.New("invalid user id")
)

// User is the domain representation handed to the presentation layer.
type User struct {
	ID   string
	Name string
}

// DTO is the wire representation returned by the remote endpoint.
type DTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Entity is the storage representation persisted in the local cache.
type Entity struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID   string `bun:"id,pk"`
	Name string `bun:"name,notnull"`
}

var noSurroundingSpace = validation.NewStringRule(func(s string) bool {
	return strings.TrimSpace(s) == s
}, "must not have leading or trailing whitespace")

// ValidateID reports ErrInvalidID (wrapping the rule violation) for ids the stores should never see.
func ValidateID(id string) error {
	err := validation.Validate(id,
		validation.Required,
		validation.Length(1, MaxIDLength),
		noSurroundingSpace,
	)
	if err != nil {
		return &InvalidIDError{ID: id, Reason: err}
	}
	return nil
}

// InvalidIDError carries the rule that rejected an id.
type InvalidIDError struct {
	ID     string
	Reason error
}

func (e *InvalidIDError) Error() string {
	return ErrInvalidID.Error() + " " + `"` + e.ID + `": ` + e.Reason.Error()
}

// Is lets errors.Is(err, ErrInvalidID) match.
func (e *InvalidIDError) Is(target error) bool {
	return target == ErrInvalidID
}

func (e *InvalidIDError) Unwrap() error {
	return e.Reason
}
