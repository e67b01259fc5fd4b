// Package mapper converts between the wire, domain and storage forms of a user.
// Every function is total: inputs are assumed to be structurally compatible.
package mapper

import "github.com/goliatone/go-user-cache/user"

// ToDomain maps the remote representation to the domain value.
func ToDomain(dto user.DTO) user.User {
	return user.User{ID: dto.ID, Name: dto.Name}
}

// ToDTO maps a domain value to its wire representation.
func ToDTO(u user.User) user.DTO {
	return user.DTO{ID: u.ID, Name: u.Name}
}

// ToEntity maps a domain value to the row stored in the local cache.
func ToEntity(u user.User) user.Entity {
	return user.Entity{ID: u.ID, Name: u.Name}
}

// FromEntity maps a cached row back to the domain value.
func FromEntity(e user.Entity) user.User {
	return user.User{ID: e.ID, Name: e.Name}
}
