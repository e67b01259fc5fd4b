// Package user holds the three representations of a user record and the errors
// shared by every layer of the read path.
//
// The representations are kept in lockstep: User (domain), DTO (wire) and Entity
// (storage) carry exactly the same fields. Conversions live in the mapper package.
package user
