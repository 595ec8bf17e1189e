// Sentinel errors shared by the repositories.  Higher layers map
// them onto domain errors.
package repository

import "errors"

// ErrEmailExists is returned by UserRepo.Create when another user
// already owns the (normalised) email address.
var ErrEmailExists = errors.New("email already exists")

// ErrUnknownRole is returned when a user carries a role that has no
// role table.
var ErrUnknownRole = errors.New("unknown role")
