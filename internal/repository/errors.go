// Package repository is the data access layer over MySQL.  Each repository
// is a thin struct around *sql.DB; sentinel errors defined here let the
// workflow engine and the handlers distinguish failure scenarios without
// inspecting driver errors.
package repository

import "errors"

// ErrCaseNotFound is returned when the referenced case does not exist.
var ErrCaseNotFound = errors.New("case not found")

// ErrStaleCase is returned when a stage-guarded write matched no row
// because the case has moved to a different workflow stage since it was
// read.  The write was not applied.
var ErrStaleCase = errors.New("case stage changed")

// ErrCustomerNotFound is returned when the referenced customer does not exist.
var ErrCustomerNotFound = errors.New("customer not found")

// ErrProductNotFound is returned when the referenced product model does not exist.
var ErrProductNotFound = errors.New("product model not found")

// ErrUserNotFound is returned when the referenced user does not exist.
var ErrUserNotFound = errors.New("user not found")

// ErrEmailExists is returned when registering a user with a taken email.
var ErrEmailExists = errors.New("email already exists")

// ErrInviteInvalid is returned when an invitation token does not match any
// pending invite or has expired.
var ErrInviteInvalid = errors.New("invitation invalid or expired")

// ErrConflict is returned when a delete cannot proceed because dependent
// records still reference the row, such as removing a product model that
// case items point at.
var ErrConflict = errors.New("conflict")
