package types

import "errors"

var (
	ErrValidation      = errors.New("invalid input")
	ErrConflict        = errors.New("item already exists or conflict")
	ErrNotFound        = errors.New("requested item not found")
	ErrUnauthenticated = errors.New("authentication required or invalid credentials")
	ErrForbidden       = errors.New("action forbidden")
	ErrCooldown        = errors.New("changed too recently")
	ErrBadRequest      = errors.New("bad request")
)
