package services

import "errors"

// Error kinds. Operations wrap one of these with a message, e.g.
// fmt.Errorf("%w: ride not accepted", ErrState), and the HTTP layer maps the
// kind to a status code.
var (
	ErrInput    = errors.New("invalid input")
	ErrAuth     = errors.New("unauthorized")
	ErrState    = errors.New("invalid ride state")
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
	ErrUpstream = errors.New("upstream failure")
)
