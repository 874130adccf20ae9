package domain

import "errors"

// Error kinds surfaced at the core boundary. Wrap with fmt.Errorf("%w: ...")
// and test with errors.Is at the edges.
var (
	ErrValidation   = errors.New("validation error")
	ErrNotFound     = errors.New("not found")
	ErrPrecondition = errors.New("precondition failed")
	ErrConflict     = errors.New("conflict")
	ErrAuth         = errors.New("unauthorized")
	ErrInternal     = errors.New("internal error")
)
