package apperr

import "errors"

// ErrInvalid is returned when the input fails domain validation.
var ErrInvalid = errors.New("invalid input")

// ErrNotFound indicates that the requested record does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateShift means the person already has a shift on that date.
var ErrDuplicateShift = errors.New("duplicate shift")

// ErrInvalidTransition is returned for a status change out of a terminal assignment state.
var ErrInvalidTransition = errors.New("invalid status transition")

// ErrConstraintViolation signals that a backend rejected a record (uniqueness, type, reference).
var ErrConstraintViolation = errors.New("constraint violation")

// ErrBackendUnavailable means the storage backend is not configured or reports not ready.
var ErrBackendUnavailable = errors.New("backend unavailable")

// ErrConnectionUnavailable means the backend could not be reached over the network.
var ErrConnectionUnavailable = errors.New("connection unavailable")

// ErrConcurrentModification is returned when a blob collection changed between read and write.
var ErrConcurrentModification = errors.New("concurrent modification")

// ErrDegradedDurability marks a write that went through without its file lock.
// It is logged, never returned to callers.
var ErrDegradedDurability = errors.New("degraded durability")
