package services

import "errors"

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrStatusConflict is returned when a conditional status transition matched
// no document, meaning another worker already owns the run or the entity is
// not in the required state.
var ErrStatusConflict = errors.New("status conflict")

// ErrCompressionInProgress is returned when a compression request arrives
// while another compression holds the project lock.
var ErrCompressionInProgress = errors.New("compression already in progress")

// transientError marks a failure worth one automatic retry (network blips,
// upstream 5xx). Extraction and validation failures stay fatal.
type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

func markTransient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

func isTransient(err error) bool {
	var te *transientError
	return errors.As(err, &te)
}
