package catalogcache

import (
	"errors"
	"fmt"
)

// ErrNoBackup is returned by ExportData/ImportData when no Backup is configured.
var ErrNoBackup = errors.New("catalogcache: no backup configured")

// NotFoundError reports that a lookup by name matched nothing.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no records found with name %q", e.Name)
}

// ValidationError reports a record rejected before it reached the store, or an
// update the store refused.
type ValidationError struct {
	Field  string // empty when the whole record is rejected
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	msg := e.Reason
	if e.Field != "" {
		msg = e.Field + ": " + e.Reason
	}
	if e.Err != nil {
		return fmt.Sprintf("invalid record: %s: %v", msg, e.Err)
	}
	return "invalid record: " + msg
}

func (e *ValidationError) Unwrap() error { return e.Err }

// NotSavedError reports that the store accepted a save but returned no record.
type NotSavedError struct {
	ID string
}

func (e *NotSavedError) Error() string {
	if e.ID == "" {
		return "record not saved"
	}
	return fmt.Sprintf("record %q not saved", e.ID)
}

// NotRemovedError reports that an existing record could not be deleted.
// Err is nil when the store simply reported false.
type NotRemovedError struct {
	ID  string
	Err error
}

func (e *NotRemovedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("record %q not removed: %v", e.ID, e.Err)
	}
	return fmt.Sprintf("record %q not removed", e.ID)
}

func (e *NotRemovedError) Unwrap() error { return e.Err }

// StoreError wraps a failure of the persistent store.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// storeErr wraps err unless it already carries one of the service's types.
func storeErr(op string, err error) error {
	var (
		nf *NotFoundError
		ve *ValidationError
		ns *NotSavedError
		nr *NotRemovedError
		se *StoreError
	)
	switch {
	case errors.As(err, &nf), errors.As(err, &ve), errors.As(err, &ns),
		errors.As(err, &nr), errors.As(err, &se):
		return err
	}
	return &StoreError{Op: op, Err: err}
}
