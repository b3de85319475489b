package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

const defaultStorageTimeout = 5 * time.Second

// Store bounds every storage call with a deadline.
type Store struct {
	db      *gorm.DB
	timeout time.Duration
}

func NewStore(db *gorm.DB, timeout time.Duration) *Store {
	if timeout <= 0 {
		timeout = defaultStorageTimeout
	}
	return &Store{db: db, timeout: timeout}
}

// Conn returns a session bound to a deadline derived from ctx.
func (s *Store) Conn(ctx context.Context) (*gorm.DB, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	return s.db.WithContext(ctx), cancel
}

// Tx runs fn in a transaction under the storage deadline. fn must only use tx.
func (s *Store) Tx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	db, cancel := s.Conn(ctx)
	defer cancel()
	return classify(db.Transaction(fn))
}

// classify passes domain errors through and folds everything else into
// ErrConflict (unique keys) or ErrStorageUnavailable.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var (
		nf *NotFoundError
		te *TransitionError
		ve *ValidationError
	)
	switch {
	case errors.As(err, &nf), errors.As(err, &te), errors.As(err, &ve),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrInvoiceNotPayable),
		errors.Is(err, ErrItemNotFound),
		errors.Is(err, ErrItemUnavailable),
		errors.Is(err, ErrConflict),
		errors.Is(err, ErrStorageUnavailable),
		errors.Is(err, errStaleWrite):
		return err
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", ErrConflict, err)
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: deadline exceeded", ErrStorageUnavailable)
	}
	return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
}

// lookup converts gorm.ErrRecordNotFound into a typed not-found error.
func lookup(err error, entity string, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound(entity, id)
	}
	return err
}

// errStaleWrite marks a conditional update that matched no row because
// another writer got there first. Callers re-read and retry.
var errStaleWrite = errors.New("stale write")

const maxWriteAttempts = 5

// lookupAsInvalid reports a missing referenced row as a request error.
func lookupAsInvalid(err error, field, format string, args ...interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return invalid(field, format, args...)
	}
	return err
}
