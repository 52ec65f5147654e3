package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	// ErrInvalidTimeFormat is returned for malformed or out-of-range dates
	// and times. It is always raised before storage is touched.
	ErrInvalidTimeFormat = errors.New("invalid time format")

	// ErrTableConflict means at least one requested table is not available
	// for the window. Nothing was written.
	ErrTableConflict = errors.New("table conflict")

	// ErrStorageFailure wraps every error coming from the database.
	ErrStorageFailure = errors.New("storage failure")

	ErrNotFound = errors.New("not found")

	ErrUnauthenticated         = errors.New("unauthenticated caller")
	ErrInvalidInput            = errors.New("invalid input")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
)

// ConflictError lists the tables that blocked an assignment.
type ConflictError struct {
	TableIDs []uint
}

func (e *ConflictError) Error() string {
	ids := make([]string, len(e.TableIDs))
	for i, id := range e.TableIDs {
		ids[i] = fmt.Sprint(id)
	}
	return fmt.Sprintf("%s: tables %s are not available", ErrTableConflict, strings.Join(ids, ","))
}

func (e *ConflictError) Unwrap() error { return ErrTableConflict }

func newConflictError(ids []uint) *ConflictError {
	sorted := append([]uint(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	return &ConflictError{TableIDs: sorted}
}

// NotFoundError names the missing entity.
type NotFoundError struct {
	Entity string
	IDs    []uint
}

func (e *NotFoundError) Error() string {
	if len(e.IDs) == 1 {
		return fmt.Sprintf("%s %d not found", e.Entity, e.IDs[0])
	}
	return fmt.Sprintf("%s %v not found", e.Entity, e.IDs)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// storageErr keeps both the taxonomy sentinel and the driver error in the
// chain so callers can match either one.
func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrStorageFailure) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStorageFailure, err)
}

// isRetryable reports deadlocks and serialization failures, which are safe
// to retry because the whole transaction was rolled back.
func isRetryable(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1213 || myErr.Number == 1205
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}
