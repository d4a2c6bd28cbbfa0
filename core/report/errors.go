package report

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"net"
	"strings"

	"github.com/pkg/errors"

	"github.com/xenthrall/academy/core"
)

type ErrorKind int

const (
	// KindQueryFailed means the store was reached but a statement failed.
	KindQueryFailed ErrorKind = iota + 1
	// KindStoreUnavailable means no usable connection to the store could be had.
	KindStoreUnavailable
	// KindCanceled means the caller gave up before the report was computed.
	KindCanceled
)

func (k ErrorKind) String() string {
	switch k {
	case KindStoreUnavailable:
		return "store unavailable"
	case KindQueryFailed:
		return "query failed"
	case KindCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Error is returned by every report operation that fails.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func IsStoreUnavailable(err error) bool { return isKind(err, KindStoreUnavailable) }

func IsQueryFailed(err error) bool { return isKind(err, KindQueryFailed) }

func IsCanceled(err error) bool { return isKind(err, KindCanceled) }

func isKind(err error, kind ErrorKind) bool {
	var rErr *Error
	return errors.As(err, &rErr) && rErr.Kind == kind
}

type lostConnError struct {
	err error
}

func (e *lostConnError) Error() string { return e.err.Error() }

func (e *lostConnError) Unwrap() error { return e.err }

// ConnectionLost marks a driver error that means the connection to the store is gone.
// Repositories use it for driver-specific errors the report service cannot recognize.
func ConnectionLost(err error) error {
	if err == nil {
		return nil
	}
	return &lostConnError{err: err}
}

func storeUnavailable(op string, err error) error {
	if dbClosed(err) {
		// the pool will not come back, the process has to be restarted
		err = core.NewShutdownError(err.Error())
	}
	return &Error{Kind: KindStoreUnavailable, Op: op, Err: err}
}

// classify turns an error raised while querying into a report Error.
func classify(op string, err error) error {
	var rErr *Error
	if errors.As(err, &rErr) {
		return err
	}
	if errors.Is(err, context.Canceled) {
		return &Error{Kind: KindCanceled, Op: op, Err: err}
	}
	if connectionLost(err) {
		return storeUnavailable(op, err)
	}
	return &Error{Kind: KindQueryFailed, Op: op, Err: err}
}

func connectionLost(err error) bool {
	var lost *lostConnError
	if errors.As(err, &lost) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return dbClosed(err)
}

func dbClosed(err error) bool {
	// database/sql does not export this one
	return strings.Contains(err.Error(), "sql: database is closed")
}
