// Package exception provides the error type shared by platform packages.
// Errors carry the module that raised them and a retryable flag that retry
// policies consult before trying an operation again.
package exception

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"sync"
)

var (
	// ErrNotFound reports that a requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists reports a unique key collision.
	ErrAlreadyExists = errors.New("already exists")
	// ErrNoHealthyUpstream reports that no upstream has passed a health check.
	ErrNoHealthyUpstream = errors.New("no healthy upstream")
)

// PlatformError is an error tagged with the module where it occurred.
type PlatformError struct {
	Module  string
	Message string
	Cause   error

	retryable bool
}

// NewPlatformError wraps cause with a module tag and message.
func NewPlatformError(module, message string, cause error, retryable bool) *PlatformError {
	return &PlatformError{Module: module, Message: message, Cause: cause, retryable: retryable}
}

// NewPlatformErrorf formats the message. A trailing error argument becomes the
// cause and a bool just before it (or last, without a cause) the retryable flag:
//
//	NewPlatformErrorf("bootstrap", "step %s failed", name, err)
//	NewPlatformErrorf("bootstrap", "database %s not reachable", addr, true, err)
func NewPlatformErrorf(module, format string, a ...interface{}) *PlatformError {
	e := &PlatformError{Module: module}
	if n := len(a); n > 0 {
		if err, ok := a[n-1].(error); ok {
			e.Cause, a = err, a[:n-1]
		}
	}
	if n := len(a); n > 0 {
		if b, ok := a[n-1].(bool); ok {
			e.retryable, a = b, a[:n-1]
		}
	}
	e.Message = fmt.Sprintf(format, a...)
	return e
}

func (e *PlatformError) Error() string {
	if e.Cause == nil {
		return "[" + e.Module + "] " + e.Message
	}
	return fmt.Sprintf("[%s] %s: %v", e.Module, e.Message, e.Cause)
}

func (e *PlatformError) Unwrap() error { return e.Cause }

// IsRetryable reports the flag given at construction.
func (e *PlatformError) IsRetryable() bool { return e.retryable }

// transientMarkers are message fragments of errors seen while a dependency is still starting.
var transientMarkers = []string{
	"timeout",
	"connection refused",
	"connection reset",
	"the database system is starting up",
	"EOF",
}

// IsTemporary reports whether err looks transient. A PlatformError in the
// chain decides by its retryable flag; otherwise deadlines and the usual
// startup failures count as transient.
func IsTemporary(err error) bool {
	if err == nil {
		return false
	}
	var pe *PlatformError
	if errors.As(err, &pe) {
		return pe.retryable
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := err.Error()
	for _, m := range transientMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

var (
	namedMu sync.RWMutex
	named   = map[string]error{
		"io.EOF":                   io.EOF,
		"context.DeadlineExceeded": context.DeadlineExceeded,
		"context.Canceled":         context.Canceled,
		"sql.ErrNoRows":            sql.ErrNoRows,
		"NotFound":                 ErrNotFound,
		"AlreadyExists":            ErrAlreadyExists,
		"NoHealthyUpstream":        ErrNoHealthyUpstream,
	}
)

// RegisterErrorType makes err addressable by name in retry configuration.
// It panics on an empty name or nil error.
func RegisterErrorType(name string, err error) {
	if name == "" || err == nil {
		panic(fmt.Sprintf("exception: invalid registration %q -> %v", name, err))
	}
	namedMu.Lock()
	named[name] = err
	namedMu.Unlock()
}

// IsErrorOfType matches err against a name: a registered error, a Go type
// name such as "*net.OpError", or a substring of any message in the chain.
func IsErrorOfType(err error, name string) bool {
	if err == nil {
		return false
	}
	namedMu.RLock()
	target, ok := named[name]
	namedMu.RUnlock()
	if ok && errors.Is(err, target) {
		return true
	}

	for e := err; e != nil; e = errors.Unwrap(e) {
		if strings.Contains(e.Error(), name) {
			return true
		}
		t := reflect.TypeOf(e)
		if t.String() == name || (t.Kind() == reflect.Ptr && t.Elem().String() == name) {
			return true
		}
	}
	return false
}
