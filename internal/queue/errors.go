package queue

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration is the sentinel wrapped by every ConfigurationError.
	ErrConfiguration = errors.New("queue: invalid configuration")
	// ErrNilItem is wrapped by a SerializationError when an item encodes to null.
	ErrNilItem = errors.New("queue: nil item")
	// ErrLockTimeout is returned by TryPush when the queue lock could not be
	// taken within LockWait.
	ErrLockTimeout = errors.New("queue: lock timeout")
	// ErrClearUnsupported is returned by Clear.
	ErrClearUnsupported = errors.New("queue: clear is not supported")
)

// ConfigurationError reports an invalid constructor argument.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("queue: invalid %s: %s", e.Field, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

// SerializationError reports a payload that could not be encoded for storage
// (Op "encode") or decoded after retrieval (Op "decode").
type SerializationError struct {
	Op  string
	Key string
	Err error
}

func (e *SerializationError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("queue: %s %s: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("queue: %s: %v", e.Op, e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }
