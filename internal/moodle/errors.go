package moodle

import (
	"errors"
	"fmt"
)

// ErrNotConfigured is returned, without touching the network, when no
// endpoint URL or token is available.
var ErrNotConfigured = errors.New("moodle: not configured")

// NetworkError wraps transport failures, deadlines and unusable responses.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("moodle %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// RemoteError is an application-level failure reported by the server.
// Error returns the server message unmodified.
type RemoteError struct {
	Function  string
	Exception string
	ErrorCode string
	Message   string
}

func (e *RemoteError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Exception != "" {
		return e.Exception
	}
	return "remote error in " + e.Function
}

// IsRemote reports whether err carries a server-side error.
func IsRemote(err error) bool {
	var remote *RemoteError
	return errors.As(err, &remote)
}

// IsNetwork reports whether err is a transport failure.
func IsNetwork(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}
