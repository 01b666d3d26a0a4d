// pkg/utils/errors.go

package utils

import (
	"errors"
	"fmt"
)

// RemoteCallError reports a single remote command or session failure
// against one host. It is contained at the per-host boundary by callers
// and never aborts a fleet loop.
type RemoteCallError struct {
	Host string
	Op   string // connect, auth, session, command
	Err  error
}

func (e *RemoteCallError) Error() string {
	return fmt.Sprintf("remote %s failed on %s: %v", e.Op, e.Host, e.Err)
}

func (e *RemoteCallError) Unwrap() error {
	return e.Err
}

// IsRemoteCallError reports whether err is a RemoteCallError.
func IsRemoteCallError(err error) bool {
	var rc *RemoteCallError
	return errors.As(err, &rc)
}
