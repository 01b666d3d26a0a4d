// pkg/inventory/errors.go

package inventory

import (
	"errors"
	"fmt"
)

// NotFoundError reports that the requested cluster does not exist in the
// management inventory. It is fatal to the run: there is nothing to
// evaluate without resources.
type NotFoundError struct {
	Cluster string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("cluster %q not found in inventory", e.Cluster)
}

// EmptyResultError reports that the cluster resolved but contains no
// hosts. Also fatal to the run.
type EmptyResultError struct {
	Cluster string
}

func (e *EmptyResultError) Error() string {
	return fmt.Sprintf("cluster %q contains no hosts", e.Cluster)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsEmptyResult reports whether err is an EmptyResultError.
func IsEmptyResult(err error) bool {
	var er *EmptyResultError
	return errors.As(err, &er)
}
