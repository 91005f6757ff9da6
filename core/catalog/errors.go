package catalog

import "fmt"

// Op names the catalog operation that failed.
type Op string

const (
	OpLoad   Op = "load"
	OpSave   Op = "save"
	OpDelete Op = "delete"
)

// CatalogError wraps a policy store failure for direct user display. Message
// carries the underlying error text verbatim; nothing else in the system
// branches on it.
type CatalogError struct {
	Op      Op
	Message string
	Err     error
}

func (e *CatalogError) Error() string {
	return fmt.Sprintf("policy %s failed: %s", e.Op, e.Message)
}

func (e *CatalogError) Unwrap() error { return e.Err }

func opError(op Op, err error) *CatalogError {
	return &CatalogError{Op: op, Message: err.Error(), Err: err}
}
