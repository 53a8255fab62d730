package edgestore

import "fmt"

// SpillError reports a failure of the disk backend. It is fatal for the Store
// that returned it.
type SpillError struct {
	Op   string // "create", "write", "open", "read", "remove"
	Path string
	Err  error
}

func (e *SpillError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("edgestore: spill %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("edgestore: spill %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *SpillError) Unwrap() error { return e.Err }
