package scan

import "fmt"

// BatchError aggregates every diagnostic collected during a scan run. The
// machines keep scanning after an error so the whole batch is diagnosed in
// one pass; raising this signals the caller to discard all mutations.
type BatchError struct {
	Detail string
	Errors []string
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("%s: %d errors listed", e.Detail, len(e.Errors))
}

func newBatchError(errs []string) *BatchError {
	return &BatchError{Detail: "found errors in processing", Errors: errs}
}
