package runtime

import "fmt"

// UnreachableBranchError reports a resolved port with no matching edge.
// The run transitions to failed with this reason instead of stalling.
type UnreachableBranchError struct {
	NodeID string
	Port   string
}

func (e *UnreachableBranchError) Error() string {
	return fmt.Sprintf("unreachable branch: no edge from node %s port %q", e.NodeID, e.Port)
}

// InvalidInputError reports an event that does not match the run's
// current state or pending request. The run state is unchanged and the
// caller may retry with a corrected event.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return "invalid input: " + e.Reason
}

// ServiceError wraps a failure of an injected external service (file
// system, dialogue). It is recoverable: the run stays where it was and
// the same input may be resubmitted.
type ServiceError struct {
	Service string
	Err     error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s service failed: %v", e.Service, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}
