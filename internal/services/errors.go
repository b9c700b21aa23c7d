package services

import "fmt"

// ValidationError reports missing or malformed job input. No state is
// mutated when one is returned.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// InvalidTransitionError reports a disallowed or precondition-unmet status
// transition. The job is left unchanged; Message names what is missing so
// the caller can surface it as a blocking validation message.
type InvalidTransitionError struct {
	From    string
	To      string
	Message string
}

func (e *InvalidTransitionError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("cannot move job from %s to %s", e.From, e.To)
}

// PlanLimitExceeded blocks job or technician creation once the company's
// subscription ceiling is reached.
type PlanLimitExceeded struct {
	Resource string
	Limit    int
}

func (e *PlanLimitExceeded) Error() string {
	return fmt.Sprintf("%s limit of %d reached for the current plan", e.Resource, e.Limit)
}

// CapacityError rejects an append that would exceed a fixed cap, before any
// upload begins.
type CapacityError struct {
	Resource string
	Max      int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("%s capacity of %d reached", e.Resource, e.Max)
}

// StoreWriteFailure wraps an underlying persistence error. Optimistic local
// state must be rolled back when one is surfaced.
type StoreWriteFailure struct {
	Op  string
	Err error
}

func (e *StoreWriteFailure) Error() string {
	return fmt.Sprintf("store write failed during %s: %v", e.Op, e.Err)
}

func (e *StoreWriteFailure) Unwrap() error {
	return e.Err
}
