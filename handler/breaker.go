package handler

import "ssw-corelog/corelogerr"

// errorBreaker is the Internal Handler's error-chain depth counter
// (spec.md §4.4.4), adapted from the teacher's pkg/circuit_breaker: the
// breaker "trips" — forcing the loop to abort with too-many-errors —
// the moment the chain depth exceeds corelogerr.MaxErrorDepth. Unlike a
// classic circuit breaker there is no half-open/reset timer: spec.md
// gives the handler no recovery path once too-many-errors fires, only
// a clean abort.
type errorBreaker struct {
	chain *corelogerr.CoreError
}

func newErrorBreaker() *errorBreaker {
	return &errorBreaker{}
}

// record appends a new error onto the chain and reports whether the
// breaker has now tripped.
func (b *errorBreaker) record(code corelogerr.Code, component, operation, message string) (*corelogerr.CoreError, bool) {
	var head *corelogerr.CoreError
	if b.chain == nil {
		head = corelogerr.New(code, component, operation, message)
	} else {
		head = corelogerr.Wrap(code, component, operation, message, b.chain)
	}
	b.chain = head
	return head, head.TooManyErrors()
}

// reset clears the chain, used after a clean flush cycle so transient
// errors don't accumulate toward the too-many-errors threshold forever.
func (b *errorBreaker) reset() {
	b.chain = nil
}
