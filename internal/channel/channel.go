// Package channel implements the delivery transports for notification
// messages. Senders report an explicit Result value; transport errors
// are converted to results, never used for control flow.
package channel

// Result is the outcome of a single send attempt.
type Result int

const (
	// ResultSent means the message was accepted by the transport.
	ResultSent Result = iota

	// ResultTransientFailure means the attempt failed but a retry may
	// succeed (transport error, timeout, unconfigured server).
	ResultTransientFailure

	// ResultPermanentFailure means retrying cannot help (no address or
	// topic resolvable for the recipient).
	ResultPermanentFailure
)

// String returns the result name for logging.
func (r Result) String() string {
	switch r {
	case ResultSent:
		return "sent"
	case ResultTransientFailure:
		return "transient_failure"
	case ResultPermanentFailure:
		return "permanent_failure"
	default:
		return "unknown"
	}
}
