package installer

// Outcome classifies the result of one install request.
// Every valid request produces exactly one outcome.
type Outcome int

const (
	// OutcomeUnknown means the request failed before an outcome was reached,
	// for example on a validation or local filesystem error.
	OutcomeUnknown Outcome = iota
	// OutcomeAlreadyExists means the destination already held a binary and
	// force was not set. Nothing was downloaded.
	OutcomeAlreadyExists
	// OutcomeInstalled means a verified binary was placed at the destination.
	OutcomeInstalled
	// OutcomeTimedOut means the download exceeded the request timeout.
	// The partial download was discarded.
	OutcomeTimedOut
	// OutcomeChecksumMismatch means the downloaded payload did not match the
	// catalog digest and was discarded.
	OutcomeChecksumMismatch
	// OutcomeTransportError means the download failed on the network.
	OutcomeTransportError
)

// String returns the CLI-facing name of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeAlreadyExists:
		return "already-exists"
	case OutcomeInstalled:
		return "installed"
	case OutcomeTimedOut:
		return "timed-out"
	case OutcomeChecksumMismatch:
		return "checksum-mismatch"
	case OutcomeTransportError:
		return "transport-error"
	default:
		return "unknown"
	}
}

// Success reports whether the outcome leaves a usable binary at the destination.
func (o Outcome) Success() bool {
	return o == OutcomeInstalled || o == OutcomeAlreadyExists
}
