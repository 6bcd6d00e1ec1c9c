package failure

type Severity int

const (
	SeverityFatal Severity = iota
	SeverityRecoverable
)

func (s Severity) String() string {
	switch s {
	case SeverityFatal:
		return "fatal"
	case SeverityRecoverable:
		return "recoverable"
	default:
		return "unknown"
	}
}

// ClassifiedError is an error that knows whether the caller can carry on.
type ClassifiedError interface {
	error
	Severity() Severity
}
