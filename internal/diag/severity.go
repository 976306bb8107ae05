package diag

// Severity ranks how serious a diagnostic is. Rule violations report as
// errors; recoverable parse problems may report as warnings.
type Severity uint8

const (
	// SevInfo carries context that is never a problem on its own.
	SevInfo Severity = iota
	// SevWarning flags something suspicious that does not fail the run.
	SevWarning
	// SevError fails the run.
	SevError
)

func (s Severity) String() string {
	switch s {
	case SevInfo:
		return "INFO"
	case SevWarning:
		return "WARNING"
	case SevError:
		return "ERROR"
	}
	return "UNKNOWN"
}
