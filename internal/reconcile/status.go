package reconcile

// Status classifies how an expense's contributions compare to its total.
// It is derived on every read and never stored.
type Status int

const (
	NoContributions Status = iota
	Balanced
	Insufficient
	Excess
)

func (s Status) String() string {
	switch s {
	case NoContributions:
		return "no_contributions"
	case Balanced:
		return "balanced"
	case Insufficient:
		return "insufficient"
	case Excess:
		return "excess"
	default:
		return "unknown"
	}
}
