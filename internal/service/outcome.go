package service

// Outcome tags how an entity was obtained.
type Outcome string

const (
	OutcomeFound    Outcome = "found"
	OutcomeCreated  Outcome = "created"
	OutcomeFellBack Outcome = "fell_back"
	OutcomeFailed   Outcome = "failed"
)

// Resolution is the result of a find-or-create step. Err carries the cause
// of a FellBack or Failed outcome, if any.
type Resolution struct {
	ID      int64
	Outcome Outcome
	Err     error
}

// Degraded reports whether the step succeeded only by falling back.
func (r Resolution) Degraded() bool {
	return r.Outcome == OutcomeFellBack
}

func found(id int64) Resolution   { return Resolution{ID: id, Outcome: OutcomeFound} }
func created(id int64) Resolution { return Resolution{ID: id, Outcome: OutcomeCreated} }

func fellBack(id int64, err error) Resolution {
	return Resolution{ID: id, Outcome: OutcomeFellBack, Err: err}
}

func failed(err error) Resolution {
	return Resolution{Outcome: OutcomeFailed, Err: err}
}
