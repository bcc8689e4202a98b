package requestflow

import "github.com/liamcoop/wardline/requests"

// Phase names the states of a request form
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseGenerating
	PhaseGenerated
	PhaseSubmitting
	PhaseSubmitted
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseGenerating:
		return "generating"
	case PhaseGenerated:
		return "generated"
	case PhaseSubmitting:
		return "submitting"
	case PhaseSubmitted:
		return "submitted"
	case PhaseError:
		return "error"
	default:
		return "unknown"
	}
}

// State is one of Idle, Generating, Generated, Submitting, Submitted or Failed
type State interface {
	Phase() Phase
}

// Idle waits for input. Message holds the last validation problem, if any.
type Idle struct {
	Message string
}

// Generating means a letter is being written; generate and submit are disabled
type Generating struct{}

// Generated holds the letter text returned by the generator
type Generated struct {
	Text string
}

// Submitting means the request is being stored; generate and submit are disabled
type Submitting struct{}

// Submitted holds the stored request
type Submitted struct {
	Request *requests.Request
}

// Failed records which step failed and why
type Failed struct {
	From Phase
	Err  error
}

func (Idle) Phase() Phase       { return PhaseIdle }
func (Generating) Phase() Phase { return PhaseGenerating }
func (Generated) Phase() Phase  { return PhaseGenerated }
func (Submitting) Phase() Phase { return PhaseSubmitting }
func (Submitted) Phase() Phase  { return PhaseSubmitted }
func (Failed) Phase() Phase     { return PhaseError }

func busy(s State) bool {
	p := s.Phase()
	return p == PhaseGenerating || p == PhaseSubmitting
}
