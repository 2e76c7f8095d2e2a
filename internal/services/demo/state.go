// Package demo provides the scripted trip-planning dialogue used when no chat
// backend is involved, together with its dataset and a timed playback of
// each reply.
package demo

// Step is the position of a demo conversation.
type Step string

const (
	StepIdle                Step = "idle"
	StepDestinationDetected Step = "destination_detected"
	StepAwaitingOrigin      Step = "awaiting_origin"
	StepAwaitingDates       Step = "awaiting_dates"
	StepAwaitingBudget      Step = "awaiting_budget"
	StepAwaitingPassengers  Step = "awaiting_passengers"
	StepShowingResults      Step = "showing_results"
)

// State is the step of a demo conversation and the slots captured so far.
// It is plain data so it can be cached between requests.
type State struct {
	Step        Step    `json:"step"`
	Destination string  `json:"destination,omitempty"`
	Origin      string  `json:"origin,omitempty"`
	StartDate   string  `json:"start_date,omitempty"`
	EndDate     string  `json:"end_date,omitempty"`
	Budget      float64 `json:"budget,omitempty"`
	PartyType   string  `json:"party_type,omitempty"`
	Passengers  int     `json:"passengers,omitempty"`
}

// InFlow reports whether the conversation is waiting on an answer.
func (s State) InFlow() bool {
	switch s.Step {
	case StepDestinationDetected, StepAwaitingOrigin, StepAwaitingDates, StepAwaitingBudget, StepAwaitingPassengers:
		return true
	}
	return false
}
