package onboarding

import "fmt"

// Step names one stage of the onboarding wizard.
type Step string

const (
	StepRegistration Step = "registration"
	StepVerification Step = "verification"
	StepDetails      Step = "details"
	StepAddress      Step = "address"
	StepPin          Step = "pin"
)

// Destination is a screen outside the wizard that control can be handed to.
type Destination string

const (
	DestinationWelcome   Destination = "Welcome"
	DestinationDashboard Destination = "Dashboard"
)

type edges struct {
	next Step
	prev Step
}

// transitions is the only source of truth for step adjacency. A zero edge
// means the wizard exits to an external destination instead.
var transitions = map[Step]edges{
	StepRegistration: {next: StepVerification},
	StepVerification: {next: StepDetails, prev: StepRegistration},
	StepDetails:      {next: StepAddress, prev: StepVerification},
	StepAddress:      {next: StepPin, prev: StepDetails},
	StepPin:          {prev: StepAddress},
}

// Steps lists the wizard steps in order.
func Steps() []Step {
	return []Step{StepRegistration, StepVerification, StepDetails, StepAddress, StepPin}
}

// ParseStep converts a wire value into a Step.
func ParseStep(value string) (Step, error) {
	s := Step(value)
	if !s.Valid() {
		return "", fmt.Errorf("unknown onboarding step %q", value)
	}
	return s, nil
}

// Valid reports whether s is a member of the fixed step set.
func (s Step) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// Next returns the step after s, or false when s is the last step.
func (s Step) Next() (Step, bool) {
	e, ok := transitions[s]
	if !ok || e.next == "" {
		return "", false
	}
	return e.next, true
}

// Prev returns the step before s, or false when s is the first step.
func (s Step) Prev() (Step, bool) {
	e, ok := transitions[s]
	if !ok || e.prev == "" {
		return "", false
	}
	return e.prev, true
}

// CheckAdvance rejects any forward move that is not in the transition table.
func CheckAdvance(from, to Step) error {
	next, ok := from.Next()
	if !ok || next != to {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
	}
	return nil
}

// CheckRetreat rejects any backward move that is not in the transition table.
func CheckRetreat(from, to Step) error {
	prev, ok := from.Prev()
	if !ok || prev != to {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
	}
	return nil
}
