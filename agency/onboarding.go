/*
onboarding.go - Agent onboarding lifecycle

PURPOSE:
  Defines the four-step onboarding status enum and the single legal
  transition rule: statuses only advance, one step at a time.

LIFECYCLE:
  pre_invite -> invited -> onboarding -> active

  pre_invite: Agent record created by an admin, no invite sent yet
  invited:    Invite delivered, waiting on the agent to start paperwork
  onboarding: Agent is working through contracting/licensing steps
  active:     Fully contracted; deals and scoreboard visibility apply

TRANSITIONS:
  Advance() is the only mutation. Skipping a step, moving backward, or
  advancing past active all fail with a TransitionError so callers can
  surface a 400 rather than silently corrupting the workflow.

SEE ALSO:
  - api/handlers.go: AdvanceAgent endpoint
  - api/scheduler.go: Reminder sweep over agents stuck in "invited"
*/
package agency

import "fmt"

// OnboardingStatus is the agent's position in the onboarding workflow.
type OnboardingStatus string

const (
	StatusPreInvite  OnboardingStatus = "pre_invite"
	StatusInvited    OnboardingStatus = "invited"
	StatusOnboarding OnboardingStatus = "onboarding"
	StatusActive     OnboardingStatus = "active"
)

// onboardingOrder fixes the linear workflow. Index order is the only
// source of truth for what "next" means.
var onboardingOrder = []OnboardingStatus{
	StatusPreInvite,
	StatusInvited,
	StatusOnboarding,
	StatusActive,
}

// TransitionError reports an illegal onboarding transition.
type TransitionError struct {
	From OnboardingStatus
	To   OnboardingStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("illegal onboarding transition %s -> %s", e.From, e.To)
}

// Valid reports whether s is one of the four known statuses.
func (s OnboardingStatus) Valid() bool {
	for _, known := range onboardingOrder {
		if s == known {
			return true
		}
	}
	return false
}

// Next returns the status that follows s, or s itself when s is
// already terminal (active) or unknown.
func (s OnboardingStatus) Next() OnboardingStatus {
	for i, known := range onboardingOrder {
		if s == known && i+1 < len(onboardingOrder) {
			return onboardingOrder[i+1]
		}
	}
	return s
}

// Advance validates and applies a transition from s to target. Only a
// single forward step is legal.
func (s OnboardingStatus) Advance(target OnboardingStatus) (OnboardingStatus, error) {
	if !s.Valid() || !target.Valid() {
		return s, &TransitionError{From: s, To: target}
	}
	if s == StatusActive || target != s.Next() {
		return s, &TransitionError{From: s, To: target}
	}
	return target, nil
}
