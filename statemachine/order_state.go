package statemachine

import (
	"errors"
	"strings"

	"coconut-supply/models"
)

// Actor names who may drive a transition
const (
	ActorAdmin  = "admin"
	ActorDriver = "driver"
)

// Transition defines a valid state change and who can perform it
type Transition struct {
	From  models.OrderStatus `json:"from"`
	To    models.OrderStatus `json:"to"`
	Actor string             `json:"actor"`
}

// validTransitions is the authoritative state machine definition.
// The lifecycle is strictly forward; delivered is terminal.
var validTransitions = []Transition{
	// Admin assigns a driver to a pending order
	{From: models.StatusPending, To: models.StatusAssigned, Actor: ActorAdmin},
	// Driver leaves with the load
	{From: models.StatusAssigned, To: models.StatusOutForDelivery, Actor: ActorDriver},
	// Driver hands it over
	{From: models.StatusOutForDelivery, To: models.StatusDelivered, Actor: ActorDriver},
}

type transitionKey struct {
	From  models.OrderStatus
	To    models.OrderStatus
	Actor string
}

var transitionMap = func() map[transitionKey]bool {
	m := make(map[transitionKey]bool)
	for _, t := range validTransitions {
		m[transitionKey{t.From, t.To, t.Actor}] = true
	}
	return m
}()

// ErrInvalidTransition is wrapped by every CanTransition failure
var ErrInvalidTransition = errors.New("invalid transition")

// ValidTransitionsFrom returns all valid next states from a given state
func ValidTransitionsFrom(status models.OrderStatus) []models.OrderStatus {
	var nexts []models.OrderStatus
	seen := map[models.OrderStatus]bool{}
	for _, t := range validTransitions {
		if t.From == status && !seen[t.To] {
			nexts = append(nexts, t.To)
			seen[t.To] = true
		}
	}
	return nexts
}

// NextFor returns the single forward step an actor may take from status.
func NextFor(status models.OrderStatus, actor string) (models.OrderStatus, bool) {
	for _, t := range validTransitions {
		if t.From == status && t.Actor == actor {
			return t.To, true
		}
	}
	return "", false
}

// CanTransition checks if a given actor can move from one state to another
func CanTransition(from, to models.OrderStatus, actor string) error {
	if transitionMap[transitionKey{From: from, To: to, Actor: actor}] {
		return nil
	}
	return &TransitionError{From: from, To: to, Actor: actor}
}

// IsTerminal reports whether no transition leaves status.
func IsTerminal(status models.OrderStatus) bool {
	return len(ValidTransitionsFrom(status)) == 0
}

// TransitionError describes a rejected status change
type TransitionError struct {
	From  models.OrderStatus
	To    models.OrderStatus
	Actor string
}

func (e *TransitionError) Error() string {
	return "invalid transition: " + string(e.From) + " → " + string(e.To) +
		" is not allowed for actor '" + e.Actor + "'. " +
		"Valid transitions from " + string(e.From) + " are: " + describeValidFrom(e.From)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

func describeValidFrom(status models.OrderStatus) string {
	nexts := ValidTransitionsFrom(status)
	if len(nexts) == 0 {
		return "none (terminal state)"
	}
	names := make([]string, len(nexts))
	for i, s := range nexts {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

// GetAllTransitions returns the full state machine for documentation
func GetAllTransitions() []Transition {
	return validTransitions
}
