package engine

import (
	"errors"
	"fmt"
)

// IneligibleReason names why an assignment request was refused.
type IneligibleReason string

const (
	// ReasonOutsideWindow means the request fell outside the serving window.
	ReasonOutsideWindow IneligibleReason = "outside_window"
	// ReasonAlreadyActive means the chat already has an unresolved quest.
	ReasonAlreadyActive IneligibleReason = "already_active"
	// ReasonCapReached means the chat hit its daily assignment cap.
	ReasonCapReached IneligibleReason = "cap_reached"
	// ReasonNoCharacters means the chat has no living characters.
	ReasonNoCharacters IneligibleReason = "no_characters"
	// ReasonNoTemplates means no template fits the chat's level cap.
	ReasonNoTemplates IneligibleReason = "no_templates"
)

// IneligibleError is the typed refusal returned by TryAssign. It is an
// expected outcome, not a fault; callers branch on Reason to phrase the
// refusal for the chat.
type IneligibleError struct {
	Reason IneligibleReason
}

func (e *IneligibleError) Error() string {
	return fmt.Sprintf("chat is not eligible for a quest: %s", e.Reason)
}

// Ineligible reports whether err is an IneligibleError and returns its reason.
func Ineligible(err error) (IneligibleReason, bool) {
	var ie *IneligibleError
	if errors.As(err, &ie) {
		return ie.Reason, true
	}
	return "", false
}

// ErrDead is returned when resolving with a dead character.
var ErrDead = errors.New("character is dead")

// ErrAlreadyResolved is returned when another resolution won the completion
// flip for the same assignment.
var ErrAlreadyResolved = errors.New("assignment already resolved")

// ErrCharacterNotInChat is returned when the resolving character belongs to a
// different chat than the assignment.
var ErrCharacterNotInChat = errors.New("character does not belong to this chat")

// ErrRollOutOfRange is returned when the supplied natural roll is not in [1, 20].
var ErrRollOutOfRange = errors.New("natural roll must be in [1, 20]")
