package entry

import (
	"errors"
	"fmt"
)

// Status is the lifecycle state shared by every sortable list item.
type Status string

const (
	// StatusNew is an in-progress draft with no committed content.
	StatusNew Status = "NEW"
	// StatusEdit marks an item that is currently being modified.
	StatusEdit Status = "EDIT"
	// StatusStatic is a committed, displayed item.
	StatusStatic Status = "STATIC"
	// StatusDelete marks an item pending removal. It can be toggled back.
	StatusDelete Status = "DELETE"
	// StatusHidden is a removed derived item kept only to suppress its source.
	StatusHidden Status = "HIDDEN"
	// StatusTransfer marks a container item that is mid-relocation.
	StatusTransfer Status = "TRANSFER"
)

// AllStatuses returns every lifecycle state.
func AllStatuses() []Status {
	return []Status{StatusNew, StatusEdit, StatusStatic, StatusDelete, StatusHidden, StatusTransfer}
}

// ParseStatus converts a string to a Status.
func ParseStatus(raw string) (Status, error) {
	for _, s := range AllStatuses() {
		if string(s) == raw {
			return s, nil
		}
	}
	return "", fmt.Errorf("entry: unknown status %q", raw)
}

// Action is a lifecycle event applied to an item.
type Action int

const (
	// ActionCommit saves a draft or an edit.
	ActionCommit Action = iota
	// ActionBeginEdit opens a committed item for editing.
	ActionBeginEdit
	// ActionToggleDelete flips an item in and out of pending delete.
	ActionToggleDelete
	// ActionConfirmDelete finalizes a pending delete.
	ActionConfirmDelete
	// ActionBeginTransfer starts relocating a container item.
	ActionBeginTransfer
	// ActionEndTransfer finishes relocating a container item.
	ActionEndTransfer
)

func (a Action) String() string {
	switch a {
	case ActionCommit:
		return "commit"
	case ActionBeginEdit:
		return "begin-edit"
	case ActionToggleDelete:
		return "toggle-delete"
	case ActionConfirmDelete:
		return "confirm-delete"
	case ActionBeginTransfer:
		return "begin-transfer"
	case ActionEndTransfer:
		return "end-transfer"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// Subject describes the facts about an item that steer a transition.
type Subject struct {
	Derived   bool
	Container bool
	Empty     bool
}

// Outcome is the result of a transition. When Remove is set the item must be
// dropped from its list and Status is meaningless.
type Outcome struct {
	Status Status
	Remove bool
}

// ErrInvalidTransition is returned when an action does not apply to a state.
var ErrInvalidTransition = errors.New("entry: invalid status transition")

// Next applies action a to an item in state from.
func Next(from Status, a Action, s Subject) (Outcome, error) {
	switch a {
	case ActionCommit:
		if from != StatusNew && from != StatusEdit {
			break
		}
		if s.Empty {
			return Outcome{Remove: true}, nil
		}
		return Outcome{Status: StatusStatic}, nil
	case ActionBeginEdit:
		if from == StatusStatic || from == StatusEdit {
			return Outcome{Status: StatusEdit}, nil
		}
	case ActionToggleDelete:
		switch from {
		case StatusStatic:
			return Outcome{Status: StatusDelete}, nil
		case StatusDelete:
			return Outcome{Status: StatusStatic}, nil
		}
	case ActionConfirmDelete:
		if from != StatusDelete {
			break
		}
		if s.Derived {
			return Outcome{Status: StatusHidden}, nil
		}
		return Outcome{Remove: true}, nil
	case ActionBeginTransfer:
		if s.Container && from == StatusStatic {
			return Outcome{Status: StatusTransfer}, nil
		}
	case ActionEndTransfer:
		if s.Container && from == StatusTransfer {
			return Outcome{Status: StatusStatic}, nil
		}
	}
	return Outcome{Status: from}, fmt.Errorf("%w: %s from %s", ErrInvalidTransition, a, from)
}

// IsEditing reports whether the item is an open draft or edit.
func IsEditing(i Item) bool {
	s := i.State()
	return s == StatusNew || s == StatusEdit
}

// IsPendingDelete reports whether the item awaits delete confirmation.
func IsPendingDelete(i Item) bool {
	return i.State() == StatusDelete
}

// IsDerived reports whether the item's content is owned by an external source.
func IsDerived(i Item) bool {
	return i.Derived()
}

// IsVisible reports whether the item should be displayed.
func IsVisible(i Item) bool {
	return i.State() != StatusHidden
}
