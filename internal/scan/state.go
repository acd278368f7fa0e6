package scan

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is returned when advancing past the terminal state.
var ErrInvalidTransition = errors.New("invalid lifecycle transition")

// State is a step in the scan lifecycle. States are ordered; reaching a state
// implies every earlier one was reached.
type State int

const (
	None State = iota
	Validated
	Hashed
	Stored
	Cataloged
)

func (s State) String() string {
	switch s {
	case None:
		return "none"
	case Validated:
		return "validated"
	case Hashed:
		return "hashed"
	case Stored:
		return "stored"
	case Cataloged:
		return "cataloged"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Lifecycle records the highest state reached. The zero value is None.
type Lifecycle struct {
	current State
}

// Advance moves exactly one step forward.
func (l *Lifecycle) Advance() error {
	if l.current >= Cataloged {
		return fmt.Errorf("%w: already %s", ErrInvalidTransition, l.current)
	}
	l.current++
	return nil
}

// Has reports whether s has been reached.
func (l *Lifecycle) Has(s State) bool {
	return l.current >= s
}

// Current returns the highest state reached.
func (l *Lifecycle) Current() State {
	return l.current
}

// AdvanceTo steps forward until target is reached. It fails without
// changing state if target is behind the current state.
func (l *Lifecycle) AdvanceTo(target State) error {
	if target < l.current || target > Cataloged {
		return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, l.current, target)
	}
	for l.current < target {
		if err := l.Advance(); err != nil {
			return err
		}
	}
	return nil
}
