package session

import "fmt"

// ValidationError reports invalid caller input. No state was changed.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// InvalidTriggerError reports a trigger fired outside its allowed
// stage. The state is untouched and no side effect ran.
type InvalidTriggerError struct {
	Trigger string
	Stage   Stage
}

func (e *InvalidTriggerError) Error() string {
	return fmt.Sprintf("trigger %q not allowed in stage %q", e.Trigger, e.Stage)
}

// PersistenceError wraps a failed database write or read.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e *PersistenceError) Unwrap() error { return e.Err }

// GenerationError wraps a failed LLM call.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string { return fmt.Sprintf("generation failed: %v", e.Err) }
func (e *GenerationError) Unwrap() error { return e.Err }

// RenderingError wraps a failed document render or store write.
type RenderingError struct {
	Err error
}

func (e *RenderingError) Error() string { return fmt.Sprintf("rendering failed: %v", e.Err) }
func (e *RenderingError) Unwrap() error { return e.Err }
