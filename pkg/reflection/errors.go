package reflection

import (
	"errors"
	"fmt"
)

var (
	// ErrGeneration classifies any failure of the three completion calls,
	// including empty results. Stage failures match it via errors.Is.
	ErrGeneration = errors.New("generation failed")

	// ErrMissingPersona indicates a prompt template without a persona.
	ErrMissingPersona = errors.New("persona required")

	// ErrMissingTask indicates a prompt template without a task.
	ErrMissingTask = errors.New("task required")
)

// Stage names one of the three pipeline stages.
type Stage string

const (
	// StageDraft is the first pass: the rendered template sent verbatim.
	StageDraft Stage = "draft"

	// StageCritique is the second pass: suggestions for the draft.
	StageCritique Stage = "critique"

	// StageRevision is the third pass: the edited final result.
	StageRevision Stage = "revision"
)

// StageError reports which pipeline stage failed and why.
//
// It matches ErrGeneration via errors.Is, and unwraps to the underlying
// cause so provider-level sentinels remain matchable.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Is reports whether target is ErrGeneration, letting callers classify
// any stage failure without inspecting the type.
func (e *StageError) Is(target error) bool { return target == ErrGeneration }
