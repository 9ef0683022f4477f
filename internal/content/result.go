package content

import (
	"errors"
	"fmt"
)

var (
	ErrUnconfigured = errors.New("ai capability not configured")
	ErrUnsuccessful = errors.New("ai capability reported failure")
	ErrIncomplete   = errors.New("ai response incomplete")
)

type Stage string

const (
	StageMenu     Stage = "menu"
	StageRecipe   Stage = "recipe"
	StageExercise Stage = "exercise"
)

// GenerationError records which stage of which day failed.
type GenerationError struct {
	Stage Stage
	Day   int
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s generation failed for day %d: %v", e.Stage, e.Day, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

func genErr(stage Stage, day int, err error) error {
	return &GenerationError{Stage: stage, Day: day, Err: err}
}

// Result is the outcome of one AI call (or one day carved out of a batch).
type Result[T any] struct {
	Value T
	Err   error
}

func Ok[T any](v T) Result[T] { return Result[T]{Value: v} }

func Fail[T any](err error) Result[T] { return Result[T]{Err: err} }
