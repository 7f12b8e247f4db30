package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jsamuelsen/quote-harvester/internal/platform/logging"
)

// Runs go through five steps: validate, perform, verify, archive, respond.
// Nothing is persisted until the performed result has been verified, so a
// half-finished harvest never overwrites a good snapshot.

// ExecutionStep names one step of an operation.
type ExecutionStep string

const (
	StepValidate ExecutionStep = "validate"
	StepPerform  ExecutionStep = "perform"
	StepVerify   ExecutionStep = "verify"
	StepArchive  ExecutionStep = "archive"
	StepRespond  ExecutionStep = "respond"
)

// ExecutionError records the step an operation failed in.
type ExecutionError struct {
	Step    ExecutionStep
	Message string
	Cause   error
}

func (e *ExecutionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s failed: %s: %v", e.Step, e.Message, e.Cause)
	}

	return fmt.Sprintf("%s failed: %s", e.Step, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

func newStepError(step ExecutionStep, message string, cause error) error {
	return &ExecutionError{Step: step, Message: message, Cause: cause}
}

// Executor runs operations step by step with logging.
type Executor struct {
	logger *slog.Logger
}

// NewExecutor creates a new executor with the given logger.
func NewExecutor(logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}

	return &Executor{logger: logger}
}

// Operation holds the functions for each step. Any of them may be nil and is then skipped.
type Operation[I, P, V, O any] struct {
	// Name identifies this operation in logs.
	Name string

	// Validate checks inputs before anything else happens.
	Validate func(ctx context.Context, input I) error

	// Perform does the work.
	Perform func(ctx context.Context, input I) (P, error)

	// Verify checks what Perform produced and converts it for archiving.
	Verify func(ctx context.Context, input I, performed P) (V, error)

	// Archive persists the verified state.
	Archive func(ctx context.Context, input I, verified V) error

	// Respond builds the caller's result.
	Respond func(ctx context.Context, input I, verified V) (O, error)
}

// stepFailure describes how a failing step is logged and wrapped.
type stepFailure struct {
	step    ExecutionStep
	message string
	level   slog.Level
}

var (
	validateFailure = stepFailure{StepValidate, "input validation failed", slog.LevelWarn}
	performFailure  = stepFailure{StepPerform, "operation failed", slog.LevelError}
	verifyFailure   = stepFailure{StepVerify, "verification failed", slog.LevelError}
	archiveFailure  = stepFailure{StepArchive, "state persistence failed", slog.LevelError}
	respondFailure  = stepFailure{StepRespond, "building response failed", slog.LevelWarn}
)

// runStep times fn, logs the outcome and wraps any error as an ExecutionError.
func runStep(ctx context.Context, logger *slog.Logger, f stepFailure, fn func() error) error {
	start := time.Now()

	logger.DebugContext(ctx, "step started", slog.String("step", string(f.step)))

	if err := fn(); err != nil {
		logger.Log(ctx, f.level, "step failed",
			slog.String("step", string(f.step)),
			slog.Any("error", err),
		)

		return newStepError(f.step, f.message, err)
	}

	logger.DebugContext(ctx, "step finished",
		slog.String("step", string(f.step)),
		slog.Duration("duration", time.Since(start)),
	)

	return nil
}

// Execute runs op against input, stopping at the first failing step.
func Execute[I, P, V, O any](ctx context.Context, exec *Executor, op Operation[I, P, V, O], input I) (O, error) {
	var (
		zero      O
		performed P
		verified  V
		result    O
	)

	logger := logging.FromContext(ctx)
	if logger == nil {
		logger = exec.logger
	}

	logger = logger.With(slog.String("operation", op.Name))
	start := time.Now()

	if op.Validate != nil {
		if err := runStep(ctx, logger, validateFailure, func() error {
			return op.Validate(ctx, input)
		}); err != nil {
			return zero, err
		}
	}

	if op.Perform != nil {
		if err := runStep(ctx, logger, performFailure, func() (err error) {
			performed, err = op.Perform(ctx, input)
			return err
		}); err != nil {
			return zero, err
		}
	}

	if op.Verify != nil {
		if err := runStep(ctx, logger, verifyFailure, func() (err error) {
			verified, err = op.Verify(ctx, input, performed)
			return err
		}); err != nil {
			return zero, err
		}
	}

	if op.Archive != nil {
		if err := runStep(ctx, logger, archiveFailure, func() error {
			return op.Archive(ctx, input, verified)
		}); err != nil {
			return zero, err
		}
	}

	if op.Respond != nil {
		if err := runStep(ctx, logger, respondFailure, func() (err error) {
			result, err = op.Respond(ctx, input, verified)
			return err
		}); err != nil {
			return zero, err
		}
	}

	logger.InfoContext(ctx, "operation completed", slog.Duration("duration", time.Since(start)))

	return result, nil
}

// IsExecutionError reports whether err came from an operation step.
func IsExecutionError(err error) bool {
	var execErr *ExecutionError

	return errors.As(err, &execErr)
}

// GetExecutionStep extracts the failing step from an execution error.
func GetExecutionStep(err error) (ExecutionStep, bool) {
	var execErr *ExecutionError
	if errors.As(err, &execErr) {
		return execErr.Step, true
	}

	return "", false
}
