package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// stepOutcome classifies how one saga step ended.
type stepOutcome int

const (
	stepOK stepOutcome = iota
	stepWarn
	stepFatal
)

type stepResult struct {
	outcome stepOutcome
	warning string
	err     error
}

func ok() stepResult {
	return stepResult{outcome: stepOK}
}

func warn(format string, args ...any) stepResult {
	return stepResult{outcome: stepWarn, warning: fmt.Sprintf(format, args...)}
}

func fatal(err error) stepResult {
	return stepResult{outcome: stepFatal, err: err}
}

// sagaStep is one unit of a saga: a named action with its failure policy
// encoded in the result it returns.
type sagaStep struct {
	name string
	run  func(ctx context.Context) stepResult
}

// panicError marks a step that panicked; the saga services translate it into
// their generic-failure audit path.
type panicError struct {
	step  string
	value any
}

func (e *panicError) Error() string {
	return fmt.Sprintf("step %s panicked: %v", e.step, e.value)
}

// runSaga executes steps strictly in order. Warnings accumulate and never
// stop the run; the first fatal result stops it. A panic inside a step is
// recovered and returned as a *panicError so no fault escapes the saga
// boundary without a trace.
func runSaga(ctx context.Context, logger *zap.Logger, saga string, steps []sagaStep) (warnings []string, err error) {
	for _, step := range steps {
		res, stepErr := runStep(ctx, step)
		if stepErr != nil {
			return warnings, stepErr
		}

		switch res.outcome {
		case stepOK:
			logger.Debug("saga step ok", zap.String("saga", saga), zap.String("step", step.name))
		case stepWarn:
			logger.Warn("saga step warning",
				zap.String("saga", saga),
				zap.String("step", step.name),
				zap.String("warning", res.warning))
			warnings = append(warnings, res.warning)
		case stepFatal:
			logger.Error("saga step failed",
				zap.String("saga", saga),
				zap.String("step", step.name),
				zap.Error(res.err))
			return warnings, res.err
		}
	}
	return warnings, nil
}

func runStep(ctx context.Context, step sagaStep) (res stepResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &panicError{step: step.name, value: r}
		}
	}()
	return step.run(ctx), nil
}
