package settlement

import (
	"context"
	"fmt"
	"log/slog"
)

// Step is one unit of work in a settlement saga. Compensate undoes Run
// and may be nil for steps that need no rollback.
type Step struct {
	Name       string
	Run        func(ctx context.Context) error
	Compensate func(ctx context.Context) error
}

type Saga struct {
	steps  []Step
	logger *slog.Logger
}

func NewSaga(logger *slog.Logger, steps ...Step) *Saga {
	return &Saga{steps: steps, logger: logger}
}

// Execute runs every step in order. When a step fails, the compensations
// of all previously completed steps run in reverse order and the step's
// error is returned. Compensation failures are logged and do not stop
// the remaining compensations.
func (s *Saga) Execute(ctx context.Context) error {
	done := make([]Step, 0, len(s.steps))

	for _, step := range s.steps {
		if err := step.Run(ctx); err != nil {
			s.compensate(ctx, done)
			return fmt.Errorf("saga step %s: %w", step.Name, err)
		}
		done = append(done, step)
	}

	return nil
}

func (s *Saga) compensate(ctx context.Context, done []Step) {
	for i := len(done) - 1; i >= 0; i-- {
		step := done[i]
		if step.Compensate == nil {
			continue
		}
		if err := step.Compensate(ctx); err != nil {
			s.logger.Error("saga compensation failed",
				slog.String("step", step.Name),
				slog.String("error", err.Error()),
			)
		}
	}
}
