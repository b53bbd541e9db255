package sales

import (
	"context"
	"fmt"
)

// undoLog records the inverse of each write made during one ledger
// operation so a non-atomic scope can be returned to its prior state.
type undoLog struct {
	steps []undoStep
}

type undoStep struct {
	name string
	fn   func(ctx context.Context) error
}

func newUndoLog() *undoLog {
	return &undoLog{steps: make([]undoStep, 0, 8)}
}

// push registers the inverse of a write that has just succeeded
func (l *undoLog) push(name string, fn func(ctx context.Context) error) {
	l.steps = append(l.steps, undoStep{name: name, fn: fn})
}

func (l *undoLog) empty() bool {
	return len(l.steps) == 0
}

// run applies the inverses newest first and stops at the first failure.
func (l *undoLog) run(ctx context.Context) error {
	for i := len(l.steps) - 1; i >= 0; i-- {
		step := l.steps[i]
		if err := step.fn(ctx); err != nil {
			return fmt.Errorf("undo %q: %w", step.name, err)
		}
	}
	l.steps = l.steps[:0]
	return nil
}
