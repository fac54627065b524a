package pipelines

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Ebang213/PharmaForge-O/logger"
)

type contextKey string

// SkipStepsKey carries a []string of step names to skip for one run
const SkipStepsKey contextKey = "skip_steps"

type task struct {
	name string
	fn   func() error
	deps []string
}

// Flow is a named sequence of dependent steps executed in order. Steps run
// sequentially; a step only runs after all of its dependencies have
// completed, and the first failing step aborts the run.
type Flow struct {
	name  string
	tasks []task
}

// NewFlow creates an empty flow
func NewFlow(name string) *Flow {
	return &Flow{name: name}
}

// AddTask appends a step. Dependencies must name steps added earlier.
func (f *Flow) AddTask(name string, fn func() error, deps ...string) {
	f.tasks = append(f.tasks, task{name: name, fn: fn, deps: deps})
}

// Run executes the flow's steps in dependency order. Steps listed under
// SkipStepsKey in the context are skipped; their dependents still run.
func (f *Flow) Run(ctx context.Context) error {
	skip := make(map[string]bool)
	if names, ok := ctx.Value(SkipStepsKey).([]string); ok {
		for _, name := range names {
			skip[name] = true
		}
	}

	ordered, err := f.order()
	if err != nil {
		return err
	}

	start := time.Now()
	logger.Info("flow started",
		zap.String("pipeline", f.name),
		zap.Int("steps", len(ordered)),
	)

	for _, t := range ordered {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("pipeline %s cancelled: %w", f.name, err)
		}

		if skip[t.name] {
			logger.Info("step skipped",
				zap.String("pipeline", f.name),
				zap.String("step", t.name),
			)
			continue
		}

		stepStart := time.Now()
		if err := t.fn(); err != nil {
			logger.Error("step failed",
				zap.String("pipeline", f.name),
				zap.String("step", t.name),
				zap.Error(err),
			)
			return fmt.Errorf("step %s: %w", t.name, err)
		}

		logger.Info("step completed",
			zap.String("pipeline", f.name),
			zap.String("step", t.name),
			zap.Duration("duration", time.Since(stepStart)),
		)
	}

	logger.Info("flow completed",
		zap.String("pipeline", f.name),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}

// order resolves the dependency graph into a run order. Tasks keep their
// insertion order when dependencies allow it.
func (f *Flow) order() ([]task, error) {
	byName := make(map[string]task, len(f.tasks))
	for _, t := range f.tasks {
		if _, exists := byName[t.name]; exists {
			return nil, fmt.Errorf("duplicate step name %s in pipeline %s", t.name, f.name)
		}
		byName[t.name] = t
	}

	done := make(map[string]bool, len(f.tasks))
	ordered := make([]task, 0, len(f.tasks))

	var visit func(t task, trail map[string]bool) error
	visit = func(t task, trail map[string]bool) error {
		if done[t.name] {
			return nil
		}
		if trail[t.name] {
			return fmt.Errorf("dependency cycle at step %s in pipeline %s", t.name, f.name)
		}
		trail[t.name] = true
		for _, dep := range t.deps {
			depTask, ok := byName[dep]
			if !ok {
				return fmt.Errorf("step %s depends on unknown step %s", t.name, dep)
			}
			if err := visit(depTask, trail); err != nil {
				return err
			}
		}
		trail[t.name] = false
		done[t.name] = true
		ordered = append(ordered, t)
		return nil
	}

	for _, t := range f.tasks {
		if err := visit(t, make(map[string]bool)); err != nil {
			return nil, err
		}
	}

	return ordered, nil
}
