// Package runner executes a scheduled batch level by level. The
// scheduler's contract is what licenses the concurrency here: tasks
// within one level are pairwise non-conflicting, so they run under a
// shared errgroup with no per-resource locking; a full barrier
// separates levels because later levels may depend on earlier writes.
package runner

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/akarag/waveplan/internal/events"
	"github.com/akarag/waveplan/internal/scheduler"
)

// TaskResult is the outcome of one task execution.
type TaskResult struct {
	ID       scheduler.TaskID
	Name     string
	Level    int
	Result   string
	Err      error
	Duration time.Duration
}

// Config configures a Runner.
type Config struct {
	Concurrency int         // Max concurrent tasks per level (default 4)
	Bus         *events.Bus // Optional progress events (nil disables)
}

// Runner drives a dependency graph's execution levels.
type Runner struct {
	cfg   Config
	graph *scheduler.DependencyGraph
}

// New creates a runner for the given graph.
func New(cfg Config, graph *scheduler.DependencyGraph) *Runner {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	return &Runner{cfg: cfg, graph: graph}
}

// Run computes the execution levels and runs them in order. Results
// are indexed by TaskID. A task failure does not interrupt its own
// level (the barrier always completes), but no further level starts
// after a level with failures; unexecuted tasks are returned with
// Level -1 and nil Err.
func (r *Runner) Run(ctx context.Context) ([]TaskResult, error) {
	levels, err := r.graph.ExecutionLevels()
	if err != nil {
		return nil, err
	}

	results := make([]TaskResult, r.graph.Len())
	for i := range results {
		task, _ := r.graph.Task(scheduler.TaskID(i))
		results[i] = TaskResult{ID: scheduler.TaskID(i), Name: task.Name, Level: -1}
	}

	completed, failed := 0, 0
	for n, level := range levels {
		if err := ctx.Err(); err != nil {
			r.publishFinished(completed, failed, err)
			return results, err
		}

		r.publish(events.TopicRun, events.LevelStartedEvent{
			Level:     n,
			Tasks:     append([]scheduler.TaskID(nil), level...),
			Timestamp: time.Now(),
		})

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(r.cfg.Concurrency)

		for _, id := range level {
			id := id
			g.Go(func() error {
				results[id] = r.executeTask(gctx, id, n)
				return nil
			})
		}

		// Barrier: every task in the level returns before we move on.
		// Worker funcs never error, so Wait only reflects the barrier.
		_ = g.Wait()

		levelFailed := 0
		for _, id := range level {
			if results[id].Err != nil {
				levelFailed++
			} else {
				completed++
			}
		}
		failed += levelFailed

		r.publish(events.TopicRun, events.LevelCompletedEvent{
			Level:     n,
			Failed:    levelFailed,
			Timestamp: time.Now(),
		})

		if levelFailed > 0 {
			err := fmt.Errorf("level %d: %d of %d task(s) failed", n, levelFailed, len(level))
			r.publishFinished(completed, failed, err)
			return results, err
		}
	}

	r.publishFinished(completed, failed, nil)
	return results, nil
}

// executeTask runs a single task's work and reports progress.
func (r *Runner) executeTask(ctx context.Context, id scheduler.TaskID, level int) TaskResult {
	task, _ := r.graph.Task(id)
	res := TaskResult{ID: id, Name: task.Name, Level: level}

	r.publish(events.TopicTask, events.TaskStartedEvent{
		ID: id, Name: task.Name, Level: level, Timestamp: time.Now(),
	})

	start := time.Now()
	if task.Work == nil {
		res.Err = fmt.Errorf("task %q has no work attached", task.Name)
	} else {
		res.Result, res.Err = task.Work.Run(ctx)
	}
	res.Duration = time.Since(start)

	if res.Err != nil {
		r.publish(events.TopicTask, events.TaskFailedEvent{
			ID: id, Name: task.Name, Level: level,
			Err: res.Err, Duration: res.Duration, Timestamp: time.Now(),
		})
	} else {
		r.publish(events.TopicTask, events.TaskCompletedEvent{
			ID: id, Name: task.Name, Level: level,
			Result: res.Result, Duration: res.Duration, Timestamp: time.Now(),
		})
	}
	return res
}

func (r *Runner) publish(topic string, ev events.Event) {
	if r.cfg.Bus != nil {
		r.cfg.Bus.Publish(topic, ev)
	}
}

func (r *Runner) publishFinished(completed, failed int, err error) {
	r.publish(events.TopicRun, events.RunFinishedEvent{
		Completed: completed,
		Failed:    failed,
		Err:       err,
		Timestamp: time.Now(),
	})
}
