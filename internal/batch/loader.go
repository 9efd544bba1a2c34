// Package batch loads task batches from JSON definition files. The
// order of tasks in the file is their scheduling identity: the graph
// builder assigns IDs by position, and conflicts only ever point at
// earlier entries.
package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/akarag/waveplan/internal/corpus"
	"github.com/akarag/waveplan/internal/scheduler"
)

// Op kinds understood by the loader.
const (
	OpSleep      = "sleep"
	OpSelectWord = "select-word"
	OpCountWord  = "count-word"
)

// Op binds a task definition to a built-in workload.
type Op struct {
	Kind   string `json:"kind"`
	Millis int    `json:"millis,omitempty"` // sleep duration
	Seed   int64  `json:"seed,omitempty"`   // select-word seed
	Word   string `json:"word,omitempty"`   // count-word target
}

// TaskDef is one entry in a batch file.
type TaskDef struct {
	Name   string   `json:"name"`
	Reads  []string `json:"reads"`
	Writes []string `json:"writes"`
	Op     Op       `json:"op"`
}

// Definition is the on-disk shape of a batch file.
type Definition struct {
	Name  string    `json:"name"`
	Tasks []TaskDef `json:"tasks"`
}

// Batch is a loaded, validated task sequence ready for scheduling.
type Batch struct {
	Name  string
	Tasks []*scheduler.Task
}

// Load reads and validates a batch file. Word ops require a corpus;
// passing nil words rejects batches that use them.
func Load(path string, words []string) (*Batch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading batch %s: %w", path, err)
	}

	var def Definition
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("parsing batch %s: %w", path, err)
	}

	return FromDefinition(&def, words)
}

// FromDefinition validates a parsed definition and binds each task's
// op to its workload, preserving file order.
func FromDefinition(def *Definition, words []string) (*Batch, error) {
	if len(def.Tasks) == 0 {
		return nil, fmt.Errorf("batch %q defines no tasks", def.Name)
	}

	tasks := make([]*scheduler.Task, 0, len(def.Tasks))
	for i, td := range def.Tasks {
		if td.Name == "" {
			return nil, fmt.Errorf("task at position %d has no name", i)
		}
		work, err := bindOp(td, words)
		if err != nil {
			return nil, fmt.Errorf("task %q: %w", td.Name, err)
		}
		tasks = append(tasks, scheduler.NewTask(td.Name, td.Reads, td.Writes, work))
	}

	return &Batch{Name: def.Name, Tasks: tasks}, nil
}

func bindOp(td TaskDef, words []string) (scheduler.Runnable, error) {
	switch td.Op.Kind {
	case OpSleep:
		if td.Op.Millis < 0 {
			return nil, fmt.Errorf("sleep op has negative duration %d", td.Op.Millis)
		}
		return sleepWork(time.Duration(td.Op.Millis) * time.Millisecond), nil

	case OpSelectWord:
		if words == nil {
			return nil, fmt.Errorf("select-word op requires a corpus")
		}
		return corpus.PickWork(words, td.Op.Seed), nil

	case OpCountWord:
		if words == nil {
			return nil, fmt.Errorf("count-word op requires a corpus")
		}
		if td.Op.Word == "" {
			return nil, fmt.Errorf("count-word op has no word")
		}
		return corpus.CountWork(td.Op.Word, words), nil

	case "":
		return nil, fmt.Errorf("op kind is empty")

	default:
		return nil, fmt.Errorf("unknown op kind %q", td.Op.Kind)
	}
}

// sleepWork simulates I/O or CPU time, honoring cancellation.
func sleepWork(d time.Duration) scheduler.Runnable {
	return scheduler.RunnableFunc(func(ctx context.Context) (string, error) {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-timer.C:
			return fmt.Sprintf("slept %s", d), nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	})
}
