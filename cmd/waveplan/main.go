package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/akarag/waveplan/internal/batch"
	"github.com/akarag/waveplan/internal/corpus"
	"github.com/akarag/waveplan/internal/events"
	"github.com/akarag/waveplan/internal/history"
	"github.com/akarag/waveplan/internal/runner"
	"github.com/akarag/waveplan/internal/scheduler"
	"github.com/akarag/waveplan/internal/tui"
)

func main() {
	var (
		batchPath   = flag.String("batch", "", "JSON batch file (default: built-in demo batch)")
		corpusPath  = flag.String("corpus", "", "word corpus file for select-word/count-word ops")
		planOnly    = flag.Bool("plan", false, "print the dependency report and exit without running")
		concurrency = flag.Int("concurrency", 4, "max concurrent tasks per level")
		dbPath      = flag.String("db", "", "SQLite path for recording run history (empty disables)")
		useTUI      = flag.Bool("tui", false, "show a live run view")
	)
	flag.Parse()

	// Signal-aware context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var words []string
	if *corpusPath != "" {
		var err error
		words, err = corpus.Load(*corpusPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading corpus: %v\n", err)
			os.Exit(1)
		}
	}

	b, err := loadBatch(*batchPath, words)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading batch: %v\n", err)
		os.Exit(1)
	}

	graph, err := scheduler.BuildGraph(b.Tasks)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building dependency graph: %v\n", err)
		os.Exit(1)
	}

	if *planOnly {
		report, err := graph.Describe()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error computing plan: %v\n", err)
			os.Exit(1)
		}
		fmt.Print(report)
		return
	}

	levels, err := graph.ExecutionLevels()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error computing levels: %v\n", err)
		os.Exit(1)
	}

	bus := events.NewBus()
	defer bus.Close()

	r := runner.New(runner.Config{Concurrency: *concurrency, Bus: bus}, graph)

	var results []runner.TaskResult
	var runErr error
	startedAt := time.Now()

	if *useTUI {
		results, runErr = runWithTUI(ctx, bus, b.Name, graph, levels, r)
	} else {
		results, runErr = r.Run(ctx)
	}
	finishedAt := time.Now()

	printResults(results)

	if *dbPath != "" {
		if err := recordRun(ctx, *dbPath, b.Name, len(levels), startedAt, finishedAt, results); err != nil {
			log.Printf("WARNING: failed to record run history: %v", err)
		}
	}

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Run failed: %v\n", runErr)
		os.Exit(1)
	}
}

// loadBatch loads the batch file, or the built-in demo batch when no
// file is given.
func loadBatch(path string, words []string) (*batch.Batch, error) {
	if path != "" {
		return batch.Load(path, words)
	}
	return batch.FromDefinition(demoDefinition(), words)
}

// demoDefinition is a small transfer-shaped batch: two independent
// account writers, a reader of the first account, and an audit pass
// over both.
func demoDefinition() *batch.Definition {
	return &batch.Definition{
		Name: "demo",
		Tasks: []batch.TaskDef{
			{Name: "debit-acct1", Writes: []string{"acct1"}, Op: batch.Op{Kind: batch.OpSleep, Millis: 50}},
			{Name: "credit-acct2", Writes: []string{"acct2"}, Op: batch.Op{Kind: batch.OpSleep, Millis: 50}},
			{Name: "statement-acct1", Reads: []string{"acct1"}, Writes: []string{"stmt1"}, Op: batch.Op{Kind: batch.OpSleep, Millis: 30}},
			{Name: "audit", Reads: []string{"acct1", "acct2", "stmt1"}, Op: batch.Op{Kind: batch.OpSleep, Millis: 20}},
		},
	}
}

// runWithTUI runs the batch while a bubbletea program displays it.
func runWithTUI(ctx context.Context, bus *events.Bus, label string, graph *scheduler.DependencyGraph, levels [][]scheduler.TaskID, r *runner.Runner) ([]runner.TaskResult, error) {
	model := tui.New(bus, label, graph, levels)
	p := tea.NewProgram(model, tea.WithContext(ctx))

	type runOutcome struct {
		results []runner.TaskResult
		err     error
	}
	outcome := make(chan runOutcome, 1)
	go func() {
		results, err := r.Run(ctx)
		outcome <- runOutcome{results, err}
	}()

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		log.Printf("WARNING: display error: %v", err)
	}

	out := <-outcome
	return out.results, out.err
}

func printResults(results []runner.TaskResult) {
	for _, res := range results {
		switch {
		case res.Level < 0:
			fmt.Printf("  -  %-20s not executed\n", res.Name)
		case res.Err != nil:
			fmt.Printf("  !  %-20s level %d  %v  (%s)\n", res.Name, res.Level, res.Err, res.Duration.Round(time.Millisecond))
		default:
			fmt.Printf("  ok %-20s level %d  %s  (%s)\n", res.Name, res.Level, res.Result, res.Duration.Round(time.Millisecond))
		}
	}
}

func recordRun(ctx context.Context, dbPath, label string, levels int, startedAt, finishedAt time.Time, results []runner.TaskResult) error {
	store, err := history.NewStore(ctx, dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	runID, err := store.RecordRun(ctx, label, levels, startedAt, finishedAt, results)
	if err != nil {
		return err
	}
	log.Printf("Recorded run %d in %s", runID, dbPath)
	return nil
}
