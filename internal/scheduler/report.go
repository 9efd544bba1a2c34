package scheduler

import (
	"fmt"
	"strings"
)

// Describe renders the dependency map and execution levels as a
// human-readable report, using task names. Reporting only; it has no
// effect on scheduling decisions.
func (g *DependencyGraph) Describe() (string, error) {
	levels, err := g.ExecutionLevels()
	if err != nil {
		return "", err
	}

	var b strings.Builder

	b.WriteString("Dependencies:\n")
	for i := range g.tasks {
		id := TaskID(i)
		deps := g.Dependencies(id)
		if len(deps) == 0 {
			fmt.Fprintf(&b, "  %s: no dependencies\n", g.tasks[id].Name)
			continue
		}
		names := make([]string, len(deps))
		for j, dep := range deps {
			names[j] = g.tasks[dep].Name
		}
		fmt.Fprintf(&b, "  %s: depends on %s\n", g.tasks[id].Name, strings.Join(names, ", "))
	}

	b.WriteString("\nExecution levels:\n")
	for n, level := range levels {
		names := make([]string, len(level))
		for j, id := range level {
			names[j] = g.tasks[id].Name
		}
		fmt.Fprintf(&b, "  level %d: %s (can run in parallel)\n", n, strings.Join(names, ", "))
	}

	return b.String(), nil
}
