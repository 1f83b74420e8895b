// Package cli implements the advisor command line tools on top of the same
// services the HTTP server uses.
package cli

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"

	"github.com/google/subcommands"

	"github.com/aristath/advisor/internal/di"
	"github.com/aristath/advisor/internal/domain"
	"github.com/aristath/advisor/internal/utils"
)

// App holds what the commands share: a lazily wired container and the
// output streams. Results are written to Out as JSON; errors go to Err.
type App struct {
	Wire func() (*di.Container, error)
	Out  io.Writer
	Err  io.Writer

	once      sync.Once
	container *di.Container
	wireErr   error
}

// Commands returns every command bound to app.
func Commands(app *App) []subcommands.Command {
	return []subcommands.Command{
		&simulateCmd{app: app},
		&frontierCmd{app: app},
		&predictCmd{app: app},
		&indicatorsCmd{app: app},
		&cleanupCmd{app: app},
	}
}

// Container wires the dependencies on first use.
func (a *App) Container() (*di.Container, error) {
	a.once.Do(func() {
		a.container, a.wireErr = a.Wire()
	})
	return a.container, a.wireErr
}

// Close releases the container if it was wired.
func (a *App) Close() error {
	if a.container == nil {
		return nil
	}
	return a.container.Close()
}

func (a *App) stdout() io.Writer {
	if a.Out == nil {
		return os.Stdout
	}
	return a.Out
}

func (a *App) stderr() io.Writer {
	if a.Err == nil {
		return os.Stderr
	}
	return a.Err
}

// run wires the container, runs fn and prints its result.
func (a *App) run(ctx context.Context, fn func(context.Context, *di.Container) (interface{}, error)) subcommands.ExitStatus {
	container, err := a.Container()
	if err != nil {
		fmt.Fprintf(a.stderr(), "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	result, err := fn(ctx, container)
	if err != nil {
		return a.fail(err)
	}

	enc := json.NewEncoder(a.stdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		fmt.Fprintf(a.stderr(), "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// fail reports err; invalid input is a usage error.
func (a *App) fail(err error) subcommands.ExitStatus {
	fmt.Fprintf(a.stderr(), "Error (%s): %s\n", domain.KindOf(err), domain.PublicMessage(err))
	switch domain.KindOf(err) {
	case domain.KindInvalidRequest, domain.KindInvalidWeights:
		return subcommands.ExitUsageError
	default:
		return subcommands.ExitFailure
	}
}

func parseFloats(raw string) ([]float64, error) {
	parts := utils.ParseCSV(raw)
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, domain.InvalidRequest("invalid weight %q", p)
		}
		out = append(out, v)
	}
	return out, nil
}

// symbolArg reads the single positional symbol argument.
func symbolArg(f *flag.FlagSet) (string, error) {
	if f.NArg() != 1 {
		return "", domain.InvalidRequest("exactly one symbol is required")
	}
	return utils.NormalizeSymbol(f.Arg(0)), nil
}
