// Command powerforge runs a declarative pipeline of tasks (build, verify,
// optimize, publish, ...) that turns source content into a production
// static website.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"powerforge/internal/pferrors"
	"powerforge/internal/version"
)

// CLI is the root command definition and global flags.
type CLI struct {
	Config  string           `short:"c" help:"Tool configuration file path" default:"powerforge.yaml"`
	Verbose bool             `short:"v" help:"Enable debug logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Run       RunCmd       `cmd:"" help:"Run a pipeline document"`
	Validate  ValidateCmd  `cmd:"" help:"Validate a pipeline document without running it"`
	Visualize VisualizeCmd `cmd:"" help:"Visualize the resolved step DAG (text, mermaid, dot)"`
	Watch     WatchCmd     `cmd:"" help:"Re-run a pipeline whenever a watched input changes"`
	Schedule  ScheduleCmd  `cmd:"" help:"Run a pipeline repeatedly on a cron expression or interval"`
	Init      InitCmd      `cmd:"" help:"Write a starter tool configuration file"`
}

// AfterApply configures the default slog logger before any command runs.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

func main() {
	cli := &CLI{}
	parser := kong.Must(cli,
		kong.Name("powerforge"),
		kong.Description("Declarative pipeline orchestrator for static website production."),
		kong.UsageOnError(),
		kong.Vars{"version": version.Version},
	)

	ctx, err := parser.Parse(os.Args[1:])
	if err != nil {
		parser.FatalIfErrorf(err)
		return
	}

	if err := ctx.Run(cli); err != nil {
		handleError(err)
	}
}

// handleError renders a failure consistently and exits with the code the
// error taxonomy maps it to.
func handleError(err error) {
	if pe, ok := pferrors.As(err); ok {
		slog.Error("powerforge failed",
			slog.String("category", string(pe.Category)),
			slog.String("code", string(pe.Code)),
			slog.String("error", pe.Error()),
		)
	} else {
		slog.Error("powerforge failed", slog.String("error", err.Error()))
	}
	fmt.Fprintln(os.Stderr, err)
	os.Exit(pferrors.ExitCode(err))
}
