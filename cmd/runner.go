package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tuneport/internal/services"
	"github.com/desertthunder/tuneport/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds the application dependencies shared by all CLI commands.
type Runner struct {
	config  *shared.Config
	spotify *services.SpotifyService
	dest    services.Destination
	logger  *log.Logger
	output  io.Writer
}

// RunnerOpts configures a Runner. Zero-value fields fall back to defaults.
type RunnerOpts struct {
	Config  *shared.Config
	Spotify *services.SpotifyService
	Dest    services.Destination
	Logger  *log.Logger
	Output  io.Writer
}

// NewRunner creates a Runner from the provided options.
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &Runner{
		config:  opts.Config,
		spotify: opts.Spotify,
		dest:    opts.Dest,
		logger:  opts.Logger,
		output:  opts.Output,
	}
}

// register builds the CLI command tree.
func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, cmd := range [](func(*Runner) *cli.Command){
		setupCommand,
		authCommand,
		exportCommand,
		syncCommand,
		searchCommand,
		ledgerCommand,
	} {
		commands = append(commands, cmd(r))
	}
	return commands
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}
	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	if _, err := fmt.Fprintf(r.output, format, args...); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	return r.writePlain(format+"\n", args...)
}
