package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/stockwatch/internal/app/kinds"
)

type KindsCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	format string
}

// NewKindsCommand returns the kinds command.
func NewKindsCommand(rootCmd *RootCommand, app *kingpin.Application) *KindsCommand {
	c := &KindsCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("kinds", "List the supported analysis kinds.")
	c.Cmd.Flag("format", "Output format (table, json).").Default(formatTable).EnumVar(&c.format, formatTable, formatJSON)

	return c
}

func (c KindsCommand) Name() string { return c.Cmd.FullCommand() }

func (c KindsCommand) Run(ctx context.Context) error {
	cfg, err := c.rootCmd.loadConfig(ctx)
	if err != nil {
		return err
	}

	svc, err := kinds.NewService(kinds.ServiceConfig{
		DefaultParams: cfg.AnalysisParams,
		Logger:        c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	analyses, err := svc.Run(ctx, kinds.Request{})
	if err != nil {
		return fmt.Errorf("could not list analysis kinds: %w", err)
	}

	if err := newPrinter(c.format, c.rootCmd.Stdout).PrintKinds(analyses); err != nil {
		return fmt.Errorf("could not print kinds: %w", err)
	}

	return nil
}
