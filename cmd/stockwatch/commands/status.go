package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/stockwatch/internal/app/status"
	"github.com/slok/stockwatch/internal/model"
)

type StatusCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	taskID string
	kind   string
	format string
}

// NewStatusCommand returns the status command.
func NewStatusCommand(rootCmd *RootCommand, app *kingpin.Application) *StatusCommand {
	c := &StatusCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("status", "Get the current status of a task.")
	c.Cmd.Arg("task-id", "Server task ID.").Required().StringVar(&c.taskID)
	c.Cmd.Flag("kind", "Analysis kind of the task when the server doesn't report it.").StringVar(&c.kind)
	c.Cmd.Flag("format", "Output format (table, json).").Default(formatTable).EnumVar(&c.format, formatTable, formatJSON)

	return c
}

func (c StatusCommand) Name() string { return c.Cmd.FullCommand() }

func (c StatusCommand) Run(ctx context.Context) error {
	cfg, err := c.rootCmd.loadConfig(ctx)
	if err != nil {
		return err
	}

	client, err := c.rootCmd.newBackend(cfg)
	if err != nil {
		return err
	}

	svc, err := status.NewService(status.ServiceConfig{
		Client: client,
		Logger: c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	res, err := svc.Run(ctx, status.Request{
		TaskID: c.taskID,
		Kind:   model.AnalysisKind(c.kind),
	})
	if err != nil {
		return fmt.Errorf("could not get task status: %w", err)
	}

	if err := newPrinter(c.format, c.rootCmd.Stdout).PrintSnapshot(res.Snapshot, res.Display); err != nil {
		return fmt.Errorf("could not print status: %w", err)
	}

	return nil
}
