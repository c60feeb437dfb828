package commands

import (
	"context"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/stockwatch/internal/app/analyze"
	"github.com/slok/stockwatch/internal/model"
)

type WatchCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	taskID     string
	kind       string
	format     string
	noProgress bool
}

// NewWatchCommand returns the watch command.
func NewWatchCommand(rootCmd *RootCommand, app *kingpin.Application) *WatchCommand {
	c := &WatchCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("watch", "Track an already started task until it finishes.")
	c.Cmd.Arg("task-id", "Server task ID.").Required().StringVar(&c.taskID)
	c.Cmd.Flag("kind", "Analysis kind of the task, used to show its result.").Default(string(model.AnalysisKindDragon)).StringVar(&c.kind)
	c.Cmd.Flag("format", "Output format (table, json).").Default(formatTable).EnumVar(&c.format, formatTable, formatJSON)
	c.Cmd.Flag("no-progress", "Don't show the progress bar.").BoolVar(&c.noProgress)

	return c
}

func (c WatchCommand) Name() string { return c.Cmd.FullCommand() }

func (c WatchCommand) Run(ctx context.Context) error {
	return runTracked(ctx, *c.rootCmd, trackedOptions{
		request: analyze.Request{
			Kind:   model.AnalysisKind(c.kind),
			TaskID: c.taskID,
		},
		format:     c.format,
		noProgress: c.noProgress,
	})
}
