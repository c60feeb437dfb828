package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/stockwatch/internal/app/historylist"
	"github.com/slok/stockwatch/internal/app/historyshow"
	"github.com/slok/stockwatch/internal/model"
)

type HistoryListCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	kind   string
	status string
	limit  int
	format string
}

// NewHistoryListCommand returns the history list command.
func NewHistoryListCommand(rootCmd *RootCommand, history *kingpin.CmdClause) *HistoryListCommand {
	c := &HistoryListCommand{rootCmd: rootCmd}

	c.Cmd = history.Command("list", "List the finished tasks, latest first.").Default()
	c.Cmd.Flag("kind", "Only tasks of this analysis kind.").StringVar(&c.kind)
	c.Cmd.Flag("status", "Only tasks that finished with this status.").EnumVar(&c.status,
		string(model.TrackerStatusCompleted),
		string(model.TrackerStatusFailed),
		string(model.TrackerStatusCancelled),
		string(model.TrackerStatusTimedOut),
	)
	c.Cmd.Flag("limit", "Maximum number of tasks (0 lists all).").Default("20").IntVar(&c.limit)
	c.Cmd.Flag("format", "Output format (table, json).").Default(formatTable).EnumVar(&c.format, formatTable, formatJSON)

	return c
}

func (c HistoryListCommand) Name() string { return c.Cmd.FullCommand() }

func (c HistoryListCommand) Run(ctx context.Context) error {
	repo, err := c.rootCmd.newHistory(ctx)
	if err != nil {
		return err
	}
	defer repo.Close()

	svc, err := historylist.NewService(historylist.ServiceConfig{
		Repository: repo,
		Logger:     c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	records, err := svc.Run(ctx, historylist.Request{
		Kind:   model.AnalysisKind(c.kind),
		Status: model.TrackerStatus(c.status),
		Limit:  c.limit,
	})
	if err != nil {
		return fmt.Errorf("could not list history: %w", err)
	}

	if err := newPrinter(c.format, c.rootCmd.Stdout).PrintHistory(records); err != nil {
		return fmt.Errorf("could not print history: %w", err)
	}

	return nil
}

type HistoryShowCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	id     string
	format string
}

// NewHistoryShowCommand returns the history show command.
func NewHistoryShowCommand(rootCmd *RootCommand, history *kingpin.CmdClause) *HistoryShowCommand {
	c := &HistoryShowCommand{rootCmd: rootCmd}

	c.Cmd = history.Command("show", "Show a finished task and its result.")
	c.Cmd.Arg("id", "Launch ID or server task ID.").Required().StringVar(&c.id)
	c.Cmd.Flag("format", "Output format (table, json).").Default(formatTable).EnumVar(&c.format, formatTable, formatJSON)

	return c
}

func (c HistoryShowCommand) Name() string { return c.Cmd.FullCommand() }

func (c HistoryShowCommand) Run(ctx context.Context) error {
	repo, err := c.rootCmd.newHistory(ctx)
	if err != nil {
		return err
	}
	defer repo.Close()

	svc, err := historyshow.NewService(historyshow.ServiceConfig{
		Repository: repo,
		Logger:     c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	res, err := svc.Run(ctx, historyshow.Request{ID: c.id})
	if err != nil {
		return fmt.Errorf("could not show task: %w", err)
	}

	if err := newPrinter(c.format, c.rootCmd.Stdout).PrintTaskRecord(res.Record, res.Display); err != nil {
		return fmt.Errorf("could not print task: %w", err)
	}

	return nil
}
