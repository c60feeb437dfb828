package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/stockwatch/internal/app/analyze"
	"github.com/slok/stockwatch/internal/model"
	"github.com/slok/stockwatch/internal/printer"
	"github.com/slok/stockwatch/internal/utils/params"
)

type AnalyzeCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	kind       string
	paramSpecs []string
	sector     string
	format     string
	noProgress bool
}

// NewAnalyzeCommand returns the analyze command.
func NewAnalyzeCommand(rootCmd *RootCommand, app *kingpin.Application) *AnalyzeCommand {
	c := &AnalyzeCommand{rootCmd: rootCmd}

	kinds := make([]string, 0, len(model.Analyses()))
	for _, a := range model.Analyses() {
		kinds = append(kinds, string(a.Kind))
	}

	c.Cmd = app.Command("analyze", "Run an analysis on the server and wait for its result.")
	c.Cmd.Arg("kind", "Analysis kind.").Required().EnumVar(&c.kind, kinds...)
	c.Cmd.Flag("param", "Analysis parameter in KEY=VALUE form, values are YAML (can be repeated).").Short('p').StringsVar(&c.paramSpecs)
	c.Cmd.Flag("sector", "Sector of the analysis, same as --param sector=SECTOR.").StringVar(&c.sector)
	c.Cmd.Flag("format", "Output format (table, json).").Default(formatTable).EnumVar(&c.format, formatTable, formatJSON)
	c.Cmd.Flag("no-progress", "Don't show the progress bar.").BoolVar(&c.noProgress)

	return c
}

func (c AnalyzeCommand) Name() string { return c.Cmd.FullCommand() }

func (c AnalyzeCommand) Run(ctx context.Context) error {
	p, err := params.ParseSpecs(c.paramSpecs)
	if err != nil {
		return fmt.Errorf("invalid --param value: %w", err)
	}
	if c.sector != "" {
		p["sector"] = c.sector
	}

	return runTracked(ctx, *c.rootCmd, trackedOptions{
		request: analyze.Request{
			Kind:   model.AnalysisKind(c.kind),
			Params: p,
		},
		format:     c.format,
		noProgress: c.noProgress,
	})
}

type trackedOptions struct {
	request    analyze.Request
	format     string
	noProgress bool
}

// runTracked runs an analyze service request with a progress bar and prints the final state.
func runTracked(ctx context.Context, root RootCommand, opts trackedOptions) error {
	cfg, err := root.loadConfig(ctx)
	if err != nil {
		return err
	}

	client, err := root.newBackend(cfg)
	if err != nil {
		return err
	}

	tr, err := root.newTracker(client, cfg)
	if err != nil {
		return err
	}

	svcCfg := analyze.ServiceConfig{
		Tracker:       tr,
		DefaultParams: cfg.AnalysisParams,
		Logger:        root.Logger,
	}
	if root.History {
		history, err := root.newHistory(ctx)
		if err != nil {
			return err
		}
		defer history.Close()
		svcCfg.History = history
	}

	svc, err := analyze.NewService(svcCfg)
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	req := opts.request
	stopProgress := func() {}
	if !opts.noProgress {
		bar := printer.NewProgressBar(root.Stderr, string(req.Kind), root.Logger)
		bar.Start()
		defer bar.Stop()
		req.OnState = bar.Update
		stopProgress = bar.Stop
	}

	st, err := svc.Run(ctx, req)
	stopProgress()
	if err != nil {
		return err
	}

	if err := newPrinter(opts.format, root.Stdout).PrintState(st); err != nil {
		return fmt.Errorf("could not print result: %w", err)
	}

	switch st.Status {
	case model.TrackerStatusCompleted:
		return nil
	case model.TrackerStatusFailed:
		return fmt.Errorf("task failed: %s", st.Failure.Message)
	default:
		return fmt.Errorf("task %s", st.Status)
	}
}
