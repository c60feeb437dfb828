package printer

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/slok/stockwatch/internal/model"
)

// TablePrinter prints analysis task information in a table format.
type TablePrinter struct {
	writer io.Writer
	now    func() time.Time
}

// NewTablePrinter creates a new table printer.
func NewTablePrinter(w io.Writer) *TablePrinter {
	return &TablePrinter{writer: w, now: time.Now}
}

// NewTablePrinterAt creates a table printer that shows relative times from now.
func NewTablePrinterAt(w io.Writer, now time.Time) *TablePrinter {
	return &TablePrinter{writer: w, now: func() time.Time { return now }}
}

// PrintState prints the tracker state and, when the task finished, its result.
func (t *TablePrinter) PrintState(st model.TrackerState) error {
	if id := st.TaskID(); id != "" {
		fmt.Fprintf(t.writer, "Task:       %s\n", id)
	}
	if st.Kind != "" {
		fmt.Fprintf(t.writer, "Kind:       %s\n", st.Kind)
	}
	fmt.Fprintf(t.writer, "Status:     %s\n", st.Status)

	if st.Handle != nil {
		fmt.Fprintf(t.writer, "Elapsed:    %s\n", FormatElapsed(st.UpdatedAt.Sub(st.Handle.LaunchedAt)))
	}

	if st.Snapshot != nil && !st.Status.IsTerminal() {
		t.printProgress(*st.Snapshot)
	}

	if st.Failure != nil {
		fmt.Fprintf(t.writer, "Failure:    %s\n", st.Failure.Reason)
		fmt.Fprintf(t.writer, "Error:      %s\n", st.Failure.Message)
	}

	if st.Status == model.TrackerStatusCompleted && st.Display != nil {
		fmt.Fprintln(t.writer)
		t.printDisplay(*st.Display)
	}

	return nil
}

// PrintSnapshot prints one task status sample and its result when there is one.
func (t *TablePrinter) PrintSnapshot(s model.TaskSnapshot, d *model.DisplayModel) error {
	fmt.Fprintf(t.writer, "Task:       %s\n", s.TaskID)
	if s.Kind != "" {
		fmt.Fprintf(t.writer, "Kind:       %s\n", s.Kind)
	}
	fmt.Fprintf(t.writer, "Phase:      %s\n", s.Phase)
	t.printProgress(s)

	if s.CreatedAt != nil {
		fmt.Fprintf(t.writer, "Created:    %s\n", FormatTimestamp(*s.CreatedAt))
	}
	if s.CompletedAt != nil {
		fmt.Fprintf(t.writer, "Completed:  %s\n", FormatTimestamp(*s.CompletedAt))
	}
	if s.Error != nil {
		fmt.Fprintf(t.writer, "Error:      %s\n", *s.Error)
	}

	if d != nil && d.Success {
		fmt.Fprintln(t.writer)
		t.printDisplay(*d)
	}

	return nil
}

// PrintKinds prints the supported analyses in a table format.
func (t *TablePrinter) PrintKinds(analyses []model.AnalysisInfo) error {
	if len(analyses) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "KIND\tDESCRIPTION")
	for _, a := range analyses {
		fmt.Fprintf(tw, "%s\t%s\n", a.Kind, a.Description)
	}

	return nil
}

// PrintHistory prints the finished tasks in a table format.
func (t *TablePrinter) PrintHistory(records []model.TaskRecord) error {
	if len(records) == 0 {
		fmt.Fprintln(t.writer, "No tasks found")
		return nil
	}

	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	now := t.now()
	fmt.Fprintln(tw, "LAUNCH\tTASK\tKIND\tSTATUS\tLAUNCHED\tDURATION")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.LaunchID,
			r.TaskID,
			r.Kind,
			r.Status,
			TimeAgo(r.LaunchedAt, now),
			FormatElapsed(r.FinishedAt.Sub(r.LaunchedAt)),
		)
	}

	return nil
}

// PrintTaskRecord prints a finished task and its result when there is one.
func (t *TablePrinter) PrintTaskRecord(r model.TaskRecord, d *model.DisplayModel) error {
	fmt.Fprintf(t.writer, "Launch:     %s\n", r.LaunchID)
	fmt.Fprintf(t.writer, "Task:       %s\n", r.TaskID)
	fmt.Fprintf(t.writer, "Kind:       %s\n", r.Kind)
	fmt.Fprintf(t.writer, "Status:     %s\n", r.Status)
	fmt.Fprintf(t.writer, "Launched:   %s\n", FormatTimestamp(r.LaunchedAt))
	fmt.Fprintf(t.writer, "Elapsed:    %s\n", FormatElapsed(r.FinishedAt.Sub(r.LaunchedAt)))

	if r.FailureReason != "" {
		fmt.Fprintf(t.writer, "Failure:    %s\n", r.FailureReason)
		fmt.Fprintf(t.writer, "Error:      %s\n", r.FailureMessage)
	}

	if len(r.Params) > 0 {
		fmt.Fprintln(t.writer, "\nParams:")
		tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "PARAM\tVALUE")
		for _, k := range sortedKeys(r.Params) {
			fmt.Fprintf(tw, "%s\t%v\n", k, r.Params[k])
		}
		tw.Flush()
	}

	if d != nil && d.Success {
		fmt.Fprintln(t.writer)
		t.printDisplay(*d)
	}

	return nil
}

// PrintMessage prints a simple text message.
func (t *TablePrinter) PrintMessage(msg string) error {
	fmt.Fprintln(t.writer, msg)
	return nil
}

func (t *TablePrinter) printProgress(s model.TaskSnapshot) {
	fmt.Fprintf(t.writer, "Progress:   %.1f%%\n", s.Progress)
	if s.CurrentStep != "" {
		fmt.Fprintf(t.writer, "Step:       %s\n", s.CurrentStep)
	}
	if s.CurrentItem != "" {
		fmt.Fprintf(t.writer, "Item:       %s\n", s.CurrentItem)
	}
}

func (t *TablePrinter) printDisplay(d model.DisplayModel) {
	fmt.Fprintln(t.writer, d.Title)
	if d.Sector != "" {
		fmt.Fprintf(t.writer, "Sector:     %s\n", d.Sector)
	}
	if d.GeneratedAt != nil {
		fmt.Fprintf(t.writer, "Generated:  %s\n", FormatTimestamp(*d.GeneratedAt))
	}
	if d.TotalAnalyzed > 0 {
		fmt.Fprintf(t.writer, "Analyzed:   %d stocks\n", d.TotalAnalyzed)
	}
	if d.Message != "" {
		fmt.Fprintf(t.writer, "Message:    %s\n", d.Message)
	}

	if len(d.Leaders) > 0 {
		fmt.Fprintln(t.writer, "\nLeaders:")
		t.printStocks(d.Leaders)
	}

	if len(d.Ranking) > 0 {
		fmt.Fprintln(t.writer, "\nRanking:")
		tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "RANK\tSYMBOL\tNAME\tSCORE\tCHANGE\tAVG VOLUME")
		for _, r := range d.Ranking {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
				r.Rank,
				r.Stock.Symbol,
				r.Stock.Name,
				FormatRatio(r.Score),
				FormatPercent(r.PriceChangePct),
				FormatAmount(float64(r.AvgVolume)),
			)
		}
		tw.Flush()
	}

	if len(d.TopStocks) > 0 {
		fmt.Fprintln(t.writer, "\nTop stocks:")
		t.printStocks(d.TopStocks)
	}

	if len(d.Fields) > 0 {
		fmt.Fprintln(t.writer)
		tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "FIELD\tVALUE")
		for _, f := range d.Fields {
			fmt.Fprintf(tw, "%s\t%s\n", f.Key, f.Value)
		}
		tw.Flush()
	}
}

func (t *TablePrinter) printStocks(stocks []model.StockRow) {
	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "#\tSYMBOL\tNAME\tINDUSTRY\tMARKET CAP\tPE\tPB")
	for i, s := range stocks {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			strconv.Itoa(i+1),
			s.Symbol,
			s.Name,
			s.Industry,
			FormatOptional(s.MarketCap, FormatAmount),
			FormatOptional(s.PERatio, FormatRatio),
			FormatOptional(s.PBRatio, FormatRatio),
		)
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
