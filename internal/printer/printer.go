package printer

import "github.com/slok/stockwatch/internal/model"

// Printer knows how to print analysis task information in different formats.
type Printer interface {
	PrintState(state model.TrackerState) error
	PrintSnapshot(snapshot model.TaskSnapshot, display *model.DisplayModel) error
	PrintKinds(analyses []model.AnalysisInfo) error
	PrintHistory(records []model.TaskRecord) error
	PrintTaskRecord(record model.TaskRecord, display *model.DisplayModel) error
	PrintMessage(msg string) error
}
