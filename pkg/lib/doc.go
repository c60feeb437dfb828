// Package lib provides a Go SDK to run stock analysis tasks on the analysis
// server and wait for their results.
//
// The server runs analyses as long running tasks: it returns a task ID when
// the task is started and the client polls its status until it finishes. The
// SDK does the polling, reports the progress and maps the server result into
// typed values.
//
// # Quick Start
//
//	client, err := lib.New(lib.Config{ServerURL: "http://127.0.0.1:5000"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	res, err := client.Analyze(ctx, lib.AnalysisDragon, map[string]any{"sector": "banks"}, &lib.AnalyzeOpts{
//	    OnProgress: func(p lib.Progress) { fmt.Printf("%.0f%% %s\n", p.Progress, p.Step) },
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, s := range res.Leaders {
//	    fmt.Println(s.Symbol, s.Name)
//	}
//
// # Task Results
//
// [Client.Analyze] and [Client.Watch] return a [Result] with the final status
// of the tracking. Only [StatusCompleted] results have the analysis data, the
// rest have a [Failure] (failed) or nothing (timed out, cancelled). A result
// that is not completed is not an error, errors are returned when the task
// could not be started or tracked.
//
// # Cancellation
//
// Cancelling the context passed to [Client.Analyze] stops tracking the task
// and returns a [StatusCancelled] result. The server has no cancel endpoint,
// the task keeps running there and [Client.Watch] can track it again.
//
// # Error Handling
//
// All methods return errors that can be inspected with [errors.Is]:
//
//   - [ErrNotFound]: The task does not exist on the server.
//   - [ErrNotValid]: Invalid input (e.g. an unknown analysis kind).
//   - [ErrTaskActive]: The client is already tracking a task.
//   - [ErrLaunch]: The server could not start the task.
//
// # Testing
//
// Set [Config].Backend to [BackendFake] to use an in-memory analysis server:
//
//	client, _ := lib.New(lib.Config{
//	    Backend:      lib.BackendFake,
//	    PollInterval: time.Millisecond,
//	})
//
// # Thread Safety
//
// A [Client] is safe for concurrent use, but it tracks a single task at a
// time. Use a client per concurrent analysis.
package lib
