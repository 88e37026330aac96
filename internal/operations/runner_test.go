package operations

import (
	"context"
	"errors"
	"sync/atomic"

	"ertcli/internal/generator"
	"ertcli/internal/report"
)

// fakeRunner blocks until release is closed (when set), then returns result or err.
type fakeRunner struct {
	status  *report.ProgressStatus
	release chan struct{}
	started chan struct{}
	result  *generator.Result
	err     error
	panics  bool
	calls   atomic.Int32
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{
		status:  report.NewProgressStatus(),
		started: make(chan struct{}, 1),
		result:  &generator.Result{ArchiveName: "report.zip", RowsWritten: 2},
	}
}

func (f *fakeRunner) Progress() *report.ProgressStatus { return f.status }

func (f *fakeRunner) Write(ctx context.Context, rows []*report.Row) (*generator.Result, error) {
	f.calls.Add(1)
	f.status.Reset(report.PhaseInit)
	f.status.Advance(report.PhaseWrite, 80)
	select {
	case f.started <- struct{}{}:
	default:
	}
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.panics {
		panic("boom")
	}
	if f.err != nil {
		f.status.Fail(f.err)
		return nil, f.err
	}
	f.status.Finish("")
	return f.result, nil
}

var errWrite = errors.New("disk full")
