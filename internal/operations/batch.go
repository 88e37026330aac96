package operations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"ertcli/internal/generator"
	"ertcli/internal/report"
)

// DefaultPollInterval is how often batch progress is logged.
const DefaultPollInterval = time.Second

// UngroupedKey collects rows that have no value in the grouping column.
const UngroupedKey = "ungrouped"

// RunnerFactory builds the runner for one batch item's configuration.
type RunnerFactory func(cfg *report.Configuration) (Runner, error)

// BatchItem is one report of a batch.
type BatchItem struct {
	Name   string
	Runner Runner
	Rows   []*report.Row
}

// BatchResult is the outcome of one batch item.
type BatchResult struct {
	Name   string            `json:"name"`
	Result *generator.Result `json:"result,omitempty"`
	Error  string            `json:"error,omitempty"`
}

// BatchOptions tune RunBatch.
type BatchOptions struct {
	Concurrency  int
	PollInterval time.Duration
	Logger       *slog.Logger
}

// GroupRows splits rows by the value of the named column. Keys are returned
// sorted; rows without the column go under UngroupedKey.
func GroupRows(rows []*report.Row, column string) ([]string, map[string][]*report.Row) {
	groups := make(map[string][]*report.Row)
	for _, row := range rows {
		key := UngroupedKey
		for _, c := range row.Cells {
			if c.Column.Name == column && c.Value != "" {
				key = c.Value
				break
			}
		}
		groups[key] = append(groups[key], row)
	}
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, groups
}

// PlanBatch builds one item per group of rows. Each item gets a copy of cfg
// whose user name carries the group key, so archive names do not collide.
func PlanBatch(cfg *report.Configuration, rows []*report.Row, column string, factory RunnerFactory) ([]BatchItem, error) {
	keys, groups := GroupRows(rows, column)
	items := make([]BatchItem, 0, len(keys))
	for _, key := range keys {
		itemCfg := *cfg
		if itemCfg.UserName != "" {
			itemCfg.UserName = fmt.Sprintf("%s-%s", itemCfg.UserName, key)
		} else {
			itemCfg.UserName = key
		}
		runner, err := factory(&itemCfg)
		if err != nil {
			return nil, fmt.Errorf("batch item %s: %w", key, err)
		}
		items = append(items, BatchItem{Name: key, Runner: runner, Rows: groups[key]})
	}
	return items, nil
}

// RunBatch writes every item with at most Concurrency reports in flight,
// logging progress on a ticker. A failed item does not stop the others; the
// returned error joins all item failures.
func RunBatch(ctx context.Context, items []BatchItem, opts BatchOptions) ([]BatchResult, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "batch"))
	interval := opts.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	results := make([]BatchResult, len(items))
	errs := make([]error, len(items))
	done := make(chan struct{})

	var poll errgroup.Group
	poll.Go(func() error {
		pollProgress(ctx, items, interval, done, logger)
		return nil
	})

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, item := range items {
		g.Go(func() error {
			results[i].Name = item.Name
			if err := gctx.Err(); err != nil {
				errs[i] = err
				results[i].Error = err.Error()
				return nil
			}
			res, err := item.Runner.Write(gctx, item.Rows)
			if err != nil {
				errs[i] = fmt.Errorf("%s: %w", item.Name, err)
				results[i].Error = err.Error()
				logger.ErrorContext(gctx, "Batch report failed",
					slog.String("item", item.Name), slog.String("error", err.Error()))
				return nil
			}
			results[i].Result = res
			return nil
		})
	}
	g.Wait()
	close(done)
	poll.Wait()

	err := errors.Join(errs...)
	logger.InfoContext(ctx, "Batch finished",
		slog.Int("items", len(items)),
		slog.Bool("failed", err != nil))
	return results, err
}

func pollProgress(ctx context.Context, items []BatchItem, interval time.Duration, done <-chan struct{}, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			finished, total := 0, 0
			for _, item := range items {
				p := item.Runner.Progress().Snapshot()
				total += p.Percent
				if p.Finished {
					finished++
				}
			}
			avg := 0
			if len(items) > 0 {
				avg = total / len(items)
			}
			logger.InfoContext(ctx, "Batch progress",
				slog.Int("finished", finished),
				slog.Int("items", len(items)),
				slog.Int("percent", avg))
		}
	}
}
