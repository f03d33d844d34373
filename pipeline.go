// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/refrontier

package refrontier

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"
)

// Pipeline runs the router over a file set with a bounded worker pool.
type Pipeline struct {
	router *Router
	logger *slog.Logger
}

// NewPipeline creates a pipeline. Nil router means NewDefaultRouter, nil logger discards.
func NewPipeline(router *Router, logger *slog.Logger) *Pipeline {
	if router == nil {
		router = NewDefaultRouter()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Pipeline{router: router, logger: logger}
}

// runTask is one enumerated input.
type runTask struct {
	// err is an enumeration failure reported instead of routing.
	err  error
	path string
}

// Run processes paths and returns the aggregate report.
// Per-file failures are recorded in the report; the returned error covers config and cancellation only.
// Files not started before ctx is canceled are left out of the report.
func (p *Pipeline) Run(ctx context.Context, paths []string, cfg Config) (*Report, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	filter, err := newPathFilter(cfg.Include, cfg.Exclude)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	start := time.Now()
	tasks := enumerate(paths, cfg.Recursive, filter)

	set := newOutputSet()
	for _, t := range tasks {
		if t.err == nil {
			set.addInput(t.path)
		}
	}

	workers := cfg.Parallelism
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers < 1 {
		workers = 1
	}
	workers = min(workers, max(len(tasks), 1))

	p.logger.Debug("run started", "files", len(tasks), "workers", workers)

	results := make([][]FileReport, len(tasks))
	taskCh := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Go(func() {
			for i := range taskCh {
				if ctx.Err() != nil {
					continue
				}

				t := tasks[i]
				if t.err != nil {
					fr := FileReport{Path: t.path, Err: t.err, Error: t.err.Error()}
					p.logger.Error("file failed", "path", t.path, "error", t.err)
					emitFileDone(ctx, fr)
					results[i] = []FileReport{fr}
					continue
				}

				results[i] = p.processFile(ctx, t.path, 0, cfg, set)
			}
		})
	}

	var runErr error
dispatch:
	for i := range tasks {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		select {
		case <-ctx.Done():
			runErr = ctx.Err()
			break dispatch
		case taskCh <- i:
		}
	}

	close(taskCh)
	wg.Wait()
	if runErr == nil {
		runErr = ctx.Err()
	}

	files := make([]FileReport, 0, len(tasks))
	for _, r := range results {
		files = append(files, r...)
	}

	report := newReport(files, time.Since(start))
	p.logger.Info("run complete",
		"processed", report.Processed,
		"skipped", report.Skipped,
		"failed", report.Failed,
		"duration", report.Duration)
	emitRunComplete(ctx, report.Processed, report.Skipped, report.Failed, report.Duration)

	return report, runErr
}

// processFile routes one file and, with Chain, every output it produced.
func (p *Pipeline) processFile(ctx context.Context, path string, depth int, cfg Config, set *outputSet) []FileReport {
	fr := p.routeFile(ctx, path, depth, cfg, set)
	reports := []FileReport{fr}

	if !cfg.Chain || fr.Failed() || !fr.Result.IsProcessed() || depth >= cfg.MaxDepth {
		return reports
	}

	for _, out := range fr.Result.Outputs {
		if ctx.Err() != nil {
			break
		}

		next := p.processFile(ctx, out, depth+1, cfg, set)
		reports = append(reports, next...)

		if cfg.CleanUp && next[0].Result.IsProcessed() && !next[0].Failed() {
			if err := os.Remove(out); err != nil {
				p.logger.Warn("clean up failed", "path", out, "error", err)
			} else {
				p.logger.Debug("intermediate removed", "path", out)
			}
		}
	}

	return reports
}

// routeFile opens path, detects its tag and runs the selected handler.
func (p *Pipeline) routeFile(ctx context.Context, path string, depth int, cfg Config, set *outputSet) (fr FileReport) {
	start := time.Now()
	fr = FileReport{Path: path, Depth: depth}
	logger := p.logger.With("path", path)

	defer func() {
		fr.Duration = time.Since(start)
		if fr.Err != nil {
			fr.Error = fr.Err.Error()
			logger.Error("file failed", "handler", fr.Handler, "error", fr.Err)
		} else if fr.Result.IsSkipped() {
			logger.Info("file skipped", "handler", fr.Handler, "reason", fr.Result.Reason)
		} else {
			logger.Info("file processed", "handler", fr.Handler, "outputs", len(fr.Result.Outputs))
		}
		emitFileDone(ctx, fr)
	}()

	f, err := os.Open(path)
	if err != nil {
		fr.Err = fmt.Errorf("%w: open: %w", ErrIOFailure, err)
		return fr
	}
	defer func() { _ = f.Close() }()

	fi, err := f.Stat()
	if err != nil {
		fr.Err = fmt.Errorf("%w: stat: %w", ErrIOFailure, err)
		return fr
	}

	tracker := &trackingReaderAt{ra: f}
	magic, err := readMagic(tracker, fi.Size())
	if err != nil {
		fr.Err = err
		return fr
	}
	fr.Magic = magic.String()

	if h, ok := p.router.Select(magic, cfg); ok {
		emitFileRouted(ctx, path, h.Name, fr.Magic, depth)
	}

	recorder := newOutputRecorder(set)
	in := Input{
		Data:   tracker,
		Out:    recorder,
		Logger: logger,
		Path:   path,
		Size:   fi.Size(),
		Depth:  depth,
		Magic:  magic,
	}

	res, err := p.router.Route(ctx, in, cfg)
	fr.Handler = res.Handler
	fr.BytesRead = tracker.High()
	fr.Digests = recorder.Digests()
	if err != nil {
		fr.Err = err
		return fr
	}

	fr.Result = res
	return fr
}

// enumerate expands paths into files. Filters apply to files found in directories.
func enumerate(paths []string, recursive bool, filter *pathFilter) []runTask {
	var tasks []runTask
	seen := make(map[string]struct{})
	add := func(path string) {
		key := claimKey(path)
		if _, ok := seen[key]; ok {
			return
		}

		seen[key] = struct{}{}
		tasks = append(tasks, runTask{path: path})
	}

	for _, root := range paths {
		fi, err := os.Stat(root)
		if err != nil {
			tasks = append(tasks, runTask{path: root, err: fmt.Errorf("%w: %w", ErrIOFailure, err)})
			continue
		}

		if !fi.IsDir() {
			add(root)
			continue
		}

		walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				tasks = append(tasks, runTask{path: path, err: fmt.Errorf("%w: %w", ErrIOFailure, err)})
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}

			if d.IsDir() {
				if path != root && !recursive {
					return fs.SkipDir
				}
				return nil
			}

			if !d.Type().IsRegular() {
				return nil
			}

			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			if !filter.Match(filepath.ToSlash(rel)) {
				return nil
			}

			add(path)
			return nil
		})
		if walkErr != nil && !errors.Is(walkErr, fs.SkipDir) {
			tasks = append(tasks, runTask{path: root, err: fmt.Errorf("%w: walk: %w", ErrIOFailure, walkErr)})
		}
	}

	return tasks
}
