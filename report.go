// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/refrontier

package refrontier

import (
	"sort"
	"time"
)

// Report is the outcome of one pipeline run.
type Report struct {
	// Files holds one record per routed file, sorted by path then depth.
	Files []FileReport `json:"files" yaml:"files"`
	// Processed counts processed files.
	Processed int `json:"processed" yaml:"processed"`
	// Skipped counts skipped files.
	Skipped int `json:"skipped" yaml:"skipped"`
	// Failed counts failed files.
	Failed int `json:"failed" yaml:"failed"`
	// Duration is total wall time.
	Duration time.Duration `json:"duration" yaml:"duration"`
}

// OK reports whether no file failed.
func (r *Report) OK() bool {
	return r.Failed == 0
}

// File returns the first record for path at depth 0, or any depth when none is at 0.
func (r *Report) File(path string) (FileReport, bool) {
	var (
		found FileReport
		ok    bool
	)

	for _, f := range r.Files {
		if f.Path != path {
			continue
		}
		if !ok || f.Depth < found.Depth {
			found, ok = f, true
		}
	}

	return found, ok
}

// newReport sorts files and counts outcomes.
func newReport(files []FileReport, duration time.Duration) *Report {
	sort.SliceStable(files, func(i, j int) bool {
		if files[i].Path != files[j].Path {
			return files[i].Path < files[j].Path
		}

		return files[i].Depth < files[j].Depth
	})

	r := &Report{Files: files, Duration: duration}
	for _, f := range files {
		switch {
		case f.Failed():
			r.Failed++
		case f.Result.IsSkipped():
			r.Skipped++
		default:
			r.Processed++
		}
	}

	return r
}
