// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/refrontier

package refrontier

import (
	"io"
	"log/slog"
	"sync"
)

// LogSink serializes writes from concurrent workers into one writer.
type LogSink struct {
	w  io.Writer
	mu sync.Mutex
}

// NewLogSink wraps w; nil discards.
func NewLogSink(w io.Writer) *LogSink {
	if w == nil {
		w = io.Discard
	}

	return &LogSink{w: w}
}

// Write writes p as one unit.
func (s *LogSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.w.Write(p)
}

// NewLogger returns a text logger writing to w through a LogSink.
// Verbose enables debug records.
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	sink, ok := w.(*LogSink)
	if !ok {
		sink = NewLogSink(w)
	}

	return slog.New(slog.NewTextHandler(sink, &slog.HandlerOptions{Level: level}))
}
