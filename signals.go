// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/refrontier

package refrontier

import (
	"context"
	"time"

	"github.com/zoobzio/capitan"
)

// Signals for routing events.
var (
	SignalFileRouted    = capitan.NewSignal("refrontier.file.routed", "Handler selected for file")
	SignalFileProcessed = capitan.NewSignal("refrontier.file.processed", "Handler wrote outputs")
	SignalFileSkipped   = capitan.NewSignal("refrontier.file.skipped", "File left untouched")
	SignalFileFailed    = capitan.NewSignal("refrontier.file.failed", "File handling failed")
	SignalRunComplete   = capitan.NewSignal("refrontier.run.complete", "Pipeline run finished")
)

// Keys for typed event data.
var (
	KeyPath      = capitan.NewStringKey("path")
	KeyHandler   = capitan.NewStringKey("handler")
	KeyMagic     = capitan.NewStringKey("magic")
	KeyReason    = capitan.NewStringKey("reason")
	KeyOutputs   = capitan.NewIntKey("outputs")
	KeyDepth     = capitan.NewIntKey("depth")
	KeyDuration  = capitan.NewDurationKey("duration")
	KeyError     = capitan.NewErrorKey("error")
	KeyProcessed = capitan.NewIntKey("processed")
	KeySkipped   = capitan.NewIntKey("skipped")
	KeyFailed    = capitan.NewIntKey("failed")
)

// emitFileRouted emits an event when a handler is selected.
func emitFileRouted(ctx context.Context, path, handler, magic string, depth int) {
	capitan.Emit(ctx, SignalFileRouted,
		KeyPath.Field(path),
		KeyHandler.Field(handler),
		KeyMagic.Field(magic),
		KeyDepth.Field(depth),
	)
}

// emitFileDone emits the outcome event for one file report.
func emitFileDone(ctx context.Context, fr FileReport) {
	fields := []capitan.Field{
		KeyPath.Field(fr.Path),
		KeyHandler.Field(fr.Handler),
		KeyMagic.Field(fr.Magic),
		KeyDepth.Field(fr.Depth),
		KeyDuration.Field(fr.Duration),
	}

	switch {
	case fr.Err != nil:
		fields = append(fields, KeyError.Field(fr.Err))
		capitan.Error(ctx, SignalFileFailed, fields...)
	case fr.Result.IsSkipped():
		fields = append(fields, KeyReason.Field(fr.Result.Reason))
		capitan.Emit(ctx, SignalFileSkipped, fields...)
	default:
		fields = append(fields, KeyOutputs.Field(len(fr.Result.Outputs)))
		capitan.Emit(ctx, SignalFileProcessed, fields...)
	}
}

// emitRunComplete emits the run summary event.
func emitRunComplete(ctx context.Context, processed, skipped, failed int, duration time.Duration) {
	capitan.Emit(ctx, SignalRunComplete,
		KeyProcessed.Field(processed),
		KeySkipped.Field(skipped),
		KeyFailed.Field(failed),
		KeyDuration.Field(duration),
	)
}
