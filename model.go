// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/refrontier

package refrontier

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/woozymasta/refrontier/internal/format"
)

// Output naming conventions.
const (
	// SuffixDecrypted is appended to decrypted outputs.
	SuffixDecrypted = ".decd"
	// SuffixDecompressed is appended to decompressed outputs.
	SuffixDecompressed = ".decomp"
	// SuffixCompressed is appended to compressed outputs.
	SuffixCompressed = ".jkr"
	// SuffixUnpacked is appended to unpack directories.
	SuffixUnpacked = ".unpacked"
	// SuffixRepacked is appended to rebuilt archives.
	SuffixRepacked = ".repacked"
	// SuffixMeta is appended to encryption meta sidecars.
	SuffixMeta = ".meta"
	// ManifestName is the manifest file written into unpack directories.
	ManifestName = "manifest.rfmf"
)

// Magic is the 4-byte format tag read from stream start.
type Magic = format.Magic

// Format tags recognized by the built-in handlers.
const (
	MagicNone     = format.MagicNone
	MagicArchive  = format.MagicArchive
	MagicJKR      = format.MagicJKR
	MagicECD      = format.MagicECD
	MagicEXF      = format.MagicEXF
	MagicManifest = format.MagicManifest
)

// ResultKind classifies a handled file.
type ResultKind uint8

// Result kinds.
const (
	// KindProcessed means the handler wrote its outputs.
	KindProcessed ResultKind = iota + 1
	// KindSkipped means the file was deliberately left alone.
	KindSkipped
)

// String returns the kind name.
func (k ResultKind) String() string {
	switch k {
	case KindProcessed:
		return "processed"
	case KindSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// MarshalText encodes the kind name.
func (k ResultKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Result is the outcome of handling one file. It is never mutated after creation.
type Result struct {
	// Handler is the name of the handler that produced the result.
	Handler string `json:"handler,omitempty" yaml:"handler,omitempty"`
	// Reason explains a skip.
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`
	// Outputs are written files eligible for further routing.
	Outputs []string `json:"outputs,omitempty" yaml:"outputs,omitempty"`
	// Sidecars are written files that are never routed again (manifests, meta).
	Sidecars []string `json:"sidecars,omitempty" yaml:"sidecars,omitempty"`
	// Kind is processed or skipped.
	Kind ResultKind `json:"kind" yaml:"kind"`
}

// Processed builds a processed result with outputs.
func Processed(outputs ...string) Result {
	return Result{Kind: KindProcessed, Outputs: outputs}
}

// Skipped builds a skip result with a human-readable reason.
func Skipped(reason string) Result {
	return Result{Kind: KindSkipped, Reason: reason}
}

// IsProcessed reports whether r is a processed result.
func (r Result) IsProcessed() bool {
	return r.Kind == KindProcessed
}

// IsSkipped reports whether r is a skip result.
func (r Result) IsSkipped() bool {
	return r.Kind == KindSkipped
}

// OutputSink receives files written by handlers.
type OutputSink interface {
	// WriteFile claims path for this run and writes data to it.
	WriteFile(path string, data []byte) error
	// MkdirAll claims dir for this run and creates it.
	MkdirAll(dir string) error
}

// Input is one file presented to the router.
type Input struct {
	// Data gives random access to file content.
	Data io.ReaderAt
	// Out receives handler outputs; nil writes without run-wide claims.
	Out OutputSink
	// Logger receives handler logs; nil discards.
	Logger *slog.Logger
	// Path is the file path.
	Path string
	// Size is file size in bytes.
	Size int64
	// Depth is chain depth, zero for files named by the caller.
	Depth int
	// Magic is the tag read from the first 4 bytes.
	Magic format.Magic
}

// sink returns the configured output sink or a standalone one.
func (in Input) sink() OutputSink {
	if in.Out != nil {
		return in.Out
	}

	return newOutputRecorder(newOutputSet())
}

// logger returns the configured logger or a discarding one.
func (in Input) logger() *slog.Logger {
	if in.Logger != nil {
		return in.Logger
	}

	return slog.New(slog.DiscardHandler)
}

// Handler is one registered format capability.
type Handler struct {
	// Match reports whether the handler accepts magic under cfg.
	Match func(magic format.Magic, cfg Config) bool `json:"-" yaml:"-"`
	// Handle processes the input.
	Handle func(ctx context.Context, in Input, cfg Config) (Result, error) `json:"-" yaml:"-"`
	// Name identifies the handler in logs and reports.
	Name string `json:"name" yaml:"name"`
	// Priority orders matching handlers; the highest wins and must be unique.
	Priority int `json:"priority" yaml:"priority"`
}

// FileReport is the outcome record for one routed file.
type FileReport struct {
	// Err is the failure, nil for processed or skipped files.
	Err error `json:"-" yaml:"-"`
	// Digests maps every written path to its BLAKE2b-256 hex digest.
	Digests map[string]string `json:"digests,omitempty" yaml:"digests,omitempty"`
	// Path is the routed file.
	Path string `json:"path" yaml:"path"`
	// Handler is the selected handler name, empty when none matched.
	Handler string `json:"handler,omitempty" yaml:"handler,omitempty"`
	// Error is Err rendered as text.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
	// Magic is the detected format tag.
	Magic string `json:"magic,omitempty" yaml:"magic,omitempty"`
	// Result is the handler outcome when Err is nil.
	Result Result `json:"result" yaml:"result"`
	// Depth is chain depth, zero for files named by the caller.
	Depth int `json:"depth" yaml:"depth"`
	// BytesRead is the highest input offset read while routing and handling.
	BytesRead int64 `json:"bytes_read" yaml:"bytes_read"`
	// Duration is wall time spent on this file.
	Duration time.Duration `json:"duration" yaml:"duration"`
}

// Failed reports whether the file failed.
func (r FileReport) Failed() bool {
	return r.Err != nil
}
