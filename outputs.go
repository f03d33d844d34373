// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/refrontier

package refrontier

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"golang.org/x/crypto/blake2b"
)

// outputSet tracks every path written in one run, plus the run inputs.
type outputSet struct {
	claimed map[string]struct{}
	inputs  map[string]struct{}
	mu      sync.Mutex
}

// newOutputSet creates an empty claim set.
func newOutputSet() *outputSet {
	return &outputSet{
		claimed: make(map[string]struct{}),
		inputs:  make(map[string]struct{}),
	}
}

// addInput marks path as a run input that no handler may write.
func (s *outputSet) addInput(path string) {
	key := claimKey(path)

	s.mu.Lock()
	s.inputs[key] = struct{}{}
	s.mu.Unlock()
}

// claim reserves path for one writer.
func (s *outputSet) claim(path string) error {
	key := claimKey(path)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.inputs[key]; ok {
		return fmt.Errorf("%w: %w: %s is an input", ErrIOFailure, ErrOutputClaimed, path)
	}
	if _, ok := s.claimed[key]; ok {
		return fmt.Errorf("%w: %w: %s", ErrIOFailure, ErrOutputClaimed, path)
	}

	s.claimed[key] = struct{}{}
	return nil
}

// claimKey returns the canonical map key for path.
func claimKey(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}

	return abs
}

// outputRecorder writes one file's outputs through the run claim set and records digests.
type outputRecorder struct {
	set     *outputSet
	digests map[string]string
	mu      sync.Mutex
}

// newOutputRecorder creates a recorder bound to set.
func newOutputRecorder(set *outputSet) *outputRecorder {
	return &outputRecorder{set: set, digests: make(map[string]string)}
}

// WriteFile claims path and writes data, recording its BLAKE2b-256 digest.
func (r *outputRecorder) WriteFile(path string, data []byte) error {
	if err := r.set.claim(path); err != nil {
		return err
	}

	sum, err := writeOutputFile(path, data)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIOFailure, err)
	}

	r.mu.Lock()
	r.digests[path] = sum
	r.mu.Unlock()
	return nil
}

// MkdirAll claims dir and creates it with parents.
func (r *outputRecorder) MkdirAll(dir string) error {
	if err := r.set.claim(dir); err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("%w: create %s: %w", ErrIOFailure, dir, err)
	}

	return nil
}

// Digests returns a copy of recorded digests.
func (r *outputRecorder) Digests() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.digests) == 0 {
		return nil
	}

	out := make(map[string]string, len(r.digests))
	for k, v := range r.digests {
		out[k] = v
	}

	return out
}

// Paths returns recorded paths in sorted order.
func (r *outputRecorder) Paths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, 0, len(r.digests))
	for k := range r.digests {
		out = append(out, k)
	}
	sort.Strings(out)

	return out
}

// writeOutputFile creates or truncates path, writes data and returns its hex digest.
func writeOutputFile(path string, data []byte) (string, error) {
	file, err := openOutputFile(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}

	h, err := blake2b.New256(nil)
	if err != nil {
		_ = file.Close()
		return "", fmt.Errorf("init digest: %w", err)
	}

	_, writeErr := io.Copy(io.MultiWriter(file, h), bytes.NewReader(data))
	closeErr := file.Close()
	if writeErr != nil {
		return "", fmt.Errorf("write %s: %w", path, writeErr)
	}

	if closeErr != nil {
		return "", fmt.Errorf("close %s: %w", path, closeErr)
	}

	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// openOutputFile creates path exclusively, falling back to truncating an existing file.
func openOutputFile(path string) (*os.File, error) {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err == nil {
		return file, nil
	}

	if !os.IsExist(err) {
		return nil, err
	}

	return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
}
