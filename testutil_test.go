package refrontier

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/woozymasta/refrontier/archive"
)

// textPayload returns compressible plain text that never starts with a known tag.
func textPayload(seed int, lines int) []byte {
	var buf bytes.Buffer
	for i := range lines {
		fmt.Fprintf(&buf, "line %03d of asset %d: hunter guild quest record\n", i, seed)
	}

	return buf.Bytes()
}

// packMembers builds an archive from payloads with the given alignment.
func packMembers(t *testing.T, alignment uint32, payloads ...[]byte) []byte {
	t.Helper()

	members := make([]archive.Member, len(payloads))
	for i, p := range payloads {
		members[i] = archive.Member{Data: p}
	}

	data, err := archive.PackBytes(members, archive.PackOptions{Alignment: alignment})
	if err != nil {
		t.Fatalf("PackBytes: %v", err)
	}

	return data
}

// writeTestFile writes data under dir and returns the full path.
func writeTestFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	return path
}

// readTestFile reads path or fails the test.
func readTestFile(t *testing.T, path string) []byte {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile(%s): %v", path, err)
	}

	return data
}

// memoryInput builds an in-memory handler input with a fresh output set.
func memoryInput(path string, data []byte) Input {
	return Input{
		Data: bytes.NewReader(data),
		Out:  newOutputRecorder(newOutputSet()),
		Path: path,
		Size: int64(len(data)),
	}
}

// failingSink fails every write and counts attempts.
type failingSink struct {
	calls int
}

func (s *failingSink) WriteFile(string, []byte) error {
	s.calls++
	return ErrIOFailure
}

func (s *failingSink) MkdirAll(string) error {
	s.calls++
	return ErrIOFailure
}
