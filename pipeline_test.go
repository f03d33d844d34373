package refrontier

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/woozymasta/refrontier/ecd"
	"github.com/woozymasta/refrontier/jpk"
)

func runPipeline(t *testing.T, paths []string, cfg Config) (*Report, string) {
	t.Helper()

	var logs bytes.Buffer
	report, err := NewPipeline(nil, NewLogger(&logs, true)).Run(t.Context(), paths, cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	return report, logs.String()
}

func mustFile(t *testing.T, report *Report, path string) FileReport {
	t.Helper()

	fr, ok := report.File(path)
	if !ok {
		t.Fatalf("no report for %s", path)
	}

	return fr
}

func TestPipelineEmptyArchive(t *testing.T) {
	t.Parallel()

	src := make([]byte, 64)
	copy(src, []byte("MOMO"))
	path := writeTestFile(t, t.TempDir(), "empty.bin", src)

	report, logs := runPipeline(t, []string{path}, DefaultConfig())
	if !report.OK() {
		t.Fatalf("report failed: %+v", report.Files)
	}

	fr := mustFile(t, report, path)
	if fr.Handler != HandlerArchive {
		t.Fatalf("handler=%q", fr.Handler)
	}
	if !fr.Result.IsProcessed() && !fr.Result.IsSkipped() {
		t.Fatalf("result=%+v", fr.Result)
	}
	if !strings.Contains(logs, "archive header detected") {
		t.Fatalf("logs missing header acknowledgment:\n%s", logs)
	}
}

func TestPipelineUnpacksArchive(t *testing.T) {
	t.Parallel()

	src := packMembers(t, 16, []byte("first member"), textPayload(3, 4))
	path := writeTestFile(t, t.TempDir(), "stage02.bin", src)

	report, _ := runPipeline(t, []string{path}, DefaultConfig())
	if !report.OK() {
		t.Fatalf("report failed: %+v", report.Files)
	}

	fr := mustFile(t, report, path)
	if fr.Handler != HandlerArchive || !fr.Result.IsProcessed() {
		t.Fatalf("handler=%q result=%+v", fr.Handler, fr.Result)
	}

	unpacked := path + SuffixUnpacked
	if got := readTestFile(t, filepath.Join(unpacked, "0001.bin")); string(got) != "first member" {
		t.Fatalf("member 1=%q", got)
	}

	m, err := ReadManifest(filepath.Join(unpacked, ManifestName))
	if err != nil {
		t.Fatalf("ReadManifest: %v", err)
	}
	if m.Source != "stage02.bin" || len(m.Entries) != 2 || m.Size != int64(len(src)) {
		t.Fatalf("manifest=%+v", m)
	}
}

func TestPipelineDecryptionDisabled(t *testing.T) {
	t.Parallel()

	stream, err := ecd.Encrypt(textPayload(7, 200), ecd.Options{KeyIndex: ecd.DefaultKeyIndex})
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	path := writeTestFile(t, t.TempDir(), "enemy.ecd", stream)

	cfg := DefaultConfig()
	cfg.NoDecryption = true
	report, _ := runPipeline(t, []string{path}, cfg)

	fr := mustFile(t, report, path)
	if !fr.Result.IsSkipped() || fr.Result.Reason != "Decryption disabled" {
		t.Fatalf("result=%+v, want skip %q", fr.Result, "Decryption disabled")
	}
	if fr.BytesRead != 4 {
		t.Fatalf("read %d bytes, want 4", fr.BytesRead)
	}
	if report.Skipped != 1 || report.Processed != 0 || report.Failed != 0 {
		t.Fatalf("counts p=%d s=%d f=%d", report.Processed, report.Skipped, report.Failed)
	}
	if _, err := os.Stat(path + SuffixDecrypted); !os.IsNotExist(err) {
		t.Fatal("decrypted output written while decryption disabled")
	}
}

func TestPipelineNoHandler(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeTestFile(t, dir, "readme.txt", []byte("plain text"))
	short := writeTestFile(t, dir, "short", []byte("ab"))

	report, _ := runPipeline(t, []string{dir}, DefaultConfig())
	for _, p := range []string{path, short} {
		fr := mustFile(t, report, p)
		if !fr.Result.IsSkipped() || fr.Result.Reason != "no handler" || fr.Handler != "" {
			t.Fatalf("%s: %+v", p, fr)
		}
		if len(fr.Digests) != 0 {
			t.Fatalf("%s: wrote %v", p, fr.Digests)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("directory has %d entries, want 2", len(entries))
	}
}

func TestPipelineParallelismIsDeterministic(t *testing.T) {
	t.Parallel()

	const n = 8
	build := func(dir string) {
		for i := range n {
			jkr, err := jpk.Encode(textPayload(i, 30+i), jpk.TagHFI)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			data := packMembers(t, 16, textPayload(100+i, 5), jkr)
			if i%3 == 0 {
				if data, err = ecd.Encrypt(data, ecd.Options{KeyIndex: uint16(i % ecd.KeyCount)}); err != nil {
					t.Fatalf("Encrypt: %v", err)
				}
			}
			writeTestFile(t, dir, fmt.Sprintf("file%02d.bin", i), data)
		}
	}

	type outcome struct {
		kind    ResultKind
		handler string
		digests map[string]string
	}
	collect := func(dir string, parallelism int) map[string]outcome {
		build(dir)
		cfg := DefaultConfig()
		cfg.Parallelism = parallelism
		cfg.Chain = true
		report, _ := runPipeline(t, []string{dir}, cfg)
		if !report.OK() {
			t.Fatalf("parallelism %d: %d failed", parallelism, report.Failed)
		}

		out := make(map[string]outcome, len(report.Files))
		for _, fr := range report.Files {
			rel, err := filepath.Rel(dir, fr.Path)
			if err != nil {
				t.Fatalf("Rel: %v", err)
			}
			digests := make(map[string]string, len(fr.Digests))
			for p, d := range fr.Digests {
				k, err := filepath.Rel(dir, p)
				if err != nil {
					t.Fatalf("Rel: %v", err)
				}
				digests[k] = d
			}
			out[rel] = outcome{kind: fr.Result.Kind, handler: fr.Handler, digests: digests}
		}

		return out
	}

	serial := collect(t.TempDir(), 1)
	parallel := collect(t.TempDir(), n)
	if len(serial) != len(parallel) {
		t.Fatalf("serial %d reports, parallel %d", len(serial), len(parallel))
	}
	if len(serial) <= n {
		t.Fatalf("chain produced no follow-up reports: %d", len(serial))
	}

	for path, s := range serial {
		p, ok := parallel[path]
		if !ok {
			t.Fatalf("%s missing from parallel run", path)
		}
		if s.kind != p.kind || s.handler != p.handler {
			t.Fatalf("%s: serial %v/%s, parallel %v/%s", path, s.kind, s.handler, p.kind, p.handler)
		}
		if len(s.digests) != len(p.digests) {
			t.Fatalf("%s: digest count %d vs %d", path, len(s.digests), len(p.digests))
		}
		for k, d := range s.digests {
			if p.digests[k] != d {
				t.Fatalf("%s: output %s differs", path, k)
			}
		}
	}
}

func TestPipelineChainAndCleanUp(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	member := textPayload(9, 12)
	arc := packMembers(t, 16, member)
	jkr, err := jpk.Encode(arc, jpk.TagLZ)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	stream, err := ecd.Encrypt(jkr, ecd.Options{Format: MagicEXF, KeyIndex: 1})
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	path := writeTestFile(t, dir, "stage.ecd", stream)

	cfg := DefaultConfig()
	cfg.Chain = true
	cfg.CleanUp = true
	report, _ := runPipeline(t, []string{path}, cfg)
	if !report.OK() {
		t.Fatalf("report failed: %+v", report.Files)
	}

	decd := path + SuffixDecrypted
	decomp := decd + SuffixDecompressed
	leaf := filepath.Join(decomp+SuffixUnpacked, "0001.bin")

	steps := []struct {
		path    string
		handler string
		depth   int
	}{
		{path, HandlerDecrypt, 0},
		{decd, HandlerDecompress, 1},
		{decomp, HandlerArchive, 2},
	}
	for _, s := range steps {
		fr := mustFile(t, report, s.path)
		if fr.Handler != s.handler || fr.Depth != s.depth || !fr.Result.IsProcessed() {
			t.Fatalf("%s: handler=%q depth=%d result=%+v", s.path, fr.Handler, fr.Depth, fr.Result)
		}
	}
	if fr := mustFile(t, report, leaf); !fr.Result.IsSkipped() || fr.Depth != 3 {
		t.Fatalf("leaf: %+v", fr)
	}

	if got := readTestFile(t, leaf); !bytes.Equal(got, member) {
		t.Fatal("chained member differs")
	}
	for _, p := range []string{decd, decomp} {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Fatalf("%s was not cleaned up", p)
		}
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("input removed: %v", err)
	}
}

func TestPipelineChainDepthLimit(t *testing.T) {
	t.Parallel()

	jkr, err := jpk.Encode(packMembers(t, 16, []byte("leaf")), jpk.TagRW)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	path := writeTestFile(t, t.TempDir(), "a.jkr", jkr)

	cfg := DefaultConfig()
	cfg.Chain = true
	cfg.MaxDepth = 1
	report, _ := runPipeline(t, []string{path}, cfg)
	if len(report.Files) != 2 {
		t.Fatalf("got %d reports, want 2", len(report.Files))
	}
	if _, err := os.Stat(path + SuffixDecompressed + SuffixUnpacked); err != nil {
		t.Fatalf("depth 1 output not routed: %v", err)
	}
}

func TestPipelineIsolatesFailures(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	bad := writeTestFile(t, dir, "bad.jkr", []byte{'J', 'K', 'R', 0x1A, 0x7F, 0, 0, 0, 0, 0, 0, 0, 0})
	jkr, err := jpk.Encode(textPayload(10, 4), jpk.TagLZ)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	good := writeTestFile(t, dir, "good.jkr", jkr)
	missing := filepath.Join(dir, "missing.jkr")

	cfg := DefaultConfig()
	cfg.Parallelism = 4
	report, _ := runPipeline(t, []string{bad, good, missing}, cfg)

	if report.OK() || report.Failed != 2 || report.Processed != 1 {
		t.Fatalf("counts p=%d s=%d f=%d", report.Processed, report.Skipped, report.Failed)
	}
	if fr := mustFile(t, report, bad); !errors.Is(fr.Err, ErrUnsupportedAlgorithm) || fr.Handler != HandlerDecompress {
		t.Fatalf("bad: %+v", fr)
	}
	if fr := mustFile(t, report, missing); !errors.Is(fr.Err, ErrIOFailure) {
		t.Fatalf("missing: %+v", fr)
	}
	if fr := mustFile(t, report, good); fr.Failed() || len(fr.Digests) != 1 {
		t.Fatalf("good: %+v", fr)
	}
}

func TestPipelineNeverOverwritesInputs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	stream, err := ecd.Encrypt([]byte("secret payload"), ecd.Options{})
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	src := writeTestFile(t, dir, "a", stream)
	existing := writeTestFile(t, dir, "a"+SuffixDecrypted, []byte("keep me"))

	report, _ := runPipeline(t, []string{dir}, DefaultConfig())

	fr := mustFile(t, report, src)
	if !errors.Is(fr.Err, ErrOutputClaimed) || !errors.Is(fr.Err, ErrIOFailure) {
		t.Fatalf("got %v, want claimed output failure", fr.Err)
	}
	if got := readTestFile(t, existing); string(got) != "keep me" {
		t.Fatalf("input overwritten: %q", got)
	}
	if report.Failed != 1 || report.Skipped != 1 {
		t.Fatalf("counts p=%d s=%d f=%d", report.Processed, report.Skipped, report.Failed)
	}
}

func TestPipelineWalkFilters(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	jkr, err := jpk.Encode([]byte("payload"), jpk.TagRW)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	a := writeTestFile(t, dir, "a.jkr", jkr)
	b := writeTestFile(t, dir, "b.jkr", jkr)
	c := writeTestFile(t, dir, filepath.Join("sub", "c.jkr"), jkr)

	testCases := []struct {
		name      string
		recursive bool
		exclude   []string
		want      []string
	}{
		{name: "top level", want: []string{a, b}},
		{name: "recursive", recursive: true, want: []string{a, b, c}},
		{name: "exclude", recursive: true, exclude: []string{"b.jkr"}, want: []string{a, c}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tasks := enumerate([]string{dir}, tc.recursive, mustFilter(t, nil, tc.exclude))
			got := make([]string, 0, len(tasks))
			for _, task := range tasks {
				if task.err != nil {
					t.Fatalf("enumerate: %v", task.err)
				}
				got = append(got, task.path)
			}
			if strings.Join(got, ",") != strings.Join(tc.want, ",") {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestPipelineDeduplicatesInputs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeTestFile(t, dir, "x.txt", []byte("hello"))

	tasks := enumerate([]string{path, dir, path}, false, nil)
	if len(tasks) != 1 {
		t.Fatalf("got %d tasks, want 1", len(tasks))
	}
}

func TestPipelineRejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Chain = true
	cfg.Encrypt = true
	_, err := NewPipeline(nil, nil).Run(t.Context(), nil, cfg)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("got %v, want ErrInvalidConfig", err)
	}
}

func TestPipelineCanceledContext(t *testing.T) {
	t.Parallel()

	path := writeTestFile(t, t.TempDir(), "x.txt", []byte("hello"))
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	report, err := NewPipeline(nil, nil).Run(ctx, []string{path}, DefaultConfig())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
	if report == nil {
		t.Fatal("nil report")
	}
}

func TestPipelineCancelDropsPendingFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	paths := []string{
		writeTestFile(t, dir, "a.txt", []byte("a")),
		writeTestFile(t, dir, "b.txt", []byte("b")),
		writeTestFile(t, dir, "c.txt", []byte("c")),
	}

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	r := NewRouter()
	if err := r.Register(Handler{Name: "cancel", Priority: 1, Match: matchAll, Handle: func(context.Context, Input, Config) (Result, error) {
		cancel()
		return Processed(), nil
	}}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	cfg := DefaultConfig()
	cfg.Parallelism = 1
	report, err := NewPipeline(r, nil).Run(ctx, paths, cfg)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
	if report == nil {
		t.Fatal("nil report")
	}
	if len(report.Files) != 1 {
		t.Fatalf("reported %d files, want 1: %+v", len(report.Files), report.Files)
	}
}

func mustFilter(t *testing.T, include, exclude []string) *pathFilter {
	t.Helper()

	f, err := newPathFilter(include, exclude)
	if err != nil {
		t.Fatalf("newPathFilter: %v", err)
	}

	return f
}
