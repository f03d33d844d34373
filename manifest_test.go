package refrontier

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/woozymasta/refrontier/internal/format"
)

func TestManifestEncoding(t *testing.T) {
	t.Parallel()

	m := &Manifest{
		Source:    "stage01.bin",
		Alignment: 16,
		Size:      4096,
		Magic:     uint32(MagicArchive),
		Entries: []ManifestEntry{
			{Name: "0001.bin", Size: 12, Offset: 32},
			{Name: "0002.momo", Nested: &Manifest{Source: "0002.momo", Alignment: 4, Entries: []ManifestEntry{{Name: "0001.jkr", Size: 30}}}},
		},
	}

	raw, err := m.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}
	if format.DetectMagic(raw) != MagicManifest {
		t.Fatalf("manifest tag missing: % x", raw[:4])
	}

	path := writeTestFile(t, t.TempDir(), ManifestName, raw)
	got, err := ReadManifest(path)
	if err != nil {
		t.Fatalf("ReadManifest: %v", err)
	}
	if got.Source != m.Source || got.Alignment != 16 || len(got.Entries) != 2 {
		t.Fatalf("got %+v", got)
	}
	if got.Entries[0].Offset != 32 || got.Entries[0].Size != 12 {
		t.Fatalf("entry layout lost: %+v", got.Entries[0])
	}
	if got.Entries[1].Nested == nil || got.Entries[1].Nested.Entries[0].Name != "0001.jkr" {
		t.Fatalf("nested entry lost: %+v", got.Entries[1])
	}
}

func TestManifestRejectsForeignData(t *testing.T) {
	t.Parallel()

	var m Manifest
	if err := m.UnmarshalBinary([]byte("MOMO\x00\x00\x00\x00")); !errors.Is(err, ErrMalformedHeader) {
		t.Fatalf("got %v, want ErrMalformedHeader", err)
	}
	if err := m.UnmarshalBinary([]byte("RFMF\xc1")); !errors.Is(err, ErrMalformedHeader) {
		t.Fatalf("got %v, want ErrMalformedHeader", err)
	}
	if _, err := ReadManifest(filepath.Join(t.TempDir(), "none")); !errors.Is(err, ErrIOFailure) {
		t.Fatalf("got %v, want ErrIOFailure", err)
	}
}

func TestManifestDepthLimit(t *testing.T) {
	t.Parallel()

	m := &Manifest{Entries: []ManifestEntry{{Name: "0001.momo", Nested: &Manifest{
		Entries: []ManifestEntry{{Name: "0001.momo", Nested: &Manifest{}}},
	}}}}

	if _, err := treeFromManifest(t.TempDir(), m, 0, 1); !errors.Is(err, ErrRecursionLimitExceeded) {
		t.Fatalf("got %v, want ErrRecursionLimitExceeded", err)
	}
}

func TestMetaOptions(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		meta Meta
		want Magic
		err  bool
	}{
		{name: "ecd", meta: Meta{Format: "ecd", KeyIndex: 4}, want: MagicECD},
		{name: "exf", meta: Meta{Format: "EXF", KeyIndex: 1, Reserved: 9}, want: MagicEXF},
		{name: "empty format", meta: Meta{}, want: MagicECD},
		{name: "bad format", meta: Meta{Format: "aes"}, err: true},
		{name: "bad key", meta: Meta{Format: "ecd", KeyIndex: 6}, err: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			opts, err := tc.meta.Options()
			if tc.err {
				if !errors.Is(err, ErrUnsupportedAlgorithm) {
					t.Fatalf("got %v, want ErrUnsupportedAlgorithm", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Options: %v", err)
			}
			if opts.Format != tc.want || opts.KeyIndex != tc.meta.KeyIndex || opts.Reserved != tc.meta.Reserved {
				t.Fatalf("opts=%+v", opts)
			}
		})
	}
}

func TestMetaPath(t *testing.T) {
	t.Parallel()

	if got := metaPath("a.ecd"); got != "a.ecd.meta" {
		t.Fatalf("metaPath(a.ecd)=%s", got)
	}
	if got := metaPath("a.ecd.decd"); got != "a.ecd.meta" {
		t.Fatalf("metaPath(a.ecd.decd)=%s", got)
	}
}

func TestReadMetaMissing(t *testing.T) {
	t.Parallel()

	_, found, err := ReadMeta(filepath.Join(t.TempDir(), "x.meta"))
	if err != nil || found {
		t.Fatalf("found=%v err=%v", found, err)
	}
}
