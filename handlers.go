// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/refrontier

package refrontier

import (
	"context"
	"path/filepath"

	"github.com/woozymasta/refrontier/archive"
	"github.com/woozymasta/refrontier/ecd"
	"github.com/woozymasta/refrontier/internal/format"
	"github.com/woozymasta/refrontier/jpk"
)

// Built-in handler names.
const (
	HandlerRepack         = "repack"
	HandlerEncrypt        = "encrypt"
	HandlerCompress       = "compress"
	HandlerSkipEncrypted  = "skip-encrypted"
	HandlerDecrypt        = "decrypt"
	HandlerDecompress     = "decompress"
	HandlerStageContainer = "stage-container"
	HandlerArchive        = "archive"
)

// ReasonDecryptionDisabled is the skip reason for encrypted files under NoDecryption.
const ReasonDecryptionDisabled = "Decryption disabled"

// reasonEmptyArchive is the skip reason for archives without members.
const reasonEmptyArchive = "archive has no entries"

// DefaultHandlers returns the built-in handler set.
func DefaultHandlers() []Handler {
	return []Handler{
		{Name: HandlerRepack, Priority: 300, Match: matchRepack, Handle: handleRepack},
		{Name: HandlerEncrypt, Priority: 250, Match: matchEncrypt, Handle: handleEncrypt},
		{Name: HandlerCompress, Priority: 200, Match: matchCompress, Handle: handleCompress},
		{Name: HandlerSkipEncrypted, Priority: 150, Match: matchSkipEncrypted, Handle: handleSkipEncrypted},
		{Name: HandlerDecrypt, Priority: 140, Match: matchDecrypt, Handle: handleDecrypt},
		{Name: HandlerDecompress, Priority: 130, Match: matchDecompress, Handle: handleDecompress},
		{Name: HandlerStageContainer, Priority: 120, Match: matchStageContainer, Handle: handleStageContainer},
		{Name: HandlerArchive, Priority: 110, Match: matchArchive, Handle: handleArchive},
	}
}

func matchRepack(magic format.Magic, cfg Config) bool {
	return cfg.Repack && magic == format.MagicManifest
}

func matchEncrypt(magic format.Magic, cfg Config) bool {
	return cfg.Encrypt && !magic.IsEncrypted() && magic != format.MagicManifest
}

func matchCompress(magic format.Magic, cfg Config) bool {
	if cfg.Compress == "" {
		return false
	}

	switch magic {
	case format.MagicJKR, format.MagicECD, format.MagicEXF, format.MagicManifest:
		return false
	default:
		return true
	}
}

func matchSkipEncrypted(magic format.Magic, cfg Config) bool {
	return cfg.NoDecryption && magic.IsEncrypted()
}

func matchDecrypt(magic format.Magic, _ Config) bool {
	return magic.IsEncrypted()
}

func matchDecompress(magic format.Magic, _ Config) bool {
	return magic == format.MagicJKR
}

func matchStageContainer(magic format.Magic, cfg Config) bool {
	return cfg.StageContainer && magic == format.MagicArchive
}

func matchArchive(magic format.Magic, _ Config) bool {
	return magic == format.MagicArchive
}

// handleSkipEncrypted leaves the file alone without reading past its tag.
func handleSkipEncrypted(_ context.Context, in Input, _ Config) (Result, error) {
	in.logger().Debug("encrypted file skipped", "path", in.Path, "magic", in.Magic.String())
	return Skipped(ReasonDecryptionDisabled), nil
}

// handleDecrypt writes <path>.decd and, with SaveMeta, the header sidecar.
func handleDecrypt(ctx context.Context, in Input, cfg Config) (Result, error) {
	data, err := readAll(in)
	if err != nil {
		return Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	plain, header, err := ecd.Decrypt(data)
	if err != nil {
		return Result{}, err
	}

	in.logger().Debug("stream decrypted",
		"path", in.Path,
		"format", header.Format.String(),
		"key_index", header.KeyIndex,
		"size", header.Size)

	out := in.Path + SuffixDecrypted
	if err := in.sink().WriteFile(out, plain); err != nil {
		return Result{}, err
	}

	res := Processed(out)
	if cfg.SaveMeta {
		meta, err := MarshalMeta(metaFromHeader(header))
		if err != nil {
			return Result{}, err
		}

		sidecar := metaPath(in.Path)
		if err := in.sink().WriteFile(sidecar, meta); err != nil {
			return Result{}, err
		}
		res.Sidecars = []string{sidecar}
	}

	return res, nil
}

// handleEncrypt writes <path>.<ecd|exf>, reusing header fields from a meta sidecar when present.
func handleEncrypt(ctx context.Context, in Input, cfg Config) (Result, error) {
	opts := ecd.Options{Format: format.MagicECD, KeyIndex: cfg.KeyIndex}

	meta, found, err := ReadMeta(metaPath(in.Path))
	if err != nil {
		return Result{}, err
	}
	if found {
		if opts, err = meta.Options(); err != nil {
			return Result{}, err
		}
	}

	data, err := readAll(in)
	if err != nil {
		return Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	enc, err := ecd.Encrypt(data, opts)
	if err != nil {
		return Result{}, err
	}

	out := in.Path + "." + opts.Format.Extension()
	if err := in.sink().WriteFile(out, enc); err != nil {
		return Result{}, err
	}

	in.logger().Debug("stream encrypted", "path", in.Path, "format", opts.Format.String(), "key_index", opts.KeyIndex, "meta", found)
	return Processed(out), nil
}

// handleDecompress writes <path>.decomp.
func handleDecompress(ctx context.Context, in Input, _ Config) (Result, error) {
	data, err := readAll(in)
	if err != nil {
		return Result{}, err
	}

	block, err := jpk.ParseFile(data)
	if err != nil {
		return Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	plain, err := jpk.Decompress(block)
	if err != nil {
		return Result{}, err
	}

	in.logger().Debug("block decompressed",
		"path", in.Path,
		"algorithm", block.Tag.String(),
		"compressed", block.CompressedSize,
		"size", block.DecompressedSize)

	out := in.Path + SuffixDecompressed
	if err := in.sink().WriteFile(out, plain); err != nil {
		return Result{}, err
	}

	return Processed(out), nil
}

// handleCompress writes <path>.jkr with the configured algorithm.
func handleCompress(ctx context.Context, in Input, cfg Config) (Result, error) {
	tag, err := jpk.ParseAlgorithm(cfg.Compress)
	if err != nil {
		return Result{}, err
	}

	data, err := readAll(in)
	if err != nil {
		return Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	enc, err := jpk.Encode(data, tag)
	if err != nil {
		return Result{}, err
	}

	out := in.Path + SuffixCompressed
	if err := in.sink().WriteFile(out, enc); err != nil {
		return Result{}, err
	}

	in.logger().Debug("block compressed", "path", in.Path, "algorithm", tag.String(), "size", len(data), "compressed", len(enc))
	return Processed(out), nil
}

// handleArchive unpacks one level into <path>.unpacked with a manifest.
func handleArchive(ctx context.Context, in Input, _ Config) (Result, error) {
	r, err := archive.NewReader(in.Data, in.Size)
	if err != nil {
		return Result{}, err
	}
	defer func() { _ = r.Close() }()

	header := r.Header()
	in.logger().Info("archive header detected", "path", in.Path, "entries", header.Count)
	if header.Count == 0 {
		return Skipped(reasonEmptyArchive), nil
	}

	entries := r.Entries()
	dir := in.Path + SuffixUnpacked
	sink := in.sink()
	if err := sink.MkdirAll(dir); err != nil {
		return Result{}, err
	}

	m := &Manifest{
		Source:    filepath.Base(in.Path),
		Alignment: archive.DetectAlignment(header, entries),
		Size:      header.Size,
		Magic:     uint32(header.Magic),
		Entries:   make([]ManifestEntry, 0, len(entries)),
	}

	outputs := make([]string, 0, len(entries))
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		data, err := r.ReadEntry(e.Index)
		if err != nil {
			return Result{}, err
		}

		path := filepath.Join(dir, e.Name)
		if err := sink.WriteFile(path, data); err != nil {
			return Result{}, err
		}

		outputs = append(outputs, path)
		m.Entries = append(m.Entries, ManifestEntry{Name: e.Name, Size: e.Size, Offset: e.Offset})
	}

	sidecar, err := writeManifest(sink, dir, m)
	if err != nil {
		return Result{}, err
	}

	res := Processed(outputs...)
	res.Sidecars = []string{sidecar}
	return res, nil
}

// handleStageContainer unpacks nested archives recursively, bounded by MaxDepth.
func handleStageContainer(ctx context.Context, in Input, cfg Config) (Result, error) {
	data, err := readAll(in)
	if err != nil {
		return Result{}, err
	}

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	tree, err := archive.UnpackTree(data, cfg.MaxDepth)
	if err != nil {
		return Result{}, err
	}

	in.logger().Info("archive header detected", "path", in.Path, "entries", len(tree.Children), "stage", true)
	if len(tree.Children) == 0 {
		return Skipped(reasonEmptyArchive), nil
	}

	dir := in.Path + SuffixUnpacked
	sink := in.sink()
	outputs, err := writeTree(sink, dir, tree)
	if err != nil {
		return Result{}, err
	}

	sidecar, err := writeManifest(sink, dir, manifestFromTree(filepath.Base(in.Path), tree, in.Size))
	if err != nil {
		return Result{}, err
	}

	in.logger().Debug("stage container unpacked", "path", in.Path, "leaves", tree.Leaves())

	res := Processed(outputs...)
	res.Sidecars = []string{sidecar}
	return res, nil
}

// handleRepack rebuilds the archive described by a manifest into <source>.repacked beside the unpack directory.
// Unedited members keep their recorded offsets.
func handleRepack(ctx context.Context, in Input, cfg Config) (Result, error) {
	data, err := readAll(in)
	if err != nil {
		return Result{}, err
	}

	m := &Manifest{}
	if err := m.UnmarshalBinary(data); err != nil {
		return Result{}, err
	}
	if err := checkMemberName(m.Source); err != nil {
		return Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	dir := filepath.Dir(in.Path)
	tree, err := treeFromManifest(dir, m, 0, cfg.MaxDepth)
	if err != nil {
		return Result{}, err
	}

	packed, err := archive.PackTree(tree)
	if err != nil {
		return Result{}, err
	}

	if m.Size > 0 && int64(len(packed)) != m.Size {
		in.logger().Warn("repacked size differs from source", "path", in.Path, "source", m.Size, "repacked", len(packed))
	}

	out := filepath.Join(filepath.Dir(dir), m.Source+SuffixRepacked)
	if err := in.sink().WriteFile(out, packed); err != nil {
		return Result{}, err
	}

	return Processed(out), nil
}

// writeManifest encodes m into dir.
func writeManifest(sink OutputSink, dir string, m *Manifest) (string, error) {
	raw, err := m.MarshalBinary()
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, ManifestName)
	if err := sink.WriteFile(path, raw); err != nil {
		return "", err
	}

	return path, nil
}
