// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/refrontier

/*
Package refrontier detects, decodes and re-encodes game asset containers.

Every file is identified by its 4-byte tag and handed to exactly one handler
chosen by a priority router. Built-in handlers cover MOMO archives (one level
or recursive stage containers), JKR compressed blocks, ECD/EXF encrypted
streams and the reverse operations (compress, encrypt, repack from manifest).

Codecs live in sub-packages:
  - archive: MOMO header, entry table, unpack/pack and nested trees;
  - jpk: JKR block codec (RW, HFIRW, LZ, HFI, LZSS, LZ4);
  - ecd: ECD/EXF stream cipher.

# Running a pipeline

	cfg := refrontier.DefaultConfig()
	cfg.Recursive = true
	cfg.Parallelism = 4

	logger := refrontier.NewLogger(os.Stderr, cfg.Verbose)
	report, err := refrontier.NewPipeline(nil, logger).Run(ctx, []string{"dat"}, cfg)
	if err != nil {
	    return err
	}
	if !report.OK() {
	    return fmt.Errorf("%d files failed", report.Failed)
	}

Outputs are always written to new paths:
  - <file>.decd for decrypted streams, plus <file>.meta with SaveMeta;
  - <file>.decomp for decompressed blocks;
  - <file>.unpacked/ for archives, with a manifest.rfmf describing the layout;
  - <source>.repacked next to the unpack directory when repacking a manifest;
  - <file>.jkr and <file>.ecd (or .exf) for compress and encrypt.

No two files in one run may write the same path, and no handler may overwrite
a run input: such writes fail that file with ErrOutputClaimed.

# Custom handlers

	r := refrontier.NewDefaultRouter()
	err := r.Register(refrontier.Handler{
	    Name:     "dump-size",
	    Priority: 50,
	    Match: func(m refrontier.Magic, _ refrontier.Config) bool {
	        return m == refrontier.MagicNone
	    },
	    Handle: func(_ context.Context, in refrontier.Input, _ refrontier.Config) (refrontier.Result, error) {
	        return refrontier.Skipped(fmt.Sprintf("%d bytes", in.Size)), nil
	    },
	})

Priorities must be unique; the highest matching priority wins and only that
handler runs.
*/
package refrontier
