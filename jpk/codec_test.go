package jpk

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math/rand"
	"testing"
)

var allTags = []Tag{TagRW, TagHFIRW, TagLZ, TagHFI, TagLZSS, TagLZ4}

// testPayloads returns inputs covering empty, tiny, repetitive, random and mixed data.
func testPayloads() map[string][]byte {
	rng := rand.New(rand.NewSource(7)) //nolint:gosec // deterministic test payloads
	random := make([]byte, 20000)
	_, _ = rng.Read(random)

	mixed := make([]byte, 0, 40000)
	for i := 0; i < 200; i++ {
		mixed = append(mixed, random[i*50:i*50+30]...)
		mixed = append(mixed, bytes.Repeat([]byte{byte(i)}, i%40)...)
		mixed = append(mixed, []byte("stage_data_table_entry")...)
	}

	return map[string][]byte{
		"empty":      {},
		"one byte":   {0x42},
		"single sym": bytes.Repeat([]byte{0xAA}, 1000),
		"text":       []byte("quest_board: hunt the rathalos, gather 10 herbs, deliver to the guild."),
		"repetitive": bytes.Repeat([]byte("abcabcabd"), 2000),
		"random":     random,
		"mixed":      mixed,
	}
}

func TestCompressDecompress_RoundTrip(t *testing.T) {
	t.Parallel()

	for _, tag := range allTags {
		for name, data := range testPayloads() {
			tag, name, data := tag, name, data
			t.Run(tag.String()+"/"+name, func(t *testing.T) {
				t.Parallel()

				raw, err := Encode(data, tag)
				if err != nil {
					t.Fatalf("Encode: %v", err)
				}

				got, err := Decode(raw)
				if err != nil {
					t.Fatalf("Decode: %v", err)
				}
				if !bytes.Equal(got, data) {
					t.Fatalf("round trip mismatch: got %d bytes, want %d", len(got), len(data))
				}

				b, err := ParseFile(raw)
				if err != nil {
					t.Fatalf("ParseFile: %v", err)
				}
				if b.Tag != tag || int(b.DecompressedSize) != len(data) || int(b.CompressedSize) != len(b.Payload) {
					t.Fatalf("block = tag %s dsize %d csize %d", b.Tag, b.DecompressedSize, b.CompressedSize)
				}
			})
		}
	}
}

func TestLZ_CompressesRepetitiveInput(t *testing.T) {
	t.Parallel()

	data := bytes.Repeat([]byte("monster_hunter "), 1000)
	for _, tag := range []Tag{TagLZ, TagHFI} {
		b, err := Compress(data, tag)
		if err != nil {
			t.Fatalf("Compress(%s): %v", tag, err)
		}
		if int(b.CompressedSize)*10 > len(data) {
			t.Fatalf("%s: compressed %d of %d bytes", tag, b.CompressedSize, len(data))
		}
	}
}

func TestLZ_AllTokenForms(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(11)) //nolint:gosec // deterministic test payloads
	noise := func(n int) []byte {
		b := make([]byte, n)
		_, _ = rng.Read(b)
		return b
	}

	var data []byte
	base := noise(300)
	data = append(data, base...)
	// short form, dist <= 256
	data = append(data, base[290:294]...)
	// raw run
	data = append(data, noise(40)...)
	// mid form, far distance
	data = append(data, base[10:18]...)
	data = append(data, noise(5)...)
	// nibble form
	data = append(data, base[20:40]...)
	// long form
	data = append(data, base[0:280]...)
	// raw runs longer than one token
	data = append(data, noise(9000)...)
	// overlapping copies
	data = append(data, bytes.Repeat([]byte{7}, 600)...)

	raw := lzEncode(data)
	got, err := lzDecode(bytes.NewReader(raw), len(data))
	if err != nil {
		t.Fatalf("lzDecode: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatal("round trip mismatch")
	}
}

func TestLZ_KnownStream(t *testing.T) {
	t.Parallel()

	// flags 0b0_0_10_00_.: literal 'a', literal 'b', short match len 3 dist 2
	stream := []byte{0b00100000, 'a', 'b', 0x01}
	got, err := lzDecode(bytes.NewReader(stream), 5)
	if err != nil {
		t.Fatalf("lzDecode: %v", err)
	}
	if string(got) != "ababa" {
		t.Fatalf("got %q, want ababa", got)
	}
}

func TestDecompress_Corrupt(t *testing.T) {
	t.Parallel()

	data := bytes.Repeat([]byte("corrupted block "), 200)

	t.Run("declared size too large", func(t *testing.T) {
		t.Parallel()
		for _, tag := range allTags {
			b, err := Compress(data, tag)
			if err != nil {
				t.Fatal(err)
			}
			b.DecompressedSize++
			if _, err := Decompress(b); !errors.Is(err, ErrCorruptBlock) {
				t.Fatalf("%s: err=%v, want ErrCorruptBlock", tag, err)
			}
		}
	})

	t.Run("declared size too small", func(t *testing.T) {
		t.Parallel()
		for _, tag := range allTags {
			b, err := Compress(data, tag)
			if err != nil {
				t.Fatal(err)
			}
			b.DecompressedSize -= 50
			if _, err := Decompress(b); !errors.Is(err, ErrCorruptBlock) {
				t.Fatalf("%s: err=%v, want ErrCorruptBlock", tag, err)
			}
		}
	})

	t.Run("trailing payload", func(t *testing.T) {
		t.Parallel()
		for _, tag := range allTags {
			b, err := Compress(data, tag)
			if err != nil {
				t.Fatal(err)
			}
			b.Payload = append(append([]byte(nil), b.Payload...), 0xDE, 0xAD, 0xBE, 0xEF)
			b.CompressedSize += 4
			if _, err := Decompress(b); !errors.Is(err, ErrCorruptBlock) {
				t.Fatalf("%s: err=%v, want ErrCorruptBlock", tag, err)
			}
		}
	})

	t.Run("payload size mismatch", func(t *testing.T) {
		t.Parallel()
		b, err := Compress(data, TagLZ)
		if err != nil {
			t.Fatal(err)
		}
		b.CompressedSize--
		if _, err := Decompress(b); !errors.Is(err, ErrCorruptBlock) {
			t.Fatalf("err=%v, want ErrCorruptBlock", err)
		}
	})

	t.Run("back reference before start", func(t *testing.T) {
		t.Parallel()
		// short match with distance 1 as first token
		b := Block{Tag: TagLZ, DecompressedSize: 3, CompressedSize: 2, Payload: []byte{0b10000000, 0x00}}
		if _, err := Decompress(b); !errors.Is(err, ErrCorruptBlock) {
			t.Fatalf("err=%v, want ErrCorruptBlock", err)
		}
	})
}

func TestParseBlock_Errors(t *testing.T) {
	t.Parallel()

	unknown := []byte{0x07, 1, 0, 0, 0, 1, 0, 0, 0, 'x'}
	if _, err := ParseBlock(unknown); !errors.Is(err, ErrUnsupportedAlgorithm) {
		t.Fatalf("unknown tag err=%v, want ErrUnsupportedAlgorithm", err)
	}

	if _, err := ParseBlock([]byte{0, 1}); !errors.Is(err, ErrTruncatedStream) {
		t.Fatalf("short header err=%v, want ErrTruncatedStream", err)
	}

	short := []byte{byte(TagRW), 4, 0, 0, 0, 4, 0, 0, 0, 'a', 'b'}
	if _, err := ParseBlock(short); !errors.Is(err, ErrTruncatedStream) {
		t.Fatalf("short payload err=%v, want ErrTruncatedStream", err)
	}

	// node 0 references itself
	cyclic := make([]byte, blockHeaderSize+2+4)
	cyclic[0] = byte(TagHFIRW)
	binary.LittleEndian.PutUint16(cyclic[blockHeaderSize:], 1)
	binary.LittleEndian.PutUint16(cyclic[blockHeaderSize+2:], 0x100)
	binary.LittleEndian.PutUint16(cyclic[blockHeaderSize+4:], 'a')
	if _, err := ParseBlock(cyclic); !errors.Is(err, ErrCorruptBlock) {
		t.Fatalf("cyclic tree err=%v, want ErrCorruptBlock", err)
	}

	if _, err := Decode([]byte("MOMO\x00\x00\x00\x00\x00\x00\x00\x00\x00")); !errors.Is(err, ErrMalformedHeader) {
		t.Fatalf("bad magic err=%v, want ErrMalformedHeader", err)
	}
}

func TestParseFile_TrailingBytes(t *testing.T) {
	t.Parallel()

	raw, err := Encode([]byte("payload"), TagRW)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := ParseFile(append(raw, 0)); !errors.Is(err, ErrCorruptBlock) {
		t.Fatalf("err=%v, want ErrCorruptBlock", err)
	}
}

func TestParseAlgorithm(t *testing.T) {
	t.Parallel()

	for _, tag := range allTags {
		got, err := ParseAlgorithm(" " + tag.String() + " ")
		if err != nil {
			t.Fatalf("ParseAlgorithm(%q): %v", tag.String(), err)
		}
		if got != tag {
			t.Fatalf("ParseAlgorithm(%q)=%s", tag.String(), got)
		}
	}

	if _, err := ParseAlgorithm("zstd"); !errors.Is(err, ErrUnsupportedAlgorithm) {
		t.Fatalf("err=%v, want ErrUnsupportedAlgorithm", err)
	}
}

func TestHuffmanDecode_KnownTable(t *testing.T) {
	t.Parallel()

	nodes := []hfNode{{left: 'a', right: 'b'}, {left: 'c', right: 0x100}}
	// c=0, a=10, b=11: "c a b b" -> 0 10 11 11 -> 0b0101111_0
	got, err := huffmanDecode(nodes, []byte{0b01011110}, 4)
	if err != nil {
		t.Fatalf("huffmanDecode: %v", err)
	}
	if string(got) != "cabb" {
		t.Fatalf("got %q, want cabb", got)
	}

	if _, err := huffmanDecode(nodes, []byte{0b01011110, 0}, 4); !errors.Is(err, ErrCorruptBlock) {
		t.Fatalf("unused byte err=%v, want ErrCorruptBlock", err)
	}
}
