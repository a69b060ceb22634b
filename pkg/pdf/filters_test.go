package pdf

import (
	"bytes"
	"compress/lzw"
	"encoding/hex"
	"errors"
	"testing"
)

func TestStreamDecode(t *testing.T) {
	text := []byte("BT /F1 12 Tf (Hello, World!) Tj ET")
	flated := flateEncode(text)

	var lzwBuf bytes.Buffer
	lw := lzw.NewWriter(&lzwBuf, lzw.MSB, 8)
	lw.Write([]byte("TOBEORNOTTOBEORTOBEORNOT"))
	lw.Close()

	tests := []struct {
		name string
		dict Dictionary
		data []byte
		want []byte
	}{
		{"no filter", Dictionary{}, text, text},
		{"flate", Dictionary{"Filter": FilterFlate}, flated, text},
		{"flate abbreviation", Dictionary{"Filter": Name("Fl")}, flated, text},
		{"hex", Dictionary{"Filter": FilterASCIIHex}, []byte("48 65 6C\n6c 6F>"), []byte("Hello")},
		{"hex odd digit", Dictionary{"Filter": Name("AHx")}, []byte("7>"), []byte{0x70}},
		{"ascii85", Dictionary{"Filter": FilterASCII85}, []byte("<~9jqo^~>"), []byte("Man ")},
		{"ascii85 abbreviation", Dictionary{"Filter": Name("A85")}, []byte("<~9jqo^~>"), []byte("Man ")},
		{"run length", Dictionary{"Filter": FilterRunLength}, []byte{2, 'a', 'b', 'c', 254, 'x', 128}, []byte("abcxxx")},
		{"run length abbreviation", Dictionary{"Filter": Name("RL")}, []byte{254, 'x', 128}, []byte("xxx")},
		{
			"lzw early change 0",
			Dictionary{"Filter": FilterLZW, "DecodeParms": Dictionary{"EarlyChange": Integer(0)}},
			lzwBuf.Bytes(),
			[]byte("TOBEORNOTTOBEORTOBEORNOT"),
		},
		{"lzw default", Dictionary{"Filter": FilterLZW}, lzwBuf.Bytes(), []byte("TOBEORNOTTOBEORTOBEORNOT")},
		{"lzw abbreviation", Dictionary{"Filter": Name("LZW")}, lzwBuf.Bytes(), []byte("TOBEORNOTTOBEORTOBEORNOT")},
		{
			"filter chain",
			Dictionary{"Filter": Array{FilterASCIIHex, FilterFlate}},
			[]byte(hex.EncodeToString(flated) + ">"),
			text,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Stream{Dictionary: tt.dict, Data: tt.data}
			if !s.CanDecode() {
				t.Errorf("CanDecode() = false")
			}
			got, err := s.Decode()
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("Decode() = %q, expected %q", got, tt.want)
			}
		})
	}
}

func TestPNGPredictor(t *testing.T) {
	// two rows of three bytes, both using the Up filter
	raw := []byte{2, 1, 2, 3, 2, 1, 1, 1}
	s := Stream{
		Dictionary: Dictionary{
			"Filter":      FilterFlate,
			"DecodeParms": Dictionary{"Predictor": Integer(12), "Columns": Integer(3)},
		},
		Data: flateEncode(raw),
	}

	got, err := s.Decode()
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if want := []byte{1, 2, 3, 2, 3, 4}; !bytes.Equal(got, want) {
		t.Errorf("Decode() = %v, expected %v", got, want)
	}
}

func TestPaethPredictor(t *testing.T) {
	tests := []struct {
		a, b, c, want byte
	}{
		{10, 20, 10, 20},
		{20, 10, 10, 20},
		{0, 0, 0, 0},
		{5, 9, 12, 5},
	}
	for _, tt := range tests {
		if got := paethPredictor(tt.a, tt.b, tt.c); got != tt.want {
			t.Errorf("paethPredictor(%d, %d, %d) = %d, expected %d", tt.a, tt.b, tt.c, got, tt.want)
		}
	}
}

func TestUnsupportedFilter(t *testing.T) {
	s := Stream{
		Dictionary: Dictionary{"Filter": Array{FilterFlate, Name("JBIG2Decode")}},
		Data:       flateEncode([]byte("opaque")),
	}
	if s.CanDecode() {
		t.Error("CanDecode() = true for JBIG2Decode")
	}

	_, err := s.Decode()
	if !errors.Is(err, ErrUnsupportedStreamFilter) {
		t.Fatalf("expected unsupported filter error, got %v", err)
	}
	var pe *Error
	if !errors.As(err, &pe) || pe.Filter != "JBIG2Decode" {
		t.Errorf("expected error naming JBIG2Decode, got %v", err)
	}
}

func TestCorruptFilterData(t *testing.T) {
	tests := []struct {
		name string
		s    Stream
	}{
		{"bad flate header", Stream{Dictionary: Dictionary{"Filter": FilterFlate}, Data: []byte("not zlib")}},
		{"bad hex", Stream{Dictionary: Dictionary{"Filter": FilterASCIIHex}, Data: []byte("4G>")}},
		{"short run", Stream{Dictionary: Dictionary{"Filter": FilterRunLength}, Data: []byte{5, 'a'}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.s.Decode()
			if !errors.Is(err, ErrMalformedObject) {
				t.Errorf("expected malformed object error, got %v", err)
			}
		})
	}
}
