package pdf

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseObject(t *testing.T) {
	tests := []struct {
		input string
		want  Object
	}{
		{"42", Integer(42)},
		{"-3.25", Real(-3.25)},
		{"false", Boolean(false)},
		{"null", Null{}},
		{"/Type", Name("Type")},
		{"(Hello)", String{Value: []byte("Hello")}},
		{"<48656C6C6F>", String{Value: []byte("Hello"), IsHex: true}},
		{"12 0 R", Reference{ObjectNumber: 12}},
		{"[1 2 0 R /X]", Array{Integer(1), Reference{ObjectNumber: 2}, Name("X")}},
		{"[1 2 3]", Array{Integer(1), Integer(2), Integer(3)}},
		{"[]", Array{}},
		{
			"<< /Type /Page /Kids [3 0 R] /Nested << /A 1 >> >>",
			Dictionary{
				"Type":   Name("Page"),
				"Kids":   Array{Reference{ObjectNumber: 3}},
				"Nested": Dictionary{"A": Integer(1)},
			},
		},
		// null values are the same as absent keys
		{"<< /A null /B 2 >>", Dictionary{"B": Integer(2)}},
		{"<< /A >>", Dictionary{}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := NewParserFromBytes([]byte(tt.input)).ParseObject()
			if err != nil {
				t.Fatalf("ParseObject(%q) failed: %v", tt.input, err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseObject(%q) mismatch (-want +got):\n%s", tt.input, diff)
			}
		})
	}
}

func TestParseObjectErrors(t *testing.T) {
	tests := []struct {
		input string
		kind  ErrorKind
	}{
		{"[1 2", KindMalformedToken},
		{"<< /A 1", KindMalformedToken},
		{"<< 1 2 >>", KindMalformedObject},
		{"endobj", KindMalformedObject},
		{"", KindMalformedToken},
		{"(open", KindMalformedToken},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := NewParserFromBytes([]byte(tt.input)).ParseObject()
			var pe *Error
			if !errors.As(err, &pe) {
				t.Fatalf("ParseObject(%q) error = %v, expected *pdf.Error", tt.input, err)
			}
			if pe.Kind != tt.kind {
				t.Errorf("ParseObject(%q) kind = %v, expected %v", tt.input, pe.Kind, tt.kind)
			}
		})
	}
}

func TestParseObjectNestingLimit(t *testing.T) {
	deep := strings.Repeat("[", maxNesting) + strings.Repeat("]", maxNesting)
	obj, err := NewParserFromBytes([]byte(deep)).ParseObject()
	if err != nil {
		t.Fatalf("ParseObject at the nesting limit failed: %v", err)
	}
	if _, ok := obj.(Array); !ok {
		t.Errorf("Expected an array, got %T", obj)
	}

	for _, input := range []string{
		strings.Repeat("[", 1_000_000),
		strings.Repeat("<< /A ", maxNesting+1) + "1" + strings.Repeat(" >>", maxNesting+1),
	} {
		_, err := NewParserFromBytes([]byte(input)).ParseObject()
		if !errors.Is(err, ErrMalformedToken) {
			t.Errorf("Expected malformed token for %d bytes of nesting, got %v", len(input), err)
		}
	}

	// the same inside a whole file fails cleanly instead of exhausting the stack
	f := sampleFile("P", 1)
	f.objects[6] = strings.Repeat("[", 1_000_000)
	if _, err := NewDocument(f.bytes()); err == nil {
		t.Error("Expected an error for a deeply nested object")
	}
}

func TestParseIndirectObject(t *testing.T) {
	p := NewParserFromBytes([]byte("7 2 obj\n<< /Kind /Test >>\nendobj\n"))
	ref, obj, err := p.ParseIndirectObject()
	if err != nil {
		t.Fatalf("ParseIndirectObject failed: %v", err)
	}
	if ref != (Reference{ObjectNumber: 7, GenerationNumber: 2}) {
		t.Errorf("Expected 7 2 R, got %v", ref)
	}
	if diff := cmp.Diff(Dictionary{"Kind": Name("Test")}, obj); diff != "" {
		t.Errorf("object mismatch (-want +got):\n%s", diff)
	}
}

func TestParseIndirectObjectEmpty(t *testing.T) {
	_, obj, err := NewParserFromBytes([]byte("3 0 obj endobj")).ParseIndirectObject()
	if err != nil {
		t.Fatalf("ParseIndirectObject failed: %v", err)
	}
	if _, ok := obj.(Null); !ok {
		t.Errorf("Expected null, got %v", obj)
	}
}

func TestParseStream(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"exact length", "1 0 obj\n<< /Length 5 >>\nstream\nhello\nendstream\nendobj", "hello"},
		{"crlf", "1 0 obj\n<< /Length 5 >>\nstream\r\nhello\r\nendstream\nendobj", "hello"},
		{"length too long", "1 0 obj\n<< /Length 50 >>\nstream\nhello\nendstream\nendobj", "hello"},
		{"length too short", "1 0 obj\n<< /Length 2 >>\nstream\nhello\nendstream\nendobj", "hello"},
		{"missing length", "1 0 obj\n<< >>\nstream\nhello\nendstream\nendobj", "hello"},
		{"binary payload", "1 0 obj\n<< /Length 4 >>\nstream\n\x00>>)\nendstream\nendobj", "\x00>>)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, obj, err := NewParserFromBytes([]byte(tt.input)).ParseIndirectObject()
			if err != nil {
				t.Fatalf("ParseIndirectObject failed: %v", err)
			}
			s, ok := obj.(Stream)
			if !ok {
				t.Fatalf("Expected stream, got %T", obj)
			}
			if string(s.Data) != tt.want {
				t.Errorf("Expected data %q, got %q", tt.want, s.Data)
			}
			if n, _ := s.Dictionary.GetInt("Length"); n != int64(len(tt.want)) {
				t.Errorf("Expected /Length %d, got %d", len(tt.want), n)
			}
		})
	}
}

func TestParseStreamIndirectLength(t *testing.T) {
	input := []byte("1 0 obj\n<< /Length 9 0 R >>\nstream\nab\nendstream\nendobj\n")
	p := NewParserFromBytes(input)
	p.resolveLength = func(ref Reference) (int64, bool) {
		if ref.ObjectNumber != 9 {
			t.Errorf("resolved unexpected reference %v", ref)
		}
		return 2, true
	}

	_, obj, err := p.ParseIndirectObject()
	if err != nil {
		t.Fatalf("ParseIndirectObject failed: %v", err)
	}
	s := obj.(Stream)
	if string(s.Data) != "ab" {
		t.Errorf("Expected data 'ab', got %q", s.Data)
	}
	if _, ok := s.Dictionary["Length"].(Integer); !ok {
		t.Errorf("Expected /Length to be normalized to an integer, got %v", s.Dictionary["Length"])
	}
}

func TestStreamDataDoesNotAliasInput(t *testing.T) {
	input := []byte("1 0 obj\n<< /Length 5 >>\nstream\nhello\nendstream\nendobj")
	_, obj, err := NewParserFromBytes(input).ParseIndirectObject()
	if err != nil {
		t.Fatalf("ParseIndirectObject failed: %v", err)
	}
	for i := range input {
		input[i] = 'x'
	}
	if got := string(obj.(Stream).Data); got != "hello" {
		t.Errorf("stream data changed with the input buffer: %q", got)
	}
}

func TestParseStreamWithoutEndstream(t *testing.T) {
	input := []byte("1 0 obj\n<< /Length 500 >>\nstream\nhello")
	_, _, err := NewParserFromBytes(input).ParseIndirectObject()
	if !errors.Is(err, ErrMalformedObject) {
		t.Errorf("expected malformed object error, got %v", err)
	}
}
