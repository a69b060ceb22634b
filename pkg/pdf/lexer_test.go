package pdf

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// TestLexerReadLine tests reading lines from lexer
func TestLexerReadLine(t *testing.T) {
	lexer := NewLexerFromBytes([]byte("line1\nline2\rline3\r\nline4"))

	for _, want := range []string{"line1", "line2", "line3", "line4"} {
		line, err := lexer.ReadLine()
		if err != nil {
			t.Fatalf("ReadLine failed: %v", err)
		}
		if string(line) != want {
			t.Errorf("Expected '%s', got '%s'", want, line)
		}
	}
}

// TestIsWhitespace tests whitespace detection
func TestIsWhitespace(t *testing.T) {
	for _, ws := range []byte{' ', '\t', '\n', '\r', '\f', 0} {
		if !isWhitespace(ws) {
			t.Errorf("Expected %d to be whitespace", ws)
		}
	}
	for _, nws := range []byte{'a', '1', '/', '('} {
		if isWhitespace(nws) {
			t.Errorf("Expected %c to not be whitespace", nws)
		}
	}
}

// TestIsDelimiter tests delimiter detection
func TestIsDelimiter(t *testing.T) {
	for _, d := range []byte{'(', ')', '<', '>', '[', ']', '{', '}', '/', '%'} {
		if !isDelimiter(d) {
			t.Errorf("Expected %c to be delimiter", d)
		}
	}
	for _, nd := range []byte{'a', '1', '.', '-'} {
		if isDelimiter(nd) {
			t.Errorf("Expected %c to not be delimiter", nd)
		}
	}
}

func TestNextToken(t *testing.T) {
	tests := []struct {
		input string
		typ   TokenType
		value interface{}
		next  int
	}{
		{"  42 ", TokenInteger, int64(42), 4},
		{"-17", TokenInteger, int64(-17), 3},
		{"+.5", TokenReal, 0.5, 3},
		{"3.", TokenReal, 3.0, 2},
		{"99999999999999999999", TokenReal, 1e20, 20},
		{"true", TokenBoolean, true, 4},
		{"null", TokenNull, "null", 4},
		{"/Name#20With#2FHash", TokenName, "Name With/Hash", 19},
		{"/", TokenName, "", 1},
		{"(a\\(b\\)c)", TokenString, []byte("a(b)c"), 9},
		{"(nested (parens) ok)", TokenString, []byte("nested (parens) ok"), 20},
		{"(\\101\\7x)", TokenString, []byte("A\ax"), 9},
		{"(line\\\ncontinued)", TokenString, []byte("linecontinued"), 17},
		{"(cr\r\nlf)", TokenString, []byte("cr\nlf"), 8},
		{"<48 65 6C6C6F>", TokenHexString, []byte("Hello"), 14},
		{"<7>", TokenHexString, []byte{0x70}, 3},
		{"<>", TokenHexString, []byte{}, 2},
		{"<<", TokenDictStart, nil, 2},
		{">>", TokenDictEnd, nil, 2},
		{"% comment\nobj", TokenObjStart, "obj", 13},
		{"startxref", TokenStartXRef, "startxref", 9},
		{"R", TokenRef, "R", 1},
		{"Tj", TokenKeyword, "Tj", 2},
		{"", TokenEOF, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tok, next, err := NextToken([]byte(tt.input), 0)
			if err != nil {
				t.Fatalf("NextToken(%q) failed: %v", tt.input, err)
			}
			if tok.Type != tt.typ {
				t.Errorf("NextToken(%q) type = %v, expected %v", tt.input, tok.Type, tt.typ)
			}
			if diff := cmp.Diff(tt.value, tok.Value); diff != "" {
				t.Errorf("NextToken(%q) value mismatch (-want +got):\n%s", tt.input, diff)
			}
			if next != tt.next {
				t.Errorf("NextToken(%q) next = %d, expected %d", tt.input, next, tt.next)
			}
		})
	}
}

func TestNextTokenMalformed(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		offset int64
	}{
		{"unterminated string", "  (abc", 2},
		{"unterminated hex", "<414", 0},
		{"bad hex digit", "<41G1>", 3},
		{"stray greater", "a >", 2},
		{"stray paren", ")", 0},
		{"sign only", "- ", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lexer := NewLexerFromBytes([]byte(tt.input))
			var err error
			for i := 0; i < 3 && err == nil; i++ {
				_, err = lexer.NextToken()
			}
			if !errors.Is(err, ErrMalformedToken) {
				t.Fatalf("expected malformed token error, got %v", err)
			}
			var pe *Error
			if !errors.As(err, &pe) {
				t.Fatalf("error %v is not a *pdf.Error", err)
			}
			if pe.Offset != tt.offset {
				t.Errorf("offset = %d, expected %d", pe.Offset, tt.offset)
			}
		})
	}
}

func TestLexerSequence(t *testing.T) {
	lexer := NewLexerFromBytes([]byte("1 0 obj << /Type /Page >> endobj"))

	var types []TokenType
	for {
		tok, err := lexer.NextToken()
		if err != nil {
			t.Fatalf("NextToken failed: %v", err)
		}
		if tok.Type == TokenEOF {
			break
		}
		types = append(types, tok.Type)
	}

	want := []TokenType{
		TokenInteger, TokenInteger, TokenObjStart,
		TokenDictStart, TokenName, TokenName, TokenDictEnd,
		TokenObjEnd,
	}
	if diff := cmp.Diff(want, types); diff != "" {
		t.Errorf("token sequence mismatch (-want +got):\n%s", diff)
	}
}

func TestLexerReadBytes(t *testing.T) {
	lexer := NewLexerFromBytes([]byte("abcdef"))
	got, err := lexer.ReadBytes(4)
	if err != nil {
		t.Fatalf("ReadBytes failed: %v", err)
	}
	if string(got) != "abcd" {
		t.Errorf("Expected 'abcd', got '%s'", got)
	}
	if lexer.Position() != 4 {
		t.Errorf("Expected position 4, got %d", lexer.Position())
	}
	if _, err := lexer.ReadBytes(3); err == nil {
		t.Error("Expected error reading past the end")
	}
}
