package pdf

import (
	"bytes"
	"strconv"
)

// TokenType represents the type of a lexical token
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenNull
	TokenBoolean
	TokenInteger
	TokenReal
	TokenString
	TokenHexString
	TokenName
	TokenArrayStart
	TokenArrayEnd
	TokenDictStart
	TokenDictEnd
	TokenStreamStart
	TokenStreamEnd
	TokenObjStart
	TokenObjEnd
	TokenRef
	TokenXRef
	TokenTrailer
	TokenStartXRef
	TokenKeyword
)

// Token represents a lexical token. Value holds bool for TokenBoolean,
// int64 for TokenInteger, float64 for TokenReal, []byte for strings and
// string for names and keywords.
type Token struct {
	Type  TokenType
	Value interface{}
	Pos   int64
}

var keywordTokens = map[string]TokenType{
	"null":      TokenNull,
	"obj":       TokenObjStart,
	"endobj":    TokenObjEnd,
	"stream":    TokenStreamStart,
	"endstream": TokenStreamEnd,
	"R":         TokenRef,
	"xref":      TokenXRef,
	"trailer":   TokenTrailer,
	"startxref": TokenStartXRef,
}

// isWhitespace checks if a byte is PDF whitespace
func isWhitespace(b byte) bool {
	return b == 0 || b == '\t' || b == '\n' || b == '\f' || b == '\r' || b == ' '
}

// isDelimiter checks if a byte is a PDF delimiter
func isDelimiter(b byte) bool {
	return b == '(' || b == ')' || b == '<' || b == '>' ||
		b == '[' || b == ']' || b == '{' || b == '}' ||
		b == '/' || b == '%'
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func hexValue(b byte) (byte, bool) {
	switch {
	case b >= '0' && b <= '9':
		return b - '0', true
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10, true
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10, true
	}
	return 0, false
}

// skipWhitespace returns the position of the first byte at or after pos
// that is neither whitespace nor part of a comment.
func skipWhitespace(data []byte, pos int) int {
	for pos < len(data) {
		b := data[pos]
		if isWhitespace(b) {
			pos++
			continue
		}
		if b == '%' {
			for pos < len(data) && data[pos] != '\r' && data[pos] != '\n' {
				pos++
			}
			continue
		}
		break
	}
	return pos
}

// NextToken scans the token starting at or after pos and returns it with
// the position just past it. It has no side effects.
func NextToken(data []byte, pos int) (Token, int, error) {
	pos = skipWhitespace(data, pos)
	if pos >= len(data) {
		return Token{Type: TokenEOF, Pos: int64(pos)}, pos, nil
	}

	start := pos
	b := data[pos]
	switch b {
	case '[':
		return Token{Type: TokenArrayStart, Pos: int64(start)}, pos + 1, nil
	case ']':
		return Token{Type: TokenArrayEnd, Pos: int64(start)}, pos + 1, nil
	case '(':
		return readLiteralString(data, start)
	case '<':
		if pos+1 < len(data) && data[pos+1] == '<' {
			return Token{Type: TokenDictStart, Pos: int64(start)}, pos + 2, nil
		}
		return readHexString(data, start)
	case '>':
		if pos+1 < len(data) && data[pos+1] == '>' {
			return Token{Type: TokenDictEnd, Pos: int64(start)}, pos + 2, nil
		}
		return Token{}, start, errAt(KindMalformedToken, int64(start), "unexpected '>'")
	case ')':
		return Token{}, start, errAt(KindMalformedToken, int64(start), "unbalanced ')'")
	case '{', '}':
		return Token{Type: TokenKeyword, Value: string(b), Pos: int64(start)}, pos + 1, nil
	case '/':
		return readName(data, start)
	case '+', '-', '.':
		return readNumber(data, start)
	}
	if isDigit(b) {
		return readNumber(data, start)
	}
	return readKeyword(data, start)
}

// readLiteralString reads a literal string (...)
func readLiteralString(data []byte, start int) (Token, int, error) {
	var buf bytes.Buffer
	depth := 1
	pos := start + 1

	for {
		if pos >= len(data) {
			return Token{}, start, errAt(KindMalformedToken, int64(start), "unterminated string")
		}
		b := data[pos]
		pos++

		switch b {
		case '(':
			depth++
			buf.WriteByte(b)
		case ')':
			depth--
			if depth == 0 {
				return Token{Type: TokenString, Value: append([]byte{}, buf.Bytes()...), Pos: int64(start)}, pos, nil
			}
			buf.WriteByte(b)
		case '\\':
			if pos >= len(data) {
				return Token{}, start, errAt(KindMalformedToken, int64(start), "unterminated string")
			}
			pos = readEscape(data, pos, &buf)
		case '\r':
			// an unescaped end-of-line of any form reads as a single \n
			if pos < len(data) && data[pos] == '\n' {
				pos++
			}
			buf.WriteByte('\n')
		default:
			buf.WriteByte(b)
		}
	}
}

// readEscape decodes the escape sequence whose first byte is at pos and
// returns the position after it.
func readEscape(data []byte, pos int, buf *bytes.Buffer) int {
	b := data[pos]
	pos++
	switch b {
	case 'n':
		buf.WriteByte('\n')
	case 'r':
		buf.WriteByte('\r')
	case 't':
		buf.WriteByte('\t')
	case 'b':
		buf.WriteByte('\b')
	case 'f':
		buf.WriteByte('\f')
	case '(', ')', '\\':
		buf.WriteByte(b)
	case '\r':
		// line continuation
		if pos < len(data) && data[pos] == '\n' {
			pos++
		}
	case '\n':
	default:
		if b >= '0' && b <= '7' {
			val := int(b - '0')
			for i := 0; i < 2 && pos < len(data) && data[pos] >= '0' && data[pos] <= '7'; i++ {
				val = val*8 + int(data[pos]-'0')
				pos++
			}
			buf.WriteByte(byte(val))
		} else {
			// unknown escapes drop the backslash
			buf.WriteByte(b)
		}
	}
	return pos
}

// readHexString reads a hexadecimal string <...>
func readHexString(data []byte, start int) (Token, int, error) {
	var out []byte
	var hi byte
	half := false

	for pos := start + 1; pos < len(data); pos++ {
		b := data[pos]
		if b == '>' {
			if half {
				out = append(out, hi<<4)
			}
			if out == nil {
				out = []byte{}
			}
			return Token{Type: TokenHexString, Value: out, Pos: int64(start)}, pos + 1, nil
		}
		if isWhitespace(b) {
			continue
		}
		v, ok := hexValue(b)
		if !ok {
			return Token{}, start, errAt(KindMalformedToken, int64(pos), "invalid hex digit %q in hex string", b)
		}
		if half {
			out = append(out, hi<<4|v)
		} else {
			hi = v
		}
		half = !half
	}
	return Token{}, start, errAt(KindMalformedToken, int64(start), "unterminated hex string")
}

// readName reads a name object /...
func readName(data []byte, start int) (Token, int, error) {
	var buf bytes.Buffer
	pos := start + 1

	for pos < len(data) {
		b := data[pos]
		if isWhitespace(b) || isDelimiter(b) {
			break
		}
		if b == '#' && pos+2 < len(data) {
			hi, ok1 := hexValue(data[pos+1])
			lo, ok2 := hexValue(data[pos+2])
			if ok1 && ok2 {
				buf.WriteByte(hi<<4 | lo)
				pos += 3
				continue
			}
		}
		buf.WriteByte(b)
		pos++
	}

	return Token{Type: TokenName, Value: buf.String(), Pos: int64(start)}, pos, nil
}

// readNumber reads a number (integer or real)
func readNumber(data []byte, start int) (Token, int, error) {
	pos := start
	hasDecimal := false
	hasDigit := false

	if data[pos] == '+' || data[pos] == '-' {
		pos++
	}
	for pos < len(data) {
		b := data[pos]
		if isDigit(b) {
			hasDigit = true
		} else if b == '.' && !hasDecimal {
			hasDecimal = true
		} else {
			break
		}
		pos++
	}

	if !hasDigit {
		return Token{}, start, errAt(KindMalformedToken, int64(start), "invalid number")
	}

	str := string(data[start:pos])
	if !hasDecimal {
		if val, err := strconv.ParseInt(str, 10, 64); err == nil {
			return Token{Type: TokenInteger, Value: val, Pos: int64(start)}, pos, nil
		}
	}
	val, err := strconv.ParseFloat(str, 64)
	if err != nil {
		return Token{}, start, errAt(KindMalformedToken, int64(start), "invalid number %q", str)
	}
	return Token{Type: TokenReal, Value: val, Pos: int64(start)}, pos, nil
}

// readKeyword reads a bare word (true, false, null, obj, endobj, etc.)
func readKeyword(data []byte, start int) (Token, int, error) {
	pos := start
	for pos < len(data) && !isWhitespace(data[pos]) && !isDelimiter(data[pos]) {
		pos++
	}

	keyword := string(data[start:pos])
	switch keyword {
	case "true":
		return Token{Type: TokenBoolean, Value: true, Pos: int64(start)}, pos, nil
	case "false":
		return Token{Type: TokenBoolean, Value: false, Pos: int64(start)}, pos, nil
	}
	if t, ok := keywordTokens[keyword]; ok {
		return Token{Type: t, Value: keyword, Pos: int64(start)}, pos, nil
	}
	return Token{Type: TokenKeyword, Value: keyword, Pos: int64(start)}, pos, nil
}

// Lexer performs lexical analysis over an in-memory PDF byte slice
type Lexer struct {
	data []byte
	pos  int
}

// NewLexerFromBytes creates a new lexer from byte slice
func NewLexerFromBytes(data []byte) *Lexer {
	return &Lexer{data: data}
}

// newLexerAt creates a lexer positioned at pos
func newLexerAt(data []byte, pos int) *Lexer {
	return &Lexer{data: data, pos: pos}
}

// Position returns the current position
func (l *Lexer) Position() int64 {
	return int64(l.pos)
}

// NextToken returns the next token
func (l *Lexer) NextToken() (Token, error) {
	tok, next, err := NextToken(l.data, l.pos)
	if err != nil {
		return Token{}, err
	}
	l.pos = next
	return tok, nil
}

// ReadLine reads until end of line
func (l *Lexer) ReadLine() ([]byte, error) {
	start := l.pos
	for l.pos < len(l.data) {
		b := l.data[l.pos]
		if b == '\r' || b == '\n' {
			line := l.data[start:l.pos]
			l.pos++
			if b == '\r' && l.pos < len(l.data) && l.data[l.pos] == '\n' {
				l.pos++
			}
			return line, nil
		}
		l.pos++
	}
	return l.data[start:l.pos], nil
}

// ReadBytes reads n bytes
func (l *Lexer) ReadBytes(n int) ([]byte, error) {
	if n < 0 || l.pos+n > len(l.data) {
		return nil, errAt(KindMalformedObject, int64(l.pos), "want %d bytes, %d available", n, len(l.data)-l.pos)
	}
	out := l.data[l.pos : l.pos+n]
	l.pos += n
	return out, nil
}
