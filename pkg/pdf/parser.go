package pdf

import (
	"bytes"
	"log/slog"
)

// maxNesting bounds how deeply arrays and dictionaries may nest
const maxNesting = 500

// Parser parses PDF objects from tokens
type Parser struct {
	lexer  *Lexer
	tokens []Token
	pos    int
	depth  int

	// resolveLength looks up an indirect /Length value; nil disables it
	resolveLength func(Reference) (int64, bool)
}

// NewParser creates a new parser for the given lexer
func NewParser(lexer *Lexer) *Parser {
	return &Parser{lexer: lexer}
}

// NewParserFromBytes creates a new parser from byte slice
func NewParserFromBytes(data []byte) *Parser {
	return NewParser(NewLexerFromBytes(data))
}

// newParserAt creates a parser reading data from offset
func newParserAt(data []byte, offset int64) *Parser {
	return NewParser(newLexerAt(data, int(offset)))
}

// nextToken gets the next token, buffering for lookahead
func (p *Parser) nextToken() (Token, error) {
	if p.pos < len(p.tokens) {
		tok := p.tokens[p.pos]
		p.pos++
		return tok, nil
	}

	tok, err := p.lexer.NextToken()
	if err != nil {
		return Token{}, err
	}

	p.tokens = append(p.tokens, tok)
	p.pos++
	return tok, nil
}

// peekToken peeks at the next token without consuming it
func (p *Parser) peekToken() (Token, error) {
	return p.peekTokenN(0)
}

// peekTokenN peeks at the nth token ahead (0-indexed)
func (p *Parser) peekTokenN(n int) (Token, error) {
	for len(p.tokens) <= p.pos+n {
		tok, err := p.lexer.NextToken()
		if err != nil {
			return Token{}, err
		}
		p.tokens = append(p.tokens, tok)
	}
	return p.tokens[p.pos+n], nil
}

// resetTo discards buffered lookahead and moves the lexer to offset
func (p *Parser) resetTo(offset int) {
	p.tokens = p.tokens[:0]
	p.pos = 0
	p.lexer.pos = offset
}

// ParseObject parses a single direct PDF object
func (p *Parser) ParseObject() (Object, error) {
	tok, err := p.nextToken()
	if err != nil {
		return nil, err
	}

	switch tok.Type {
	case TokenEOF:
		return nil, errAt(KindMalformedToken, tok.Pos, "unexpected end of input")

	case TokenNull:
		return Null{}, nil

	case TokenBoolean:
		return Boolean(tok.Value.(bool)), nil

	case TokenInteger:
		// Check if this is a reference (num gen R)
		next1, err := p.peekToken()
		if err == nil && next1.Type == TokenInteger {
			next2, err := p.peekTokenN(1)
			if err == nil && next2.Type == TokenRef {
				p.nextToken() // consume generation number
				p.nextToken() // consume R
				return Reference{
					ObjectNumber:     int(tok.Value.(int64)),
					GenerationNumber: int(next1.Value.(int64)),
				}, nil
			}
		}
		return Integer(tok.Value.(int64)), nil

	case TokenReal:
		return Real(tok.Value.(float64)), nil

	case TokenString:
		return String{Value: tok.Value.([]byte), IsHex: false}, nil

	case TokenHexString:
		return String{Value: tok.Value.([]byte), IsHex: true}, nil

	case TokenName:
		return Name(tok.Value.(string)), nil

	case TokenArrayStart, TokenDictStart:
		if p.depth >= maxNesting {
			return nil, errAt(KindMalformedToken, tok.Pos, "nesting too deep")
		}
		p.depth++
		defer func() { p.depth-- }()
		if tok.Type == TokenArrayStart {
			return p.parseArray(tok.Pos)
		}
		return p.parseDictionary(tok.Pos)

	default:
		return nil, errAt(KindMalformedObject, tok.Pos, "unexpected token %v", tok.Value)
	}
}

// parseArray parses a PDF array [...]
func (p *Parser) parseArray(start int64) (Array, error) {
	arr := Array{}

	for {
		tok, err := p.peekToken()
		if err != nil {
			return nil, err
		}

		switch tok.Type {
		case TokenArrayEnd:
			p.nextToken()
			return arr, nil
		case TokenEOF:
			return nil, errAt(KindMalformedToken, start, "unterminated array")
		}

		obj, err := p.ParseObject()
		if err != nil {
			return nil, err
		}

		arr = append(arr, obj)
	}
}

// parseDictionary parses a PDF dictionary <<...>>
func (p *Parser) parseDictionary(start int64) (Dictionary, error) {
	dict := make(Dictionary)

	for {
		keyTok, err := p.nextToken()
		if err != nil {
			return nil, err
		}

		switch keyTok.Type {
		case TokenDictEnd:
			return dict, nil
		case TokenEOF:
			return nil, errAt(KindMalformedToken, start, "unterminated dictionary")
		case TokenName:
		default:
			return nil, errAt(KindMalformedObject, keyTok.Pos, "expected name as dictionary key")
		}
		key := Name(keyTok.Value.(string))

		// a key directly followed by >> has no value; treat it as null
		if next, err := p.peekToken(); err == nil && next.Type == TokenDictEnd {
			continue
		}

		value, err := p.ParseObject()
		if err != nil {
			return nil, err
		}

		// null values are equivalent to absent keys
		if _, isNull := value.(Null); isNull {
			continue
		}
		dict[key] = value
	}
}

// ParseIndirectObject parses an indirect object definition (num gen obj ... endobj)
func (p *Parser) ParseIndirectObject() (Reference, Object, error) {
	var ref Reference

	numTok, err := p.nextToken()
	if err != nil {
		return ref, nil, err
	}
	if numTok.Type != TokenInteger {
		return ref, nil, errAt(KindMalformedObject, numTok.Pos, "expected object number")
	}

	genTok, err := p.nextToken()
	if err != nil {
		return ref, nil, err
	}
	if genTok.Type != TokenInteger {
		return ref, nil, errAt(KindMalformedObject, genTok.Pos, "expected generation number")
	}

	objTok, err := p.nextToken()
	if err != nil {
		return ref, nil, err
	}
	if objTok.Type != TokenObjStart {
		return ref, nil, errAt(KindMalformedObject, objTok.Pos, "expected 'obj' keyword")
	}

	ref = Reference{ObjectNumber: int(numTok.Value.(int64)), GenerationNumber: int(genTok.Value.(int64))}

	// "1 0 obj endobj" is a null object
	if next, err := p.peekToken(); err == nil && next.Type == TokenObjEnd {
		p.nextToken()
		return ref, Null{}, nil
	}

	obj, err := p.ParseObject()
	if err != nil {
		return ref, nil, err
	}

	nextTok, err := p.peekToken()
	if err == nil && nextTok.Type == TokenStreamStart {
		dict, ok := obj.(Dictionary)
		if !ok {
			return ref, nil, errAt(KindMalformedObject, nextTok.Pos, "stream must have dictionary")
		}

		// stream payload is raw bytes, so drop any lookahead past the keyword
		p.resetTo(int(nextTok.Pos) + len("stream"))

		data, err := p.readStreamData(dict)
		if err != nil {
			return ref, nil, err
		}

		dict[Name("Length")] = Integer(len(data))
		obj = Stream{Dictionary: dict, Data: data}
	}

	endTok, err := p.peekToken()
	if err != nil || endTok.Type != TokenObjEnd {
		slog.Debug("missing endobj", slog.Int("object", ref.ObjectNumber))
		return ref, obj, nil
	}
	p.nextToken()

	return ref, obj, nil
}

// readStreamData reads the raw stream payload; the lexer sits right after
// the stream keyword. The returned slice does not alias the input.
func (p *Parser) readStreamData(dict Dictionary) ([]byte, error) {
	l := p.lexer
	start := l.pos

	// the keyword is followed by CRLF or LF; tolerate a lone CR
	if start < len(l.data) && l.data[start] == '\r' {
		start++
	}
	if start < len(l.data) && l.data[start] == '\n' {
		start++
	}

	length := int64(-1)
	switch v := dict.Get("Length").(type) {
	case Integer:
		length = int64(v)
	case Reference:
		if p.resolveLength != nil {
			if n, ok := p.resolveLength(v); ok {
				length = n
			}
		}
	}

	if length >= 0 && start+int(length) <= len(l.data) {
		end := start + int(length)
		after := skipWhitespace(l.data, end)
		if bytes.HasPrefix(l.data[after:], []byte("endstream")) {
			p.resetTo(after + len("endstream"))
			return bytes.Clone(l.data[start:end]), nil
		}
	}

	// Length is missing or wrong: scan for the endstream keyword
	idx := bytes.Index(l.data[start:], []byte("endstream"))
	if idx < 0 {
		return nil, errAt(KindMalformedObject, int64(start), "stream without endstream")
	}
	end := start + idx
	if end > start && l.data[end-1] == '\n' {
		end--
	}
	if end > start && l.data[end-1] == '\r' {
		end--
	}
	slog.Debug("stream length recovered by scanning", slog.Int64("declared", length), slog.Int("actual", end-start))
	p.resetTo(start + idx + len("endstream"))
	return bytes.Clone(l.data[start:end]), nil
}
