package sexy

import (
	"fmt"
	"strings"
	"unicode"
)

// NodeType is the kind of datum a Node holds.
type NodeType int

const (
	NodeSymbol NodeType = iota
	NodeString
	NodeInteger
	NodeFloat
	NodeList
)

func (t NodeType) String() string {
	switch t {
	case NodeSymbol:
		return "symbol"
	case NodeString:
		return "string"
	case NodeInteger:
		return "integer"
	case NodeFloat:
		return "float"
	case NodeList:
		return "list"
	default:
		return fmt.Sprintf("NodeType(%d)", int(t))
	}
}

// Node is a single datum. Atoms keep their source text; numbers are left
// unparsed so callers can choose the range they accept.
type Node struct {
	Type NodeType
	Text string // atoms: symbol name, unescaped string, number text

	Items []*Node // NodeList

	// Metadata attached to a list with ^{key: value, ...}, as parallel slices
	// in first-seen key order.
	MetaKeys  []string
	MetaItems []*Node
}

func NewSymbol(name string) *Node {
	return &Node{Type: NodeSymbol, Text: name}
}

func NewString(value string) *Node {
	return &Node{Type: NodeString, Text: value}
}

func NewInteger(text string) *Node {
	return &Node{Type: NodeInteger, Text: text}
}

func NewFloat(text string) *Node {
	return &Node{Type: NodeFloat, Text: text}
}

func NewList(items []*Node) *Node {
	return &Node{Type: NodeList, Items: items}
}

// Meta returns the metadata value stored under key.
func (n *Node) Meta(key string) (*Node, bool) {
	for i, k := range n.MetaKeys {
		if k == key {
			return n.MetaItems[i], true
		}
	}
	return nil, false
}

// SetMeta stores value under key. A repeated key keeps its first position
// and takes the new value.
func (n *Node) SetMeta(key string, value *Node) {
	for i, k := range n.MetaKeys {
		if k == key {
			n.MetaItems[i] = value
			return
		}
	}
	n.MetaKeys = append(n.MetaKeys, key)
	n.MetaItems = append(n.MetaItems, value)
}

// String prints n in the form Parse reads. List metadata is printed ahead
// of the items.
func (n *Node) String() string {
	var buf strings.Builder
	n.write(&buf)
	return buf.String()
}

func (n *Node) write(buf *strings.Builder) {
	switch n.Type {
	case NodeSymbol, NodeInteger, NodeFloat:
		buf.WriteString(n.Text)
	case NodeString:
		buf.WriteByte('"')
		buf.WriteString(stringEscaper.Replace(n.Text))
		buf.WriteByte('"')
	case NodeList:
		buf.WriteByte('(')
		sep := ""
		if len(n.MetaKeys) > 0 {
			buf.WriteString("^{")
			for i, key := range n.MetaKeys {
				if i > 0 {
					buf.WriteString(", ")
				}
				buf.WriteString(key + ": ")
				n.MetaItems[i].write(buf)
			}
			buf.WriteByte('}')
			sep = " "
		}
		for _, item := range n.Items {
			buf.WriteString(sep)
			item.write(buf)
			sep = " "
		}
		buf.WriteByte(')')
	default:
		panic("Unsupported node type: " + n.Type.String())
	}
}

var stringEscaper = strings.NewReplacer(
	"\\", "\\\\",
	"\"", "\\\"",
	"\n", "\\n",
	"\t", "\\t",
)

type parser struct {
	lexer *lexer
	tok   token
	next  token
}

// Parse reads exactly one datum from input. Anything but whitespace and
// comments after it is an error.
func Parse(input string) (*Node, error) {
	p := &parser{lexer: newLexer(input)}
	p.advance()
	p.advance()

	datum, err := p.parseDatum()
	// A lexer error usually shows up to the parser as a premature EOF, so
	// report the lexer's reason instead.
	if p.lexer.err != nil {
		return nil, p.lexer.err
	}
	if err != nil {
		return nil, err
	}
	if p.tok.Type != tokenEOF {
		return nil, fmt.Errorf("expected EOF but got %s", p.tok.Type)
	}
	return datum, nil
}

func (p *parser) advance() {
	p.tok = p.next
	p.next = p.lexer.nextToken()
}

func (p *parser) parseDatum() (*Node, error) {
	tok := p.tok
	switch tok.Type {
	case tokenSymbol:
		p.advance()
		return NewSymbol(tok.Value), nil
	case tokenString:
		p.advance()
		return NewString(tok.Value), nil
	case tokenInteger:
		p.advance()
		return NewInteger(tok.Value), nil
	case tokenFloat:
		p.advance()
		return NewFloat(tok.Value), nil
	case tokenLParen:
		return p.parseList()
	default:
		return nil, fmt.Errorf("unexpected token: %s", tok.Type)
	}
}

func (p *parser) parseList() (*Node, error) {
	list := NewList(nil)
	p.advance() // (

	for p.tok.Type != tokenRParen {
		switch p.tok.Type {
		case tokenEOF:
			return nil, fmt.Errorf("expected ')' but got %s", p.tok.Type)
		case tokenCaret:
			if err := p.parseMeta(list); err != nil {
				return nil, err
			}
		default:
			item, err := p.parseDatum()
			if err != nil {
				return nil, err
			}
			list.Items = append(list.Items, item)
		}
	}
	p.advance() // )

	return list, nil
}

// parseMeta reads ^{key: value, ...} into list. A list may carry several
// metadata maps; they are merged and later values win.
func (p *parser) parseMeta(list *Node) error {
	p.advance() // ^
	if p.tok.Type != tokenLBrace {
		return fmt.Errorf("expected '{' after '^' but got %s", p.tok.Type)
	}
	p.advance()

	for p.tok.Type != tokenRBrace {
		if p.tok.Type != tokenSymbol {
			return fmt.Errorf("expected symbol for metadata key but got %s", p.tok.Type)
		}
		key := p.tok.Value
		p.advance()

		if p.tok.Type != tokenColon {
			return fmt.Errorf("expected ':' after metadata key but got %s", p.tok.Type)
		}
		p.advance()

		value, err := p.parseDatum()
		if err != nil {
			return err
		}
		list.SetMeta(key, value)

		switch p.tok.Type {
		case tokenComma:
			p.advance()
		case tokenRBrace:
		default:
			return fmt.Errorf("expected ',' or '}' in metadata but got %s", p.tok.Type)
		}
	}
	p.advance() // }

	return nil
}

type tokenType int

const (
	tokenEOF tokenType = iota
	tokenSymbol
	tokenString
	tokenInteger
	tokenFloat
	tokenLParen
	tokenRParen
	tokenLBrace
	tokenRBrace
	tokenColon
	tokenComma
	tokenCaret
)

var tokenNames = map[tokenType]string{
	tokenEOF:     "EOF",
	tokenSymbol:  "symbol",
	tokenString:  "string",
	tokenInteger: "integer",
	tokenFloat:   "float",
	tokenLParen:  "'('",
	tokenRParen:  "')'",
	tokenLBrace:  "'{'",
	tokenRBrace:  "'}'",
	tokenColon:   "':'",
	tokenComma:   "','",
	tokenCaret:   "'^'",
}

func (t tokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("unknown token %d", int(t))
}

// punctuation maps single-character tokens to their type.
var punctuation = map[byte]tokenType{
	'(': tokenLParen,
	')': tokenRParen,
	'{': tokenLBrace,
	'}': tokenRBrace,
	':': tokenColon,
	',': tokenComma,
	'^': tokenCaret,
}

type token struct {
	Type     tokenType
	Value    string
	Position int
}

// lexer splits ASCII input into tokens. It stops at the first error, which
// it keeps in err and reports as EOF.
type lexer struct {
	input string
	pos   int
	err   error
}

func newLexer(input string) *lexer {
	return &lexer{input: input}
}

// peek returns the byte offset bytes ahead, or 0 past the end of input.
func (l *lexer) peek(offset int) byte {
	if l.pos+offset >= len(l.input) {
		return 0
	}
	return l.input[l.pos+offset]
}

func (l *lexer) fail(format string, args ...any) token {
	l.err = fmt.Errorf(format, args...)
	l.pos = len(l.input)
	return token{Type: tokenEOF, Position: l.pos}
}

func (l *lexer) nextToken() token {
	l.skipSpaceAndComments()
	start := l.pos
	c := l.peek(0)

	if l.err != nil || c == 0 {
		return token{Type: tokenEOF, Position: start}
	}
	if typ, ok := punctuation[c]; ok {
		l.pos++
		return token{Type: typ, Value: string(c), Position: start}
	}

	switch {
	case c == '"':
		text, err := l.readString()
		if err != nil {
			return l.fail("%s", err)
		}
		return token{Type: tokenString, Value: text, Position: start}
	case isDigit(c), (c == '+' || c == '-') && isDigit(l.peek(1)):
		typ := l.readNumber()
		return token{Type: typ, Value: l.input[start:l.pos], Position: start}
	case isLetter(c), c == '+' || c == '-':
		l.pos++
		for isSymbolChar(l.peek(0)) {
			l.pos++
		}
		return token{Type: tokenSymbol, Value: l.input[start:l.pos], Position: start}
	default:
		return l.fail("unexpected character '%c'", c)
	}
}

func (l *lexer) skipSpaceAndComments() {
	for {
		switch c := l.peek(0); {
		case c == ';':
			for c := l.peek(0); c != 0 && c != '\n' && c != '\r'; c = l.peek(0) {
				l.pos++
			}
		case c != 0 && unicode.IsSpace(rune(c)):
			l.pos++
		default:
			return
		}
	}
}

func (l *lexer) readString() (string, error) {
	var buf strings.Builder
	l.pos++ // opening quote
	for {
		c := l.peek(0)
		switch c {
		case 0:
			return "", fmt.Errorf("unterminated string")
		case '"':
			l.pos++
			return buf.String(), nil
		case '\\':
			escaped, ok := stringEscapes[l.peek(1)]
			if !ok {
				return "", fmt.Errorf("invalid escape sequence: \\%c", l.peek(1))
			}
			buf.WriteByte(escaped)
			l.pos += 2
		default:
			buf.WriteByte(c)
			l.pos++
		}
	}
}

var stringEscapes = map[byte]byte{
	'"':  '"',
	'\\': '\\',
	'n':  '\n',
	't':  '\t',
}

// readNumber consumes an optionally signed run of digits. A '.' followed by
// a digit makes it a float.
func (l *lexer) readNumber() tokenType {
	if c := l.peek(0); c == '+' || c == '-' {
		l.pos++
	}
	l.skipDigits()
	if l.peek(0) != '.' || !isDigit(l.peek(1)) {
		return tokenInteger
	}
	l.pos++
	l.skipDigits()
	return tokenFloat
}

func (l *lexer) skipDigits() {
	for isDigit(l.peek(0)) {
		l.pos++
	}
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

func isLetter(c byte) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z'
}

func isSymbolChar(c byte) bool {
	return isLetter(c) || isDigit(c) || c == '-' || c == '_'
}
