// Package lexer implements the CFPL scanner.
package lexer

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/thomasrohde/cfpl/pkg/diagnostics"
	"github.com/thomasrohde/cfpl/pkg/token"
	"github.com/thomasrohde/cfpl/pkg/value"
)

type scanner struct {
	source   string
	filename string

	start     int
	startLine int
	startCol  int

	pos  int
	line int
	col  int

	tokens   []token.Token
	diags    []diagnostics.Diagnostic
	comments int
}

func newScanner(source, filename string) *scanner {
	return &scanner{
		source:   source,
		filename: filename,
		line:     1,
		col:      1,
	}
}

func (s *scanner) atEnd() bool {
	return s.pos >= len(s.source)
}

func (s *scanner) peek() byte {
	if s.atEnd() {
		return 0
	}
	return s.source[s.pos]
}

func (s *scanner) peekAt(offset int) byte {
	p := s.pos + offset
	if p >= len(s.source) {
		return 0
	}
	return s.source[p]
}

func (s *scanner) advance() byte {
	ch := s.source[s.pos]
	s.pos++
	if ch == '\n' {
		s.line++
		s.col = 1
	} else if ch&0xC0 != 0x80 {
		// UTF-8 continuation bytes share the column of their leading byte.
		s.col++
	}
	return ch
}

func (s *scanner) match(expected byte) bool {
	if s.atEnd() || s.source[s.pos] != expected {
		return false
	}
	s.advance()
	return true
}

func (s *scanner) span() token.Span {
	return token.Span{
		File:      s.filename,
		StartLine: s.startLine,
		StartCol:  s.startCol,
		EndLine:   s.line,
		EndCol:    s.col,
	}
}

func (s *scanner) add(typ token.Type) {
	s.addLiteral(typ, nil)
}

func (s *scanner) addLiteral(typ token.Type, lit value.Value) {
	s.tokens = append(s.tokens, token.Token{
		Type:    typ,
		Lexeme:  s.source[s.start:s.pos],
		Literal: lit,
		Span:    s.span(),
	})
}

func (s *scanner) lexError(msg string) {
	span := token.Span{
		File:      s.filename,
		StartLine: s.startLine,
		StartCol:  s.startCol,
		EndLine:   s.startLine,
		EndCol:    s.startCol + 1,
	}
	s.diags = append(s.diags, diagnostics.MakeDiag(diagnostics.ELex, msg, &span, ""))
}

func isAlpha(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isAlphaNumeric(ch byte) bool {
	return isAlpha(ch) || isDigit(ch)
}

// Newlines terminate statements, so only the first of a run is kept and
// nothing is emitted before the first real token.
func (s *scanner) shouldAddNewline() bool {
	n := len(s.tokens)
	return n > 0 && s.tokens[n-1].Type != token.Newline
}

// starOpensComment decides whether the '*' just consumed starts a comment.
// Walking backward from the character before it, non-alphanumeric characters
// other than a line break are skipped. If the nearest remaining character is
// alphanumeric the '*' is multiplication; a line break or the start of input
// makes it a comment marker.
func (s *scanner) starOpensComment() bool {
	k := s.pos - 2
	for k >= 0 && !isAlphaNumeric(s.source[k]) && s.source[k] != '\n' {
		k--
	}
	if k < 0 {
		return true
	}
	return !isAlphaNumeric(s.source[k])
}

func (s *scanner) skipLine() {
	s.comments++
	for !s.atEnd() && s.peek() != '\n' {
		s.advance()
	}
}

func (s *scanner) scanToken() {
	ch := s.advance()
	switch ch {
	case '(':
		s.add(token.LeftParen)
	case ')':
		s.add(token.RightParen)
	case '{':
		s.add(token.LeftBrace)
	case '}':
		s.add(token.RightBrace)
	case ',':
		s.add(token.Comma)
	case ';':
		s.add(token.Semicolon)
	case '%':
		s.add(token.Modulo)
	case '&':
		s.add(token.Ampersand)
	case '-':
		if s.match('-') {
			s.add(token.Decrement)
		} else {
			s.add(token.Minus)
		}
	case '+':
		if s.match('+') {
			s.add(token.Increment)
		} else {
			s.add(token.Plus)
		}
	case '*':
		if s.starOpensComment() {
			s.skipLine()
		} else {
			s.add(token.Star)
		}
	case '/':
		if s.match('/') {
			s.skipLine()
		} else {
			s.add(token.Slash)
		}
	case '!':
		if s.match('=') {
			s.add(token.BangEqual)
		} else {
			s.add(token.Bang)
		}
	case '=':
		if s.match('=') {
			s.add(token.EqualEqual)
		} else {
			s.add(token.Equal)
		}
	case '<':
		switch {
		case s.match('='):
			s.add(token.LessEqual)
		case s.match('>'):
			s.add(token.BangEqual)
		default:
			s.add(token.Less)
		}
	case '>':
		if s.match('=') {
			s.add(token.GreaterEqual)
		} else {
			s.add(token.Greater)
		}
	case ' ', '\r', '\t':
	case '\n':
		if s.shouldAddNewline() {
			s.add(token.Newline)
		}
	case '"':
		if s.peek() == '[' {
			s.scanEscape()
		} else {
			s.scanString()
		}
	case '#':
		s.addLiteral(token.NextLine, value.NewCharacter('\n'))
	case '\'':
		s.scanChar()
	default:
		switch {
		case isDigit(ch):
			s.scanNumber()
		case isAlpha(ch):
			s.scanIdentifier()
		default:
			r := rune(ch)
			if ch >= utf8.RuneSelf {
				var size int
				r, size = utf8.DecodeRuneInString(s.source[s.start:])
				for i := 1; i < size && !s.atEnd(); i++ {
					s.advance()
				}
			}
			s.lexError(fmt.Sprintf("Unexpected character '%c'.", r))
		}
	}
}

func (s *scanner) scanString() {
	for !s.atEnd() && s.peek() != '"' {
		s.advance()
	}
	if s.atEnd() {
		s.lexError("Unterminated string.")
		return
	}
	s.advance() // closing "

	text := s.source[s.start+1 : s.pos-1]
	switch text {
	case "TRUE":
		s.add(token.True)
	case "FALSE":
		s.add(token.False)
	case "#":
		s.addLiteral(token.NextLine, value.NewCharacter('\n'))
	default:
		s.addLiteral(token.String, value.NewString(text))
	}
}

// scanEscape reads the bracketed form "[c]" that yields the single character c
// verbatim, which is how quotes, '#' and ']' are written.
func (s *scanner) scanEscape() {
	for !s.atEnd() && s.peek() != ']' {
		s.advance()
	}
	if s.peekAt(1) == ']' {
		s.advance()
	}
	if s.atEnd() {
		s.lexError("Unterminated escape code.")
		return
	}
	s.advance() // ]

	text := s.source[s.start+2 : s.pos-1]
	if !s.match('"') {
		s.lexError("Unterminated escape code, expected closing '\"'.")
	}
	if utf8.RuneCountInString(text) != 1 {
		s.lexError(fmt.Sprintf("'%s' is not a character.", text))
	}
	s.addLiteral(token.String, value.NewString(text))
}

func (s *scanner) scanChar() {
	for !s.atEnd() && s.peek() != '\'' {
		s.advance()
	}
	if s.atEnd() {
		s.lexError("Unterminated character.")
		return
	}
	s.advance() // closing '

	text := s.source[s.start+1 : s.pos-1]
	var r rune
	if text != "" {
		r, _ = utf8.DecodeRuneInString(text)
	}
	if utf8.RuneCountInString(text) != 1 {
		s.lexError(fmt.Sprintf("'%s' is not a character.", text))
	}
	s.addLiteral(token.Char, value.NewCharacter(r))
}

func (s *scanner) scanNumber() {
	for isDigit(s.peek()) {
		s.advance()
	}
	if s.peek() == '.' && isDigit(s.peekAt(1)) {
		s.advance() // .
		for isDigit(s.peek()) {
			s.advance()
		}
	}

	text := s.source[s.start:s.pos]
	if strings.Contains(text, ".") {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			s.lexError(fmt.Sprintf("Invalid number '%s'.", text))
		}
		s.addLiteral(token.Number, value.NewFloat(f))
		return
	}
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		s.lexError(fmt.Sprintf("Integer literal '%s' is out of range.", text))
		n = 0
	}
	s.addLiteral(token.Number, value.NewInteger(n))
}

func (s *scanner) scanIdentifier() {
	for isAlphaNumeric(s.peek()) {
		s.advance()
	}
	// Reserved words such as OUTPUT: and INPUT: carry their colon.
	if s.peek() == ':' {
		s.advance()
	}

	text := s.source[s.start:s.pos]
	if typ, ok := token.Lookup(text); ok {
		s.add(typ)
		return
	}
	s.add(token.Identifier)
}

func (s *scanner) run() {
	for !s.atEnd() {
		s.start = s.pos
		s.startLine, s.startCol = s.line, s.col
		s.scanToken()
	}
	s.start = s.pos
	s.startLine, s.startCol = s.line, s.col
	s.add(token.EOF)
}

// Tokenize breaks source into tokens. It never fails: malformed input is
// reported through the returned diagnostics and scanning continues, so the
// token slice always ends with an EOF token.
func Tokenize(source, filename string) ([]token.Token, []diagnostics.Diagnostic) {
	s := newScanner(source, filename)
	s.run()
	return s.tokens, s.diags
}

// CountComments returns how many line comments the scanner discards in source.
func CountComments(source string) int {
	s := newScanner(source, "")
	s.run()
	return s.comments
}
