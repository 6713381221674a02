// Package token defines the CFPL lexical units shared by the scanner and parser.
package token

import (
	"fmt"
	"sort"

	"github.com/thomasrohde/cfpl/pkg/value"
)

// Span represents a source location range.
type Span struct {
	File      string `json:"file"`
	StartLine int    `json:"startLine"`
	StartCol  int    `json:"startCol"`
	EndLine   int    `json:"endLine"`
	EndCol    int    `json:"endCol"`
}

// Type identifies the lexical category of a token.
type Type int

const (
	// Punctuation
	LeftParen  Type = iota // (
	RightParen             // )
	LeftBrace              // {
	RightBrace             // }
	Comma                  // ,
	Semicolon              // ;

	// Operators
	Minus        // -
	Plus         // +
	Slash        // /
	Star         // *
	Modulo       // %
	Ampersand    // &
	Bang         // !
	BangEqual    // != or <>
	Equal        // =
	EqualEqual   // ==
	Greater      // >
	GreaterEqual // >=
	Less         // <
	LessEqual    // <=
	Increment    // ++
	Decrement    // --

	// Literals
	Identifier
	String
	Number
	Char

	// Structural markers
	Newline  // statement terminator
	NextLine // # (newline character literal)

	// Keywords
	Var
	As
	Print // OUTPUT:
	Input // INPUT:
	And
	Or
	Not
	If
	Else
	While
	For
	True
	False

	// Data type names
	TypeInt
	TypeChar
	TypeBool
	TypeFloat
	TypeString

	// Block markers
	Start
	Stop

	EOF
)

var names = map[Type]string{
	LeftParen:    "LEFT_PAREN",
	RightParen:   "RIGHT_PAREN",
	LeftBrace:    "LEFT_BRACE",
	RightBrace:   "RIGHT_BRACE",
	Comma:        "COMMA",
	Semicolon:    "SEMICOLON",
	Minus:        "MINUS",
	Plus:         "PLUS",
	Slash:        "SLASH",
	Star:         "STAR",
	Modulo:       "MODULO",
	Ampersand:    "AMPERSAND",
	Bang:         "BANG",
	BangEqual:    "BANG_EQUAL",
	Equal:        "EQUAL",
	EqualEqual:   "EQUAL_EQUAL",
	Greater:      "GREATER",
	GreaterEqual: "GREATER_EQUAL",
	Less:         "LESS",
	LessEqual:    "LESS_EQUAL",
	Increment:    "INCREMENT",
	Decrement:    "DECREMENT",
	Identifier:   "IDENTIFIER",
	String:       "STRING",
	Number:       "NUMBER",
	Char:         "CHAR",
	Newline:      "NEWLINE",
	NextLine:     "NEXT_LINE",
	Var:          "VAR",
	As:           "AS",
	Print:        "PRINT",
	Input:        "INPUT",
	And:          "AND",
	Or:           "OR",
	Not:          "NOT",
	If:           "IF",
	Else:         "ELSE",
	While:        "WHILE",
	For:          "FOR",
	True:         "TRUE",
	False:        "FALSE",
	TypeInt:      "INT",
	TypeChar:     "CHAR_TYPE",
	TypeBool:     "BOOL",
	TypeFloat:    "FLOAT",
	TypeString:   "STRING_TYPE",
	Start:        "START",
	Stop:         "STOP",
	EOF:          "EOF",
}

func (t Type) String() string {
	if name, ok := names[t]; ok {
		return name
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// Token is a single lexical unit. Literal is set only on literal tokens.
type Token struct {
	Type    Type
	Lexeme  string
	Literal value.Value
	Span    Span
}

// Line returns the 1-based source line of the token.
func (t Token) Line() int {
	return t.Span.StartLine
}

func (t Token) String() string {
	if t.Literal != nil {
		return fmt.Sprintf("%s %q %s", t.Type, t.Lexeme, t.Literal)
	}
	return fmt.Sprintf("%s %q", t.Type, t.Lexeme)
}

var keywords = map[string]Type{
	"INT":     TypeInt,
	"CHAR":    TypeChar,
	"BOOL":    TypeBool,
	"FLOAT":   TypeFloat,
	"STRING":  TypeString,
	"START":   Start,
	"STOP":    Stop,
	"VAR":     Var,
	"OUTPUT:": Print,
	"INPUT:":  Input,
	"AS":      As,
	"TRUE":    True,
	"FALSE":   False,
	"AND":     And,
	"OR":      Or,
	"NOT":     Not,
	"IF":      If,
	"ELSE":    Else,
	"WHILE":   While,
	"FOR":     For,
}

// Lookup returns the reserved-word type for an identifier lexeme.
// Matching is exact and case-sensitive.
func Lookup(lexeme string) (Type, bool) {
	t, ok := keywords[lexeme]
	return t, ok
}

// Keywords returns every reserved word in sorted order.
func Keywords() []string {
	words := make([]string, 0, len(keywords))
	for w := range keywords {
		words = append(words, w)
	}
	sort.Strings(words)
	return words
}

// IsKeyword reports whether the lexeme is a reserved word.
func IsKeyword(lexeme string) bool {
	_, ok := keywords[lexeme]
	return ok
}

var dataTypes = map[Type]value.Kind{
	TypeInt:    value.KindInteger,
	TypeChar:   value.KindCharacter,
	TypeBool:   value.KindBoolean,
	TypeFloat:  value.KindFloat,
	TypeString: value.KindString,
}

// IsDataType reports whether t names a declarable data type.
func IsDataType(t Type) bool {
	_, ok := dataTypes[t]
	return ok
}

// KindFor maps a data-type token to the runtime kind it declares.
func KindFor(t Type) (value.Kind, bool) {
	k, ok := dataTypes[t]
	return k, ok
}
