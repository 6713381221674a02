package token_test

import (
	"testing"

	"github.com/thomasrohde/cfpl/pkg/token"
	"github.com/thomasrohde/cfpl/pkg/value"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		lexeme string
		want   token.Type
		ok     bool
	}{
		{"VAR", token.Var, true},
		{"OUTPUT:", token.Print, true},
		{"INPUT:", token.Input, true},
		{"START", token.Start, true},
		{"STOP", token.Stop, true},
		{"INT", token.TypeInt, true},
		{"STRING", token.TypeString, true},
		{"var", 0, false},
		{"OUTPUT", 0, false},
		{"Output:", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.lexeme, func(t *testing.T) {
			got, ok := token.Lookup(tt.lexeme)
			if ok != tt.ok {
				t.Fatalf("Lookup(%q) ok = %v, want %v", tt.lexeme, ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("Lookup(%q) = %s, want %s", tt.lexeme, got, tt.want)
			}
		})
	}
}

func TestKindFor(t *testing.T) {
	tests := []struct {
		typ  token.Type
		want value.Kind
	}{
		{token.TypeInt, value.KindInteger},
		{token.TypeChar, value.KindCharacter},
		{token.TypeBool, value.KindBoolean},
		{token.TypeFloat, value.KindFloat},
		{token.TypeString, value.KindString},
	}
	for _, tt := range tests {
		got, ok := token.KindFor(tt.typ)
		if !ok || got != tt.want {
			t.Errorf("KindFor(%s) = %s, %v; want %s", tt.typ, got, ok, tt.want)
		}
	}
	if token.IsDataType(token.Identifier) {
		t.Error("IDENTIFIER must not be a data type")
	}
}

func TestTypeNames(t *testing.T) {
	for typ := token.LeftParen; typ <= token.EOF; typ++ {
		if typ.String() == "" {
			t.Errorf("type %d has no name", int(typ))
		}
	}
	if got := token.Print.String(); got != "PRINT" {
		t.Errorf("Print.String() = %q", got)
	}
}

func TestKeywordsSortedAndReserved(t *testing.T) {
	words := token.Keywords()
	if len(words) != 20 {
		t.Errorf("got %d reserved words, want 20", len(words))
	}
	for i, w := range words {
		if !token.IsKeyword(w) {
			t.Errorf("%q is not reserved", w)
		}
		if i > 0 && words[i-1] >= w {
			t.Errorf("not sorted at %q", w)
		}
	}
}
