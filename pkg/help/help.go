// Package help holds the language reference shown by `cfpl help`.
package help

import (
	"fmt"
	"strings"

	"github.com/thomasrohde/cfpl/pkg/token"
)

// QUICKREF is printed by `cfpl help` without a topic.
const QUICKREF = `CFPL v1.0 - quick reference

  VAR a, b = 2 AS INT        declare (INT CHAR BOOL FLOAT STRING)
  OUTPUT: a & " " & b        print one line
  INPUT: a, b                read one comma-separated line
  a = a + 1                  assign
  START ... STOP             block
  IF (cond) / ELSE           branch on the next statement
  WHILE (cond)               loop over the next statement
  FOR (init; cond; step)     counted loop
  * or //                    comment to end of line

Topics (cfpl help <topic>, prefixes accepted):
  syntax       statements, lines and comments
  types        data types, literals and defaults
  statements   every statement form
  operators    precedence table and operand rules
  input        how INPUT: splits and converts a line
  diagnostics  error codes and exit codes
  examples     complete programs
`

// TopicList is the display order of Topics.
var TopicList = []string{"syntax", "types", "statements", "operators", "input", "diagnostics", "examples"}

// Topics maps topic names to their text.
var Topics = map[string]string{
	"syntax": `SYNTAX

One statement per line; a line break ends it. Blank lines are ignored.
End of file also ends the last statement.

Reserved words are upper case and case sensitive: VAR, not var.
OUTPUT: and INPUT: carry their colon.

Comments run to the end of the line:
  // anywhere on a line
  *  when no letter or digit precedes it on the same line
     (2 * 3 multiplies, a line starting with * is a comment)

Identifiers start with a letter or '_' and continue with letters,
digits or '_'.
`,

	"types": `TYPES

  INT     64-bit integer            default 0
  FLOAT   double precision          default 0
  CHAR    one character  'a'        default ' ' (space)
  BOOL    "TRUE" or "FALSE"         default false
  STRING  "text"                    needs an initializer

Literals:
  12  3.5  'c'  "text"  "TRUE"  "FALSE"
  #        the newline character
  "[c]"    the single character c, for quotes, '#', '[' and ']'

A variable keeps its declared type: assigning a value of another type
is a runtime error (E_TYPE_MISMATCH). A mismatched initializer is
reported (E_DATATYPE) and the variable starts at its default.
`,

	"statements": `STATEMENTS

  VAR x, y = 1 AS INT       declaration, only at top level or in a block
  x = y = 3                 assignment is an expression, right to left
  ++x / --x                 shorthand for x = x + 1 / x = x - 1
  OUTPUT: expr              prints the value and a line break
  INPUT: x, y               see 'cfpl help input'

  START                     block with its own scope
    ...
  STOP

  IF (cond)                 the body is the next statement;
    OUTPUT: "yes"           use START/STOP for several
  ELSE
    OUTPUT: "no"

  WHILE (i < 10)
  START
    i = i + 1
  STOP

  FOR (VAR i = 0 AS INT; i < 10; ++i)
    OUTPUT: i

Any FOR clause may be empty; an empty condition loops forever.
`,

	"operators": `OPERATORS (loosest first)

  =                 assignment (right associative)
  OR                logical or, returns the deciding operand
  AND               logical and, returns the deciding operand
  == != <>          equality, any types
  > >= < <= &       comparison (numbers); & joins display text
  + -               numbers; + also joins two strings
  * / %             numbers; % needs two integers
  NOT ! -           unary

Two integers give an integer and / truncates toward zero. Any float
operand makes the result a float. Division or modulo of integers by
zero is a runtime error (E_DIV_ZERO).

Only "FALSE" and unset values are false; 0 and "" are true.
`,

	"input": `INPUT

INPUT: a, b, c reads one line and splits it on commas. Trailing empty
fields are dropped. The line must have exactly one field per variable;
otherwise nothing is assigned (E_INPUT).

Each field is read as its variable's type:
  INT     exact digits, no surrounding spaces
  FLOAT   decimal number, spaces allowed
  CHAR    exactly one character
  BOOL    contains TRUE or FALSE
  STRING  the field as is

A field that does not fit is reported and then guessed again as a
character, a boolean, an integer or a float, in that order. The guess
is assigned when its type matches.

A prompt line ([Input] by default, see 'input_prompt' in the config)
is printed before each read.
`,

	"diagnostics": `DIAGNOSTICS

  E_LEX            bad character, unterminated string or character
  E_PARSE          syntax error
  E_UNDEFINED      name not declared
  E_TYPE_MISMATCH  assignment of another type
  E_OPERAND        operator applied to the wrong types
  E_DIV_ZERO       integer division or modulo by zero
  E_DATATYPE       initializer of the wrong type
  E_INPUT          input line of the wrong shape
  E_IO             output or input stream failure
  E_CONFIG         unreadable configuration file

Exit codes:
  0  success
  1  usage or file error
  2  lexical or syntax errors, nothing ran
  3  ran to the end with reported problems
  4  stopped by a runtime error

Use --json for one JSON object per diagnostic.
`,

	"examples": `EXAMPLES

Arithmetic:
  VAR a = 5, b = 2 AS INT
  OUTPUT: a / b & " " & a % b        // prints 2 1

Reading input:
  VAR n AS INT
  VAR c AS CHAR
  INPUT: n, c
  OUTPUT: n & c

Counting:
  FOR (VAR i = 1 AS INT; i <= 3; ++i)
    OUTPUT: "line " & i

Scopes:
  VAR x = 1 AS INT
  START
    VAR x = 2 AS INT
    OUTPUT: x                        // prints 2
  STOP
  OUTPUT: x                          // prints 1
`,
}

// MatchTopic resolves query to a topic by exact name or unique prefix.
func MatchTopic(query string) (name, content string, err error) {
	if c, ok := Topics[query]; ok {
		return query, c, nil
	}
	var matches []string
	for _, t := range TopicList {
		if strings.HasPrefix(t, query) {
			matches = append(matches, t)
		}
	}
	switch len(matches) {
	case 0:
		return "", "", fmt.Errorf("unknown help topic %q (topics: %s)", query, strings.Join(TopicList, ", "))
	case 1:
		return matches[0], Topics[matches[0]], nil
	}
	return "", "", fmt.Errorf("ambiguous help topic %q: %s", query, strings.Join(matches, ", "))
}

// KeywordIndex lists the reserved words.
func KeywordIndex() string {
	words := token.Keywords()
	var b strings.Builder
	b.WriteString("Reserved words:\n")
	for _, w := range words {
		fmt.Fprintf(&b, "  %s\n", w)
	}
	fmt.Fprintf(&b, "\nTotal: %d reserved words\n", len(words))
	return b.String()
}
