package stepdir

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// stepLexer defines the lexical structure of .step sweep directives.
// Values keep any engineering suffix or unit letters attached to the
// number so they lex as a single token ("1Meg", "-40", "2.5u").
var stepLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `[ \t]+`},

	{Name: "StepKw", Pattern: `(?i)\.step\b`},
	{Name: "ParamKw", Pattern: `(?i)\bparam\b`},

	{Name: "Assign", Pattern: `=`},

	{Name: "Number", Pattern: `[-+]?([0-9]+\.?[0-9]*|\.[0-9]+)([eE][-+]?[0-9]+)?[a-zA-Zµ°%]*`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
})
