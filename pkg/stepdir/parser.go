// Package stepdir parses the .step sweep directives that simulators
// write into log files and stepped waveform dump headers.
package stepdir

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
)

// Parser parses .step directive lines
type Parser struct {
	parser *participle.Parser[Directive]
}

// NewParser creates a new directive parser instance
func NewParser() (*Parser, error) {
	parser, err := participle.Build[Directive](
		participle.Lexer(stepLexer),
		participle.Elide("Whitespace"),
		participle.UseLookahead(2),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build parser: %w", err)
	}

	return &Parser{parser: parser}, nil
}

// ParseLine parses a single .step directive line
func (p *Parser) ParseLine(line string) (*Directive, error) {
	dir, err := p.parser.ParseString("", strings.TrimSpace(line))
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	return dir, nil
}

// IsDirective reports whether a line looks like a .step directive.
// Use it to filter lines before handing them to ParseLine.
func IsDirective(line string) bool {
	t := strings.ToLower(strings.TrimSpace(line))
	return strings.HasPrefix(t, ".step")
}
