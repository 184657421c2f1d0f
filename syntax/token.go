package syntax

import "requitec/report"

// Token represents a single lexical token.
type Token struct {
	// The kind of the token.  This must be one of the enumerated token kinds.
	Kind int

	// The string value of the token.  Quoted literals keep their quotes.
	Value string

	// The text span over which the token exists.
	Span *report.TextSpan
}

// Enumeration of token kinds.
const (
	TOK_WORD = iota
	TOK_NUMBER
	TOK_DECIMAL
	TOK_STRING
	TOK_CODEUNIT

	// Any operator symbol: `+`, `<<=`, `!!`, etc.
	TOK_OPERATOR

	TOK_DOT
	TOK_COLON
	TOK_COMMA

	TOK_LBRACKET
	TOK_RBRACKET
	TOK_LPAREN
	TOK_RPAREN
	TOK_LBRACE
	TOK_RBRACE

	TOK_EOF
)

// tokenNames is used to display token kinds in error messages.
var tokenNames = map[int]string{
	TOK_WORD:     "word",
	TOK_NUMBER:   "number",
	TOK_DECIMAL:  "number",
	TOK_STRING:   "string",
	TOK_CODEUNIT: "codeunit",
	TOK_OPERATOR: "operator",
	TOK_DOT:      "`.`",
	TOK_COLON:    "`:`",
	TOK_COMMA:    "`,`",
	TOK_LBRACKET: "`[`",
	TOK_RBRACKET: "`]`",
	TOK_LPAREN:   "`(`",
	TOK_RPAREN:   "`)`",
	TOK_LBRACE:   "`{`",
	TOK_RBRACE:   "`}`",
	TOK_EOF:      "end of file",
}

// describe returns a short human readable description of the token.
func (tok *Token) describe() string {
	switch tok.Kind {
	case TOK_WORD, TOK_OPERATOR:
		return "`" + tok.Value + "`"
	default:
		return tokenNames[tok.Kind]
	}
}
