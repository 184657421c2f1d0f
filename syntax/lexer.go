package syntax

import (
	"bufio"
	"io"
	"strings"

	"requitec/report"
)

// Lexer is responsible for tokenizing a source file.
type Lexer struct {
	file    *bufio.Reader
	tokBuff *strings.Builder

	line, col           int
	startLine, startCol int
}

// NewLexer creates a new lexer for the given source file.
func NewLexer(file *bufio.Reader) *Lexer {
	return &Lexer{
		file:    file,
		tokBuff: &strings.Builder{},
	}
}

// NextToken retrieves the next token from the input file. If the file has
// ended, this will be an EOF token.
func (l *Lexer) NextToken() (*Token, error) {
	for {
		c, err := l.peek()
		if err != nil {
			return nil, err
		} else if c == -1 {
			break
		}

		switch c {
		case '\n', '\t', ' ', '\r', '\v', '\f':
			l.skip()
		case '/':
			if tok, err := l.lexCommentOrDivide(); tok != nil || err != nil {
				return tok, err
			}
		case '"':
			return l.lexQuotedLit('"', TOK_STRING)
		case '\'':
			return l.lexQuotedLit('\'', TOK_CODEUNIT)
		default:
			if isDecimalDigit(c) {
				return l.lexNumber()
			} else if isFirstWordChar(c) {
				return l.lexWord()
			} else {
				return l.lexSymbol()
			}
		}
	}

	l.mark()
	return l.makeToken(TOK_EOF), nil
}

// -----------------------------------------------------------------------------

// symbolPatterns maps symbol strings (patterns) to their token kind.
var symbolPatterns = map[string]int{
	"+":  TOK_OPERATOR,
	"+=": TOK_OPERATOR,
	"-":  TOK_OPERATOR,
	"-=": TOK_OPERATOR,
	"*":  TOK_OPERATOR,
	"*=": TOK_OPERATOR,
	// Division operators are handled with comment logic.
	"%":  TOK_OPERATOR,
	"%=": TOK_OPERATOR,

	"=":  TOK_OPERATOR,
	"==": TOK_OPERATOR,
	"!":  TOK_OPERATOR,
	"!=": TOK_OPERATOR,
	"!!": TOK_OPERATOR,

	"^":  TOK_OPERATOR,
	"^=": TOK_OPERATOR,
	"&":  TOK_OPERATOR,
	"&=": TOK_OPERATOR,
	"&&": TOK_OPERATOR,
	"|":  TOK_OPERATOR,
	"|=": TOK_OPERATOR,
	"||": TOK_OPERATOR,

	"<":  TOK_OPERATOR,
	"<=": TOK_OPERATOR,
	"<<": TOK_OPERATOR,
	">":  TOK_OPERATOR,
	">=": TOK_OPERATOR,
	">>": TOK_OPERATOR,

	"?": TOK_OPERATOR,
	"#": TOK_OPERATOR,
	"@": TOK_OPERATOR,

	".": TOK_DOT,
	":": TOK_COLON,
	",": TOK_COMMA,

	"[": TOK_LBRACKET,
	"]": TOK_RBRACKET,
	"(": TOK_LPAREN,
	")": TOK_RPAREN,
	"{": TOK_LBRACE,
	"}": TOK_RBRACE,
}

// lexSymbol lexes an operator or punctuation symbol.  The longest matching
// pattern is always taken.
func (l *Lexer) lexSymbol() (*Token, error) {
	l.mark()
	l.eat()

	kind, ok := symbolPatterns[l.tokBuff.String()]
	if !ok {
		return nil, report.Raise(report.Syntax, l.getSpan(), "unexpected character: `%s`", l.tokBuff.String())
	}

	for {
		c, err := l.peek()
		if err != nil {
			return nil, err
		}

		if c == -1 {
			break
		}

		if _kind, ok := symbolPatterns[l.tokBuff.String()+string(c)]; ok {
			l.eat()
			kind = _kind
		} else {
			break
		}
	}

	return l.makeToken(kind), nil
}

// lexWord lexes a word: an identifier or an opcode name.
func (l *Lexer) lexWord() (*Token, error) {
	l.mark()
	l.eat()

	for {
		c, err := l.peek()
		if err != nil {
			return nil, err
		} else if !isFirstWordChar(c) && !isDecimalDigit(c) {
			break
		}

		l.eat()
	}

	return l.makeToken(TOK_WORD), nil
}

// lexNumber lexes a number.  A number may contain at most one decimal point.
func (l *Lexer) lexNumber() (*Token, error) {
	l.mark()
	l.eat()

	kind := TOK_NUMBER
	for {
		c, err := l.peek()
		if err != nil {
			return nil, err
		}

		if c == '.' {
			if kind == TOK_DECIMAL {
				break
			}

			kind = TOK_DECIMAL
		} else if !isDecimalDigit(c) {
			break
		}

		l.eat()
	}

	return l.makeToken(kind), nil
}

// lexQuotedLit lexes a string or codeunit literal.  The quotes and any escape
// sequences are kept as they appear in the source.
func (l *Lexer) lexQuotedLit(quote rune, kind int) (*Token, error) {
	l.mark()
	l.eat()

	for {
		c, err := l.eat()
		if err != nil {
			return nil, err
		}

		switch c {
		case -1:
			return nil, report.Raise(report.Syntax, l.getSpan(), "quoted literal must terminate")
		case '\\':
			c, err = l.eat()
			if err != nil {
				return nil, err
			} else if c == -1 {
				return nil, report.Raise(report.Syntax, l.getSpan(), "quoted literal must terminate")
			}
		case quote:
			return l.makeToken(kind), nil
		}
	}
}

// lexCommentOrDivide lexes a comment or a division operator.  If a comment is
// skipped, no token is returned.
func (l *Lexer) lexCommentOrDivide() (*Token, error) {
	l.mark()
	l.skip()

	c, err := l.peek()
	if err != nil {
		return nil, err
	}

	switch c {
	case '/':
		for ; err == nil && c != '\n' && c != -1; c, err = l.skip() {
		}

		return nil, err
	case '*':
		l.skip()

		var prev rune
		for {
			c, err = l.skip()
			if err != nil {
				return nil, err
			} else if c == -1 {
				return nil, report.Raise(report.Syntax, l.getSpan(), "multi-line comment must terminate")
			} else if prev == '*' && c == '/' {
				return nil, nil
			}

			prev = c
		}
	case '=':
		l.skip()
		l.tokBuff.WriteString("/=")
	default:
		l.tokBuff.WriteRune('/')
	}

	return l.makeToken(TOK_OPERATOR), nil
}

// -----------------------------------------------------------------------------

// mark sets the lexer's stored start line and column to its current position.
func (l *Lexer) mark() {
	l.startLine = l.line
	l.startCol = l.col
}

// makeToken produces a new token of the given kind from the lexer's state and
// resets the lexer to begin building the next token.
func (l *Lexer) makeToken(kind int) *Token {
	value := l.tokBuff.String()
	l.tokBuff.Reset()

	return &Token{
		Kind:  kind,
		Value: value,
		Span:  l.getSpan(),
	}
}

// getSpan calculates a text span based on the lexer's current state.
func (l *Lexer) getSpan() *report.TextSpan {
	return &report.TextSpan{
		StartLine: l.startLine,
		StartCol:  l.startCol,
		EndLine:   l.line,
		EndCol:    l.col,
	}
}

// eat moves the lexer forward one rune and writes the rune to the token buffer.
// If the lexer encounters an EOF, -1 is returned as the rune value.
func (l *Lexer) eat() (rune, error) {
	c, err := l.skip()
	if err == nil && c != -1 {
		l.tokBuff.WriteRune(c)
	}

	return c, err
}

// skip moves the lexer forward one rune but does not write the rune to the
// token buffer.  If the lexer encounters an EOF, -1 is returned as the rune
// value.
func (l *Lexer) skip() (rune, error) {
	c, _, err := l.file.ReadRune()
	if err != nil {
		if err == io.EOF {
			return -1, nil
		}

		return 0, err
	}

	l.updatePos(c)

	return c, nil
}

// peek returns the next rune in the file without moving the lexer forward or
// writing the rune to the token buffer.  If the lexer encounters an EOF, -1 is
// returned as rune value.
func (l *Lexer) peek() (rune, error) {
	c, _, err := l.file.ReadRune()
	if err != nil {
		if err == io.EOF {
			return -1, nil
		}

		return 0, err
	}

	if err = l.file.UnreadRune(); err != nil {
		return 0, err
	}

	return c, nil
}

// updatePos updates the lexer's position based on input character.
func (l *Lexer) updatePos(c rune) {
	if c == '\n' {
		l.line++
		l.col = 0
	} else {
		l.col++
	}
}

// -----------------------------------------------------------------------------

// isDecimalDigit returns whether c is a decimal digit.
func isDecimalDigit(c rune) bool {
	return '0' <= c && c <= '9'
}

// isFirstWordChar returns whether c could be the first rune of a word.
func isFirstWordChar(c rune) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || c == '_'
}
