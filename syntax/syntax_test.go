package syntax

import (
	"bufio"
	"strings"
	"testing"

	"requitec/ast"
	"requitec/report"
)

func parseString(t *testing.T, src string) []*ast.Operation {
	t.Helper()

	ops, err := NewParser(strings.NewReader(src)).Parse()
	if err != nil {
		t.Fatalf("failed to parse %q: %s", src, err)
	}

	return ops
}

func bufioReader(src string) *bufio.Reader {
	return bufio.NewReader(strings.NewReader(src))
}

// Test that the lexer splits symbols by longest match.
func TestLexSymbols(t *testing.T) {
	l := NewLexer(bufioReader("<<= !! != /= / .:"))

	want := []string{"<<", "=", "!!", "!=", "/=", "/", ".", ":"}
	for _, w := range want {
		tok, err := l.NextToken()
		if err != nil {
			t.Fatal(err)
		}

		if tok.Value != w {
			t.Fatalf("expected token `%s`, got `%s`", w, tok.Value)
		}
	}

	if tok, _ := l.NextToken(); tok.Kind != TOK_EOF {
		t.Errorf("expected end of file, got %s", tok.describe())
	}
}

// Test lexing of literals and comments.
func TestLexLiterals(t *testing.T) {
	l := NewLexer(bufioReader("12 3.5 1.2.3 // line\n\"a\\\"b\" /* block ** */ 'c' word_9"))

	type expect struct {
		kind  int
		value string
	}

	want := []expect{
		{TOK_NUMBER, "12"},
		{TOK_DECIMAL, "3.5"},
		{TOK_DECIMAL, "1.2"},
		{TOK_DOT, "."},
		{TOK_NUMBER, "3"},
		{TOK_STRING, `"a\"b"`},
		{TOK_CODEUNIT, "'c'"},
		{TOK_WORD, "word_9"},
	}

	for _, w := range want {
		tok, err := l.NextToken()
		if err != nil {
			t.Fatal(err)
		}

		if tok.Kind != w.kind || tok.Value != w.value {
			t.Fatalf("expected %q (%d), got %q (%d)", w.value, w.kind, tok.Value, tok.Kind)
		}
	}
}

// Test token positions.
func TestTokenSpan(t *testing.T) {
	l := NewLexer(bufioReader("\n  abc"))

	tok, err := l.NextToken()
	if err != nil {
		t.Fatal(err)
	}

	want := report.TextSpan{StartLine: 1, StartCol: 2, EndLine: 1, EndCol: 5}
	if *tok.Span != want {
		t.Errorf("expected span %v, got %v", want, *tok.Span)
	}
}

// Test unterminated literals and comments.
func TestLexErrors(t *testing.T) {
	for _, src := range []string{`"abc`, `'a`, "/* never closed"} {
		l := NewLexer(bufioReader(src))
		if _, err := l.NextToken(); !report.IsKind(err, report.Syntax) {
			t.Errorf("expected syntax error for %q, got %v", src, err)
		}
	}
}

// Test parsing of a prefix operation.
func TestParseOperation(t *testing.T) {
	ops := parseString(t, "[+ a 1 2.5]")
	if len(ops) != 1 {
		t.Fatalf("expected 1 operation, got %d", len(ops))
	}

	op := ops[0]
	if op.Opcode != ast.Plus || len(op.Branches) != 3 {
		t.Fatalf("bad operation: %s with %d branches", op.Opcode, len(op.Branches))
	}

	if name, ok := ast.NameOf(op.Branches[0]); !ok || name != "a" {
		t.Error("expected identifier `a`")
	}

	if lit, ok := op.Branches[2].(*ast.Literal); !ok || lit.Kind != ast.NumberWithDecimal {
		t.Error("expected decimal literal")
	}
}

// Test infix and postfix forms.
func TestParseInfix(t *testing.T) {
	ops := parseString(t, "[return a.b.c(x y)]")

	call, ok := ops[0].Branches[0].(*ast.Operation)
	if !ok || call.Opcode != ast.Call || len(call.Branches) != 3 {
		t.Fatal("expected call with callee and two arguments")
	}

	access, ok := call.Branches[0].(*ast.Operation)
	if !ok || access.Opcode != ast.AccessMember || len(access.Branches) != 3 {
		t.Fatal("expected flattened member access chain")
	}

	ops = parseString(t, "[local p Point{1 2}] [return m:n]")
	if len(ops[0].Branches) != 2 {
		t.Fatalf("expected local with a name and a value, got %d branches", len(ops[0].Branches))
	}

	construct, ok := ops[0].Branches[1].(*ast.Operation)
	if !ok || construct.Opcode != ast.Construct || len(construct.Branches) != 3 {
		t.Fatal("expected construct with a type and two arguments")
	}

	if name, ok := ast.NameOf(construct.Branches[0]); !ok || name != "Point" {
		t.Error("expected constructed type `Point`")
	}

	if lit, ok := construct.Branches[2].(*ast.Literal); !ok || lit.Text != "2" {
		t.Error("expected second argument `2`")
	}

	if !ast.IsOperation(ops[1].Branches[0], ast.AccessTable) {
		t.Error("expected table access")
	}
}

// Test unary prefix operators.
func TestParseUnary(t *testing.T) {
	ops := parseString(t, "[global g **i]")

	ptr, ok := ops[0].Branches[1].(*ast.Operation)
	if !ok || ptr.Opcode != ast.Star {
		t.Fatal("expected pointer type")
	}

	if !ast.IsOperation(ptr.Branches[0], ast.Star) {
		t.Error("expected nested pointer type")
	}
}

// Test attribute lists.
func TestParseAttributes(t *testing.T) {
	ops := parseString(t, "[packed], [mangled_name \"x\"], [object P]")
	if ops[0].Opcode != ast.Attributes || len(ops[0].Branches) != 3 {
		t.Fatal("expected flattened attribute list")
	}

	decl, attrs := ast.UnwrapAttributes(ops[0])
	if decl.Opcode != ast.Object || !attrs.Has(ast.Packed) || !attrs.Has(ast.MangledName) {
		t.Error("bad attribute unwrapping")
	}
}

// Test that if, else_if and else form one condition.
func TestParseCondition(t *testing.T) {
	ops := parseString(t, `
		[function f [arguments]
			[if c [return 1]]
			[else_if d [return 2]]
			[else [return 3]]
			[return 4]
		]
	`)

	fn := ops[0]
	if len(fn.Branches) != 4 {
		t.Fatalf("expected 4 branches, got %d", len(fn.Branches))
	}

	cond, ok := fn.Branches[2].(*ast.Operation)
	if !ok || cond.Opcode != ast.Condition || len(cond.Branches) != 3 {
		t.Fatal("expected condition with if, else_if and else")
	}

	if !ast.IsOperation(cond.Branches[0], ast.If) || !ast.IsOperation(cond.Branches[2], ast.Else) {
		t.Error("bad condition branches")
	}
}

// Test syntax errors.
func TestParseErrors(t *testing.T) {
	cases := []string{
		"word",
		"12",
		"[not_an_opcode]",
		"[12 a]",
		"[+ a b",
		"[+ a )]",
	}

	for _, src := range cases {
		_, err := NewParser(strings.NewReader(src)).Parse()
		if !report.IsKind(err, report.Syntax) {
			t.Errorf("expected syntax error for %q, got %v", src, err)
		}
	}
}
