package generate

import (
	"strings"
	"testing"

	"requitec/catalog"
	"requitec/depm"
	"requitec/report"
	"requitec/resolve"
	"requitec/syntax"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
)

// generateSources catalogs and lowers a binary built from inline sources.
func generateSources(t *testing.T, srcs ...string) (*depm.Binary, *Builder, error) {
	t.Helper()

	b := depm.NewBinary(64, "")
	for i, src := range srcs {
		ops, err := syntax.NewParser(strings.NewReader(src)).Parse()
		if err != nil {
			t.Fatalf("failed to parse source %d: %s", i, err)
		}

		b.AddModule(string(rune('a'+i))+".requite", ops)
	}

	if err := b.Assemble(); err != nil {
		t.Fatal(err)
	}

	r := resolve.NewResolver(b)
	if err := catalog.NewCataloger(b, r).CatalogBinary(); err != nil {
		t.Fatal(err)
	}

	builder := NewBuilder(b, r)
	return b, builder, builder.GenerateBinary()
}

func mustGenerate(t *testing.T, srcs ...string) (*depm.Binary, *Builder) {
	t.Helper()

	b, builder, err := generateSources(t, srcs...)
	if err != nil {
		t.Fatal(err)
	}

	return b, builder
}

func expectKind(t *testing.T, err error, kind report.ErrorKind) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected %s error, got success", kind)
	}

	if !report.IsKind(err, kind) {
		t.Fatalf("expected %s error, got: %s", kind, err)
	}
}

// funcNamed finds the generated function with a given mangled name.
func funcNamed(t *testing.T, m *ir.Module, name string) *ir.Func {
	t.Helper()

	for _, fn := range m.Funcs {
		if fn.Name() == name {
			return fn
		}
	}

	t.Fatalf("no function named %s", name)
	return nil
}

// procedureFunc finds the function generated for the only procedure of the
// first module with the given source name.
func procedureFunc(t *testing.T, b *depm.Binary, builder *Builder, name string) *ir.Func {
	t.Helper()

	m := b.Modules[0]
	for _, pid := range m.Procedures {
		if p := b.Procedure(pid); p.Name == name {
			return funcNamed(t, builder.IRModule(m), p.MangledName)
		}
	}

	t.Fatalf("no procedure named %s", name)
	return nil
}

// destructorCalls counts the calls to a destructor in each block of a
// function.  Blocks without calls are omitted.
func destructorCalls(fn *ir.Func, dtorName string) map[string]int {
	counts := make(map[string]int)
	for _, block := range fn.Blocks {
		for _, inst := range block.Insts {
			call, ok := inst.(*ir.InstCall)
			if !ok {
				continue
			}

			if callee, ok := call.Callee.(*ir.Func); ok && callee.Name() == dtorName {
				counts[block.Name()]++
			}
		}
	}

	return counts
}

func totalCalls(counts map[string]int) int {
	n := 0
	for _, c := range counts {
		n += c
	}

	return n
}

const resourceSource = `
[module a]
[object R [property n [builtin_integer signed 32] 0] [destructor]]
`

// destructorName returns the mangled name of the destructor of R.
func destructorName(t *testing.T, b *depm.Binary) string {
	t.Helper()

	for _, o := range b.Objects {
		if o.Name == "R" {
			if !o.HasDestructor() {
				t.Fatal("R has no destructor")
			}

			return b.Procedure(o.Destructor).MangledName
		}
	}

	t.Fatal("no object named R")
	return ""
}

// -----------------------------------------------------------------------------

// Test that reading a declared but unassigned local is an error.
func TestUnassignedVariable(t *testing.T) {
	_, _, err := generateSources(t, `
		[module a]
		[function f [builtin_integer signed 32] [arguments]
			[local x [builtin_integer signed 32]]
			[return x]]`)
	expectKind(t, err, report.UnassignedVariable)

	mustGenerate(t, `
		[module a]
		[function f [builtin_integer signed 32] [arguments]
			[local x [builtin_integer signed 32]]
			[= x 5]
			[return x]]`)
}

// Test that locals are declared once per visible scope.
func TestDuplicateLocal(t *testing.T) {
	_, _, err := generateSources(t, `
		[module a]
		[function f [arguments]
			[local x 1]
			[local x 2]]`)
	expectKind(t, err, report.DuplicateLocal)
}

// Test that the entry point returns zero when it falls off its end.
func TestEntryPointReturn(t *testing.T) {
	b, builder := mustGenerate(t, "[module a] [entry_point [local x 1]]")

	p := b.Procedure(b.EntryPoint)
	fn := funcNamed(t, builder.IRModule(b.Modules[0]), p.MangledName)

	last := fn.Blocks[len(fn.Blocks)-1]
	ret, ok := last.Term.(*ir.TermRet)
	if !ok {
		t.Fatalf("expected the last block to return, got %T", last.Term)
	}

	c, ok := ret.X.(*constant.Int)
	if !ok || c.X.Int64() != 0 {
		t.Errorf("expected ret i32 0, got %v", ret.X)
	}
}

// Test that a value-returning procedure must return on every path.
func TestMissingReturn(t *testing.T) {
	_, _, err := generateSources(t, `
		[module a]
		[function f [builtin_integer signed 32] [arguments [builtin_bool] c]
			[if c [return 1]]]`)
	expectKind(t, err, report.MissingReturn)

	mustGenerate(t, `
		[module a]
		[function f [builtin_integer signed 32] [arguments [builtin_bool] c]
			[if c [return 1]]
			[else [return 2]]]`)
}

// Test label placement errors.
func TestLabels(t *testing.T) {
	mustGenerate(t, `
		[module a]
		[function f [arguments]
			[go_to done]
			[local x 1]
			[label done]]`)

	_, _, err := generateSources(t, `
		[module a]
		[function f [arguments]
			[label done]
			[label done]]`)
	expectKind(t, err, report.DuplicateLabel)

	_, _, err = generateSources(t, "[module a] [function f [arguments] [go_to nowhere]]")
	expectKind(t, err, report.MissingLabel)
}

// Test that a switch lowers to a single switch terminator and that a switch
// with a default whose arms all return ends the procedure.
func TestSwitch(t *testing.T) {
	b, builder := mustGenerate(t, `
		[module a]
		[function s [builtin_integer signed 32] [arguments [builtin_integer signed 32] x]
			[switch x
				[case 1 [return 10]]
				[case 2 [return 20]]
				[default [return 0]]]]`)

	fn := procedureFunc(t, b, builder, "s")

	switches := 0
	for _, block := range fn.Blocks {
		if term, ok := block.Term.(*ir.TermSwitch); ok {
			switches++

			if len(term.Cases) != 2 {
				t.Errorf("expected 2 cases, got %d", len(term.Cases))
			}
		}
	}

	if switches != 1 {
		t.Fatalf("expected one switch terminator, got %d", switches)
	}

	_, _, err := generateSources(t, `
		[module a]
		[function s [arguments [builtin_integer signed 32] x]
			[switch x [case 1] [case 1]]]`)
	expectKind(t, err, report.InvalidOperation)
}

// Test that a local object is destroyed exactly once on a return path.
func TestAutodestructReturn(t *testing.T) {
	b, builder := mustGenerate(t, resourceSource+`
		[function f [arguments]
			[local r [construct R]]
			[return]]`)

	counts := destructorCalls(procedureFunc(t, b, builder, "f"), destructorName(t, b))
	if n := totalCalls(counts); n != 1 {
		t.Fatalf("expected one destructor call, got %d: %v", n, counts)
	}
}

// Test that a local object declared in a conditional arm is destroyed when
// the arm ends and not again at the end of the procedure.
func TestAutodestructConditional(t *testing.T) {
	b, builder := mustGenerate(t, resourceSource+`
		[function f [arguments [builtin_bool] c]
			[if c [local r [construct R]]]]`)

	counts := destructorCalls(procedureFunc(t, b, builder, "f"), destructorName(t, b))
	if n := totalCalls(counts); n != 1 {
		t.Fatalf("expected one destructor call, got %d: %v", n, counts)
	}

	for name := range counts {
		if !strings.HasPrefix(name, "if_then") {
			t.Errorf("expected the destructor call in the arm, got it in %s", name)
		}
	}
}

// Test that break destroys the locals of the loop body once.
func TestAutodestructBreak(t *testing.T) {
	b, builder := mustGenerate(t, resourceSource+`
		[function f [arguments]
			[infinite_loop
				[local r [construct R]]
				[break]]]`)

	counts := destructorCalls(procedureFunc(t, b, builder, "f"), destructorName(t, b))
	if n := totalCalls(counts); n != 1 {
		t.Fatalf("expected one destructor call, got %d: %v", n, counts)
	}
}

// Test that continue destroys the locals of the loop body once.
func TestAutodestructContinue(t *testing.T) {
	b, builder := mustGenerate(t, resourceSource+`
		[function f [arguments [builtin_bool] c]
			[while c
				[local r [construct R]]
				[continue]]]`)

	counts := destructorCalls(procedureFunc(t, b, builder, "f"), destructorName(t, b))
	if n := totalCalls(counts); n != 1 {
		t.Fatalf("expected one destructor call, got %d: %v", n, counts)
	}
}

// Test that temporaries of a loop condition are destroyed on every
// evaluation of the condition.
func TestAutodestructLoopCondition(t *testing.T) {
	b, builder := mustGenerate(t, resourceSource+`
		[function check [builtin_bool] [arguments R r [builtin_bool] c]
			[return c]]
		[function f [arguments [builtin_bool] c]
			[while check([construct R] c)]]`)

	counts := destructorCalls(procedureFunc(t, b, builder, "f"), destructorName(t, b))
	if n := totalCalls(counts); n != 1 {
		t.Fatalf("expected one destructor call, got %d: %v", n, counts)
	}

	for name := range counts {
		if !strings.HasPrefix(name, "while_continue") {
			t.Errorf("expected the destructor call in the condition, got it in %s", name)
		}
	}
}

// Test that locals marked no_autodestruct and arguments are never destroyed
// automatically.
func TestNoAutodestruct(t *testing.T) {
	b, builder := mustGenerate(t, resourceSource+`
		[function f [arguments R arg]
			[attributes no_autodestruct [local r [construct R]]]]`)

	counts := destructorCalls(procedureFunc(t, b, builder, "f"), destructorName(t, b))
	if n := totalCalls(counts); n != 0 {
		t.Fatalf("expected no destructor calls, got %d: %v", n, counts)
	}
}

// Test that an explicit destruction clears the value of the local.
func TestExplicitDestruct(t *testing.T) {
	b, builder := mustGenerate(t, resourceSource+`
		[function f [arguments]
			[local r [construct R]]
			[destruct r]]`)

	counts := destructorCalls(procedureFunc(t, b, builder, "f"), destructorName(t, b))
	if n := totalCalls(counts); n != 1 {
		t.Fatalf("expected one destructor call, got %d: %v", n, counts)
	}
}

// Test that procedures returning objects take a result pointer first.
func TestStructReturn(t *testing.T) {
	b, builder := mustGenerate(t, resourceSource+`
		[function make R [arguments]
			[return [construct R]]]`)

	fn := procedureFunc(t, b, builder, "make")
	if len(fn.Params) != 1 {
		t.Fatalf("expected a single result parameter, got %d", len(fn.Params))
	}

	last := fn.Blocks[len(fn.Blocks)-1]
	if ret, ok := last.Term.(*ir.TermRet); !ok || ret.X != nil {
		t.Errorf("expected ret void, got %v", last.Term)
	}
}

// Test that globals are defined with their constant initializers and that a
// non-constant initializer is rejected.
func TestGlobals(t *testing.T) {
	b, builder := mustGenerate(t, "[module a] [global g [builtin_integer signed 64] 7]")

	m := builder.IRModule(b.Modules[0])
	if len(m.Globals) != 1 {
		t.Fatalf("expected one global, got %d", len(m.Globals))
	}

	c, ok := m.Globals[0].Init.(*constant.Int)
	if !ok || c.X.Int64() != 7 {
		t.Errorf("expected initializer 7, got %v", m.Globals[0].Init)
	}

	_, _, err := generateSources(t, `
		[module a]
		[function f [builtin_integer signed 64] [arguments] [return 1]]
		[global g [builtin_integer signed 64] f()]`)
	expectKind(t, err, report.InvalidOperation)
}
