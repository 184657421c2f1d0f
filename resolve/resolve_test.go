package resolve

import (
	"strings"
	"testing"

	"requitec/ast"
	"requitec/depm"
	"requitec/report"
	"requitec/syntax"
	"requitec/types"
)

// testLocals is a fixed set of locals.
type testLocals map[string]types.Type

func (tl testLocals) LocalType(name string) (types.Type, bool) {
	t, ok := tl[name]
	return t, ok
}

func newTestResolver() (*Resolver, *depm.Binary, *depm.Module) {
	b := depm.NewBinary(64, "")
	m := b.AddModule("t.requite", nil)
	r := NewResolver(b)
	r.EnterModule(m)
	return r, b, m
}

// parseExpr parses a single expression.
func parseExpr(t *testing.T, src string) ast.Expression {
	t.Helper()

	ops, err := syntax.NewParser(strings.NewReader("[return " + src + "]")).Parse()
	if err != nil {
		t.Fatalf("failed to parse %q: %s", src, err)
	}

	return ops[0].Branches[0]
}

func addFunction(t *testing.T, b *depm.Binary, m *depm.Module, name string, args ...types.Type) depm.ProcedureID {
	t.Helper()

	p := &depm.Procedure{
		Name:        name,
		Category:    depm.CategoryFunction,
		ReturnType:  types.VoidType,
		Object:      depm.NoObject,
		Module:      m.ID,
		ExportGroup: depm.None,
	}

	for _, arg := range args {
		p.Args = append(p.Args, depm.Argument{Name: "a", Type: arg})
	}

	pid := b.AddProcedure(p)
	if err := b.AddProcedureToTable(m.Table, pid); err != nil {
		t.Fatal(err)
	}

	return pid
}

var (
	i8Type  = types.New(types.Integer{Signed: true, BitDepth: 8})
	i64Type = types.New(types.Integer{Signed: true, BitDepth: 64})
	u8Type  = types.New(types.Integer{Signed: false, BitDepth: 8})
	f32Type = types.New(types.FloatingPoint{Kind: types.FloatBinarySingle})
	f64Type = types.New(types.FloatingPoint{Kind: types.FloatBinaryDouble})
)

func literalType(t *testing.T, text string, kind ast.LiteralKind) types.Type {
	t.Helper()

	lt, err := types.FromLiteral(ast.NewLiteral(text, kind, nil))
	if err != nil {
		t.Fatal(err)
	}

	return lt
}

// -----------------------------------------------------------------------------

// Test resolution of builtin and layered types.
func TestResolveType(t *testing.T) {
	r, _, _ := newTestResolver()

	pa, err := r.ResolveType(parseExpr(t, "*[builtin_array [builtin_integer signed 32] 4]"), false)
	if err != nil {
		t.Fatal(err)
	}

	if !pa.IsPointer() {
		t.Fatalf("expected pointer outermost, got %s", pa.Repr())
	}

	if inner := pa.Dereference(); !inner.IsArray() || inner.ArraySize() != 4 {
		t.Errorf("expected pointer to array of 4, got %s", pa.Repr())
	}

	if elem := pa.Dereference().Dereference(); !types.Equal(elem, types.I32Type) {
		t.Errorf("expected i32 elements, got %s", elem.Repr())
	}

	mp, err := r.ResolveType(parseExpr(t, "!*[builtin_integer unsigned 8]"), false)
	if err != nil {
		t.Fatal(err)
	}

	if !mp.IsMutable() || mp.Dereference().IsMutable() {
		t.Errorf("expected only the pointer to be mutable: %s", mp.Repr())
	}

	bt, err := r.ResolveType(parseExpr(t, "builtin_bool"), false)
	if err != nil || !bt.IsBool() {
		t.Errorf("expected bool, got %s (%v)", bt.Repr(), err)
	}

	if _, err := r.ResolveType(parseExpr(t, "[builtin_integer signed 33]"), false); !report.IsKind(err, report.UnresolvedType) {
		t.Errorf("expected invalid bit depth error, got %v", err)
	}

	if _, err := r.ResolveType(parseExpr(t, "[builtin_codeunit ebcdic]"), false); !report.IsKind(err, report.UnresolvedType) {
		t.Errorf("expected unknown encoding error, got %v", err)
	}
}

// Test that failable resolution of a non-type yields the empty type.
func TestResolveTypeCanFail(t *testing.T) {
	r, _, _ := newTestResolver()

	for _, src := range []string{"x", "5", "[+ a b]", "*p"} {
		rt, err := r.ResolveType(parseExpr(t, src), true)
		if err != nil {
			t.Errorf("unexpected error for %q: %s", src, err)
		} else if !rt.IsEmpty() {
			t.Errorf("expected empty type for %q, got %s", src, rt.Repr())
		}
	}

	if _, err := r.ResolveType(parseExpr(t, "x"), false); !report.IsKind(err, report.UnresolvedSymbol) {
		t.Errorf("expected unresolved symbol, got %v", err)
	}
}

// Test that object names and aliases resolve as types.
func TestResolveSymbolType(t *testing.T) {
	r, b, m := newTestResolver()

	oid := b.AddObject(&depm.Object{Name: "Point", Module: m.ID, ExportGroup: depm.None})
	if err := m.Table.Define("Point", depm.Symbol{Kind: depm.SymObject, ID: int(oid)}); err != nil {
		t.Fatal(err)
	}

	aid := b.AddAlias(&depm.TypeAlias{Name: "Ptr", Type: b.ObjectType(oid).AddPointer(), Module: m.ID, Object: depm.NoObject})
	if err := m.Table.Define("Ptr", depm.Symbol{Kind: depm.SymTypeAlias, ID: int(aid)}); err != nil {
		t.Fatal(err)
	}

	at, err := r.ResolveType(parseExpr(t, "*Ptr"), false)
	if err != nil {
		t.Fatal(err)
	}

	if !at.IsTypeAlias() {
		t.Fatalf("expected alias root, got %s", at.Repr())
	}

	ct, err := r.Concrete(at)
	if err != nil {
		t.Fatal(err)
	}

	if !types.Equal(ct, b.ObjectType(oid).AddPointer().AddPointer()) {
		t.Errorf("expected **Point, got %s", ct.Repr())
	}

	addFunction(t, b, m, "f")
	if _, err := r.ResolveType(parseExpr(t, "f"), false); !report.IsKind(err, report.UnresolvedType) {
		t.Errorf("expected procedure to not be a type, got %v", err)
	}
}

// Test lookups through export groups and table accesses.
func TestLookupChain(t *testing.T) {
	r, b, m := newTestResolver()

	eg, err := b.ExportGroupOf("std", depm.None)
	if err != nil {
		t.Fatal(err)
	}

	pid := b.AddProcedure(&depm.Procedure{
		Name:        "puts",
		Category:    depm.CategoryExternalFunction,
		Object:      depm.NoObject,
		Module:      m.ID,
		ExportGroup: eg,
	})

	if err := b.AddProcedureToTable(b.ExportGroup(eg).Table, pid); err != nil {
		t.Fatal(err)
	}

	addFunction(t, b, m, "local_fn")

	if _, ok := r.LookupSymbol("puts"); ok {
		t.Error("`puts` should not be visible outside its export group")
	}

	restore := r.EnterExportGroup(eg)
	if _, ok := r.LookupSymbol("puts"); !ok {
		t.Error("expected `puts` inside its export group")
	}

	if _, ok := r.LookupSymbol("local_fn"); !ok {
		t.Error("expected module symbols inside an export group")
	}
	restore()

	if r.ExportGroup() != depm.None {
		t.Error("expected restore to leave the export group")
	}

	gid, err := r.ProcedureGroupOf(parseExpr(t, "std:puts"), nil)
	if err != nil {
		t.Fatal(err)
	}

	if b.Group(gid).Overloads[0] != pid {
		t.Error("table access found the wrong group")
	}

	if _, err := r.ProcedureGroupOf(parseExpr(t, "std:local_fn"), nil); !report.IsKind(err, report.UnresolvedSymbol) {
		t.Errorf("expected accessed table lookups to be strict, got %v", err)
	}

	if _, err := r.ProcedureGroupOf(parseExpr(t, "local_fn:x"), nil); !report.IsKind(err, report.UnresolvedSymbol) {
		t.Errorf("expected procedure to have no table, got %v", err)
	}
}

// -----------------------------------------------------------------------------

// Test the assignability partial order of literal types.
func TestAssignability(t *testing.T) {
	intLit := literalType(t, "5", ast.Number)
	floatLit := literalType(t, "2.5", ast.NumberWithDecimal)
	strLit := literalType(t, `"hi"`, ast.String)

	cases := []struct {
		from, to types.Type
		want     bool
	}{
		{intLit, types.I32Type, true},
		{intLit, i64Type, true},
		{intLit, i8Type, false},
		{intLit, f32Type, true},
		{intLit, types.I32Type.AddPointer(), false},
		{intLit, types.BoolType, false},
		{floatLit, f64Type, true},
		{floatLit, i64Type, false},
		{types.I32Type, i64Type, false},
		{types.I32Type, types.I32Type, true},
		{types.NullType, types.I32Type.AddPointer(), true},
		{types.NullType, types.I32Type, false},
		{strLit, types.New(types.Codeunit{Encoding: types.UTF8}).AddPointer(), true},
		{strLit, types.New(types.Codeunit{Encoding: types.UTF16}).AddPointer(), false},
		{types.I32Type.AddArray(4), types.I32Type.AddArray(3), false},
	}

	for _, c := range cases {
		if got := IsAssignable(c.from, c.to); got != c.want {
			t.Errorf("IsAssignable(%s, %s) = %v, want %v", c.from.Repr(), c.to.Repr(), got, c.want)
		}
	}

	if err := CheckAssignable(floatLit, i64Type, nil); !report.IsKind(err, report.TypeMismatch) {
		t.Errorf("expected type mismatch, got %v", err)
	}
}

// Test unification of operand types.
func TestUnifyTypes(t *testing.T) {
	intLit := literalType(t, "5", ast.Number)
	wideLit := literalType(t, "12345678901", ast.Number)
	floatLit := literalType(t, "2.5", ast.NumberWithDecimal)

	cases := []struct {
		a, b, want types.Type
	}{
		{intLit, floatLit, floatLit},
		{floatLit, intLit, floatLit},
		{intLit, wideLit, wideLit},
		{intLit, i64Type, i64Type},
		{f64Type, intLit, f64Type},
		{types.I32Type, types.I32Type.WithMutable(true), types.I32Type},
	}

	for _, c := range cases {
		got, err := UnifyTypes(c.a, c.b)
		if err != nil {
			t.Errorf("unexpected error unifying %s and %s: %s", c.a.Repr(), c.b.Repr(), err)
		} else if !types.Equal(got, c.want) {
			t.Errorf("unify(%s, %s) = %s, want %s", c.a.Repr(), c.b.Repr(), got.Repr(), c.want.Repr())
		}
	}

	if _, err := UnifyTypes(i8Type, intLit); !report.IsKind(err, report.NoCommonType) {
		t.Errorf("expected no common type, got %v", err)
	}

	if _, err := UnifyTypes(types.I32Type, i64Type); !report.IsKind(err, report.NoCommonType) {
		t.Errorf("expected no common type, got %v", err)
	}
}

// Test type deduction of expressions.
func TestDeduceType(t *testing.T) {
	r, b, m := newTestResolver()

	oid := b.AddObject(&depm.Object{Name: "Point", Module: m.ID, ExportGroup: depm.None})
	if _, err := b.AddProperty(&depm.Property{Name: "x", Type: i64Type, Object: oid}); err != nil {
		t.Fatal(err)
	}

	locals := testLocals{
		"p": b.ObjectType(oid).AddPointer(),
		"n": u8Type,
		"w": i64Type,
		"a": types.I32Type.AddArray(3),
	}

	cases := []struct {
		src  string
		want types.Type
	}{
		{"p.x", i64Type},
		{"[+ w 1]", i64Type},
		{"[< n 2]", types.BoolType},
		{"[index_into a 0]", types.I32Type},
		{"[address_of n]", u8Type.AddPointer()},
		{"[dereference p]", b.ObjectType(oid)},
		{"[pointer_depth]", r.UptrType()},
	}

	for _, c := range cases {
		got, err := r.DeduceType(parseExpr(t, c.src), locals)
		if err != nil {
			t.Errorf("unexpected error deducing %q: %s", c.src, err)
		} else if !types.Equal(got, c.want) {
			t.Errorf("deduce(%q) = %s, want %s", c.src, got.Repr(), c.want.Repr())
		}
	}

	if _, err := r.DeduceType(parseExpr(t, "missing"), locals); !report.IsKind(err, report.UnresolvedSymbol) {
		t.Errorf("expected unresolved variable, got %v", err)
	}

	if _, err := r.DeduceType(parseExpr(t, "p.y"), locals); !report.IsKind(err, report.UnresolvedSymbol) {
		t.Errorf("expected missing property, got %v", err)
	}

	if _, err := r.DeduceType(parseExpr(t, "[+ n 2.5]"), locals); !report.IsKind(err, report.NoCommonType) {
		t.Errorf("expected no common type, got %v", err)
	}
}

// -----------------------------------------------------------------------------

// Test that overloads are selected by arity.
func TestBestOverloadArity(t *testing.T) {
	r, b, m := newTestResolver()

	addFunction(t, b, m, "f", types.I32Type)
	two := addFunction(t, b, m, "f", types.I32Type, types.I32Type)

	pid, err := r.CallProcedure(parseExpr(t, "f(1 2)").(*ast.Operation), nil)
	if err != nil {
		t.Fatal(err)
	}

	if pid != two {
		t.Errorf("expected the two argument overload")
	}

	if _, err := r.CallProcedure(parseExpr(t, "f(1 2 3)").(*ast.Operation), nil); !report.IsKind(err, report.NoMatchingOverload) {
		t.Errorf("expected no matching overload, got %v", err)
	}
}

// Test that more than one accepting overload is an error.
func TestBestOverloadAmbiguous(t *testing.T) {
	r, b, m := newTestResolver()

	addFunction(t, b, m, "f", types.I32Type, types.I32Type)
	addFunction(t, b, m, "f", i64Type, i64Type)

	call := parseExpr(t, "f(1 2)").(*ast.Operation)
	if _, err := r.CallProcedure(call, nil); !report.IsKind(err, report.AmbiguousOverload) {
		t.Fatalf("expected ambiguous overload, got %v", err)
	}

	// concrete arguments only match one overload
	locals := testLocals{"x": i64Type}
	if _, err := r.CallProcedure(parseExpr(t, "f(x x)").(*ast.Operation), locals); err != nil {
		t.Errorf("expected exact match, got %v", err)
	}
}

// Test that overload resolution is deterministic.
func TestBestOverloadDeterministic(t *testing.T) {
	r, b, m := newTestResolver()

	addFunction(t, b, m, "g", f64Type)
	addFunction(t, b, m, "g", types.I32Type, types.BoolType)
	vpid := addFunction(t, b, m, "g", types.I32Type, types.I32Type)
	b.Procedure(vpid).HasVariadicArgs = true

	gid, _ := m.Table.LookupKind("g", depm.SymGroup)
	args := []types.Type{types.I32Type, types.I32Type, f64Type}

	first, err := r.BestOverload(depm.GroupID(gid), args, nil)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 5; i++ {
		if again, err := r.BestOverload(depm.GroupID(gid), args, nil); err != nil || again != first {
			t.Fatalf("overload resolution changed on call %d", i)
		}
	}

	if first != vpid {
		t.Errorf("expected the variadic overload")
	}
}

// Test detection of duplicate overloads.
func TestCheckOverloadIsUnique(t *testing.T) {
	r, b, m := newTestResolver()

	addFunction(t, b, m, "h", types.I32Type)
	other := addFunction(t, b, m, "h", i64Type)
	if err := r.CheckOverloadIsUnique(other); err != nil {
		t.Fatal(err)
	}

	dup := addFunction(t, b, m, "h", types.I32Type)
	if err := r.CheckOverloadIsUnique(dup); !report.IsKind(err, report.DuplicateOverload) {
		t.Errorf("expected duplicate overload, got %v", err)
	}
}

// -----------------------------------------------------------------------------

// Test evaluation of integer constants.
func TestIntegerConstant(t *testing.T) {
	r, _, _ := newTestResolver()

	n, err := r.IntegerConstant(parseExpr(t, "-5"), i8Type)
	if err != nil {
		t.Fatal(err)
	} else if n.Int64() != -5 {
		t.Errorf("expected -5, got %s", n)
	}

	n, err = r.IntegerConstant(parseExpr(t, "[- [- 127]]"), i8Type)
	if err != nil || n.Int64() != 127 {
		t.Errorf("expected 127, got %v (%v)", n, err)
	}

	if _, err := r.IntegerConstant(parseExpr(t, "300"), u8Type); !report.IsKind(err, report.LiteralTooLarge) {
		t.Errorf("expected literal too large, got %v", err)
	}

	if _, err := r.IntegerConstant(parseExpr(t, "-1"), u8Type); !report.IsKind(err, report.LiteralTooLarge) {
		t.Errorf("expected negative unsigned to be rejected, got %v", err)
	}

	n, err = r.IntegerConstant(parseExpr(t, "[pointer_depth]"), r.UptrType())
	if err != nil || n.Int64() != 64 {
		t.Errorf("expected pointer depth 64, got %v (%v)", n, err)
	}

	if _, err := r.IntegerConstant(parseExpr(t, "[pointer_depth]"), i8Type); !report.IsKind(err, report.TypeMismatch) {
		t.Errorf("expected pointer depth type mismatch, got %v", err)
	}
}

// Test bit depths of layered types.
func TestBitDepth(t *testing.T) {
	r, _, _ := newTestResolver()

	cases := []struct {
		t    types.Type
		want int
	}{
		{types.I32Type, 32},
		{types.I32Type.AddArray(4), 128},
		{types.I32Type.AddArray(4).AddPointer(), 64},
		{types.I32Type.AddArray(2).AddArray(3), 192},
		{types.BoolType, 8},
	}

	for _, c := range cases {
		if got := r.BitDepth(c.t); got != c.want {
			t.Errorf("BitDepth(%s) = %d, want %d", c.t.Repr(), got, c.want)
		}
	}
}
