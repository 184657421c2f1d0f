package types

import (
	"strings"
	"testing"

	"requitec/ast"
	"requitec/report"
)

type aliasMap map[AliasID]Type

func (am aliasMap) AliasTarget(id AliasID) Type {
	return am[id]
}

// Test literal type inference.
func TestFromLiteral(t *testing.T) {
	cases := []struct {
		text     string
		kind     ast.LiteralKind
		bitDepth int
	}{
		{"0", ast.Number, 32},
		{"12345678", ast.Number, 32},
		{"123456789", ast.Number, 64},
		{strings.Repeat("9", 17), ast.Number, 64},
		{strings.Repeat("9", 18), ast.Number, 128},
		{strings.Repeat("9", 40), ast.Number, 256},
	}

	for _, c := range cases {
		typ, err := FromLiteral(ast.NewLiteral(c.text, c.kind, nil))
		if err != nil {
			t.Fatal(err)
		}

		it, ok := typ.Root.(Integer)
		if !ok || !it.Signed || it.BitDepth != c.bitDepth {
			t.Errorf("%s: expected i%d, got %s", c.text, c.bitDepth, typ.Repr())
		}

		if !typ.IsLiteral() {
			t.Errorf("%s: expected literal type", c.text)
		}
	}

	typ, _ := FromLiteral(ast.NewLiteral("1.5", ast.NumberWithDecimal, nil))
	if typ.Root != (FloatingPoint{Kind: FloatBinarySingle}) {
		t.Errorf("expected binary_single, got %s", typ.Repr())
	}

	typ, _ = FromLiteral(ast.NewLiteral(`"hi"`, ast.String, nil))
	if !typ.IsPointerToCodeunit() || typ.IsLiteral() {
		t.Errorf("strings are pointers to codeunits, got %s", typ.Repr())
	}

	typ, _ = FromLiteral(ast.NewLiteral(`'a'`, ast.Codeunit, nil))
	if !typ.IsCodeunit() {
		t.Errorf("expected codeunit, got %s", typ.Repr())
	}

	_, err := FromLiteral(ast.NewLiteral(strings.Repeat("1", 2525222), ast.Number, nil))
	if !report.IsKind(err, report.LiteralTooLarge) {
		t.Errorf("expected literal too large, got %v", err)
	}
}

// Test the layer predicates.
func TestLayers(t *testing.T) {
	i8 := New(Integer{Signed: true, BitDepth: 8})

	p := i8.AddPointer()
	if !p.IsPointer() || p.IsInteger() || !p.IsValueType() {
		t.Fatal("bad pointer type")
	}

	arr := p.AddArray(4)
	if !arr.IsArray() || arr.IsPointer() || arr.ArraySize() != 4 || !arr.IsStoreType() {
		t.Fatal("bad array type")
	}

	if d := arr.Dereference(); !Equal(d, p) {
		t.Fatalf("expected %s, got %s", p.Repr(), d.Repr())
	}

	if len(p.Subtypes) != 1 {
		t.Error("transformations must not change their receiver")
	}

	if !NullType.IsPointer() || !NullType.IsNull() {
		t.Error("null is a pointer")
	}

	obj := New(ObjectRoot{ID: 0, Name: "Point"})
	if !obj.IsStoreType() || !obj.AddPointer().IsValueType() {
		t.Error("objects are store types and pointers to them are value types")
	}

	m := p.WithMutable(true)
	if !m.IsMutable() || p.IsMutable() || m.Qualifiers.Has(QualMutable) {
		t.Error("mutability applies to the outermost layer")
	}
}

// Test equivalence ignores literals but respects mutability.
func TestEquivalent(t *testing.T) {
	lit, _ := FromLiteral(ast.NewLiteral("1", ast.Number, nil))
	if !Equivalent(lit, I32Type) || Equal(lit, I32Type) {
		t.Error("literal-ness is ignored only by equivalence")
	}

	if !Equal(lit.ClearLiterals(), I32Type) {
		t.Error("clearing literals should yield i32")
	}

	a := I32Type.AddPointer().WithMutable(true)
	b := I32Type.AddPointer()
	if Equivalent(a, b) {
		t.Error("mutability must match layer for layer")
	}
}

// Test alias chains resolve to their final root with composed qualifiers.
func TestResolveAliasChain(t *testing.T) {
	i32 := I32Type
	aliases := aliasMap{
		0: i32.AddPointer(), // A = *i32
		1: New(AliasRoot{ID: 0, Name: "A"}).WithVolatile(true), // B = ?A
		2: New(AliasRoot{ID: 1, Name: "B"}), // C = B
	}

	c := New(AliasRoot{ID: 2, Name: "C"}).WithMutable(true)

	resolved, err := ResolveAlias(c, aliases)
	if err != nil {
		t.Fatal(err)
	}

	if resolved.Root != i32.Root {
		t.Fatalf("expected i32 root, got %s", resolved.Repr())
	}

	if len(resolved.Subtypes) != 1 || !resolved.IsPointer() {
		t.Fatalf("expected one pointer layer, got %s", resolved.Repr())
	}

	if !resolved.IsMutable() || !resolved.IsVolatile() {
		t.Errorf("expected qualifiers to compose, got %s", resolved.Repr())
	}

	if !Equal(aliases[0], i32.AddPointer()) {
		t.Error("alias targets must not be modified")
	}
}

// Test that an alias which refers to itself is an error.
func TestResolveAliasCycle(t *testing.T) {
	aliases := aliasMap{
		0: New(AliasRoot{ID: 1, Name: "B"}),
		1: New(AliasRoot{ID: 0, Name: "A"}),
	}

	_, err := ResolveAlias(New(AliasRoot{ID: 0, Name: "A"}), aliases)
	if !report.IsKind(err, report.AliasCycle) {
		t.Fatalf("expected alias cycle, got %v", err)
	}
}

// Test integer bit depth validity.
func TestIsValidIntegerBitDepth(t *testing.T) {
	for _, bd := range []int{1, 8, 64, 4096} {
		if !IsValidIntegerBitDepth(bd) {
			t.Errorf("%d should be valid", bd)
		}
	}

	for _, bd := range []int{0, 3, 24, -8} {
		if IsValidIntegerBitDepth(bd) {
			t.Errorf("%d should be invalid", bd)
		}
	}
}
