package ast

import "testing"

// Test opcode string round trips.
func TestLookupOpcode(t *testing.T) {
	for _, s := range []string{":", ".", "&&", "^=", "local", "entry_point", "destructor", "builtin_integer", "no_autodestruct"} {
		op := LookupOpcode(s)
		if op == Unknown {
			t.Fatalf("expected opcode for %q", s)
		}

		if op.String() != s {
			t.Errorf("expected %q, got %q", s, op.String())
		}
	}

	if LookupOpcode("and") != And {
		t.Error("`and` should name the bitwise and opcode")
	}

	if LookupOpcode("no_such_opcode") != Unknown {
		t.Error("unknown words must map to Unknown")
	}
}

// Test opcode predicates.
func TestOpcodePredicates(t *testing.T) {
	if !Plus.IsMath() || AndAnd.IsMath() {
		t.Error("bad IsMath")
	}

	if !LessEqual.ReturnsBool() || !True.ReturnsBool() || Plus.ReturnsBool() {
		t.Error("bad ReturnsBool")
	}

	if !Packed.IsAttribute() || Object.IsAttribute() {
		t.Error("bad IsAttribute")
	}

	if PlusEqual.AssignmentOperator() != Plus || Equal.AssignmentOperator() != Unknown {
		t.Error("bad AssignmentOperator")
	}

	if !Destructor.IsProcedure() || Property.IsProcedure() {
		t.Error("bad IsProcedure")
	}
}

// Test attribute unwrapping.
func TestUnwrapAttributes(t *testing.T) {
	decl := NewOperation(Function, nil, NewIdentifier("f", nil))
	wrapped := NewOperation(Attributes, nil,
		NewOperation(Packed, nil),
		NewOperation(MangledName, nil, NewLiteral(`"f_impl"`, String, nil)),
		decl,
	)

	got, attrs := UnwrapAttributes(wrapped)
	if got != decl {
		t.Fatal("expected the last branch to be the declaration")
	}

	if attrs.Len() != 2 || !attrs.Has(Packed) || attrs.Has(Public) {
		t.Fatal("bad attribute list")
	}

	if mn, ok := attrs.Get(MangledName); !ok || len(mn.Branches) != 1 {
		t.Error("expected mangled_name attribute with its argument")
	}

	if got, attrs := UnwrapAttributes(decl); got != decl || attrs.Len() != 0 {
		t.Error("plain declarations have no attributes")
	}
}
