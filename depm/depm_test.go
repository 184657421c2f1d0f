package depm

import (
	"strings"
	"testing"

	"requitec/report"
	"requitec/syntax"
	"requitec/types"
)

// source is a named inline source file.
type source struct {
	path, text string
}

func newTestBinary(t *testing.T, srcs ...source) *Binary {
	t.Helper()

	b := NewBinary(0, "")
	for _, src := range srcs {
		ops, err := syntax.NewParser(strings.NewReader(src.text)).Parse()
		if err != nil {
			t.Fatalf("failed to parse %s: %s", src.path, err)
		}

		b.AddModule(src.path, ops)
	}

	return b
}

func moduleOrder(b *Binary) []string {
	var names []string
	for _, m := range b.OrderedModules() {
		names = append(names, m.Name)
	}

	return names
}

// Test that a module is ordered after the module it imports.
func TestModuleOrder(t *testing.T) {
	b := newTestBinary(t,
		source{"b.requite", "[module b] [import a] [function f [arguments]]"},
		source{"a.requite", "[module a] [function g [arguments]]"},
	)

	if err := b.Assemble(); err != nil {
		t.Fatal(err)
	}

	order := moduleOrder(b)
	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Fatalf("expected order [a b], got %v", order)
	}

	mb, _ := b.ModuleByName("b")
	if mb.FirstDeclI != 2 {
		t.Errorf("expected first declaration at 2, got %d", mb.FirstDeclI)
	}

	if mb.ModuleI != 1 || mb.LastBlockingModuleI != 0 {
		t.Errorf("bad order indices: %d, %d", mb.ModuleI, mb.LastBlockingModuleI)
	}
}

// Test ordering of a chain of transitive imports.
func TestModuleOrderTransitive(t *testing.T) {
	b := newTestBinary(t,
		source{"d.requite", "[module d] [import c a]"},
		source{"c.requite", "[module c] [import b]"},
		source{"b.requite", "[module b] [import a]"},
		source{"a.requite", "[module a]"},
	)

	if err := b.Assemble(); err != nil {
		t.Fatal(err)
	}

	position := make(map[string]int)
	for i, name := range moduleOrder(b) {
		position[name] = i
	}

	for _, m := range b.Modules {
		for _, id := range m.Imports {
			if position[b.Module(id).Name] >= position[m.Name] {
				t.Errorf("`%s` is ordered before its import `%s`", m.Name, b.Module(id).Name)
			}
		}
	}

	md, _ := b.ModuleByName("d")
	if len(md.Imports) != 3 {
		t.Errorf("expected 3 expanded imports of d, got %d", len(md.Imports))
	}

	if md.LastBlockingModuleI != 2 {
		t.Errorf("expected d to be blocked by index 2, got %d", md.LastBlockingModuleI)
	}
}

// Test that circular imports are rejected.
func TestCircularImport(t *testing.T) {
	b := newTestBinary(t,
		source{"a.requite", "[module a] [import b]"},
		source{"b.requite", "[module b] [import a]"},
	)

	if err := b.Assemble(); !report.IsKind(err, report.CircularImport) {
		t.Fatalf("expected circular import error, got %v", err)
	}

	b = newTestBinary(t, source{"a.requite", "[module a] [import a]"})
	if err := b.Assemble(); !report.IsKind(err, report.CircularImport) {
		t.Fatalf("expected self import to be circular, got %v", err)
	}
}

// Test module naming errors.
func TestModuleNames(t *testing.T) {
	b := newTestBinary(t,
		source{"x/a.requite", "[module a]"},
		source{"y/a.requite", "[module a]"},
	)

	if err := b.Assemble(); !report.IsKind(err, report.DuplicateModule) {
		t.Errorf("expected duplicate module error, got %v", err)
	}

	b = newTestBinary(t, source{"a.requite", "[module _____a]"})
	if err := b.Assemble(); !report.IsKind(err, report.InvalidModuleName) {
		t.Errorf("expected invalid module name error, got %v", err)
	}

	b = newTestBinary(t, source{"src/main.requite", "[function f [arguments]]"})
	if err := b.Assemble(); err != nil {
		t.Fatal(err)
	}

	if name := b.Modules[0].Name; name != "_____main" {
		t.Errorf("expected generated name `_____main`, got `%s`", name)
	}
}

// Test that imports of unknown modules are rejected.
func TestModuleNotFound(t *testing.T) {
	b := newTestBinary(t, source{"a.requite", "[module a] [import nowhere]"})

	err := b.Assemble()
	if !report.IsKind(err, report.ModuleNotFound) {
		t.Fatalf("expected module not found error, got %v", err)
	}

	if !strings.HasPrefix(err.Error(), "a.requite:") {
		t.Errorf("expected error to carry the module path: %s", err)
	}
}

// Test symbol table disambiguation.
func TestSymbolTable(t *testing.T) {
	st := NewSymbolTable()
	if err := st.Define("x", Symbol{Kind: SymGlobal, ID: 0}); err != nil {
		t.Fatal(err)
	}

	if err := st.Define("x", Symbol{Kind: SymObject, ID: 1}); !report.IsKind(err, report.DuplicateSymbol) {
		t.Errorf("expected duplicate symbol error, got %v", err)
	}

	if id, ok := st.LookupKind("x", SymGlobal); !ok || id != 0 {
		t.Error("expected to find global `x`")
	}

	if _, ok := st.LookupKind("x", SymObject); ok {
		t.Error("`x` is not an object")
	}
}

// Test that overloads are collected in one group per name.
func TestProcedureGroups(t *testing.T) {
	b := NewBinary(0, "")
	b.AddModule("t.requite", nil)
	table := NewSymbolTable()

	add := func(category ProcedureCategory) error {
		pid := b.AddProcedure(&Procedure{Name: "f", Category: category, Object: NoObject})
		return b.AddProcedureToTable(table, pid)
	}

	if err := add(CategoryFunction); err != nil {
		t.Fatal(err)
	}

	if err := add(CategoryFunction); err != nil {
		t.Fatal(err)
	}

	gid, ok := table.LookupKind("f", SymGroup)
	if !ok || len(b.Group(GroupID(gid)).Overloads) != 2 {
		t.Fatal("expected one group with two overloads")
	}

	if err := add(CategoryExternalFunction); !report.IsKind(err, report.DuplicateSymbol) {
		t.Errorf("expected category mismatch to be rejected, got %v", err)
	}
}

// Test destruction requirements of objects.
func TestNeedsDestruction(t *testing.T) {
	b := NewBinary(0, "")
	b.AddModule("t.requite", nil)

	inner := b.AddObject(&Object{Name: "Inner"})
	outer := b.AddObject(&Object{Name: "Outer"})
	plain := b.AddObject(&Object{Name: "Plain"})

	b.Object(inner).Destructor = b.AddProcedure(&Procedure{Name: "~", Category: CategoryDestructor, Object: inner})

	if _, err := b.AddProperty(&Property{Name: "in", Type: b.ObjectType(inner), Object: outer}); err != nil {
		t.Fatal(err)
	}

	if _, err := b.AddProperty(&Property{Name: "n", Type: types.I32Type, Object: plain}); err != nil {
		t.Fatal(err)
	}

	if !b.NeedsDestruction(inner) || !b.NeedsDestruction(outer) {
		t.Error("expected inner and outer to need destruction")
	}

	if b.NeedsDestruction(plain) {
		t.Error("plain object does not need destruction")
	}

	if _, err := b.AddProperty(&Property{Name: "n", Type: types.I32Type, Object: plain}); !report.IsKind(err, report.DuplicateSymbol) {
		t.Errorf("expected duplicate property error, got %v", err)
	}
}
