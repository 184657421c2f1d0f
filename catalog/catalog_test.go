package catalog

import (
	"strings"
	"testing"

	"requitec/depm"
	"requitec/report"
	"requitec/resolve"
	"requitec/syntax"
	"requitec/types"
)

// catalogSources assembles and catalogs a binary built from inline sources
// named by their module declarations.
func catalogSources(t *testing.T, srcs ...string) (*depm.Binary, error) {
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

	return b, NewCataloger(b, resolve.NewResolver(b)).CatalogBinary()
}

func mustCatalog(t *testing.T, srcs ...string) *depm.Binary {
	t.Helper()

	b, err := catalogSources(t, srcs...)
	if err != nil {
		t.Fatal(err)
	}

	return b
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

func lookupGroup(t *testing.T, b *depm.Binary, table *depm.SymbolTable, name string) *depm.ProcedureGroup {
	t.Helper()

	id, ok := table.LookupKind(name, depm.SymGroup)
	if !ok {
		t.Fatalf("no procedure group named %s", name)
	}

	return b.Group(depm.GroupID(id))
}

var i32Type = types.New(types.Integer{Signed: true, BitDepth: 32})

// -----------------------------------------------------------------------------

// Test that an object without constructors gets exactly one default
// constructor and that a bare type is read as a property type.
func TestDefaultConstructor(t *testing.T) {
	b := mustCatalog(t, "[module a] [object P [property x [builtin_integer signed 32]]]")

	o := b.Objects[0]
	g := b.Group(o.ConstructorGroup)
	if len(g.Overloads) != 1 {
		t.Fatalf("expected one constructor, got %d", len(g.Overloads))
	}

	ctor := b.Procedure(g.Overloads[0])
	if !ctor.IsDefault() || ctor.Decl != nil || !ctor.ReturnType.IsVoid() {
		t.Errorf("bad default constructor: category %s", ctor.Category)
	}

	if ctor.Object != types.ObjectID(0) || ctor.MangledName == "" {
		t.Errorf("default constructor not attached to its object")
	}

	prop := b.Property(o.Properties[0])
	if !types.Equal(prop.Type, i32Type) {
		t.Errorf("expected property type i32, got %s", prop.Type.Repr())
	}

	if prop.HasValue() {
		t.Errorf("property should have no initializer")
	}
}

// Test that a declared constructor suppresses the default constructor.
func TestDeclaredConstructor(t *testing.T) {
	b := mustCatalog(t, `[module a]
		[object P
			[property x [builtin_integer signed 32] 0]
			[constructor [arguments [builtin_integer signed 32] v]]]`)

	o := b.Objects[0]
	g := b.Group(o.ConstructorGroup)
	if len(g.Overloads) != 1 {
		t.Fatalf("expected one constructor, got %d", len(g.Overloads))
	}

	ctor := b.Procedure(g.Overloads[0])
	if ctor.Category != depm.CategoryConstructor {
		t.Fatalf("expected a declared constructor, got %s", ctor.Category)
	}

	if len(ctor.Args) != 1 || ctor.Args[0].Name != "v" || ctor.BodyStartI != 1 {
		t.Errorf("bad constructor signature: %v, body at %d", ctor.Args, ctor.BodyStartI)
	}

	if prop := b.Property(o.Properties[0]); prop.ValueI != 2 || !prop.HasValue() {
		t.Errorf("expected property initializer at branch 2, got %d", prop.ValueI)
	}
}

// Test function signatures and generated names.
func TestFunctionSignature(t *testing.T) {
	b := mustCatalog(t, `[module a]
		[function f [builtin_integer signed 32] [arguments [builtin_integer signed 32] x *[builtin_byte] p]
			[return x]]
		[function g [arguments]]`)

	f := b.Procedures[0]
	if !types.Equal(f.ReturnType, i32Type) {
		t.Errorf("expected return type i32, got %s", f.ReturnType.Repr())
	}

	if len(f.Args) != 2 || !f.Args[1].Type.IsPointer() {
		t.Fatalf("bad arguments: %v", f.Args)
	}

	if f.BodyStartI != 3 || !f.HasBody() {
		t.Errorf("expected body at 3, got %d", f.BodyStartI)
	}

	if f.MangledName != "_____a.f.0" {
		t.Errorf("unexpected mangled name: %s", f.MangledName)
	}

	g := b.Procedures[1]
	if !g.ReturnType.IsVoid() || len(g.Args) != 0 || g.HasBody() {
		t.Errorf("expected empty void procedure")
	}
}

// Test the entry point signature and the single entry point rule.
func TestEntryPoint(t *testing.T) {
	b := mustCatalog(t, "[module a] [entry_point [return 0]]")

	ep := b.Procedure(b.EntryPoint)
	if ep.MangledName != "main" || !types.Equal(ep.ReturnType, i32Type) || ep.BodyStartI != 0 {
		t.Errorf("bad entry point: %s returning %s", ep.MangledName, ep.ReturnType.Repr())
	}

	_, err := catalogSources(t,
		"[module a] [entry_point]",
		"[module b] [entry_point]",
	)
	expectKind(t, err, report.DuplicateEntryPoint)
}

// Test external functions with attributes.
func TestExternalFunction(t *testing.T) {
	b := mustCatalog(t, `[module a]
		[attributes variadic_arguments
			[external_function printf [builtin_integer signed 32] [arguments *[builtin_codeunit ascii] format]]]
		[attributes [mangled_name "write_impl"] [calling_convention fast]
			[external_function write [arguments]]]`)

	printf := b.Procedures[0]
	if printf.MangledName != "printf" || !printf.HasVariadicArgs || printf.CallingConvention != depm.CallConvC {
		t.Errorf("bad external function: %s", printf.MangledName)
	}

	write := b.Procedures[1]
	if write.MangledName != "write_impl" || write.CallingConvention != depm.CallConvFast {
		t.Errorf("attributes not applied: %s, %s", write.MangledName, write.CallingConvention)
	}
}

// Test rejected procedure declarations.
func TestInvalidProcedures(t *testing.T) {
	cases := []struct {
		src  string
		kind report.ErrorKind
	}{
		{
			"[module a] [attributes variadic_arguments [calling_convention fast] [external_function f [arguments]]]",
			report.InvalidAttribute,
		},
		{
			"[module a] [attributes [calling_convention nowhere] [function f [arguments]]]",
			report.InvalidAttribute,
		},
		{
			"[module a] [external_function f [arguments] [return]]",
			report.InvalidDeclaration,
		},
		{
			"[module a] [function f [arguments [builtin_bool] x [builtin_bool] x]]",
			report.InvalidDeclaration,
		},
		{
			"[module a] [object P [destructor [arguments [builtin_bool] x]]]",
			report.InvalidDeclaration,
		},
		{
			"[module a] [method m [arguments]]",
			report.InvalidDeclaration,
		},
		{
			"[module a] [object P [destructor] [destructor]]",
			report.DuplicateSymbol,
		},
	}

	for _, c := range cases {
		_, err := catalogSources(t, c.src)
		if !report.IsKind(err, c.kind) {
			t.Errorf("%s: expected %s error, got %v", c.src, c.kind, err)
		}
	}
}

// Test that overloads must differ in their argument types once aliases are
// resolved.
func TestDuplicateOverload(t *testing.T) {
	b := mustCatalog(t, `[module a]
		[function f [arguments [builtin_integer signed 32] x]]
		[function f [arguments [builtin_integer signed 64] x]]`)

	if g := lookupGroup(t, b, b.Modules[0].Table, "f"); len(g.Overloads) != 2 {
		t.Fatalf("expected two overloads, got %d", len(g.Overloads))
	}

	_, err := catalogSources(t, `[module a]
		[function f [arguments [builtin_integer signed 32] x]]
		[function f [arguments [builtin_integer signed 32] y]]`)
	expectKind(t, err, report.DuplicateOverload)

	_, err = catalogSources(t, `[module a]
		[type_alias int [builtin_integer signed 32]]
		[function f [arguments int x]]
		[function f [arguments [builtin_integer signed 32] y]]`)
	expectKind(t, err, report.DuplicateOverload)
}

// Test that names must be unique within a table.
func TestDuplicateSymbol(t *testing.T) {
	_, err := catalogSources(t, "[module a] [global x [builtin_bool]] [function x [arguments]]")
	expectKind(t, err, report.DuplicateSymbol)
}

// Test global types from annotations and initializers.
func TestGlobals(t *testing.T) {
	b := mustCatalog(t, `[module a]
		[global x [builtin_integer unsigned 8]]
		[global y 5]
		[attributes [mangled_name "zz"] [global z [builtin_bool] true]]`)

	x, y, z := b.Globals[0], b.Globals[1], b.Globals[2]
	if !x.Type.IsUnsignedInteger() || x.HasValue() {
		t.Errorf("bad global x: %s", x.Type.Repr())
	}

	if !types.Equal(y.Type, i32Type) || y.ValueI != 1 {
		t.Errorf("expected deduced i32 at branch 1, got %s at %d", y.Type.Repr(), y.ValueI)
	}

	if !z.Type.IsBool() || z.MangledName != "zz" || z.ValueI != 2 {
		t.Errorf("bad global z: %s", z.MangledName)
	}
}

// Test that type aliases in signatures are replaced by their targets.
func TestResolveTypeAliases(t *testing.T) {
	b := mustCatalog(t, `[module a]
		[type_alias ptr *[builtin_byte]]
		[function f ptr [arguments ptr p] [return p]]`)

	f := b.Procedures[0]
	if f.ReturnType.IsTypeAlias() || !f.ReturnType.IsPointer() || !f.Args[0].Type.IsPointer() {
		t.Errorf("aliases not resolved: %s", f.ReturnType.Repr())
	}
}

// Test export groups shared between modules and extensions of an object
// declared in another module.
func TestExportGroupsAndExtensions(t *testing.T) {
	b := mustCatalog(t,
		`[module a]
		[export_group g
			[object P [property x [builtin_integer signed 32]]]
			[function f [arguments]]]`,
		`[module b] [import a]
		[export_group g [function h [arguments]]]
		[object_extension g:P
			[method m [arguments]]
			[constructor [arguments [builtin_integer signed 32] v]]]`,
	)

	egID, ok := b.Table.LookupKind("g", depm.SymExportGroup)
	if !ok {
		t.Fatal("export group g not in binary table")
	}

	eg := b.ExportGroup(depm.ExportGroupID(egID))
	for _, name := range []string{"P", "f", "h"} {
		if _, ok := eg.Table.Lookup(name); !ok {
			t.Errorf("%s missing from export group", name)
		}
	}

	mb, _ := b.ModuleByName("b")
	if len(mb.Extensions) != 1 {
		t.Fatalf("expected one extension, got %d", len(mb.Extensions))
	}

	oid := b.Extension(mb.Extensions[0]).Object
	o := b.Object(oid)
	m := b.Procedure(lookupGroup(t, b, o.Table, "m").Overloads[0])
	if m.Module != mb.ID || m.Object != oid || m.Category != depm.CategoryMethod {
		t.Errorf("bad extension method")
	}

	// the extension constructor suppresses the default constructor
	g := b.Group(o.ConstructorGroup)
	if len(g.Overloads) != 1 || b.Procedure(g.Overloads[0]).IsDefault() {
		t.Errorf("expected only the extension constructor")
	}
}

// Test that only objects can be extended.
func TestExtensionOfNonObject(t *testing.T) {
	_, err := catalogSources(t, "[module a] [global x [builtin_bool]] [object_extension x [method m [arguments]]]")
	expectKind(t, err, report.InvalidDeclaration)

	_, err = catalogSources(t, "[module a] [object_extension Q [method m [arguments]]]")
	expectKind(t, err, report.UnresolvedSymbol)
}

// Test the objects a property may hold by value.
func TestPropertyObjects(t *testing.T) {
	rejected := []struct {
		name string
		srcs []string
	}{
		{"self", []string{"[module a] [object P [property p P]]"}},
		{
			"declared below",
			[]string{"[module a] [object A [property b B]] [object B [property n [builtin_bool]]]"},
		},
		{
			"mutual",
			[]string{"[module a] [object A [property b B]] [object B [property a A]]"},
		},
		{
			"not imported",
			[]string{
				"[module a] [export_group g [object P [property n [builtin_bool]]]]",
				"[module b] [object Q [property p g:P]]",
			},
		},
	}

	for _, c := range rejected {
		_, err := catalogSources(t, c.srcs...)
		if !report.IsKind(err, report.InvalidDeclaration) {
			t.Errorf("%s: expected %s error, got %v", c.name, report.InvalidDeclaration, err)
		}
	}

	mustCatalog(t, "[module a] [object P [property p *P]]")
	mustCatalog(t, "[module a] [object B [property n [builtin_bool]]] [object A [property b B]]")
	mustCatalog(t, "[module a] [object A [property b *B]] [object B [property a A]]")
	mustCatalog(
		t,
		"[module a] [export_group g [object P [property n [builtin_bool]]]]",
		"[module b] [import a] [object Q [property p g:P]]",
	)
}
