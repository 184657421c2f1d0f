package resolve

import (
	"requitec/ast"
	"requitec/depm"
	"requitec/report"
	"requitec/types"
)

// Locals looks up the variables local to the procedure being lowered.  It is
// implemented by the builder's frame.
type Locals interface {
	// LocalType returns the type of the local with the given name.
	LocalType(name string) (types.Type, bool)
}

// location is the position in the binary the resolver is working from.
type location struct {
	module      *depm.Module
	exportGroup depm.ExportGroupID
	object      types.ObjectID
	procedure   depm.ProcedureID
	alias       types.AliasID
}

// Resolver answers questions about names and types from the perspective of a
// location in the binary.  It holds no state beyond that location: every
// Enter method returns a function restoring the previous location which is
// meant to be deferred.
type Resolver struct {
	bin *depm.Binary
	loc location
}

// NewResolver creates a new resolver for the given binary.
func NewResolver(bin *depm.Binary) *Resolver {
	return &Resolver{
		bin: bin,
		loc: location{
			exportGroup: depm.None,
			object:      depm.NoObject,
			procedure:   depm.None,
			alias:       types.AliasID(depm.None),
		},
	}
}

// Binary returns the binary being resolved.
func (r *Resolver) Binary() *depm.Binary {
	return r.bin
}

// restore returns a function which restores the current location.
func (r *Resolver) restore() func() {
	prev := r.loc
	return func() {
		r.loc = prev
	}
}

// EnterModule moves the resolver to the top level of a module.
func (r *Resolver) EnterModule(m *depm.Module) func() {
	restore := r.restore()
	r.loc = location{
		module:      m,
		exportGroup: depm.None,
		object:      depm.NoObject,
		procedure:   depm.None,
		alias:       types.AliasID(depm.None),
	}
	return restore
}

// EnterExportGroup moves the resolver into an export group.
func (r *Resolver) EnterExportGroup(id depm.ExportGroupID) func() {
	restore := r.restore()
	r.loc.exportGroup = id
	return restore
}

// EnterObject moves the resolver into an object.
func (r *Resolver) EnterObject(id types.ObjectID) func() {
	restore := r.restore()
	o := r.bin.Object(id)
	r.loc.module = r.bin.Module(o.Module)
	r.loc.exportGroup = o.ExportGroup
	r.loc.object = id
	return restore
}

// EnterProcedure moves the resolver into a procedure along with its module,
// export group, and object.
func (r *Resolver) EnterProcedure(id depm.ProcedureID) func() {
	restore := r.restore()
	p := r.bin.Procedure(id)
	r.loc.module = r.bin.Module(p.Module)
	r.loc.exportGroup = p.ExportGroup
	r.loc.object = p.Object
	r.loc.procedure = id
	return restore
}

// EnterAlias moves the resolver into the declaration of a type alias.
func (r *Resolver) EnterAlias(id types.AliasID) func() {
	restore := r.restore()
	a := r.bin.Alias(id)
	r.loc.module = r.bin.Module(a.Module)
	r.loc.exportGroup = a.ExportGroup
	r.loc.object = a.Object
	r.loc.alias = id
	return restore
}

// Module returns the current module.
func (r *Resolver) Module() *depm.Module {
	return r.loc.module
}

// ExportGroup returns the current export group or None.
func (r *Resolver) ExportGroup() depm.ExportGroupID {
	return r.loc.exportGroup
}

// Object returns the current object or NoObject.
func (r *Resolver) Object() types.ObjectID {
	return r.loc.object
}

// Procedure returns the current procedure or nil.
func (r *Resolver) Procedure() *depm.Procedure {
	if r.loc.procedure == depm.None {
		return nil
	}

	return r.bin.Procedure(r.loc.procedure)
}

// CurrentTable returns the innermost table declarations are added to at the
// current location.
func (r *Resolver) CurrentTable() *depm.SymbolTable {
	if r.loc.object != depm.NoObject {
		return r.bin.Object(r.loc.object).Table
	}

	if r.loc.exportGroup != depm.None {
		return r.bin.ExportGroup(r.loc.exportGroup).Table
	}

	return r.loc.module.Table
}

// -----------------------------------------------------------------------------

// LookupSymbol searches for a name outward from the current location: the
// current object, the current export group and its parents, the current
// module, and finally the binary.
func (r *Resolver) LookupSymbol(name string) (depm.Symbol, bool) {
	if r.loc.object != depm.NoObject {
		if sym, ok := r.bin.Object(r.loc.object).Table.Lookup(name); ok {
			return sym, true
		}
	}

	for eg := r.loc.exportGroup; eg != depm.None; eg = r.bin.ExportGroup(eg).Parent {
		if sym, ok := r.bin.ExportGroup(eg).Table.Lookup(name); ok {
			return sym, true
		}
	}

	if r.loc.module != nil {
		if sym, ok := r.loc.module.Table.Lookup(name); ok {
			return sym, true
		}
	}

	return r.bin.Table.Lookup(name)
}

// lookupIn looks up a name in an accessed table.  If no table was accessed,
// the name is searched for from the current location.
func (r *Resolver) lookupIn(table *depm.SymbolTable, expr ast.Expression) (depm.Symbol, error) {
	name, ok := ast.NameOf(expr)
	if !ok {
		return depm.Symbol{}, report.Raise(report.UnresolvedSymbol, expr.Span(), "expected a name")
	}

	var sym depm.Symbol
	if table != nil {
		sym, ok = table.Lookup(name)
	} else {
		sym, ok = r.LookupSymbol(name)
	}

	if !ok {
		return depm.Symbol{}, report.Raise(report.UnresolvedSymbol, expr.Span(), "symbol not found with name: `%s`", name)
	}

	return sym, nil
}

// tableOf returns the table owned by a symbol.  Only export groups and
// objects own tables.
func (r *Resolver) tableOf(sym depm.Symbol, span *report.TextSpan) (*depm.SymbolTable, error) {
	switch sym.Kind {
	case depm.SymExportGroup:
		return r.bin.ExportGroup(depm.ExportGroupID(sym.ID)).Table, nil
	case depm.SymObject:
		return r.bin.Object(types.ObjectID(sym.ID)).Table, nil
	}

	return nil, report.Raise(report.UnresolvedSymbol, span, "%s has no table", sym.Kind)
}

// ResolveTable resolves an expression which names a table.  The forms
// `[export_group]`, `[object]`, and `[module]` name the current table of that
// kind.
func (r *Resolver) ResolveTable(expr ast.Expression) (*depm.SymbolTable, error) {
	return r.resolveTableIn(nil, expr)
}

func (r *Resolver) resolveTableIn(table *depm.SymbolTable, expr ast.Expression) (*depm.SymbolTable, error) {
	op, ok := expr.(*ast.Operation)
	if !ok {
		sym, err := r.lookupIn(table, expr)
		if err != nil {
			return nil, err
		}

		return r.tableOf(sym, expr.Span())
	}

	switch op.Opcode {
	case ast.ExportGroup:
		if len(op.Branches) == 0 {
			if r.loc.exportGroup == depm.None {
				return nil, report.Raise(report.UnresolvedSymbol, op.Span(), "not inside an export group")
			}

			return r.bin.ExportGroup(r.loc.exportGroup).Table, nil
		}
	case ast.Object:
		if len(op.Branches) == 0 {
			if r.loc.object == depm.NoObject {
				return nil, report.Raise(report.UnresolvedSymbol, op.Span(), "not inside an object")
			}

			return r.bin.Object(r.loc.object).Table, nil
		}
	case ast.Module:
		if len(op.Branches) == 0 {
			return r.loc.module.Table, nil
		}
	case ast.AccessTable:
		inner, last, err := r.AccessTable(op)
		if err != nil {
			return nil, err
		}

		return r.resolveTableIn(inner, last)
	}

	return nil, report.Raise(report.UnresolvedSymbol, op.Span(), "expression does not name a table")
}

// AccessTable resolves every branch but the last of a table access: `a:b:c`
// resolves the table `a:b`.  It returns that table along with the last branch
// which is to be looked up inside it.  Once a table has been accessed, names
// are only searched for in that table.
func (r *Resolver) AccessTable(op *ast.Operation) (*depm.SymbolTable, ast.Expression, error) {
	if op.Opcode != ast.AccessTable || len(op.Branches) < 2 {
		return nil, nil, report.Raise(report.InvalidOperation, op.Span(), "table access must have at least two branches")
	}

	var table *depm.SymbolTable
	for _, branch := range op.Branches[:len(op.Branches)-1] {
		next, err := r.resolveTableIn(table, branch)
		if err != nil {
			return nil, nil, err
		}

		table = next
	}

	return table, op.Branches[len(op.Branches)-1], nil
}

// SymbolOf returns the symbol named by an identifier or table access.
func (r *Resolver) SymbolOf(expr ast.Expression) (depm.Symbol, error) {
	if op, ok := expr.(*ast.Operation); ok && op.Opcode == ast.AccessTable {
		table, last, err := r.AccessTable(op)
		if err != nil {
			return depm.Symbol{}, err
		}

		return r.lookupIn(table, last)
	}

	return r.lookupIn(nil, expr)
}

// GlobalOf returns the global named by an identifier or table access.
func (r *Resolver) GlobalOf(expr ast.Expression) (depm.GlobalID, bool) {
	if _, ok := expr.(*ast.Literal); ok {
		return depm.None, false
	}

	if op, ok := expr.(*ast.Operation); ok && op.Opcode != ast.AccessTable {
		return depm.None, false
	}

	sym, err := r.SymbolOf(expr)
	if err != nil || sym.Kind != depm.SymGlobal {
		return depm.None, false
	}

	return depm.GlobalID(sym.ID), true
}

// EnterScope moves the resolver to an arbitrary declaration scope: a module,
// optionally inside an export group and an object.
func (r *Resolver) EnterScope(m *depm.Module, eg depm.ExportGroupID, obj types.ObjectID) func() {
	restore := r.restore()
	r.loc = location{
		module:      m,
		exportGroup: eg,
		object:      obj,
		procedure:   depm.None,
		alias:       types.AliasID(depm.None),
	}
	return restore
}
