package catalog

import (
	"requitec/ast"
	"requitec/depm"
	"requitec/report"
	"requitec/types"
)

// Tabulate adds every declaration of a module to the symbol tables of the
// binary.  Nothing is typed yet: this only makes names visible so that
// declarations may refer to each other in any order.  Object extensions are
// skipped and tabulated by TabulateExtensions.
func (c *Cataloger) Tabulate(m *depm.Module) error {
	defer c.enterScope(m, depm.None, depm.NoObject)()

	for _, op := range m.Ops[m.FirstDeclI:] {
		if err := c.tabulateGlobal(op); err != nil {
			return err
		}
	}

	return nil
}

// tabulateGlobal tabulates a top-level or export group level declaration.
func (c *Cataloger) tabulateGlobal(op *ast.Operation) error {
	decl, attrs := ast.UnwrapAttributes(op)
	if !decl.Opcode.IsGlobal() || decl.Opcode == ast.Attributes {
		return report.Raise(report.InvalidDeclaration, op.Span(), "`%s` is not a valid top-level declaration", decl.Opcode)
	}

	switch decl.Opcode {
	case ast.ExportGroup:
		if attrs.Len() > 0 {
			return report.Raise(report.InvalidAttribute, op.Span(), "export groups take no attributes")
		}

		return c.tabulateExportGroup(decl)
	case ast.Object:
		return c.tabulateObject(decl, attrs)
	case ast.ObjectExtension:
		// tabulated in the next pass
		return nil
	}

	return c.tabulateMember(decl, attrs)
}

// tabulateMember tabulates a declaration which may appear both at the top
// level and inside an object.
func (c *Cataloger) tabulateMember(decl *ast.Operation, attrs ast.AttributeList) error {
	switch decl.Opcode {
	case ast.Global:
		return c.tabulateVariable(decl, attrs)
	case ast.Property:
		return c.tabulateProperty(decl, attrs)
	case ast.TypeAlias:
		return c.tabulateAlias(decl)
	}

	if decl.Opcode.IsProcedure() {
		return c.tabulateProcedure(decl, attrs)
	}

	return report.Raise(report.InvalidDeclaration, decl.Span(), "`%s` is not a declaration", decl.Opcode)
}

// tabulateExportGroup tabulates an export group and its members.  Export
// groups are created in the binary-global table on first use so that several
// modules may add to the same group.
func (c *Cataloger) tabulateExportGroup(op *ast.Operation) error {
	// a group with no members declares nothing
	if len(op.Branches) < 2 {
		return nil
	}

	name, err := declName(op)
	if err != nil {
		return err
	}

	eg, err := c.bin.ExportGroupOf(name, c.exportGroup)
	if err != nil {
		return report.InSpan(err, op.Branches[0].Span())
	}

	defer c.enterScope(c.module, eg, depm.NoObject)()

	for _, branch := range op.Branches[1:] {
		member, ok := branch.(*ast.Operation)
		if !ok {
			return report.Raise(report.InvalidDeclaration, branch.Span(), "export group members must be declarations")
		}

		if err := c.tabulateGlobal(member); err != nil {
			return err
		}
	}

	return nil
}

// tabulateVariable tabulates a global variable.
func (c *Cataloger) tabulateVariable(op *ast.Operation, attrs ast.AttributeList) error {
	name, err := declName(op)
	if err != nil {
		return err
	}

	g := &depm.Global{
		Name:          name,
		ModuleSymbolI: c.module.NextSymbolI(),
		ValueI:        len(op.Branches),
		Decl:          op,
		Attrs:         attrs,
		Object:        c.object,
		Module:        c.module.ID,
		ExportGroup:   c.exportGroup,
	}

	id := c.bin.AddGlobal(g)
	return c.define(name, depm.Symbol{Kind: depm.SymGlobal, ID: int(id)}, op.Span())
}

// tabulateObject tabulates an object and all of its members.
func (c *Cataloger) tabulateObject(op *ast.Operation, attrs ast.AttributeList) error {
	name, err := declName(op)
	if err != nil {
		return err
	}

	o := &depm.Object{
		Name:          name,
		ModuleSymbolI: c.module.NextSymbolI(),
		Packed:        attrs.Has(ast.Packed),
		Decl:          op,
		Attrs:         attrs,
		Module:        c.module.ID,
		ExportGroup:   c.exportGroup,
	}

	// the object is visible to its own members
	id := c.bin.AddObject(o)
	if err := c.define(name, depm.Symbol{Kind: depm.SymObject, ID: int(id)}, op.Span()); err != nil {
		return err
	}

	defer c.enterScope(c.module, c.exportGroup, id)()

	for _, branch := range op.Branches[1:] {
		member, ok := branch.(*ast.Operation)
		if !ok {
			return report.Raise(report.InvalidDeclaration, branch.Span(), "object members must be declarations")
		}

		decl, memberAttrs := ast.UnwrapAttributes(member)
		if !decl.Opcode.IsObjectMember() || decl.Opcode == ast.Attributes {
			return report.Raise(report.InvalidDeclaration, member.Span(), "`%s` can not be declared inside an object", decl.Opcode)
		}

		if err := c.tabulateMember(decl, memberAttrs); err != nil {
			return err
		}
	}

	return nil
}

// tabulateProperty tabulates a property of the current object.
func (c *Cataloger) tabulateProperty(op *ast.Operation, attrs ast.AttributeList) error {
	if c.object == depm.NoObject {
		return report.Raise(report.InvalidDeclaration, op.Span(), "properties can only be declared inside an object")
	}

	if len(op.Branches) != 2 && len(op.Branches) != 3 {
		return report.Raise(report.InvalidDeclaration, op.Span(), "property must have a name followed by a type, a value, or both")
	}

	name, err := declName(op)
	if err != nil {
		return err
	}

	_, err = c.bin.AddProperty(&depm.Property{
		Name:          name,
		ModuleSymbolI: c.module.NextSymbolI(),
		ValueI:        len(op.Branches),
		Object:        c.object,
		Decl:          op,
		Attrs:         attrs,
	})
	return err
}

// tabulateAlias tabulates a type alias.
func (c *Cataloger) tabulateAlias(op *ast.Operation) error {
	if len(op.Branches) != 2 {
		return report.Raise(report.InvalidDeclaration, op.Span(), "type alias must have a name and a type")
	}

	name, err := declName(op)
	if err != nil {
		return err
	}

	id := c.bin.AddAlias(&depm.TypeAlias{
		Name:          name,
		ModuleSymbolI: c.module.NextSymbolI(),
		Decl:          op,
		Object:        c.object,
		Module:        c.module.ID,
		ExportGroup:   c.exportGroup,
	})

	return c.define(name, depm.Symbol{Kind: depm.SymTypeAlias, ID: int(id)}, op.Span())
}

// tabulateProcedure tabulates a procedure.  Named procedures join the
// procedure group of their name.  Constructors join the constructor group of
// their object.  Destructors and the entry point stand alone.
func (c *Cataloger) tabulateProcedure(op *ast.Operation, attrs ast.AttributeList) error {
	category := depm.CategoryOf(op.Opcode)
	if category.IsInstanced() && c.object == depm.NoObject {
		return report.Raise(report.InvalidDeclaration, op.Span(), "%s must be declared inside an object", category)
	}

	p := &depm.Procedure{
		ModuleSymbolI:     c.module.NextSymbolI(),
		Category:          category,
		Decl:              op,
		Attrs:             attrs,
		CallingConvention: depm.CallConvC,
		Object:            c.object,
		Module:            c.module.ID,
		ExportGroup:       c.exportGroup,
		Group:             depm.None,
	}

	switch category {
	case depm.CategoryEntryPoint:
		if c.bin.EntryPoint != depm.None {
			return report.Raise(report.DuplicateEntryPoint, op.Span(), "must be a single entry point")
		}

		c.bin.EntryPoint = c.bin.AddProcedure(p)
		return nil
	case depm.CategoryConstructor:
		id := c.bin.AddProcedure(p)
		return report.InSpan(c.bin.AddOverload(c.bin.Object(c.object).ConstructorGroup, id), op.Span())
	case depm.CategoryDestructor:
		o := c.bin.Object(c.object)
		if o.HasDestructor() {
			return report.Raise(report.DuplicateSymbol, op.Span(), "object `%s` already has a destructor", o.Name)
		}

		o.Destructor = c.bin.AddProcedure(p)
		return nil
	}

	name, err := declName(op)
	if err != nil {
		return err
	}

	p.Name = name
	id := c.bin.AddProcedure(p)
	return report.InSpan(c.bin.AddProcedureToTable(c.table(), id), op.Span())
}

// -----------------------------------------------------------------------------

// TabulateExtensions tabulates the members of the object extensions of a
// module.  The extended object is looked up from the scope of the extension,
// so every module's declarations must already be tabulated.
func (c *Cataloger) TabulateExtensions(m *depm.Module) error {
	defer c.enterScope(m, depm.None, depm.NoObject)()

	for _, op := range m.Ops[m.FirstDeclI:] {
		if err := c.tabulateExtensionsIn(op); err != nil {
			return err
		}
	}

	return nil
}

// tabulateExtensionsIn finds the object extensions within a top-level
// declaration.
func (c *Cataloger) tabulateExtensionsIn(op *ast.Operation) error {
	decl, _ := ast.UnwrapAttributes(op)

	switch decl.Opcode {
	case ast.ObjectExtension:
		return c.tabulateExtension(decl)
	case ast.ExportGroup:
		if len(decl.Branches) < 2 {
			return nil
		}

		name, err := declName(decl)
		if err != nil {
			return err
		}

		eg, err := c.bin.ExportGroupOf(name, c.exportGroup)
		if err != nil {
			return report.InSpan(err, decl.Branches[0].Span())
		}

		defer c.enterScope(c.module, eg, depm.NoObject)()

		for _, branch := range decl.Branches[1:] {
			if member, ok := branch.(*ast.Operation); ok {
				if err := c.tabulateExtensionsIn(member); err != nil {
					return err
				}
			}
		}
	}

	return nil
}

// tabulateExtension tabulates one object extension.
func (c *Cataloger) tabulateExtension(op *ast.Operation) error {
	if len(op.Branches) == 0 {
		return report.Raise(report.InvalidDeclaration, op.Span(), "object extension must name an object")
	}

	oid, err := c.extendedObject(op.Branches[0])
	if err != nil {
		return err
	}

	c.bin.AddExtension(&depm.ObjectExtension{
		ModuleSymbolI: c.module.NextSymbolI(),
		Object:        oid,
		Decl:          op,
		Module:        c.module.ID,
		ExportGroup:   c.exportGroup,
	})

	defer c.enterScope(c.module, c.exportGroup, oid)()

	for _, branch := range op.Branches[1:] {
		member, ok := branch.(*ast.Operation)
		if !ok {
			return report.Raise(report.InvalidDeclaration, branch.Span(), "object extension members must be declarations")
		}

		decl, attrs := ast.UnwrapAttributes(member)
		if !decl.Opcode.IsObjectExtensionMember() || decl.Opcode == ast.Attributes {
			return report.Raise(report.InvalidDeclaration, member.Span(), "`%s` can not be declared inside an object extension", decl.Opcode)
		}

		if err := c.tabulateMember(decl, attrs); err != nil {
			return err
		}
	}

	return nil
}

// extendedObject resolves the object named by an object extension.
func (c *Cataloger) extendedObject(expr ast.Expression) (types.ObjectID, error) {
	defer c.r.EnterScope(c.module, c.exportGroup, depm.NoObject)()

	sym, err := c.r.SymbolOf(expr)
	if err != nil {
		return depm.NoObject, err
	}

	if sym.Kind != depm.SymObject {
		return depm.NoObject, report.Raise(report.InvalidDeclaration, expr.Span(), "only objects can be extended: %s given", sym.Kind)
	}

	return types.ObjectID(sym.ID), nil
}
