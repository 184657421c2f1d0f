package catalog

import (
	"requitec/ast"
	"requitec/depm"
	"requitec/report"
	"requitec/types"
)

// Catalog determines the types of the declarations of a module: type aliases
// first, then procedures, globals, and objects.  Every module must already be
// tabulated including its extensions.
func (c *Cataloger) Catalog(m *depm.Module) error {
	for _, id := range m.Aliases {
		if err := c.catalogAlias(id); err != nil {
			return err
		}
	}

	for _, id := range m.Procedures {
		if err := c.catalogProcedure(id); err != nil {
			return err
		}
	}

	for _, id := range m.Globals {
		if err := c.catalogGlobal(id); err != nil {
			return err
		}
	}

	for _, id := range m.Objects {
		if err := c.catalogObject(id); err != nil {
			return err
		}
	}

	return nil
}

func (c *Cataloger) catalogAlias(id types.AliasID) error {
	defer c.r.EnterAlias(id)()

	a := c.bin.Alias(id)
	t, err := c.r.ResolveType(a.Decl.Branches[1], false)
	if err != nil {
		return err
	}

	a.Type = t
	return nil
}

// -----------------------------------------------------------------------------

// catalogProcedure determines the signature of a procedure.
func (c *Cataloger) catalogProcedure(id depm.ProcedureID) error {
	p := c.bin.Procedure(id)
	if p.IsDefault() {
		return nil
	}

	defer c.r.EnterProcedure(id)()

	switch p.Category {
	case depm.CategoryConstructor, depm.CategoryDestructor, depm.CategoryEntryPoint:
		p.BodyStartI = 0
	default:
		// skip the name
		p.BodyStartI = 1
	}

	if err := c.catalogMangledName(p); err != nil {
		return err
	}

	cc, err := callingConvention(p.Attrs)
	if err != nil {
		return err
	}
	p.CallingConvention = cc
	p.HasVariadicArgs = p.Attrs.Has(ast.VariadicArguments)

	if err := c.catalogReturnType(p); err != nil {
		return err
	}

	if err := c.catalogArguments(p); err != nil {
		return err
	}

	return checkValid(p)
}

// catalogMangledName determines the name a procedure has in the IR.
func (c *Cataloger) catalogMangledName(p *depm.Procedure) error {
	if p.Category == depm.CategoryEntryPoint {
		p.MangledName = "main"
		return nil
	}

	name, ok, err := userMangledName(p.Attrs)
	if err != nil {
		return err
	} else if ok {
		p.MangledName = name
		return nil
	}

	if p.Category == depm.CategoryExternalFunction {
		p.MangledName = p.Name
		return nil
	}

	label := p.Name
	if label == "" {
		label = p.Category.String()
	}

	p.MangledName = c.generateName(c.bin.Module(p.Module), p.Object, label, p.ModuleSymbolI)
	return nil
}

// catalogReturnType determines the return type of a procedure.  For procedures
// which declare one, it directly follows the name unless the procedure
// returns nothing.
func (c *Cataloger) catalogReturnType(p *depm.Procedure) error {
	switch p.Category {
	case depm.CategoryEntryPoint:
		p.ReturnType = types.I32Type
		return nil
	case depm.CategoryConstructor, depm.CategoryDestructor:
		p.ReturnType = types.VoidType
		return nil
	}

	if p.BodyStartI >= len(p.Decl.Branches) || ast.IsOperation(p.Decl.Branches[p.BodyStartI], ast.Arguments) {
		p.ReturnType = types.VoidType
		return nil
	}

	t, err := c.r.ResolveType(p.Decl.Branches[p.BodyStartI], false)
	if err != nil {
		return err
	}

	p.ReturnType = t
	p.BodyStartI++
	return nil
}

// catalogArguments determines the arguments of a procedure from its optional
// `[arguments T a T b ...]` branch.
func (c *Cataloger) catalogArguments(p *depm.Procedure) error {
	if p.BodyStartI >= len(p.Decl.Branches) {
		return nil
	}

	op, ok := p.Decl.Branches[p.BodyStartI].(*ast.Operation)
	if !ok || op.Opcode != ast.Arguments {
		return nil
	}
	p.BodyStartI++

	if len(op.Branches)%2 != 0 {
		return report.Raise(report.InvalidDeclaration, op.Span(), "arguments must be listed as pairs of a type and a name")
	}

	p.Args = make([]depm.Argument, 0, len(op.Branches)/2)
	for i := 0; i < len(op.Branches); i += 2 {
		t, err := c.r.ResolveType(op.Branches[i], false)
		if err != nil {
			return err
		}

		name, ok := ast.NameOf(op.Branches[i+1])
		if !ok {
			return report.Raise(report.InvalidDeclaration, op.Branches[i+1].Span(), "argument name must be an identifier")
		}

		for _, arg := range p.Args {
			if arg.Name == name {
				return report.Raise(report.InvalidDeclaration, op.Branches[i+1].Span(), "multiple arguments named `%s`", name)
			}
		}

		if t.IsVoid() && len(t.Subtypes) == 0 {
			return report.Raise(report.InvalidDeclaration, op.Branches[i].Span(), "argument `%s` can not be void", name)
		}

		p.Args = append(p.Args, depm.Argument{Name: name, Type: t})
	}

	return nil
}

// checkValid checks the constraints between the parts of a cataloged
// signature.
func checkValid(p *depm.Procedure) error {
	span := p.Decl.Span()

	if p.HasVariadicArgs && p.CallingConvention != depm.CallConvC {
		return report.Raise(report.InvalidAttribute, span, "functions with variadic arguments must use C call convention")
	}

	if p.Category == depm.CategoryExternalFunction && p.HasBody() {
		return report.Raise(report.InvalidDeclaration, span, "external function `%s` can not have a body", p.Name)
	}

	if p.Category == depm.CategoryDestructor && len(p.Args) > 0 {
		return report.Raise(report.InvalidDeclaration, span, "destructor can not take arguments")
	}

	return nil
}

// -----------------------------------------------------------------------------

// catalogGlobal determines the type and IR name of a global.
func (c *Cataloger) catalogGlobal(id depm.GlobalID) error {
	g := c.bin.Global(id)
	m := c.bin.Module(g.Module)
	defer c.r.EnterScope(m, g.ExportGroup, g.Object)()

	t, valueI, err := c.r.VariableType(g.Decl, nil)
	if err != nil {
		return err
	} else if t.IsVoid() && len(t.Subtypes) == 0 {
		return report.Raise(report.InvalidDeclaration, g.Decl.Span(), "global `%s` can not be void", g.Name)
	}

	g.Type = t
	g.ValueI = valueI

	name, ok, err := userMangledName(g.Attrs)
	if err != nil {
		return err
	} else if ok {
		g.MangledName = name
	} else {
		g.MangledName = c.generateName(m, g.Object, g.Name, g.ModuleSymbolI)
	}

	return nil
}

// catalogObject determines the property types of an object and synthesizes
// its default constructor if it declares no constructor.
func (c *Cataloger) catalogObject(id types.ObjectID) error {
	defer c.r.EnterObject(id)()

	o := c.bin.Object(id)
	for _, pid := range o.Properties {
		prop := c.bin.Property(pid)

		t, valueI, err := c.r.VariableType(prop.Decl, nil)
		if err != nil {
			return err
		} else if t.IsVoid() && len(t.Subtypes) == 0 {
			return report.Raise(report.InvalidDeclaration, prop.Decl.Span(), "property `%s` can not be void", prop.Name)
		}

		concrete, err := c.r.Concrete(t)
		if err != nil {
			return report.InSpan(err, prop.Decl.Span())
		}

		if err := c.checkPropertyObject(o, id, concrete, prop.Decl.Span()); err != nil {
			return err
		}

		prop.Type = t
		prop.ValueI = valueI
	}

	if c.bin.Group(o.ConstructorGroup).IsEmpty() {
		m := c.bin.Module(o.Module)
		p := &depm.Procedure{
			ModuleSymbolI:     m.NextSymbolI(),
			Category:          depm.CategoryDefaultConstructor,
			ReturnType:        types.VoidType,
			CallingConvention: depm.CallConvC,
			Object:            id,
			Module:            o.Module,
			ExportGroup:       o.ExportGroup,
			Group:             depm.None,
		}
		p.MangledName = c.generateName(m, id, "constructor", p.ModuleSymbolI)

		if err := c.bin.AddOverload(o.ConstructorGroup, c.bin.AddProcedure(p)); err != nil {
			return err
		}
	}

	return nil
}

// embeddedObject returns the object stored inline by values of a type: an
// object or an array of them.  Any pointer layer breaks the embedding.
func embeddedObject(t types.Type) (types.ObjectID, bool) {
	for _, st := range t.Subtypes {
		if !st.IsArray() {
			return 0, false
		}
	}

	return t.Object()
}

// checkPropertyObject checks that an object embedded by a property of another
// object is laid out first.  Objects of the same module must be declared above
// the containing object and objects of other modules must be imported.  This
// excludes every containment cycle.
func (c *Cataloger) checkPropertyObject(o *depm.Object, id types.ObjectID, t types.Type, span *report.TextSpan) error {
	oid, ok := embeddedObject(t)
	if !ok {
		return nil
	} else if oid == id {
		return report.Raise(report.InvalidDeclaration, span, "object `%s` can not contain itself", o.Name)
	}

	po := c.bin.Object(oid)
	if po.Module == o.Module {
		if po.ModuleSymbolI > o.ModuleSymbolI {
			return report.Raise(
				report.InvalidDeclaration,
				span,
				"object `%s` must be declared above object `%s` to be one of its properties",
				po.Name,
				o.Name,
			)
		}
	} else if !c.bin.Module(o.Module).HasImport(po.Module) {
		return report.Raise(
			report.InvalidDeclaration,
			span,
			"object `%s` is declared in module `%s` which must be imported",
			po.Name,
			c.bin.Module(po.Module).Name,
		)
	}

	return nil
}

// -----------------------------------------------------------------------------

// ResolveTypeAliases replaces the type alias roots in the signatures of a
// module's declarations with the types they stand for.  Once every argument
// type is concrete, overloads are checked to be distinct.
func (c *Cataloger) ResolveTypeAliases(m *depm.Module) error {
	for _, id := range m.Aliases {
		a := c.bin.Alias(id)
		if err := c.concretize(&a.Type, a.Decl); err != nil {
			return err
		}
	}

	for _, id := range m.Procedures {
		p := c.bin.Procedure(id)
		if err := c.concretize(&p.ReturnType, p.Decl); err != nil {
			return err
		}

		for i := range p.Args {
			if err := c.concretize(&p.Args[i].Type, p.Decl); err != nil {
				return err
			}
		}
	}

	for _, id := range m.Globals {
		g := c.bin.Global(id)
		if err := c.concretize(&g.Type, g.Decl); err != nil {
			return err
		}
	}

	for _, oid := range m.Objects {
		for _, pid := range c.bin.Object(oid).Properties {
			prop := c.bin.Property(pid)
			if err := c.concretize(&prop.Type, prop.Decl); err != nil {
				return err
			}
		}
	}

	for _, id := range m.Procedures {
		if c.bin.Procedure(id).Group == depm.None {
			continue
		}

		if err := c.r.CheckOverloadIsUnique(id); err != nil {
			return err
		}
	}

	return nil
}

// concretize resolves the alias root of a type in place.
func (c *Cataloger) concretize(t *types.Type, decl *ast.Operation) error {
	if t.IsEmpty() {
		return nil
	}

	concrete, err := c.r.Concrete(*t)
	if err != nil {
		if decl != nil {
			return report.InSpan(err, decl.Span())
		}

		return err
	}

	*t = concrete
	return nil
}
