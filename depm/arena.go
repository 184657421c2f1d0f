package depm

import (
	"requitec/report"
	"requitec/types"
)

// AddProcedure adds a procedure to the binary and its module.
func (b *Binary) AddProcedure(p *Procedure) ProcedureID {
	id := ProcedureID(len(b.Procedures))
	b.Procedures = append(b.Procedures, p)

	m := b.Modules[p.Module]
	m.Procedures = append(m.Procedures, id)
	return id
}

// Procedure returns the procedure with the given handle.
func (b *Binary) Procedure(id ProcedureID) *Procedure {
	return b.Procedures[id]
}

// NewGroup adds a new empty procedure group to the binary.
func (b *Binary) NewGroup(name string) GroupID {
	id := GroupID(len(b.Groups))
	b.Groups = append(b.Groups, &ProcedureGroup{Name: name})
	return id
}

// Group returns the procedure group with the given handle.
func (b *Binary) Group(id GroupID) *ProcedureGroup {
	return b.Groups[id]
}

// AddOverload appends a procedure to a group.  All overloads in a group must
// share a category.
func (b *Binary) AddOverload(gid GroupID, pid ProcedureID) error {
	g := b.Groups[gid]
	p := b.Procedures[pid]

	if g.Category == CategoryUnknown {
		g.Category = p.Category
	} else if g.Category != p.Category {
		if !(g.Category.IsConstructor() && p.Category.IsConstructor()) {
			return report.Raise(
				report.DuplicateSymbol,
				declSpan(p),
				"%s `%s` conflicts with %s of the same name",
				p.Category,
				g.Name,
				g.Category,
			)
		}
	}

	if g.Name == "" {
		g.Name = p.Name
	}

	g.Overloads = append(g.Overloads, pid)
	p.Group = gid
	return nil
}

// AddProcedureToTable adds a procedure to the procedure group of its name in
// the given table, creating the group if necessary.
func (b *Binary) AddProcedureToTable(table *SymbolTable, pid ProcedureID) error {
	p := b.Procedures[pid]

	if sym, ok := table.Lookup(p.Name); ok {
		if sym.Kind != SymGroup {
			return report.Raise(report.DuplicateSymbol, declSpan(p), "name must be disambiguous: `%s`", p.Name)
		}

		return b.AddOverload(GroupID(sym.ID), pid)
	}

	gid := b.NewGroup(p.Name)
	if err := table.Define(p.Name, Symbol{Kind: SymGroup, ID: int(gid)}); err != nil {
		return err
	}

	return b.AddOverload(gid, pid)
}

// -----------------------------------------------------------------------------

// AddObject adds an object to the binary and its module.  The object's table,
// constructor group, and property index are created.
func (b *Binary) AddObject(o *Object) types.ObjectID {
	id := types.ObjectID(len(b.Objects))
	o.Table = NewSymbolTable()
	o.ConstructorGroup = b.NewGroup("")
	o.Destructor = None
	o.propertyTable = make(map[string]PropertyID)
	b.Objects = append(b.Objects, o)

	m := b.Modules[o.Module]
	m.Objects = append(m.Objects, id)
	return id
}

// Object returns the object with the given handle.
func (b *Binary) Object(id types.ObjectID) *Object {
	return b.Objects[id]
}

// ObjectType returns the type of values of an object.
func (b *Binary) ObjectType(id types.ObjectID) types.Type {
	return types.New(types.ObjectRoot{ID: id, Name: b.Objects[id].Name})
}

// ThisType returns the type of the receiver of an instanced procedure.
func (b *Binary) ThisType(p *Procedure) types.Type {
	return b.ObjectType(p.Object).AddPointer()
}

// AddProperty adds a property to an object.
func (b *Binary) AddProperty(p *Property) (PropertyID, error) {
	o := b.Objects[p.Object]
	if _, ok := o.propertyTable[p.Name]; ok {
		var span *report.TextSpan
		if p.Decl != nil {
			span = p.Decl.Span()
		}

		return None, report.Raise(report.DuplicateSymbol, span, "name must be disambiguous: property `%s`", p.Name)
	}

	id := PropertyID(len(b.Properties))
	p.PropertyI = len(o.Properties)
	b.Properties = append(b.Properties, p)

	o.Properties = append(o.Properties, id)
	o.propertyTable[p.Name] = id
	return id, nil
}

// Property returns the property with the given handle.
func (b *Binary) Property(id PropertyID) *Property {
	return b.Properties[id]
}

// HasAutodestructProperty returns whether an object owns a property which must
// be destructed along with it.
func (b *Binary) HasAutodestructProperty(id types.ObjectID) bool {
	for _, pid := range b.Objects[id].Properties {
		prop := b.Properties[pid]
		if prop.IsNoAutodestruct() {
			continue
		}

		if oid, ok := prop.Type.Object(); ok && prop.Type.IsObject() && b.NeedsDestruction(oid) {
			return true
		}
	}

	return false
}

// NeedsDestruction returns whether values of an object require any destructor
// call: either its own destructor or one of a property.
func (b *Binary) NeedsDestruction(id types.ObjectID) bool {
	return b.Objects[id].HasDestructor() || b.HasAutodestructProperty(id)
}

// -----------------------------------------------------------------------------

// AddGlobal adds a global to the binary and its module.
func (b *Binary) AddGlobal(g *Global) GlobalID {
	id := GlobalID(len(b.Globals))
	b.Globals = append(b.Globals, g)

	m := b.Modules[g.Module]
	m.Globals = append(m.Globals, id)
	return id
}

// Global returns the global with the given handle.
func (b *Binary) Global(id GlobalID) *Global {
	return b.Globals[id]
}

// AddAlias adds a type alias to the binary and its module.
func (b *Binary) AddAlias(a *TypeAlias) types.AliasID {
	id := types.AliasID(len(b.Aliases))
	b.Aliases = append(b.Aliases, a)

	m := b.Modules[a.Module]
	m.Aliases = append(m.Aliases, id)
	return id
}

// Alias returns the type alias with the given handle.
func (b *Binary) Alias(id types.AliasID) *TypeAlias {
	return b.Aliases[id]
}

// AliasTarget returns the type an alias stands for.
func (b *Binary) AliasTarget(id types.AliasID) types.Type {
	return b.Aliases[id].Type
}

// AddExtension adds an object extension to the binary and its module.
func (b *Binary) AddExtension(e *ObjectExtension) ExtensionID {
	id := ExtensionID(len(b.Extensions))
	b.Extensions = append(b.Extensions, e)

	m := b.Modules[e.Module]
	m.Extensions = append(m.Extensions, id)
	return id
}

// Extension returns the object extension with the given handle.
func (b *Binary) Extension(id ExtensionID) *ObjectExtension {
	return b.Extensions[id]
}

// ExportGroupOf returns the export group with the given name, creating it
// inside parent and the binary-global table if it does not yet exist.
func (b *Binary) ExportGroupOf(name string, parent ExportGroupID) (ExportGroupID, error) {
	if id, ok := b.Table.LookupKind(name, SymExportGroup); ok {
		if parent != None {
			ptable := b.ExportGroups[parent].Table
			if _, ok := ptable.Lookup(name); !ok {
				if err := ptable.Define(name, Symbol{Kind: SymExportGroup, ID: id}); err != nil {
					return None, err
				}
			}
		}

		return ExportGroupID(id), nil
	}

	if _, ok := b.Table.Lookup(name); ok {
		return None, report.Raise(report.DuplicateSymbol, nil, "name is taken: `%s`", name)
	}

	id := ExportGroupID(len(b.ExportGroups))
	b.ExportGroups = append(b.ExportGroups, &ExportGroup{Name: name, Table: NewSymbolTable(), Parent: parent})

	sym := Symbol{Kind: SymExportGroup, ID: int(id)}
	if err := b.Table.Define(name, sym); err != nil {
		return None, err
	}

	if parent != None {
		if err := b.ExportGroups[parent].Table.Define(name, sym); err != nil {
			return None, err
		}
	}

	return id, nil
}

// ExportGroup returns the export group with the given handle.
func (b *Binary) ExportGroup(id ExportGroupID) *ExportGroup {
	return b.ExportGroups[id]
}

func declSpan(p *Procedure) *report.TextSpan {
	if p.Decl != nil {
		return p.Decl.Span()
	}

	return nil
}
