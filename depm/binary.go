package depm

import (
	"requitec/ast"
	"requitec/common"
	"requitec/report"
)

// Binary is the whole program being compiled.  It owns every module and every
// entity declared in them.  Entities refer to each other by handle.
type Binary struct {
	// The modules in the order they were added.
	Modules []*Module

	// moduleMap maps module names to modules.  It is built once by MapModules.
	moduleMap map[string]ModuleID

	// The modules in dependency order: every module comes after all of its
	// imports.
	Ordered []ModuleID

	// The entity arenas.
	Procedures   []*Procedure
	Groups       []*ProcedureGroup
	Objects      []*Object
	Properties   []*Property
	Globals      []*Global
	Aliases      []*TypeAlias
	ExportGroups []*ExportGroup
	Extensions   []*ObjectExtension

	// The binary-global symbol table.  It holds every export group.
	Table *SymbolTable

	// The entry point of the program if it has one.
	EntryPoint ProcedureID

	// The pointer width of the target in bits.
	PointerWidth int

	// The target triple.  This may be empty for the host target.
	TargetTriple string
}

// NewBinary creates a new empty binary for the given target.
func NewBinary(pointerWidth int, triple string) *Binary {
	if pointerWidth == 0 {
		pointerWidth = common.DefaultPointerWidth
	}

	return &Binary{
		Table:        NewSymbolTable(),
		EntryPoint:   None,
		PointerWidth: pointerWidth,
		TargetTriple: triple,
	}
}

// AddModule adds a parsed source file to the binary.
func (b *Binary) AddModule(path string, ops []*ast.Operation) *Module {
	m := &Module{
		ID:                  ModuleID(len(b.Modules)),
		Path:                path,
		Ops:                 ops,
		importSet:           make(map[ModuleID]struct{}),
		Table:               NewSymbolTable(),
		ModuleI:             None,
		LastBlockingModuleI: 0,
	}

	b.Modules = append(b.Modules, m)
	return m
}

// Module returns the module with the given handle.
func (b *Binary) Module(id ModuleID) *Module {
	return b.Modules[id]
}

// ModuleByName returns the module with the given name.
func (b *Binary) ModuleByName(name string) (*Module, bool) {
	if id, ok := b.moduleMap[name]; ok {
		return b.Modules[id], true
	}

	return nil, false
}

// OrderedModules returns the modules in dependency order.
func (b *Binary) OrderedModules() []*Module {
	mods := make([]*Module, len(b.Ordered))
	for i, id := range b.Ordered {
		mods[i] = b.Modules[id]
	}

	return mods
}

// -----------------------------------------------------------------------------

// Assemble runs the module-level steps of compilation: it names every module,
// maps names to modules, resolves and expands imports, rejects circular
// imports, and computes the module order.
func (b *Binary) Assemble() error {
	for _, m := range b.Modules {
		if err := m.DetermineName(); err != nil {
			return report.InModule(err, m.Path)
		}
	}

	if err := b.MapModules(); err != nil {
		return err
	}

	for _, m := range b.Modules {
		if err := b.DetermineImports(m); err != nil {
			return report.InModule(err, m.Path)
		}
	}

	for _, m := range b.Modules {
		b.ExpandImports(m)
	}

	if err := b.CheckNoCircularImports(); err != nil {
		return err
	}

	return b.DetermineModuleOrder()
}

// MapModules builds the name to module index.
func (b *Binary) MapModules() error {
	b.moduleMap = make(map[string]ModuleID, len(b.Modules))
	for _, m := range b.Modules {
		if _, ok := b.moduleMap[m.Name]; ok {
			return report.InModule(
				report.Raise(report.DuplicateModule, nil, "duplicate module with same name: `%s`", m.Name),
				m.Path,
			)
		}

		b.moduleMap[m.Name] = m.ID
	}

	return nil
}

// DetermineImports resolves the direct imports of a module.
func (b *Binary) DetermineImports(m *Module) error {
	op := m.importOp()
	if op == nil {
		return nil
	}

	m.FirstDeclI++
	for _, branch := range op.Branches {
		name, ok := ast.NameOf(branch)
		if !ok {
			return report.Raise(report.InvalidDeclaration, branch.Span(), "imported module must be named by an identifier")
		}

		imported, ok := b.ModuleByName(name)
		if !ok {
			return report.Raise(report.ModuleNotFound, branch.Span(), "module not found with name: `%s`", name)
		}

		if m.HasImport(imported.ID) {
			return report.Raise(report.InvalidDeclaration, branch.Span(), "module `%s` imported multiple times", name)
		}

		m.Imports = append(m.Imports, imported.ID)
		m.importSet[imported.ID] = struct{}{}
	}

	return nil
}

// ExpandImports extends the imports of a module with all of its transitive
// imports.
func (b *Binary) ExpandImports(m *Module) {
	if m.expanded {
		return
	}
	m.expanded = true

	// Imports grows while it is iterated so that transitively added modules
	// are expanded as well.
	for i := 0; i < len(m.Imports); i++ {
		imported := b.Modules[m.Imports[i]]
		b.ExpandImports(imported)

		for _, id := range imported.Imports {
			if !m.HasImport(id) {
				m.importSet[id] = struct{}{}
				m.Imports = append(m.Imports, id)
			}
		}
	}
}

// CheckNoCircularImports checks that no module imports itself directly or
// transitively.
func (b *Binary) CheckNoCircularImports() error {
	for _, m := range b.Modules {
		for _, id := range m.Imports {
			if b.Modules[id].HasImport(m.ID) {
				return report.InModule(
					report.Raise(
						report.CircularImport,
						nil,
						"circular module import: `%s` and `%s` import each other",
						m.Name,
						b.Modules[id].Name,
					),
					m.Path,
				)
			}
		}
	}

	return nil
}

// DetermineModuleOrder computes the dependency order of the modules.  Modules
// without imports come first.  The remaining modules are admitted by repeated
// sweeps once all of their imports have been admitted.
func (b *Binary) DetermineModuleOrder() error {
	b.Ordered = make([]ModuleID, 0, len(b.Modules))
	ordered := make(map[ModuleID]struct{}, len(b.Modules))

	admit := func(m *Module) {
		m.ModuleI = len(b.Ordered)
		b.Ordered = append(b.Ordered, m.ID)
		ordered[m.ID] = struct{}{}
	}

	for _, m := range b.Modules {
		if len(m.Imports) == 0 {
			admit(m)
		}
	}

	for len(b.Ordered) != len(b.Modules) {
		progressed := false

		for _, m := range b.Modules {
			if _, ok := ordered[m.ID]; ok {
				continue
			}

			pass := true
			for _, id := range m.Imports {
				if _, ok := ordered[id]; !ok {
					pass = false
					break
				}

				if mi := b.Modules[id].ModuleI; mi > m.LastBlockingModuleI {
					m.LastBlockingModuleI = mi
				}
			}

			if pass {
				admit(m)
				progressed = true
			}
		}

		// only possible if the circular import check was skipped
		if !progressed {
			return report.Raise(report.CircularImport, nil, "modules can not be ordered due to a circular import")
		}
	}

	return nil
}
