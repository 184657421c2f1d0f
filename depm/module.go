package depm

import (
	"path/filepath"
	"strings"

	"requitec/ast"
	"requitec/common"
	"requitec/report"
	"requitec/types"
)

// Module is one compilation unit: a single source file.
type Module struct {
	// The handle of the module in its binary.
	ID ModuleID

	// The absolute path to the source file of the module.
	Path string

	// The name of the module.  This is either the name given by a leading
	// `module` operation or a reserved name generated from the file name.
	Name string

	// The top-level operations of the module.
	Ops []*ast.Operation

	// The index of the first top-level operation which is a declaration.
	FirstDeclI int

	// The imported modules: first the direct imports in the order they are
	// listed and then, once expanded, all transitive imports.
	Imports []ModuleID

	// importSet contains every module in Imports.
	importSet map[ModuleID]struct{}

	// expanded indicates whether the imports have been transitively expanded.
	expanded bool

	// The entities declared in the module.
	Procedures []ProcedureID
	Globals    []GlobalID
	Objects    []types.ObjectID
	Extensions []ExtensionID
	Aliases    []types.AliasID

	// The module-level symbol table.
	Table *SymbolTable

	// The position of the module in the computed module order.
	ModuleI int

	// The highest order index among the imports of the module.  A scheduler
	// may begin processing the module once this module has been processed.
	LastBlockingModuleI int

	// symbolCounter is the next declaration order index.
	symbolCounter int
}

// NextSymbolI returns a new strictly increasing declaration order index.
func (m *Module) NextSymbolI() int {
	i := m.symbolCounter
	m.symbolCounter++
	return i
}

// HasImport returns whether the module imports the given module directly or
// transitively (after expansion).
func (m *Module) HasImport(id ModuleID) bool {
	_, ok := m.importSet[id]
	return ok
}

// DetermineName determines the name of the module.
func (m *Module) DetermineName() error {
	if len(m.Ops) > 0 && m.Ops[0].Opcode == ast.Module {
		first := m.Ops[0]
		if len(first.Branches) != 1 {
			return report.Raise(report.InvalidModuleName, first.Span(), "module declaration takes exactly one name")
		}

		name, ok := ast.NameOf(first.Branches[0])
		if !ok {
			return report.Raise(report.InvalidModuleName, first.Branches[0].Span(), "module name must be an identifier")
		}

		if strings.HasPrefix(name, common.ReservedPrefix) {
			return report.Raise(
				report.InvalidModuleName,
				first.Branches[0].Span(),
				"user module name must not start with `%s`",
				common.ReservedPrefix,
			)
		}

		m.Name = name
		m.FirstDeclI = 1
		return nil
	}

	stem := strings.TrimSuffix(filepath.Base(m.Path), filepath.Ext(m.Path))
	m.Name = common.ReservedPrefix + stem
	return nil
}

// importOp returns the import operation of the module if it has one.
func (m *Module) importOp() *ast.Operation {
	i := 0
	if len(m.Ops) > 0 && m.Ops[0].Opcode == ast.Module {
		i = 1
	}

	if i < len(m.Ops) && m.Ops[i].Opcode == ast.Import {
		return m.Ops[i]
	}

	return nil
}
