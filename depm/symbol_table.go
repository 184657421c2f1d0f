package depm

import (
	"requitec/report"
)

// SymbolKind is the kind of entity a symbol names.
type SymbolKind int

// Enumeration of symbol kinds.
const (
	SymGroup SymbolKind = iota
	SymGlobal
	SymObject
	SymExportGroup
	SymTypeAlias
)

func (sk SymbolKind) String() string {
	switch sk {
	case SymGroup:
		return "procedure"
	case SymGlobal:
		return "global"
	case SymObject:
		return "object"
	case SymExportGroup:
		return "export group"
	default:
		return "type alias"
	}
}

// Symbol is a named entity in a symbol table.  ID is a handle whose kind is
// determined by Kind.
type Symbol struct {
	Kind SymbolKind
	ID   int
}

// SymbolTable maps names to symbols.  Symbol tables are owned by modules,
// objects, export groups, and the binary.
type SymbolTable struct {
	symbols map[string]Symbol

	// names records insertion order for deterministic iteration.
	names []string
}

// NewSymbolTable creates a new empty symbol table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{symbols: make(map[string]Symbol)}
}

// Lookup returns the symbol with the given name.
func (st *SymbolTable) Lookup(name string) (Symbol, bool) {
	sym, ok := st.symbols[name]
	return sym, ok
}

// LookupKind returns the handle of the symbol with the given name if it is of
// the given kind.
func (st *SymbolTable) LookupKind(name string, kind SymbolKind) (int, bool) {
	if sym, ok := st.symbols[name]; ok && sym.Kind == kind {
		return sym.ID, true
	}

	return None, false
}

// Define adds a new symbol to the table.  A name may only be defined once.
func (st *SymbolTable) Define(name string, sym Symbol) error {
	if _, ok := st.symbols[name]; ok {
		return report.Raise(report.DuplicateSymbol, nil, "name must be disambiguous: `%s`", name)
	}

	st.symbols[name] = sym
	st.names = append(st.names, name)
	return nil
}

// Names returns the names in the table in insertion order.
func (st *SymbolTable) Names() []string {
	return st.names
}

// Len returns the number of symbols in the table.
func (st *SymbolTable) Len() int {
	return len(st.names)
}
