package depm

import (
	"requitec/ast"
	"requitec/types"
)

// Handles to the entities owned by a binary.  Every handle is an index into
// the corresponding arena of the binary.
type (
	ModuleID      int
	ProcedureID   int
	GroupID       int
	GlobalID      int
	PropertyID    int
	ExportGroupID int
	ExtensionID   int
)

// None is the value of an absent handle of any kind.
const None = -1

// NoObject is the absent object handle.
const NoObject = types.ObjectID(None)

// -----------------------------------------------------------------------------

// ProcedureCategory is the kind of a procedure.
type ProcedureCategory int

// Enumeration of procedure categories.
const (
	CategoryUnknown ProcedureCategory = iota
	CategoryFunction
	CategoryMethod
	CategoryConstructor
	CategoryDefaultConstructor
	CategoryDestructor
	CategoryEntryPoint
	CategoryExternalFunction
)

// CategoryOf returns the procedure category declared by a procedure opcode.
func CategoryOf(opcode ast.Opcode) ProcedureCategory {
	switch opcode {
	case ast.Function:
		return CategoryFunction
	case ast.Method:
		return CategoryMethod
	case ast.Constructor:
		return CategoryConstructor
	case ast.Destructor:
		return CategoryDestructor
	case ast.EntryPoint:
		return CategoryEntryPoint
	case ast.ExternalFunction:
		return CategoryExternalFunction
	}

	return CategoryUnknown
}

func (pc ProcedureCategory) String() string {
	switch pc {
	case CategoryFunction:
		return "function"
	case CategoryMethod:
		return "method"
	case CategoryConstructor:
		return "constructor"
	case CategoryDefaultConstructor:
		return "default constructor"
	case CategoryDestructor:
		return "destructor"
	case CategoryEntryPoint:
		return "entry point"
	case CategoryExternalFunction:
		return "external function"
	}

	return "unknown"
}

// IsInstanced returns whether procedures of the category take a receiver.
func (pc ProcedureCategory) IsInstanced() bool {
	switch pc {
	case CategoryMethod, CategoryConstructor, CategoryDefaultConstructor, CategoryDestructor:
		return true
	}

	return false
}

// IsConstructor returns whether the category is a kind of constructor.
func (pc ProcedureCategory) IsConstructor() bool {
	return pc == CategoryConstructor || pc == CategoryDefaultConstructor
}

// -----------------------------------------------------------------------------

// Argument is a declared argument of a procedure.
type Argument struct {
	Name string
	Type types.Type
}

// Procedure is one concrete overload.
type Procedure struct {
	// The declared name of the procedure.  Constructors, destructors, and the
	// entry point have no name.
	Name string

	// The name the procedure has in the emitted IR.
	MangledName string

	// The declaration order of the procedure within its module.
	ModuleSymbolI int

	// The category of the procedure.
	Category ProcedureCategory

	// The return type of the procedure.
	ReturnType types.Type

	// Whether the procedure accepts native variadic arguments.
	HasVariadicArgs bool

	// The declared arguments of the procedure.
	Args []Argument

	// The index of the first statement of the body within the declaration.
	BodyStartI int

	// The declaring operation.  This is nil for default constructors.
	Decl *ast.Operation

	// The attributes of the declaration.
	Attrs ast.AttributeList

	// The calling convention of the procedure.
	CallingConvention CallingConvention

	// The object the procedure belongs to if any.
	Object types.ObjectID

	// The owning module, export group, and procedure group.
	Module      ModuleID
	ExportGroup ExportGroupID
	Group       GroupID
}

// HasBody returns whether the procedure has statements to lower.
func (p *Procedure) HasBody() bool {
	return p.Decl != nil && p.BodyStartI < len(p.Decl.Branches)
}

// IsInstanced returns whether the procedure takes a receiver.
func (p *Procedure) IsInstanced() bool {
	return p.Category.IsInstanced()
}

// IsConstructor returns whether the procedure is a constructor.
func (p *Procedure) IsConstructor() bool {
	return p.Category.IsConstructor()
}

// IsDestructor returns whether the procedure is a destructor.
func (p *Procedure) IsDestructor() bool {
	return p.Category == CategoryDestructor
}

// IsDefault returns whether the procedure is a synthesized default
// constructor.
func (p *Procedure) IsDefault() bool {
	return p.Category == CategoryDefaultConstructor
}

// HasSRet returns whether the procedure returns through a hidden pointer.
func (p *Procedure) HasSRet() bool {
	return !p.ReturnType.IsEmpty() && !p.ReturnType.IsVoid() && p.ReturnType.IsStoreType()
}

// SRetType returns the type of the hidden return pointer.
func (p *Procedure) SRetType() types.Type {
	return p.ReturnType.AddPointer()
}

// ProcedureGroup is the set of overloads sharing a name within one table.
type ProcedureGroup struct {
	// The shared name of the overloads.
	Name string

	// The shared category of the overloads.
	Category ProcedureCategory

	// The overloads in declaration order.
	Overloads []ProcedureID
}

// IsEmpty returns whether the group has no overloads.
func (pg *ProcedureGroup) IsEmpty() bool {
	return len(pg.Overloads) == 0
}

// Object is a user aggregate type.
type Object struct {
	// The name of the object.
	Name string

	// The declaration order of the object within its module.
	ModuleSymbolI int

	// Whether the object is laid out without padding.
	Packed bool

	// The overloads of the constructor.
	ConstructorGroup GroupID

	// The destructor of the object if it has one.
	Destructor ProcedureID

	// The table of symbols declared inside the object.
	Table *SymbolTable

	// The properties of the object in layout order.
	Properties []PropertyID

	// propertyTable maps property names to properties.
	propertyTable map[string]PropertyID

	// The declaring operation.
	Decl *ast.Operation

	// The attributes of the declaration.
	Attrs ast.AttributeList

	// The owning module and export group.
	Module      ModuleID
	ExportGroup ExportGroupID
}

// HasDestructor returns whether the object declares a destructor.
func (o *Object) HasDestructor() bool {
	return o.Destructor != None
}

// Property looks up a property of the object by name.
func (o *Object) Property(name string) (PropertyID, bool) {
	id, ok := o.propertyTable[name]
	return id, ok
}

// Property is a field of an object.
type Property struct {
	// The name of the property.
	Name string

	// The position of the property within its object.
	PropertyI int

	// The declaration order of the property within its module.
	ModuleSymbolI int

	// The branch index of the initializer within the declaration.  This is
	// equal to the number of branches when there is no initializer.
	ValueI int

	// The type of the property.
	Type types.Type

	// The object the property belongs to.
	Object types.ObjectID

	// The declaring operation.
	Decl *ast.Operation

	// The attributes of the declaration.
	Attrs ast.AttributeList
}

// HasValue returns whether the property has an initializer.
func (p *Property) HasValue() bool {
	return p.Decl != nil && p.ValueI < len(p.Decl.Branches)
}

// IsNoAutodestruct returns whether the property is exempt from automatic
// destruction.
func (p *Property) IsNoAutodestruct() bool {
	return p.Attrs.Has(ast.NoAutodestruct)
}

// Global is a module or object level variable.
type Global struct {
	// The name of the global.
	Name string

	// The name the global has in the emitted IR.
	MangledName string

	// The declaration order of the global within its module.
	ModuleSymbolI int

	// The type of the global.
	Type types.Type

	// The branch index of the initializer within the declaration.
	ValueI int

	// The declaring operation.
	Decl *ast.Operation

	// The attributes of the declaration.
	Attrs ast.AttributeList

	// The object the global belongs to if any.
	Object types.ObjectID

	// The owning module and export group.
	Module      ModuleID
	ExportGroup ExportGroupID
}

// HasValue returns whether the global has an initializer.
func (g *Global) HasValue() bool {
	return g.Decl != nil && g.ValueI < len(g.Decl.Branches)
}

// ExportGroup is a named namespace of exported symbols.
type ExportGroup struct {
	// The name of the export group.
	Name string

	// The symbols of the export group.
	Table *SymbolTable

	// The enclosing export group if any.
	Parent ExportGroupID
}

// TypeAlias is a name standing for another type.
type TypeAlias struct {
	// The name of the type alias.
	Name string

	// The declaration order of the type alias within its module.
	ModuleSymbolI int

	// The aliased type.
	Type types.Type

	// The declaring operation.
	Decl *ast.Operation

	// The object the alias belongs to if any.
	Object types.ObjectID

	// The owning module and export group.
	Module      ModuleID
	ExportGroup ExportGroupID
}

// ObjectExtension is a deferred block of members attached to an object
// declared elsewhere.
type ObjectExtension struct {
	// The declaration order of the extension within its module.
	ModuleSymbolI int

	// The extended object.  This is resolved after tabulation.
	Object types.ObjectID

	// The declaring operation.
	Decl *ast.Operation

	// The owning module and export group.
	Module      ModuleID
	ExportGroup ExportGroupID
}
