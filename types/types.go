package types

import (
	"strconv"
	"strings"
)

// Qualifiers is a set of type qualifier flags.
type Qualifiers uint8

// Enumeration of qualifier flags.
const (
	QualPointer Qualifiers = 1 << iota
	QualArray
	QualMutable
	QualVolatile
	QualLiteral
)

// Has returns whether all the given flags are set.
func (q Qualifiers) Has(flags Qualifiers) bool {
	return q&flags == flags
}

// With returns the qualifiers with the given flags set or cleared.
func (q Qualifiers) With(flags Qualifiers, set bool) Qualifiers {
	if set {
		return q | flags
	}

	return q &^ flags
}

// Subtype is one pointer or array layer wrapping a type's root.
type Subtype struct {
	// The qualifiers of the layer.
	Qualifiers Qualifiers

	// The length of the array if this layer is an array.  Arrays always have a
	// non-zero length.
	ArraySize int
}

// IsPointer returns whether the layer is a pointer.
func (st Subtype) IsPointer() bool {
	return st.Qualifiers.Has(QualPointer)
}

// IsArray returns whether the layer is an array.
func (st Subtype) IsArray() bool {
	return st.Qualifiers.Has(QualArray)
}

// -----------------------------------------------------------------------------

// Type is a Requite data type: a root wrapped by a stack of subtype layers.
// The subtype stack is ordered innermost first: the last subtype is the
// outermost layer.  Types are values: every transformation returns a new type
// and never mutates the subtype slice of its receiver.
type Type struct {
	// The root of the type.  This is nil for the empty type.
	Root Root

	// The qualifiers applied directly to the root.
	Qualifiers Qualifiers

	// The subtype layers of the type.
	Subtypes []Subtype
}

// New creates a new type with the given root and no subtypes.
func New(root Root) Type {
	return Type{Root: root}
}

// Some common types.
var (
	BoolType    = New(Bool)
	VoidType    = New(Void)
	ByteType    = New(Byte)
	I32Type     = New(Integer{Signed: true, BitDepth: 32})
	NullType    = New(Null)
	VarArgsType = New(VariadicArgs)
)

// Repr returns the representative string for the type.
func (t Type) Repr() string {
	if t.Root == nil {
		return "<empty>"
	}

	var sb strings.Builder
	for i := len(t.Subtypes) - 1; i >= 0; i-- {
		st := t.Subtypes[i]
		if st.Qualifiers.Has(QualMutable) {
			sb.WriteRune('!')
		}

		if st.Qualifiers.Has(QualVolatile) {
			sb.WriteRune('?')
		}

		if st.IsPointer() {
			sb.WriteRune('*')
		} else if st.IsArray() {
			sb.WriteString("[" + strconv.Itoa(st.ArraySize) + "]")
		}
	}

	if t.Qualifiers.Has(QualMutable) {
		sb.WriteRune('!')
	}

	if t.Qualifiers.Has(QualVolatile) {
		sb.WriteRune('?')
	}

	sb.WriteString(t.Root.Repr())

	if t.Qualifiers.Has(QualLiteral) {
		sb.WriteString(" literal")
	}

	return sb.String()
}

// copySubtypes returns a copy of the subtype stack with room for extra layers.
func (t Type) copySubtypes(extra int) []Subtype {
	subtypes := make([]Subtype, len(t.Subtypes), len(t.Subtypes)+extra)
	copy(subtypes, t.Subtypes)
	return subtypes
}

// top returns the outermost subtype if one exists.
func (t Type) top() (Subtype, bool) {
	if len(t.Subtypes) == 0 {
		return Subtype{}, false
	}

	return t.Subtypes[len(t.Subtypes)-1], true
}

// TopQualifiers returns the qualifiers of the outermost layer of the type.
func (t Type) TopQualifiers() Qualifiers {
	if st, ok := t.top(); ok {
		return st.Qualifiers
	}

	return t.Qualifiers
}

// -----------------------------------------------------------------------------

// IsEmpty returns whether the type has no root.
func (t Type) IsEmpty() bool {
	return t.Root == nil
}

// IsEndemic returns whether the type has no subtypes.
func (t Type) IsEndemic() bool {
	return len(t.Subtypes) == 0
}

// IsPointer returns whether the outermost layer is a pointer.  The null type
// is also a pointer.
func (t Type) IsPointer() bool {
	if st, ok := t.top(); ok {
		return st.IsPointer()
	}

	return t.Root == Null
}

// IsArray returns whether the outermost layer is an array.
func (t Type) IsArray() bool {
	st, ok := t.top()
	return ok && st.IsArray()
}

// ArraySize returns the length of the outermost array layer.
func (t Type) ArraySize() int {
	if st, ok := t.top(); ok {
		return st.ArraySize
	}

	return 0
}

// IsIndexable returns whether the type can be indexed into.
func (t Type) IsIndexable() bool {
	return t.IsPointer() || t.IsArray()
}

// IsInteger returns whether the type is an integer.
func (t Type) IsInteger() bool {
	_, ok := t.Root.(Integer)
	return ok && t.IsEndemic()
}

// IsSignedInteger returns whether the type is a signed integer.
func (t Type) IsSignedInteger() bool {
	it, ok := t.Root.(Integer)
	return ok && t.IsEndemic() && it.Signed
}

// IsUnsignedInteger returns whether the type is an unsigned integer.
func (t Type) IsUnsignedInteger() bool {
	it, ok := t.Root.(Integer)
	return ok && t.IsEndemic() && !it.Signed
}

// IsFloatingPoint returns whether the type is a floating point number.
func (t Type) IsFloatingPoint() bool {
	_, ok := t.Root.(FloatingPoint)
	return ok && t.IsEndemic()
}

// IsFixedPoint returns whether the type is a fixed point number.
func (t Type) IsFixedPoint() bool {
	_, ok := t.Root.(FixedPoint)
	return ok && t.IsEndemic()
}

// IsCodeunit returns whether the type is a codeunit.
func (t Type) IsCodeunit() bool {
	_, ok := t.Root.(Codeunit)
	return ok && t.IsEndemic()
}

func (t Type) isSpecial(st Special) bool {
	return t.IsEndemic() && t.Root == st
}

// IsBool returns whether the type is bool.
func (t Type) IsBool() bool {
	return t.isSpecial(Bool)
}

// IsByte returns whether the type is byte.
func (t Type) IsByte() bool {
	return t.isSpecial(Byte)
}

// IsVoid returns whether the type is void.
func (t Type) IsVoid() bool {
	return t.isSpecial(Void)
}

// IsNull returns whether the type is the null pointer type.
func (t Type) IsNull() bool {
	return t.isSpecial(Null)
}

// IsVariadicArguments returns whether the type is the variadic argument list.
func (t Type) IsVariadicArguments() bool {
	return t.isSpecial(VariadicArgs)
}

// IsPrimitive returns whether the root of the type is primitive.
func (t Type) IsPrimitive() bool {
	switch r := t.Root.(type) {
	case Integer, FloatingPoint, FixedPoint, Codeunit:
		return true
	case Special:
		return r == Bool || r == Byte
	}

	return false
}

// IsNumericPrimitive returns whether the type is a number.
func (t Type) IsNumericPrimitive() bool {
	return t.IsInteger() || t.IsFloatingPoint() || t.IsFixedPoint()
}

// IsObject returns whether the type is an object.
func (t Type) IsObject() bool {
	_, ok := t.Root.(ObjectRoot)
	return ok && t.IsEndemic()
}

// Object returns the object handle of the root if it is an object.
func (t Type) Object() (ObjectID, bool) {
	if obj, ok := t.Root.(ObjectRoot); ok {
		return obj.ID, true
	}

	return 0, false
}

// IsTypeAlias returns whether the root of the type is a type alias.
func (t Type) IsTypeAlias() bool {
	_, ok := t.Root.(AliasRoot)
	return ok
}

// IsPointerToCodeunit returns whether the type is a single pointer to a
// codeunit: ie. a string.
func (t Type) IsPointerToCodeunit() bool {
	_, ok := t.Root.(Codeunit)
	return ok && len(t.Subtypes) == 1 && t.IsPointer()
}

// IsMutable returns whether the outermost layer is mutable.
func (t Type) IsMutable() bool {
	return t.TopQualifiers().Has(QualMutable)
}

// IsVolatile returns whether the outermost layer is volatile.
func (t Type) IsVolatile() bool {
	return t.TopQualifiers().Has(QualVolatile)
}

// IsLiteral returns whether the type is the type of an unannotated literal.
// Literal types never have subtypes.
func (t Type) IsLiteral() bool {
	return t.IsEndemic() && t.Qualifiers.Has(QualLiteral)
}

// IsValueType returns whether values of the type are passed in registers.
// This is true for primitives and for pointers.
func (t Type) IsValueType() bool {
	if t.IsEndemic() {
		return t.IsPrimitive() || t.Root == Null
	}

	return t.IsPointer()
}

// IsStoreType returns whether values of the type are passed in memory.
func (t Type) IsStoreType() bool {
	return !t.IsValueType()
}

// -----------------------------------------------------------------------------

// AddPointer returns the type wrapped in a pointer layer.
func (t Type) AddPointer() Type {
	subtypes := t.copySubtypes(1)
	subtypes = append(subtypes, Subtype{Qualifiers: QualPointer})
	return Type{Root: t.Root, Qualifiers: t.Qualifiers, Subtypes: subtypes}
}

// AddArray returns the type wrapped in an array layer of the given length.
func (t Type) AddArray(size int) Type {
	subtypes := t.copySubtypes(1)
	subtypes = append(subtypes, Subtype{Qualifiers: QualArray, ArraySize: size})
	return Type{Root: t.Root, Qualifiers: t.Qualifiers, Subtypes: subtypes}
}

// Dereference returns the type with its outermost layer removed.
func (t Type) Dereference() Type {
	if len(t.Subtypes) == 0 {
		return t
	}

	subtypes := t.copySubtypes(0)
	return Type{Root: t.Root, Qualifiers: t.Qualifiers, Subtypes: subtypes[:len(subtypes)-1]}
}

// ClearLiterals returns the type without its literal flag.
func (t Type) ClearLiterals() Type {
	return Type{Root: t.Root, Qualifiers: t.Qualifiers &^ QualLiteral, Subtypes: t.copySubtypes(0)}
}

// withTop returns the type with its outermost qualifiers modified.
func (t Type) withTop(flags Qualifiers, set bool) Type {
	nt := Type{Root: t.Root, Qualifiers: t.Qualifiers, Subtypes: t.copySubtypes(0)}
	if len(nt.Subtypes) == 0 {
		nt.Qualifiers = nt.Qualifiers.With(flags, set)
	} else {
		top := &nt.Subtypes[len(nt.Subtypes)-1]
		top.Qualifiers = top.Qualifiers.With(flags, set)
	}

	return nt
}

// WithMutable returns the type with the mutability of its outermost layer set.
func (t Type) WithMutable(mutable bool) Type {
	return t.withTop(QualMutable, mutable)
}

// WithVolatile returns the type with the volatility of its outermost layer set.
func (t Type) WithVolatile(volatile bool) Type {
	return t.withTop(QualVolatile, volatile)
}

// -----------------------------------------------------------------------------

// Equal returns whether two types are structurally identical.
func Equal(a, b Type) bool {
	if a.Root != b.Root || a.Qualifiers != b.Qualifiers || len(a.Subtypes) != len(b.Subtypes) {
		return false
	}

	for i, st := range a.Subtypes {
		if st != b.Subtypes[i] {
			return false
		}
	}

	return true
}

// Equivalent returns whether two types are the same type ignoring literal
// flags.  Mutability must match layer for layer.
func Equivalent(a, b Type) bool {
	if len(a.Subtypes) != len(b.Subtypes) {
		return false
	}

	for i, st := range a.Subtypes {
		if st.Qualifiers.Has(QualMutable) != b.Subtypes[i].Qualifiers.Has(QualMutable) {
			return false
		}
	}

	return a.Root == b.Root
}
