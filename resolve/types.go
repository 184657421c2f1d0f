package resolve

import (
	"strconv"

	"requitec/ast"
	"requitec/depm"
	"requitec/report"
	"requitec/types"
)

// ResolveType resolves a type expression.  Type alias roots are kept as they
// are: see Concrete.  If canFail is set, an expression which does not name a
// type produces the empty type instead of an error.
//
// Pointer and array layers are peeled from the outside in: `*[builtin_array T
// 4]` is a pointer to an array.  A `!` or `?` marks the next layer (or the
// root) mutable or volatile.
func (r *Resolver) ResolveType(expr ast.Expression, canFail bool) (types.Type, error) {
	var (
		layers  []types.Subtype
		pending types.Qualifiers
	)

peel:
	for {
		op, ok := expr.(*ast.Operation)
		if !ok {
			break
		}

		switch op.Opcode {
		case ast.Star:
			if len(op.Branches) != 1 {
				break peel
			}

			layers = append(layers, types.Subtype{Qualifiers: types.QualPointer | pending})
		case ast.BuiltinArray:
			if len(op.Branches) != 2 {
				return types.Type{}, report.Raise(report.UnresolvedType, op.Span(), "array type must have an element type and a size")
			}

			size, err := arraySize(op.Branches[1])
			if err != nil {
				return types.Type{}, err
			}

			layers = append(layers, types.Subtype{Qualifiers: types.QualArray | pending, ArraySize: size})
		case ast.Bang:
			if len(op.Branches) != 1 {
				break peel
			}

			pending |= types.QualMutable
			expr = op.Branches[0]
			continue
		case ast.Question:
			if len(op.Branches) != 1 {
				break peel
			}

			pending |= types.QualVolatile
			expr = op.Branches[0]
			continue
		default:
			break peel
		}

		pending = 0
		expr = op.Branches[0]
	}

	root, err := r.resolveRoot(expr, canFail)
	if err != nil {
		return types.Type{}, err
	} else if root == nil {
		return types.Type{}, nil
	}

	t := types.Type{Root: root, Qualifiers: pending}
	if len(layers) > 0 {
		t.Subtypes = make([]types.Subtype, len(layers))
		for i, layer := range layers {
			t.Subtypes[len(layers)-1-i] = layer
		}
	}

	return t, nil
}

// ResolveConcreteType resolves a type expression and any type alias at its
// root.
func (r *Resolver) ResolveConcreteType(expr ast.Expression, canFail bool) (types.Type, error) {
	t, err := r.ResolveType(expr, canFail)
	if err != nil || t.IsEmpty() {
		return t, err
	}

	t, err = r.Concrete(t)
	if err != nil {
		return types.Type{}, report.InSpan(err, expr.Span())
	}

	return t, nil
}

// Concrete replaces the type alias root of a type with its target.
func (r *Resolver) Concrete(t types.Type) (types.Type, error) {
	return types.ResolveAlias(t, r.bin)
}

// arraySize reads the length of an array type.
func arraySize(expr ast.Expression) (int, error) {
	if lit, ok := expr.(*ast.Literal); ok && lit.Kind == ast.Number {
		if size, err := strconv.Atoi(lit.Text); err == nil && size > 0 {
			return size, nil
		}
	}

	return 0, report.Raise(report.UnresolvedType, expr.Span(), "array size must be a positive integer literal")
}

// resolveRoot resolves the root of a type expression.  A nil root with no
// error is returned when canFail is set and the expression is not a type.
func (r *Resolver) resolveRoot(expr ast.Expression, canFail bool) (types.Root, error) {
	switch v := expr.(type) {
	case *ast.Literal:
		if canFail {
			return nil, nil
		}

		return nil, report.Raise(report.UnresolvedType, v.Span(), "literal is not a type")
	case *ast.Identifier:
		// builtin types may be written without brackets
		if opcode := ast.LookupOpcode(v.Name); opcode.IsBuiltinType() {
			return r.resolveBuiltin(ast.NewOperation(opcode, v.Span()))
		}
	case *ast.Operation:
		if v.Opcode.IsBuiltinType() {
			return r.resolveBuiltin(v)
		}

		switch v.Opcode {
		case ast.AccessTable:
		case ast.Object:
			if len(v.Branches) == 0 && r.loc.object != depm.NoObject {
				return r.bin.ObjectType(r.loc.object).Root, nil
			}

			fallthrough
		default:
			if canFail {
				return nil, nil
			}

			return nil, report.Raise(report.UnresolvedType, v.Span(), "`%s` operation is not a type", v.Opcode)
		}
	}

	sym, err := r.SymbolOf(expr)
	if err != nil {
		if canFail && report.IsKind(err, report.UnresolvedSymbol) {
			return nil, nil
		}

		return nil, err
	}

	switch sym.Kind {
	case depm.SymObject:
		id := types.ObjectID(sym.ID)
		return types.ObjectRoot{ID: id, Name: r.bin.Object(id).Name}, nil
	case depm.SymTypeAlias:
		id := types.AliasID(sym.ID)
		return types.AliasRoot{ID: id, Name: r.bin.Alias(id).Name}, nil
	}

	if canFail {
		return nil, nil
	}

	return nil, report.Raise(report.UnresolvedType, expr.Span(), "%s is not a type", sym.Kind)
}

// resolveBuiltin resolves a builtin type operation.
func (r *Resolver) resolveBuiltin(op *ast.Operation) (types.Root, error) {
	switch op.Opcode {
	case ast.BuiltinBool:
		return types.Bool, nil
	case ast.BuiltinByte:
		return types.Byte, nil
	case ast.BuiltinVoid:
		return types.Void, nil
	case ast.BuiltinNull:
		return types.Null, nil
	case ast.BuiltinVariadicArguments:
		return types.VariadicArgs, nil
	case ast.BuiltinInteger:
		if len(op.Branches) != 2 {
			return nil, report.Raise(report.UnresolvedType, op.Span(), "integer type must have a signedness and a bit depth")
		}

		var signed bool
		switch name, _ := ast.NameOf(op.Branches[0]); name {
		case "signed":
			signed = true
		case "unsigned":
		default:
			return nil, report.Raise(report.UnresolvedType, op.Branches[0].Span(), "integer signedness must be `signed` or `unsigned`")
		}

		bitDepth, err := literalInt(op.Branches[1])
		if err != nil {
			return nil, err
		} else if !types.IsValidIntegerBitDepth(bitDepth) {
			return nil, report.Raise(report.UnresolvedType, op.Branches[1].Span(), "invalid integer bit depth: %d", bitDepth)
		}

		return types.Integer{Signed: signed, BitDepth: bitDepth}, nil
	case ast.BuiltinFloatingPoint:
		if len(op.Branches) == 1 {
			if name, ok := ast.NameOf(op.Branches[0]); ok {
				if kind, ok := types.FloatKindFromName(name); ok {
					return types.FloatingPoint{Kind: kind}, nil
				}
			}
		}

		return nil, report.Raise(report.UnresolvedType, op.Span(), "unknown floating point format")
	case ast.BuiltinFixedPoint:
		if len(op.Branches) != 2 {
			return nil, report.Raise(report.UnresolvedType, op.Span(), "fixed point type must have integer and decimal bit counts")
		}

		intBits, err := literalInt(op.Branches[0])
		if err != nil {
			return nil, err
		}

		decBits, err := literalInt(op.Branches[1])
		if err != nil {
			return nil, err
		}

		fp := types.FixedPoint{IntegerBits: intBits, DecimalBits: decBits}
		if !types.IsValidIntegerBitDepth(fp.BitDepth()) {
			return nil, report.Raise(report.UnresolvedType, op.Span(), "invalid fixed point bit depth: %d", fp.BitDepth())
		}

		return fp, nil
	case ast.BuiltinCodeunit:
		if len(op.Branches) == 1 {
			if name, ok := ast.NameOf(op.Branches[0]); ok {
				if enc, ok := types.EncodingFromName(name); ok {
					return types.Codeunit{Encoding: enc}, nil
				}
			}
		}

		return nil, report.Raise(report.UnresolvedType, op.Span(), "unknown codeunit encoding")
	}

	return nil, report.Raise(report.UnresolvedType, op.Span(), "`%s` is not a complete type", op.Opcode)
}

// literalInt reads a small non-negative integer literal.
func literalInt(expr ast.Expression) (int, error) {
	if lit, ok := expr.(*ast.Literal); ok && lit.Kind == ast.Number {
		if n, err := strconv.Atoi(lit.Text); err == nil {
			return n, nil
		}
	}

	return 0, report.Raise(report.UnresolvedType, expr.Span(), "expected an integer literal")
}

// -----------------------------------------------------------------------------

// VariableType determines the type of a variable declaration of the form
// `[op name type? value?]`.  With two branches after the name, the first is
// the type and the second the initializer.  With one, it is the type if it
// names a type and the initializer otherwise, in which case the type is
// deduced from it.  The branch index of the initializer is also returned: it
// is equal to the number of branches if there is none.
func (r *Resolver) VariableType(op *ast.Operation, locals Locals) (types.Type, int, error) {
	switch len(op.Branches) {
	case 3:
		t, err := r.ResolveType(op.Branches[1], false)
		return t, 2, err
	case 2:
		t, err := r.ResolveType(op.Branches[1], true)
		if err != nil {
			return types.Type{}, 0, err
		} else if !t.IsEmpty() {
			return t, 2, nil
		}

		t, err = r.DeduceType(op.Branches[1], locals)
		if err != nil {
			return types.Type{}, 0, err
		}

		return t.ClearLiterals(), 1, nil
	}

	return types.Type{}, 0, report.Raise(
		report.InvalidDeclaration,
		op.Span(),
		"%s must have a name followed by a type, a value, or both",
		op.Opcode,
	)
}

// -----------------------------------------------------------------------------

// DeduceType deduces the type of a value expression.  Locals may be nil
// outside of procedure bodies.
func (r *Resolver) DeduceType(expr ast.Expression, locals Locals) (types.Type, error) {
	switch v := expr.(type) {
	case *ast.Literal:
		return types.FromLiteral(v)
	case *ast.Identifier:
		switch ast.LookupOpcode(v.Name) {
		case ast.True, ast.False:
			return types.BoolType, nil
		case ast.Null:
			return types.NullType, nil
		}

		if locals != nil {
			if t, ok := locals.LocalType(v.Name); ok {
				return t, nil
			}
		}

		if gid, ok := r.GlobalOf(v); ok {
			return r.globalType(gid, v.Span())
		}

		return types.Type{}, report.Raise(report.UnresolvedSymbol, v.Span(), "variable not found with name: `%s`", v.Name)
	}

	op := expr.(*ast.Operation)
	switch op.Opcode {
	case ast.AccessMember:
		pid, err := r.PropertyOf(op, locals)
		if err != nil {
			return types.Type{}, err
		}

		return r.bin.Property(pid).Type, nil
	case ast.AccessTable:
		if gid, ok := r.GlobalOf(op); ok {
			return r.globalType(gid, op.Span())
		}

		if _, err := r.SymbolOf(op); err != nil {
			return types.Type{}, err
		}

		return types.Type{}, report.Raise(report.TypeMismatch, op.Span(), "table access does not name a value")
	case ast.Construct, ast.BitCast, ast.AccessVariadicArgument:
		if len(op.Branches) == 0 {
			break
		}

		return r.ResolveConcreteType(op.Branches[0], false)
	case ast.Local:
		t, _, err := r.VariableType(op, locals)
		if err != nil {
			return types.Type{}, err
		}

		return r.Concrete(t)
	case ast.Call:
		pid, err := r.CallProcedure(op, locals)
		if err != nil {
			return types.Type{}, err
		}

		return r.bin.Procedure(pid).ReturnType, nil
	case ast.Dereference:
		if len(op.Branches) != 1 {
			break
		}

		return r.deducePointee(op.Branches[0], locals)
	case ast.IndexInto:
		if len(op.Branches) != 2 {
			break
		}

		t, err := r.DeduceType(op.Branches[0], locals)
		if err != nil {
			return types.Type{}, err
		} else if !t.IsIndexable() {
			return types.Type{}, report.Raise(report.TypeMismatch, op.Span(), "type `%s` can not be indexed", t.Repr())
		}

		return t.Dereference(), nil
	case ast.AddressOf:
		if len(op.Branches) != 1 {
			break
		}

		t, err := r.DeduceType(op.Branches[0], locals)
		if err != nil {
			return types.Type{}, err
		}

		return t.ClearLiterals().AddPointer(), nil
	case ast.This:
		if r.loc.object == depm.NoObject {
			return types.Type{}, report.Raise(report.InvalidOperation, op.Span(), "`this` used outside of an object")
		}

		return r.bin.ObjectType(r.loc.object).AddPointer(), nil
	case ast.Null:
		return types.NullType, nil
	case ast.PointerDepth, ast.SizeOf:
		return r.UptrType(), nil
	case ast.Truncate, ast.Tilde:
		if len(op.Branches) != 1 {
			break
		}

		return r.DeduceType(op.Branches[0], locals)
	case ast.Min, ast.Max, ast.CopySign:
		return r.DeduceGroupType(op.Branches, locals)
	default:
		if op.Opcode == ast.Star && len(op.Branches) == 1 {
			return r.deducePointee(op.Branches[0], locals)
		}

		if op.Opcode.IsMath() || op.Opcode.IsBitwise() {
			return r.DeduceGroupType(op.Branches, locals)
		}

		if op.Opcode.ReturnsBool() {
			return types.BoolType, nil
		}
	}

	return types.Type{}, report.Raise(report.Unsupported, op.Span(), "can not deduce the type of a `%s` operation", op.Opcode)
}

// deducePointee deduces the type a pointer expression points to.
func (r *Resolver) deducePointee(expr ast.Expression, locals Locals) (types.Type, error) {
	t, err := r.DeduceType(expr, locals)
	if err != nil {
		return types.Type{}, err
	} else if !t.IsPointer() || t.IsNull() {
		return types.Type{}, report.Raise(report.TypeMismatch, expr.Span(), "type `%s` can not be dereferenced", t.Repr())
	}

	return t.Dereference(), nil
}

// globalType returns the type of a global.  The type of a global is only
// known once it has been cataloged.
func (r *Resolver) globalType(id depm.GlobalID, span *report.TextSpan) (types.Type, error) {
	g := r.bin.Global(id)
	if g.Type.IsEmpty() {
		return types.Type{}, report.Raise(report.UnresolvedType, span, "type of global `%s` is not yet known", g.Name)
	}

	return r.Concrete(g.Type)
}

// ObjectOfMember returns the object owning the member named by the last
// branch of a member access.  Pointers to objects are looked through.
func (r *Resolver) ObjectOfMember(op *ast.Operation, locals Locals) (types.ObjectID, error) {
	if len(op.Branches) < 2 {
		return depm.NoObject, report.Raise(report.InvalidOperation, op.Span(), "member access must have at least two branches")
	}

	t, err := r.DeduceType(op.Branches[0], locals)
	if err != nil {
		return depm.NoObject, err
	}

	for _, branch := range op.Branches[1 : len(op.Branches)-1] {
		oid, err := r.objectOfType(t, branch.Span())
		if err != nil {
			return depm.NoObject, err
		}

		pid, err := r.propertyNamed(oid, branch)
		if err != nil {
			return depm.NoObject, err
		}

		t = r.bin.Property(pid).Type
	}

	return r.objectOfType(t, op.Branches[len(op.Branches)-1].Span())
}

// PropertyOf returns the property named by a member access.
func (r *Resolver) PropertyOf(op *ast.Operation, locals Locals) (depm.PropertyID, error) {
	oid, err := r.ObjectOfMember(op, locals)
	if err != nil {
		return depm.None, err
	}

	return r.propertyNamed(oid, op.Branches[len(op.Branches)-1])
}

func (r *Resolver) propertyNamed(oid types.ObjectID, expr ast.Expression) (depm.PropertyID, error) {
	o := r.bin.Object(oid)

	name, ok := ast.NameOf(expr)
	if !ok {
		return depm.None, report.Raise(report.InvalidOperation, expr.Span(), "member must be named by an identifier")
	}

	pid, ok := o.Property(name)
	if !ok {
		return depm.None, report.Raise(report.UnresolvedSymbol, expr.Span(), "object `%s` has no property named `%s`", o.Name, name)
	}

	return pid, nil
}

// objectOfType returns the object of an object type or of a pointer to one.
func (r *Resolver) objectOfType(t types.Type, span *report.TextSpan) (types.ObjectID, error) {
	for t.IsPointer() && !t.IsNull() {
		t = t.Dereference()
	}

	if oid, ok := t.Object(); ok && t.IsObject() {
		return oid, nil
	}

	return depm.NoObject, report.Raise(report.TypeMismatch, span, "type `%s` has no members", t.Repr())
}

// -----------------------------------------------------------------------------

// DeduceGroupType deduces the common type of the operands of an operation
// which expects all its operands to be of the same type.
func (r *Resolver) DeduceGroupType(exprs []ast.Expression, locals Locals) (types.Type, error) {
	if len(exprs) == 0 {
		return types.Type{}, nil
	}

	t, err := r.DeduceType(exprs[0], locals)
	if err != nil {
		return types.Type{}, err
	}

	for _, expr := range exprs[1:] {
		next, err := r.DeduceType(expr, locals)
		if err != nil {
			return types.Type{}, err
		}

		if t, err = UnifyTypes(t, next); err != nil {
			return types.Type{}, report.InSpan(err, expr.Span())
		}
	}

	return t, nil
}

// UnifyTypes finds the common type of two operand types.  Identical types
// unify trivially.  Two literals unify to the wider of the two: a float
// literal is wider than any integer literal.  A literal and a concrete type
// unify to the concrete type if it can represent the literal.  Mutability and
// volatility are not considered.
func UnifyTypes(a, b types.Type) (types.Type, error) {
	if types.Equal(a, b) || sameShape(a, b) {
		return a, nil
	}

	if a.IsLiteral() && b.IsLiteral() {
		if a.IsFloatingPoint() {
			return a, nil
		} else if b.IsFloatingPoint() {
			return b, nil
		}

		if ia, ok := a.Root.(types.Integer); ok {
			if ib, ok := b.Root.(types.Integer); ok {
				if ia.BitDepth < ib.BitDepth {
					return b, nil
				}

				return a, nil
			}
		}
	} else if a.IsLiteral() || b.IsLiteral() {
		lit, concrete := a, b
		if b.IsLiteral() {
			lit, concrete = b, a
		}

		if IsAssignable(lit, concrete) {
			return concrete, nil
		}
	} else if a.IsNull() && b.IsPointer() {
		return b, nil
	} else if b.IsNull() && a.IsPointer() {
		return a, nil
	}

	return types.Type{}, report.Raise(report.NoCommonType, nil, "no common type found for `%s` and `%s`", a.Repr(), b.Repr())
}

// sameShape returns whether two non-literal types differ only in mutability
// and volatility.
func sameShape(a, b types.Type) bool {
	if a.IsLiteral() || b.IsLiteral() || !layersMatch(a, b) {
		return false
	}

	return a.Root == b.Root
}

// layersMatch returns whether the subtype stacks of two types have the same
// pointer and array shape.
func layersMatch(from, to types.Type) bool {
	if len(from.Subtypes) != len(to.Subtypes) {
		return false
	}

	for i, st := range from.Subtypes {
		other := to.Subtypes[i]
		if st.IsPointer() != other.IsPointer() || st.IsArray() != other.IsArray() {
			return false
		}

		if st.IsArray() && st.ArraySize != other.ArraySize {
			return false
		}
	}

	return true
}

// IsAssignable returns whether a value of type from may be stored in a
// location of type to.  The subtype stacks must have the same shape.  A
// literal integer may be stored in any integer at least as wide or in any
// float.  A literal float may only be stored in a float.  Literal codeunits
// may be stored in any encoding compatible with ASCII.  Otherwise, the roots
// must be identical.  Null may be stored in any pointer.
func IsAssignable(from, to types.Type) bool {
	if from.IsNull() {
		return to.IsPointer()
	}

	if !layersMatch(from, to) {
		return false
	}

	if !from.Qualifiers.Has(types.QualLiteral) {
		return from.Root == to.Root
	}

	switch fr := from.Root.(type) {
	case types.Integer:
		switch tr := to.Root.(type) {
		case types.Integer:
			return tr.BitDepth >= fr.BitDepth
		case types.FloatingPoint:
			return true
		}
	case types.FloatingPoint:
		_, ok := to.Root.(types.FloatingPoint)
		return ok
	case types.Codeunit:
		tr, ok := to.Root.(types.Codeunit)
		return ok && tr.Encoding.IsASCIICompatible()
	}

	return false
}

// CheckAssignable returns an error if from is not assignable to to.
func CheckAssignable(from, to types.Type, span *report.TextSpan) error {
	if IsAssignable(from, to) {
		return nil
	}

	return report.Raise(report.TypeMismatch, span, "type `%s` is not assignable to `%s`", from.Repr(), to.Repr())
}

// -----------------------------------------------------------------------------

// PointerBitDepth returns the pointer width of the target.
func (r *Resolver) PointerBitDepth() int {
	return r.bin.PointerWidth
}

// UptrType returns the unsigned integer type as wide as a pointer.
func (r *Resolver) UptrType() types.Type {
	return types.New(types.Integer{Signed: false, BitDepth: r.PointerBitDepth()})
}

// BitDepth returns the number of bits a value of a type occupies, ignoring
// any padding the target adds.
func (r *Resolver) BitDepth(t types.Type) int {
	if t.IsEmpty() {
		return 0
	}

	if !t.IsEndemic() {
		if t.IsPointer() {
			return r.PointerBitDepth()
		}

		return r.BitDepth(t.Dereference()) * t.ArraySize()
	}

	switch root := t.Root.(type) {
	case types.Integer:
		return root.BitDepth
	case types.FloatingPoint:
		return root.Kind.BitDepth()
	case types.FixedPoint:
		return root.BitDepth()
	case types.Codeunit:
		return root.Encoding.BitDepth()
	case types.Special:
		if root == types.Null {
			return r.PointerBitDepth()
		}

		return root.BitDepth()
	case types.ObjectRoot:
		depth := 0
		for _, pid := range r.bin.Object(root.ID).Properties {
			depth += r.BitDepth(r.bin.Property(pid).Type)
		}

		return depth
	case types.AliasRoot:
		if ct, err := r.Concrete(t); err == nil {
			return r.BitDepth(ct)
		}
	}

	return 0
}
