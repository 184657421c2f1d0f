package generate

import (
	"requitec/ast"
	"requitec/report"
	"requitec/resolve"
	"requitec/types"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	lltypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// genExpected generates a value expression after checking that its type is
// assignable to the expected type.
func (b *Builder) genExpected(expr ast.Expression, expected types.Type) (value.Value, error) {
	t, err := b.deduce(expr)
	if err != nil {
		return nil, err
	} else if err := resolve.CheckAssignable(t, expected, expr.Span()); err != nil {
		return nil, err
	}

	return b.genValue(expr, expected)
}

// genValue generates a value expression.  The expected type is the type the
// value is used as: it determines the type of literals and of operations on
// literals.  Assignability must already be checked.
func (b *Builder) genValue(expr ast.Expression, expected types.Type) (value.Value, error) {
	switch v := expr.(type) {
	case *ast.Literal:
		return b.genLiteral(v, expected)
	case *ast.Identifier:
		return b.genIdentifier(v, expected)
	}

	op := expr.(*ast.Operation)
	switch op.Opcode {
	case ast.Call:
		return b.genCallValue(op)
	case ast.Construct:
		return b.genConstructValue(op)
	case ast.BitCast:
		return b.genBitCast(op)
	case ast.SizeOf:
		return b.genSizeOf(op)
	case ast.PointerDepth:
		return constant.NewInt(lltypes.NewInt(uint64(b.r.PointerBitDepth())), int64(b.r.PointerBitDepth())), nil
	case ast.AddressOf:
		if len(op.Branches) != 1 {
			break
		}

		loc, _, err := b.genLocation(op.Branches[0], true)
		if err != nil {
			return nil, err
		}

		// the pointee may be written through the pointer
		b.markAssigned(op.Branches[0])
		return loc, nil
	case ast.AccessMember, ast.AccessTable, ast.Dereference, ast.IndexInto:
		return b.genLoadFrom(op)
	case ast.This:
		this, ok := b.f.lookup("this")
		if !ok {
			return nil, report.Raise(report.InvalidOperation, op.Span(), "`this` used outside of a method")
		}

		return b.block.NewLoad(this.llType, this.alloca), nil
	case ast.True:
		return constant.True, nil
	case ast.False:
		return constant.False, nil
	case ast.Null:
		return b.genNull(expected)
	case ast.AccessVariadicArgument:
		return b.genVariadicArgument(op)
	case ast.AndAnd, ast.PipePipe:
		return b.genShortCircuit(op)
	case ast.Bang:
		if len(op.Branches) != 1 {
			break
		}

		x, err := b.genBoolValue(op.Branches[0])
		if err != nil {
			return nil, err
		}

		return b.block.NewXor(x, constant.True), nil
	case ast.Tilde:
		if len(op.Branches) != 1 {
			break
		}

		return b.genComplement(op, expected)
	case ast.Min, ast.Max:
		return b.genMinMax(op, expected)
	case ast.Star:
		if len(op.Branches) == 1 {
			return b.genLoadFrom(op)
		}
	}

	switch {
	case op.Opcode.IsComparison():
		return b.genComparison(op)
	case op.Opcode.IsMath() || op.Opcode.IsBitwise():
		return b.genArithmetic(op, expected)
	}

	return nil, report.Raise(report.Unsupported, op.Span(), "`%s` is not supported as a value", op.Opcode)
}

// genLoadFrom generates a value by loading it from the location an expression
// names.
func (b *Builder) genLoadFrom(expr ast.Expression) (value.Value, error) {
	loc, t, err := b.genLocation(expr, false)
	if err != nil {
		return nil, err
	}

	return b.load(t, loc)
}

// -----------------------------------------------------------------------------

// genLiteral generates a literal as a constant of the expected type.  A
// literal with no expected type has its own literal type.
func (b *Builder) genLiteral(lit *ast.Literal, expected types.Type) (value.Value, error) {
	t := expected
	if t.IsEmpty() {
		litType, err := types.FromLiteral(lit)
		if err != nil {
			return nil, err
		}

		t = litType.ClearLiterals()
	}

	llType, err := b.convType(t)
	if err != nil {
		return nil, report.InSpan(err, lit.Span())
	}

	switch lit.Kind {
	case ast.Number:
		if t.IsInteger() {
			n, err := b.r.IntegerConstant(lit, t)
			if err != nil {
				return nil, err
			}

			return constant.NewIntFromString(llType.(*lltypes.IntType), n.String())
		} else if t.IsFloatingPoint() {
			return constant.NewFloatFromString(llType.(*lltypes.FloatType), lit.Text+".0")
		}
	case ast.NumberWithDecimal:
		if t.IsFloatingPoint() {
			return constant.NewFloatFromString(llType.(*lltypes.FloatType), lit.Text)
		}
	case ast.Codeunit:
		if it, ok := llType.(*lltypes.IntType); ok {
			r, err := unquoteCodeunit(lit)
			if err != nil {
				return nil, err
			}

			return constant.NewInt(it, int64(r)), nil
		}
	case ast.String:
		if pt, ok := llType.(*lltypes.PointerType); ok && lltypes.Equal(pt.ElemType, lltypes.I8) {
			return b.stringConstant(lit)
		}

		return nil, report.Raise(report.Unsupported, lit.Span(), "string literals can only be stored as strings of 8 bit codeunits")
	}

	return nil, report.Raise(report.TypeMismatch, lit.Span(), "literal can not be used as type `%s`", t.Repr())
}

// genIdentifier generates the value of a named local or global or of a
// builtin constant.
func (b *Builder) genIdentifier(id *ast.Identifier, expected types.Type) (value.Value, error) {
	switch ast.LookupOpcode(id.Name) {
	case ast.True:
		return constant.True, nil
	case ast.False:
		return constant.False, nil
	case ast.Null:
		return b.genNull(expected)
	}

	return b.genLoadFrom(id)
}

// genNull generates a null pointer of the expected pointer type.
func (b *Builder) genNull(expected types.Type) (value.Value, error) {
	if expected.IsPointer() && !expected.IsNull() {
		llType, err := b.convType(expected)
		if err != nil {
			return nil, err
		}

		return constant.NewNull(llType.(*lltypes.PointerType)), nil
	}

	return constant.NewNull(lltypes.I8Ptr), nil
}

// -----------------------------------------------------------------------------

// operandType determines the type the operands of an operation are
// generated as.  Operands which are all literals take the expected type if
// they fit in it and their own type otherwise.
func (b *Builder) operandType(exprs []ast.Expression, expected types.Type) (types.Type, error) {
	t, err := b.r.DeduceGroupType(exprs, b.locals())
	if err != nil {
		return types.Type{}, err
	}

	t, err = b.r.Concrete(t)
	if err != nil {
		return types.Type{}, err
	}

	if t.IsLiteral() && !expected.IsEmpty() && resolve.IsAssignable(t, expected) {
		return expected, nil
	}

	return t.ClearLiterals(), nil
}

// genOperands generates every operand of an operation as the given type.
func (b *Builder) genOperands(exprs []ast.Expression, t types.Type) ([]value.Value, error) {
	values := make([]value.Value, len(exprs))
	for i, expr := range exprs {
		v, err := b.genValue(expr, t)
		if err != nil {
			return nil, err
		}

		values[i] = v
	}

	return values, nil
}

// genArithmetic generates a math or bitwise operation.  Operations with more
// than two operands are folded left to right.  A single operand is negated or
// passed through by `-` and `+`.
func (b *Builder) genArithmetic(op *ast.Operation, expected types.Type) (value.Value, error) {
	if len(op.Branches) == 0 {
		return nil, report.Raise(report.InvalidOperation, op.Span(), "`%s` must have operands", op.Opcode)
	}

	t, err := b.operandType(op.Branches, expected)
	if err != nil {
		return nil, err
	}

	// signed integer literals are folded so that the most negative value of
	// a type is representable
	if len(op.Branches) == 1 && t.IsInteger() && (op.Opcode == ast.Minus || op.Opcode == ast.Plus) {
		if n, err := b.r.IntegerConstant(op, t); err == nil {
			llType, err := b.convType(t)
			if err != nil {
				return nil, err
			}

			return constant.NewIntFromString(llType.(*lltypes.IntType), n.String())
		}
	}

	values, err := b.genOperands(op.Branches, t)
	if err != nil {
		return nil, err
	}

	if len(values) == 1 {
		switch op.Opcode {
		case ast.Plus:
			return values[0], nil
		case ast.Minus:
			return b.genNegate(values[0], t, op.Span())
		}

		return nil, report.Raise(report.InvalidOperation, op.Span(), "`%s` must have at least two operands", op.Opcode)
	}

	result := values[0]
	for _, v := range values[1:] {
		if result, err = b.genBinary(op.Opcode, result, v, t, op.Span()); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// genNegate generates the negation of a number.
func (b *Builder) genNegate(x value.Value, t types.Type, span *report.TextSpan) (value.Value, error) {
	if t.IsFloatingPoint() {
		return b.block.NewFNeg(x), nil
	} else if t.IsSignedInteger() || t.IsFixedPoint() {
		return b.block.NewSub(constant.NewInt(x.Type().(*lltypes.IntType), 0), x), nil
	}

	return nil, report.Raise(report.TypeMismatch, span, "type `%s` can not be negated", t.Repr())
}

// genBinary generates a binary math or bitwise operation on two values of the
// same type.
func (b *Builder) genBinary(opcode ast.Opcode, x, y value.Value, t types.Type, span *report.TextSpan) (value.Value, error) {
	isFloat := t.IsFloatingPoint()
	isSigned := t.IsSignedInteger() || t.IsFixedPoint()
	isInteger := t.IsInteger() || t.IsCodeunit() || t.IsByte() || (t.IsBool() && opcode.IsBitwise())

	if len(t.Subtypes) > 0 || !(isFloat || isInteger || t.IsFixedPoint()) {
		return nil, report.Raise(report.TypeMismatch, span, "`%s` can not be applied to type `%s`", opcode, t.Repr())
	} else if t.IsFixedPoint() && opcode != ast.Plus && opcode != ast.Minus {
		return nil, report.Raise(report.Unsupported, span, "`%s` is not supported for fixed point numbers", opcode)
	} else if isFloat && opcode.IsBitwise() {
		return nil, report.Raise(report.TypeMismatch, span, "`%s` can not be applied to floating point numbers", opcode)
	}

	switch opcode {
	case ast.Plus:
		if isFloat {
			return b.block.NewFAdd(x, y), nil
		}

		return b.block.NewAdd(x, y), nil
	case ast.Minus:
		if isFloat {
			return b.block.NewFSub(x, y), nil
		}

		return b.block.NewSub(x, y), nil
	case ast.Star:
		if isFloat {
			return b.block.NewFMul(x, y), nil
		}

		return b.block.NewMul(x, y), nil
	case ast.Divide:
		switch {
		case isFloat:
			return b.block.NewFDiv(x, y), nil
		case isSigned:
			return b.block.NewSDiv(x, y), nil
		}

		return b.block.NewUDiv(x, y), nil
	case ast.Modulus:
		switch {
		case isFloat:
			return b.block.NewFRem(x, y), nil
		case isSigned:
			return b.block.NewSRem(x, y), nil
		}

		return b.block.NewURem(x, y), nil
	case ast.And:
		return b.block.NewAnd(x, y), nil
	case ast.Pipe:
		return b.block.NewOr(x, y), nil
	case ast.Carot:
		return b.block.NewXor(x, y), nil
	case ast.LessLess:
		return b.block.NewShl(x, y), nil
	case ast.GreaterGreater:
		if isSigned {
			return b.block.NewAShr(x, y), nil
		}

		return b.block.NewLShr(x, y), nil
	}

	return nil, report.Raise(report.InvalidOperation, span, "`%s` is not an arithmetic operator", opcode)
}

// genComplement generates the bitwise complement of an integer.
func (b *Builder) genComplement(op *ast.Operation, expected types.Type) (value.Value, error) {
	t, err := b.operandType(op.Branches, expected)
	if err != nil {
		return nil, err
	}

	x, err := b.genValue(op.Branches[0], t)
	if err != nil {
		return nil, err
	}

	it, ok := x.Type().(*lltypes.IntType)
	if !ok || t.IsFixedPoint() {
		return nil, report.Raise(report.TypeMismatch, op.Span(), "type `%s` has no complement", t.Repr())
	}

	return b.block.NewXor(x, constant.NewInt(it, -1)), nil
}

// -----------------------------------------------------------------------------

// intPredicates holds the signed and unsigned integer predicate of every
// comparison operator.
var intPredicates = map[ast.Opcode][2]enum.IPred{
	ast.Less:         {enum.IPredSLT, enum.IPredULT},
	ast.LessEqual:    {enum.IPredSLE, enum.IPredULE},
	ast.Greater:      {enum.IPredSGT, enum.IPredUGT},
	ast.GreaterEqual: {enum.IPredSGE, enum.IPredUGE},
	ast.EqualEqual:   {enum.IPredEQ, enum.IPredEQ},
	ast.BangEqual:    {enum.IPredNE, enum.IPredNE},
}

var floatPredicates = map[ast.Opcode]enum.FPred{
	ast.Less:         enum.FPredOLT,
	ast.LessEqual:    enum.FPredOLE,
	ast.Greater:      enum.FPredOGT,
	ast.GreaterEqual: enum.FPredOGE,
	ast.EqualEqual:   enum.FPredOEQ,
	ast.BangEqual:    enum.FPredUNE,
}

// genComparison generates a comparison.  Chained comparisons such as
// `[< a b c]` compare each adjacent pair and hold if every pair does.  Every
// operand is evaluated exactly once.
func (b *Builder) genComparison(op *ast.Operation) (value.Value, error) {
	if len(op.Branches) < 2 {
		return nil, report.Raise(report.InvalidOperation, op.Span(), "`%s` must have at least two operands", op.Opcode)
	}

	t, err := b.operandType(op.Branches, types.Type{})
	if err != nil {
		return nil, err
	}

	ordered := op.Opcode != ast.EqualEqual && op.Opcode != ast.BangEqual
	if t.IsObject() || t.IsVariadicArguments() || (ordered && t.IsBool()) {
		return nil, report.Raise(report.TypeMismatch, op.Span(), "`%s` can not be applied to type `%s`", op.Opcode, t.Repr())
	}

	values, err := b.genOperands(op.Branches, t)
	if err != nil {
		return nil, err
	}

	var result value.Value
	for i := 1; i < len(values); i++ {
		var cmp value.Value
		if t.IsFloatingPoint() && len(t.Subtypes) == 0 {
			cmp = b.block.NewFCmp(floatPredicates[op.Opcode], values[i-1], values[i])
		} else {
			preds := intPredicates[op.Opcode]
			pred := preds[1]
			if (t.IsSignedInteger() || t.IsFixedPoint()) && len(t.Subtypes) == 0 {
				pred = preds[0]
			}

			cmp = b.block.NewICmp(pred, values[i-1], values[i])
		}

		if result == nil {
			result = cmp
		} else {
			result = b.block.NewAnd(result, cmp)
		}
	}

	return result, nil
}

// genShortCircuit generates `&&` and `||`: operands are only evaluated until
// the result is known.
func (b *Builder) genShortCircuit(op *ast.Operation) (value.Value, error) {
	if len(op.Branches) < 2 {
		return nil, report.Raise(report.InvalidOperation, op.Span(), "`%s` must have at least two operands", op.Opcode)
	}

	isAnd := op.Opcode == ast.AndAnd
	mergeBlock := b.appendBlock("logic_merge")

	var incomings []*ir.Incoming
	for i, branch := range op.Branches {
		x, err := b.genBoolValue(branch)
		if err != nil {
			return nil, err
		}

		if i == len(op.Branches)-1 {
			incomings = append(incomings, ir.NewIncoming(x, b.block))
			b.block.NewBr(mergeBlock)
			break
		}

		nextBlock := b.appendBlock("logic_next")
		if isAnd {
			incomings = append(incomings, ir.NewIncoming(constant.False, b.block))
			b.block.NewCondBr(x, nextBlock, mergeBlock)
		} else {
			incomings = append(incomings, ir.NewIncoming(constant.True, b.block))
			b.block.NewCondBr(x, mergeBlock, nextBlock)
		}

		b.block = nextBlock
	}

	b.block = mergeBlock
	return b.block.NewPhi(incomings...), nil
}

// genMinMax generates `[min ...]` and `[max ...]` as a chain of selects.
func (b *Builder) genMinMax(op *ast.Operation, expected types.Type) (value.Value, error) {
	if len(op.Branches) == 0 {
		return nil, report.Raise(report.InvalidOperation, op.Span(), "`%s` must have operands", op.Opcode)
	}

	t, err := b.operandType(op.Branches, expected)
	if err != nil {
		return nil, err
	} else if !t.IsNumericPrimitive() && !t.IsCodeunit() {
		return nil, report.Raise(report.TypeMismatch, op.Span(), "`%s` can not be applied to type `%s`", op.Opcode, t.Repr())
	}

	values, err := b.genOperands(op.Branches, t)
	if err != nil {
		return nil, err
	}

	cmpOp := ast.Less
	if op.Opcode == ast.Max {
		cmpOp = ast.Greater
	}

	result := values[0]
	for _, v := range values[1:] {
		var cmp value.Value
		if t.IsFloatingPoint() {
			cmp = b.block.NewFCmp(floatPredicates[cmpOp], v, result)
		} else if t.IsSignedInteger() || t.IsFixedPoint() {
			cmp = b.block.NewICmp(intPredicates[cmpOp][0], v, result)
		} else {
			cmp = b.block.NewICmp(intPredicates[cmpOp][1], v, result)
		}

		result = b.block.NewSelect(cmp, v, result)
	}

	return result, nil
}

// -----------------------------------------------------------------------------

// genVariadicArgument generates `[access_variadic_argument T list]`: the next
// native variadic argument read as T.
func (b *Builder) genVariadicArgument(op *ast.Operation) (value.Value, error) {
	if len(op.Branches) != 2 {
		return nil, report.Raise(report.InvalidOperation, op.Span(), "variadic argument access must have a type and a list")
	}

	t, err := b.r.ResolveConcreteType(op.Branches[0], false)
	if err != nil {
		return nil, err
	}

	llType, err := b.convType(t)
	if err != nil {
		return nil, report.InSpan(err, op.Span())
	}

	list, listType, err := b.genLocation(op.Branches[1], false)
	if err != nil {
		return nil, err
	} else if !listType.IsVariadicArguments() || len(listType.Subtypes) > 0 {
		return nil, report.Raise(report.TypeMismatch, op.Branches[1].Span(), "variadic arguments are read from a local of type variadic_arguments")
	}

	return b.block.NewVAArg(b.block.NewBitCast(list, lltypes.I8Ptr), llType), nil
}

// genSizeOf generates `[size_of T]`: the allocation size of T computed from
// the address of the second element of an array of T at null.
func (b *Builder) genSizeOf(op *ast.Operation) (value.Value, error) {
	if len(op.Branches) != 1 {
		return nil, report.Raise(report.InvalidOperation, op.Span(), "size_of takes a single type")
	}

	t, err := b.r.ResolveConcreteType(op.Branches[0], true)
	if err != nil {
		return nil, err
	} else if t.IsEmpty() {
		// the size of the type of a value
		if t, err = b.deduceCleared(op.Branches[0]); err != nil {
			return nil, err
		}
	}

	llType, err := b.convType(t)
	if err != nil {
		return nil, report.InSpan(err, op.Span())
	}

	uptr := lltypes.NewInt(uint64(b.r.PointerBitDepth()))
	end := constant.NewGetElementPtr(llType, constant.NewNull(lltypes.NewPointer(llType)), constant.NewInt(lltypes.I32, 1))
	return constant.NewPtrToInt(end, uptr), nil
}
