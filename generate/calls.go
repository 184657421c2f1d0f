package generate

import (
	"requitec/ast"
	"requitec/depm"
	"requitec/report"
	"requitec/resolve"
	"requitec/types"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	lltypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// procedureOf returns the procedure invoked by a call expression.
func (b *Builder) procedureOf(op *ast.Operation) (*depm.Procedure, depm.ProcedureID, error) {
	pid, err := b.r.CallProcedure(op, b.locals())
	if err != nil {
		return nil, depm.None, err
	}

	return b.bin.Procedure(pid), pid, nil
}

// genCall generates a call to the selected overload.  Parameters are passed in
// the order: result pointer, receiver, declared arguments, and variadic
// arguments.  For a procedure returning through memory, the result is written
// to sret, or to a new temporary if sret is nil, and that location is
// returned.
func (b *Builder) genCall(op *ast.Operation, pid depm.ProcedureID, sret value.Value) (value.Value, error) {
	p := b.bin.Procedure(pid)

	var leading []value.Value
	if p.HasSRet() {
		if sret == nil {
			retType, err := b.r.Concrete(p.ReturnType)
			if err != nil {
				return nil, report.InSpan(err, op.Span())
			}

			tmp, err := b.addTemporary(retType)
			if err != nil {
				return nil, err
			}

			sret = tmp.alloca
		}

		leading = append(leading, sret)
	}

	if p.IsInstanced() {
		recv, err := b.genReceiver(op.Branches[0])
		if err != nil {
			return nil, err
		}

		leading = append(leading, recv)
	}

	call, err := b.genInvoke(pid, leading, op.Branches[1:])
	if err != nil {
		return nil, err
	}

	if p.HasSRet() {
		return sret, nil
	}

	return call, nil
}

// genInvoke generates the call instruction itself.
func (b *Builder) genInvoke(pid depm.ProcedureID, leading []value.Value, argExprs []ast.Expression) (*ir.InstCall, error) {
	p := b.bin.Procedure(pid)

	fn, err := b.funcOf(pid)
	if err != nil {
		return nil, err
	}

	args := leading
	for i, expr := range argExprs {
		var arg value.Value
		if i < len(p.Args) {
			t, err := b.r.Concrete(p.Args[i].Type)
			if err != nil {
				return nil, report.InSpan(err, expr.Span())
			}

			if arg, err = b.genValue(expr, t); err != nil {
				return nil, err
			}
		} else if arg, err = b.genVariadicValue(expr); err != nil {
			return nil, err
		}

		args = append(args, arg)
	}

	call := b.block.NewCall(fn, args...)
	call.CallingConv = fn.CallingConv
	return call, nil
}

// genVariadicValue generates a native variadic argument with the default
// argument promotions of C: small integers widen to 32 bits and floats to
// doubles.
func (b *Builder) genVariadicValue(expr ast.Expression) (value.Value, error) {
	t, err := b.deduceCleared(expr)
	if err != nil {
		return nil, err
	}

	v, err := b.genValue(expr, t)
	if err != nil {
		return nil, err
	}

	switch vt := v.Type().(type) {
	case *lltypes.IntType:
		if vt.BitSize < 32 {
			if t.IsSignedInteger() {
				return b.block.NewSExt(v, lltypes.I32), nil
			}

			return b.block.NewZExt(v, lltypes.I32), nil
		}
	case *lltypes.FloatType:
		if vt.Kind == lltypes.FloatKindHalf || vt.Kind == lltypes.FloatKindFloat {
			return b.block.NewFPExt(v, lltypes.Double), nil
		}
	}

	return v, nil
}

// genReceiver generates the object pointer a method is called on.  A method
// named by a member access is called on the object the access leads to.  A
// method named directly is called on `this`.
func (b *Builder) genReceiver(callee ast.Expression) (value.Value, error) {
	if op, ok := callee.(*ast.Operation); ok && op.Opcode == ast.AccessMember {
		owner := op.Branches[0]
		if len(op.Branches) > 2 {
			owner = ast.NewOperation(ast.AccessMember, op.Span(), op.Branches[:len(op.Branches)-1]...)
		}

		loc, t, err := b.genLocation(owner, false)
		if err != nil {
			return nil, err
		}

		for t.IsPointer() && !t.IsNull() {
			if loc, err = b.load(t, loc); err != nil {
				return nil, err
			}

			t = t.Dereference()
		}

		return loc, nil
	}

	this, ok := b.f.lookup("this")
	if !ok {
		return nil, report.Raise(report.InvalidOperation, callee.Span(), "method called without an object")
	}

	return b.block.NewLoad(this.llType, this.alloca), nil
}

// genCallValue generates a call whose result is used as a value.
func (b *Builder) genCallValue(op *ast.Operation) (value.Value, error) {
	p, pid, err := b.procedureOf(op)
	if err != nil {
		return nil, err
	}

	result, err := b.genCall(op, pid, nil)
	if err != nil {
		return nil, err
	} else if !p.HasSRet() {
		return result, nil
	}

	retType, err := b.r.Concrete(p.ReturnType)
	if err != nil {
		return nil, report.InSpan(err, op.Span())
	}

	return b.load(retType, result)
}

// -----------------------------------------------------------------------------

// genConstruct constructs an object in place by calling the selected
// constructor on the location.
func (b *Builder) genConstruct(op *ast.Operation, loc value.Value, t types.Type) error {
	pid, err := b.r.ConstructProcedure(op, t, b.locals())
	if err != nil {
		return err
	}

	_, err = b.genInvoke(pid, []value.Value{loc}, op.Branches[1:])
	return err
}

// genConstructValue generates `[construct T args...]` as a value.  Objects
// are constructed in a temporary.  Primitives are converted from their single
// argument or zero initialized without one.
func (b *Builder) genConstructValue(op *ast.Operation) (value.Value, error) {
	if len(op.Branches) == 0 {
		return nil, report.Raise(report.InvalidOperation, op.Span(), "construct must have a type")
	}

	t, err := b.r.ResolveConcreteType(op.Branches[0], false)
	if err != nil {
		return nil, err
	}

	if t.IsObject() {
		tmp, err := b.addTemporary(t)
		if err != nil {
			return nil, err
		}

		if err := b.genConstruct(op, tmp.alloca, t); err != nil {
			return nil, err
		}

		return b.block.NewLoad(tmp.llType, tmp.alloca), nil
	}

	llType, err := b.convType(t)
	if err != nil {
		return nil, report.InSpan(err, op.Span())
	}

	switch len(op.Branches) {
	case 1:
		return constant.NewZeroInitializer(llType), nil
	case 2:
		arg := op.Branches[1]

		from, err := b.deduce(arg)
		if err != nil {
			return nil, err
		}

		// literals are generated directly as the constructed type
		if from.IsLiteral() && resolve.IsAssignable(from, t) {
			return b.genValue(arg, t)
		}

		from = from.ClearLiterals()
		v, err := b.genValue(arg, from)
		if err != nil {
			return nil, err
		}

		return b.genConvert(v, from, t, op.Span())
	}

	return nil, report.Raise(report.InvalidOperation, op.Span(), "type `%s` is constructed from at most one value", t.Repr())
}

// isIntegral returns whether values of a type are plain LLVM integers.
func isIntegral(t types.Type) bool {
	return len(t.Subtypes) == 0 && (t.IsInteger() || t.IsCodeunit() || t.IsByte() || t.IsBool())
}

// genConvert converts a value between primitive types.  Integers are truncated
// or extended according to the signedness of the source.
func (b *Builder) genConvert(v value.Value, from, to types.Type, span *report.TextSpan) (value.Value, error) {
	toType, err := b.convType(to)
	if err != nil {
		return nil, err
	}

	if lltypes.Equal(v.Type(), toType) {
		return v, nil
	}

	switch {
	case isIntegral(from) && isIntegral(to):
		fromBits := v.Type().(*lltypes.IntType).BitSize
		toBits := toType.(*lltypes.IntType).BitSize

		if to.IsBool() {
			zero := constant.NewInt(v.Type().(*lltypes.IntType), 0)
			return b.block.NewICmp(intPredicates[ast.BangEqual][0], v, zero), nil
		} else if fromBits > toBits {
			return b.block.NewTrunc(v, toType), nil
		} else if from.IsSignedInteger() {
			return b.block.NewSExt(v, toType), nil
		}

		return b.block.NewZExt(v, toType), nil
	case isIntegral(from) && to.IsFloatingPoint() && len(to.Subtypes) == 0:
		if from.IsSignedInteger() {
			return b.block.NewSIToFP(v, toType), nil
		}

		return b.block.NewUIToFP(v, toType), nil
	case from.IsFloatingPoint() && len(from.Subtypes) == 0 && isIntegral(to) && !to.IsBool():
		if to.IsSignedInteger() {
			return b.block.NewFPToSI(v, toType), nil
		}

		return b.block.NewFPToUI(v, toType), nil
	case from.IsFloatingPoint() && to.IsFloatingPoint() && len(from.Subtypes) == 0 && len(to.Subtypes) == 0:
		fromKind := from.Root.(types.FloatingPoint).Kind
		toKind := to.Root.(types.FloatingPoint).Kind

		if fromKind.BitDepth() > toKind.BitDepth() {
			return b.block.NewFPTrunc(v, toType), nil
		}

		return b.block.NewFPExt(v, toType), nil
	case from.IsPointer() && to.IsPointer():
		return b.block.NewBitCast(v, toType), nil
	}

	return nil, report.Raise(report.TypeMismatch, span, "can not convert `%s` to `%s`", from.Repr(), to.Repr())
}

// genBitCast generates `[bit_cast T value]`: the bits of the value
// reinterpreted as T.  Both types must have the same bit depth.
func (b *Builder) genBitCast(op *ast.Operation) (value.Value, error) {
	if len(op.Branches) != 2 {
		return nil, report.Raise(report.InvalidOperation, op.Span(), "bit_cast must have a type and a value")
	}

	to, err := b.r.ResolveConcreteType(op.Branches[0], false)
	if err != nil {
		return nil, err
	}

	from, err := b.deduceCleared(op.Branches[1])
	if err != nil {
		return nil, err
	}

	if to.IsObject() || to.IsArray() || from.IsObject() || from.IsArray() {
		return nil, report.Raise(report.Unsupported, op.Span(), "only primitives and pointers can be bit cast")
	} else if b.r.BitDepth(from) != b.r.BitDepth(to) {
		return nil, report.Raise(
			report.TypeMismatch,
			op.Span(),
			"can not bit cast `%s` to `%s` of a different size",
			from.Repr(),
			to.Repr(),
		)
	}

	v, err := b.genValue(op.Branches[1], from)
	if err != nil {
		return nil, err
	}

	toType, err := b.convType(to)
	if err != nil {
		return nil, report.InSpan(err, op.Span())
	}

	_, fromPtr := v.Type().(*lltypes.PointerType)
	_, toPtr := toType.(*lltypes.PointerType)

	switch {
	case lltypes.Equal(v.Type(), toType):
		return v, nil
	case fromPtr && !toPtr:
		return b.block.NewPtrToInt(v, toType), nil
	case !fromPtr && toPtr:
		return b.block.NewIntToPtr(v, toType), nil
	case from.IsBool():
		// bools are stored as a byte but held as a single bit
		return b.block.NewZExt(v, toType), nil
	case to.IsBool():
		return b.block.NewTrunc(v, toType), nil
	}

	return b.block.NewBitCast(v, toType), nil
}
