package generate

import (
	"requitec/ast"
	"requitec/report"

	lltypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// BreakType describes how control leaves a statement.
type BreakType int

// Enumeration of break types.
const (
	BreakNone BreakType = iota
	BreakBreak
	BreakContinue
	BreakFallThrough
	BreakReturn
	BreakGoTo
)

// genStatements generates a list of statements.  Statements following a jump
// are dead and skipped up to the next label which may be jumped to.
func (b *Builder) genStatements(stmts []ast.Expression) (BreakType, error) {
	result := BreakNone
	for _, stmt := range stmts {
		if result != BreakNone && !ast.IsOperation(stmt, ast.Label) {
			continue
		}

		bt, err := b.genStatement(stmt)
		if err != nil {
			return BreakNone, err
		}

		result = bt
	}

	return result, nil
}

// genStatement generates a single statement.
func (b *Builder) genStatement(stmt ast.Expression) (BreakType, error) {
	op, ok := stmt.(*ast.Operation)
	if !ok {
		return BreakNone, report.Raise(report.InvalidOperation, stmt.Span(), "expression is not a statement")
	}

	switch op.Opcode {
	case ast.Local:
		return BreakNone, b.genLocal(op, false)
	case ast.Attributes:
		decl, attrs := ast.UnwrapAttributes(op)
		if decl.Opcode != ast.Local {
			return BreakNone, report.Raise(report.InvalidAttribute, op.Span(), "attributes may only be applied to locals within a body")
		}

		noAutodestruct := false
		var err error
		attrs.Each(func(attr *ast.Operation) {
			if attr.Opcode == ast.NoAutodestruct {
				noAutodestruct = true
			} else if err == nil {
				err = report.Raise(report.InvalidAttribute, attr.Span(), "`%s` can not be applied to a local", attr.Opcode)
			}
		})
		if err != nil {
			return BreakNone, err
		}

		return BreakNone, b.genLocal(decl, noAutodestruct)
	case ast.Equal:
		return BreakNone, b.genAssign(op)
	case ast.PlusEqual, ast.MinusEqual, ast.StarEqual, ast.DivideEqual,
		ast.ModulusEqual, ast.AndEqual, ast.PipeEqual, ast.CarotEqual:
		_, err := b.genCompoundAssign(op)
		return BreakNone, err
	case ast.Call:
		return BreakNone, b.genCallStatement(op)
	case ast.Construct:
		return BreakNone, b.genConstructStatement(op)
	case ast.Destruct:
		return BreakNone, b.genDestruct(op)
	case ast.Return:
		return BreakReturn, b.genReturn(op)
	case ast.Break:
		return BreakBreak, b.genLoopJump(op, b.f.breaks, "break")
	case ast.Continue:
		return BreakContinue, b.genLoopJump(op, b.f.continues, "continue")
	case ast.Condition:
		return b.genCondition(op)
	case ast.Switch:
		return b.genSwitch(op)
	case ast.For:
		return b.genFor(op)
	case ast.While:
		return b.genWhile(op)
	case ast.InfiniteLoop:
		return b.genInfiniteLoop(op)
	case ast.Scope:
		return b.genScope(op)
	case ast.Label:
		return BreakNone, b.genLabel(op)
	case ast.GoTo:
		return BreakGoTo, b.genGoTo(op)
	case ast.StartVariadicArguments:
		return BreakNone, b.genVariadicIntrinsic(op, "llvm.va_start")
	case ast.EndVariadicArguments:
		return BreakNone, b.genVariadicIntrinsic(op, "llvm.va_end")
	case ast.Assert:
		return BreakNone, b.genAssert(op)
	case ast.Assume:
		return BreakNone, b.genAssume(op)
	case ast.Unreachable:
		b.block.NewUnreachable()
		return BreakReturn, nil
	case ast.Empty:
		return BreakNone, nil
	case ast.AccessTable:
		t, err := b.deduceCleared(op)
		if err != nil {
			return BreakNone, err
		}

		_, err = b.genValue(op, t)
		return BreakNone, err
	}

	return BreakNone, report.Raise(report.Unsupported, op.Span(), "`%s` is not supported as a statement", op.Opcode)
}

// -----------------------------------------------------------------------------

// genLocal declares a local and stores its initial value if it has one.
func (b *Builder) genLocal(op *ast.Operation, noAutodestruct bool) error {
	if len(op.Branches) == 0 {
		return report.Raise(report.InvalidDeclaration, op.Span(), "local must be named")
	}

	name, ok := ast.NameOf(op.Branches[0])
	if !ok {
		return report.Raise(report.InvalidDeclaration, op.Branches[0].Span(), "local must be named by an identifier")
	}

	t, valueI, err := b.r.VariableType(op, b.locals())
	if err != nil {
		return err
	}

	t, err = b.r.Concrete(t)
	if err != nil {
		return report.InSpan(err, op.Span())
	} else if t.IsVoid() && len(t.Subtypes) == 0 {
		return report.Raise(report.InvalidDeclaration, op.Span(), "local `%s` can not be void", name)
	}

	// the initializer is generated before the local comes into scope
	var init ast.Expression
	if valueI < len(op.Branches) {
		init = op.Branches[valueI]
	}

	if _, ok := b.f.lookup(name); ok {
		return report.Raise(report.DuplicateLocal, op.Branches[0].Span(), "multiple locals named `%s`", name)
	}

	llType, err := b.convType(t)
	if err != nil {
		return report.InSpan(err, op.Span())
	}
	alloca := b.entry.NewAlloca(llType)

	hasValue := false
	if init != nil && !ast.IsOperation(init, ast.IndeterminateValue) {
		if err := b.genStore(init, alloca, t); err != nil {
			return err
		}

		hasValue = true
	}

	b.f.locals = append(b.f.locals, &local{
		name:           name,
		typ:            t,
		llType:         llType,
		alloca:         alloca,
		hasValue:       hasValue,
		noAutodestruct: noAutodestruct,
	})
	return nil
}

// genAssign generates a plain assignment `[= dest value]`.
func (b *Builder) genAssign(op *ast.Operation) error {
	if len(op.Branches) != 2 {
		return report.Raise(report.InvalidOperation, op.Span(), "assignment must have a destination and a value")
	}

	loc, t, err := b.genLocation(op.Branches[0], true)
	if err != nil {
		return err
	}

	if err := b.genStore(op.Branches[1], loc, t); err != nil {
		return err
	}

	b.markAssigned(op.Branches[0])
	return nil
}

// genCompoundAssign generates an assignment which combines the destination
// with a value: eg. `[+= dest value]`.  The stored value is returned.
func (b *Builder) genCompoundAssign(op *ast.Operation) (value.Value, error) {
	if len(op.Branches) != 2 {
		return nil, report.Raise(report.InvalidOperation, op.Span(), "assignment must have a destination and a value")
	}

	loc, t, err := b.genLocation(op.Branches[0], false)
	if err != nil {
		return nil, err
	} else if !t.IsValueType() {
		return nil, report.Raise(report.TypeMismatch, op.Span(), "`%s` can not be applied to type `%s`", op.Opcode, t.Repr())
	}

	current, err := b.load(t, loc)
	if err != nil {
		return nil, err
	}

	rhs, err := b.genExpected(op.Branches[1], t)
	if err != nil {
		return nil, err
	}

	result, err := b.genBinary(op.Opcode.AssignmentOperator(), current, rhs, t, op.Span())
	if err != nil {
		return nil, err
	}

	b.block.NewStore(result, loc)
	return result, nil
}

// -----------------------------------------------------------------------------

// genCallStatement generates a call whose result is discarded.  A result
// returned through memory is held in a temporary so that it is destructed.
func (b *Builder) genCallStatement(op *ast.Operation) error {
	_, pid, err := b.procedureOf(op)
	if err != nil {
		return err
	}

	_, err = b.genCall(op, pid, nil)
	return err
}

// genConstructStatement generates a construction whose result is discarded.
func (b *Builder) genConstructStatement(op *ast.Operation) error {
	if len(op.Branches) == 0 {
		return report.Raise(report.InvalidOperation, op.Span(), "construct must have a type")
	}

	t, err := b.r.ResolveConcreteType(op.Branches[0], false)
	if err != nil {
		return err
	}

	if !t.IsObject() {
		_, err := b.genValue(op, t)
		return err
	}

	tmp, err := b.addTemporary(t)
	if err != nil {
		return err
	}

	return b.genStore(op, tmp.alloca, t)
}

// genDestruct generates an explicit destruction `[destruct local]`.  The local
// no longer holds a value afterward.
func (b *Builder) genDestruct(op *ast.Operation) error {
	if len(op.Branches) != 1 {
		return report.Raise(report.InvalidOperation, op.Span(), "destruct must name a single local")
	}

	name, ok := ast.NameOf(op.Branches[0])
	if !ok {
		return report.Raise(report.InvalidOperation, op.Branches[0].Span(), "destruct must name a local")
	}

	loc, ok := b.f.lookup(name)
	if !ok {
		return report.Raise(report.UnresolvedSymbol, op.Branches[0].Span(), "local not found with name: `%s`", name)
	} else if !loc.hasValue {
		return report.Raise(report.UnassignedVariable, op.Branches[0].Span(), "local `%s` is destructed before it is assigned", name)
	}

	oid, ok := loc.typ.Object()
	if !ok || !loc.typ.IsObject() {
		return report.Raise(report.TypeMismatch, op.Branches[0].Span(), "type `%s` can not be destructed", loc.typ.Repr())
	}

	if b.bin.NeedsDestruction(oid) {
		if err := b.destructAt(loc.alloca, oid); err != nil {
			return err
		}
	}

	loc.hasValue = false
	return nil
}

// -----------------------------------------------------------------------------

// genReturn generates a return.  The returned value is computed before the
// locals of every scope are destructed.
func (b *Builder) genReturn(op *ast.Operation) error {
	p := b.proc
	retType, err := b.r.Concrete(p.ReturnType)
	if err != nil {
		return report.InSpan(err, op.Span())
	}

	if len(op.Branches) == 0 {
		if !retType.IsVoid() || len(retType.Subtypes) > 0 {
			return report.Raise(report.MissingReturn, op.Span(), "return must have a value of type `%s`", retType.Repr())
		}

		if err := b.autodestructFrom(0); err != nil {
			return err
		}

		b.block.NewRet(nil)
		return nil
	} else if len(op.Branches) > 1 {
		return report.Raise(report.InvalidOperation, op.Span(), "return takes at most one value")
	}

	if p.HasSRet() {
		sret := b.enclosingFunc.Params[0]
		if err := b.genStore(op.Branches[0], sret, retType); err != nil {
			return err
		}

		if err := b.autodestructFrom(0); err != nil {
			return err
		}

		b.block.NewRet(nil)
		return nil
	}

	result, err := b.genExpected(op.Branches[0], retType)
	if err != nil {
		return err
	}

	if err := b.autodestructFrom(0); err != nil {
		return err
	}

	b.block.NewRet(result)
	return nil
}

// genLoopJump generates a `break` or `continue` to the innermost loop target.
// The scopes being left are destructed before the jump.
func (b *Builder) genLoopJump(op *ast.Operation, targets []*jumpTarget, kind string) error {
	if len(op.Branches) > 0 {
		return report.Raise(report.InvalidOperation, op.Span(), "%s takes no branches", kind)
	} else if len(targets) == 0 {
		return report.Raise(report.InvalidOperation, op.Span(), "%s used outside of a loop", kind)
	}

	target := targets[len(targets)-1]
	if err := b.autodestructFrom(target.depth); err != nil {
		return err
	}

	target.used = true
	b.block.NewBr(target.block)
	return nil
}

// genLabel places a label: the current block falls into the label's block.
func (b *Builder) genLabel(op *ast.Operation) error {
	name, ok := labelName(op)
	if !ok {
		return report.Raise(report.InvalidOperation, op.Span(), "label must be named by an identifier")
	}

	lbl := b.labelNamed(name, op.Span())
	if lbl.placed {
		return report.Raise(report.DuplicateLabel, op.Span(), "multiple labels named `%s`", name)
	}
	lbl.placed = true

	if !b.isTerminated() {
		b.block.NewBr(lbl.block)
	}

	b.block = lbl.block
	return nil
}

// genGoTo generates a jump to a label which may be placed later.
func (b *Builder) genGoTo(op *ast.Operation) error {
	name, ok := labelName(op)
	if !ok {
		return report.Raise(report.InvalidOperation, op.Span(), "go_to must name a label")
	}

	b.block.NewBr(b.labelNamed(name, op.Span()).block)
	return nil
}

func labelName(op *ast.Operation) (string, bool) {
	if len(op.Branches) != 1 {
		return "", false
	}

	return ast.NameOf(op.Branches[0])
}

// -----------------------------------------------------------------------------

// genVariadicIntrinsic generates the start or end of the native variadic
// arguments of the current procedure held in a local.
func (b *Builder) genVariadicIntrinsic(op *ast.Operation, intrinsic string) error {
	if !b.proc.HasVariadicArgs {
		return report.Raise(report.InvalidOperation, op.Span(), "`%s` used in a procedure without variadic arguments", op.Opcode)
	} else if len(op.Branches) != 1 {
		return report.Raise(report.InvalidOperation, op.Span(), "`%s` takes a single local", op.Opcode)
	}

	loc, t, err := b.genLocation(op.Branches[0], true)
	if err != nil {
		return err
	} else if !t.IsVariadicArguments() || len(t.Subtypes) > 0 {
		return report.Raise(report.TypeMismatch, op.Branches[0].Span(), "`%s` requires a local of type variadic_arguments", op.Opcode)
	}

	fn := b.intrinsic(intrinsic, lltypes.Void, lltypes.I8Ptr)
	b.block.NewCall(fn, b.block.NewBitCast(loc, lltypes.I8Ptr))

	b.markAssigned(op.Branches[0])
	return nil
}

// genAssert traps if its condition is false.
func (b *Builder) genAssert(op *ast.Operation) error {
	cond, err := b.genCondValue(op)
	if err != nil {
		return err
	}

	failBlock := b.appendBlock("assert_fail")
	okBlock := b.appendBlock("assert_ok")
	b.block.NewCondBr(cond, okBlock, failBlock)

	b.block = failBlock
	b.block.NewCall(b.intrinsic("llvm.trap", lltypes.Void))
	b.block.NewUnreachable()

	b.block = okBlock
	return nil
}

// genAssume tells the optimizer its condition always holds.
func (b *Builder) genAssume(op *ast.Operation) error {
	cond, err := b.genCondValue(op)
	if err != nil {
		return err
	}

	b.block.NewCall(b.intrinsic("llvm.assume", lltypes.Void, lltypes.I1), cond)
	return nil
}

// genCondValue generates the single boolean branch of an operation.
func (b *Builder) genCondValue(op *ast.Operation) (value.Value, error) {
	if len(op.Branches) != 1 {
		return nil, report.Raise(report.InvalidOperation, op.Span(), "`%s` takes a single condition", op.Opcode)
	}

	return b.genBoolValue(op.Branches[0])
}
