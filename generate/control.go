package generate

import (
	"requitec/ast"
	"requitec/report"
	"requitec/resolve"
	"requitec/types"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	lltypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// genCondition generates a chain of `if`, `else_if`, and `else` arms.  Every
// arm has its own scope and arms which fall through join at a shared merge
// block.  If every arm jumps away, including an `else`, control never reaches
// the merge block.
func (b *Builder) genCondition(op *ast.Operation) (BreakType, error) {
	mergeBlock := b.appendBlock("if_merge")
	allJump, hasElse := true, false

	for i, branch := range op.Branches {
		arm, ok := branch.(*ast.Operation)
		if !ok {
			return BreakNone, report.Raise(report.InvalidOperation, branch.Span(), "condition arm must be an operation")
		}

		var body []ast.Expression
		switch arm.Opcode {
		case ast.If, ast.ElseIf:
			if len(arm.Branches) == 0 {
				return BreakNone, report.Raise(report.InvalidOperation, arm.Span(), "`%s` must have a condition", arm.Opcode)
			}

			cond, err := b.genBoolValue(arm.Branches[0])
			if err != nil {
				return BreakNone, err
			}

			thenBlock := b.appendBlock("if_then")
			elseBlock := mergeBlock
			if i < len(op.Branches)-1 {
				elseBlock = b.appendBlock("if_else")
			} else {
				allJump = false
			}

			b.block.NewCondBr(cond, thenBlock, elseBlock)
			b.block = thenBlock
			body = arm.Branches[1:]

			if err := b.genArm(body, mergeBlock, &allJump); err != nil {
				return BreakNone, err
			}

			b.block = elseBlock
		case ast.Else:
			if i != len(op.Branches)-1 {
				return BreakNone, report.Raise(report.InvalidOperation, arm.Span(), "`else` must be the last arm of a condition")
			}

			hasElse = true
			if err := b.genArm(arm.Branches, mergeBlock, &allJump); err != nil {
				return BreakNone, err
			}
		default:
			return BreakNone, report.Raise(report.InvalidOperation, arm.Span(), "`%s` is not a condition arm", arm.Opcode)
		}
	}

	b.block = mergeBlock
	if hasElse && allJump {
		return BreakReturn, nil
	}

	return BreakNone, nil
}

// genArm generates the body of one condition arm in its own scope.  An arm
// which falls through branches to the merge block.
func (b *Builder) genArm(body []ast.Expression, mergeBlock *ir.Block, allJump *bool) error {
	b.pushScope()

	if _, err := b.genStatements(body); err != nil {
		return err
	}

	if err := b.popScope(true); err != nil {
		return err
	}

	if !b.isTerminated() {
		b.block.NewBr(mergeBlock)
		*allJump = false
	}

	return nil
}

// genBoolValue generates an expression which must be a boolean.
func (b *Builder) genBoolValue(expr ast.Expression) (value.Value, error) {
	t, err := b.deduce(expr)
	if err != nil {
		return nil, err
	} else if err := resolve.CheckAssignable(t, types.BoolType, expr.Span()); err != nil {
		return nil, err
	}

	return b.genValue(expr, types.BoolType)
}

// -----------------------------------------------------------------------------

// pushLoop registers the targets of `break` and `continue` for a loop whose
// body scope is about to be entered.
func (b *Builder) pushLoop(breakBlock, continueBlock *ir.Block) (*jumpTarget, func()) {
	depth := b.f.depth()

	brk := &jumpTarget{block: breakBlock, depth: depth}
	b.f.breaks = append(b.f.breaks, brk)

	if continueBlock != nil {
		b.f.continues = append(b.f.continues, &jumpTarget{block: continueBlock, depth: depth})
	}

	return brk, func() {
		b.f.breaks = b.f.breaks[:len(b.f.breaks)-1]
		if continueBlock != nil {
			b.f.continues = b.f.continues[:len(b.f.continues)-1]
		}
	}
}

// genLoopBody generates the body of a loop in its own scope and jumps to the
// given block if the body falls through.  It returns whether it did.
func (b *Builder) genLoopBody(body []ast.Expression, next *ir.Block) (bool, error) {
	b.pushScope()

	if _, err := b.genStatements(body); err != nil {
		return false, err
	}

	if err := b.popScope(true); err != nil {
		return false, err
	}

	if b.isTerminated() {
		return false, nil
	}

	b.block.NewBr(next)
	return true, nil
}

// genLoopCondition generates the condition of a loop in its own scope.  The
// condition runs on every iteration, so its temporaries are destructed right
// after it and before the branch on its value.
func (b *Builder) genLoopCondition(expr ast.Expression) (value.Value, error) {
	b.pushScope()

	cond, err := b.genBoolValue(expr)
	if err != nil {
		return nil, err
	}

	return cond, b.popScope(true)
}

// genWhile generates `[while cond body...]`.
func (b *Builder) genWhile(op *ast.Operation) (BreakType, error) {
	if len(op.Branches) == 0 {
		return BreakNone, report.Raise(report.InvalidOperation, op.Span(), "while must have a condition")
	}

	continueBlock := b.appendBlock("while_continue")
	b.block.NewBr(continueBlock)
	b.block = continueBlock

	cond, err := b.genLoopCondition(op.Branches[0])
	if err != nil {
		return BreakNone, err
	}

	bodyBlock := b.appendBlock("while_body")
	mergeBlock := b.appendBlock("while_merge")
	b.block.NewCondBr(cond, bodyBlock, mergeBlock)

	_, popLoop := b.pushLoop(mergeBlock, continueBlock)
	defer popLoop()

	b.block = bodyBlock
	if _, err := b.genLoopBody(op.Branches[1:], continueBlock); err != nil {
		return BreakNone, err
	}

	b.block = mergeBlock
	return BreakNone, nil
}

// genFor generates `[for start cond step body...]`.  The start statement is
// scoped to the loop and its locals are destructed once the loop ends.
func (b *Builder) genFor(op *ast.Operation) (BreakType, error) {
	if len(op.Branches) < 3 {
		return BreakNone, report.Raise(report.InvalidOperation, op.Span(), "for must have a start, a condition, and a step")
	}

	b.pushScope()

	if !ast.IsOperation(op.Branches[0], ast.Empty) {
		if _, err := b.genStatement(op.Branches[0]); err != nil {
			return BreakNone, err
		}
	}

	condBlock := b.appendBlock("for_condition")
	b.block.NewBr(condBlock)
	b.block = condBlock

	var cond value.Value = constant.True
	if !ast.IsOperation(op.Branches[1], ast.Empty) {
		var err error
		if cond, err = b.genLoopCondition(op.Branches[1]); err != nil {
			return BreakNone, err
		}
	}

	bodyBlock := b.appendBlock("for_body")
	continueBlock := b.appendBlock("for_continue")
	mergeBlock := b.appendBlock("for_merge")
	b.block.NewCondBr(cond, bodyBlock, mergeBlock)

	_, popLoop := b.pushLoop(mergeBlock, continueBlock)

	b.block = bodyBlock
	if _, err := b.genLoopBody(op.Branches[3:], continueBlock); err != nil {
		popLoop()
		return BreakNone, err
	}
	popLoop()

	b.block = continueBlock
	if !ast.IsOperation(op.Branches[2], ast.Empty) {
		b.pushScope()

		if _, err := b.genStatement(op.Branches[2]); err != nil {
			return BreakNone, err
		}

		if err := b.popScope(true); err != nil {
			return BreakNone, err
		}
	}
	b.block.NewBr(condBlock)

	b.block = mergeBlock
	return BreakNone, b.popScope(true)
}

// genInfiniteLoop generates `[infinite_loop body...]`.  Unless some `break`
// leaves it, nothing follows the loop.
func (b *Builder) genInfiniteLoop(op *ast.Operation) (BreakType, error) {
	bodyBlock := b.appendBlock("loop_body")
	b.block.NewBr(bodyBlock)
	mergeBlock := b.appendBlock("loop_merge")

	brk, popLoop := b.pushLoop(mergeBlock, bodyBlock)
	defer popLoop()

	b.block = bodyBlock
	if _, err := b.genLoopBody(op.Branches, bodyBlock); err != nil {
		return BreakNone, err
	}

	b.block = mergeBlock
	if !brk.used {
		return BreakReturn, nil
	}

	return BreakNone, nil
}

// genScope generates `[scope body...]`: a nested block with its own locals.
func (b *Builder) genScope(op *ast.Operation) (BreakType, error) {
	b.pushScope()

	bt, err := b.genStatements(op.Branches)
	if err != nil {
		return BreakNone, err
	}

	return bt, b.popScope(true)
}

// -----------------------------------------------------------------------------

// genSwitch generates `[switch value [case const body...]... [default body...]]`.
// A case ending in `[fall_through]` continues into the next arm.  `break`
// within a case leaves the switch.
func (b *Builder) genSwitch(op *ast.Operation) (BreakType, error) {
	if len(op.Branches) == 0 {
		return BreakNone, report.Raise(report.InvalidOperation, op.Span(), "switch must have a value")
	}

	t, err := b.deduceCleared(op.Branches[0])
	if err != nil {
		return BreakNone, err
	} else if !t.IsInteger() {
		return BreakNone, report.Raise(report.TypeMismatch, op.Branches[0].Span(), "can not switch over type `%s`", t.Repr())
	}

	llType, err := b.convType(t)
	if err != nil {
		return BreakNone, err
	}

	x, err := b.genValue(op.Branches[0], t)
	if err != nil {
		return BreakNone, err
	}

	arms := make([]*ast.Operation, len(op.Branches)-1)
	for i, branch := range op.Branches[1:] {
		arm, ok := branch.(*ast.Operation)
		if !ok || (arm.Opcode != ast.Case && arm.Opcode != ast.Default) {
			return BreakNone, report.Raise(report.InvalidOperation, branch.Span(), "switch arms must be cases or a default")
		} else if arm.Opcode == ast.Default && i != len(op.Branches)-2 {
			return BreakNone, report.Raise(report.InvalidOperation, arm.Span(), "default must be the last arm of a switch")
		} else if arm.Opcode == ast.Case && len(arm.Branches) == 0 {
			return BreakNone, report.Raise(report.InvalidOperation, arm.Span(), "case must have a value")
		}

		arms[i] = arm
	}

	mergeBlock := b.appendBlock("switch_merge")
	defaultBlock := mergeBlock
	hasDefault := len(arms) > 0 && arms[len(arms)-1].Opcode == ast.Default

	armBlocks := make([]*ir.Block, len(arms))
	var cases []*ir.Case
	seen := make(map[string]struct{})
	for i, arm := range arms {
		if arm.Opcode == ast.Default {
			armBlocks[i] = b.appendBlock("switch_default")
			defaultBlock = armBlocks[i]
			continue
		}

		armBlocks[i] = b.appendBlock("switch_case")

		n, err := b.r.IntegerConstant(arm.Branches[0], t)
		if err != nil {
			return BreakNone, err
		}

		if _, ok := seen[n.String()]; ok {
			return BreakNone, report.Raise(report.InvalidOperation, arm.Branches[0].Span(), "duplicate case value: %s", n)
		}
		seen[n.String()] = struct{}{}

		c, err := constant.NewIntFromString(llType.(*lltypes.IntType), n.String())
		if err != nil {
			return BreakNone, report.Raise(report.InvalidOperation, arm.Branches[0].Span(), "invalid case value: %s", err)
		}

		cases = append(cases, ir.NewCase(c, armBlocks[i]))
	}

	b.block.NewSwitch(x, defaultBlock, cases...)

	brk, popBreak := b.pushBreak(mergeBlock)
	defer popBreak()

	allJump := hasDefault
	for i, arm := range arms {
		body := arm.Branches
		if arm.Opcode == ast.Case {
			body = body[1:]
		}

		fallThrough := len(body) > 0 && ast.IsOperation(body[len(body)-1], ast.FallThrough)
		if fallThrough {
			if i == len(arms)-1 {
				return BreakNone, report.Raise(report.InvalidOperation, body[len(body)-1].Span(), "the last arm of a switch can not fall through")
			}

			body = body[:len(body)-1]
		}

		next := mergeBlock
		if fallThrough {
			next = armBlocks[i+1]
		}

		b.block = armBlocks[i]
		fell, err := b.genLoopBody(body, next)
		if err != nil {
			return BreakNone, err
		} else if fell && !fallThrough {
			allJump = false
		}
	}

	b.block = mergeBlock
	if allJump && !brk.used {
		return BreakReturn, nil
	}

	return BreakNone, nil
}

// pushBreak registers the target of `break` for a switch.  `continue` still
// refers to the enclosing loop.
func (b *Builder) pushBreak(breakBlock *ir.Block) (*jumpTarget, func()) {
	return b.pushLoop(breakBlock, nil)
}
