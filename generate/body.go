package generate

import (
	"requitec/ast"
	"requitec/depm"
	"requitec/report"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	lltypes "github.com/llir/llvm/ir/types"
)

// genBody generates the body of a procedure of the current module.
func (b *Builder) genBody(pid depm.ProcedureID) error {
	defer b.r.EnterProcedure(pid)()

	fn, err := b.funcOf(pid)
	if err != nil {
		return err
	}

	p := b.bin.Procedure(pid)
	b.proc = p
	b.enclosingFunc = fn
	b.f = newFrame()
	defer func() {
		b.proc = nil
		b.enclosingFunc = nil
		b.f = nil
	}()

	// allocas are collected in the entry block which then falls into the
	// first block of the body
	b.entry = fn.NewBlock("entry")
	b.block = b.appendBlock("start")
	b.entry.NewBr(b.block)

	b.pushScope()

	if err := b.genParams(p, fn); err != nil {
		return err
	}

	if p.IsConstructor() {
		if err := b.genPropertyInitializers(p); err != nil {
			return err
		}
	}

	var bt BreakType
	if p.HasBody() {
		bt, err = b.genStatements(p.Decl.Branches[p.BodyStartI:])
		if err != nil {
			return err
		}
	}

	if bt == BreakNone {
		if err := b.popScope(true); err != nil {
			return err
		}

		if !b.isTerminated() {
			switch {
			case p.Category == depm.CategoryEntryPoint:
				b.block.NewRet(constant.NewInt(lltypes.I32, 0))
			case p.ReturnType.IsVoid() && len(p.ReturnType.Subtypes) == 0:
				b.block.NewRet(nil)
			default:
				return report.Raise(report.MissingReturn, declSpan(p), "procedure `%s` must return a value", p.MangledName)
			}
		}
	} else if err := b.popScope(false); err != nil {
		return err
	}

	return b.finishFrame()
}

// genParams binds the receiver and the arguments of a procedure to locals.
// Arguments are owned by the caller and are never destructed.
func (b *Builder) genParams(p *depm.Procedure, fn *ir.Func) error {
	params := fn.Params
	if p.HasSRet() {
		params = params[1:]
	}

	if p.IsInstanced() {
		this, err := b.addLocal("this", b.bin.ThisType(p), declSpan(p))
		if err != nil {
			return err
		}

		this.hasValue = true
		this.noAutodestruct = true
		b.block.NewStore(params[0], this.alloca)
		params = params[1:]
	}

	for i, arg := range p.Args {
		loc, err := b.addLocal(arg.Name, arg.Type, declSpan(p))
		if err != nil {
			return err
		}

		loc.hasValue = true
		loc.noAutodestruct = true
		b.block.NewStore(params[i], loc.alloca)
	}

	return nil
}

// genPropertyInitializers stores the initial value of every property of the
// constructed object which declares one.
func (b *Builder) genPropertyInitializers(p *depm.Procedure) error {
	this, _ := b.f.lookup("this")
	thisPtr := b.block.NewLoad(this.llType, this.alloca)

	o := b.bin.Object(p.Object)
	for i, pid := range o.Properties {
		prop := b.bin.Property(pid)
		if !prop.HasValue() {
			continue
		}

		value := prop.Decl.Branches[prop.ValueI]
		if ast.IsOperation(value, ast.IndeterminateValue) {
			continue
		}

		propType, err := b.r.Concrete(prop.Type)
		if err != nil {
			return report.InSpan(err, prop.Decl.Span())
		}

		propLoc := b.block.NewGetElementPtr(
			b.useStruct(p.Object),
			thisPtr,
			constant.NewInt(lltypes.I32, 0),
			constant.NewInt(lltypes.I32, int64(i)),
		)

		if err := b.genStore(value, propLoc, propType); err != nil {
			return err
		}
	}

	return nil
}

// declSpan returns the span of the declaration of a procedure if it has one.
func declSpan(p *depm.Procedure) *report.TextSpan {
	if p.Decl == nil {
		return nil
	}

	return p.Decl.Span()
}
