package generate

import (
	"fmt"
	"strconv"
	"strings"

	"requitec/ast"
	"requitec/common"
	"requitec/depm"
	"requitec/report"
	"requitec/resolve"
	"requitec/types"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	lltypes "github.com/llir/llvm/ir/types"
)

// funcOf returns the LLVM function of a procedure in the current module.  The
// function is declared on first use: procedures of other modules are declared
// without a body and with external linkage.
func (b *Builder) funcOf(pid depm.ProcedureID) (*ir.Func, error) {
	if fn, ok := b.funcs[b.module.ID][pid]; ok {
		return fn, nil
	}

	p := b.bin.Procedure(pid)

	var params []*ir.Param
	if p.HasSRet() {
		sretType, err := b.convType(p.SRetType())
		if err != nil {
			return nil, err
		}

		params = append(params, ir.NewParam("sret", sretType))
	}

	if p.IsInstanced() {
		thisType, err := b.convType(b.bin.ThisType(p))
		if err != nil {
			return nil, err
		}

		params = append(params, ir.NewParam("this", thisType))
	}

	for _, arg := range p.Args {
		argType, err := b.convType(arg.Type)
		if err != nil {
			return nil, err
		}

		params = append(params, ir.NewParam(arg.Name, argType))
	}

	var retType lltypes.Type = lltypes.Void
	if !p.HasSRet() {
		var err error
		if retType, err = b.convType(p.ReturnType); err != nil {
			return nil, err
		}
	}

	fn := b.mod.NewFunc(p.MangledName, retType, params...)
	fn.Sig.Variadic = p.HasVariadicArgs
	fn.CallingConv = convCallConv(p.CallingConvention)

	if p.Module == b.module.ID && p.Category != depm.CategoryExternalFunction {
		fn.FuncAttrs = []ir.FuncAttribute{enum.FuncAttrNoUnwind}

		if pid == depm.ProcedureID(b.bin.EntryPoint) || p.ExportGroup != depm.None {
			fn.Linkage = enum.LinkageExternal
		} else {
			fn.Linkage = enum.LinkageInternal
		}
	} else {
		fn.Linkage = enum.LinkageExternal
	}

	b.funcs[b.module.ID][pid] = fn
	return fn, nil
}

// -----------------------------------------------------------------------------

// defineGlobal defines a global of the current module with its constant
// initializer.
func (b *Builder) defineGlobal(gid depm.GlobalID) error {
	g := b.bin.Global(gid)
	defer b.r.EnterScope(b.module, g.ExportGroup, g.Object)()

	llType, err := b.convType(g.Type)
	if err != nil {
		return report.InSpan(err, g.Decl.Span())
	}

	var init constant.Constant
	if g.HasValue() {
		t, err := b.r.Concrete(g.Type)
		if err != nil {
			return report.InSpan(err, g.Decl.Span())
		}

		if init, err = b.constantValue(g.Decl.Branches[g.ValueI], t); err != nil {
			return err
		}
	} else {
		init = constant.NewZeroInitializer(llType)
	}

	glob := b.mod.NewGlobalDef(g.MangledName, init)
	if g.ExportGroup != depm.None {
		glob.Linkage = enum.LinkageExternal
	} else {
		glob.Linkage = enum.LinkageInternal
	}

	b.globals[b.module.ID][gid] = glob
	return nil
}

// globalRef returns the LLVM global of a global in the current module.
// Globals of other modules are declared without an initializer.
func (b *Builder) globalRef(gid depm.GlobalID) (*ir.Global, error) {
	if glob, ok := b.globals[b.module.ID][gid]; ok {
		return glob, nil
	}

	g := b.bin.Global(gid)
	llType, err := b.convType(g.Type)
	if err != nil {
		return nil, err
	}

	glob := b.mod.NewGlobal(g.MangledName, llType)
	glob.Linkage = enum.LinkageExternal

	b.globals[b.module.ID][gid] = glob
	return glob, nil
}

// constantValue converts the initializer of a global into an LLVM constant.
// Only literals, signed literals, and the builtin constants are accepted.
func (b *Builder) constantValue(expr ast.Expression, t types.Type) (constant.Constant, error) {
	llType, err := b.convType(t)
	if err != nil {
		return nil, report.InSpan(err, expr.Span())
	}

	exprType, err := b.r.DeduceType(expr, nil)
	if err != nil {
		return nil, err
	} else if err := resolve.CheckAssignable(exprType, t, expr.Span()); err != nil {
		return nil, err
	}

	if name, ok := ast.NameOf(expr); ok {
		switch ast.LookupOpcode(name) {
		case ast.True:
			return constant.True, nil
		case ast.False:
			return constant.False, nil
		case ast.Null:
			return constant.NewNull(llType.(*lltypes.PointerType)), nil
		}
	}

	if t.IsInteger() {
		n, err := b.r.IntegerConstant(expr, t)
		if err != nil {
			return nil, err
		}

		return constant.NewIntFromString(llType.(*lltypes.IntType), n.String())
	}

	if t.IsFloatingPoint() {
		if text, ok := floatConstantText(expr); ok {
			return constant.NewFloatFromString(llType.(*lltypes.FloatType), text)
		}
	}

	if lit, ok := expr.(*ast.Literal); ok {
		switch lit.Kind {
		case ast.String:
			if t.IsPointerToCodeunit() {
				return b.stringConstant(lit)
			}
		case ast.Codeunit:
			if it, ok := llType.(*lltypes.IntType); ok {
				r, err := unquoteCodeunit(lit)
				if err != nil {
					return nil, err
				}

				return constant.NewInt(it, int64(r)), nil
			}
		}
	}

	return nil, report.Raise(report.InvalidOperation, expr.Span(), "global initializer must be a constant")
}

// floatConstantText returns the text of a possibly negated float or integer
// literal.
func floatConstantText(expr ast.Expression) (string, bool) {
	negative := false
	for {
		op, ok := expr.(*ast.Operation)
		if !ok {
			break
		} else if (op.Opcode != ast.Minus && op.Opcode != ast.Plus) || len(op.Branches) != 1 {
			return "", false
		}

		if op.Opcode == ast.Minus {
			negative = !negative
		}

		expr = op.Branches[0]
	}

	lit, ok := expr.(*ast.Literal)
	if !ok || (lit.Kind != ast.Number && lit.Kind != ast.NumberWithDecimal) {
		return "", false
	}

	text := lit.Text
	if lit.Kind == ast.Number {
		text += ".0"
	}

	if negative {
		return "-" + text, true
	}

	return text, true
}

// -----------------------------------------------------------------------------

// stringConstant creates a private global holding the text of a string literal
// terminated by a null byte and returns a pointer to its first codeunit.
func (b *Builder) stringConstant(lit *ast.Literal) (constant.Constant, error) {
	text, err := strconv.Unquote(lit.Text)
	if err != nil {
		text = strings.Trim(lit.Text, `"`)
	}

	data := constant.NewCharArrayFromString(text + "\x00")

	name := fmt.Sprintf("%s%s.string.%d", common.ReservedPrefix, strings.TrimPrefix(b.module.Name, common.ReservedPrefix), b.stringCounter)
	b.stringCounter++

	glob := b.mod.NewGlobalDef(name, data)
	glob.Linkage = enum.LinkagePrivate
	glob.Immutable = true

	zero := constant.NewInt(lltypes.I32, 0)
	return constant.NewGetElementPtr(data.Typ, glob, zero, zero), nil
}

// unquoteCodeunit returns the value of a codeunit literal.
func unquoteCodeunit(lit *ast.Literal) (rune, error) {
	text := strings.TrimSuffix(strings.TrimPrefix(lit.Text, "'"), "'")

	r, _, tail, err := strconv.UnquoteChar(text, '\'')
	if err != nil || tail != "" {
		return 0, report.Raise(report.Syntax, lit.Span(), "malformed codeunit literal: %s", lit.Text)
	}

	return r, nil
}
