package generate

import (
	"requitec/ast"
	"requitec/report"
	"requitec/resolve"
	"requitec/types"

	"github.com/llir/llvm/ir/constant"
	lltypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// genLocation generates the address of the storage an expression names along
// with the type stored there.  Unassigned locals may only be named when the
// location is about to be assigned.
func (b *Builder) genLocation(expr ast.Expression, assigning bool) (value.Value, types.Type, error) {
	switch v := expr.(type) {
	case *ast.Identifier:
		if loc, ok := b.f.lookup(v.Name); ok {
			if !loc.hasValue && !assigning {
				return nil, types.Type{}, report.Raise(report.UnassignedVariable, v.Span(), "local `%s` is used before it is assigned", v.Name)
			}

			return loc.alloca, loc.typ, nil
		}

		return b.genGlobalLocation(v)
	case *ast.Literal:
		return b.genTemporaryLocation(v, assigning)
	}

	op := expr.(*ast.Operation)
	switch op.Opcode {
	case ast.AccessTable:
		return b.genGlobalLocation(op)
	case ast.AccessMember:
		return b.genMemberLocation(op, assigning)
	case ast.IndexInto:
		return b.genIndexLocation(op, assigning)
	case ast.Dereference, ast.Star:
		if len(op.Branches) != 1 {
			break
		}

		t, err := b.deduceCleared(op.Branches[0])
		if err != nil {
			return nil, types.Type{}, err
		} else if !t.IsPointer() || t.IsNull() {
			return nil, types.Type{}, report.Raise(report.TypeMismatch, op.Branches[0].Span(), "type `%s` can not be dereferenced", t.Repr())
		}

		ptr, err := b.genValue(op.Branches[0], t)
		if err != nil {
			return nil, types.Type{}, err
		}

		return ptr, t.Dereference(), nil
	case ast.This:
		this, ok := b.f.lookup("this")
		if !ok {
			return nil, types.Type{}, report.Raise(report.InvalidOperation, op.Span(), "`this` used outside of a method")
		}

		return b.block.NewLoad(this.llType, this.alloca), this.typ.Dereference(), nil
	case ast.Call:
		p, pid, err := b.procedureOf(op)
		if err != nil {
			return nil, types.Type{}, err
		} else if assigning {
			break
		}

		if p.HasSRet() {
			retType, err := b.r.Concrete(p.ReturnType)
			if err != nil {
				return nil, types.Type{}, report.InSpan(err, op.Span())
			}

			tmp, err := b.addTemporary(retType)
			if err != nil {
				return nil, types.Type{}, err
			}

			if _, err := b.genCall(op, pid, tmp.alloca); err != nil {
				return nil, types.Type{}, err
			}

			return tmp.alloca, retType, nil
		}
	case ast.Construct:
		if assigning || len(op.Branches) == 0 {
			break
		}

		t, err := b.r.ResolveConcreteType(op.Branches[0], false)
		if err != nil {
			return nil, types.Type{}, err
		}

		tmp, err := b.addTemporary(t)
		if err != nil {
			return nil, types.Type{}, err
		}

		if err := b.genStore(op, tmp.alloca, t); err != nil {
			return nil, types.Type{}, err
		}

		return tmp.alloca, t, nil
	}

	return b.genTemporaryLocation(expr, assigning)
}

// genGlobalLocation generates the address of a named global.
func (b *Builder) genGlobalLocation(expr ast.Expression) (value.Value, types.Type, error) {
	gid, ok := b.r.GlobalOf(expr)
	if !ok {
		if name, ok := ast.NameOf(expr); ok {
			return nil, types.Type{}, report.Raise(report.UnresolvedSymbol, expr.Span(), "variable not found with name: `%s`", name)
		}

		if _, err := b.r.SymbolOf(expr); err != nil {
			return nil, types.Type{}, err
		}

		return nil, types.Type{}, report.Raise(report.InvalidOperation, expr.Span(), "table access does not name a global")
	}

	t, err := b.r.Concrete(b.bin.Global(gid).Type)
	if err != nil {
		return nil, types.Type{}, report.InSpan(err, expr.Span())
	}

	glob, err := b.globalRef(gid)
	if err != nil {
		return nil, types.Type{}, report.InSpan(err, expr.Span())
	}

	return glob, t, nil
}

// genTemporaryLocation stores a value in a fresh stack slot so that it can be
// addressed.  Values which are not stored anywhere can not be assigned.
func (b *Builder) genTemporaryLocation(expr ast.Expression, assigning bool) (value.Value, types.Type, error) {
	if assigning {
		return nil, types.Type{}, report.Raise(report.InvalidOperation, expr.Span(), "expression can not be assigned to")
	}

	t, err := b.deduceCleared(expr)
	if err != nil {
		return nil, types.Type{}, err
	}

	v, err := b.genValue(expr, t)
	if err != nil {
		return nil, types.Type{}, err
	}

	alloca := b.entry.NewAlloca(v.Type())
	b.block.NewStore(v, alloca)
	return alloca, t, nil
}

// genMemberLocation generates the address of a property reached by a chain of
// member accesses.  Pointers along the chain are loaded through.
func (b *Builder) genMemberLocation(op *ast.Operation, assigning bool) (value.Value, types.Type, error) {
	if len(op.Branches) < 2 {
		return nil, types.Type{}, report.Raise(report.InvalidOperation, op.Span(), "member access must have at least two branches")
	}

	baseType, err := b.deduceCleared(op.Branches[0])
	if err != nil {
		return nil, types.Type{}, err
	}

	// assigning through a pointer reads the pointer
	loc, t, err := b.genLocation(op.Branches[0], assigning && !baseType.IsPointer())
	if err != nil {
		return nil, types.Type{}, err
	}

	for _, member := range op.Branches[1:] {
		for t.IsPointer() && !t.IsNull() {
			if loc, err = b.load(t, loc); err != nil {
				return nil, types.Type{}, err
			}

			t = t.Dereference()
		}

		oid, ok := t.Object()
		if !ok || !t.IsObject() {
			return nil, types.Type{}, report.Raise(report.TypeMismatch, member.Span(), "type `%s` has no members", t.Repr())
		}

		o := b.bin.Object(oid)
		name, ok := ast.NameOf(member)
		if !ok {
			return nil, types.Type{}, report.Raise(report.InvalidOperation, member.Span(), "member must be named by an identifier")
		}

		pid, ok := o.Property(name)
		if !ok {
			return nil, types.Type{}, report.Raise(report.UnresolvedSymbol, member.Span(), "object `%s` has no property named `%s`", o.Name, name)
		}

		prop := b.bin.Property(pid)
		loc = b.block.NewGetElementPtr(
			b.useStruct(oid),
			loc,
			constant.NewInt(lltypes.I32, 0),
			constant.NewInt(lltypes.I32, int64(prop.PropertyI)),
		)

		if t, err = b.r.Concrete(prop.Type); err != nil {
			return nil, types.Type{}, report.InSpan(err, member.Span())
		}
	}

	return loc, t, nil
}

// genIndexLocation generates the address of an element of an array or of the
// memory a pointer points to.
func (b *Builder) genIndexLocation(op *ast.Operation, assigning bool) (value.Value, types.Type, error) {
	if len(op.Branches) != 2 {
		return nil, types.Type{}, report.Raise(report.InvalidOperation, op.Span(), "index_into must have a value and an index")
	}

	t, err := b.deduceCleared(op.Branches[0])
	if err != nil {
		return nil, types.Type{}, err
	} else if !t.IsIndexable() || t.IsNull() {
		return nil, types.Type{}, report.Raise(report.TypeMismatch, op.Span(), "type `%s` can not be indexed", t.Repr())
	}

	indexType, err := b.deduceCleared(op.Branches[1])
	if err != nil {
		return nil, types.Type{}, err
	} else if !indexType.IsInteger() {
		return nil, types.Type{}, report.Raise(report.TypeMismatch, op.Branches[1].Span(), "index must be an integer: `%s` given", indexType.Repr())
	}

	elemType := t.Dereference()
	llElemType, err := b.convType(elemType)
	if err != nil {
		return nil, types.Type{}, report.InSpan(err, op.Span())
	}

	if t.IsArray() {
		loc, _, err := b.genLocation(op.Branches[0], assigning)
		if err != nil {
			return nil, types.Type{}, err
		}

		index, err := b.genValue(op.Branches[1], indexType)
		if err != nil {
			return nil, types.Type{}, err
		}

		llArrayType, err := b.convType(t)
		if err != nil {
			return nil, types.Type{}, err
		}

		return b.block.NewGetElementPtr(llArrayType, loc, constant.NewInt(lltypes.I32, 0), index), elemType, nil
	}

	ptr, err := b.genValue(op.Branches[0], t)
	if err != nil {
		return nil, types.Type{}, err
	}

	index, err := b.genValue(op.Branches[1], indexType)
	if err != nil {
		return nil, types.Type{}, err
	}

	return b.block.NewGetElementPtr(llElemType, ptr, index), elemType, nil
}

// -----------------------------------------------------------------------------

// genStore generates a value expression directly into a location of the
// given type.  Objects are constructed in place and results returned through
// memory are written straight to the location.
func (b *Builder) genStore(expr ast.Expression, loc value.Value, t types.Type) error {
	exprType, err := b.deduce(expr)
	if err != nil {
		return err
	} else if err := resolve.CheckAssignable(exprType, t, expr.Span()); err != nil {
		return err
	}

	if op, ok := expr.(*ast.Operation); ok {
		switch op.Opcode {
		case ast.Construct:
			if t.IsObject() {
				return b.genConstruct(op, loc, t)
			}
		case ast.Call:
			p, pid, err := b.procedureOf(op)
			if err != nil {
				return err
			}

			if p.HasSRet() {
				_, err := b.genCall(op, pid, loc)
				return err
			}
		}
	}

	v, err := b.genValue(expr, t)
	if err != nil {
		return err
	}

	b.block.NewStore(v, loc)
	return nil
}

// markAssigned records that the local at the root of an assignment
// destination now holds a value.
func (b *Builder) markAssigned(dest ast.Expression) {
	for {
		op, ok := dest.(*ast.Operation)
		if !ok || (op.Opcode != ast.AccessMember && op.Opcode != ast.IndexInto) || len(op.Branches) == 0 {
			break
		}

		dest = op.Branches[0]
	}

	if name, ok := ast.NameOf(dest); ok {
		if loc, ok := b.f.lookup(name); ok {
			loc.hasValue = true
		}
	}
}
