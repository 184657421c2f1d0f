package resolve

import (
	"requitec/ast"
	"requitec/depm"
	"requitec/report"
	"requitec/types"
)

// ProcedureGroupOf returns the procedure group named by the callee expression
// of a call.  A member access names a method of the object it is applied to.
func (r *Resolver) ProcedureGroupOf(expr ast.Expression, locals Locals) (depm.GroupID, error) {
	if op, ok := expr.(*ast.Operation); ok && op.Opcode == ast.AccessMember {
		oid, err := r.ObjectOfMember(op, locals)
		if err != nil {
			return depm.None, err
		}

		last := op.Branches[len(op.Branches)-1]
		name, _ := ast.NameOf(last)
		gid, ok := r.bin.Object(oid).Table.LookupKind(name, depm.SymGroup)
		if !ok {
			return depm.None, report.Raise(report.UnresolvedSymbol, last.Span(), "no method of name `%s`", name)
		}

		if !r.bin.Group(depm.GroupID(gid)).Category.IsInstanced() {
			return depm.None, report.Raise(report.InvalidOperation, last.Span(), "`%s` is not a method", name)
		}

		return depm.GroupID(gid), nil
	}

	sym, err := r.SymbolOf(expr)
	if err != nil {
		return depm.None, err
	} else if sym.Kind != depm.SymGroup {
		return depm.None, report.Raise(report.UnresolvedSymbol, expr.Span(), "no procedure of name: %s is not callable", sym.Kind)
	}

	return depm.GroupID(sym.ID), nil
}

// deduceArgs deduces the types of argument expressions.
func (r *Resolver) deduceArgs(exprs []ast.Expression, locals Locals) ([]types.Type, error) {
	args := make([]types.Type, len(exprs))
	for i, expr := range exprs {
		t, err := r.DeduceType(expr, locals)
		if err != nil {
			return nil, err
		}

		args[i] = t
	}

	return args, nil
}

// CallProcedure selects the overload invoked by a call operation.
func (r *Resolver) CallProcedure(op *ast.Operation, locals Locals) (depm.ProcedureID, error) {
	if op.Opcode != ast.Call || len(op.Branches) == 0 {
		return depm.None, report.Raise(report.InvalidOperation, op.Span(), "call must have a callee")
	}

	gid, err := r.ProcedureGroupOf(op.Branches[0], locals)
	if err != nil {
		return depm.None, err
	}

	args, err := r.deduceArgs(op.Branches[1:], locals)
	if err != nil {
		return depm.None, err
	}

	return r.BestOverload(gid, args, op.Span())
}

// ConstructProcedure selects the constructor invoked by a construct
// operation.  The constructed type must be assignable to the expected type if
// one is given.
func (r *Resolver) ConstructProcedure(op *ast.Operation, expected types.Type, locals Locals) (depm.ProcedureID, error) {
	if op.Opcode != ast.Construct || len(op.Branches) == 0 {
		return depm.None, report.Raise(report.InvalidOperation, op.Span(), "construct must have a type")
	}

	t, err := r.ResolveConcreteType(op.Branches[0], false)
	if err != nil {
		return depm.None, err
	}

	if !expected.IsEmpty() {
		if err := CheckAssignable(t, expected, op.Span()); err != nil {
			return depm.None, err
		}
	}

	oid, ok := t.Object()
	if !ok || !t.IsObject() {
		return depm.None, report.Raise(report.TypeMismatch, op.Branches[0].Span(), "type `%s` has no constructor", t.Repr())
	}

	args, err := r.deduceArgs(op.Branches[1:], locals)
	if err != nil {
		return depm.None, err
	}

	return r.BestOverload(r.bin.Object(oid).ConstructorGroup, args, op.Span())
}

// BestOverload selects the one overload of a group which accepts the given
// argument types.  An overload accepts the arguments if it takes as many
// arguments, or no more for variadic overloads, and every argument is
// assignable to its parameter.  Exactly one overload may accept: there is no
// ranking between overloads.
func (r *Resolver) BestOverload(gid depm.GroupID, args []types.Type, span *report.TextSpan) (depm.ProcedureID, error) {
	g := r.bin.Group(gid)

	chosen := depm.ProcedureID(depm.None)
	for _, pid := range g.Overloads {
		if !accepts(r.bin.Procedure(pid), args) {
			continue
		}

		if chosen != depm.None {
			return depm.None, report.Raise(report.AmbiguousOverload, span, "can not choose overload of `%s` due to ambiguity", groupName(g))
		}

		chosen = pid
	}

	if chosen == depm.None {
		return depm.None, report.Raise(report.NoMatchingOverload, span, "no %s of name `%s` with matching arguments", g.Category, groupName(g))
	}

	return chosen, nil
}

// accepts returns whether a procedure accepts the given argument types.
func accepts(p *depm.Procedure, args []types.Type) bool {
	if p.HasVariadicArgs {
		if len(p.Args) > len(args) {
			return false
		}
	} else if len(p.Args) != len(args) {
		return false
	}

	for i, arg := range p.Args {
		if !IsAssignable(args[i], arg.Type) {
			return false
		}
	}

	return true
}

func groupName(g *depm.ProcedureGroup) string {
	if g.Name == "" {
		return g.Category.String()
	}

	return g.Name
}

// CheckOverloadIsUnique checks that no overload declared before a procedure
// in its group takes exactly the same arguments.  Argument types are compared
// with type aliases resolved.
func (r *Resolver) CheckOverloadIsUnique(pid depm.ProcedureID) error {
	p := r.bin.Procedure(pid)
	g := r.bin.Group(p.Group)

	for _, other := range g.Overloads {
		if other == pid {
			break
		}

		op := r.bin.Procedure(other)
		if op.HasVariadicArgs != p.HasVariadicArgs || len(op.Args) != len(p.Args) {
			continue
		}

		same := true
		for i, arg := range p.Args {
			if !r.sameConcreteType(arg.Type, op.Args[i].Type) {
				same = false
				break
			}
		}

		if same {
			var span *report.TextSpan
			if p.Decl != nil {
				span = p.Decl.Span()
			}

			return report.Raise(report.DuplicateOverload, span, "duplicate overload of `%s` with the same arguments", groupName(g))
		}
	}

	return nil
}

// sameConcreteType returns whether two types are equal once their aliases are
// resolved.
func (r *Resolver) sameConcreteType(a, b types.Type) bool {
	ca, err := r.Concrete(a)
	if err != nil {
		return false
	}

	cb, err := r.Concrete(b)
	if err != nil {
		return false
	}

	return types.Equal(ca, cb)
}
