package ast

// AttributeList is the attribute list of a declaration.  In the expression tree
// an attributed declaration is an `attributes` operation whose last branch is
// the declaration and whose preceding branches are the attributes.
type AttributeList struct {
	ops []*Operation
}

// UnwrapAttributes returns the declaration wrapped by an `attributes`
// operation along with its attribute list.  Any other operation is returned
// as is with an empty attribute list.
func UnwrapAttributes(op *Operation) (*Operation, AttributeList) {
	if op.Opcode != Attributes || len(op.Branches) == 0 {
		return op, AttributeList{}
	}

	var attrs AttributeList
	for _, branch := range op.Branches[:len(op.Branches)-1] {
		switch v := branch.(type) {
		case *Operation:
			attrs.ops = append(attrs.ops, v)
		case *Identifier:
			// bare attribute words such as `packed`
			if opcode := LookupOpcode(v.Name); opcode.IsAttribute() {
				attrs.ops = append(attrs.ops, NewOperation(opcode, v.Span()))
			}
		}
	}

	decl, ok := op.Branches[len(op.Branches)-1].(*Operation)
	if !ok {
		return op, attrs
	}

	// nested attribute lists are merged
	if decl.Opcode == Attributes {
		inner, innerAttrs := UnwrapAttributes(decl)
		attrs.ops = append(attrs.ops, innerAttrs.ops...)
		return inner, attrs
	}

	return decl, attrs
}

// Get returns the attribute with the given opcode if it exists.
func (a AttributeList) Get(opcode Opcode) (*Operation, bool) {
	for _, op := range a.ops {
		if op.Opcode == opcode {
			return op, true
		}
	}

	return nil, false
}

// Has returns whether the attribute list contains the given attribute.
func (a AttributeList) Has(opcode Opcode) bool {
	_, ok := a.Get(opcode)
	return ok
}

// Len returns the number of attributes.
func (a AttributeList) Len() int {
	return len(a.ops)
}

// Each calls f on every attribute in order.
func (a AttributeList) Each(f func(*Operation)) {
	for _, op := range a.ops {
		f(op)
	}
}
