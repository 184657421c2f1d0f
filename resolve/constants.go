package resolve

import (
	"math/big"

	"requitec/ast"
	"requitec/report"
	"requitec/types"
)

// IntegerConstant evaluates a constant integer expression of the expected
// integer type.  Constant expressions are integer literals under any number of
// unary signs, and `[pointer_depth]`.
func (r *Resolver) IntegerConstant(expr ast.Expression, expected types.Type) (*big.Int, error) {
	it, ok := expected.Root.(types.Integer)
	if !ok || !expected.IsInteger() {
		return nil, report.Raise(report.TypeMismatch, expr.Span(), "integer constant expected as `%s`", expected.Repr())
	}

	span := expr.Span()
	negative := false
	for {
		op, ok := expr.(*ast.Operation)
		if !ok {
			break
		}

		if op.Opcode == ast.PointerDepth && len(op.Branches) == 0 {
			if negative {
				return nil, report.Raise(report.InvalidOperation, span, "pointer depth can not be negated")
			}

			if err := CheckAssignable(r.UptrType(), expected, span); err != nil {
				return nil, err
			}

			return big.NewInt(int64(r.PointerBitDepth())), nil
		}

		if (op.Opcode != ast.Minus && op.Opcode != ast.Plus) || len(op.Branches) != 1 {
			return nil, report.Raise(report.InvalidOperation, span, "expression is not an integer constant")
		}

		if op.Opcode == ast.Minus {
			negative = !negative
		}

		expr = op.Branches[0]
	}

	lit, ok := expr.(*ast.Literal)
	if !ok || lit.Kind != ast.Number {
		return nil, report.Raise(report.InvalidOperation, span, "expression is not an integer constant")
	}

	n, ok := new(big.Int).SetString(lit.Text, 10)
	if !ok {
		return nil, report.Raise(report.InvalidOperation, span, "malformed integer literal: `%s`", lit.Text)
	}

	if negative {
		n.Neg(n)
	}

	if !fitsInteger(n, it) {
		return nil, report.Raise(report.LiteralTooLarge, span, "constant does not fit in `%s`", expected.Repr())
	}

	return n, nil
}

// fitsInteger returns whether n is representable by the integer type.
func fitsInteger(n *big.Int, it types.Integer) bool {
	if it.Signed {
		limit := new(big.Int).Lsh(big.NewInt(1), uint(it.BitDepth-1))
		return n.Cmp(new(big.Int).Neg(limit)) >= 0 && n.Cmp(limit) < 0
	}

	return n.Sign() >= 0 && n.BitLen() <= it.BitDepth
}
