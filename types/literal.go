package types

import (
	"requitec/ast"
	"requitec/report"
)

// literalDigitLimits is the exclusive upper bound on the digit count of an
// integer literal for the bit depth at the same index in literalBitDepths.
var literalDigitLimits = [...]int{
	9, 18, 38, 76, 153, 307, 616, 1232, 2465, 4931, 9863, 19396, 39456,
	78912, 157826, 315652, 631305, 1262612, 2525222,
}

var literalBitDepths = [...]int{
	32, 64, 128, 256, 512, 1024, 2048, 4096, 8192, 16384, 32768, 65536,
	131072, 262144, 524288, 1048576, 2097152, 4194304, 8388608,
}

// FromLiteral returns the type of an unannotated literal.  Integer literals
// are signed and at least 32 bits wide; decimal literals are single precision
// floats; codeunit literals are ASCII codeunits; and string literals are
// pointers to ASCII codeunits.
func FromLiteral(lit *ast.Literal) (Type, error) {
	t := Type{Qualifiers: QualLiteral}

	switch lit.Kind {
	case ast.Codeunit:
		t.Root = Codeunit{Encoding: ASCII}
	case ast.String:
		t.Root = Codeunit{Encoding: ASCII}
		t.Subtypes = []Subtype{{Qualifiers: QualPointer}}
	case ast.NumberWithDecimal:
		t.Root = FloatingPoint{Kind: FloatBinarySingle}
	case ast.Number:
		for i, limit := range literalDigitLimits {
			if len(lit.Text) < limit {
				t.Root = Integer{Signed: true, BitDepth: literalBitDepths[i]}
				break
			}
		}

		if t.Root == nil {
			return Type{}, report.Raise(report.LiteralTooLarge, lit.Span(), "literal too large")
		}
	}

	return t, nil
}
