package types

import "fmt"

// Root is the innermost component of a type.  It must be one of the root
// types enumerated in this file.
type Root interface {
	// Returns the representative string for this root.
	Repr() string

	rootNode()
}

// Integer is an integral root.
type Integer struct {
	// Whether the integer is signed.
	Signed bool

	// The bit depth of the integer.  This is always a non-zero power of two.
	BitDepth int
}

func (it Integer) Repr() string {
	if it.Signed {
		return fmt.Sprintf("i%d", it.BitDepth)
	}

	return fmt.Sprintf("u%d", it.BitDepth)
}

// IsValidIntegerBitDepth returns whether the bit depth is a valid integer
// bit depth: a non-zero power of two.
func IsValidIntegerBitDepth(bitDepth int) bool {
	return bitDepth > 0 && bitDepth&(bitDepth-1) == 0
}

// FloatingPoint is a floating point root.
type FloatingPoint struct {
	// The kind of floating point.
	Kind FloatKind
}

func (fp FloatingPoint) Repr() string {
	return fp.Kind.String()
}

// FixedPoint is a fixed point root.
type FixedPoint struct {
	// The number of integer bits.
	IntegerBits int

	// The number of decimal bits.
	DecimalBits int
}

func (fp FixedPoint) Repr() string {
	return fmt.Sprintf("fixed(%d, %d)", fp.IntegerBits, fp.DecimalBits)
}

// BitDepth returns the total bit depth of the fixed point number.
func (fp FixedPoint) BitDepth() int {
	return fp.IntegerBits + fp.DecimalBits
}

// Codeunit is a text codeunit root.
type Codeunit struct {
	// The encoding of the codeunit.
	Encoding Encoding
}

func (cu Codeunit) Repr() string {
	return "codeunit(" + cu.Encoding.String() + ")"
}

// Special is a special root: one of the enumerated special types below.
type Special int

// Enumeration of special types.
const (
	Bool Special = iota
	Byte
	Void
	VariadicArgs
	Null
)

func (st Special) Repr() string {
	switch st {
	case Bool:
		return "bool"
	case Byte:
		return "byte"
	case Void:
		return "void"
	case VariadicArgs:
		return "variadic_arguments"
	default:
		return "null"
	}
}

// BitDepth returns the storage bit depth of the special type.
func (st Special) BitDepth() int {
	switch st {
	case Bool, Byte:
		return 8
	case VariadicArgs:
		return 24 * 8
	default:
		return 0
	}
}

// ObjectID is the handle of an object in its binary.
type ObjectID int

// ObjectRoot is a root referring to a user object.
type ObjectRoot struct {
	// The handle of the object.
	ID ObjectID

	// The name of the object used for display.
	Name string
}

func (obj ObjectRoot) Repr() string {
	return obj.Name
}

// AliasID is the handle of a type alias in its binary.
type AliasID int

// AliasRoot is a root referring to a type alias which has not yet been
// resolved.
type AliasRoot struct {
	// The handle of the type alias.
	ID AliasID

	// The name of the type alias used for display.
	Name string
}

func (ar AliasRoot) Repr() string {
	return ar.Name
}

func (Integer) rootNode()       {}
func (FloatingPoint) rootNode() {}
func (FixedPoint) rootNode()    {}
func (Codeunit) rootNode()      {}
func (Special) rootNode()       {}
func (ObjectRoot) rootNode()    {}
func (AliasRoot) rootNode()     {}

// -----------------------------------------------------------------------------

// FloatKind is a floating point format.
type FloatKind int

// Enumeration of floating point formats.
const (
	FloatUnknown FloatKind = iota
	FloatBrain
	FloatBinaryHalf
	FloatBinarySingle
	FloatBinaryDouble
	FloatBinaryQuad
	FloatPCCDoubleDouble
	Float8E5M2
	Float8E6M2FNUZ
	Float8E4M3FN
	Float8E4M3FNUZ
	Float8E4M3B11FNUZ
	FloatTF32
	FloatX87DoubleExtended
)

var floatKindNames = [...]string{
	FloatUnknown:           "unknown",
	FloatBrain:             "brain",
	FloatBinaryHalf:        "binary_half",
	FloatBinarySingle:      "binary_single",
	FloatBinaryDouble:      "binary_double",
	FloatBinaryQuad:        "binary_quad",
	FloatPCCDoubleDouble:   "pcc_double_double",
	Float8E5M2:             "float8_e5m2",
	Float8E6M2FNUZ:         "float8_e6m2fnuz",
	Float8E4M3FN:           "float8_e4m3fn",
	Float8E4M3FNUZ:         "float8_e4m3fnuz",
	Float8E4M3B11FNUZ:      "float8_e4m3b11fnuz",
	FloatTF32:              "float_tf32",
	FloatX87DoubleExtended: "x87_double_extended",
}

func (fk FloatKind) String() string {
	if fk >= 0 && int(fk) < len(floatKindNames) {
		return floatKindNames[fk]
	}

	return "unknown"
}

// FloatKindFromName returns the floating point format with the given name.
func FloatKindFromName(name string) (FloatKind, bool) {
	for i, n := range floatKindNames {
		if i != int(FloatUnknown) && n == name {
			return FloatKind(i), true
		}
	}

	return FloatUnknown, false
}

// BitDepth returns the storage bit depth of the floating point format.
func (fk FloatKind) BitDepth() int {
	switch fk {
	case Float8E5M2, Float8E6M2FNUZ, Float8E4M3FN, Float8E4M3FNUZ, Float8E4M3B11FNUZ:
		return 8
	case FloatBrain, FloatBinaryHalf:
		return 16
	case FloatBinarySingle, FloatTF32:
		return 32
	case FloatBinaryDouble:
		return 64
	case FloatBinaryQuad, FloatPCCDoubleDouble, FloatX87DoubleExtended:
		return 128
	}

	return 0
}

// Encoding is a text encoding for codeunits.
type Encoding int

// Enumeration of encodings.
const (
	EncodingUnknown Encoding = iota
	ASCII
	CP1251
	CP1252
	CP437
	Latin1
	UTF8
	UTF16
	UTF16LE
	UTF16BE
	UTF32
	UTF32LE
	UTF32BE
)

var encodingNames = [...]string{
	EncodingUnknown: "unknown",
	ASCII:           "ascii",
	CP1251:          "cp1251",
	CP1252:          "cp1252",
	CP437:           "cp437",
	Latin1:          "latin1",
	UTF8:            "utf8",
	UTF16:           "utf16",
	UTF16LE:         "utf16le",
	UTF16BE:         "utf16be",
	UTF32:           "utf32",
	UTF32LE:         "utf32le",
	UTF32BE:         "utf32be",
}

func (e Encoding) String() string {
	if e >= 0 && int(e) < len(encodingNames) {
		return encodingNames[e]
	}

	return "unknown"
}

// EncodingFromName returns the encoding with the given name.
func EncodingFromName(name string) (Encoding, bool) {
	for i, n := range encodingNames {
		if i != int(EncodingUnknown) && n == name {
			return Encoding(i), true
		}
	}

	return EncodingUnknown, false
}

// BitDepth returns the bit depth of one codeunit in the encoding.
func (e Encoding) BitDepth() int {
	switch e {
	case UTF16, UTF16LE, UTF16BE:
		return 16
	case UTF32, UTF32LE, UTF32BE:
		return 32
	case EncodingUnknown:
		return 0
	}

	return 8
}

// IsASCIICompatible returns whether ASCII text is valid in the encoding.
func (e Encoding) IsASCIICompatible() bool {
	return e == ASCII || e == Latin1 || e == UTF8
}
