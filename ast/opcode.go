package ast

// Opcode identifies what an operation means.
type Opcode int

// Enumeration of opcodes.
const (
	Unknown Opcode = iota
	AccessTable
	AccessMember
	AccessVariadicArgument
	AddressOf
	And
	AndAnd
	AndEqual
	Arguments
	Assert
	Assume
	At
	Attributes
	Bang
	BangBang
	BangEqual
	BitCast
	Break
	Call
	Carot
	CarotEqual
	Case
	Condition
	Construct
	Constructor
	Continue
	CopySign
	Default
	Destructor
	Destruct
	Dereference
	Divide
	DivideEqual
	Else
	ElseIf
	EndVariadicArguments
	EntryPoint
	Empty
	Equal
	EqualEqual
	ExportGroup
	ExternalFunction
	FallThrough
	False
	For
	Function
	Global
	GoTo
	Greater
	GreaterEqual
	GreaterGreater
	Hash
	If
	Import
	IndeterminateValue
	IndexInto
	InfiniteLoop
	Label
	Less
	LessEqual
	LessLess
	Local
	Max
	MemoryAllocate
	MemoryCopy
	MemoryFree
	MemoryMove
	MemorySet
	Method
	Min
	Minus
	MinusEqual
	Module
	Modulus
	ModulusEqual
	Null
	Object
	ObjectExtension
	Pipe
	PipeEqual
	PipePipe
	Plus
	PlusEqual
	PointerDepth
	Property
	Question
	Return
	Scope
	SizeOf
	Star
	StarEqual
	StartVariadicArguments
	Switch
	This
	Tilde
	True
	Truncate
	TypeAlias
	Unreachable
	While

	// builtin types
	BuiltinVariadicArguments
	BuiltinArray
	BuiltinBool
	BuiltinByte
	BuiltinCodeunit
	BuiltinFixedPoint
	BuiltinFloatingPoint
	BuiltinInteger
	BuiltinVoid
	BuiltinNull

	// attributes
	CallingConvention
	Public
	Private
	Protected
	Internal
	Mutate
	MayDiscard
	Runtime
	NoReturn
	MangledName
	NoAutodestruct
	Packed
	VariadicArguments
)

var opcodeStrings = [...]string{
	Unknown:                  "unknown",
	AccessTable:              ":",
	AccessMember:             ".",
	AccessVariadicArgument:   "access_variadic_argument",
	AddressOf:                "address_of",
	And:                      "&",
	AndAnd:                   "&&",
	AndEqual:                 "&=",
	Arguments:                "arguments",
	Assert:                   "assert",
	Assume:                   "assume",
	At:                       "@",
	Attributes:               "attributes",
	Bang:                     "!",
	BangBang:                 "!!",
	BangEqual:                "!=",
	BitCast:                  "bit_cast",
	Break:                    "break",
	Call:                     "call",
	Carot:                    "^",
	CarotEqual:               "^=",
	Case:                     "case",
	Condition:                "condition",
	Construct:                "construct",
	Constructor:              "constructor",
	Continue:                 "continue",
	CopySign:                 "copy_sign",
	Default:                  "default",
	Destructor:               "destructor",
	Destruct:                 "destruct",
	Dereference:              "dereference",
	Divide:                   "/",
	DivideEqual:              "/=",
	Else:                     "else",
	ElseIf:                   "else_if",
	EndVariadicArguments:     "end_variadic_arguments",
	EntryPoint:               "entry_point",
	Empty:                    "empty",
	Equal:                    "=",
	EqualEqual:               "==",
	ExportGroup:              "export_group",
	ExternalFunction:         "external_function",
	FallThrough:              "fall_through",
	False:                    "false",
	For:                      "for",
	Function:                 "function",
	Global:                   "global",
	GoTo:                     "go_to",
	Greater:                  ">",
	GreaterEqual:             ">=",
	GreaterGreater:           ">>",
	Hash:                     "#",
	If:                       "if",
	Import:                   "import",
	IndeterminateValue:       "indeterminate_value",
	IndexInto:                "index_into",
	InfiniteLoop:             "infinite_loop",
	Label:                    "label",
	Less:                     "<",
	LessEqual:                "<=",
	LessLess:                 "<<",
	Local:                    "local",
	Max:                      "max",
	MemoryAllocate:           "memory_allocate",
	MemoryCopy:               "memory_copy",
	MemoryFree:               "memory_free",
	MemoryMove:               "memory_move",
	MemorySet:                "memory_set",
	Method:                   "method",
	Min:                      "min",
	Minus:                    "-",
	MinusEqual:               "-=",
	Module:                   "module",
	Modulus:                  "%",
	ModulusEqual:             "%=",
	Null:                     "null",
	Object:                   "object",
	ObjectExtension:          "object_extension",
	Pipe:                     "|",
	PipeEqual:                "|=",
	PipePipe:                 "||",
	Plus:                     "+",
	PlusEqual:                "+=",
	PointerDepth:             "pointer_depth",
	Property:                 "property",
	Question:                 "?",
	Return:                   "return",
	Scope:                    "scope",
	SizeOf:                   "size_of",
	Star:                     "*",
	StarEqual:                "*=",
	StartVariadicArguments:   "start_variadic_arguments",
	Switch:                   "switch",
	This:                     "this",
	Tilde:                    "~",
	True:                     "true",
	Truncate:                 "truncate",
	TypeAlias:                "type_alias",
	Unreachable:              "unreachable",
	While:                    "while",
	BuiltinVariadicArguments: "builtin_variadic_arguments",
	BuiltinArray:             "builtin_array",
	BuiltinBool:              "builtin_bool",
	BuiltinByte:              "builtin_byte",
	BuiltinCodeunit:          "builtin_codeunit",
	BuiltinFixedPoint:        "builtin_fixed_point",
	BuiltinFloatingPoint:     "builtin_floating_point",
	BuiltinInteger:           "builtin_integer",
	BuiltinVoid:              "builtin_void",
	BuiltinNull:              "builtin_null",
	CallingConvention:        "calling_convention",
	Public:                   "public",
	Private:                  "private",
	Protected:                "protected",
	Internal:                 "internal",
	Mutate:                   "mutate",
	MayDiscard:               "may_discard",
	Runtime:                  "runtime",
	NoReturn:                 "no_return",
	MangledName:              "mangled_name",
	NoAutodestruct:           "no_autodestruct",
	Packed:                   "packed",
	VariadicArguments:        "variadic_arguments",
}

// opcodesByString maps the string form of every opcode back to the opcode.
var opcodesByString map[string]Opcode

func init() {
	opcodesByString = make(map[string]Opcode, len(opcodeStrings))
	for i, s := range opcodeStrings {
		opcodesByString[s] = Opcode(i)
	}

	// accepted alternate spelling
	opcodesByString["and"] = And
}

func (op Opcode) String() string {
	if op >= 0 && int(op) < len(opcodeStrings) {
		return opcodeStrings[op]
	}

	return "unknown"
}

// LookupOpcode returns the opcode with the given string form.  Unknown is
// returned if no such opcode exists.
func LookupOpcode(s string) Opcode {
	if op, ok := opcodesByString[s]; ok {
		return op
	}

	return Unknown
}

// -----------------------------------------------------------------------------

// IsGlobal returns whether the opcode may appear as a top-level declaration.
func (op Opcode) IsGlobal() bool {
	switch op {
	case Global, Object, ObjectExtension, Function, ExternalFunction, ExportGroup, EntryPoint, Attributes, TypeAlias:
		return true
	}

	return false
}

// IsObjectMember returns whether the opcode may appear inside an object.
func (op Opcode) IsObjectMember() bool {
	switch op {
	case Global, Property, Constructor, Destructor, Method, Function, TypeAlias, Attributes:
		return true
	}

	return false
}

// IsObjectExtensionMember returns whether the opcode may appear inside an
// object extension.
func (op Opcode) IsObjectExtensionMember() bool {
	switch op {
	case Global, Constructor, Method, Attributes:
		return true
	}

	return false
}

// IsVariable returns whether the opcode declares a variable.
func (op Opcode) IsVariable() bool {
	return op == Local || op == Global || op == Property
}

// IsMath returns whether the opcode is an arithmetic operator.
func (op Opcode) IsMath() bool {
	switch op {
	case Plus, Minus, Star, Divide, Modulus:
		return true
	}

	return false
}

// IsBitwise returns whether the opcode is a bitwise operator.
func (op Opcode) IsBitwise() bool {
	switch op {
	case And, Pipe, Carot, LessLess, GreaterGreater:
		return true
	}

	return false
}

// IsLogical returns whether the opcode is a logical operator.
func (op Opcode) IsLogical() bool {
	return op == AndAnd || op == PipePipe || op == Bang
}

// IsComparison returns whether the opcode is a comparison operator.
func (op Opcode) IsComparison() bool {
	switch op {
	case Greater, GreaterEqual, Less, LessEqual, EqualEqual, BangEqual:
		return true
	}

	return false
}

// IsProcedure returns whether the opcode declares a procedure.
func (op Opcode) IsProcedure() bool {
	switch op {
	case Function, Method, Constructor, EntryPoint, ExternalFunction, Destructor:
		return true
	}

	return false
}

// IsAttribute returns whether the opcode is a declaration attribute.
func (op Opcode) IsAttribute() bool {
	return op >= CallingConvention && op <= VariadicArguments
}

// IsBuiltinType returns whether the opcode names a builtin type.
func (op Opcode) IsBuiltinType() bool {
	return op >= BuiltinVariadicArguments && op <= BuiltinNull
}

// ReturnsBool returns whether operations with the opcode evaluate to a bool.
func (op Opcode) ReturnsBool() bool {
	return op.IsLogical() || op.IsComparison() || op == True || op == False
}

// IsAssignment returns whether the opcode is an assignment operator.
func (op Opcode) IsAssignment() bool {
	switch op {
	case Equal, PlusEqual, MinusEqual, StarEqual, DivideEqual, ModulusEqual, AndEqual, PipeEqual, CarotEqual:
		return true
	}

	return false
}

// AssignmentOperator returns the binary operator a compound assignment
// applies.  Unknown is returned for plain assignment.
func (op Opcode) AssignmentOperator() Opcode {
	switch op {
	case PlusEqual:
		return Plus
	case MinusEqual:
		return Minus
	case StarEqual:
		return Star
	case DivideEqual:
		return Divide
	case ModulusEqual:
		return Modulus
	case AndEqual:
		return And
	case PipeEqual:
		return Pipe
	case CarotEqual:
		return Carot
	}

	return Unknown
}
