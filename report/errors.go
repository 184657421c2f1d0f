package report

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a compile error.  Every check in the compiler raises
// exactly one kind so that callers can decide how to handle a failure without
// matching on message text.
type ErrorKind int

// Enumeration of compile error kinds.
const (
	Syntax ErrorKind = iota

	// module graph
	DuplicateModule
	ModuleNotFound
	InvalidModuleName
	CircularImport

	// cataloging
	DuplicateSymbol
	DuplicateOverload
	DuplicateEntryPoint
	InvalidDeclaration
	InvalidAttribute

	// resolution
	UnresolvedSymbol
	UnresolvedType
	AliasCycle
	NoMatchingOverload
	AmbiguousOverload

	// typing
	TypeMismatch
	NoCommonType
	LiteralTooLarge

	// lowering
	UnassignedVariable
	DuplicateLocal
	DuplicateLabel
	MissingLabel
	MissingReturn
	InvalidOperation
	Unsupported
)

var errorKindNames = map[ErrorKind]string{
	Syntax:              "Syntax",
	DuplicateModule:     "Duplicate Module",
	ModuleNotFound:      "Module Not Found",
	InvalidModuleName:   "Module Name",
	CircularImport:      "Circular Import",
	DuplicateSymbol:     "Duplicate Symbol",
	DuplicateOverload:   "Duplicate Overload",
	DuplicateEntryPoint: "Entry Point",
	InvalidDeclaration:  "Declaration",
	InvalidAttribute:    "Attribute",
	UnresolvedSymbol:    "Unresolved Symbol",
	UnresolvedType:      "Unresolved Type",
	AliasCycle:          "Alias Cycle",
	NoMatchingOverload:  "No Matching Overload",
	AmbiguousOverload:   "Ambiguous Overload",
	TypeMismatch:        "Type",
	NoCommonType:        "Type",
	LiteralTooLarge:     "Literal",
	UnassignedVariable:  "Unassigned Variable",
	DuplicateLocal:      "Duplicate Local",
	DuplicateLabel:      "Duplicate Label",
	MissingLabel:        "Missing Label",
	MissingReturn:       "Missing Return",
	InvalidOperation:    "Operation",
	Unsupported:         "Unsupported",
}

func (k ErrorKind) String() string {
	if name, ok := errorKindNames[k]; ok {
		return name
	}

	return "Compile"
}

// -----------------------------------------------------------------------------

// CompileError is an error in the user's program.  Compilation stops at the
// first compile error: the error travels back up the pipeline as an ordinary
// Go error and is displayed by the driver.
type CompileError struct {
	// The kind of check which failed.
	Kind ErrorKind

	// The error message.
	Message string

	// The span over which the error occurs.  This may be nil if no position is
	// known.
	Span *TextSpan

	// The path to the source file of the module in which the error occurred.
	// This is filled in as the error passes out of module-level processing.
	ModulePath string
}

func (ce *CompileError) Error() string {
	if ce.ModulePath == "" {
		return ce.Message
	}

	if ce.Span == nil {
		return fmt.Sprintf("%s: %s", ce.ModulePath, ce.Message)
	}

	return fmt.Sprintf("%s:%d:%d: %s", ce.ModulePath, ce.Span.StartLine+1, ce.Span.StartCol+1, ce.Message)
}

// Raise creates a new compile error of the given kind.
func Raise(kind ErrorKind, span *TextSpan, msg string, args ...interface{}) *CompileError {
	return &CompileError{Kind: kind, Message: fmt.Sprintf(msg, args...), Span: span}
}

// InModule attaches a module path to err if it is a compile error which does
// not yet have one.  Any other error is returned unchanged.
func InModule(err error, modulePath string) error {
	var cerr *CompileError
	if errors.As(err, &cerr) && cerr.ModulePath == "" {
		cerr.ModulePath = modulePath
	}

	return err
}

// KindOf returns the kind of compile error wrapped by err.
func KindOf(err error) (ErrorKind, bool) {
	var cerr *CompileError
	if errors.As(err, &cerr) {
		return cerr.Kind, true
	}

	return 0, false
}

// IsKind returns whether err wraps a compile error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// InSpan attaches a span to err if it is a compile error which does not yet
// have one.  Any other error is returned unchanged.
func InSpan(err error, span *TextSpan) error {
	var cerr *CompileError
	if errors.As(err, &cerr) && cerr.Span == nil {
		cerr.Span = span
	}

	return err
}
