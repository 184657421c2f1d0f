package common

// Version is the current Requite compiler version as a string.
const Version string = "0.1.0"

// ModuleFileName is the name of Requite project files.
const ModuleFileName string = "requite-mod.toml"

// SrcFileExt is the file extension for a Requite source file.
const SrcFileExt string = ".requite"

// IRFileExt is the file extension for emitted textual IR.
const IRFileExt string = ".ll"

// ReservedPrefix prefixes every compiler-generated name.  User module names
// may not begin with it.
const ReservedPrefix string = "_____"

// DefaultPointerWidth is the pointer width in bits used when no profile
// specifies one.
const DefaultPointerWidth int = 64
