package generate

import (
	"fmt"

	"requitec/ast"
	"requitec/depm"
	"requitec/report"
	"requitec/resolve"
	"requitec/types"

	"github.com/llir/llvm/ir"
	lltypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// Builder is responsible for lowering a cataloged binary into LLVM IR.  It
// converts each module into a single LLVM module.  Generation runs in two
// passes over the ordered modules: prototypes for every module first and then
// bodies, so that every procedure can be called from any module regardless of
// order.
type Builder struct {
	bin *depm.Binary
	r   *resolve.Resolver

	// mods maps each module to its LLVM module.
	mods map[depm.ModuleID]*ir.Module

	// structs is the LLVM struct type of every object.
	structs map[types.ObjectID]*lltypes.StructType

	// The declarations made in each LLVM module.  Entities declared in other
	// modules are added to a module on first use.
	funcs      map[depm.ModuleID]map[depm.ProcedureID]*ir.Func
	globals    map[depm.ModuleID]map[depm.GlobalID]*ir.Global
	typeDefs   map[depm.ModuleID]map[types.ObjectID]struct{}
	intrinsics map[depm.ModuleID]map[string]*ir.Func

	// module is the module being generated.
	module *depm.Module

	// mod is the LLVM module of the module being generated.
	mod *ir.Module

	// stringCounter numbers the string literal globals of the current module.
	stringCounter int

	// proc is the procedure whose body is being generated.
	proc *depm.Procedure

	// enclosingFunc is the function whose body is being generated.
	enclosingFunc *ir.Func

	// entry is the entry block of the enclosing function.  All allocas are
	// placed in it.
	entry *ir.Block

	// block is the block currently being generated.
	block *ir.Block

	// f is the frame of the procedure being generated.
	f *frame
}

// NewBuilder creates a new builder for a cataloged binary.
func NewBuilder(bin *depm.Binary, r *resolve.Resolver) *Builder {
	return &Builder{
		bin:        bin,
		r:          r,
		mods:       make(map[depm.ModuleID]*ir.Module),
		structs:    make(map[types.ObjectID]*lltypes.StructType),
		funcs:      make(map[depm.ModuleID]map[depm.ProcedureID]*ir.Func),
		globals:    make(map[depm.ModuleID]map[depm.GlobalID]*ir.Global),
		typeDefs:   make(map[depm.ModuleID]map[types.ObjectID]struct{}),
		intrinsics: make(map[depm.ModuleID]map[string]*ir.Func),
	}
}

// GenerateBinary generates every module of the binary: the struct types of all
// objects, then the prototypes of every module, and finally every body.
func (b *Builder) GenerateBinary() error {
	if err := b.declareStructs(); err != nil {
		return err
	}

	mods := b.bin.OrderedModules()
	for _, m := range mods {
		if err := b.GeneratePrototypes(m); err != nil {
			return report.InModule(err, m.Path)
		}
	}

	for _, m := range mods {
		if err := b.GenerateModule(m); err != nil {
			return report.InModule(err, m.Path)
		}
	}

	return nil
}

// IRModule returns the LLVM module generated for a module.
func (b *Builder) IRModule(m *depm.Module) *ir.Module {
	return b.mods[m.ID]
}

// enterModule makes a module the current module, creating its LLVM module as
// necessary.
func (b *Builder) enterModule(m *depm.Module) {
	b.module = m

	mod, ok := b.mods[m.ID]
	if !ok {
		mod = ir.NewModule()
		mod.SourceFilename = m.Path
		mod.TargetTriple = b.bin.TargetTriple

		b.mods[m.ID] = mod
		b.funcs[m.ID] = make(map[depm.ProcedureID]*ir.Func)
		b.globals[m.ID] = make(map[depm.GlobalID]*ir.Global)
		b.typeDefs[m.ID] = make(map[types.ObjectID]struct{})
		b.intrinsics[m.ID] = make(map[string]*ir.Func)
	}

	b.mod = mod
}

// GeneratePrototypes declares the struct types, functions, and globals of a
// module.  The struct types of every object must already be declared.
func (b *Builder) GeneratePrototypes(m *depm.Module) error {
	b.enterModule(m)

	for _, oid := range m.Objects {
		b.useStruct(oid)
	}

	for _, pid := range m.Procedures {
		if _, err := b.funcOf(pid); err != nil {
			return err
		}
	}

	for _, gid := range m.Globals {
		if err := b.defineGlobal(gid); err != nil {
			return err
		}
	}

	return nil
}

// GenerateModule generates the bodies of every procedure of a module.
// External functions have no body and remain declarations.
func (b *Builder) GenerateModule(m *depm.Module) error {
	b.enterModule(m)

	for _, pid := range m.Procedures {
		if b.bin.Procedure(pid).Category == depm.CategoryExternalFunction {
			continue
		}

		if err := b.genBody(pid); err != nil {
			return err
		}
	}

	return nil
}

// -----------------------------------------------------------------------------

// appendBlock adds a new basic block to the current function.  It does *not*
// set the current block to this new block.
func (b *Builder) appendBlock(label string) *ir.Block {
	return b.enclosingFunc.NewBlock(fmt.Sprintf("%s%d", label, len(b.enclosingFunc.Blocks)))
}

// isTerminated returns whether the current block already transfers control.
func (b *Builder) isTerminated() bool {
	return b.block.Term != nil
}

// intrinsic returns the declaration of an LLVM intrinsic in the current module.
func (b *Builder) intrinsic(name string, ret lltypes.Type, params ...lltypes.Type) *ir.Func {
	if fn, ok := b.intrinsics[b.module.ID][name]; ok {
		return fn
	}

	llParams := make([]*ir.Param, len(params))
	for i, pt := range params {
		llParams[i] = ir.NewParam("", pt)
	}

	fn := b.mod.NewFunc(name, ret, llParams...)
	b.intrinsics[b.module.ID][name] = fn
	return fn
}

// locals returns the locals of the current frame as seen by the resolver.
func (b *Builder) locals() resolve.Locals {
	if b.f == nil {
		return nil
	}

	return b.f
}

// deduce deduces the type of a value expression with its type alias resolved.
func (b *Builder) deduce(expr ast.Expression) (types.Type, error) {
	t, err := b.r.DeduceType(expr, b.locals())
	if err != nil {
		return types.Type{}, err
	}

	t, err = b.r.Concrete(t)
	if err != nil {
		return types.Type{}, report.InSpan(err, expr.Span())
	}

	return t, nil
}

// deduceCleared deduces the type of a value expression and drops its literal
// flag: a literal is given the type it would have standing alone.
func (b *Builder) deduceCleared(expr ast.Expression) (types.Type, error) {
	t, err := b.deduce(expr)
	if err != nil {
		return types.Type{}, err
	}

	return t.ClearLiterals(), nil
}

// load loads a value of the given type from a location.
func (b *Builder) load(t types.Type, loc value.Value) (value.Value, error) {
	llType, err := b.convType(t)
	if err != nil {
		return nil, err
	}

	return b.block.NewLoad(llType, loc), nil
}
