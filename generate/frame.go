package generate

import (
	"requitec/report"
	"requitec/types"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	lltypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// local is a variable local to the procedure being generated.  Temporaries
// are locals with no name.
type local struct {
	name string
	typ  types.Type

	// The LLVM type of the local and its stack slot.
	llType lltypes.Type
	alloca value.Value

	// hasValue indicates whether the local has been assigned.  Only assigned
	// locals may be read or destructed.
	hasValue bool

	// noAutodestruct exempts the local from destruction at scope exit.
	noAutodestruct bool
}

// label is a named jump target.
type label struct {
	block  *ir.Block
	placed bool
	span   *report.TextSpan
}

// jumpTarget is the block a `break` or `continue` jumps to along with the
// scope depth it leaves to.
type jumpTarget struct {
	block *ir.Block
	depth int
	used  bool
}

// frame holds the locals and jump targets of the procedure being generated.
type frame struct {
	// locals is the stack of live locals.
	locals []*local

	// scopes holds the number of locals live when each scope was entered.
	scopes []int

	labels map[string]*label

	breaks    []*jumpTarget
	continues []*jumpTarget
}

func newFrame() *frame {
	return &frame{labels: make(map[string]*label)}
}

// LocalType returns the type of the live local with the given name.
func (f *frame) LocalType(name string) (types.Type, bool) {
	if loc, ok := f.lookup(name); ok {
		return loc.typ, true
	}

	return types.Type{}, false
}

// lookup finds the innermost live local with the given name.
func (f *frame) lookup(name string) (*local, bool) {
	if name == "" {
		return nil, false
	}

	for i := len(f.locals) - 1; i >= 0; i-- {
		if f.locals[i].name == name {
			return f.locals[i], true
		}
	}

	return nil, false
}

// depth returns the current scope depth.
func (f *frame) depth() int {
	return len(f.scopes)
}

// -----------------------------------------------------------------------------

// addLocal declares a new local in the current scope and allocates its stack
// slot in the entry block.
func (b *Builder) addLocal(name string, t types.Type, span *report.TextSpan) (*local, error) {
	if _, ok := b.f.lookup(name); ok {
		return nil, report.Raise(report.DuplicateLocal, span, "multiple locals named `%s`", name)
	}

	llType, err := b.convType(t)
	if err != nil {
		return nil, report.InSpan(err, span)
	}

	loc := &local{
		name:   name,
		typ:    t,
		llType: llType,
		alloca: b.entry.NewAlloca(llType),
	}

	b.f.locals = append(b.f.locals, loc)
	return loc, nil
}

// addTemporary allocates an unnamed local which is destructed along with the
// current scope.
func (b *Builder) addTemporary(t types.Type) (*local, error) {
	loc, err := b.addLocal("", t, nil)
	if err != nil {
		return nil, err
	}

	loc.hasValue = true
	return loc, nil
}

// pushScope enters a new lexical scope.
func (b *Builder) pushScope() {
	b.f.scopes = append(b.f.scopes, len(b.f.locals))
}

// popScope exits the current lexical scope.  If destruct is set and the
// current block still falls through, the locals of the scope are destructed.
func (b *Builder) popScope(destruct bool) error {
	start := b.f.scopes[len(b.f.scopes)-1]

	if destruct && !b.isTerminated() {
		if err := b.destructLocals(start); err != nil {
			return err
		}
	}

	b.f.locals = b.f.locals[:start]
	b.f.scopes = b.f.scopes[:len(b.f.scopes)-1]
	return nil
}

// autodestructFrom destructs every local of the scopes at or below the given
// depth without leaving them.  This is used before jumping out of scopes.
func (b *Builder) autodestructFrom(depth int) error {
	if depth >= len(b.f.scopes) {
		return nil
	}

	return b.destructLocals(b.f.scopes[depth])
}

// destructLocals destructs the locals from the given index upward in reverse
// declaration order.
func (b *Builder) destructLocals(start int) error {
	for i := len(b.f.locals) - 1; i >= start; i-- {
		if err := b.autodestruct(b.f.locals[i]); err != nil {
			return err
		}
	}

	return nil
}

// autodestruct destructs a local if it holds an object which needs
// destruction.
func (b *Builder) autodestruct(loc *local) error {
	if !loc.hasValue || loc.noAutodestruct {
		return nil
	}

	oid, ok := loc.typ.Object()
	if !ok || !loc.typ.IsObject() || !b.bin.NeedsDestruction(oid) {
		return nil
	}

	return b.destructAt(loc.alloca, oid)
}

// destructAt destructs the object at a location: its destructor runs first
// and then its properties are destructed in reverse order.
func (b *Builder) destructAt(loc value.Value, oid types.ObjectID) error {
	o := b.bin.Object(oid)

	if o.HasDestructor() {
		fn, err := b.funcOf(o.Destructor)
		if err != nil {
			return err
		}

		call := b.block.NewCall(fn, loc)
		call.CallingConv = fn.CallingConv
	}

	for i := len(o.Properties) - 1; i >= 0; i-- {
		prop := b.bin.Property(o.Properties[i])
		if prop.IsNoAutodestruct() {
			continue
		}

		propType, err := b.r.Concrete(prop.Type)
		if err != nil {
			return err
		}

		poid, ok := propType.Object()
		if !ok || !propType.IsObject() || !b.bin.NeedsDestruction(poid) {
			continue
		}

		propLoc := b.block.NewGetElementPtr(
			b.useStruct(oid),
			loc,
			constant.NewInt(lltypes.I32, 0),
			constant.NewInt(lltypes.I32, int64(i)),
		)

		if err := b.destructAt(propLoc, poid); err != nil {
			return err
		}
	}

	return nil
}

// -----------------------------------------------------------------------------

// labelNamed returns the label with the given name creating its block if it
// has not been seen yet.
func (b *Builder) labelNamed(name string, span *report.TextSpan) *label {
	if lbl, ok := b.f.labels[name]; ok {
		return lbl
	}

	lbl := &label{block: b.appendBlock("label"), span: span}
	b.f.labels[name] = lbl
	return lbl
}

// finishFrame checks that every label jumped to was placed and terminates
// every block left open.  Blocks left open are unreachable: they follow a
// jump within the same statement list.
func (b *Builder) finishFrame() error {
	for name, lbl := range b.f.labels {
		if !lbl.placed {
			return report.Raise(report.MissingLabel, lbl.span, "label `%s` was never placed", name)
		}
	}

	for _, block := range b.enclosingFunc.Blocks {
		if block.Term == nil {
			block.NewUnreachable()
		}
	}

	return nil
}
